package hardware

import (
	"encoding/json"
	"fmt"
	"os"
)

// DefaultConfigFile is where the CLI looks for hardware configuration.
const DefaultConfigFile = "mech.json"

// Config maps named actuators onto servos of one serial bus.
type Config struct {
	Port   string                      `json:"port"`
	Baud   int                         `json:"baud,omitempty"`
	Servos map[string]ServoCalibration `json:"servos"` // keyed by actuator name
}

// ServoCalibration holds per-servo calibration data. RangeMin and RangeMax
// are the raw tick readings at the ends of the travel recorded during
// calibration.
type ServoCalibration struct {
	ID       int `json:"id"`
	RangeMin int `json:"range_min"`
	RangeMax int `json:"range_max"`
}

// Normalize converts a raw servo position to a normalized value in the
// range [-100, 100]. Actuator positions on a Feetech bus are reported in
// these units.
func (c ServoCalibration) Normalize(raw int) float64 {
	rangeSize := float64(c.RangeMax - c.RangeMin)
	if rangeSize == 0 {
		return 0
	}
	return (float64(raw-c.RangeMin)/rangeSize)*200 - 100
}

// Denormalize converts a normalized value [-100, 100] to a raw servo
// position.
func (c ServoCalibration) Denormalize(norm float64) int {
	rangeSize := float64(c.RangeMax - c.RangeMin)
	return int((norm+100)/200*rangeSize) + c.RangeMin
}

// ByID returns the actuator name and calibration for a servo ID.
func (c *Config) ByID(id int) (string, ServoCalibration, bool) {
	for name, sc := range c.Servos {
		if sc.ID == id {
			return name, sc, true
		}
	}
	return "", ServoCalibration{}, false
}

// LoadConfig loads hardware configuration from a file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read hardware config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse hardware config: %w", err)
	}
	return &cfg, nil
}

// Save writes the configuration to a file.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
