package mech

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gwillem/mech/pkg/urdf"
)

// Robot is the static mechanism model: the parsed description plus the
// transmissions built from it, wired to the hardware interface. Build it
// once at startup; it is immutable afterwards.
type Robot struct {
	hw    HardwareInterface
	model *urdf.Model
	log   *slog.Logger

	transmissions []Transmission
}

// NewRobot parses the robot description and constructs every transmission
// entry through the factory registry. The first failing entry aborts
// construction; there is no partial robot.
//
// A nil logger means slog.Default(). All diagnostics from the mechanism
// model go through this logger.
func NewRobot(description []byte, hw HardwareInterface, logger *slog.Logger) (*Robot, error) {
	if hw == nil {
		return nil, ErrInvalidHardware
	}
	if logger == nil {
		logger = slog.Default()
	}

	model, err := urdf.Parse(description)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStructuralParse, err)
	}

	r := &Robot{hw: hw, model: model, log: logger}

	claimed := map[string]string{} // joint name -> claiming transmission
	for i := range model.Transmissions {
		cfg := &model.Transmissions[i]

		factory, ok := lookupFactory(cfg.Type)
		if cfg.Type == "" || !ok {
			return nil, &TransmissionError{Name: cfg.Name, Type: cfg.Type, Step: ErrUnknownTransmissionType}
		}

		t, err := factory(cfg, r)
		if err != nil {
			return nil, &TransmissionError{Name: cfg.Name, Type: cfg.Type, Step: ErrTransmissionConstruction, Err: err}
		}

		if err := r.validateTransmission(t, claimed); err != nil {
			return nil, &TransmissionError{Name: cfg.Name, Type: cfg.Type, Step: err, Err: nil}
		}

		r.transmissions = append(r.transmissions, t)
	}

	return r, nil
}

// validateTransmission checks that every actuator and joint the transmission
// names exists, and that no joint is claimed twice across transmissions.
func (r *Robot) validateTransmission(t Transmission, claimed map[string]string) error {
	for _, name := range t.ActuatorNames() {
		if r.hw.GetActuator(name) == nil {
			return fmt.Errorf("%w: actuator %q not present in hardware", ErrTransmissionInit, name)
		}
	}
	for _, name := range t.JointNames() {
		if r.model.Joint(name) == nil {
			return fmt.Errorf("%w: joint %q not in robot description", ErrTransmissionInit, name)
		}
		if prev, dup := claimed[name]; dup {
			return fmt.Errorf("%w: joint %q already driven by transmission %q", ErrDuplicateJointBinding, name, prev)
		}
		claimed[name] = t.Name()
	}
	return nil
}

// Transmissions returns the transmission list in description order. Callers
// must treat it as read-only.
func (r *Robot) Transmissions() []Transmission {
	return r.transmissions
}

// TransmissionIndex returns the index of the named transmission, or -1.
func (r *Robot) TransmissionIndex(name string) int {
	for i, t := range r.transmissions {
		if t.Name() == name {
			return i
		}
	}
	return -1
}

// Transmission returns the named transmission, or nil.
func (r *Robot) Transmission(name string) Transmission {
	if i := r.TransmissionIndex(name); i >= 0 {
		return r.transmissions[i]
	}
	return nil
}

// Actuator returns the named actuator from the hardware interface, or nil.
func (r *Robot) Actuator(name string) *Actuator {
	return r.hw.GetActuator(name)
}

// Joint returns the named joint from the description, or nil.
func (r *Robot) Joint(name string) *urdf.Joint {
	return r.model.Joint(name)
}

// CurrentTime returns the hardware clock reading.
func (r *Robot) CurrentTime() time.Time {
	return r.hw.CurrentTime()
}
