package hardware

import (
	"context"
	"fmt"
	"time"

	"github.com/hipsterbrown/feetech-servo/feetech"

	"github.com/gwillem/mech/pkg/mech"
)

const defaultBaudRate = 1_000_000

// effortScale converts a commanded effort into a goal position offset in
// normalized units per unit effort. Feetech STS servos take position goals,
// not torque commands, so efforts are approximated as position deltas.
const effortScale = 1.0

// FeetechBus exposes the servos of one Feetech serial bus as named
// actuators. Positions are reported in calibrated normalized units
// (see ServoCalibration.Normalize); velocities are derived by differencing
// successive reads.
type FeetechBus struct {
	bus   *feetech.Bus
	group *feetech.ServoGroup
	cfg   *Config

	actuators map[string]*mech.Actuator
	byID      map[int]string

	lastRead time.Time
}

// OpenFeetech opens the bus described by cfg and creates one actuator per
// configured servo.
func OpenFeetech(cfg *Config) (*FeetechBus, error) {
	if len(cfg.Servos) == 0 {
		return nil, fmt.Errorf("open feetech bus: no servos configured")
	}
	baud := cfg.Baud
	if baud == 0 {
		baud = defaultBaudRate
	}

	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     cfg.Port,
		BaudRate: baud,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("open bus: %w", err)
	}

	f := &FeetechBus{
		bus:       bus,
		cfg:       cfg,
		actuators: make(map[string]*mech.Actuator, len(cfg.Servos)),
		byID:      make(map[int]string, len(cfg.Servos)),
	}

	ids := make([]int, 0, len(cfg.Servos))
	for name, sc := range cfg.Servos {
		f.actuators[name] = &mech.Actuator{Name: name}
		f.byID[sc.ID] = name
		ids = append(ids, sc.ID)
	}
	f.group = feetech.NewServoGroupByIDs(bus, ids...)

	return f, nil
}

// Close closes the serial bus.
func (f *FeetechBus) Close() error {
	return f.bus.Close()
}

// Enable enables torque on all servos.
func (f *FeetechBus) Enable(ctx context.Context) error {
	return f.group.EnableAll(ctx)
}

// Disable disables torque on all servos.
func (f *FeetechBus) Disable(ctx context.Context) error {
	return f.group.DisableAll(ctx)
}

// GetActuator returns the named actuator, or nil if no servo is configured
// under that name.
func (f *FeetechBus) GetActuator(name string) *mech.Actuator {
	return f.actuators[name]
}

// CurrentTime returns the wall clock.
func (f *FeetechBus) CurrentTime() time.Time {
	return time.Now()
}

// ReadState reads all servo positions and refreshes the actuator states.
// Velocity comes from differencing positions across reads. A servo missing
// from a sync read marks its actuator halted; it is cleared again by the
// next successful read.
func (f *FeetechBus) ReadState(ctx context.Context) error {
	rawPositions, err := f.group.Positions(ctx)
	if err != nil {
		return fmt.Errorf("read positions: %w", err)
	}

	now := f.CurrentTime()
	dt := 0.0
	if !f.lastRead.IsZero() {
		dt = now.Sub(f.lastRead).Seconds()
	}
	f.lastRead = now

	seen := make(map[string]bool, len(rawPositions))
	for id, raw := range rawPositions {
		name, ok := f.byID[id]
		if !ok {
			continue
		}
		act := f.actuators[name]
		pos := f.cfg.Servos[name].Normalize(raw)
		if dt > 0 {
			act.State.Velocity = (pos - act.State.Position) / dt
		}
		act.State.Position = pos
		act.State.Halted = false
		seen[name] = true
	}

	for name, act := range f.actuators {
		if !seen[name] {
			act.State.Halted = true
		}
	}

	return nil
}

// WriteCommands turns each enabled actuator's commanded effort into a servo
// goal position offset from its current position.
func (f *FeetechBus) WriteCommands(ctx context.Context) error {
	goals := make(feetech.PositionMap, len(f.actuators))
	for name, act := range f.actuators {
		if !act.Command.Enable {
			continue
		}
		sc := f.cfg.Servos[name]
		target := act.State.Position + act.Command.Effort*effortScale
		goals[sc.ID] = sc.Denormalize(target)
	}
	if len(goals) == 0 {
		return nil
	}
	if err := f.group.SetPositions(ctx, goals); err != nil {
		return fmt.Errorf("write positions: %w", err)
	}
	return nil
}
