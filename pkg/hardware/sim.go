// Package hardware provides implementations of the mechanism model's
// hardware interface: a Feetech serial servo bus for real arms and an
// in-memory simulator for tests and offline runs.
package hardware

import (
	"context"
	"time"

	"github.com/gwillem/mech/pkg/mech"
)

// Sim is an in-memory hardware interface. Actuators are created on first
// lookup, so any robot description validates against it. The clock is a
// fake that only moves when the simulation steps.
type Sim struct {
	actuators map[string]*mech.Actuator
	order     []string
	now       time.Time
	step      time.Duration
}

// NewSim creates a simulator ticking by step per cycle, with the given
// actuators pre-created. More actuators appear as they are looked up.
func NewSim(step time.Duration, names ...string) *Sim {
	s := &Sim{
		actuators: make(map[string]*mech.Actuator),
		now:       time.Unix(0, 0),
		step:      step,
	}
	for _, name := range names {
		s.GetActuator(name)
	}
	return s
}

// GetActuator returns the named actuator, creating it if needed.
func (s *Sim) GetActuator(name string) *mech.Actuator {
	if act, ok := s.actuators[name]; ok {
		return act
	}
	act := &mech.Actuator{Name: name}
	s.actuators[name] = act
	s.order = append(s.order, name)
	return act
}

// CurrentTime returns the fake clock reading.
func (s *Sim) CurrentTime() time.Time {
	return s.now
}

// Actuators returns all actuators in creation order.
func (s *Sim) Actuators() []*mech.Actuator {
	acts := make([]*mech.Actuator, len(s.order))
	for i, name := range s.order {
		acts[i] = s.actuators[name]
	}
	return acts
}

// ReadState is a no-op: simulated actuator state is whatever the last
// WriteCommands integration produced.
func (s *Sim) ReadState(context.Context) error {
	return nil
}

// WriteCommands advances the fake clock by one step and integrates each
// actuator's commanded effort as a unit-inertia, lightly damped motor:
// velocity follows effort, position follows velocity. Halted actuators
// do not move.
func (s *Sim) WriteCommands(context.Context) error {
	dt := s.step.Seconds()
	s.now = s.now.Add(s.step)
	for _, name := range s.order {
		act := s.actuators[name]
		if act.State.Halted {
			act.State.Velocity = 0
			continue
		}
		act.State.Velocity += act.Command.Effort * dt
		act.State.Velocity *= 0.98 // friction
		act.State.Position += act.State.Velocity * dt
		act.State.MeasuredEffort = act.Command.Effort
	}
	return nil
}
