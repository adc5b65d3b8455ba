// Package control runs the fixed-rate loop that drives the mechanism
// model: read hardware, propagate actuator positions into joint space, run
// the controller, enforce joint limits, propagate joint efforts back to the
// actuators, write hardware.
package control

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gwillem/mech/pkg/mech"
)

// Hardware is what the loop needs from the hardware layer: the mechanism
// model's view plus a cycle read and a cycle write.
type Hardware interface {
	mech.HardwareInterface

	// ReadState refreshes actuator states from the hardware.
	ReadState(ctx context.Context) error

	// WriteCommands sends actuator commands to the hardware.
	WriteCommands(ctx context.Context) error
}

// Controller computes joint commanded efforts for one cycle. It runs after
// positions have been propagated into joint space and before limits are
// enforced. It is skipped while any actuator is halted.
type Controller func(s *mech.RobotState, now time.Time)

// Snapshot is one cycle's outcome, published for UIs.
type Snapshot struct {
	Positions map[string]float64 // joint name -> position
	Halted    bool
	Timestamp time.Time
	Err       error
}

// Config holds configuration for the loop.
type Config struct {
	State      *mech.RobotState
	Hardware   Hardware
	Controller Controller
	Hz         int // defaults to 100
}

// Loop owns the control cycle. Create it with NewLoop, run it with Start.
type Loop struct {
	state      *mech.RobotState
	hw         Hardware
	controller Controller
	hz         int

	mu      sync.Mutex
	running bool

	stateCh chan Snapshot
	logCh   chan string

	wasHalted bool
}

// NewLoop creates a control loop.
func NewLoop(cfg Config) (*Loop, error) {
	if cfg.State == nil {
		return nil, fmt.Errorf("create loop: nil robot state")
	}
	if cfg.Hardware == nil {
		return nil, fmt.Errorf("create loop: nil hardware")
	}
	if cfg.Hz <= 0 {
		cfg.Hz = 100
	}
	return &Loop{
		state:      cfg.State,
		hw:         cfg.Hardware,
		controller: cfg.Controller,
		hz:         cfg.Hz,
		stateCh:    make(chan Snapshot, 1),
		logCh:      make(chan string, 10),
	}, nil
}

// States returns a channel that receives one snapshot per cycle.
func (l *Loop) States() <-chan Snapshot {
	return l.stateCh
}

// Logs returns a channel that receives log messages.
func (l *Loop) Logs() <-chan string {
	return l.logCh
}

// Hz returns the loop frequency.
func (l *Loop) Hz() int {
	return l.hz
}

func (l *Loop) log(format string, args ...any) {
	msg := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	select {
	case l.logCh <- msg:
	default:
		// Drop if channel full
	}
}

// Start runs the loop until the context is cancelled. It returns an error
// if the loop is already running.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return fmt.Errorf("already running")
	}
	l.running = true
	l.mu.Unlock()

	if enabler, ok := l.hw.(interface{ Enable(context.Context) error }); ok {
		if err := enabler.Enable(ctx); err != nil {
			l.log("Warning: failed to enable hardware: %v", err)
		}
	}
	l.log("Control loop started at %d Hz", l.hz)

	ticker := time.NewTicker(time.Second / time.Duration(l.hz))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.shutdown()
			return ctx.Err()
		case <-ticker.C:
			l.step(ctx)
		}
	}
}

func (l *Loop) step(ctx context.Context) {
	if err := l.hw.ReadState(ctx); err != nil {
		l.log("Read error: %v", err)
		l.sendState(Snapshot{Err: err, Timestamp: l.hw.CurrentTime()})
		return
	}

	l.state.PropagateActuatorPositionToJointPosition()

	halted := l.state.IsHalted()
	if halted {
		l.state.ZeroCommands()
		if !l.wasHalted {
			l.log("Actuator halted; commands zeroed")
		}
	} else if l.controller != nil {
		l.controller(l.state, l.hw.CurrentTime())
	}
	l.wasHalted = halted

	l.state.EnforceSafety()
	l.state.PropagateJointEffortToActuatorEffort()

	if err := l.hw.WriteCommands(ctx); err != nil {
		l.log("Write error: %v", err)
	}

	l.sendState(l.snapshot(halted))
}

func (l *Loop) snapshot(halted bool) Snapshot {
	states := l.state.JointStates()
	positions := make(map[string]float64, len(states))
	for i := range states {
		positions[states[i].Joint.Name] = states[i].Position
	}
	return Snapshot{
		Positions: positions,
		Halted:    halted,
		Timestamp: l.hw.CurrentTime(),
	}
}

func (l *Loop) sendState(s Snapshot) {
	select {
	case l.stateCh <- s:
	default:
		// Drop old state if channel full, replace with new
		select {
		case <-l.stateCh:
		default:
		}
		l.stateCh <- s
	}
}

func (l *Loop) shutdown() {
	l.mu.Lock()
	l.running = false
	l.mu.Unlock()

	l.state.ZeroCommands()
	if disabler, ok := l.hw.(interface{ Disable(context.Context) error }); ok {
		if err := disabler.Disable(context.Background()); err != nil {
			l.log("Warning: failed to disable hardware: %v", err)
		}
	}
	l.log("Control loop stopped")
}
