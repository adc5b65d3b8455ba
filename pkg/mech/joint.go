package mech

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/gwillem/mech/pkg/urdf"
)

// statsWindow is the number of recent position samples kept for the
// windowed statistics.
const statsWindow = 256

// JointState is the mutable runtime record for one joint driven by a
// transmission. It is allocated once at RobotState construction and lives
// as long as that RobotState.
type JointState struct {
	// Joint is the description entry this state belongs to. Never nil for
	// a state created by NewRobotState.
	Joint *urdf.Joint

	Position        float64
	Velocity        float64
	MeasuredEffort  float64
	CommandedEffort float64

	// Calibrated reports whether the sensed position can be trusted
	// against the joint's position bounds. Limit enforcement only applies
	// position bounds once this is set.
	Calibrated bool

	Statistics JointStatistics
}

// EnforceLimits saturates the commanded effort against the joint's limits.
// The clamp policy itself lives on the Joint.
func (js *JointState) EnforceLimits() {
	if js.Joint == nil {
		return
	}
	js.CommandedEffort = js.Joint.ClampEffort(js.Position, js.CommandedEffort, js.Calibrated)
}

// JointStatistics accumulates extremes over the lifetime of a joint state
// plus mean and standard deviation over a window of recent positions. It is
// updated after every forward position propagation.
type JointStatistics struct {
	Samples        int
	MinPosition    float64
	MaxPosition    float64
	MaxAbsVelocity float64
	MaxAbsEffort   float64

	window []float64
	next   int
}

// Update folds the joint state's current sample into the accumulator.
func (s *JointStatistics) Update(js *JointState) {
	if s.Samples == 0 {
		s.MinPosition = js.Position
		s.MaxPosition = js.Position
	} else {
		s.MinPosition = math.Min(s.MinPosition, js.Position)
		s.MaxPosition = math.Max(s.MaxPosition, js.Position)
	}
	s.MaxAbsVelocity = math.Max(s.MaxAbsVelocity, math.Abs(js.Velocity))
	s.MaxAbsEffort = math.Max(s.MaxAbsEffort, math.Abs(js.MeasuredEffort))
	s.Samples++

	if len(s.window) < statsWindow {
		s.window = append(s.window, js.Position)
		return
	}
	s.window[s.next] = js.Position
	s.next = (s.next + 1) % statsWindow
}

// MeanPosition returns the mean of the windowed position history, or 0
// before any sample arrived.
func (s *JointStatistics) MeanPosition() float64 {
	if len(s.window) == 0 {
		return 0
	}
	return stat.Mean(s.window, nil)
}

// StdDevPosition returns the standard deviation of the windowed position
// history, or 0 with fewer than two samples.
func (s *JointStatistics) StdDevPosition() float64 {
	if len(s.window) < 2 {
		return 0
	}
	return stat.StdDev(s.window, nil)
}

// Reset discards all accumulated statistics.
func (s *JointStatistics) Reset() {
	*s = JointStatistics{}
}
