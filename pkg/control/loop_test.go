package control

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwillem/mech/pkg/hardware"
	"github.com/gwillem/mech/pkg/mech"
	_ "github.com/gwillem/mech/pkg/transmission"
)

const loopDesc = `
<robot name="rig">
  <joint name="joint1" type="continuous">
    <limit effort="100"/>
  </joint>
  <transmission type="SimpleTransmission" name="trans1">
    <actuator name="act1"/>
    <joint name="joint1"/>
    <mechanicalReduction>1</mechanicalReduction>
  </transmission>
</robot>`

func buildLoop(t *testing.T, hz int, controller Controller) (*Loop, *hardware.Sim) {
	t.Helper()

	sim := hardware.NewSim(time.Second/time.Duration(hz), "act1")
	robot, err := mech.NewRobot([]byte(loopDesc), sim, nil)
	require.NoError(t, err)

	loop, err := NewLoop(Config{
		State:      mech.NewRobotState(robot),
		Hardware:   sim,
		Controller: controller,
		Hz:         hz,
	})
	require.NoError(t, err)
	return loop, sim
}

func waitSnapshot(t *testing.T, loop *Loop) Snapshot {
	t.Helper()
	select {
	case snap := <-loop.States():
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a snapshot")
		return Snapshot{}
	}
}

func TestNewLoopValidation(t *testing.T) {
	_, err := NewLoop(Config{})
	assert.ErrorContains(t, err, "nil robot state")

	sim := hardware.NewSim(time.Millisecond, "act1")
	robot, err := mech.NewRobot([]byte(loopDesc), sim, nil)
	require.NoError(t, err)

	_, err = NewLoop(Config{State: mech.NewRobotState(robot)})
	assert.ErrorContains(t, err, "nil hardware")

	loop, err := NewLoop(Config{State: mech.NewRobotState(robot), Hardware: sim})
	require.NoError(t, err)
	assert.Equal(t, 100, loop.Hz(), "Hz defaults to 100")
}

func TestLoopDrivesJoint(t *testing.T) {
	constantEffort := func(s *mech.RobotState, _ time.Time) {
		s.GetJointState("joint1").CommandedEffort = 3
	}
	loop, sim := buildLoop(t, 200, constantEffort)
	sim.GetActuator("act1").Command.Enable = true

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- loop.Start(ctx) }()

	deadline := time.After(2 * time.Second)
	var snap Snapshot
	for snap.Positions == nil || snap.Positions["joint1"] <= 0 {
		select {
		case snap = <-loop.States():
		case <-deadline:
			t.Fatal("joint never moved")
		}
	}
	cancel()

	require.ErrorIs(t, <-errCh, context.Canceled)
	assert.False(t, snap.Halted)
	assert.Greater(t, snap.Positions["joint1"], 0.0)
	// Effort flowed through the 1:1 transmission to the actuator.
	assert.Equal(t, 3.0, sim.GetActuator("act1").Command.Effort)
}

func TestLoopHaltZeroesCommands(t *testing.T) {
	constantEffort := func(s *mech.RobotState, _ time.Time) {
		s.GetJointState("joint1").CommandedEffort = 3
	}
	loop, sim := buildLoop(t, 200, constantEffort)
	sim.GetActuator("act1").State.Halted = true

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- loop.Start(ctx) }()

	snap := waitSnapshot(t, loop)
	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)

	assert.True(t, snap.Halted)
	assert.Equal(t, 0.0, sim.GetActuator("act1").Command.Effort)
}

func TestLoopAlreadyRunning(t *testing.T) {
	loop, _ := buildLoop(t, 200, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- loop.Start(ctx) }()

	waitSnapshot(t, loop) // loop is definitely running now
	assert.ErrorContains(t, loop.Start(ctx), "already running")

	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)
}
