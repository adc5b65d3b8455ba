package mech

import "fmt"

// RobotState is the runtime side of the mechanism model: the joint states
// driven by the robot's transmissions plus the wiring tables connecting each
// transmission to its actuators and joint states.
//
// A RobotState is built once per control process (several may coexist over
// one Robot, e.g. for simultaneous controller views) and must not outlive
// the Robot. Its shape is fixed after construction: only field values of
// actuators and joint states mutate during operation. There is no internal
// locking; see the package documentation for the concurrency contract.
type RobotState struct {
	robot *Robot

	jointStates  []JointState
	jointsByName map[string]*JointState

	// Wiring tables, index-parallel to robot.Transmissions().
	transmissionsIn  [][]*Actuator
	transmissionsOut [][]*JointState
}

// NewRobotState wires a runtime state onto the robot. It never fails for a
// robot that passed NewRobot: an actuator that no longer resolves at this
// point is a broken invariant, not user error, and panics.
//
// Two advisory warnings (not errors) are logged: a robot with zero
// transmissions, and a robot where no joint ends up driven by any
// transmission. Both are structurally valid but uncontrollable.
func NewRobotState(robot *Robot) *RobotState {
	if robot == nil {
		panic("mech: NewRobotState called with nil robot")
	}

	trans := robot.Transmissions()
	s := &RobotState{
		robot:            robot,
		jointsByName:     make(map[string]*JointState),
		transmissionsIn:  make([][]*Actuator, len(trans)),
		transmissionsOut: make([][]*JointState, len(trans)),
	}

	jsSize := 0
	for i, t := range trans {
		for _, name := range t.ActuatorNames() {
			act := robot.Actuator(name)
			if act == nil {
				panic(fmt.Sprintf("mech: actuator %q vanished after robot initialization", name))
			}
			s.transmissionsIn[i] = append(s.transmissionsIn[i], act)
		}
		jsSize += len(t.JointNames())
	}

	// The flat array is ordered by transmission, then by joint within the
	// transmission. It must never be resized: the map and the wiring tables
	// point into it.
	s.jointStates = make([]JointState, jsSize)
	jsID := 0
	for i, t := range trans {
		for _, name := range t.JointNames() {
			js := &s.jointStates[jsID]
			js.Joint = robot.Joint(name)
			s.jointsByName[name] = js
			s.transmissionsOut[i] = append(s.transmissionsOut[i], js)
			jsID++
		}
	}

	if len(trans) == 0 {
		robot.log.Warn("no transmissions were specified in the robot description")
	}
	if jsSize == 0 {
		robot.log.Warn("no joint matches up to a motor; the robot is uncontrollable")
	}

	return s
}

// GetJointState returns the named joint state, or nil if no transmission
// drives that joint. The same name always yields the same pointer.
func (s *RobotState) GetJointState(name string) *JointState {
	return s.jointsByName[name]
}

// JointStates returns the flat joint state array in wiring order. Callers
// must not grow or reorder it.
func (s *RobotState) JointStates() []JointState {
	return s.jointStates
}

// PropagateActuatorPositionToJointPosition runs every transmission's forward
// position transform, then updates each joint's statistics. Statistics run
// strictly after all transmissions have written their positions.
func (s *RobotState) PropagateActuatorPositionToJointPosition() {
	for i, t := range s.robot.transmissions {
		t.PropagatePosition(s.transmissionsIn[i], s.transmissionsOut[i])
	}
	for i := range s.jointStates {
		js := &s.jointStates[i]
		js.Statistics.Update(js)
	}
}

// PropagateJointEffortToActuatorEffort runs every transmission's forward
// effort transform, writing actuator commanded effort from joint commanded
// effort.
func (s *RobotState) PropagateJointEffortToActuatorEffort() {
	for i, t := range s.robot.transmissions {
		t.PropagateEffort(s.transmissionsOut[i], s.transmissionsIn[i])
	}
}

// PropagateJointPositionToActuatorPosition runs every transmission's inverse
// position transform, writing actuator position estimates from joint
// positions. Used for simulation and calibration flows.
func (s *RobotState) PropagateJointPositionToActuatorPosition() {
	for i, t := range s.robot.transmissions {
		t.PropagatePositionBackwards(s.transmissionsOut[i], s.transmissionsIn[i])
	}
}

// PropagateActuatorEffortToJointEffort runs every transmission's inverse
// effort transform, reporting sensed torque in joint space.
func (s *RobotState) PropagateActuatorEffortToJointEffort() {
	for i, t := range s.robot.transmissions {
		t.PropagateEffortBackwards(s.transmissionsIn[i], s.transmissionsOut[i])
	}
}

// IsHalted reports whether any actuator referenced by any transmission has
// its halted flag set. Pure query; stops at the first halted actuator.
func (s *RobotState) IsHalted() bool {
	for _, acts := range s.transmissionsIn {
		for _, act := range acts {
			if act.State.Halted {
				return true
			}
		}
	}
	return false
}

// EnforceSafety clamps every joint state's commanded effort against its
// joint's limits, exactly once per joint state in array order.
func (s *RobotState) EnforceSafety() {
	for i := range s.jointStates {
		s.jointStates[i].EnforceLimits()
	}
}

// ZeroCommands sets every joint state's commanded effort to zero. No other
// field is touched.
func (s *RobotState) ZeroCommands() {
	for i := range s.jointStates {
		s.jointStates[i].CommandedEffort = 0
	}
}
