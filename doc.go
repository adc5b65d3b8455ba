// Package mech provides a mechanism model for hobby robot arms: a framework
// that wires pluggable transmissions between physical actuators and the
// joints a controller reasons about, and propagates state between the two
// spaces every control cycle.
//
// # Usage
//
// Describe the robot in a URDF-style XML document, then:
//
//	robot, err := mech.NewRobot(description, hw, nil)
//	state := mech.NewRobotState(robot)
//
// and each control cycle:
//
//	state.PropagateActuatorPositionToJointPosition()
//	// ... compute joint commanded efforts ...
//	state.EnforceSafety()
//	state.PropagateJointEffortToActuatorEffort()
//
// # Packages
//
// The module is organized into the following packages:
//
//   - pkg/mech: the mechanism model core (Robot, RobotState, Transmission)
//   - pkg/urdf: robot description parsing and joint limits
//   - pkg/transmission: built-in transmission types
//   - pkg/hardware: Feetech servo bus and simulator hardware interfaces
//   - pkg/control: fixed-rate control loop
//   - cmd/mech: CLI with run and info commands
package mech
