package mech

import (
	"errors"
	"fmt"
)

// Errors reported by NewRobot. All of them abort robot construction; there
// is no partially initialized robot.
var (
	// ErrInvalidHardware is returned when no hardware interface is supplied.
	ErrInvalidHardware = errors.New("invalid hardware interface")

	// ErrStructuralParse wraps a failure to parse the robot description.
	ErrStructuralParse = errors.New("robot description parse failed")

	// ErrUnknownTransmissionType is returned for a transmission entry whose
	// type attribute is missing or not registered.
	ErrUnknownTransmissionType = errors.New("unknown transmission type")

	// ErrTransmissionConstruction is returned when a registered factory
	// fails to build a transmission from its config sub-tree.
	ErrTransmissionConstruction = errors.New("transmission construction failed")

	// ErrTransmissionInit is returned when a constructed transmission names
	// an actuator or joint that does not exist.
	ErrTransmissionInit = errors.New("transmission initialization failed")

	// ErrDuplicateJointBinding is returned when two transmission entries
	// claim the same joint. Descriptions like that would leave the joint
	// state map and the wiring tables disagreeing, so they are rejected.
	ErrDuplicateJointBinding = errors.New("joint bound by multiple transmissions")
)

// TransmissionError carries enough context to diagnose which transmission
// entry broke robot construction and at which step. It matches the step
// sentinels above through errors.Is.
type TransmissionError struct {
	Name string // instance name from the description, may be empty
	Type string // declared type attribute, may be empty
	Step error  // one of the sentinel errors above
	Err  error  // underlying cause, may be nil
}

func (e *TransmissionError) Error() string {
	name := e.Name
	if name == "" {
		name = "(unnamed)"
	}
	if e.Err != nil {
		return fmt.Sprintf("transmission %s (type %q): %v: %v", name, e.Type, e.Step, e.Err)
	}
	return fmt.Sprintf("transmission %s (type %q): %v", name, e.Type, e.Step)
}

func (e *TransmissionError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Step, e.Err}
	}
	return []error{e.Step}
}
