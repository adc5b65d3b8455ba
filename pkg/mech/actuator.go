// Package mech models the coupling between physical actuators and
// controllable joints through pluggable transmissions.
//
// A Robot is built once from a robot description and a hardware interface;
// it owns the instantiated transmissions. A RobotState is built from a Robot
// and owns the per-cycle joint state plus the wiring tables that connect
// each transmission to its actuators and joint states. A control loop calls
// the RobotState propagation methods every cycle: actuator positions in,
// controller writes joint efforts, efforts back out to the actuators.
package mech

import "time"

// ActuatorState is what the motor reports each cycle.
type ActuatorState struct {
	Position       float64
	Velocity       float64
	MeasuredEffort float64

	// Halted reports a fault condition: the motor cannot be trusted to
	// execute commands.
	Halted bool
}

// ActuatorCommand is what the controller asks of the motor.
type ActuatorCommand struct {
	Effort float64
	Enable bool
}

// Actuator is one physical motor/sensor unit. Actuators are owned by the
// hardware layer; the mechanism model only holds references to them.
// Name uniqueness is the hardware layer's responsibility.
type Actuator struct {
	Name    string
	State   ActuatorState
	Command ActuatorCommand
}

// HardwareInterface is the contract the hardware layer provides to the
// mechanism model.
type HardwareInterface interface {
	// GetActuator returns the named actuator, or nil if the hardware does
	// not have it.
	GetActuator(name string) *Actuator

	// CurrentTime returns the hardware clock reading.
	CurrentTime() time.Time
}
