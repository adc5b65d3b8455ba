// Package transmission provides the built-in transmission types. Importing
// it registers them with the mechanism model's factory registry:
//
//	SimpleTransmission        one actuator driving one joint through a reduction
//	DifferentialTransmission  two actuators driving two joints through a differential
package transmission

import (
	"fmt"

	"github.com/gwillem/mech/pkg/mech"
	"github.com/gwillem/mech/pkg/urdf"
)

func init() {
	if err := mech.RegisterTransmission("SimpleTransmission", newSimple); err != nil {
		panic(err)
	}
}

type simpleConfig struct {
	Actuator struct {
		Name string `xml:"name,attr"`
	} `xml:"actuator"`
	Joint struct {
		Name string `xml:"name,attr"`
	} `xml:"joint"`
	MechanicalReduction float64 `xml:"mechanicalReduction"`
}

// Simple couples one actuator to one joint through a fixed mechanical
// reduction: joint position = actuator position / reduction, actuator
// effort = joint effort / reduction. A reduction of 1 is the identity
// transmission.
type Simple struct {
	name      string
	actuators []string
	joints    []string

	// Reduction is the gear ratio. A reduction of 2 means the actuator
	// turns twice per joint revolution.
	Reduction float64
}

func newSimple(cfg *urdf.TransmissionConfig, _ *mech.Robot) (mech.Transmission, error) {
	var c simpleConfig
	if err := cfg.Decode(&c); err != nil {
		return nil, err
	}
	if c.Actuator.Name == "" {
		return nil, fmt.Errorf("SimpleTransmission %q: missing actuator name", cfg.Name)
	}
	if c.Joint.Name == "" {
		return nil, fmt.Errorf("SimpleTransmission %q: missing joint name", cfg.Name)
	}
	if c.MechanicalReduction == 0 {
		return nil, fmt.Errorf("SimpleTransmission %q: mechanicalReduction must be non-zero", cfg.Name)
	}
	return &Simple{
		name:      cfg.Name,
		actuators: []string{c.Actuator.Name},
		joints:    []string{c.Joint.Name},
		Reduction: c.MechanicalReduction,
	}, nil
}

func (t *Simple) Name() string            { return t.name }
func (t *Simple) ActuatorNames() []string { return t.actuators }
func (t *Simple) JointNames() []string    { return t.joints }

func (t *Simple) PropagatePosition(as []*mech.Actuator, js []*mech.JointState) {
	js[0].Position = as[0].State.Position / t.Reduction
	js[0].Velocity = as[0].State.Velocity / t.Reduction
}

func (t *Simple) PropagateEffort(js []*mech.JointState, as []*mech.Actuator) {
	as[0].Command.Effort = js[0].CommandedEffort / t.Reduction
}

func (t *Simple) PropagatePositionBackwards(js []*mech.JointState, as []*mech.Actuator) {
	as[0].State.Position = js[0].Position * t.Reduction
	as[0].State.Velocity = js[0].Velocity * t.Reduction
}

func (t *Simple) PropagateEffortBackwards(as []*mech.Actuator, js []*mech.JointState) {
	js[0].MeasuredEffort = as[0].State.MeasuredEffort * t.Reduction
}
