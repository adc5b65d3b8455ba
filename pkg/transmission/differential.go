package transmission

import (
	"fmt"

	"github.com/gwillem/mech/pkg/mech"
	"github.com/gwillem/mech/pkg/urdf"
)

func init() {
	if err := mech.RegisterTransmission("DifferentialTransmission", newDifferential); err != nil {
		panic(err)
	}
}

type differentialConfig struct {
	Actuators []struct {
		Name string `xml:"name,attr"`
	} `xml:"actuator"`
	Joints []struct {
		Name string `xml:"name,attr"`
	} `xml:"joint"`
	MechanicalReduction float64 `xml:"mechanicalReduction"`
}

// Differential couples two actuators to two joints through an ideal
// differential linkage with a common reduction r:
//
//	joint[0] = (act[0] + act[1]) / (2r)    the sum axis
//	joint[1] = (act[0] - act[1]) / (2r)    the difference axis
//
// Efforts follow the same convention: actuator efforts are the half-sum and
// half-difference of the joint efforts over r, and the backwards transforms
// are the exact inverses, so paired forward/backward propagation reproduces
// the original state.
type Differential struct {
	name      string
	actuators []string
	joints    []string

	Reduction float64
}

func newDifferential(cfg *urdf.TransmissionConfig, _ *mech.Robot) (mech.Transmission, error) {
	var c differentialConfig
	if err := cfg.Decode(&c); err != nil {
		return nil, err
	}
	if len(c.Actuators) != 2 || len(c.Joints) != 2 {
		return nil, fmt.Errorf("DifferentialTransmission %q: needs exactly 2 actuators and 2 joints, got %d and %d",
			cfg.Name, len(c.Actuators), len(c.Joints))
	}
	if c.MechanicalReduction == 0 {
		return nil, fmt.Errorf("DifferentialTransmission %q: mechanicalReduction must be non-zero", cfg.Name)
	}
	t := &Differential{name: cfg.Name, Reduction: c.MechanicalReduction}
	for _, a := range c.Actuators {
		if a.Name == "" {
			return nil, fmt.Errorf("DifferentialTransmission %q: actuator without a name", cfg.Name)
		}
		t.actuators = append(t.actuators, a.Name)
	}
	for _, j := range c.Joints {
		if j.Name == "" {
			return nil, fmt.Errorf("DifferentialTransmission %q: joint without a name", cfg.Name)
		}
		t.joints = append(t.joints, j.Name)
	}
	return t, nil
}

func (t *Differential) Name() string            { return t.name }
func (t *Differential) ActuatorNames() []string { return t.actuators }
func (t *Differential) JointNames() []string    { return t.joints }

func (t *Differential) PropagatePosition(as []*mech.Actuator, js []*mech.JointState) {
	r2 := 2 * t.Reduction
	js[0].Position = (as[0].State.Position + as[1].State.Position) / r2
	js[1].Position = (as[0].State.Position - as[1].State.Position) / r2
	js[0].Velocity = (as[0].State.Velocity + as[1].State.Velocity) / r2
	js[1].Velocity = (as[0].State.Velocity - as[1].State.Velocity) / r2
}

func (t *Differential) PropagateEffort(js []*mech.JointState, as []*mech.Actuator) {
	r2 := 2 * t.Reduction
	as[0].Command.Effort = (js[0].CommandedEffort + js[1].CommandedEffort) / r2
	as[1].Command.Effort = (js[0].CommandedEffort - js[1].CommandedEffort) / r2
}

func (t *Differential) PropagatePositionBackwards(js []*mech.JointState, as []*mech.Actuator) {
	as[0].State.Position = t.Reduction * (js[0].Position + js[1].Position)
	as[1].State.Position = t.Reduction * (js[0].Position - js[1].Position)
	as[0].State.Velocity = t.Reduction * (js[0].Velocity + js[1].Velocity)
	as[1].State.Velocity = t.Reduction * (js[0].Velocity - js[1].Velocity)
}

func (t *Differential) PropagateEffortBackwards(as []*mech.Actuator, js []*mech.JointState) {
	js[0].MeasuredEffort = t.Reduction * (as[0].State.MeasuredEffort + as[1].State.MeasuredEffort)
	js[1].MeasuredEffort = t.Reduction * (as[0].State.MeasuredEffort - as[1].State.MeasuredEffort)
}
