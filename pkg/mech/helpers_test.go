package mech

import (
	"errors"
	"fmt"
	"time"

	"github.com/gwillem/mech/pkg/urdf"
)

// Test transmission types are registered once for the whole package; the
// registry is global.
func init() {
	if err := RegisterTransmission("testRatio", newRatioTransmission); err != nil {
		panic(err)
	}
	if err := RegisterTransmission("testBroken", func(*urdf.TransmissionConfig, *Robot) (Transmission, error) {
		return nil, errors.New("boom")
	}); err != nil {
		panic(err)
	}
}

// ratioTransmission couples one actuator to one joint with a fixed position
// ratio: joint = actuator / ratio. Its backward transforms are exact
// inverses of the forward ones.
type ratioTransmission struct {
	name     string
	actuator string
	joint    string
	ratio    float64
}

func newRatioTransmission(cfg *urdf.TransmissionConfig, _ *Robot) (Transmission, error) {
	var c struct {
		Actuator struct {
			Name string `xml:"name,attr"`
		} `xml:"actuator"`
		Joint struct {
			Name string `xml:"name,attr"`
		} `xml:"joint"`
		Ratio float64 `xml:"ratio"`
	}
	if err := cfg.Decode(&c); err != nil {
		return nil, err
	}
	if c.Ratio == 0 {
		return nil, fmt.Errorf("ratio must be non-zero")
	}
	return &ratioTransmission{
		name:     cfg.Name,
		actuator: c.Actuator.Name,
		joint:    c.Joint.Name,
		ratio:    c.Ratio,
	}, nil
}

func (t *ratioTransmission) Name() string            { return t.name }
func (t *ratioTransmission) ActuatorNames() []string { return []string{t.actuator} }
func (t *ratioTransmission) JointNames() []string    { return []string{t.joint} }

func (t *ratioTransmission) PropagatePosition(as []*Actuator, js []*JointState) {
	js[0].Position = as[0].State.Position / t.ratio
	js[0].Velocity = as[0].State.Velocity / t.ratio
}

func (t *ratioTransmission) PropagateEffort(js []*JointState, as []*Actuator) {
	as[0].Command.Effort = js[0].CommandedEffort / t.ratio
}

func (t *ratioTransmission) PropagatePositionBackwards(js []*JointState, as []*Actuator) {
	as[0].State.Position = js[0].Position * t.ratio
	as[0].State.Velocity = js[0].Velocity * t.ratio
}

func (t *ratioTransmission) PropagateEffortBackwards(as []*Actuator, js []*JointState) {
	js[0].MeasuredEffort = as[0].State.MeasuredEffort * t.ratio
}

// fakeHardware is a minimal hardware interface with a fixed actuator set
// and a settable clock.
type fakeHardware struct {
	actuators map[string]*Actuator
	now       time.Time
}

func newFakeHardware(names ...string) *fakeHardware {
	hw := &fakeHardware{
		actuators: make(map[string]*Actuator, len(names)),
		now:       time.Unix(1000, 0),
	}
	for _, name := range names {
		hw.actuators[name] = &Actuator{Name: name}
	}
	return hw
}

func (hw *fakeHardware) GetActuator(name string) *Actuator { return hw.actuators[name] }
func (hw *fakeHardware) CurrentTime() time.Time            { return hw.now }

const twoTransDesc = `
<robot name="rig">
  <joint name="joint1" type="revolute">
    <limit lower="-10" upper="10" velocity="5" effort="20"/>
  </joint>
  <joint name="joint2" type="continuous"/>
  <transmission type="testRatio" name="trans1">
    <actuator name="act1"/>
    <joint name="joint1"/>
    <ratio>2</ratio>
  </transmission>
  <transmission type="testRatio" name="trans2">
    <actuator name="act2"/>
    <joint name="joint2"/>
    <ratio>1</ratio>
  </transmission>
</robot>`

func buildTwoTransRobot() (*Robot, *fakeHardware, error) {
	hw := newFakeHardware("act1", "act2")
	r, err := NewRobot([]byte(twoTransDesc), hw, nil)
	return r, hw, err
}
