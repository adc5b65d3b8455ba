package transmission

import (
	"math"
	"testing"

	"github.com/gwillem/mech/pkg/mech"
)

const differentialDoc = `<robot>
  <transmission type="DifferentialTransmission" name="wrist_trans">
    <actuator name="act_l"/>
    <actuator name="act_r"/>
    <joint name="flex"/>
    <joint name="roll"/>
    <mechanicalReduction>2</mechanicalReduction>
  </transmission>
</robot>`

func buildDifferential(t *testing.T) *Differential {
	t.Helper()
	cfg := parseTransmission(t, differentialDoc)
	tr, err := newDifferential(cfg, nil)
	if err != nil {
		t.Fatalf("newDifferential: %v", err)
	}
	return tr.(*Differential)
}

func pair() ([]*mech.Actuator, []*mech.JointState) {
	return []*mech.Actuator{{Name: "act_l"}, {Name: "act_r"}},
		[]*mech.JointState{{}, {}}
}

func TestDifferentialNames(t *testing.T) {
	tr := buildDifferential(t)
	if got := tr.ActuatorNames(); len(got) != 2 || got[0] != "act_l" || got[1] != "act_r" {
		t.Errorf("actuator names = %v", got)
	}
	if got := tr.JointNames(); len(got) != 2 || got[0] != "flex" || got[1] != "roll" {
		t.Errorf("joint names = %v", got)
	}
}

func TestDifferentialPropagatePosition(t *testing.T) {
	tr := buildDifferential(t) // reduction 2
	as, js := pair()

	as[0].State.Position = 6
	as[1].State.Position = 2

	tr.PropagatePosition(as, js)

	// sum axis: (6+2)/(2*2) = 2, difference axis: (6-2)/(2*2) = 1
	if js[0].Position != 2 {
		t.Errorf("sum axis = %v, want 2", js[0].Position)
	}
	if js[1].Position != 1 {
		t.Errorf("difference axis = %v, want 1", js[1].Position)
	}
}

func TestDifferentialPositionRoundTrip(t *testing.T) {
	tr := buildDifferential(t)
	as, js := pair()

	cases := [][2]float64{{6, 2}, {-4, 4}, {0.5, -0.25}, {0, 0}}
	for _, c := range cases {
		as[0].State.Position, as[1].State.Position = c[0], c[1]
		as[0].State.Velocity, as[1].State.Velocity = c[1], c[0]

		tr.PropagatePosition(as, js)
		tr.PropagatePositionBackwards(js, as)

		if math.Abs(as[0].State.Position-c[0]) > 1e-12 || math.Abs(as[1].State.Position-c[1]) > 1e-12 {
			t.Errorf("position round trip %v -> (%v, %v)", c, as[0].State.Position, as[1].State.Position)
		}
		if math.Abs(as[0].State.Velocity-c[1]) > 1e-12 || math.Abs(as[1].State.Velocity-c[0]) > 1e-12 {
			t.Errorf("velocity round trip %v -> (%v, %v)", c, as[0].State.Velocity, as[1].State.Velocity)
		}
	}
}

func TestDifferentialEffortRoundTrip(t *testing.T) {
	tr := buildDifferential(t)
	as, js := pair()

	js[0].CommandedEffort = 8
	js[1].CommandedEffort = 4

	tr.PropagateEffort(js, as)

	// (8+4)/(2*2) = 3, (8-4)/(2*2) = 1
	if as[0].Command.Effort != 3 || as[1].Command.Effort != 1 {
		t.Errorf("actuator efforts = (%v, %v), want (3, 1)", as[0].Command.Effort, as[1].Command.Effort)
	}

	// Feeding the commanded efforts back as measured efforts reproduces
	// the joint efforts: the backwards transform is the exact inverse.
	as[0].State.MeasuredEffort = as[0].Command.Effort
	as[1].State.MeasuredEffort = as[1].Command.Effort
	tr.PropagateEffortBackwards(as, js)
	if js[0].MeasuredEffort != 8 || js[1].MeasuredEffort != 4 {
		t.Errorf("joint efforts = (%v, %v), want (8, 4)", js[0].MeasuredEffort, js[1].MeasuredEffort)
	}
}

func TestDifferentialConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"one actuator", `<robot><transmission type="DifferentialTransmission" name="t">
		  <actuator name="a"/><joint name="j1"/><joint name="j2"/>
		  <mechanicalReduction>1</mechanicalReduction></transmission></robot>`},
		{"three joints", `<robot><transmission type="DifferentialTransmission" name="t">
		  <actuator name="a1"/><actuator name="a2"/>
		  <joint name="j1"/><joint name="j2"/><joint name="j3"/>
		  <mechanicalReduction>1</mechanicalReduction></transmission></robot>`},
		{"zero reduction", `<robot><transmission type="DifferentialTransmission" name="t">
		  <actuator name="a1"/><actuator name="a2"/>
		  <joint name="j1"/><joint name="j2"/></transmission></robot>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := parseTransmission(t, tt.doc)
			if _, err := newDifferential(cfg, nil); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
