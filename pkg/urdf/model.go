// Package urdf parses a robot description document into a joint lookup
// model plus the list of transmission entries declared alongside the joints.
//
// Only the parts of the format that the mechanism layer consumes are
// modelled: joint identity, joint type, motion limits, and <transmission>
// elements. Links, visuals and collision geometry are ignored.
package urdf

import (
	"encoding/xml"
	"fmt"
	"os"
	"sort"
)

// JointType classifies how a joint moves.
type JointType string

// Joint types understood by limit enforcement.
const (
	Revolute   JointType = "revolute"
	Continuous JointType = "continuous"
	Prismatic  JointType = "prismatic"
	Fixed      JointType = "fixed"
)

// Limit holds the motion bounds declared for a joint. Position bounds are
// meaningless for continuous joints and are ignored there.
type Limit struct {
	Lower    float64
	Upper    float64
	Velocity float64
	Effort   float64
}

// Joint is one controllable degree of freedom from the description.
type Joint struct {
	Name  string
	Type  JointType
	Limit *Limit // nil when the description declares no <limit>
}

// ClampEffort applies this joint's limit policy to a commanded effort given
// the current position. Effort is always saturated against the effort bound.
// Position bounds are only enforced once the joint is calibrated, and never
// for continuous or fixed joints: effort that would push further past a
// bound is zeroed, effort pulling back in is left alone.
func (j *Joint) ClampEffort(position, effort float64, calibrated bool) float64 {
	if j.Limit == nil {
		return effort
	}
	if max := j.Limit.Effort; max > 0 {
		if effort > max {
			effort = max
		} else if effort < -max {
			effort = -max
		}
	}
	if !calibrated || !j.hasPositionBounds() {
		return effort
	}
	if position >= j.Limit.Upper && effort > 0 {
		return 0
	}
	if position <= j.Limit.Lower && effort < 0 {
		return 0
	}
	return effort
}

func (j *Joint) hasPositionBounds() bool {
	return (j.Type == Revolute || j.Type == Prismatic) && j.Limit.Lower < j.Limit.Upper
}

// TransmissionConfig is one <transmission> entry: its declared type, an
// optional instance name, and the raw config sub-tree for the concrete
// transmission implementation to decode itself.
type TransmissionConfig struct {
	Type string
	Name string
	raw  []byte
}

// Decode unmarshals the entry's config sub-tree into v, which follows the
// usual encoding/xml field tag rules.
func (tc *TransmissionConfig) Decode(v any) error {
	doc := make([]byte, 0, len(tc.raw)+len("<transmission></transmission>"))
	doc = append(doc, "<transmission>"...)
	doc = append(doc, tc.raw...)
	doc = append(doc, "</transmission>"...)
	if err := xml.Unmarshal(doc, v); err != nil {
		return fmt.Errorf("decode transmission config: %w", err)
	}
	return nil
}

// Model is the parsed description: named joints plus the transmission
// entries in document order.
type Model struct {
	Name          string
	Transmissions []TransmissionConfig

	joints map[string]*Joint
}

// Joint returns the named joint, or nil if the description does not
// declare it.
func (m *Model) Joint(name string) *Joint {
	return m.joints[name]
}

// NumJoints returns the number of joints in the description.
func (m *Model) NumJoints() int {
	return len(m.joints)
}

// Joints returns all joints sorted by name.
func (m *Model) Joints() []*Joint {
	names := make([]string, 0, len(m.joints))
	for name := range m.joints {
		names = append(names, name)
	}
	sort.Strings(names)
	joints := make([]*Joint, len(names))
	for i, name := range names {
		joints[i] = m.joints[name]
	}
	return joints
}

type xmlLimit struct {
	Lower    float64 `xml:"lower,attr"`
	Upper    float64 `xml:"upper,attr"`
	Velocity float64 `xml:"velocity,attr"`
	Effort   float64 `xml:"effort,attr"`
}

type xmlJoint struct {
	Name  string    `xml:"name,attr"`
	Type  string    `xml:"type,attr"`
	Limit *xmlLimit `xml:"limit"`
}

type xmlTransmission struct {
	Type string `xml:"type,attr"`
	Name string `xml:"name,attr"`
	Raw  []byte `xml:",innerxml"`
}

type xmlRobot struct {
	XMLName       xml.Name          `xml:"robot"`
	Name          string            `xml:"name,attr"`
	Joints        []xmlJoint        `xml:"joint"`
	Transmissions []xmlTransmission `xml:"transmission"`
}

// Parse reads a description document from data.
func Parse(data []byte) (*Model, error) {
	var doc xmlRobot
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse robot description: %w", err)
	}

	m := &Model{
		Name:   doc.Name,
		joints: make(map[string]*Joint, len(doc.Joints)),
	}

	for _, j := range doc.Joints {
		if j.Name == "" {
			return nil, fmt.Errorf("parse robot description: joint without a name attribute")
		}
		if _, dup := m.joints[j.Name]; dup {
			return nil, fmt.Errorf("parse robot description: duplicate joint %q", j.Name)
		}
		joint := &Joint{Name: j.Name, Type: JointType(j.Type)}
		if j.Limit != nil {
			joint.Limit = &Limit{
				Lower:    j.Limit.Lower,
				Upper:    j.Limit.Upper,
				Velocity: j.Limit.Velocity,
				Effort:   j.Limit.Effort,
			}
		}
		m.joints[j.Name] = joint
	}

	for _, t := range doc.Transmissions {
		m.Transmissions = append(m.Transmissions, TransmissionConfig{
			Type: t.Type,
			Name: t.Name,
			raw:  t.Raw,
		})
	}

	return m, nil
}

// ParseFile reads a description document from a file.
func ParseFile(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read robot description: %w", err)
	}
	return Parse(data)
}
