package mech

import (
	"fmt"
	"sync"

	"github.com/gwillem/mech/pkg/urdf"
)

// Transmission encodes the math relating one or more actuators to one or
// more joints. Implementations must be deterministic and must not touch any
// state beyond the output slice of each transform.
//
// The actuator and joint name lists are fixed after construction; their
// lengths determine the sizes of the slices passed to every transform.
// Slices are ordered to match the name lists.
type Transmission interface {
	// Name identifies this transmission instance.
	Name() string

	// ActuatorNames lists the actuators this transmission reads and writes.
	ActuatorNames() []string

	// JointNames lists the joints this transmission reads and writes.
	JointNames() []string

	// PropagatePosition reads actuator position and velocity and writes
	// joint position and velocity.
	PropagatePosition(actuators []*Actuator, joints []*JointState)

	// PropagateEffort reads joint commanded effort and writes actuator
	// commanded effort.
	PropagateEffort(joints []*JointState, actuators []*Actuator)

	// PropagatePositionBackwards reads joint position and velocity and
	// writes actuator position and velocity. Used for simulation and
	// calibration flows, not the normal sensed path.
	PropagatePositionBackwards(joints []*JointState, actuators []*Actuator)

	// PropagateEffortBackwards reads actuator measured effort and writes
	// joint measured effort.
	PropagateEffortBackwards(actuators []*Actuator, joints []*JointState)
}

// Factory builds a transmission instance from its description entry. The
// robot is available for config-time lookups but the entry's actuator and
// joint names are validated by NewRobot after the factory returns.
type Factory func(cfg *urdf.TransmissionConfig, r *Robot) (Transmission, error)

var (
	factoriesMu sync.RWMutex
	factories   = map[string]Factory{}
)

// RegisterTransmission makes a transmission type available to NewRobot
// under the given type name. Registering the same name twice is an error.
func RegisterTransmission(typeName string, f Factory) error {
	if typeName == "" {
		return fmt.Errorf("register transmission: empty type name")
	}
	if f == nil {
		return fmt.Errorf("register transmission %q: nil factory", typeName)
	}

	factoriesMu.Lock()
	defer factoriesMu.Unlock()

	if _, dup := factories[typeName]; dup {
		return fmt.Errorf("register transmission %q: already registered", typeName)
	}
	factories[typeName] = f
	return nil
}

func lookupFactory(typeName string) (Factory, bool) {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	f, ok := factories[typeName]
	return f, ok
}
