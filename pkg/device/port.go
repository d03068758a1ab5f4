package device

import (
	"github.com/lithoforge/maskforge/pkg/errors"
	"github.com/lithoforge/maskforge/pkg/geom"
)

// Orientation is the outward-facing direction of a port. Ports in this
// engine are axis-aligned: north, south, east or west.
type Orientation string

// The four port orientations.
const (
	North Orientation = "north"
	South Orientation = "south"
	East  Orientation = "east"
	West  Orientation = "west"
)

// ParseOrientation converts a string to an Orientation.
func ParseOrientation(s string) (Orientation, error) {
	switch Orientation(s) {
	case North, South, East, West:
		return Orientation(s), nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown orientation %q", s)
}

// DX returns the x component of the unit outward direction.
func (o Orientation) DX() float64 {
	switch o {
	case East:
		return 1
	case West:
		return -1
	}
	return 0
}

// DY returns the y component of the unit outward direction.
func (o Orientation) DY() float64 {
	switch o {
	case North:
		return 1
	case South:
		return -1
	}
	return 0
}

// Opposite returns the facing orientation.
func (o Orientation) Opposite() Orientation {
	switch o {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	}
	return o
}

// ConnectorFunc computes bridging geometry between two ports.
type ConnectorFunc func(a, b *Port) (*geom.Group, error)

// Port is a named, oriented connection point on a device instance.
// Ports are declared by the generator through [BuildContext.AddLocalPort]
// and owned by exactly one instance after Run.
type Port struct {
	X, Y        float64
	Orientation Orientation
	Width       float64
	Name        string

	// Connector builds bridging geometry to another port of a compatible
	// convention. It is bound by the port constructor (e.g. the waveguide
	// base library) and carried with the port.
	Connector ConnectorFunc

	owner *Instance
}

// Owner returns the instance the port belongs to, or nil before Run.
func (p *Port) Owner() *Instance {
	return p.owner
}

// DX returns the x component of the port's unit outward direction.
func (p *Port) DX() float64 { return p.Orientation.DX() }

// DY returns the y component of the port's unit outward direction.
func (p *Port) DY() float64 { return p.Orientation.DY() }

// Connect invokes the port's connector against other and returns the
// bridging geometry.
func (p *Port) Connect(other *Port) (*geom.Group, error) {
	if p.Connector == nil {
		return nil, errors.New(errors.ErrCodePortIncompatible,
			"port %q has no connector bound", p.Name)
	}
	return p.Connector(p, other)
}
