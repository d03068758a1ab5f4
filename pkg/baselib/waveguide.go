// Package baselib provides the built-in device templates: alignment marks,
// directional couplers and focusing grating couplers, plus the standard
// waveguide port connector they share.
package baselib

import (
	"math"

	"github.com/lithoforge/maskforge/pkg/device"
	"github.com/lithoforge/maskforge/pkg/errors"
	"github.com/lithoforge/maskforge/pkg/geom"
	"github.com/lithoforge/maskforge/pkg/sequencer"
)

// NewPort returns a waveguide port wired to the standard connector.
func NewPort(name string, x, y float64, o device.Orientation, width float64) device.Port {
	return device.Port{
		Name:        name,
		X:           x,
		Y:           y,
		Orientation: o,
		Width:       width,
		Connector:   ConnectWaveguides,
	}
}

// orientationAngle maps an orientation to its heading in degrees.
func orientationAngle(o device.Orientation) float64 {
	switch o {
	case device.East:
		return 0
	case device.North:
		return 90
	case device.West:
		return 180
	case device.South:
		return 270
	}
	return 0
}

// ConnectWaveguides bridges two facing waveguide ports with routed
// geometry. The ports must point at each other; the bridge is a straight
// segment when they are collinear and an s-bend otherwise, sized to the
// wider of the two ports. Width mismatches are absorbed by a closing taper
// at the destination.
func ConnectWaveguides(a, b *device.Port) (*geom.Group, error) {
	if a == nil || b == nil {
		return nil, errors.New(errors.ErrCodePortIncompatible, "nil port")
	}
	if a == b {
		return nil, errors.New(errors.ErrCodePortDegenerate,
			"port %q connected to itself", a.Name)
	}
	if b.Orientation != a.Orientation.Opposite() {
		return nil, errors.New(errors.ErrCodePortIncompatible,
			"ports %q (%s) and %q (%s) do not face each other",
			a.Name, a.Orientation, b.Name, b.Orientation)
	}

	dx, dy := b.X-a.X, b.Y-a.Y
	// Decompose the displacement in a's frame: forward along the heading,
	// lateral to its left.
	forward := dx*a.DX() + dy*a.DY()
	lateral := dx*-a.DY() + dy*a.DX()

	if forward == 0 && lateral == 0 {
		return nil, errors.New(errors.ErrCodePortDegenerate,
			"ports %q and %q coincide", a.Name, b.Name)
	}
	if forward <= 0 {
		return nil, errors.New(errors.ErrCodePortIncompatible,
			"ports %q and %q face away from each other", a.Name, b.Name)
	}

	width := math.Max(a.Width, b.Width)
	opts := sequencer.DefaultOptions()
	opts.DefaultWidth = width

	var cmds []sequencer.Command
	taper := math.Min(1, forward/4)
	if a.Width != width {
		cmds = append(cmds, sequencer.T(taper, width))
		forward -= taper
	}
	closing := 0.0
	if b.Width != width {
		closing = taper
		forward -= closing
	}
	if lateral != 0 {
		cmds = append(cmds, sequencer.C(lateral, forward))
	} else if forward > 0 {
		cmds = append(cmds, sequencer.S(forward))
	}
	if closing > 0 {
		cmds = append(cmds, sequencer.T(closing, b.Width))
	}

	g, err := sequencer.New(cmds, opts).Run()
	if err != nil {
		return nil, err
	}
	g.Rotate(0, 0, orientationAngle(a.Orientation))
	g.Translate(a.X, a.Y)
	return g, nil
}
