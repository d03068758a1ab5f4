// Package sequencer interprets ordered routing command lists into waveguide
// geometry.
//
// A sequence is a linear program over a small state machine: a running
// position, a running width and a bag of named state variables. Each
// geometry-emitting command appends one polygon to an accumulator group and
// advances the position; anchor and state commands mutate state only.
// Execution is strictly list order, and an unrecognized tag aborts the run
// with the offending command and its index; there is no partial silent skip.
package sequencer

import (
	"math"

	"github.com/lithoforge/maskforge/pkg/errors"
	"github.com/lithoforge/maskforge/pkg/geom"
)

// Options configures sequence interpretation. The defaults come from the
// technology file (see the tech package) or from [DefaultOptions].
type Options struct {
	// DefaultWidth is the waveguide width before the first taper.
	DefaultWidth float64
	// CurveResolution is the sample count along a curve directrix.
	CurveResolution int
	// Layer receives every emitted polygon.
	Layer int
}

// DefaultOptions returns the built-in interpretation defaults.
func DefaultOptions() Options {
	return Options{
		DefaultWidth:    0.3,
		CurveResolution: 32,
		Layer:           1,
	}
}

// Sequencer executes one routing command list. A Sequencer is single-use:
// create one per sequence.
type Sequencer struct {
	Options Options

	cmds []Command

	// Vars holds the named state variables after Run. STATE commands write
	// here; built-in commands never read it, but custom post-processing may.
	Vars map[string]any
}

// New returns a sequencer for the command list with the given options.
func New(cmds []Command, opts Options) *Sequencer {
	return &Sequencer{
		Options: opts,
		cmds:    cmds,
		Vars:    make(map[string]any),
	}
}

// Run interprets the command list and returns the accumulated geometry.
// The result is the union of all emitted segments; segments are not merged
// into a boolean-clean polygon. On error no geometry is returned.
func (s *Sequencer) Run() (*geom.Group, error) {
	acc := geom.NewGroup()
	x, y := 0.0, 0.0
	width := s.Options.DefaultWidth

	for i, cmd := range s.cmds {
		if cmd.Op != OpState {
			want, ok := arity[cmd.Op]
			if !ok {
				return nil, errors.New(errors.ErrCodeSeqUnknownCommand,
					"unknown command %q at index %d", cmd.Op, i)
			}
			if len(cmd.Args) != want {
				return nil, errors.New(errors.ErrCodeSeqBadOperands,
					"command %s at index %d has %d operands, want %d", cmd, i, len(cmd.Args), want)
			}
		}

		switch cmd.Op {
		case OpTaper:
			length, w1 := cmd.Args[0], cmd.Args[1]
			acc.AddPolygon(geom.Polygon{
				Layer: s.Options.Layer,
				Pts: []geom.Point{
					{X: x, Y: y - width/2},
					{X: x + length, Y: y - w1/2},
					{X: x + length, Y: y + w1/2},
					{X: x, Y: y + width/2},
				},
			})
			x += length
			width = w1

		case OpStraight:
			length := cmd.Args[0]
			acc.AddPolygon(geom.Polygon{
				Layer: s.Options.Layer,
				Pts: []geom.Point{
					{X: x, Y: y - width/2},
					{X: x + length, Y: y - width/2},
					{X: x + length, Y: y + width/2},
					{X: x, Y: y + width/2},
				},
			})
			x += length

		case OpCurve:
			offset, length := cmd.Args[0], cmd.Args[1]
			acc.AddPolygon(s.curvePolygon(x, y, offset, length, width))
			x += length
			y += offset

		case OpCenter:
			// Re-anchor: the current position becomes (x, y) and everything
			// emitted so far shifts with it.
			nx, ny := cmd.Args[0], cmd.Args[1]
			acc.Translate(nx-x, ny-y)
			x, y = nx, ny

		case OpState:
			s.Vars[cmd.Key] = cmd.Value
		}
	}

	return acc, nil
}

// curvePolygon builds the band polygon of a smooth lateral transition: the
// directrix y(u) = offset·(3u²−2u³) sampled at CurveResolution points, with
// the band edges offset by ±width/2. The smoothstep has zero slope at both
// ends, so the curve joins straights and tapers without kinks.
func (s *Sequencer) curvePolygon(x, y, offset, length, width float64) geom.Polygon {
	n := s.Options.CurveResolution
	if n < 2 {
		n = 2
	}
	top := make([]geom.Point, 0, n)
	bot := make([]geom.Point, 0, n)
	for i := 0; i < n; i++ {
		u := float64(i) / float64(n-1)
		su := u * u * (3 - 2*u)
		cx := x + length*u
		cy := y + offset*su
		// Edge offset normal to the directrix keeps the band width constant
		// along the curve.
		slope := 0.0
		if length != 0 {
			slope = 6 * offset / length * u * (1 - u)
		}
		norm := math.Hypot(1, slope)
		dx := -slope / norm * width / 2
		dy := 1 / norm * width / 2
		top = append(top, geom.Point{X: cx + dx, Y: cy + dy})
		bot = append(bot, geom.Point{X: cx - dx, Y: cy - dy})
	}
	pts := bot
	for i := len(top) - 1; i >= 0; i-- {
		pts = append(pts, top[i])
	}
	return geom.Polygon{Layer: s.Options.Layer, Pts: pts}
}
