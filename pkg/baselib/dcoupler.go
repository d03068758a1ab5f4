package baselib

import (
	"github.com/lithoforge/maskforge/pkg/device"
	"github.com/lithoforge/maskforge/pkg/geom"
	"github.com/lithoforge/maskforge/pkg/sequencer"
)

// DirectionalCoupler is a four-port symmetric coupler: two waveguides bent
// to run in parallel at a small gap over the coupling length, then bent
// back out to the input/output pitch. Geometry is built as one arm routed
// with the sequencer and mirrored about both axes.
func DirectionalCoupler() *device.Template {
	return &device.Template{
		Name:        "dcoupler",
		Description: "symmetric four-port directional coupler",
		Parameters: func(s *device.Schema) error {
			specs := []device.ParameterSpec{
				device.Param("length", 20.0, "coupling section length", device.Float).WithRange(0, 10000),
				device.Param("width", 0.3, "waveguide width", device.Float).WithRange(0.01, 1),
				device.Param("gap", 0.5, "edge-to-edge gap in the coupling section", device.Float).WithRange(0.01, 100),
				device.Param("input_dist", 5.0, "waveguide separation at the input", device.Float).WithRange(0.01, 1000),
				device.Param("input_len", 7.0, "horizontal span of each fan-in arm", device.Float).WithRange(3, 1000),
			}
			for _, spec := range specs {
				if err := s.AddParameter(spec); err != nil {
					return err
				}
			}
			return nil
		},
		Geom: func(ctx *device.BuildContext) (*geom.Group, error) {
			length := ctx.Float("length")
			width := ctx.Float("width")
			gap := ctx.Float("gap")
			inputDist := ctx.Float("input_dist")
			inputLen := ctx.Float("input_len")

			// The coupled waveguides sit at y = ±(gap+width)/2. input_dist
			// is the waveguide separation at the input, so each arm drops
			// by half of it over the s-bend and the ports land at
			// ±(input_dist+gap+width)/2.
			couple := (gap + width) / 2
			drop := inputDist / 2
			pitch := drop + couple

			// Upper-left arm, routed left to right: a short entry taper, the
			// s-bend down to the coupling level, then half the coupling
			// section up to the symmetry plane.
			arm, err := ctx.Sequence([]sequencer.Command{
				sequencer.T(1, width),
				sequencer.C(-drop, inputLen-1),
				sequencer.S(length / 2),
			})
			if err != nil {
				return nil, err
			}

			ltot := 2*inputLen + length
			arm.Translate(-ltot/2, pitch)

			right := arm.Copy()
			right.MirrorX(0)
			top := arm
			top.Union(right)

			bottom := top.Copy()
			bottom.MirrorY(0)
			g := top
			g.Union(bottom)

			ports := []device.Port{
				NewPort("p1", -ltot/2, pitch, device.West, width),
				NewPort("p2", ltot/2, pitch, device.East, width),
				NewPort("p3", -ltot/2, -pitch, device.West, width),
				NewPort("p4", ltot/2, -pitch, device.East, width),
			}
			for _, p := range ports {
				ctx.AddLocalPort(p)
			}
			ctx.SetLocal("total_length", ltot)
			return g, nil
		},
	}
}
