package baselib

import (
	"math"

	"github.com/lithoforge/maskforge/pkg/device"
	"github.com/lithoforge/maskforge/pkg/geom"
	"github.com/lithoforge/maskforge/pkg/sequencer"
)

// FocusingGratingCoupler is a fiber coupler of concentric circular grating
// trenches focused on the waveguide aperture at the origin. A fan section
// spreads the waveguide mode over the grating aperture; the single port
// sits at the waveguide end.
func FocusingGratingCoupler() *device.Template {
	return &device.Template{
		Name:        "fgc",
		Description: "focusing grating coupler",
		Parameters: func(s *device.Schema) error {
			specs := []device.ParameterSpec{
				device.Param("periods", 25, "number of grating trenches", device.Int),
				device.Param("pitch", 0.63, "radial grating period", device.Float).WithRange(0.1, 5),
				device.Param("ff", 0.5, "fill factor, trench width over pitch", device.Float).WithRange(0.05, 0.95),
				device.Param("focus", 20.0, "radius of the innermost trench", device.Float).WithRange(1, 1000),
				device.Param("angle", 40.0, "full aperture angle in degrees", device.Float).WithRange(1, 120),
				device.Param("width", 0.3, "waveguide width", device.Float).WithRange(0.01, 1),
			}
			for _, spec := range specs {
				if err := s.AddParameter(spec); err != nil {
					return err
				}
			}
			return nil
		},
		Geom: func(ctx *device.BuildContext) (*geom.Group, error) {
			periods := ctx.Int("periods")
			pitch := ctx.Float("pitch")
			ff := ctx.Float("ff")
			focus := ctx.Float("focus")
			angle := ctx.Float("angle")
			width := ctx.Float("width")

			half := angle / 2
			fanWidth := 2 * focus * math.Sin(half*math.Pi/180)

			// Lead-in taper ending at the focal point, then the fan out to
			// the first trench. The CENTER anchor pins the taper end to the
			// origin so the grating arcs can be centered there.
			g, err := ctx.Sequence([]sequencer.Command{
				sequencer.T(1, width),
				sequencer.Center(0, 0),
				sequencer.T(focus, fanWidth),
			})
			if err != nil {
				return nil, err
			}

			opts := ctx.SequencerOptions()
			for i := 0; i < periods; i++ {
				r := focus + float64(i)*pitch
				g.Union(geom.MakeArc(geom.ArcSpec{
					RX: r, RY: r,
					Width:    ff * pitch,
					A1:       -half,
					A2:       half,
					Layer:    opts.Layer,
					Vertices: 64,
					Split:    true,
				}))
			}

			ctx.AddLocalPort(NewPort("p1", -1, 0, device.West, width))
			ctx.SetLocal("aperture_width", fanWidth)
			return g, nil
		},
	}
}

// Templates returns all built-in device templates.
func Templates() []*device.Template {
	return []*device.Template{
		CrossMark(),
		DirectionalCoupler(),
		FocusingGratingCoupler(),
	}
}

// NewLibrary returns a template library preloaded with the built-ins.
func NewLibrary() (*device.Library, error) {
	lib := device.NewLibrary()
	if err := lib.Register(Templates()...); err != nil {
		return nil, err
	}
	return lib, nil
}
