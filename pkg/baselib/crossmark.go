package baselib

import (
	"github.com/lithoforge/maskforge/pkg/device"
	"github.com/lithoforge/maskforge/pkg/geom"
)

// CrossMark is a cross-shaped alignment mark centered on the origin.
func CrossMark() *device.Template {
	return &device.Template{
		Name:        "crossmark",
		Description: "cross-shaped alignment mark",
		Parameters: func(s *device.Schema) error {
			specs := []device.ParameterSpec{
				device.Param("size", 20.0, "arm span, tip to tip", device.Float).WithRange(1, 1000),
				device.Param("width", 2.0, "arm width", device.Float).WithRange(0.1, 100),
				device.Param("layer", 2, "output layer", device.Int),
			}
			for _, spec := range specs {
				if err := s.AddParameter(spec); err != nil {
					return err
				}
			}
			return nil
		},
		Geom: func(ctx *device.BuildContext) (*geom.Group, error) {
			size := ctx.Float("size")
			width := ctx.Float("width")
			layer := ctx.Int("layer")

			g := geom.MakeRect(0, 0, size, width, geom.AnchorCenter, layer)
			g.Union(geom.MakeRect(0, 0, width, size, geom.AnchorCenter, layer))
			return g, nil
		},
	}
}
