// Package render produces visual output from layouts: raster previews of
// mask geometry and cell hierarchy diagrams.
package render

import (
	"io"

	"github.com/fogleman/gg"

	"github.com/lithoforge/maskforge/pkg/errors"
	"github.com/lithoforge/maskforge/pkg/geom"
)

// palette is the default layer color cycle, chosen for contrast on white.
var palette = []string{
	"#4a90d9", "#d94a4a", "#4ad97a", "#d9a84a",
	"#9a4ad9", "#4ad9cf", "#d94aa8", "#8a8a8a",
}

// PreviewOptions configures raster previews.
type PreviewOptions struct {
	// Width is the image width in pixels. Height follows the aspect ratio.
	Width int
	// Margin is the blank border fraction of the image width.
	Margin float64
	// Background is the canvas color as a hex string.
	Background string
	// Alpha is the polygon fill opacity, letting overlapping layers show.
	Alpha float64
	// LayerColors overrides the palette for specific layers.
	LayerColors map[int]string
}

// DefaultPreviewOptions returns the standard preview settings.
func DefaultPreviewOptions() PreviewOptions {
	return PreviewOptions{
		Width:      1024,
		Margin:     0.04,
		Background: "#ffffff",
		Alpha:      0.85,
	}
}

// layerColor picks the fill color for a layer, cycling the palette.
func (o PreviewOptions) layerColor(layer int) string {
	if c, ok := o.LayerColors[layer]; ok {
		return c
	}
	i := layer % len(palette)
	if i < 0 {
		i += len(palette)
	}
	return palette[i]
}

// WritePreviewPNG rasterizes a group to PNG. References are flattened
// through r; pass a nil resolver for already-flat geometry.
func WritePreviewPNG(w io.Writer, g *geom.Group, r geom.Resolver, opts PreviewOptions) error {
	if opts.Width <= 0 {
		opts.Width = DefaultPreviewOptions().Width
	}
	if opts.Background == "" {
		opts.Background = DefaultPreviewOptions().Background
	}
	if opts.Alpha <= 0 || opts.Alpha > 1 {
		opts.Alpha = DefaultPreviewOptions().Alpha
	}

	flat := g
	if len(g.Refs) > 0 {
		if r == nil {
			return errors.New(errors.ErrCodeInvalidInput,
				"geometry has references but no resolver was given")
		}
		flat = g.Flatten(r)
	}
	if flat.IsEmpty() {
		return errors.New(errors.ErrCodeInvalidInput, "nothing to render")
	}

	box := flat.BoundingBox(nil)
	if box.IsEmpty() || box.Width() == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "degenerate extent %+v", box)
	}

	margin := float64(opts.Width) * opts.Margin
	scale := (float64(opts.Width) - 2*margin) / box.Width()
	height := int(box.Height()*scale + 2*margin)
	if height < 1 {
		height = 1
	}

	dc := gg.NewContext(opts.Width, height)
	dc.SetHexColor(opts.Background)
	dc.Clear()

	// Mask y grows upward, image y downward.
	toPx := func(p geom.Point) (float64, float64) {
		return margin + (p.X-box.MinX)*scale, float64(height) - margin - (p.Y-box.MinY)*scale
	}

	for _, poly := range flat.Polygons {
		if len(poly.Pts) < 3 {
			continue
		}
		cr, cg, cb := parseHexColor(opts.layerColor(poly.Layer))
		dc.SetRGBA(cr, cg, cb, opts.Alpha)

		x, y := toPx(poly.Pts[0])
		dc.MoveTo(x, y)
		for _, p := range poly.Pts[1:] {
			x, y = toPx(p)
			dc.LineTo(x, y)
		}
		dc.ClosePath()
		dc.Fill()
	}

	return dc.EncodePNG(w)
}

// parseHexColor decodes "#rrggbb" into unit-range components. Malformed
// strings fall back to grey.
func parseHexColor(s string) (r, g, b float64) {
	if len(s) != 7 || s[0] != '#' {
		return 0.5, 0.5, 0.5
	}
	hex := func(c byte) (int, bool) {
		switch {
		case c >= '0' && c <= '9':
			return int(c - '0'), true
		case c >= 'a' && c <= 'f':
			return int(c-'a') + 10, true
		case c >= 'A' && c <= 'F':
			return int(c-'A') + 10, true
		}
		return 0, false
	}
	var v [3]float64
	for i := 0; i < 3; i++ {
		hi, ok1 := hex(s[1+2*i])
		lo, ok2 := hex(s[2+2*i])
		if !ok1 || !ok2 {
			return 0.5, 0.5, 0.5
		}
		v[i] = float64(hi*16+lo) / 255
	}
	return v[0], v[1], v[2]
}
