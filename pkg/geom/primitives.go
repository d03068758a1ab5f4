package geom

import "math"

// Rectangle anchor keys, laid out like a numeric keypad: 1 is the lower-left
// corner, 5 the center, 9 the upper-right corner.
const (
	AnchorSW     = 1
	AnchorS      = 2
	AnchorSE     = 3
	AnchorW      = 4
	AnchorCenter = 5
	AnchorE      = 6
	AnchorNW     = 7
	AnchorN      = 8
	AnchorNE     = 9
)

// MakeRect returns a group holding a single w-by-h rectangle on layer.
// (x0, y0) is the anchor point selected by numkey (see the Anchor constants).
func MakeRect(x0, y0, w, h float64, numkey, layer int) *Group {
	// Keypad column selects x alignment, keypad row selects y alignment.
	col := (numkey - 1) % 3
	row := (numkey - 1) / 3
	llx := x0 - w/2*float64(col)
	lly := y0 - h/2*float64(row)
	return &Group{Polygons: []Polygon{{
		Layer: layer,
		Pts: []Point{
			{llx, lly},
			{llx + w, lly},
			{llx + w, lly + h},
			{llx, lly + h},
		},
	}}}
}

// MakeCircle returns a polygonal approximation of a circle of radius r
// centered at (x0, y0), with the given number of vertices.
func MakeCircle(x0, y0, r float64, layer, vertices int) *Group {
	if vertices < 3 {
		vertices = 3
	}
	pts := make([]Point, vertices)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / float64(vertices)
		pts[i] = Point{X: x0 + r*math.Cos(a), Y: y0 + r*math.Sin(a)}
	}
	return &Group{Polygons: []Polygon{{Layer: layer, Pts: pts}}}
}

// ArcSpec describes an elliptical arc band for [MakeArc].
type ArcSpec struct {
	X0, Y0   float64 // ellipse center
	RX, RY   float64 // semi-axes of the band centerline
	Rot      float64 // ellipse rotation, degrees counter-clockwise
	Width    float64 // band width, measured across the centerline
	A1, A2   float64 // start and end angles, degrees
	Layer    int
	Vertices int  // sample count along each edge of the band
	Split    bool // split the band into chunks of at most 90 degrees
}

// MakeArc returns an annular elliptical band polygon: the region between the
// centerline offset outward and inward by half the band width, swept from A1
// to A2. With Split set the band is emitted as multiple polygons of at most a
// quarter turn each, which keeps vertex counts per polygon low for writers
// with boundary size limits.
func MakeArc(spec ArcSpec) *Group {
	if spec.Vertices < 2 {
		spec.Vertices = 2
	}
	out := NewGroup()
	a1, a2 := spec.A1, spec.A2
	if a2 < a1 {
		a1, a2 = a2, a1
	}
	if spec.Split {
		for start := a1; start < a2; start += 90 {
			end := math.Min(start+90, a2)
			out.Union(arcBand(spec, start, end))
		}
	} else {
		out.Union(arcBand(spec, a1, a2))
	}
	return out
}

func arcBand(spec ArcSpec, a1, a2 float64) *Group {
	n := spec.Vertices
	outer := make([]Point, 0, 2*n)
	inner := make([]Point, 0, n)
	half := spec.Width / 2
	for i := 0; i < n; i++ {
		a := (a1 + (a2-a1)*float64(i)/float64(n-1)) * math.Pi / 180
		cos, sin := math.Cos(a), math.Sin(a)
		outer = append(outer, Point{X: (spec.RX + half) * cos, Y: (spec.RY + half) * sin})
		inner = append(inner, Point{X: (spec.RX - half) * cos, Y: (spec.RY - half) * sin})
	}
	// Outer edge forward, inner edge backward, closing the band.
	pts := outer
	for i := len(inner) - 1; i >= 0; i-- {
		pts = append(pts, inner[i])
	}
	g := &Group{Polygons: []Polygon{{Layer: spec.Layer, Pts: pts}}}
	if spec.Rot != 0 {
		g.Rotate(0, 0, spec.Rot)
	}
	g.Translate(spec.X0, spec.Y0)
	return g
}
