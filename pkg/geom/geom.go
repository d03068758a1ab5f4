// Package geom provides the geometry container consumed by the device engine.
//
// A [Group] is an ordered set of geometry nodes: concrete polygons and
// structure references into a shared cell arena. Groups support affine
// transforms, bounding-box queries and flattening of references, which is
// everything the composition engine needs from its geometry collaborator.
//
// Union is geometric accumulation (polygon set append), not a boolean-clean
// merge. Overlapping polygons on the same layer are legal GDSII output.
package geom

import "math"

// Point is a 2D coordinate in user units (micrometers by convention).
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Polygon is a closed boundary on a single layer. The closing edge from the
// last vertex back to the first is implicit.
type Polygon struct {
	Layer int
	Pts   []Point
}

// Ref is a structure reference: a placement of a named cell. The referenced
// geometry lives in the layout pool; the Ref holds only the placement
// transform, mirroring GDSII SREF/AREF semantics.
//
// Transform order follows GDSII STRANS: reflection about the x axis first,
// then rotation, then translation to (X, Y). When Columns and Rows are both
// positive the reference is an array with PitchX/PitchY spacing.
type Ref struct {
	Cell    string
	X, Y    float64
	Angle   float64 // degrees counter-clockwise
	Mag     float64
	Reflect bool

	Columns, Rows  int
	PitchX, PitchY float64
}

// Resolver resolves cell names to geometry. The layout pool implements it.
type Resolver interface {
	Cell(name string) (*Group, bool)
}

// Group is an ordered collection of polygons and structure references.
// The zero value is an empty group ready for use.
type Group struct {
	Polygons []Polygon
	Refs     []Ref
}

// NewGroup returns an empty group.
func NewGroup() *Group {
	return &Group{}
}

// NewRef returns a group holding a single structure reference to cell with
// identity placement.
func NewRef(cell string) *Group {
	return &Group{Refs: []Ref{{Cell: cell, Mag: 1}}}
}

// AddPolygon appends a polygon to the group.
func (g *Group) AddPolygon(p Polygon) {
	g.Polygons = append(g.Polygons, p)
}

// Union appends the nodes of other into g. Nodes are shared, not copied;
// use [Group.Copy] on other first if it will be transformed afterwards.
func (g *Group) Union(other *Group) *Group {
	if other == nil {
		return g
	}
	g.Polygons = append(g.Polygons, other.Polygons...)
	g.Refs = append(g.Refs, other.Refs...)
	return g
}

// Copy returns a deep copy of the group. Nil slices stay nil so a copy
// compares equal to its source under reflect.DeepEqual.
func (g *Group) Copy() *Group {
	out := &Group{}
	if g.Polygons != nil {
		out.Polygons = make([]Polygon, len(g.Polygons))
		for i, p := range g.Polygons {
			pts := make([]Point, len(p.Pts))
			copy(pts, p.Pts)
			out.Polygons[i] = Polygon{Layer: p.Layer, Pts: pts}
		}
	}
	if g.Refs != nil {
		out.Refs = make([]Ref, len(g.Refs))
		copy(out.Refs, g.Refs)
	}
	return out
}

// Len reports the number of nodes (polygons plus references).
func (g *Group) Len() int {
	return len(g.Polygons) + len(g.Refs)
}

// IsEmpty reports whether the group holds no geometry at all.
func (g *Group) IsEmpty() bool {
	return g.Len() == 0
}

// SetLayer moves every polygon in the group to layer n.
// References are unaffected; their layers live in the referenced cells.
func (g *Group) SetLayer(n int) *Group {
	for i := range g.Polygons {
		g.Polygons[i].Layer = n
	}
	return g
}

// Translate shifts the group by (dx, dy).
func (g *Group) Translate(dx, dy float64) *Group {
	for i := range g.Polygons {
		pts := g.Polygons[i].Pts
		for j := range pts {
			pts[j].X += dx
			pts[j].Y += dy
		}
	}
	for i := range g.Refs {
		g.Refs[i].X += dx
		g.Refs[i].Y += dy
	}
	return g
}

// Rotate rotates the group by angle degrees counter-clockwise about (cx, cy).
func (g *Group) Rotate(cx, cy, angle float64) *Group {
	rad := angle * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	rot := func(x, y float64) (float64, float64) {
		dx, dy := x-cx, y-cy
		return cx + dx*cos - dy*sin, cy + dx*sin + dy*cos
	}
	for i := range g.Polygons {
		pts := g.Polygons[i].Pts
		for j := range pts {
			pts[j].X, pts[j].Y = rot(pts[j].X, pts[j].Y)
		}
	}
	for i := range g.Refs {
		r := &g.Refs[i]
		r.X, r.Y = rot(r.X, r.Y)
		r.Angle += angle
	}
	return g
}

// MirrorX reflects the group across the vertical line x = x0.
func (g *Group) MirrorX(x0 float64) *Group {
	for i := range g.Polygons {
		pts := g.Polygons[i].Pts
		for j := range pts {
			pts[j].X = 2*x0 - pts[j].X
		}
	}
	for i := range g.Refs {
		r := &g.Refs[i]
		r.X = 2*x0 - r.X
		r.Reflect = !r.Reflect
		r.Angle = 180 - r.Angle
	}
	return g
}

// MirrorY reflects the group across the horizontal line y = y0.
func (g *Group) MirrorY(y0 float64) *Group {
	for i := range g.Polygons {
		pts := g.Polygons[i].Pts
		for j := range pts {
			pts[j].Y = 2*y0 - pts[j].Y
		}
	}
	for i := range g.Refs {
		r := &g.Refs[i]
		r.Y = 2*y0 - r.Y
		r.Reflect = !r.Reflect
		r.Angle = -r.Angle
	}
	return g
}
