package geom

import "math"

// Box is an axis-aligned bounding box (llx, lly, urx, ury).
type Box struct {
	MinX, MinY, MaxX, MaxY float64
}

// EmptyBox returns the identity element for [Box.Union]: an inverted box that
// any point expands.
func EmptyBox() Box {
	return Box{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
}

// IsEmpty reports whether the box covers no area (no points accumulated).
func (b Box) IsEmpty() bool {
	return b.MinX > b.MaxX || b.MinY > b.MaxY
}

// Width returns the x extent, or 0 for an empty box.
func (b Box) Width() float64 {
	if b.IsEmpty() {
		return 0
	}
	return b.MaxX - b.MinX
}

// Height returns the y extent, or 0 for an empty box.
func (b Box) Height() float64 {
	if b.IsEmpty() {
		return 0
	}
	return b.MaxY - b.MinY
}

// Union returns the smallest box covering both operands.
func (b Box) Union(o Box) Box {
	if b.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return b
	}
	return Box{
		MinX: math.Min(b.MinX, o.MinX),
		MinY: math.Min(b.MinY, o.MinY),
		MaxX: math.Max(b.MaxX, o.MaxX),
		MaxY: math.Max(b.MaxY, o.MaxY),
	}
}

// expand grows the box to include the point.
func (b Box) expand(p Point) Box {
	return Box{
		MinX: math.Min(b.MinX, p.X),
		MinY: math.Min(b.MinY, p.Y),
		MaxX: math.Max(b.MaxX, p.X),
		MaxY: math.Max(b.MaxY, p.Y),
	}
}

// BoundingBox computes the axis-aligned bounding box of the group.
// References are resolved through r; pass nil to bound only the concrete
// polygons (references are then skipped).
func (g *Group) BoundingBox(r Resolver) Box {
	box := EmptyBox()
	for _, p := range g.Polygons {
		for _, pt := range p.Pts {
			box = box.expand(pt)
		}
	}
	if r == nil {
		return box
	}
	for _, ref := range g.Refs {
		sub, ok := r.Cell(ref.Cell)
		if !ok {
			continue
		}
		placed := placeRef(sub, ref, r)
		box = box.Union(placed.BoundingBox(r))
	}
	return box
}
