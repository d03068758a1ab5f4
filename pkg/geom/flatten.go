package geom

// Flatten resolves every structure reference into concrete polygons,
// recursively, and returns a new group containing only polygons.
// References to cells unknown to r are dropped.
func (g *Group) Flatten(r Resolver) *Group {
	out := &Group{Polygons: make([]Polygon, len(g.Polygons))}
	for i, p := range g.Polygons {
		pts := make([]Point, len(p.Pts))
		copy(pts, p.Pts)
		out.Polygons[i] = Polygon{Layer: p.Layer, Pts: pts}
	}
	if r == nil {
		return out
	}
	for _, ref := range g.Refs {
		sub, ok := r.Cell(ref.Cell)
		if !ok {
			continue
		}
		out.Union(placeRef(sub, ref, r).Flatten(r))
	}
	return out
}

// placeRef instantiates one placement of a reference: a deep copy of the
// referenced cell with the STRANS transform applied (reflect, then rotate,
// then translate), repeated over the array grid when Columns/Rows are set.
func placeRef(cell *Group, ref Ref, r Resolver) *Group {
	mag := ref.Mag
	if mag == 0 {
		mag = 1
	}

	one := func(ox, oy float64) *Group {
		c := cell.Copy()
		if mag != 1 {
			for i := range c.Polygons {
				pts := c.Polygons[i].Pts
				for j := range pts {
					pts[j].X *= mag
					pts[j].Y *= mag
				}
			}
			for i := range c.Refs {
				c.Refs[i].X *= mag
				c.Refs[i].Y *= mag
				sub := &c.Refs[i]
				if sub.Mag == 0 {
					sub.Mag = mag
				} else {
					sub.Mag *= mag
				}
			}
		}
		if ref.Reflect {
			c.MirrorY(0)
		}
		if ref.Angle != 0 {
			c.Rotate(0, 0, ref.Angle)
		}
		c.Translate(ox, oy)
		return c
	}

	if ref.Columns > 0 && ref.Rows > 0 {
		out := NewGroup()
		for row := 0; row < ref.Rows; row++ {
			for col := 0; col < ref.Columns; col++ {
				out.Union(one(ref.X+float64(col)*ref.PitchX, ref.Y+float64(row)*ref.PitchY))
			}
		}
		return out
	}
	return one(ref.X, ref.Y)
}
