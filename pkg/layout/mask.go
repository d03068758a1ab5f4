// Package layout assembles resolved device instances into a mask: a named
// main cell referencing shared cells from the layout pool, exportable to
// GDSII and raster previews.
package layout

import (
	"io"
	"os"
	"sort"
	"time"

	"github.com/lithoforge/maskforge/pkg/device"
	"github.com/lithoforge/maskforge/pkg/errors"
	"github.com/lithoforge/maskforge/pkg/gds"
	"github.com/lithoforge/maskforge/pkg/geom"
	"github.com/lithoforge/maskforge/pkg/observability"
	"github.com/lithoforge/maskforge/pkg/pool"
	"github.com/lithoforge/maskforge/pkg/render"
	"github.com/lithoforge/maskforge/pkg/tech"
)

// Mask is a top-level layout under construction. The main cell accumulates
// placements and loose geometry; shared device cells stay in the layout
// pool and are emitted once each at export.
type Mask struct {
	Name string
	Tech tech.Technology

	reg  *pool.Registry
	main *geom.Group
}

// New returns an empty mask drawing from the given registry.
func New(name string, reg *pool.Registry, t tech.Technology) (*Mask, error) {
	if err := errors.ValidateCellName(name); err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "nil registry")
	}
	return &Mask{Name: name, Tech: t, reg: reg, main: geom.NewGroup()}, nil
}

// Registry returns the layout pool this mask draws from.
func (m *Mask) Registry() *pool.Registry {
	return m.reg
}

// MainCell returns the accumulated main cell content.
func (m *Mask) MainCell() *geom.Group {
	return m.main
}

// AddToMainCell merges geometry into the main cell. The group is absorbed
// as-is, references included.
func (m *Mask) AddToMainCell(g *geom.Group) {
	if g == nil {
		return
	}
	m.main.Union(g)
}

// Place puts a resolved instance into the main cell at (x, y). Instances
// resolved through the cache contribute a single reference; force-regenerated
// instances have no backing cell and cannot be placed.
func (m *Mask) Place(inst *device.Instance, x, y float64) error {
	return m.PlaceTransformed(inst, x, y, 0, false)
}

// PlaceTransformed puts a resolved instance into the main cell with a
// rotation (degrees, counter-clockwise) and an optional reflection about
// the x axis applied before the rotation.
func (m *Mask) PlaceTransformed(inst *device.Instance, x, y, angle float64, reflect bool) error {
	cell := inst.CellName()
	if cell == "" {
		return errors.New(errors.ErrCodeStateInvalid,
			"instance of %q has no backing cell; run it without force regeneration", inst.Template().Name)
	}
	if _, ok := m.reg.Cell(cell); !ok {
		return errors.New(errors.ErrCodeCacheConsistency,
			"instance cell %q missing from layout pool", cell)
	}
	m.main.Refs = append(m.main.Refs, geom.Ref{
		Cell: cell, X: x, Y: y, Angle: angle, Reflect: reflect,
	})
	return nil
}

// PlaceArray puts a cols-by-rows grid of a resolved instance into the main
// cell, with the first element at (x, y).
func (m *Mask) PlaceArray(inst *device.Instance, x, y float64, cols, rows int, pitchX, pitchY float64) error {
	cell := inst.CellName()
	if cell == "" {
		return errors.New(errors.ErrCodeStateInvalid,
			"instance of %q has no backing cell", inst.Template().Name)
	}
	if cols < 1 || rows < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "array must be at least 1x1")
	}
	m.main.Refs = append(m.main.Refs, geom.Ref{
		Cell: cell, X: x, Y: y,
		Columns: cols, Rows: rows, PitchX: pitchX, PitchY: pitchY,
	})
	return nil
}

// Connect routes a bridge between two ports and adds it to the main cell.
func (m *Mask) Connect(a, b *device.Port) error {
	g, err := a.Connect(b)
	if err != nil {
		return err
	}
	m.main.Union(g)
	return nil
}

// BoundingBox returns the extent of the main cell, references resolved.
func (m *Mask) BoundingBox() geom.Box {
	return m.main.BoundingBox(m.reg)
}

// Flatten returns the main cell with every reference expanded to polygons.
func (m *Mask) Flatten() *geom.Group {
	return m.main.Flatten(m.reg)
}

// cellClosure returns the names of every pool cell reachable from the main
// cell, in stable order.
func (m *Mask) cellClosure() ([]string, error) {
	seen := make(map[string]bool)
	var visit func(g *geom.Group) error
	visit = func(g *geom.Group) error {
		for _, ref := range g.Refs {
			if seen[ref.Cell] {
				continue
			}
			child, ok := m.reg.Cell(ref.Cell)
			if !ok {
				return errors.New(errors.ErrCodeCacheConsistency,
					"referenced cell %q missing from layout pool", ref.Cell)
			}
			seen[ref.Cell] = true
			if err := visit(child); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(m.main); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// maskResolver resolves the main cell by mask name and everything else
// through the pool.
type maskResolver struct{ m *Mask }

func (r maskResolver) Cell(name string) (*geom.Group, bool) {
	if name == r.m.Name {
		return r.m.main, true
	}
	return r.m.reg.Cell(name)
}

// ExportGDS streams the mask as a GDSII library: referenced cells first,
// the main cell last.
func (m *Mask) ExportGDS(w io.Writer) error {
	cells, err := m.cellClosure()
	if err != nil {
		return err
	}
	cells = append(cells, m.Name)

	start := time.Now()
	observability.Export().OnExportStart("gds", len(cells))

	cw := &countingWriter{w: w}
	err = gds.Write(cw, gds.Library{
		Name:         m.Name,
		UserUnit:     m.Tech.Units.UserUnit,
		DatabaseUnit: m.Tech.Units.DatabaseUnit,
	}, maskResolver{m}, cells)

	observability.Export().OnExportComplete("gds", cw.n, time.Since(start), err)
	return err
}

// WriteGDSFile exports the mask to a file.
func (m *Mask) WriteGDSFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create %s", path)
	}
	if err := m.ExportGDS(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WritePreviewPNG renders the mask's flattened geometry to a raster preview,
// colored by the technology's layer table.
func (m *Mask) WritePreviewPNG(path string) error {
	opts := render.DefaultPreviewOptions()
	opts.LayerColors = make(map[int]string, len(m.Tech.Layers))
	for _, l := range m.Tech.Layers {
		if l.Color != "" {
			opts.LayerColors[l.Number] = l.Color
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create %s", path)
	}
	if err := render.WritePreviewPNG(f, m.main, m.reg, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}
