package render

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/goccy/go-graphviz"

	"github.com/lithoforge/maskforge/pkg/pool"
)

// HierarchyOptions configures cell hierarchy diagrams.
type HierarchyOptions struct {
	// Detailed includes polygon and reference counts in node labels.
	// When false, only the cell name is shown.
	Detailed bool
}

// HierarchyDOT converts the layout pool's cell reference graph to Graphviz
// DOT format. Edges point from referencing cell to referenced cell and are
// labeled with the placement count when a cell is placed more than once.
// The resulting DOT string can be rendered using [RenderSVG].
func HierarchyDOT(reg *pool.Registry, opts HierarchyOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph cells {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, name := range reg.CellNames() {
		g, ok := reg.Cell(name)
		if !ok {
			continue
		}
		label := name
		if opts.Detailed {
			label = fmt.Sprintf("%s\npolygons: %d\nrefs: %d", name, len(g.Polygons), len(g.Refs))
		}
		fmt.Fprintf(&buf, "  %q [label=%q];\n", name, label)
	}

	buf.WriteString("\n")
	for _, name := range reg.CellNames() {
		g, ok := reg.Cell(name)
		if !ok {
			continue
		}
		counts := make(map[string]int)
		for _, ref := range g.Refs {
			n := 1
			if ref.Columns > 1 || ref.Rows > 1 {
				cols, rows := ref.Columns, ref.Rows
				if cols < 1 {
					cols = 1
				}
				if rows < 1 {
					rows = 1
				}
				n = cols * rows
			}
			counts[ref.Cell] += n
		}
		targets := make([]string, 0, len(counts))
		for t := range counts {
			targets = append(targets, t)
		}
		sort.Strings(targets)
		for _, t := range targets {
			if counts[t] > 1 {
				fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", name, t, fmt.Sprintf("x%d", counts[t]))
			} else {
				fmt.Fprintf(&buf, "  %q -> %q;\n", name, t)
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
