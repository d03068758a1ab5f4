package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lithoforge/maskforge/pkg/device"
	"github.com/lithoforge/maskforge/pkg/pool"
	"github.com/lithoforge/maskforge/pkg/render"
)

// hierarchyCommand creates the hierarchy command for visualizing the cell
// reference graph.
func (c *CLI) hierarchyCommand() *cobra.Command {
	var (
		params   []string
		output   string
		detailed bool
		dotOnly  bool
	)

	cmd := &cobra.Command{
		Use:   "hierarchy <device> [<device> ...]",
		Short: "Visualize the cell hierarchy of generated devices",
		Long: `Visualize the cell hierarchy of generated devices.

The named devices are generated into a shared layout pool; the resulting
cell reference graph is rendered as SVG via Graphviz, or emitted as raw
DOT with --dot.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides, err := parseParams(params)
			if err != nil {
				return err
			}
			return c.runHierarchy(args, overrides, output, detailed, dotOnly)
		},
	}

	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "parameter override as name=value (repeatable)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: hierarchy.svg or hierarchy.dot)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include polygon and reference counts in labels")
	cmd.Flags().BoolVar(&dotOnly, "dot", false, "emit Graphviz DOT instead of SVG")

	return cmd
}

func (c *CLI) runHierarchy(devices []string, overrides map[string]any, output string, detailed, dotOnly bool) error {
	reg := pool.NewRegistry()
	for _, name := range devices {
		tmpl, err := c.lookupTemplate(name)
		if err != nil {
			return err
		}
		inst, err := device.Build(tmpl, reg, overrides)
		if err != nil {
			return err
		}
		if _, err := inst.Run(); err != nil {
			return err
		}
		c.Logger.Debug("generated device", "device", name, "cell", inst.CellName())
	}

	dot := render.HierarchyDOT(reg, render.HierarchyOptions{Detailed: detailed})

	if dotOnly {
		if output == "" {
			output = "hierarchy.dot"
		}
		if err := os.WriteFile(output, []byte(dot), 0o644); err != nil {
			return err
		}
	} else {
		svg, err := render.RenderSVG(dot)
		if err != nil {
			return fmt.Errorf("render hierarchy: %w", err)
		}
		if output == "" {
			output = "hierarchy.svg"
		}
		if err := os.WriteFile(output, svg, 0o644); err != nil {
			return err
		}
	}

	stats := reg.Stats()
	printSuccess("Hierarchy of %s", strings.Join(devices, ", "))
	printFile(output)
	printDetail("%d cells, %d cached device entries", stats.Cells, stats.Devices)
	return nil
}
