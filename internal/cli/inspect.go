package cli

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/lithoforge/maskforge/pkg/device"
	"github.com/lithoforge/maskforge/pkg/geom"
	"github.com/lithoforge/maskforge/pkg/pool"
	"github.com/lithoforge/maskforge/pkg/render"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// inspectCommand creates the inspect command: an interactive parameter
// explorer that regenerates geometry on every change.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		params   []string
		techPath string
		pngOut   string
	)

	cmd := &cobra.Command{
		Use:   "inspect <device>",
		Short: "Explore a device's parameters interactively",
		Long: `Explore a device's parameters interactively.

Each parameter can be stepped up and down; the device is regenerated on
every change, bypassing the cache, and its polygon count and extent are
shown live. Press s to snapshot the current geometry as a PNG preview.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides, err := parseParams(params)
			if err != nil {
				return err
			}
			return c.runInspect(args[0], overrides, techPath, pngOut)
		},
	}

	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "initial parameter override as name=value (repeatable)")
	cmd.Flags().StringVar(&techPath, "tech", "", "technology file (TOML)")
	cmd.Flags().StringVar(&pngOut, "png", "", "snapshot file written by the s key (default: <device>.png)")

	return cmd
}

func (c *CLI) runInspect(name string, overrides map[string]any, techPath, pngOut string) error {
	tmpl, err := c.lookupTemplate(name)
	if err != nil {
		return err
	}
	t, err := c.loadTech(techPath)
	if err != nil {
		return err
	}
	if pngOut == "" {
		pngOut = name + ".png"
	}

	inst, err := device.Build(tmpl, pool.NewRegistry(), overrides,
		device.WithSequencerOptions(t.SequencerOptions()))
	if err != nil {
		return err
	}

	m := newInspectModel(inst, pngOut, layerColors(t))
	m.regenerate()

	final, err := tea.NewProgram(*m).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(inspectModel); ok && fm.snapshots > 0 {
		printSuccess("Wrote %d snapshot(s)", fm.snapshots)
		printFile(pngOut)
	}
	return nil
}

// =============================================================================
// inspectModel - Live parameter editor
// =============================================================================

type inspectModel struct {
	inst   *device.Instance
	specs  []device.ParameterSpec
	cursor int

	pngOut string
	colors map[int]string

	// Regeneration results for the current parameter set.
	geom      *geom.Group
	polygons  int
	box       geom.Box
	genErr    error
	snapshots int
	status    string
}

func newInspectModel(inst *device.Instance, pngOut string, colors map[int]string) *inspectModel {
	return &inspectModel{
		inst:   inst,
		specs:  inst.Specs(),
		pngOut: pngOut,
		colors: colors,
	}
}

// paramStep is the relative step applied to float parameters per keypress.
const paramStep = 0.05

// regenerate rebuilds the geometry for the current parameters. The cache is
// bypassed so a stale cell can never satisfy a freshly edited value.
func (m *inspectModel) regenerate() {
	g, err := m.inst.Run(device.ForceRegenerate())
	m.genErr = err
	if err != nil {
		m.geom = nil
		m.polygons = 0
		m.box = geom.EmptyBox()
		return
	}
	m.geom = g
	m.polygons = len(g.Polygons)
	m.box = g.BoundingBox(nil)
}

// step adjusts the selected parameter by one increment in the given
// direction.
func (m *inspectModel) step(dir float64) {
	spec := m.specs[m.cursor]
	cur := m.inst.Params()[spec.Name]

	var next any
	switch spec.Type {
	case device.Float:
		v := cur.(float64)
		delta := v * paramStep
		if delta == 0 {
			delta = paramStep
		}
		next = v + dir*delta
	case device.Int:
		next = cur.(int) + int(dir)
	case device.Bool:
		next = !cur.(bool)
	default:
		return
	}

	if err := m.inst.SetParam(spec.Name, next); err != nil {
		m.status = err.Error()
		return
	}
	m.status = ""
	m.regenerate()
}

// reset restores a parameter to its declared default.
func (m *inspectModel) reset() {
	spec := m.specs[m.cursor]
	if err := m.inst.SetParam(spec.Name, spec.Default); err != nil {
		m.status = err.Error()
		return
	}
	m.status = ""
	m.regenerate()
}

func (m *inspectModel) snapshot() {
	if m.geom == nil {
		m.status = "nothing to snapshot"
		return
	}
	f, err := os.Create(m.pngOut)
	if err != nil {
		m.status = err.Error()
		return
	}
	opts := render.DefaultPreviewOptions()
	opts.LayerColors = m.colors
	err = render.WritePreviewPNG(f, m.geom, nil, opts)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		m.status = err.Error()
		return
	}
	m.snapshots++
	m.status = "wrote " + m.pngOut
}

func (m inspectModel) Init() tea.Cmd {
	return nil
}

func (m inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.specs)-1 {
				m.cursor++
			}
		case "left", "h":
			m.step(-1)
		case "right", "l":
			m.step(+1)
		case "r":
			m.reset()
		case "s":
			m.snapshot()
		}
	}
	return m, nil
}

func (m inspectModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Inspect: " + m.inst.Template().Name))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ select  ←/→ adjust  r reset  s snapshot  q quit"))
	b.WriteString("\n\n")

	values := m.inst.Params()
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	rows := [][]string{}
	for i, spec := range m.specs {
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		rng := ""
		if spec.HasRange {
			rng = fmt.Sprintf("[%g, %g]", spec.Min, spec.Max)
		}
		rows = append(rows, []string{
			cursor,
			spec.Name,
			fmt.Sprintf("%v", values[spec.Name]),
			rng,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Parameter", "Value", "Range").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if row == m.cursor {
				return listSelectedStyle
			}
			if col == 3 {
				return listDimStyle
			}
			return lipgloss.NewStyle()
		})
	b.WriteString(t.Render())
	b.WriteString("\n\n")

	if m.genErr != nil {
		b.WriteString(styleIconError.Render(iconError) + " " + StyleWarning.Render(m.genErr.Error()))
	} else {
		b.WriteString(fmt.Sprintf("  %s  %s",
			StyleDim.Render(fmt.Sprintf("%d polygons", m.polygons)),
			StyleDim.Render(fmt.Sprintf("extent %.3g × %.3g", m.box.Width(), m.box.Height()))))
	}
	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(listDimStyle.Render("  " + m.status))
		b.WriteString("\n")
	}

	return b.String()
}
