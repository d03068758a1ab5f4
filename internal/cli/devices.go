package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/lithoforge/maskforge/pkg/device"
	"github.com/lithoforge/maskforge/pkg/pool"
)

// devicesCommand creates the devices command for listing templates.
func (c *CLI) devicesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devices [name]",
		Short: "List device templates and their parameters",
		Long: `List the built-in device templates.

Without arguments, all templates are listed. With a template name, its
parameter schema is printed: names, types, defaults and valid ranges.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return c.showDevice(args[0])
			}
			return c.listDevices()
		},
	}
	return cmd
}

func (c *CLI) listDevices() error {
	lib, err := c.library()
	if err != nil {
		return err
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	rows := [][]string{}
	for _, name := range lib.Names() {
		tmpl, _ := lib.Lookup(name)
		rows = append(rows, []string{name, tmpl.Description})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Device", "Description").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return StyleHighlight
			}
			return lipgloss.NewStyle()
		})

	fmt.Println(t.Render())
	printNewline()
	printNextStep("Inspect one", appName+" devices <name>")
	return nil
}

func (c *CLI) showDevice(name string) error {
	tmpl, err := c.lookupTemplate(name)
	if err != nil {
		return err
	}

	// Instantiate against a scratch pool to surface the schema.
	inst, err := device.Build(tmpl, pool.NewRegistry(), nil)
	if err != nil {
		return err
	}

	fmt.Println(StyleTitle.Render(tmpl.Name) + "  " + StyleDim.Render(tmpl.Description))
	printNewline()

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	rows := [][]string{}
	for _, spec := range inst.Specs() {
		rng := "—"
		if spec.HasRange {
			rng = fmt.Sprintf("[%g, %g]", spec.Min, spec.Max)
		}
		rows = append(rows, []string{
			spec.Name,
			spec.Type.String(),
			fmt.Sprintf("%v", spec.Default),
			rng,
			spec.Description,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Parameter", "Type", "Default", "Range", "Description").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return StyleHighlight
			}
			if col == 4 {
				return StyleDim
			}
			return lipgloss.NewStyle()
		})

	fmt.Println(t.Render())
	printNewline()
	overrides := make([]string, 0, 2)
	for _, spec := range inst.Specs() {
		if len(overrides) == 2 {
			break
		}
		overrides = append(overrides, fmt.Sprintf("-p %s=%v", spec.Name, spec.Default))
	}
	printNextStep("Build", fmt.Sprintf("%s build %s %s", appName, name, strings.Join(overrides, " ")))
	return nil
}
