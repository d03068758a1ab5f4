// Package cli implements the maskforge command-line interface.
//
// This package provides commands for listing device templates, building
// devices into GDSII masks, inspecting parameters interactively, and
// visualizing the cell hierarchy. The CLI is built using cobra and supports
// verbose logging via the charmbracelet/log library.
package cli

import (
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/lithoforge/maskforge/pkg/baselib"
	"github.com/lithoforge/maskforge/pkg/buildinfo"
	"github.com/lithoforge/maskforge/pkg/device"
	"github.com/lithoforge/maskforge/pkg/errors"
	"github.com/lithoforge/maskforge/pkg/tech"
)

// appName is the application name used for display.
const appName = "maskforge"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Maskforge builds parametric lithographic masks",
		Long:         `Maskforge is a CLI tool for composing parametric photonic devices into lithographic masks: device templates are bound to parameters, generated once per distinct parameter set, and exported as GDSII.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.devicesCommand())
	root.AddCommand(c.buildCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.hierarchyCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Shared Helpers
// =============================================================================

// library returns the built-in template library.
func (c *CLI) library() (*device.Library, error) {
	return baselib.NewLibrary()
}

// lookupTemplate resolves a template name against the built-in library.
func (c *CLI) lookupTemplate(name string) (*device.Template, error) {
	lib, err := c.library()
	if err != nil {
		return nil, err
	}
	tmpl, ok := lib.Lookup(name)
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound,
			"unknown device %q (run '%s devices' for the list)", name, appName)
	}
	return tmpl, nil
}

// loadTech loads a technology file, or the built-in default when path is
// empty.
func (c *CLI) loadTech(path string) (tech.Technology, error) {
	if path == "" {
		return tech.Default(), nil
	}
	t, err := tech.Load(path)
	if err != nil {
		return tech.Technology{}, err
	}
	c.Logger.Debug("loaded technology", "name", t.Name, "path", path)
	return t, nil
}

// layerColors maps the technology layer table onto preview colors.
func layerColors(t tech.Technology) map[int]string {
	out := make(map[int]string)
	for _, l := range t.Layers {
		if l.Color != "" {
			out[l.Number] = l.Color
		}
	}
	return out
}

// parseParams converts repeated key=value flags into override values.
// Values parse as bool, int or float in that order, falling back to string.
func parseParams(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput,
				"parameter %q is not of the form name=value", pair)
		}
		out[key] = parseParamValue(raw)
	}
	return out, nil
}

func parseParamValue(raw string) any {
	// Numbers before bool: ParseBool would claim "1" and "0".
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}
