package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lithoforge/maskforge/pkg/pipeline"
	"github.com/lithoforge/maskforge/pkg/render"
)

// buildCommand creates the build command for generating device layouts.
func (c *CLI) buildCommand() *cobra.Command {
	var (
		params   []string
		output   string
		pngOut   string
		techPath string
		maskName string
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "build <device> [<device> ...]",
		Short: "Generate devices and export them as a GDSII mask",
		Long: `Generate one or more devices and export the result as a GDSII mask.

Each named device is instantiated with its defaults plus any -p overrides
and placed left to right in the main cell. Identical parameter sets share a
single generated cell through the content-hash cache; --force bypasses the
cache and regenerates every device.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides, err := parseParams(params)
			if err != nil {
				return err
			}
			return c.runBuild(cmd.Context(), buildConfig{
				devices:  args,
				params:   overrides,
				output:   output,
				pngOut:   pngOut,
				techPath: techPath,
				maskName: maskName,
				force:    force,
			})
		},
	}

	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "parameter override as name=value (repeatable)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output GDS file (default: <device>.gds)")
	cmd.Flags().StringVar(&pngOut, "png", "", "also write a raster preview to this file")
	cmd.Flags().StringVar(&techPath, "tech", "", "technology file (TOML)")
	cmd.Flags().StringVar(&maskName, "mask", "TOP", "main cell name")
	cmd.Flags().BoolVar(&force, "force", false, "bypass the device cache and regenerate")

	return cmd
}

type buildConfig struct {
	devices  []string
	params   map[string]any
	output   string
	pngOut   string
	techPath string
	maskName string
	force    bool
}

func (c *CLI) runBuild(ctx context.Context, cfg buildConfig) error {
	t, err := c.loadTech(cfg.techPath)
	if err != nil {
		return err
	}
	lib, err := c.library()
	if err != nil {
		return err
	}

	requests := make([]pipeline.DeviceRequest, len(cfg.devices))
	for i, name := range cfg.devices {
		requests[i] = pipeline.DeviceRequest{Template: name, Params: cfg.params}
	}
	runner := pipeline.NewRunner(lib, c.Logger)

	spinner := newSpinnerWithContext(ctx, "Generating devices...")
	spinner.Start()
	result, err := runner.Execute(ctx, pipeline.Options{
		Devices:  requests,
		MaskName: cfg.maskName,
		Tech:     t,
		Force:    cfg.force,
	})
	if err != nil {
		spinner.StopWithError("Build failed")
		return err
	}
	spinner.Stop()

	output := cfg.output
	if output == "" {
		output = cfg.devices[0] + ".gds"
	}
	f, err := os.Create(output)
	if err != nil {
		return err
	}
	err = runner.Export(result, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	printSuccess("Mask complete")
	printFile(output)
	printStats(result.Stats.Cells, result.Stats.Polygons,
		result.CacheInfo.Hits > 0 && result.CacheInfo.Misses == 0)
	if result.CacheInfo.Hits > 0 {
		printDetail("%d of %d instances served from cache",
			result.CacheInfo.Hits, result.CacheInfo.Hits+result.CacheInfo.Misses)
	}

	if cfg.pngOut != "" {
		pf, err := os.Create(cfg.pngOut)
		if err != nil {
			return err
		}
		opts := render.DefaultPreviewOptions()
		opts.LayerColors = layerColors(t)
		err = render.WritePreviewPNG(pf, result.Mask.MainCell(), result.Registry, opts)
		if cerr := pf.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("write preview: %w", err)
		}
		printFile(cfg.pngOut)
	}

	printNewline()
	printNextStep("Hierarchy", fmt.Sprintf("%s hierarchy %s", appName, strings.Join(cfg.devices, " ")))
	return nil
}
