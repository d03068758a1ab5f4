// Package tech loads technology files: the process-specific constants a
// mask is drawn against. A technology file is TOML with library units, the
// layer table and the routing defaults used by the sequencer.
package tech

import (
	"os"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/lithoforge/maskforge/pkg/errors"
	"github.com/lithoforge/maskforge/pkg/sequencer"
)

// Layer is one entry of the technology layer table.
type Layer struct {
	Number      int    `toml:"number"`
	Datatype    int    `toml:"datatype"`
	Name        string `toml:"name"`
	Description string `toml:"description"`
	// Color is the preview fill, as a hex string like "#4a90d9".
	Color string `toml:"color"`
}

// Technology holds everything process-specific: units, layers and routing
// defaults.
type Technology struct {
	Name string `toml:"name"`

	Units struct {
		// UserUnit is the size of one user unit in meters.
		UserUnit float64 `toml:"user_unit"`
		// DatabaseUnit is the size of one database unit in meters.
		DatabaseUnit float64 `toml:"database_unit"`
	} `toml:"units"`

	Routing struct {
		DefaultWidth    float64 `toml:"default_width"`
		CurveResolution int     `toml:"curve_resolution"`
		Layer           int     `toml:"layer"`
	} `toml:"routing"`

	Layers []Layer `toml:"layers"`
}

// Default returns the built-in technology: micron user units, nanometer
// database grid, and a minimal two-layer table.
func Default() Technology {
	var t Technology
	t.Name = "default"
	t.Units.UserUnit = 1e-6
	t.Units.DatabaseUnit = 1e-9
	t.Routing.DefaultWidth = 0.3
	t.Routing.CurveResolution = 32
	t.Routing.Layer = 1
	t.Layers = []Layer{
		{Number: 1, Name: "waveguide", Description: "device layer", Color: "#4a90d9"},
		{Number: 2, Name: "marker", Description: "alignment marks", Color: "#d94a4a"},
	}
	return t
}

// Load reads and validates a technology file.
func Load(path string) (Technology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Technology{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "read technology file")
	}

	t := Default()
	t.Layers = nil
	if err := toml.Unmarshal(data, &t); err != nil {
		return Technology{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse technology file %s", path)
	}
	if len(t.Layers) == 0 {
		t.Layers = Default().Layers
	}
	if err := t.validate(); err != nil {
		return Technology{}, err
	}
	return t, nil
}

func (t Technology) validate() error {
	if t.Units.UserUnit <= 0 || t.Units.DatabaseUnit <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "units must be positive")
	}
	if t.Units.DatabaseUnit > t.Units.UserUnit {
		return errors.New(errors.ErrCodeInvalidInput,
			"database unit %g coarser than user unit %g", t.Units.DatabaseUnit, t.Units.UserUnit)
	}
	if t.Routing.DefaultWidth <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "routing default_width must be positive")
	}
	if t.Routing.CurveResolution < 2 {
		return errors.New(errors.ErrCodeInvalidInput, "routing curve_resolution must be at least 2")
	}
	seen := make(map[int]string, len(t.Layers))
	for _, l := range t.Layers {
		if l.Number < 0 || l.Number > 255 {
			return errors.New(errors.ErrCodeInvalidInput, "layer %d out of range [0, 255]", l.Number)
		}
		if prev, ok := seen[l.Number]; ok {
			return errors.New(errors.ErrCodeInvalidInput,
				"layer %d declared twice (%s, %s)", l.Number, prev, l.Name)
		}
		seen[l.Number] = l.Name
	}
	return nil
}

// SequencerOptions returns the routing defaults as interpreter options.
func (t Technology) SequencerOptions() sequencer.Options {
	return sequencer.Options{
		DefaultWidth:    t.Routing.DefaultWidth,
		CurveResolution: t.Routing.CurveResolution,
		Layer:           t.Routing.Layer,
	}
}

// LayerByName looks a layer up by its table name.
func (t Technology) LayerByName(name string) (Layer, bool) {
	for _, l := range t.Layers {
		if l.Name == name {
			return l, true
		}
	}
	return Layer{}, false
}

// LayerByNumber looks a layer up by its GDS number.
func (t Technology) LayerByNumber(n int) (Layer, bool) {
	for _, l := range t.Layers {
		if l.Number == n {
			return l, true
		}
	}
	return Layer{}, false
}

// LayerNumbers returns the declared layer numbers in ascending order.
func (t Technology) LayerNumbers() []int {
	nums := make([]int, 0, len(t.Layers))
	for _, l := range t.Layers {
		nums = append(nums, l.Number)
	}
	sort.Ints(nums)
	return nums
}
