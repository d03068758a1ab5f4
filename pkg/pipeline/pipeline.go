// Package pipeline executes the generate → assemble → export pipeline: a
// list of device requests becomes resolved instances, the instances are
// placed into a mask, and the mask is streamed as GDSII. Both the CLI and
// embedding programs use the Runner to avoid duplicating staging logic.
package pipeline

import (
	"time"

	"github.com/lithoforge/maskforge/pkg/device"
	"github.com/lithoforge/maskforge/pkg/errors"
	"github.com/lithoforge/maskforge/pkg/layout"
	"github.com/lithoforge/maskforge/pkg/pool"
	"github.com/lithoforge/maskforge/pkg/tech"
)

// DeviceRequest names one template instantiation.
type DeviceRequest struct {
	// Template is the library name of the device template.
	Template string
	// Params overrides template defaults. Nil means all defaults.
	Params map[string]any
}

// Options configures a pipeline execution.
type Options struct {
	// Devices are instantiated and placed left to right.
	Devices []DeviceRequest

	// MaskName is the main cell name. Defaults to "TOP".
	MaskName string

	// Tech supplies units, layers and routing defaults. Zero value means
	// the built-in default technology.
	Tech tech.Technology

	// Spacing is the gap between placed devices in user units.
	Spacing float64

	// Force bypasses the device cache: every device is regenerated and
	// absorbed flat into the main cell.
	Force bool
}

// ValidateAndSetDefaults checks options and fills in defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if len(o.Devices) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "no devices requested")
	}
	if o.MaskName == "" {
		o.MaskName = "TOP"
	}
	if o.Tech.Name == "" {
		o.Tech = tech.Default()
	}
	if o.Spacing == 0 {
		o.Spacing = 10
	}
	return nil
}

// Stats records per-stage timing and counts.
type Stats struct {
	GenerateTime time.Duration
	ExportTime   time.Duration

	Cells    int
	Polygons int
}

// CacheInfo records how the device cache behaved during generation.
type CacheInfo struct {
	Hits   int
	Misses int
}

// Result is the output of a pipeline execution.
type Result struct {
	Mask      *layout.Mask
	Registry  *pool.Registry
	Instances []*device.Instance

	Stats     Stats
	CacheInfo CacheInfo
}
