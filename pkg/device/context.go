package device

import (
	"fmt"

	"github.com/lithoforge/maskforge/pkg/geom"
	"github.com/lithoforge/maskforge/pkg/pool"
	"github.com/lithoforge/maskforge/pkg/sequencer"
)

// BuildContext is handed to a template's Geom function. It exposes the
// validated parameter values, the registry (so hierarchical devices can run
// sub-instances into the same pools), the sequencer options in effect, and
// the side channel for declaring ports and derived state during generation.
type BuildContext struct {
	params  map[string]any
	reg     *pool.Registry
	lib     *Library
	seqOpts sequencer.Options

	ports   []Port
	derived map[string]any
}

// Param returns the raw value of a declared parameter.
// It panics if the name was never declared: the schema validated all
// parameters before generation, so a miss is a template programming error,
// not a runtime condition.
func (c *BuildContext) Param(name string) any {
	v, ok := c.params[name]
	if !ok {
		panic(fmt.Sprintf("device: generator read undeclared parameter %q", name))
	}
	return v
}

// Float returns a float parameter value.
func (c *BuildContext) Float(name string) float64 {
	return c.Param(name).(float64)
}

// Int returns an int parameter value.
func (c *BuildContext) Int(name string) int {
	return c.Param(name).(int)
}

// Bool returns a bool parameter value.
func (c *BuildContext) Bool(name string) bool {
	return c.Param(name).(bool)
}

// String returns a string parameter value.
func (c *BuildContext) String(name string) string {
	return c.Param(name).(string)
}

// Params returns a copy of the validated parameter mapping.
func (c *BuildContext) Params() map[string]any {
	out := make(map[string]any, len(c.params))
	for k, v := range c.params {
		out[k] = v
	}
	return out
}

// AddLocalPort declares a port at its position in the device frame.
// Ports declared here are stored in the local-parameter pool alongside the
// generated cell, so cache hits recover them without regenerating.
func (c *BuildContext) AddLocalPort(p Port) {
	c.ports = append(c.ports, p)
}

// SetLocal stores derived per-instance state computed during generation
// (e.g. internal geometry parameters) for recovery on cache hits.
func (c *BuildContext) SetLocal(key string, value any) {
	if c.derived == nil {
		c.derived = make(map[string]any)
	}
	c.derived[key] = value
}

// Registry returns the cache-pool registry the build is running against.
func (c *BuildContext) Registry() *pool.Registry {
	return c.reg
}

// Library returns the template library, for hierarchical devices that build
// sub-instances inside their generator.
func (c *BuildContext) Library() *Library {
	return c.lib
}

// SequencerOptions returns the routing options in effect for this build
// (from the technology file, or the defaults).
func (c *BuildContext) SequencerOptions() sequencer.Options {
	return c.seqOpts
}

// Sequence interprets a routing command list with the build's sequencer
// options. Shorthand for sequencer.New(cmds, ctx.SequencerOptions()).Run().
func (c *BuildContext) Sequence(cmds []sequencer.Command) (*geom.Group, error) {
	return sequencer.New(cmds, c.seqOpts).Run()
}
