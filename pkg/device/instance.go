package device

import (
	"fmt"
	"sort"
	"time"

	"github.com/lithoforge/maskforge/pkg/errors"
	"github.com/lithoforge/maskforge/pkg/geom"
	"github.com/lithoforge/maskforge/pkg/observability"
	"github.com/lithoforge/maskforge/pkg/pool"
	"github.com/lithoforge/maskforge/pkg/sequencer"
)

// Phase is the lifecycle state of an instance.
type Phase int

// Instance lifecycle phases, in order.
const (
	PhaseUninitialized Phase = iota
	PhaseInitialized         // template identity bound
	PhaseParameterized       // defaults applied
	PhaseBuilt               // concrete params bound, hash computed
	PhaseResolved            // geometry available (generated or cached)
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseInitialized:
		return "initialized"
	case PhaseParameterized:
		return "parameterized"
	case PhaseBuilt:
		return "built"
	case PhaseResolved:
		return "resolved"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// localState is what the generator leaves behind besides geometry: the
// declared ports (owner-stripped) and any derived values. It is stored in
// the local-parameter pool keyed by content hash, so a later cache hit can
// rebuild an equivalent instance without invoking the generator again.
type localState struct {
	Ports   []Port
	Derived map[string]any
}

// Instance is a template bound to concrete parameter values.
type Instance struct {
	tmpl    *Template
	schema  *Schema
	reg     *pool.Registry
	lib     *Library
	seqOpts sequencer.Options

	ports    map[string]*Port
	derived  map[string]any
	cellName string
	hash     string
	phase    Phase
}

// BuildOption configures Build.
type BuildOption func(*Instance)

// WithLibrary attaches a template library, letting hierarchical generators
// build sub-instances.
func WithLibrary(l *Library) BuildOption {
	return func(i *Instance) { i.lib = l }
}

// WithSequencerOptions overrides the routing options used by generators
// (normally sourced from the technology file).
func WithSequencerOptions(o sequencer.Options) BuildOption {
	return func(i *Instance) { i.seqOpts = o }
}

// Build creates an instance of tmpl against the given registry: defaults
// are applied, overrides validated, and the content hash computed. The
// instance is ready to Run.
func Build(tmpl *Template, reg *pool.Registry, overrides map[string]any, opts ...BuildOption) (*Instance, error) {
	if err := tmpl.validate(); err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "nil registry")
	}

	inst := &Instance{
		tmpl:    tmpl,
		reg:     reg,
		seqOpts: sequencer.DefaultOptions(),
		phase:   PhaseInitialized,
	}
	for _, opt := range opts {
		opt(inst)
	}

	schema, err := tmpl.newSchema()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "template %q parameter declaration", tmpl.Name)
	}
	inst.schema = schema
	inst.phase = PhaseParameterized

	// Deterministic override order keeps the first reported violation stable.
	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := schema.Set(name, overrides[name]); err != nil {
			return nil, err
		}
	}

	inst.hash = ContentHash(tmpl.Name, schema.Values())
	inst.phase = PhaseBuilt
	return inst, nil
}

// RunOption configures Run.
type RunOption func(*runConfig)

type runConfig struct {
	forceRegenerate bool
}

// ForceRegenerate bypasses the cache pools entirely: the generator runs on
// every call and the result is returned as flat geometry, not registered as
// a shared cell. This is the live-editing path, where a freshly tweaked
// parameter set must never be satisfied by a stale cached cell.
func ForceRegenerate() RunOption {
	return func(c *runConfig) { c.forceRegenerate = true }
}

// Run drives the instance to the resolved phase and returns its geometry.
//
// The content hash is recomputed from the current parameters on every call,
// so a parameter mutated after Build is always rehashed before any cache
// lookup. On a cache hit the existing cell is reused, ports are rebuilt
// from the local-parameter pool, and the generator is not invoked. On a
// miss the generator runs once and its output is registered across the
// pools (cell first, device-pool entry last).
//
// The returned group holds a structure reference to the shared cell, not a
// geometry copy, except under [ForceRegenerate], which returns the freshly
// generated flat geometry.
func (i *Instance) Run(opts ...RunOption) (*geom.Group, error) {
	var cfg runConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if i.phase < PhaseBuilt {
		return nil, errors.New(errors.ErrCodeStateInvalid,
			"run before build: instance is %s", i.phase)
	}

	i.hash = ContentHash(i.tmpl.Name, i.schema.Values())

	if !cfg.forceRegenerate {
		if cell, ok := i.reg.Device(i.hash); ok {
			g, err := i.resolveCached(cell)
			observability.Engine().OnRunComplete(i.tmpl.Name, cell, true, err)
			return g, err
		}
		observability.Cache().OnMiss(i.tmpl.Name, i.hash)
	}

	g, err := i.generate(cfg)
	cell := i.cellName
	observability.Engine().OnRunComplete(i.tmpl.Name, cell, false, err)
	return g, err
}

// resolveCached reuses an already-registered cell for this content hash.
func (i *Instance) resolveCached(cell string) (*geom.Group, error) {
	state, ok := i.reg.Local(i.hash)
	if !ok {
		return nil, errors.New(errors.ErrCodeCacheConsistency,
			"device pool has %q but local parameters are missing", cell)
	}
	ls, ok := state.(localState)
	if !ok {
		return nil, errors.New(errors.ErrCodeCacheConsistency,
			"local parameters for %q have unexpected type %T", cell, state)
	}

	i.adoptLocalState(ls)
	i.cellName = cell
	i.phase = PhaseResolved
	observability.Cache().OnHit(i.tmpl.Name, i.hash)
	return geom.NewRef(cell), nil
}

// generate invokes the template generator and, unless force-regenerating,
// registers the result across the pools.
func (i *Instance) generate(cfg runConfig) (*geom.Group, error) {
	ctx := &BuildContext{
		params:  i.schema.Values(),
		reg:     i.reg,
		lib:     i.lib,
		seqOpts: i.seqOpts,
	}

	start := time.Now()
	g, err := i.tmpl.Geom(ctx)
	if err != nil {
		// Generation faults surface unchanged; the engine cannot repair
		// user-supplied generation logic.
		return nil, errors.Wrap(errors.ErrCodeGeneration, err, "generator for %q", i.tmpl.Name)
	}
	if g == nil {
		return nil, errors.New(errors.ErrCodeGeneration, "generator for %q returned no geometry", i.tmpl.Name)
	}

	state := localState{Ports: ctx.ports, Derived: ctx.derived}

	if cfg.forceRegenerate {
		observability.Engine().OnGenerate(i.tmpl.Name, "", time.Since(start))
		i.adoptLocalState(state)
		i.cellName = ""
		i.phase = PhaseResolved
		return g, nil
	}

	// A concurrent build of the same hash may have resolved while we were
	// generating: detect the now-present key and discard our redundant
	// geometry instead of double-registering.
	if cell, ok := i.reg.Device(i.hash); ok {
		return i.resolveCached(cell)
	}

	n := i.reg.NextCount(i.tmpl.Name)
	cell := fmt.Sprintf("%s_%d", i.tmpl.Name, n)
	observability.Engine().OnGenerate(i.tmpl.Name, cell, time.Since(start))

	if err := i.reg.PutCell(cell, g); err != nil {
		return nil, err
	}
	if err := i.reg.PutBoundingBox(cell, g.BoundingBox(i.reg)); err != nil {
		return nil, err
	}
	if err := i.reg.PutLocal(i.hash, state); err != nil {
		return nil, err
	}
	if err := i.reg.PutDevice(i.hash, cell); err != nil {
		return nil, err
	}
	observability.Cache().OnRegister(cell, len(g.Polygons))

	i.adoptLocalState(state)
	i.cellName = cell
	i.phase = PhaseResolved
	return geom.NewRef(cell), nil
}

// adoptLocalState binds a pool-stored (or freshly generated) state to this
// instance: ports are copied and rebound so pool state never aliases live
// instances.
func (i *Instance) adoptLocalState(ls localState) {
	i.ports = make(map[string]*Port, len(ls.Ports))
	for _, p := range ls.Ports {
		port := p
		port.owner = i
		i.ports[port.Name] = &port
	}
	i.derived = ls.Derived
}

// SetParam mutates one parameter on a built instance. The instance drops
// back to the built phase; the next Run recomputes the content hash, so a
// mutated instance can never be satisfied by its previous cell.
func (i *Instance) SetParam(name string, value any) error {
	if i.phase < PhaseParameterized {
		return errors.New(errors.ErrCodeStateInvalid,
			"set parameter before parameterization: instance is %s", i.phase)
	}
	if err := i.schema.Set(name, value); err != nil {
		return err
	}
	if i.phase > PhaseBuilt {
		i.phase = PhaseBuilt
	}
	return nil
}

// Template returns the instance's template.
func (i *Instance) Template() *Template {
	return i.tmpl
}

// Params returns a copy of the bound parameter values.
func (i *Instance) Params() map[string]any {
	return i.schema.Values()
}

// Specs returns the parameter specs in declaration order.
func (i *Instance) Specs() []ParameterSpec {
	return i.schema.Specs()
}

// ContentHash returns the hash computed at Build or the latest Run.
func (i *Instance) ContentHash() string {
	return i.hash
}

// CellName returns the layout-pool cell this instance resolved to.
// Empty before Run and after a force-regenerated run.
func (i *Instance) CellName() string {
	return i.cellName
}

// Phase returns the current lifecycle phase.
func (i *Instance) Phase() Phase {
	return i.phase
}

// Ports returns the instance's ports keyed by name. Empty before Run.
func (i *Instance) Ports() map[string]*Port {
	out := make(map[string]*Port, len(i.ports))
	for k, v := range i.ports {
		out[k] = v
	}
	return out
}

// Port returns a named port of the resolved instance.
func (i *Instance) Port(name string) (*Port, error) {
	if i.phase < PhaseResolved {
		return nil, errors.New(errors.ErrCodeStateInvalid,
			"ports are available after run: instance is %s", i.phase)
	}
	p, ok := i.ports[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "instance has no port %q", name)
	}
	return p, nil
}

// Local returns a derived value stored by the generator via SetLocal.
func (i *Instance) Local(key string) (any, bool) {
	v, ok := i.derived[key]
	return v, ok
}

// BoundingBox returns the cached bounding box of the resolved cell.
func (i *Instance) BoundingBox() (geom.Box, bool) {
	if i.cellName == "" {
		return geom.Box{}, false
	}
	return i.reg.BoundingBox(i.cellName)
}
