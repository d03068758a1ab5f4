// Package pool provides the process-wide cache pools backing device
// composition: the layout pool (cell name → geometry), the device pool
// (content hash → cell name), the local-parameter pool (content hash →
// generator side state), the bounding-box pool and the per-type counters
// used to mint cell names.
//
// The pools are bundled into an explicit [Registry] that is passed to the
// device engine rather than accessed as ambient package state, so tests and
// independent masks get isolated namespaces.
//
// Every pool is write-once and content-addressed: a put under an existing key
// with a different value is a consistency violation (a hash collision or a
// template mutated after first build), reported as CACHE_CONSISTENCY rather
// than silently overwritten. Pools have no eviction; a mask is bounded by the
// devices a script builds, not by an unbounded working set. Reset clears all
// pools together, never partially.
package pool

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/lithoforge/maskforge/pkg/errors"
	"github.com/lithoforge/maskforge/pkg/geom"
)

// Registry bundles the cache pools for one layout namespace.
// The zero value is not usable; call [NewRegistry].
//
// One mutex guards all pools, so the cross-pool ordering the device engine
// follows (layout-pool cell written before the device-pool entry that points
// at it) is observed by every reader. A reader that finds a hash in the
// device pool can rely on the cell, bounding box and local parameters being
// present (see [Registry.Verify]).
type Registry struct {
	mu      sync.Mutex
	cells   map[string]*geom.Group // cell name → geometry (layout pool)
	devices map[string]string      // content hash → cell name
	locals  map[string]any         // content hash → generator side state
	bboxes  map[string]geom.Box    // cell name → bounding box
	counts  map[string]int         // template name → cell counter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	r.reset()
	return r
}

func (r *Registry) reset() {
	r.cells = make(map[string]*geom.Group)
	r.devices = make(map[string]string)
	r.locals = make(map[string]any)
	r.bboxes = make(map[string]geom.Box)
	r.counts = make(map[string]int)
}

// Reset clears every pool atomically. There is no partial reset: a corrupted
// pool set has no repair path other than starting over.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reset()
}

// PutCell registers geometry under a cell name in the layout pool.
// Cell names are write-once: re-registering the same name with different
// geometry fails with CACHE_CONSISTENCY. Registering identical geometry is a
// no-op, which is what a concurrent build that lost the race should hit.
func (r *Registry) PutCell(name string, g *geom.Group) error {
	if err := errors.ValidateCellName(name); err != nil {
		return err
	}
	if g == nil {
		return errors.New(errors.ErrCodeInvalidInput, "cell %q has nil geometry", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.cells[name]; ok {
		if !reflect.DeepEqual(prev, g) {
			return errors.New(errors.ErrCodeCacheConsistency,
				"cell %q already registered with different geometry", name)
		}
		return nil
	}
	r.cells[name] = g
	return nil
}

// Cell returns the geometry registered under name, implementing
// [geom.Resolver] so groups can resolve their references against the pool.
func (r *Registry) Cell(name string) (*geom.Group, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.cells[name]
	return g, ok
}

// CellNames returns the registered cell names in sorted order.
func (r *Registry) CellNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.cells))
	for name := range r.cells {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PutDevice maps a content hash to its cell name. Write-once: a differing
// mapping for an existing hash signals a collision or template mutation.
func (r *Registry) PutDevice(hash, cell string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.devices[hash]; ok {
		if prev != cell {
			return errors.New(errors.ErrCodeCacheConsistency,
				"hash %s maps to cell %q, refusing remap to %q", shortHash(hash), prev, cell)
		}
		return nil
	}
	r.devices[hash] = cell
	return nil
}

// Device returns the cell name cached for a content hash.
func (r *Registry) Device(hash string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cell, ok := r.devices[hash]
	return cell, ok
}

// PutLocal stores generator side state (ports, derived parameters) for a
// content hash so cache hits can rebuild an instance without regenerating.
func (r *Registry) PutLocal(hash string, state any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.locals[hash]; ok {
		if !reflect.DeepEqual(prev, state) {
			return errors.New(errors.ErrCodeCacheConsistency,
				"hash %s already has different local state", shortHash(hash))
		}
		return nil
	}
	r.locals[hash] = state
	return nil
}

// Local returns the generator side state stored for a content hash.
func (r *Registry) Local(hash string) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.locals[hash]
	return state, ok
}

// PutBoundingBox records the bounding box computed for a cell at generation
// time. Write-once like the other pools.
func (r *Registry) PutBoundingBox(cell string, box geom.Box) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.bboxes[cell]; ok {
		if prev != box {
			return errors.New(errors.ErrCodeCacheConsistency,
				"cell %q already has a different bounding box", cell)
		}
		return nil
	}
	r.bboxes[cell] = box
	return nil
}

// BoundingBox returns the cached bounding box for a cell.
func (r *Registry) BoundingBox(cell string) (geom.Box, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	box, ok := r.bboxes[cell]
	return box, ok
}

// NextCount increments and returns the per-template counter used to mint
// unique cell names ("{template}_{n}"). Counters start at 1.
func (r *Registry) NextCount(template string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[template]++
	return r.counts[template]
}

// Verify checks the cross-pool consistency invariant: every device-pool entry
// must have its cell, bounding box and local state present. It returns the
// first violation found, or nil.
func (r *Registry) Verify() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for hash, cell := range r.devices {
		if _, ok := r.cells[cell]; !ok {
			return errors.New(errors.ErrCodeCacheConsistency,
				"hash %s points at missing cell %q", shortHash(hash), cell)
		}
		if _, ok := r.bboxes[cell]; !ok {
			return errors.New(errors.ErrCodeCacheConsistency,
				"cell %q has no bounding box", cell)
		}
		if _, ok := r.locals[hash]; !ok {
			return errors.New(errors.ErrCodeCacheConsistency,
				"hash %s has no local state", shortHash(hash))
		}
	}
	return nil
}

// Stats reports pool sizes for diagnostics.
type Stats struct {
	Cells   int
	Devices int
	Locals  int
	BBoxes  int
}

// Stats returns the current pool sizes.
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{
		Cells:   len(r.cells),
		Devices: len(r.devices),
		Locals:  len(r.locals),
		BBoxes:  len(r.bboxes),
	}
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return fmt.Sprintf("%s…", hash[:12])
	}
	return hash
}
