// Package device implements the device composition engine: parameter schema
// management, content-addressed memoization of generated geometry,
// hierarchical instance referencing into a shared layout pool, and the port
// protocol that wires device instances together.
//
// A [Template] is a named, parameterized procedural geometry generator.
// Building a template with concrete parameter values yields an [Instance];
// running the instance either generates geometry through the template's Geom
// function or reuses a cached cell when an instance with the same content
// hash already resolved. Either way the caller receives a structure
// reference into the shared layout pool, never a geometry copy, mirroring
// GDSII hierarchical instancing.
package device

import (
	"sort"

	"github.com/lithoforge/maskforge/pkg/errors"
	"github.com/lithoforge/maskforge/pkg/geom"
)

// Template describes one device type. Templates are value definitions:
// a name, a parameter declaration function and a geometry generator.
// A template is immutable once registered in a [Library].
type Template struct {
	// Name identifies the device type. It seeds cell names, so it must be
	// a valid cell-name prefix and unique within a library.
	Name string

	// Description is a one-line human-readable summary.
	Description string

	// Parameters declares the parameter specs. It is invoked once at
	// registration (to validate the declaration) and once per Build.
	Parameters func(s *Schema) error

	// Geom generates the device geometry from validated parameters and may
	// declare ports through the context. A Geom error aborts the run; the
	// engine never retries or repairs generation faults.
	Geom func(ctx *BuildContext) (*geom.Group, error)
}

// validate checks the template definition itself.
func (t *Template) validate() error {
	if t == nil {
		return errors.New(errors.ErrCodeInvalidInput, "nil template")
	}
	if err := errors.ValidateTemplateName(t.Name); err != nil {
		return err
	}
	if t.Geom == nil {
		return errors.New(errors.ErrCodeInvalidInput, "template %q has no geometry generator", t.Name)
	}
	return nil
}

// newSchema builds a fresh schema with the template's declared parameters
// at their defaults.
func (t *Template) newSchema() (*Schema, error) {
	s := NewSchema()
	if t.Parameters == nil {
		return s, nil
	}
	if err := t.Parameters(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Library is the registration namespace for device templates. Registration
// is explicit rather than discovered by reflection: templates are listed
// and registered at program initialization, with duplicate names rejected.
type Library struct {
	templates map[string]*Template
}

// NewLibrary returns an empty template library.
func NewLibrary() *Library {
	return &Library{templates: make(map[string]*Template)}
}

// Register adds templates to the library. Each template's parameter
// declaration is executed once to validate it. A duplicate name fails the
// whole call; earlier templates in the same call stay registered.
func (l *Library) Register(templates ...*Template) error {
	for _, t := range templates {
		if err := t.validate(); err != nil {
			return err
		}
		if _, ok := l.templates[t.Name]; ok {
			return errors.New(errors.ErrCodeInvalidInput, "template %q already registered", t.Name)
		}
		if _, err := t.newSchema(); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "template %q parameter declaration", t.Name)
		}
		l.templates[t.Name] = t
	}
	return nil
}

// Lookup returns the template registered under name.
func (l *Library) Lookup(name string) (*Template, bool) {
	t, ok := l.templates[name]
	return t, ok
}

// Names returns the registered template names in sorted order.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.templates))
	for name := range l.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
