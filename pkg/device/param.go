package device

import (
	"fmt"
	"math"

	"github.com/lithoforge/maskforge/pkg/errors"
)

// ParamType is the declared type of a device parameter.
type ParamType int

// Supported parameter types.
const (
	Float ParamType = iota
	Int
	Bool
	String
)

// String returns the lowercase type name.
func (t ParamType) String() string {
	switch t {
	case Float:
		return "float"
	case Int:
		return "int"
	case Bool:
		return "bool"
	case String:
		return "string"
	}
	return fmt.Sprintf("ParamType(%d)", int(t))
}

// ParameterSpec declares one named, typed, optionally range-constrained
// parameter of a device template.
type ParameterSpec struct {
	Name        string
	Description string
	Type        ParamType
	Default     any

	// Min and Max bound numeric parameters inclusively when HasRange is set.
	// Range violations are reported, never clamped.
	Min, Max float64
	HasRange bool
}

// WithRange returns a copy of the spec bounded to [min, max].
func (s ParameterSpec) WithRange(min, max float64) ParameterSpec {
	s.Min, s.Max = min, max
	s.HasRange = true
	return s
}

// Param returns an unbounded parameter spec.
func Param(name string, def any, description string, typ ParamType) ParameterSpec {
	return ParameterSpec{Name: name, Default: def, Description: description, Type: typ}
}

// Schema holds the declared parameter specs of one device template together
// with the current validated values. Specs keep declaration order.
type Schema struct {
	order  []string
	specs  map[string]ParameterSpec
	values map[string]any
}

// NewSchema returns an empty schema.
func NewSchema() *Schema {
	return &Schema{
		specs:  make(map[string]ParameterSpec),
		values: make(map[string]any),
	}
}

// AddParameter registers a spec and applies its default value.
// Duplicate names and defaults outside the declared bounds are rejected.
func (s *Schema) AddParameter(spec ParameterSpec) error {
	if err := errors.ValidateParameterName(spec.Name); err != nil {
		return err
	}
	if _, ok := s.specs[spec.Name]; ok {
		return errors.New(errors.ErrCodeInvalidInput, "parameter %q declared twice", spec.Name)
	}
	v, err := coerce(spec, spec.Default)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "default for parameter %q", spec.Name)
	}
	s.order = append(s.order, spec.Name)
	s.specs[spec.Name] = spec
	s.values[spec.Name] = v
	return nil
}

// Set validates value against the declared spec and stores it.
// Unknown names, type mismatches and range violations fail; the previous
// value is kept on failure.
func (s *Schema) Set(name string, value any) error {
	spec, ok := s.specs[name]
	if !ok {
		return errors.New(errors.ErrCodeParamUnknown, "no parameter %q declared", name)
	}
	v, err := coerce(spec, value)
	if err != nil {
		return err
	}
	s.values[name] = v
	return nil
}

// Get returns the current value of a declared parameter.
func (s *Schema) Get(name string) (any, error) {
	v, ok := s.values[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeParamUnknown, "no parameter %q declared", name)
	}
	return v, nil
}

// Values returns a copy of the current validated value mapping.
func (s *Schema) Values() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Specs returns the parameter specs in declaration order.
func (s *Schema) Specs() []ParameterSpec {
	out := make([]ParameterSpec, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.specs[name])
	}
	return out
}

// Len reports the number of declared parameters.
func (s *Schema) Len() int {
	return len(s.order)
}

// coerce validates a value against a spec, returning the stored
// representation (float64, int, bool or string).
//
// Int and bool use strict equality typing. Float accepts int values as a
// lossless widening; float64 magnitudes beyond 2^53 would lose integer
// precision, but parameters at that magnitude have no physical meaning in a
// mask, so no tolerance scheme is needed.
func coerce(spec ParameterSpec, value any) (any, error) {
	switch spec.Type {
	case Float:
		var f float64
		switch v := value.(type) {
		case float64:
			f = v
		case float32:
			f = float64(v)
		case int:
			f = float64(v)
		default:
			return nil, typeError(spec, value)
		}
		if err := checkRange(spec, f); err != nil {
			return nil, err
		}
		return f, nil

	case Int:
		n, ok := value.(int)
		if !ok {
			return nil, typeError(spec, value)
		}
		if err := checkRange(spec, float64(n)); err != nil {
			return nil, err
		}
		return n, nil

	case Bool:
		b, ok := value.(bool)
		if !ok {
			return nil, typeError(spec, value)
		}
		return b, nil

	case String:
		str, ok := value.(string)
		if !ok {
			return nil, typeError(spec, value)
		}
		return str, nil
	}
	return nil, errors.New(errors.ErrCodeInternal, "parameter %q has invalid type %v", spec.Name, spec.Type)
}

func checkRange(spec ParameterSpec, v float64) error {
	if !spec.HasRange {
		return nil
	}
	if math.IsNaN(v) || v < spec.Min || v > spec.Max {
		return errors.New(errors.ErrCodeParamRange,
			"parameter %q value %g outside range [%g, %g]", spec.Name, v, spec.Min, spec.Max)
	}
	return nil
}

func typeError(spec ParameterSpec, value any) error {
	return errors.New(errors.ErrCodeParamType,
		"parameter %q wants %s, got %T", spec.Name, spec.Type, value)
}
