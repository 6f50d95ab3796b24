package ustx

import (
	"errors"
	"fmt"
	"sort"
)

type (
	// ExpressionDescriptor documents one expression parameter that can be
	// attached to a note, e.g. velocity. Descriptors are shared by all the
	// expressions that reference them and should not be modified once
	// constructed.
	ExpressionDescriptor struct {
		Name         string  `yaml:"name"`    // human readable name, e.g. "velocity"
		Abbr         string  `yaml:"abbr"`    // unique key under which the values are stored in a note
		Min          float64 `yaml:"min"`     // minimum value, inclusive
		Max          float64 `yaml:"max"`     // maximum value, inclusive
		DefaultValue float64 `yaml:"default"` // value of a freshly created expression
	}

	// Expression is a value of an expression parameter. When Descriptor is
	// nil, the expression is unbound: this is always the case for expressions
	// read from a file, as the files only store the bare values. The host binds
	// them again using the key they were stored with, see Note.BindExpressions.
	Expression struct {
		Descriptor *ExpressionDescriptor
		Value      float64
	}

	// ExpressionValues is the plain, schema-free form of the expressions of a
	// note: abbreviation to value.
	ExpressionValues map[string]float64
)

func NewExpressionDescriptor(name, abbr string, min, max, defaultValue float64) *ExpressionDescriptor {
	return &ExpressionDescriptor{Name: name, Abbr: abbr, Min: min, Max: max, DefaultValue: defaultValue}
}

// InRange reports if v is within the bounds of the descriptor.
func (d *ExpressionDescriptor) InRange(v float64) bool {
	return v >= d.Min && v <= d.Max
}

// Clamp limits v to the bounds of the descriptor. Expressions are never
// clamped automatically; the editor calls this when the user changes a value.
func (d *ExpressionDescriptor) Clamp(v float64) float64 {
	if v < d.Min {
		return d.Min
	}
	if v > d.Max {
		return d.Max
	}
	return v
}

func (d *ExpressionDescriptor) validate() error {
	if d.Abbr == "" {
		return fmt.Errorf("expression %q has no abbreviation", d.Name)
	}
	if d.Min > d.Max {
		return fmt.Errorf("expression %q: min %v is larger than max %v", d.Abbr, d.Min, d.Max)
	}
	return nil
}

// NewExpression returns an expression bound to d, with the default value of
// d.
func NewExpression(d *ExpressionDescriptor) Expression {
	return Expression{Descriptor: d, Value: d.DefaultValue}
}

// NewExpressionValue returns an expression bound to d with an explicit value.
// The value is not clamped to the bounds of d.
func NewExpressionValue(d *ExpressionDescriptor, value float64) Expression {
	return Expression{Descriptor: d, Value: value}
}

// Bound reports if the expression has a descriptor.
func (e Expression) Bound() bool {
	return e.Descriptor != nil
}

// Keys returns the abbreviations in sorted order.
func (v ExpressionValues) Keys() []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Bind upgrades the plain values to expressions, binding each one to the
// descriptor with the same abbreviation in r. Values with no matching
// descriptor are returned unbound, and their keys are listed in unknown, in
// sorted order.
func (v ExpressionValues) Bind(r *ExpressionRegistry) (expressions map[string]Expression, unknown []string) {
	expressions = make(map[string]Expression, len(v))
	for _, k := range v.Keys() {
		d, ok := r.Lookup(k)
		if !ok {
			unknown = append(unknown, k)
		}
		expressions[k] = Expression{Descriptor: d, Value: v[k]}
	}
	return expressions, unknown
}

var errUnbound = errors.New("expression has no descriptor")
