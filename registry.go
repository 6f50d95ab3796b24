package ustx

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v2"
)

// ExpressionRegistry is an ordered set of expression descriptors, keyed by
// their abbreviations. A registry is not modified after construction, except
// through Merge, so it can be shared freely.
type ExpressionRegistry struct {
	descriptors map[string]*ExpressionDescriptor
	order       []string
}

type registryFile struct {
	Expressions []ExpressionDescriptor
}

//go:embed expressions.yml
var defaultExpressionsYaml []byte

// NewExpressionRegistry builds a registry of the given descriptors. Each
// descriptor needs a unique, non-empty abbreviation and min <= max.
func NewExpressionRegistry(descriptors ...ExpressionDescriptor) (*ExpressionRegistry, error) {
	r := &ExpressionRegistry{descriptors: make(map[string]*ExpressionDescriptor, len(descriptors))}
	for i := range descriptors {
		d := descriptors[i]
		if err := d.validate(); err != nil {
			return nil, err
		}
		if _, ok := r.descriptors[d.Abbr]; ok {
			return nil, fmt.Errorf("duplicate expression abbreviation %q", d.Abbr)
		}
		r.descriptors[d.Abbr] = &d
		r.order = append(r.order, d.Abbr)
	}
	return r, nil
}

// ParseExpressionRegistry parses a yml document with a top level
// "expressions" list. Unknown fields are errors.
func ParseExpressionRegistry(data []byte) (*ExpressionRegistry, error) {
	var f registryFile
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, fmt.Errorf("could not parse expressions: %w", err)
	}
	return NewExpressionRegistry(f.Expressions...)
}

// DefaultExpressionRegistry returns a new registry with the built-in
// expressions: vel, vol, atk, dec, gen, bre, lpf and mod.
func DefaultExpressionRegistry() *ExpressionRegistry {
	r, err := ParseExpressionRegistry(defaultExpressionsYaml)
	if err != nil {
		panic(fmt.Errorf("failed to parse default expressions: %w", err))
	}
	return r
}

// Lookup returns the descriptor with the given abbreviation. A nil registry
// knows no descriptors.
func (r *ExpressionRegistry) Lookup(abbr string) (*ExpressionDescriptor, bool) {
	if r == nil {
		return nil, false
	}
	d, ok := r.descriptors[abbr]
	return d, ok
}

// Descriptors returns the descriptors in the order they were registered.
func (r *ExpressionRegistry) Descriptors() []*ExpressionDescriptor {
	if r == nil {
		return nil
	}
	ret := make([]*ExpressionDescriptor, len(r.order))
	for i, abbr := range r.order {
		ret[i] = r.descriptors[abbr]
	}
	return ret
}

func (r *ExpressionRegistry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

// Merge adds the descriptors of other to r. A descriptor of other replaces the
// descriptor of r with the same abbreviation, keeping its position; new
// descriptors are appended. Expressions already bound to a replaced descriptor
// keep pointing to the old one.
func (r *ExpressionRegistry) Merge(other *ExpressionRegistry) {
	for _, d := range other.Descriptors() {
		if _, ok := r.descriptors[d.Abbr]; !ok {
			r.order = append(r.order, d.Abbr)
		}
		c := *d
		r.descriptors[d.Abbr] = &c
	}
}
