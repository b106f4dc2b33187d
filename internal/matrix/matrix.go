// Package matrix expands a set of declared axes into the full cross-product
// of concrete job specifications. Each JobSpec is one matrix cell: a total,
// immutable assignment of one value per axis.
package matrix

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Axis is one named dimension of the build matrix, with its values in
// declaration order.
type Axis struct {
	Name   string
	Values []string
}

// InvalidAxisError reports an axis that cannot participate in expansion.
type InvalidAxisError struct {
	Axis   string
	Reason string
}

func (e *InvalidAxisError) Error() string {
	return fmt.Sprintf("invalid matrix axis %q: %s", e.Axis, e.Reason)
}

// JobSpec is one cell of the expanded matrix. Axis order follows declaration
// order, so IDs and the emission order of Expand are deterministic.
type JobSpec struct {
	axes   []string
	values map[string]string
}

// ID renders the spec's identity tuple, e.g. "os=linux,python=3.12".
// No two specs produced by one Expand call share an ID.
func (s *JobSpec) ID() string {
	if len(s.axes) == 0 {
		return "default"
	}
	parts := make([]string, len(s.axes))
	for i, name := range s.axes {
		parts[i] = fmt.Sprintf("%s=%s", name, s.values[name])
	}
	return strings.Join(parts, ",")
}

// Value returns the spec's assignment for one axis.
func (s *JobSpec) Value(axis string) (string, bool) {
	v, ok := s.values[axis]
	return v, ok
}

// Axes returns the axis names in declaration order.
func (s *JobSpec) Axes() []string {
	out := make([]string, len(s.axes))
	copy(out, s.axes)
	return out
}

// Variables builds the cty object exposed to expressions as `matrix`, with
// one string attribute per axis. A spec with no axes yields an empty object
// so that expressions referencing `matrix` still evaluate.
func (s *JobSpec) Variables() cty.Value {
	if len(s.axes) == 0 {
		return cty.EmptyObjectVal
	}
	attrs := make(map[string]cty.Value, len(s.axes))
	for _, name := range s.axes {
		attrs[name] = cty.StringVal(s.values[name])
	}
	return cty.ObjectVal(attrs)
}

// Expand produces the full cross-product of the given axes. Emission order is
// lexicographic over axis declaration order then value order: the first axis
// varies slowest. The order carries no semantics beyond determinism.
//
// An axis with zero values makes the whole matrix empty and is rejected with
// InvalidAxisError before any job can start. Expanding zero axes yields a
// single empty JobSpec: a pipeline without a matrix block is a plain linear
// pipeline.
func Expand(axes []Axis) ([]*JobSpec, error) {
	names := make([]string, 0, len(axes))
	seen := make(map[string]bool, len(axes))
	for _, a := range axes {
		if a.Name == "" {
			return nil, &InvalidAxisError{Axis: a.Name, Reason: "axis name must not be empty"}
		}
		if len(a.Values) == 0 {
			return nil, &InvalidAxisError{Axis: a.Name, Reason: "axis declares no values"}
		}
		if seen[a.Name] {
			return nil, &InvalidAxisError{Axis: a.Name, Reason: "axis declared twice"}
		}
		seen[a.Name] = true
		names = append(names, a.Name)
	}

	specs := []*JobSpec{newSpec(names, nil)}
	for _, a := range axes {
		next := make([]*JobSpec, 0, len(specs)*len(a.Values))
		for _, base := range specs {
			for _, v := range a.Values {
				assigned := make(map[string]string, len(base.values)+1)
				for k, bv := range base.values {
					assigned[k] = bv
				}
				assigned[a.Name] = v
				next = append(next, newSpec(names, assigned))
			}
		}
		specs = next
	}
	return specs, nil
}

func newSpec(axes []string, values map[string]string) *JobSpec {
	if values == nil {
		values = map[string]string{}
	}
	return &JobSpec{axes: axes, values: values}
}
