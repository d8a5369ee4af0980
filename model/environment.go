// Package model implements the CTL-VW model checker: environments with
// negative bindings, witness trees, CFG state labels and the structural
// checker the compiled formulas are evaluated with.
package model

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/smpl-xyz/go-smpl/hostlang"
)

// NegativeBinding records values a metavariable must not take.
type NegativeBinding struct {
	Excluded []any
}

// Excludes reports whether a value is forbidden by the binding.
func (n *NegativeBinding) Excludes(value any) bool {
	for _, e := range n.Excluded {
		if valueEqual(e, value) {
			return true
		}
	}
	return false
}

func (n *NegativeBinding) String() string {
	parts := make([]string, len(n.Excluded))
	for i, e := range n.Excluded {
		parts[i] = valueString(e)
	}
	sort.Strings(parts)
	return "!{" + strings.Join(parts, ", ") + "}"
}

// Environment maps metavariable names to bindings. A binding is either
// a concrete value or a *NegativeBinding.
type Environment map[string]any

// Copy returns an independent shallow copy.
func (e Environment) Copy() Environment {
	out := make(Environment, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Join merges two environments by compatible union. Two concrete
// bindings must be equal; a concrete binding joins a negative one iff
// the value is not excluded; two negative bindings union their
// exclusions.
func (e Environment) Join(other Environment) (Environment, bool) {
	out := e.Copy()
	for name, v := range other {
		existing, bound := out[name]
		if !bound {
			out[name] = v
			continue
		}
		merged, ok := joinBindings(existing, v)
		if !ok {
			return nil, false
		}
		out[name] = merged
	}
	return out, true
}

func joinBindings(a, b any) (any, bool) {
	na, aNeg := a.(*NegativeBinding)
	nb, bNeg := b.(*NegativeBinding)
	switch {
	case !aNeg && !bNeg:
		if valueEqual(a, b) {
			return a, true
		}
		return nil, false
	case aNeg && !bNeg:
		if na.Excludes(b) {
			return nil, false
		}
		return b, true
	case !aNeg && bNeg:
		if nb.Excludes(a) {
			return nil, false
		}
		return a, true
	default:
		merged := &NegativeBinding{Excluded: append([]any{}, na.Excluded...)}
		for _, v := range nb.Excluded {
			if !merged.Excludes(v) {
				merged.Excluded = append(merged.Excluded, v)
			}
		}
		return merged, true
	}
}

// Negate produces the environments describing the complement of this
// environment: one environment per bound variable with that binding
// inverted. A concrete binding inverts to a negative one; a negative
// binding inverts to one environment per excluded value.
func (e Environment) Negate() []Environment {
	var out []Environment
	for _, name := range e.names() {
		switch v := e[name].(type) {
		case *NegativeBinding:
			for _, excluded := range v.Excluded {
				out = append(out, Environment{name: excluded})
			}
		default:
			out = append(out, Environment{name: &NegativeBinding{Excluded: []any{v}}})
		}
	}
	return out
}

func (e Environment) names() []string {
	names := make([]string, 0, len(e))
	for n := range e {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Equal reports whether two environments bind the same names to equal
// bindings.
func (e Environment) Equal(other Environment) bool {
	if len(e) != len(other) {
		return false
	}
	for name, v := range e {
		w, ok := other[name]
		if !ok {
			return false
		}
		nv, vNeg := v.(*NegativeBinding)
		nw, wNeg := w.(*NegativeBinding)
		if vNeg != wNeg {
			return false
		}
		if vNeg {
			if len(nv.Excluded) != len(nw.Excluded) {
				return false
			}
			for _, x := range nv.Excluded {
				if !nw.Excludes(x) {
					return false
				}
			}
			continue
		}
		if !valueEqual(v, w) {
			return false
		}
	}
	return true
}

func (e Environment) String() string {
	if len(e) == 0 {
		return "{}"
	}
	parts := make([]string, 0, len(e))
	for _, name := range e.names() {
		parts = append(parts, fmt.Sprintf("%s=%s", name, valueString(e[name])))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func valueEqual(a, b any) bool {
	an, aok := a.(hostlang.Node)
	bn, bok := b.(hostlang.Node)
	if aok && bok {
		return hostlang.Equal(an, bn)
	}
	return reflect.DeepEqual(a, b)
}

func valueString(v any) string {
	if n, ok := v.(hostlang.Node); ok {
		return strings.TrimRight(strings.ReplaceAll(hostlang.Print(n), "\n", " "), " ")
	}
	return fmt.Sprintf("%v", v)
}
