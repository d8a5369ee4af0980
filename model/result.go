package model

import (
	"fmt"
	"sort"
	"strings"
)

// Witness records where a quantified metavariable obtained its binding.
// Nested witnesses carry the trace below the binding point.
type Witness struct {
	State   int
	Metavar string
	Binding any
	Nested  []*Witness
}

func (w *Witness) String() string {
	if len(w.Nested) == 0 {
		return fmt.Sprintf("<%d, %s, %s>", w.State, w.Metavar, valueString(w.Binding))
	}
	parts := make([]string, len(w.Nested))
	for i, n := range w.Nested {
		parts[i] = n.String()
	}
	sort.Strings(parts)
	return fmt.Sprintf("<%d, %s, %s, [%s]>", w.State, w.Metavar, valueString(w.Binding), strings.Join(parts, ", "))
}

// Result is one satisfying entry: a state, the environment required for
// satisfaction, and the witnesses collected below it.
type Result struct {
	State     int
	Env       Environment
	Witnesses []*Witness
}

func (r Result) String() string {
	return fmt.Sprintf("(%d, %s, %d witnesses)", r.State, r.Env, len(r.Witnesses))
}

// ResultSet is the outcome of checking a formula: every (state, env)
// pair satisfying it.
type ResultSet []Result

// States returns the distinct satisfied states in ascending order.
func (rs ResultSet) States() []int {
	seen := map[int]bool{}
	var out []int
	for _, r := range rs {
		if !seen[r.State] {
			seen[r.State] = true
			out = append(out, r.State)
		}
	}
	sort.Ints(out)
	return out
}

// EntriesFor returns the entries for one state.
func (rs ResultSet) EntriesFor(state int) []Result {
	var out []Result
	for _, r := range rs {
		if r.State == state {
			out = append(out, r)
		}
	}
	return out
}

// Contains reports whether some entry satisfies the state.
func (rs ResultSet) Contains(state int) bool {
	for _, r := range rs {
		if r.State == state {
			return true
		}
	}
	return false
}

// add inserts an entry, merging witnesses into an existing entry with
// the same state and environment.
func (rs ResultSet) add(r Result) ResultSet {
	for i, existing := range rs {
		if existing.State == r.State && existing.Env.Equal(r.Env) {
			rs[i].Witnesses = mergeWitnesses(existing.Witnesses, r.Witnesses)
			return rs
		}
	}
	return append(rs, r)
}

func mergeWitnesses(a, b []*Witness) []*Witness {
	out := append([]*Witness{}, a...)
	for _, w := range b {
		dup := false
		for _, existing := range out {
			if existing.String() == w.String() {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, w)
		}
	}
	return out
}

func (rs ResultSet) String() string {
	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = r.String()
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ", ") + "}"
}
