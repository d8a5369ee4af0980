package model

import (
	"github.com/smpl-xyz/go-smpl/formula"
	"github.com/smpl-xyz/go-smpl/hostlang"
	"github.com/smpl-xyz/go-smpl/pattern"
)

// Model is the state space a formula is checked against.
type Model interface {
	States() []int
	Successors(state int) []int
	Labels(state int) []Label
}

// Checker evaluates CTL-VW formulas over a model by structural
// recursion with fixpoint iteration for the until operators.
type Checker struct {
	model Model
}

// NewChecker creates a checker over a model.
func NewChecker(m Model) *Checker {
	return &Checker{model: m}
}

// Check returns every (state, environment) pair satisfying the formula,
// with the witnesses collected under each entry.
func (c *Checker) Check(f formula.Formula) ResultSet {
	switch x := f.(type) {
	case formula.True:
		return c.allStates()
	case formula.Not:
		return c.negate(c.Check(x.F))
	case formula.And:
		return c.conjoin(c.Check(x.Lhs), c.Check(x.Rhs))
	case formula.Or:
		out := ResultSet{}
		for _, r := range c.Check(x.Lhs) {
			out = out.add(r)
		}
		for _, r := range c.Check(x.Rhs) {
			out = out.add(r)
		}
		return out
	case formula.AllNext:
		return c.preAll(c.Check(x.F))
	case formula.ExistsNext:
		return c.preExists(c.Check(x.F))
	case formula.AllUntil:
		return c.allUntil(c.Check(x.Lhs), c.Check(x.Rhs))
	case formula.ExistsUntil:
		return c.existsUntil(c.Check(x.Lhs), c.Check(x.Rhs))
	case formula.ExistsVar:
		return c.existsVar(x.Var, c.Check(x.F))
	case formula.SetEnv:
		out := ResultSet{}
		for _, s := range c.model.States() {
			out = out.add(Result{State: s, Env: Environment{x.Var: x.Value}})
		}
		return out
	case formula.Proposition:
		out := ResultSet{}
		for _, s := range c.model.States() {
			for _, l := range c.model.Labels(s) {
				if p, ok := l.(PropositionLabel); ok && p.Name == x.Label {
					out = out.add(Result{State: s, Env: Environment{}})
					break
				}
			}
		}
		return out
	case formula.StatementPattern:
		out := ResultSet{}
		for _, s := range c.model.States() {
			for _, l := range c.model.Labels(s) {
				sl, ok := l.(StatementLabel)
				if !ok {
					continue
				}
				if env, matched := matchAtom(x.Pattern, sl.Stmt, x.Metavars); matched {
					out = out.add(Result{State: s, Env: env})
				}
			}
		}
		return out
	case formula.BranchPattern:
		out := ResultSet{}
		for _, s := range c.model.States() {
			for _, l := range c.model.Labels(s) {
				bl, ok := l.(BranchLabel)
				if !ok || bl.Kind != x.Kind {
					continue
				}
				if env, matched := matchAtom(x.Pattern, bl.Cond, x.Metavars); matched {
					out = out.add(Result{State: s, Env: env})
				}
			}
		}
		return out
	default:
		return ResultSet{}
	}
}

func matchAtom(pat pattern.Node, subject hostlang.Node, constraints map[string]formula.MetavariableConstraint) (Environment, bool) {
	bindings, matched := pattern.Match(pat, subject)
	if !matched {
		return nil, false
	}
	env := Environment{}
	for name, bound := range bindings {
		value := any(bound)
		if c, constrained := constraints[name]; constrained {
			accepted, ok := c.Apply(bound)
			if !ok {
				return nil, false
			}
			value = accepted
		}
		env[name] = value
	}
	return env, true
}

func (c *Checker) allStates() ResultSet {
	out := ResultSet{}
	for _, s := range c.model.States() {
		out = out.add(Result{State: s, Env: Environment{}})
	}
	return out
}

// preExists lifts entries backward over one edge: a state satisfies
// when some successor entry does, inheriting its environment.
func (c *Checker) preExists(sub ResultSet) ResultSet {
	out := ResultSet{}
	for _, s := range c.model.States() {
		for _, succ := range c.model.Successors(s) {
			for _, entry := range sub.EntriesFor(succ) {
				out = out.add(Result{State: s, Env: entry.Env, Witnesses: entry.Witnesses})
			}
		}
	}
	return out
}

// preAll requires every successor to be satisfied under compatible
// environments. States without successors qualify vacuously.
func (c *Checker) preAll(sub ResultSet) ResultSet {
	out := ResultSet{}
	for _, s := range c.model.States() {
		succs := c.model.Successors(s)
		if len(succs) == 0 {
			out = out.add(Result{State: s, Env: Environment{}})
			continue
		}
		for _, combined := range combineAcross(sub, succs) {
			out = out.add(Result{State: s, Env: combined.Env, Witnesses: combined.Witnesses})
		}
	}
	return out
}

// combineAcross enumerates every compatible selection of one entry per
// successor and joins the environments.
func combineAcross(sub ResultSet, succs []int) []Result {
	acc := []Result{{Env: Environment{}}}
	for _, succ := range succs {
		entries := sub.EntriesFor(succ)
		if len(entries) == 0 {
			return nil
		}
		var next []Result
		for _, partial := range acc {
			for _, entry := range entries {
				joined, ok := partial.Env.Join(entry.Env)
				if !ok {
					continue
				}
				next = append(next, Result{
					Env:       joined,
					Witnesses: mergeWitnesses(partial.Witnesses, entry.Witnesses),
				})
			}
		}
		if len(next) == 0 {
			return nil
		}
		acc = next
	}
	return acc
}

// existsUntil is the least fixpoint of R = rhs ∪ (lhs ∧ EX R).
func (c *Checker) existsUntil(lhs, rhs ResultSet) ResultSet {
	result := ResultSet{}
	for _, r := range rhs {
		result = result.add(r)
	}
	for {
		grown := false
		for _, s := range c.model.States() {
			lhsEntries := lhs.EntriesFor(s)
			if len(lhsEntries) == 0 {
				continue
			}
			for _, succ := range c.model.Successors(s) {
				for _, succEntry := range result.EntriesFor(succ) {
					for _, le := range lhsEntries {
						joined, ok := le.Env.Join(succEntry.Env)
						if !ok {
							continue
						}
						candidate := Result{
							State:     s,
							Env:       joined,
							Witnesses: mergeWitnesses(le.Witnesses, succEntry.Witnesses),
						}
						if !containsEntry(result, candidate) {
							result = result.add(candidate)
							grown = true
						}
					}
				}
			}
		}
		if !grown {
			return result
		}
	}
}

// allUntil is the least fixpoint of R = rhs ∪ (lhs ∧ AX R); states
// without successors are never added by the inductive step.
func (c *Checker) allUntil(lhs, rhs ResultSet) ResultSet {
	result := ResultSet{}
	for _, r := range rhs {
		result = result.add(r)
	}
	for {
		grown := false
		for _, s := range c.model.States() {
			lhsEntries := lhs.EntriesFor(s)
			if len(lhsEntries) == 0 {
				continue
			}
			succs := c.model.Successors(s)
			if len(succs) == 0 {
				continue
			}
			for _, combined := range combineAcross(result, succs) {
				for _, le := range lhsEntries {
					joined, ok := le.Env.Join(combined.Env)
					if !ok {
						continue
					}
					candidate := Result{
						State:     s,
						Env:       joined,
						Witnesses: mergeWitnesses(le.Witnesses, combined.Witnesses),
					}
					if !containsEntry(result, candidate) {
						result = result.add(candidate)
						grown = true
					}
				}
			}
		}
		if !grown {
			return result
		}
	}
}

// existsVar folds the quantified variable's binding out of each entry
// and into a witness. Entries that never bound the variable pass
// through; negative bindings are discharged without a witness.
func (c *Checker) existsVar(name string, sub ResultSet) ResultSet {
	out := ResultSet{}
	for _, entry := range sub {
		binding, bound := entry.Env[name]
		if !bound {
			out = out.add(entry)
			continue
		}
		env := entry.Env.Copy()
		delete(env, name)
		witnesses := entry.Witnesses
		if _, negative := binding.(*NegativeBinding); !negative {
			witnesses = []*Witness{{
				State:   entry.State,
				Metavar: name,
				Binding: binding,
				Nested:  entry.Witnesses,
			}}
		}
		out = out.add(Result{State: entry.State, Env: env, Witnesses: witnesses})
	}
	return out
}

// conjoin intersects per state, joining environments pairwise.
func (c *Checker) conjoin(lhs, rhs ResultSet) ResultSet {
	out := ResultSet{}
	for _, s := range c.model.States() {
		for _, le := range lhs.EntriesFor(s) {
			for _, re := range rhs.EntriesFor(s) {
				joined, ok := le.Env.Join(re.Env)
				if !ok {
					continue
				}
				out = out.add(Result{
					State:     s,
					Env:       joined,
					Witnesses: mergeWitnesses(le.Witnesses, re.Witnesses),
				})
			}
		}
	}
	return out
}

// negate complements a result set. An unsatisfied state is satisfied
// with the empty environment; a state satisfied under environments is
// satisfied in the complement under every environment incompatible with
// all of them. Witnesses do not survive negation.
func (c *Checker) negate(sub ResultSet) ResultSet {
	out := ResultSet{}
	for _, s := range c.model.States() {
		entries := sub.EntriesFor(s)
		if len(entries) == 0 {
			out = out.add(Result{State: s, Env: Environment{}})
			continue
		}
		fullySatisfied := false
		var negations [][]Environment
		for _, entry := range entries {
			if len(entry.Env) == 0 {
				fullySatisfied = true
				break
			}
			negations = append(negations, entry.Env.Negate())
		}
		if fullySatisfied {
			continue
		}
		for _, env := range crossJoin(negations) {
			out = out.add(Result{State: s, Env: env})
		}
	}
	return out
}

// crossJoin picks one environment from each alternative list and joins
// them, keeping the compatible combinations.
func crossJoin(alternatives [][]Environment) []Environment {
	acc := []Environment{{}}
	for _, alts := range alternatives {
		var next []Environment
		for _, partial := range acc {
			for _, alt := range alts {
				joined, ok := partial.Join(alt)
				if !ok {
					continue
				}
				next = append(next, joined)
			}
		}
		if len(next) == 0 {
			return nil
		}
		acc = next
	}
	return acc
}

func containsEntry(rs ResultSet, r Result) bool {
	for _, existing := range rs {
		if existing.State == r.State && existing.Env.Equal(r.Env) {
			return true
		}
	}
	return false
}
