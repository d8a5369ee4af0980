// Package formula defines the CTL-VW formula tree produced by the patch
// compiler: a boolean kernel, the CTL next/until modalities, variable
// quantification with environment injection, and the atomic predicates
// evaluated against CFG states.
package formula

import (
	"fmt"
	"sort"
	"strings"

	"github.com/smpl-xyz/go-smpl/hostlang"
	"github.com/smpl-xyz/go-smpl/pattern"
)

// Formula is a CTL-VW formula node. The variant set is closed.
type Formula interface {
	formulaNode()
	String() string
}

// MetavariableConstraint filters candidate bindings for a metavariable.
// The metavars package provides the standard implementations.
type MetavariableConstraint interface {
	Apply(elem hostlang.Node) (hostlang.Node, bool)
	String() string
}

// Predicate is implemented by the atomic formula variants that are
// evaluated against a single CFG state label.
type Predicate interface {
	Formula
	predicateNode()
}

// True holds in every state.
type True struct{}

// Not negates a formula.
type Not struct {
	F Formula
}

// And is conjunction.
type And struct {
	Lhs Formula
	Rhs Formula
}

// Or is disjunction.
type Or struct {
	Lhs Formula
	Rhs Formula
}

// AllNext holds when every successor satisfies F.
type AllNext struct {
	F Formula
}

// ExistsNext holds when some successor satisfies F.
type ExistsNext struct {
	F Formula
}

// AllUntil holds when every path satisfies Lhs until Rhs.
type AllUntil struct {
	Lhs Formula
	Rhs Formula
}

// ExistsUntil holds when some path satisfies Lhs until Rhs.
type ExistsUntil struct {
	Lhs Formula
	Rhs Formula
}

// ExistsVar quantifies a metavariable over the sub-formula, folding the
// chosen binding into a witness.
type ExistsVar struct {
	Var string
	F   Formula
}

// SetEnv unconditionally binds Var to a literal value in the current
// environment. The compiler uses it to inject operation lists.
type SetEnv struct {
	Var   string
	Value any
}

// Proposition is an atomic label test, e.g. "after" or "trueBranch".
type Proposition struct {
	Label string
}

// StatementPattern matches a statement state against a pattern tree.
type StatementPattern struct {
	Pattern  pattern.Node
	Metavars map[string]MetavariableConstraint
}

// BranchKind classifies the branch statement a BranchPattern targets.
type BranchKind string

const (
	BranchIf    BranchKind = "if"
	BranchWhile BranchKind = "while"
)

// BranchPattern matches a branch state's condition against a pattern
// tree, restricted to one branch statement kind.
type BranchPattern struct {
	Pattern  pattern.Node
	Kind     BranchKind
	Metavars map[string]MetavariableConstraint
}

func (True) formulaNode()             {}
func (Not) formulaNode()              {}
func (And) formulaNode()              {}
func (Or) formulaNode()               {}
func (AllNext) formulaNode()          {}
func (ExistsNext) formulaNode()       {}
func (AllUntil) formulaNode()         {}
func (ExistsUntil) formulaNode()      {}
func (ExistsVar) formulaNode()        {}
func (SetEnv) formulaNode()           {}
func (Proposition) formulaNode()      {}
func (StatementPattern) formulaNode() {}
func (BranchPattern) formulaNode()    {}

func (Proposition) predicateNode()      {}
func (StatementPattern) predicateNode() {}
func (BranchPattern) predicateNode()    {}

func (True) String() string { return "T" }

func (f Not) String() string { return fmt.Sprintf("!(%s)", f.F) }

func (f And) String() string { return fmt.Sprintf("(%s & %s)", f.Lhs, f.Rhs) }

func (f Or) String() string { return fmt.Sprintf("(%s | %s)", f.Lhs, f.Rhs) }

func (f AllNext) String() string { return fmt.Sprintf("AX(%s)", f.F) }

func (f ExistsNext) String() string { return fmt.Sprintf("EX(%s)", f.F) }

func (f AllUntil) String() string { return fmt.Sprintf("A[%s U %s]", f.Lhs, f.Rhs) }

func (f ExistsUntil) String() string { return fmt.Sprintf("E[%s U %s]", f.Lhs, f.Rhs) }

func (f ExistsVar) String() string { return fmt.Sprintf("exists %s . (%s)", f.Var, f.F) }

func (f SetEnv) String() string { return fmt.Sprintf("set(%s := %v)", f.Var, f.Value) }

func (f Proposition) String() string { return f.Label }

func (f StatementPattern) String() string {
	return fmt.Sprintf("stmt<%s>%s", f.Pattern, metavarNames(f.Metavars))
}

func (f BranchPattern) String() string {
	return fmt.Sprintf("branch:%s<%s>%s", f.Kind, f.Pattern, metavarNames(f.Metavars))
}

func metavarNames(mvs map[string]MetavariableConstraint) string {
	if len(mvs) == 0 {
		return ""
	}
	names := make([]string, 0, len(mvs))
	for n := range mvs {
		names = append(names, n)
	}
	sort.Strings(names)
	return "{" + strings.Join(names, ",") + "}"
}
