package smpl

import (
	"fmt"
	"sort"

	"github.com/smpl-xyz/go-smpl/controlflow"
	"github.com/smpl-xyz/go-smpl/formula"
	"github.com/smpl-xyz/go-smpl/hostlang"
	"github.com/smpl-xyz/go-smpl/operation"
	"github.com/smpl-xyz/go-smpl/patch"
	"github.com/smpl-xyz/go-smpl/pattern"
)

// compileFormula turns the adapted deletions-view CFG into the rule
// formula. Statement and branch nodes become pattern atoms carrying
// their anchored operations; dots become until operators; tagged block
// and converge nodes become propositions. Metavariables are quantified
// at their first use.
func compileFormula(g *controlflow.Graph, constraints map[string]formula.MetavariableConstraint, ops operation.AnchoredMap) (formula.Formula, error) {
	names := make(map[string]bool, len(constraints))
	for name := range constraints {
		names[name] = true
	}
	c := &ruleCompiler{g: g, metavars: names, constraints: constraints, ops: ops}

	begin := g.BeginNode()
	succs := g.Successors(begin.ID)
	if len(succs) == 0 {
		return formula.Not{F: formula.True{}}, nil
	}
	f, err := c.compile(succs[0], map[string]bool{}, map[int]bool{})
	if err != nil {
		return nil, err
	}
	if f == nil {
		return formula.Not{F: formula.True{}}, nil
	}
	return formula.Optimize(f), nil
}

type ruleCompiler struct {
	g           *controlflow.Graph
	metavars    map[string]bool
	constraints map[string]formula.MetavariableConstraint
	ops         operation.AnchoredMap
}

func (c *ruleCompiler) compile(id int, bound map[string]bool, visited map[int]bool) (formula.Formula, error) {
	if visited[id] {
		return formula.True{}, nil
	}
	n, err := c.g.FindNodeByID(id)
	if err != nil {
		return nil, err
	}
	if n.Kind == controlflow.KindExit {
		return nil, nil
	}
	visited[id] = true

	switch n.Kind {
	case controlflow.KindStatement:
		return c.compileStatement(n, bound, visited)
	case controlflow.KindBranch:
		return c.compileBranch(n, bound, visited)
	case controlflow.KindBlockBegin:
		return c.compileBlockBegin(n, bound, visited)
	case controlflow.KindConverge:
		return c.compileConverge(n, bound, visited)
	default:
		return nil, fmt.Errorf("smpl: cannot compile %s node %d", n.Kind, n.ID)
	}
}

func (c *ruleCompiler) next(id int, bound map[string]bool, visited map[int]bool) (formula.Formula, error) {
	succs := c.g.Successors(id)
	if len(succs) == 0 {
		return nil, nil
	}
	return c.compile(succs[0], bound, visited)
}

func (c *ruleCompiler) compileStatement(n *controlflow.Node, bound map[string]bool, visited map[int]bool) (formula.Formula, error) {
	if call, ok := markerCall(n.Stmt); ok {
		switch call.Name {
		case patch.DotsMarker:
			return c.compileDots(n, call, bound, visited)
		case patch.OptDotsBegin, patch.OptDotsEnd,
			patch.DisjunctionBegin, patch.DisjunctionPipe, patch.DisjunctionEnd:
			return nil, fmt.Errorf("%w: %s", ErrNotImplemented, call.Name)
		case patch.ExprMatchMarker:
			if len(call.Args) == 1 {
				wrapped := &hostlang.ExprStmt{X: call.Args[0]}
				return c.compileAtom(n, wrapped, bound, visited)
			}
		}
	}
	return c.compileAtom(n, n.Stmt, bound, visited)
}

// compileAtom emits the statement pattern conjoined with its operations
// slot, followed by the rest of the walk, under quantifiers for every
// metavariable this statement uses first.
func (c *ruleCompiler) compileAtom(n *controlflow.Node, stmt hostlang.Stmt, bound map[string]bool, visited map[int]bool) (formula.Formula, error) {
	pat := pattern.Build(stmt, c.metavars)
	atom := formula.And{
		Lhs: formula.StatementPattern{Pattern: pat, Metavars: c.constraints},
		Rhs: formula.OperationsSlot(c.statementOps(n.Stmt.SourceLine())),
	}

	newVars, innerBound := c.freshVars(pat, bound)
	inner, err := c.next(n.ID, innerBound, visited)
	if err != nil {
		return nil, err
	}

	var f formula.Formula = atom
	if inner != nil {
		f = formula.And{Lhs: atom, Rhs: formula.AllNext{F: inner}}
	}
	return quantify(newVars, f), nil
}

// compileDots renders a dots statement as an until operator. The dots
// constraints shape its left side: each whenNotEqual excludes a
// statement pattern, when any lifts all exclusions, and when exists
// weakens the path quantifier.
func (c *ruleCompiler) compileDots(n *controlflow.Node, call *hostlang.Call, bound map[string]bool, visited map[int]bool) (formula.Formula, error) {
	inner, err := c.next(n.ID, bound, visited)
	if err != nil {
		return nil, err
	}
	if inner == nil {
		return formula.True{}, nil
	}

	anyPath := false
	existsPath := false
	var excluded []formula.Formula
	for _, arg := range call.Args {
		guard, ok := arg.(*hostlang.Call)
		if !ok {
			continue
		}
		switch guard.Name {
		case patch.WhenAnyCall:
			anyPath = true
		case patch.WhenExistsCall:
			existsPath = true
		case patch.WhenNotEqualCall:
			if len(guard.Args) == 1 {
				pat := pattern.Build(&hostlang.ExprStmt{X: guard.Args[0]}, c.metavars)
				excluded = append(excluded, formula.Not{F: formula.StatementPattern{Pattern: pat, Metavars: c.constraints}})
			}
		}
	}

	var lhs formula.Formula = formula.True{}
	if !anyPath {
		for _, ex := range excluded {
			if _, isTrue := lhs.(formula.True); isTrue {
				lhs = ex
			} else {
				lhs = formula.And{Lhs: lhs, Rhs: ex}
			}
		}
	}

	if existsPath {
		return formula.ExistsUntil{Lhs: lhs, Rhs: inner}, nil
	}
	return formula.AllUntil{Lhs: lhs, Rhs: inner}, nil
}

func (c *ruleCompiler) compileBranch(n *controlflow.Node, bound map[string]bool, visited map[int]bool) (formula.Formula, error) {
	cond, kind := branchCond(n.Stmt)
	pat := pattern.Build(cond, c.metavars)
	atom := formula.And{
		Lhs: formula.BranchPattern{Pattern: pat, Kind: kind, Metavars: c.constraints},
		Rhs: formula.OperationsSlot(c.statementOps(n.Stmt.SourceLine())),
	}

	newVars, innerBound := c.freshVars(pat, bound)

	succs := c.g.Successors(n.ID)
	if len(succs) < 2 {
		inner, err := c.next(n.ID, innerBound, visited)
		if err != nil {
			return nil, err
		}
		var f formula.Formula = atom
		if inner != nil {
			f = formula.And{Lhs: atom, Rhs: formula.AllNext{F: inner}}
		}
		return quantify(newVars, f), nil
	}

	lhs, err := c.compile(succs[0], innerBound, copyVisited(visited))
	if err != nil {
		return nil, err
	}
	rhs, err := c.compile(succs[1], innerBound, copyVisited(visited))
	if err != nil {
		return nil, err
	}
	arms := formula.Or{Lhs: orTrue(lhs), Rhs: orTrue(rhs)}
	f := formula.And{Lhs: atom, Rhs: formula.AllNext{F: arms}}
	return quantify(newVars, f), nil
}

func (c *ruleCompiler) compileBlockBegin(n *controlflow.Node, bound map[string]bool, visited map[int]bool) (formula.Formula, error) {
	atom := formula.And{
		Lhs: formula.Proposition{Label: n.Tag.Label},
		Rhs: formula.OperationsSlot(c.blockOps(n.Tag)),
	}
	inner, err := c.next(n.ID, bound, visited)
	if err != nil {
		return nil, err
	}
	if inner == nil {
		return atom, nil
	}
	return formula.And{Lhs: atom, Rhs: formula.AllNext{F: inner}}, nil
}

func (c *ruleCompiler) compileConverge(n *controlflow.Node, bound map[string]bool, visited map[int]bool) (formula.Formula, error) {
	var atom formula.Formula = formula.Proposition{Label: TagAfter}
	inner, err := c.next(n.ID, bound, visited)
	if err != nil {
		return nil, err
	}
	if inner == nil {
		return atom, nil
	}
	return formula.And{Lhs: atom, Rhs: formula.AllNext{F: inner}}, nil
}

// statementOps returns the statement-level operations anchored at a
// line, leaving block insertions to the block begin states.
func (c *ruleCompiler) statementOps(line int) []operation.Operation {
	var out []operation.Operation
	for _, op := range c.ops[line] {
		if _, isBlock := op.(operation.InsertIntoBlock); isBlock {
			continue
		}
		out = append(out, op)
	}
	return out
}

// blockOps returns the block insertions for the arm a tagged block
// begin represents, anchored at its branch statement's line.
func (c *ruleCompiler) blockOps(tag *controlflow.NodeTag) []operation.Operation {
	if tag == nil || tag.Anchor == nil {
		return nil
	}
	want := operation.TrueBranch
	if tag.Label == TagFalseBranch {
		want = operation.FalseBranch
	}
	var out []operation.Operation
	for _, op := range c.ops[tag.Anchor.SourceLine()] {
		if blk, ok := op.(operation.InsertIntoBlock); ok && blk.Block == want {
			out = append(out, op)
		}
	}
	return out
}

// freshVars returns the metavariables this pattern uses that are not
// bound yet, sorted, plus the extended bound set for the walk below.
func (c *ruleCompiler) freshVars(pat pattern.Node, bound map[string]bool) ([]string, map[string]bool) {
	used := map[string]bool{}
	patternHoles(pat, used)

	var fresh []string
	for name := range used {
		if !bound[name] {
			fresh = append(fresh, name)
		}
	}
	sort.Strings(fresh)
	if len(fresh) == 0 {
		return nil, bound
	}
	extended := make(map[string]bool, len(bound)+len(fresh))
	for name := range bound {
		extended[name] = true
	}
	for _, name := range fresh {
		extended[name] = true
	}
	return fresh, extended
}

// quantify wraps a formula in existential quantifiers, first name
// outermost.
func quantify(names []string, f formula.Formula) formula.Formula {
	for i := len(names) - 1; i >= 0; i-- {
		f = formula.ExistsVar{Var: names[i], F: f}
	}
	return f
}

func patternHoles(n pattern.Node, out map[string]bool) {
	switch x := n.(type) {
	case *pattern.ParamNode:
		out[x.Name] = true
	case *pattern.ElemNode:
		for _, child := range x.Children {
			patternHoles(child, out)
		}
	}
}

func markerCall(s hostlang.Stmt) (*hostlang.Call, bool) {
	es, ok := s.(*hostlang.ExprStmt)
	if !ok {
		return nil, false
	}
	call, ok := es.X.(*hostlang.Call)
	if !ok || call.Recv != nil {
		return nil, false
	}
	return call, true
}

func branchCond(s hostlang.Stmt) (hostlang.Expr, formula.BranchKind) {
	switch x := s.(type) {
	case *hostlang.If:
		return x.Cond, formula.BranchIf
	case *hostlang.While:
		return x.Cond, formula.BranchWhile
	}
	return nil, formula.BranchIf
}

func orTrue(f formula.Formula) formula.Formula {
	if f == nil {
		return formula.True{}
	}
	return f
}

func copyVisited(visited map[int]bool) map[int]bool {
	out := make(map[int]bool, len(visited))
	for id := range visited {
		out[id] = true
	}
	return out
}
