// Package smpl compiles SmPL semantic patches into checkable rules and
// evaluates them against host methods. A patch is lexed and rewritten
// into a host class, split into its deletions and additions views,
// anchored, and compiled into a CTL-VW formula with embedded edit
// operations.
package smpl

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/smpl-xyz/go-smpl/controlflow"
	"github.com/smpl-xyz/go-smpl/formula"
	"github.com/smpl-xyz/go-smpl/hostlang"
	"github.com/smpl-xyz/go-smpl/model"
	"github.com/smpl-xyz/go-smpl/patch"
)

// Parse compiles a patch source into a rule. Diagnostics are collected
// on the rule; an error-severity problem or a pipeline failure aborts
// with an error.
func Parse(source string) (*Rule, error) {
	return ParseWithLogger(source, zerolog.Nop())
}

// ParseWithLogger is Parse with patch diagnostics routed through the
// given logger.
func ParseWithLogger(source string, log zerolog.Logger) (*Rule, error) {
	tokens, err := patch.Lex(source)
	if err != nil {
		return nil, fmt.Errorf("smpl: lex: %w", err)
	}

	sink := patch.NewProblemSink(log)
	rewritten, err := patch.Rewrite(tokens, sink)
	if err != nil {
		return nil, fmt.Errorf("smpl: rewrite: %w", err)
	}
	if sink.HasErrors() {
		return nil, fmt.Errorf("smpl: rewrite: %s", firstError(sink))
	}

	if usesUnimplementedMarkers(rewritten.Source) {
		return nil, fmt.Errorf("%w: disjunctions and optional dots", ErrNotImplemented)
	}

	delsSource, addsSource := patch.Separate(rewritten.Source)
	delsClass, err := hostlang.Parse(delsSource)
	if err != nil {
		return nil, fmt.Errorf("smpl: deletions view: %w", err)
	}
	addsClass, err := hostlang.Parse(addsSource)
	if err != nil {
		return nil, fmt.Errorf("smpl: additions view: %w", err)
	}

	mvs, err := extractMetavars(findMethod(delsClass, patch.MetavarsMethod))
	if err != nil {
		return nil, err
	}

	delsRule, err := ruleMethod(delsClass)
	if err != nil {
		return nil, err
	}
	addsRule, added, err := additionsMethod(addsClass, delsRule.Name)
	if err != nil {
		return nil, err
	}

	delsMatch := matchView(delsRule)
	addsMatch := matchView(addsRule)

	anchors, err := computeAnchors(delsMatch, addsMatch)
	if err != nil {
		return nil, err
	}

	builder := controlflow.NewBuilder()
	graph, err := builder.Build(delsMatch)
	if err != nil {
		return nil, fmt.Errorf("smpl: %w", err)
	}
	if err := Adapt(graph); err != nil {
		return nil, fmt.Errorf("smpl: adapt: %w", err)
	}

	constraints := make(map[string]formula.MetavariableConstraint, len(mvs))
	for name, c := range mvs {
		constraints[name] = c
	}
	f, err := compileFormula(graph, constraints, anchors)
	if err != nil {
		return nil, err
	}

	return &Rule{
		ID:                    uuid.New(),
		Name:                  rewritten.Name,
		Source:                source,
		Formula:               f,
		Metavars:              mvs,
		AnchoredOps:           anchors,
		AddedMethods:          added,
		MatchesOnMethodHeader: rewritten.MatchesOnMethodHeader,
		Problems:              sink.Problems(),
	}, nil
}

// CheckMethod evaluates a rule against one host method and returns the
// satisfying states with their environments and witnesses.
func CheckMethod(rule *Rule, method *hostlang.Method) (model.ResultSet, error) {
	graph, err := controlflow.NewBuilder().Build(method)
	if err != nil {
		return nil, fmt.Errorf("smpl: %w", err)
	}
	if err := Adapt(graph); err != nil {
		return nil, fmt.Errorf("smpl: adapt: %w", err)
	}
	checker := model.NewChecker(model.NewCFGModel(graph, nil))
	return checker.Check(rule.Formula), nil
}

// CheckClass evaluates a rule against every method of a class and
// returns the per-method results, keyed by method name.
func CheckClass(rule *Rule, class *hostlang.Class) (map[string]model.ResultSet, error) {
	out := make(map[string]model.ResultSet, len(class.Methods))
	for _, m := range class.Methods {
		rs, err := CheckMethod(rule, m)
		if err != nil {
			return nil, err
		}
		if len(rs) > 0 {
			out[m.Name] = rs
		}
	}
	return out, nil
}

// ruleMethod selects the single rule method of the deletions view.
func ruleMethod(class *hostlang.Class) (*hostlang.Method, error) {
	var candidates []*hostlang.Method
	for _, m := range class.Methods {
		if m.Name != patch.MetavarsMethod {
			candidates = append(candidates, m)
		}
	}
	switch len(candidates) {
	case 0:
		return nil, ErrEmptyMatchContext
	case 1:
		if candidates[0].Body == nil || len(candidates[0].Body.Stmts) == 0 {
			return nil, ErrEmptyMatchContext
		}
		return candidates[0], nil
	default:
		return nil, ErrMultipleRuleMethods
	}
}

// additionsMethod finds the additions-view counterpart of the rule
// method, preferring a name match, and returns the remaining methods
// as whole-method additions.
func additionsMethod(class *hostlang.Class, name string) (*hostlang.Method, []*hostlang.Method, error) {
	var counterpart *hostlang.Method
	var rest []*hostlang.Method
	for _, m := range class.Methods {
		if m.Name == patch.MetavarsMethod {
			continue
		}
		if counterpart == nil && m.Name == name {
			counterpart = m
			continue
		}
		rest = append(rest, m)
	}
	if counterpart == nil {
		if len(rest) == 0 {
			return nil, nil, ErrNoAdditionsMethod
		}
		counterpart = rest[0]
		rest = rest[1:]
	}
	return counterpart, rest, nil
}

// matchView strips the implicit dots wrapper off a rule method. A
// patch without a method header matches anywhere, which the rewriter
// encodes as a guard branch around the body; the guarded block is the
// real match context.
func matchView(m *hostlang.Method) *hostlang.Method {
	if m.Name != patch.WrapperMethod || m.Body == nil || len(m.Body.Stmts) != 1 {
		return m
	}
	guard, ok := m.Body.Stmts[0].(*hostlang.If)
	if !ok {
		return m
	}
	cond, ok := guard.Cond.(*hostlang.Ident)
	if !ok || cond.Name != patch.ImplicitDots {
		return m
	}
	body, ok := guard.Then.(*hostlang.Block)
	if !ok {
		return m
	}
	unwrapped := *m
	unwrapped.Body = body
	return &unwrapped
}

func findMethod(class *hostlang.Class, name string) *hostlang.Method {
	for _, m := range class.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

func usesUnimplementedMarkers(source string) bool {
	for _, marker := range []string{
		patch.OptDotsBegin, patch.OptDotsEnd,
		patch.DisjunctionBegin, patch.DisjunctionPipe, patch.DisjunctionEnd,
	} {
		if strings.Contains(source, marker) {
			return true
		}
	}
	return false
}

func firstError(sink *patch.ProblemSink) string {
	for _, p := range sink.Problems() {
		if p.Severity == patch.SeverityError {
			return p.String()
		}
	}
	return "unknown problem"
}
