package smpl

import (
	"errors"
	"strings"
	"testing"

	"github.com/lithammer/dedent"

	"github.com/smpl-xyz/go-smpl/controlflow"
	"github.com/smpl-xyz/go-smpl/hostlang"
	"github.com/smpl-xyz/go-smpl/metavars"
	"github.com/smpl-xyz/go-smpl/model"
	"github.com/smpl-xyz/go-smpl/operation"
)

func parseRule(t *testing.T, source string) *Rule {
	t.Helper()
	rule, err := Parse(dedent.Dedent(source))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	return rule
}

func hostClass(t *testing.T, source string) *hostlang.Class {
	t.Helper()
	class, err := hostlang.Parse(dedent.Dedent(source))
	if err != nil {
		t.Fatalf("unexpected host parse error: %v", err)
	}
	return class
}

func methodOf(t *testing.T, class *hostlang.Class, name string) *hostlang.Method {
	t.Helper()
	for _, m := range class.Methods {
		if m.Name == name {
			return m
		}
	}
	t.Fatalf("no method %q in class %s", name, class.Name)
	return nil
}

func findWitness(ws []*model.Witness, metavar string) *model.Witness {
	for _, w := range ws {
		if w.Metavar == metavar {
			return w
		}
		if nested := findWitness(w.Nested, metavar); nested != nil {
			return nested
		}
	}
	return nil
}

func allOps(m operation.AnchoredMap) []operation.Operation {
	var out []operation.Operation
	for _, line := range m.Lines() {
		out = append(out, m[line]...)
	}
	return out
}

func TestParseReplacementRule(t *testing.T) {
	rule := parseRule(t, `
		@ swap @
		identifier x;
		@@
		- foo(x);
		+ bar(x);
	`)

	if rule.Name != "swap" {
		t.Errorf("rule name: got %q", rule.Name)
	}
	if rule.MatchesOnMethodHeader {
		t.Error("statement rule flagged as method header match")
	}
	if _, ok := rule.Metavars["x"]; !ok {
		t.Errorf("metavar x missing: %v", rule.Metavars)
	}

	ops := allOps(rule.AnchoredOps)
	if len(ops) != 1 {
		t.Fatalf("expected one operation, got %s", rule.AnchoredOps)
	}
	rep, ok := ops[0].(operation.Replace)
	if !ok {
		t.Fatalf("expected a replacement, got %s", ops[0])
	}
	if got := strings.TrimSpace(hostlang.Print(rep.Stmt)); got != "bar(x);" {
		t.Errorf("replacement statement: got %q", got)
	}

	fstr := rule.Formula.String()
	if !strings.Contains(fstr, "exists x") {
		t.Errorf("formula misses quantifier: %s", fstr)
	}
	if !strings.Contains(fstr, "replace") {
		t.Errorf("formula misses operations slot: %s", fstr)
	}
}

func TestCheckMethodBindsAndWitnesses(t *testing.T) {
	rule := parseRule(t, `
		@@
		identifier x;
		@@
		- foo(x);
		+ bar(x);
	`)
	class := hostClass(t, `
		class Target {
			void run() {
				prep();
				foo(y);
				done();
			}
		}
	`)

	rs, err := CheckMethod(rule, methodOf(t, class, "run"))
	if err != nil {
		t.Fatalf("unexpected check error: %v", err)
	}
	if len(rs) == 0 {
		t.Fatal("expected a match")
	}
	w := findWitness(rs[0].Witnesses, "x")
	if w == nil {
		t.Fatalf("no witness for x in %s", rs)
	}
	bound, ok := w.Binding.(hostlang.Node)
	if !ok || hostlang.Print(bound) != "y" {
		t.Errorf("expected x bound to y, got %v", w.Binding)
	}
	if findWitness(rs[0].Witnesses, "_v") == nil {
		t.Errorf("expected an operations witness in %s", rs)
	}
}

func TestCheckMethodRejectsConflictingBindings(t *testing.T) {
	rule := parseRule(t, `
		@@
		identifier x;
		@@
		foo(x);
		...
		bar(x);
	`)

	matching := hostClass(t, `
		class T {
			void ok() {
				foo(a);
				mid();
				bar(a);
			}
		}
	`)
	rs, err := CheckMethod(rule, methodOf(t, matching, "ok"))
	if err != nil {
		t.Fatalf("unexpected check error: %v", err)
	}
	if len(rs) == 0 {
		t.Fatal("expected the consistent method to match")
	}

	conflicting := hostClass(t, `
		class T {
			void bad() {
				foo(a);
				mid();
				bar(b);
			}
		}
	`)
	rs, err = CheckMethod(rule, methodOf(t, conflicting, "bad"))
	if err != nil {
		t.Fatalf("unexpected check error: %v", err)
	}
	if len(rs) != 0 {
		t.Errorf("expected conflicting bindings to reject, got %s", rs)
	}
}

func TestContextOnlyRuleHasNoOperations(t *testing.T) {
	rule := parseRule(t, `
		@@
		identifier x;
		@@
		foo(x);
		...
		bar(x);
	`)
	if total := rule.AnchoredOps.Total(); total != 0 {
		t.Errorf("context-only rule carries %d operations: %s", total, rule.AnchoredOps)
	}
	if !strings.Contains(rule.Formula.String(), "A[T U ") {
		t.Errorf("dots did not compile to an until operator: %s", rule.Formula)
	}
}

func TestEmptyPatchBodyCompilesToUnsatisfiable(t *testing.T) {
	rule := parseRule(t, `
		@@
		identifier x;
		@@
	`)
	if got := rule.Formula.String(); got != "!(T)" {
		t.Errorf("empty body formula: got %s", got)
	}
	if rule.AnchoredOps.Total() != 0 {
		t.Errorf("empty body carries operations: %s", rule.AnchoredOps)
	}
}

func TestDotsConstraintsShapeUntil(t *testing.T) {
	notEqual := parseRule(t, `
		@@
		identifier x;
		@@
		foo(x);
		...
		when != stop(x)
		bar(x);
	`)
	fstr := notEqual.Formula.String()
	if !strings.Contains(fstr, "A[!(stmt<") {
		t.Errorf("when != did not constrain the until left side: %s", fstr)
	}

	exists := parseRule(t, `
		@@
		identifier x;
		@@
		foo(x);
		...
		when exists
		bar(x);
	`)
	if !strings.Contains(exists.Formula.String(), "E[") {
		t.Errorf("when exists did not weaken the path quantifier: %s", exists.Formula)
	}
}

func TestMethodHeaderRule(t *testing.T) {
	rule := parseRule(t, `
		@@
		@@
		public void setup() {
		- init();
		}
	`)
	if !rule.MatchesOnMethodHeader {
		t.Fatal("expected a method header rule")
	}
	ops := allOps(rule.AnchoredOps)
	if len(ops) != 1 {
		t.Fatalf("expected one deletion, got %s", rule.AnchoredOps)
	}
	if _, ok := ops[0].(operation.Delete); !ok {
		t.Errorf("expected a deletion, got %s", ops[0])
	}
}

func TestMethodHeaderReplacement(t *testing.T) {
	rule := parseRule(t, `
		@@
		@@
		- public void setup() {
		+ public void install() {
		init();
		}
	`)
	var header *operation.MethodHeaderReplace
	for _, op := range rule.AnchoredOps[operation.MethodBodyAnchor] {
		if h, ok := op.(operation.MethodHeaderReplace); ok {
			header = &h
		}
	}
	if header == nil {
		t.Fatalf("expected a header replacement at the method anchor: %s", rule.AnchoredOps)
	}
	if header.Method.Name != "install" {
		t.Errorf("replacement header name: got %q", header.Method.Name)
	}
}

func TestAdditionAnchoring(t *testing.T) {
	appended := parseRule(t, `
		@@
		@@
		first();
		+ added();
	`)
	ops := appended.AnchoredOps
	foundAppend := false
	for _, op := range allOps(ops) {
		if a, ok := op.(operation.Append); ok {
			foundAppend = true
			if got := strings.TrimSpace(hostlang.Print(a.Stmt)); got != "added();" {
				t.Errorf("appended statement: got %q", got)
			}
		}
	}
	if !foundAppend {
		t.Errorf("expected an append, got %s", ops)
	}

	prepended := parseRule(t, `
		@@
		@@
		+ added();
		first();
	`)
	foundPrepend := false
	for _, op := range allOps(prepended.AnchoredOps) {
		if _, ok := op.(operation.Prepend); ok {
			foundPrepend = true
		}
	}
	if !foundPrepend {
		t.Errorf("expected a prepend, got %s", prepended.AnchoredOps)
	}
}

func TestUnanchorableAddition(t *testing.T) {
	_, err := Parse(dedent.Dedent(`
		@@
		@@
		first();
		...
		+ floating();
		...
		last();
	`))
	if !errors.Is(err, ErrUnanchorableStatement) {
		t.Errorf("expected ErrUnanchorableStatement, got %v", err)
	}
}

func TestBlockInsertionWithoutAnchor(t *testing.T) {
	rule := parseRule(t, `
		@@
		@@
		first();
		...
		+ trailing();
	`)
	var insert *operation.InsertIntoBlock
	for _, op := range allOps(rule.AnchoredOps) {
		if b, ok := op.(operation.InsertIntoBlock); ok {
			insert = &b
		}
	}
	if insert == nil {
		t.Fatalf("expected a block insertion, got %s", rule.AnchoredOps)
	}
	if insert.Block != operation.MethodBody || insert.Anchor != operation.Bottom {
		t.Errorf("expected a method body bottom insertion, got %s", insert)
	}
}

func TestDisjunctionNotImplemented(t *testing.T) {
	_, err := Parse(dedent.Dedent(`
		@@
		identifier x;
		@@
		(
		foo(x);
		|
		bar(x);
		)
	`))
	if !errors.Is(err, ErrNotImplemented) {
		t.Errorf("expected ErrNotImplemented, got %v", err)
	}
}

func TestBranchRuleCompilesArms(t *testing.T) {
	rule := parseRule(t, `
		@@
		identifier x;
		@@
		if (ready(x)) {
		- go(x);
		}
	`)
	fstr := rule.Formula.String()
	if !strings.Contains(fstr, "branch:if<") {
		t.Errorf("missing branch atom: %s", fstr)
	}
	if !strings.Contains(fstr, "trueBranch") {
		t.Errorf("missing arm proposition: %s", fstr)
	}

	class := hostClass(t, `
		class T {
			void guarded() {
				if (ready(r)) {
					go(r);
				}
				after();
			}
		}
	`)
	rs, err := CheckMethod(rule, methodOf(t, class, "guarded"))
	if err != nil {
		t.Fatalf("unexpected check error: %v", err)
	}
	if len(rs) == 0 {
		t.Fatal("expected the guarded method to match")
	}
	w := findWitness(rs[0].Witnesses, "x")
	if w == nil {
		t.Fatalf("no witness for x in %s", rs)
	}
	if bound, ok := w.Binding.(hostlang.Node); !ok || hostlang.Print(bound) != "r" {
		t.Errorf("expected x bound to r, got %v", w.Binding)
	}
}

func TestCheckClassSelectsMatchingMethods(t *testing.T) {
	rule := parseRule(t, `
		@@
		identifier x;
		@@
		- foo(x);
	`)
	class := hostClass(t, `
		class T {
			void hit() {
				foo(a);
			}
			void miss() {
				bar(a);
			}
		}
	`)
	results, err := CheckClass(rule, class)
	if err != nil {
		t.Fatalf("unexpected check error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected one matching method, got %v", results)
	}
	if _, ok := results["hit"]; !ok {
		t.Errorf("expected method hit to match, got %v", results)
	}
}

func TestAdaptTagsAndSimplifies(t *testing.T) {
	class := hostClass(t, `
		class T {
			void m() {
				a();
				if (cond) {
					b();
				} else {
					c();
				}
				d();
			}
		}
	`)
	g, err := controlflow.NewBuilder().Build(methodOf(t, class, "m"))
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	if err := Adapt(g); err != nil {
		t.Fatalf("unexpected adapt error: %v", err)
	}

	if nodes := g.NodesOfKind(controlflow.KindBlockEnd); len(nodes) != 0 {
		t.Errorf("block ends survived: %d", len(nodes))
	}
	for _, n := range g.NodesOfKind(controlflow.KindBlockBegin) {
		if n.Tag == nil {
			t.Errorf("untagged block begin survived: %v", n.ID)
		}
	}

	branches := g.NodesOfKind(controlflow.KindBranch)
	if len(branches) != 1 {
		t.Fatalf("expected one branch, got %d", len(branches))
	}
	branch := branches[0]
	if branch.Tag == nil || branch.Tag.Label != TagBranch {
		t.Errorf("branch tag: got %v", branch.Tag)
	}

	conv, err := g.FindNodeByID(branch.ID + 1)
	if err != nil || conv.Tag == nil || conv.Tag.Label != TagAfter {
		t.Errorf("converge tag: got %v", conv)
	}

	var labels []string
	for _, s := range g.Successors(branch.ID) {
		n, err := g.FindNodeByID(s)
		if err != nil {
			t.Fatalf("missing successor %d", s)
		}
		if n.Tag != nil {
			labels = append(labels, n.Tag.Label)
		}
	}
	if len(labels) != 2 || labels[0] != TagTrueBranch || labels[1] != TagFalseBranch {
		t.Errorf("arm tags: got %v", labels)
	}
}

func TestExtractMetavarErrors(t *testing.T) {
	class := hostClass(t, `
		class R {
			void mv() {
				weird(1);
			}
		}
	`)
	if _, err := extractMetavars(methodOf(t, class, "mv")); !errors.Is(err, ErrUnknownMetavarKind) {
		t.Errorf("expected ErrUnknownMetavarKind, got %v", err)
	}

	class = hostClass(t, `
		class R {
			void mv() {
				constraint("^a", ghost);
			}
		}
	`)
	if _, err := extractMetavars(methodOf(t, class, "mv")); !errors.Is(err, ErrUnknownConstraint) {
		t.Errorf("expected ErrUnknownConstraint, got %v", err)
	}
}

func TestExtractMetavarKinds(t *testing.T) {
	class := hostClass(t, `
		class R {
			void mv() {
				identifier(a);
				expression(e);
				constant(k);
				Buffer buf;
				constraint("^get", a);
			}
		}
	`)
	mvs, err := extractMetavars(methodOf(t, class, "mv"))
	if err != nil {
		t.Fatalf("unexpected extract error: %v", err)
	}
	if _, ok := mvs["e"].(metavars.Expression); !ok {
		t.Errorf("e: got %T", mvs["e"])
	}
	if _, ok := mvs["k"].(metavars.Constant); !ok {
		t.Errorf("k: got %T", mvs["k"])
	}
	ti, ok := mvs["buf"].(metavars.TypedIdentifier)
	if !ok || ti.TypeName != "Buffer" {
		t.Errorf("buf: got %v", mvs["buf"])
	}
	if _, ok := mvs["a"].(*metavars.Regex); !ok {
		t.Errorf("a should be regex-wrapped, got %T", mvs["a"])
	}
}

func TestRegexConstraintFiltersMatches(t *testing.T) {
	rule := parseRule(t, `
		@@
		identifier fn when matches "^log";
		@@
		- fn(msg);
	`)
	class := hostClass(t, `
		class T {
			void m() {
				logInfo(msg);
				send(msg);
			}
		}
	`)
	rs, err := CheckMethod(rule, methodOf(t, class, "m"))
	if err != nil {
		t.Fatalf("unexpected check error: %v", err)
	}
	if len(rs) != 1 {
		t.Fatalf("expected only the log call to match, got %s", rs)
	}
	w := findWitness(rs[0].Witnesses, "fn")
	if w == nil {
		t.Fatalf("no witness for fn in %s", rs)
	}
	if bound, ok := w.Binding.(hostlang.Node); !ok || hostlang.Print(bound) != "logInfo" {
		t.Errorf("expected fn bound to logInfo, got %v", w.Binding)
	}
}
