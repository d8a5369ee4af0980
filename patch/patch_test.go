package patch

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/lithammer/dedent"
	"github.com/rs/zerolog"
)

func lexAll(t *testing.T, source string) []Token {
	t.Helper()
	tokens, err := Lex(source)
	if err != nil {
		t.Fatalf("unexpected lex error: %v", err)
	}
	return tokens
}

func tokenTypes(tokens []Token) []TokenType {
	out := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Type
	}
	return out
}

func TestLexNamedPatch(t *testing.T) {
	source := dedent.Dedent(`
		@ drop_logging @
		identifier x;
		@@
		- log(x);
	`)
	tokens := lexAll(t, source)

	want := []TokenType{
		TokenRulename, TokenMetavarType, TokenMetavarID,
		TokenMinus, TokenCode, TokenNewline,
		TokenNewline,
		TokenEOF,
	}
	if diff := cmp.Diff(want, tokenTypes(tokens)); diff != "" {
		t.Fatalf("token stream mismatch (-want +got):\n%s", diff)
	}
	if tokens[0].Literal != "drop_logging" {
		t.Errorf("rule name: got %q", tokens[0].Literal)
	}
	if tokens[2].Literal != "x" {
		t.Errorf("metavar id: got %q", tokens[2].Literal)
	}
}

func TestLexAnonymousHeaderAndMultipleIDs(t *testing.T) {
	source := dedent.Dedent(`
		@@
		expression a, b;
		@@
		a = b;
	`)
	tokens := lexAll(t, source)

	var ids []string
	for _, tok := range tokens {
		if tok.Type == TokenMetavarID {
			ids = append(ids, tok.Literal)
		}
		if tok.Type == TokenRulename {
			t.Errorf("anonymous patch produced a rulename token: %v", tok)
		}
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("metavar ids: got %v", ids)
	}
}

func TestLexWhenMatches(t *testing.T) {
	source := dedent.Dedent(`
		@@
		identifier fn when matches "^log_.*";
		@@
		- fn();
	`)
	tokens := lexAll(t, source)

	var found bool
	for _, tok := range tokens {
		if tok.Type == TokenWhenMatches {
			found = true
			if tok.Literal != "^log_.*" {
				t.Errorf("regex literal: got %q", tok.Literal)
			}
		}
	}
	if !found {
		t.Fatal("expected a when-matches token")
	}
}

func TestLexDotsAndConstraints(t *testing.T) {
	source := dedent.Dedent(`
		@@
		identifier x;
		@@
		foo(x);
		...
		when != stop(x)
		when any
		bar(x);
	`)
	tokens := lexAll(t, source)

	var seen []TokenType
	for _, tok := range tokens {
		switch tok.Type {
		case TokenDots, TokenWhenNotEqual, TokenWhenAny, TokenWhenExists:
			seen = append(seen, tok.Type)
			if tok.Type == TokenWhenNotEqual && tok.Literal != "stop(x)" {
				t.Errorf("when-not-equal literal: got %q", tok.Literal)
			}
		}
	}
	want := []TokenType{TokenDots, TokenWhenNotEqual, TokenWhenAny}
	if len(seen) != len(want) {
		t.Fatalf("constraint tokens: got %v want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("constraint token %d: got %v want %v", i, seen[i], want[i])
		}
	}
}

func TestLexDisjunctionAndOptDots(t *testing.T) {
	source := dedent.Dedent(`
		@@
		identifier x;
		@@
		(
		foo(x);
		|
		bar(x);
		)
		<...
		baz(x);
		...>
	`)
	tokens := lexAll(t, source)

	var seen []TokenType
	for _, tok := range tokens {
		switch tok.Type {
		case TokenDisjBegin, TokenDisjPipe, TokenDisjEnd, TokenOptDotsBegin, TokenOptDotsEnd:
			seen = append(seen, tok.Type)
		}
	}
	want := []TokenType{TokenDisjBegin, TokenDisjPipe, TokenDisjEnd, TokenOptDotsBegin, TokenOptDotsEnd}
	if len(seen) != len(want) {
		t.Fatalf("structural tokens: got %v want %v", seen, want)
	}
}

func TestLexErrors(t *testing.T) {
	cases := []struct {
		name   string
		source string
	}{
		{"empty input", ""},
		{"whitespace only", "   \n\t\n"},
		{"missing closing header", "@@\nidentifier x;\n"},
		{"declaration without semicolon", "@@\nidentifier x\n@@\nfoo();\n"},
		{"bare when in body", "@@\nidentifier x;\n@@\nwhen sometimes\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Lex(tc.source); err == nil {
				t.Errorf("expected lex error for %q", tc.source)
			}
		})
	}
}

func TestLexParseErrorPosition(t *testing.T) {
	_, err := Lex("@@\nidentifier x\n@@\nfoo();\n")
	perr, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if perr.Line != 2 {
		t.Errorf("error line: got %d want 2", perr.Line)
	}
}

func rewriteSource(t *testing.T, source string) *Rewritten {
	t.Helper()
	tokens := lexAll(t, source)
	sink := NewProblemSink(zerolog.Nop())
	rw, err := Rewrite(tokens, sink)
	if err != nil {
		t.Fatalf("unexpected rewrite error: %v", err)
	}
	if sink.HasErrors() {
		t.Fatalf("unexpected rewrite problems: %v", sink.Problems())
	}
	return rw
}

func TestRewriteWrapsStatementPatch(t *testing.T) {
	rw := rewriteSource(t, dedent.Dedent(`
		@ swap @
		identifier x;
		@@
		- foo(x);
		+ bar(x);
	`))

	if rw.Name != "swap" {
		t.Errorf("rule name: got %q", rw.Name)
	}
	if rw.MatchesOnMethodHeader {
		t.Error("statement patch flagged as method header match")
	}
	for _, want := range []string{
		"class " + RuleClassName + " {",
		"String " + RuleNameField + " = \"swap\";",
		"void " + MetavarsMethod + "() {",
		"identifier(x);",
		UnspecifiedType + " " + WrapperMethod,
		"if (" + ImplicitDots + ") {",
		"-",
		"+",
	} {
		if !strings.Contains(rw.Source, want) {
			t.Errorf("rewritten source missing %q:\n%s", want, rw.Source)
		}
	}

	var minusLine, plusLine string
	for _, line := range strings.Split(rw.Source, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "-") {
			minusLine = trimmed
		}
		if strings.HasPrefix(trimmed, "+") {
			plusLine = trimmed
		}
	}
	if !strings.Contains(minusLine, "foo(x);") {
		t.Errorf("deletion line: got %q", minusLine)
	}
	if !strings.Contains(plusLine, "bar(x);") {
		t.Errorf("addition line: got %q", plusLine)
	}
}

func TestRewriteMethodHeaderBody(t *testing.T) {
	rw := rewriteSource(t, dedent.Dedent(`
		@@
		identifier x;
		@@
		public void setup(int x) {
		- init(x);
		}
	`))

	if !rw.MatchesOnMethodHeader {
		t.Fatal("expected method header match")
	}
	if strings.Contains(rw.Source, WrapperMethod) {
		t.Errorf("method header body should not be wrapped:\n%s", rw.Source)
	}
	if !strings.Contains(rw.Source, "public void setup(int x) {") {
		t.Errorf("method header lost:\n%s", rw.Source)
	}
}

func TestRewriteMetavarDeclarations(t *testing.T) {
	rw := rewriteSource(t, dedent.Dedent(`
		@@
		identifier a, b;
		Buffer buf;
		identifier fn when matches "^get";
		@@
		- fn(a);
	`))

	for _, want := range []string{
		"identifier(a);",
		"identifier(b);",
		"Buffer buf;",
		"identifier(fn);",
		ConstraintCall + "(\"^get\", fn);",
	} {
		if !strings.Contains(rw.Source, want) {
			t.Errorf("metavars method missing %q:\n%s", want, rw.Source)
		}
	}
}

func TestRewriteDotsFoldConstraints(t *testing.T) {
	rw := rewriteSource(t, dedent.Dedent(`
		@@
		identifier x;
		@@
		foo(x);
		...
		when != stop(x)
		when exists
		bar(x);
	`))

	want := DotsMarker + "(" + WhenNotEqualCall + "(stop(x)), " + WhenExistsCall + "());"
	if !strings.Contains(rw.Source, want) {
		t.Errorf("dots call missing constraints, want %q:\n%s", want, rw.Source)
	}
	if strings.Count(rw.Source, DotsMarker) != 1 {
		t.Errorf("expected one dots call:\n%s", rw.Source)
	}
}

func TestRewriteExpressionWrapping(t *testing.T) {
	rw := rewriteSource(t, dedent.Dedent(`
		@@
		expression e;
		@@
		- e + 1
	`))

	if !strings.Contains(rw.Source, ExprMatchMarker+"(e + 1);") {
		t.Errorf("expression line not wrapped:\n%s", rw.Source)
	}
}

func TestRewriteStructuralMarkers(t *testing.T) {
	rw := rewriteSource(t, dedent.Dedent(`
		@@
		identifier x;
		@@
		(
		foo(x);
		|
		bar(x);
		)
	`))

	for _, want := range []string{
		DisjunctionBegin + "();",
		DisjunctionPipe + "();",
		DisjunctionEnd + "();",
	} {
		if !strings.Contains(rw.Source, want) {
			t.Errorf("rewritten source missing %q:\n%s", want, rw.Source)
		}
	}
}

func TestRewriteStrayWhenReportsProblem(t *testing.T) {
	tokens := lexAll(t, dedent.Dedent(`
		@@
		identifier x;
		@@
		foo(x);
		when any
	`))
	sink := NewProblemSink(zerolog.Nop())
	if _, err := Rewrite(tokens, sink); err != nil {
		t.Fatalf("unexpected rewrite error: %v", err)
	}
	if !sink.HasErrors() {
		t.Fatal("expected a problem for a when line without dots")
	}
}

func TestSeparateViews(t *testing.T) {
	source := strings.Join([]string{
		"class " + RuleClassName + " {",
		"void m() {",
		"    keep();",
		"-    old();",
		"+    fresh();",
		"}",
		"}",
	}, "\n")

	dels, adds := Separate(source)
	delLines := strings.Split(dels, "\n")
	addLines := strings.Split(adds, "\n")

	if len(delLines) != len(addLines) {
		t.Fatalf("view line counts differ: %d vs %d", len(delLines), len(addLines))
	}
	if strings.TrimSpace(delLines[3]) != "old();" {
		t.Errorf("deletions view line 4: got %q", delLines[3])
	}
	if delLines[4] != "" {
		t.Errorf("deletions view should blank added line, got %q", delLines[4])
	}
	if strings.TrimSpace(addLines[3]) != DeletionMarker+"();" {
		t.Errorf("additions view line 4: got %q", addLines[3])
	}
	if strings.TrimSpace(addLines[4]) != "fresh();" {
		t.Errorf("additions view line 5: got %q", addLines[4])
	}
	if delLines[2] != addLines[2] || delLines[2] != "    keep();" {
		t.Errorf("context line altered: %q vs %q", delLines[2], addLines[2])
	}
}

func TestSeparateDeletedDotsAndHeaders(t *testing.T) {
	source := strings.Join([]string{
		"-" + DotsMarker + "();",
		"-public void setup() {",
		"-    gone();",
	}, "\n")

	_, adds := Separate(source)
	addLines := strings.Split(adds, "\n")
	if addLines[0] != "" {
		t.Errorf("deleted dots should leave a blank line, got %q", addLines[0])
	}
	if addLines[1] != "" {
		t.Errorf("deleted method header should leave a blank line, got %q", addLines[1])
	}
	if strings.TrimSpace(addLines[2]) != DeletionMarker+"();" {
		t.Errorf("deleted statement stand-in: got %q", addLines[2])
	}
}

func TestProblemSinkCollects(t *testing.T) {
	sink := NewProblemSink(zerolog.Nop())
	sink.Warnf(3, "odd indentation")
	if sink.HasErrors() {
		t.Error("warning alone should not flag errors")
	}
	sink.Errorf(7, "bad token %q", "?")
	if !sink.HasErrors() {
		t.Error("expected errors after Errorf")
	}
	ps := sink.Problems()
	if len(ps) != 2 || ps[0].Severity != SeverityWarn || ps[1].Severity != SeverityError {
		t.Errorf("unexpected problems: %v", ps)
	}
	if ps[1].Line != 7 {
		t.Errorf("problem line: got %d", ps[1].Line)
	}
}
