// Package metavars implements the unification constraints attached to
// patch metavariables. A constraint inspects a candidate host element
// and either rejects it or yields the element to bind.
package metavars

import (
	"fmt"
	"regexp"

	"github.com/smpl-xyz/go-smpl/hostlang"
)

// Constraint filters candidate bindings for one metavariable. Apply
// returns the element to bind and true on acceptance.
type Constraint interface {
	Apply(elem hostlang.Node) (hostlang.Node, bool)
	String() string
}

// Identifier accepts any plain name reference.
type Identifier struct{}

func (Identifier) Apply(elem hostlang.Node) (hostlang.Node, bool) {
	if id, ok := elem.(*hostlang.Ident); ok {
		return id, true
	}
	return nil, false
}

func (Identifier) String() string { return "identifier" }

// Type accepts a type reference. Type positions surface as name
// references, so acceptance mirrors Identifier.
type Type struct{}

func (Type) Apply(elem hostlang.Node) (hostlang.Node, bool) {
	if id, ok := elem.(*hostlang.Ident); ok {
		return id, true
	}
	return nil, false
}

func (Type) String() string { return "type" }

// Constant accepts literals only.
type Constant struct{}

func (Constant) Apply(elem hostlang.Node) (hostlang.Node, bool) {
	switch elem.(type) {
	case *hostlang.IntLit, *hostlang.StringLit, *hostlang.BoolLit:
		return elem, true
	}
	return nil, false
}

func (Constant) String() string { return "constant" }

// Expression accepts any expression.
type Expression struct{}

func (Expression) Apply(elem hostlang.Node) (hostlang.Node, bool) {
	if e, ok := elem.(hostlang.Expr); ok {
		return e, true
	}
	return nil, false
}

func (Expression) String() string { return "expression" }

// TypedIdentifier accepts identifiers declared with a specific type
// name. A matching declaration binds the declared name; a bare name
// reference is accepted as is, since reference sites carry no type.
type TypedIdentifier struct {
	TypeName string
}

func (c TypedIdentifier) Apply(elem hostlang.Node) (hostlang.Node, bool) {
	switch x := elem.(type) {
	case *hostlang.Ident:
		return x, true
	case *hostlang.LocalVar:
		if x.Type == c.TypeName {
			return &hostlang.Ident{Name: x.Name}, true
		}
	}
	return nil, false
}

func (c TypedIdentifier) String() string { return c.TypeName }

// Regex defers to an inner constraint and additionally requires the
// rendered binding to match a pattern.
type Regex struct {
	Pattern string
	Inner   Constraint

	compiled *regexp.Regexp
}

// NewRegex compiles the pattern up front so Apply cannot fail late.
func NewRegex(pattern string, inner Constraint) (*Regex, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("metavars: bad regex constraint %q: %w", pattern, err)
	}
	return &Regex{Pattern: pattern, Inner: inner, compiled: re}, nil
}

func (c *Regex) Apply(elem hostlang.Node) (hostlang.Node, bool) {
	bound, ok := c.Inner.Apply(elem)
	if !ok {
		return nil, false
	}
	if !c.compiled.MatchString(hostlang.Print(bound)) {
		return nil, false
	}
	return bound, true
}

func (c *Regex) String() string {
	return fmt.Sprintf("%s when matches %q", c.Inner, c.Pattern)
}
