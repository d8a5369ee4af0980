// Package pattern compiles host language elements into pattern trees
// with metavariable holes and matches them structurally against
// candidate elements, producing metavariable bindings.
package pattern

import (
	"fmt"
	"strings"

	"github.com/smpl-xyz/go-smpl/hostlang"
)

// Node is a pattern tree node: either an ElemNode mirroring a host
// element or a ParamNode hole named after a metavariable.
type Node interface {
	patternNode()
	String() string
}

// ElemNode mirrors one host element: a kind, an optional value, and
// ordered children. Elem points back at the originating host element
// when the tree was built from one.
type ElemNode struct {
	Kind     string
	Value    string
	Children []Node
	Elem     hostlang.Node
}

func (*ElemNode) patternNode() {}

func (e *ElemNode) String() string {
	if len(e.Children) == 0 {
		if e.Value == "" {
			return e.Kind
		}
		return fmt.Sprintf("%s(%s)", e.Kind, e.Value)
	}
	parts := make([]string, len(e.Children))
	for i, c := range e.Children {
		parts[i] = c.String()
	}
	if e.Value == "" {
		return fmt.Sprintf("%s[%s]", e.Kind, strings.Join(parts, ", "))
	}
	return fmt.Sprintf("%s(%s)[%s]", e.Kind, e.Value, strings.Join(parts, ", "))
}

// ParamNode is a hole bound to a metavariable during matching.
type ParamNode struct {
	Name string
}

func (*ParamNode) patternNode() {}

func (p *ParamNode) String() string {
	return fmt.Sprintf("?%s", p.Name)
}

// Bindings maps metavariable names to the host elements they matched.
type Bindings map[string]hostlang.Node
