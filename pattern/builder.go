package pattern

import (
	"strconv"
	"strings"

	"github.com/smpl-xyz/go-smpl/hostlang"
)

// Build compiles a host element into a pattern tree. Any identifier or
// type name equal to a name in metavarNames becomes a ParamNode hole;
// passing nil metavarNames yields a fully concrete tree.
func Build(elem hostlang.Node, metavarNames map[string]bool) Node {
	b := &builder{metavars: metavarNames}
	return b.build(elem)
}

type builder struct {
	metavars map[string]bool
}

func (b *builder) hole(name string) bool {
	return b.metavars != nil && b.metavars[name]
}

// nameSlot wraps an identifier-position name: a hole when the name is a
// metavariable, otherwise a concrete leaf backed by a synthetic Ident so
// matching it can still produce a bindable element.
func (b *builder) nameSlot(kind, name string) Node {
	if b.hole(name) {
		return &ParamNode{Name: name}
	}
	return &ElemNode{Kind: kind, Value: name, Elem: &hostlang.Ident{Name: name}}
}

func none() Node {
	return &ElemNode{Kind: "none"}
}

func (b *builder) build(elem hostlang.Node) Node {
	switch x := elem.(type) {
	case *hostlang.Ident:
		if b.hole(x.Name) {
			return &ParamNode{Name: x.Name}
		}
		return &ElemNode{Kind: "ident", Value: x.Name, Elem: x}
	case *hostlang.IntLit:
		return &ElemNode{Kind: "int", Value: strconv.Itoa(x.Value), Elem: x}
	case *hostlang.StringLit:
		return &ElemNode{Kind: "string", Value: x.Value, Elem: x}
	case *hostlang.BoolLit:
		return &ElemNode{Kind: "bool", Value: strconv.FormatBool(x.Value), Elem: x}
	case *hostlang.Call:
		children := []Node{b.nameSlot("name", x.Name)}
		if x.Recv != nil {
			children = append(children, b.build(x.Recv))
		} else {
			children = append(children, none())
		}
		for _, a := range x.Args {
			children = append(children, b.build(a))
		}
		return &ElemNode{Kind: "call", Children: children, Elem: x}
	case *hostlang.FieldAccess:
		return &ElemNode{
			Kind:     "fieldaccess",
			Children: []Node{b.nameSlot("name", x.Name), b.build(x.Recv)},
			Elem:     x,
		}
	case *hostlang.Unary:
		return &ElemNode{Kind: "unary", Value: x.Op, Children: []Node{b.build(x.X)}, Elem: x}
	case *hostlang.Binary:
		return &ElemNode{
			Kind:     "binary",
			Value:    x.Op,
			Children: []Node{b.build(x.Lhs), b.build(x.Rhs)},
			Elem:     x,
		}
	case *hostlang.Assign:
		return &ElemNode{
			Kind:     "assign",
			Children: []Node{b.build(x.Target), b.build(x.Value)},
			Elem:     x,
		}
	case *hostlang.ExprStmt:
		return &ElemNode{Kind: "exprstmt", Children: []Node{b.build(x.X)}, Elem: x}
	case *hostlang.Return:
		child := none()
		if x.Value != nil {
			child = b.build(x.Value)
		}
		return &ElemNode{Kind: "return", Children: []Node{child}, Elem: x}
	case *hostlang.LocalVar:
		init := none()
		if x.Init != nil {
			init = b.build(x.Init)
		}
		return &ElemNode{
			Kind:     "localvar",
			Children: []Node{b.nameSlot("type", x.Type), b.nameSlot("name", x.Name), init},
			Elem:     x,
		}
	case *hostlang.Block:
		children := make([]Node, len(x.Stmts))
		for i, s := range x.Stmts {
			children[i] = b.build(s)
		}
		return &ElemNode{Kind: "block", Children: children, Elem: x}
	case *hostlang.If:
		els := none()
		if x.Else != nil {
			els = b.build(x.Else)
		}
		return &ElemNode{
			Kind:     "if",
			Children: []Node{b.build(x.Cond), b.build(x.Then), els},
			Elem:     x,
		}
	case *hostlang.While:
		return &ElemNode{
			Kind:     "while",
			Children: []Node{b.build(x.Cond), b.build(x.Body)},
			Elem:     x,
		}
	case *hostlang.Method:
		children := []Node{
			&ElemNode{Kind: "mods", Value: strings.Join(x.Modifiers, " ")},
			b.nameSlot("type", x.ReturnType),
			b.nameSlot("name", x.Name),
		}
		for _, p := range x.Params {
			children = append(children, &ElemNode{
				Kind:     "param",
				Children: []Node{b.nameSlot("type", p.Type), b.nameSlot("name", p.Name)},
				Elem:     p,
			})
		}
		return &ElemNode{Kind: "methodheader", Children: children, Elem: x}
	default:
		return &ElemNode{Kind: "unknown", Elem: elem}
	}
}
