package pattern

import "github.com/smpl-xyz/go-smpl/hostlang"

// Match matches a pattern tree against a host element. On success it
// returns the metavariable bindings; a hole that occurs more than once
// must bind structurally equal elements every time.
func Match(pat Node, elem hostlang.Node) (Bindings, bool) {
	subject := Build(elem, nil)
	bindings := Bindings{}
	if !matchNodes(pat, subject, bindings) {
		return nil, false
	}
	return bindings, true
}

// MatchWith is Match seeded with pre-existing bindings; the seed map is
// not modified.
func MatchWith(pat Node, elem hostlang.Node, seed Bindings) (Bindings, bool) {
	subject := Build(elem, nil)
	bindings := Bindings{}
	for k, v := range seed {
		bindings[k] = v
	}
	if !matchNodes(pat, subject, bindings) {
		return nil, false
	}
	return bindings, true
}

func matchNodes(pat, subj Node, bindings Bindings) bool {
	switch p := pat.(type) {
	case *ParamNode:
		s, ok := subj.(*ElemNode)
		if !ok || s.Elem == nil || s.Kind == "none" {
			return false
		}
		if prev, bound := bindings[p.Name]; bound {
			return hostlang.Equal(prev, s.Elem)
		}
		bindings[p.Name] = s.Elem
		return true
	case *ElemNode:
		s, ok := subj.(*ElemNode)
		if !ok {
			return false
		}
		if p.Kind != s.Kind || p.Value != s.Value || len(p.Children) != len(s.Children) {
			return false
		}
		for i := range p.Children {
			if !matchNodes(p.Children[i], s.Children[i], bindings) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
