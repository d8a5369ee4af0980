package smpl

import (
	"github.com/smpl-xyz/go-smpl/controlflow"
)

// Tag labels the adapter attaches to CFG nodes. The compiler and the
// model derive propositions from them.
const (
	TagBranch      = "branch"
	TagAfter       = "after"
	TagTrueBranch  = "trueBranch"
	TagFalseBranch = "falseBranch"
)

// Adapt simplifies a freshly built CFG into the shape the compiler and
// the model expect: the outermost block brackets disappear, every block
// end disappears, branch arms keep their block begin as a tagged state,
// and branches and converge points are tagged with their statement.
func Adapt(g *controlflow.Graph) error {
	tagBranches(g)

	begin := g.BeginNode()
	for _, s := range g.Successors(begin.ID) {
		n, err := g.FindNodeByID(s)
		if err != nil {
			return err
		}
		if n.Kind == controlflow.KindBlockBegin {
			if err := g.RemoveNode(n.ID); err != nil {
				return err
			}
		}
	}

	for _, n := range g.NodesOfKind(controlflow.KindBlockEnd) {
		if err := g.RemoveNode(n.ID); err != nil {
			return err
		}
	}

	// Block begins that are not branch arms carry no information once
	// the brackets are gone.
	for _, n := range g.NodesOfKind(controlflow.KindBlockBegin) {
		if n.Tag == nil {
			if err := g.RemoveNode(n.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// tagBranches marks every branch, its converge point, and its arm
// blocks. The builder emits the true arm's edge first, so the first
// block begin successor is the true branch and the second, when it is
// a block begin, the false branch.
func tagBranches(g *controlflow.Graph) {
	for _, branch := range g.NodesOfKind(controlflow.KindBranch) {
		branch.Tag = &controlflow.NodeTag{Label: TagBranch, Anchor: branch.Stmt}

		if conv, err := g.FindNodeByID(branch.ID + 1); err == nil && conv.Kind == controlflow.KindConverge {
			conv.Tag = &controlflow.NodeTag{Label: TagAfter, Anchor: branch.Stmt}
		}

		arm := 0
		for _, s := range g.Successors(branch.ID) {
			n, err := g.FindNodeByID(s)
			if err != nil || n.Kind != controlflow.KindBlockBegin {
				continue
			}
			label := TagTrueBranch
			if arm > 0 {
				label = TagFalseBranch
			}
			n.Tag = &controlflow.NodeTag{Label: label, Anchor: branch.Stmt}
			arm++
		}
	}
}
