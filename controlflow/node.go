// Package controlflow builds un-simplified control flow graphs over host
// language methods. Graphs are arenas of integer-id nodes; ids increase
// in creation order within a Builder.
package controlflow

import (
	"fmt"

	"github.com/smpl-xyz/go-smpl/hostlang"
)

// NodeKind classifies a CFG node.
type NodeKind int

const (
	KindBegin NodeKind = iota
	KindExit
	KindStatement
	KindBranch
	KindBlockBegin
	KindBlockEnd
	KindConverge
)

func (k NodeKind) String() string {
	switch k {
	case KindBegin:
		return "BEGIN"
	case KindExit:
		return "EXIT"
	case KindStatement:
		return "STATEMENT"
	case KindBranch:
		return "BRANCH"
	case KindBlockBegin:
		return "BLOCK_BEGIN"
	case KindBlockEnd:
		return "BLOCK_END"
	case KindConverge:
		return "CONVERGE"
	default:
		return fmt.Sprintf("NodeKind(%d)", int(k))
	}
}

// NodeTag annotates a node with a role label and the branch statement
// the role is relative to.
type NodeTag struct {
	Label  string
	Anchor hostlang.Stmt
}

// Node is a single CFG node. Stmt carries the statement for STATEMENT
// and BRANCH nodes and the owning branch statement for CONVERGE nodes.
// Block carries the block for BLOCK_BEGIN and BLOCK_END nodes. Tag is
// set during adaptation and nil before.
type Node struct {
	ID    int
	Kind  NodeKind
	Stmt  hostlang.Stmt
	Block *hostlang.Block
	Tag   *NodeTag
}

func (n *Node) String() string {
	switch {
	case n.Stmt != nil:
		return fmt.Sprintf("[%d %s] %s", n.ID, n.Kind, oneLine(hostlang.Print(n.Stmt)))
	default:
		return fmt.Sprintf("[%d %s]", n.ID, n.Kind)
	}
}

func oneLine(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, ' ')
		} else {
			out = append(out, s[i])
		}
	}
	return string(out)
}
