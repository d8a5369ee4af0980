package controlflow

import (
	"errors"

	"github.com/smpl-xyz/go-smpl/hostlang"
)

// ErrNoBody is returned when building a CFG for a method without a body.
var ErrNoBody = errors.New("controlflow: method has no body")

// Builder constructs CFGs. It owns the node id counter, so graphs built
// by the same Builder never share ids. Reset restores the counter for
// deterministic id assignment.
type Builder struct {
	nextID int
}

// NewBuilder creates a builder with the id counter at zero.
func NewBuilder() *Builder {
	return &Builder{}
}

// Reset restores the id counter to zero.
func (b *Builder) Reset() {
	b.nextID = 0
}

func (b *Builder) newNode(g *Graph, kind NodeKind) *Node {
	n := &Node{ID: b.nextID, Kind: kind}
	b.nextID++
	g.AddNode(n)
	return n
}

// Build produces the un-simplified CFG of a method:
// BEGIN, then the body bracketed by BLOCK_BEGIN/BLOCK_END, then EXIT.
// Each branch's CONVERGE node is allocated immediately after the branch
// node, so its id is always the branch id plus one.
func (b *Builder) Build(m *hostlang.Method) (*Graph, error) {
	if m == nil || m.Body == nil {
		return nil, ErrNoBody
	}
	g := NewGraph()
	begin := b.newNode(g, KindBegin)
	last := b.buildBlock(g, m.Body, begin)
	exit := b.newNode(g, KindExit)
	g.AddEdge(last.ID, exit.ID)
	return g, nil
}

func (b *Builder) buildBlock(g *Graph, blk *hostlang.Block, pred *Node) *Node {
	bb := b.newNode(g, KindBlockBegin)
	bb.Block = blk
	g.AddEdge(pred.ID, bb.ID)
	cur := bb
	for _, s := range blk.Stmts {
		cur = b.buildStmt(g, s, cur)
	}
	be := b.newNode(g, KindBlockEnd)
	be.Block = blk
	g.AddEdge(cur.ID, be.ID)
	return be
}

func (b *Builder) buildStmt(g *Graph, s hostlang.Stmt, pred *Node) *Node {
	switch x := s.(type) {
	case *hostlang.Block:
		return b.buildBlock(g, x, pred)
	case *hostlang.If:
		branch := b.newNode(g, KindBranch)
		branch.Stmt = x
		conv := b.newNode(g, KindConverge)
		conv.Stmt = x
		g.AddEdge(pred.ID, branch.ID)
		thenLast := b.buildBlock(g, asBlock(x.Then), branch)
		g.AddEdge(thenLast.ID, conv.ID)
		if x.Else != nil {
			elseLast := b.buildBlock(g, asBlock(x.Else), branch)
			g.AddEdge(elseLast.ID, conv.ID)
		} else {
			g.AddEdge(branch.ID, conv.ID)
		}
		return conv
	case *hostlang.While:
		branch := b.newNode(g, KindBranch)
		branch.Stmt = x
		conv := b.newNode(g, KindConverge)
		conv.Stmt = x
		g.AddEdge(pred.ID, branch.ID)
		bodyLast := b.buildBlock(g, asBlock(x.Body), branch)
		g.AddEdge(bodyLast.ID, branch.ID)
		g.AddEdge(branch.ID, conv.ID)
		return conv
	default:
		n := b.newNode(g, KindStatement)
		n.Stmt = s
		g.AddEdge(pred.ID, n.ID)
		return n
	}
}

// asBlock normalizes a branch arm to a block so every arm is bracketed
// by BLOCK_BEGIN and BLOCK_END nodes.
func asBlock(s hostlang.Stmt) *hostlang.Block {
	if blk, ok := s.(*hostlang.Block); ok {
		return blk
	}
	blk := &hostlang.Block{}
	blk.Stmts = []hostlang.Stmt{s}
	return blk
}
