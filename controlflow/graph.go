package controlflow

import (
	"errors"
	"sort"
)

// ErrNodeNotFound is returned when a graph lookup misses.
var ErrNodeNotFound = errors.New("controlflow: node not found")

// Graph is an arena of CFG nodes with an explicit successor relation.
type Graph struct {
	nodes map[int]*Node
	succ  map[int][]int
	pred  map[int][]int
	begin int
	exit  int
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[int]*Node),
		succ:  make(map[int][]int),
		pred:  make(map[int][]int),
		begin: -1,
		exit:  -1,
	}
}

// AddNode inserts a node into the arena.
func (g *Graph) AddNode(n *Node) {
	g.nodes[n.ID] = n
	switch n.Kind {
	case KindBegin:
		g.begin = n.ID
	case KindExit:
		g.exit = n.ID
	}
}

// AddEdge adds a directed edge. Duplicate edges are ignored.
func (g *Graph) AddEdge(from, to int) {
	for _, s := range g.succ[from] {
		if s == to {
			return
		}
	}
	g.succ[from] = append(g.succ[from], to)
	g.pred[to] = append(g.pred[to], from)
}

// RemoveEdge deletes a directed edge if present.
func (g *Graph) RemoveEdge(from, to int) {
	g.succ[from] = removeID(g.succ[from], to)
	g.pred[to] = removeID(g.pred[to], from)
}

func removeID(ids []int, id int) []int {
	out := ids[:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}

// Nodes returns all nodes in id order.
func (g *Graph) Nodes() []*Node {
	ids := make([]int, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]*Node, len(ids))
	for i, id := range ids {
		out[i] = g.nodes[id]
	}
	return out
}

// FindNodeByID returns the node with the given id.
func (g *Graph) FindNodeByID(id int) (*Node, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, ErrNodeNotFound
	}
	return n, nil
}

// NodesOfKind returns all nodes of the given kind in id order.
func (g *Graph) NodesOfKind(kind NodeKind) []*Node {
	var out []*Node
	for _, n := range g.Nodes() {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// BeginNode returns the BEGIN node.
func (g *Graph) BeginNode() *Node { return g.nodes[g.begin] }

// ExitNode returns the EXIT node.
func (g *Graph) ExitNode() *Node { return g.nodes[g.exit] }

// Successors returns the successor ids of a node in edge order.
func (g *Graph) Successors(id int) []int {
	out := make([]int, len(g.succ[id]))
	copy(out, g.succ[id])
	return out
}

// Predecessors returns the predecessor ids of a node in edge order.
func (g *Graph) Predecessors(id int) []int {
	out := make([]int, len(g.pred[id]))
	copy(out, g.pred[id])
	return out
}

// RemoveNode deletes a node and reconnects every incoming edge to every
// outgoing edge, preserving the position of the removed edge in each
// predecessor's successor list.
func (g *Graph) RemoveNode(id int) error {
	if _, ok := g.nodes[id]; !ok {
		return ErrNodeNotFound
	}
	preds := g.Predecessors(id)
	succs := g.Successors(id)
	for _, p := range preds {
		list := g.succ[p]
		var replaced []int
		for _, s := range list {
			if s == id {
				for _, ns := range succs {
					if !containsID(replaced, ns) && ns != p {
						replaced = append(replaced, ns)
					}
				}
			} else if !containsID(replaced, s) {
				replaced = append(replaced, s)
			}
		}
		g.succ[p] = replaced
	}
	for _, s := range succs {
		list := removeID(g.pred[s], id)
		for _, np := range preds {
			if !containsID(list, np) && np != s {
				list = append(list, np)
			}
		}
		g.pred[s] = list
	}
	delete(g.nodes, id)
	delete(g.succ, id)
	delete(g.pred, id)
	return nil
}

func containsID(ids []int, id int) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
