package model

import (
	"github.com/smpl-xyz/go-smpl/controlflow"
	"github.com/smpl-xyz/go-smpl/formula"
	"github.com/smpl-xyz/go-smpl/hostlang"
)

// SuccessorStrategy decides which CFG edges become model transitions.
// Implementations may add exception edges; the default adds none.
type SuccessorStrategy interface {
	Successors(g *controlflow.Graph, id int) []int
}

// NaiveStrategy follows the plain CFG successor relation.
type NaiveStrategy struct{}

// Successors returns the graph's own successor list.
func (NaiveStrategy) Successors(g *controlflow.Graph, id int) []int {
	return g.Successors(id)
}

// CFGModel presents an adapted CFG as a checkable model: one state per
// node except BEGIN and EXIT, with labels derived from node kinds and
// adapter tags.
type CFGModel struct {
	graph    *controlflow.Graph
	strategy SuccessorStrategy
	states   []int
	labels   map[int][]Label
}

// NewCFGModel builds a model over an adapted graph. A nil strategy
// selects NaiveStrategy.
func NewCFGModel(g *controlflow.Graph, strategy SuccessorStrategy) *CFGModel {
	if strategy == nil {
		strategy = NaiveStrategy{}
	}
	m := &CFGModel{
		graph:    g,
		strategy: strategy,
		labels:   make(map[int][]Label),
	}
	for _, n := range g.Nodes() {
		if n.Kind == controlflow.KindBegin || n.Kind == controlflow.KindExit {
			continue
		}
		m.states = append(m.states, n.ID)
		m.labels[n.ID] = deriveLabels(n)
	}
	return m
}

func deriveLabels(n *controlflow.Node) []Label {
	var labels []Label
	switch n.Kind {
	case controlflow.KindStatement:
		labels = append(labels, StatementLabel{Stmt: n.Stmt})
	case controlflow.KindBranch:
		switch s := n.Stmt.(type) {
		case *hostlang.If:
			labels = append(labels, BranchLabel{Kind: formula.BranchIf, Cond: s.Cond, Stmt: s})
		case *hostlang.While:
			labels = append(labels, BranchLabel{Kind: formula.BranchWhile, Cond: s.Cond, Stmt: s})
		}
	}
	if n.Tag != nil {
		labels = append(labels, PropositionLabel{Name: n.Tag.Label})
		labels = append(labels, MetadataLabel{Key: "anchor", Value: n.Tag.Anchor})
	}
	return labels
}

// States returns the model states in id order.
func (m *CFGModel) States() []int {
	out := make([]int, len(m.states))
	copy(out, m.states)
	return out
}

// Successors returns the model transitions from a state, excluding the
// BEGIN and EXIT endpoints.
func (m *CFGModel) Successors(state int) []int {
	var out []int
	for _, s := range m.strategy.Successors(m.graph, state) {
		if _, isState := m.labels[s]; isState {
			out = append(out, s)
		}
	}
	return out
}

// Labels returns the labels attached to a state.
func (m *CFGModel) Labels(state int) []Label {
	return m.labels[state]
}
