package model

import (
	"fmt"

	"github.com/smpl-xyz/go-smpl/formula"
	"github.com/smpl-xyz/go-smpl/hostlang"
)

// Label is one fact attached to a model state.
type Label interface {
	labelNode()
	String() string
}

// StatementLabel marks a state carrying a pattern-matchable statement.
type StatementLabel struct {
	Stmt hostlang.Stmt
}

// BranchLabel marks a state carrying a branch with a matchable
// condition.
type BranchLabel struct {
	Kind formula.BranchKind
	Cond hostlang.Expr
	Stmt hostlang.Stmt
}

// PropositionLabel marks a state with a named proposition such as
// "trueBranch", "falseBranch" or "after".
type PropositionLabel struct {
	Name string
}

// MetadataLabel exports an auxiliary key/value pair on a state.
type MetadataLabel struct {
	Key   string
	Value any
}

func (StatementLabel) labelNode()   {}
func (BranchLabel) labelNode()      {}
func (PropositionLabel) labelNode() {}
func (MetadataLabel) labelNode()    {}

func (l StatementLabel) String() string {
	return fmt.Sprintf("stmt:%s", valueString(l.Stmt))
}

func (l BranchLabel) String() string {
	return fmt.Sprintf("branch:%s:%s", l.Kind, valueString(l.Cond))
}

func (l PropositionLabel) String() string { return l.Name }

func (l MetadataLabel) String() string {
	return fmt.Sprintf("%s=%s", l.Key, valueString(l.Value))
}
