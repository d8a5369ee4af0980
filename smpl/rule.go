package smpl

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/smpl-xyz/go-smpl/formula"
	"github.com/smpl-xyz/go-smpl/hostlang"
	"github.com/smpl-xyz/go-smpl/metavars"
	"github.com/smpl-xyz/go-smpl/operation"
	"github.com/smpl-xyz/go-smpl/patch"
)

// Rule is a fully compiled semantic patch: the formula to check
// against method CFGs, the metavariable constraints it binds under,
// and the line-anchored edit operations its matches imply.
type Rule struct {
	ID                    uuid.UUID
	Name                  string
	Source                string
	Formula               formula.Formula
	Metavars              map[string]metavars.Constraint
	AnchoredOps           operation.AnchoredMap
	AddedMethods          []*hostlang.Method
	MatchesOnMethodHeader bool
	Problems              []patch.Problem
}

func (r *Rule) String() string {
	name := r.Name
	if name == "" {
		name = "(anonymous)"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "rule %s [%s]\n", name, r.ID)
	fmt.Fprintf(&b, "formula: %s\n", r.Formula)
	if r.AnchoredOps.Total() > 0 {
		fmt.Fprintf(&b, "operations:\n%s", r.AnchoredOps)
	}
	return b.String()
}
