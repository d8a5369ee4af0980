// Package operation defines the edit operations a compiled rule embeds
// in its formula, and the line-anchored map that accumulates them.
package operation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/smpl-xyz/go-smpl/hostlang"
)

// MethodBodyAnchor is the sentinel anchor line for operations that
// attach to the method body rather than a concrete source line.
const MethodBodyAnchor = 0

// BlockType identifies which block an InsertIntoBlock targets.
type BlockType int

const (
	MethodBody BlockType = iota
	TrueBranch
	FalseBranch
)

func (b BlockType) String() string {
	switch b {
	case MethodBody:
		return "methodbody"
	case TrueBranch:
		return "truebranch"
	case FalseBranch:
		return "falsebranch"
	default:
		return fmt.Sprintf("BlockType(%d)", int(b))
	}
}

// BlockAnchor positions an InsertIntoBlock at the top or bottom of its
// target block.
type BlockAnchor int

const (
	Top BlockAnchor = iota
	Bottom
)

func (a BlockAnchor) String() string {
	if a == Top {
		return "top"
	}
	return "bottom"
}

// Operation is one edit obligation attached to a match site.
type Operation interface {
	operationRecord()
	String() string
}

// Delete removes the anchored statement.
type Delete struct{}

// Prepend inserts a statement before the anchored statement.
type Prepend struct {
	Stmt hostlang.Stmt
}

// Append inserts a statement after the anchored statement.
type Append struct {
	Stmt hostlang.Stmt
}

// Replace substitutes the anchored statement.
type Replace struct {
	Stmt hostlang.Stmt
}

// InsertIntoBlock places a statement at the top or bottom of a block
// that offered no statement anchor.
type InsertIntoBlock struct {
	Block  BlockType
	Anchor BlockAnchor
	Stmt   hostlang.Stmt
}

// MethodHeaderReplace substitutes the matched method's header.
type MethodHeaderReplace struct {
	Method *hostlang.Method
}

func (Delete) operationRecord()              {}
func (Prepend) operationRecord()             {}
func (Append) operationRecord()              {}
func (Replace) operationRecord()             {}
func (InsertIntoBlock) operationRecord()     {}
func (MethodHeaderReplace) operationRecord() {}

func (Delete) String() string { return "delete" }

func (o Prepend) String() string {
	return fmt.Sprintf("prepend %s", stmtText(o.Stmt))
}

func (o Append) String() string {
	return fmt.Sprintf("append %s", stmtText(o.Stmt))
}

func (o Replace) String() string {
	return fmt.Sprintf("replace %s", stmtText(o.Stmt))
}

func (o InsertIntoBlock) String() string {
	return fmt.Sprintf("insert(%s, %s) %s", o.Block, o.Anchor, stmtText(o.Stmt))
}

func (o MethodHeaderReplace) String() string {
	return fmt.Sprintf("replace-header %s", hostlang.SignatureString(o.Method))
}

func stmtText(s hostlang.Stmt) string {
	return strings.TrimRight(strings.ReplaceAll(hostlang.Print(s), "\n", " "), " ")
}

// AnchoredMap maps anchor lines to ordered operation lists. Insertion
// order within a line is significant.
type AnchoredMap map[int][]Operation

// Add appends an operation at an anchor line.
func (m AnchoredMap) Add(line int, op Operation) {
	m[line] = append(m[line], op)
}

// Lines returns the anchor lines in ascending order.
func (m AnchoredMap) Lines() []int {
	lines := make([]int, 0, len(m))
	for l := range m {
		lines = append(lines, l)
	}
	sort.Ints(lines)
	return lines
}

// Total counts all operations across anchors.
func (m AnchoredMap) Total() int {
	n := 0
	for _, ops := range m {
		n += len(ops)
	}
	return n
}

func (m AnchoredMap) String() string {
	var b strings.Builder
	for _, l := range m.Lines() {
		fmt.Fprintf(&b, "%d:", l)
		for _, op := range m[l] {
			fmt.Fprintf(&b, " [%s]", op)
		}
		b.WriteString("\n")
	}
	return b.String()
}
