package smpl

import (
	"fmt"

	"github.com/smpl-xyz/go-smpl/hostlang"
	"github.com/smpl-xyz/go-smpl/operation"
	"github.com/smpl-xyz/go-smpl/patch"
)

// computeAnchors walks the additions view of the rule method against
// the deletions view and produces the line-anchored operation map.
// Context and deleted statements are the anchors; every added
// statement attaches to the nearest one, or to its enclosing block
// when no statement anchor exists.
func computeAnchors(dels, adds *hostlang.Method) (operation.AnchoredMap, error) {
	a := &anchorer{
		ops:       make(operation.AnchoredMap),
		delsLines: make(map[int]bool),
	}
	collectStmtLines(dels.Body, a.delsLines)

	if err := a.walkBlock(adds.Body, operation.MethodBody, operation.MethodBodyAnchor); err != nil {
		return nil, err
	}

	if hostlang.SignatureString(dels) != hostlang.SignatureString(adds) {
		a.ops.Add(operation.MethodBodyAnchor, operation.MethodHeaderReplace{Method: adds})
	}

	collapseReplacements(a.ops)
	return a.ops, nil
}

type anchorer struct {
	ops       operation.AnchoredMap
	delsLines map[int]bool
}

// pendingAdd is an added statement waiting for an anchor. Its position
// records where in the enclosing block it lands if no statement anchor
// ever turns up.
type pendingAdd struct {
	stmt hostlang.Stmt
	pos  operation.BlockAnchor
}

func (a *anchorer) walkBlock(blk *hostlang.Block, blockType operation.BlockType, blockAnchor int) error {
	elementAnchor := 0
	afterDots := false
	var unanchored []pendingAdd
	var committed []pendingAdd

	flush := func(line int) {
		for _, p := range unanchored {
			a.ops.Add(line, operation.Prepend{Stmt: p.stmt})
		}
		unanchored = nil
		elementAnchor = line
		afterDots = false
	}

	for _, s := range blk.Stmts {
		line := s.SourceLine()

		if !a.delsLines[line] {
			switch {
			case elementAnchor != 0 && !afterDots:
				a.ops.Add(elementAnchor, operation.Append{Stmt: s})
			case afterDots:
				unanchored = append(unanchored, pendingAdd{stmt: s, pos: operation.Bottom})
			default:
				unanchored = append(unanchored, pendingAdd{stmt: s, pos: operation.Top})
			}
			continue
		}

		switch {
		case isMarkerCall(s, patch.DeletionMarker):
			flush(line)
			a.ops.Add(line, operation.Delete{})

		case isMarkerCall(s, patch.DotsMarker):
			for _, p := range unanchored {
				if p.pos == operation.Bottom {
					return fmt.Errorf("%w: %q at line %d",
						ErrUnanchorableStatement, hostlang.Print(p.stmt), p.stmt.SourceLine())
				}
			}
			committed = append(committed, unanchored...)
			unanchored = nil
			afterDots = true

		default:
			flush(line)
			if err := a.walkArms(s); err != nil {
				return err
			}
		}
	}

	for _, p := range append(committed, unanchored...) {
		a.ops.Add(blockAnchor, operation.InsertIntoBlock{
			Block:  blockType,
			Anchor: p.pos,
			Stmt:   p.stmt,
		})
	}
	return nil
}

// walkArms recurses into the arms of a context branch statement. Added
// statements inside an arm with no anchor of their own attach to the
// arm's block, keyed by the branch line.
func (a *anchorer) walkArms(s hostlang.Stmt) error {
	switch x := s.(type) {
	case *hostlang.If:
		if err := a.walkBlock(armBlock(x.Then), operation.TrueBranch, x.SourceLine()); err != nil {
			return err
		}
		if x.Else != nil {
			return a.walkBlock(armBlock(x.Else), operation.FalseBranch, x.SourceLine())
		}
	case *hostlang.While:
		return a.walkBlock(armBlock(x.Body), operation.TrueBranch, x.SourceLine())
	}
	return nil
}

func armBlock(s hostlang.Stmt) *hostlang.Block {
	if blk, ok := s.(*hostlang.Block); ok {
		return blk
	}
	blk := &hostlang.Block{}
	blk.Stmts = []hostlang.Stmt{s}
	return blk
}

// collectStmtLines records the source line of every statement in the
// block, recursively through branch arms.
func collectStmtLines(blk *hostlang.Block, lines map[int]bool) {
	if blk == nil {
		return
	}
	for _, s := range blk.Stmts {
		lines[s.SourceLine()] = true
		switch x := s.(type) {
		case *hostlang.Block:
			collectStmtLines(x, lines)
		case *hostlang.If:
			collectStmtLines(armBlock(x.Then), lines)
			if x.Else != nil {
				collectStmtLines(armBlock(x.Else), lines)
			}
		case *hostlang.While:
			collectStmtLines(armBlock(x.Body), lines)
		}
	}
}

// isMarkerCall reports whether a statement is a bare call to the named
// rewriter marker.
func isMarkerCall(s hostlang.Stmt, name string) bool {
	es, ok := s.(*hostlang.ExprStmt)
	if !ok {
		return false
	}
	call, ok := es.X.(*hostlang.Call)
	return ok && call.Recv == nil && call.Name == name
}

// collapseReplacements rewrites a deletion plus an insertion at the
// same anchor into a single replacement.
func collapseReplacements(ops operation.AnchoredMap) {
	for _, line := range ops.Lines() {
		list := ops[line]
		deleteAt := -1
		insertAt := -1
		for i, op := range list {
			switch op.(type) {
			case operation.Delete:
				deleteAt = i
			case operation.Append, operation.Prepend:
				if insertAt < 0 {
					insertAt = i
				}
			}
		}
		if deleteAt < 0 || insertAt < 0 {
			continue
		}
		var stmt hostlang.Stmt
		switch op := list[insertAt].(type) {
		case operation.Append:
			stmt = op.Stmt
		case operation.Prepend:
			stmt = op.Stmt
		}
		var out []operation.Operation
		for i, op := range list {
			switch i {
			case deleteAt:
				out = append(out, operation.Replace{Stmt: stmt})
			case insertAt:
			default:
				out = append(out, op)
			}
		}
		ops[line] = out
	}
}
