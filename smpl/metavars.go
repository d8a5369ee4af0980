package smpl

import (
	"fmt"

	"github.com/smpl-xyz/go-smpl/hostlang"
	"github.com/smpl-xyz/go-smpl/metavars"
	"github.com/smpl-xyz/go-smpl/patch"
)

// extractMetavars interprets the statements of the rewritten metavars
// method. Builtin kinds arrive as calls, typename kinds as local
// variable declarations, and regex constraints as trailing constraint
// calls that wrap the declared kind.
func extractMetavars(method *hostlang.Method) (map[string]metavars.Constraint, error) {
	out := make(map[string]metavars.Constraint)
	if method == nil || method.Body == nil {
		return out, nil
	}
	for _, s := range method.Body.Stmts {
		switch x := s.(type) {
		case *hostlang.LocalVar:
			out[x.Name] = metavars.TypedIdentifier{TypeName: x.Type}
		case *hostlang.ExprStmt:
			call, ok := x.X.(*hostlang.Call)
			if !ok || call.Recv != nil {
				return nil, fmt.Errorf("%w: line %d", ErrUnknownMetavarKind, s.SourceLine())
			}
			if call.Name == patch.ConstraintCall {
				if err := applyConstraintCall(out, call); err != nil {
					return nil, err
				}
				continue
			}
			name, ok := singleIdentArg(call)
			if !ok {
				return nil, fmt.Errorf("%w: %q at line %d", ErrUnknownMetavarKind, call.Name, call.SourceLine())
			}
			c, err := builtinConstraint(call.Name)
			if err != nil {
				return nil, fmt.Errorf("%w at line %d", err, call.SourceLine())
			}
			out[name] = c
		default:
			return nil, fmt.Errorf("%w: line %d", ErrUnknownMetavarKind, s.SourceLine())
		}
	}
	return out, nil
}

func builtinConstraint(kind string) (metavars.Constraint, error) {
	switch kind {
	case "identifier":
		return metavars.Identifier{}, nil
	case "type":
		return metavars.Type{}, nil
	case "constant":
		return metavars.Constant{}, nil
	case "expression":
		return metavars.Expression{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMetavarKind, kind)
}

// applyConstraintCall wraps an already declared metavariable with a
// regex constraint from a constraint("pattern", name) call.
func applyConstraintCall(out map[string]metavars.Constraint, call *hostlang.Call) error {
	if len(call.Args) != 2 {
		return fmt.Errorf("%w: constraint call at line %d", ErrUnknownConstraint, call.SourceLine())
	}
	lit, ok := call.Args[0].(*hostlang.StringLit)
	if !ok {
		return fmt.Errorf("%w: constraint pattern at line %d", ErrUnknownConstraint, call.SourceLine())
	}
	id, ok := call.Args[1].(*hostlang.Ident)
	if !ok {
		return fmt.Errorf("%w: constraint target at line %d", ErrUnknownConstraint, call.SourceLine())
	}
	inner, declared := out[id.Name]
	if !declared {
		return fmt.Errorf("%w: constraint on undeclared %q", ErrUnknownConstraint, id.Name)
	}
	re, err := metavars.NewRegex(lit.Value, inner)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnknownConstraint, err)
	}
	out[id.Name] = re
	return nil
}

func singleIdentArg(call *hostlang.Call) (string, bool) {
	if len(call.Args) != 1 {
		return "", false
	}
	id, ok := call.Args[0].(*hostlang.Ident)
	if !ok {
		return "", false
	}
	return id.Name, true
}
