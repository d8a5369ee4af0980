package smpl

import "errors"

var (
	// ErrEmptyMatchContext is returned when the rewritten rule class
	// has no rule method with a body to match against.
	ErrEmptyMatchContext = errors.New("smpl: rule has no match context")

	// ErrMultipleRuleMethods is returned when more than one rule
	// method survives in the deletions view.
	ErrMultipleRuleMethods = errors.New("smpl: rule declares multiple rule methods")

	// ErrNoAdditionsMethod is returned when the additions view lacks
	// the rule method counterpart.
	ErrNoAdditionsMethod = errors.New("smpl: additions view has no rule method")

	// ErrUnanchorableStatement is returned when an added statement has
	// no statement, block or method anchor to attach to.
	ErrUnanchorableStatement = errors.New("smpl: added statement cannot be anchored")

	// ErrUnknownMetavarKind is returned for a metavariable declaration
	// whose kind is not recognized.
	ErrUnknownMetavarKind = errors.New("smpl: unknown metavariable kind")

	// ErrUnknownConstraint is returned for an unrecognized constraint
	// call in the metavariable section.
	ErrUnknownConstraint = errors.New("smpl: unknown metavariable constraint")

	// ErrNotImplemented is returned for patch features that lex and
	// rewrite but do not compile yet.
	ErrNotImplemented = errors.New("smpl: patch feature not implemented")
)
