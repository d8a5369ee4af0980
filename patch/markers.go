package patch

// Marker names the rewriter injects into the rule class source. The
// compiler recognizes them by these exact spellings.
const (
	RuleClassName    = "RewrittenSmPLRule"
	RuleNameField    = "__SmPLRuleName__"
	MetavarsMethod   = "__SmPLMetavars__"
	DotsMarker       = "__SmPLDots__"
	DeletionMarker   = "__SmPLDeletion__"
	ExprMatchMarker  = "__SmPLExpressionMatch__"
	ImplicitDots     = "__SmPLImplicitDots__"
	DotsParameter    = "__SmPLDotsParameter__"
	UnspecifiedType  = "__SmPLUnspecified__"
	WrapperMethod    = "__SmPLRuleMethod__"
	OptDotsBegin     = "__SmPLOptDotsBegin__"
	OptDotsEnd       = "__SmPLOptDotsEnd__"
	DisjunctionBegin = "__SmPLDisjunctionBegin__"
	DisjunctionPipe  = "__SmPLDisjunctionPipe__"
	DisjunctionEnd   = "__SmPLDisjunctionEnd__"
	WhenNotEqualCall = "whenNotEqual"
	WhenAnyCall      = "whenAny"
	WhenExistsCall   = "whenExists"
	ConstraintCall   = "constraint"
)
