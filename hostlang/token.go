// Package hostlang implements a small Java-shaped host language: lexer,
// AST, recursive-descent parser and printer. Patch sources are rewritten
// into this language before analysis, and target methods are expressed in
// it as well.
package hostlang

import "fmt"

// TokenType represents the type of a lexer token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIdent
	TokenKeyword // class, if, else, while, return, true, false, modifiers
	TokenInt
	TokenString
	TokenLParen
	TokenRParen
	TokenLBrace
	TokenRBrace
	TokenComma
	TokenSemi
	TokenDot
	TokenOp // = == != < <= > >= + - * / % ! && ||
	TokenIllegal
)

var keywords = map[string]bool{
	"class":     true,
	"if":        true,
	"else":      true,
	"while":     true,
	"return":    true,
	"true":      true,
	"false":     true,
	"public":    true,
	"private":   true,
	"protected": true,
	"static":    true,
}

// Token represents a single token from the lexer. Line and Column are
// 1-based positions in the source.
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

func (t Token) String() string {
	return fmt.Sprintf("Token{%v, %q, %d:%d}", t.Type, t.Literal, t.Line, t.Column)
}
