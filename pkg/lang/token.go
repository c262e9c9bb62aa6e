package lang

import "fmt"

// TokenKind identifies the lexical class of a token.
type TokenKind int

const (
	// TokenEOF marks the end of the input.
	TokenEOF TokenKind = iota

	// TokenString is a single- or double-quoted string literal.
	// No escape sequences are recognized; newlines are permitted inside.
	TokenString

	// TokenNumber is a non-negative number with an optional fractional part.
	TokenNumber

	// TokenBool is the literal `true` or `false`.
	TokenBool

	// TokenSymbol is an identifier: a letter or underscore followed by
	// letters, digits, underscores, or interior hyphens.
	TokenSymbol

	// TokenPath is a filesystem path: `/...` absolute or `./...` relative.
	TokenPath

	TokenLBrace   // {
	TokenRBrace   // }
	TokenLBracket // [
	TokenRBracket // ]
	TokenLParen   // (
	TokenRParen   // )
	TokenEqual    // =
	TokenSemi     // ;
	TokenComma    // ,
	TokenDot      // .
)

var tokenNames = map[TokenKind]string{
	TokenEOF:      "end of input",
	TokenString:   "string",
	TokenNumber:   "number",
	TokenBool:     "boolean",
	TokenSymbol:   "symbol",
	TokenPath:     "path",
	TokenLBrace:   "'{'",
	TokenRBrace:   "'}'",
	TokenLBracket: "'['",
	TokenRBracket: "']'",
	TokenLParen:   "'('",
	TokenRParen:   "')'",
	TokenEqual:    "'='",
	TokenSemi:     "';'",
	TokenComma:    "','",
	TokenDot:      "'.'",
}

// String returns a human-readable name for the token kind.
func (k TokenKind) String() string {
	if name, ok := tokenNames[k]; ok {
		return name
	}
	return fmt.Sprintf("token(%d)", int(k))
}

// Pos is a position in a source file, 1-based.
type Pos struct {
	Line int
	Col  int
}

// Token is a single lexical token with its source position.
type Token struct {
	Kind TokenKind

	// Text is the raw source text of the token. For strings it excludes
	// the surrounding quotes.
	Text string

	// Num is the parsed value for TokenNumber tokens.
	Num float64

	// Bool is the parsed value for TokenBool tokens.
	Bool bool

	Pos Pos
}

// SyntaxError reports a malformed token stream or grammar violation,
// naming the offending token and its position.
type SyntaxError struct {
	File    string
	Pos     Pos
	Message string
	Token   string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("%s:%d:%d: %s (at %q)", e.File, e.Pos.Line, e.Pos.Col, e.Message, e.Token)
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Pos.Line, e.Pos.Col, e.Message)
}

func syntaxErr(file string, pos Pos, token string, format string, args ...interface{}) *SyntaxError {
	return &SyntaxError{
		File:    file,
		Pos:     pos,
		Message: fmt.Sprintf(format, args...),
		Token:   token,
	}
}
