package lang

import (
	"strconv"
	"strings"
	"unicode"
)

// Lexer turns configuration source text into a stream of tokens.
// Whitespace and comments (`#` to end of line) carry no semantic value
// and are discarded.
type Lexer struct {
	file  string
	input []rune
	pos   int

	line int
	col  int
}

// NewLexer creates a lexer for the given source. The file name is used
// only for error reporting.
func NewLexer(file, src string) *Lexer {
	return &Lexer{
		file:  file,
		input: []rune(src),
		line:  1,
		col:   1,
	}
}

// Tokenize consumes the entire input and returns the token stream,
// terminated by a TokenEOF token.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == TokenEOF {
			return tokens, nil
		}
	}
}

func (l *Lexer) cur() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) peek() rune {
	if l.pos+1 >= len(l.input) {
		return 0
	}
	return l.input[l.pos+1]
}

func (l *Lexer) advance() {
	if l.pos < len(l.input) && l.input[l.pos] == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	l.pos++
}

func (l *Lexer) here() Pos {
	return Pos{Line: l.line, Col: l.col}
}

// next scans and returns the next token.
func (l *Lexer) next() (Token, error) {
	// Skip whitespace and comments.
	for {
		c := l.cur()
		if c == '#' {
			for l.cur() != '\n' && l.cur() != 0 {
				l.advance()
			}
			continue
		}
		if c != 0 && unicode.IsSpace(c) {
			l.advance()
			continue
		}
		break
	}

	pos := l.here()
	c := l.cur()

	switch {
	case c == 0:
		return Token{Kind: TokenEOF, Pos: pos}, nil

	case c == '\'' || c == '"':
		return l.scanString(pos, c)

	case c >= '0' && c <= '9':
		return l.scanNumber(pos)

	case c == '/' || c == '~':
		return l.scanPath(pos)

	case c == '.':
		if l.peek() == '/' {
			return l.scanPath(pos)
		}
		l.advance()
		return Token{Kind: TokenDot, Text: ".", Pos: pos}, nil

	case isSymbolStart(c):
		return l.scanSymbol(pos)
	}

	var kind TokenKind
	switch c {
	case '{':
		kind = TokenLBrace
	case '}':
		kind = TokenRBrace
	case '[':
		kind = TokenLBracket
	case ']':
		kind = TokenRBracket
	case '(':
		kind = TokenLParen
	case ')':
		kind = TokenRParen
	case '=':
		kind = TokenEqual
	case ';':
		kind = TokenSemi
	case ',':
		kind = TokenComma
	default:
		return Token{}, syntaxErr(l.file, pos, string(c), "unexpected character")
	}
	l.advance()
	return Token{Kind: kind, Text: string(c), Pos: pos}, nil
}

// scanString scans a quoted string. Newlines are permitted inside; there
// are no escape sequences.
func (l *Lexer) scanString(pos Pos, quote rune) (Token, error) {
	l.advance() // opening quote
	var sb strings.Builder
	for {
		c := l.cur()
		if c == 0 {
			return Token{}, syntaxErr(l.file, pos, sb.String(), "string opened but never closed")
		}
		if c == quote {
			l.advance()
			return Token{Kind: TokenString, Text: sb.String(), Pos: pos}, nil
		}
		sb.WriteRune(c)
		l.advance()
	}
}

// scanNumber scans a non-negative number with an optional fractional part.
func (l *Lexer) scanNumber(pos Pos) (Token, error) {
	var sb strings.Builder
	for l.cur() >= '0' && l.cur() <= '9' {
		sb.WriteRune(l.cur())
		l.advance()
	}
	if l.cur() == '.' && l.peek() >= '0' && l.peek() <= '9' {
		sb.WriteRune('.')
		l.advance()
		for l.cur() >= '0' && l.cur() <= '9' {
			sb.WriteRune(l.cur())
			l.advance()
		}
	}
	text := sb.String()
	num, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Token{}, syntaxErr(l.file, pos, text, "malformed number")
	}
	return Token{Kind: TokenNumber, Text: text, Num: num, Pos: pos}, nil
}

// scanPath scans an absolute (`/...`), home-relative (`~/...`), or
// relative (`./...`) path token.
// Quoted segments are spliced in verbatim, so `/root/'a dir'/x` is one path.
func (l *Lexer) scanPath(pos Pos) (Token, error) {
	var sb strings.Builder
	if l.cur() == '.' {
		sb.WriteRune('.')
		l.advance()
	}
	for {
		c := l.cur()
		switch {
		case c == '\'' || c == '"':
			tok, err := l.scanString(l.here(), c)
			if err != nil {
				return Token{}, err
			}
			sb.WriteString(tok.Text)
		case isPathRune(c):
			sb.WriteRune(c)
			l.advance()
		default:
			return Token{Kind: TokenPath, Text: sb.String(), Pos: pos}, nil
		}
	}
}

// scanSymbol scans an identifier, the `true`/`false` literals included.
// Hyphens are valid inside a symbol but a symbol never ends with one.
func (l *Lexer) scanSymbol(pos Pos) (Token, error) {
	var sb strings.Builder
	sb.WriteRune(l.cur())
	l.advance()
	for {
		c := l.cur()
		if isSymbolRune(c) {
			sb.WriteRune(c)
			l.advance()
			continue
		}
		if c == '-' && isSymbolRune(l.peek()) {
			sb.WriteRune(c)
			l.advance()
			continue
		}
		break
	}
	text := sb.String()
	switch text {
	case "true":
		return Token{Kind: TokenBool, Text: text, Bool: true, Pos: pos}, nil
	case "false":
		return Token{Kind: TokenBool, Text: text, Bool: false, Pos: pos}, nil
	}
	return Token{Kind: TokenSymbol, Text: text, Pos: pos}, nil
}

func isSymbolStart(c rune) bool {
	return c == '_' || unicode.IsLetter(c)
}

func isSymbolRune(c rune) bool {
	return c == '_' || unicode.IsLetter(c) || unicode.IsDigit(c)
}

func isPathRune(c rune) bool {
	switch c {
	case '/', '.', '-', '_', '~':
		return true
	}
	return unicode.IsLetter(c) || unicode.IsDigit(c)
}
