package lang

import "math"

// Parse tokenizes and parses configuration source text into a sequence of
// top-level expressions. The file name is used for error reporting only.
func Parse(file, src string) ([]Expr, error) {
	tokens, err := NewLexer(file, src).Tokenize()
	if err != nil {
		return nil, err
	}
	p := &Parser{file: file, tokens: tokens}
	return p.parseProgram()
}

// Parser is a single-pass recursive-descent parser over a token stream.
// The grammar has unambiguous prefixes, so one token of lookahead is
// enough everywhere except list references, which peek one further to
// tell `sym[0]` from a call with a list argument.
type Parser struct {
	file   string
	tokens []Token
	pos    int
}

func (p *Parser) cur() Token {
	if p.pos >= len(p.tokens) {
		return Token{Kind: TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peek() Token {
	if p.pos+1 >= len(p.tokens) {
		return Token{Kind: TokenEOF}
	}
	return p.tokens[p.pos+1]
}

func (p *Parser) advance() Token {
	tok := p.cur()
	p.pos++
	return tok
}

func (p *Parser) errHere(format string, args ...interface{}) *SyntaxError {
	tok := p.cur()
	return syntaxErr(p.file, tok.Pos, tok.Text, format, args...)
}

func (p *Parser) parseProgram() ([]Expr, error) {
	var stmts []Expr
	for {
		if p.cur().Kind == TokenEOF {
			return stmts, nil
		}
		if p.cur().Kind == TokenSemi {
			p.advance()
			continue
		}
		stmt, err := p.parseExpr(false)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
}

// parseExpr parses one expression. When argPos is true the expression is
// an argument to an enclosing call: bare symbols stay symbols and nested
// calls require parentheses.
func (p *Parser) parseExpr(argPos bool) (Expr, error) {
	tok := p.cur()
	switch tok.Kind {
	case TokenString:
		p.advance()
		return &StringLit{node: node{tok.Pos}, Value: tok.Text}, nil

	case TokenNumber:
		p.advance()
		return &NumberLit{node: node{tok.Pos}, Value: tok.Num}, nil

	case TokenBool:
		p.advance()
		return &BoolLit{node: node{tok.Pos}, Value: tok.Bool}, nil

	case TokenPath:
		p.advance()
		return &PathExpr{node: node{tok.Pos}, Value: tok.Text}, nil

	case TokenLBrace:
		return p.parseMap()

	case TokenLBracket:
		return p.parseList()

	case TokenLParen:
		p.advance()
		inner, err := p.parseExpr(false)
		if err != nil {
			return nil, err
		}
		if p.cur().Kind != TokenRParen {
			return nil, p.errHere("expected ')' to close parenthesized expression")
		}
		p.advance()
		return inner, nil

	case TokenSymbol:
		return p.parseSymbol(argPos)
	}
	return nil, p.errHere("expected an expression, found %s", tok.Kind)
}

// parseSymbol parses everything that starts with a symbol: a plain
// reference, a map/list reference, an assignment, an import, or a call.
func (p *Parser) parseSymbol(argPos bool) (Expr, error) {
	sym := p.advance()

	if sym.Text == "import" {
		next := p.cur()
		switch next.Kind {
		case TokenPath, TokenString:
			p.advance()
			return &ImportExpr{node: node{sym.Pos}, Path: next.Text}, nil
		}
		return nil, p.errHere("import requires a path")
	}

	switch p.cur().Kind {
	case TokenDot:
		return p.parseMapRef(sym, argPos)

	case TokenLBracket:
		// `sym[<int>]` is a list reference. Anything else after `[`
		// means the bracket opens a list literal argument of a call.
		if p.peek().Kind == TokenNumber {
			return p.parseListRef(sym, argPos)
		}
		if argPos {
			return &SymbolExpr{node: node{sym.Pos}, Name: sym.Text}, nil
		}
		return p.parseCall(sym)

	case TokenEqual:
		if argPos {
			return &SymbolExpr{node: node{sym.Pos}, Name: sym.Text}, nil
		}
		p.advance()
		value, err := p.parseExpr(false)
		if err != nil {
			return nil, err
		}
		target := &SymbolExpr{node: node{sym.Pos}, Name: sym.Text}
		return &AssignExpr{node: node{sym.Pos}, Target: target, Value: value}, nil

	case TokenSemi, TokenComma, TokenRBrace, TokenRBracket, TokenRParen, TokenEOF:
		return &SymbolExpr{node: node{sym.Pos}, Name: sym.Text}, nil
	}

	if argPos {
		return &SymbolExpr{node: node{sym.Pos}, Name: sym.Text}, nil
	}
	return p.parseCall(sym)
}

func (p *Parser) parseMapRef(sym Token, argPos bool) (Expr, error) {
	p.advance() // '.'
	field := p.cur()
	switch field.Kind {
	case TokenSymbol:
	case TokenNumber:
		return nil, p.errHere("cannot index map %q with a number", sym.Text)
	default:
		return nil, p.errHere("malformed map reference on %q", sym.Text)
	}
	p.advance()

	ref := &MapRef{node: node{sym.Pos}, Base: sym.Text, Field: field.Text}
	if p.cur().Kind == TokenEqual && !argPos {
		p.advance()
		value, err := p.parseExpr(false)
		if err != nil {
			return nil, err
		}
		return &AssignExpr{node: node{sym.Pos}, Target: ref, Value: value}, nil
	}
	return ref, nil
}

func (p *Parser) parseListRef(sym Token, argPos bool) (Expr, error) {
	p.advance() // '['
	idx := p.cur()
	if idx.Num != math.Trunc(idx.Num) {
		return nil, p.errHere("cannot index list %q with a non-integer", sym.Text)
	}
	p.advance()
	if p.cur().Kind != TokenRBracket {
		return nil, p.errHere("expected ']' to close list reference on %q", sym.Text)
	}
	p.advance()

	ref := &ListRef{node: node{sym.Pos}, Base: sym.Text, Index: int(idx.Num)}
	if p.cur().Kind == TokenEqual && !argPos {
		p.advance()
		value, err := p.parseExpr(false)
		if err != nil {
			return nil, err
		}
		return &AssignExpr{node: node{sym.Pos}, Target: ref, Value: value}, nil
	}
	return ref, nil
}

// parseCall parses a builtin invocation. Arguments run until a structural
// terminator; nested calls must be parenthesized.
func (p *Parser) parseCall(name Token) (Expr, error) {
	call := &CallExpr{node: node{name.Pos}, Name: name.Text}
	for {
		switch p.cur().Kind {
		case TokenSemi, TokenComma, TokenRParen, TokenRBrace, TokenRBracket, TokenEOF:
			return call, nil
		}
		arg, err := p.parseExpr(true)
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)
	}
}

func (p *Parser) parseMap() (Expr, error) {
	open := p.advance() // '{'
	m := &MapLit{node: node{open.Pos}}
	seen := make(map[string]bool)
	for {
		switch p.cur().Kind {
		case TokenSemi:
			p.advance()
			continue
		case TokenRBrace:
			p.advance()
			return m, nil
		case TokenEOF:
			return nil, syntaxErr(p.file, open.Pos, "{", "map opened but never closed")
		}

		key := p.cur()
		if key.Kind != TokenSymbol {
			return nil, p.errHere("expected a symbol at key position in map")
		}
		if seen[key.Text] {
			return nil, p.errHere("duplicate key %q in map", key.Text)
		}
		seen[key.Text] = true
		p.advance()

		if p.cur().Kind != TokenEqual {
			return nil, p.errHere("expected '=' after map key %q", key.Text)
		}
		p.advance()

		value, err := p.parseExpr(false)
		if err != nil {
			return nil, err
		}
		m.Entries = append(m.Entries, MapEntry{Key: key.Text, KeyPos: key.Pos, Value: value})
	}
}

func (p *Parser) parseList() (Expr, error) {
	open := p.advance() // '['
	list := &ListLit{node: node{open.Pos}}
	for {
		switch p.cur().Kind {
		case TokenComma:
			p.advance()
			continue
		case TokenRBracket:
			p.advance()
			return list, nil
		case TokenEOF:
			return nil, syntaxErr(p.file, open.Pos, "[", "list opened but never closed")
		}
		// Items are in argument position: bare symbols stay symbols,
		// so `[dmenu firefox]` is two items, not a call.
		item, err := p.parseExpr(true)
		if err != nil {
			return nil, err
		}
		list.Items = append(list.Items, item)
	}
}
