package lang

import (
	"errors"
	"testing"
)

func tokenize(t *testing.T, src string) []Token {
	t.Helper()
	tokens, err := NewLexer("test.vd", src).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	return tokens
}

func kinds(tokens []Token) []TokenKind {
	out := make([]TokenKind, 0, len(tokens))
	for _, tok := range tokens {
		out = append(out, tok.Kind)
	}
	return out
}

func TestTokenizeAssignment(t *testing.T) {
	tokens := tokenize(t, `editor = "vim";`)

	want := []TokenKind{TokenSymbol, TokenEqual, TokenString, TokenSemi, TokenEOF}
	got := kinds(tokens)
	if len(got) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: expected %s, got %s", i, want[i], got[i])
		}
	}
	if tokens[0].Text != "editor" {
		t.Errorf("expected symbol text %q, got %q", "editor", tokens[0].Text)
	}
	if tokens[2].Text != "vim" {
		t.Errorf("expected string text %q, got %q", "vim", tokens[2].Text)
	}
}

func TestTokenizeNumber(t *testing.T) {
	tokens := tokenize(t, "42 3.5")
	if tokens[0].Num != 42 {
		t.Errorf("expected 42, got %v", tokens[0].Num)
	}
	if tokens[1].Num != 3.5 {
		t.Errorf("expected 3.5, got %v", tokens[1].Num)
	}
}

func TestTokenizeNumberDotNotFraction(t *testing.T) {
	// A dot with no digit after it terminates the number.
	tokens := tokenize(t, "4.x")
	if tokens[0].Kind != TokenNumber || tokens[0].Num != 4 {
		t.Fatalf("expected number 4, got %s %q", tokens[0].Kind, tokens[0].Text)
	}
	if tokens[1].Kind != TokenDot {
		t.Errorf("expected a dot after the number, got %s", tokens[1].Kind)
	}
}

func TestTokenizeBooleans(t *testing.T) {
	tokens := tokenize(t, "true false truthy")
	if tokens[0].Kind != TokenBool || tokens[0].Bool != true {
		t.Errorf("expected true literal, got %s", tokens[0].Kind)
	}
	if tokens[1].Kind != TokenBool || tokens[1].Bool != false {
		t.Errorf("expected false literal, got %s", tokens[1].Kind)
	}
	if tokens[2].Kind != TokenSymbol {
		t.Errorf("expected symbol, got %s", tokens[2].Kind)
	}
}

func TestTokenizePaths(t *testing.T) {
	cases := []struct {
		src  string
		text string
	}{
		{"/etc/fstab", "/etc/fstab"},
		{"./files/bashrc", "./files/bashrc"},
		{"~/.config/sway", "~/.config/sway"},
		{`./files/'with space'`, "./files/with space"},
	}
	for _, tc := range cases {
		tokens := tokenize(t, tc.src)
		if tokens[0].Kind != TokenPath {
			t.Errorf("%q: expected path, got %s", tc.src, tokens[0].Kind)
			continue
		}
		if tokens[0].Text != tc.text {
			t.Errorf("%q: expected text %q, got %q", tc.src, tc.text, tokens[0].Text)
		}
	}
}

func TestTokenizeComments(t *testing.T) {
	tokens := tokenize(t, "# a comment\nx = 1 # trailing\n")
	got := kinds(tokens)
	want := []TokenKind{TokenSymbol, TokenEqual, TokenNumber, TokenEOF}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestTokenizePositions(t *testing.T) {
	tokens := tokenize(t, "a = 1;\nb = 2;")
	if tokens[0].Pos.Line != 1 || tokens[0].Pos.Col != 1 {
		t.Errorf("expected 1:1 for first token, got %d:%d", tokens[0].Pos.Line, tokens[0].Pos.Col)
	}
	// tokens: a = 1 ; b ...
	b := tokens[4]
	if b.Text != "b" || b.Pos.Line != 2 || b.Pos.Col != 1 {
		t.Errorf("expected b at 2:1, got %q at %d:%d", b.Text, b.Pos.Line, b.Pos.Col)
	}
}

func TestTokenizeUnterminatedString(t *testing.T) {
	_, err := NewLexer("test.vd", `x = "oops`).Tokenize()
	if err == nil {
		t.Fatal("expected an error for an unterminated string")
	}
	var syntaxErr *SyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Fatalf("expected a SyntaxError, got %T", err)
	}
}

func TestTokenizeHyphenSymbols(t *testing.T) {
	tokens := tokenize(t, "gh-r allow_restricted")
	if tokens[0].Kind != TokenSymbol || tokens[0].Text != "gh-r" {
		t.Errorf("expected symbol gh-r, got %s %q", tokens[0].Kind, tokens[0].Text)
	}
	if tokens[1].Text != "allow_restricted" {
		t.Errorf("expected allow_restricted, got %q", tokens[1].Text)
	}
}
