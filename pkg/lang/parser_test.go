package lang

import (
	"errors"
	"testing"
)

func parse(t *testing.T, src string) []Expr {
	t.Helper()
	stmts, err := Parse("test.vd", src)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return stmts
}

func parseOne(t *testing.T, src string) Expr {
	t.Helper()
	stmts := parse(t, src)
	if len(stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(stmts))
	}
	return stmts[0]
}

func TestParseAssignment(t *testing.T) {
	assign, ok := parseOne(t, `editor = "vim";`).(*AssignExpr)
	if !ok {
		t.Fatal("expected an assignment")
	}
	target, ok := assign.Target.(*SymbolExpr)
	if !ok || target.Name != "editor" {
		t.Fatalf("expected symbol target editor, got %#v", assign.Target)
	}
	value, ok := assign.Value.(*StringLit)
	if !ok || value.Value != "vim" {
		t.Fatalf("expected string vim, got %#v", assign.Value)
	}
}

func TestParseMapLiteral(t *testing.T) {
	assign := parseOne(t, `cfg = { a = 1; b = true; };`).(*AssignExpr)
	m, ok := assign.Value.(*MapLit)
	if !ok {
		t.Fatalf("expected map literal, got %#v", assign.Value)
	}
	if len(m.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(m.Entries))
	}
	if m.Entries[0].Key != "a" || m.Entries[1].Key != "b" {
		t.Errorf("expected keys a,b in order, got %q,%q", m.Entries[0].Key, m.Entries[1].Key)
	}
	if _, ok := m.Entries[0].Value.(*NumberLit); !ok {
		t.Errorf("expected number for a, got %#v", m.Entries[0].Value)
	}
}

func TestParseMapDuplicateKey(t *testing.T) {
	_, err := Parse("test.vd", `cfg = { a = 1; a = 2; };`)
	var syntaxErr *SyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Fatalf("expected a SyntaxError for duplicate key, got %v", err)
	}
}

func TestParseListLiteral(t *testing.T) {
	assign := parseOne(t, `pkgs = [dmenu, firefox, "vim"];`).(*AssignExpr)
	list, ok := assign.Value.(*ListLit)
	if !ok {
		t.Fatalf("expected list literal, got %#v", assign.Value)
	}
	if len(list.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(list.Items))
	}
	if sym, ok := list.Items[0].(*SymbolExpr); !ok || sym.Name != "dmenu" {
		t.Errorf("expected symbol dmenu, got %#v", list.Items[0])
	}
}

func TestParseCall(t *testing.T) {
	assign := parseOne(t, `repo = gh-r "sapein" "void-packages";`).(*AssignExpr)
	call, ok := assign.Value.(*CallExpr)
	if !ok {
		t.Fatalf("expected call, got %#v", assign.Value)
	}
	if call.Name != "gh-r" {
		t.Errorf("expected call to gh-r, got %q", call.Name)
	}
	if len(call.Args) != 2 {
		t.Errorf("expected 2 arguments, got %d", len(call.Args))
	}
}

func TestParseCallBareArgsAreSymbols(t *testing.T) {
	// In argument position a bare symbol stays a symbol; nested calls
	// need parentheses.
	assign := parseOne(t, `x = join prefix suffix;`).(*AssignExpr)
	call := assign.Value.(*CallExpr)
	for i, arg := range call.Args {
		if _, ok := arg.(*SymbolExpr); !ok {
			t.Errorf("argument %d: expected symbol, got %#v", i, arg)
		}
	}
}

func TestParseNestedCallParenthesized(t *testing.T) {
	assign := parseOne(t, `x = join (home) "/.bashrc";`).(*AssignExpr)
	call := assign.Value.(*CallExpr)
	if len(call.Args) != 2 {
		t.Fatalf("expected 2 arguments, got %d", len(call.Args))
	}
	if inner, ok := call.Args[0].(*SymbolExpr); !ok || inner.Name != "home" {
		t.Errorf("expected parenthesized symbol home, got %#v", call.Args[0])
	}
}

func TestParseMapRef(t *testing.T) {
	assign := parseOne(t, `system.config = { };`).(*AssignExpr)
	ref, ok := assign.Target.(*MapRef)
	if !ok {
		t.Fatalf("expected map reference target, got %#v", assign.Target)
	}
	if ref.Base != "system" || ref.Field != "config" {
		t.Errorf("expected system.config, got %s.%s", ref.Base, ref.Field)
	}
}

func TestParseMapRefNumberIndex(t *testing.T) {
	_, err := Parse("test.vd", `x = system.0;`)
	var syntaxErr *SyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Fatalf("expected a SyntaxError for numeric map index, got %v", err)
	}
}

func TestParseListRef(t *testing.T) {
	assign := parseOne(t, `first = pkgs[0];`).(*AssignExpr)
	ref, ok := assign.Value.(*ListRef)
	if !ok {
		t.Fatalf("expected list reference, got %#v", assign.Value)
	}
	if ref.Base != "pkgs" || ref.Index != 0 {
		t.Errorf("expected pkgs[0], got %s[%d]", ref.Base, ref.Index)
	}
}

func TestParseListRefFractionalIndex(t *testing.T) {
	_, err := Parse("test.vd", `x = pkgs[1.5];`)
	var syntaxErr *SyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Fatalf("expected a SyntaxError for fractional index, got %v", err)
	}
}

func TestParseImport(t *testing.T) {
	imp, ok := parseOne(t, `import ./users.vd;`).(*ImportExpr)
	if !ok {
		t.Fatal("expected an import")
	}
	if imp.Path != "./users.vd" {
		t.Errorf("expected ./users.vd, got %q", imp.Path)
	}
}

func TestParseImportString(t *testing.T) {
	imp := parseOne(t, `import "users.vd";`).(*ImportExpr)
	if imp.Path != "users.vd" {
		t.Errorf("expected users.vd, got %q", imp.Path)
	}
}

func TestParseUnclosedMap(t *testing.T) {
	_, err := Parse("test.vd", `cfg = { a = 1;`)
	var syntaxErr *SyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Fatalf("expected a SyntaxError for unclosed map, got %v", err)
	}
}

func TestParseProgramMultipleStatements(t *testing.T) {
	stmts := parse(t, "a = 1;\nb = 2;\nsystem.config = { };")
	if len(stmts) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(stmts))
	}
}

func TestSyntaxErrorMentionsPosition(t *testing.T) {
	_, err := Parse("bad.vd", "cfg = { a = 1; a = 2; };")
	if err == nil {
		t.Fatal("expected an error")
	}
	var syntaxErr *SyntaxError
	if !errors.As(err, &syntaxErr) {
		t.Fatalf("expected a SyntaxError, got %T", err)
	}
	if syntaxErr.File != "bad.vd" || syntaxErr.Pos.Line == 0 {
		t.Errorf("error carries no position: %v", syntaxErr)
	}
}
