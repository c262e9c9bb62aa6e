package lang

// Expr is a node in the abstract syntax tree. Every node records the
// position of its first token for error reporting.
type Expr interface {
	Pos() Pos
}

type node struct {
	pos Pos
}

func (n node) Pos() Pos { return n.pos }

// StringLit is a quoted string literal.
type StringLit struct {
	node
	Value string
}

// NumberLit is a non-negative numeric literal.
type NumberLit struct {
	node
	Value float64
}

// BoolLit is a `true` or `false` literal.
type BoolLit struct {
	node
	Value bool
}

// SymbolExpr is a bare identifier.
type SymbolExpr struct {
	node
	Name string
}

// PathExpr is an absolute or relative filesystem path.
type PathExpr struct {
	node
	Value string
}

// Relative reports whether the path is relative (`./...`).
func (p *PathExpr) Relative() bool {
	return len(p.Value) > 0 && p.Value[0] == '.'
}

// MapEntry is one (key, value) pair in a map literal. Entry order is
// preserved; keys are unique within a map.
type MapEntry struct {
	Key    string
	KeyPos Pos
	Value  Expr
}

// MapLit is an ordered map literal: `{ key = expr; ... }`.
type MapLit struct {
	node
	Entries []MapEntry
}

// ListLit is an ordered list literal: `[ expr, ... ]`.
type ListLit struct {
	node
	Items []Expr
}

// CallExpr is a builtin invocation: a symbol followed by argument
// expressions. Arity and types are checked at evaluation time.
type CallExpr struct {
	node
	Name string
	Args []Expr
}

// MapRef references a field of a named map: `base.field`.
type MapRef struct {
	node
	Base  string
	Field string
}

// ListRef references an element of a named list by index: `base[i]`.
type ListRef struct {
	node
	Base  string
	Index int
}

// AssignExpr binds a value to a symbol or mutates a field through a
// map or list reference. Target is a *SymbolExpr, *MapRef, or *ListRef.
type AssignExpr struct {
	node
	Target Expr
	Value  Expr
}

// ImportExpr splices another file's bindings into the current scope.
type ImportExpr struct {
	node
	Path string
}
