package eval

// Scope is a symbol table. Lookups fall through to the parent scope;
// bindings always land in the scope they are made in. Redeclaring an
// existing symbol overwrites it (last write wins).
type Scope struct {
	vars   map[string]Value
	parent *Scope
}

// NewScope returns an empty scope with no parent.
func NewScope() *Scope {
	return &Scope{vars: make(map[string]Value)}
}

// Child returns a new scope whose lookups fall through to s.
func (s *Scope) Child() *Scope {
	return &Scope{vars: make(map[string]Value), parent: s}
}

// Lookup resolves name in this scope or any ancestor.
func (s *Scope) Lookup(name string) (Value, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Bind binds name to v in this scope.
func (s *Scope) Bind(name string, v Value) {
	s.vars[name] = v
}

// Names returns the symbols bound directly in this scope, in no
// particular order.
func (s *Scope) Names() []string {
	names := make([]string, 0, len(s.vars))
	for name := range s.vars {
		names = append(names, name)
	}
	return names
}
