package eval

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is an evaluated configuration value. The concrete types are
// String, Number, Bool, Symbol, Path, *Map, List, *RepoRef, *FileEdit,
// and *FileUse. Values are immutable once evaluation completes.
type Value interface {
	// Kind returns the value kind name used in error messages.
	Kind() string
}

// String is a string value.
type String string

func (String) Kind() string { return "string" }

// Number is a non-negative numeric value.
type Number float64

func (Number) Kind() string { return "number" }

// Bool is a boolean value.
type Bool bool

func (Bool) Kind() string { return "boolean" }

// Symbol is an unresolved identifier value, produced when a bare symbol
// is used in data position (e.g. a package name inside a list).
type Symbol string

func (Symbol) Kind() string { return "symbol" }

// Path is a filesystem path value. Paths beginning with `~` are resolved
// against the target user's home directory at execution time.
type Path string

func (Path) Kind() string { return "path" }

// List is an ordered sequence of values.
type List []Value

func (List) Kind() string { return "list" }

// Map is an ordered mapping from symbol to value. Insertion order is
// preserved so that derived plans are deterministic and diff-friendly.
type Map struct {
	keys  []string
	index map[string]int
	vals  []Value
}

func (*Map) Kind() string { return "map" }

// NewMap returns an empty ordered map.
func NewMap() *Map {
	return &Map{index: make(map[string]int)}
}

// Len returns the number of entries.
func (m *Map) Len() int { return len(m.keys) }

// Keys returns the keys in insertion order. The slice must not be mutated.
func (m *Map) Keys() []string { return m.keys }

// Get returns the value bound to key, if present.
func (m *Map) Get(key string) (Value, bool) {
	i, ok := m.index[key]
	if !ok {
		return nil, false
	}
	return m.vals[i], true
}

// Set binds key to value, appending a new entry or overwriting in place.
func (m *Map) Set(key string, v Value) {
	if i, ok := m.index[key]; ok {
		m.vals[i] = v
		return
	}
	m.index[key] = len(m.keys)
	m.keys = append(m.keys, key)
	m.vals = append(m.vals, v)
}

// RepoKind identifies how a package repository is sourced.
type RepoKind string

const (
	// RepoGitHub is a repository hosted on GitHub, addressed by owner/name.
	RepoGitHub RepoKind = "github"

	// RepoGit is a repository addressed by a plain git URL.
	RepoGit RepoKind = "git"

	// RepoLocal is a local checkout of a source-package tree.
	RepoLocal RepoKind = "local"
)

// RepoRef is a handle on a git or void-packages repository, produced by
// the repository-constructor builtins.
type RepoRef struct {
	RepoKind RepoKind

	// Owner and Name address GitHub repositories.
	Owner string
	Name  string

	// URL addresses plain git repositories.
	URL string

	// Path addresses local checkouts.
	Path string

	// Branch is the branch to track, empty for the default branch.
	Branch string
}

func (*RepoRef) Kind() string { return "repository" }

// Display returns a short human-readable form of the reference.
func (r *RepoRef) Display() string {
	switch r.RepoKind {
	case RepoGitHub:
		s := "github.com/" + r.Owner + "/" + r.Name
		if r.Branch != "" {
			s += "@" + r.Branch
		}
		return s
	case RepoGit:
		if r.Branch != "" {
			return r.URL + "@" + r.Branch
		}
		return r.URL
	default:
		return r.Path
	}
}

// FileEdit is a file-line insertion directive produced by the
// `insert-line` builtin.
type FileEdit struct {
	Target Path
	Line   string
}

func (*FileEdit) Kind() string { return "file-edit" }

// FileUse is a configuration-source directive produced by the `use-file`
// builtin: install the named source file, optionally pulled from a
// repository, at a package's configuration location.
type FileUse struct {
	Source Path
	Repo   *RepoRef
}

func (*FileUse) Kind() string { return "file-use" }

// Render converts a value tree into plain Go types (string, float64,
// bool, []interface{}, map-slices) suitable for YAML or JSON output.
func Render(v Value) interface{} {
	switch t := v.(type) {
	case String:
		return string(t)
	case Number:
		return float64(t)
	case Bool:
		return bool(t)
	case Symbol:
		return string(t)
	case Path:
		return string(t)
	case List:
		out := make([]interface{}, 0, len(t))
		for _, item := range t {
			out = append(out, Render(item))
		}
		return out
	case *Map:
		out := make(map[string]interface{}, t.Len())
		for _, k := range t.Keys() {
			val, _ := t.Get(k)
			out[k] = Render(val)
		}
		return out
	case *RepoRef:
		return t.Display()
	case *FileEdit:
		return fmt.Sprintf("insert-line %s %q", t.Target, t.Line)
	case *FileUse:
		if t.Repo != nil {
			return fmt.Sprintf("use-file %s (%s)", t.Source, t.Repo.Display())
		}
		return fmt.Sprintf("use-file %s", t.Source)
	case nil:
		return nil
	}
	return fmt.Sprintf("%v", v)
}

// Format returns a compact textual rendering of a value, used in error
// messages and logs.
func Format(v Value) string {
	switch t := v.(type) {
	case String:
		return strconv.Quote(string(t))
	case Number:
		return strconv.FormatFloat(float64(t), 'f', -1, 64)
	case Bool:
		return strconv.FormatBool(bool(t))
	case Symbol:
		return string(t)
	case Path:
		return string(t)
	case List:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, Format(item))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *Map:
		parts := make([]string, 0, t.Len())
		for _, k := range t.Keys() {
			val, _ := t.Get(k)
			parts = append(parts, k+" = "+Format(val))
		}
		return "{ " + strings.Join(parts, "; ") + " }"
	case *RepoRef:
		return t.Display()
	case nil:
		return "<nil>"
	}
	return fmt.Sprintf("<%s>", v.Kind())
}

// Equal reports deep equality of two values. Map comparison respects
// entry order, matching the determinism guarantee of evaluation.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Number:
		bv, ok := b.(Number)
		return ok && av == bv
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case Symbol:
		bv, ok := b.(Symbol)
		return ok && av == bv
	case Path:
		bv, ok := b.(Path)
		return ok && av == bv
	case List:
		bv, ok := b.(List)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case *Map:
		bv, ok := b.(*Map)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		for i, k := range av.keys {
			if bv.keys[i] != k {
				return false
			}
			x, _ := av.Get(k)
			y, _ := bv.Get(k)
			if !Equal(x, y) {
				return false
			}
		}
		return true
	case *RepoRef:
		bv, ok := b.(*RepoRef)
		return ok && *av == *bv
	case *FileEdit:
		bv, ok := b.(*FileEdit)
		return ok && *av == *bv
	case *FileUse:
		bv, ok := b.(*FileUse)
		if !ok || av.Source != bv.Source {
			return false
		}
		if (av.Repo == nil) != (bv.Repo == nil) {
			return false
		}
		return av.Repo == nil || *av.Repo == *bv.Repo
	case nil:
		return b == nil
	}
	return false
}
