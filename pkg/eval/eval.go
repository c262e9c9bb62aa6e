package eval

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/veld-sh/veld/pkg/lang"
)

// ImportResolver resolves `import` expressions. Given the file the import
// appears in and the import path, it returns a canonical identity for the
// imported file (used for cycle detection) and its parsed statements.
type ImportResolver interface {
	Resolve(fromFile, importPath string) (canonical string, stmts []lang.Expr, err error)
}

// FileResolver resolves imports against the filesystem, relative to the
// importing file's directory.
type FileResolver struct{}

// Resolve implements ImportResolver.
func (FileResolver) Resolve(fromFile, importPath string) (string, []lang.Expr, error) {
	resolved := importPath
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(filepath.Dir(fromFile), resolved)
	}
	canonical, err := filepath.Abs(resolved)
	if err != nil {
		return "", nil, err
	}
	src, err := os.ReadFile(canonical)
	if err != nil {
		return "", nil, err
	}
	stmts, err := lang.Parse(canonical, string(src))
	if err != nil {
		return "", nil, err
	}
	return canonical, stmts, nil
}

// Document is the evaluated desired-state document: the `system.config`
// tree plus the top-level symbol table it was built in. Documents are
// read-only after evaluation.
type Document struct {
	// Config is the desired-state root (`system.config`), an empty map
	// when the configuration never assigned it.
	Config *Map

	// Scope is the top-level symbol table.
	Scope *Scope
}

// Evaluator walks parsed statements and produces a Document. Evaluation
// is synchronous, single-threaded, and free of host side effects; all
// mutation is deferred to the reconciler and executor.
type Evaluator struct {
	resolver ImportResolver
	logger   zerolog.Logger
	scope    *Scope

	// stack is the chain of files on the current import resolution
	// path, used for back-edge (cycle) detection.
	stack []string
}

// NewEvaluator creates an evaluator with a standard scope: the `system`
// map is pre-seeded so `system.config = {...}` works without ceremony.
func NewEvaluator(resolver ImportResolver, logger zerolog.Logger) *Evaluator {
	scope := NewScope()
	scope.Bind("system", NewMap())
	return &Evaluator{
		resolver: resolver,
		logger:   logger.With().Str("component", "eval").Logger(),
		scope:    scope,
	}
}

// Scope exposes the evaluator's top-level scope, mainly for tests.
func (ev *Evaluator) Scope() *Scope { return ev.scope }

// EvalProgram evaluates top-level statements left to right and returns
// the resulting desired-state document.
func (ev *Evaluator) EvalProgram(file string, stmts []lang.Expr) (*Document, error) {
	ev.stack = append(ev.stack, file)
	defer func() { ev.stack = ev.stack[:len(ev.stack)-1] }()

	for _, stmt := range stmts {
		if err := ev.evalStmt(file, stmt); err != nil {
			return nil, err
		}
	}
	return ev.document()
}

// evalStmt evaluates one top-level statement. Imports are only legal
// here: in value position they have nothing to evaluate to.
func (ev *Evaluator) evalStmt(file string, stmt lang.Expr) error {
	if imp, ok := stmt.(*lang.ImportExpr); ok {
		return ev.evalImport(file, imp)
	}
	_, err := ev.evalExpr(file, stmt)
	return err
}

// EvalFile resolves, parses, and evaluates a configuration file.
func (ev *Evaluator) EvalFile(path string) (*Document, error) {
	canonical, stmts, err := ev.resolver.Resolve(".", path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return ev.EvalProgram(canonical, stmts)
}

// EvalValue evaluates a single expression in the evaluator's scope.
// Definition-unit compilation uses it to reduce a descriptor map without
// running a whole program.
func (ev *Evaluator) EvalValue(file string, e lang.Expr) (Value, error) {
	return ev.evalExpr(file, e)
}

func (ev *Evaluator) document() (*Document, error) {
	doc := &Document{Config: NewMap(), Scope: ev.scope}
	system, ok := ev.scope.Lookup("system")
	if !ok {
		return doc, nil
	}
	systemMap, ok := system.(*Map)
	if !ok {
		return nil, fmt.Errorf("`system` was rebound to a %s, expected a map", system.Kind())
	}
	if config, ok := systemMap.Get("config"); ok {
		configMap, ok := config.(*Map)
		if !ok {
			return nil, fmt.Errorf("`system.config` is a %s, expected a map", config.Kind())
		}
		doc.Config = configMap
	}
	return doc, nil
}

func (ev *Evaluator) evalExpr(file string, e lang.Expr) (Value, error) {
	switch t := e.(type) {
	case *lang.StringLit:
		return String(t.Value), nil

	case *lang.NumberLit:
		return Number(t.Value), nil

	case *lang.BoolLit:
		return Bool(t.Value), nil

	case *lang.PathExpr:
		return Path(t.Value), nil

	case *lang.SymbolExpr:
		// Bound symbols resolve to their value. An unbound symbol that
		// names a builtin is a zero-argument invocation (`home`); any
		// other unbound symbol is data (package names, slot names) and
		// stays symbolic.
		if v, ok := ev.scope.Lookup(t.Name); ok {
			return v, nil
		}
		if def, ok := builtins[t.Name]; ok {
			return def.fn(&callCtx{def: def, file: file, pos: t.Pos()})
		}
		return Symbol(t.Name), nil

	case *lang.MapLit:
		m := NewMap()
		for _, entry := range t.Entries {
			v, err := ev.evalExpr(file, entry.Value)
			if err != nil {
				return nil, err
			}
			if _, exists := m.Get(entry.Key); exists {
				return nil, evalErr(file, entry.KeyPos, "key %q collides with an earlier entry", entry.Key)
			}
			m.Set(entry.Key, v)
		}
		return m, nil

	case *lang.ListLit:
		list := make(List, 0, len(t.Items))
		for _, item := range t.Items {
			v, err := ev.evalExpr(file, item)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil

	case *lang.MapRef:
		base, ok := ev.scope.Lookup(t.Base)
		if !ok {
			return nil, evalErr(file, t.Pos(), "undefined symbol %q", t.Base)
		}
		m, ok := base.(*Map)
		if !ok {
			return nil, evalErr(file, t.Pos(), "%q is a %s, cannot access field %q", t.Base, base.Kind(), t.Field)
		}
		v, ok := m.Get(t.Field)
		if !ok {
			return nil, evalErr(file, t.Pos(), "map %q has no field %q", t.Base, t.Field)
		}
		return v, nil

	case *lang.ListRef:
		base, ok := ev.scope.Lookup(t.Base)
		if !ok {
			return nil, evalErr(file, t.Pos(), "undefined symbol %q", t.Base)
		}
		list, ok := base.(List)
		if !ok {
			return nil, evalErr(file, t.Pos(), "%q is a %s, cannot index it", t.Base, base.Kind())
		}
		if t.Index < 0 || t.Index >= len(list) {
			return nil, evalErr(file, t.Pos(), "index %d out of bounds for list %q (len %d)", t.Index, t.Base, len(list))
		}
		return list[t.Index], nil

	case *lang.CallExpr:
		return ev.evalCall(file, t)

	case *lang.AssignExpr:
		return ev.evalAssign(file, t)

	case *lang.ImportExpr:
		return nil, evalErr(file, t.Pos(), "import is only valid as a statement")
	}
	return nil, evalErr(file, e.Pos(), "unhandled expression")
}

func (ev *Evaluator) evalCall(file string, call *lang.CallExpr) (Value, error) {
	def, ok := builtins[call.Name]
	if !ok {
		return nil, evalErr(file, call.Pos(), "unknown function %q", call.Name)
	}
	args := make([]Value, 0, len(call.Args))
	for _, argExpr := range call.Args {
		v, err := ev.evalExpr(file, argExpr)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return def.fn(&callCtx{def: def, file: file, pos: call.Pos(), args: args})
}

func (ev *Evaluator) evalAssign(file string, assign *lang.AssignExpr) (Value, error) {
	value, err := ev.evalExpr(file, assign.Value)
	if err != nil {
		return nil, err
	}

	switch target := assign.Target.(type) {
	case *lang.SymbolExpr:
		ev.scope.Bind(target.Name, value)
		return value, nil

	case *lang.MapRef:
		base, ok := ev.scope.Lookup(target.Base)
		if !ok {
			return nil, evalErr(file, target.Pos(), "undefined symbol %q", target.Base)
		}
		m, ok := base.(*Map)
		if !ok {
			return nil, evalErr(file, target.Pos(), "%q is a %s, cannot assign field %q", target.Base, base.Kind(), target.Field)
		}
		m.Set(target.Field, value)
		return value, nil

	case *lang.ListRef:
		base, ok := ev.scope.Lookup(target.Base)
		if !ok {
			return nil, evalErr(file, target.Pos(), "undefined symbol %q", target.Base)
		}
		list, ok := base.(List)
		if !ok {
			return nil, evalErr(file, target.Pos(), "%q is a %s, cannot assign by index", target.Base, base.Kind())
		}
		if target.Index < 0 || target.Index >= len(list) {
			return nil, evalErr(file, target.Pos(), "index %d out of bounds for list %q (len %d)", target.Index, target.Base, len(list))
		}
		list[target.Index] = value
		return value, nil
	}
	return nil, evalErr(file, assign.Pos(), "invalid assignment target")
}

// evalImport resolves an imported file and splices its bindings into the
// current scope before evaluation continues. Cycles are detected by
// membership in the current resolution stack.
func (ev *Evaluator) evalImport(file string, imp *lang.ImportExpr) error {
	canonical, stmts, err := ev.resolver.Resolve(file, imp.Path)
	if err != nil {
		return evalErr(file, imp.Pos(), "unresolved import %q: %v", imp.Path, err)
	}

	for _, onStack := range ev.stack {
		if onStack == canonical {
			return &ImportCycleError{Stack: append(append([]string{}, ev.stack...), canonical)}
		}
	}

	ev.logger.Debug().Str("file", canonical).Msg("resolving import")

	ev.stack = append(ev.stack, canonical)
	defer func() { ev.stack = ev.stack[:len(ev.stack)-1] }()

	for _, stmt := range stmts {
		if err := ev.evalStmt(canonical, stmt); err != nil {
			return err
		}
	}
	return nil
}
