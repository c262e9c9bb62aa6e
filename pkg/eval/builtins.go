package eval

import (
	"path"
	"strings"

	"github.com/veld-sh/veld/pkg/lang"
)

// builtinDef describes one entry of the fixed builtin table. The table is
// closed: the language has no user-defined functions, which guarantees
// that evaluation terminates and stays free of side effects.
type builtinDef struct {
	name      string
	signature string
	fn        func(c *callCtx) (Value, error)
}

// callCtx carries one builtin invocation: the evaluated arguments plus
// the call site, for error reporting.
type callCtx struct {
	def  *builtinDef
	file string
	pos  lang.Pos
	args []Value
}

// badArgs builds the standard wrong-arity/wrong-type error for the call.
func (c *callCtx) badArgs() error {
	return &BuiltinArgumentError{
		Func:      c.def.name,
		Signature: c.def.signature,
		Received:  c.args,
		Pos:       c.pos,
		File:      c.file,
	}
}

// str returns argument i as a string. Symbols are accepted where strings
// are expected so that previously bound names read naturally.
func (c *callCtx) str(i int) (string, bool) {
	if i >= len(c.args) {
		return "", false
	}
	switch v := c.args[i].(type) {
	case String:
		return string(v), true
	case Symbol:
		return string(v), true
	}
	return "", false
}

func (c *callCtx) pathArg(i int) (Path, bool) {
	if i >= len(c.args) {
		return "", false
	}
	switch v := c.args[i].(type) {
	case Path:
		return v, true
	case String:
		return Path(v), true
	}
	return "", false
}

var builtins = map[string]*builtinDef{}

func register(def *builtinDef, aliases ...string) {
	builtins[def.name] = def
	for _, alias := range aliases {
		builtins[alias] = def
	}
}

func init() {
	register(&builtinDef{
		name:      "github-repo",
		signature: "(user: string, repo: string, branch?: string)",
		fn:        builtinGitHubRepo,
	}, "gh-r")
	register(&builtinDef{
		name:      "voidpackages-repo",
		signature: "(user: string, branch?: string)",
		fn:        builtinVoidPackagesRepo,
	}, "vp-r")
	register(&builtinDef{
		name:      "git-repo",
		signature: "(url: string, branch?: string)",
		fn:        builtinGitRepo,
	})
	register(&builtinDef{
		name:      "local-repo",
		signature: "(path: path)",
		fn:        builtinLocalRepo,
	})
	register(&builtinDef{
		name:      "home",
		signature: "(segments: string...)",
		fn:        builtinHome,
	})
	register(&builtinDef{
		name:      "join",
		signature: "(separator: string, items: list)",
		fn:        builtinJoin,
	})
	register(&builtinDef{
		name:      "replace",
		signature: "(old: string, new: string, in: string)",
		fn:        builtinReplace,
	})
	register(&builtinDef{
		name:      "insert-line",
		signature: "(file: path, line: string)",
		fn:        builtinInsertLine,
	})
	register(&builtinDef{
		name:      "use-file",
		signature: "(source: path, repo?: repository)",
		fn:        builtinUseFile,
	})
}

func builtinGitHubRepo(c *callCtx) (Value, error) {
	if len(c.args) < 2 || len(c.args) > 3 {
		return nil, c.badArgs()
	}
	user, ok := c.str(0)
	if !ok {
		return nil, c.badArgs()
	}
	repo, ok := c.str(1)
	if !ok {
		return nil, c.badArgs()
	}
	ref := &RepoRef{RepoKind: RepoGitHub, Owner: user, Name: repo}
	if len(c.args) == 3 {
		branch, ok := c.str(2)
		if !ok {
			return nil, c.badArgs()
		}
		ref.Branch = branch
	}
	return ref, nil
}

// voidPackagesRepoName is the conventional name of a void-packages fork.
const voidPackagesRepoName = "void-packages"

func builtinVoidPackagesRepo(c *callCtx) (Value, error) {
	if len(c.args) < 1 || len(c.args) > 2 {
		return nil, c.badArgs()
	}
	user, ok := c.str(0)
	if !ok {
		return nil, c.badArgs()
	}
	ref := &RepoRef{RepoKind: RepoGitHub, Owner: user, Name: voidPackagesRepoName}
	if len(c.args) == 2 {
		branch, ok := c.str(1)
		if !ok {
			return nil, c.badArgs()
		}
		ref.Branch = branch
	}
	return ref, nil
}

func builtinGitRepo(c *callCtx) (Value, error) {
	if len(c.args) < 1 || len(c.args) > 2 {
		return nil, c.badArgs()
	}
	url, ok := c.str(0)
	if !ok {
		return nil, c.badArgs()
	}
	ref := &RepoRef{RepoKind: RepoGit, URL: url}
	if len(c.args) == 2 {
		branch, ok := c.str(1)
		if !ok {
			return nil, c.badArgs()
		}
		ref.Branch = branch
	}
	return ref, nil
}

func builtinLocalRepo(c *callCtx) (Value, error) {
	if len(c.args) != 1 {
		return nil, c.badArgs()
	}
	p, ok := c.pathArg(0)
	if !ok {
		return nil, c.badArgs()
	}
	return &RepoRef{RepoKind: RepoLocal, Path: string(p)}, nil
}

// builtinHome joins its arguments into a path under the target user's
// home directory. Resolution of `~` happens at execution time, not here.
func builtinHome(c *callCtx) (Value, error) {
	segments := make([]string, 0, len(c.args)+1)
	segments = append(segments, "~")
	for i := range c.args {
		switch v := c.args[i].(type) {
		case String:
			segments = append(segments, string(v))
		case Symbol:
			segments = append(segments, string(v))
		case Path:
			segments = append(segments, strings.TrimPrefix(string(v), "./"))
		default:
			return nil, c.badArgs()
		}
	}
	return Path(path.Join(segments...)), nil
}

func builtinJoin(c *callCtx) (Value, error) {
	if len(c.args) != 2 {
		return nil, c.badArgs()
	}
	sep, ok := c.str(0)
	if !ok {
		return nil, c.badArgs()
	}
	list, ok := c.args[1].(List)
	if !ok {
		return nil, c.badArgs()
	}
	parts := make([]string, 0, len(list))
	for _, item := range list {
		switch v := item.(type) {
		case String:
			parts = append(parts, string(v))
		case Symbol:
			parts = append(parts, string(v))
		case Path:
			parts = append(parts, string(v))
		case Number:
			parts = append(parts, Format(v))
		case Bool:
			parts = append(parts, Format(v))
		default:
			return nil, c.badArgs()
		}
	}
	return String(strings.Join(parts, sep)), nil
}

func builtinReplace(c *callCtx) (Value, error) {
	if len(c.args) != 3 {
		return nil, c.badArgs()
	}
	old, ok := c.str(0)
	if !ok {
		return nil, c.badArgs()
	}
	repl, ok := c.str(1)
	if !ok {
		return nil, c.badArgs()
	}
	in, ok := c.str(2)
	if !ok {
		return nil, c.badArgs()
	}
	return String(strings.ReplaceAll(in, old, repl)), nil
}

func builtinInsertLine(c *callCtx) (Value, error) {
	if len(c.args) != 2 {
		return nil, c.badArgs()
	}
	target, ok := c.pathArg(0)
	if !ok {
		return nil, c.badArgs()
	}
	line, ok := c.str(1)
	if !ok {
		return nil, c.badArgs()
	}
	return &FileEdit{Target: target, Line: line}, nil
}

func builtinUseFile(c *callCtx) (Value, error) {
	if len(c.args) < 1 || len(c.args) > 2 {
		return nil, c.badArgs()
	}
	src, ok := c.pathArg(0)
	if !ok {
		return nil, c.badArgs()
	}
	use := &FileUse{Source: src}
	if len(c.args) == 2 {
		repo, ok := c.args[1].(*RepoRef)
		if !ok {
			return nil, c.badArgs()
		}
		use.Repo = repo
	}
	return use, nil
}
