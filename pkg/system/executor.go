package system

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/veld-sh/veld/pkg/eval"
	"github.com/veld-sh/veld/pkg/reconcile"
)

// Executor applies one action at a time, returning a classified
// ExecutionFailure on error.
type Executor interface {
	Apply(ctx context.Context, action reconcile.Action) error
}

// XBPSExecutor applies actions through xbps, git, and the runit service
// directory. It is the only component that mutates the machine.
type XBPSExecutor struct {
	run    commandRunner
	logger zerolog.Logger

	// BaseDir resolves relative configuration sources; CacheDir holds
	// repository checkouts.
	BaseDir  string
	CacheDir string

	serviceDir string
	svDir      string

	// srcpkgs is the source-package checkout restricted installs build
	// in, set by the most recent AddRepo. Plans order a qualifying
	// AddRepo before any restricted Install.
	srcpkgs string
}

// NewXBPSExecutor creates an executor with a per-invocation timeout.
func NewXBPSExecutor(baseDir, cacheDir string, timeout time.Duration, logger zerolog.Logger) *XBPSExecutor {
	return &XBPSExecutor{
		run:        execRunner{timeout: timeout},
		logger:     logger.With().Str("component", "xbps-exec").Logger(),
		BaseDir:    baseDir,
		CacheDir:   cacheDir,
		serviceDir: "/var/service",
		svDir:      "/etc/sv",
	}
}

// Apply implements Executor.
func (e *XBPSExecutor) Apply(ctx context.Context, action reconcile.Action) error {
	e.logger.Info().Str("action", action.String()).Msg("Applying")

	switch action.Kind {
	case reconcile.ActionAddRepo:
		return e.addRepo(ctx, action.Repo)
	case reconcile.ActionInstall:
		return e.install(ctx, action)
	case reconcile.ActionConfigure:
		return e.configure(action)
	case reconcile.ActionRemove:
		_, err := e.run.run(ctx, "xbps-remove", "-y", action.ExternalName)
		return err
	case reconcile.ActionEnableService:
		return e.enableService(action.Service)
	case reconcile.ActionDisableService:
		return e.disableService(action.Service)
	}
	return &ExecutionFailure{
		Class:     FailurePermanent,
		Operation: "apply",
		Err:       fmt.Errorf("unknown action kind %q", action.Kind),
	}
}

// addRepo materializes a repository checkout: clone on first sight,
// fast-forward afterwards. Local checkouts are used in place.
func (e *XBPSExecutor) addRepo(ctx context.Context, repo *eval.RepoRef) error {
	dir := RepoCheckoutDir(e.CacheDir, repo)

	if repo.RepoKind == eval.RepoLocal {
		if _, err := os.Stat(dir); err != nil {
			return &ExecutionFailure{Class: FailurePermanent, Operation: "add-repo", Err: err}
		}
		e.srcpkgs = dir
		return nil
	}

	url := repo.URL
	if repo.RepoKind == eval.RepoGitHub {
		url = "https://github.com/" + repo.Owner + "/" + repo.Name + ".git"
	}

	if _, err := os.Stat(dir); err == nil {
		if _, err := e.run.run(ctx, "git", "-C", dir, "pull", "--ff-only"); err != nil {
			return err
		}
	} else {
		args := []string{"clone", "--depth", "1"}
		if repo.Branch != "" {
			args = append(args, "--branch", repo.Branch)
		}
		args = append(args, url, dir)
		if _, err := e.run.run(ctx, "git", args...); err != nil {
			return err
		}
	}

	e.srcpkgs = dir
	return nil
}

// install uses the binary repositories for ordinary packages; restricted
// packages are built from the source-package checkout first.
func (e *XBPSExecutor) install(ctx context.Context, action reconcile.Action) error {
	if !action.Restricted {
		_, err := e.run.run(ctx, "xbps-install", "-Sy", action.ExternalName)
		return err
	}

	// When the checkout was added on this run, addRepo remembered it.
	// Otherwise the action carries the repository it builds from.
	srcpkgs := e.srcpkgs
	if srcpkgs == "" && action.Repo != nil {
		srcpkgs = RepoCheckoutDir(e.CacheDir, action.Repo)
	}
	if srcpkgs == "" {
		return &ExecutionFailure{
			Class:     FailurePermanent,
			Operation: "install " + action.ExternalName,
			Err:       fmt.Errorf("no source-package checkout available"),
		}
	}
	if _, err := e.run.run(ctx, filepath.Join(srcpkgs, "xbps-src"), "pkg", action.ExternalName); err != nil {
		return err
	}
	_, err := e.run.run(ctx, "xbps-install",
		"--repository="+filepath.Join(srcpkgs, "hostdir", "binpkgs"),
		"-y", action.ExternalName)
	return err
}

// configure copies desired content over the target, creating parent
// directories as needed.
func (e *XBPSExecutor) configure(action reconcile.Action) error {
	source := action.Source
	switch {
	case action.SourceRepo != nil:
		source = filepath.Join(RepoCheckoutDir(e.CacheDir, action.SourceRepo), source)
	case !filepath.IsAbs(source):
		source = filepath.Join(e.BaseDir, source)
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return &ExecutionFailure{Class: FailurePermanent, Operation: "configure " + action.Package, Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(action.Target), 0o755); err != nil {
		return &ExecutionFailure{Class: FailurePermanent, Operation: "configure " + action.Package, Err: err}
	}
	if err := os.WriteFile(action.Target, data, 0o644); err != nil {
		return &ExecutionFailure{Class: FailurePermanent, Operation: "configure " + action.Package, Err: err}
	}
	return nil
}

func (e *XBPSExecutor) enableService(name string) error {
	link := filepath.Join(e.serviceDir, name)
	if _, err := os.Lstat(link); err == nil {
		return nil
	}
	if err := os.Symlink(filepath.Join(e.svDir, name), link); err != nil {
		return &ExecutionFailure{Class: FailurePermanent, Operation: "enable-service " + name, Err: err}
	}
	return nil
}

func (e *XBPSExecutor) disableService(name string) error {
	link := filepath.Join(e.serviceDir, name)
	if _, err := os.Lstat(link); err != nil {
		return nil
	}
	if err := os.Remove(link); err != nil {
		return &ExecutionFailure{Class: FailurePermanent, Operation: "disable-service " + name, Err: err}
	}
	return nil
}
