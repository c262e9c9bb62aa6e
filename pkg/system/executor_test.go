package system

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/veld-sh/veld/pkg/eval"
	"github.com/veld-sh/veld/pkg/reconcile"
)

// recordingRunner records invocations and serves canned output.
type recordingRunner struct {
	calls  [][]string
	output map[string]string
	fail   map[string]error
}

func (r *recordingRunner) run(ctx context.Context, name string, args ...string) (string, error) {
	call := append([]string{name}, args...)
	r.calls = append(r.calls, call)
	key := strings.Join(call, " ")
	if err, ok := r.fail[key]; ok {
		return "", err
	}
	return r.output[key], nil
}

func localRepoRef(path string) *eval.RepoRef {
	return &eval.RepoRef{RepoKind: eval.RepoLocal, Path: path}
}

func newTestExecutor(t *testing.T, run commandRunner) *XBPSExecutor {
	t.Helper()
	return &XBPSExecutor{
		run:        run,
		logger:     zerolog.Nop(),
		BaseDir:    t.TempDir(),
		CacheDir:   t.TempDir(),
		serviceDir: t.TempDir(),
		svDir:      t.TempDir(),
	}
}

func TestExecutorInstall(t *testing.T) {
	run := &recordingRunner{}
	e := newTestExecutor(t, run)
	err := e.Apply(context.Background(), reconcile.Action{
		Kind:         reconcile.ActionInstall,
		Package:      "bash",
		ExternalName: "bash",
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(run.calls) != 1 {
		t.Fatalf("calls = %v", run.calls)
	}
	if got := strings.Join(run.calls[0], " "); got != "xbps-install -Sy bash" {
		t.Errorf("call = %q", got)
	}
}

func TestExecutorRemove(t *testing.T) {
	run := &recordingRunner{}
	e := newTestExecutor(t, run)
	err := e.Apply(context.Background(), reconcile.Action{
		Kind:         reconcile.ActionRemove,
		ExternalName: "vim",
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := strings.Join(run.calls[0], " "); got != "xbps-remove -y vim" {
		t.Errorf("call = %q", got)
	}
}

func TestExecutorRestrictedInstallWithoutCheckout(t *testing.T) {
	run := &recordingRunner{}
	e := newTestExecutor(t, run)
	err := e.Apply(context.Background(), reconcile.Action{
		Kind:         reconcile.ActionInstall,
		Package:      "discord",
		ExternalName: "Discord",
		Restricted:   true,
	})
	if err == nil {
		t.Fatal("restricted install without a checkout must fail")
	}
	if len(run.calls) != 0 {
		t.Errorf("no command should run: %v", run.calls)
	}
}

func TestExecutorRestrictedInstallBuildsFromSource(t *testing.T) {
	run := &recordingRunner{}
	e := newTestExecutor(t, run)

	// A local repository add records the source-package checkout.
	srcpkgs := t.TempDir()
	err := e.Apply(context.Background(), reconcile.Action{
		Kind:     reconcile.ActionAddRepo,
		RepoName: "void-packages",
		Repo:     localRepoRef(srcpkgs),
	})
	if err != nil {
		t.Fatalf("add-repo: %v", err)
	}

	err = e.Apply(context.Background(), reconcile.Action{
		Kind:         reconcile.ActionInstall,
		Package:      "discord",
		ExternalName: "Discord",
		Restricted:   true,
	})
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	if len(run.calls) != 2 {
		t.Fatalf("calls = %v, want xbps-src then xbps-install", run.calls)
	}
	if run.calls[0][0] != filepath.Join(srcpkgs, "xbps-src") || run.calls[0][1] != "pkg" {
		t.Errorf("build call = %v", run.calls[0])
	}
	install := strings.Join(run.calls[1], " ")
	if !strings.Contains(install, "--repository="+filepath.Join(srcpkgs, "hostdir", "binpkgs")) {
		t.Errorf("install call %q does not use the local binpkgs", install)
	}
}

func TestExecutorRestrictedInstallUsesActionRepo(t *testing.T) {
	run := &recordingRunner{}
	e := newTestExecutor(t, run)
	srcpkgs := t.TempDir()

	// No AddRepo ran this pass: the checkout already existed, so the
	// install action carries the repository it builds from.
	err := e.Apply(context.Background(), reconcile.Action{
		Kind:         reconcile.ActionInstall,
		Package:      "discord",
		ExternalName: "Discord",
		Restricted:   true,
		Repo:         localRepoRef(srcpkgs),
	})
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	if len(run.calls) != 2 {
		t.Fatalf("calls = %v, want xbps-src then xbps-install", run.calls)
	}
	if run.calls[0][0] != filepath.Join(srcpkgs, "xbps-src") {
		t.Errorf("build call = %v", run.calls[0])
	}
}

func TestExecutorAddRepoClones(t *testing.T) {
	run := &recordingRunner{}
	e := newTestExecutor(t, run)
	repo := repoRef()
	repo.Branch = "master"
	err := e.Apply(context.Background(), reconcile.Action{
		Kind:     reconcile.ActionAddRepo,
		RepoName: "void-packages",
		Repo:     repo,
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	call := strings.Join(run.calls[0], " ")
	if !strings.HasPrefix(call, "git clone --depth 1 --branch master https://github.com/void-linux/void-packages.git") {
		t.Errorf("call = %q", call)
	}
}

func TestExecutorConfigureWritesTarget(t *testing.T) {
	run := &recordingRunner{}
	e := newTestExecutor(t, run)
	if err := os.WriteFile(filepath.Join(e.BaseDir, "bashrc"), []byte("alias ll='ls -l'\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	target := filepath.Join(t.TempDir(), "nested", ".bashrc")

	err := e.Apply(context.Background(), reconcile.Action{
		Kind:    reconcile.ActionConfigure,
		Package: "bash",
		Source:  "./bashrc",
		Target:  target,
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read target: %v", err)
	}
	if string(data) != "alias ll='ls -l'\n" {
		t.Errorf("target content = %q", data)
	}
}

func TestExecutorServiceLifecycle(t *testing.T) {
	run := &recordingRunner{}
	e := newTestExecutor(t, run)

	enable := reconcile.Action{Kind: reconcile.ActionEnableService, Service: "sshd"}
	if err := e.Apply(context.Background(), enable); err != nil {
		t.Fatalf("enable: %v", err)
	}
	link := filepath.Join(e.serviceDir, "sshd")
	if info, err := os.Lstat(link); err != nil || info.Mode()&os.ModeSymlink == 0 {
		t.Fatalf("enable did not create a symlink: %v", err)
	}
	// Enabling twice is a no-op.
	if err := e.Apply(context.Background(), enable); err != nil {
		t.Fatalf("re-enable: %v", err)
	}

	disable := reconcile.Action{Kind: reconcile.ActionDisableService, Service: "sshd"}
	if err := e.Apply(context.Background(), disable); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if _, err := os.Lstat(link); !os.IsNotExist(err) {
		t.Fatalf("disable did not remove the symlink: %v", err)
	}
	// Disabling an absent service is a no-op.
	if err := e.Apply(context.Background(), disable); err != nil {
		t.Fatalf("re-disable: %v", err)
	}
}
