package reconcile

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/veld-sh/veld/pkg/eval"
	"github.com/veld-sh/veld/pkg/lang"
)

func extractSrc(t *testing.T, src string) (*Desired, error) {
	t.Helper()
	stmts, err := lang.Parse("system.vd", src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ev := eval.NewEvaluator(eval.FileResolver{}, zerolog.Nop())
	doc, err := ev.EvalProgram("system.vd", stmts)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	return ExtractDesired(doc)
}

func mustExtract(t *testing.T, src string) *Desired {
	t.Helper()
	desired, err := extractSrc(t, src)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	return desired
}

func TestExtractEmptyConfig(t *testing.T) {
	desired := mustExtract(t, `system.config = { };`)
	if len(desired.Repos)+len(desired.Packages)+len(desired.Services)+len(desired.Users) != 0 {
		t.Errorf("desired = %+v, want empty", desired)
	}
}

func TestExtractRepos(t *testing.T) {
	desired := mustExtract(t, `
system.config = {
	vp_repos = {
		void-packages = {
			location = gh-r "void-linux" "void-packages";
			branch = "master";
			allow_restricted = true;
		};
	};
};
`)
	if len(desired.Repos) != 1 {
		t.Fatalf("repos = %v, want one", desired.Repos)
	}
	repo := desired.Repos[0]
	if repo.Name != "void-packages" || !repo.AllowRestricted || repo.NonFree {
		t.Errorf("unexpected repo: %+v", repo)
	}
	if repo.Ref.Owner != "void-linux" || repo.Ref.Branch != "master" {
		t.Errorf("unexpected ref: %+v", repo.Ref)
	}
}

func TestExtractRepoBranchDoesNotOverrideExplicit(t *testing.T) {
	desired := mustExtract(t, `
system.config = {
	vp_repos = {
		vp = {
			location = gh-r "void-linux" "void-packages" "pinned";
			branch = "master";
		};
	};
};
`)
	if got := desired.Repos[0].Ref.Branch; got != "pinned" {
		t.Errorf("branch = %q, the reference's own branch wins", got)
	}
}

func TestExtractRepoDefaultsAllowRestrictedFalse(t *testing.T) {
	desired := mustExtract(t, `
system.config = {
	vp_repos = {
		vp = { location = gh-r "void-linux" "void-packages"; };
	};
};
`)
	if desired.Repos[0].AllowRestricted {
		t.Error("allow_restricted defaults to false")
	}
}

func TestExtractRepoMissingLocation(t *testing.T) {
	_, err := extractSrc(t, `
system.config = {
	vp_repos = { vp = { branch = "master"; }; };
};
`)
	if err == nil || !strings.Contains(err.Error(), "vp_repos.vp") {
		t.Fatalf("err = %v, want an error naming the repo path", err)
	}
}

func TestExtractBarePackages(t *testing.T) {
	desired := mustExtract(t, `
system.config = {
	packages = [bash vim dmenu];
};
`)
	if len(desired.Packages) != 3 {
		t.Fatalf("packages = %v, want three", desired.Packages)
	}
	if desired.Packages[0].Symbol != "bash" || desired.Packages[0].Owner != "" {
		t.Errorf("unexpected package: %+v", desired.Packages[0])
	}
}

func TestExtractConfiguredPackage(t *testing.T) {
	desired := mustExtract(t, `
system.config = {
	packages = [
		{
			package = bash;
			bashrc = ./files/bashrc;
		}
	];
};
`)
	if len(desired.Packages) != 1 {
		t.Fatalf("packages = %v, want one", desired.Packages)
	}
	pkg := desired.Packages[0]
	if pkg.Symbol != "bash" {
		t.Errorf("symbol = %q, want bash", pkg.Symbol)
	}
	if len(pkg.Slots) != 1 || pkg.Slots[0].Slot != "bashrc" || pkg.Slots[0].Source != "./files/bashrc" {
		t.Errorf("slots = %+v", pkg.Slots)
	}
}

func TestExtractUseFileSlotCarriesRepo(t *testing.T) {
	desired := mustExtract(t, `
dotfiles = gh-r "sapein" "dotfiles";
system.config = {
	packages = [
		{
			package = tmux;
			tmux_conf = use-file ./tmux.conf (dotfiles);
		}
	];
};
`)
	slot := desired.Packages[0].Slots[0]
	if slot.Repo == nil || slot.Repo.Owner != "sapein" {
		t.Errorf("slot repo = %+v, want the dotfiles repository", slot.Repo)
	}
}

func TestExtractPackageMapWithoutSymbol(t *testing.T) {
	_, err := extractSrc(t, `
system.config = {
	packages = [ { bashrc = ./x; } ];
};
`)
	if err == nil || !strings.Contains(err.Error(), "names no package") {
		t.Fatalf("err = %v, want a missing-package error", err)
	}
}

func TestExtractServices(t *testing.T) {
	desired := mustExtract(t, `
system.config = {
	services = [
		{ name = "sshd"; }
		{ name = "bluetoothd"; enabled = false; }
		{ name = "cupsd"; downed = true; }
	];
};
`)
	if len(desired.Services) != 3 {
		t.Fatalf("services = %v, want three", desired.Services)
	}
	if !desired.Services[0].Enabled {
		t.Error("enabled defaults to true")
	}
	if desired.Services[1].Enabled {
		t.Error("bluetoothd should be disabled")
	}
	if !desired.Services[2].Downed {
		t.Error("cupsd should be downed")
	}
}

func TestExtractServiceNeedsName(t *testing.T) {
	_, err := extractSrc(t, `
system.config = {
	services = [ { enabled = true; } ];
};
`)
	if err == nil || !strings.Contains(err.Error(), "has no name") {
		t.Fatalf("err = %v, want a missing-name error", err)
	}
}

func TestExtractUsers(t *testing.T) {
	desired := mustExtract(t, `
system.config = {
	users = {
		sapein = {
			homedir = {
				location = "/var/home/sapein";
				subdirs = [~/projects ~/media];
			};
			dotfiles = gh-r "sapein" "dotfiles";
			packages = [zsh { package = tmux; tmux_conf = ./tmux.conf; }];
		};
	};
};
`)
	if len(desired.Users) != 1 {
		t.Fatalf("users = %v, want one", desired.Users)
	}
	user := desired.Users[0]
	if user.Home != "/var/home/sapein" {
		t.Errorf("home = %q", user.Home)
	}
	if len(user.Subdirs) != 2 || user.Subdirs[0] != "~/projects" {
		t.Errorf("subdirs = %v", user.Subdirs)
	}
	if user.Dotfiles == nil || user.Dotfiles.Name != "dotfiles" {
		t.Errorf("dotfiles = %+v", user.Dotfiles)
	}
	// User packages carry their owner.
	if len(desired.Packages) != 2 {
		t.Fatalf("packages = %v, want two", desired.Packages)
	}
	for _, pkg := range desired.Packages {
		if pkg.Owner != "sapein" {
			t.Errorf("package %s owner = %q, want sapein", pkg.Symbol, pkg.Owner)
		}
	}
}

func TestExtractUserHomeDefaults(t *testing.T) {
	desired := mustExtract(t, `
system.config = {
	users = { alice = { }; };
};
`)
	if got := desired.Users[0].Home; got != "/home/alice" {
		t.Errorf("home = %q, want /home/alice", got)
	}
}

func TestExtractPackagesWrongShape(t *testing.T) {
	_, err := extractSrc(t, `
system.config = { packages = "bash"; };
`)
	if err == nil || !strings.Contains(err.Error(), "system.config.packages") {
		t.Fatalf("err = %v, want a shape error naming the path", err)
	}
}
