package reconcile

import (
	"fmt"

	"github.com/veld-sh/veld/pkg/eval"
)

// ActionKind tags an action variant. Kinds also define plan order:
// repositories are added before installs, installs before configuration,
// configuration before removals and service changes.
type ActionKind string

const (
	ActionAddRepo        ActionKind = "add-repo"
	ActionInstall        ActionKind = "install"
	ActionConfigure      ActionKind = "configure"
	ActionRemove         ActionKind = "remove"
	ActionEnableService  ActionKind = "enable-service"
	ActionDisableService ActionKind = "disable-service"
)

// rank returns the kind's position in plan order.
func (k ActionKind) rank() int {
	switch k {
	case ActionAddRepo:
		return 0
	case ActionInstall:
		return 1
	case ActionConfigure:
		return 2
	case ActionRemove:
		return 3
	default:
		return 4
	}
}

// Action is one step of a reconciliation plan.
type Action struct {
	Kind ActionKind `yaml:"kind"`

	// Package is the symbol for Install, Remove, and Configure.
	Package string `yaml:"package,omitempty"`

	// ExternalName is the package-manager name for Install and Remove.
	ExternalName string `yaml:"external_name,omitempty"`

	// Restricted marks installs that must build from a local
	// source-package checkout instead of a binary repository.
	Restricted bool `yaml:"restricted,omitempty"`

	// Slot, Source, and Target describe a Configure action: the
	// descriptor slot, the desired content's source file, and the
	// on-disk location it lands at.
	Slot   string `yaml:"slot,omitempty"`
	Source string `yaml:"source,omitempty"`
	Target string `yaml:"target,omitempty"`

	// SourceRepo is the repository the Configure source is fetched
	// from, nil for local sources.
	SourceRepo *eval.RepoRef `yaml:"-"`

	// RepoName and Repo describe an AddRepo action. Restricted installs
	// also carry Repo: the source-package repository they build from.
	RepoName string        `yaml:"repo,omitempty"`
	Repo     *eval.RepoRef `yaml:"-"`

	// Service names the unit for EnableService and DisableService.
	Service string `yaml:"service,omitempty"`
}

// String renders an action for logs and dry-run display.
func (a Action) String() string {
	switch a.Kind {
	case ActionAddRepo:
		return fmt.Sprintf("add-repo %s (%s)", a.RepoName, a.Repo.Display())
	case ActionInstall:
		return "install " + a.ExternalName
	case ActionConfigure:
		if a.Slot != "" {
			return fmt.Sprintf("configure %s[%s] %s -> %s", a.Package, a.Slot, a.Source, a.Target)
		}
		return fmt.Sprintf("configure %s %s -> %s", a.Package, a.Source, a.Target)
	case ActionRemove:
		return "remove " + a.ExternalName
	case ActionEnableService:
		return "enable-service " + a.Service
	case ActionDisableService:
		return "disable-service " + a.Service
	}
	return string(a.Kind)
}
