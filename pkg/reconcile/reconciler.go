package reconcile

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/veld-sh/veld/pkg/eval"
	"github.com/veld-sh/veld/pkg/pkgdef"
)

// SourceHasher hashes the desired content behind a configuration source,
// so the reconciler can compare it with what is on disk without writing
// anything. Remote sources carry the repository they come from.
type SourceHasher interface {
	HashSource(source string, repo *eval.RepoRef) (string, error)
}

// Options tune one reconciliation pass.
type Options struct {
	// Preserve lists installed packages that are never removed even
	// when absent from desired state, by package-manager name. Pinned
	// packages feed this set.
	Preserve map[string]struct{}
}

// Reconciler diffs desired state against an actual-state snapshot and
// produces an ordered action plan.
type Reconciler struct {
	registry *pkgdef.Registry
	hasher   SourceHasher
	logger   zerolog.Logger
}

// NewReconciler creates a reconciler resolving package symbols through
// the given registry.
func NewReconciler(registry *pkgdef.Registry, hasher SourceHasher, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		registry: registry,
		hasher:   hasher,
		logger:   logger.With().Str("component", "reconcile").Logger(),
	}
}

// Reconcile computes the plan that moves actual toward desired. Per
// invariant, a restricted package's install is either preceded by a
// qualifying AddRepo or recorded as a problem excluding that package;
// it never appears bare. Reconciling a state that already matches
// yields an empty plan.
func (r *Reconciler) Reconcile(desired *Desired, actual *ActualState, opts Options) (*Plan, error) {
	plan := newPlan()

	var restrictedRepo *eval.RepoRef
	nonfreeOK := false
	for _, repo := range desired.Repos {
		if repo.AllowRestricted && restrictedRepo == nil {
			restrictedRepo = repo.Ref
		}
		if repo.NonFree {
			nonfreeOK = true
		}
		if !actual.HasRepo(repo.Ref.Display()) {
			plan.Actions = append(plan.Actions, Action{
				Kind:     ActionAddRepo,
				RepoName: repo.Name,
				Repo:     repo.Ref,
			})
		}
	}

	var installs, configures []Action
	desiredInstalled := make(map[string]struct{})

	for _, ref := range desired.Packages {
		desc := r.registry.Lookup(ref.Symbol)
		desiredInstalled[desc.ExternalName] = struct{}{}

		if desc.Restricted && restrictedRepo == nil {
			problem := restrictedErr(ref.Symbol)
			plan.Problems = append(plan.Problems, problem)
			r.logger.Error().Str("package", ref.Symbol).Msg("Excluding package from plan")
			continue
		}
		if desc.NonFree && !nonfreeOK {
			plan.Warnings = append(plan.Warnings,
				"nonfree package "+ref.Symbol+" has no nonfree repository listed in desired state")
		}

		if !actual.IsInstalled(desc.ExternalName) {
			install := Action{
				Kind:         ActionInstall,
				Package:      ref.Symbol,
				ExternalName: desc.ExternalName,
				Restricted:   desc.Restricted,
			}
			if desc.Restricted {
				// The build repository rides along so the executor can
				// find the checkout even when no AddRepo precedes the
				// install on this pass.
				install.Repo = restrictedRepo
			}
			installs = append(installs, install)
		}

		configures = append(configures, r.configureActions(ref, desc, desired, actual, plan)...)
	}

	plan.Actions = append(plan.Actions, installs...)
	plan.Actions = append(plan.Actions, configures...)
	plan.Actions = append(plan.Actions, r.removeActions(desiredInstalled, actual, opts)...)

	for _, svc := range desired.Services {
		current, known := actual.Services[svc.Name]
		wantEnabled := svc.Enabled && !svc.Downed
		switch {
		case wantEnabled && (!known || !current.Enabled):
			plan.Actions = append(plan.Actions, Action{Kind: ActionEnableService, Service: svc.Name})
		case !wantEnabled && known && current.Enabled:
			plan.Actions = append(plan.Actions, Action{Kind: ActionDisableService, Service: svc.Name})
		}
	}

	r.logger.Info().
		Str("plan", plan.ID).
		Int("actions", len(plan.Actions)).
		Int("problems", len(plan.Problems)).
		Msg("Reconciliation complete")
	return plan, nil
}

// configureActions emits one Configure per configured slot whose desired
// content differs from what the target currently holds, in slot
// declaration order.
func (r *Reconciler) configureActions(ref PackageRef, desc *pkgdef.Descriptor, desired *Desired, actual *ActualState, plan *Plan) []Action {
	if len(ref.Slots) == 0 {
		return nil
	}
	home := ownerHome(ref.Owner, desired)

	var actions []Action
	for _, src := range ref.Slots {
		slot, ok := desc.Slot(src.Slot)
		if !ok && src.Slot != "" {
			plan.Warnings = append(plan.Warnings,
				"package "+ref.Symbol+" has no configuration slot "+src.Slot)
			continue
		}
		if !ok {
			plan.Warnings = append(plan.Warnings,
				"package "+ref.Symbol+" has no default configuration slot")
			continue
		}
		target := expandTarget(slot.Location, home)

		desiredHash, err := r.hasher.HashSource(src.Source, src.Repo)
		if err != nil {
			// Content we cannot read still plans a Configure; the
			// executor surfaces the real failure.
			plan.Warnings = append(plan.Warnings,
				"cannot read configuration source "+src.Source+": "+err.Error())
		} else if current, tracked := actual.Files[target]; tracked && current == desiredHash {
			continue
		}

		actions = append(actions, Action{
			Kind:       ActionConfigure,
			Package:    ref.Symbol,
			Slot:       slot.Name,
			Source:     src.Source,
			Target:     target,
			SourceRepo: src.Repo,
		})
	}
	return actions
}

// removeActions emits Remove for installed packages absent from desired
// state. Only packages with an explicit descriptor are candidates, so a
// bare base system is never planned away.
func (r *Reconciler) removeActions(desiredInstalled map[string]struct{}, actual *ActualState, opts Options) []Action {
	bySymbol := make(map[string]string)
	for _, symbol := range r.registry.Symbols() {
		bySymbol[r.registry.Lookup(symbol).ExternalName] = symbol
	}

	names := make([]string, 0, len(actual.Installed))
	for name := range actual.Installed {
		names = append(names, name)
	}
	sort.Strings(names)

	var actions []Action
	for _, name := range names {
		if _, wanted := desiredInstalled[name]; wanted {
			continue
		}
		if _, preserved := opts.Preserve[name]; preserved {
			continue
		}
		symbol, defined := bySymbol[name]
		if !defined {
			continue
		}
		actions = append(actions, Action{
			Kind:         ActionRemove,
			Package:      symbol,
			ExternalName: name,
		})
	}
	return actions
}

func ownerHome(owner string, desired *Desired) string {
	if owner == "" {
		return ""
	}
	for _, user := range desired.Users {
		if user.Name == owner {
			return user.Home
		}
	}
	return "/home/" + owner
}

// expandTarget resolves a leading ~ against the owning user's home.
// System-level targets keep the ~ for the executor to resolve against
// the invoking user.
func expandTarget(location, home string) string {
	if home == "" || !strings.HasPrefix(location, "~") {
		return location
	}
	return home + strings.TrimPrefix(location, "~")
}
