package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veld-sh/veld/pkg/reconcile"
	"github.com/veld-sh/veld/pkg/stores"
	"github.com/veld-sh/veld/pkg/system"
)

func newDeployCommand() *cobra.Command {
	var keepGoing bool

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Reconcile the system and apply the resulting plan",
		Long: `Evaluate the desired-state configuration, diff it against what the
machine reports, and apply the resulting actions in order: add
repositories, install, configure, remove, then service changes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			store, err := app.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			plan, _, err := app.computePlan(ctx, store)
			if err != nil {
				return err
			}
			reportPlanIssues(app, plan)
			if len(plan.Problems) > 0 && !keepGoing {
				return fmt.Errorf("%d package(s) cannot be reconciled; rerun with --keep-going to apply the rest", len(plan.Problems))
			}
			if plan.Empty() {
				app.logger.Info().Msg("System already matches desired state")
				return nil
			}
			app.logger.Info().Str("summary", plan.Summary()).Msg("Applying plan")

			runner := system.NewRunner(app.executor(), app.logger)
			summary, err := runner.Run(ctx, plan)
			if err != nil {
				return err
			}
			recordRun(ctx, app, store, summary)

			if summary.HasFailures() {
				return fmt.Errorf("run finished with %d failed action(s)", summary.Failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&keepGoing, "keep-going", false, "apply the plan even when some packages cannot be reconciled")
	return cmd
}

func reportPlanIssues(app *app, plan *reconcile.Plan) {
	for _, warning := range plan.Warnings {
		app.logger.Warn().Msg(warning)
	}
	for _, problem := range plan.Problems {
		app.logger.Error().Err(problem).Msg("Package excluded from plan")
	}
}

// recordRun persists the run, refreshes tracked-file hashes for
// configuration that was written, and feeds metrics. Failures here are
// logged, not returned: the machine was already mutated.
func recordRun(ctx context.Context, app *app, store *stores.SQLiteStore, summary *system.RunSummary) {
	run := stores.Run{
		ID:         summary.RunID,
		PlanID:     summary.PlanID,
		Status:     stores.RunStatusCompleted,
		StartedAt:  summary.StartedAt,
		DurationMS: summary.Duration.Milliseconds(),
		Succeeded:  summary.Succeeded,
		Failed:     summary.Failed,
		Skipped:    summary.Skipped,
	}
	if summary.HasFailures() {
		run.Status = stores.RunStatusFailed
	}

	hasher := app.hasher()
	actions := make([]stores.RunAction, 0, len(summary.Results))
	for i, result := range summary.Results {
		actions = append(actions, stores.RunAction{
			RunID:      summary.RunID,
			Seq:        i,
			Kind:       string(result.Action.Kind),
			Package:    result.Action.Package,
			Service:    result.Action.Service,
			Target:     result.Action.Target,
			Status:     string(result.Status),
			Error:      result.Error,
			Reason:     result.Reason,
			DurationMS: result.Duration.Milliseconds(),
		})
		app.metrics.RecordAction(string(result.Action.Kind), string(result.Status), result.Duration)

		if result.Status == system.StatusSucceeded && result.Action.Kind == reconcile.ActionAddRepo {
			if err := store.TrackRepo(ctx, result.Action.Repo.Display()); err != nil {
				app.logger.Warn().Err(err).Str("repo", result.Action.RepoName).Msg("Cannot track repository")
			}
		}

		if result.Status == system.StatusSucceeded && result.Action.Kind == reconcile.ActionConfigure {
			hash, err := hasher.HashSource(result.Action.Source, result.Action.SourceRepo)
			if err != nil {
				app.logger.Warn().Err(err).Str("target", result.Action.Target).Msg("Cannot hash written configuration")
				continue
			}
			if err := store.TrackFile(ctx, stores.TrackedFile{
				Target:  result.Action.Target,
				Package: result.Action.Package,
				Slot:    result.Action.Slot,
				Hash:    hash,
			}); err != nil {
				app.logger.Warn().Err(err).Str("target", result.Action.Target).Msg("Cannot track configuration file")
			}
		}
	}

	if err := store.RecordRun(ctx, run, actions); err != nil {
		app.logger.Warn().Err(err).Msg("Cannot record run")
	}
	app.metrics.RecordRun(string(run.Status), summary.Duration)
}
