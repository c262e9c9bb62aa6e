package system

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/veld-sh/veld/pkg/reconcile"
)

// ActionStatus is the outcome of one applied action.
type ActionStatus string

const (
	StatusSucceeded ActionStatus = "succeeded"
	StatusFailed    ActionStatus = "failed"
	StatusSkipped   ActionStatus = "skipped"
)

// ActionResult records one action's outcome.
type ActionResult struct {
	Action   reconcile.Action
	Status   ActionStatus
	Error    string
	Reason   string
	Duration time.Duration
}

// RunSummary aggregates one plan application.
type RunSummary struct {
	RunID     string
	PlanID    string
	StartedAt time.Time
	Duration  time.Duration
	Succeeded int
	Failed    int
	Skipped   int
	Results   []ActionResult
}

// HasFailures reports whether any action failed.
func (s *RunSummary) HasFailures() bool { return s.Failed > 0 }

// Runner applies a plan in order. A failure does not halt the run, but
// actions with a hard dependency on the failed one are skipped instead
// of attempted: a package's Configure and a restricted Install behind a
// failed repository add never run against a half-applied prerequisite.
type Runner struct {
	executor Executor
	logger   zerolog.Logger
}

// NewRunner creates a plan runner.
func NewRunner(executor Executor, logger zerolog.Logger) *Runner {
	return &Runner{
		executor: executor,
		logger:   logger.With().Str("component", "runner").Logger(),
	}
}

// Run applies every action of the plan and returns the summary. The
// context cancels between actions; an in-flight action finishes or hits
// its own timeout.
func (r *Runner) Run(ctx context.Context, plan *reconcile.Plan) (*RunSummary, error) {
	summary := &RunSummary{
		RunID:     uuid.New().String(),
		PlanID:    plan.ID,
		StartedAt: time.Now().UTC(),
		Results:   make([]ActionResult, 0, len(plan.Actions)),
	}

	repoFailed := false
	failedPackages := make(map[string]struct{})

	for _, action := range plan.Actions {
		if err := ctx.Err(); err != nil {
			r.skip(summary, action, "run cancelled")
			continue
		}
		if reason, skip := dependencyFailed(action, repoFailed, failedPackages); skip {
			r.skip(summary, action, reason)
			continue
		}

		started := time.Now()
		err := r.executor.Apply(ctx, action)
		result := ActionResult{Action: action, Duration: time.Since(started)}

		if err != nil {
			result.Status = StatusFailed
			result.Error = err.Error()
			summary.Failed++
			r.logger.Error().Err(err).Str("action", action.String()).Msg("Action failed")

			switch action.Kind {
			case reconcile.ActionAddRepo:
				repoFailed = true
			case reconcile.ActionInstall:
				failedPackages[action.Package] = struct{}{}
			}
		} else {
			result.Status = StatusSucceeded
			summary.Succeeded++
		}
		summary.Results = append(summary.Results, result)
	}

	summary.Duration = time.Since(summary.StartedAt)
	r.logger.Info().
		Str("run", summary.RunID).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Int("skipped", summary.Skipped).
		Msg("Run complete")
	return summary, nil
}

// dependencyFailed decides whether an action's prerequisite already
// failed this run.
func dependencyFailed(action reconcile.Action, repoFailed bool, failedPackages map[string]struct{}) (string, bool) {
	switch action.Kind {
	case reconcile.ActionInstall:
		if action.Restricted && repoFailed {
			return "dependency failed: repository add", true
		}
	case reconcile.ActionConfigure:
		if _, failed := failedPackages[action.Package]; failed {
			return "dependency failed: install " + action.Package, true
		}
	}
	return "", false
}

func (r *Runner) skip(summary *RunSummary, action reconcile.Action, reason string) {
	summary.Skipped++
	summary.Results = append(summary.Results, ActionResult{
		Action: action,
		Status: StatusSkipped,
		Reason: reason,
	})
	r.logger.Warn().Str("action", action.String()).Str("reason", reason).Msg("Action skipped")
}
