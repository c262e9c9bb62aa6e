package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/veld-sh/veld/pkg/eval"
	"github.com/veld-sh/veld/pkg/pkgdef"
	"github.com/veld-sh/veld/pkg/reconcile"
	"github.com/veld-sh/veld/pkg/settings"
	"github.com/veld-sh/veld/pkg/stores"
	"github.com/veld-sh/veld/pkg/system"
	"github.com/veld-sh/veld/pkg/telemetry"
)

var (
	// Global flags
	settingsPath   string
	configLocation string
	stateLocation  string
	verbose        bool
	jsonOutput     bool
)

// Execute runs the root command.
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "veld",
		Short: "veld - declarative system state for Void Linux",
		Long: `veld reads a declarative description of what a Void Linux system
should look like, compares it with what xbps and runit report, and
applies the difference: repositories, packages, configuration files,
and services.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", "", "settings file path")
	rootCmd.PersistentFlags().StringVar(&configLocation, "config_location", "", "desired-state entry point")
	rootCmd.PersistentFlags().StringVar(&stateLocation, "state_location", "", "state directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "log in JSON format")

	rootCmd.AddCommand(newDeployCommand())
	rootCmd.AddCommand(newPlanCommand())
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newListPkgsCommand())
	rootCmd.AddCommand(newFreezePkgsCommand())
	rootCmd.AddCommand(newPinPkgCommand())
	rootCmd.AddCommand(newInstallCommand())
	rootCmd.AddCommand(newRemoveCommand())
	rootCmd.AddCommand(newConfigureCommand())
	rootCmd.AddCommand(newSourceCommand())
	rootCmd.AddCommand(newVpksCommand())
	rootCmd.AddCommand(newServiceCommand())

	return rootCmd
}

// app bundles the pieces every command wires the same way.
type app struct {
	cfg     *settings.Settings
	logger  zerolog.Logger
	metrics *telemetry.Metrics
}

func newApp() (*app, error) {
	cfg, err := settings.Load(settingsPath)
	if err != nil {
		return nil, err
	}
	if configLocation != "" {
		cfg.ConfigLocation = configLocation
	}
	if stateLocation != "" {
		cfg.StateLocation = stateLocation
	}

	logCfg := cfg.LoggingConfig()
	if verbose {
		logCfg.Level = "debug"
	}
	if jsonOutput {
		logCfg.Format = "json"
	}
	logger, err := telemetry.NewLogger(logCfg)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		metrics: telemetry.NewMetrics(cfg.MetricsConfig()),
	}, nil
}

func (a *app) openStore(ctx context.Context) (*stores.SQLiteStore, error) {
	return stores.Open(ctx, a.cfg.StatePath("state.db"))
}

func (a *app) evaluate() (*eval.Document, error) {
	ev := eval.NewEvaluator(eval.FileResolver{}, a.logger)
	return ev.EvalFile(a.cfg.ConfigLocation)
}

func (a *app) loadRegistry(ctx context.Context) (*pkgdef.Registry, error) {
	return pkgdef.LoadRegistry(ctx, a.cfg.DefinitionsDir, a.logger)
}

func (a *app) querier() *system.XBPSQuerier {
	return system.NewXBPSQuerier(a.cfg.CommandTimeout.Duration, a.logger)
}

func (a *app) executor() *system.XBPSExecutor {
	return system.NewXBPSExecutor(
		filepath.Dir(a.cfg.ConfigLocation),
		a.cfg.StateLocation,
		a.cfg.CommandTimeout.Duration,
		a.logger,
	)
}

func (a *app) hasher() system.FileHasher {
	return system.FileHasher{
		BaseDir:  filepath.Dir(a.cfg.ConfigLocation),
		CacheDir: a.cfg.StateLocation,
	}
}

// snapshot queries the machine once and folds in what the store knows
// but xbps cannot report: tracked file hashes and source-package
// repositories added by earlier runs.
func (a *app) snapshot(ctx context.Context, store *stores.SQLiteStore) (*reconcile.ActualState, error) {
	state, err := a.querier().Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	files, err := store.TrackedFiles(ctx)
	if err != nil {
		return nil, err
	}
	state.Files = files
	repos, err := store.Repos(ctx)
	if err != nil {
		return nil, err
	}
	for display := range repos {
		state.Repos[display] = struct{}{}
	}
	return state, nil
}

// computePlan runs the whole read side: evaluate, load definitions,
// snapshot, reconcile.
func (a *app) computePlan(ctx context.Context, store *stores.SQLiteStore) (*reconcile.Plan, *pkgdef.Registry, error) {
	doc, err := a.evaluate()
	if err != nil {
		return nil, nil, err
	}
	desired, err := reconcile.ExtractDesired(doc)
	if err != nil {
		return nil, nil, err
	}

	registry, err := a.loadRegistry(ctx)
	if err != nil {
		return nil, nil, err
	}
	for _, problem := range registry.Problems() {
		a.logger.Warn().Err(problem).Msg("Definition unit excluded")
	}

	actual, err := a.snapshot(ctx, store)
	if err != nil {
		return nil, nil, err
	}
	pins, err := store.Pins(ctx)
	if err != nil {
		return nil, nil, err
	}

	rec := reconcile.NewReconciler(registry, a.hasher(), a.logger)
	plan, err := rec.Reconcile(desired, actual, reconcile.Options{Preserve: pins})
	if err != nil {
		return nil, nil, err
	}

	kinds := make(map[string]int)
	for _, action := range plan.Actions {
		kinds[string(action.Kind)]++
	}
	a.metrics.RecordPlan(kinds, len(plan.Problems))
	return plan, registry, nil
}
