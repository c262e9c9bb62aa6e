package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veld-sh/veld/pkg/reconcile"
)

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration and package definitions without touching the system",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}

			doc, err := app.evaluate()
			if err != nil {
				return fmt.Errorf("configuration invalid: %w", err)
			}
			if _, err := reconcile.ExtractDesired(doc); err != nil {
				return fmt.Errorf("configuration invalid: %w", err)
			}

			registry, err := app.loadRegistry(cmd.Context())
			if err != nil {
				return err
			}
			problems := registry.Problems()
			for _, problem := range problems {
				app.logger.Warn().Err(problem).Msg("Definition unit excluded")
			}
			if len(problems) > 0 {
				return fmt.Errorf("%d definition unit(s) are malformed", len(problems))
			}

			app.logger.Info().Str("config", app.cfg.ConfigLocation).Msg("Configuration valid")
			return nil
		},
	}
	return cmd
}
