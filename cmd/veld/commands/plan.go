package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newPlanCommand() *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show what deploy would change, without changing anything",
		Example: `  # Print the plan
  veld plan

  # Save the plan for review
  veld plan --out plan.yaml`,
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

			out, err := plan.RenderYAML()
			if err != nil {
				return err
			}
			if outFile != "" {
				if err := os.WriteFile(outFile, out, 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", outFile, err)
				}
				app.logger.Info().Str("out", outFile).Str("summary", plan.Summary()).Msg("Plan written")
				return nil
			}
			fmt.Print(string(out))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outFile, "out", "o", "", "write the plan to a file instead of stdout")
	return cmd
}
