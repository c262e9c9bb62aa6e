package commands

import (
	"github.com/spf13/cobra"

	"github.com/veld-sh/veld/pkg/reconcile"
)

func newServiceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Enable or disable runit services",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "enable <name>",
		Short: "Link a service into the running set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return applyServiceAction(cmd, reconcile.ActionEnableService, args[0])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "disable <name>",
		Short: "Remove a service from the running set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return applyServiceAction(cmd, reconcile.ActionDisableService, args[0])
		},
	})
	return cmd
}

func applyServiceAction(cmd *cobra.Command, kind reconcile.ActionKind, name string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	return app.executor().Apply(cmd.Context(), reconcile.Action{Kind: kind, Service: name})
}
