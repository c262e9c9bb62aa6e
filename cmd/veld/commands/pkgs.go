package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/veld-sh/veld/pkg/reconcile"
)

func newListPkgsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list-pkgs",
		Short: "List every package with an explicit descriptor",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			registry, err := app.loadRegistry(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SYMBOL\tNAME\tFLAGS\tSLOTS\tSOURCE")
			for _, symbol := range registry.Symbols() {
				desc := registry.Lookup(symbol)
				flags := ""
				if desc.NonFree {
					flags += "nonfree "
				}
				if desc.Restricted {
					flags += "restricted"
				}
				source := desc.Source
				if source == "" {
					source = "builtin"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
					desc.Symbol, desc.ExternalName, flags, len(desc.Slots), source)
			}
			return w.Flush()
		},
	}
}

func newFreezePkgsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "freeze-pkgs",
		Short: "Pin every currently installed package against removal",
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

			state, err := app.querier().Snapshot(ctx)
			if err != nil {
				return err
			}
			for name := range state.Installed {
				if err := store.AddPin(ctx, name, "frozen"); err != nil {
					return err
				}
			}
			app.logger.Info().Int("pinned", len(state.Installed)).Msg("Installed set frozen")
			return nil
		},
	}
}

func newPinPkgCommand() *cobra.Command {
	var (
		remove bool
		list   bool
		reason string
	)

	cmd := &cobra.Command{
		Use:   "pin-pkg [package]",
		Short: "Pin a package so reconciliation never removes it",
		Args:  cobra.MaximumNArgs(1),
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

			if list {
				pins, err := store.ListPins(ctx)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "PACKAGE\tREASON\tSINCE")
				for _, pin := range pins {
					fmt.Fprintf(w, "%s\t%s\t%s\n", pin.Name, pin.Reason, pin.CreatedAt.Format("2006-01-02"))
				}
				return w.Flush()
			}

			if len(args) != 1 {
				return fmt.Errorf("a package name is required")
			}
			if remove {
				return store.RemovePin(ctx, args[0])
			}
			return store.AddPin(ctx, args[0], reason)
		},
	}

	cmd.Flags().BoolVar(&remove, "remove", false, "remove the pin instead")
	cmd.Flags().BoolVar(&list, "list", false, "list pinned packages")
	cmd.Flags().StringVar(&reason, "reason", "", "why the package is pinned")
	return cmd
}

func newInstallCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "install <package>...",
		Short: "Install packages now, outside of a deploy",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			registry, err := app.loadRegistry(cmd.Context())
			if err != nil {
				return err
			}
			executor := app.executor()
			for _, symbol := range args {
				desc := registry.Lookup(symbol)
				if desc.Restricted {
					return fmt.Errorf("package %q is restricted; declare a source repository and deploy instead", symbol)
				}
				action := reconcile.Action{
					Kind:         reconcile.ActionInstall,
					Package:      desc.Symbol,
					ExternalName: desc.ExternalName,
				}
				if err := executor.Apply(cmd.Context(), action); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <package>...",
		Short: "Remove packages now, outside of a deploy",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			registry, err := app.loadRegistry(cmd.Context())
			if err != nil {
				return err
			}
			executor := app.executor()
			for _, symbol := range args {
				desc := registry.Lookup(symbol)
				action := reconcile.Action{
					Kind:         reconcile.ActionRemove,
					Package:      desc.Symbol,
					ExternalName: desc.ExternalName,
				}
				if err := executor.Apply(cmd.Context(), action); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newConfigureCommand() *cobra.Command {
	var slot string

	cmd := &cobra.Command{
		Use:   "configure <package> <source-file>",
		Short: "Write one package's configuration file from a source",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			registry, err := app.loadRegistry(cmd.Context())
			if err != nil {
				return err
			}

			desc := registry.Lookup(args[0])
			target, ok := desc.Slot(slot)
			if !ok {
				if slot == "" {
					return fmt.Errorf("package %q has no default configuration slot", args[0])
				}
				return fmt.Errorf("package %q has no configuration slot %q", args[0], slot)
			}

			action := reconcile.Action{
				Kind:    reconcile.ActionConfigure,
				Package: desc.Symbol,
				Slot:    target.Name,
				Source:  args[1],
				Target:  target.Location,
			}
			return app.executor().Apply(cmd.Context(), action)
		},
	}

	cmd.Flags().StringVar(&slot, "slot", "", "configuration slot to write")
	return cmd
}
