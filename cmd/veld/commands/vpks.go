package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/veld-sh/veld/pkg/eval"
	"github.com/veld-sh/veld/pkg/reconcile"
)

func newVpksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vpks",
		Short: "Manage void-packages source checkouts",
		Long: `Source checkouts are what restricted packages build from. Checkouts
live under the state directory; a local path is used in place.`,
	}
	cmd.AddCommand(newVpksAddCommand())
	cmd.AddCommand(newVpksRemoveCommand())
	return cmd
}

func newVpksAddCommand() *cobra.Command {
	var branch string

	cmd := &cobra.Command{
		Use:   "add <owner/repo | path>",
		Short: "Clone (or adopt) a void-packages checkout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			ref, err := parseRepoArg(args[0], branch)
			if err != nil {
				return err
			}
			action := reconcile.Action{
				Kind:     reconcile.ActionAddRepo,
				RepoName: repoArgName(args[0]),
				Repo:     ref,
			}
			if err := app.executor().Apply(cmd.Context(), action); err != nil {
				return err
			}

			store, err := app.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.TrackRepo(cmd.Context(), ref.Display()); err != nil {
				return err
			}

			app.logger.Info().Str("repo", ref.Display()).Msg("Checkout ready")
			return nil
		},
	}

	cmd.Flags().StringVar(&branch, "branch", "", "branch to track")
	return cmd
}

func newVpksRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Delete a cloned checkout from the state directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			dir := filepath.Join(app.cfg.StateLocation, "repos", args[0])
			if _, err := os.Stat(dir); err != nil {
				return fmt.Errorf("no checkout named %q", args[0])
			}
			if err := os.RemoveAll(dir); err != nil {
				return err
			}

			// Drop the tracking record so the next deploy replans the
			// clone instead of assuming the checkout still exists.
			store, err := app.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()
			repos, err := store.Repos(cmd.Context())
			if err != nil {
				return err
			}
			for display := range repos {
				if checkoutName(display) == args[0] {
					if err := store.ForgetRepo(cmd.Context(), display); err != nil {
						return err
					}
				}
			}

			app.logger.Info().Str("name", args[0]).Msg("Checkout removed")
			return nil
		},
	}
}

// parseRepoArg accepts an existing local path or an owner/repo GitHub
// reference.
func parseRepoArg(arg, branch string) (*eval.RepoRef, error) {
	if info, err := os.Stat(arg); err == nil && info.IsDir() {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, err
		}
		return &eval.RepoRef{RepoKind: eval.RepoLocal, Path: abs}, nil
	}
	parts := strings.SplitN(arg, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("%q is neither a directory nor an owner/repo reference", arg)
	}
	return &eval.RepoRef{
		RepoKind: eval.RepoGitHub,
		Owner:    parts[0],
		Name:     parts[1],
		Branch:   branch,
	}, nil
}

// checkoutName maps a repository display string to the directory its
// clone lives under in the state cache.
func checkoutName(display string) string {
	display, _, _ = strings.Cut(display, "@")
	if rest, ok := strings.CutPrefix(display, "github.com/"); ok {
		return strings.ReplaceAll(rest, "/", "-")
	}
	return filepath.Base(display)
}

func repoArgName(arg string) string {
	if i := strings.LastIndex(arg, "/"); i >= 0 {
		return arg[i+1:]
	}
	return arg
}
