package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
)

// xbpsdDir is where xbps reads repository configuration from.
const xbpsdDir = "/etc/xbps.d"

func newSourceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "source",
		Short: "Manage binary package repositories",
	}
	cmd.AddCommand(newSourceAddCommand())
	cmd.AddCommand(newSourceRemoveCommand())
	cmd.AddCommand(newSourceListCommand())
	return cmd
}

func newSourceAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <url>",
		Short: "Register a binary repository with xbps",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			name, url := args[0], args[1]
			if err := os.MkdirAll(xbpsdDir, 0o755); err != nil {
				return err
			}
			path := filepath.Join(xbpsdDir, name+".conf")
			if err := os.WriteFile(path, []byte("repository="+url+"\n"), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			app.logger.Info().Str("name", name).Str("url", url).Msg("Repository registered")
			return nil
		},
	}
}

func newSourceRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Unregister a binary repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			path := filepath.Join(xbpsdDir, args[0]+".conf")
			if err := os.Remove(path); err != nil {
				if os.IsNotExist(err) {
					return fmt.Errorf("no repository named %q", args[0])
				}
				return err
			}
			app.logger.Info().Str("name", args[0]).Msg("Repository unregistered")
			return nil
		},
	}
}

func newSourceListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the repositories xbps currently uses",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			state, err := app.querier().Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			repos := make([]string, 0, len(state.Repos))
			for repo := range state.Repos {
				repos = append(repos, repo)
			}
			sort.Strings(repos)
			for _, repo := range repos {
				fmt.Println(repo)
			}
			return nil
		},
	}
}
