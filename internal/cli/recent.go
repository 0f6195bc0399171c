package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/tunesync/internal/app"
)

func newRecentCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List recent searches, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, false, func(_ context.Context, a *app.Application) error {
				queries := a.RecentSearches().List()
				if opts.jsonOut {
					return writeJSON(cmd.OutOrStdout(), queries)
				}
				for _, q := range queries {
					fmt.Fprintln(cmd.OutOrStdout(), q)
				}
				return nil
			})
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "remove <query>",
			Short: "Forget one recent search",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withApp(cmd, false, func(_ context.Context, a *app.Application) error {
					return a.RecentSearches().Remove(args[0])
				})
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Forget all recent searches",
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withApp(cmd, false, func(_ context.Context, a *app.Application) error {
					return a.RecentSearches().Clear()
				})
			},
		},
	)
	return cmd
}

// newResumeCommand rebuilds the engine from the persisted state and reports
// where playback would continue.
func newResumeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Restore the engine from the saved state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, true, func(ctx context.Context, a *app.Application) error {
				state := a.Store().State()
				if opts.jsonOut {
					return writeJSON(cmd.OutOrStdout(), state)
				}
				if state.CurrentMusic == nil {
					_, err := fmt.Fprintln(cmd.OutOrStdout(), "Nothing to resume")
					return err
				}
				position, err := a.Engine().Position(ctx)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Resumed: %s at %s\n", formatTrack(state.CurrentMusic), formatPosition(position))
				return err
			})
		},
	}
}
