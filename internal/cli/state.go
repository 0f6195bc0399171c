package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/tunesync/internal/app"
	"github.com/tejashwikalptaru/tunesync/internal/domain"
)

func newStateCommand(opts *options) *cobra.Command {
	var showQueue bool

	cmd := &cobra.Command{
		Use:   "state",
		Short: "Show the persisted playback state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, false, func(_ context.Context, a *app.Application) error {
				state := a.Store().State()
				out := cmd.OutOrStdout()

				if opts.jsonOut {
					return writeJSON(out, state)
				}

				status := "paused"
				if state.IsPlaying {
					status = "playing"
				}
				fmt.Fprintf(out, "Now:     %s\n", formatTrack(state.CurrentMusic))
				if state.CurrentMusic != nil {
					fmt.Fprintf(out, "Status:  %s at %s\n", status, formatPosition(state.Position))
				}
				source := string(state.ActiveSource)
				if state.CurrentPlaylistID != "" {
					source += " (" + state.CurrentPlaylistID + ")"
				}
				fmt.Fprintf(out, "Source:  %s\n", source)

				for _, s := range domain.Sources {
					q := state.Queue(s)
					fmt.Fprintf(out, "Queue %s: %d tracks", s, q.Len())
					if !q.IsEmpty() {
						fmt.Fprintf(out, ", at %d", q.Index+1)
					}
					fmt.Fprintln(out)
				}

				if showQueue {
					q := state.ActiveQueue()
					table := NewTable(out, "", "#", "TITLE", "ARTIST", "ID")
					for i, t := range q.Tracks {
						marker := ""
						if i == q.Index {
							marker = ">"
						}
						table.Row(marker, strconv.Itoa(i), t.Title, t.Artist, t.ID)
					}
					table.Flush()
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&showQueue, "queue", "q", false, "list the active queue")
	return cmd
}
