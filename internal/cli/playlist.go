package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/tunesync/internal/adapter/local"
	"github.com/tejashwikalptaru/tunesync/internal/app"
	"github.com/tejashwikalptaru/tunesync/internal/domain"
)

func newPlaylistCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "playlist",
		Aliases: []string{"pl"},
		Short:   "Manage stored playlists",
		RunE:    runPlaylistList(opts),
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored playlists",
		RunE:  runPlaylistList(opts),
	}

	show := &cobra.Command{
		Use:   "show <playlist id>",
		Short: "List the tracks of a playlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, false, func(_ context.Context, a *app.Application) error {
				playlist, err := a.Playlists().Get(args[0])
				if err != nil {
					return err
				}
				if opts.jsonOut {
					return writeJSON(cmd.OutOrStdout(), playlist)
				}
				table := NewTable(cmd.OutOrStdout(), "#", "TITLE", "ARTIST", "ADDED", "ID")
				for i, t := range playlist.Tracks {
					table.Row(strconv.Itoa(i), t.Title, t.Artist, humanize.Time(t.AddedAt), t.ID)
				}
				table.Flush()
				return nil
			})
		},
	}

	create := &cobra.Command{
		Use:   "create <title>",
		Short: "Create an empty playlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, false, func(_ context.Context, a *app.Application) error {
				playlist, err := a.Playlists().Create(args[0])
				if err != nil {
					return err
				}
				if opts.jsonOut {
					return writeJSON(cmd.OutOrStdout(), playlist)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), playlist.ID)
				return err
			})
		},
	}

	rename := &cobra.Command{
		Use:   "rename <playlist id> <title>",
		Short: "Rename a playlist",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, false, func(_ context.Context, a *app.Application) error {
				return a.Playlists().Rename(args[0], args[1])
			})
		},
	}

	// Deleting a playing playlist stops the engine, so the engine is resumed first
	remove := &cobra.Command{
		Use:   "delete <playlist id>",
		Short: "Delete a playlist, stopping it when it is playing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, true, func(ctx context.Context, a *app.Application) error {
				return a.Playlists().Delete(ctx, args[0])
			})
		},
	}

	var (
		addID   string
		addPath string
	)
	add := &cobra.Command{
		Use:   "add <playlist id>",
		Short: "Add a catalog track or a local file to a playlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, false, func(_ context.Context, a *app.Application) error {
				var track domain.Track
				switch {
				case addPath != "":
					t, err := local.TrackFromPath(addPath)
					if err != nil {
						return err
					}
					track = t
				case addID != "":
					track = domain.Track{ID: addID}
				default:
					return errors.New("pass --id or --path")
				}
				return a.Playlists().AddTrack(args[0], track)
			})
		},
	}
	add.Flags().StringVar(&addID, "id", "", "catalog video id")
	add.Flags().StringVar(&addPath, "path", "", "local audio file")

	removeTrack := &cobra.Command{
		Use:   "remove <playlist id> <track id>",
		Short: "Remove a track from a playlist",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, true, func(ctx context.Context, a *app.Application) error {
				return a.Playlists().RemoveTrack(ctx, args[0], args[1])
			})
		},
	}

	var startID string
	play := &cobra.Command{
		Use:   "play <playlist id>",
		Short: "Play a playlist from the top or from a track",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, true, func(ctx context.Context, a *app.Application) error {
				if err := a.Playlists().Play(ctx, args[0], startID); err != nil {
					return err
				}
				return opts.printNowPlaying(cmd, a)
			})
		},
	}
	play.Flags().StringVar(&startID, "start", "", "track id to start from")

	cmd.AddCommand(list, show, create, rename, remove, add, removeTrack, play)
	return cmd
}

func runPlaylistList(opts *options) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return opts.withApp(cmd, false, func(_ context.Context, a *app.Application) error {
			playlists, err := a.Playlists().List()
			if err != nil {
				return err
			}
			if opts.jsonOut {
				return writeJSON(cmd.OutOrStdout(), playlists)
			}
			if len(playlists) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "No playlists")
				return err
			}

			current := a.Store().State().CurrentPlaylistID
			table := NewTable(cmd.OutOrStdout(), "", "TITLE", "TRACKS", "UPDATED", "ID")
			for _, p := range playlists {
				marker := ""
				if p.ID == current {
					marker = "*"
				}
				table.Row(marker, p.Title, strconv.Itoa(len(p.Tracks)), humanize.Time(p.UpdatedAt), p.ID)
			}
			table.Flush()
			return nil
		})
	}
}
