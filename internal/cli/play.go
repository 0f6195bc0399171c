package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/tunesync/internal/adapter/local"
	"github.com/tejashwikalptaru/tunesync/internal/app"
	"github.com/tejashwikalptaru/tunesync/internal/domain"
)

var errNoTarget = errors.New("nothing to play: pass a path, --id or --queue")

func newPlayCommand(opts *options) *cobra.Command {
	var (
		videoID string
		queue   string
		startID string
	)

	cmd := &cobra.Command{
		Use:   "play [path...]",
		Short: "Play local files, a folder, a catalog track or a stored queue",
		Long: `Play local audio files or every supported file in a folder.

Examples:
  tunesync play ~/Music/album
  tunesync play song.mp3
  tunesync play --id dQw4w9WgXcQ
  tunesync play --queue playlist --start <track id>`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, true, func(ctx context.Context, a *app.Application) error {
				var err error
				switch {
				case videoID != "":
					err = a.Player().PlayTrack(ctx, domain.Track{ID: videoID}, domain.SourceNormal, "")
				case queue != "":
					err = a.Player().PlayEntireQueue(ctx, domain.Source(queue), startID, a.Store().State().CurrentPlaylistID)
				case len(args) > 0:
					err = playPaths(ctx, a, args)
				default:
					err = errNoTarget
				}
				if err != nil {
					return err
				}
				return opts.printNowPlaying(cmd, a)
			})
		},
	}

	cmd.Flags().StringVar(&videoID, "id", "", "catalog video id to play")
	cmd.Flags().StringVar(&queue, "queue", "", "play the stored queue of a source (normal or playlist)")
	cmd.Flags().StringVar(&startID, "start", "", "track id to start the queue from")
	return cmd
}

func playPaths(ctx context.Context, a *app.Application, paths []string) error {
	if len(paths) == 1 {
		info, err := os.Stat(paths[0])
		if err != nil {
			return err
		}
		if info.IsDir() {
			tracks, err := a.Library().ScanFolder(ctx, paths[0])
			if err != nil {
				return err
			}
			return a.Player().PlayTracks(ctx, domain.SourceNormal, tracks, "", "")
		}
		track, err := local.TrackFromPath(paths[0])
		if err != nil {
			return err
		}
		return a.Player().PlayTrack(ctx, track, domain.SourceNormal, "")
	}

	tracks := make([]domain.Track, 0, len(paths))
	for _, path := range paths {
		track, err := local.TrackFromPath(path)
		if err != nil {
			return err
		}
		tracks = append(tracks, track)
	}
	return a.Player().PlayTracks(ctx, domain.SourceNormal, tracks, "", "")
}

func (o *options) printNowPlaying(cmd *cobra.Command, a *app.Application) error {
	state := a.Store().State()
	if o.jsonOut {
		return writeJSON(cmd.OutOrStdout(), state.CurrentMusic)
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "Now: %s\n", formatTrack(state.CurrentMusic))
	return err
}

// newControlCommands returns the transport commands that act on the active queue.
func newControlCommands(opts *options) []*cobra.Command {
	run := func(fn func(ctx context.Context, a *app.Application, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, true, func(ctx context.Context, a *app.Application) error {
				if err := fn(ctx, a, args); err != nil {
					return err
				}
				return opts.printNowPlaying(cmd, a)
			})
		}
	}

	var removeSource string
	remove := &cobra.Command{
		Use:   "remove <track id>",
		Short: "Remove a track from a queue by id",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, a *app.Application, args []string) error {
			source := domain.Source(removeSource)
			if removeSource == "" {
				source = a.Store().State().ActiveSource
			}
			return a.Player().RemoveFromQueue(ctx, source, args[0])
		}),
	}
	remove.Flags().StringVar(&removeSource, "source", "", "queue to remove from (default: the active one)")

	return []*cobra.Command{
		{
			Use:   "next",
			Short: "Skip to the next track",
			RunE: run(func(ctx context.Context, a *app.Application, _ []string) error {
				return a.Player().Next(ctx)
			}),
		},
		{
			Use:   "prev",
			Short: "Skip to the previous track",
			RunE: run(func(ctx context.Context, a *app.Application, _ []string) error {
				return a.Player().Previous(ctx)
			}),
		},
		{
			Use:   "skip <index>",
			Short: "Skip to a position in the active queue",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(ctx context.Context, a *app.Application, args []string) error {
				index, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid index %q: %w", args[0], err)
				}
				return a.Player().SkipTo(ctx, index)
			}),
		},
		{
			Use:   "delete <index>",
			Short: "Delete the track at a position of the active queue",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(ctx context.Context, a *app.Application, args []string) error {
				index, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid index %q: %w", args[0], err)
				}
				return a.Player().DeleteTrack(ctx, index)
			}),
		},
		remove,
		{
			Use:       "switch <normal|playlist>",
			Short:     "Make another queue the active one",
			Args:      cobra.ExactArgs(1),
			ValidArgs: []string{string(domain.SourceNormal), string(domain.SourcePlaylist)},
			RunE: run(func(ctx context.Context, a *app.Application, args []string) error {
				return a.Player().SwitchActiveSource(ctx, domain.Source(args[0]))
			}),
		},
		{
			Use:   "toggle",
			Short: "Pause or resume playback",
			RunE: run(func(ctx context.Context, a *app.Application, _ []string) error {
				return a.Player().TogglePlayback(ctx)
			}),
		},
		{
			Use:   "seek <position>",
			Short: "Seek within the current track (e.g. 1m30s)",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(ctx context.Context, a *app.Application, args []string) error {
				position, err := time.ParseDuration(args[0])
				if err != nil {
					return fmt.Errorf("invalid position %q: %w", args[0], err)
				}
				return a.Player().Seek(ctx, position)
			}),
		},
	}
}
