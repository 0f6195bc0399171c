package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/tunesync/internal/app"
	"github.com/tejashwikalptaru/tunesync/internal/domain"
)

var (
	errNoCatalog = errors.New("catalog not configured: set catalog.api_key")
	errNoBackend = errors.New("backend not configured: set backend.base_url")
)

func newSearchCommand(opts *options) *cobra.Command {
	var (
		limit   int
		playNth int
		popular bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the catalog for songs",
		Long: `Search the catalog and optionally play one of the results.

Examples:
  tunesync search "night drive"
  tunesync search "night drive" --play 2
  tunesync search --popular`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, playNth > 0, func(ctx context.Context, a *app.Application) error {
				catalog := a.Catalog()
				if catalog == nil {
					return errNoCatalog
				}

				var (
					items []domain.CatalogItem
					err   error
				)
				if popular {
					items, err = catalog.RandomPopular(ctx, limit)
				} else {
					query := strings.TrimSpace(strings.Join(args, " "))
					if query == "" {
						return errors.New("empty query")
					}
					items, err = catalog.Search(ctx, query, limit)
					if err == nil {
						err = a.RecentSearches().Add(query)
					}
				}
				if err != nil {
					return err
				}

				if playNth > 0 {
					if playNth > len(items) {
						return fmt.Errorf("only %d results", len(items))
					}
					if err := a.Player().PlayTrack(ctx, items[playNth-1].Track(), domain.SourceNormal, ""); err != nil {
						return err
					}
					return opts.printNowPlaying(cmd, a)
				}

				if opts.jsonOut {
					return writeJSON(cmd.OutOrStdout(), items)
				}
				table := NewTable(cmd.OutOrStdout(), "#", "TITLE", "CHANNEL", "PUBLISHED", "ID")
				for i, item := range items {
					published := ""
					if !item.PublishedAt.IsZero() {
						published = humanize.Time(item.PublishedAt)
					}
					table.Row(strconv.Itoa(i+1), item.Title, item.ChannelTitle, published, item.VideoID)
				}
				table.Flush()
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "maximum number of results")
	cmd.Flags().IntVarP(&playNth, "play", "p", 0, "play the n-th result (1-based)")
	cmd.Flags().BoolVar(&popular, "popular", false, "random picks from the popular music chart")
	return cmd
}

func newRankCommand(opts *options) *cobra.Command {
	var winners bool

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Show the most played songs or the worldcup winners",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, false, func(ctx context.Context, a *app.Application) error {
				ranks := a.Ranks()
				if ranks == nil {
					return errNoBackend
				}

				var (
					entries []domain.RankEntry
					err     error
				)
				if winners {
					entries, err = ranks.TotalWinners(ctx)
				} else {
					entries, err = ranks.MusicRank(ctx)
				}
				if err != nil {
					return err
				}

				if opts.jsonOut {
					return writeJSON(cmd.OutOrStdout(), entries)
				}
				table := NewTable(cmd.OutOrStdout(), "#", "TITLE", "ARTIST", "COUNT", "ID")
				for i, e := range entries {
					table.Row(strconv.Itoa(i+1), e.Title, e.Artist, humanize.Comma(int64(e.Count)), e.VideoID)
				}
				table.Flush()
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&winners, "winners", "w", false, "show worldcup winners instead of play counts")
	return cmd
}

// newWinCommand logs the current track as a worldcup winner.
func newWinCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "win",
		Short: "Record the current track as a worldcup winner",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, false, func(_ context.Context, a *app.Application) error {
				current := a.Store().State().CurrentMusic
				if current == nil {
					return errors.New("nothing is loaded")
				}
				// Delivered before the shutdown returns
				a.PlayLog().NotifyWin(*current)
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "Winner: %s\n", formatTrack(current))
				return err
			})
		},
	}
}
