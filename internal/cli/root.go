// Package cli implements the tunesync command line.
//
// Every invocation loads the persisted state, resumes the engine from it,
// runs one command and persists the result on shutdown.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/tejashwikalptaru/tunesync/internal/app"
	"github.com/tejashwikalptaru/tunesync/internal/config"
	"github.com/tejashwikalptaru/tunesync/internal/logger"
)

type options struct {
	cfgFile string
	jsonOut bool
	verbose bool

	cfg *config.Config
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "tunesync",
		Short: "Keep a music queue in sync with the media engine",
		Long: `tunesync searches a video catalog for songs, keeps queues and playlists,
and restores the exact track and position on the next start.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.initConfig()
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&opts.cfgFile, "config", "c", "", "config file (default: ~/.config/tunesync/config.toml, ./config.toml)")
	root.PersistentFlags().BoolVarP(&opts.jsonOut, "json", "j", false, "output as JSON")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(newControlCommands(opts)...)
	root.AddCommand(
		newStateCommand(opts),
		newPlayCommand(opts),
		newPlaylistCommand(opts),
		newSearchCommand(opts),
		newRankCommand(opts),
		newRecentCommand(opts),
		newResumeCommand(opts),
		newWinCommand(opts),
		newVersionCommand(opts),
	)
	return root
}

func (o *options) initConfig() error {
	var err error
	if o.cfgFile != "" {
		o.cfg, err = config.LoadFiles(o.cfgFile)
	} else {
		o.cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
}

// withApp builds the application, runs fn and shuts down. With resume set
// the engine is rebuilt from the persisted state first; otherwise only the
// state is loaded.
func (o *options) withApp(cmd *cobra.Command, resume bool, fn func(ctx context.Context, a *app.Application) error) (err error) {
	logCfg := o.cfg.GetLoggerConfig()
	if !o.verbose && logCfg.Level < slog.LevelWarn {
		logCfg.Level = slog.LevelWarn
	}
	logCfg.Output = cmd.ErrOrStderr()

	cfg := app.DefaultConfig()
	cfg.Settings = o.cfg
	cfg.Logger = logger.NewLogger(logCfg)

	application, err := app.NewApplication(cfg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, application.Shutdown())
	}()

	ctx := cmd.Context()
	if resume {
		if err := application.Start(ctx); err != nil {
			return err
		}
	} else if err := application.Store().Load(); err != nil {
		return err
	}

	return fn(ctx, application)
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}
