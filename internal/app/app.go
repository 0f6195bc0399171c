// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"go.uber.org/multierr"

	"github.com/tejashwikalptaru/tunesync/internal/adapter/audio/mock"
	"github.com/tejashwikalptaru/tunesync/internal/adapter/backend"
	"github.com/tejashwikalptaru/tunesync/internal/adapter/catalog/youtube"
	"github.com/tejashwikalptaru/tunesync/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/tunesync/internal/adapter/lastfm"
	"github.com/tejashwikalptaru/tunesync/internal/adapter/local"
	"github.com/tejashwikalptaru/tunesync/internal/adapter/repository/memory"
	"github.com/tejashwikalptaru/tunesync/internal/adapter/repository/preferences"
	"github.com/tejashwikalptaru/tunesync/internal/adapter/repository/sqlite"
	"github.com/tejashwikalptaru/tunesync/internal/config"
	"github.com/tejashwikalptaru/tunesync/internal/logger"
	"github.com/tejashwikalptaru/tunesync/internal/ports"
	"github.com/tejashwikalptaru/tunesync/internal/service"
)

// Application is the root application structure that holds all dependencies.
// It follows the Dependency Injection pattern with constructor-based injection.
//
// The Application struct is responsible for:
// - Creating and wiring all dependencies
// - Managing the application lifecycle (startup, shutdown)
type Application struct {
	// Core dependencies
	logger   *slog.Logger
	settings *config.Config

	// Infrastructure
	eventBus *eventbus.SyncEventBus
	engine   ports.Engine
	sqlite   *sqlite.Store

	// Repositories
	stateRepo    ports.StateRepository
	playlistRepo ports.PlaylistRepository
	recentRepo   ports.RecentSearchRepository

	// Remote collaborators, nil when not configured
	catalog ports.Catalog
	ranks   ports.RankSource

	// Services
	store    *service.QueueStore
	resolver *service.Resolver
	player   *service.Synchronizer
	resume   *service.ResumeCoordinator
	bridge   *service.EventBridge
	playlist *service.PlaylistService
	recent   *service.RecentSearchService
	library  *service.LibraryService
	playLog  *service.PlayLogService

	shutdownOnce sync.Once
}

// Config holds application configuration.
type Config struct {
	// AppID is the unique application identifier, used for Fyne preferences
	AppID string

	// Settings is the loaded configuration file (nil uses defaults)
	Settings *config.Config

	// Engine replaces the in-memory engine (nil for the default)
	Engine ports.Engine

	// FyneApp supplies preferences for the preferences driver (nil creates one)
	FyneApp fyne.App

	// Logger replaces the logger built from Settings
	Logger *slog.Logger
}

// DefaultConfig returns the default application configuration.
func DefaultConfig() Config {
	return Config{
		AppID:    "com.tunesync.app",
		Settings: &config.Config{},
	}
}

// NewApplication creates a new application with all dependencies wired.
// This is the main dependency injection function.
func NewApplication(cfg Config) (*Application, error) {
	settings := cfg.Settings
	if settings == nil {
		settings = &config.Config{}
	}

	app := &Application{settings: settings}

	// Step 1: Create logger
	app.logger = cfg.Logger
	if app.logger == nil {
		app.logger = logger.NewLogger(settings.GetLoggerConfig())
	}
	app.logger.Info("initializing application",
		slog.String("app_id", cfg.AppID),
		slog.String("version", GetVersionInfo().FullString()))

	// Step 2: Create an event bus
	app.eventBus = eventbus.NewSyncEventBus()
	app.eventBus.SetLogger(app.logger.With(slog.String("component", "eventbus")))

	// Step 3: Create the engine
	if cfg.Engine != nil {
		app.engine = cfg.Engine
	} else {
		engine := mock.NewEngine(app.eventBus)
		engine.SetLogger(app.logger.With(slog.String("engine", "memory")))
		app.engine = engine
	}

	// Step 4: Create repositories
	if err := app.openRepositories(cfg); err != nil {
		return nil, fmt.Errorf("failed to open repositories: %w", err)
	}

	// Step 5: Create remote collaborators
	localBackend := local.NewBackend(app.logger)
	backends := []ports.AudioBackend{localBackend}
	var (
		playSinks []ports.PlayLogSink
		winSinks  []ports.WinLogSink
	)

	if settings.HasBackendConfig() {
		client := backend.New(backend.Config{
			BaseURL:         settings.Backend.BaseURL,
			Timeout:         settings.Backend.Timeout,
			FallbackArtwork: settings.Backend.FallbackArtwork,
		}, app.logger)
		backends = append(backends, client)
		playSinks = append(playSinks, client)
		winSinks = append(winSinks, client)
		app.ranks = client
	}

	if settings.HasCatalogConfig() {
		app.catalog = youtube.New(youtube.Config{
			APIKey:     settings.Catalog.APIKey,
			BaseURL:    settings.Catalog.BaseURL,
			RegionCode: settings.Catalog.RegionCode,
		}, app.logger)
	}

	if settings.HasLastfmConfig() {
		playSinks = append(playSinks, lastfm.New(lastfm.Config{
			APIKey:     settings.Lastfm.APIKey,
			APISecret:  settings.Lastfm.APISecret,
			SessionKey: settings.Lastfm.SessionKey,
		}, app.logger))
	}

	// Step 6: Create services (with dependency injection)
	resolverCfg := settings.GetResolverConfig()
	app.resolver = service.NewResolver(
		app.logger,
		resolverCfg.CacheTTL,
		resolverCfg.CacheSize,
		backend.NewProber(resolverCfg.ProbeTimeout),
		backends...,
	)

	app.playLog = service.NewPlayLogService(app.logger, settings.GetPlayLogTimeout(), playSinks, winSinks)
	app.store = service.NewQueueStore(app.logger, app.stateRepo, app.eventBus)
	app.player = service.NewSynchronizer(
		app.logger,
		app.engine,
		app.store,
		app.resolver,
		app.playlistRepo,
		app.eventBus,
		app.playLog,
	)
	app.resume = service.NewResumeCoordinator(app.logger, app.engine, app.store, app.player)
	app.bridge = service.NewEventBridge(app.logger, app.engine, app.store, app.player, app.eventBus, settings.GetDedupeWindow())
	app.playlist = service.NewPlaylistService(app.logger, app.playlistRepo, app.store, app.player, app.eventBus)
	app.recent = service.NewRecentSearchService(app.logger, app.recentRepo)
	app.library = service.NewLibraryService(app.logger, localBackend)

	return app, nil
}

// openRepositories picks the storage driver. Keys outside the persistence
// whitelist always get a volatile in-memory repository.
func (a *Application) openRepositories(cfg Config) error {
	storage, err := a.settings.GetStorageConfig()
	if err != nil {
		return err
	}

	var (
		state    ports.StateRepository        = memory.NewStateRepository()
		playlist ports.PlaylistRepository     = memory.NewPlaylistRepository()
		recent   ports.RecentSearchRepository = memory.NewRecentSearchRepository()
	)

	switch storage.Driver {
	case config.DriverSQLite:
		store, err := sqlite.Open(storage.Path, a.logger)
		if err != nil {
			return err
		}
		a.sqlite = store
		if storage.Persists(ports.KeyPlayMusic) {
			state = store.States()
		}
		if storage.Persists(ports.KeyPlaylist) {
			playlist = store.Playlists()
		}
		if storage.Persists(ports.KeyRecentSearches) {
			recent = store.RecentSearches()
		}

	case config.DriverPreferences:
		fyneApp := cfg.FyneApp
		if fyneApp == nil {
			fyneApp = fyneapp.NewWithID(cfg.AppID)
		}
		prefs := fyneApp.Preferences()
		if storage.Persists(ports.KeyPlayMusic) {
			state = preferences.NewStateRepository(prefs)
		}
		if storage.Persists(ports.KeyPlaylist) {
			playlist = preferences.NewPlaylistRepository(prefs, a.logger)
		}
		if storage.Persists(ports.KeyRecentSearches) {
			recent = preferences.NewRecentSearchRepository(prefs)
		}
	}

	a.logger.Debug("repositories opened",
		slog.String("driver", storage.Driver),
		slog.Any("persist", storage.Persist))

	a.stateRepo = state
	a.playlistRepo = playlist
	a.recentRepo = recent
	return nil
}

// Start loads the persisted state, rebuilds the engine from it and starts
// listening to engine events. A failed resume is not fatal: the store is
// left in a safe state and the application starts empty.
func (a *Application) Start(ctx context.Context) error {
	if err := a.store.Load(); err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}

	if err := a.resume.Resume(ctx); err != nil {
		a.logger.Warn("failed to resume playback", slog.Any("error", err))
	}

	if err := a.bridge.Start(ctx); err != nil {
		return fmt.Errorf("failed to start event bridge: %w", err)
	}

	a.logger.Info("tunesync started")
	return nil
}

// Shutdown gracefully shuts down the application.
// Calling it more than once is safe.
func (a *Application) Shutdown() error {
	var errs error

	a.shutdownOnce.Do(func() {
		a.logger.Info("shutting down application")

		// Stop event handling before the engine goes away
		a.bridge.Stop()

		errs = multierr.Append(errs, a.playLog.Shutdown())
		errs = multierr.Append(errs, a.engine.Shutdown())
		errs = multierr.Append(errs, a.eventBus.Close())
		if a.sqlite != nil {
			errs = multierr.Append(errs, a.sqlite.Close())
		}

		a.resolver.Purge()
		a.logger.Info("application shutdown complete")
	})

	return errs
}

// Logger returns the application logger.
func (a *Application) Logger() *slog.Logger { return a.logger }

// EventBus returns the event bus.
func (a *Application) EventBus() ports.EventBus { return a.eventBus }

// Engine returns the media engine.
func (a *Application) Engine() ports.Engine { return a.engine }

// Store returns the queue state store.
func (a *Application) Store() *service.QueueStore { return a.store }

// Player returns the playback synchronizer.
func (a *Application) Player() *service.Synchronizer { return a.player }

// Playlists returns the playlist service.
func (a *Application) Playlists() *service.PlaylistService { return a.playlist }

// RecentSearches returns the recent search service.
func (a *Application) RecentSearches() *service.RecentSearchService { return a.recent }

// Library returns the local library scanner.
func (a *Application) Library() *service.LibraryService { return a.library }

// PlayLog returns the play log fan-out.
func (a *Application) PlayLog() *service.PlayLogService { return a.playLog }

// Catalog returns the catalog client, or nil when no API key is configured.
func (a *Application) Catalog() ports.Catalog { return a.catalog }

// Ranks returns the rank source, or nil when no backend is configured.
func (a *Application) Ranks() ports.RankSource { return a.ranks }
