// Package nautune is the composition root of the client core. It constructs
// and owns the download index, the server client, the repository manager and
// the download manager, with explicit Initialize/Close lifecycle instead of
// lazily-initialized globals.
package nautune

import (
	"context"
	"fmt"

	"github.com/PetertheMD/nautune/config"
	"github.com/PetertheMD/nautune/downloads"
	"github.com/PetertheMD/nautune/jellyfin"
	"github.com/PetertheMD/nautune/logger"
	"github.com/PetertheMD/nautune/repository"
	"github.com/PetertheMD/nautune/store"
)

type App struct {
	cfg    *config.Config
	logger *logger.Logger

	index     *store.DB
	client    *jellyfin.Client
	repos     *repository.Manager
	downloads *downloads.Manager

	initialized bool
}

// New validates the configuration and constructs an App. No I/O happens
// until Initialize.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		cfg = config.Load()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &App{
		cfg:    cfg,
		logger: logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}),
	}, nil
}

// Initialize opens the download index, authenticates against the server when
// credentials are configured, builds the repository manager in the starting
// mode and recovers pending downloads.
func (a *App) Initialize(ctx context.Context) error {
	if a.initialized {
		return fmt.Errorf("already initialized")
	}

	index, err := store.NewSQLiteDB(a.cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open download index: %w", err)
	}
	a.index = index

	mode := repository.ModeOffline
	if a.cfg.ServerURL != "" {
		a.client = jellyfin.NewClient(a.cfg.ServerURL)
		if a.cfg.Username != "" {
			if err := a.client.Authenticate(ctx, a.cfg.Username, a.cfg.Password); err != nil {
				a.logger.Warn("Authentication failed, starting offline", "error", err)
			}
		}
		if a.client.IsAuthenticated() && !a.cfg.OfflineMode {
			mode = repository.ModeOnline
		}
	}

	var remote repository.RemoteClient
	var source downloads.Source
	if a.client != nil {
		remote = a.client
		source = a.client
	}
	a.repos = repository.NewManager(remote, a.index, mode, a.logger)

	a.downloads = downloads.NewManager(a.index, source, downloads.Config{
		Dir:             a.cfg.DownloadsDir,
		MaxConcurrent:   a.cfg.MaxDownloads,
		MaxStorageBytes: a.cfg.MaxStorageBytes(),
	}, a.logger)
	if err := a.downloads.Start(); err != nil {
		return fmt.Errorf("failed to start download manager: %w", err)
	}

	a.initialized = true
	a.logger.Info("Initialized", "mode", mode.String())
	return nil
}

// Repository returns the active repository adapter and its epoch. Re-fetch
// after every mode switch; results tagged with an older epoch must be
// discarded.
func (a *App) Repository() (repository.Repository, uint64) {
	return a.repos.Current()
}

// Repositories exposes the manager for mode switching and subscriptions.
func (a *App) Repositories() *repository.Manager {
	return a.repos
}

// Downloads exposes the download bookkeeping manager.
func (a *App) Downloads() *downloads.Manager {
	return a.downloads
}

// Client returns the server client handle, nil when no server is configured.
func (a *App) Client() *jellyfin.Client {
	return a.client
}

// SetOffline pins or releases offline mode. Connectivity observers call this
// as network state changes; per-call fallback between adapters never happens.
func (a *App) SetOffline(offline bool) {
	if offline {
		a.repos.SetMode(repository.ModeOffline)
		return
	}
	a.repos.SetMode(repository.ModeOnline)
}

// Close stops the download workers and closes the index.
func (a *App) Close() error {
	if !a.initialized {
		return nil
	}
	a.downloads.Stop()
	a.initialized = false
	if err := a.index.Close(); err != nil {
		return fmt.Errorf("failed to close download index: %w", err)
	}
	return nil
}
