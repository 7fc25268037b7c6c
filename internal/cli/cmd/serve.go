package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bnema/linktint/internal/application/usecase"
	"github.com/bnema/linktint/internal/config"
	"github.com/bnema/linktint/internal/coordinator"
	"github.com/bnema/linktint/internal/domain/entity"
	"github.com/bnema/linktint/internal/domain/repository"
	"github.com/bnema/linktint/internal/infrastructure/cdp"
	"github.com/bnema/linktint/internal/infrastructure/persistence/filestore"
	"github.com/bnema/linktint/internal/infrastructure/persistence/sqlite"
	"github.com/bnema/linktint/internal/logging"
	"github.com/bnema/linktint/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the linktint daemon",
	Long: `Starts the daemon: connects to the browser, loads settings
(writing defaults on first run), serves the message API, and keeps
every eligible tab colored until interrupted.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := cfgManager.Get()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithContext(ctx, rootLogger)
	log := rootLogger

	if err := config.EnsureDirectories(); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}

	repo, external, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	store := usecase.NewSettingsStore(repo)

	profileDir := cfg.Browser.ProfileDir
	if profileDir == "" && cfg.Browser.RemoteURL == "" {
		profileDir, err = config.GetProfileDir()
		if err != nil {
			return fmt.Errorf("resolve profile dir: %w", err)
		}
	}

	browser, err := cdp.Connect(ctx, cdp.Options{
		RemoteURL:  cfg.Browser.RemoteURL,
		ProfileDir: profileDir,
		Headless:   cfg.Browser.Headless,
		ExecPath:   cfg.Browser.ExecPath,
	})
	if err != nil {
		return fmt.Errorf("connect to browser: %w", err)
	}
	defer func() { _ = browser.Close() }()

	coord := coordinator.New(store, browser, cfg.Injection.RetryDelay)
	srv := server.New(coord, cfg.Server.Listen)

	cfgManager.Watch()

	go coord.Start(ctx, external)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("server shutdown failed")
		}
	}()

	if err := srv.ListenAndServe(ctx); err != nil {
		return err
	}
	log.Info().Msg("daemon stopped")
	return nil
}

// openStore builds the configured settings repository. The file backend
// also returns an external-change channel; sqlite does not support
// watching and returns nil.
func openStore(ctx context.Context, cfg *config.Config) (repository.SettingsRepository, <-chan entity.Settings, error) {
	log := logging.FromContext(ctx)

	switch cfg.Store.Backend {
	case config.StoreSQLite:
		path := cfg.Store.Path
		if path == "" {
			var err error
			path, err = config.GetDatabaseFile()
			if err != nil {
				return nil, nil, fmt.Errorf("resolve database path: %w", err)
			}
		}
		db, err := sqlite.NewConnection(ctx, path)
		if err != nil {
			return nil, nil, err
		}
		return sqlite.NewSettingsRepository(db), nil, nil

	case config.StoreFile, "":
		path := cfg.Store.Path
		if path == "" {
			var err error
			path, err = config.GetSettingsFile()
			if err != nil {
				return nil, nil, fmt.Errorf("resolve settings path: %w", err)
			}
		}
		repo := filestore.New(path)
		external, err := repo.Watch(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("settings file watch unavailable, external changes require restart")
			external = nil
		}
		return repo, external, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
