// Package cli provides common process initialization utilities shared by
// the fintrack commands.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/cache"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// SetupLogger initializes structured logging at the given level and sets
// it as the default logger. Unknown levels fall back to info.
func SetupLogger(level string) *log.Logger {
	lvl, err := log.ParseLevel(level)
	cfg := log.DefaultConfig()
	cfg.Level = lvl
	if os.Getenv("LOG_FORMAT") == "json" {
		cfg.Format = "json"
	}
	logger := log.New(cfg)
	log.SetDefault(logger)
	if err != nil {
		logger.Warn("Falling back to info logging", "error", err)
	}
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional.
func LoadEnvFile(files ...string) {
	_ = godotenv.Load(files...)
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SnapshotStore persists the query cache of one session between runs.
// A nil *SnapshotStore is valid and does nothing.
type SnapshotStore struct {
	repo  *storage.SQLiteRepository
	scope string
}

// OpenSnapshotStore opens the snapshot database at path. An empty path
// disables snapshots and returns nil.
func OpenSnapshotStore(path, username, dbname string) (*SnapshotStore, error) {
	if path == "" {
		return nil, nil
	}
	repo, err := storage.NewSQLiteRepository(path)
	if err != nil {
		return nil, fmt.Errorf("open cache snapshot: %w", err)
	}
	return &SnapshotStore{repo: repo, scope: storage.Scope(username, dbname)}, nil
}

// Restore loads the last snapshot into c and returns the number of entries
// restored.
func (s *SnapshotStore) Restore(ctx context.Context, c *cache.QueryCache) (int, error) {
	if s == nil {
		return 0, nil
	}
	entries, err := s.repo.Load(ctx, s.scope)
	if err != nil {
		return 0, err
	}
	n := c.Restore(entries)
	slog.DebugContext(ctx, "Cache snapshot restored",
		log.FieldComponent, log.ComponentStorage,
		"scope", s.scope,
		"entries", n)
	return n, nil
}

// Save replaces the stored snapshot with the current cache contents.
func (s *SnapshotStore) Save(ctx context.Context, c *cache.QueryCache) error {
	if s == nil {
		return nil
	}
	entries := c.Entries()
	if err := s.repo.Save(ctx, s.scope, entries); err != nil {
		return err
	}
	slog.DebugContext(ctx, "Cache snapshot saved",
		log.FieldComponent, log.ComponentStorage,
		"scope", s.scope,
		"entries", len(entries))
	return nil
}

// Info describes the stored snapshot, or reports false when none exists.
func (s *SnapshotStore) Info(ctx context.Context) (storage.SnapshotInfo, bool, error) {
	if s == nil {
		return storage.SnapshotInfo{}, false, nil
	}
	return s.repo.Info(ctx, s.scope)
}

// Clear removes the stored snapshot of this session's scope.
func (s *SnapshotStore) Clear(ctx context.Context) error {
	if s == nil {
		return nil
	}
	return s.repo.Clear(ctx, s.scope)
}

func (s *SnapshotStore) Close() error {
	if s == nil {
		return nil
	}
	return s.repo.Close()
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that is closed once cleanup has finished or timed out.
func GracefulShutdown(parent context.Context, logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	go func() {
		defer close(done)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
		case <-ctx.Done():
		}

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup(shutdownCtx)
			}
			close(finished)
		}()

		select {
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		case <-finished:
			logger.Info("Shutdown complete")
		}
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup is done.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
