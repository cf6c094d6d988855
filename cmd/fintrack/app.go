package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/backend"
	"fintrack/internal/broadcast"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/filter"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

// app is one open session: backends, cache and tracker.
type app struct {
	cfg      *config.Config
	logger   *log.Logger
	tracker  *services.TrackerService
	cache    *cache.QueryCache
	manager  *cache.Manager
	snapshot *cli.SnapshotStore
	bus      broadcast.Bus
	cleanup  backend.CleanupFunc

	// discard skips the snapshot save on Close.
	discard bool
}

func newApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*app, error) {
	sessionID := backend.NewSessionID()
	bcfg, err := backend.FromAppConfig(cfg, sessionID)
	if err != nil {
		return nil, err
	}
	res, err := backend.Create(ctx, backend.NewFactory(logger.Logger), bcfg)
	if err != nil {
		return nil, err
	}

	qc := cache.NewQueryCache(cfg.CacheMaxEntries, cfg.CacheTTL, cache.WithLoadTimeout(cfg.RPCTimeout))
	manager := cache.NewManager()
	manager.Register(qc)
	manager.StartCleanup(cfg.CacheCleanupInterval)

	a := &app{
		cfg:     cfg,
		logger:  logger,
		cache:   qc,
		manager: manager,
		bus:     res.Bus,
		cleanup: res.Cleanup,
	}

	snap, err := cli.OpenSnapshotStore(cfg.CacheSnapshotPath, cfg.Username, cfg.DBName)
	if err != nil {
		logger.Warn("Cache snapshot disabled", log.FieldError, err)
	}
	a.snapshot = snap
	if n, err := snap.Restore(ctx, qc); err != nil {
		logger.Warn("Failed to restore cache snapshot", log.FieldError, err)
	} else if n > 0 {
		logger.Debug("Restored cached results", "entries", n)
	}

	user, err := services.ResolveUser(ctx, res.Procedures, qc, cfg.Username, cfg.DBName)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	state := filter.NewState(time.Now())
	state.NPerPage = cfg.DefaultPerPage
	a.tracker = services.NewTrackerService(res.Procedures, qc, filter.NewStore(state), res.Bus, user, services.Options{
		Session:          sessionID,
		FetchConcurrency: cfg.FetchConcurrency,
		Logger:           logger,
	})

	logger.Debug("Session opened",
		log.FieldSession, sessionID,
		log.FieldUserID, user.ID,
		"backend", bcfg.RPC.String(),
		"broadcast", bcfg.Broadcast.String())
	return a, nil
}

// Close saves the cache snapshot and releases the backends.
func (a *app) Close(ctx context.Context) error {
	a.manager.Stop()

	var errs []error
	if !a.discard {
		if err := a.snapshot.Save(ctx, a.cache); err != nil {
			errs = append(errs, fmt.Errorf("save cache snapshot: %w", err))
		}
	}
	if err := a.snapshot.Close(); err != nil {
		errs = append(errs, err)
	}
	if a.cleanup != nil {
		if err := a.cleanup(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
