// file: internal/app/app.go
// version: 1.0.0
// guid: 5cea47d2-c938-4a52-96cf-38270bac23ef

// Package app builds the application state shared by the CLI commands and
// the HTTP server. Nothing here is global; every command opens its own State.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jdfalk/cliqbook/internal/auth"
	"github.com/jdfalk/cliqbook/internal/catalog"
	"github.com/jdfalk/cliqbook/internal/config"
	"github.com/jdfalk/cliqbook/internal/database"
	"github.com/jdfalk/cliqbook/internal/realtime"
	"github.com/jdfalk/cliqbook/internal/search"
	"github.com/jdfalk/cliqbook/internal/seed"
	"github.com/rs/zerolog"
)

// closeTimeout bounds how long Close waits for queued writes.
const closeTimeout = 10 * time.Second

// State is everything a running CliqBook process owns.
type State struct {
	Config  config.Config
	Log     zerolog.Logger
	Store   database.Store
	Catalog *catalog.Catalog
	Auth    *auth.Service
	Hub     *realtime.EventHub
	Index   *search.Index
	Seed    seed.Result

	watcher *seed.CategoryWatcher
}

// Open opens the store, seeds it, and loads every service. Only a store
// that cannot be opened or written is fatal; fixture and collection load
// failures are logged and leave the affected list empty.
func Open(ctx context.Context, cfg config.Config, log zerolog.Logger) (*State, error) {
	store, err := database.Open(cfg.StoreOptions())
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.DatabaseType, err)
	}
	log.Info().Str("type", cfg.DatabaseType).Str("path", cfg.DatabasePath).Msg("store opened")

	st, err := build(ctx, cfg, store, log)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return st, nil
}

func build(ctx context.Context, cfg config.Config, store database.Store, log zerolog.Logger) (*State, error) {
	src, err := seed.Select(cfg.FixturesDir, cfg.FixturesURL, cfg.FetchTimeout)
	if err != nil {
		return nil, err
	}
	res, err := seed.Run(ctx, store, src, log, seed.Options{HashCost: cfg.BcryptCost})
	if err != nil {
		return nil, fmt.Errorf("seed store: %w", err)
	}

	hub := realtime.NewEventHub(log)
	cat := catalog.New(catalog.Deps{Store: store, Log: log, Notifier: hub}, cfg.UploadLimits())
	cat.Users.SetHashCost(cfg.BcryptCost)
	if err := cat.Load(); err != nil {
		log.Warn().Err(err).Msg("catalog loaded with errors")
	}
	cat.Categories.Set(res.Categories)

	st := &State{
		Config:  cfg,
		Log:     log,
		Store:   store,
		Catalog: cat,
		Auth: auth.New(auth.Options{
			Store:    store,
			Users:    cat.Users,
			Log:      log,
			Notifier: hub,
			TTL:      cfg.SessionTTL,
		}),
		Hub:   hub,
		Index: search.NewIndex(),
		Seed:  res,
	}

	if cfg.WatchFixtures {
		w, err := seed.WatchCategories(cfg.FixturesDir, cat.Categories.Set, log)
		if err != nil {
			_ = st.closeServices()
			return nil, fmt.Errorf("watch fixtures: %w", err)
		}
		st.watcher = w
	}
	return st, nil
}

func (s *State) closeServices() error {
	if s.watcher != nil {
		s.watcher.Stop()
	}
	return errors.Join(
		s.Auth.Close(closeTimeout),
		s.Catalog.Close(closeTimeout),
		s.Index.Close(),
	)
}

// Close stops the services, then the store.
func (s *State) Close() error {
	err := s.closeServices()
	return errors.Join(err, s.Store.Close())
}
