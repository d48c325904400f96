package main

import (
	"context"
	"fmt"
	"path/filepath"

	dreamscape "github.com/jason-allen-oneal/dreamscape-ai"
	"github.com/jason-allen-oneal/dreamscape-ai/artifact"
	"github.com/jason-allen-oneal/dreamscape-ai/config"
	"github.com/jason-allen-oneal/dreamscape-ai/logging"
	"github.com/jason-allen-oneal/dreamscape-ai/provider"
	"github.com/jason-allen-oneal/dreamscape-ai/store"
)

// app is the wiring shared by every command.
type app struct {
	cfg    *config.Config
	logger logging.Logger
	ds     *dreamscape.Dreamscape
	close  func() error
}

func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger := logging.NewSlogLogger(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format, cfg.Log.AddSource).
		WithComponent("dreamscape")

	kv, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	artifacts, err := artifact.NewDirStore(cfg.World.PublicRoot, cfg.World.AssetDir)
	if err != nil {
		_ = closeStore()
		return nil, err
	}

	p, err := provider.New(ctx, cfg.Provider, cfg.Loop, logger)
	if err != nil {
		_ = closeStore()
		return nil, err
	}

	ds, err := dreamscape.New(func(o *dreamscape.Options) {
		o.Provider = p
		o.Store = kv
		o.Artifacts = artifacts
		o.StaleAfter = cfg.World.StaleAfter
		o.Concurrency = cfg.World.Concurrency
		o.PublicRoot = cfg.World.PublicRoot
		o.SeedImages = cfg.World.SeedImages
		o.Logger = logger
	})
	if err != nil {
		_ = closeStore()
		return nil, err
	}

	logger.Debug("app.ready",
		"provider", p.Name(),
		"store", cfg.Store.Driver,
		"assets", filepath.Join(cfg.World.PublicRoot, cfg.World.AssetDir),
	)
	return &app{cfg: cfg, logger: logger, ds: ds, close: closeStore}, nil
}

func openStore(ctx context.Context, cfg config.Store) (store.Store, func() error, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return store.NewInMemoryStore(), func() error { return nil }, nil
	case config.DriverSQLite, config.DriverPostgres:
		s, err := store.Open(ctx, cfg.Driver, cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open store: %w", err)
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}
