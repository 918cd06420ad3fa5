// MediaBrain - Personal Media Consumption Catalogue
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabrain

// Package main is the entry point for the MediaBrain daemon.
//
// MediaBrain is a background daemon that builds a personal catalogue of the
// media you consume: local files found by scanning configured directories,
// and streaming activity detected from browser tabs and desktop apps. The
// catalogue is served to a local frontend over a loopback HTTP API with
// WebSocket refresh notifications.
//
// # Architecture
//
// The daemon initializes components in the following order:
//
//  1. Configuration: layered defaults, YAML file, environment (koanf)
//  2. Store: BadgerDB catalogue with blacklist suppression
//  3. Event queue: single unbounded FIFO between watchers and processor
//  4. Watchers: file indexer plus browser/app activity watchers
//  5. Processor: sole queue consumer, resolves signals via providers
//  6. Frontend: WebSocket hub and HTTP API
//
// Everything long-running sits in a suture supervisor tree, so a crashing
// watcher is restarted with backoff instead of killing the daemon.
//
// # Configuration
//
// Configuration is loaded via koanf with layered sources (highest wins):
// environment variables, an optional config.yaml, built-in defaults. See
// the config package for the environment variable names; all of them also
// work with a MEDIABRAIN_ prefix.
//
// # Signal handling
//
// SIGINT and SIGTERM (and the tray quit command) trigger graceful
// shutdown: the queue is closed, the processor drains the backlog within
// its grace period, and the supervisor tree stops its services.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/benbjohnson/clock"

	"github.com/tomtom215/mediabrain/internal/api"
	"github.com/tomtom215/mediabrain/internal/cache"
	"github.com/tomtom215/mediabrain/internal/config"
	"github.com/tomtom215/mediabrain/internal/event"
	"github.com/tomtom215/mediabrain/internal/logging"
	"github.com/tomtom215/mediabrain/internal/metadata"
	"github.com/tomtom215/mediabrain/internal/processor"
	"github.com/tomtom215/mediabrain/internal/provider"
	"github.com/tomtom215/mediabrain/internal/store"
	"github.com/tomtom215/mediabrain/internal/supervisor"
	"github.com/tomtom215/mediabrain/internal/tray"
	"github.com/tomtom215/mediabrain/internal/watcher"
	"github.com/tomtom215/mediabrain/internal/websocket"
)

func main() {
	if err := run(); err != nil {
		logging.Err(err).Msg("Daemon failed")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Strs("scan_roots", cfg.Scan.Roots).
		Msg("Starting MediaBrain")

	clk := clock.New()

	st, err := store.Open(store.Options{
		Dir:      cfg.Database.Path,
		InMemory: cfg.Database.InMemory,
	}, clk)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Err(err).Msg("Store close failed")
		}
	}()

	queue := event.NewQueue(cfg.Queue.HighWater)
	registry := provider.NewRegistry()
	notifier := processor.NewNotifier()
	hub := websocket.NewHub()
	trayCtl := tray.NewController(queue)

	// Every committed catalogue change reaches connected frontends.
	notifier.Subscribe(hub.BroadcastRefresh)

	indexer := watcher.NewFileIndexer(watcher.IndexerConfig{
		Roots:          cfg.Scan.Roots,
		Interval:       cfg.Scan.Interval,
		NotifyDebounce: cfg.Scan.NotifyDebounce,
	}, queue, clk)

	// The root context is cancelled by signals and by the tray quit
	// command; cancellation tears the whole tree down.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var enricher processor.Enricher
	if cfg.Metadata.Enabled {
		enricher = metadata.New(metadata.Config{
			Timeout:           cfg.Metadata.Timeout,
			RequestsPerSecond: cfg.Metadata.RequestsPerSecond,
			Burst:             cfg.Metadata.Burst,
		}, registry)
	}

	proc := processor.New(processor.Config{
		Queue:        queue,
		Store:        st,
		Registry:     registry,
		Notifier:     notifier,
		Clock:        clk,
		Seen:         cache.NewSeenCache(cfg.Watch.SeenCacheSize, cfg.Watch.SeenTTL),
		Enricher:     enricher,
		Rescanner:    indexer,
		OnVisibility: hub.BroadcastVisibility,
		OnQuit:       cancel,
		OnDiagnostic: func(source, message string) {
			hub.BroadcastDiagnostic(source, message)
		},
		DrainGrace: cfg.Processor.DrainGrace,
	})

	tree := supervisor.NewTree(supervisor.DefaultTreeConfig())

	tree.AddStorageService(store.NewMaintenanceService(st, clk, cfg.Database.MaintenanceInterval))
	if cfg.Database.BackupDir != "" {
		tree.AddStorageService(store.NewBackupService(st, clk,
			cfg.Database.BackupDir, cfg.Database.BackupInterval, cfg.Database.BackupKeep))
	}

	tree.AddPipelineService(indexer)
	tree.AddPipelineService(proc)

	sampler := watcher.NewCommandSampler(cfg.Watch.SampleCommand)
	if sampler == nil {
		logging.Warn().Msg("No sample command configured; activity watchers disabled")
	} else {
		activityCfg := watcher.ActivityConfig{Interval: cfg.Watch.Interval}
		if cfg.Watch.BrowserEnabled {
			tree.AddPipelineService(watcher.NewBrowserWatcher(
				watcher.BrowserSamples(sampler), queue, clk, activityCfg))
		}
		if cfg.Watch.AppEnabled {
			tree.AddPipelineService(watcher.NewAppWatcher(
				watcher.AppSamples(sampler), queue, clk, activityCfg))
		}
	}

	tree.AddFrontendService(hub)
	tree.AddFrontendService(api.NewServer(api.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		Timeout:         cfg.Server.Timeout,
		CORSOrigins:     cfg.Server.CORSOrigins,
		RateLimitReqs:   cfg.Server.RateLimitReqs,
		RateLimitWindow: cfg.Server.RateLimitWindow,
	}, st, registry, trayCtl, queue, hub))

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor tree: %w", err)
	}

	if report, reportErr := tree.UnstoppedServiceReport(); reportErr == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", fmt.Sprint(svc.Service)).Msg("Service did not stop in time")
		}
	}

	logging.Info().Msg("MediaBrain stopped")
	return nil
}
