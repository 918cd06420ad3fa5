// MediaBrain - Personal Media Consumption Catalogue
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabrain

// Package processor is the single consumer of the event queue. It resolves
// detection signals through the provider registry, applies catalog
// mutations to the store, and pushes refresh notifications after each
// commit. One event failing never stops the loop.
package processor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/tomtom215/mediabrain/internal/cache"
	"github.com/tomtom215/mediabrain/internal/event"
	"github.com/tomtom215/mediabrain/internal/logging"
	"github.com/tomtom215/mediabrain/internal/metrics"
	"github.com/tomtom215/mediabrain/internal/models"
	"github.com/tomtom215/mediabrain/internal/provider"
	"github.com/tomtom215/mediabrain/internal/store"
)

// Processing outcomes recorded in metrics.
const (
	outcomeApplied   = "applied"
	outcomeDiscarded = "discarded"
	outcomeFailed    = "failed"
)

// Enrichment carries metadata fetched for an identity after the catalog
// write, applied asynchronously when it arrives.
type Enrichment struct {
	Identity      models.MediaIdentity
	Title         string
	Description   string
	ThumbnailURL  string
	LengthSeconds int
}

// Enricher fetches external metadata for a resolved identity. The hint is
// whatever display text the provider extracted, for title-based lookups.
type Enricher interface {
	Enrich(ctx context.Context, identity models.MediaIdentity, hint string) (*Enrichment, error)
}

// Rescanner triggers an immediate file scan; satisfied by the file indexer.
type Rescanner interface {
	RescanNow()
}

// Config wires the processor's collaborators and hooks.
type Config struct {
	Queue    *event.Queue
	Store    *store.Store
	Registry *provider.Registry
	Notifier *Notifier
	Clock    clock.Clock

	// Seen deduplicates repeated activity observations. Optional; nil
	// means every observation touches the store.
	Seen *cache.SeenCache

	// Enricher is optional metadata enrichment for real provider ids.
	Enricher Enricher

	// Rescanner handles the rescan_now control command. Optional.
	Rescanner Rescanner

	// OnVisibility is invoked for show/hide control commands. Optional.
	OnVisibility func(visible bool)

	// OnQuit is invoked for the quit control command. Optional; typically
	// wired to the daemon's shutdown trigger. Runs on the consumer
	// goroutine, so it must signal shutdown rather than wait for it.
	OnQuit func()

	// OnDiagnostic surfaces watcher degradation to the UI. Optional.
	OnDiagnostic func(source, message string)

	// DrainGrace bounds how long shutdown waits for the queued backlog.
	// Zero defaults to 5 seconds.
	DrainGrace time.Duration
}

// Processor consumes the event queue until it is closed and drained.
type Processor struct {
	cfg Config

	// applyMu serializes catalog mutations and the notifications that
	// follow them, between the event loop and enrichment arrivals.
	applyMu sync.Mutex

	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup
	done    chan struct{}

	enrichWG sync.WaitGroup

	// pendingScopes coalesces refresh notifications across a burst: while
	// more events are already queued, scopes accumulate and flush as one
	// notification when the queue runs empty.
	pendingScopes []models.RefreshScope
}

// New creates a processor. Queue, Store, Registry and Notifier are required.
func New(cfg Config) *Processor {
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.DrainGrace <= 0 {
		cfg.DrainGrace = 5 * time.Second
	}
	return &Processor{cfg: cfg, done: make(chan struct{})}
}

// Start launches the consumer goroutine.
func (p *Processor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.done = make(chan struct{})
	p.mu.Unlock()

	logging.Info().Msg("Starting event processor")
	p.wg.Add(1)
	go p.loop(ctx)
	return nil
}

// Serve implements suture.Service. On cancellation it closes the queue and
// waits out the drain grace for the backlog.
func (p *Processor) Serve(ctx context.Context) error {
	if err := p.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	p.Shutdown()
	return ctx.Err()
}

// Shutdown closes the queue (idempotent), lets the consumer drain what is
// already queued, and returns once drained or when the grace expires.
func (p *Processor) Shutdown() {
	p.cfg.Queue.Close()

	select {
	case <-p.done:
	case <-time.After(p.cfg.DrainGrace):
		stats := p.cfg.Queue.Stats()
		logging.Warn().
			Int("remaining", stats.Depth).
			Dur("grace", p.cfg.DrainGrace).
			Msg("Drain grace expired, abandoning backlog")
	}
	p.enrichWG.Wait()

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
}

// IsRunning returns whether the consumer loop is active.
func (p *Processor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// loop is the single consumer. It exits when the queue is closed and its
// backlog is drained.
func (p *Processor) loop(ctx context.Context) {
	defer p.wg.Done()
	defer close(p.done)

	for {
		e, ok := p.cfg.Queue.PopBlocking()
		if !ok {
			p.flushScopes()
			logging.Info().Msg("Event queue drained, processor stopping")
			return
		}
		p.process(ctx, e)

		if p.cfg.Queue.Len() == 0 {
			p.flushScopes()
		}
	}
}

// process handles one event with panic containment. A poisoned event is
// logged and counted; the loop continues.
func (p *Processor) process(ctx context.Context, e event.Event) {
	start := time.Now()
	outcome := outcomeFailed

	defer func() {
		if r := recover(); r != nil {
			logging.Error().
				Interface("panic", r).
				Str("kind", string(e.Kind)).
				Str("event_id", e.ID).
				Msg("Event handler panicked")
			outcome = outcomeFailed
		}
		metrics.RecordProcessed(string(e.Kind), outcome, time.Since(start))
	}()

	var err error
	outcome, err = p.handle(ctx, e)
	if err != nil {
		logging.Error().
			Err(err).
			Str("kind", string(e.Kind)).
			Str("source", e.SourceID).
			Str("event_id", e.ID).
			Msg("Event processing failed")
	}
}

// handle dispatches by event kind. It returns the outcome for metrics and
// an error for logging; errors never propagate further.
func (p *Processor) handle(ctx context.Context, e event.Event) (string, error) {
	switch e.Kind {
	case event.KindFileDiscovered:
		return p.handleFileDiscovered(ctx, e)
	case event.KindFileRemoved:
		return p.handleFileRemoved(ctx, e)
	case event.KindBrowserActivity:
		return p.handleBrowserActivity(ctx, e)
	case event.KindAppActivity:
		return p.handleAppActivity(ctx, e)
	case event.KindControlCommand:
		return p.handleControl(e)
	case event.KindDiagnostic:
		return p.handleDiagnostic(e)
	default:
		logging.Warn().Str("kind", string(e.Kind)).Msg("Unknown event kind")
		return outcomeDiscarded, nil
	}
}

func (p *Processor) handleFileDiscovered(ctx context.Context, e event.Event) (string, error) {
	if e.File == nil {
		return outcomeDiscarded, errors.New("file event without payload")
	}

	res := p.cfg.Registry.ResolveLocal(e.File.Path)
	if res == nil {
		return outcomeDiscarded, nil
	}

	item := itemFromResolution(res)
	p.applyMu.Lock()
	defer p.applyMu.Unlock()

	stored, created, err := p.cfg.Store.UpsertMedia(ctx, item)
	if errors.Is(err, store.ErrBlacklisted) {
		logging.Debug().Str("identity", res.Identity.String()).Msg("Discovery suppressed by blacklist")
		return outcomeDiscarded, nil
	}
	if err != nil {
		return outcomeFailed, err
	}

	if created {
		p.queueScope(models.ScopeType(stored.Type))
	} else {
		p.queueScope(models.ScopeItem(stored.Identity(), stored.Type))
	}
	return outcomeApplied, nil
}

func (p *Processor) handleFileRemoved(ctx context.Context, e event.Event) (string, error) {
	if e.File == nil {
		return outcomeDiscarded, errors.New("file event without payload")
	}

	identity := models.MediaIdentity{Source: "local", ProviderID: e.File.Path}
	p.applyMu.Lock()
	defer p.applyMu.Unlock()

	removed, err := p.cfg.Store.RemoveMediaByIdentity(ctx, identity)
	if err != nil {
		return outcomeFailed, err
	}
	if removed == "" {
		return outcomeDiscarded, nil
	}
	p.queueScope(models.ScopeAll())
	return outcomeApplied, nil
}

func (p *Processor) handleBrowserActivity(ctx context.Context, e event.Event) (string, error) {
	if e.Browser == nil {
		return outcomeDiscarded, errors.New("browser event without payload")
	}

	res := p.cfg.Registry.ResolveSignal(e.Browser.URL)
	if res == nil {
		res = p.cfg.Registry.ResolveSignal(e.Browser.WindowTitle)
	}
	return p.applyActivity(ctx, e, res, "browser")
}

func (p *Processor) handleAppActivity(ctx context.Context, e event.Event) (string, error) {
	if e.App == nil {
		return outcomeDiscarded, errors.New("app event without payload")
	}

	res := p.cfg.Registry.ResolveApp(e.App.ProcessName, e.App.WindowTitle)
	return p.applyActivity(ctx, e, res, "app")
}

// applyActivity is the shared path for browser and app observations:
// dedup, upsert with the observation time, and optional enrichment.
func (p *Processor) applyActivity(ctx context.Context, e event.Event, res *provider.Resolution, openMethod string) (string, error) {
	if res == nil {
		return outcomeDiscarded, nil
	}

	if p.cfg.Seen != nil && p.cfg.Seen.IsDuplicate(res.Identity.Key()) {
		return outcomeDiscarded, nil
	}

	item := itemFromResolution(res)
	observedAt := e.ObservedAt
	item.LastOpenedAt = &observedAt
	item.OpenMethod = openMethod

	p.applyMu.Lock()
	defer p.applyMu.Unlock()

	stored, created, err := p.cfg.Store.UpsertMedia(ctx, item)
	if errors.Is(err, store.ErrBlacklisted) {
		logging.Debug().Str("identity", res.Identity.String()).Msg("Activity suppressed by blacklist")
		return outcomeDiscarded, nil
	}
	if err != nil {
		return outcomeFailed, err
	}

	if created {
		p.queueScope(models.ScopeType(stored.Type))
	} else {
		p.queueScope(models.ScopeItem(stored.Identity(), stored.Type))
	}

	if created && res.HasRealID && p.cfg.Enricher != nil {
		p.scheduleEnrichment(ctx, res.Identity, stored.Title)
	}
	return outcomeApplied, nil
}

func (p *Processor) handleControl(e event.Event) (string, error) {
	if e.Control == nil {
		return outcomeDiscarded, errors.New("control event without payload")
	}

	logging.Info().Str("command", e.Control.Command).Msg("Control command")
	switch e.Control.Command {
	case event.CommandShow:
		if p.cfg.OnVisibility != nil {
			p.cfg.OnVisibility(true)
		}
	case event.CommandHide:
		if p.cfg.OnVisibility != nil {
			p.cfg.OnVisibility(false)
		}
	case event.CommandRescanNow:
		if p.cfg.Rescanner != nil {
			p.cfg.Rescanner.RescanNow()
		}
	case event.CommandQuit:
		if p.cfg.OnQuit != nil {
			p.cfg.OnQuit()
		}
	default:
		return outcomeDiscarded, nil
	}
	return outcomeApplied, nil
}

func (p *Processor) handleDiagnostic(e event.Event) (string, error) {
	if e.Diagnostic == nil {
		return outcomeDiscarded, errors.New("diagnostic event without payload")
	}
	if p.cfg.OnDiagnostic != nil {
		p.cfg.OnDiagnostic(e.SourceID, e.Diagnostic.Message)
	}
	return outcomeApplied, nil
}

// queueScope records a refresh scope for the current burst. Must be called
// with applyMu held.
func (p *Processor) queueScope(scope models.RefreshScope) {
	p.pendingScopes = append(p.pendingScopes, scope)
}

// flushScopes delivers the burst's refresh notifications: a single scope
// goes out as-is, anything more collapses to one full refresh.
func (p *Processor) flushScopes() {
	p.applyMu.Lock()
	scopes := p.pendingScopes
	p.pendingScopes = nil
	p.applyMu.Unlock()

	switch len(scopes) {
	case 0:
	case 1:
		p.cfg.Notifier.Notify(scopes[0])
	default:
		p.cfg.Notifier.Notify(models.ScopeAll())
	}
}

// scheduleEnrichment fetches metadata off the consumer goroutine and
// applies the result under the same mutation lock as regular events.
// Must be called with applyMu held (it only launches the goroutine).
func (p *Processor) scheduleEnrichment(ctx context.Context, identity models.MediaIdentity, hint string) {
	p.enrichWG.Add(1)
	go func() {
		defer p.enrichWG.Done()

		enriched, err := p.cfg.Enricher.Enrich(ctx, identity, hint)
		if err != nil {
			logging.Debug().Err(err).Str("identity", identity.String()).Msg("Enrichment failed")
			return
		}
		if enriched == nil {
			return
		}
		p.applyEnrichment(ctx, enriched)
	}()
}

// applyEnrichment merges fetched metadata into the stored item and
// notifies with an item scope.
func (p *Processor) applyEnrichment(ctx context.Context, enriched *Enrichment) {
	p.applyMu.Lock()
	defer p.applyMu.Unlock()

	current, err := p.cfg.Store.GetMediaByIdentity(ctx, enriched.Identity)
	if err != nil {
		// Removed or blacklisted since the fetch started; drop it.
		return
	}

	if enriched.Title != "" {
		current.Title = enriched.Title
	}
	if enriched.Description != "" {
		current.Description = enriched.Description
	}
	if enriched.ThumbnailURL != "" {
		current.ThumbnailURL = enriched.ThumbnailURL
	}
	if enriched.LengthSeconds > 0 {
		current.LengthSeconds = enriched.LengthSeconds
	}

	if _, _, err := p.cfg.Store.UpsertMedia(ctx, current); err != nil {
		logging.Debug().Err(err).Str("identity", enriched.Identity.String()).Msg("Enrichment apply failed")
		return
	}
	p.cfg.Notifier.Notify(models.ScopeItem(enriched.Identity, current.Type))
}

// itemFromResolution maps a provider resolution onto a catalog item.
func itemFromResolution(res *provider.Resolution) *models.MediaItem {
	title := res.Title
	if title == "" {
		title = res.Identity.ProviderID
	}
	return &models.MediaItem{
		Title:        title,
		Type:         res.Type,
		Source:       res.Identity.Source,
		ProviderID:   res.Identity.ProviderID,
		IsLocalFile:  res.IsLocalFile,
		LocalPath:    res.LocalPath,
		ThumbnailURL: res.ThumbnailURL,
		Description:  res.Description,
		Channel:      res.Channel,
	}
}
