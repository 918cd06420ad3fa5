// MediaBrain - Personal Media Consumption Catalogue
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabrain

package watcher

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/tomtom215/mediabrain/internal/event"
	"github.com/tomtom215/mediabrain/internal/logging"
)

// Sample is one observation of the user's foreground activity. Browser
// samplers fill URL and WindowTitle; app samplers fill ProcessName and
// WindowTitle. An all-empty sample means nothing relevant in focus.
type Sample struct {
	URL         string
	ProcessName string
	WindowTitle string
}

// key collapses a sample to a comparable identity for debouncing.
func (s Sample) key() string {
	return s.URL + "\x00" + s.ProcessName + "\x00" + s.WindowTitle
}

// empty reports whether the sample carries no signal.
func (s Sample) empty() bool {
	return s.URL == "" && s.ProcessName == "" && s.WindowTitle == ""
}

// Sampler reads the current foreground activity. Implementations wrap the
// platform-specific window/tab inspection and are injected so the watcher
// loop stays testable.
type Sampler interface {
	Sample(ctx context.Context) (Sample, error)
}

// ActivityConfig configures an activity watcher.
type ActivityConfig struct {
	// Interval is the sampling cadence.
	Interval time.Duration
}

// DefaultActivityConfig returns production defaults.
func DefaultActivityConfig() ActivityConfig {
	return ActivityConfig{
		Interval: 2 * time.Second,
	}
}

// ActivityWatcher polls a Sampler and emits a browser or app activity event
// whenever the sample changes. Repeated identical samples are debounced:
// a tab left open produces one event, not one per tick.
type ActivityWatcher struct {
	name    string
	kind    event.Kind
	sampler Sampler
	sink    Sink
	clk     clock.Clock
	config  ActivityConfig

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewBrowserWatcher creates the watcher for browser tab activity.
func NewBrowserWatcher(sampler Sampler, sink Sink, clk clock.Clock, config ActivityConfig) *ActivityWatcher {
	return newActivityWatcher("browser-watcher", event.KindBrowserActivity, sampler, sink, clk, config)
}

// NewAppWatcher creates the watcher for desktop application activity.
func NewAppWatcher(sampler Sampler, sink Sink, clk clock.Clock, config ActivityConfig) *ActivityWatcher {
	return newActivityWatcher("app-watcher", event.KindAppActivity, sampler, sink, clk, config)
}

func newActivityWatcher(name string, kind event.Kind, sampler Sampler, sink Sink, clk clock.Clock, config ActivityConfig) *ActivityWatcher {
	if clk == nil {
		clk = clock.New()
	}
	if config.Interval <= 0 {
		config.Interval = DefaultActivityConfig().Interval
	}
	return &ActivityWatcher{
		name:     name,
		kind:     kind,
		sampler:  sampler,
		sink:     sink,
		clk:      clk,
		config:   config,
		stopChan: make(chan struct{}),
	}
}

// Name returns the watcher's source id.
func (w *ActivityWatcher) Name() string { return w.name }

// Start begins the sampling loop.
func (w *ActivityWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopChan = make(chan struct{})
	w.mu.Unlock()

	logging.Info().
		Str("watcher", w.name).
		Dur("interval", w.config.Interval).
		Msg("Starting activity watcher")

	w.wg.Add(1)
	go w.loop(ctx)
	return nil
}

// Serve implements suture.Service for supervisor integration.
func (w *ActivityWatcher) Serve(ctx context.Context) error {
	if err := w.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	w.Stop()
	return ctx.Err()
}

// Stop gracefully stops the sampling loop.
func (w *ActivityWatcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopChan)
	w.mu.Unlock()

	w.wg.Wait()
	logging.Info().Str("watcher", w.name).Msg("Activity watcher stopped")
}

// IsRunning returns whether the watcher is active.
func (w *ActivityWatcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *ActivityWatcher) loop(ctx context.Context) {
	defer w.wg.Done()

	ticker := w.clk.Ticker(w.config.Interval)
	defer ticker.Stop()

	var (
		tracker = failureTracker{source: w.name}
		last    Sample
	)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case <-ticker.C:
		}

		sample, err := w.sampler.Sample(ctx)
		if err != nil {
			logging.Debug().Err(err).Str("watcher", w.name).Msg("Sample failed")
			if tracker.fail() {
				emitDiagnostic(w.sink, w.name, "sampling failed repeatedly: "+err.Error(), tracker.failures)
			}
			continue
		}
		tracker.ok()

		// Emit only on change from the previous sample; identical
		// consecutive observations are suppressed. Empty samples (no
		// relevant window in focus) are skipped but still count as a
		// change, so returning to the same media is observed again.
		if sample.key() == last.key() {
			continue
		}
		last = sample
		if sample.empty() {
			continue
		}
		w.emitSample(sample)
	}
}

func (w *ActivityWatcher) emitSample(s Sample) {
	switch w.kind {
	case event.KindBrowserActivity:
		emit(w.sink, event.NewBrowserActivity(w.name, s.URL, s.WindowTitle))
	case event.KindAppActivity:
		emit(w.sink, event.NewAppActivity(w.name, s.ProcessName, s.WindowTitle))
	default:
	}
}
