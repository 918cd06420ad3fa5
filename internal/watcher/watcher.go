// MediaBrain - Personal Media Consumption Catalogue
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabrain

// Package watcher contains the detection sources that feed the event queue:
// the file indexer and the browser/app activity watchers. Watchers degrade
// rather than die: a sampling failure is counted, not fatal, and three
// consecutive failures emit a diagnostic event for the UI.
package watcher

import (
	"context"

	"github.com/tomtom215/mediabrain/internal/event"
	"github.com/tomtom215/mediabrain/internal/logging"
	"github.com/tomtom215/mediabrain/internal/metrics"
)

// consecutiveFailureThreshold is how many back-to-back sampling failures
// trigger a diagnostic event. The counter resets on the first success.
const consecutiveFailureThreshold = 3

// Sink accepts events from watchers. *event.Queue satisfies it.
type Sink interface {
	Push(e event.Event) error
}

// Watcher is one detection source. Start/Stop manage the internal goroutine
// directly; Serve adapts the watcher to suture.Service.
type Watcher interface {
	Name() string
	Start(ctx context.Context) error
	Stop()
	Serve(ctx context.Context) error
}

// failureTracker counts consecutive sampling failures and decides when a
// diagnostic event is due. Not safe for concurrent use; each watcher owns
// one and touches it only from its own loop goroutine.
type failureTracker struct {
	source   string
	failures int
	notified bool
}

// fail records one failure. Returns true exactly once per failure streak,
// when the streak reaches the threshold.
func (f *failureTracker) fail() bool {
	f.failures++
	metrics.RecordSampleFailure(f.source)
	if f.failures >= consecutiveFailureThreshold && !f.notified {
		f.notified = true
		return true
	}
	return false
}

// ok resets the streak after a successful sample.
func (f *failureTracker) ok() {
	f.failures = 0
	f.notified = false
}

// emit pushes an event to the sink, logging instead of failing when the
// queue has already been closed during shutdown.
func emit(sink Sink, e event.Event) {
	if err := sink.Push(e); err != nil {
		logging.Debug().Err(err).Str("kind", string(e.Kind)).Msg("Dropped event on closed queue")
		return
	}
	metrics.RecordEmitted(e.SourceID, string(e.Kind))
}

// emitDiagnostic reports a failure streak through the queue itself, so the
// UI learns about degraded watchers the same way it learns everything else.
func emitDiagnostic(sink Sink, source, message string, failures int) {
	logging.Warn().Str("watcher", source).Int("failures", failures).Msg("Watcher degraded")
	metrics.RecordDiagnostic(source)
	emit(sink, event.NewDiagnostic(source, message, failures))
}
