// MediaBrain - Personal Media Consumption Catalogue
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabrain

package processor

import (
	"sync"

	"github.com/tomtom215/mediabrain/internal/logging"
	"github.com/tomtom215/mediabrain/internal/metrics"
	"github.com/tomtom215/mediabrain/internal/models"
)

// Subscriber receives refresh notifications. Subscribers run on the
// processor's apply path after the store commit, so a subscriber that
// queries the store always observes the mutation that triggered it.
// Subscribers must be fast; anything slow should hand off internally.
type Subscriber func(scope models.RefreshScope)

// Notifier fans refresh scopes out to registered subscribers (the WebSocket
// hub, tests). A panicking subscriber is logged and skipped, never allowed
// to take the pipeline down.
type Notifier struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]Subscriber
}

// NewNotifier creates an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[int]Subscriber)}
}

// Subscribe registers a subscriber and returns its unsubscribe function.
func (n *Notifier) Subscribe(fn Subscriber) func() {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.subs[id] = fn
	n.mu.Unlock()

	return func() {
		n.mu.Lock()
		delete(n.subs, id)
		n.mu.Unlock()
	}
}

// Notify delivers the scope to every subscriber, in registration order not
// guaranteed. Called by the processor after a committed mutation.
func (n *Notifier) Notify(scope models.RefreshScope) {
	n.mu.RLock()
	subs := make([]Subscriber, 0, len(n.subs))
	for _, fn := range n.subs {
		subs = append(subs, fn)
	}
	n.mu.RUnlock()

	metrics.RecordRefresh(scope.Kind)
	for _, fn := range subs {
		n.deliver(fn, scope)
	}
}

func (n *Notifier) deliver(fn Subscriber, scope models.RefreshScope) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error().Interface("panic", r).Msg("Refresh subscriber panicked")
		}
	}()
	fn(scope)
}
