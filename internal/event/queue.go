// MediaBrain - Personal Media Consumption Catalogue
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabrain

package event

import (
	"errors"
	"sync"

	"github.com/tomtom215/mediabrain/internal/metrics"
)

// ErrQueueClosed is returned by Push after Close has been called.
var ErrQueueClosed = errors.New("event queue closed")

// Queue is an unbounded FIFO channel between many watcher producers and a
// single consumer. Per-producer push order is preserved; cross-producer
// interleaving is consumer-observed arrival order.
//
// The queue is unbounded so watchers never block and no detection is
// silently dropped. Sustained producer/consumer imbalance is surfaced
// through a high-water diagnostic instead of backpressure: every time the
// depth crosses the configured mark, a counter and a log-visible flag are
// raised (see Stats and the queue_depth metrics).
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []Event
	closed bool

	highWater     int
	highWaterHits uint64
	pushed        uint64
	popped        uint64
}

// NewQueue creates a queue with the given high-water mark. A mark of zero
// disables depth diagnostics.
func NewQueue(highWater int) *Queue {
	q := &Queue{highWater: highWater}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends an event. Amortised O(1), never blocks. The only failure
// mode is pushing after Close.
func (q *Queue) Push(e Event) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	q.items = append(q.items, e)
	q.pushed++

	depth := len(q.items)
	metrics.UpdateQueueDepth(depth)
	if q.highWater > 0 && depth == q.highWater {
		q.highWaterHits++
		metrics.RecordQueueHighWater()
	}

	q.cond.Signal()
	return nil
}

// PopBlocking removes and returns the oldest event, blocking until one is
// available. After Close, it drains any remaining events and then returns
// ok=false forever.
func (q *Queue) PopBlocking() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}

	if len(q.items) == 0 {
		// Closed and drained.
		return Event{}, false
	}

	e := q.items[0]
	q.items = q.items[1:]
	q.popped++
	metrics.UpdateQueueDepth(len(q.items))

	// Release the backing array once fully drained so a burst does not pin
	// its peak allocation.
	if len(q.items) == 0 {
		q.items = nil
	}
	return e, true
}

// TryPop removes and returns the oldest event without blocking.
func (q *Queue) TryPop() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return Event{}, false
	}
	e := q.items[0]
	q.items = q.items[1:]
	q.popped++
	metrics.UpdateQueueDepth(len(q.items))
	if len(q.items) == 0 {
		q.items = nil
	}
	return e, true
}

// Close marks the queue closed and wakes any blocked consumer. Idempotent.
// Already-queued events remain poppable; new pushes fail.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.cond.Broadcast()
}

// Closed reports whether Close has been called.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Len returns the current queue depth.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// QueueStats is a point-in-time snapshot of queue counters.
type QueueStats struct {
	Depth         int
	Pushed        uint64
	Popped        uint64
	HighWaterHits uint64
}

// Stats returns a snapshot of the queue counters.
func (q *Queue) Stats() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return QueueStats{
		Depth:         len(q.items),
		Pushed:        q.pushed,
		Popped:        q.popped,
		HighWaterHits: q.highWaterHits,
	}
}
