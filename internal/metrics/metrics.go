// MediaBrain - Personal Media Consumption Catalogue
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabrain

// Package metrics provides Prometheus instrumentation for the detection
// pipeline: watcher emissions, queue depth, event processing, store
// operations, and WebSocket fan-out.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Watcher metrics
	EventsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watcher_events_emitted_total",
			Help: "Total number of events emitted by watchers",
		},
		[]string{"source", "kind"},
	)

	WatcherSampleFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watcher_sample_failures_total",
			Help: "Total number of failed sampling iterations",
		},
		[]string{"source"},
	)

	WatcherDiagnostics = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "watcher_diagnostics_total",
			Help: "Total number of diagnostic events raised after repeated failures",
		},
		[]string{"source"},
	)

	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "file_indexer_scan_duration_seconds",
			Help:    "Duration of full filesystem scans in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	ScanFilesSeen = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "file_indexer_scan_files_seen",
			Help:    "Number of media files visited per scan",
			Buckets: []float64{10, 50, 100, 500, 1000, 5000, 10000, 50000},
		},
	)

	// Queue metrics
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "event_queue_depth",
			Help: "Current depth of the event queue",
		},
	)

	QueueHighWaterHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "event_queue_high_water_hits_total",
			Help: "Total number of times the queue depth crossed the high-water mark",
		},
	)

	// Processor metrics
	EventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_processed_total",
			Help: "Total number of events consumed by the processor",
		},
		[]string{"kind", "outcome"}, // outcome: "applied", "discarded", "failed"
	)

	ProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "event_processing_duration_seconds",
			Help:    "Duration of single-event processing in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	RefreshNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refresh_notifications_total",
			Help: "Total number of refresh notifications delivered to subscribers",
		},
		[]string{"scope"},
	)

	// Store metrics
	StoreOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_operation_duration_seconds",
			Help:    "Duration of store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	StoreOpErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_operation_errors_total",
			Help: "Total number of failed store operations",
		},
		[]string{"operation"},
	)

	// Metadata fetcher metrics
	MetadataFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metadata_fetches_total",
			Help: "Total number of metadata enrichment attempts",
		},
		[]string{"provider", "outcome"}, // outcome: "ok", "skipped", "error"
	)

	// WebSocket metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSMessagesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_dropped_total",
			Help: "Total number of WebSocket messages dropped due to slow clients",
		},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)
)

// RecordEmitted records one watcher emission.
func RecordEmitted(source, kind string) {
	EventsEmitted.WithLabelValues(source, kind).Inc()
}

// RecordSampleFailure records one failed sampling iteration.
func RecordSampleFailure(source string) {
	WatcherSampleFailures.WithLabelValues(source).Inc()
}

// RecordDiagnostic records a degraded-watcher diagnostic.
func RecordDiagnostic(source string) {
	WatcherDiagnostics.WithLabelValues(source).Inc()
}

// RecordScan records one full filesystem scan.
func RecordScan(duration time.Duration, filesSeen int) {
	ScanDuration.Observe(duration.Seconds())
	ScanFilesSeen.Observe(float64(filesSeen))
}

// UpdateQueueDepth updates the queue depth gauge.
func UpdateQueueDepth(depth int) {
	QueueDepth.Set(float64(depth))
}

// RecordQueueHighWater records one high-water mark crossing.
func RecordQueueHighWater() {
	QueueHighWaterHits.Inc()
}

// RecordProcessed records one consumed event and its outcome.
func RecordProcessed(kind, outcome string, duration time.Duration) {
	EventsProcessed.WithLabelValues(kind, outcome).Inc()
	ProcessingDuration.Observe(duration.Seconds())
}

// RecordRefresh records one delivered refresh notification.
func RecordRefresh(scope string) {
	RefreshNotifications.WithLabelValues(scope).Inc()
}

// RecordStoreOp records one store operation.
func RecordStoreOp(operation string, duration time.Duration, err error) {
	StoreOpDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		StoreOpErrors.WithLabelValues(operation).Inc()
	}
}

// RecordMetadataFetch records one enrichment attempt.
func RecordMetadataFetch(provider, outcome string) {
	MetadataFetches.WithLabelValues(provider, outcome).Inc()
}

// RecordAPIRequest records one API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
