// MediaBrain - Personal Media Consumption Catalogue
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabrain

// Package metadata enriches catalog items with titles and artwork from the
// providers' public oEmbed endpoints. Enrichment is best-effort: the
// pipeline never waits for it and a dead endpoint costs nothing but a log
// line.
//
// Outbound calls are rate limited and wrapped in a circuit breaker so a
// slow or failing endpoint cannot pile up goroutines.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/mediabrain/internal/logging"
	"github.com/tomtom215/mediabrain/internal/metrics"
	"github.com/tomtom215/mediabrain/internal/models"
	"github.com/tomtom215/mediabrain/internal/processor"
	"github.com/tomtom215/mediabrain/internal/provider"
)

// ErrNoEndpoint is returned for sources without a metadata endpoint.
var ErrNoEndpoint = errors.New("metadata: no endpoint for source")

// defaultEndpoints maps sources to their oEmbed endpoints. Both are keyless
// public APIs.
var defaultEndpoints = map[string]string{
	"youtube": "https://www.youtube.com/oembed",
	"spotify": "https://open.spotify.com/oembed",
}

// Config configures the metadata client.
type Config struct {
	// Timeout bounds one fetch, connection setup included.
	Timeout time.Duration
	// RequestsPerSecond throttles outbound calls across all goroutines.
	RequestsPerSecond float64
	// Burst is the limiter's burst allowance.
	Burst int
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:           10 * time.Second,
		RequestsPerSecond: 2,
		Burst:             4,
	}
}

// Client fetches oEmbed metadata. It implements processor.Enricher.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	cb         *gobreaker.CircuitBreaker[*oembedResponse]
	registry   *provider.Registry
	endpoints  map[string]string
}

// oembedResponse is the subset of the oEmbed payload we keep.
type oembedResponse struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// New creates a metadata client over the given provider registry.
func New(cfg Config, registry *provider.Registry) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultConfig().RequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultConfig().Burst
	}

	cb := gobreaker.NewCircuitBreaker[*oembedResponse](gobreaker.Settings{
		Name:    "metadata-oembed",
		Timeout: 2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state change")
		},
	})

	endpoints := make(map[string]string, len(defaultEndpoints))
	for source, endpoint := range defaultEndpoints {
		endpoints[source] = endpoint
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		cb:         cb,
		registry:   registry,
		endpoints:  endpoints,
	}
}

// Enrich fetches metadata for the identity. Sources without an endpoint
// return (nil, nil): nothing to apply, nothing failed.
func (c *Client) Enrich(ctx context.Context, identity models.MediaIdentity, hint string) (*processor.Enrichment, error) {
	endpoint, ok := c.endpoints[identity.Source]
	if !ok {
		metrics.RecordMetadataFetch(identity.Source, "skipped")
		return nil, nil
	}

	p := c.registry.BySource(identity.Source)
	if p == nil {
		return nil, ErrNoEndpoint
	}
	browserURL := p.BrowserURL(identity.ProviderID)
	if browserURL == "" {
		metrics.RecordMetadataFetch(identity.Source, "skipped")
		return nil, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	resp, err := c.cb.Execute(func() (*oembedResponse, error) {
		return c.fetch(ctx, endpoint, browserURL)
	})
	if err != nil {
		metrics.RecordMetadataFetch(identity.Source, "error")
		return nil, err
	}

	metrics.RecordMetadataFetch(identity.Source, "ok")
	enrichment := &processor.Enrichment{
		Identity:     identity,
		Title:        resp.Title,
		ThumbnailURL: resp.ThumbnailURL,
	}
	if resp.AuthorName != "" {
		enrichment.Description = "By " + resp.AuthorName
	}
	return enrichment, nil
}

func (c *Client) fetch(ctx context.Context, endpoint, mediaURL string) (*oembedResponse, error) {
	reqURL := endpoint + "?format=json&url=" + url.QueryEscape(mediaURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch oembed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oembed status %d", resp.StatusCode)
	}

	var out oembedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode oembed: %w", err)
	}
	return &out, nil
}
