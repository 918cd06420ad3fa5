// MediaBrain - Personal Media Consumption Catalogue
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabrain

// Package provider resolves raw detection signals (URLs, window titles,
// file paths) into structured media identities. Resolution is a pure
// lookup: providers hold compiled patterns but no mutable state.
//
// Providers are consulted in registration order, chain-of-responsibility
// style; the first match wins, so specific providers (Netflix, Disney+)
// come before generic ones (local files).
package provider

import (
	"regexp"
	"strings"

	"github.com/tomtom215/mediabrain/internal/models"
)

// Resolution is the outcome of identifying a signal.
type Resolution struct {
	Identity models.MediaIdentity
	Title    string
	Type     string

	// HasRealID is true when the provider extracted a stable external id
	// (e.g. a watch URL id) rather than falling back to a cleaned title.
	// Metadata enrichment is only attempted for real ids.
	HasRealID bool

	IsLocalFile  bool
	LocalPath    string
	ThumbnailURL string
	Description  string
	Channel      string
}

// Provider identifies media for one source.
type Provider interface {
	// Name is the display name (e.g. "Netflix").
	Name() string
	// Source is the stable source id used in identities (e.g. "netflix").
	Source() string
	// Matches reports whether this provider is responsible for the signal.
	Matches(signal string) bool
	// Extract parses the signal. Returns nil when nothing usable was found
	// even though Matches returned true (e.g. an overview page title that
	// cleans down to nothing).
	Extract(signal string) *Resolution

	// BrowserURL builds a web URL for a provider id, or "" if unsupported.
	BrowserURL(providerID string) string
	// DeepLink builds a native-app deep link, or "" if unsupported.
	DeepLink(providerID string) string
}

// selfWindowMarker identifies our own windows; matching titles are never
// treated as media signals.
const selfWindowMarker = "MediaBrain"

// browserSuffixes are generic window-title suffixes appended by browsers.
var browserSuffixes = []string{
	" - Google Chrome",
	" - Mozilla Firefox",
	" - Microsoft​ Edge",
	" - Microsoft Edge",
	" - Brave",
	" - Personal",
	" — Mozilla Firefox",
}

// multiTabPatterns match multi-tab count markers some browsers append.
var multiTabPatterns = []*regexp.Regexp{
	regexp.MustCompile(` and \d+ more pages?`),
	regexp.MustCompile(` und \d+ weitere Seiten`),
}

// CleanWindowTitle strips provider phrases, browser suffixes and multi-tab
// markers from a raw window title. Returns "" for our own windows.
func CleanWindowTitle(title string, removePhrases []string) string {
	if strings.Contains(title, selfWindowMarker) {
		return ""
	}

	for _, re := range multiTabPatterns {
		title = re.ReplaceAllString(title, "")
	}
	for _, phrase := range removePhrases {
		if idx := strings.Index(title, phrase); idx >= 0 {
			title = title[:idx]
		}
	}
	for _, suffix := range browserSuffixes {
		if idx := strings.Index(title, suffix); idx >= 0 {
			title = title[:idx]
		}
	}

	return strings.TrimSpace(title)
}

// Registry holds the ordered provider chain.
type Registry struct {
	providers []Provider
	local     *LocalProvider
}

// NewRegistry creates a registry with the default provider chain.
func NewRegistry() *Registry {
	local := NewLocalProvider()
	return &Registry{
		providers: []Provider{
			NewNetflixProvider(),
			NewDisneyPlusProvider(),
			NewAmazonPrimeProvider(),
			NewAppleTVProvider(),
			NewYouTubeProvider(),
			NewTwitchProvider(),
			NewSpotifyProvider(),
			local,
		},
		local: local,
	}
}

// ResolveSignal identifies a URL or window-title signal. Returns nil when
// no provider is responsible — a normal outcome, not an error: most window
// titles are not media titles.
func (r *Registry) ResolveSignal(signal string) *Resolution {
	if strings.TrimSpace(signal) == "" {
		return nil
	}
	for _, p := range r.providers {
		if !p.Matches(signal) {
			continue
		}
		if res := p.Extract(signal); res != nil {
			return res
		}
	}
	return nil
}

// processSources routes known desktop client process names to a source id,
// so that a bare "Artist - Track" title from the Spotify client still lands
// with the right provider.
var processSources = map[string]string{
	"spotify":    "spotify",
	"netflix":    "netflix",
	"appletv":    "appletv",
	"tv":         "appletv",
	"primevideo": "primevideo",
}

// ResolveApp identifies an application window signal. The process name
// routes the title straight to that application's provider when one is
// registered; otherwise the title goes through the normal chain.
func (r *Registry) ResolveApp(processName, windowTitle string) *Resolution {
	proc := strings.ToLower(strings.TrimSuffix(processName, ".exe"))
	if source, ok := processSources[proc]; ok {
		if p := r.BySource(source); p != nil {
			return p.Extract(windowTitle)
		}
	}
	return r.ResolveSignal(windowTitle)
}

// ResolveLocal identifies a local file path, bypassing the streaming chain.
// Returns nil for unsupported extensions.
func (r *Registry) ResolveLocal(path string) *Resolution {
	return r.local.ExtractPath(path)
}

// BySource returns the provider registered for a source id, or nil.
func (r *Registry) BySource(source string) Provider {
	for _, p := range r.providers {
		if p.Source() == source {
			return p
		}
	}
	return nil
}

// Names returns the display names of all registered providers.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for _, p := range r.providers {
		names = append(names, p.Name())
	}
	return names
}
