// MediaBrain - Personal Media Consumption Catalogue
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabrain

package models

// RefreshScope hints which view a refresh notification invalidates, so
// subscribers can redraw only the affected part. ScopeAll is the
// full-refresh fallback.
type RefreshScope struct {
	// Kind is one of "all", "type", "item", "blacklist".
	Kind string `json:"kind"`
	// MediaType is set when Kind == "type".
	MediaType string `json:"media_type,omitempty"`
	// Identity is set when Kind == "item".
	Identity MediaIdentity `json:"identity,omitempty"`
}

// ScopeAll invalidates every view.
func ScopeAll() RefreshScope {
	return RefreshScope{Kind: "all"}
}

// ScopeType invalidates one media-type view.
func ScopeType(mediaType string) RefreshScope {
	return RefreshScope{Kind: "type", MediaType: mediaType}
}

// ScopeItem invalidates one catalog record.
func ScopeItem(identity MediaIdentity, mediaType string) RefreshScope {
	return RefreshScope{Kind: "item", MediaType: mediaType, Identity: identity}
}

// ScopeBlacklist invalidates the blacklist view.
func ScopeBlacklist() RefreshScope {
	return RefreshScope{Kind: "blacklist"}
}
