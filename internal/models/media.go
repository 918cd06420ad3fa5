// MediaBrain - Personal Media Consumption Catalogue
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabrain

// Package models defines the core domain types shared across the pipeline,
// store, and API layers: media identities, catalog items, and blacklist
// entries.
package models

import (
	"fmt"
	"time"
)

// Media type constants. These are the only values accepted by the store.
const (
	MediaTypeMovie     = "movie"
	MediaTypeSeries    = "series"
	MediaTypeMusic     = "music"
	MediaTypeClip      = "clip"
	MediaTypePodcast   = "podcast"
	MediaTypeAudiobook = "audiobook"
	MediaTypeDocument  = "document"
	MediaTypeFile      = "file"
)

// AllowedMediaTypes lists every valid media type.
var AllowedMediaTypes = []string{
	MediaTypeMovie,
	MediaTypeSeries,
	MediaTypeMusic,
	MediaTypeClip,
	MediaTypePodcast,
	MediaTypeAudiobook,
	MediaTypeDocument,
	MediaTypeFile,
}

// IsValidMediaType reports whether t is one of the allowed media types.
func IsValidMediaType(t string) bool {
	for _, allowed := range AllowedMediaTypes {
		if t == allowed {
			return true
		}
	}
	return false
}

// MediaIdentity uniquely identifies a piece of media within a provider.
// Source is the provider id (netflix, youtube, spotify, local, ...) and
// ProviderID is the provider-specific identifier: a watch id for streaming
// services, the absolute path for local files.
type MediaIdentity struct {
	Source     string `json:"source"`
	ProviderID string `json:"provider_id"`
}

// Key returns the canonical store key component for this identity.
func (id MediaIdentity) Key() string {
	return id.Source + ":" + id.ProviderID
}

// IsZero reports whether the identity is unset.
func (id MediaIdentity) IsZero() bool {
	return id.Source == "" || id.ProviderID == ""
}

func (id MediaIdentity) String() string {
	return id.Key()
}

// MediaItem is one catalog record. Records are created by the event
// processor when a watcher detection resolves to a known provider, or by
// the user through the API.
type MediaItem struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Type       string `json:"type"`
	Source     string `json:"source"`
	ProviderID string `json:"provider_id"`

	LengthSeconds int        `json:"length_seconds,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	LastOpenedAt  *time.Time `json:"last_opened_at,omitempty"`
	OpenMethod    string     `json:"open_method,omitempty"` // browser, app, local, auto

	IsFavorite  bool   `json:"is_favorite"`
	IsLocalFile bool   `json:"is_local_file"`
	LocalPath   string `json:"local_path,omitempty"`

	Description  string `json:"description,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	Season       int    `json:"season,omitempty"`
	Episode      int    `json:"episode,omitempty"`
	Artist       string `json:"artist,omitempty"`
	Album        string `json:"album,omitempty"`
	Channel      string `json:"channel,omitempty"`
}

// Identity returns the item's media identity.
func (m *MediaItem) Identity() MediaIdentity {
	return MediaIdentity{Source: m.Source, ProviderID: m.ProviderID}
}

// maxTitleLength bounds stored titles; longer titles are truncated with an
// ellipsis rather than rejected, since window titles are unbounded input.
const maxTitleLength = 500

// Validate checks required fields and value constraints before a store write.
func (m *MediaItem) Validate() error {
	if m.Type == "" {
		return fmt.Errorf("media item: type is required")
	}
	if !IsValidMediaType(m.Type) {
		return fmt.Errorf("media item: invalid type %q", m.Type)
	}
	if m.Source == "" {
		return fmt.Errorf("media item: source is required")
	}
	if m.ProviderID == "" {
		return fmt.Errorf("media item: provider_id is required")
	}
	if m.LengthSeconds < 0 {
		return fmt.Errorf("media item: length_seconds cannot be negative")
	}
	if m.Season < 0 || m.Episode < 0 {
		return fmt.Errorf("media item: season/episode cannot be negative")
	}
	return nil
}

// NormalizeTitle truncates over-long titles in place.
func (m *MediaItem) NormalizeTitle() {
	if len(m.Title) > maxTitleLength {
		m.Title = m.Title[:maxTitleLength-3] + "..."
	}
}
