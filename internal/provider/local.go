// MediaBrain - Personal Media Consumption Catalogue
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabrain

package provider

import (
	"path/filepath"
	"strings"

	"github.com/tomtom215/mediabrain/internal/models"
)

// extensionTypes maps file extensions (lowercase, with dot) onto media types.
var extensionTypes = map[string]string{
	".mp4":  models.MediaTypeMovie,
	".mkv":  models.MediaTypeMovie,
	".avi":  models.MediaTypeMovie,
	".mov":  models.MediaTypeMovie,
	".wmv":  models.MediaTypeMovie,
	".webm": models.MediaTypeClip,
	".mp3":  models.MediaTypeMusic,
	".flac": models.MediaTypeMusic,
	".wav":  models.MediaTypeMusic,
	".m4a":  models.MediaTypeMusic,
	".aac":  models.MediaTypeMusic,
	".ogg":  models.MediaTypeMusic,
	".m4b":  models.MediaTypeAudiobook,
	".pdf":  models.MediaTypeDocument,
	".epub": models.MediaTypeDocument,
}

// LocalProvider identifies media files on disk by extension. The provider id
// is the absolute path, which is stable for as long as the file stays put.
type LocalProvider struct{}

func NewLocalProvider() *LocalProvider { return &LocalProvider{} }

func (p *LocalProvider) Name() string   { return "Local Files" }
func (p *LocalProvider) Source() string { return "local" }

// SupportedExtension reports whether the path's extension is catalogued.
func SupportedExtension(path string) bool {
	_, ok := extensionTypes[strings.ToLower(filepath.Ext(path))]
	return ok
}

// MediaTypeForPath returns the media type for a path's extension, or "".
func MediaTypeForPath(path string) string {
	return extensionTypes[strings.ToLower(filepath.Ext(path))]
}

func (p *LocalProvider) Matches(signal string) bool {
	if !strings.ContainsAny(signal, `/\`) {
		return false
	}
	return SupportedExtension(signal)
}

func (p *LocalProvider) Extract(signal string) *Resolution {
	return p.ExtractPath(signal)
}

// ExtractPath resolves a filesystem path. Returns nil for unsupported
// extensions. The title is the base name without extension.
func (p *LocalProvider) ExtractPath(path string) *Resolution {
	mediaType := MediaTypeForPath(path)
	if mediaType == "" {
		return nil
	}

	base := filepath.Base(path)
	title := strings.TrimSuffix(base, filepath.Ext(base))
	return &Resolution{
		Identity:    models.MediaIdentity{Source: p.Source(), ProviderID: path},
		Title:       title,
		Type:        mediaType,
		HasRealID:   true,
		IsLocalFile: true,
		LocalPath:   path,
	}
}

func (p *LocalProvider) BrowserURL(providerID string) string {
	return "file://" + providerID
}

func (p *LocalProvider) DeepLink(providerID string) string {
	return "file://" + providerID
}
