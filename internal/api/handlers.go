// MediaBrain - Personal Media Consumption Catalogue
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabrain

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/mediabrain/internal/models"
	"github.com/tomtom215/mediabrain/internal/store"
	"github.com/tomtom215/mediabrain/internal/tray"
)

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStatus reports pipeline state for the frontend's about panel.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.CountMedia(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "count media")
		return
	}

	stats := s.queue.Stats()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"media_count": count,
		"providers":   s.registry.Names(),
		"queue": map[string]interface{}{
			"depth":           stats.Depth,
			"pushed":          stats.Pushed,
			"popped":          stats.Popped,
			"high_water_hits": stats.HighWaterHits,
		},
	})
}

// handleListMedia returns catalogue items, optionally filtered by ?type=.
func (s *Server) handleListMedia(w http.ResponseWriter, r *http.Request) {
	mediaType := r.URL.Query().Get("type")
	if mediaType != "" && !models.IsValidMediaType(mediaType) {
		writeError(w, http.StatusBadRequest, "invalid media type")
		return
	}

	items, err := s.store.ListMedia(r.Context(), mediaType)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list media")
		return
	}
	if items == nil {
		items = []*models.MediaItem{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items, "count": len(items)})
}

func (s *Server) handleGetMedia(w http.ResponseWriter, r *http.Request) {
	item, err := s.store.GetMedia(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "media not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "get media")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleDeleteMedia(w http.ResponseWriter, r *http.Request) {
	if err := s.store.RemoveMedia(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, "remove media")
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// favoriteRequest toggles the favorite flag.
type favoriteRequest struct {
	Favorite *bool `json:"favorite" validate:"required"`
}

func (s *Server) handleSetFavorite(w http.ResponseWriter, r *http.Request) {
	var req favoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "favorite field is required")
		return
	}

	err := s.store.SetFavorite(r.Context(), chi.URLParam(r, "id"), *req.Favorite)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "media not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "set favorite")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"favorite": *req.Favorite})
}

// handleOpenLinks returns the URLs a frontend can use to open the item.
func (s *Server) handleOpenLinks(w http.ResponseWriter, r *http.Request) {
	item, err := s.store.GetMedia(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "media not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "get media")
		return
	}

	p := s.registry.BySource(item.Source)
	if p == nil {
		writeError(w, http.StatusUnprocessableEntity, "no provider for source")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"browser_url": p.BrowserURL(item.ProviderID),
		"deep_link":   p.DeepLink(item.ProviderID),
	})
}

// blacklistRequest blocks an identity. Procedure codes: 0 removes without
// blocking, 1-5 block for one day up to one year, 6 blocks forever.
type blacklistRequest struct {
	Source     string `json:"source" validate:"required"`
	ProviderID string `json:"provider_id" validate:"required"`
	Procedure  int    `json:"procedure" validate:"gte=0,lte=6"`
}

func (s *Server) handleBlacklist(w http.ResponseWriter, r *http.Request) {
	var req blacklistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "source, provider_id and procedure 0-6 are required")
		return
	}

	identity := models.MediaIdentity{Source: req.Source, ProviderID: req.ProviderID}
	removed, err := s.store.Blacklist(r.Context(), identity, models.ProcedureCode(req.Procedure))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "blacklist")
		return
	}

	if s.hub != nil {
		s.hub.BroadcastRefresh(models.ScopeBlacklist())
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"identity":   identity,
		"procedure":  req.Procedure,
		"removed_id": removed,
	})
}

// identityRequest addresses a blacklist entry.
type identityRequest struct {
	Source     string `json:"source" validate:"required"`
	ProviderID string `json:"provider_id" validate:"required"`
}

func (s *Server) handleUnblacklist(w http.ResponseWriter, r *http.Request) {
	var req identityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "source and provider_id are required")
		return
	}

	identity := models.MediaIdentity{Source: req.Source, ProviderID: req.ProviderID}
	if err := s.store.Unblacklist(r.Context(), identity); err != nil {
		writeError(w, http.StatusInternalServerError, "unblacklist")
		return
	}
	if s.hub != nil {
		s.hub.BroadcastRefresh(models.ScopeBlacklist())
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleListBlacklist(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.ListActiveBlacklist(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list blacklist")
		return
	}
	if entries == nil {
		entries = []*models.BlacklistEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries, "count": len(entries)})
}

// handleControl enqueues a tray control command.
func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	command := chi.URLParam(r, "command")

	err := s.tray.Trigger(command)
	var unknown *tray.ErrUnknownCommand
	if errors.As(err, &unknown) {
		writeError(w, http.StatusBadRequest, unknown.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "pipeline is shutting down")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"command": command})
}
