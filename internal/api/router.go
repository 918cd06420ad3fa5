// MediaBrain - Personal Media Consumption Catalogue
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabrain

// Package api exposes the catalogue over HTTP for the frontend: media
// queries, favorites, blacklisting, control commands, and the WebSocket
// notification endpoint.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/mediabrain/internal/event"
	"github.com/tomtom215/mediabrain/internal/logging"
	"github.com/tomtom215/mediabrain/internal/provider"
	"github.com/tomtom215/mediabrain/internal/store"
	"github.com/tomtom215/mediabrain/internal/tray"
	"github.com/tomtom215/mediabrain/internal/websocket"
)

// Config configures the HTTP server.
type Config struct {
	Host            string
	Port            int
	Timeout         time.Duration
	CORSOrigins     []string
	RateLimitReqs   int
	RateLimitWindow time.Duration
}

// Server is the HTTP API server. It implements suture.Service.
type Server struct {
	cfg      Config
	store    *store.Store
	registry *provider.Registry
	tray     *tray.Controller
	queue    *event.Queue
	hub      *websocket.Hub
	validate *validator.Validate

	httpServer *http.Server
}

// NewServer wires the API over its collaborators. Hub may be nil in tests.
func NewServer(cfg Config, st *store.Store, registry *provider.Registry, trayCtl *tray.Controller, queue *event.Queue, hub *websocket.Hub) *Server {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	s := &Server{
		cfg:      cfg,
		store:    st,
		registry: registry,
		tray:     trayCtl,
		queue:    queue,
		hub:      hub,
		validate: validator.New(),
	}
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Timeout,
		WriteTimeout:      cfg.Timeout,
	}
	return s
}

// Routes builds the router. Exposed for tests.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	if s.hub != nil {
		r.Get("/ws", websocket.Handler(s.hub))
	}

	r.Route("/api/v1", func(r chi.Router) {
		if s.cfg.RateLimitReqs > 0 {
			r.Use(httprate.LimitByIP(s.cfg.RateLimitReqs, s.cfg.RateLimitWindow))
		}
		r.Use(recordMetrics)

		r.Route("/media", func(r chi.Router) {
			r.Get("/", s.handleListMedia)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetMedia)
				r.Delete("/", s.handleDeleteMedia)
				r.Post("/favorite", s.handleSetFavorite)
				r.Get("/open", s.handleOpenLinks)
			})
		})

		r.Route("/blacklist", func(r chi.Router) {
			r.Get("/", s.handleListBlacklist)
			r.Post("/", s.handleBlacklist)
			r.Delete("/", s.handleUnblacklist)
		})

		r.Post("/control/{command}", s.handleControl)
		r.Get("/status", s.handleStatus)
	})

	return r
}

// Serve runs the HTTP server until the context is cancelled; implements
// suture.Service.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", s.httpServer.Addr).Msg("HTTP server listening")
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			logging.Warn().Err(err).Msg("HTTP shutdown failed")
		}
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
}

// String names the service in supervisor logs.
func (s *Server) String() string {
	return "http-api"
}
