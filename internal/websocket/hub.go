// MediaBrain - Personal Media Consumption Catalogue
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabrain

// Package websocket pushes live refresh and diagnostic notifications to
// connected frontends. The hub subscribes to the processor's refresh
// notifier and fans messages out; a slow client is dropped rather than
// allowed to stall the rest.
package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/tomtom215/mediabrain/internal/logging"
	"github.com/tomtom215/mediabrain/internal/metrics"
	"github.com/tomtom215/mediabrain/internal/models"
)

// Message types pushed to clients.
const (
	MessageTypeRefresh    = "refresh"
	MessageTypeDiagnostic = "diagnostic"
	MessageTypeVisibility = "visibility"
	MessageTypePing       = "ping"
	MessageTypePong       = "pong"
)

// Message is one WebSocket frame payload.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// DiagnosticData is the payload of a diagnostic message.
type DiagnosticData struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}

// VisibilityData is the payload of a visibility message, telling the
// frontend to show or hide its window.
type VisibilityData struct {
	Visible bool `json:"visible"`
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// BroadcastRefresh queues a refresh scope for all clients. Safe to call
// from the processor's apply path: the channel is buffered and a full
// buffer drops the message rather than blocking the pipeline.
func (h *Hub) BroadcastRefresh(scope models.RefreshScope) {
	h.enqueue(Message{Type: MessageTypeRefresh, Data: scope})
}

// BroadcastDiagnostic queues a watcher-degradation notice for all clients.
func (h *Hub) BroadcastDiagnostic(source, message string) {
	h.enqueue(Message{Type: MessageTypeDiagnostic, Data: DiagnosticData{Source: source, Message: message}})
}

// BroadcastVisibility queues a show/hide command for all clients. The
// daemon has no window of its own; the frontend owns the UI.
func (h *Hub) BroadcastVisibility(visible bool) {
	h.enqueue(Message{Type: MessageTypeVisibility, Data: VisibilityData{Visible: visible}})
}

func (h *Hub) enqueue(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		metrics.WSMessagesDropped.Inc()
		logging.Warn().Str("type", msg.Type).Msg("Broadcast buffer full, dropping message")
	}
}

// Serve runs the hub until the context is cancelled; implements
// suture.Service. Client lifecycle events take priority over broadcasts so
// client state is settled before messages go out.
func (h *Hub) Serve(ctx context.Context) error {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
			continue
		case client := <-h.unregister:
			h.removeClient(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.closeAllClients()
			logging.Info().Msg("WebSocket hub stopped")
			return ctx.Err()
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case msg := <-h.broadcast:
			h.broadcastToClients(msg)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Inc()
	logging.Info().Int("total_clients", total).Msg("WebSocket client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		client.closeSend()
		metrics.WSConnections.Dec()
	}
	total := len(h.clients)
	h.mu.Unlock()

	logging.Info().Int("total_clients", total).Msg("WebSocket client disconnected")
}

// broadcastToClients delivers one message to every client in client-id
// order. Clients whose send buffer is full are dropped; the frontend
// reconnects and refetches.
func (h *Hub) broadcastToClients(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	for _, client := range clients {
		if client.trySend(msg) {
			metrics.WSMessagesSent.Inc()
			continue
		}
		client.closeSend()
		delete(h.clients, client)
		metrics.WSConnections.Dec()
		metrics.WSMessagesDropped.Inc()
		logging.Warn().Msg("Dropping slow WebSocket client")
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		client.closeSend()
		delete(h.clients, client)
		metrics.WSConnections.Dec()
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// String names the service in supervisor logs.
func (h *Hub) String() string {
	return "websocket-hub"
}
