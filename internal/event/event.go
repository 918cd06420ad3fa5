// MediaBrain - Personal Media Consumption Catalogue
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabrain

// Package event defines the immutable detection event and the thread-safe
// FIFO queue that carries events from the watchers to the single-consumer
// event processor.
package event

import (
	"time"

	"github.com/google/uuid"
)

// Kind categorises what a watcher observed.
type Kind string

const (
	KindFileDiscovered  Kind = "file.discovered"
	KindFileRemoved     Kind = "file.removed"
	KindBrowserActivity Kind = "browser.activity"
	KindAppActivity     Kind = "app.activity"
	KindControlCommand  Kind = "control.command"
	// KindDiagnostic is emitted by a watcher after repeated sampling
	// failures of the same kind. It never mutates the catalog.
	KindDiagnostic Kind = "watcher.diagnostic"
)

// Control command names carried by KindControlCommand events.
const (
	CommandShow      = "show"
	CommandHide      = "hide"
	CommandQuit      = "quit"
	CommandRescanNow = "rescan_now"
)

// FilePayload describes a file discovery or removal.
type FilePayload struct {
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// BrowserPayload describes an active browser tab sample.
type BrowserPayload struct {
	URL         string `json:"url"`
	WindowTitle string `json:"window_title"`
}

// AppPayload describes a foreground application sample.
type AppPayload struct {
	ProcessName string `json:"process_name"`
	WindowTitle string `json:"window_title"`
}

// ControlPayload carries a user-triggered control command.
type ControlPayload struct {
	Command string `json:"command"`
}

// DiagnosticPayload reports a degraded watcher.
type DiagnosticPayload struct {
	Message  string `json:"message"`
	Failures int    `json:"failures"`
}

// Event is one detected occurrence. Events are immutable once constructed:
// only the queue and the event processor observe them, and exactly one
// processor instance ever consumes a given event.
type Event struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	SourceID   string    `json:"source_id"`
	ObservedAt time.Time `json:"observed_at"` // time of detection, not of processing

	// Exactly one payload pointer is set, matching Kind.
	File       *FilePayload       `json:"file,omitempty"`
	Browser    *BrowserPayload    `json:"browser,omitempty"`
	App        *AppPayload        `json:"app,omitempty"`
	Control    *ControlPayload    `json:"control,omitempty"`
	Diagnostic *DiagnosticPayload `json:"diagnostic,omitempty"`
}

// New creates an event with a unique ID and the current observation time.
func New(kind Kind, sourceID string) Event {
	return Event{
		ID:         uuid.New().String(),
		Kind:       kind,
		SourceID:   sourceID,
		ObservedAt: time.Now().UTC(),
	}
}

// NewFileDiscovered builds a file.discovered event.
func NewFileDiscovered(sourceID, path string, size int64, modTime time.Time) Event {
	e := New(KindFileDiscovered, sourceID)
	e.File = &FilePayload{Path: path, Size: size, ModTime: modTime}
	return e
}

// NewFileRemoved builds a file.removed event.
func NewFileRemoved(sourceID, path string) Event {
	e := New(KindFileRemoved, sourceID)
	e.File = &FilePayload{Path: path}
	return e
}

// NewBrowserActivity builds a browser.activity event.
func NewBrowserActivity(sourceID, url, title string) Event {
	e := New(KindBrowserActivity, sourceID)
	e.Browser = &BrowserPayload{URL: url, WindowTitle: title}
	return e
}

// NewAppActivity builds an app.activity event.
func NewAppActivity(sourceID, process, title string) Event {
	e := New(KindAppActivity, sourceID)
	e.App = &AppPayload{ProcessName: process, WindowTitle: title}
	return e
}

// NewControlCommand builds a control.command event.
func NewControlCommand(sourceID, command string) Event {
	e := New(KindControlCommand, sourceID)
	e.Control = &ControlPayload{Command: command}
	return e
}

// NewDiagnostic builds a watcher.diagnostic event.
func NewDiagnostic(sourceID, message string, failures int) Event {
	e := New(KindDiagnostic, sourceID)
	e.Diagnostic = &DiagnosticPayload{Message: message, Failures: failures}
	return e
}
