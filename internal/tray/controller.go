// MediaBrain - Personal Media Consumption Catalogue
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabrain

// Package tray accepts control commands on behalf of the system tray UI and
// routes them through the event queue. Commands are not executed here; the
// event processor owns all side effects, so a command races with nothing.
package tray

import (
	"fmt"

	"github.com/tomtom215/mediabrain/internal/event"
	"github.com/tomtom215/mediabrain/internal/metrics"
)

// sourceID identifies tray-originated events in the pipeline.
const sourceID = "tray-controller"

// ErrUnknownCommand is returned for commands outside the control set.
type ErrUnknownCommand struct {
	Command string
}

func (e *ErrUnknownCommand) Error() string {
	return fmt.Sprintf("tray: unknown command %q", e.Command)
}

// validCommands is the accepted control command set.
var validCommands = map[string]bool{
	event.CommandShow:      true,
	event.CommandHide:      true,
	event.CommandQuit:      true,
	event.CommandRescanNow: true,
}

// Commands returns the accepted control commands.
func Commands() []string {
	return []string{
		event.CommandShow,
		event.CommandHide,
		event.CommandQuit,
		event.CommandRescanNow,
	}
}

// Valid reports whether the command is part of the control set.
func Valid(command string) bool {
	return validCommands[command]
}

// Sink accepts control events. *event.Queue satisfies it.
type Sink interface {
	Push(e event.Event) error
}

// Controller validates and enqueues control commands.
type Controller struct {
	sink Sink
}

// NewController creates a controller feeding the given sink.
func NewController(sink Sink) *Controller {
	return &Controller{sink: sink}
}

// Trigger enqueues one control command. The command takes effect when the
// event processor consumes it, in order with everything queued before it.
func (c *Controller) Trigger(command string) error {
	if !Valid(command) {
		return &ErrUnknownCommand{Command: command}
	}
	if err := c.sink.Push(event.NewControlCommand(sourceID, command)); err != nil {
		return fmt.Errorf("enqueue control command: %w", err)
	}
	metrics.RecordEmitted(sourceID, string(event.KindControlCommand))
	return nil
}
