// MediaBrain - Personal Media Consumption Catalogue
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabrain

package models

import (
	"fmt"
	"time"
)

// ProcedureCode selects a blacklist duration.
type ProcedureCode int

// Blacklist procedure codes. Code 0 means no block; 6 blocks forever.
const (
	ProcedureNone     ProcedureCode = 0
	ProcedureOneDay   ProcedureCode = 1
	ProcedureOneWeek  ProcedureCode = 2
	ProcedureOneMonth ProcedureCode = 3
	ProcedureQuarter  ProcedureCode = 4
	ProcedureOneYear  ProcedureCode = 5
	ProcedureForever  ProcedureCode = 6
)

// Duration returns the block duration for the code and whether the block
// expires at all. ProcedureForever (and ProcedureNone) return ok=false.
func (c ProcedureCode) Duration() (d time.Duration, ok bool) {
	switch c {
	case ProcedureOneDay:
		return 24 * time.Hour, true
	case ProcedureOneWeek:
		return 7 * 24 * time.Hour, true
	case ProcedureOneMonth:
		return 30 * 24 * time.Hour, true
	case ProcedureQuarter:
		return 90 * 24 * time.Hour, true
	case ProcedureOneYear:
		return 365 * 24 * time.Hour, true
	default:
		return 0, false
	}
}

// Valid reports whether the code is a known procedure code.
func (c ProcedureCode) Valid() bool {
	return c >= ProcedureNone && c <= ProcedureForever
}

// BlacklistEntry blocks a media identity from being re-added to the catalog
// by external detections. A nil ExpiresAt means the block is permanent.
type BlacklistEntry struct {
	Identity  MediaIdentity `json:"identity"`
	Procedure ProcedureCode `json:"procedure"`
	CreatedAt time.Time     `json:"created_at"`
	ExpiresAt *time.Time    `json:"expires_at,omitempty"`
}

// NewBlacklistEntry creates an entry whose expiry is derived from the
// procedure code relative to now.
func NewBlacklistEntry(identity MediaIdentity, code ProcedureCode, now time.Time) (*BlacklistEntry, error) {
	if identity.IsZero() {
		return nil, fmt.Errorf("blacklist entry: identity is required")
	}
	if !code.Valid() || code == ProcedureNone {
		return nil, fmt.Errorf("blacklist entry: invalid procedure code %d", code)
	}

	entry := &BlacklistEntry{
		Identity:  identity,
		Procedure: code,
		CreatedAt: now,
	}
	if d, ok := code.Duration(); ok {
		expires := now.Add(d)
		entry.ExpiresAt = &expires
	}
	return entry, nil
}

// Expired reports whether the entry is logically expired at the given time.
// Expiry is a pure comparison; entries are not swept in the background.
func (e *BlacklistEntry) Expired(now time.Time) bool {
	return e.ExpiresAt != nil && now.After(*e.ExpiresAt)
}

// Active is the inverse of Expired.
func (e *BlacklistEntry) Active(now time.Time) bool {
	return !e.Expired(now)
}
