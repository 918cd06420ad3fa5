// MediaBrain - Personal Media Consumption Catalogue
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabrain

// Package store persists the media catalogue and blacklist in BadgerDB.
// Values are JSON-encoded; identities get a secondary key so lookups by
// source and provider id stay O(1).
package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/mediabrain/internal/logging"
)

// Key prefixes for BadgerDB storage
const (
	mediaKeyPrefix     = "media:"     // media:<uuid> -> MediaItem
	identityKeyPrefix  = "media_key:" // media_key:<source>:<provider_id> -> uuid
	blacklistKeyPrefix = "blacklist:" // blacklist:<source>:<provider_id> -> BlacklistEntry
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrBlacklisted is returned by UpsertMedia when an active blacklist
	// entry suppresses the identity.
	ErrBlacklisted = errors.New("store: identity is blacklisted")
)

// Options configures opening the store.
type Options struct {
	// Dir is the BadgerDB directory. Ignored when InMemory is set.
	Dir string
	// InMemory runs BadgerDB without disk persistence. Used by tests.
	InMemory bool
}

// Store is the BadgerDB-backed catalogue store. Safe for concurrent use.
type Store struct {
	db  *badger.DB
	clk clock.Clock
}

// Open opens or creates the store. The clock is injectable so expiry
// behaviour is testable; pass clock.New() in production.
func Open(opts Options, clk clock.Clock) (*Store, error) {
	if clk == nil {
		clk = clock.New()
	}

	badgerOpts := badger.DefaultOptions(opts.Dir).
		WithInMemory(opts.InMemory).
		WithLogger(badgerLogger{})
	if opts.InMemory {
		badgerOpts.Dir = ""
		badgerOpts.ValueDir = ""
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	return &Store{db: db, clk: clk}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RunValueLogGC triggers one value-log garbage collection cycle.
// badger.ErrNoRewrite (nothing to collect) is not an error.
func (s *Store) RunValueLogGC() error {
	err := s.db.RunValueLogGC(0.5)
	if errors.Is(err, badger.ErrNoRewrite) {
		return nil
	}
	return err
}

// badgerLogger routes BadgerDB's internal logging through zerolog.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	logging.Error().Msgf("badger: "+format, args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	logging.Warn().Msgf("badger: "+format, args...)
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	logging.Debug().Msgf("badger: "+format, args...)
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	logging.Debug().Msgf("badger: "+format, args...)
}

// now returns the injected clock's current UTC time.
func (s *Store) now() time.Time {
	return s.clk.Now().UTC()
}
