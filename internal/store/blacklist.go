// MediaBrain - Personal Media Consumption Catalogue
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabrain

package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/mediabrain/internal/metrics"
	"github.com/tomtom215/mediabrain/internal/models"
)

// ErrInvalidProcedure is returned for unknown blacklist procedure codes.
var ErrInvalidProcedure = errors.New("store: invalid blacklist procedure")

// Blacklist removes the identity's catalogue item (if any) and records a
// blacklist entry so watchers cannot re-add it while the entry is active.
// Both happen in one transaction. Returns the removed media id, or "".
func (s *Store) Blacklist(ctx context.Context, identity models.MediaIdentity, procedure models.ProcedureCode) (string, error) {
	start := time.Now()

	if !procedure.Valid() {
		return "", ErrInvalidProcedure
	}

	var entry *models.BlacklistEntry
	if procedure != models.ProcedureNone {
		var err error
		entry, err = models.NewBlacklistEntry(identity, procedure, s.now())
		if err != nil {
			return "", err
		}
	}
	var removed string

	err := s.db.Update(func(txn *badger.Txn) error {
		id, err := lookupIdentity(txn, identity)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			// Nothing catalogued; the entry still suppresses future adds.
		case err != nil:
			return fmt.Errorf("lookup identity: %w", err)
		default:
			if err := txn.Delete([]byte(mediaKeyPrefix + id)); err != nil {
				return fmt.Errorf("delete media: %w", err)
			}
			if err := txn.Delete([]byte(identityKeyPrefix + identity.Key())); err != nil {
				return fmt.Errorf("delete identity key: %w", err)
			}
			removed = id
		}

		if procedure == models.ProcedureNone {
			// Remove without suppression: drop any stale entry instead.
			err := txn.Delete([]byte(blacklistKeyPrefix + identity.Key()))
			if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			return nil
		}
		return setJSON(txn, blacklistKeyPrefix+identity.Key(), entry)
	})

	metrics.RecordStoreOp("blacklist", time.Since(start), err)
	return removed, err
}

// Unblacklist removes a blacklist entry. Absent entries are not an error.
func (s *Store) Unblacklist(ctx context.Context, identity models.MediaIdentity) error {
	start := time.Now()

	err := s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(blacklistKeyPrefix + identity.Key()))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})

	metrics.RecordStoreOp("unblacklist", time.Since(start), err)
	return err
}

// GetBlacklist retrieves the entry for an identity. Expired entries are
// deleted on read and reported as ErrNotFound.
func (s *Store) GetBlacklist(ctx context.Context, identity models.MediaIdentity) (*models.BlacklistEntry, error) {
	now := s.now()
	var entry models.BlacklistEntry

	err := s.db.Update(func(txn *badger.Txn) error {
		key := blacklistKeyPrefix + identity.Key()
		err := getJSON(txn, key, &entry)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if entry.Expired(now) {
			if err := txn.Delete([]byte(key)); err != nil {
				return err
			}
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// IsBlacklisted reports whether the identity has an active entry. Purely a
// read; expired entries are ignored but left for the next sweep.
func (s *Store) IsBlacklisted(ctx context.Context, identity models.MediaIdentity) (bool, error) {
	now := s.now()
	active := false

	err := s.db.View(func(txn *badger.Txn) error {
		var entry models.BlacklistEntry
		err := getJSON(txn, blacklistKeyPrefix+identity.Key(), &entry)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		active = entry.Active(now)
		return nil
	})
	return active, err
}

// ListActiveBlacklist returns all unexpired entries, newest first.
func (s *Store) ListActiveBlacklist(ctx context.Context) ([]*models.BlacklistEntry, error) {
	start := time.Now()
	now := s.now()

	var entries []*models.BlacklistEntry
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(blacklistKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var entry models.BlacklistEntry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				continue
			}
			if entry.Active(now) {
				e := entry
				entries = append(entries, &e)
			}
		}
		return nil
	})

	metrics.RecordStoreOp("list_blacklist", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("list blacklist: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

// PurgeExpiredBlacklist deletes expired entries and returns how many were
// removed. Run periodically as housekeeping.
func (s *Store) PurgeExpiredBlacklist(ctx context.Context) (int, error) {
	start := time.Now()
	now := s.now()

	var expired []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(blacklistKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var entry models.BlacklistEntry
			key := string(it.Item().KeyCopy(nil))
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				continue
			}
			if entry.Expired(now) {
				expired = append(expired, key)
			}
		}
		return nil
	})
	if err != nil {
		metrics.RecordStoreOp("purge_blacklist", time.Since(start), err)
		return 0, fmt.Errorf("scan blacklist: %w", err)
	}

	removed := 0
	err = s.db.Update(func(txn *badger.Txn) error {
		for _, key := range expired {
			if err := txn.Delete([]byte(key)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			removed++
		}
		return nil
	})

	metrics.RecordStoreOp("purge_blacklist", time.Since(start), err)
	return removed, err
}

// checkBlacklist enforces suppression inside a write transaction. Expired
// entries are deleted in passing.
func (s *Store) checkBlacklist(txn *badger.Txn, identity models.MediaIdentity, now time.Time) error {
	var entry models.BlacklistEntry
	key := blacklistKeyPrefix + identity.Key()

	err := getJSON(txn, key, &entry)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("check blacklist: %w", err)
	}

	if entry.Expired(now) {
		return txn.Delete([]byte(key))
	}
	return ErrBlacklisted
}
