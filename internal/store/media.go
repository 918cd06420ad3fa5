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
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/mediabrain/internal/metrics"
	"github.com/tomtom215/mediabrain/internal/models"
)

// UpsertMedia inserts the item or refreshes an existing item with the same
// identity. Returns the stored item and whether it was newly created.
//
// An active blacklist entry for the identity suppresses the insert with
// ErrBlacklisted, so watchers cannot silently resurrect removed items.
// Expired blacklist entries are dropped on the way through.
func (s *Store) UpsertMedia(ctx context.Context, item *models.MediaItem) (*models.MediaItem, bool, error) {
	start := time.Now()

	if err := item.Validate(); err != nil {
		return nil, false, err
	}
	item.NormalizeTitle()

	identity := item.Identity()
	now := s.now()
	var (
		stored  models.MediaItem
		created bool
	)

	err := s.db.Update(func(txn *badger.Txn) error {
		if err := s.checkBlacklist(txn, identity, now); err != nil {
			return err
		}

		existingID, err := lookupIdentity(txn, identity)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			created = true
			stored = *item
			if stored.ID == "" {
				stored.ID = uuid.NewString()
			}
			if stored.CreatedAt.IsZero() {
				stored.CreatedAt = now
			}
		case err != nil:
			return fmt.Errorf("lookup identity: %w", err)
		default:
			if err := getJSON(txn, mediaKeyPrefix+existingID, &stored); err != nil {
				return fmt.Errorf("get existing media: %w", err)
			}
			mergeMedia(&stored, item)
		}

		if err := setJSON(txn, mediaKeyPrefix+stored.ID, &stored); err != nil {
			return fmt.Errorf("set media: %w", err)
		}
		return txn.Set([]byte(identityKeyPrefix+identity.Key()), []byte(stored.ID))
	})

	metrics.RecordStoreOp("upsert_media", time.Since(start), err)
	if err != nil {
		return nil, false, err
	}
	return &stored, created, nil
}

// mergeMedia refreshes a stored item from a newly observed one. Identity,
// id, creation time and user state (favorite flag) are preserved; observed
// attributes only overwrite when the new observation actually carries them.
func mergeMedia(stored, observed *models.MediaItem) {
	if observed.Title != "" {
		stored.Title = observed.Title
	}
	if observed.Type != "" {
		stored.Type = observed.Type
	}
	if observed.LengthSeconds > 0 {
		stored.LengthSeconds = observed.LengthSeconds
	}
	if observed.LastOpenedAt != nil {
		stored.LastOpenedAt = observed.LastOpenedAt
	}
	if observed.OpenMethod != "" {
		stored.OpenMethod = observed.OpenMethod
	}
	if observed.LocalPath != "" {
		stored.IsLocalFile = true
		stored.LocalPath = observed.LocalPath
	}
	if observed.Description != "" {
		stored.Description = observed.Description
	}
	if observed.ThumbnailURL != "" {
		stored.ThumbnailURL = observed.ThumbnailURL
	}
	if observed.Season > 0 {
		stored.Season = observed.Season
	}
	if observed.Episode > 0 {
		stored.Episode = observed.Episode
	}
	if observed.Artist != "" {
		stored.Artist = observed.Artist
	}
	if observed.Album != "" {
		stored.Album = observed.Album
	}
	if observed.Channel != "" {
		stored.Channel = observed.Channel
	}
}

// TouchMedia records a fresh observation of an existing item: last-opened
// time and open method. Returns ErrNotFound when the identity is unknown.
func (s *Store) TouchMedia(ctx context.Context, identity models.MediaIdentity, observedAt time.Time, openMethod string) error {
	start := time.Now()

	err := s.db.Update(func(txn *badger.Txn) error {
		id, err := lookupIdentity(txn, identity)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lookup identity: %w", err)
		}

		var item models.MediaItem
		if err := getJSON(txn, mediaKeyPrefix+id, &item); err != nil {
			return fmt.Errorf("get media: %w", err)
		}

		observedAt = observedAt.UTC()
		item.LastOpenedAt = &observedAt
		if openMethod != "" {
			item.OpenMethod = openMethod
		}
		return setJSON(txn, mediaKeyPrefix+id, &item)
	})

	metrics.RecordStoreOp("touch_media", time.Since(start), err)
	return err
}

// GetMedia retrieves an item by id.
func (s *Store) GetMedia(ctx context.Context, id string) (*models.MediaItem, error) {
	start := time.Now()

	var item models.MediaItem
	err := s.db.View(func(txn *badger.Txn) error {
		err := getJSON(txn, mediaKeyPrefix+id, &item)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		return err
	})

	metrics.RecordStoreOp("get_media", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetMediaByIdentity retrieves an item by its source identity.
func (s *Store) GetMediaByIdentity(ctx context.Context, identity models.MediaIdentity) (*models.MediaItem, error) {
	var item models.MediaItem
	err := s.db.View(func(txn *badger.Txn) error {
		id, err := lookupIdentity(txn, identity)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		err = getJSON(txn, mediaKeyPrefix+id, &item)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListMedia returns catalogue items, optionally filtered by media type
// (empty string means all). Favorites sort first, then most recently
// opened, then title.
func (s *Store) ListMedia(ctx context.Context, mediaType string) ([]*models.MediaItem, error) {
	start := time.Now()

	var items []*models.MediaItem
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(mediaKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var item models.MediaItem
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &item)
			})
			if err != nil {
				continue
			}
			if mediaType != "" && item.Type != mediaType {
				continue
			}
			items = append(items, &item)
		}
		return nil
	})

	metrics.RecordStoreOp("list_media", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}

	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.IsFavorite != b.IsFavorite {
			return a.IsFavorite
		}
		at, bt := openedAt(a), openedAt(b)
		if !at.Equal(bt) {
			return at.After(bt)
		}
		return strings.ToLower(a.Title) < strings.ToLower(b.Title)
	})
	return items, nil
}

func openedAt(item *models.MediaItem) time.Time {
	if item.LastOpenedAt != nil {
		return *item.LastOpenedAt
	}
	return item.CreatedAt
}

// SetFavorite flips the favorite flag on an item.
func (s *Store) SetFavorite(ctx context.Context, id string, favorite bool) error {
	start := time.Now()

	err := s.db.Update(func(txn *badger.Txn) error {
		var item models.MediaItem
		err := getJSON(txn, mediaKeyPrefix+id, &item)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		item.IsFavorite = favorite
		return setJSON(txn, mediaKeyPrefix+id, &item)
	})

	metrics.RecordStoreOp("set_favorite", time.Since(start), err)
	return err
}

// RemoveMedia deletes an item by id. Removing an absent id is not an error.
func (s *Store) RemoveMedia(ctx context.Context, id string) error {
	start := time.Now()

	err := s.db.Update(func(txn *badger.Txn) error {
		var item models.MediaItem
		err := getJSON(txn, mediaKeyPrefix+id, &item)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := txn.Delete([]byte(mediaKeyPrefix + id)); err != nil {
			return fmt.Errorf("delete media: %w", err)
		}
		return txn.Delete([]byte(identityKeyPrefix + item.Identity().Key()))
	})

	metrics.RecordStoreOp("remove_media", time.Since(start), err)
	return err
}

// RemoveMediaByIdentity deletes an item by its source identity. Returns the
// removed item's id, or "" when nothing matched.
func (s *Store) RemoveMediaByIdentity(ctx context.Context, identity models.MediaIdentity) (string, error) {
	start := time.Now()

	var removed string
	err := s.db.Update(func(txn *badger.Txn) error {
		id, err := lookupIdentity(txn, identity)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := txn.Delete([]byte(mediaKeyPrefix + id)); err != nil {
			return fmt.Errorf("delete media: %w", err)
		}
		if err := txn.Delete([]byte(identityKeyPrefix + identity.Key())); err != nil {
			return fmt.Errorf("delete identity key: %w", err)
		}
		removed = id
		return nil
	})

	metrics.RecordStoreOp("remove_media", time.Since(start), err)
	return removed, err
}

// CountMedia returns the number of catalogue items.
func (s *Store) CountMedia(ctx context.Context) (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(mediaKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// lookupIdentity resolves an identity to its media id inside a transaction.
func lookupIdentity(txn *badger.Txn, identity models.MediaIdentity) (string, error) {
	item, err := txn.Get([]byte(identityKeyPrefix + identity.Key()))
	if err != nil {
		return "", err
	}
	var id string
	err = item.Value(func(val []byte) error {
		id = string(val)
		return nil
	})
	return id, err
}

// getJSON reads and unmarshals a key inside a transaction.
func getJSON(txn *badger.Txn, key string, v interface{}) error {
	item, err := txn.Get([]byte(key))
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

// setJSON marshals and writes a key inside a transaction.
func setJSON(txn *badger.Txn, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return txn.Set([]byte(key), data)
}
