// MediaBrain - Personal Media Consumption Catalogue
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabrain

package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/tomtom215/mediabrain/internal/logging"
)

// backupSuffix names backup files: mediabrain-<timestamp>.bak.
const backupSuffix = ".bak"

// BackupTo streams a full backup of the database to w and returns the
// version watermark badger reports for it.
func (s *Store) BackupTo(w io.Writer) (uint64, error) {
	return s.db.Backup(w, 0)
}

// RestoreFrom loads a backup stream into the database. The store should
// be freshly opened and empty; existing keys are overwritten.
func (s *Store) RestoreFrom(r io.Reader) error {
	return s.db.Load(r, 16)
}

// BackupService writes periodic full backups of the catalogue and prunes
// old ones. It implements suture.Service.
type BackupService struct {
	store    *Store
	clk      clock.Clock
	dir      string
	interval time.Duration
	keep     int
}

// NewBackupService creates the service. Keep bounds how many backup files
// are retained; older ones are deleted after each successful run.
func NewBackupService(store *Store, clk clock.Clock, dir string, interval time.Duration, keep int) *BackupService {
	if clk == nil {
		clk = clock.New()
	}
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	if keep <= 0 {
		keep = 7
	}
	return &BackupService{store: store, clk: clk, dir: dir, interval: interval, keep: keep}
}

// Serve runs backups on the configured interval until the context is
// cancelled. A failed backup is logged and retried next cycle.
func (b *BackupService) Serve(ctx context.Context) error {
	ticker := b.clk.Ticker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if path, err := b.runOnce(); err != nil {
				logging.Err(err).Msg("Backup failed")
			} else {
				logging.Info().Str("path", path).Msg("Backup written")
			}
		}
	}
}

// runOnce writes one backup file and applies retention. The file is
// written to a temp name first so a crash never leaves a truncated
// backup under the final name.
func (b *BackupService) runOnce() (string, error) {
	if err := os.MkdirAll(b.dir, 0o750); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	name := fmt.Sprintf("mediabrain-%s%s", b.clk.Now().UTC().Format("20060102T150405"), backupSuffix)
	finalPath := filepath.Join(b.dir, name)

	tmp, err := os.CreateTemp(b.dir, name+".tmp")
	if err != nil {
		return "", fmt.Errorf("create backup file: %w", err)
	}

	if _, err := b.store.BackupTo(tmp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write backup: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close backup: %w", err)
	}
	if err := os.Rename(tmp.Name(), finalPath); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("finalize backup: %w", err)
	}

	if err := b.applyRetention(); err != nil {
		logging.Err(err).Msg("Backup retention failed")
	}
	return finalPath, nil
}

// applyRetention deletes the oldest backups beyond the keep count.
// Filenames embed the timestamp, so lexical order is chronological.
func (b *BackupService) applyRetention() error {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return err
	}

	var backups []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), backupSuffix) {
			backups = append(backups, entry.Name())
		}
	}
	if len(backups) <= b.keep {
		return nil
	}

	sort.Strings(backups)
	for _, name := range backups[:len(backups)-b.keep] {
		if err := os.Remove(filepath.Join(b.dir, name)); err != nil {
			return err
		}
		logging.Debug().Str("file", name).Msg("Pruned old backup")
	}
	return nil
}

// String names the service in supervisor logs.
func (b *BackupService) String() string {
	return "store-backup"
}
