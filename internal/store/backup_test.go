// MediaBrain - Personal Media Consumption Catalogue
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabrain

package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/mediabrain/internal/models"
)

func TestBackupService_WritesAndRestores(t *testing.T) {
	t.Parallel()

	st, clk := newTestStore(t)
	seed := &models.MediaItem{Title: "Heat", Type: models.MediaTypeMovie, Source: "local", ProviderID: "/media/heat.mkv"}
	if _, _, err := st.UpsertMedia(context.Background(), seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	dir := t.TempDir()
	svc := NewBackupService(st, clk, dir, time.Hour, 3)

	path, err := svc.runOnce()
	if err != nil {
		t.Fatalf("backup: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat backup: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("backup file is empty")
	}

	restored, _ := newTestStore(t)
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open backup: %v", err)
	}
	defer f.Close()
	if err := restored.RestoreFrom(f); err != nil {
		t.Fatalf("restore: %v", err)
	}

	items, err := restored.ListMedia(context.Background(), "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].Title != "Heat" {
		t.Errorf("restored items = %+v", items)
	}
}

func TestBackupService_RetentionKeepsNewest(t *testing.T) {
	t.Parallel()

	st, clk := newTestStore(t)
	dir := t.TempDir()
	svc := NewBackupService(st, clk, dir, time.Hour, 2)

	for i := 0; i < 4; i++ {
		if _, err := svc.runOnce(); err != nil {
			t.Fatalf("backup %d: %v", i, err)
		}
		clk.Add(time.Minute)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var backups []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), backupSuffix) {
			backups = append(backups, entry.Name())
		}
	}
	if len(backups) != 2 {
		t.Fatalf("retained %d backups, want 2: %v", len(backups), backups)
	}
	for _, name := range backups {
		// Newest two carry the later timestamps.
		if name < "mediabrain-20260823T1202" {
			t.Errorf("old backup survived retention: %s", name)
		}
		if filepath.Ext(name) != backupSuffix {
			t.Errorf("unexpected file: %s", name)
		}
	}
}
