// MediaBrain - Personal Media Consumption Catalogue
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabrain

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/tomtom215/mediabrain/internal/models"
)

func newTestStore(t *testing.T) (*Store, *clock.Mock) {
	t.Helper()

	clk := clock.NewMock()
	clk.Set(time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC))

	s, err := Open(Options{InMemory: true}, clk)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return s, clk
}

func testItem(source, providerID, title, mediaType string) *models.MediaItem {
	return &models.MediaItem{
		Title:      title,
		Type:       mediaType,
		Source:     source,
		ProviderID: providerID,
	}
}

func TestStore_UpsertMedia_CreatesAndMerges(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	ctx := context.Background()

	stored, created, err := s.UpsertMedia(ctx, testItem("netflix", "81234567", "Dark", models.MediaTypeSeries))
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !created {
		t.Error("expected created on first upsert")
	}
	if stored.ID == "" {
		t.Error("expected generated id")
	}
	if stored.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}

	// Re-observation of the same identity must not create a second item,
	// and must preserve user state.
	if err := s.SetFavorite(ctx, stored.ID, true); err != nil {
		t.Fatalf("set favorite: %v", err)
	}

	again, created, err := s.UpsertMedia(ctx, testItem("netflix", "81234567", "Dark (2017)", models.MediaTypeSeries))
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if created {
		t.Error("expected merge, not create")
	}
	if again.ID != stored.ID {
		t.Errorf("id changed on merge: %q -> %q", stored.ID, again.ID)
	}
	if again.Title != "Dark (2017)" {
		t.Errorf("title not refreshed: %q", again.Title)
	}
	if !again.IsFavorite {
		t.Error("favorite flag lost on merge")
	}

	count, err := s.CountMedia(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestStore_UpsertMedia_RejectsInvalid(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)

	if _, _, err := s.UpsertMedia(context.Background(), testItem("netflix", "1", "X", "hologram")); err == nil {
		t.Error("expected error for invalid media type")
	}
	if _, _, err := s.UpsertMedia(context.Background(), testItem("", "1", "X", models.MediaTypeMovie)); err == nil {
		t.Error("expected error for missing source")
	}
}

func TestStore_TouchMedia(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	ctx := context.Background()

	stored, _, err := s.UpsertMedia(ctx, testItem("youtube", "dQw4w9WgXcQ", "Clip", models.MediaTypeClip))
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	observed := time.Date(2026, 8, 23, 14, 30, 0, 0, time.UTC)
	if err := s.TouchMedia(ctx, stored.Identity(), observed, "browser"); err != nil {
		t.Fatalf("touch: %v", err)
	}

	got, err := s.GetMedia(ctx, stored.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.LastOpenedAt == nil || !got.LastOpenedAt.Equal(observed) {
		t.Errorf("last_opened_at = %v, want %v", got.LastOpenedAt, observed)
	}
	if got.OpenMethod != "browser" {
		t.Errorf("open_method = %q, want browser", got.OpenMethod)
	}

	unknown := models.MediaIdentity{Source: "youtube", ProviderID: "missing"}
	if err := s.TouchMedia(ctx, unknown, observed, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("touch unknown = %v, want ErrNotFound", err)
	}
}

func TestStore_ListMedia_FilterAndOrder(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	ctx := context.Background()

	movie, _, _ := s.UpsertMedia(ctx, testItem("local", "/m/b.mkv", "Beta", models.MediaTypeMovie))
	s.UpsertMedia(ctx, testItem("local", "/m/a.mkv", "Alpha", models.MediaTypeMovie))
	fav, _, _ := s.UpsertMedia(ctx, testItem("local", "/m/z.mkv", "Zulu", models.MediaTypeMovie))
	s.UpsertMedia(ctx, testItem("spotify", "track/abc", "Song", models.MediaTypeMusic))

	if err := s.SetFavorite(ctx, fav.ID, true); err != nil {
		t.Fatalf("set favorite: %v", err)
	}
	if err := s.TouchMedia(ctx, movie.Identity(), time.Date(2026, 8, 23, 15, 0, 0, 0, time.UTC), "local"); err != nil {
		t.Fatalf("touch: %v", err)
	}

	movies, err := s.ListMedia(ctx, models.MediaTypeMovie)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(movies) != 3 {
		t.Fatalf("len = %d, want 3", len(movies))
	}

	// Favorite first, then most recently opened, then title.
	wantOrder := []string{"Zulu", "Beta", "Alpha"}
	for i, want := range wantOrder {
		if movies[i].Title != want {
			t.Errorf("movies[%d] = %q, want %q", i, movies[i].Title, want)
		}
	}

	all, err := s.ListMedia(ctx, "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("len(all) = %d, want 4", len(all))
	}
}

func TestStore_RemoveMedia(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	ctx := context.Background()

	stored, _, _ := s.UpsertMedia(ctx, testItem("twitch", "somestreamer", "SomeStreamer", models.MediaTypeClip))

	if err := s.RemoveMedia(ctx, stored.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := s.GetMedia(ctx, stored.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("get removed = %v, want ErrNotFound", err)
	}
	if _, err := s.GetMediaByIdentity(ctx, stored.Identity()); !errors.Is(err, ErrNotFound) {
		t.Errorf("identity still resolves after remove: %v", err)
	}

	// Removing again is a no-op.
	if err := s.RemoveMedia(ctx, stored.ID); err != nil {
		t.Errorf("second remove: %v", err)
	}
}

func TestStore_Blacklist_RemovesAndSuppresses(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	ctx := context.Background()

	stored, _, _ := s.UpsertMedia(ctx, testItem("netflix", "81234567", "Dark", models.MediaTypeSeries))
	identity := stored.Identity()

	removed, err := s.Blacklist(ctx, identity, models.ProcedureOneWeek)
	if err != nil {
		t.Fatalf("blacklist: %v", err)
	}
	if removed != stored.ID {
		t.Errorf("removed = %q, want %q", removed, stored.ID)
	}
	if _, err := s.GetMedia(ctx, stored.ID); !errors.Is(err, ErrNotFound) {
		t.Error("item still present after blacklist")
	}

	// External re-adds are suppressed while the entry is active.
	_, _, err = s.UpsertMedia(ctx, testItem("netflix", "81234567", "Dark", models.MediaTypeSeries))
	if !errors.Is(err, ErrBlacklisted) {
		t.Errorf("upsert while blacklisted = %v, want ErrBlacklisted", err)
	}

	active, err := s.IsBlacklisted(ctx, identity)
	if err != nil || !active {
		t.Errorf("IsBlacklisted = %v, %v, want true", active, err)
	}
}

func TestStore_Blacklist_LazyExpiry(t *testing.T) {
	t.Parallel()

	s, clk := newTestStore(t)
	ctx := context.Background()

	identity := models.MediaIdentity{Source: "youtube", ProviderID: "abc123def"}
	if _, err := s.Blacklist(ctx, identity, models.ProcedureOneDay); err != nil {
		t.Fatalf("blacklist: %v", err)
	}

	// Just inside the window: still active.
	clk.Add(23 * time.Hour)
	if active, _ := s.IsBlacklisted(ctx, identity); !active {
		t.Error("entry expired early")
	}

	// Past the window: observed as expired without any sweeper running.
	clk.Add(2 * time.Hour)
	if active, _ := s.IsBlacklisted(ctx, identity); active {
		t.Error("entry still active past expiry")
	}
	if _, err := s.GetBlacklist(ctx, identity); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetBlacklist after expiry = %v, want ErrNotFound", err)
	}

	// And re-adds are allowed again.
	if _, _, err := s.UpsertMedia(ctx, testItem("youtube", "abc123def", "Clip", models.MediaTypeClip)); err != nil {
		t.Errorf("upsert after expiry: %v", err)
	}
}

func TestStore_Blacklist_ForeverNeverExpires(t *testing.T) {
	t.Parallel()

	s, clk := newTestStore(t)
	ctx := context.Background()

	identity := models.MediaIdentity{Source: "spotify", ProviderID: "track/xyz"}
	if _, err := s.Blacklist(ctx, identity, models.ProcedureForever); err != nil {
		t.Fatalf("blacklist: %v", err)
	}

	clk.Add(10 * 365 * 24 * time.Hour)
	if active, _ := s.IsBlacklisted(ctx, identity); !active {
		t.Error("permanent entry expired")
	}
}

func TestStore_Blacklist_ProcedureNoneRemovesWithoutSuppression(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	ctx := context.Background()

	stored, _, _ := s.UpsertMedia(ctx, testItem("local", "/m/x.mkv", "X", models.MediaTypeMovie))

	removed, err := s.Blacklist(ctx, stored.Identity(), models.ProcedureNone)
	if err != nil {
		t.Fatalf("blacklist none: %v", err)
	}
	if removed != stored.ID {
		t.Errorf("removed = %q, want %q", removed, stored.ID)
	}

	// No suppression: the watcher may re-add on the next scan.
	if _, _, err := s.UpsertMedia(ctx, testItem("local", "/m/x.mkv", "X", models.MediaTypeMovie)); err != nil {
		t.Errorf("re-add after procedure none: %v", err)
	}
}

func TestStore_Unblacklist(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	ctx := context.Background()

	identity := models.MediaIdentity{Source: "netflix", ProviderID: "999"}
	if _, err := s.Blacklist(ctx, identity, models.ProcedureForever); err != nil {
		t.Fatalf("blacklist: %v", err)
	}
	if err := s.Unblacklist(ctx, identity); err != nil {
		t.Fatalf("unblacklist: %v", err)
	}
	if active, _ := s.IsBlacklisted(ctx, identity); active {
		t.Error("entry still active after unblacklist")
	}

	// Absent entries are not an error.
	if err := s.Unblacklist(ctx, identity); err != nil {
		t.Errorf("second unblacklist: %v", err)
	}
}

func TestStore_PurgeExpiredBlacklist(t *testing.T) {
	t.Parallel()

	s, clk := newTestStore(t)
	ctx := context.Background()

	s.Blacklist(ctx, models.MediaIdentity{Source: "a", ProviderID: "1"}, models.ProcedureOneDay)
	s.Blacklist(ctx, models.MediaIdentity{Source: "b", ProviderID: "2"}, models.ProcedureOneDay)
	s.Blacklist(ctx, models.MediaIdentity{Source: "c", ProviderID: "3"}, models.ProcedureForever)

	clk.Add(48 * time.Hour)

	removed, err := s.PurgeExpiredBlacklist(ctx)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}

	entries, err := s.ListActiveBlacklist(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0].Identity.Source != "c" {
		t.Errorf("entries = %+v, want only the permanent one", entries)
	}
}

func TestStore_InvalidProcedure(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)

	identity := models.MediaIdentity{Source: "a", ProviderID: "1"}
	if _, err := s.Blacklist(context.Background(), identity, models.ProcedureCode(42)); !errors.Is(err, ErrInvalidProcedure) {
		t.Errorf("err = %v, want ErrInvalidProcedure", err)
	}
}
