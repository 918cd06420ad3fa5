// MediaBrain - Personal Media Consumption Catalogue
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabrain

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/goccy/go-json"

	"github.com/tomtom215/mediabrain/internal/event"
	"github.com/tomtom215/mediabrain/internal/models"
	"github.com/tomtom215/mediabrain/internal/provider"
	"github.com/tomtom215/mediabrain/internal/store"
	"github.com/tomtom215/mediabrain/internal/tray"
)

type testServer struct {
	store  *store.Store
	queue  *event.Queue
	server *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	clk := clock.NewMock()
	clk.Set(time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC))

	st, err := store.Open(store.Options{InMemory: true}, clk)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	queue := event.NewQueue(100)
	t.Cleanup(func() { queue.Close() })

	s := NewServer(Config{Host: "127.0.0.1", Port: 0}, st,
		provider.NewRegistry(), tray.NewController(queue), queue, nil)

	ts := httptest.NewServer(s.Routes())
	t.Cleanup(ts.Close)

	return &testServer{store: st, queue: queue, server: ts}
}

func (ts *testServer) seed(t *testing.T, item *models.MediaItem) *models.MediaItem {
	t.Helper()
	stored, _, err := ts.store.UpsertMedia(context.Background(), item)
	if err != nil {
		t.Fatalf("seed media: %v", err)
	}
	return stored
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.server.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ts.server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

func TestAPI_Health(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	resp := ts.do(t, http.MethodGet, "/healthz", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestAPI_ListMedia(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	ts.seed(t, &models.MediaItem{Title: "Heat", Type: models.MediaTypeMovie, Source: "local", ProviderID: "/media/heat.mkv"})
	ts.seed(t, &models.MediaItem{Title: "Dark", Type: models.MediaTypeSeries, Source: "netflix", ProviderID: "80100172"})

	resp := ts.do(t, http.MethodGet, "/api/v1/media", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out struct {
		Items []*models.MediaItem `json:"items"`
		Count int                 `json:"count"`
	}
	decodeBody(t, resp, &out)
	if out.Count != 2 {
		t.Errorf("count = %d, want 2", out.Count)
	}

	resp = ts.do(t, http.MethodGet, "/api/v1/media?type=series", nil)
	decodeBody(t, resp, &out)
	if out.Count != 1 || out.Items[0].Title != "Dark" {
		t.Errorf("filtered = %+v", out)
	}
}

func TestAPI_ListMediaRejectsBadType(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	resp := ts.do(t, http.MethodGet, "/api/v1/media?type=hologram", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestAPI_GetMedia(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	item := ts.seed(t, &models.MediaItem{Title: "Heat", Type: models.MediaTypeMovie, Source: "local", ProviderID: "/media/heat.mkv"})

	resp := ts.do(t, http.MethodGet, "/api/v1/media/"+item.ID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var got models.MediaItem
	decodeBody(t, resp, &got)
	if got.ID != item.ID || got.Title != "Heat" {
		t.Errorf("item = %+v", got)
	}

	resp = ts.do(t, http.MethodGet, "/api/v1/media/no-such-id", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing item status = %d, want 404", resp.StatusCode)
	}
}

func TestAPI_DeleteMedia(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	item := ts.seed(t, &models.MediaItem{Title: "Heat", Type: models.MediaTypeMovie, Source: "local", ProviderID: "/media/heat.mkv"})

	resp := ts.do(t, http.MethodDelete, "/api/v1/media/"+item.ID, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if _, err := ts.store.GetMedia(context.Background(), item.ID); err == nil {
		t.Error("item still present after delete")
	}
}

func TestAPI_SetFavorite(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	item := ts.seed(t, &models.MediaItem{Title: "Heat", Type: models.MediaTypeMovie, Source: "local", ProviderID: "/media/heat.mkv"})

	resp := ts.do(t, http.MethodPost, "/api/v1/media/"+item.ID+"/favorite", map[string]bool{"favorite": true})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	got, err := ts.store.GetMedia(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.IsFavorite {
		t.Error("favorite flag not persisted")
	}

	resp = ts.do(t, http.MethodPost, "/api/v1/media/"+item.ID+"/favorite", map[string]string{"note": "missing field"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing field status = %d, want 400", resp.StatusCode)
	}
}

func TestAPI_OpenLinks(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	item := ts.seed(t, &models.MediaItem{Title: "Dark", Type: models.MediaTypeSeries, Source: "netflix", ProviderID: "80100172"})

	resp := ts.do(t, http.MethodGet, "/api/v1/media/"+item.ID+"/open", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var links map[string]string
	decodeBody(t, resp, &links)
	if links["browser_url"] != "https://www.netflix.com/watch/80100172" {
		t.Errorf("browser_url = %q", links["browser_url"])
	}
	if links["deep_link"] == "" {
		t.Error("deep_link missing")
	}
}

func TestAPI_BlacklistFlow(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	item := ts.seed(t, &models.MediaItem{Title: "Dark", Type: models.MediaTypeSeries, Source: "netflix", ProviderID: "80100172"})

	resp := ts.do(t, http.MethodPost, "/api/v1/blacklist", map[string]interface{}{
		"source":      "netflix",
		"provider_id": "80100172",
		"procedure":   6,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("blacklist status = %d", resp.StatusCode)
	}
	var out struct {
		RemovedID string `json:"removed_id"`
	}
	decodeBody(t, resp, &out)
	if out.RemovedID != item.ID {
		t.Errorf("removed_id = %q, want %q", out.RemovedID, item.ID)
	}

	resp = ts.do(t, http.MethodGet, "/api/v1/blacklist", nil)
	var list struct {
		Count int `json:"count"`
	}
	decodeBody(t, resp, &list)
	if list.Count != 1 {
		t.Errorf("active entries = %d, want 1", list.Count)
	}

	resp = ts.do(t, http.MethodDelete, "/api/v1/blacklist", map[string]string{
		"source":      "netflix",
		"provider_id": "80100172",
	})
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("unblacklist status = %d", resp.StatusCode)
	}

	resp = ts.do(t, http.MethodGet, "/api/v1/blacklist", nil)
	decodeBody(t, resp, &list)
	if list.Count != 0 {
		t.Errorf("active entries after unblacklist = %d, want 0", list.Count)
	}
}

func TestAPI_BlacklistRejectsBadProcedure(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	resp := ts.do(t, http.MethodPost, "/api/v1/blacklist", map[string]interface{}{
		"source":      "netflix",
		"provider_id": "80100172",
		"procedure":   9,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestAPI_Control(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/api/v1/control/rescan_now", nil)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	ev, ok := ts.queue.TryPop()
	if !ok {
		t.Fatal("no event enqueued")
	}
	if ev.Kind != event.KindControlCommand {
		t.Errorf("kind = %q", ev.Kind)
	}

	resp = ts.do(t, http.MethodPost, "/api/v1/control/self_destruct", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown command status = %d, want 400", resp.StatusCode)
	}
}

func TestAPI_ControlOnClosedQueue(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	ts.queue.Close()

	resp := ts.do(t, http.MethodPost, "/api/v1/control/show", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestAPI_Status(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	ts.seed(t, &models.MediaItem{Title: "Heat", Type: models.MediaTypeMovie, Source: "local", ProviderID: "/media/heat.mkv"})

	resp := ts.do(t, http.MethodGet, "/api/v1/status", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out struct {
		MediaCount int      `json:"media_count"`
		Providers  []string `json:"providers"`
	}
	decodeBody(t, resp, &out)
	if out.MediaCount != 1 {
		t.Errorf("media_count = %d, want 1", out.MediaCount)
	}
	if len(out.Providers) == 0 {
		t.Error("providers empty")
	}
}
