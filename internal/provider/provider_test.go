// MediaBrain - Personal Media Consumption Catalogue
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabrain

package provider

import (
	"testing"

	"github.com/tomtom215/mediabrain/internal/models"
)

func TestRegistry_ResolveSignal_URLs(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	tests := []struct {
		name       string
		signal     string
		wantSource string
		wantID     string
		wantType   string
	}{
		{
			name:       "netflix watch url",
			signal:     "https://www.netflix.com/watch/81234567?trackId=1234",
			wantSource: "netflix",
			wantID:     "81234567",
			wantType:   models.MediaTypeSeries,
		},
		{
			name:       "disneyplus video url",
			signal:     "https://www.disneyplus.com/video/6e06e6b3-fa2e-4b72",
			wantSource: "disneyplus",
			wantID:     "6e06e6b3-fa2e-4b72",
			wantType:   models.MediaTypeMovie,
		},
		{
			name:       "disneyplus locale-prefixed url",
			signal:     "https://www.disneyplus.com/de-de/video/abc123",
			wantSource: "disneyplus",
			wantID:     "abc123",
			wantType:   models.MediaTypeMovie,
		},
		{
			name:       "primevideo detail url",
			signal:     "https://www.primevideo.com/detail/0HBUKYJYQ51T3QTQ8WDJ",
			wantSource: "primevideo",
			wantID:     "0HBUKYJYQ51T3QTQ8WDJ",
			wantType:   models.MediaTypeMovie,
		},
		{
			name:       "amazon storefront video url",
			signal:     "https://www.amazon.de/gp/video/detail/B09XYZ1234",
			wantSource: "primevideo",
			wantID:     "B09XYZ1234",
			wantType:   models.MediaTypeMovie,
		},
		{
			name:       "apple tv movie url",
			signal:     "https://tv.apple.com/us/movie/greyhound/umc.cmc.o5z5ztufuu3uv8lx7m0jcega",
			wantSource: "appletv",
			wantID:     "movie/umc.cmc.o5z5ztufuu3uv8lx7m0jcega",
			wantType:   models.MediaTypeMovie,
		},
		{
			name:       "apple tv show url",
			signal:     "https://tv.apple.com/us/show/severance/umc.cmc.1srk2goyh2q2zdxcx605w8vtx",
			wantSource: "appletv",
			wantID:     "show/umc.cmc.1srk2goyh2q2zdxcx605w8vtx",
			wantType:   models.MediaTypeSeries,
		},
		{
			name:       "youtube watch url",
			signal:     "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
			wantSource: "youtube",
			wantID:     "dQw4w9WgXcQ",
			wantType:   models.MediaTypeClip,
		},
		{
			name:       "youtube watch url with list param first",
			signal:     "https://www.youtube.com/watch?list=PL123&v=dQw4w9WgXcQ",
			wantSource: "youtube",
			wantID:     "dQw4w9WgXcQ",
			wantType:   models.MediaTypeClip,
		},
		{
			name:       "youtube short url",
			signal:     "https://youtu.be/dQw4w9WgXcQ",
			wantSource: "youtube",
			wantID:     "dQw4w9WgXcQ",
			wantType:   models.MediaTypeClip,
		},
		{
			name:       "twitch channel url",
			signal:     "https://www.twitch.tv/SomeStreamer",
			wantSource: "twitch",
			wantID:     "somestreamer",
			wantType:   models.MediaTypeClip,
		},
		{
			name:       "spotify track url",
			signal:     "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC",
			wantSource: "spotify",
			wantID:     "track/4uLU6hMCjMI75M1A2tKUQC",
			wantType:   models.MediaTypeMusic,
		},
		{
			name:       "spotify episode url",
			signal:     "https://open.spotify.com/episode/7makk4oTQel546B0PZlDM5",
			wantSource: "spotify",
			wantID:     "episode/7makk4oTQel546B0PZlDM5",
			wantType:   models.MediaTypePodcast,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := r.ResolveSignal(tt.signal)
			if res == nil {
				t.Fatalf("ResolveSignal(%q) = nil", tt.signal)
			}
			if res.Identity.Source != tt.wantSource {
				t.Errorf("source = %q, want %q", res.Identity.Source, tt.wantSource)
			}
			if res.Identity.ProviderID != tt.wantID {
				t.Errorf("provider id = %q, want %q", res.Identity.ProviderID, tt.wantID)
			}
			if res.Type != tt.wantType {
				t.Errorf("type = %q, want %q", res.Type, tt.wantType)
			}
			if !res.HasRealID {
				t.Error("expected HasRealID for URL extraction")
			}
		})
	}
}

func TestRegistry_ResolveSignal_WindowTitles(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	tests := []struct {
		name       string
		signal     string
		wantSource string
		wantTitle  string
	}{
		{
			name:       "netflix title with browser suffix",
			signal:     "Stranger Things - Netflix - Google Chrome",
			wantSource: "netflix",
			wantTitle:  "Stranger Things",
		},
		{
			name:       "netflix title with multi tab marker",
			signal:     "Dark - Netflix and 3 more pages - Microsoft Edge",
			wantSource: "netflix",
			wantTitle:  "Dark",
		},
		{
			name:       "youtube title",
			signal:     "How It's Made - YouTube - Mozilla Firefox",
			wantSource: "youtube",
			wantTitle:  "How It's Made",
		},
		{
			name:       "disneyplus title",
			signal:     "The Mandalorian | Disney+ - Brave",
			wantSource: "disneyplus",
			wantTitle:  "The Mandalorian",
		},
		{
			name:       "twitch title",
			signal:     "SomeStreamer - Twitch - Google Chrome",
			wantSource: "twitch",
			wantTitle:  "SomeStreamer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := r.ResolveSignal(tt.signal)
			if res == nil {
				t.Fatalf("ResolveSignal(%q) = nil", tt.signal)
			}
			if res.Identity.Source != tt.wantSource {
				t.Errorf("source = %q, want %q", res.Identity.Source, tt.wantSource)
			}
			if res.Title != tt.wantTitle {
				t.Errorf("title = %q, want %q", res.Title, tt.wantTitle)
			}
			if res.HasRealID {
				t.Error("title fallback must not claim a real id")
			}
		})
	}
}

func TestRegistry_ResolveSignal_Rejections(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	signals := []string{
		"",
		"   ",
		"Inbox - user@example.com - Gmail - Google Chrome",
		"Netflix - Google Chrome",               // overview page, no title
		"YouTube - Mozilla Firefox",             // home page
		"https://www.twitch.tv/directory",       // site chrome, not a channel
		"https://www.twitch.tv/settings",        // site chrome
		"MediaBrain - Catalogue",                // own window
		"Spotify Premium",                       // idle client
		"https://www.netflix.com/browse",        // no watch id, no title
	}

	for _, signal := range signals {
		if res := r.ResolveSignal(signal); res != nil {
			t.Errorf("ResolveSignal(%q) = %+v, want nil", signal, res)
		}
	}
}

func TestRegistry_ResolveApp(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	res := r.ResolveApp("Spotify.exe", "Daft Punk - Harder, Better, Faster, Stronger")
	if res == nil {
		t.Fatal("expected resolution for spotify client window")
	}
	if res.Identity.Source != "spotify" {
		t.Errorf("source = %q, want spotify", res.Identity.Source)
	}
	if res.Channel != "Daft Punk" {
		t.Errorf("channel = %q, want Daft Punk", res.Channel)
	}
	if res.Title != "Harder, Better, Faster, Stronger" {
		t.Errorf("title = %q", res.Title)
	}

	// Unknown processes fall through to the normal chain.
	res = r.ResolveApp("chrome.exe", "Stranger Things - Netflix")
	if res == nil || res.Identity.Source != "netflix" {
		t.Fatalf("expected netflix resolution via chain, got %+v", res)
	}

	if res := r.ResolveApp("Spotify.exe", "Spotify Free"); res != nil {
		t.Errorf("idle spotify window resolved: %+v", res)
	}
}

func TestRegistry_ResolveLocal(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	tests := []struct {
		path      string
		wantType  string
		wantTitle string
	}{
		{"/media/movies/Heat (1995).mkv", models.MediaTypeMovie, "Heat (1995)"},
		{"/media/clips/cat.webm", models.MediaTypeClip, "cat"},
		{"/music/album/track01.flac", models.MediaTypeMusic, "track01"},
		{"/books/novel.epub", models.MediaTypeDocument, "novel"},
		{"/audiobooks/dune.m4b", models.MediaTypeAudiobook, "dune"},
	}

	for _, tt := range tests {
		res := r.ResolveLocal(tt.path)
		if res == nil {
			t.Fatalf("ResolveLocal(%q) = nil", tt.path)
		}
		if res.Type != tt.wantType {
			t.Errorf("ResolveLocal(%q) type = %q, want %q", tt.path, res.Type, tt.wantType)
		}
		if res.Title != tt.wantTitle {
			t.Errorf("ResolveLocal(%q) title = %q, want %q", tt.path, res.Title, tt.wantTitle)
		}
		if !res.IsLocalFile || res.LocalPath != tt.path {
			t.Errorf("ResolveLocal(%q) local fields = %v/%q", tt.path, res.IsLocalFile, res.LocalPath)
		}
		if res.Identity.Source != "local" || res.Identity.ProviderID != tt.path {
			t.Errorf("ResolveLocal(%q) identity = %v", tt.path, res.Identity)
		}
	}

	for _, path := range []string{"/tmp/notes.txt", "/tmp/archive.zip", "/tmp/noext"} {
		if res := r.ResolveLocal(path); res != nil {
			t.Errorf("ResolveLocal(%q) = %+v, want nil", path, res)
		}
	}
}

func TestProvider_LinkBuilders(t *testing.T) {
	t.Parallel()

	r := NewRegistry()

	tests := []struct {
		source     string
		providerID string
		wantURL    string
		wantDeep   string
	}{
		{"netflix", "81234567", "https://www.netflix.com/watch/81234567", "netflix://title/81234567"},
		{"youtube", "dQw4w9WgXcQ", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", ""},
		{"spotify", "track/4uLU6hMCjMI75M1A2tKUQC", "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC", "spotify:track:4uLU6hMCjMI75M1A2tKUQC"},
		{"twitch", "somestreamer", "https://www.twitch.tv/somestreamer", ""},
		{"local", "/media/movie.mkv", "file:///media/movie.mkv", "file:///media/movie.mkv"},
	}

	for _, tt := range tests {
		p := r.BySource(tt.source)
		if p == nil {
			t.Fatalf("BySource(%q) = nil", tt.source)
		}
		if got := p.BrowserURL(tt.providerID); got != tt.wantURL {
			t.Errorf("%s BrowserURL = %q, want %q", tt.source, got, tt.wantURL)
		}
		if got := p.DeepLink(tt.providerID); got != tt.wantDeep {
			t.Errorf("%s DeepLink = %q, want %q", tt.source, got, tt.wantDeep)
		}
	}
}

func TestCleanWindowTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		phrases []string
		want    string
	}{
		{"Dark - Netflix - Google Chrome", []string{" - Netflix"}, "Dark"},
		{"Dark - Netflix and 2 more pages - Brave", []string{" - Netflix"}, "Dark"},
		{"MediaBrain Settings", nil, ""},
		{"  padded  ", nil, "padded"},
	}

	for _, tt := range tests {
		if got := CleanWindowTitle(tt.input, tt.phrases); got != tt.want {
			t.Errorf("CleanWindowTitle(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
