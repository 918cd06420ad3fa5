// MediaBrain - Personal Media Consumption Catalogue
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabrain

package provider

import (
	"regexp"
	"strings"

	"github.com/tomtom215/mediabrain/internal/models"
)

// --- Netflix ---

type NetflixProvider struct {
	watchRe *regexp.Regexp
}

func NewNetflixProvider() *NetflixProvider {
	return &NetflixProvider{
		watchRe: regexp.MustCompile(`netflix\.com/watch/(\d+)`),
	}
}

func (p *NetflixProvider) Name() string   { return "Netflix" }
func (p *NetflixProvider) Source() string { return "netflix" }

func (p *NetflixProvider) Matches(signal string) bool {
	return strings.Contains(signal, "netflix.com") ||
		strings.Contains(signal, "Netflix")
}

func (p *NetflixProvider) Extract(signal string) *Resolution {
	if m := p.watchRe.FindStringSubmatch(signal); m != nil {
		return &Resolution{
			Identity:  models.MediaIdentity{Source: p.Source(), ProviderID: m[1]},
			Type:      models.MediaTypeSeries,
			HasRealID: true,
		}
	}

	title := CleanWindowTitle(signal, []string{
		" - Netflix", " – Netflix", "Netflix - ", "Netflix – ",
	})
	if title == "" || title == "Netflix" || strings.Contains(title, "netflix.com") {
		return nil
	}
	return &Resolution{
		Identity: models.MediaIdentity{Source: p.Source(), ProviderID: title},
		Title:    title,
		Type:     models.MediaTypeSeries,
	}
}

func (p *NetflixProvider) BrowserURL(providerID string) string {
	return "https://www.netflix.com/watch/" + providerID
}

func (p *NetflixProvider) DeepLink(providerID string) string {
	return "netflix://title/" + providerID
}

// --- Disney+ ---

type DisneyPlusProvider struct {
	videoRe *regexp.Regexp
}

func NewDisneyPlusProvider() *DisneyPlusProvider {
	return &DisneyPlusProvider{
		videoRe: regexp.MustCompile(`disneyplus\.com/(?:[a-z]{2}-[a-z]{2}/)?video/([A-Za-z0-9-]+)`),
	}
}

func (p *DisneyPlusProvider) Name() string   { return "Disney+" }
func (p *DisneyPlusProvider) Source() string { return "disneyplus" }

func (p *DisneyPlusProvider) Matches(signal string) bool {
	return strings.Contains(signal, "disneyplus.com") ||
		strings.Contains(signal, "Disney+")
}

func (p *DisneyPlusProvider) Extract(signal string) *Resolution {
	if m := p.videoRe.FindStringSubmatch(signal); m != nil {
		return &Resolution{
			Identity:  models.MediaIdentity{Source: p.Source(), ProviderID: m[1]},
			Type:      models.MediaTypeMovie,
			HasRealID: true,
		}
	}

	title := CleanWindowTitle(signal, []string{
		" | Disney+", " - Disney+", " – Disney+", "Disney+ | ",
	})
	if title == "" || title == "Disney+" {
		return nil
	}
	return &Resolution{
		Identity: models.MediaIdentity{Source: p.Source(), ProviderID: title},
		Title:    title,
		Type:     models.MediaTypeMovie,
	}
}

func (p *DisneyPlusProvider) BrowserURL(providerID string) string {
	return "https://www.disneyplus.com/video/" + providerID
}

func (p *DisneyPlusProvider) DeepLink(string) string { return "" }

// --- Amazon Prime Video ---

type AmazonPrimeProvider struct {
	detailRe *regexp.Regexp
}

func NewAmazonPrimeProvider() *AmazonPrimeProvider {
	return &AmazonPrimeProvider{
		// Both primevideo.com and the amazon storefront video pages.
		detailRe: regexp.MustCompile(`(?:primevideo\.com/(?:[a-z]{2}/)?detail/|amazon\.[a-z.]+/gp/video/detail/)([A-Za-z0-9]+)`),
	}
}

func (p *AmazonPrimeProvider) Name() string   { return "Amazon Prime Video" }
func (p *AmazonPrimeProvider) Source() string { return "primevideo" }

func (p *AmazonPrimeProvider) Matches(signal string) bool {
	return strings.Contains(signal, "primevideo.com") ||
		strings.Contains(signal, "/gp/video/") ||
		strings.Contains(signal, "Prime Video")
}

func (p *AmazonPrimeProvider) Extract(signal string) *Resolution {
	if m := p.detailRe.FindStringSubmatch(signal); m != nil {
		return &Resolution{
			Identity:  models.MediaIdentity{Source: p.Source(), ProviderID: m[1]},
			Type:      models.MediaTypeMovie,
			HasRealID: true,
		}
	}

	title := CleanWindowTitle(signal, []string{
		" - Prime Video", " – Prime Video", "Prime Video: ", "Watch ",
	})
	if title == "" || title == "Prime Video" {
		return nil
	}
	return &Resolution{
		Identity: models.MediaIdentity{Source: p.Source(), ProviderID: title},
		Title:    title,
		Type:     models.MediaTypeMovie,
	}
}

func (p *AmazonPrimeProvider) BrowserURL(providerID string) string {
	return "https://www.primevideo.com/detail/" + providerID
}

func (p *AmazonPrimeProvider) DeepLink(string) string { return "" }

// --- Apple TV+ ---

type AppleTVProvider struct {
	contentRe *regexp.Regexp
}

func NewAppleTVProvider() *AppleTVProvider {
	return &AppleTVProvider{
		// e.g. tv.apple.com/us/movie/some-slug/umc.cmc.abc123
		contentRe: regexp.MustCompile(`tv\.apple\.com/(?:[a-z]{2}/)?(movie|show|episode)/[^/]+/(umc\.cmc\.[A-Za-z0-9]+)`),
	}
}

func (p *AppleTVProvider) Name() string   { return "Apple TV+" }
func (p *AppleTVProvider) Source() string { return "appletv" }

func (p *AppleTVProvider) Matches(signal string) bool {
	return strings.Contains(signal, "tv.apple.com") ||
		strings.Contains(signal, "Apple TV+") ||
		strings.Contains(signal, "Apple TV")
}

func (p *AppleTVProvider) Extract(signal string) *Resolution {
	if m := p.contentRe.FindStringSubmatch(signal); m != nil {
		mediaType := models.MediaTypeMovie
		if m[1] == "show" || m[1] == "episode" {
			mediaType = models.MediaTypeSeries
		}
		return &Resolution{
			Identity:  models.MediaIdentity{Source: p.Source(), ProviderID: m[1] + "/" + m[2]},
			Type:      mediaType,
			HasRealID: true,
		}
	}

	title := CleanWindowTitle(signal, []string{
		" - Apple TV+", " – Apple TV+", " - Apple TV", " – Apple TV",
	})
	if title == "" || title == "Apple TV" || title == "Apple TV+" {
		return nil
	}
	return &Resolution{
		Identity: models.MediaIdentity{Source: p.Source(), ProviderID: title},
		Title:    title,
		Type:     models.MediaTypeMovie,
	}
}

func (p *AppleTVProvider) BrowserURL(providerID string) string {
	// Provider ids carry their content kind, e.g. "movie/umc.cmc.abc".
	kind, id, ok := strings.Cut(providerID, "/")
	if !ok {
		return ""
	}
	return "https://tv.apple.com/" + kind + "/_/" + id
}

func (p *AppleTVProvider) DeepLink(string) string { return "" }

// --- YouTube ---

type YouTubeProvider struct {
	watchRe *regexp.Regexp
	shortRe *regexp.Regexp
}

func NewYouTubeProvider() *YouTubeProvider {
	return &YouTubeProvider{
		watchRe: regexp.MustCompile(`youtube\.com/watch\?(?:[^ ]*&)?v=([A-Za-z0-9_-]{6,})`),
		shortRe: regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]{6,})`),
	}
}

func (p *YouTubeProvider) Name() string   { return "YouTube" }
func (p *YouTubeProvider) Source() string { return "youtube" }

func (p *YouTubeProvider) Matches(signal string) bool {
	return strings.Contains(signal, "youtube.com") ||
		strings.Contains(signal, "youtu.be") ||
		strings.Contains(signal, "YouTube")
}

func (p *YouTubeProvider) Extract(signal string) *Resolution {
	for _, re := range []*regexp.Regexp{p.watchRe, p.shortRe} {
		if m := re.FindStringSubmatch(signal); m != nil {
			return &Resolution{
				Identity:  models.MediaIdentity{Source: p.Source(), ProviderID: m[1]},
				Type:      models.MediaTypeClip,
				HasRealID: true,
			}
		}
	}

	title := CleanWindowTitle(signal, []string{
		" - YouTube", " – YouTube",
	})
	if title == "" || title == "YouTube" || strings.Contains(title, "youtube.com") {
		return nil
	}
	return &Resolution{
		Identity: models.MediaIdentity{Source: p.Source(), ProviderID: title},
		Title:    title,
		Type:     models.MediaTypeClip,
	}
}

func (p *YouTubeProvider) BrowserURL(providerID string) string {
	return "https://www.youtube.com/watch?v=" + providerID
}

func (p *YouTubeProvider) DeepLink(string) string { return "" }

// --- Twitch ---

type TwitchProvider struct {
	channelRe *regexp.Regexp
}

// twitchNonChannels are twitch.tv paths that are site chrome, not streams.
var twitchNonChannels = map[string]bool{
	"directory": true,
	"settings":  true,
	"videos":    true,
	"downloads": true,
	"search":    true,
	"wallet":    true,
	"drops":     true,
}

func NewTwitchProvider() *TwitchProvider {
	return &TwitchProvider{
		channelRe: regexp.MustCompile(`twitch\.tv/([A-Za-z0-9_]+)`),
	}
}

func (p *TwitchProvider) Name() string   { return "Twitch" }
func (p *TwitchProvider) Source() string { return "twitch" }

func (p *TwitchProvider) Matches(signal string) bool {
	return strings.Contains(signal, "twitch.tv") ||
		strings.Contains(signal, "Twitch")
}

func (p *TwitchProvider) Extract(signal string) *Resolution {
	if m := p.channelRe.FindStringSubmatch(signal); m != nil {
		channel := m[1]
		if !twitchNonChannels[strings.ToLower(channel)] {
			return &Resolution{
				Identity:  models.MediaIdentity{Source: p.Source(), ProviderID: strings.ToLower(channel)},
				Title:     channel,
				Type:      models.MediaTypeClip,
				Channel:   channel,
				HasRealID: true,
			}
		}
	}

	title := CleanWindowTitle(signal, []string{
		" - Twitch", " – Twitch",
	})
	if title == "" || title == "Twitch" {
		return nil
	}
	return &Resolution{
		Identity: models.MediaIdentity{Source: p.Source(), ProviderID: title},
		Title:    title,
		Type:     models.MediaTypeClip,
		Channel:  title,
	}
}

func (p *TwitchProvider) BrowserURL(providerID string) string {
	return "https://www.twitch.tv/" + providerID
}

func (p *TwitchProvider) DeepLink(string) string { return "" }

// --- Spotify ---

type SpotifyProvider struct {
	openRe *regexp.Regexp
}

func NewSpotifyProvider() *SpotifyProvider {
	return &SpotifyProvider{
		openRe: regexp.MustCompile(`open\.spotify\.com/(?:intl-[a-z]{2}/)?(track|album|playlist|episode|show)/([A-Za-z0-9]+)`),
	}
}

func (p *SpotifyProvider) Name() string   { return "Spotify" }
func (p *SpotifyProvider) Source() string { return "spotify" }

func (p *SpotifyProvider) Matches(signal string) bool {
	return strings.Contains(signal, "open.spotify.com") ||
		strings.Contains(signal, "Spotify")
}

func (p *SpotifyProvider) Extract(signal string) *Resolution {
	if m := p.openRe.FindStringSubmatch(signal); m != nil {
		mediaType := models.MediaTypeMusic
		if m[1] == "episode" || m[1] == "show" {
			mediaType = models.MediaTypePodcast
		}
		return &Resolution{
			Identity:  models.MediaIdentity{Source: p.Source(), ProviderID: m[1] + "/" + m[2]},
			Type:      mediaType,
			HasRealID: true,
		}
	}

	// The desktop client titles the window "Artist - Track" while playing
	// and "Spotify"/"Spotify Premium"/"Spotify Free" while idle.
	title := CleanWindowTitle(signal, nil)
	if title == "" || title == "Spotify" || strings.HasPrefix(title, "Spotify ") {
		return nil
	}

	artist, track, found := strings.Cut(title, " - ")
	if !found {
		return &Resolution{
			Identity: models.MediaIdentity{Source: p.Source(), ProviderID: title},
			Title:    title,
			Type:     models.MediaTypeMusic,
		}
	}
	return &Resolution{
		Identity: models.MediaIdentity{Source: p.Source(), ProviderID: artist + " - " + track},
		Title:    strings.TrimSpace(track),
		Type:     models.MediaTypeMusic,
		Channel:  strings.TrimSpace(artist),
	}
}

func (p *SpotifyProvider) BrowserURL(providerID string) string {
	if !strings.Contains(providerID, "/") {
		return ""
	}
	return "https://open.spotify.com/" + providerID
}

func (p *SpotifyProvider) DeepLink(providerID string) string {
	kind, id, ok := strings.Cut(providerID, "/")
	if !ok {
		return ""
	}
	return "spotify:" + kind + ":" + id
}
