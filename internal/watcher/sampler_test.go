// MediaBrain - Personal Media Consumption Catalogue
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabrain

package watcher

import (
	"context"
	"testing"
)

// staticSampler returns a fixed sample.
type staticSampler struct {
	sample Sample
}

func (s staticSampler) Sample(context.Context) (Sample, error) {
	return s.sample, nil
}

func TestBrowserSamples_KeepsOnlyBrowserWindows(t *testing.T) {
	t.Parallel()

	browser := BrowserSamples(staticSampler{Sample{ProcessName: "firefox", WindowTitle: "Dark - Netflix"}})
	sample, err := browser.Sample(context.Background())
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	if sample.ProcessName != "firefox" {
		t.Errorf("sample = %+v", sample)
	}

	browser = BrowserSamples(staticSampler{Sample{ProcessName: "spotify", WindowTitle: "Artist - Track"}})
	sample, err = browser.Sample(context.Background())
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	if !sample.empty() {
		t.Errorf("non-browser window leaked through: %+v", sample)
	}
}

func TestAppSamples_DropsBrowserWindows(t *testing.T) {
	t.Parallel()

	app := AppSamples(staticSampler{Sample{ProcessName: "Chrome", WindowTitle: "Dark - Netflix"}})
	sample, err := app.Sample(context.Background())
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	if !sample.empty() {
		t.Errorf("browser window leaked through: %+v", sample)
	}

	app = AppSamples(staticSampler{Sample{ProcessName: "spotify", WindowTitle: "Artist - Track"}})
	sample, err = app.Sample(context.Background())
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	if sample.ProcessName != "spotify" {
		t.Errorf("sample = %+v", sample)
	}
}

func TestNewCommandSampler_EmptyCommandDisables(t *testing.T) {
	t.Parallel()

	if s := NewCommandSampler(""); s != nil {
		t.Error("empty command should return nil sampler")
	}
	if s := NewCommandSampler("   "); s != nil {
		t.Error("blank command should return nil sampler")
	}
	if s := NewCommandSampler("xdotool getactivewindow getwindowpid getwindowname"); s == nil {
		t.Error("real command should return a sampler")
	}
}
