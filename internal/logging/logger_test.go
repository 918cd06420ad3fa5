// MediaBrain - Personal Media Consumption Catalogue
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabrain

package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"disabled", zerolog.Disabled},
		{"INFO", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNewTestLoggerCapturesOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTestLogger(&buf)

	logger.Info().Str("watcher", "file-indexer").Msg("scan complete")

	out := buf.String()
	if !strings.Contains(out, "scan complete") {
		t.Errorf("missing message in output: %s", out)
	}
	if !strings.Contains(out, `"watcher":"file-indexer"`) {
		t.Errorf("missing structured field in output: %s", out)
	}
}

func TestSlogHandlerWritesThroughZerolog(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	defer Init(DefaultConfig())

	slogger := slog.New(NewSlogHandler())
	slogger.Info("service started", slog.String("supervisor", "watchers"))

	out := buf.String()
	if !strings.Contains(out, "service started") {
		t.Errorf("missing message in output: %s", out)
	}
	if !strings.Contains(out, `"supervisor":"watchers"`) {
		t.Errorf("missing attribute in output: %s", out)
	}
}

func TestSlogHandlerGroupsPrefixKeys(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	defer Init(DefaultConfig())

	slogger := slog.New(NewSlogHandler()).WithGroup("tree")
	slogger.Warn("restarting", slog.String("service", "browser-watcher"))

	if !strings.Contains(buf.String(), `"tree.service":"browser-watcher"`) {
		t.Errorf("expected grouped key, got: %s", buf.String())
	}
}
