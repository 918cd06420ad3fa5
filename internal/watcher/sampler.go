// MediaBrain - Personal Media Consumption Catalogue
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabrain

package watcher

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// browserProcesses are process names whose window titles belong to the
// browser watcher rather than the app watcher.
var browserProcesses = map[string]struct{}{
	"firefox":          {},
	"firefox-esr":      {},
	"chrome":           {},
	"google-chrome":    {},
	"chromium":         {},
	"chromium-browser": {},
	"brave":            {},
	"msedge":           {},
	"vivaldi":          {},
	"opera":            {},
}

// CommandSampler probes the foreground window by running an external
// command. The command must print the window's process id on the first
// line and its title on the second, which is exactly what
// "xdotool getactivewindow getwindowpid getwindowname" produces. The
// process name is then read from /proc/<pid>/comm.
type CommandSampler struct {
	argv    []string
	timeout time.Duration

	// procRoot is /proc outside of tests.
	procRoot string
}

// NewCommandSampler parses a whitespace-separated command line into a
// sampler. Returns nil for an empty command so callers can treat the
// watcher as disabled.
func NewCommandSampler(command string) *CommandSampler {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return nil
	}
	return &CommandSampler{
		argv:     argv,
		timeout:  5 * time.Second,
		procRoot: "/proc",
	}
}

// Sample runs the probe command once.
func (s *CommandSampler) Sample(ctx context.Context) (Sample, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, s.argv[0], s.argv[1:]...).Output()
	if err != nil {
		return Sample{}, fmt.Errorf("sample command %s: %w", s.argv[0], err)
	}

	lines := strings.SplitN(strings.TrimRight(string(out), "\n"), "\n", 2)
	if len(lines) < 2 {
		// No focused window, e.g. the desktop itself.
		return Sample{}, nil
	}

	pid, err := strconv.Atoi(strings.TrimSpace(lines[0]))
	if err != nil {
		return Sample{}, fmt.Errorf("sample command %s: bad pid %q", s.argv[0], lines[0])
	}

	comm, err := os.ReadFile(fmt.Sprintf("%s/%d/comm", s.procRoot, pid))
	if err != nil {
		// Window owner exited between probe and read.
		return Sample{}, nil
	}

	return Sample{
		ProcessName: strings.TrimSpace(string(comm)),
		WindowTitle: strings.TrimSpace(lines[1]),
	}, nil
}

// filteredSampler narrows an underlying sampler to a subset of processes,
// reporting an empty sample for everything else.
type filteredSampler struct {
	inner Sampler
	keep  func(Sample) bool
}

func (f *filteredSampler) Sample(ctx context.Context) (Sample, error) {
	sample, err := f.inner.Sample(ctx)
	if err != nil || sample.empty() {
		return Sample{}, err
	}
	if !f.keep(sample) {
		return Sample{}, nil
	}
	return sample, nil
}

// BrowserSamples restricts a sampler to browser windows.
func BrowserSamples(inner Sampler) Sampler {
	return &filteredSampler{inner: inner, keep: func(s Sample) bool {
		_, ok := browserProcesses[strings.ToLower(s.ProcessName)]
		return ok
	}}
}

// AppSamples restricts a sampler to non-browser windows.
func AppSamples(inner Sampler) Sampler {
	return &filteredSampler{inner: inner, keep: func(s Sample) bool {
		_, ok := browserProcesses[strings.ToLower(s.ProcessName)]
		return !ok
	}}
}
