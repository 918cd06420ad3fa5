// MediaBrain - Personal Media Consumption Catalogue
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabrain

package watcher

import (
	"context"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/fsnotify/fsnotify"

	"github.com/tomtom215/mediabrain/internal/event"
	"github.com/tomtom215/mediabrain/internal/logging"
	"github.com/tomtom215/mediabrain/internal/metrics"
	"github.com/tomtom215/mediabrain/internal/provider"
)

// IndexerConfig configures the file indexer.
type IndexerConfig struct {
	// Roots are the directories to scan recursively.
	Roots []string
	// Interval is the periodic full-scan cadence.
	Interval time.Duration
	// NotifyDebounce batches filesystem change notifications before the
	// rescan they trigger. Zero disables fsnotify integration entirely,
	// leaving only the periodic scan.
	NotifyDebounce time.Duration
}

// DefaultIndexerConfig returns production defaults.
func DefaultIndexerConfig(roots []string) IndexerConfig {
	return IndexerConfig{
		Roots:          roots,
		Interval:       15 * time.Minute,
		NotifyDebounce: 2 * time.Second,
	}
}

// fileMeta is the per-file snapshot entry used for change detection.
type fileMeta struct {
	size    int64
	modTime time.Time
}

// FileIndexer periodically walks the configured roots and emits discovered
// and removed events for media files. Each scan builds a fresh snapshot and
// diffs it against the previous one, so restarts re-discover everything and
// the store's upsert makes that harmless.
//
// Unreadable files and directories are logged and skipped; one bad entry
// never aborts a scan.
type FileIndexer struct {
	config IndexerConfig
	sink   Sink
	clk    clock.Clock

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup

	rescan   chan struct{}
	snapshot map[string]fileMeta
}

// NewFileIndexer creates the indexer. Pass clock.New() in production.
func NewFileIndexer(config IndexerConfig, sink Sink, clk clock.Clock) *FileIndexer {
	if clk == nil {
		clk = clock.New()
	}
	if config.Interval <= 0 {
		config.Interval = 15 * time.Minute
	}
	return &FileIndexer{
		config:   config,
		sink:     sink,
		clk:      clk,
		stopChan: make(chan struct{}),
		rescan:   make(chan struct{}, 1),
		snapshot: make(map[string]fileMeta),
	}
}

// Name returns the watcher's source id.
func (f *FileIndexer) Name() string { return "file-indexer" }

// Start begins the scan loop.
func (f *FileIndexer) Start(ctx context.Context) error {
	f.mu.Lock()
	if f.running {
		f.mu.Unlock()
		return nil
	}
	f.running = true
	f.stopChan = make(chan struct{})
	f.mu.Unlock()

	logging.Info().
		Strs("roots", f.config.Roots).
		Dur("interval", f.config.Interval).
		Msg("Starting file indexer")

	f.wg.Add(1)
	go f.loop(ctx)
	return nil
}

// Serve implements suture.Service for supervisor integration.
func (f *FileIndexer) Serve(ctx context.Context) error {
	if err := f.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	f.Stop()
	return ctx.Err()
}

// Stop gracefully stops the scan loop.
func (f *FileIndexer) Stop() {
	f.mu.Lock()
	if !f.running {
		f.mu.Unlock()
		return
	}
	f.running = false
	close(f.stopChan)
	f.mu.Unlock()

	f.wg.Wait()
	logging.Info().Msg("File indexer stopped")
}

// IsRunning returns whether the indexer is active.
func (f *FileIndexer) IsRunning() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

// RescanNow requests an immediate scan. Coalesces: requesting while a
// request is already pending is a no-op.
func (f *FileIndexer) RescanNow() {
	select {
	case f.rescan <- struct{}{}:
	default:
	}
}

func (f *FileIndexer) loop(ctx context.Context) {
	defer f.wg.Done()

	notify := f.startNotify()
	if notify != nil {
		defer notify.Close()
	}

	// Initial scan immediately so the catalogue fills on startup.
	f.scan(ctx)

	ticker := f.clk.Ticker(f.config.Interval)
	defer ticker.Stop()

	var debounce *clock.Timer
	var debounceC <-chan time.Time
	notifyC := make(<-chan fsnotify.Event)
	notifyErrC := make(<-chan error)
	if notify != nil {
		notifyC = notify.Events
		notifyErrC = notify.Errors
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-f.stopChan:
			return
		case <-ticker.C:
			f.scan(ctx)
		case <-f.rescan:
			f.scan(ctx)
		case ev := <-notifyC:
			logging.Debug().Str("op", ev.Op.String()).Str("path", ev.Name).Msg("Filesystem change")
			if debounce == nil {
				debounce = f.clk.Timer(f.config.NotifyDebounce)
				debounceC = debounce.C
			} else {
				debounce.Reset(f.config.NotifyDebounce)
			}
		case <-debounceC:
			debounce = nil
			debounceC = nil
			f.scan(ctx)
		case err := <-notifyErrC:
			if err != nil {
				logging.Warn().Err(err).Msg("Filesystem notification error")
			}
		}
	}
}

// startNotify sets up fsnotify on the scan roots. Returns nil when disabled
// or unavailable; the periodic scan covers for it either way.
func (f *FileIndexer) startNotify() *fsnotify.Watcher {
	if f.config.NotifyDebounce <= 0 {
		return nil
	}

	notify, err := fsnotify.NewWatcher()
	if err != nil {
		logging.Warn().Err(err).Msg("Filesystem notifications unavailable, relying on periodic scans")
		return nil
	}
	for _, root := range f.config.Roots {
		if err := notify.Add(root); err != nil {
			logging.Warn().Err(err).Str("root", root).Msg("Cannot watch root")
		}
	}
	return notify
}

// stopRequested reports whether Stop has been signalled. Checked per walk
// entry so Stop never waits out a scan of large roots.
func (f *FileIndexer) stopRequested() bool {
	f.mu.Lock()
	stop := f.stopChan
	f.mu.Unlock()

	select {
	case <-stop:
		return true
	default:
		return false
	}
}

// scan walks all roots, diffs against the previous snapshot, and emits
// discovered/removed events. Cancellation aborts between entries and
// suppresses the diff, so a stopped indexer emits nothing further.
func (f *FileIndexer) scan(ctx context.Context) {
	start := time.Now()
	current := make(map[string]fileMeta, len(f.snapshot))
	seen := 0

	for _, root := range f.config.Roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if f.stopRequested() {
				return fs.SkipAll
			}
			if err != nil {
				logging.Debug().Err(err).Str("path", path).Msg("Skipping unreadable entry")
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			seen++
			if !provider.SupportedExtension(path) {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				logging.Debug().Err(err).Str("path", path).Msg("Skipping unstattable file")
				return nil
			}
			current[path] = fileMeta{size: info.Size(), modTime: info.ModTime()}
			return nil
		})
		if err != nil && ctx.Err() != nil {
			logging.Info().Msg("Scan cancelled")
			return
		}
		if err != nil {
			logging.Warn().Err(err).Str("root", root).Msg("Scan failed for root")
		}
	}
	if ctx.Err() != nil || f.stopRequested() {
		logging.Info().Msg("Scan cancelled")
		return
	}

	discovered, removed := 0, 0
	for path, meta := range current {
		prev, known := f.snapshot[path]
		if known && prev.size == meta.size && prev.modTime.Equal(meta.modTime) {
			continue
		}
		emit(f.sink, event.NewFileDiscovered(f.Name(), path, meta.size, meta.modTime))
		discovered++
	}
	for path := range f.snapshot {
		if _, still := current[path]; !still {
			emit(f.sink, event.NewFileRemoved(f.Name(), path))
			removed++
		}
	}

	f.snapshot = current
	metrics.RecordScan(time.Since(start), seen)
	logging.Debug().
		Int("files", seen).
		Int("discovered", discovered).
		Int("removed", removed).
		Dur("took", time.Since(start)).
		Msg("Scan complete")
}
