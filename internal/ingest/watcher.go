package ingest

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceInterval coalesces editor write bursts into one re-ingest.
const debounceInterval = 500 * time.Millisecond

// Watcher re-ingests documents as they change on disk.
//
// Debounce timers only enqueue paths; the event loop performs every
// pipeline call one at a time. Two files settling in the same debounce
// window would otherwise race for the ingest lock, and the loser's
// change would be dropped.
type Watcher struct {
	pipeline *Pipeline
	root     string
	jobs     chan string

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// NewWatcher creates a watcher over the docs root.
func NewWatcher(pipeline *Pipeline, root string) *Watcher {
	return &Watcher{
		pipeline: pipeline,
		root:     root,
		jobs:     make(chan string, 64),
		pending:  make(map[string]*time.Timer),
	}
}

// Run watches until ctx is cancelled. The root and its subdirectories
// are watched recursively; directories created later are picked up.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := watchTree(fw, w.root); err != nil {
		return err
	}
	slog.Info("watching for document changes", "root", w.root)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, fw, event)

		case path := <-w.jobs:
			w.reingest(ctx, path)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, fw *fsnotify.Watcher, event fsnotify.Event) {
	switch {
	case event.Op.Has(fsnotify.Create):
		// New directories need their own watch before their files
		// produce events.
		if isDir(event.Name) {
			_ = watchTree(fw, event.Name)
			return
		}
		w.scheduleIngest(ctx, event.Name)

	case event.Op.Has(fsnotify.Write):
		w.scheduleIngest(ctx, event.Name)

	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		w.removeSource(ctx, event.Name)
	}
}

// scheduleIngest debounces per path. When the burst of write events
// settles, the path is queued for the event loop to re-ingest.
func (w *Watcher) scheduleIngest(ctx context.Context, path string) {
	if !IsSupported(path) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(debounceInterval, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		select {
		case w.jobs <- path:
		case <-ctx.Done():
		}
	})
}

// reingest runs one queued re-ingest. Called only from the event loop.
func (w *Watcher) reingest(ctx context.Context, path string) {
	source, err := filepath.Rel(w.root, path)
	if err != nil {
		return
	}
	stats, err := w.pipeline.IngestFile(ctx, path, source)
	if err != nil {
		slog.Warn("re-ingest failed", "source", source, "error", err)
		return
	}
	slog.Info("document re-ingested", "source", source, "chunks", stats.Chunks)
}

func (w *Watcher) removeSource(ctx context.Context, path string) {
	if !IsSupported(path) {
		return
	}
	source, err := filepath.Rel(w.root, path)
	if err != nil {
		return
	}
	if err := w.pipeline.RemoveSource(ctx, filepath.ToSlash(source)); err != nil {
		slog.Warn("source removal failed", "source", source, "error", err)
		return
	}
	slog.Info("document removed from index", "source", source)
}

// watchTree adds path and every subdirectory to the watcher.
func watchTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fw.Add(path)
		}
		return nil
	})
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
