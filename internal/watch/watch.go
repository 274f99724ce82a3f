// Package watch re-runs indexing when Java sources or stub scripts change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jward/trellis/internal/runtime"
)

// Indexer re-indexes a directory tree.
type Indexer interface {
	IndexDirectory(ctx context.Context, root string) error
}

// Watcher batches file events and triggers one reindex per quiet period.
// Reindex runs never overlap.
type Watcher struct {
	idx       Indexer
	root      string
	debounce  time.Duration
	logger    *log.Logger
	onIndexed func(error)
	skipDirs  map[string]bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long the tree must be quiet before reindexing.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithLogger sets the logger for reindex results and watch errors.
func WithLogger(l *log.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithOnIndexed registers a callback run after every reindex.
func WithOnIndexed(fn func(error)) Option {
	return func(w *Watcher) { w.onIndexed = fn }
}

// New creates a Watcher over root.
func New(idx Indexer, root string, opts ...Option) *Watcher {
	w := &Watcher{
		idx:      idx,
		root:     root,
		debounce: 200 * time.Millisecond,
		logger:   log.Default(),
		skipDirs: map[string]bool{
			".git": true, ".trellis": true, "build": true, "target": true,
			"out": true, "node_modules": true, ".gradle": true, ".idea": true,
		},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is cancelled. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer fw.Close()

	if err := w.addTree(fw, w.root); err != nil {
		return err
	}

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addTree(fw, ev.Name); err != nil {
						w.logger.Printf("watch: %v", err)
					}
					pending = true
				}
			}
			if w.relevant(ev) {
				pending = true
			}
			if pending {
				timer.Reset(w.debounce)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Printf("watch: %v", err)

		case <-timer.C:
			if !pending {
				continue
			}
			pending = false
			start := time.Now()
			err := w.idx.IndexDirectory(ctx, w.root)
			if err != nil {
				w.logger.Printf("watch: reindex failed: %v", err)
			} else {
				w.logger.Printf("watch: reindexed in %s", time.Since(start).Round(time.Millisecond))
			}
			if w.onIndexed != nil {
				w.onIndexed(err)
			}
		}
	}
}

// relevant reports whether an event touches an indexed file. Removals and
// renames count regardless of type since a removed directory may have held
// indexed files.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		return true
	}
	if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return false
	}
	_, ok := runtime.LanguageForFile(ev.Name)
	return ok
}

func (w *Watcher) addTree(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && (w.skipDirs[d.Name()] || strings.HasPrefix(d.Name(), ".")) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watch: add %s: %w", path, err)
		}
		return nil
	})
}
