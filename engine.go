package trellis

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jward/trellis/internal/extract"
	"github.com/jward/trellis/internal/operator"
	"github.com/jward/trellis/internal/project"
	"github.com/jward/trellis/internal/runtime"
	"github.com/jward/trellis/internal/store"
)

// Engine orchestrates the trellis pipeline: file discovery, change
// detection, extraction of Java sources and stub scripts, and query access
// over class snapshots.
type Engine struct {
	store *store.Store

	// useParallel enables the parallel extraction pipeline.
	useParallel bool

	library    string
	constraint string
	logger     *log.Logger

	// mu guards the cached snapshot and the operator resolver.
	mu       sync.Mutex
	snap     *Snapshot
	resolver *operator.Resolver
}

// Option configures an Engine.
type Option func(*Engine)

// WithParallel controls parallel extraction. When true (default), indexing
// parses files and runs stub scripts on a worker pool, with a single writer
// committing batches to SQLite. Set to false for serial mode.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.useParallel = parallel
	}
}

// WithPropertiesConstraint sets the dependency that switches the properties
// feature on for a module and the version constraint it must satisfy.
// Empty values keep the defaults.
func WithPropertiesConstraint(library, constraint string) Option {
	return func(e *Engine) {
		e.library = library
		e.constraint = constraint
	}
}

// WithLogger sets where indexing progress and stub script log output go.
// By default both are discarded.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an Engine backed by a SQLite database at dbPath.
func New(dbPath string, opts ...Option) (*Engine, error) {
	e := &Engine{
		useParallel: true,
		library:     project.DefaultLibrary,
		constraint:  project.DefaultConstraint,
		logger:      log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(e)
	}
	// Reject a bad constraint up front rather than on the first query.
	if _, err := project.NewGate(e.library, e.constraint, nil); err != nil {
		return nil, fmt.Errorf("trellis: %w", err)
	}

	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("trellis: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("trellis: migrate: %w", err)
	}
	e.store = s
	return e, nil
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store returns the underlying Store for direct access.
func (e *Engine) Store() *Store {
	return e.store
}

// Query returns a new QueryBuilder over the Engine's current snapshot.
func (e *Engine) Query() *QueryBuilder {
	return &QueryBuilder{engine: e}
}

// workItem holds everything extraction needs for one changed file.
type workItem struct {
	path    string
	lang    string
	fileID  int64
	content []byte
}

// IndexFiles indexes the given file paths.
//
// The index is marked not ready for the duration of the run. For each file:
//  1. Detect language from extension; skip unsupported files
//  2. Skip unchanged files (same content hash)
//  3. Delete data from the previous version, including a vanished file's record
//  4. Extract classes (Java) or run the stub script (Risor)
//
// Errors on individual files are collected and processing continues. When
// the run ends the index is marked ready and the epoch advances.
func (e *Engine) IndexFiles(ctx context.Context, paths []string) error {
	abs := make([]string, 0, len(paths))
	for _, p := range paths {
		a, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("trellis: resolve %s: %w", p, err)
		}
		abs = append(abs, a)
	}
	return e.index(ctx, "", abs)
}

// IndexDirectory discovers Java sources and stub scripts under root and
// indexes them. Previously indexed files under root that no longer exist
// are removed.
func (e *Engine) IndexDirectory(ctx context.Context, root string) error {
	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("trellis: resolve %s: %w", root, err)
	}
	paths, err := listFiles(root)
	if err != nil {
		return fmt.Errorf("trellis: %w", err)
	}
	return e.index(ctx, root, paths)
}

// index runs one indexing pass. A non-empty root prunes files under it
// that are not in paths.
func (e *Engine) index(ctx context.Context, root string, paths []string) error {
	start := time.Now()
	if err := e.store.SetIndexState(store.IndexStateIndexing); err != nil {
		return fmt.Errorf("trellis: %w", err)
	}

	var errs []error
	if root != "" {
		if err := e.removeVanished(root, paths); err != nil {
			errs = append(errs, err)
		}
	}
	if e.useParallel {
		errs = append(errs, e.indexFilesParallel(ctx, paths)...)
	} else {
		errs = append(errs, e.indexFilesSerial(ctx, paths)...)
	}

	if err := e.store.SetIndexState(store.IndexStateReady); err != nil {
		return fmt.Errorf("trellis: %w", err)
	}
	epoch, err := e.store.BumpEpoch()
	if err != nil {
		return fmt.Errorf("trellis: %w", err)
	}
	e.logger.Printf("indexed %d file(s) in %s (epoch %d)", len(paths), time.Since(start).Round(time.Millisecond), epoch)

	if len(errs) > 0 {
		return fmt.Errorf("indexing had %d error(s): %w", len(errs), errs[0])
	}
	return nil
}

func (e *Engine) indexFilesSerial(ctx context.Context, paths []string) []error {
	var errs []error
	for _, path := range paths {
		if err := e.indexFile(ctx, path); err != nil {
			errs = append(errs, fmt.Errorf("index %s: %w", path, err))
		}
	}
	return errs
}

func (e *Engine) indexFile(ctx context.Context, path string) error {
	item, skip, err := e.prepareFile(path)
	if err != nil || skip {
		return err
	}
	if err := e.extractFile(ctx, item, e.store); err != nil {
		e.forget(item)
		return err
	}
	return nil
}

// forget drops a file whose extraction failed so the next run retries it.
func (e *Engine) forget(item workItem) {
	if err := e.store.DeleteFile(item.fileID); err != nil {
		e.logger.Printf("forget %s: %v", item.path, err)
	}
}

// prepareFile checks the content hash, clears data from the previous
// version and records the file. Returns skip=true for unsupported,
// unchanged and vanished files.
func (e *Engine) prepareFile(path string) (workItem, bool, error) {
	lang, ok := runtime.LanguageForFile(path)
	if !ok {
		return workItem{}, true, nil
	}

	existing, err := e.store.FileByPath(path)
	if err != nil {
		return workItem{}, false, fmt.Errorf("lookup file: %w", err)
	}

	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if existing != nil {
			if err := e.store.DeleteFile(existing.ID); err != nil {
				return workItem{}, false, fmt.Errorf("remove vanished file: %w", err)
			}
		}
		return workItem{}, true, nil
	}
	if err != nil {
		return workItem{}, false, fmt.Errorf("read file: %w", err)
	}
	hash := store.ContentHash(content)

	if existing != nil && existing.Hash == hash {
		return workItem{}, true, nil // unchanged
	}
	if existing != nil {
		if err := e.store.DeleteFile(existing.ID); err != nil {
			return workItem{}, false, fmt.Errorf("delete old data: %w", err)
		}
	}

	fileID, err := e.store.InsertFile(&store.File{
		Path:        path,
		Language:    lang,
		Hash:        hash,
		LastIndexed: time.Now(),
	})
	if err != nil {
		return workItem{}, false, fmt.Errorf("insert file: %w", err)
	}
	return workItem{path: path, lang: lang, fileID: fileID, content: content}, false, nil
}

// extractFile writes the classes or stub declarations of one file to ds.
func (e *Engine) extractFile(ctx context.Context, item workItem, ds store.DataStore) error {
	switch item.lang {
	case runtime.LanguageJava:
		classes, err := extract.Extract(ctx, item.path, item.content)
		if err != nil {
			return err
		}
		for _, c := range classes {
			if _, err := ds.InsertClass(&item.fileID, c); err != nil {
				return err
			}
		}
	case runtime.LanguageRisor:
		rt := runtime.NewRuntime(ds, filepath.Dir(item.path), runtime.WithLogOutput(e.logger.Writer()))
		extras := map[string]any{
			"file_path": item.path,
			"file_id":   item.fileID,
		}
		if err := rt.RunScript(ctx, item.path, extras); err != nil {
			return fmt.Errorf("stub script: %w", err)
		}
	}
	return nil
}

// removeVanished deletes indexed files under root that are not in present.
func (e *Engine) removeVanished(root string, present []string) error {
	files, err := e.store.Files()
	if err != nil {
		return fmt.Errorf("list indexed files: %w", err)
	}
	keep := make(map[string]bool, len(present))
	for _, p := range present {
		keep[p] = true
	}
	prefix := root + string(filepath.Separator)
	for _, f := range files {
		if keep[f.Path] || !strings.HasPrefix(f.Path, prefix) {
			continue
		}
		if err := e.store.DeleteFile(f.ID); err != nil {
			return fmt.Errorf("remove %s: %w", f.Path, err)
		}
	}
	return nil
}
