package trellis

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/jward/trellis/internal/store"
)

// indexFilesParallel indexes files using a three-phase parallel pipeline:
//
//	Phase A (serial):   Hash check, delete old data, prepare file records.
//	Phase B (parallel): Parse Java and run stub scripts into per-file batches.
//	Phase C (serial):   Commit batches to SQLite.
//
// Stub scripts running in phase B see committed classes and their own
// buffered ones, not those of scripts running beside them.
func (e *Engine) indexFilesParallel(ctx context.Context, paths []string) []error {
	var errs []error

	// ---- Phase A: Serial file preparation ----
	var items []workItem
	for _, path := range paths {
		item, skip, err := e.prepareFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("prepare %s: %w", path, err))
			continue
		}
		if skip {
			continue
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		return errs
	}

	// ---- Phase B: Parallel extraction ----
	numWorkers := min(runtime.NumCPU(), len(items))
	if numWorkers < 1 {
		numWorkers = 1
	}

	workCh := make(chan workItem, len(items))
	for _, item := range items {
		workCh <- item
	}
	close(workCh)

	type result struct {
		item  workItem
		batch *store.BatchedStore
		err   error
	}
	resultCh := make(chan result, len(items))

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Each item gets its own BatchedStore for write isolation; the
			// tree-sitter parser and Risor VM are created per file.
			for item := range workCh {
				batch := store.NewBatchedStore(e.store)
				err := e.extractFile(ctx, item, batch)
				resultCh <- result{item: item, batch: batch, err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// ---- Phase C: Serial commit ----
	for res := range resultCh {
		if res.err != nil {
			e.forget(res.item)
			errs = append(errs, fmt.Errorf("extract %s: %w", res.item.path, res.err))
			continue
		}
		if err := e.store.CommitBatch(res.batch); err != nil {
			e.forget(res.item)
			errs = append(errs, fmt.Errorf("commit %s: %w", res.item.path, err))
		}
	}
	return errs
}
