package phpreflect

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/jward/phpreflect/internal/extract"
	"github.com/jward/phpreflect/internal/grammar"
	"github.com/jward/phpreflect/internal/observability"
	"github.com/jward/phpreflect/internal/store"
)

// workItem holds everything a parallel extraction worker needs.
type workItem struct {
	path    string
	content []byte
	fileID  int64
	batch   *store.BatchedStore
}

// indexFilesParallel indexes files using a three-phase pipeline:
//
//	Phase A (serial):   Hash check, delete old data, insert file records.
//	Phase B (parallel): Parse and extract into per-file batches.
//	Phase C (serial):   Commit batches to SQLite.
func (e *Engine) indexFilesParallel(ctx context.Context, paths []string) error {
	var errs []error

	// ---- Phase A: Serial file preparation ----
	var items []workItem
	for _, path := range paths {
		item, skip, err := e.prepareFile(ctx, path)
		if err != nil {
			observability.IndexErrorsTotal.WithLabelValues(observability.PhasePrepare).Inc()
			e.log.WithError(err).WithField("path", path).Warn("indexing failed")
			errs = append(errs, fmt.Errorf("prepare %s: %w", path, err))
			continue
		}
		if skip {
			continue
		}
		item.batch = store.NewBatchedStore()
		items = append(items, item)
	}

	// ---- Phase B: Parallel extraction ----
	type result struct {
		item workItem
		res  *extract.Result
		err  error
	}
	resultCh := make(chan result, len(items))

	if len(items) > 0 {
		numWorkers := max(min(runtime.NumCPU(), len(items)), 1)

		workCh := make(chan workItem, len(items))
		for _, item := range items {
			workCh <- item
		}
		close(workCh)

		var wg sync.WaitGroup
		for range numWorkers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for item := range workCh {
					start := time.Now()
					res, err := extract.File(ctx, item.batch, item.fileID, item.content)
					observability.ParseDuration.Observe(time.Since(start).Seconds())
					resultCh <- result{item: item, res: res, err: err}
				}
			}()
		}
		go func() {
			wg.Wait()
			close(resultCh)
		}()
	} else {
		close(resultCh)
	}

	// ---- Phase C: Serial commit ----
	for r := range resultCh {
		if r.err != nil {
			observability.IndexErrorsTotal.WithLabelValues(observability.PhaseExtract).Inc()
			e.log.WithError(r.err).WithField("path", r.item.path).Warn("extraction failed")
			errs = append(errs, fmt.Errorf("extract %s: %w", r.item.path, r.err))
			continue
		}
		if err := e.store.CommitBatch(r.item.batch); err != nil {
			observability.IndexErrorsTotal.WithLabelValues(observability.PhaseCommit).Inc()
			e.log.WithError(err).WithField("path", r.item.path).Warn("commit failed")
			errs = append(errs, fmt.Errorf("commit %s: %w", r.item.path, err))
			continue
		}
		if err := e.finishFile(r.item, r.res); err != nil {
			errs = append(errs, fmt.Errorf("finish %s: %w", r.item.path, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("phpreflect: parallel indexing had %d error(s): %w", len(errs), errs[0])
	}
	return nil
}

// prepareFile does Phase A work for a single file: hash check, cleanup,
// file record. skip is true when the file is unchanged or not PHP.
func (e *Engine) prepareFile(_ context.Context, path string) (workItem, bool, error) {
	if !grammar.IsPHPFile(path) {
		return workItem{}, true, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return workItem{}, false, fmt.Errorf("read file: %w", err)
	}
	hash := store.ContentHash(content)

	existing, err := e.store.FileByPath(path)
	if err != nil {
		return workItem{}, false, fmt.Errorf("lookup file: %w", err)
	}
	if existing != nil && existing.Hash == hash {
		observability.FilesSkippedTotal.Inc()
		return workItem{}, true, nil
	}

	if existing != nil {
		if err := e.store.DeleteFileData(existing.ID); err != nil {
			return workItem{}, false, fmt.Errorf("delete old data: %w", err)
		}
	}

	fileID, err := e.store.InsertFile(&store.File{
		Path:        path,
		Hash:        hash,
		LineCount:   bytes.Count(content, []byte{'\n'}) + 1,
		LastIndexed: time.Now(),
	})
	if err != nil {
		return workItem{}, false, fmt.Errorf("insert file: %w", err)
	}

	return workItem{path: path, content: content, fileID: fileID}, false, nil
}
