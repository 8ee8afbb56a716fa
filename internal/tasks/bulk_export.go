package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/jukebox/internal/formatter"
	"github.com/desertthunder/jukebox/internal/shared"
	"golang.org/x/time/rate"
)

const (
	DefaultWorkers  = 3
	MaxWorkers      = 10
	DefaultRate     = 5.0
	DefaultPageSize = 100
	ManifestName    = "export_manifest.json"
)

// ExportOpts contains configuration for catalogue exports.
type ExportOpts struct {
	Format     formatter.Format // csv, markdown, txt or json (default)
	OutputDir  string           // Base output directory (default: jukebox_export_{epoch})
	NumWorkers int              // Concurrent workers (default: 3)
	RateLimit  float64          // Page requests per second across all workers (default: 5)
	PageSize   int              // Records per page request (default: 100)
}

// CollectionResult is the outcome of exporting one collection.
type CollectionResult struct {
	Collection string
	File       string
	Records    int
	Pages      int
	Err        error
}

// ExportResult summarises a run.
type ExportResult struct {
	Total           int
	Succeeded       int
	Failed          int
	OutputDirectory string
	ManifestPath    string
	Results         []CollectionResult // in source order
}

type exportJob struct {
	index  int
	source Source
}

type exportResult struct {
	index  int
	result CollectionResult
}

// Run exports every source concurrently with rate limiting and progress tracking.
//
// Sources are handed to a bounded worker pool. A failing source is recorded and the others carry on; the manifest
// lists both. The returned error is set only when the run itself could not complete.
func (e *ExportEngine) Run(ctx context.Context, prog chan<- ProgressUpdate, sources []Source, opts ExportOpts) (*ExportResult, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: nothing to export", shared.ErrMissingArgument)
	}

	if opts.Format == "" {
		opts.Format = formatter.JSON
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("jukebox_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = DefaultWorkers
	}
	opts.NumWorkers = min(opts.NumWorkers, MaxWorkers, len(sources))
	if opts.RateLimit <= 0 {
		opts.RateLimit = DefaultRate
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	e.logger.Debug("starting export", "sources", len(sources), "format", opts.Format, "workers", opts.NumWorkers)

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan exportJob, len(sources))
	results := make(chan exportResult, len(sources))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, limiter, prog, jobs, results, opts)
	}

	for i, src := range sources {
		sendProgress(prog, fetchingCollectionUpdate(i+1, len(sources), src.Name()))
		jobs <- exportJob{index: i, source: src}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	result := &ExportResult{
		Total:           len(sources),
		OutputDirectory: opts.OutputDir,
		Results:         make([]CollectionResult, len(sources)),
	}

	completed := 0
	for res := range results {
		completed++
		result.Results[res.index] = res.result

		if res.result.Err == nil {
			result.Succeeded++
			sendProgress(prog, exportCompletedUpdate(completed, len(sources), res.result))
		} else {
			result.Failed++
			e.logger.Error("export failed", "collection", res.result.Collection, "error", res.result.Err)
			sendProgress(prog, exportFailedUpdate(completed, len(sources), res.result))
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, ManifestName)
	if err := formatter.WriteManifest(manifest(result, opts.Format), manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	sendProgress(prog, manifestUpdate(manifestPath))

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("export interrupted: %w", err)
	}
	return result, nil
}

// exportWorker exports sources from the jobs channel. Once ctx is done the remaining jobs are reported as
// failed so every source gets a result.
func (e *ExportEngine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	prog chan<- ProgressUpdate,
	jobs <-chan exportJob,
	results chan<- exportResult,
	opts ExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		if err := ctx.Err(); err != nil {
			results <- exportResult{job.index, CollectionResult{Collection: job.source.Name(), Err: err}}
			continue
		}
		results <- exportResult{job.index, e.exportCollection(ctx, limiter, prog, job.source, opts)}
	}
}

func (e *ExportEngine) exportCollection(
	ctx context.Context,
	limiter *rate.Limiter,
	prog chan<- ProgressUpdate,
	src Source,
	opts ExportOpts,
) CollectionResult {
	res := CollectionResult{Collection: src.Name()}

	fetched, err := src.Fetch(ctx, limiter, opts.PageSize, prog)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			res.Err = err
		} else {
			res.Err = fmt.Errorf("fetch failed: %w", err)
		}
		return res
	}
	res.Pages = fetched.Pages
	res.Records = len(fetched.Table.Records)

	path, err := formatter.WriteExport(fetched.Table, opts.Format, opts.OutputDir, src.Name())
	if err != nil {
		res.Err = fmt.Errorf("%s export failed: %w", opts.Format, err)
		return res
	}
	res.File = path

	e.logger.Debug("exported collection", "collection", res.Collection, "records", res.Records, "pages", res.Pages)
	return res
}

func manifest(r *ExportResult, f formatter.Format) formatter.Manifest {
	m := formatter.Manifest{
		ExportedAt:  time.Now().UTC(),
		Format:      f,
		Succeeded:   r.Succeeded,
		Failed:      r.Failed,
		Collections: make([]formatter.ManifestEntry, 0, len(r.Results)),
	}
	for _, res := range r.Results {
		entry := formatter.ManifestEntry{Collection: res.Collection, Records: res.Records, Pages: res.Pages}
		if res.File != "" {
			entry.File = filepath.Base(res.File)
		}
		if res.Err != nil {
			entry.Error = res.Err.Error()
		}
		m.Collections = append(m.Collections, entry)
	}
	return m
}
