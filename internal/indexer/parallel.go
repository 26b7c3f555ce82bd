package indexer

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"justified-gallery/internal/logging"
	"justified-gallery/internal/media"
	"justified-gallery/internal/metrics"
	"justified-gallery/internal/probe"
)

// ParallelWalkerConfig configures the parallel directory walker
type ParallelWalkerConfig struct {
	// NumWorkers is the number of parallel probes
	NumWorkers int
	// ChannelBuffer is the size of the work channel buffer
	ChannelBuffer int
	// SkipHidden skips files and directories starting with "."
	SkipHidden bool
}

// DefaultParallelWalkerConfig returns defaults that are safe on NFS.
// INDEX_WORKERS overrides the worker count.
func DefaultParallelWalkerConfig() ParallelWalkerConfig {
	numWorkers := 3
	if override := os.Getenv("INDEX_WORKERS"); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			numWorkers = count
		}
	}

	return ParallelWalkerConfig{
		NumWorkers:    numWorkers,
		ChannelBuffer: 1000,
		SkipHidden:    true,
	}
}

// WalkResult summarizes one walk.
type WalkResult struct {
	Folders  int64
	Images   int64
	Errors   int64
	Duration time.Duration
}

// ParallelWalker walks a directory tree and probes every image in parallel.
// Image paths are passed to the prober relative to the root, slash separated.
type ParallelWalker struct {
	config ParallelWalkerConfig
	root   string
	prober probe.Prober

	folders atomic.Int64
	images  atomic.Int64
	errors  atomic.Int64
}

// NewParallelWalker creates a new parallel directory walker
func NewParallelWalker(root string, prober probe.Prober, config ParallelWalkerConfig) *ParallelWalker {
	if config.NumWorkers <= 0 {
		config.NumWorkers = 1
	}
	return &ParallelWalker{
		config: config,
		root:   root,
		prober: prober,
	}
}

// Walk probes every image below the root. Probe failures are counted, not
// returned; the error is the walk's own or ctx's.
func (pw *ParallelWalker) Walk(ctx context.Context) (WalkResult, error) {
	logging.Debug("Starting parallel directory walk with %d workers", pw.config.NumWorkers)
	startTime := time.Now()
	metrics.IndexerParallelWorkers.Set(float64(pw.config.NumWorkers))

	jobs := make(chan string, pw.config.ChannelBuffer)
	var wg sync.WaitGroup
	for i := 0; i < pw.config.NumWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pw.worker(ctx, jobs)
		}()
	}

	err := pw.walkAndEnqueue(ctx, jobs)
	close(jobs)
	wg.Wait()
	if err == nil {
		err = ctx.Err()
	}

	result := WalkResult{
		Folders:  pw.folders.Load(),
		Images:   pw.images.Load(),
		Errors:   pw.errors.Load(),
		Duration: time.Since(startTime),
	}
	logging.Debug("Parallel walk complete: %d images, %d folders in %v (errors: %d)",
		result.Images, result.Folders, result.Duration, result.Errors)
	return result, err
}

func (pw *ParallelWalker) walkAndEnqueue(ctx context.Context, jobs chan<- string) error {
	return filepath.WalkDir(pw.root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return fs.SkipAll
		}
		if err != nil {
			if path == pw.root {
				return err
			}
			logging.Warn("Error accessing path %s: %v", path, err)
			return nil
		}

		if path != pw.root && pw.config.SkipHidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			pw.folders.Add(1)
			return nil
		}
		if !media.IsImage(d.Name()) {
			return nil
		}

		rel, err := filepath.Rel(pw.root, path)
		if err != nil {
			//nolint:nilerr // skip this file, keep walking
			return nil
		}
		select {
		case jobs <- filepath.ToSlash(rel):
		case <-ctx.Done():
			return fs.SkipAll
		}
		return nil
	})
}

func (pw *ParallelWalker) worker(ctx context.Context, jobs <-chan string) {
	for rel := range jobs {
		if ctx.Err() != nil {
			continue
		}
		if _, err := pw.prober.Probe(ctx, rel); err != nil {
			pw.errors.Add(1)
			metrics.IndexerErrors.Inc()
			logging.Debug("Failed to probe %s: %v", rel, err)
			continue
		}
		pw.images.Add(1)
		metrics.IndexerImagesProbed.Inc()
	}
}

// Stats returns current processing statistics
func (pw *ParallelWalker) Stats() (images, folders, errors int64) {
	return pw.images.Load(), pw.folders.Load(), pw.errors.Load()
}
