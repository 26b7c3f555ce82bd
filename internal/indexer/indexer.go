package indexer

import (
	"context"
	"errors"
	"sync"
	"time"

	"justified-gallery/internal/logging"
	"justified-gallery/internal/metrics"
	"justified-gallery/internal/probe"
)

// ErrIndexing is returned by Index while another run is in progress.
var ErrIndexing = errors.New("indexer: already running")

// Indexer keeps the dimension cache warm for the media directory.
type Indexer struct {
	mediaDir       string
	prober         probe.Prober
	indexInterval  time.Duration
	parallelConfig ParallelWalkerConfig

	stopOnce sync.Once
	stopChan chan struct{}
	trigger  chan struct{}

	indexMu       sync.Mutex
	isIndexing    bool
	lastIndexTime time.Time
	lastResult    WalkResult

	// Callback when indexing completes
	onIndexComplete func(WalkResult)
}

// Progress describes the indexer state.
type Progress struct {
	Indexing    bool      `json:"indexing"`
	LastIndexed time.Time `json:"lastIndexed,omitempty"`
	Images      int64     `json:"images"`
	Folders     int64     `json:"folders"`
	Errors      int64     `json:"errors"`
}

// New creates an Indexer probing images below mediaDir with prober, which
// should be backed by the dimension cache. A zero indexInterval disables
// periodic runs.
func New(mediaDir string, prober probe.Prober, indexInterval time.Duration) *Indexer {
	return &Indexer{
		mediaDir:       mediaDir,
		prober:         prober,
		indexInterval:  indexInterval,
		parallelConfig: DefaultParallelWalkerConfig(),
		stopChan:       make(chan struct{}),
		trigger:        make(chan struct{}, 1),
	}
}

// SetParallelConfig sets the parallel walker configuration.
func (idx *Indexer) SetParallelConfig(config ParallelWalkerConfig) {
	idx.parallelConfig = config
}

// SetOnIndexComplete sets a callback to be invoked when a run completes.
func (idx *Indexer) SetOnIndexComplete(callback func(WalkResult)) {
	idx.onIndexComplete = callback
}

// Start runs the initial index in the background, then re-indexes on the
// interval and on TriggerIndex until Stop or ctx is done.
func (idx *Indexer) Start(ctx context.Context) {
	go idx.run(ctx)
}

// Stop stops the background loop. A run in progress is cancelled.
func (idx *Indexer) Stop() {
	idx.stopOnce.Do(func() { close(idx.stopChan) })
}

// TriggerIndex requests a run. Requests made while one is pending are merged.
func (idx *Indexer) TriggerIndex() {
	select {
	case idx.trigger <- struct{}{}:
	default:
	}
}

func (idx *Indexer) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-idx.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	logging.Info("Warming dimension cache in background...")
	idx.indexLogged(ctx)

	var tick <-chan time.Time
	if idx.indexInterval > 0 {
		ticker := time.NewTicker(idx.indexInterval)
		defer ticker.Stop()
		tick = ticker.C
	}
	for {
		select {
		case <-ctx.Done():
			logging.Debug("Indexer stopped")
			return
		case <-tick:
			idx.indexLogged(ctx)
		case <-idx.trigger:
			idx.indexLogged(ctx)
		}
	}
}

func (idx *Indexer) indexLogged(ctx context.Context) {
	if _, err := idx.Index(ctx); err != nil && ctx.Err() == nil {
		logging.Error("Index error: %v", err)
	}
}

// Index walks the media directory once and probes every image.
func (idx *Indexer) Index(ctx context.Context) (WalkResult, error) {
	if !idx.tryStartIndexing() {
		return WalkResult{}, ErrIndexing
	}
	defer idx.finishIndexing()

	metrics.IndexerRunsTotal.Inc()
	walker := NewParallelWalker(idx.mediaDir, idx.prober, idx.parallelConfig)
	result, err := walker.Walk(ctx)

	metrics.IndexerLastRunDuration.Set(result.Duration.Seconds())
	if err != nil {
		return result, err
	}

	now := time.Now()
	metrics.IndexerLastRunTimestamp.Set(float64(now.Unix()))
	idx.indexMu.Lock()
	idx.lastIndexTime = now
	idx.lastResult = result
	idx.indexMu.Unlock()

	logging.Info("Dimension cache warm: %d images in %d folders probed in %v (errors: %d)",
		result.Images, result.Folders, result.Duration.Round(time.Millisecond), result.Errors)
	if idx.onIndexComplete != nil {
		idx.onIndexComplete(result)
	}
	return result, nil
}

func (idx *Indexer) tryStartIndexing() bool {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	if idx.isIndexing {
		return false
	}
	idx.isIndexing = true
	metrics.IndexerIsRunning.Set(1)
	return true
}

func (idx *Indexer) finishIndexing() {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	idx.isIndexing = false
	metrics.IndexerIsRunning.Set(0)
}

// IsIndexing reports whether a run is in progress.
func (idx *Indexer) IsIndexing() bool {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	return idx.isIndexing
}

// LastIndexTime returns when the last successful run finished.
func (idx *Indexer) LastIndexTime() time.Time {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	return idx.lastIndexTime
}

// GetProgress returns the current state and the totals of the last run.
func (idx *Indexer) GetProgress() Progress {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	return Progress{
		Indexing:    idx.isIndexing,
		LastIndexed: idx.lastIndexTime,
		Images:      idx.lastResult.Images,
		Folders:     idx.lastResult.Folders,
		Errors:      idx.lastResult.Errors,
	}
}
