package probe

import (
	"context"
	"sync"
	"time"

	"justified-gallery/internal/logging"
	"justified-gallery/internal/metrics"
	"justified-gallery/internal/workers"
)

// Dispatcher runs probes asynchronously on a bounded worker pool.
type Dispatcher struct {
	prober  Prober
	pool    *workers.Pool
	timeout time.Duration
}

// DispatcherConfig configures a Dispatcher.
type DispatcherConfig struct {
	// Workers is the pool size. Zero picks workers.ForIO(0).
	Workers int
	// Queue is the number of requests buffered before Request blocks.
	Queue int
	// Timeout bounds a single probe. Zero means no timeout.
	Timeout time.Duration
}

// NewDispatcher starts a worker pool for prober.
func NewDispatcher(prober Prober, cfg DispatcherConfig) *Dispatcher {
	size := cfg.Workers
	if size <= 0 {
		size = workers.ForIO(0)
	}
	queue := cfg.Queue
	if queue <= 0 {
		queue = size * 4
	}
	return &Dispatcher{
		prober:  prober,
		pool:    workers.NewPool("probe", size, queue),
		timeout: cfg.Timeout,
	}
}

// Request probes src and calls done exactly once with the result. done runs
// on a worker goroutine; callers that own single-threaded state must hop
// back onto their own scheduler.
func (d *Dispatcher) Request(ctx context.Context, src string, done func(Result)) {
	var once sync.Once
	finish := func(r Result) {
		once.Do(func() { done(r) })
	}

	submitted := d.pool.Submit(ctx, func(poolCtx context.Context) {
		probeCtx, cancel := mergeContext(ctx, poolCtx, d.timeout)
		defer cancel()

		metrics.ProbesInFlight.Inc()
		start := time.Now()
		size, err := d.prober.Probe(probeCtx, src)
		metrics.ProbeDuration.Observe(time.Since(start).Seconds())
		metrics.ProbesInFlight.Dec()

		if err == nil && !size.Valid() {
			err = ErrInvalidSize
		}
		if err != nil {
			metrics.ProbesTotal.WithLabelValues("error").Inc()
			logging.Debug("Probe failed for %s: %v", src, err)
			finish(Result{Src: src, Err: err})
			return
		}
		metrics.ProbesTotal.WithLabelValues("success").Inc()
		finish(Result{Src: src, Size: size})
	})
	if !submitted {
		metrics.ProbesTotal.WithLabelValues("rejected").Inc()
		err := ctx.Err()
		if err == nil {
			err = ErrClosed
		}
		finish(Result{Src: src, Err: err})
	}
}

// Close stops the workers. Requests still queued are dropped without a
// callback.
func (d *Dispatcher) Close() {
	d.pool.Close()
}

// Stats returns the number of running and completed probes.
func (d *Dispatcher) Stats() (running, completed int64) {
	return d.pool.Stats()
}

// mergeContext derives a context that ends when either parent ends or the
// timeout elapses.
func mergeContext(a, b context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(a)
	stop := context.AfterFunc(b, cancel)
	if timeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, timeout)
		return ctx, func() {
			cancelTimeout()
			stop()
			cancel()
		}
	}
	return ctx, func() {
		stop()
		cancel()
	}
}
