package workers

import (
	"context"
	"os"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"

	"justified-gallery/internal/logging"
)

// EnvOverride names the environment variable that pins the worker count.
const EnvOverride = "PROBE_WORKERS"

// Count returns the number of workers for a task type.
// It respects container CPU limits via GOMAXPROCS.
//
// The multiplier adjusts for task characteristics:
//   - 1.0 for CPU-bound tasks (thumbnail resizing)
//   - 2.0 for I/O-bound tasks (dimension probes)
//   - 1.5 for mixed tasks
//
// The limit caps the worker count; use 0 for no limit.
// PROBE_WORKERS overrides the computed value.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv(EnvOverride); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			if limit > 0 && count > limit {
				return limit
			}
			return count
		}
	}

	workers := int(float64(runtime.GOMAXPROCS(0)) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// ForCPU returns worker count for CPU-bound tasks (1 per CPU).
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// ForIO returns worker count for I/O-bound tasks (2 per CPU).
func ForIO(limit int) int {
	return Count(2.0, limit)
}

// ForMixed returns worker count for mixed tasks (1.5 per CPU).
func ForMixed(limit int) int {
	return Count(1.5, limit)
}

// Job is a unit of work run by a Pool.
type Job func(ctx context.Context)

// Pool runs jobs on a fixed set of goroutines. Submit blocks once the
// queue is full, which bounds the number of probes in flight.
type Pool struct {
	name   string
	jobs   chan Job
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once

	running   atomic.Int64
	completed atomic.Int64
}

// NewPool starts size workers with a queue of buffer jobs.
func NewPool(name string, size, buffer int) *Pool {
	if size < 1 {
		size = 1
	}
	if buffer < 0 {
		buffer = 0
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		name:   name,
		jobs:   make(chan Job, buffer),
		ctx:    ctx,
		cancel: cancel,
	}

	logging.Debug("%s pool: starting %d workers (GOMAXPROCS=%d)", name, size, runtime.GOMAXPROCS(0))
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	return p
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for job := range p.jobs {
		if p.ctx.Err() != nil {
			continue
		}
		p.running.Add(1)
		job(p.ctx)
		p.running.Add(-1)
		p.completed.Add(1)
	}

	logging.Debug("%s pool: worker %d finished", p.name, id)
}

// Submit queues a job. It returns false if the pool is closed or ctx ends
// before the job could be queued.
func (p *Pool) Submit(ctx context.Context, job Job) (ok bool) {
	defer func() {
		// Sending on a closed channel means Close raced with us.
		if recover() != nil {
			ok = false
		}
	}()
	if p.ctx.Err() != nil {
		return false
	}
	select {
	case p.jobs <- job:
		return true
	case <-ctx.Done():
		return false
	case <-p.ctx.Done():
		return false
	}
}

// Close stops accepting jobs, cancels the context handed to running jobs
// and waits for the workers to exit. Queued jobs are discarded.
func (p *Pool) Close() {
	p.once.Do(func() {
		p.cancel()
		close(p.jobs)
		p.wg.Wait()
	})
}

// Stats returns the number of running and completed jobs.
func (p *Pool) Stats() (running, completed int64) {
	return p.running.Load(), p.completed.Load()
}
