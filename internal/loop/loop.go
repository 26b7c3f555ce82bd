package loop

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"justified-gallery/internal/logging"
)

// Scheduler runs tasks one at a time.
type Scheduler interface {
	// Post queues fn to run on the scheduler. It reports false if the
	// scheduler has been closed and fn will never run.
	Post(fn func()) bool
	// AfterFunc runs fn on the scheduler once d has elapsed.
	AfterFunc(d time.Duration, fn func()) *Task
	// Every runs fn on the scheduler every d until the task is cancelled.
	Every(d time.Duration, fn func()) *Task
}

// Task is a cancellable deferred or periodic task.
type Task struct {
	cancelled atomic.Bool
	stop      func()
}

// Cancel prevents any further run of the task. Safe to call more than once
// and on a nil task.
func (t *Task) Cancel() {
	if t == nil {
		return
	}
	if t.cancelled.Swap(true) {
		return
	}
	if t.stop != nil {
		t.stop()
	}
}

// Cancelled reports whether Cancel has been called.
func (t *Task) Cancelled() bool {
	return t != nil && t.cancelled.Load()
}

// Loop is a goroutine-backed Scheduler. Its queue is unbounded so that a
// task may post further tasks without ever blocking the loop itself.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	done   chan struct{}
	closed atomic.Bool
	once   sync.Once
}

// New creates a loop whose queue starts with room for capacity tasks.
// Call Run to start it.
func New(capacity int) *Loop {
	if capacity < 1 {
		capacity = 256
	}
	return &Loop{
		queue: make([]func(), 0, capacity),
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// Run executes queued tasks until ctx is done or Close is called.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			l.Close()
			return
		case <-l.done:
			return
		case <-l.wake:
			for {
				fn, ok := l.pop()
				if !ok || l.closed.Load() {
					break
				}
				l.run(fn)
			}
		}
	}
}

func (l *Loop) pop() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("loop: task panicked: %v", r)
		}
	}()
	fn()
}

// Close stops the loop. Queued tasks are dropped.
func (l *Loop) Close() {
	l.once.Do(func() {
		l.closed.Store(true)
		close(l.done)
		l.mu.Lock()
		l.queue = nil
		l.mu.Unlock()
	})
}

// Done is closed once the loop stops.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Post implements Scheduler. It never blocks.
func (l *Loop) Post(fn func()) bool {
	if l.closed.Load() {
		return false
	}
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// AfterFunc implements Scheduler.
func (l *Loop) AfterFunc(d time.Duration, fn func()) *Task {
	t := &Task{}
	timer := time.AfterFunc(d, func() {
		l.Post(func() {
			if !t.Cancelled() {
				fn()
			}
		})
	})
	t.stop = func() { timer.Stop() }
	return t
}

// Every implements Scheduler.
func (l *Loop) Every(d time.Duration, fn func()) *Task {
	t := &Task{}
	ticker := time.NewTicker(d)
	quit := make(chan struct{})
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.Post(func() {
					if !t.Cancelled() {
						fn()
					}
				})
			case <-quit:
				return
			case <-l.done:
				return
			}
		}
	}()
	t.stop = func() { close(quit) }
	return t
}
