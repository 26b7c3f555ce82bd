package loop

import (
	"sort"
	"sync"
	"time"
)

// Manual is a deterministic Scheduler with a virtual clock. Nothing runs
// until the owner calls Drain or Advance. Post may be called from any
// goroutine; Drain and Advance must be called from a single goroutine.
type Manual struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	queue  []func()
	timers []*manualTimer
	closed bool
}

type manualTimer struct {
	task   *Task
	at     time.Duration
	period time.Duration
	seq    int
	fn     func()
}

// NewManual creates a manual scheduler at virtual time zero.
func NewManual() *Manual {
	return &Manual{}
}

// Post implements Scheduler.
func (m *Manual) Post(fn func()) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false
	}
	m.queue = append(m.queue, fn)
	return true
}

// AfterFunc implements Scheduler.
func (m *Manual) AfterFunc(d time.Duration, fn func()) *Task {
	return m.addTimer(d, 0, fn)
}

// Every implements Scheduler.
func (m *Manual) Every(d time.Duration, fn func()) *Task {
	if d <= 0 {
		d = time.Millisecond
	}
	return m.addTimer(d, d, fn)
}

func (m *Manual) addTimer(d, period time.Duration, fn func()) *Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &Task{}
	m.timers = append(m.timers, &manualTimer{task: t, at: m.now + d, period: period, seq: m.seq, fn: fn})
	return t
}

// Close drops every queued task and timer.
func (m *Manual) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.queue = nil
	m.timers = nil
}

// Now returns the virtual time elapsed since creation.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Pending returns the number of queued tasks and live timers.
func (m *Manual) Pending() (tasks, timers int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	live := 0
	for _, t := range m.timers {
		if !t.task.Cancelled() {
			live++
		}
	}
	return len(m.queue), live
}

// Drain runs queued tasks, including tasks they post, until the queue is
// empty. It returns the number of tasks run.
func (m *Manual) Drain() int {
	n := 0
	for {
		m.mu.Lock()
		if len(m.queue) == 0 {
			m.mu.Unlock()
			return n
		}
		fn := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()
		fn()
		n++
	}
}

// Advance moves the virtual clock forward by d, firing due timers in time
// order and draining the queue after each one.
func (m *Manual) Advance(d time.Duration) {
	m.Drain()
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()
	for {
		m.mu.Lock()
		next := m.nextDue(target)
		if next == nil {
			m.now = target
			m.mu.Unlock()
			m.Drain()
			return
		}
		m.now = next.at
		if next.period > 0 {
			next.at += next.period
		} else {
			m.removeTimer(next)
		}
		m.mu.Unlock()
		if !next.task.Cancelled() {
			next.fn()
		}
		m.Drain()
	}
}

// RunUntilIdle drains the queue and fires one-shot timers until none remain.
// Periodic timers are left alone; limit bounds the number of timer firings.
func (m *Manual) RunUntilIdle(limit int) {
	for i := 0; i < limit; i++ {
		m.Drain()
		m.mu.Lock()
		var due *manualTimer
		m.pruneCancelled()
		for _, t := range m.timers {
			if t.period == 0 && (due == nil || t.at < due.at || (t.at == due.at && t.seq < due.seq)) {
				due = t
			}
		}
		if due == nil {
			m.mu.Unlock()
			return
		}
		m.mu.Unlock()
		m.Advance(due.at - m.Now())
	}
}

func (m *Manual) nextDue(target time.Duration) *manualTimer {
	m.pruneCancelled()
	sort.SliceStable(m.timers, func(i, j int) bool {
		if m.timers[i].at == m.timers[j].at {
			return m.timers[i].seq < m.timers[j].seq
		}
		return m.timers[i].at < m.timers[j].at
	})
	if len(m.timers) == 0 || m.timers[0].at > target {
		return nil
	}
	return m.timers[0]
}

func (m *Manual) pruneCancelled() {
	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.task.Cancelled() {
			live = append(live, t)
		}
	}
	m.timers = live
}

func (m *Manual) removeTimer(t *manualTimer) {
	for i, x := range m.timers {
		if x == t {
			m.timers = append(m.timers[:i], m.timers[i+1:]...)
			return
		}
	}
}
