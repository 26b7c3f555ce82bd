// Package spinner animates the loading indicator shown while a gallery
// waits for images.
//
// The indicator is a row of dots. On every time slot one dot changes
// opacity: the first N slots light the dots left to right, the next N slots
// dim them in the same order, and the cycle repeats.
package spinner

import (
	"sync"
	"time"

	"justified-gallery/internal/loop"
)

const (
	// DefaultDots is the number of indicator dots.
	DefaultDots = 3
	// DefaultTimeSlot is the interval between two animation steps.
	DefaultTimeSlot = 150 * time.Millisecond
)

// Sink receives dot opacity changes.
type Sink interface {
	SetSpinnerDot(index int, opacity float64)
}

// Animator drives the dot animation on a scheduler.
type Animator struct {
	mu    sync.Mutex
	dots  int
	slot  time.Duration
	sink  Sink
	phase int
	task  *loop.Task
}

// New creates an animator. Non-positive arguments fall back to the defaults.
func New(dots int, timeSlot time.Duration, sink Sink) *Animator {
	if dots <= 0 {
		dots = DefaultDots
	}
	if timeSlot <= 0 {
		timeSlot = DefaultTimeSlot
	}
	return &Animator{dots: dots, slot: timeSlot, sink: sink}
}

// Start begins the animation. Starting a running animator restarts its
// ticker without resetting the phase.
func (a *Animator) Start(sched loop.Scheduler) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.task != nil {
		a.task.Cancel()
	}
	a.task = sched.Every(a.slot, a.step)
}

// Stop halts the animation. The phase is kept.
func (a *Animator) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.task != nil {
		a.task.Cancel()
		a.task = nil
	}
}

// Running reports whether the animation ticker is active.
func (a *Animator) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.task != nil
}

// Phase returns the next step to run, in [0, 2*dots).
func (a *Animator) Phase() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.phase
}

func (a *Animator) step() {
	a.mu.Lock()
	index, opacity := a.phase, 1.0
	if a.phase >= a.dots {
		index, opacity = a.phase-a.dots, 0
	}
	a.phase = (a.phase + 1) % (2 * a.dots)
	a.mu.Unlock()

	if a.sink != nil {
		a.sink.SetSpinnerDot(index, opacity)
	}
}
