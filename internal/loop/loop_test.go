package loop

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestLoopRunsPostedTasksInOrder(t *testing.T) {
	l := New(16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	var got []int
	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		i := i
		l.Post(func() { got = append(got, i) })
	}
	l.Post(func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for tasks")
	}

	for i, v := range got {
		if v != i {
			t.Fatalf("task order = %v, want ascending", got)
		}
	}
}

func TestLoopAfterFuncCancel(t *testing.T) {
	l := New(16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	var fired atomic.Bool
	task := l.AfterFunc(20*time.Millisecond, func() { fired.Store(true) })
	task.Cancel()

	time.Sleep(60 * time.Millisecond)
	if fired.Load() {
		t.Error("cancelled task ran")
	}
	if !task.Cancelled() {
		t.Error("Cancelled() = false after Cancel")
	}
}

func TestLoopPostAfterClose(t *testing.T) {
	l := New(1)
	l.Close()
	if l.Post(func() {}) {
		t.Error("Post() = true on closed loop")
	}
	select {
	case <-l.Done():
	default:
		t.Error("Done() not closed")
	}
}

func TestLoopSurvivesPanickingTask(t *testing.T) {
	l := New(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	done := make(chan struct{})
	l.Post(func() { panic("boom") })
	l.Post(func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop stopped after panic")
	}
}

func TestNilTaskCancel(t *testing.T) {
	var task *Task
	task.Cancel()
	if task.Cancelled() {
		t.Error("nil task reports cancelled")
	}
}
