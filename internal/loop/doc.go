// Package loop provides the single-goroutine scheduling model the gallery
// engine runs on.
//
// Every gallery owns one [Scheduler]. All layout state is touched only from
// tasks executed by that scheduler, so the engine needs no locks around its
// row buffer, scan cursor or row counter. Work that happens elsewhere (image
// probes on worker goroutines, width polling) re-enters the engine by posting
// a task.
//
// Two implementations are provided:
//   - [Loop]: a real event loop driven by a goroutine and wall-clock timers.
//   - [Manual]: a deterministic scheduler with a virtual clock, for tests and
//     for hosts that want to pump the engine themselves.
//
// # Deferred tasks
//
// [Scheduler.AfterFunc] returns a [Task]. Cancelling a task from a scheduler
// task guarantees the callback will not run, even if its timer already fired
// and the callback is queued. The gallery relies on this to keep at most one
// pending scan continuation.
package loop
