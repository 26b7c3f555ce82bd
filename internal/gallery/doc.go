// Package gallery implements the justified layout engine.
//
// A [Gallery] arranges a sequence of images of unknown size into rows that
// exactly fill the container width while keeping every image's aspect
// ratio. Images are probed asynchronously; as they become known the
// controller feeds them, strictly in display order, into the row builder
// ([Accumulate] and [Justify]) and places each finished row on a [Surface].
//
// # Scheduling
//
// A gallery runs on a [loop.Scheduler]. Probe completions, width polls and
// deferred scan continuations are all tasks on that scheduler, so the row
// buffer, the scan cursor and the row counter are only ever touched by one
// task at a time. A long scan yields after every Settings.YieldEvery rows by
// scheduling its own continuation; at most one continuation is pending and
// any new trigger supersedes it.
//
// # Ordering
//
// The scan stops at the first entry still loading, even if later entries
// are ready, so rows always appear in display order. Entries whose image
// failed are never placed. They stop the scan like a loading entry until
// [Gallery.PassErrors] is called or Settings.SkipErrors is set, but they do
// not keep the gallery from completing once nothing else is loading.
//
// # Resizing
//
// When the container width moves by more than Settings.RefreshSensitivity
// the gallery rewinds to the first entry and replays the layout from the
// sizes it already knows, ending with [EventResize] instead of
// [EventComplete].
package gallery
