// Package indexer warms the dimension cache.
//
// An [Indexer] walks the media directory with a [ParallelWalker] and probes
// the size of every image it finds, so that the first layout of an album is
// served from cached sizes instead of reading each file. It runs once at
// startup, again on a fixed interval and whenever [Indexer.TriggerIndex] is
// called. Runs never overlap.
package indexer
