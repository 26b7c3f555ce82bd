// Package probe determines the natural pixel size of images.
//
// A [Prober] answers one question synchronously: how large is the image at
// src? Implementations read local files ([FileProber]), fetch remote URLs
// ([HTTPProber]), consult a dimension cache ([Cached]) or try several
// sources in turn ([Chain]).
//
// The [Dispatcher] turns a Prober into the asynchronous primitive the gallery
// consumes: Request returns immediately and the callback fires exactly once
// from a worker goroutine with either a size or an error. Probes run on a
// bounded pool from the workers package, so many requests may be in flight
// and complete in any order.
//
// Probers never touch layout state. A failed probe is terminal for the
// entry that asked; there is no retry beyond the NFS stale-handle retry the
// filesystem package performs underneath FileProber.
package probe
