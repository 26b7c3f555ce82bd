// Package logging provides the leveled logger shared by the gallery engine,
// the service and the CLI.
//
// It supports the following log levels:
//   - DEBUG: per-entry probe results, row flushes, scan continuations
//   - INFO: lifecycle messages (startup, gallery completion)
//   - WARN: recoverable problems (unreadable files, cache write failures)
//   - ERROR: failures surfaced to callers
//   - FATAL: startup errors that terminate the process
//
// The level comes from LOG_LEVEL, or DEBUG=true for debug output. Galleries
// log through a [Logger] created with [With] so messages carry the instance id.
package logging
