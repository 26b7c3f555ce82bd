// Package database provides the SQLite store behind the probe dimension
// cache.
//
// Image sizes are keyed by file path, modification time and length, so an
// edited file is probed again while unchanged files are answered from the
// cache across restarts. A small metadata table holds housekeeping values
// such as the time of the last prune.
//
// The database uses WAL mode for concurrent reads and initializes its
// schema on open.
package database
