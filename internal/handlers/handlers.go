package handlers

import (
	"sync/atomic"
	"time"

	"justified-gallery/internal/database"
	"justified-gallery/internal/filesystem"
	"justified-gallery/internal/gallery"
	"justified-gallery/internal/indexer"
	"justified-gallery/internal/media"
	"justified-gallery/internal/probe"
	"justified-gallery/internal/startup"
)

// URL prefixes the handlers are mounted on. Layout sources point at them
// and the probe chain strips them again.
const (
	MediaPrefix = "/media/"
	ThumbPrefix = "/thumb/"
)

type Handlers struct {
	lib           *media.Library
	thumbs        *media.Thumbnailer
	db            *database.Database
	probes        *probe.Dispatcher
	settings      gallery.Settings
	layoutTimeout time.Duration
	retry         filesystem.RetryConfig
	startTime     time.Time
	indexer       *indexer.Indexer
	ready         atomic.Bool
}

// New wires the handlers. thumbs is nil when the thumbnail cache is not
// writable; layouts then point at the originals.
func New(lib *media.Library, thumbs *media.Thumbnailer, db *database.Database, probes *probe.Dispatcher, config *startup.Config) *Handlers {
	return &Handlers{
		lib:           lib,
		thumbs:        thumbs,
		db:            db,
		probes:        probes,
		settings:      config.Settings,
		layoutTimeout: config.LayoutTimeout,
		retry:         filesystem.DefaultRetryConfig(),
		startTime:     time.Now(),
	}
}

// SetReady marks the service ready once the library has been scanned.
func (h *Handlers) SetReady(ready bool) {
	h.ready.Store(ready)
}

// SetIndexer exposes the dimension cache warm-up through /api/reindex and
// the health report.
func (h *Handlers) SetIndexer(idx *indexer.Indexer) {
	h.indexer = idx
}
