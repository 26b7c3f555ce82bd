package metrics

import (
	"time"

	"justified-gallery/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the current library statistics
type Stats struct {
	Albums              int
	Images              int
	DimensionCacheRows  int
	ThumbnailCacheBytes int64
}

// StatsFunc adapts a function to StatsProvider.
type StatsFunc func() Stats

// GetStats implements StatsProvider.
func (f StatsFunc) GetStats() Stats {
	return f()
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	AlbumsTotal.Set(float64(stats.Albums))
	ImagesTotal.Set(float64(stats.Images))
	DimensionCacheEntries.Set(float64(stats.DimensionCacheRows))
	ThumbnailCacheBytes.Set(float64(stats.ThumbnailCacheBytes))

	logging.Debug("Metrics collected: albums=%d, images=%d, cached dimensions=%d, thumbnail bytes=%d",
		stats.Albums, stats.Images, stats.DimensionCacheRows, stats.ThumbnailCacheBytes)
}
