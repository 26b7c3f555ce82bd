// Package main is the entry point of the justified gallery server.
//
// The server lays out the images of a directory tree as justified rows:
// every row has the same width and each image keeps its aspect ratio.
// Layouts are computed on request for a given container width and returned
// as JSON, together with the thumbnail URLs each tile should load.
//
// # Application Lifecycle
//
//  1. Memory Budget: Splits MEMORY_LIMIT between the Go heap and libvips
//  2. Configuration Loading: Reads environment variables and the optional
//     gallery settings file
//  3. libvips Initialization: Falls back to pure Go decoders when missing
//  4. Database Initialization: Opens the SQLite dimension cache
//  5. Component Initialization:
//     - Probe dispatcher: worker pool reading image sizes
//     - Indexer: probes every image in the background to warm the cache
//     - Thumbnailer: size-suffixed thumbnails gated by the memory monitor
//     - Library watcher: drops cached listings when files change
//     - Metrics Collector: library and cache gauges
//  6. HTTP Server Setup: routes, logging, metrics and compression middleware
//  7. Graceful Shutdown: Handles SIGINT/SIGTERM
//
// # Environment Variables
//
//   - MEDIA_DIR: Root directory of the albums (default: /media)
//   - CACHE_DIR: Directory for generated thumbnails (default: /cache)
//   - DATABASE_DIR: Directory for the SQLite database (default: /database)
//   - PORT: Main HTTP server port (default: 8080)
//   - METRICS_PORT: Metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable metrics server (default: true)
//   - WATCH_ENABLED: Watch the media directory for changes (default: true)
//   - GALLERY_SETTINGS: YAML file with gallery defaults
//   - PROBE_WORKERS: Concurrent image size probes (default: 2 x CPUs)
//   - PROBE_TIMEOUT: Upper bound for a single probe (default: 10s)
//   - LAYOUT_TIMEOUT: Upper bound for a layout request (default: 30s)
//   - DIMENSION_MAX_AGE: Age after which cached sizes are pruned (default: 720h)
//   - INDEX_INTERVAL: Period of dimension cache warm-up runs, 0 for startup only (default: 6h)
//   - INDEX_WORKERS: Parallel probes of a warm-up run (default: 3)
//   - LOG_LEVEL: Logging level (debug/info/warn/error)
//   - GOMEMLIMIT: Go heap limit, wins over MEMORY_LIMIT when set
//   - MEMORY_LIMIT: Container memory limit, bytes or a quantity like 512Mi
//   - MEMORY_RATIO: Share of MEMORY_LIMIT given to the Go heap (default: 0.75)
//   - VIPS_CACHE_MEM: libvips operation cache size (default: derived from MEMORY_LIMIT)
//
// # Related Packages
//
//   - [justified-gallery/internal/gallery]: the justified layout engine
//   - [justified-gallery/internal/canvas]: headless rendering of a gallery
//   - [justified-gallery/internal/probe]: image size probing
//   - [justified-gallery/internal/media]: library listing and thumbnails
//   - [justified-gallery/internal/handlers]: HTTP request handlers
//   - [justified-gallery/cmd/jglayout]: command line layouts
package main
