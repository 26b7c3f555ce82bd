// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig]:
//
//   - MEDIA_DIR: Library root holding the album directories (default: /media)
//   - CACHE_DIR: Path for generated thumbnails (default: /cache)
//   - DATABASE_DIR: Path for the dimension cache database (default: /database)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - WATCH_ENABLED: Invalidate cached listings on filesystem events (default: true)
//   - GALLERY_SETTINGS: Optional YAML file with gallery option defaults
//   - PROBE_TIMEOUT: Per-image size probe timeout (default: 10s)
//   - PROBE_WORKERS: Concurrent size probes (default: 2 x CPUs)
//   - LAYOUT_TIMEOUT: Upper bound for one layout request (default: 30s)
//   - DIMENSION_MAX_AGE: Age after which cached sizes are pruned (default: 720h)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_STATIC_FILES: Log static file requests (default: false)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//
// The settings file uses the layout option names, see [LoadGallerySettings].
//
// # Directory Setup
//
//   - Database directory: Required, must be writable
//   - Cache directory: Optional, thumbnails are disabled if it is not writable
//   - Media directory: Checked but not created when present
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
//
// # Lifecycle Logging
//
//	config, err := startup.LoadConfig()
//	if err != nil {
//	    startup.LogFatal("Configuration error: %v", err)
//	}
//	startup.LogDatabaseInit(time.Since(dbStart), cached)
//	startup.LogServerStarted(startup.ServerConfig{
//	    Port:            config.Port,
//	    MetricsPort:     config.MetricsPort,
//	    MetricsEnabled:  config.MetricsEnabled,
//	    StartupDuration: time.Since(startTime),
//	})
package startup
