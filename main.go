package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"justified-gallery/internal/database"
	"justified-gallery/internal/filesystem"
	"justified-gallery/internal/handlers"
	"justified-gallery/internal/indexer"
	"justified-gallery/internal/logging"
	"justified-gallery/internal/media"
	"justified-gallery/internal/memory"
	"justified-gallery/internal/metrics"
	"justified-gallery/internal/middleware"
	"justified-gallery/internal/probe"
	"justified-gallery/internal/startup"
	"justified-gallery/internal/suffix"
)

const (
	pruneInterval      = 24 * time.Hour
	metricsCollectTick = 30 * time.Second
)

func main() {
	startTime := time.Now()

	budget := memory.ConfigureFromEnv()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}
	startup.LogMemoryConfig(budget)
	startup.LogGallerySettings(config.Settings)

	if config.MetricsEnabled {
		metrics.InitializeMetrics()
		info := startup.GetBuildInfo()
		metrics.SetAppInfo(info.Version, info.Commit, info.GoVersion)
	}
	filesystem.SetObserver(metrics.NewFilesystemObserver())

	vipsErr := media.InitVips(budget.VipsCacheBytes)
	if vipsErr != nil {
		logging.Warn("libvips unavailable, falling back to pure Go decoders: %v", vipsErr)
	}
	defer media.ShutdownVips()
	startup.LogVipsInit(vipsErr == nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbStart := time.Now()
	db, err := database.New(ctx, config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	defer db.Close()
	cached, err := db.CountDimensions(ctx)
	if err != nil {
		logging.Warn("Failed to count cached sizes: %v", err)
	}
	startup.LogDatabaseInit(time.Since(dbStart), cached)
	go pruneLoop(ctx, db, config.DimensionMaxAge)

	lib := media.NewLibrary(config.MediaDir)

	originalFiles := probe.NewFileProber(config.MediaDir, "")
	originals := &probe.Cached{
		Next:  probe.Chain{originalFiles, media.VipsProber{Files: originalFiles}},
		Store: db,
		Keyer: probe.FileKeyer{Files: originalFiles},
	}
	mediaFiles := probe.NewFileProber(config.MediaDir, handlers.MediaPrefix)
	chain := probe.Chain{&probe.Cached{
		Next:  probe.Chain{mediaFiles, media.VipsProber{Files: mediaFiles}},
		Store: db,
		Keyer: probe.FileKeyer{Files: mediaFiles},
	}}

	var thumbs *media.Thumbnailer
	var monitor *memory.Monitor
	if config.ThumbnailsEnabled {
		resolver, err := suffix.New(config.Settings.SizeRangeSuffixes)
		if err != nil {
			startup.LogFatal("Invalid size suffixes: %v", err)
		}
		thumbs = media.NewThumbnailer(lib, resolver, config.ThumbnailDir, originals)
		monitor = memory.NewMonitor(budget.MonitorConfig())
		monitor.Start()
		thumbs.SetGate(monitor)
		chain = append(probe.Chain{media.ThumbProber{
			Thumbs:    thumbs,
			URLPrefix: handlers.ThumbPrefix,
			Originals: originals,
		}}, chain...)
	}

	probes := probe.NewDispatcher(chain, probe.DispatcherConfig{
		Workers: config.ProbeWorkers,
		Timeout: config.ProbeTimeout,
	})

	h := handlers.New(lib, thumbs, db, probes, config)

	idx := indexer.New(config.MediaDir, originals, config.IndexInterval)
	h.SetIndexer(idx)
	router := handlers.NewRouter(h)
	startup.LogHTTPRoutes(router, config.LogStaticFiles, config.LogHealthChecks)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogStaticFiles = config.LogStaticFiles
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	var handler http.Handler = middleware.Compression(middleware.DefaultCompressionConfig())(router)
	if config.MetricsEnabled {
		handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)
	}
	handler = middleware.Logger(loggingConfig)(handler)

	albums, images, err := lib.Stats(ctx)
	if err != nil {
		startup.LogFatal("Failed to scan media directory: %v", err)
	}
	if config.WatchEnabled {
		ready := make(chan struct{})
		failed := make(chan struct{})
		go func() {
			if err := lib.Watch(ctx, ready); err != nil {
				logging.Error("Library watcher stopped: %v", err)
			}
			close(failed)
		}()
		select {
		case <-ready:
		case <-failed:
			config.WatchEnabled = false
		}
	}
	startup.LogLibraryInit(albums, images, config.WatchEnabled)
	h.SetReady(true)
	idx.Start(ctx)

	var collector *metrics.Collector
	var metricsSrv *http.Server
	if config.MetricsEnabled {
		collector = metrics.NewCollector(metrics.StatsFunc(func() metrics.Stats {
			return collectStats(ctx, lib, db, thumbs)
		}), metricsCollectTick)
		collector.Start()

		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", h.MetricsHandler())
		metricsSrv = &http.Server{
			Addr:              ":" + config.MetricsPort,
			Handler:           metricsMux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: config.LayoutTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go handleShutdown(srv, metricsSrv, shutdownDone, func() {
		startup.LogShutdownStep("Stopping indexer")
		idx.Stop()
		startup.LogShutdownStepComplete("Indexer stopped")

		startup.LogShutdownStep("Stopping probe workers")
		probes.Close()
		startup.LogShutdownStepComplete("Probe workers stopped")

		if collector != nil {
			collector.Stop()
		}
		if monitor != nil {
			monitor.Stop()
		}
		cancel()
	})

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}
	<-shutdownDone
}

func collectStats(ctx context.Context, lib *media.Library, db *database.Database, thumbs *media.Thumbnailer) metrics.Stats {
	var stats metrics.Stats
	var err error
	if stats.Albums, stats.Images, err = lib.Stats(ctx); err != nil {
		logging.Warn("Failed to collect library stats: %v", err)
	}
	if stats.DimensionCacheRows, err = db.CountDimensions(ctx); err != nil {
		logging.Warn("Failed to count cached sizes: %v", err)
	}
	if thumbs != nil {
		if stats.ThumbnailCacheBytes, err = thumbs.CacheSize(); err != nil {
			logging.Warn("Failed to measure thumbnail cache: %v", err)
		}
	}
	return stats
}

// pruneLoop drops cached sizes older than maxAge once a day.
func pruneLoop(ctx context.Context, db *database.Database, maxAge time.Duration) {
	prune := func() {
		n, err := db.Prune(ctx, maxAge, pruneInterval)
		if err != nil {
			logging.Warn("Failed to prune dimension cache: %v", err)
			return
		}
		if n > 0 {
			logging.Info("Pruned %d cached image sizes", n)
			if err := db.Vacuum(ctx); err != nil {
				logging.Warn("Failed to vacuum database: %v", err)
			}
		}
	}

	prune()
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prune()
		}
	}
}

func handleShutdown(srv, metricsSrv *http.Server, done chan<- struct{}, stop func()) {
	defer close(done)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	stop()
	startup.LogShutdownComplete()
}
