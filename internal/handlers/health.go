package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"justified-gallery/internal/indexer"
	"justified-gallery/internal/logging"
	"justified-gallery/internal/media"
	"justified-gallery/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Ready   bool   `json:"ready"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
	Error   string `json:"error,omitempty"`

	// Library summary
	Albums      int `json:"albums"`
	Images      int `json:"images"`
	CachedSizes int `json:"cachedSizes"`

	// Image pipeline
	Thumbnails      bool  `json:"thumbnails"`
	Vips            bool  `json:"vips"`
	ProbesRunning   int64 `json:"probesRunning"`
	ProbesCompleted int64 `json:"probesCompleted"`

	// Index is the dimension cache warm-up state, when it runs.
	Index *indexer.Progress `json:"index,omitempty"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ready := h.ready.Load()
	response := HealthResponse{
		Ready:        ready,
		Version:      startup.Version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		Thumbnails:   h.thumbs != nil,
		Vips:         media.IsVipsAvailable(),
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
		Status:       statusHealthy,
	}
	if !ready {
		response.Status = statusStarting
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	albums, images, err := h.lib.Stats(ctx)
	if err != nil {
		logging.Warn("health: library stats failed: %v", err)
		response.Status = statusDegraded
		response.Error = err.Error()
	}
	response.Albums, response.Images = albums, images

	if h.db != nil {
		n, err := h.db.CountDimensions(ctx)
		if err != nil {
			logging.Warn("health: dimension cache count failed: %v", err)
			response.Status = statusDegraded
			response.Error = err.Error()
		}
		response.CachedSizes = n
	}
	if h.probes != nil {
		response.ProbesRunning, response.ProbesCompleted = h.probes.Stats()
	}
	if h.indexer != nil {
		progress := h.indexer.GetProgress()
		response.Index = &progress
	}

	w.Header().Set("Content-Type", "application/json")

	// Return 503 only if not ready at all
	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 only when the service is ready to accept traffic
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if h.ready.Load() {
		w.WriteHeader(http.StatusOK)
		writeJSON(w, map[string]string{
			"status": "ready",
		})
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		writeJSON(w, map[string]string{
			"status": "not_ready",
		})
	}
}

// VersionResponse is the build information plus the image pipeline the
// layouts are served with.
type VersionResponse struct {
	startup.BuildInfo
	ImageBackend string `json:"imageBackend"`
	Thumbnails   bool   `json:"thumbnails"`
}

// GetVersion returns the application version and build information
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	response := VersionResponse{
		BuildInfo:    startup.GetBuildInfo(),
		ImageBackend: "imaging",
		Thumbnails:   h.thumbs != nil,
	}
	if media.IsVipsAvailable() {
		response.ImageBackend = "libvips"
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, response)
}
