package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter registers every route of the service.
func NewRouter(h *Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/albums", h.ListAlbums).Methods("GET")
	api.HandleFunc("/layout", h.GetLayout).Methods("GET")
	api.HandleFunc("/reindex", h.TriggerReindex).Methods("POST")
	api.HandleFunc("/albums/{album:.*}/layout", h.GetLayout).Methods("GET")
	api.HandleFunc("/albums/{album:.*}", h.GetAlbum).Methods("GET")

	// Images
	r.HandleFunc(ThumbPrefix+"{path:.*}", h.GetThumbnail).Methods("GET", "HEAD")
	r.HandleFunc(MediaPrefix+"{path:.*}", h.GetMedia).Methods("GET", "HEAD")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, "Not found", http.StatusNotFound)
	})
	return r
}

// MetricsHandler serves the Prometheus registry. It is mounted on the
// metrics port, not on the main router.
func (h *Handlers) MetricsHandler() http.Handler {
	return promhttp.Handler()
}
