package handlers

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"

	"justified-gallery/internal/canvas"
	"justified-gallery/internal/gallery"
	"justified-gallery/internal/logging"
	"justified-gallery/internal/media"
	"justified-gallery/internal/probe"
)

// writeJSON encodes v as JSON and writes it to the response writer.
// Any encoding or write errors are logged since we typically cannot
// recover from them in an HTTP handler context.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes an error response as JSON with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, map[string]string{"error": message})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var settingsErr *gallery.SettingsError
	switch {
	case errors.As(err, &settingsErr), errors.Is(err, gallery.ErrInvalidSettings):
		return http.StatusBadRequest
	case errors.Is(err, media.ErrOutsideLibrary), errors.Is(err, probe.ErrOutsideRoot),
		errors.Is(err, probe.ErrEmptySource):
		return http.StatusBadRequest
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, media.ErrNotAlbum):
		return http.StatusNotFound
	case errors.Is(err, canvas.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs err and writes it with the mapped status.
func writeError(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logging.Error("%s: %v", op, err)
	} else {
		logging.Debug("%s: %v", op, err)
	}
	writeJSONError(w, err.Error(), status)
}
