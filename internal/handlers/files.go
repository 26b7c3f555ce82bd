package handlers

import (
	"bytes"
	"fmt"
	"io/fs"
	"net/http"
	"path"

	"github.com/gorilla/mux"

	"justified-gallery/internal/filesystem"
	"justified-gallery/internal/logging"
	"justified-gallery/internal/media"
)

// GetThumbnail serves a size-suffixed thumbnail such as
// /thumb/trips/beach_m.jpg, generating it on first request.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["path"]
	if name == "" {
		writeJSONError(w, "Path is required", http.StatusBadRequest)
		return
	}
	if h.thumbs == nil {
		writeJSONError(w, "Thumbnails disabled", http.StatusServiceUnavailable)
		return
	}

	thumb, err := h.thumbs.Thumbnail(r.Context(), name)
	if err != nil {
		writeError(w, "GetThumbnail", err)
		return
	}

	w.Header().Set("Content-Type", thumb.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeContent(w, r, path.Base(name), thumb.ModTime, bytes.NewReader(thumb.Data))
}

// GetMedia serves an original image.
func (h *Handlers) GetMedia(w http.ResponseWriter, r *http.Request) {
	rel := mux.Vars(r)["path"]
	if rel == "" {
		writeJSONError(w, "Path is required", http.StatusBadRequest)
		return
	}

	fullPath, err := h.lib.Resolve(rel)
	if err != nil {
		writeError(w, "GetMedia", err)
		return
	}

	info, err := filesystem.StatWithRetry(r.Context(), fullPath, h.retry)
	if err != nil {
		writeError(w, "GetMedia", err)
		return
	}
	if info.IsDir() || !media.IsImage(fullPath) {
		writeError(w, "GetMedia", fmt.Errorf("%s: %w", rel, fs.ErrNotExist))
		return
	}

	f, err := filesystem.OpenWithRetry(r.Context(), fullPath, h.retry)
	if err != nil {
		writeError(w, "GetMedia", err)
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("failed to close %s: %v", fullPath, err)
		}
	}()

	w.Header().Set("Content-Type", media.MimeType(fullPath))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
