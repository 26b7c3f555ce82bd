package handlers

import (
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/gorilla/mux"

	"justified-gallery/internal/gallery"
	"justified-gallery/internal/media"
)

// ListAlbums returns every album of the library.
func (h *Handlers) ListAlbums(w http.ResponseWriter, r *http.Request) {
	albums, err := h.lib.Albums(r.Context())
	if err != nil {
		writeError(w, "ListAlbums", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, albums)
}

// GetAlbum returns the images and sub-albums of one album.
func (h *Handlers) GetAlbum(w http.ResponseWriter, r *http.Request) {
	listing, err := h.lib.Listing(r.Context(), mux.Vars(r)["album"])
	if err != nil {
		writeError(w, "GetAlbum", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, listing)
}

// items turns album images into gallery items. Sources point at the
// thumbnail handler so the gallery can upgrade them by suffix; without a
// thumbnail cache they point at the originals.
func (h *Handlers) items(images []media.Image) []gallery.Item {
	prefix := ThumbPrefix
	if h.thumbs == nil {
		prefix = MediaPrefix
	}
	items := make([]gallery.Item, 0, len(images))
	for _, img := range images {
		title := strings.TrimSuffix(img.Name, path.Ext(img.Name))
		items = append(items, gallery.Item{
			ID:    img.Path,
			Src:   prefix + escapePath(img.Path),
			Alt:   title,
			Title: title,
		})
	}
	return items
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
