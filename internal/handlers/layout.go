package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"justified-gallery/internal/canvas"
	"justified-gallery/internal/gallery"
	"justified-gallery/internal/middleware"
)

// boolOptions are the layout options that take a boolean query value.
var boolOptions = map[string]bool{
	"captions":           true,
	"randomize":          true,
	"rtl":                true,
	"skipErrors":         true,
	"waitThumbnailsLoad": true,
}

// layoutOptions are accepted from the query string. The rest of the
// settings come from the configured defaults.
var layoutOptions = map[string]bool{
	"rowHeight":        true,
	"maxRowHeight":     true,
	"maxRowsCount":     true,
	"margins":          true,
	"border":           true,
	"lastRow":          true,
	"justifyThreshold": true,
	"sort":             true,
	"filter":           true,
}

// LayoutResponse is the body of a layout request.
type LayoutResponse struct {
	Album string `json:"album"`
	canvas.Result
}

// GetLayout lays out an album for the container width given by ?width=N.
// Other query parameters override the gallery defaults, for example
// ?width=1200&rowHeight=160&lastRow=center&margins=4.
func (h *Handlers) GetLayout(w http.ResponseWriter, r *http.Request) {
	album := mux.Vars(r)["album"]
	query := r.URL.Query()

	width, err := strconv.ParseFloat(query.Get("width"), 64)
	if err != nil || width <= 0 {
		writeJSONError(w, "width must be a positive number", http.StatusBadRequest)
		return
	}

	settings, err := h.layoutSettings(query)
	if err != nil {
		writeError(w, "GetLayout", err)
		return
	}

	listing, err := h.lib.Listing(r.Context(), album)
	if err != nil {
		writeError(w, "GetLayout", err)
		return
	}

	ctx := r.Context()
	if h.layoutTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.layoutTimeout)
		defer cancel()
	}

	res, err := canvas.Render(ctx, canvas.New(width, h.items(listing.Images)), h.probes, settings)
	if err != nil {
		writeError(w, "GetLayout", err)
		return
	}

	middleware.AnnotateLayout(r.Context(), middleware.LayoutSummary{
		Width: width,
		Rows:  len(res.Layout.Rows),
		Tiles: res.Layout.Tiles(),
	})
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, LayoutResponse{Album: listing.Album.Path, Result: res})
}

func (h *Handlers) layoutSettings(query map[string][]string) (gallery.Settings, error) {
	opts := map[string]any{}
	for name, values := range query {
		if len(values) == 0 {
			continue
		}
		value := values[0]
		switch {
		case boolOptions[name]:
			b, err := strconv.ParseBool(value)
			if err != nil {
				return gallery.Settings{}, &gallery.SettingsError{Option: name, Reason: "must be a boolean"}
			}
			opts[name] = b
		case layoutOptions[name]:
			if (name == "sort" || name == "filter" || name == "maxRowHeight") && strings.EqualFold(value, "false") {
				opts[name] = false
				continue
			}
			opts[name] = value
		}
	}

	settings := h.settings
	if h.thumbs == nil {
		settings.ThumbnailPath = func(src string, _, _ int) string { return src }
	}
	return gallery.ApplyOptions(settings, opts)
}
