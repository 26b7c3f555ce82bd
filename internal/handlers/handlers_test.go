package handlers

import (
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"justified-gallery/internal/database"
	"justified-gallery/internal/gallery"
	"justified-gallery/internal/indexer"
	"justified-gallery/internal/media"
	"justified-gallery/internal/probe"
	"justified-gallery/internal/startup"
	"justified-gallery/internal/suffix"
)

func createTestImage(t *testing.T, path string, width, height int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		img.Set(x, height/2, color.RGBA{R: 200, A: 255})
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, nil); err != nil {
		t.Fatal(err)
	}
}

type testEnv struct {
	h      *Handlers
	router http.Handler
	root   string
	db     *database.Database
}

func newTestEnv(t *testing.T, withThumbs bool) *testEnv {
	t.Helper()
	root := t.TempDir()
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		createTestImage(t, filepath.Join(root, "trips", name), 600, 400)
	}
	if err := os.WriteFile(filepath.Join(root, "trips", "notes.txt"), []byte("text"), 0o644); err != nil {
		t.Fatal(err)
	}

	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "gallery.db"))
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	lib := media.NewLibrary(root)
	originals := probe.NewFileProber(root, "")
	cachedOriginals := &probe.Cached{Next: originals, Store: db, Keyer: probe.FileKeyer{Files: originals}}

	chain := probe.Chain{probe.NewFileProber(root, MediaPrefix)}
	var thumbs *media.Thumbnailer
	if withThumbs {
		resolver, err := suffix.New(suffix.DefaultTable())
		if err != nil {
			t.Fatal(err)
		}
		thumbs = media.NewThumbnailer(lib, resolver, filepath.Join(t.TempDir(), "thumbs"), cachedOriginals)
		chain = probe.Chain{media.ThumbProber{Thumbs: thumbs, URLPrefix: ThumbPrefix, Originals: cachedOriginals}, chain[0]}
	}
	probes := probe.NewDispatcher(chain, probe.DispatcherConfig{Workers: 4, Timeout: 5 * time.Second})
	t.Cleanup(probes.Close)

	settings := gallery.DefaultSettings()
	settings.RowHeight = 200
	settings.Margins = 10
	settings.Border = 0
	settings.Captions = false

	h := New(lib, thumbs, db, probes, &startup.Config{Settings: settings, LayoutTimeout: 10 * time.Second})
	return &testEnv{h: h, router: NewRouter(h), root: root, db: db}
}

func (e *testEnv) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return v
}

func TestListAlbums(t *testing.T) {
	env := newTestEnv(t, true)

	rr := env.get(t, "/api/albums")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body)
	}
	albums := decode[[]media.Album](t, rr)
	if len(albums) != 1 || albums[0].Path != "trips" || albums[0].Images != 3 {
		t.Errorf("albums = %+v, want one album trips with 3 images", albums)
	}
}

func TestGetAlbum(t *testing.T) {
	env := newTestEnv(t, true)

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"album", "/api/albums/trips", http.StatusOK},
		{"missing", "/api/albums/nowhere", http.StatusNotFound},
		{"file", "/api/albums/trips/a.jpg", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.get(t, tt.target)
			if rr.Code != tt.status {
				t.Fatalf("GET %s status = %d, want %d: %s", tt.target, rr.Code, tt.status, rr.Body)
			}
			if tt.status != http.StatusOK {
				return
			}
			listing := decode[media.Listing](t, rr)
			if len(listing.Images) != 3 || listing.Images[0].Name != "a.jpg" {
				t.Errorf("images = %+v", listing.Images)
			}
		})
	}
}

func TestGetLayout(t *testing.T) {
	env := newTestEnv(t, true)

	rr := env.get(t, "/api/albums/trips/layout?width=1000")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body)
	}
	resp := decode[LayoutResponse](t, rr)

	if resp.Album != "trips" {
		t.Errorf("Album = %q, want trips", resp.Album)
	}
	rows := resp.Layout.Rows
	if len(rows) != 1 || len(rows[0].Tiles) != 3 {
		t.Fatalf("rows = %+v, want one row of 3", rows)
	}
	for i, tile := range rows[0].Tiles {
		if tile.Width != 300 || tile.Height != 200 || tile.X != float64(i*310) {
			t.Errorf("tile %d = %+v, want 300x200 at x=%d", i, tile, i*310)
		}
		if !strings.HasPrefix(tile.Src, ThumbPrefix+"trips/") {
			t.Errorf("tile %d src = %q, want a thumbnail url", i, tile.Src)
		}
	}

	// The originals were probed once and their sizes cached.
	if n, err := env.db.CountDimensions(context.Background()); err != nil || n != 3 {
		t.Errorf("CountDimensions() = %d, %v; want 3", n, err)
	}
}

func TestGetLayoutOptions(t *testing.T) {
	env := newTestEnv(t, true)

	rr := env.get(t, "/api/albums/trips/layout?width=1000&rowHeight=100&margins=0&lastRow=hide&maxRowHeight=false")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body)
	}
	resp := decode[LayoutResponse](t, rr)
	// All three fit in one incomplete row, which lastRow=hide drops.
	if resp.Layout.Tiles() != 0 || len(resp.Layout.Hidden) != 3 {
		t.Errorf("layout = %+v, want 3 hidden entries", resp.Layout)
	}
}

func TestGetLayoutErrors(t *testing.T) {
	env := newTestEnv(t, true)

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"missing width", "/api/albums/trips/layout", http.StatusBadRequest},
		{"zero width", "/api/albums/trips/layout?width=0", http.StatusBadRequest},
		{"bad row height", "/api/albums/trips/layout?width=800&rowHeight=-1", http.StatusBadRequest},
		{"bad last row", "/api/albums/trips/layout?width=800&lastRow=diagonal", http.StatusBadRequest},
		{"bad bool", "/api/albums/trips/layout?width=800&rtl=sometimes", http.StatusBadRequest},
		{"missing album", "/api/albums/nowhere/layout?width=800", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.get(t, tt.target)
			if rr.Code != tt.status {
				t.Errorf("GET %s status = %d, want %d: %s", tt.target, rr.Code, tt.status, rr.Body)
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
		})
	}
}

func TestGetLayoutWithoutThumbnails(t *testing.T) {
	env := newTestEnv(t, false)

	rr := env.get(t, "/api/albums/trips/layout?width=1000")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body)
	}
	resp := decode[LayoutResponse](t, rr)
	if resp.Layout.Tiles() != 3 {
		t.Fatalf("tiles = %d, want 3", resp.Layout.Tiles())
	}
	for _, row := range resp.Layout.Rows {
		for _, tile := range row.Tiles {
			if tile.Src != MediaPrefix+tile.ID {
				t.Errorf("tile %s src = %q, want the original", tile.ID, tile.Src)
			}
		}
	}

	if rr := env.get(t, "/thumb/trips/a_m.jpg"); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("thumbnail status = %d, want 503", rr.Code)
	}
}

func TestGetThumbnail(t *testing.T) {
	env := newTestEnv(t, true)

	rr := env.get(t, "/thumb/trips/a_m.jpg")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("Content-Type = %q, want image/jpeg", ct)
	}
	cfg, err := jpeg.DecodeConfig(rr.Body)
	if err != nil {
		t.Fatalf("decoding thumbnail: %v", err)
	}
	if cfg.Width != 240 || cfg.Height != 160 {
		t.Errorf("thumbnail is %dx%d, want 240x160", cfg.Width, cfg.Height)
	}

	for _, target := range []string{"/thumb/trips/missing_m.jpg", "/thumb/trips/notes.txt"} {
		if rr := env.get(t, target); rr.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", target, rr.Code)
		}
	}
}

func TestGetMedia(t *testing.T) {
	env := newTestEnv(t, true)

	rr := env.get(t, "/media/trips/b.jpg")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	want, err := os.ReadFile(filepath.Join(env.root, "trips", "b.jpg"))
	if err != nil {
		t.Fatal(err)
	}
	if rr.Body.Len() != len(want) {
		t.Errorf("served %d bytes, want %d", rr.Body.Len(), len(want))
	}

	tests := []struct {
		target string
		status int
	}{
		{"/media/trips/notes.txt", http.StatusNotFound},
		{"/media/trips", http.StatusNotFound},
		{"/media/trips/missing.jpg", http.StatusNotFound},
	}
	for _, tt := range tests {
		if rr := env.get(t, tt.target); rr.Code != tt.status {
			t.Errorf("GET %s status = %d, want %d", tt.target, rr.Code, tt.status)
		}
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, true)

	if rr := env.get(t, "/readyz"); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz before ready = %d, want 503", rr.Code)
	}
	rr := env.get(t, "/health")
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("health before ready = %d, want 503", rr.Code)
	}
	if resp := decode[HealthResponse](t, rr); resp.Status != statusStarting {
		t.Errorf("status = %q, want %q", resp.Status, statusStarting)
	}

	env.h.SetReady(true)
	if rr := env.get(t, "/readyz"); rr.Code != http.StatusOK {
		t.Errorf("readyz after ready = %d, want 200", rr.Code)
	}
	rr = env.get(t, "/healthz")
	if rr.Code != http.StatusOK {
		t.Fatalf("healthz after ready = %d, want 200", rr.Code)
	}
	resp := decode[HealthResponse](t, rr)
	if resp.Status != statusHealthy || resp.Albums != 1 || resp.Images != 3 || !resp.Thumbnails {
		t.Errorf("health = %+v", resp)
	}

	if rr := env.get(t, "/livez"); rr.Code != http.StatusOK {
		t.Errorf("livez = %d, want 200", rr.Code)
	}
}

func TestGetVersion(t *testing.T) {
	env := newTestEnv(t, true)

	rr := env.get(t, "/version")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	info := decode[VersionResponse](t, rr)
	if info.Version != startup.Version || info.GoVersion == "" {
		t.Errorf("version = %+v", info)
	}
	if info.ImageBackend != "imaging" && info.ImageBackend != "libvips" {
		t.Errorf("imageBackend = %q", info.ImageBackend)
	}
	if !info.Thumbnails {
		t.Error("thumbnails = false, want true with a thumbnail cache")
	}
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t, true)

	rr := env.get(t, "/nothing/here")
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestEscapePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"trips/a.jpg", "trips/a.jpg"},
		{"trips/beach day.jpg", "trips/beach%20day.jpg"},
		{"50%/x#1.jpg", "50%25/x%231.jpg"},
	}
	for _, tt := range tests {
		if got := escapePath(tt.in); got != tt.want {
			t.Errorf("escapePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTriggerReindex(t *testing.T) {
	env := newTestEnv(t, false)
	post := func() *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		env.router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/reindex", nil))
		return rr
	}

	if rr := post(); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("reindex without indexer = %d, want 503", rr.Code)
	}

	files := probe.NewFileProber(env.root, "")
	idx := indexer.New(env.root, &probe.Cached{Next: files, Store: env.db, Keyer: probe.FileKeyer{Files: files}}, 0)
	runs := make(chan indexer.WalkResult, 2)
	idx.SetOnIndexComplete(func(r indexer.WalkResult) { runs <- r })
	env.h.SetIndexer(idx)
	idx.Start(context.Background())
	t.Cleanup(idx.Stop)

	select {
	case <-runs:
	case <-time.After(5 * time.Second):
		t.Fatal("initial index did not complete")
	}

	rr := post()
	if rr.Code != http.StatusAccepted {
		t.Fatalf("reindex = %d, want 202: %s", rr.Code, rr.Body)
	}
	if body := decode[map[string]string](t, rr); body["status"] != "started" {
		t.Errorf("status = %q, want started", body["status"])
	}
	select {
	case r := <-runs:
		if r.Images != 3 {
			t.Errorf("reindex probed %d images, want 3", r.Images)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("triggered index did not complete")
	}

	env.h.SetReady(true)
	resp := decode[HealthResponse](t, env.get(t, "/health"))
	if resp.Index == nil || resp.Index.Images != 3 {
		t.Errorf("health index = %+v, want 3 images", resp.Index)
	}
	if resp.CachedSizes != 3 {
		t.Errorf("CachedSizes = %d, want 3", resp.CachedSizes)
	}
}
