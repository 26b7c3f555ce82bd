package media

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"image/jpeg"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/crypto/blake2b"

	"justified-gallery/internal/filesystem"
	"justified-gallery/internal/logging"
	"justified-gallery/internal/metrics"
	"justified-gallery/internal/probe"
	"justified-gallery/internal/suffix"
)

// ErrNotThumbnail is returned by ThumbProber for sources outside its prefix.
var ErrNotThumbnail = errors.New("media: not a thumbnail url")

// DefaultThumbnailQuality is the JPEG quality of generated thumbnails.
const DefaultThumbnailQuality = 85

// ThumbRequest is a parsed thumbnail name.
type ThumbRequest struct {
	// Original is the library path of the full size image.
	Original string
	Suffix   string
	// Bound is the longest side of the thumbnail; 0 serves the original.
	Bound int
}

// Thumbnail is an encoded image ready to serve.
type Thumbnail struct {
	Data        []byte
	ContentType string
	ModTime     time.Time
}

// Thumbnailer serves size-suffixed thumbnails of library images.
type Thumbnailer struct {
	lib       *Library
	resolver  *suffix.Resolver
	ext       *regexp.Regexp
	cacheDir  string
	quality   int
	sizeProbe probe.Prober
	gate      Gate

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Gate holds back generation while resources are short. memory.Monitor
// implements it.
type Gate interface {
	Wait(ctx context.Context) error
}

// NewThumbnailer creates a thumbnailer caching into cacheDir. sizes probes
// originals by library path so oversized images are constrained before
// decoding; it may be nil.
func NewThumbnailer(lib *Library, resolver *suffix.Resolver, cacheDir string, sizes probe.Prober) *Thumbnailer {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		logging.Warn("Thumbnailer: failed to create cache dir: %v", err)
	}
	logging.Debug("Thumbnailer: cache dir %s, bounds %v", cacheDir, resolver.Bounds())
	return &Thumbnailer{
		lib:       lib,
		resolver:  resolver,
		ext:       suffix.DefaultExtension,
		cacheDir:  cacheDir,
		quality:   DefaultThumbnailQuality,
		sizeProbe: sizes,
		locks:     make(map[string]*sync.Mutex),
	}
}

// SetGate makes generation wait on g before decoding an original.
func (t *Thumbnailer) SetGate(g Gate) {
	t.gate = g
}

// Parse splits a thumbnail name into the original path and the bound its
// suffix selects.
func (t *Thumbnailer) Parse(name string) (ThumbRequest, error) {
	name = normalize(name)
	if name == "" {
		return ThumbRequest{}, probe.ErrEmptySource
	}
	base, sfx, ext := t.resolver.Split(name, t.ext)
	bound, ok := t.resolver.Bound(sfx)
	if !ok {
		return ThumbRequest{}, fmt.Errorf("unknown suffix %q in %s", sfx, name)
	}
	return ThumbRequest{Original: base + ext, Suffix: sfx, Bound: bound}, nil
}

// Thumbnail returns the thumbnail for name, generating and caching it on
// first use.
func (t *Thumbnailer) Thumbnail(ctx context.Context, name string) (*Thumbnail, error) {
	req, err := t.Parse(name)
	if err != nil {
		return nil, err
	}
	path, err := t.lib.Resolve(req.Original)
	if err != nil {
		return nil, err
	}
	info, err := filesystem.StatWithRetry(ctx, path, t.lib.retry)
	if err != nil {
		return nil, fmt.Errorf("file not accessible: %w", err)
	}
	if info.IsDir() || !IsImage(path) {
		return nil, fmt.Errorf("%s: %w", req.Original, fs.ErrNotExist)
	}

	if req.Bound == 0 {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return &Thumbnail{Data: data, ContentType: MimeType(path), ModTime: info.ModTime()}, nil
	}

	key := cacheKey(path, info, req.Bound)
	cachePath := filepath.Join(t.cacheDir, key[:2], key+".jpg")
	if data, err := os.ReadFile(cachePath); err == nil {
		metrics.ThumbnailCacheHits.Inc()
		return &Thumbnail{Data: data, ContentType: "image/jpeg", ModTime: info.ModTime()}, nil
	}

	lock := t.lock(key)
	lock.Lock()
	defer func() {
		lock.Unlock()
		t.unlock(key)
	}()

	if data, err := os.ReadFile(cachePath); err == nil {
		metrics.ThumbnailCacheHits.Inc()
		return &Thumbnail{Data: data, ContentType: "image/jpeg", ModTime: info.ModTime()}, nil
	}
	metrics.ThumbnailCacheMisses.Inc()

	data, err := t.generate(ctx, req, path)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cachePath), 0755); err != nil {
		logging.Warn("Failed to create thumbnail cache dir: %v", err)
	} else if err := os.WriteFile(cachePath, data, 0644); err != nil {
		logging.Warn("Failed to cache thumbnail %s: %v", cachePath, err)
	}
	return &Thumbnail{Data: data, ContentType: "image/jpeg", ModTime: info.ModTime()}, nil
}

func (t *Thumbnailer) generate(ctx context.Context, req ThumbRequest, path string) ([]byte, error) {
	if t.gate != nil {
		if err := t.gate.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for memory: %w", err)
		}
	}

	backend := "imaging"
	if IsVipsAvailable() {
		backend = "vips"
	}
	start := time.Now()
	logging.Debug("Thumbnail generating: %s at %d (%s)", req.Original, req.Bound, backend)

	var data []byte
	var err error
	if backend == "vips" {
		data, err = vipsThumbnail(path, req.Bound, t.quality)
	} else {
		data, err = t.imagingThumbnail(ctx, req, path)
	}

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.ThumbnailGenerationsTotal.WithLabelValues(backend, status).Inc()
	metrics.ThumbnailGenerationDuration.WithLabelValues(backend).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("thumbnail generation failed: %w", err)
	}
	return data, nil
}

func (t *Thumbnailer) imagingThumbnail(ctx context.Context, req ThumbRequest, path string) ([]byte, error) {
	var size probe.Size
	if t.sizeProbe != nil {
		if s, err := t.sizeProbe.Probe(ctx, req.Original); err == nil {
			size = s
		}
	}
	img, err := loadConstrained(path, size)
	if err != nil {
		return nil, err
	}
	thumb := imaging.Fit(img, req.Bound, req.Bound, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: t.quality}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

func (t *Thumbnailer) lock(key string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.locks[key]
	if !ok {
		l = &sync.Mutex{}
		t.locks[key] = l
	}
	return l
}

func (t *Thumbnailer) unlock(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.locks, key)
}

// CacheSize returns the bytes used by cached thumbnails.
func (t *Thumbnailer) CacheSize() (int64, error) {
	var total int64
	err := filepath.WalkDir(t.cacheDir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		total += info.Size()
		return nil
	})
	return total, err
}

// cacheKey changes whenever the original changes or the bound differs.
func cacheKey(path string, info fs.FileInfo, bound int) string {
	sum := blake2b.Sum256(fmt.Appendf(nil, "%s\x00%d\x00%d\x00%d", path, info.ModTime().UnixNano(), info.Size(), bound))
	return hex.EncodeToString(sum[:])
}

// ThumbProber reports the size a thumbnail URL will have without generating
// it, so a gallery can verify thumbnail sources cheaply.
type ThumbProber struct {
	Thumbs    *Thumbnailer
	URLPrefix string
	// Originals probes library paths of full size images.
	Originals probe.Prober
}

// Probe implements probe.Prober.
func (p ThumbProber) Probe(ctx context.Context, src string) (probe.Size, error) {
	if !strings.HasPrefix(src, p.URLPrefix) {
		return probe.Size{}, fmt.Errorf("%w: %s", ErrNotThumbnail, src)
	}
	name := strings.TrimPrefix(src, p.URLPrefix)
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	req, err := p.Thumbs.Parse(name)
	if err != nil {
		return probe.Size{}, err
	}
	size, err := p.Originals.Probe(ctx, req.Original)
	if err != nil {
		return probe.Size{}, err
	}
	return FitSize(size, req.Bound), nil
}
