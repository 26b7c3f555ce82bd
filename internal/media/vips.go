package media

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"

	"justified-gallery/internal/logging"
	"justified-gallery/internal/probe"
)

// ErrVipsUnavailable is returned by vips operations before InitVips.
var ErrVipsUnavailable = errors.New("media: libvips not available")

var (
	vipsInitMutex sync.Mutex
	vipsAvailable bool
)

// defaultVipsCacheMem bounds the libvips operation cache when no budget is known.
const defaultVipsCacheMem = 50 << 20

// InitVips starts libvips with its log routed through the application
// logger and its operation cache bounded to cacheMem bytes, or the default
// when cacheMem is zero. Call it once at startup.
func InitVips(cacheMem int) error {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsAvailable {
		return nil
	}

	if cacheMem <= 0 {
		cacheMem = defaultVipsCacheMem
	}
	level, handler := vipsLogging(logging.GetLevel())
	vips.LoggingSettings(handler, level)

	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      cacheMem,
		MaxCacheSize:     100,
	})

	vipsAvailable = true
	logging.Info("libvips initialized successfully (version: %s, cache %d bytes)", vips.Version, cacheMem)
	return nil
}

// vipsLogging maps the application level to the vips level and a handler
// that forwards vips messages at least that severe. vips levels follow glib:
// lower values are more severe.
func vipsLogging(appLevel logging.LogLevel) (vips.LogLevel, func(string, vips.LogLevel, string)) {
	var threshold vips.LogLevel
	switch appLevel {
	case logging.LevelDebug:
		threshold = vips.LogLevelInfo
	case logging.LevelInfo:
		threshold = vips.LogLevelWarning
	case logging.LevelWarn:
		threshold = vips.LogLevelCritical
	default:
		threshold = vips.LogLevelError
	}
	return threshold, func(domain string, level vips.LogLevel, msg string) {
		if level > threshold {
			return
		}
		switch level {
		case vips.LogLevelError, vips.LogLevelCritical:
			logging.Error("[%s] %s", domain, msg)
		case vips.LogLevelWarning:
			logging.Warn("[%s] %s", domain, msg)
		default:
			logging.Debug("[%s] %s", domain, msg)
		}
	}
}

// ShutdownVips releases libvips.
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsAvailable {
		vips.Shutdown()
		vipsAvailable = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable reports whether InitVips has run.
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsAvailable
}

// vipsThumbnail fits the image at path into a bound x bound box and returns
// it as JPEG. libvips shrinks JPEGs while decoding, so large originals are
// never held in memory at full size.
func vipsThumbnail(path string, bound, quality int) ([]byte, error) {
	if !IsVipsAvailable() {
		return nil, ErrVipsUnavailable
	}
	ref, err := vips.LoadImageFromFile(path, vips.NewImportParams())
	if err != nil {
		return nil, fmt.Errorf("vips failed to load image: %w", err)
	}
	defer ref.Close()

	logging.Debug("Vips loaded %s: %dx%d, fitting to %d", filepath.Base(path), ref.Width(), ref.Height(), bound)

	if ref.Width() > bound || ref.Height() > bound {
		if err := ref.Thumbnail(bound, bound, vips.InterestingNone); err != nil {
			return nil, fmt.Errorf("vips resize failed: %w", err)
		}
	}
	data, _, err := ref.ExportJpeg(&vips.JpegExportParams{
		Quality:        quality,
		StripMetadata:  true,
		OptimizeCoding: true,
	})
	if err != nil {
		return nil, fmt.Errorf("vips export failed: %w", err)
	}
	return data, nil
}

// VipsProber reads image sizes with libvips, covering formats the standard
// decoders cannot read (HEIC, AVIF). Paths are resolved by Files.
type VipsProber struct {
	Files *probe.FileProber
}

// Probe implements probe.Prober.
func (p VipsProber) Probe(ctx context.Context, src string) (probe.Size, error) {
	if !IsVipsAvailable() {
		return probe.Size{}, ErrVipsUnavailable
	}
	path, err := p.Files.Resolve(src)
	if err != nil {
		return probe.Size{}, err
	}
	if err := ctx.Err(); err != nil {
		return probe.Size{}, err
	}
	ref, err := vips.LoadImageFromFile(path, vips.NewImportParams())
	if err != nil {
		return probe.Size{}, fmt.Errorf("vips failed to load %s: %w", src, err)
	}
	defer ref.Close()
	return probe.Size{Width: ref.Width(), Height: ref.Height()}, nil
}
