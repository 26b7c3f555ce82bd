package memory

import (
	"fmt"
	"math"
	"os"
	"runtime/debug"
	"strconv"
	"strings"

	"justified-gallery/internal/logging"
)

const (
	// DefaultHeapRatio is the share of container memory given to the Go heap.
	// The rest belongs to libvips, which allocates outside the Go heap.
	DefaultHeapRatio = 0.75

	// DefaultVipsCacheBytes is the libvips operation cache used when no
	// container limit is known.
	DefaultVipsCacheBytes = 50 << 20

	minVipsCacheBytes = 16 << 20
	maxVipsCacheBytes = 256 << 20
)

// Budget splits the container memory between the Go heap, where pure Go
// decoding and layouts live, and libvips. A quarter of the libvips share
// goes to its operation cache; the remainder is headroom for the decode
// buffers of thumbnails in flight.
type Budget struct {
	// Source is "GOMEMLIMIT", "MEMORY_LIMIT" or "none".
	Source string

	// ContainerLimit is MEMORY_LIMIT in bytes, 0 when unset.
	ContainerLimit int64

	// HeapLimit is the runtime memory limit in force, 0 when unset.
	HeapLimit int64

	// Ratio is the heap share of ContainerLimit.
	Ratio float64

	// VipsCacheBytes bounds the libvips operation cache.
	VipsCacheBytes int
}

// Configured reports whether a runtime memory limit is in force.
func (b Budget) Configured() bool {
	return b.HeapLimit > 0
}

// MonitorConfig returns the thumbnail gate settings for this budget. The
// gate pauses against the heap limit, not the container limit.
func (b Budget) MonitorConfig() Config {
	c := DefaultConfig()
	c.MemoryLimitBytes = b.HeapLimit
	return c
}

// ConfigureFromEnv applies GOMEMLIMIT from the container limit and sizes
// the libvips cache from what the heap leaves over. Call it before the
// image pipeline starts.
//
// GOMEMLIMIT, when set, wins and leaves the libvips cache at its default.
// MEMORY_LIMIT takes bytes or a Kubernetes quantity such as "512Mi".
// MEMORY_RATIO overrides [DefaultHeapRatio]. VIPS_CACHE_MEM overrides the
// computed cache size.
func ConfigureFromEnv() (b Budget) {
	b = Budget{Source: "none", VipsCacheBytes: DefaultVipsCacheBytes}
	defer func() {
		if v := os.Getenv("VIPS_CACHE_MEM"); v != "" {
			n, err := parseBytes(v)
			if err != nil || n <= 0 {
				logging.Warn("Invalid VIPS_CACHE_MEM %q, using %s", v, formatBytes(int64(b.VipsCacheBytes)))
				return
			}
			b.VipsCacheBytes = int(n)
		}
	}()

	if env := os.Getenv("GOMEMLIMIT"); env != "" {
		if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
			b.Source = "GOMEMLIMIT"
			b.HeapLimit = limit
		}
		logging.Info("GOMEMLIMIT set via environment: %s", env)
		return b
	}

	raw := os.Getenv("MEMORY_LIMIT")
	if raw == "" {
		logging.Debug("MEMORY_LIMIT not set, GOMEMLIMIT will not be configured automatically")
		return b
	}
	container, err := parseBytes(raw)
	if err != nil || container <= 0 {
		logging.Warn("Failed to parse MEMORY_LIMIT %q: %v", raw, err)
		return b
	}

	ratio := DefaultHeapRatio
	if v := os.Getenv("MEMORY_RATIO"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		switch {
		case err != nil:
			logging.Warn("Failed to parse MEMORY_RATIO %q: %v, using default %.2f", v, err, DefaultHeapRatio)
		case parsed <= 0 || parsed > 1:
			logging.Warn("MEMORY_RATIO %q out of range (0.0-1.0), using default %.2f", v, DefaultHeapRatio)
		default:
			ratio = parsed
		}
	}

	heap := int64(float64(container) * ratio)
	debug.SetMemoryLimit(heap)

	b.Source = "MEMORY_LIMIT"
	b.ContainerLimit = container
	b.HeapLimit = heap
	b.Ratio = ratio
	b.VipsCacheBytes = vipsCacheFor(container - heap)

	logging.Info("Configured GOMEMLIMIT: %s (%.1f%% of %s container limit), libvips cache %s",
		formatBytes(heap), ratio*100, formatBytes(container), formatBytes(int64(b.VipsCacheBytes)))
	return b
}

func vipsCacheFor(outsideHeap int64) int {
	return int(min(max(outsideHeap/4, minVipsCacheBytes), maxVipsCacheBytes))
}

var byteUnits = []struct {
	suffix string
	scale  int64
}{
	// Longest first so "Mi" is not read as "M" plus a stray "i".
	{"KiB", 1 << 10}, {"MiB", 1 << 20}, {"GiB", 1 << 30},
	{"Ki", 1 << 10}, {"Mi", 1 << 20}, {"Gi", 1 << 30},
	{"K", 1e3}, {"M", 1e6}, {"G", 1e9},
}

// parseBytes reads a byte count, either plain or with a binary (Ki, MiB)
// or decimal (K, M, G) suffix.
func parseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	scale := int64(1)
	for _, u := range byteUnits {
		if strings.HasSuffix(s, u.suffix) {
			s = strings.TrimSuffix(s, u.suffix)
			scale = u.scale
			break
		}
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > math.MaxInt64/scale {
		return 0, fmt.Errorf("%d out of range", n)
	}
	return n * scale, nil
}

// formatBytes formats bytes into human-readable string
func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
