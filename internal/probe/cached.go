package probe

import (
	"context"

	"justified-gallery/internal/filesystem"
	"justified-gallery/internal/logging"
	"justified-gallery/internal/metrics"
)

// Key identifies one version of a source file. A change to the file's
// modification time or length produces a new key.
type Key struct {
	Path    string
	ModTime int64
	Bytes   int64
}

// Store persists probed sizes.
type Store interface {
	LookupDimensions(ctx context.Context, key Key) (Size, bool, error)
	SaveDimensions(ctx context.Context, key Key, size Size) error
}

// Keyer derives a cache key for src. ok is false when src cannot be cached.
type Keyer interface {
	Key(ctx context.Context, src string) (key Key, ok bool)
}

// FileKeyer keys sources resolved by a FileProber on their stat info.
type FileKeyer struct {
	Files *FileProber
}

// Key implements Keyer.
func (k FileKeyer) Key(ctx context.Context, src string) (Key, bool) {
	path, err := k.Files.Resolve(src)
	if err != nil {
		return Key{}, false
	}
	info, err := filesystem.StatWithRetry(ctx, path, k.Files.Retry)
	if err != nil || info.IsDir() {
		return Key{}, false
	}
	return Key{Path: path, ModTime: info.ModTime().UnixNano(), Bytes: info.Size()}, true
}

// Cached wraps a Prober with a dimension Store. Store failures are logged
// and fall through to the wrapped prober.
type Cached struct {
	Next  Prober
	Store Store
	Keyer Keyer
}

// Probe implements Prober.
func (c *Cached) Probe(ctx context.Context, src string) (Size, error) {
	key, ok := c.Keyer.Key(ctx, src)
	if !ok {
		return c.Next.Probe(ctx, src)
	}

	size, found, err := c.Store.LookupDimensions(ctx, key)
	if err != nil {
		logging.Warn("dimension cache lookup failed for %s: %v", src, err)
	}
	if found && size.Valid() {
		metrics.DimensionCacheHits.Inc()
		return size, nil
	}
	metrics.DimensionCacheMisses.Inc()

	size, err = c.Next.Probe(ctx, src)
	if err != nil {
		return Size{}, err
	}
	if err := c.Store.SaveDimensions(ctx, key, size); err != nil {
		logging.Warn("dimension cache store failed for %s: %v", src, err)
	}
	return size, nil
}
