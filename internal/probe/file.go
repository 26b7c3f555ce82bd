package probe

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"justified-gallery/internal/filesystem"
	"justified-gallery/internal/logging"
)

// ErrOutsideRoot is returned for sources that resolve outside the prober root.
var ErrOutsideRoot = errors.New("probe: path outside root")

// FileProber reads image headers from files below Root. Sources are
// slash-separated paths relative to Root; a leading URLPrefix (for example
// "/media/") is stripped first so the same src strings the HTTP service
// hands out can be probed locally.
type FileProber struct {
	Root      string
	URLPrefix string
	Retry     filesystem.RetryConfig
}

// NewFileProber creates a FileProber rooted at root.
func NewFileProber(root, urlPrefix string) *FileProber {
	return &FileProber{
		Root:      root,
		URLPrefix: urlPrefix,
		Retry:     filesystem.DefaultRetryConfig(),
	}
}

// Resolve maps src to a path inside Root.
func (p *FileProber) Resolve(src string) (string, error) {
	if src == "" {
		return "", ErrEmptySource
	}
	rel := src
	if p.URLPrefix != "" {
		rel = strings.TrimPrefix(rel, p.URLPrefix)
	}
	if unescaped, err := url.PathUnescape(rel); err == nil {
		rel = unescaped
	}
	rel = filepath.FromSlash(strings.TrimPrefix(rel, "/"))

	root, err := filepath.Abs(p.Root)
	if err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}
	full := filepath.Join(root, rel)
	if full != root && !strings.HasPrefix(full, root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, src)
	}
	return full, nil
}

// Probe implements Prober.
func (p *FileProber) Probe(ctx context.Context, src string) (Size, error) {
	path, err := p.Resolve(src)
	if err != nil {
		return Size{}, err
	}

	f, err := filesystem.OpenWithRetry(ctx, path, p.Retry)
	if err != nil {
		return Size{}, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	size, format, err := decodeSize(f)
	if err != nil {
		return Size{}, fmt.Errorf("decode %s: %w", src, err)
	}
	logging.Debug("Probed %s: %s (%s)", src, size, format)
	return size, nil
}
