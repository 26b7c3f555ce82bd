package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"justified-gallery/internal/filesystem"
	"justified-gallery/internal/logging"
)

var (
	// ErrOutsideLibrary is returned for paths that escape the library root.
	ErrOutsideLibrary = errors.New("media: path outside library")
	// ErrNotAlbum is returned when a path is not a directory.
	ErrNotAlbum = errors.New("media: not an album")
)

// Library lists the albums below a root directory. Listings are cached
// until Invalidate is called, usually by Watch.
type Library struct {
	root  string
	retry filesystem.RetryConfig

	mu       sync.RWMutex
	albums   []Album
	listings map[string]*Listing
}

// NewLibrary creates a library rooted at root.
func NewLibrary(root string) *Library {
	return &Library{
		root:     root,
		retry:    filesystem.DefaultRetryConfig(),
		listings: make(map[string]*Listing),
	}
}

// Root returns the library root.
func (l *Library) Root() string {
	return l.root
}

// Resolve maps a slash-separated path relative to the root to a filesystem
// path, refusing anything outside the root.
func (l *Library) Resolve(rel string) (string, error) {
	root, err := filepath.Abs(l.root)
	if err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}
	full := filepath.Join(root, filepath.FromSlash(normalize(rel)))
	if full != root && !strings.HasPrefix(full, root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideLibrary, rel)
	}
	return full, nil
}

// normalize cleans a relative path; the root is "".
func normalize(rel string) string {
	rel = path.Clean("/" + filepath.ToSlash(rel))
	return strings.TrimPrefix(rel, "/")
}

// Albums returns every directory below the root that holds at least one
// image, sorted by path.
func (l *Library) Albums(ctx context.Context) ([]Album, error) {
	l.mu.RLock()
	if l.albums != nil {
		out := append([]Album(nil), l.albums...)
		l.mu.RUnlock()
		return out, nil
	}
	l.mu.RUnlock()

	var albums []Album
	err := filepath.WalkDir(l.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != l.root && hidden(d.Name()) {
			return filepath.SkipDir
		}
		rel, err := filepath.Rel(l.root, p)
		if err != nil {
			return err
		}
		listing, err := l.Listing(ctx, filepath.ToSlash(rel))
		if err != nil {
			logging.Warn("skipping album %s: %v", p, err)
			return nil
		}
		if listing.Album.Images > 0 {
			albums = append(albums, listing.Album)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", l.root, err)
	}
	if albums == nil {
		albums = []Album{}
	}

	l.mu.Lock()
	l.albums = albums
	l.mu.Unlock()
	return append([]Album(nil), albums...), nil
}

// Listing returns the images and sub-albums of the album at rel.
func (l *Library) Listing(ctx context.Context, rel string) (*Listing, error) {
	rel = normalize(rel)

	l.mu.RLock()
	cached, ok := l.listings[rel]
	l.mu.RUnlock()
	if ok {
		return cached, nil
	}

	dir, err := l.Resolve(rel)
	if err != nil {
		return nil, err
	}
	info, err := filesystem.StatWithRetry(ctx, dir, l.retry)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotAlbum, rel)
	}
	entries, err := filesystem.ReadDirWithRetry(ctx, dir, l.retry)
	if err != nil {
		return nil, err
	}

	name := path.Base(rel)
	if rel == "" {
		name = "Media"
	}
	listing := &Listing{
		Album:  Album{Name: name, Path: rel, ModTime: info.ModTime()},
		Images: []Image{},
	}
	for _, e := range entries {
		if hidden(e.Name()) {
			continue
		}
		p := path.Join(rel, e.Name())
		if e.IsDir() {
			listing.Albums = append(listing.Albums, Album{Name: e.Name(), Path: p, Images: countImages(filepath.Join(dir, e.Name()))})
			continue
		}
		if !IsImage(e.Name()) {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		listing.Images = append(listing.Images, Image{
			Name:     e.Name(),
			Path:     p,
			Size:     fi.Size(),
			ModTime:  fi.ModTime(),
			MimeType: MimeType(e.Name()),
		})
	}

	sort.Slice(listing.Images, func(i, j int) bool {
		return strings.ToLower(listing.Images[i].Name) < strings.ToLower(listing.Images[j].Name)
	})
	sort.Slice(listing.Albums, func(i, j int) bool {
		return strings.ToLower(listing.Albums[i].Name) < strings.ToLower(listing.Albums[j].Name)
	})
	listing.Album.Images = len(listing.Images)
	if len(listing.Images) > 0 {
		listing.Album.Cover = listing.Images[0].Path
	}

	l.mu.Lock()
	l.listings[rel] = listing
	l.mu.Unlock()
	return listing, nil
}

// Invalidate drops the cached listing of the album at rel and the album
// list.
func (l *Library) Invalidate(rel string) {
	rel = normalize(rel)
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.listings, rel)
	l.albums = nil
}

// Stats counts albums and images.
func (l *Library) Stats(ctx context.Context) (albums, images int, err error) {
	list, err := l.Albums(ctx)
	if err != nil {
		return 0, 0, err
	}
	for _, a := range list {
		images += a.Images
	}
	return len(list), images, nil
}

func countImages(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && !hidden(e.Name()) && IsImage(e.Name()) {
			n++
		}
	}
	return n
}
