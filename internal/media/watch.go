package media

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"justified-gallery/internal/logging"
)

// Watch invalidates cached listings as files change below the root. It
// blocks until ctx is done. ready, if not nil, is closed once every
// directory is being watched.
func (l *Library) Watch(ctx context.Context, ready chan<- struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			logging.Error("failed to close file watcher: %v", err)
		}
	}()

	count := l.addDirectories(watcher, l.root)
	logging.Debug("Library watcher started, watching %d directories", count)
	if ready != nil {
		close(ready)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			l.handleEvent(watcher, event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Error("Watcher error: %v", err)
		}
	}
}

func (l *Library) addDirectories(watcher *fsnotify.Watcher, root string) int {
	count := 0
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && hidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := watcher.Add(p); err != nil {
			logging.Warn("failed to add path to watcher %s: %v", p, err)
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		logging.Error("failed to walk %s for watcher: %v", root, err)
	}
	return count
}

func (l *Library) handleEvent(watcher *fsnotify.Watcher, event fsnotify.Event) {
	if strings.Contains(filepath.ToSlash(event.Name), "/.") {
		return
	}
	rel, err := filepath.Rel(l.root, filepath.Dir(event.Name))
	if err != nil || strings.HasPrefix(rel, "..") {
		return
	}
	logging.Debug("Library change: %s %s", event.Op, event.Name)
	l.Invalidate(filepath.ToSlash(rel))
	// The parent lists image counts of its sub-albums.
	l.Invalidate(path.Dir(filepath.ToSlash(rel)))

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			l.addDirectories(watcher, event.Name)
		}
	}
	if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		// A removed directory takes its cached listing with it.
		if self, err := filepath.Rel(l.root, event.Name); err == nil {
			l.Invalidate(filepath.ToSlash(self))
		}
	}
}
