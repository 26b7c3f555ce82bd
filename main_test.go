package main

import (
	"context"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"

	"justified-gallery/internal/database"
	"justified-gallery/internal/media"
	"justified-gallery/internal/probe"
	"justified-gallery/internal/suffix"
)

func writeJPEG(t *testing.T, path string, w, h int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h)), nil); err != nil {
		t.Fatal(err)
	}
}

func openDatabase(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "gallery.db"))
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCollectStats(t *testing.T) {
	root := t.TempDir()
	writeJPEG(t, filepath.Join(root, "a", "one.jpg"), 40, 30)
	writeJPEG(t, filepath.Join(root, "b", "two.jpg"), 40, 30)
	writeJPEG(t, filepath.Join(root, "b", "three.jpg"), 30, 40)

	ctx := context.Background()
	db := openDatabase(t)
	if err := db.SaveDimensions(ctx, probe.Key{Path: "/x.jpg", ModTime: 1, Bytes: 2}, probe.Size{Width: 4, Height: 3}); err != nil {
		t.Fatal(err)
	}
	lib := media.NewLibrary(root)

	stats := collectStats(ctx, lib, db, nil)
	if stats.Albums != 2 || stats.Images != 3 {
		t.Errorf("albums/images = %d/%d, want 2/3", stats.Albums, stats.Images)
	}
	if stats.DimensionCacheRows != 1 {
		t.Errorf("DimensionCacheRows = %d, want 1", stats.DimensionCacheRows)
	}
	if stats.ThumbnailCacheBytes != 0 {
		t.Errorf("ThumbnailCacheBytes = %d without a thumbnailer", stats.ThumbnailCacheBytes)
	}

	resolver, err := suffix.New(suffix.DefaultTable())
	if err != nil {
		t.Fatal(err)
	}
	thumbs := media.NewThumbnailer(lib, resolver, filepath.Join(t.TempDir(), "thumbs"), probe.NewFileProber(root, ""))
	if _, err := thumbs.Thumbnail(ctx, "a/one_t.jpg"); err != nil {
		t.Fatalf("Thumbnail() error = %v", err)
	}
	if stats := collectStats(ctx, lib, db, thumbs); stats.ThumbnailCacheBytes <= 0 {
		t.Errorf("ThumbnailCacheBytes = %d after generating a thumbnail", stats.ThumbnailCacheBytes)
	}
}

func TestPruneLoopStopsWithContext(t *testing.T) {
	db := openDatabase(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		pruneLoop(ctx, db, time.Hour)
		close(done)
	}()

	// The first pass records the prune time.
	deadline := time.Now().Add(5 * time.Second)
	for {
		if last, err := db.GetLastPrune(context.Background()); err == nil && !last.IsZero() {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("pruneLoop did not run its first pass")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("pruneLoop did not return after cancel")
	}
}
