package canvas

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"justified-gallery/internal/gallery"
	"justified-gallery/internal/probe"
)

func testSettings() gallery.Settings {
	s := gallery.DefaultSettings()
	s.RowHeight = 200
	s.Margins = 10
	s.Border = 0
	s.Captions = false
	return s
}

// sizeProber answers from a table; anything else is not found.
func sizeProber(sizes map[string]probe.Size) probe.Prober {
	return probe.ProberFunc(func(ctx context.Context, src string) (probe.Size, error) {
		if s, ok := sizes[src]; ok {
			return s, nil
		}
		return probe.Size{}, fmt.Errorf("%s: not found", src)
	})
}

func squares(n int) ([]gallery.Item, map[string]probe.Size) {
	items := make([]gallery.Item, n)
	sizes := make(map[string]probe.Size, n)
	for i := range items {
		src := fmt.Sprintf("/media/p%02d.jpg", i)
		items[i] = gallery.Item{ID: fmt.Sprintf("p%02d", i), Src: src}
		sizes[src] = probe.Size{Width: 640, Height: 640}
	}
	return items, sizes
}

func TestCanvasLayoutGroupsRows(t *testing.T) {
	c := New(1000, []gallery.Item{
		{ID: "a", Src: "a.jpg", Caption: "own"},
		{ID: "b", Src: "b.jpg"},
		{ID: "c", Src: "c.jpg"},
		{ID: "d", Src: "d.jpg"},
		{ID: "e", Src: "e.jpg"},
	})
	c.Place("b", gallery.Placement{ID: "b", X: 300, Y: 0, Width: 290, Height: 200, RowHeight: 200, Row: 0})
	c.Place("a", gallery.Placement{ID: "a", X: 0, Y: 0, Width: 290, Height: 200, RowHeight: 200, Row: 0})
	c.Place("c", gallery.Placement{ID: "c", X: 0, Y: 210, Width: 100, Height: 100, RowHeight: 100, Row: 1})
	c.SetSource("b", "b_m.jpg")
	c.SetCaption("c", "generated")
	rel := "group"
	c.SetLink("a", &rel, nil)
	c.SetFiltered("d", true)
	c.SetHeight(310)

	l := c.Layout()
	if l.Width != 1000 || l.Height != 310 {
		t.Errorf("size = %vx%v, want 1000x310", l.Width, l.Height)
	}
	if len(l.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2", len(l.Rows))
	}
	first := l.Rows[0]
	if first.Index != 0 || len(first.Tiles) != 2 || first.Tiles[0].ID != "a" || first.Tiles[1].ID != "b" {
		t.Errorf("first row = %+v", first)
	}
	if got := first.Tiles[1].Src; got != "b_m.jpg" {
		t.Errorf("b src = %q, want b_m.jpg", got)
	}
	if got := first.Tiles[0].Src; got != "a.jpg" {
		t.Errorf("a src = %q, want a.jpg", got)
	}
	if first.Tiles[0].Caption != "own" || first.Tiles[0].Rel != "group" {
		t.Errorf("a tile = %+v", first.Tiles[0])
	}
	if second := l.Rows[1]; second.Y != 210 || second.Height != 100 || second.Tiles[0].Caption != "generated" {
		t.Errorf("second row = %+v", second)
	}
	if strings.Join(l.Filtered, ",") != "d" || strings.Join(l.Hidden, ",") != "e" {
		t.Errorf("filtered %v, hidden %v", l.Filtered, l.Hidden)
	}
	if l.Tiles() != 3 {
		t.Errorf("Tiles() = %d, want 3", l.Tiles())
	}

	c.Hide("c")
	c.Reset("b")
	l = c.Layout()
	if l.Tiles() != 1 || strings.Join(l.Hidden, ",") != "b,c,e" {
		t.Errorf("after hide and reset: %d tiles, hidden %v", l.Tiles(), l.Hidden)
	}
}

func TestCanvasSpinner(t *testing.T) {
	c := New(100, nil)
	c.ShowSpinner(true)
	c.SetSpinnerDot(0, 1)
	if !c.Spinner() {
		t.Error("Spinner() = false after ShowSpinner(true)")
	}
	c.ShowSpinner(false)
	if c.Spinner() || len(c.dots) != 0 {
		t.Error("spinner state kept after ShowSpinner(false)")
	}
}

func TestRender(t *testing.T) {
	items, sizes := squares(7)
	d := probe.NewDispatcher(sizeProber(sizes), probe.DispatcherConfig{Workers: 4})
	defer d.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := New(1000, items)
	res, err := Render(ctx, c, d, testSettings())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	l := res.Layout
	if l.Height != 394 {
		t.Errorf("Height = %v, want 394", l.Height)
	}
	if len(l.Rows) != 2 || len(l.Rows[0].Tiles) != 5 || len(l.Rows[1].Tiles) != 2 {
		t.Fatalf("rows = %+v", l.Rows)
	}
	for i, tile := range l.Rows[0].Tiles {
		if tile.Width != 192 || tile.X != float64(i*202) {
			t.Errorf("tile %d = %+v, want 192 wide at x=%d", i, tile, i*202)
		}
		if tile.ID != items[i].ID {
			t.Errorf("tile %d is %s, want %s", i, tile.ID, items[i].ID)
		}
	}
	if len(res.Entries) != 7 || res.Entries[0].Status != "loaded" {
		t.Errorf("entries = %+v", res.Entries)
	}
	if res.Gallery == "" {
		t.Error("result carries no gallery id")
	}

	// Destroying the gallery restored the canvas.
	if c.Height() != 0 || c.Layout().Tiles() != 0 {
		t.Errorf("canvas not reset after Render: height %v, %d tiles", c.Height(), c.Layout().Tiles())
	}
}

func TestRenderThumbnails(t *testing.T) {
	items, sizes := squares(3)
	for _, it := range items {
		sizes[strings.TrimSuffix(it.Src, ".jpg")+"_m.jpg"] = probe.Size{Width: 240, Height: 240}
	}
	d := probe.NewDispatcher(sizeProber(sizes), probe.DispatcherConfig{Workers: 2})
	defer d.Close()

	res, err := Render(context.Background(), New(1000, items), d, testSettings())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	for _, tile := range res.Layout.Rows[0].Tiles {
		if !strings.HasSuffix(tile.Src, "_m.jpg") {
			t.Errorf("tile %s src = %q, want the _m thumbnail", tile.ID, tile.Src)
		}
	}
}

func TestRenderDeclaredSizes(t *testing.T) {
	items, _ := squares(5)
	for i := range items {
		items[i].Width, items[i].Height = 640, 640
	}
	slow := probe.ProberFunc(func(ctx context.Context, src string) (probe.Size, error) {
		select {
		case <-time.After(20 * time.Millisecond):
			return probe.Size{Width: 240, Height: 240}, nil
		case <-ctx.Done():
			return probe.Size{}, ctx.Err()
		}
	})
	d := probe.NewDispatcher(slow, probe.DispatcherConfig{Workers: 2})
	defer d.Close()

	s := testSettings()
	s.WaitThumbnailsLoad = false
	res, err := Render(context.Background(), New(1000, items), d, s)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got := res.Layout.Tiles(); got != len(items) {
		t.Errorf("Tiles() = %d, want %d (hidden %v)", got, len(items), res.Layout.Hidden)
	}
	if len(res.Layout.Hidden) != 0 {
		t.Errorf("Hidden = %v, want none", res.Layout.Hidden)
	}
}

func TestRenderEmpty(t *testing.T) {
	d := probe.NewDispatcher(sizeProber(nil), probe.DispatcherConfig{Workers: 1})
	defer d.Close()

	res, err := Render(context.Background(), New(800, nil), d, testSettings())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if len(res.Layout.Rows) != 0 || res.Layout.Height != 0 {
		t.Errorf("layout = %+v, want empty", res.Layout)
	}
}

func TestRenderInvalidSettings(t *testing.T) {
	d := probe.NewDispatcher(sizeProber(nil), probe.DispatcherConfig{Workers: 1})
	defer d.Close()

	s := testSettings()
	s.JustifyThreshold = 3
	_, err := Render(context.Background(), New(800, nil), d, s)
	if !errors.Is(err, gallery.ErrInvalidSettings) {
		t.Errorf("Render() error = %v, want ErrInvalidSettings", err)
	}
}

func TestRenderTimeout(t *testing.T) {
	items, _ := squares(2)
	blocking := probe.ProberFunc(func(ctx context.Context, src string) (probe.Size, error) {
		<-ctx.Done()
		return probe.Size{}, ctx.Err()
	})
	d := probe.NewDispatcher(blocking, probe.DispatcherConfig{Workers: 2})
	defer d.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := Render(ctx, New(1000, items), d, testSettings())
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Render() error = %v, want ErrTimeout", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Render() error = %v, want it to wrap the deadline", err)
	}
}
