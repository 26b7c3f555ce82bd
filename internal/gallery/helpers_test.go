package gallery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"justified-gallery/internal/loop"
	"justified-gallery/internal/probe"
)

// fakeSurface records everything the gallery does to its host.
type fakeSurface struct {
	mu       sync.Mutex
	items    []Item
	width    float64
	placed   map[string]Placement
	visible  map[string]bool
	filtered map[string]bool
	sources  map[string]string
	captions map[string]string
	links    map[string]string
	resets   []string
	height   float64
	spinner  bool
	dots     int
}

func newFakeSurface(width float64, items []Item) *fakeSurface {
	return &fakeSurface{
		items:    items,
		width:    width,
		placed:   map[string]Placement{},
		visible:  map[string]bool{},
		filtered: map[string]bool{},
		sources:  map[string]string{},
		captions: map[string]string{},
		links:    map[string]string{},
	}
}

func (f *fakeSurface) Items() []Item {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Item, len(f.items))
	copy(out, f.items)
	return out
}

func (f *fakeSurface) Width() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.width
}

func (f *fakeSurface) setWidth(w float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.width = w
}

func (f *fakeSurface) addItems(items ...Item) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, items...)
}

func (f *fakeSurface) Place(id string, p Placement) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.placed[id] = p
	f.visible[id] = true
}

func (f *fakeSurface) Hide(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visible[id] = false
}

func (f *fakeSurface) SetFiltered(id string, filtered bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filtered[id] = filtered
}

func (f *fakeSurface) SetSource(id, src string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sources[id] = src
}

func (f *fakeSurface) SetLink(id string, rel, target *string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rel != nil {
		f.links[id] = *rel
	}
}

func (f *fakeSurface) SetCaption(id, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.captions[id] = text
}

func (f *fakeSurface) RemoveCaption(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.captions, id)
}

func (f *fakeSurface) SetHeight(h float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.height = h
}

func (f *fakeSurface) Reset(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, id)
	delete(f.placed, id)
	delete(f.visible, id)
	delete(f.sources, id)
}

func (f *fakeSurface) SetSpinnerDot(int, float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dots++
}

func (f *fakeSurface) ShowSpinner(show bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spinner = show
}

func (f *fakeSurface) isVisible(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visible[id]
}

func (f *fakeSurface) placement(id string) (Placement, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.placed[id]
	return p, ok
}

func (f *fakeSurface) source(id string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sources[id]
}

// fakeProbes answers probe requests from a table. In manual mode requests
// are held until complete is called.
type fakeProbes struct {
	mu       sync.Mutex
	sizes    map[string]probe.Size
	fail     map[string]bool
	fallback probe.Size
	manual   bool
	pending  map[string][]func(probe.Result)
	requests []string
}

func newFakeProbes(manual bool) *fakeProbes {
	return &fakeProbes{
		sizes:   map[string]probe.Size{},
		fail:    map[string]bool{},
		manual:  manual,
		pending: map[string][]func(probe.Result){},
	}
}

func (f *fakeProbes) Request(_ context.Context, src string, done func(probe.Result)) {
	f.mu.Lock()
	f.requests = append(f.requests, src)
	if f.manual {
		f.pending[src] = append(f.pending[src], done)
		f.mu.Unlock()
		return
	}
	r := f.result(src)
	f.mu.Unlock()
	done(r)
}

func (f *fakeProbes) result(src string) probe.Result {
	if f.fail[src] {
		return probe.Result{Src: src, Err: errors.New("404 not found")}
	}
	if s, ok := f.sizes[src]; ok {
		return probe.Result{Src: src, Size: s}
	}
	if f.fallback.Valid() {
		return probe.Result{Src: src, Size: f.fallback}
	}
	return probe.Result{Src: src, Err: fmt.Errorf("no image at %s", src)}
}

// complete resolves every pending request for src.
func (f *fakeProbes) complete(src string) {
	f.mu.Lock()
	callbacks := f.pending[src]
	delete(f.pending, src)
	r := f.result(src)
	f.mu.Unlock()
	for _, done := range callbacks {
		done(r)
	}
}

func (f *fakeProbes) requested(src string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if r == src {
			n++
		}
	}
	return n
}

func squareItems(n int, probes *fakeProbes) []Item {
	items := make([]Item, n)
	for i := range items {
		src := fmt.Sprintf("img%02d.jpg", i)
		items[i] = Item{ID: fmt.Sprintf("e%02d", i), Src: src}
		if probes != nil {
			probes.sizes[src] = probe.Size{Width: 100, Height: 100}
		}
	}
	return items
}

// testSettings lays out 5 squares per 1000px row, 192px high.
func testSettings() Settings {
	s := DefaultSettings()
	s.RowHeight = 200
	s.Margins = 10
	s.Border = 0
	s.RefreshTime = 0
	s.Captions = false
	return s
}

type eventLog struct {
	mu     sync.Mutex
	events []EventType
}

func (l *eventLog) record(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev.Type)
}

func (l *eventLog) count(t EventType) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.events {
		if e == t {
			n++
		}
	}
	return n
}

func newTestGallery(t *testing.T, surface *fakeSurface, probes *fakeProbes, s Settings, opts ...Option) (*Gallery, *loop.Manual, *eventLog) {
	t.Helper()
	sched := loop.NewManual()
	g, err := New(surface, probes, sched, s, opts...)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	log := &eventLog{}
	g.Subscribe(log.record)
	return g, sched, log
}

func settle(sched *loop.Manual) {
	sched.RunUntilIdle(10000)
}

func newManualScheduler() *loop.Manual {
	return loop.NewManual()
}
