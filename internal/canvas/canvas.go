package canvas

import (
	"sync"

	"justified-gallery/internal/gallery"
)

type link struct {
	rel, target string
}

// Canvas is a gallery.Surface that keeps the rendered state in memory.
// It is safe for concurrent use.
type Canvas struct {
	mu       sync.Mutex
	width    float64
	items    []gallery.Item
	placed   map[string]gallery.Placement
	visible  map[string]bool
	filtered map[string]bool
	sources  map[string]string
	captions map[string]string
	links    map[string]link
	height   float64
	spinner  bool
	dots     map[int]float64
}

// New creates a canvas of the given width holding items in display order.
func New(width float64, items []gallery.Item) *Canvas {
	c := &Canvas{width: width}
	c.items = append(c.items, items...)
	c.clear()
	return c
}

func (c *Canvas) clear() {
	c.placed = make(map[string]gallery.Placement)
	c.visible = make(map[string]bool)
	c.filtered = make(map[string]bool)
	c.sources = make(map[string]string)
	c.captions = make(map[string]string)
	c.links = make(map[string]link)
	c.dots = make(map[int]float64)
}

// Add appends items after the existing ones.
func (c *Canvas) Add(items ...gallery.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, items...)
}

// SetWidth changes the container width.
func (c *Canvas) SetWidth(width float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.width = width
}

// Items implements gallery.Surface.
func (c *Canvas) Items() []gallery.Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]gallery.Item, len(c.items))
	copy(out, c.items)
	return out
}

// Width implements gallery.Surface.
func (c *Canvas) Width() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width
}

// Place implements gallery.Surface.
func (c *Canvas) Place(id string, p gallery.Placement) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.placed[id] = p
	c.visible[id] = true
}

// Hide implements gallery.Surface.
func (c *Canvas) Hide(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.visible[id] = false
}

// SetFiltered implements gallery.Surface.
func (c *Canvas) SetFiltered(id string, filtered bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if filtered {
		c.filtered[id] = true
	} else {
		delete(c.filtered, id)
	}
}

// SetSource implements gallery.Surface.
func (c *Canvas) SetSource(id, src string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources[id] = src
}

// SetLink implements gallery.Surface.
func (c *Canvas) SetLink(id string, rel, target *string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l := c.links[id]
	if rel != nil {
		l.rel = *rel
	}
	if target != nil {
		l.target = *target
	}
	c.links[id] = l
}

// SetCaption implements gallery.Surface.
func (c *Canvas) SetCaption(id, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.captions[id] = text
}

// RemoveCaption implements gallery.Surface.
func (c *Canvas) RemoveCaption(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.captions, id)
}

// SetHeight implements gallery.Surface.
func (c *Canvas) SetHeight(height float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.height = height
}

// Reset implements gallery.Surface.
func (c *Canvas) Reset(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.placed, id)
	delete(c.visible, id)
	delete(c.filtered, id)
	delete(c.sources, id)
	delete(c.links, id)
}

// SetSpinnerDot implements gallery.Surface.
func (c *Canvas) SetSpinnerDot(index int, opacity float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dots[index] = opacity
}

// ShowSpinner implements gallery.Surface.
func (c *Canvas) ShowSpinner(show bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.spinner = show
	if !show {
		c.dots = make(map[int]float64)
	}
}

// Spinner reports whether the loading indicator is shown.
func (c *Canvas) Spinner() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.spinner
}

// Height returns the container height last set by the gallery.
func (c *Canvas) Height() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.height
}
