package gallery

import (
	"time"

	"justified-gallery/internal/loop"
)

// Item describes one entry as enumerated by the host.
type Item struct {
	ID  string `json:"id"`
	Src string `json:"src,omitempty"`
	// NoImage marks entries without an image; they are laid out using
	// their declared size, or 1x1.
	NoImage bool `json:"noImage,omitempty"`
	// Width and Height are the declared size, zero when unknown.
	Width   float64  `json:"width,omitempty"`
	Height  float64  `json:"height,omitempty"`
	Alt     string   `json:"alt,omitempty"`
	Title   string   `json:"title,omitempty"`
	Caption string   `json:"caption,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

// HasTag reports whether the item carries tag.
func (it Item) HasTag(tag string) bool {
	for _, t := range it.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Placement is the computed geometry of an entry within its row.
type Placement struct {
	ID    string  `json:"id"`
	Index int     `json:"index"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	// Width and Height are the image size. RowHeight is the height of the
	// entry box, which a height cap can make smaller than Height.
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	RowHeight float64 `json:"rowHeight"`
	Row       int     `json:"row"`
}

// Surface is the host the gallery renders into. Calls happen on the
// gallery's scheduler, except SetSpinnerDot which runs on the spinner tick.
type Surface interface {
	// Items returns the entries in display order.
	Items() []Item
	// Width returns the current container width.
	Width() float64

	Place(id string, p Placement)
	Hide(id string)
	SetFiltered(id string, filtered bool)
	SetSource(id, src string)
	SetLink(id string, rel, target *string)
	SetCaption(id, text string)
	RemoveCaption(id string)
	SetHeight(height float64)
	// Reset restores the entry to its original, unmanaged appearance.
	Reset(id string)

	SetSpinnerDot(index int, opacity float64)
	ShowSpinner(show bool)
}

// SizeObserver reports container width changes.
type SizeObserver interface {
	Observe(sched loop.Scheduler, fn func(width float64)) (stop func())
}

// PollingObserver reads the container width on a fixed interval.
type PollingObserver struct {
	Interval time.Duration
	Width    func() float64
}

// Observe implements SizeObserver. Widths of zero or less (container not
// shown) are not reported.
func (p PollingObserver) Observe(sched loop.Scheduler, fn func(width float64)) func() {
	if p.Interval <= 0 || p.Width == nil {
		return func() {}
	}
	task := sched.Every(p.Interval, func() {
		if w := p.Width(); w > 0 {
			fn(w)
		}
	})
	return task.Cancel
}
