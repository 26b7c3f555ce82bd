package gallery

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when an entry is asked to move to a load
// status it cannot reach from its current one.
var ErrInvalidTransition = errors.New("invalid entry status transition")

// Status is the load state of an entry.
type Status int

const (
	StatusUnloaded Status = iota
	StatusLoading
	StatusLoaded
	StatusSkipped
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusUnloaded:
		return "unloaded"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusSkipped:
		return "skipped"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Ready reports whether an entry with this status can be laid out.
func (s Status) Ready() bool {
	return s == StatusLoaded || s == StatusSkipped
}

// Resolved reports whether the entry's load has finished one way or another.
func (s Status) Resolved() bool {
	return s.Ready() || s == StatusError
}

// Entry is one gallery item as tracked by the controller.
type Entry struct {
	Item  Item
	Index int

	Status        Status
	NaturalWidth  float64
	NaturalHeight float64

	// Set when the entry's row is flushed.
	JustifiedWidth  int
	JustifiedHeight int
	X, Y            float64
	RowHeight       float64
	Row             int
	Placed          bool

	Visible  bool
	Filtered bool

	OriginalSrc    string
	CurrentSrc     string
	CreatedCaption bool
}

func newEntry(item Item, index int) *Entry {
	return &Entry{Item: item, Index: index, OriginalSrc: item.Src, CurrentSrc: item.Src}
}

// AspectRatio returns the natural width divided by the natural height.
func (e *Entry) AspectRatio() float64 {
	if e.NaturalHeight <= 0 {
		return 0
	}
	return e.NaturalWidth / e.NaturalHeight
}

func (e *Entry) transition(to Status, allowed ...Status) error {
	for _, from := range allowed {
		if e.Status == from {
			e.Status = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s (entry %q)", ErrInvalidTransition, e.Status, to, e.Item.ID)
}

// BeginLoad moves an unloaded entry to loading.
func (e *Entry) BeginLoad() error {
	return e.transition(StatusLoading, StatusUnloaded)
}

// FinishLoad records the natural size of a loading entry.
func (e *Entry) FinishLoad(width, height float64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: entry %q loaded with size %vx%v", ErrInvalidTransition, e.Item.ID, width, height)
	}
	if err := e.transition(StatusLoaded, StatusLoading); err != nil {
		return err
	}
	e.NaturalWidth, e.NaturalHeight = width, height
	return nil
}

// Fail marks a loading entry as failed.
func (e *Entry) Fail() error {
	return e.transition(StatusError, StatusLoading)
}

// Skip uses a declared size instead of probing.
func (e *Entry) Skip(width, height float64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: entry %q skipped with size %vx%v", ErrInvalidTransition, e.Item.ID, width, height)
	}
	if err := e.transition(StatusSkipped, StatusUnloaded); err != nil {
		return err
	}
	e.NaturalWidth, e.NaturalHeight = width, height
	return nil
}

// Promote marks a skipped entry as loaded once one of its sources has
// actually been fetched.
func (e *Entry) Promote() error {
	return e.transition(StatusLoaded, StatusSkipped)
}

// Reset returns the entry to its unmanaged state.
func (e *Entry) Reset() {
	*e = Entry{Item: e.Item, Index: e.Index, OriginalSrc: e.Item.Src, CurrentSrc: e.Item.Src}
}

func (e *Entry) clearPlacement() {
	e.JustifiedWidth, e.JustifiedHeight = 0, 0
	e.X, e.Y, e.RowHeight = 0, 0, 0
	e.Row = 0
	e.Placed = false
}

// Snapshot is a copy of an entry's public state.
type Snapshot struct {
	ID              string  `json:"id"`
	Index           int     `json:"index"`
	Status          string  `json:"status"`
	NaturalWidth    float64 `json:"naturalWidth"`
	NaturalHeight   float64 `json:"naturalHeight"`
	JustifiedWidth  int     `json:"width"`
	JustifiedHeight int     `json:"height"`
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
	RowHeight       float64 `json:"rowHeight"`
	Row             int     `json:"row"`
	Visible         bool    `json:"visible"`
	Filtered        bool    `json:"filtered"`
	Src             string  `json:"src"`
}

func (e *Entry) snapshot() Snapshot {
	return Snapshot{
		ID:              e.Item.ID,
		Index:           e.Index,
		Status:          e.Status.String(),
		NaturalWidth:    e.NaturalWidth,
		NaturalHeight:   e.NaturalHeight,
		JustifiedWidth:  e.JustifiedWidth,
		JustifiedHeight: e.JustifiedHeight,
		X:               e.X,
		Y:               e.Y,
		RowHeight:       e.RowHeight,
		Row:             e.Row,
		Visible:         e.Visible,
		Filtered:        e.Filtered,
		Src:             e.CurrentSrc,
	}
}
