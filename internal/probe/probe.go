package probe

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"

	// Decoders registered for image.DecodeConfig
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	// ErrEmptySource is returned for an empty src.
	ErrEmptySource = errors.New("probe: empty source")
	// ErrInvalidSize is returned when an image reports a zero or negative dimension.
	ErrInvalidSize = errors.New("probe: invalid image size")
	// ErrClosed is reported to callbacks of requests made after Close.
	ErrClosed = errors.New("probe: dispatcher closed")
)

// Size is the natural size of an image in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Valid reports whether both dimensions are positive.
func (s Size) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

// AspectRatio returns width divided by height, or 0 for an invalid size.
func (s Size) AspectRatio() float64 {
	if !s.Valid() {
		return 0
	}
	return float64(s.Width) / float64(s.Height)
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Result is delivered to a Request callback.
type Result struct {
	Src  string
	Size Size
	Err  error
}

// OK reports whether the probe succeeded.
func (r Result) OK() bool {
	return r.Err == nil && r.Size.Valid()
}

// Prober reports the natural size of the image at src.
type Prober interface {
	Probe(ctx context.Context, src string) (Size, error)
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(ctx context.Context, src string) (Size, error)

// Probe implements Prober.
func (f ProberFunc) Probe(ctx context.Context, src string) (Size, error) {
	return f(ctx, src)
}

// Requester starts asynchronous probes. The callback runs exactly once
// unless the requester is closed first.
type Requester interface {
	Request(ctx context.Context, src string, done func(Result))
}

// decodeSize reads only the image header from r.
func decodeSize(r io.Reader) (Size, string, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return Size{}, "", err
	}
	size := Size{Width: cfg.Width, Height: cfg.Height}
	if !size.Valid() {
		return Size{}, format, ErrInvalidSize
	}
	return size, format, nil
}
