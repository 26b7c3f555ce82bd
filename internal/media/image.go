package media

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"justified-gallery/internal/logging"
	"justified-gallery/internal/probe"
)

const (
	// MaxImageDimension is the largest side decoded at full size. Larger
	// images are downscaled right after decoding.
	MaxImageDimension = 4096

	// MaxImagePixels caps the pixel count kept in memory (~80MB as RGBA).
	MaxImagePixels = 20_000_000
)

// FitSize returns the size of an image of size s fitted into a
// bound x bound box, the way imaging.Fit computes it. Images already inside
// the box, and a zero bound, keep their size.
func FitSize(s probe.Size, bound int) probe.Size {
	if bound <= 0 || !s.Valid() || (s.Width <= bound && s.Height <= bound) {
		return s
	}
	ratio := float64(s.Width) / float64(s.Height)
	if ratio > 1 {
		return probe.Size{Width: bound, Height: max(1, int(float64(bound)/ratio))}
	}
	return probe.Size{Width: max(1, int(float64(bound)*ratio)), Height: bound}
}

// constrainedSize shrinks s so it fits both limits.
func constrainedSize(s probe.Size, maxDimension, maxPixels int) (probe.Size, bool) {
	if s.Width <= maxDimension && s.Height <= maxDimension && s.Width*s.Height <= maxPixels {
		return s, false
	}
	out := FitSize(s, maxDimension)
	if pixels := out.Width * out.Height; pixels > maxPixels {
		scale := float64(maxPixels) / float64(pixels)
		out.Width = max(1, int(float64(out.Width)*scale))
		out.Height = max(1, int(float64(out.Height)*scale))
	}
	return out, true
}

// loadConstrained decodes the image at path, downscaling it when it
// exceeds the size limits.
func loadConstrained(path string, size probe.Size) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	if !size.Valid() {
		b := img.Bounds()
		size = probe.Size{Width: b.Dx(), Height: b.Dy()}
	}
	target, constrain := constrainedSize(size, MaxImageDimension, MaxImagePixels)
	if !constrain {
		return img, nil
	}
	logging.Info("Constraining large image %s from %s to %s", path, size, target)
	return imaging.Resize(img, target.Width, target.Height, imaging.Lanczos), nil
}
