package gallery

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"

	"justified-gallery/internal/suffix"
)

// ErrInvalidSettings is wrapped by every settings validation error.
var ErrInvalidSettings = errors.New("invalid gallery settings")

// SettingsError describes one rejected option.
type SettingsError struct {
	Option string
	Reason string
}

func (e *SettingsError) Error() string {
	return fmt.Sprintf("%s: %s", e.Option, e.Reason)
}

// Unwrap lets callers match ErrInvalidSettings with errors.Is.
func (e *SettingsError) Unwrap() error {
	return ErrInvalidSettings
}

func settingsErrorf(option, format string, args ...any) error {
	return &SettingsError{Option: option, Reason: fmt.Sprintf(format, args...)}
}

// LastRowMode selects how the final, possibly incomplete, row is laid out.
type LastRowMode string

const (
	LastRowJustify   LastRowMode = "justify"
	LastRowNoJustify LastRowMode = "nojustify"
	LastRowLeft      LastRowMode = "left"
	LastRowCenter    LastRowMode = "center"
	LastRowRight     LastRowMode = "right"
	LastRowHide      LastRowMode = "hide"
)

// LastRowModes lists every accepted mode.
var LastRowModes = []LastRowMode{
	LastRowJustify, LastRowNoJustify, LastRowLeft, LastRowCenter, LastRowRight, LastRowHide,
}

// Valid reports whether m is a known mode.
func (m LastRowMode) Valid() bool {
	for _, known := range LastRowModes {
		if m == known {
			return true
		}
	}
	return false
}

// MaxRowHeight caps the height of a row. The zero value disables the cap.
type MaxRowHeight struct {
	value   float64
	percent bool
	set     bool
}

// MaxRowHeightPixels caps rows at px pixels.
func MaxRowHeightPixels(px float64) MaxRowHeight {
	return MaxRowHeight{value: px, set: true}
}

// MaxRowHeightPercent caps rows at pct percent of the nominal row height.
func MaxRowHeightPercent(pct float64) MaxRowHeight {
	return MaxRowHeight{value: pct, percent: true, set: true}
}

var percentPattern = regexp.MustCompile(`^([0-9]+)%$`)

// ParseMaxRowHeight accepts a number, a "NNN%" string, any other string
// starting with a number, or false/nil to disable the cap.
func ParseMaxRowHeight(v any) (MaxRowHeight, error) {
	switch val := v.(type) {
	case nil:
		return MaxRowHeight{}, nil
	case bool:
		if !val {
			return MaxRowHeight{}, nil
		}
		return MaxRowHeight{}, settingsErrorf("maxRowHeight", "must be a number or a percentage")
	case string:
		if m := percentPattern.FindStringSubmatch(val); m != nil {
			pct, _ := strconv.ParseFloat(m[1], 64)
			return MaxRowHeightPercent(pct), nil
		}
		px, ok := parseLeadingFloat(val)
		if !ok {
			return MaxRowHeight{}, settingsErrorf("maxRowHeight", "invalid number %q", val)
		}
		return MaxRowHeightPixels(px), nil
	default:
		px, ok := toFloat(v)
		if !ok {
			return MaxRowHeight{}, settingsErrorf("maxRowHeight", "must be a number or a percentage")
		}
		if math.IsNaN(px) {
			return MaxRowHeight{}, settingsErrorf("maxRowHeight", "invalid number")
		}
		return MaxRowHeightPixels(px), nil
	}
}

// Enabled reports whether a cap is configured.
func (m MaxRowHeight) Enabled() bool {
	return m.set
}

// Resolve returns the cap in pixels for the given nominal row height. The
// cap is never lower than the row height itself.
func (m MaxRowHeight) Resolve(rowHeight float64) (float64, bool) {
	if !m.set {
		return 0, false
	}
	limit := m.value
	if m.percent {
		limit = rowHeight * m.value / 100
	}
	if limit < rowHeight {
		limit = rowHeight
	}
	return limit, true
}

func (m MaxRowHeight) String() string {
	switch {
	case !m.set:
		return "false"
	case m.percent:
		return strconv.FormatFloat(m.value, 'f', -1, 64) + "%"
	default:
		return strconv.FormatFloat(m.value, 'f', -1, 64)
	}
}

// Settings configures one gallery run. Start from DefaultSettings.
type Settings struct {
	// SizeRangeSuffixes maps the longest side bound to a thumbnail suffix.
	SizeRangeSuffixes map[string]string
	// ThumbnailPath, when set, replaces suffix based source upgrades.
	ThumbnailPath func(src string, width, height int) string

	RowHeight    float64
	MaxRowHeight MaxRowHeight
	// MaxRowsCount hides every row past this count. Zero disables the limit.
	MaxRowsCount int
	Margins      float64
	// Border around the gallery. Negative means "same as Margins".
	Border           float64
	LastRow          LastRowMode
	JustifyThreshold float64

	// WaitThumbnailsLoad probes every image even when the item declares
	// its size.
	WaitThumbnailsLoad bool
	Captions           bool

	// Rel and Target, when non-nil, overwrite the link attributes of
	// every entry.
	Rel    *string
	Target *string

	Extension *regexp.Regexp

	// RefreshTime is the width polling interval. Zero disables polling.
	RefreshTime        time.Duration
	RefreshSensitivity float64

	Randomize bool
	RTL       bool
	Sort      func(a, b Item) int
	Filter    func(item Item, index int) bool
	// FilterTag keeps only items carrying this tag. Ignored when Filter is set.
	FilterTag string

	// Selector and ImgSelector are handed to hosts that enumerate markup.
	Selector    string
	ImgSelector string

	// YieldEvery is the number of rows flushed before the scan defers
	// the rest of its work.
	YieldEvery int
	YieldDelay time.Duration

	// SkipErrors lets the scan pass entries whose image failed to load.
	SkipErrors bool
}

// DefaultSettings returns the stock configuration.
func DefaultSettings() Settings {
	return Settings{
		SizeRangeSuffixes:  suffix.DefaultTable(),
		RowHeight:          120,
		Margins:            1,
		Border:             -1,
		LastRow:            LastRowNoJustify,
		JustifyThreshold:   0.9,
		WaitThumbnailsLoad: true,
		Captions:           true,
		Extension:          suffix.DefaultExtension,
		RefreshTime:        200 * time.Millisecond,
		Selector:           "a",
		ImgSelector:        "img, a > img, svg, a > svg",
		YieldEvery:         2,
		YieldDelay:         time.Millisecond,
	}
}

// Validate checks every option and returns the first problem found.
func (s *Settings) Validate() error {
	if _, err := suffix.New(s.SizeRangeSuffixes); err != nil {
		return settingsErrorf("sizeRangeSuffixes", "%v", err)
	}
	if !finite(s.RowHeight) || s.RowHeight <= 0 {
		return settingsErrorf("rowHeight", "must be a positive number, got %v", s.RowHeight)
	}
	if s.MaxRowHeight.set && !finite(s.MaxRowHeight.value) {
		return settingsErrorf("maxRowHeight", "invalid number")
	}
	if s.MaxRowsCount < 0 {
		return settingsErrorf("maxRowsCount", "must not be negative")
	}
	if !finite(s.Margins) || s.Margins < 0 {
		return settingsErrorf("margins", "must be a non-negative number, got %v", s.Margins)
	}
	if !finite(s.Border) {
		return settingsErrorf("border", "invalid number")
	}
	if !s.LastRow.Valid() {
		return settingsErrorf("lastRow", "must be one of: %s", joinModes())
	}
	if !finite(s.JustifyThreshold) || s.JustifyThreshold < 0 || s.JustifyThreshold > 1 {
		return settingsErrorf("justifyThreshold", "must be in the interval [0, 1]")
	}
	if s.RefreshTime < 0 {
		return settingsErrorf("refreshTime", "must not be negative")
	}
	if !finite(s.RefreshSensitivity) || s.RefreshSensitivity < 0 {
		return settingsErrorf("refreshSensitivity", "must be a non-negative number")
	}
	if s.YieldEvery < 2 {
		return settingsErrorf("yieldEvery", "must be at least 2")
	}
	if s.YieldDelay < 0 {
		return settingsErrorf("yieldDelay", "must not be negative")
	}
	return nil
}

// border returns the effective border width.
func (s *Settings) border() float64 {
	if s.Border >= 0 {
		return s.Border
	}
	return s.Margins
}

func (s *Settings) extension() *regexp.Regexp {
	if s.Extension == nil {
		return suffix.DefaultExtension
	}
	return s.Extension
}

func joinModes() string {
	out := ""
	for i, m := range LastRowModes {
		if i > 0 {
			out += ", "
		}
		out += string(m)
	}
	return out
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
