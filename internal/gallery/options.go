package gallery

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"justified-gallery/internal/logging"
)

var leadingFloat = regexp.MustCompile(`^\s*[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?`)

// parseLeadingFloat reads the number a string starts with, ignoring any
// trailing text ("300px" is 300).
func parseLeadingFloat(s string) (float64, bool) {
	m := leadingFloat.FindString(s)
	if m == "" {
		return math.NaN(), false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(m), 64)
	if err != nil {
		return math.NaN(), false
	}
	return f, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// optionNumber accepts numbers and numeric strings.
func optionNumber(name string, v any) (float64, error) {
	if s, ok := v.(string); ok {
		f, ok := parseLeadingFloat(s)
		if !ok {
			return 0, settingsErrorf(name, "invalid number %q", s)
		}
		return f, nil
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, settingsErrorf(name, "must be a number")
	}
	if math.IsNaN(f) {
		return 0, settingsErrorf(name, "invalid number")
	}
	return f, nil
}

func optionBool(name string, v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, settingsErrorf(name, "must be a boolean")
	}
	return b, nil
}

func optionString(name string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", settingsErrorf(name, "must be a string")
	}
	return s, nil
}

// optionNullableString accepts a string, or nil to keep the attribute as is.
func optionNullableString(name string, v any) (*string, error) {
	if v == nil {
		return nil, nil
	}
	s, err := optionString(name, v)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func optionMilliseconds(name string, v any) (time.Duration, error) {
	ms, err := optionNumber(name, v)
	if err != nil {
		return 0, err
	}
	return time.Duration(ms * float64(time.Millisecond)), nil
}

// ParseOptions builds Settings from an untyped option bag such as decoded
// JSON or YAML. Missing options keep their defaults. Durations are given
// in milliseconds. The result is validated before it is returned.
func ParseOptions(opts map[string]any) (Settings, error) {
	return ApplyOptions(DefaultSettings(), opts)
}

// ApplyOptions is ParseOptions starting from base instead of the defaults.
// base is not modified.
func ApplyOptions(base Settings, opts map[string]any) (Settings, error) {
	s := base
	var err error

	for name, v := range opts {
		switch name {
		case "sizeRangeSuffixes":
			s.SizeRangeSuffixes, err = optionSuffixTable(v)
		case "rowHeight":
			s.RowHeight, err = optionNumber(name, v)
		case "maxRowHeight":
			s.MaxRowHeight, err = ParseMaxRowHeight(v)
		case "maxRowsCount":
			var n float64
			n, err = optionNumber(name, v)
			s.MaxRowsCount = int(n)
		case "margins":
			s.Margins, err = optionNumber(name, v)
		case "border":
			s.Border, err = optionNumber(name, v)
		case "lastRow":
			var mode string
			mode, err = optionString(name, v)
			s.LastRow = LastRowMode(mode)
		case "justifyThreshold":
			s.JustifyThreshold, err = optionNumber(name, v)
		case "waitThumbnailsLoad":
			s.WaitThumbnailsLoad, err = optionBool(name, v)
		case "captions":
			s.Captions, err = optionBool(name, v)
		case "rel":
			s.Rel, err = optionNullableString(name, v)
		case "target":
			s.Target, err = optionNullableString(name, v)
		case "extension":
			var pattern string
			if pattern, err = optionString(name, v); err == nil {
				s.Extension, err = regexp.Compile(pattern)
				if err != nil {
					err = settingsErrorf(name, "invalid pattern: %v", err)
				}
			}
		case "refreshTime":
			s.RefreshTime, err = optionMilliseconds(name, v)
		case "refreshSensitivity":
			s.RefreshSensitivity, err = optionNumber(name, v)
		case "randomize":
			s.Randomize, err = optionBool(name, v)
		case "rtl":
			s.RTL, err = optionBool(name, v)
		case "sort":
			s.Sort, err = optionSort(v)
		case "filter":
			err = optionFilter(&s, v)
		case "selector":
			s.Selector, err = optionString(name, v)
		case "imgSelector":
			s.ImgSelector, err = optionString(name, v)
		case "yieldEvery":
			var n float64
			n, err = optionNumber(name, v)
			s.YieldEvery = int(n)
		case "yieldDelay":
			s.YieldDelay, err = optionMilliseconds(name, v)
		case "skipErrors":
			s.SkipErrors, err = optionBool(name, v)
		case "thumbnailPath", "triggerEvent":
			logging.Warn("gallery option %q cannot be set from an option bag, ignoring", name)
		default:
			logging.Warn("unknown gallery option %q, ignoring", name)
		}
		if err != nil {
			return Settings{}, err
		}
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func optionSuffixTable(v any) (map[string]string, error) {
	var raw map[string]any
	switch t := v.(type) {
	case map[string]string:
		return t, nil
	case map[string]any:
		raw = t
	case map[any]any:
		raw = make(map[string]any, len(t))
		for k, val := range t {
			raw[fmt.Sprint(k)] = val
		}
	default:
		return nil, settingsErrorf("sizeRangeSuffixes", "must be defined and must be an object")
	}

	table := make(map[string]string, len(raw))
	for k, val := range raw {
		s, ok := val.(string)
		if !ok {
			return nil, settingsErrorf("sizeRangeSuffixes", "suffix for %q must be a string", k)
		}
		table[k] = s
	}
	return table, nil
}

// optionSort accepts false, or the name of an item field ("id", "src",
// "title", "alt") with an optional "-" prefix for descending order.
func optionSort(v any) (func(a, b Item) int, error) {
	if b, ok := v.(bool); ok && !b {
		return nil, nil
	}
	if v == nil {
		return nil, nil
	}
	key, ok := v.(string)
	if !ok {
		return nil, settingsErrorf("sort", "must be false or a field name")
	}
	cmp, ok := SortBy(key)
	if !ok {
		return nil, settingsErrorf("sort", "unknown sort field %q", key)
	}
	return cmp, nil
}

// optionFilter accepts false/nil or a tag name.
func optionFilter(s *Settings, v any) error {
	switch f := v.(type) {
	case nil:
		s.Filter, s.FilterTag = nil, ""
	case bool:
		if f {
			return settingsErrorf("filter", "must be false or a tag")
		}
		s.Filter, s.FilterTag = nil, ""
	case string:
		s.Filter, s.FilterTag = nil, f
	default:
		return settingsErrorf("filter", "must be false or a tag")
	}
	return nil
}
