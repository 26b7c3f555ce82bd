// Package suffix maps target thumbnail sizes to file-name suffixes.
//
// A table associates an upper bound on the longest image side with the
// suffix of a pre-generated thumbnail, Flickr style:
//
//	100  -> "_t"
//	240  -> "_m"
//	500  -> ""
//	1024 -> "_b"
//
// A 200x150 target therefore selects "_m", and anything past the largest
// bound selects the largest bound's suffix.
package suffix

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// ErrInvalidTable is returned for a missing table or a key that is not a number.
var ErrInvalidTable = errors.New("sizeRangeSuffixes must be an object with numeric keys")

// DefaultExtension matches the trailing file extension of a URL or path.
var DefaultExtension = regexp.MustCompile(`\.[^.\\/]+$`)

// keyPrefix is the alphabetic prefix tolerated on keys ("lt100").
var keyPrefix = regexp.MustCompile(`^[a-z]+`)

// DefaultTable returns the Flickr suffix table.
func DefaultTable() map[string]string {
	return map[string]string{
		"100":  "_t",
		"240":  "_m",
		"320":  "_n",
		"500":  "",
		"640":  "_z",
		"1024": "_b",
	}
}

// Resolver picks suffixes from a bound table.
type Resolver struct {
	bounds   []int
	suffixes map[int]string
}

// New builds a resolver. Keys are integers, optionally prefixed with
// lowercase letters; a 0 -> "" bound is always present.
func New(table map[string]string) (*Resolver, error) {
	if table == nil {
		return nil, ErrInvalidTable
	}

	suffixes := map[int]string{0: ""}
	for key, suffix := range table {
		n, err := strconv.Atoi(keyPrefix.ReplaceAllString(strings.TrimSpace(key), ""))
		if err != nil {
			return nil, fmt.Errorf("%w: invalid number in key %q", ErrInvalidTable, key)
		}
		if n < 0 {
			return nil, fmt.Errorf("%w: negative bound %q", ErrInvalidTable, key)
		}
		suffixes[n] = suffix
	}

	bounds := make([]int, 0, len(suffixes))
	for n := range suffixes {
		bounds = append(bounds, n)
	}
	sort.Ints(bounds)

	return &Resolver{bounds: bounds, suffixes: suffixes}, nil
}

// Bounds returns the sorted bounds, including the implicit 0.
func (r *Resolver) Bounds() []int {
	return append([]int(nil), r.bounds...)
}

// Suffix returns the suffix of the smallest bound not below max(width, height),
// or the largest bound's suffix when none fits.
func (r *Resolver) Suffix(width, height int) string {
	longest := max(width, height)
	for _, b := range r.bounds {
		if longest <= b {
			return r.suffixes[b]
		}
	}
	return r.suffixes[r.bounds[len(r.bounds)-1]]
}

// Used returns the non-empty table suffix s ends with, or "".
// Longer suffixes are tried first so "_mm" is not mistaken for "_m".
func (r *Resolver) Used(s string) string {
	best := ""
	for _, suffix := range r.suffixes {
		if suffix == "" || len(suffix) <= len(best) {
			continue
		}
		if strings.HasSuffix(s, suffix) {
			best = suffix
		}
	}
	return best
}

// Strip removes the suffix reported by Used.
func (r *Resolver) Strip(s string) string {
	return strings.TrimSuffix(s, r.Used(s))
}

// Apply rewrites src so that it points at the thumbnail best suited to a
// width x height display. The extension (matched by ext, or
// DefaultExtension when nil) is preserved and any suffix already applied is
// replaced, so Apply is idempotent for a given size.
func (r *Resolver) Apply(src string, width, height int, ext *regexp.Regexp) string {
	if ext == nil {
		ext = DefaultExtension
	}
	extension := ext.FindString(src)
	base := ext.ReplaceAllString(src, "")
	return r.Strip(base) + r.Suffix(width, height) + extension
}

// Bound returns the largest longest-side bound that produces suffix.
// The second return is false if the suffix is not in the table.
func (r *Resolver) Bound(suffix string) (int, bool) {
	found, bound := false, 0
	for b, s := range r.suffixes {
		if s == suffix && (!found || b > bound) {
			found, bound = true, b
		}
	}
	return bound, found
}

// Split separates a file name into its base, applied suffix and extension.
func (r *Resolver) Split(name string, ext *regexp.Regexp) (base, suffix, extension string) {
	if ext == nil {
		ext = DefaultExtension
	}
	extension = ext.FindString(name)
	rest := ext.ReplaceAllString(name, "")
	suffix = r.Used(rest)
	return strings.TrimSuffix(rest, suffix), suffix, extension
}
