package gallery

import (
	"math/rand/v2"
	"slices"
	"strings"
)

// SortBy returns a comparator over an item field: "id", "src", "title" or
// "alt". A leading "-" reverses the order.
func SortBy(field string) (func(a, b Item) int, bool) {
	desc := strings.HasPrefix(field, "-")
	field = strings.TrimPrefix(field, "-")

	var key func(Item) string
	switch field {
	case "id":
		key = func(it Item) string { return it.ID }
	case "src":
		key = func(it Item) string { return it.Src }
	case "title":
		key = func(it Item) string { return it.Title }
	case "alt":
		key = func(it Item) string { return it.Alt }
	default:
		return nil, false
	}

	return func(a, b Item) int {
		c := strings.Compare(key(a), key(b))
		if desc {
			return -c
		}
		return c
	}, true
}

// arrange applies sort or shuffle to a freshly enumerated batch. Sorting
// wins over randomizing.
func arrange(items []Item, s *Settings, shuffle func(n int, swap func(i, j int))) {
	switch {
	case s.Sort != nil:
		slices.SortStableFunc(items, s.Sort)
	case s.Randomize:
		if shuffle == nil {
			shuffle = rand.Shuffle
		}
		shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
	}
}

// keep reports whether the filter settings keep the item at index.
func keep(it Item, index int, s *Settings) bool {
	switch {
	case s.Filter != nil:
		return s.Filter(it, index)
	case s.FilterTag != "":
		return it.HasTag(s.FilterTag)
	default:
		return true
	}
}

func filtering(s *Settings) bool {
	return s.Filter != nil || s.FilterTag != ""
}
