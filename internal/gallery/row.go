package gallery

import "math"

// BuildingRow accumulates the entries of the row being built. AspectRatio
// and Width are always sums over exactly the buffered entries.
type BuildingRow struct {
	Entries     []*Entry
	AspectRatio float64
	// Width is the summed width of the entries at the nominal row height.
	Width  float64
	Height float64
}

// Clear empties the row.
func (r *BuildingRow) Clear() {
	r.Entries = r.Entries[:0]
	r.AspectRatio = 0
	r.Width = 0
	r.Height = 0
}

// Len returns the number of buffered entries.
func (r *BuildingRow) Len() int {
	return len(r.Entries)
}

// availableWidth is the width left for n images once border and gaps are
// taken out.
func availableWidth(width float64, n int, s *Settings) float64 {
	if n < 1 {
		n = 1
	}
	return width - 2*s.border() - float64(n-1)*s.Margins
}

// Accumulate appends e to the row and reports whether the row is now full:
// fitting the buffered images into the container would make them shorter
// than the nominal row height.
func Accumulate(row *BuildingRow, e *Entry, s *Settings, width float64) bool {
	ar := e.AspectRatio()
	row.Entries = append(row.Entries, e)
	row.AspectRatio += ar
	row.Width += ar * s.RowHeight

	if row.AspectRatio <= 0 {
		return false
	}
	return availableWidth(width, len(row.Entries), s)/row.AspectRatio < s.RowHeight
}

// Outcome is the result of justifying a row.
type Outcome struct {
	Hidden    bool
	Justified bool
	// Height is the box height of the row after the height cap.
	Height     float64
	Placements []Placement
}

// Justify computes the size and position of every entry in row. It sets
// row.Height but leaves the scan state alone; committing the row is the
// caller's job. hidden forces the row out of the layout.
func Justify(row *BuildingRow, st *State, s *Settings, isLast, hidden bool) Outcome {
	n := len(row.Entries)
	if n == 0 {
		return Outcome{Hidden: true}
	}

	border := s.border()
	available := availableWidth(st.Width, n, s)
	rowHeight := 0.0
	if available > 0 && row.AspectRatio > 0 {
		rowHeight = available / row.AspectRatio
	}
	defaultHeight := s.RowHeight
	// A row with no room left at all counts as full; a negative width never does.
	justifiable := (available == 0 && row.Width > 0) ||
		(available > 0 && row.Width/available > s.JustifyThreshold)

	if hidden || (isLast && s.LastRow == LastRowHide && !justifiable) {
		return Outcome{Hidden: true}
	}

	justify := true
	if isLast && !justifiable && s.LastRow != LastRowJustify && s.LastRow != LastRowHide {
		justify = false
		if st.Rows > 0 {
			defaultHeight = (st.OffY - border - s.Margins*float64(st.Rows)) / float64(st.Rows)
			justify = defaultHeight*row.AspectRatio/available > s.JustifyThreshold
		}
	}

	placements := make([]Placement, n)
	remaining := available
	minHeight := 0.0
	for i, e := range row.Entries {
		ar := e.AspectRatio()
		var w, h float64
		if justify {
			w = rowHeight * ar
			if i == n-1 {
				w = remaining
			}
			h = rowHeight
		} else {
			w = defaultHeight * ar
			h = defaultHeight
		}
		rounded := roundHalfUp(w)
		remaining -= rounded
		placements[i] = Placement{
			ID:     e.Item.ID,
			Index:  e.Index,
			Width:  int(rounded),
			Height: int(math.Ceil(h)),
			Row:    st.Rows,
		}
		if i == 0 || h < minHeight {
			minHeight = h
		}
	}

	height := minHeight
	if limit, ok := s.MaxRowHeight.Resolve(s.RowHeight); ok && height > limit {
		height = limit
	}
	row.Height = height

	offX := border
	if isLast && (s.LastRow == LastRowCenter || s.LastRow == LastRowRight) {
		leftover := available
		for _, p := range placements {
			leftover -= float64(p.Width)
		}
		if s.LastRow == LastRowCenter {
			offX += roundHalfUp(leftover / 2)
		} else {
			offX += leftover
		}
	}

	for i := 0; i < n; i++ {
		k := i
		if s.RTL {
			k = n - 1 - i
		}
		p := &placements[k]
		p.X = offX
		p.Y = st.OffY
		p.RowHeight = height
		offX += float64(p.Width) + s.Margins
	}

	return Outcome{Justified: justify, Height: height, Placements: placements}
}

// roundHalfUp rounds to the nearest integer, halves towards +Inf.
func roundHalfUp(f float64) float64 {
	return math.Floor(f + 0.5)
}
