package canvas

import (
	"sort"

	"justified-gallery/internal/gallery"
)

// Tile is one visible entry of a layout.
type Tile struct {
	ID     string  `json:"id"`
	Src    string  `json:"src"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	// BoxHeight is the height of the entry box, which a row height cap can
	// make smaller than the image.
	BoxHeight float64 `json:"boxHeight"`
	Caption   string  `json:"caption,omitempty"`
	Rel       string  `json:"rel,omitempty"`
	Target    string  `json:"target,omitempty"`
}

// Row is a group of tiles sharing the same top.
type Row struct {
	Index  int     `json:"index"`
	Y      float64 `json:"y"`
	Height float64 `json:"height"`
	Tiles  []Tile  `json:"tiles"`
}

// Layout is a snapshot of a canvas.
type Layout struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Rows   []Row   `json:"rows"`
	// Hidden lists entries that are not shown and not filtered out: rows
	// past the row limit, a hidden last row and entries whose image failed.
	Hidden   []string `json:"hidden,omitempty"`
	Filtered []string `json:"filtered,omitempty"`
}

// Tiles returns the number of visible tiles.
func (l Layout) Tiles() int {
	n := 0
	for _, r := range l.Rows {
		n += len(r.Tiles)
	}
	return n
}

// Layout groups the visible placements by row, in display order.
func (c *Canvas) Layout() Layout {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := Layout{Width: c.width, Height: c.height}
	rows := make(map[int]*Row)
	for _, it := range c.items {
		if c.filtered[it.ID] {
			out.Filtered = append(out.Filtered, it.ID)
			continue
		}
		p, ok := c.placed[it.ID]
		if !ok || !c.visible[it.ID] {
			out.Hidden = append(out.Hidden, it.ID)
			continue
		}
		r := rows[p.Row]
		if r == nil {
			r = &Row{Index: p.Row, Y: p.Y}
			rows[p.Row] = r
		}
		r.Height = max(r.Height, p.RowHeight)
		r.Tiles = append(r.Tiles, c.tile(it, p))
	}

	for _, r := range rows {
		sort.Slice(r.Tiles, func(i, j int) bool { return r.Tiles[i].X < r.Tiles[j].X })
		out.Rows = append(out.Rows, *r)
	}
	sort.Slice(out.Rows, func(i, j int) bool { return out.Rows[i].Index < out.Rows[j].Index })
	return out
}

func (c *Canvas) tile(it gallery.Item, p gallery.Placement) Tile {
	src, ok := c.sources[it.ID]
	if !ok {
		src = it.Src
	}
	caption, ok := c.captions[it.ID]
	if !ok {
		caption = it.Caption
	}
	l := c.links[it.ID]
	return Tile{
		ID:        it.ID,
		Src:       src,
		X:         p.X,
		Y:         p.Y,
		Width:     p.Width,
		Height:    p.Height,
		BoxHeight: p.RowHeight,
		Caption:   caption,
		Rel:       l.rel,
		Target:    l.target,
	}
}
