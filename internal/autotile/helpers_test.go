package autotile

import (
	"fmt"
	"strings"
)

// memGrid is a bounded in-memory grid for tests.
type memGrid struct {
	w, h  int
	cells map[Point]Cell
}

func newMemGrid(w, h int) *memGrid {
	return &memGrid{w: w, h: h, cells: make(map[Point]Cell)}
}

func (g *memGrid) Cell(x, y int) (Cell, bool) {
	if x < 0 || y < 0 || x >= g.w || y >= g.h {
		return Cell{}, false
	}
	c, ok := g.cells[Point{x, y}]
	return c, ok
}

func (g *memGrid) SetCell(x, y int, c Cell) {
	if x < 0 || y < 0 || x >= g.w || y >= g.h {
		return
	}
	g.cells[Point{x, y}] = c
}

func (g *memGrid) ClearCell(x, y int) {
	delete(g.cells, Point{x, y})
}

func (g *memGrid) snapshot() map[Point]Cell {
	out := make(map[Point]Cell, len(g.cells))
	for p, c := range g.cells {
		out[p] = c
	}
	return out
}

// variantAt returns the variant index stored at (x,y), or -1 for an empty cell.
func (g *memGrid) variantAt(x, y int) int {
	c, ok := g.Cell(x, y)
	if !ok {
		return -1
	}
	return c.Tile.ID % TilesPerGroup
}

// panicGrid fails every read outside its backing grid by panicking.
type panicGrid struct {
	*memGrid
}

func (g panicGrid) Cell(x, y int) (Cell, bool) {
	if x < 0 || y < 0 || x >= g.w || y >= g.h {
		panic(fmt.Sprintf("read out of range (%d,%d)", x, y))
	}
	return g.memGrid.Cell(x, y)
}

type fakeTileset struct {
	id, file, name string
	count          int
}

func (t *fakeTileset) Identity() string { return t.id }
func (t *fakeTileset) FileName() string { return t.file }
func (t *fakeTileset) Name() string     { return t.name }
func (t *fakeTileset) TileCount() int   { return t.count }

func (t *fakeTileset) Tile(id int) (TileRef, bool) {
	if id < 0 || id >= t.count {
		return TileRef{}, false
	}
	return TileRef{Tileset: t.id, ID: id}, true
}

type fakeDoc struct {
	tilesets []*fakeTileset
}

func (d *fakeDoc) TilesetByID(id string) (Tileset, bool) {
	for _, ts := range d.tilesets {
		if ts.id == id {
			return ts, true
		}
	}
	return nil, false
}

func (d *fakeDoc) Tilesets() []Tileset {
	out := make([]Tileset, len(d.tilesets))
	for i, ts := range d.tilesets {
		out[i] = ts
	}
	return out
}

type props map[string]any

func (p props) Property(name string) (any, bool) {
	v, ok := p[name]
	return v, ok
}

// formatMask returns a human-readable string for an 8-bit neighbor mask.
func formatMask(mask uint8) string {
	if mask == 0 {
		return "0"
	}
	var parts []string
	for _, d := range Directions {
		if mask&d.Bit != 0 {
			parts = append(parts, d.Name)
		}
	}
	return strings.Join(parts, "|")
}

// fill places group tiles at every '#' of the pattern, using the group's first tile.
func fill(g *memGrid, key GroupKey, pattern []string) {
	for y, row := range pattern {
		for x, ch := range row {
			if ch == '#' {
				g.SetCell(x, y, Cell{Tile: TileRef{Tileset: key.Tileset, ID: key.StartID}})
			}
		}
	}
}
