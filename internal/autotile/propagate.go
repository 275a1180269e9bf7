package autotile

import "github.com/zyedidia/generic/mapset"

// Grid is a writable grid. Reads must see earlier writes made through the same
// Grid, so a transaction passed here has to overlay its staged changes.
type Grid interface {
	Reader
	SetCell(x, y int, c Cell)
	ClearCell(x, y int)
}

// Point is a cell coordinate.
type Point struct {
	X, Y int
}

// Options controls one paint or erase pass.
type Options struct {
	// NeighborUpdates re-resolves the 8 cells around the edited one.
	// When false only the edited cell is written.
	NeighborUpdates bool
}

// DefaultOptions returns the options of a freshly started tool.
func DefaultOptions() Options {
	return Options{NeighborUpdates: true}
}

// Result lists the cells a pass wrote to. Writes the grid dropped, such as
// those off its edge, are not listed.
type Result struct {
	Center  Point
	Touched mapset.Set[Point]
}

func newResult(x, y int) Result {
	return Result{Center: Point{x, y}, Touched: mapset.New[Point]()}
}

// Paint places the group of target at (x,y), then refreshes its neighbors.
// Nothing is written unless the target validates and the center tile resolves.
func Paint(g Grid, lookup TilesetLookup, x, y int, target Target, opts Options) (Result, error) {
	if err := target.Validate(); err != nil {
		return Result{}, err
	}
	mask := ComputeMask(g, x, y, target.Key)
	id := target.Key.StartID + VariantFor(mask)
	ref, ok := target.Tileset.Tile(id)
	if !ok {
		return Result{}, &UnresolvedTileError{ID: id, Tileset: tilesetLabel(target.Tileset)}
	}

	res := newResult(x, y)
	g.SetCell(x, y, Cell{Tile: ref})
	if c, ok := readCell(g, x, y); ok && c.Tile == ref {
		res.Touched.Put(res.Center)
	}
	if opts.NeighborUpdates {
		refreshNeighbors(g, lookup, x, y, res)
	}
	return res, nil
}

// Erase clears (x,y), then refreshes its neighbors from their own groups.
// The center counts as touched only if it held a tile.
func Erase(g Grid, lookup TilesetLookup, x, y int, opts Options) (Result, error) {
	res := newResult(x, y)
	_, occupied := readCell(g, x, y)
	g.ClearCell(x, y)
	if _, ok := readCell(g, x, y); occupied && !ok {
		res.Touched.Put(res.Center)
	}
	if opts.NeighborUpdates {
		refreshNeighbors(g, lookup, x, y, res)
	}
	return res, nil
}

func refreshNeighbors(g Grid, lookup TilesetLookup, x, y int, res Result) {
	for _, d := range Directions {
		nx, ny := x+d.DX, y+d.DY
		if Refresh(g, lookup, nx, ny) {
			res.Touched.Put(Point{nx, ny})
		}
	}
}

// Refresh re-resolves the tile at (x,y) within the cell's own group and
// rewrites it, keeping its flags. Empty cells, cells whose tileset is unknown
// and cells whose tileset ends before their group block are left alone.
// It reports whether the cell was written.
func Refresh(g Grid, lookup TilesetLookup, x, y int) bool {
	c, ok := readCell(g, x, y)
	if !ok {
		return false
	}
	key, ok := GroupKeyOf(c.Tile)
	if !ok {
		return false
	}
	ts, ok := lookup.TilesetByID(c.Tile.Tileset)
	if !ok || !Holds(ts, key.StartID) {
		return false
	}
	ref, ok := Resolve(g, x, y, key, ts)
	if !ok {
		return false
	}
	g.SetCell(x, y, Cell{Tile: ref, Flags: c.Flags})
	return true
}
