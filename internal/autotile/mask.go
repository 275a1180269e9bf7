package autotile

// Reader reads the live content of a grid.
// Cell returns false for empty cells and coordinates outside the grid.
type Reader interface {
	Cell(x, y int) (Cell, bool)
}

// readCell treats any failure inside the reader as an empty cell.
func readCell(r Reader, x, y int) (c Cell, ok bool) {
	defer func() {
		if recover() != nil {
			c, ok = Cell{}, false
		}
	}()
	return r.Cell(x, y)
}

// ComputeMask builds the neighbor mask of (x,y) against a group.
// Off-grid neighbors read as empty, so map edges need no special case.
func ComputeMask(r Reader, x, y int, key GroupKey) uint8 {
	var mask uint8
	for _, d := range Directions {
		c, ok := readCell(r, x+d.DX, y+d.DY)
		if ok && BelongsTo(c.Tile, key) {
			mask |= d.Bit
		}
	}
	return mask
}

// Resolve picks the tile of group key that belongs at (x,y) given its neighbors.
// It returns false if ts does not contain the chosen variant.
func Resolve(r Reader, x, y int, key GroupKey, ts Tileset) (TileRef, bool) {
	mask := ComputeMask(r, x, y, key)
	return ts.Tile(key.StartID + VariantFor(mask))
}
