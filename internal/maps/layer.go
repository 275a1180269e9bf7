package maps

import (
	"fmt"

	"rmxp-autotile/internal/autotile"
)

// GID flag bits, same convention as the Tiled TMX format.
const (
	gidFlipH    uint32 = 1 << 31
	gidFlipV    uint32 = 1 << 30
	gidFlipD    uint32 = 1 << 29
	gidFlagMask uint32 = gidFlipH | gidFlipV | gidFlipD
)

func flagsFromGID(gid uint32) autotile.Flags {
	var f autotile.Flags
	if gid&gidFlipH != 0 {
		f |= autotile.FlipH
	}
	if gid&gidFlipV != 0 {
		f |= autotile.FlipV
	}
	if gid&gidFlipD != 0 {
		f |= autotile.FlipD
	}
	return f
}

func gidFlags(f autotile.Flags) uint32 {
	var g uint32
	if f&autotile.FlipH != 0 {
		g |= gidFlipH
	}
	if f&autotile.FlipV != 0 {
		g |= gidFlipV
	}
	if f&autotile.FlipD != 0 {
		g |= gidFlipD
	}
	return g
}

// tilesetForGID returns the tileset owning a GID (flags stripped), or nil.
func (d *Document) tilesetForGID(gid uint32) *Tileset {
	gid &^= gidFlagMask
	if gid == 0 {
		return nil
	}
	for _, ts := range d.tilesets {
		if ts.ownsGID(gid) {
			return ts
		}
	}
	return nil
}

// Decode turns a stored GID into a cell. Empty and unknown GIDs report false.
func (d *Document) Decode(gid uint32) (autotile.Cell, bool) {
	ts := d.tilesetForGID(gid)
	if ts == nil {
		return autotile.Cell{}, false
	}
	id := int((gid &^ gidFlagMask) - ts.FirstGID)
	return autotile.Cell{
		Tile:  autotile.TileRef{Tileset: ts.Identity(), ID: id},
		Flags: flagsFromGID(gid),
	}, true
}

// Encode turns a cell into a GID.
func (d *Document) Encode(c autotile.Cell) (uint32, error) {
	ts := d.tileset(c.Tile.Tileset)
	if ts == nil {
		return 0, fmt.Errorf("tileset %q is not attached to %q", c.Tile.Tileset, d.Name)
	}
	if c.Tile.ID < 0 || c.Tile.ID >= ts.count {
		return 0, fmt.Errorf("tile id %d out of range for tileset %q (%d tiles)", c.Tile.ID, ts.name, ts.count)
	}
	return (ts.FirstGID + uint32(c.Tile.ID)) | gidFlags(c.Flags), nil
}

// IsTileLayer reports whether the brush can paint on the layer.
func (l *Layer) IsTileLayer() bool {
	return l.Type == TileLayer
}

func (l *Layer) inBounds(x, y int) bool {
	return l.gids != nil && y >= 0 && y < len(l.gids) && x >= 0 && x < len(l.gids[y])
}

// GID returns the raw GID at (x,y); 0 for empty or out-of-range cells.
func (l *Layer) GID(x, y int) uint32 {
	if !l.inBounds(x, y) {
		return 0
	}
	return l.gids[y][x]
}

// Cell implements autotile.Reader. Out-of-range coordinates read as empty.
func (l *Layer) Cell(x, y int) (autotile.Cell, bool) {
	return l.doc.Decode(l.GID(x, y))
}

func (l *Layer) setGID(x, y int, gid uint32) {
	if l.inBounds(x, y) {
		l.gids[y][x] = gid
	}
}

// Edit starts a transaction on the layer.
func (l *Layer) Edit() *Edit {
	return newEdit(l)
}
