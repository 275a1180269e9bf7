package autotile

import "fmt"

// TileRef names one tile image: the owning tileset's identity plus the local tile id.
// The zero value names no tile.
type TileRef struct {
	Tileset string
	ID      int
}

// IsZero reports whether the ref names no tile.
func (r TileRef) IsZero() bool {
	return r.Tileset == ""
}

func (r TileRef) String() string {
	if r.IsZero() {
		return "<empty>"
	}
	return fmt.Sprintf("%s#%d", r.Tileset, r.ID)
}

// Flags holds the flip/rotation bits stored with a cell.
type Flags uint8

const (
	FlipH Flags = 1 << iota // horizontal flip
	FlipV                   // vertical flip
	FlipD                   // anti-diagonal flip (90° rotation when combined)
)

// Cell is the content of one occupied grid cell.
type Cell struct {
	Tile  TileRef
	Flags Flags
}

// GroupKey identifies one autotile group: a 48-tile block inside a tileset.
type GroupKey struct {
	Tileset string
	StartID int
}

// End returns the first local id past the group block.
func (k GroupKey) End() int {
	return k.StartID + TilesPerGroup
}

func (k GroupKey) String() string {
	return fmt.Sprintf("%s[%d..%d)", k.Tileset, k.StartID, k.End())
}

// GroupKeyOf derives the default group of a tile: the 48-aligned block holding its id.
func GroupKeyOf(ref TileRef) (GroupKey, bool) {
	if ref.IsZero() || ref.ID < 0 {
		return GroupKey{}, false
	}
	return GroupKey{
		Tileset: ref.Tileset,
		StartID: (ref.ID / TilesPerGroup) * TilesPerGroup,
	}, true
}

// BelongsTo reports whether ref lies inside the group block named by key.
func BelongsTo(ref TileRef, key GroupKey) bool {
	if ref.IsZero() || ref.Tileset != key.Tileset {
		return false
	}
	return ref.ID >= key.StartID && ref.ID < key.End()
}

// Tileset is the core's view of a tileset in the host document.
type Tileset interface {
	// Identity is the value stored in TileRef.Tileset for tiles of this tileset.
	Identity() string
	// FileName is the external file path, or "" for embedded tilesets.
	FileName() string
	Name() string
	TileCount() int
	// Tile returns the ref for a local id, false if the tileset has no such tile.
	Tile(id int) (TileRef, bool)
}

// TilesetLookup finds a tileset by identity.
type TilesetLookup interface {
	TilesetByID(id string) (Tileset, bool)
}

// TilesetList exposes the ordered tilesets attached to a document.
type TilesetList interface {
	Tilesets() []Tileset
}

// Holds reports whether ts contains every tile of the group starting at startID.
func Holds(ts Tileset, startID int) bool {
	return ts.TileCount() >= startID+TilesPerGroup
}
