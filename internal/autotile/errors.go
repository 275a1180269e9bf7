package autotile

import "fmt"

// MissingTilesetError means a source-mapped group names a tileset that is not
// attached to the document.
type MissingTilesetError struct {
	Path     string
	Basename string
}

func (e *MissingTilesetError) Error() string {
	if e.Basename != "" {
		return fmt.Sprintf("source tileset %q (basename %q) is not attached to this map", e.Path, e.Basename)
	}
	return fmt.Sprintf("source tileset %q is not attached to this map", e.Path)
}

// UndersizedTilesetError means a tileset ends before the group block does.
type UndersizedTilesetError struct {
	Tileset string
	StartID int
	Want    int
	Got     int
}

func (e *UndersizedTilesetError) Error() string {
	return fmt.Sprintf("tileset %q does not contain %d tiles starting at startId=%d: need %d, have %d",
		e.Tileset, TilesPerGroup, e.StartID, e.Want, e.Got)
}

// UnresolvedTileError means a local id could not be fetched from a tileset.
type UnresolvedTileError struct {
	ID      int
	Tileset string
}

func (e *UnresolvedTileError) Error() string {
	return fmt.Sprintf("could not access tile id %d in tileset %q", e.ID, e.Tileset)
}
