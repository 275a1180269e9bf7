package autotile

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Per-tile property names that turn a tile into an autotile key.
const (
	PropAutotileKey    = "rpgxp.autotileKey"
	PropSourceTileset  = "rpgxp.sourceTileset"
	PropSourceBasename = "rpgxp.sourceBasename"
	PropStartID        = "rpgxp.startId"

	// KeyTileClass marks key tiles in the tileset editor.
	KeyTileClass = "RMXP_Autotile"
)

// Properties reads named properties of a tile definition.
type Properties interface {
	Property(name string) (any, bool)
}

// SourceInfo is a key tile's pointer to the tileset holding its 48 variants.
type SourceInfo struct {
	TilesetPath string
	Basename    string
	StartID     int
}

// ResolveSourceMapping reads the source mapping attached to a tile.
// It returns false when the tile is not an autotile key or names no source tileset.
func ResolveSourceMapping(props Properties) (SourceInfo, bool) {
	if props == nil {
		return SourceInfo{}, false
	}
	key, _ := props.Property(PropAutotileKey)
	if !truthy(key) {
		return SourceInfo{}, false
	}

	raw, _ := props.Property(PropSourceTileset)
	path, ok := raw.(string)
	if !ok || path == "" {
		return SourceInfo{}, false
	}

	info := SourceInfo{TilesetPath: path}
	if base, ok := props.Property(PropSourceBasename); ok {
		if s, ok := base.(string); ok {
			info.Basename = s
		}
	}
	if v, ok := props.Property(PropStartID); ok {
		info.StartID = ParseStartID(v)
	}
	return info, true
}

// ParseStartID converts a stored startId to a group start.
// Missing, empty, non-finite, negative or unparsable values yield 0.
// Booleans count as 0 or 1, strings may carry a 0x, 0o or 0b prefix, and
// finite values past math.MaxInt32 saturate so they fail tileset bounds checks.
func ParseStartID(v any) int {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0
	case bool:
		if n {
			return 1
		}
		return 0
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case float32:
		f = float64(n)
	case float64:
		f = n
	case json.Number:
		p, err := n.Float64()
		if err != nil {
			return 0
		}
		f = p
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0
		}
		if base := radixOf(s); base != 0 {
			u, err := strconv.ParseUint(s[2:], base, 64)
			if errors.Is(err, strconv.ErrRange) {
				return math.MaxInt32
			}
			if err != nil {
				return 0
			}
			f = float64(u)
			break
		}
		p, err := strconv.ParseFloat(s, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return 0
		}
		f = p
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}

// radixOf returns the base named by a 0x, 0o or 0b prefix, or 0.
func radixOf(s string) int {
	if len(s) < 3 || s[0] != '0' {
		return 0
	}
	switch s[1] {
	case 'x', 'X':
		return 16
	case 'o', 'O':
		return 8
	case 'b', 'B':
		return 2
	}
	return 0
}

func truthy(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case string:
		return b != ""
	case int:
		return b != 0
	case int64:
		return b != 0
	case float64:
		return b != 0 && !math.IsNaN(b)
	case json.Number:
		f, err := b.Float64()
		return err == nil && f != 0
	default:
		return true
	}
}

// LookupTileset finds the tileset a source mapping points at among the
// document's attached tilesets: exact path first, then basename suffix.
func LookupTileset(list TilesetList, path, basename string) (Tileset, error) {
	var tilesets []Tileset
	if list != nil {
		tilesets = list.Tilesets()
	}
	for _, ts := range tilesets {
		if ts != nil && ts.FileName() != "" && ts.FileName() == path {
			return ts, nil
		}
	}
	if basename != "" {
		for _, ts := range tilesets {
			if ts == nil || ts.FileName() == "" {
				continue
			}
			name := ts.FileName()
			if strings.HasSuffix(name, "/"+basename) || strings.HasSuffix(name, "\\"+basename) || strings.HasSuffix(name, basename) {
				return ts, nil
			}
		}
	}
	return nil, &MissingTilesetError{Path: path, Basename: basename}
}

// GroupSource says where a brush's autotile group comes from.
// It is either DefaultSource or MappedSource.
type GroupSource interface {
	groupSource()
}

// DefaultSource uses the 48-aligned block around the brush tile in its own tileset.
type DefaultSource struct {
	Tile TileRef
}

// MappedSource uses a block in another tileset, named by a key tile's properties.
type MappedSource struct {
	Info SourceInfo
}

func (DefaultSource) groupSource() {}
func (MappedSource) groupSource()  {}

// SourceOf classifies a brush tile. props may be nil for tiles without metadata.
func SourceOf(brush TileRef, props Properties) GroupSource {
	if info, ok := ResolveSourceMapping(props); ok {
		return MappedSource{Info: info}
	}
	return DefaultSource{Tile: brush}
}

// Target is a validated paint target: the group to paint and the tileset holding it.
type Target struct {
	Key     GroupKey
	Tileset Tileset
}

// ResolveTarget turns a group source into a paint target, checking that the
// tileset exists and holds the whole 48-tile block.
func ResolveTarget(src GroupSource, lookup TilesetLookup, list TilesetList) (Target, error) {
	var t Target
	switch s := src.(type) {
	case MappedSource:
		ts, err := LookupTileset(list, s.Info.TilesetPath, s.Info.Basename)
		if err != nil {
			return Target{}, err
		}
		t = Target{Key: GroupKey{Tileset: ts.Identity(), StartID: s.Info.StartID}, Tileset: ts}
	case DefaultSource:
		key, ok := GroupKeyOf(s.Tile)
		if !ok {
			return Target{}, &UnresolvedTileError{ID: s.Tile.ID, Tileset: s.Tile.Tileset}
		}
		ts, ok := lookup.TilesetByID(s.Tile.Tileset)
		if !ok {
			return Target{}, &MissingTilesetError{Path: s.Tile.Tileset}
		}
		t = Target{Key: key, Tileset: ts}
	default:
		return Target{}, fmt.Errorf("unknown group source %T", src)
	}
	if err := t.Validate(); err != nil {
		return Target{}, err
	}
	return t, nil
}

// Validate checks that the target tileset holds every tile of the group block.
func (t Target) Validate() error {
	if t.Tileset == nil {
		return &MissingTilesetError{Path: t.Key.Tileset}
	}
	if !Holds(t.Tileset, t.Key.StartID) {
		return &UndersizedTilesetError{
			Tileset: tilesetLabel(t.Tileset),
			StartID: t.Key.StartID,
			Want:    t.Key.End(),
			Got:     t.Tileset.TileCount(),
		}
	}
	if _, ok := t.Tileset.Tile(t.Key.StartID); !ok {
		return &UnresolvedTileError{ID: t.Key.StartID, Tileset: tilesetLabel(t.Tileset)}
	}
	return nil
}

func tilesetLabel(ts Tileset) string {
	if ts.Name() != "" {
		return ts.Name()
	}
	if ts.FileName() != "" {
		return ts.FileName()
	}
	return "(unnamed)"
}
