package maps

import (
	"errors"
	"fmt"
	"sort"

	"rmxp-autotile/internal/autotile"
)

// LayerType distinguishes tile layers from layers the brush cannot paint on.
type LayerType string

const (
	TileLayer   LayerType = "tile"
	ObjectLayer LayerType = "object"
)

// TileMeta is the per-tile metadata of a tileset: class name and custom properties.
type TileMeta struct {
	Class      string
	Properties map[string]any
}

// Property implements autotile.Properties.
func (m *TileMeta) Property(name string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.Properties[name]
	return v, ok
}

// SetProperty stores a custom property on the tile.
func (m *TileMeta) SetProperty(name string, v any) {
	if m.Properties == nil {
		m.Properties = make(map[string]any)
	}
	m.Properties[name] = v
}

// Tileset is a tileset attached to a document. Tiles are addressed by local id
// 0..TileCount()-1 and appear in layers as FirstGID+id.
type Tileset struct {
	FirstGID uint32
	Columns  int

	name  string
	file  string // external .tsx path, empty for embedded tilesets
	count int
	meta  map[int]*TileMeta
}

// NewTileset creates a detached tileset. file is empty for embedded tilesets.
func NewTileset(name, file string, count int) *Tileset {
	return &Tileset{name: name, file: file, count: count}
}

// Identity implements autotile.Tileset. External tilesets are identified by
// their file path, embedded ones by a marker built from the name.
func (t *Tileset) Identity() string {
	if t.file != "" {
		return t.file
	}
	return "#embedded:" + t.name
}

func (t *Tileset) Name() string     { return t.name }
func (t *Tileset) FileName() string { return t.file }
func (t *Tileset) TileCount() int   { return t.count }

// Tile implements autotile.Tileset.
func (t *Tileset) Tile(id int) (autotile.TileRef, bool) {
	if id < 0 || id >= t.count {
		return autotile.TileRef{}, false
	}
	return autotile.TileRef{Tileset: t.Identity(), ID: id}, true
}

// Meta returns the metadata of a tile, or nil if the tile has none.
func (t *Tileset) Meta(id int) *TileMeta {
	return t.meta[id]
}

// EnsureMeta returns the metadata of a tile, creating it if needed.
func (t *Tileset) EnsureMeta(id int) *TileMeta {
	if t.meta == nil {
		t.meta = make(map[int]*TileMeta)
	}
	m, ok := t.meta[id]
	if !ok {
		m = &TileMeta{}
		t.meta[id] = m
	}
	return m
}

// MetaIDs returns the ids of tiles carrying metadata, in ascending order.
func (t *Tileset) MetaIDs() []int {
	ids := make([]int, 0, len(t.meta))
	for id := range t.meta {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (t *Tileset) ownsGID(gid uint32) bool {
	return gid >= t.FirstGID && gid < t.FirstGID+uint32(t.count)
}

// Layer is one layer of a document. Tile layers hold GIDs in [y][x] order.
type Layer struct {
	Name string
	Type LayerType

	doc  *Document
	gids [][]uint32
}

// Document is an in-memory map: its size, attached tilesets and layers.
type Document struct {
	Name   string
	Width  int
	Height int
	Layers []*Layer

	tilesets []*Tileset
}

// NewDocument creates an empty document of the given size.
func NewDocument(name string, width, height int) *Document {
	return &Document{Name: name, Width: width, Height: height}
}

// AddTileset attaches a tileset after the existing ones and assigns its FirstGID.
func (d *Document) AddTileset(ts *Tileset) error {
	if ts.count <= 0 {
		return fmt.Errorf("tileset %q has no tiles", ts.name)
	}
	if _, ok := d.TilesetByID(ts.Identity()); ok {
		return fmt.Errorf("tileset %q is already attached", ts.Identity())
	}
	next := uint32(1)
	for _, other := range d.tilesets {
		if end := other.FirstGID + uint32(other.count); end > next {
			next = end
		}
	}
	ts.FirstGID = next
	d.tilesets = append(d.tilesets, ts)
	return nil
}

// AddLayer appends an empty layer.
func (d *Document) AddLayer(name string, typ LayerType) *Layer {
	l := &Layer{Name: name, Type: typ, doc: d}
	if typ == TileLayer {
		l.gids = make([][]uint32, d.Height)
		for y := range l.gids {
			l.gids[y] = make([]uint32, d.Width)
		}
	}
	d.Layers = append(d.Layers, l)
	return l
}

// Layer returns the layer with the given name, or nil.
func (d *Document) Layer(name string) *Layer {
	for _, l := range d.Layers {
		if l.Name == name {
			return l
		}
	}
	return nil
}

// TilesetByID implements autotile.TilesetLookup.
func (d *Document) TilesetByID(id string) (autotile.Tileset, bool) {
	ts := d.tileset(id)
	if ts == nil {
		return nil, false
	}
	return ts, true
}

func (d *Document) tileset(id string) *Tileset {
	for _, ts := range d.tilesets {
		if ts.Identity() == id {
			return ts
		}
	}
	return nil
}

// AttachedTilesets returns the tilesets in attachment order.
func (d *Document) AttachedTilesets() []*Tileset {
	return d.tilesets
}

// FindTileset returns the attached tileset matching a name, file path or identity.
func (d *Document) FindTileset(ref string) *Tileset {
	if ts := d.tileset(ref); ts != nil {
		return ts
	}
	for _, ts := range d.tilesets {
		if ts.name == ref || ts.file == ref {
			return ts
		}
	}
	return nil
}

// Tilesets implements autotile.TilesetList.
func (d *Document) Tilesets() []autotile.Tileset {
	out := make([]autotile.Tileset, len(d.tilesets))
	for i, ts := range d.tilesets {
		out[i] = ts
	}
	return out
}

// Properties returns the metadata of a tile as autotile.Properties, or nil.
func (d *Document) Properties(ref autotile.TileRef) autotile.Properties {
	ts := d.tileset(ref.Tileset)
	if ts == nil {
		return nil
	}
	if m := ts.Meta(ref.ID); m != nil {
		return m
	}
	return nil
}

var errEditClosed = errors.New("edit already applied or discarded")
