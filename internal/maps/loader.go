package maps

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// jsonDocument is the on-disk JSON format.
type jsonDocument struct {
	Name     string        `json:"name"`
	Width    int           `json:"width"`
	Height   int           `json:"height"`
	Tilesets []jsonTileset `json:"tilesets"`
	Layers   []jsonLayer   `json:"layers"`
}

type jsonTileset struct {
	Name      string              `json:"name"`
	File      string              `json:"file,omitempty"`
	FirstGID  uint32              `json:"first_gid"`
	TileCount int                 `json:"tile_count"`
	Columns   int                 `json:"columns,omitempty"`
	Tiles     map[string]jsonTile `json:"tiles,omitempty"`
}

type jsonTile struct {
	Class      string         `json:"class,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

type jsonLayer struct {
	Name string     `json:"name"`
	Type LayerType  `json:"type"`
	Data [][]uint32 `json:"data,omitempty"`
}

// LoadDocument reads a JSON document file from disk.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document file: %w", err)
	}
	return ParseDocument(data)
}

// ParseDocument decodes and validates a JSON document.
// Numeric tile properties are kept as json.Number.
func ParseDocument(data []byte) (*Document, error) {
	var jd jsonDocument
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&jd); err != nil {
		return nil, fmt.Errorf("parse document JSON: %w", err)
	}

	if jd.Width <= 0 || jd.Height <= 0 {
		return nil, fmt.Errorf("invalid document size %dx%d", jd.Width, jd.Height)
	}
	doc := NewDocument(jd.Name, jd.Width, jd.Height)

	for i, jt := range jd.Tilesets {
		if jt.TileCount <= 0 {
			return nil, fmt.Errorf("tileset %d (%q) has tile_count %d", i, jt.Name, jt.TileCount)
		}
		if jt.FirstGID == 0 {
			return nil, fmt.Errorf("tileset %d (%q) has first_gid 0", i, jt.Name)
		}
		ts := NewTileset(jt.Name, jt.File, jt.TileCount)
		ts.FirstGID = jt.FirstGID
		ts.Columns = jt.Columns
		for k, tile := range jt.Tiles {
			id, err := strconv.Atoi(k)
			if err != nil || id < 0 || id >= jt.TileCount {
				return nil, fmt.Errorf("tileset %q has metadata for invalid tile %q", jt.Name, k)
			}
			m := ts.EnsureMeta(id)
			m.Class = tile.Class
			for name, v := range tile.Properties {
				m.SetProperty(name, v)
			}
		}
		if doc.tileset(ts.Identity()) != nil {
			return nil, fmt.Errorf("duplicate tileset %q", ts.Identity())
		}
		doc.tilesets = append(doc.tilesets, ts)
	}
	if err := checkGIDRanges(doc.tilesets); err != nil {
		return nil, err
	}

	for i, jl := range jd.Layers {
		if jl.Type == "" {
			jl.Type = TileLayer
		}
		if jl.Type != TileLayer && jl.Type != ObjectLayer {
			return nil, fmt.Errorf("layer %d (%q) has unknown type %q", i, jl.Name, jl.Type)
		}
		l := doc.AddLayer(jl.Name, jl.Type)
		if jl.Type != TileLayer || jl.Data == nil {
			continue
		}

		// Validate tile dimensions
		if len(jl.Data) != jd.Height {
			return nil, fmt.Errorf("layer %q: tile rows %d != declared height %d", jl.Name, len(jl.Data), jd.Height)
		}
		for y, row := range jl.Data {
			if len(row) != jd.Width {
				return nil, fmt.Errorf("layer %q: row %d has %d tiles, expected %d", jl.Name, y, len(row), jd.Width)
			}
			for x, gid := range row {
				if gid&^gidFlagMask != 0 && doc.tilesetForGID(gid) == nil {
					return nil, fmt.Errorf("layer %q: gid %d at (%d,%d) belongs to no tileset", jl.Name, gid&^gidFlagMask, x, y)
				}
			}
			copy(l.gids[y], row)
		}
	}

	return doc, nil
}

func checkGIDRanges(tilesets []*Tileset) error {
	sorted := make([]*Tileset, len(tilesets))
	copy(sorted, tilesets)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].FirstGID < sorted[j].FirstGID })
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if prev.FirstGID+uint32(prev.count) > cur.FirstGID {
			return fmt.Errorf("tilesets %q and %q overlap at gid %d", prev.name, cur.name, cur.FirstGID)
		}
	}
	return nil
}

// Marshal encodes the document in the on-disk JSON format.
func (d *Document) Marshal() ([]byte, error) {
	jd := jsonDocument{
		Name:     d.Name,
		Width:    d.Width,
		Height:   d.Height,
		Tilesets: make([]jsonTileset, 0, len(d.tilesets)),
		Layers:   make([]jsonLayer, 0, len(d.Layers)),
	}
	for _, ts := range d.tilesets {
		jt := jsonTileset{
			Name:      ts.name,
			File:      ts.file,
			FirstGID:  ts.FirstGID,
			TileCount: ts.count,
			Columns:   ts.Columns,
		}
		if len(ts.meta) > 0 {
			jt.Tiles = make(map[string]jsonTile, len(ts.meta))
			for id, m := range ts.meta {
				jt.Tiles[strconv.Itoa(id)] = jsonTile{Class: m.Class, Properties: m.Properties}
			}
		}
		jd.Tilesets = append(jd.Tilesets, jt)
	}
	for _, l := range d.Layers {
		jd.Layers = append(jd.Layers, jsonLayer{Name: l.Name, Type: l.Type, Data: l.gids})
	}
	return json.MarshalIndent(jd, "", "  ")
}

// Save writes the document to path as JSON.
func (d *Document) Save(path string) error {
	data, err := d.Marshal()
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write document file: %w", err)
	}
	return nil
}

// LoadDocuments scans a directory for *.json files, loads each as a Document,
// and returns them indexed by Name.
func LoadDocuments(dir string) (map[string]*Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read documents directory: %w", err)
	}

	all := make(map[string]*Document)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		d, err := LoadDocument(path)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", entry.Name(), err)
		}
		if _, exists := all[d.Name]; exists {
			return nil, fmt.Errorf("duplicate document name %q in %s", d.Name, entry.Name())
		}
		all[d.Name] = d
	}
	return all, nil
}

// DefaultDocument returns a blank document with a three-group autotile tileset,
// used when no document file is available.
func DefaultDocument() *Document {
	d := NewDocument("Default", 32, 20)
	ts := NewTileset("terrain", "terrain.tsx", 3*48)
	ts.Columns = 8
	// AddTileset only fails for empty or duplicate tilesets.
	_ = d.AddTileset(ts)
	d.AddLayer("ground", TileLayer)
	d.AddLayer("objects", ObjectLayer)
	return d
}
