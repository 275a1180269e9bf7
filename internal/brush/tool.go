package brush

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"rmxp-autotile/internal/autotile"
	"rmxp-autotile/internal/maps"
)

// Precondition failures. The action simply does not apply; hosts need not
// show them to the user.
var (
	ErrNoActiveBrush  = errors.New("no brush tile selected")
	ErrNoActiveLayer  = errors.New("no active layer")
	ErrWrongLayerType = errors.New("active layer is not a tile layer")
)

// IsNoop reports whether err is a precondition failure rather than a real error.
func IsNoop(err error) bool {
	return errors.Is(err, ErrNoActiveBrush) || errors.Is(err, ErrNoActiveLayer) || errors.Is(err, ErrWrongLayerType)
}

// Tool is the autotile brush bound to one document.
// It is not safe for concurrent use; hosts serialize actions.
type Tool struct {
	doc   *maps.Document
	layer int
	brush autotile.TileRef
	opts  autotile.Options
}

// NewTool creates a brush on doc with the first tile layer active and neighbor updates on.
func NewTool(doc *maps.Document) *Tool {
	t := &Tool{doc: doc, layer: -1, opts: autotile.DefaultOptions()}
	for i, l := range doc.Layers {
		if l.IsTileLayer() {
			t.layer = i
			break
		}
	}
	return t
}

// Document returns the document the tool edits.
func (t *Tool) Document() *maps.Document {
	return t.doc
}

// SetBrush selects the tile to paint with.
func (t *Tool) SetBrush(ref autotile.TileRef) {
	t.brush = ref
}

// Brush returns the selected tile.
func (t *Tool) Brush() autotile.TileRef {
	return t.brush
}

// SetLayer makes the layer at index i active; out-of-range indices clear it.
func (t *Tool) SetLayer(i int) {
	if i < 0 || i >= len(t.doc.Layers) {
		t.layer = -1
		return
	}
	t.layer = i
}

// SelectLayer makes the named layer active.
func (t *Tool) SelectLayer(name string) error {
	for i, l := range t.doc.Layers {
		if l.Name == name {
			t.layer = i
			return nil
		}
	}
	return fmt.Errorf("layer %q not found", name)
}

// Layer returns the active layer, or nil.
func (t *Tool) Layer() *maps.Layer {
	if t.layer < 0 || t.layer >= len(t.doc.Layers) {
		return nil
	}
	return t.doc.Layers[t.layer]
}

// LayerIndex returns the index of the active layer, -1 if none.
func (t *Tool) LayerIndex() int {
	return t.layer
}

// NeighborUpdates reports whether painting re-resolves neighbors.
func (t *Tool) NeighborUpdates() bool {
	return t.opts.NeighborUpdates
}

// SetNeighborUpdates switches neighbor re-resolution on or off.
func (t *Tool) SetNeighborUpdates(on bool) {
	t.opts.NeighborUpdates = on
}

// ToggleNeighborUpdates flips neighbor re-resolution and returns the new state.
func (t *Tool) ToggleNeighborUpdates() bool {
	t.opts.NeighborUpdates = !t.opts.NeighborUpdates
	log.Info().Bool("neighbors", t.opts.NeighborUpdates).Msg("Neighbor updates toggled")
	return t.opts.NeighborUpdates
}

func (t *Tool) activeTileLayer() (*maps.Layer, error) {
	l := t.Layer()
	if l == nil {
		return nil, ErrNoActiveLayer
	}
	if !l.IsTileLayer() {
		return nil, ErrWrongLayerType
	}
	return l, nil
}

// Target resolves the paint target of the current brush.
func (t *Tool) Target() (autotile.Target, error) {
	if t.brush.IsZero() {
		return autotile.Target{}, ErrNoActiveBrush
	}
	src := autotile.SourceOf(t.brush, t.doc.Properties(t.brush))
	return autotile.ResolveTarget(src, t.doc, t.doc)
}

// OnPrimaryAction paints the current brush group at (x,y).
func (t *Tool) OnPrimaryAction(x, y int) (autotile.Result, error) {
	layer, err := t.activeTileLayer()
	if err != nil {
		return autotile.Result{}, err
	}
	target, err := t.Target()
	if err != nil {
		if !IsNoop(err) {
			log.Warn().Err(err).Str("brush", t.brush.String()).Msg("Paint aborted")
		}
		return autotile.Result{}, err
	}

	edit := layer.Edit()
	res, err := autotile.Paint(edit, t.doc, x, y, target, t.opts)
	if err != nil {
		edit.Discard()
		log.Warn().Err(err).Int("x", x).Int("y", y).Msg("Paint aborted")
		return autotile.Result{}, err
	}
	if err := edit.Apply(); err != nil {
		return autotile.Result{}, fmt.Errorf("apply paint: %w", err)
	}
	log.Debug().Int("x", x).Int("y", y).Stringer("group", target.Key).Int("cells", res.Touched.Size()).Msg("Painted")
	return res, nil
}

// OnSecondaryAction erases (x,y).
func (t *Tool) OnSecondaryAction(x, y int) (autotile.Result, error) {
	layer, err := t.activeTileLayer()
	if err != nil {
		return autotile.Result{}, err
	}
	edit := layer.Edit()
	res, err := autotile.Erase(edit, t.doc, x, y, t.opts)
	if err != nil {
		edit.Discard()
		return autotile.Result{}, err
	}
	if err := edit.Apply(); err != nil {
		return autotile.Result{}, fmt.Errorf("apply erase: %w", err)
	}
	log.Debug().Int("x", x).Int("y", y).Int("cells", res.Touched.Size()).Msg("Erased")
	return res, nil
}

// RefreshLayer re-resolves every cell of the active layer from its own group.
// It returns the number of cells rewritten.
func (t *Tool) RefreshLayer() (int, error) {
	layer, err := t.activeTileLayer()
	if err != nil {
		return 0, err
	}
	edit := layer.Edit()
	n := 0
	for y := 0; y < t.doc.Height; y++ {
		for x := 0; x < t.doc.Width; x++ {
			if autotile.Refresh(edit, t.doc, x, y) {
				n++
			}
		}
	}
	if err := edit.Apply(); err != nil {
		return 0, fmt.Errorf("apply refresh: %w", err)
	}
	return n, nil
}

// AssignSource marks tile id of ts as an autotile key whose 48 variants live
// in the tileset at path, starting at startID. Invalid start ids become 0.
func AssignSource(ts *maps.Tileset, id int, path string, startID any) error {
	if ts == nil {
		return errors.New("no tileset")
	}
	if id < 0 || id >= ts.TileCount() {
		return fmt.Errorf("tile id %d out of range for tileset %q", id, ts.Name())
	}
	if path == "" {
		return errors.New("source tileset path is empty")
	}
	start := autotile.ParseStartID(startID)

	m := ts.EnsureMeta(id)
	m.SetProperty(autotile.PropAutotileKey, true)
	m.SetProperty(autotile.PropSourceTileset, path)
	m.SetProperty(autotile.PropSourceBasename, baseName(path))
	m.SetProperty(autotile.PropStartID, start)
	m.Class = autotile.KeyTileClass

	log.Info().Str("tileset", ts.Name()).Int("tile", id).Str("source", path).Int("startId", start).
		Msg("Assigned autotile source")
	return nil
}

// baseName splits on both separators so Windows paths work on any host.
func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return filepath.Base(path)
}

// Status describes the tool state in one line.
func (t *Tool) Status() string {
	layer := "(none)"
	if l := t.Layer(); l != nil {
		layer = l.Name
	}
	neighbors := "ON"
	if !t.opts.NeighborUpdates {
		neighbors = "OFF"
	}
	return fmt.Sprintf("RMXP Autotile Brush | layer %s | brush %s | neighbors %s", layer, t.brush, neighbors)
}
