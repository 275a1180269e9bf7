package maps

import (
	"github.com/zyedidia/generic/mapset"

	"rmxp-autotile/internal/autotile"
)

// Edit is a write transaction on one layer. Writes are staged and visible to
// the edit's own reads; nothing reaches the layer until Apply.
type Edit struct {
	layer   *Layer
	staged  map[autotile.Point]uint32
	touched mapset.Set[autotile.Point]
	err     error
	done    bool
}

func newEdit(l *Layer) *Edit {
	return &Edit{
		layer:   l,
		staged:  make(map[autotile.Point]uint32),
		touched: mapset.New[autotile.Point](),
	}
}

// Cell implements autotile.Reader, reading staged writes first.
func (e *Edit) Cell(x, y int) (autotile.Cell, bool) {
	if gid, ok := e.staged[autotile.Point{X: x, Y: y}]; ok {
		return e.layer.doc.Decode(gid)
	}
	return e.layer.Cell(x, y)
}

// SetCell implements autotile.Grid. Writes outside the layer, and writes
// after Apply or Discard, are dropped.
// A cell that cannot be encoded poisons the edit; Apply then reports it.
func (e *Edit) SetCell(x, y int, c autotile.Cell) {
	if e.done || !e.layer.inBounds(x, y) {
		return
	}
	gid, err := e.layer.doc.Encode(c)
	if err != nil {
		if e.err == nil {
			e.err = err
		}
		return
	}
	e.stage(x, y, gid)
}

// ClearCell implements autotile.Grid.
func (e *Edit) ClearCell(x, y int) {
	if !e.layer.inBounds(x, y) {
		return
	}
	e.stage(x, y, 0)
}

func (e *Edit) stage(x, y int, gid uint32) {
	if e.done {
		return
	}
	p := autotile.Point{X: x, Y: y}
	e.staged[p] = gid
	e.touched.Put(p)
}

// Touched returns the cells written by the edit.
func (e *Edit) Touched() mapset.Set[autotile.Point] {
	return e.touched
}

// Apply commits all staged writes, or none of them if any write failed.
func (e *Edit) Apply() error {
	if e.done {
		return errEditClosed
	}
	e.done = true
	if e.err != nil {
		return e.err
	}
	for p, gid := range e.staged {
		e.layer.setGID(p.X, p.Y, gid)
	}
	return nil
}

// Discard drops all staged writes.
func (e *Edit) Discard() {
	e.done = true
	clear(e.staged)
}
