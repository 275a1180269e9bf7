package render

import (
	"fmt"
	"strings"

	"rmxp-autotile/internal/autotile"
)

const HUDRows = 5

// Cell represents a single terminal cell with full RGB color.
type Cell struct {
	Ch            rune
	FgR, FgG, FgB uint8
	BgR, BgG, BgB uint8
	Bold          bool
}

var sentinel = Cell{Ch: '\x00', FgR: 255, BgB: 255, Bold: true}

// Marker is another session's cursor.
type Marker struct {
	Name string
	X, Y int
}

// Frame is the minimal editor data the renderer needs.
type Frame struct {
	DocName       string
	Width, Height int
	LayerName     string
	Cells         [][]autotile.Cell // nil when the layer holds no tiles
	CursorX       int
	CursorY       int
	Others        []Marker
	Status        string
	Messages      []string
}

// Engine is a per-session double-buffer diff renderer.
type Engine struct {
	width, height int
	current       [][]Cell
	next          [][]Cell
	firstFrame    bool
}

// NewEngine creates a renderer for the given terminal dimensions.
func NewEngine(width, height int) *Engine {
	e := &Engine{
		width:      width,
		height:     height,
		firstFrame: true,
	}
	e.current = e.makeBuffer(sentinel)
	e.next = e.makeBuffer(Cell{})
	return e
}

// Resize adjusts the renderer for a new terminal size.
func (e *Engine) Resize(width, height int) {
	e.width = width
	e.height = height
	e.current = e.makeBuffer(sentinel)
	e.next = e.makeBuffer(Cell{})
	e.firstFrame = true
}

func (e *Engine) makeBuffer(fill Cell) [][]Cell {
	buf := make([][]Cell, e.height)
	for y := 0; y < e.height; y++ {
		buf[y] = make([]Cell, e.width)
		for x := 0; x < e.width; x++ {
			buf[y][x] = fill
		}
	}
	return buf
}

// Render produces the ANSI byte output for the current frame.
// Only cells that changed since the previous call are emitted.
func (e *Engine) Render(f Frame, termW, termH int) string {
	if termW != e.width || termH != e.height {
		e.Resize(termW, termH)
	}

	bgCell := Cell{Ch: ' ', BgR: 10, BgG: 10, BgB: 15}
	for y := 0; y < e.height; y++ {
		for x := 0; x < e.width; x++ {
			e.next[y][x] = bgCell
		}
	}

	vp := NewViewport(f.CursorX, f.CursorY, termW, termH, f.Width, f.Height, HUDRows)

	for ty := 0; ty < vp.ViewH; ty++ {
		for tx := 0; tx < vp.ViewW; tx++ {
			mx, my := vp.CamX+tx, vp.CamY+ty
			if mx >= f.Width || my >= f.Height {
				continue
			}
			var c autotile.Cell
			if f.Cells != nil {
				c = f.Cells[my][mx]
			}
			e.stampTile(ty, tx*TileWidth, TileGlyph(c))
		}
	}

	for _, m := range f.Others {
		if row, col, ok := vp.MapToScreen(m.X, m.Y); ok {
			e.highlight(row, col, 120, 120, 140)
		}
	}
	if row, col, ok := vp.MapToScreen(f.CursorX, f.CursorY); ok {
		e.highlight(row, col, 240, 240, 240)
	}

	e.drawHUD(f)
	return e.emitDiff()
}

// Glyph is the two-column appearance of one map cell.
type Glyph struct {
	Text          string
	FgR, FgG, FgB uint8
	BgR, BgG, BgB uint8
}

// TileGlyph shows an occupied cell as its two-digit variant index on the
// group color. Flipped tiles use a yellow foreground.
func TileGlyph(c autotile.Cell) Glyph {
	if c.Tile.IsZero() {
		return Glyph{Text: "· ", FgR: 50, FgG: 50, FgB: 60, BgR: 10, BgG: 10, BgB: 15}
	}
	key, ok := autotile.GroupKeyOf(c.Tile)
	if !ok {
		return Glyph{Text: "??", FgR: 255, FgG: 80, FgB: 80, BgR: 10, BgG: 10, BgB: 15}
	}
	glyph := Glyph{Text: fmt.Sprintf("%02d", c.Tile.ID-key.StartID), FgR: 220, FgG: 220, FgB: 220}
	r, g, b := GroupColor(key)
	glyph.BgR, glyph.BgG, glyph.BgB = r/2, g/2, b/2
	if c.Flags != 0 {
		glyph.FgR, glyph.FgG, glyph.FgB = 255, 255, 120
	}
	return glyph
}

func (e *Engine) stampTile(row, col int, g Glyph) {
	e.writeText(row, col, col+TileWidth, g.Text, g.FgR, g.FgG, g.FgB, g.BgR, g.BgG, g.BgB, false)
}

// highlight inverts a map cell to mark a cursor.
func (e *Engine) highlight(row, col int, r, g, b uint8) {
	for x := col; x < col+TileWidth && x < e.width; x++ {
		if row < 0 || row >= e.height {
			return
		}
		c := e.next[row][x]
		c.FgR, c.FgG, c.FgB = c.BgR, c.BgG, c.BgB
		c.BgR, c.BgG, c.BgB = r, g, b
		c.Bold = true
		e.next[row][x] = c
	}
}

// --- HUD ---

func (e *Engine) drawHUD(f Frame) {
	hudY := e.height - HUDRows
	if hudY < 0 {
		return
	}
	bgR, bgG, bgB := uint8(15), uint8(18), uint8(30)

	for x := 0; x < e.width; x++ {
		e.next[hudY][x] = Cell{Ch: '━', FgR: 60, FgG: 90, FgB: 110, BgR: bgR, BgG: bgG, BgB: bgB}
	}
	header := fmt.Sprintf("%s  │  %s  │  (%d,%d)", f.DocName, f.LayerName, f.CursorX, f.CursorY)
	e.writeHUDTextLine(hudY+1, header, 180, 180, 195, bgR, bgG, bgB)
	e.writeHUDTextLine(hudY+2, f.Status, 100, 220, 220, bgR, bgG, bgB)

	msg := ""
	if n := len(f.Messages); n > 0 {
		msg = f.Messages[n-1]
	}
	e.writeHUDTextLine(hudY+3, msg, 240, 190, 60, bgR, bgG, bgB)
	e.writeHUDTextLine(hudY+4, "←↑↓→/WASD Move │ Space Paint │ X Erase │ N Neighbors │ [ ] Brush │ Tab Layer │ R Refresh │ Q Quit",
		130, 130, 145, bgR, bgG, bgB)
}

// writeText writes colored text into a bounded region [col, maxCol). Returns the next column position.
func (e *Engine) writeText(row, col, maxCol int, text string, fgR, fgG, fgB, bgR, bgG, bgB uint8, bold bool) int {
	for _, r := range text {
		if col >= maxCol || col >= e.width {
			break
		}
		if row >= 0 && row < e.height && col >= 0 {
			e.next[row][col] = Cell{Ch: r, FgR: fgR, FgG: fgG, FgB: fgB, BgR: bgR, BgG: bgG, BgB: bgB, Bold: bold}
		}
		col++
	}
	return col
}

func (e *Engine) writeHUDTextLine(row int, text string, fgR, fgG, fgB, bgR, bgG, bgB uint8) {
	if row < 0 || row >= e.height {
		return
	}
	runes := []rune(text)
	for x := 0; x < e.width; x++ {
		if x < len(runes) {
			e.next[row][x] = Cell{Ch: runes[x], FgR: fgR, FgG: fgG, FgB: fgB, BgR: bgR, BgG: bgG, BgB: bgB}
		} else {
			e.next[row][x] = Cell{Ch: ' ', BgR: bgR, BgG: bgG, BgB: bgB}
		}
	}
}

// emitDiff performs the buffer diff and produces ANSI output.
func (e *Engine) emitDiff() string {
	var sb strings.Builder
	sb.Grow(16384)

	lastRow, lastCol := -1, -1
	for y := 0; y < e.height; y++ {
		for x := 0; x < e.width; x++ {
			nc := e.next[y][x]
			if e.firstFrame || nc != e.current[y][x] {
				if y != lastRow || x != lastCol {
					sb.WriteString(MoveTo(y+1, x+1))
				}
				WriteCellSGR(&sb, nc)
				lastRow = y
				lastCol = x + 1
			}
		}
	}

	if sb.Len() > 0 {
		sb.WriteString(Reset)
	}

	e.current, e.next = e.next, e.current
	e.firstFrame = false

	return sb.String()
}
