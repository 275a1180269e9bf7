package render

// Viewport computes which part of the map a session sees.
type Viewport struct {
	CamX, CamY   int // top-left map coordinate
	ViewW, ViewH int // viewport size in map cells
}

// NewViewport centers the camera on the editing cursor, clamped to map edges.
// termW is in screen columns; each map cell takes TileWidth of them.
// hudRows reserves space for the HUD at the bottom.
func NewViewport(cursorX, cursorY, termW, termH, mapW, mapH, hudRows int) Viewport {
	viewW := termW / TileWidth
	viewH := termH - hudRows
	if viewH < 0 {
		viewH = 0
	}

	camX := cursorX - viewW/2
	camY := cursorY - viewH/2

	// Clamp to map edges
	if camX+viewW > mapW {
		camX = mapW - viewW
	}
	if camY+viewH > mapH {
		camY = mapH - viewH
	}
	if camX < 0 {
		camX = 0
	}
	if camY < 0 {
		camY = 0
	}

	return Viewport{
		CamX:  camX,
		CamY:  camY,
		ViewW: viewW,
		ViewH: viewH,
	}
}

// MapToScreen converts map coordinates to the 0-based screen row and column
// of the cell's first character. ok is false outside the viewport.
func (v Viewport) MapToScreen(mx, my int) (row, col int, ok bool) {
	tx := mx - v.CamX
	ty := my - v.CamY
	if tx < 0 || tx >= v.ViewW || ty < 0 || ty >= v.ViewH {
		return 0, 0, false
	}
	return ty, tx * TileWidth, true
}
