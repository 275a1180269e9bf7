package editor

// Action represents an editor input action.
type Action int

const (
	ActionNone Action = iota
	ActionUp
	ActionDown
	ActionLeft
	ActionRight
	ActionPaint
	ActionErase
	ActionToggleNeighbors
	ActionNextBrush
	ActionPrevBrush
	ActionNextLayer
	ActionRefresh
	ActionQuit
)

// InputEvent carries a session action into the editor loop.
type InputEvent struct {
	SessionID string
	Action    Action
}

// Session holds the per-connection editing state.
type Session struct {
	ID        string
	Name      string
	X, Y      int
	Brush     int // index into the loop palette
	Layer     int // index into the document layers
	Neighbors bool
}

// CursorSnapshot is a read-only copy of a session cursor for rendering.
type CursorSnapshot struct {
	ID   string
	Name string
	X, Y int
}
