package editor

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zyedidia/generic/queue"

	"rmxp-autotile/internal/autotile"
	"rmxp-autotile/internal/brush"
	"rmxp-autotile/internal/maps"
)

const (
	TickRate      = 20 // ticks per second
	InputChanSize = 256
	MaxMessages   = 3
)

// LayerView is an immutable copy of one layer, shared by every session
// looking at it during a tick. Empty cells have a zero Tile.
type LayerView struct {
	Name  string
	Tile  bool
	Cells [][]autotile.Cell
}

// State is a snapshot sent to each session for rendering.
type State struct {
	Doc           string
	Width, Height int
	View          *LayerView
	Self          Session
	Cursors       []CursorSnapshot
	Brush         autotile.TileRef
	Status        string
	Messages      []string
	Tick          uint64
}

// RenderChan is the per-session channel that receives state snapshots.
type RenderChan chan State

// Loop owns the document and the brush tool. All edits happen on the
// goroutine running Run, so paint and erase passes never overlap.
type Loop struct {
	doc       *maps.Document
	tool      *brush.Tool
	palette   []autotile.TileRef
	layer     int
	neighbors bool
	inputCh   chan InputEvent
	tickCount uint64

	mu          sync.RWMutex
	sessions    map[string]*Session
	renderChans map[string]RenderChan
	saved       map[string]Session // keyed by username

	messages *queue.Queue[string]
	nmsg     int
	version  uint64
	views    map[int]*LayerView
	viewsAt  uint64

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewLoop creates an editor loop over doc. neighbors is the initial
// neighbor-update setting of new sessions.
func NewLoop(doc *maps.Document, neighbors bool) *Loop {
	tool := brush.NewTool(doc)
	return &Loop{
		doc:         doc,
		tool:        tool,
		palette:     Palette(doc),
		layer:       tool.LayerIndex(),
		neighbors:   neighbors,
		inputCh:     make(chan InputEvent, InputChanSize),
		sessions:    make(map[string]*Session),
		renderChans: make(map[string]RenderChan),
		saved:       make(map[string]Session),
		messages:    queue.New[string](),
		views:       make(map[int]*LayerView),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Palette lists the brushes available for doc: every source-mapped key tile,
// then the first tile of every complete 48-tile block, tileset by tileset.
func Palette(doc *maps.Document) []autotile.TileRef {
	var out []autotile.TileRef
	for _, ts := range doc.AttachedTilesets() {
		for _, id := range ts.MetaIDs() {
			if _, ok := autotile.ResolveSourceMapping(ts.Meta(id)); !ok {
				continue
			}
			if ref, ok := ts.Tile(id); ok {
				out = append(out, ref)
			}
		}
		for start := 0; autotile.Holds(ts, start); start += autotile.TilesPerGroup {
			if ref, ok := ts.Tile(start); ok {
				out = append(out, ref)
			}
		}
	}
	return out
}

// InputChan returns the shared input channel for sessions to send events.
func (l *Loop) InputChan() chan<- InputEvent {
	return l.inputCh
}

// Document returns the edited document. It must not be touched while Run is active.
func (l *Loop) Document() *maps.Document {
	return l.doc
}

// AddSession registers a session using the username as identity.
// A returning username gets its cursor, brush and layer back.
func (l *Loop) AddSession(name string) (string, RenderChan) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := name
	if _, online := l.sessions[id]; online {
		id = fmt.Sprintf("%s_%04d", name, time.Now().UnixNano()%10000)
	}

	s := &Session{Layer: l.layer, Neighbors: l.neighbors}
	if ss, ok := l.saved[name]; ok {
		*s = ss
	} else {
		s.X, s.Y = l.doc.Width/2, l.doc.Height/2
	}
	s.ID, s.Name = id, name

	l.sessions[id] = s
	ch := make(RenderChan, 2)
	l.renderChans[id] = ch
	return id, ch
}

// RemoveSession saves the session state and unregisters it.
func (l *Loop) RemoveSession(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if s, ok := l.sessions[id]; ok {
		l.saved[s.Name] = *s
		delete(l.sessions, id)
	}
	if ch, ok := l.renderChans[id]; ok {
		close(ch)
		delete(l.renderChans, id)
	}
}

// Run starts the editor loop. Blocks until Stop is called.
func (l *Loop) Run() {
	defer close(l.doneCh)
	ticker := time.NewTicker(time.Second / TickRate)
	defer ticker.Stop()

	log.Info().Str("doc", l.doc.Name).Int("brushes", len(l.palette)).Msg("Editor loop started")
	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
			l.tick()
		}
	}
}

// Stop shuts down the loop and waits for Run to return.
func (l *Loop) Stop() {
	close(l.stopCh)
	<-l.doneCh
}

func (l *Loop) tick() {
	// Drain all pending input events
	for {
		select {
		case ev := <-l.inputCh:
			l.processInput(ev)
		default:
			goto drained
		}
	}
drained:

	l.tickCount++

	l.mu.RLock()
	defer l.mu.RUnlock()

	cursors := make([]CursorSnapshot, 0, len(l.sessions))
	for _, s := range l.sessions {
		cursors = append(cursors, CursorSnapshot{ID: s.ID, Name: s.Name, X: s.X, Y: s.Y})
	}
	messages := l.Messages()

	for id, ch := range l.renderChans {
		s, ok := l.sessions[id]
		if !ok {
			continue
		}
		l.bind(s)
		state := State{
			Doc:      l.doc.Name,
			Width:    l.doc.Width,
			Height:   l.doc.Height,
			View:     l.view(s.Layer),
			Self:     *s,
			Cursors:  cursors,
			Brush:    l.tool.Brush(),
			Status:   l.tool.Status(),
			Messages: messages,
			Tick:     l.tickCount,
		}
		// Non-blocking send, frames are dropped for slow clients
		select {
		case ch <- state:
		default:
		}
	}
}

// bind points the tool at the session's brush, layer and neighbor setting.
func (l *Loop) bind(s *Session) {
	var ref autotile.TileRef
	if len(l.palette) > 0 {
		ref = l.palette[s.Brush%len(l.palette)]
	}
	l.tool.SetBrush(ref)
	l.tool.SetLayer(s.Layer)
	l.tool.SetNeighborUpdates(s.Neighbors)
}

// view returns the snapshot of layer i, rebuilt only after an edit.
func (l *Loop) view(i int) *LayerView {
	if l.viewsAt != l.version {
		l.views = make(map[int]*LayerView)
		l.viewsAt = l.version
	}
	if v, ok := l.views[i]; ok {
		return v
	}
	if i < 0 || i >= len(l.doc.Layers) {
		return nil
	}
	layer := l.doc.Layers[i]
	v := &LayerView{Name: layer.Name, Tile: layer.IsTileLayer()}
	if v.Tile {
		v.Cells = make([][]autotile.Cell, l.doc.Height)
		for y := range v.Cells {
			v.Cells[y] = make([]autotile.Cell, l.doc.Width)
			for x := range v.Cells[y] {
				v.Cells[y][x], _ = layer.Cell(x, y)
			}
		}
	}
	l.views[i] = v
	return v
}

func (l *Loop) processInput(ev InputEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.sessions[ev.SessionID]
	if !ok {
		return
	}

	switch ev.Action {
	case ActionUp:
		l.move(s, 0, -1)
	case ActionDown:
		l.move(s, 0, 1)
	case ActionLeft:
		l.move(s, -1, 0)
	case ActionRight:
		l.move(s, 1, 0)
	case ActionPaint:
		l.bind(s)
		_, err := l.tool.OnPrimaryAction(s.X, s.Y)
		l.report(s, "paint", err)
	case ActionErase:
		l.bind(s)
		_, err := l.tool.OnSecondaryAction(s.X, s.Y)
		l.report(s, "erase", err)
	case ActionToggleNeighbors:
		s.Neighbors = !s.Neighbors
		state := "OFF"
		if s.Neighbors {
			state = "ON"
		}
		l.notify(fmt.Sprintf("%s: neighbor updates %s", s.Name, state))
	case ActionNextBrush, ActionPrevBrush:
		if n := len(l.palette); n > 0 {
			step := 1
			if ev.Action == ActionPrevBrush {
				step = n - 1
			}
			s.Brush = (s.Brush + step) % n
		}
	case ActionNextLayer:
		if n := len(l.doc.Layers); n > 0 {
			s.Layer = (s.Layer + 1) % n
		}
	case ActionRefresh:
		l.bind(s)
		n, err := l.tool.RefreshLayer()
		if err == nil {
			l.version++
			l.notify(fmt.Sprintf("%s: refreshed %d cells", s.Name, n))
		}
		l.report(s, "refresh", err)
	}
}

func (l *Loop) move(s *Session, dx, dy int) {
	nx, ny := s.X+dx, s.Y+dy
	if nx >= 0 && nx < l.doc.Width && ny >= 0 && ny < l.doc.Height {
		s.X, s.Y = nx, ny
	}
}

// report records the outcome of an edit. No-op preconditions stay silent.
func (l *Loop) report(s *Session, what string, err error) {
	switch {
	case err == nil:
		l.version++
	case brush.IsNoop(err):
	default:
		log.Warn().Err(err).Str("session", s.ID).Str("action", what).Msg("Edit failed")
		l.notify(fmt.Sprintf("%s failed: %v", what, err))
	}
}

// notify appends a message to the shared log, keeping the newest MaxMessages.
func (l *Loop) notify(msg string) {
	l.messages.Enqueue(msg)
	l.nmsg++
	for l.nmsg > MaxMessages {
		l.messages.Dequeue()
		l.nmsg--
	}
}

// Messages returns the message log, oldest first.
func (l *Loop) Messages() []string {
	out := make([]string, 0, l.nmsg)
	l.messages.Each(func(m string) {
		out = append(out, m)
	})
	return out
}
