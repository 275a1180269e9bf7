package server

import (
	"fmt"
	"io"
	"sync"
	"unicode/utf8"

	"github.com/gliderlabs/ssh"
	"github.com/rs/zerolog/log"

	"rmxp-autotile/internal/editor"
	"rmxp-autotile/internal/render"
)

// SSHServer wraps the SSH listener and editor loop integration.
type SSHServer struct {
	loop    *editor.Loop
	addr    string
	hostKey string
	srv     *ssh.Server
}

// NewSSHServer creates a new SSH server bound to the given address.
func NewSSHServer(addr string, hostKey string, loop *editor.Loop) *SSHServer {
	return &SSHServer{
		loop:    loop,
		addr:    addr,
		hostKey: hostKey,
	}
}

// Start begins listening for SSH connections. It returns ssh.ErrServerClosed after Close.
func (s *SSHServer) Start() error {
	s.srv = &ssh.Server{
		Addr: s.addr,
		Handler: func(sess ssh.Session) {
			s.handleSession(sess)
		},
	}

	if err := s.srv.SetOption(ssh.HostKeyFile(s.hostKey)); err != nil {
		return fmt.Errorf("set host key: %w", err)
	}

	log.Info().Str("addr", s.addr).Msg("SSH server listening")
	return s.srv.ListenAndServe()
}

// Close stops accepting connections and drops open sessions.
func (s *SSHServer) Close() error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Close()
}

func (s *SSHServer) handleSession(sess ssh.Session) {
	ptyReq, winCh, ok := sess.Pty()
	if !ok {
		fmt.Fprintln(sess, "Error: PTY required. Use: ssh -t ...")
		return
	}

	username := sess.User()
	if username == "" {
		username = "Anonymous"
	}

	sessionID, renderCh := s.loop.AddSession(username)
	log.Info().Str("user", username).Str("session", sessionID).Msg("Editor connected")
	defer func() {
		s.loop.RemoveSession(sessionID)
		log.Info().Str("user", username).Str("session", sessionID).Msg("Editor disconnected")
	}()

	termW := ptyReq.Window.Width
	termH := ptyReq.Window.Height
	var termMu sync.Mutex

	engine := render.NewEngine(termW, termH)

	io.WriteString(sess, render.EnterEditor())
	defer io.WriteString(sess, render.LeaveEditor())

	inputCh := s.loop.InputChan()
	quitCh := make(chan struct{})

	go func() {
		buf := make([]byte, 64)
		for {
			n, err := sess.Read(buf)
			if err != nil {
				close(quitCh)
				return
			}
			for _, action := range parseInput(buf[:n]) {
				if action == editor.ActionQuit {
					close(quitCh)
					return
				}
				select {
				case inputCh <- editor.InputEvent{SessionID: sessionID, Action: action}:
				default:
				}
			}
		}
	}()

	go func() {
		for win := range winCh {
			termMu.Lock()
			termW = win.Width
			termH = win.Height
			termMu.Unlock()
		}
	}()

	for {
		select {
		case <-quitCh:
			return
		case state, ok := <-renderCh:
			if !ok {
				return
			}

			termMu.Lock()
			w, h := termW, termH
			termMu.Unlock()

			output := engine.Render(frameFor(state), w, h)
			if len(output) > 0 {
				io.WriteString(sess, output)
			}
		}
	}
}

// frameFor converts an editor snapshot into what the renderer draws.
func frameFor(st editor.State) render.Frame {
	f := render.Frame{
		DocName:  st.Doc,
		Width:    st.Width,
		Height:   st.Height,
		CursorX:  st.Self.X,
		CursorY:  st.Self.Y,
		Status:   st.Status,
		Messages: st.Messages,
	}
	if st.View != nil {
		f.LayerName = st.View.Name
		f.Cells = st.View.Cells
	}
	for _, c := range st.Cursors {
		if c.ID != st.Self.ID {
			f.Others = append(f.Others, render.Marker{Name: c.Name, X: c.X, Y: c.Y})
		}
	}
	return f
}

// parseInput converts raw bytes into editor actions.
// Handles arrow key escape sequences, WASD, the editing keys, Q and Ctrl-C.
func parseInput(data []byte) []editor.Action {
	var actions []editor.Action
	i := 0
	for i < len(data) {
		// Check for escape sequences (arrow keys)
		if i+2 < len(data) && data[i] == 0x1b && data[i+1] == '[' {
			switch data[i+2] {
			case 'A':
				actions = append(actions, editor.ActionUp)
			case 'B':
				actions = append(actions, editor.ActionDown)
			case 'C':
				actions = append(actions, editor.ActionRight)
			case 'D':
				actions = append(actions, editor.ActionLeft)
			}
			i += 3
			continue
		}

		r, size := utf8.DecodeRune(data[i:])
		switch r {
		case 'w', 'W':
			actions = append(actions, editor.ActionUp)
		case 's', 'S':
			actions = append(actions, editor.ActionDown)
		case 'a', 'A':
			actions = append(actions, editor.ActionLeft)
		case 'd', 'D':
			actions = append(actions, editor.ActionRight)
		case ' ', '\r', '\n':
			actions = append(actions, editor.ActionPaint)
		case 'x', 'X', 0x7f, 0x08: // DEL and BS
			actions = append(actions, editor.ActionErase)
		case 'n', 'N':
			actions = append(actions, editor.ActionToggleNeighbors)
		case ']':
			actions = append(actions, editor.ActionNextBrush)
		case '[':
			actions = append(actions, editor.ActionPrevBrush)
		case '\t':
			actions = append(actions, editor.ActionNextLayer)
		case 'r', 'R':
			actions = append(actions, editor.ActionRefresh)
		case 'q', 'Q':
			actions = append(actions, editor.ActionQuit)
		case 3: // Ctrl-C
			actions = append(actions, editor.ActionQuit)
		}
		i += size
	}
	return actions
}
