package httpserver

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory/apps/go-server/internal/deck"
	"github.com/robalobadob/memory/apps/go-server/internal/game"
	"github.com/robalobadob/memory/apps/go-server/internal/session"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// command is a message from the client.
type command struct {
	Type   string `json:"type"` // "flip" | "restart" | "difficulty" | "sound"
	CardID int    `json:"cardId"`
	Level  string `json:"level"`
}

// frame is a message to the client.
type frame struct {
	Type     string         `json:"type"` // "snapshot" | "error"
	Snapshot *game.Snapshot `json:"snapshot,omitempty"`
	Error    string         `json:"error,omitempty"`
}

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || origin == s.cfg.ClientOrigin {
				return true
			}
			u, err := url.Parse(origin)
			return err == nil && u.Host == r.Host
		},
	}
}

// handleStream upgrades to a websocket that pushes a snapshot on every
// change and accepts the same commands as the JSON routes.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	up := s.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("gameId", sess.ID).Msg("websocket upgrade")
		return
	}

	updates, unsubscribe := sess.Subscribe()
	errs := make(chan string, 4)
	done := make(chan struct{})

	go s.writePump(conn, sess, updates, errs, done)
	s.readPump(conn, sess, errs)

	unsubscribe()
	close(done)
}

// readPump applies client commands until the connection fails.
func (s *Server) readPump(conn *websocket.Conn, sess *session.Session, errs chan<- string) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		var cmd command
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("gameId", sess.ID).Msg("websocket read")
			}
			return
		}
		if err := apply(sess, cmd); err != nil {
			select {
			case errs <- errorCode(err):
			default:
			}
		}
	}
}

// writePump is the only writer on conn.
func (s *Server) writePump(conn *websocket.Conn, sess *session.Session, updates <-chan game.Snapshot, errs <-chan string, done <-chan struct{}) {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		conn.Close()
	}()

	first := sess.Snapshot().Public()
	if err := writeFrame(conn, frame{Type: "snapshot", Snapshot: &first}); err != nil {
		return
	}
	for {
		select {
		case <-done:
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case snap, ok := <-updates:
			if !ok {
				// session closed or we fell behind
				_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "session ended"), time.Now().Add(writeWait))
				return
			}
			pub := snap.Public()
			if err := writeFrame(conn, frame{Type: "snapshot", Snapshot: &pub}); err != nil {
				return
			}
		case code := <-errs:
			if err := writeFrame(conn, frame{Type: "error", Error: code}); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeFrame(conn *websocket.Conn, f frame) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(f)
}

// apply routes a websocket command to the session.
func apply(sess *session.Session, cmd command) error {
	switch cmd.Type {
	case "flip":
		_, _, err := sess.Flip(cmd.CardID)
		return err
	case "restart":
		_, err := sess.Restart()
		return err
	case "difficulty":
		d, err := deck.ParseDifficulty(cmd.Level)
		if err != nil {
			return err
		}
		_, err = sess.SetDifficulty(d)
		return err
	case "sound":
		_, err := sess.ToggleSound()
		return err
	default:
		return errUnknownCommand
	}
}

var errUnknownCommand = errors.New("unknown command")

// errorCode maps an error to the code used in JSON responses.
func errorCode(err error) string {
	switch {
	case errors.Is(err, session.ErrInvalidCard):
		return "invalid_card"
	case errors.Is(err, session.ErrLocked):
		return "locked"
	case errors.Is(err, session.ErrClosed):
		return "closed"
	case errors.Is(err, deck.ErrUnknownDifficulty):
		return "unknown_difficulty"
	case errors.Is(err, errUnknownCommand):
		return "unknown_command"
	default:
		return "server_error"
	}
}
