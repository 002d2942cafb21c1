// internal/httpserver/ws.go
//
// Live state stream for one session over gorilla/websocket.
//
// Messages are JSON envelopes {"t": type, "p": payload}:
//   - server → client: {"t":"state","p":<snapshot>} after every tick or restart
//   - client → server: {"t":"key","p":{"key":"ArrowUp"}}, {"t":"restart"}
//
// One goroutine reads client messages; the handler goroutine is the only
// writer (states and pings), as gorilla/websocket requires.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/textsnake/internal/session"
)

const (
	msgState   = "state"
	msgKey     = "key"
	msgRestart = "restart"

	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 25 * time.Second
	wsReadLimit  = 4 << 10
)

type envelope struct {
	T string          `json:"t"`
	P json.RawMessage `json:"p,omitempty"`
}

func encodeEnvelope(t string, payload any) ([]byte, error) {
	if t == "" {
		return nil, errors.New("envelope: empty type")
	}
	pb, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{T: t, P: pb})
}

func decodeEnvelope(b []byte) (envelope, error) {
	if len(b) == 0 {
		return envelope{}, errors.New("envelope: empty message")
	}
	var e envelope
	err := json.Unmarshal(b, &e)
	return e, err
}

// handleWS upgrades the request and streams the session until either side leaves
// or the session is closed.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("ws upgrade")
		return
	}
	defer conn.Close()
	logger := hlog.FromRequest(r).With().Str("session", sess.ID()).Logger()

	updates, cancel := sess.Subscribe()
	defer cancel()

	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.Debug().Err(err).Msg("ws read")
				}
				return
			}
			handleClientMessage(sess, msg)
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()
	for {
		select {
		case st, ok := <-updates:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				// Session closed (deleted, swept or shutdown).
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"))
				return
			}
			b, err := encodeEnvelope(msgState, toStateRes(st))
			if err != nil {
				logger.Error().Err(err).Msg("ws encode")
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				logger.Debug().Err(err).Msg("ws write")
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// handleClientMessage applies one client envelope. Malformed messages,
// unknown types and early restarts are ignored.
func handleClientMessage(sess *session.Session, msg []byte) {
	env, err := decodeEnvelope(msg)
	if err != nil {
		return
	}
	switch env.T {
	case msgKey:
		var p keyReq
		if len(env.P) > 0 && json.Unmarshal(env.P, &p) == nil {
			sess.Key(p.Key)
		}
	case msgRestart:
		_ = sess.Restart()
	}
}
