// internal/httpserver/routes_game.go
//
// Game endpoints. Each /game/new creates a session.Session, registers it in
// the live store and starts its tick scheduler; the session then advances on
// its own. Clients read state by polling /game/{id} or over /game/{id}/ws.
//
//   - POST   /game/new           → create + start ({mode: "classic"|"daily"})
//   - GET    /game/{id}          → snapshot
//   - GET    /game/{id}/board    → text board (text/plain)
//   - POST   /game/{id}/key      → direction input ({key})
//   - POST   /game/{id}/restart  → new game, 409 while still running
//   - DELETE /game/{id}          → stop + forget

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/textsnake/assets"
	"github.com/robalobadob/textsnake/internal/daily"
	"github.com/robalobadob/textsnake/internal/game"
	"github.com/robalobadob/textsnake/internal/render"
	"github.com/robalobadob/textsnake/internal/scores"
	"github.com/robalobadob/textsnake/internal/session"
)

// stateRes is the wire shape of a snapshot.
// Food is null on a full board, Speed is null once the game is over.
type stateRes struct {
	Snake     []game.Position `json:"snake"`
	Food      *game.Position  `json:"food"`
	Direction game.Direction  `json:"direction"`
	Score     int             `json:"score"`
	Speed     *int            `json:"speed"`
	GameOver  bool            `json:"gameOver"`
	Won       bool            `json:"won"`
	Tick      int             `json:"tick"`
	GridSize  int             `json:"gridSize"`
}

func toStateRes(st game.State) stateRes {
	out := stateRes{
		Snake:     st.Snake,
		Direction: st.Direction,
		Score:     st.Score,
		GameOver:  st.GameOver,
		Won:       st.Won,
		Tick:      st.Tick,
		GridSize:  st.Rules.GridSize,
	}
	if st.HasFood {
		f := st.Food
		out.Food = &f
	}
	if st.Speed != game.SpeedNone {
		sp := st.Speed
		out.Speed = &sp
	}
	return out
}

type newGameReq struct {
	Mode string `json:"mode"` // "classic" | "daily"
}
type newGameRes struct {
	GameID string        `json:"gameId"`
	Mode   session.Mode  `json:"mode"`
	Date   string        `json:"date,omitempty"`
	Played bool          `json:"played,omitempty"` // daily already recorded for today
	Glyphs render.Glyphs `json:"glyphs"`
	State  *stateRes     `json:"state,omitempty"`
}

type keyReq struct {
	Key string `json:"key"`
}
type keyRes struct {
	Accepted bool     `json:"accepted"`
	State    stateRes `json:"state"`
}

// mountGame registers /game routes (the WebSocket route is mounted separately).
func (s *Server) mountGame(r chi.Router) {
	r.Post("/game/new", s.handleNewGame)
	r.Get("/game/{id}", s.handleGetGame)
	r.Get("/game/{id}/board", s.handleBoard)
	r.Post("/game/{id}/key", s.handleKey)
	r.Post("/game/{id}/restart", s.handleRestart)
	r.Delete("/game/{id}", s.handleDeleteGame)
}

// handleNewGame creates and starts a session owned by the caller
// (user ID when signed in, anonymous cookie otherwise).
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	_ = json.NewDecoder(r.Body).Decode(&req) // empty body means classic

	userID, anonID := s.playerID(w, r)
	player := userID
	if player == "" {
		player = anonID
	}
	opts := session.Options{
		Rules:      s.cfg.Rules,
		Mode:       session.ParseMode(req.Mode),
		PlayerID:   player,
		Clock:      s.clock,
		OnGameOver: s.recordResult(userID, anonID),
	}

	if opts.Mode == session.ModeDaily {
		now := s.clock.Now()
		opts.Date = daily.DateKey(now)
		played, err := s.scores.AlreadyPlayed(r.Context(), player, opts.Date)
		if err != nil {
			log.Warn().Err(err).Str("player", player).Msg("daily lookup")
		}
		if played {
			_ = json.NewEncoder(w).Encode(newGameRes{Mode: opts.Mode, Date: opts.Date, Played: true, Glyphs: s.glyphs})
			return
		}
		opts.Seed = daily.SeedFunc(now, s.cfg.DailySalt)
	}

	sess := session.New(genID(), opts)
	if err := s.store.Save(r.Context(), sess); err != nil {
		log.Error().Err(err).Msg("save session")
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}
	sess.Start()

	st := toStateRes(sess.Snapshot())
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(newGameRes{
		GameID: sess.ID(),
		Mode:   sess.Mode(),
		Date:   sess.Date(),
		Glyphs: s.glyphs,
		State:  &st,
	})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	_ = json.NewEncoder(w).Encode(toStateRes(sess.Snapshot()))
}

// handleBoard renders the current state as text, one row per line plus a status line.
func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(render.Frame(sess.Snapshot(), s.glyphs)))
}

// handleKey applies one key press. Unknown keys and reversals are not errors;
// they are reported as accepted=false.
func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req keyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	accepted := sess.Key(req.Key)
	_ = json.NewEncoder(w).Encode(keyRes{Accepted: accepted, State: toStateRes(sess.Snapshot())})
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	switch err := sess.Restart(); {
	case errors.Is(err, session.ErrNotOver):
		http.Error(w, `{"error":"game_not_over"}`, http.StatusConflict)
		return
	case errors.Is(err, session.ErrClosed):
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	case err != nil:
		http.Error(w, `{"error":"restart_failed"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(toStateRes(sess.Snapshot()))
}

func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		http.Error(w, `{"error":"delete_failed"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// handlePlay serves the embedded browser client.
func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	page, err := assets.IndexHTML()
	if err != nil {
		http.Error(w, `{"error":"missing_client"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

// lookup resolves {id} to a live session or writes a 404.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

// recordResult persists a finished game (best effort, non-fatal if it fails).
// It runs on the session's tick goroutine, so it uses its own context.
func (s *Server) recordResult(userID, anonID string) func(session.Result) {
	return func(res session.Result) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		date := res.Date
		if date == "" {
			date = daily.DateKey(res.FinishedAt)
		}
		recorded, err := s.scores.InsertResult(ctx, scores.Result{
			SessionID:   res.SessionID,
			UserID:      userID,
			AnonymousID: anonID,
			Mode:        string(res.Mode),
			Date:        date,
			Score:       res.Score,
			Length:      res.Length,
			Ticks:       res.Ticks,
			Won:         res.Won,
			ElapsedMs:   int(res.Elapsed.Milliseconds()),
		})
		if err != nil {
			log.Warn().Err(err).Str("session", res.SessionID).Msg("persist result")
			return
		}
		if res.Mode == session.ModeDaily {
			log.Debug().Str("session", res.SessionID).Bool("recorded", recorded).Str("date", res.Date).Msg("daily result")
		}
	}
}
