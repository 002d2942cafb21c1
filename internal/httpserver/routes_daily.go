// internal/httpserver/routes_daily.go
//
// Leaderboards and the "Daily Challenge" status.
//   - GET /daily/today       → today's date key and whether the caller already has a recorded run
//   - GET /daily/leaderboard → top runs for today (or ?date=YYYY-MM-DD)
//   - GET /scores/top        → best classic games of all time
//
// Daily games themselves are started through POST /game/new {"mode":"daily"}.
// Each player is ranked on their first finished daily run only.

package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/textsnake/internal/daily"
)

const (
	defaultBoardLimit = 20
	maxBoardLimit     = 100
)

// mountDaily registers the leaderboard routes.
func (s *Server) mountDaily(r chi.Router) {
	r.Get("/daily/today", s.handleDailyToday)
	r.Get("/daily/leaderboard", s.handleDailyLeaderboard)
	r.Get("/scores/top", s.handleTopScores)
}

func (s *Server) handleDailyToday(w http.ResponseWriter, r *http.Request) {
	userID, anonID := s.playerID(w, r)
	player := userID
	if player == "" {
		player = anonID
	}
	date := daily.DateKey(s.clock.Now())
	played, err := s.scores.AlreadyPlayed(r.Context(), player, date)
	if err != nil {
		log.Error().Err(err).Msg("daily lookup")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"date": date, "played": played})
}

// handleDailyLeaderboard returns the top runs for a date.
// Query param `date` is optional and defaults to today (UTC).
func (s *Server) handleDailyLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(s.clock.Now())
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		http.Error(w, `{"error":"bad_date"}`, http.StatusBadRequest)
		return
	}
	rows, err := s.scores.DailyLeaderboard(r.Context(), date, limitParam(r))
	if err != nil {
		log.Error().Err(err).Str("date", date).Msg("daily leaderboard")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"date": date, "rows": rows})
}

func (s *Server) handleTopScores(w http.ResponseWriter, r *http.Request) {
	rows, err := s.scores.Leaderboard(r.Context(), limitParam(r))
	if err != nil {
		log.Error().Err(err).Msg("leaderboard")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"rows": rows})
}

// limitParam reads ?limit=, clamped to [1, maxBoardLimit].
func limitParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return defaultBoardLimit
	}
	return min(n, maxBoardLimit)
}
