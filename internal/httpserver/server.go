// internal/httpserver/server.go
//
// HTTP server wiring for the Text Snake backend.
// Responsibilities:
//   - Router + middleware (request IDs, zerolog request logging, CORS, JSON, panic recovery).
//   - Public endpoints: "/", "/health", "/play".
//   - Game endpoints (optional auth): /game/new, /game/{id}/... and the WebSocket stream.
//   - Leaderboards: /scores/top, /daily/leaderboard.
//   - Auth + profile/stat endpoints (require auth): /auth/*, /stats/me, /games/mine.
//
// Notes:
//   - The WebSocket route sits outside the handler timeout; a stream lives as
//     long as the player keeps it open.
//   - Finished games are persisted from the session's game-over hook, not from a
//     request, so a player who never calls back still gets a score row.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/textsnake/internal/config"
	"github.com/robalobadob/textsnake/internal/render"
	"github.com/robalobadob/textsnake/internal/scores"
	"github.com/robalobadob/textsnake/internal/store"
	"github.com/robalobadob/textsnake/internal/tick"
)

// Server bundles router, live session registry, and score store.
type Server struct {
	r        *chi.Mux
	cfg      config.Config
	store    store.Store
	scores   *scores.Store
	glyphs   render.Glyphs
	clock    tick.Clock
	upgrader websocket.Upgrader
}

// Option tweaks a Server at construction time.
type Option func(*Server)

// WithClock drives session ticks and daily dates from c instead of wall time.
func WithClock(c tick.Clock) Option {
	return func(s *Server) { s.clock = c }
}

// New constructs a Server, installs middleware, and registers routes.
func New(cfg config.Config, st store.Store, sc *scores.Store, glyphs render.Glyphs, opts ...Option) *Server {
	s := &Server{
		r:      chi.NewRouter(),
		cfg:    cfg,
		store:  st,
		scores: sc,
		glyphs: glyphs,
		clock:  tick.SystemClock,
	}
	for _, o := range opts {
		o(s)
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                // add X-Request-ID
	s.r.Use(chimw.RealIP)                   // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(hlog.NewHandler(log.Logger))    // request-scoped logger
	s.r.Use(hlog.AccessHandler(accessLog))  // one line per request
	s.r.Use(chimw.Recoverer)                // recover from panics
	s.r.Use(s.cors)                         // credentials-friendly CORS
	s.r.Use(jsonContentType)                // default JSON responses

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second))

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"service":"textsnake","endpoints":["/health","/play","POST /game/new","/game/{id}","/game/{id}/ws","/scores/top","/daily/leaderboard","/auth/*"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"ok":true,"sessions":` + strconv.Itoa(s.store.Len()) + `}`))
		})
		r.Get("/play", s.handlePlay)

		// Game endpoints: OPTIONAL AUTH (guests can play)
		r.Group(func(r chi.Router) {
			r.Use(s.withOptionalAuth())
			s.mountGame(r)
			s.mountDaily(r)
		})

		// Auth + profile/stats (require auth)
		s.mountAuthRoutes(r)
	})

	// Live stream, no handler timeout.
	s.r.Get("/game/{id}/ws", s.handleWS)

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start serves HTTP on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// checkOrigin accepts same-host pages, the configured client, and non-browser clients.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || origin == s.cfg.ClientOrigin {
		return true
	}
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}

// writeError writes a JSON error body with status code.
func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
