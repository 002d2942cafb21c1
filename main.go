package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/textsnake/assets"
	"github.com/robalobadob/textsnake/internal/config"
	"github.com/robalobadob/textsnake/internal/httpserver"
	"github.com/robalobadob/textsnake/internal/render"
	"github.com/robalobadob/textsnake/internal/scores"
	"github.com/robalobadob/textsnake/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("bad configuration")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	db, err := scores.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("failed to open database")
	}
	defer db.Close()
	migrations, err := assets.Migrations()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load migrations")
	}
	if err := scores.Migrate(db, migrations); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	glyphs, err := render.Load(cfg.GlyphsFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.GlyphsFile).Msg("failed to load glyphs")
	}
	glyphs = glyphs.With(cfg.SnakeText, cfg.FoodText)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mem := store.NewMemoryStore()
	defer mem.CloseAll()
	go sweepIdle(ctx, mem, cfg.SessionIdleTTL)

	srv := httpserver.New(cfg, mem, scores.NewStore(db), glyphs)
	log.Info().Str("port", cfg.Port).Int("grid", cfg.Rules.GridSize).Msg("starting textsnake server")
	if err := srv.Start(ctx, ":"+cfg.Port); err != nil {
		log.Error().Err(err).Msg("server exited")
	}
	log.Info().Int("sessions", mem.Len()).Msg("closing live sessions")
}

// sweepIdle drops sessions nobody has touched for ttl.
func sweepIdle(ctx context.Context, st store.Store, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	t := time.NewTicker(max(ttl/4, time.Second))
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := st.Sweep(ctx, now.Add(-ttl)); n > 0 {
				log.Debug().Int("removed", n).Msg("swept idle sessions")
			}
		}
	}
}
