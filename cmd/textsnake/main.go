// Command textsnake plays Text Snake in the terminal.
//
// The game runs on the same session and tick scheduler as the server; this
// program only draws snapshots with tcell and feeds key presses back in.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/textsnake/internal/daily"
	"github.com/robalobadob/textsnake/internal/game"
	"github.com/robalobadob/textsnake/internal/render"
	"github.com/robalobadob/textsnake/internal/session"
)

var (
	logFlag    = flag.String("log", "", "write debug logs to this file")
	gridFlag   = flag.Int("grid", 20, "cells per board side")
	speedFlag  = flag.Int("speed", 200, "initial tick interval in ms")
	glyphsFlag = flag.String("glyphs", "", "glyph file (snake=/food= lines)")
	snakeFlag  = flag.String("snake", "", "override snake text")
	foodFlag   = flag.String("food", "", "override food text")
	dailyFlag  = flag.Bool("daily", false, "play today's daily board")
	saltFlag   = flag.String("salt", "local_dev_salt", "salt for the daily seed")
	muteFlag   = flag.Bool("mute", false, "disable sound")
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "\ntextsnake crashed: %v\n%s\n", r, debug.Stack())
			os.Exit(1)
		}
	}()
	flag.Parse()

	logFile, err := setupLogging(*logFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "log file: %v\n", err)
		os.Exit(1)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	rules := game.DefaultRules()
	rules.GridSize = *gridFlag
	rules.InitialSpeed = max(*speedFlag, rules.MinSpeed)
	if rules.GridSize < 2 {
		fmt.Fprintln(os.Stderr, "grid must be at least 2")
		os.Exit(2)
	}

	glyphs, err := render.Load(*glyphsFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "glyphs: %v\n", err)
		os.Exit(1)
	}
	glyphs = glyphs.With(*snakeFlag, *foodFlag)

	opts := session.Options{
		Rules: rules,
		OnGameOver: func(r session.Result) {
			log.Info().Int("score", r.Score).Int("length", r.Length).Dur("elapsed", r.Elapsed).Msg("game over")
		},
	}
	if *dailyFlag {
		now := time.Now()
		opts.Mode = session.ModeDaily
		opts.Date = daily.DateKey(now)
		opts.Seed = daily.SeedFunc(now, *saltFlag)
	}

	ui, err := newUI(glyphs, !*muteFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize terminal: %v\n", err)
		os.Exit(1)
	}
	defer ui.cleanup()

	sess := session.New("local", opts)
	defer sess.Close()
	ui.run(sess)
}
