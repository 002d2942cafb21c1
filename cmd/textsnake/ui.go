package main

import (
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/textsnake/internal/game"
	"github.com/robalobadob/textsnake/internal/render"
	"github.com/robalobadob/textsnake/internal/session"
)

const sampleRate = beep.SampleRate(44100)

var (
	styleBorder = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleEmpty  = tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
	styleFood   = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleSnake  = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	styleHead   = tcell.StyleDefault.Foreground(tcell.ColorLime).Bold(true).Reverse(true)
	styleText   = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleOver   = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
)

type action int

const (
	actNone action = iota
	actTurn
	actRestart
	actQuit
)

// keyAction maps a key event to what the game should do with it.
// For actTurn the key name is what session.Key understands.
func keyAction(ev *tcell.EventKey) (action, string) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return actQuit, ""
	case tcell.KeyUp:
		return actTurn, "ArrowUp"
	case tcell.KeyDown:
		return actTurn, "ArrowDown"
	case tcell.KeyLeft:
		return actTurn, "ArrowLeft"
	case tcell.KeyRight:
		return actTurn, "ArrowRight"
	case tcell.KeyRune:
		switch r := ev.Rune(); r {
		case 'q', 'Q':
			return actQuit, ""
		case 'r', 'R':
			return actRestart, ""
		case 'w', 'a', 's', 'd', 'W', 'A', 'S', 'D':
			return actTurn, string(r)
		}
	}
	return actNone, ""
}

type ui struct {
	screen    tcell.Screen
	glyphs    render.Glyphs
	audioInit bool
	lastScore int
}

func newUI(glyphs render.Glyphs, sound bool) (*ui, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.HideCursor()

	u := &ui{screen: screen, glyphs: glyphs}
	if sound {
		// Non-fatal, the game runs without sound.
		if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
			log.Warn().Err(err).Msg("audio init failed")
		} else {
			u.audioInit = true
		}
	}
	return u, nil
}

func (u *ui) cleanup() {
	if u.audioInit {
		speaker.Close()
	}
	u.screen.Fini()
}

func (u *ui) playEatSound() {
	if !u.audioInit {
		return
	}
	sine, err := generators.SineTone(sampleRate, 880)
	if err != nil {
		return
	}
	speaker.Play(beep.Take(sampleRate.N(50*time.Millisecond), sine))
}

// run starts sess and loops until the player quits.
func (u *ui) run(sess *session.Session) {
	updates, cancel := sess.Subscribe()
	defer cancel()
	sess.Start()

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := u.screen.PollEvent()
			if ev == nil {
				return // screen finalized
			}
			events <- ev
		}
	}()

	state := sess.Snapshot()
	u.draw(state)
	for {
		select {
		case st, ok := <-updates:
			if !ok {
				return
			}
			if st.Score > u.lastScore {
				u.playEatSound()
			}
			u.lastScore = st.Score
			state = st
			u.draw(state)

		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				act, key := keyAction(ev)
				switch act {
				case actQuit:
					return
				case actTurn:
					sess.Key(key)
				case actRestart:
					if err := sess.Restart(); err == nil {
						u.lastScore = 0
					}
				}
			case *tcell.EventResize:
				u.screen.Sync()
				u.draw(state)
			}
		}
	}
}

func (u *ui) draw(st game.State) {
	u.screen.Clear()
	cells := render.Cells(st, u.glyphs)
	n := len(cells)

	// Each cell is two columns wide so the board looks square.
	for x := -1; x <= 2*n; x++ {
		u.screen.SetContent(x+1, 0, '─', nil, styleBorder)
		u.screen.SetContent(x+1, n+1, '─', nil, styleBorder)
	}
	for y := 0; y <= n+1; y++ {
		u.screen.SetContent(0, y, '│', nil, styleBorder)
		u.screen.SetContent(2*n+1, y, '│', nil, styleBorder)
	}
	u.screen.SetContent(0, 0, '┌', nil, styleBorder)
	u.screen.SetContent(2*n+1, 0, '┐', nil, styleBorder)
	u.screen.SetContent(0, n+1, '└', nil, styleBorder)
	u.screen.SetContent(2*n+1, n+1, '┘', nil, styleBorder)

	for y, row := range cells {
		for x, c := range row {
			u.screen.SetContent(1+2*x, 1+y, c.R, nil, cellStyle(c.Kind))
		}
	}

	u.text(0, n+2, render.Status(st), styleText)
	if st.GameOver {
		u.text(0, n+3, "r: restart   q: quit", styleOver)
	} else {
		u.text(0, n+3, "arrows/wasd: steer   q: quit", styleBorder)
	}
	u.screen.Show()
}

func (u *ui) text(x, y int, s string, style tcell.Style) {
	for _, r := range s {
		u.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func cellStyle(k render.CellKind) tcell.Style {
	switch k {
	case render.KindFood:
		return styleFood
	case render.KindSnake:
		return styleSnake
	case render.KindHead:
		return styleHead
	}
	return styleEmpty
}
