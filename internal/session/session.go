// internal/session/session.go
//
// One running Text Snake game.
// Responsibilities:
//   - Own the engine state and the tick scheduler that advances it.
//   - Serialize ticks, key input and restarts behind one mutex.
//   - Keep the scheduler interval equal to the game speed (paused once over).
//   - Fan snapshots out to subscribers after every change.
//   - Report each finished game exactly once through OnGameOver.
//
// Lock order: Session.mu, then the scheduler's own lock.

package session

import (
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/textsnake/internal/game"
	"github.com/robalobadob/textsnake/internal/tick"
)

var (
	ErrNotOver = errors.New("session: game is not over")
	ErrClosed  = errors.New("session: closed")
)

// Mode selects how food is seeded and how results are ranked.
type Mode string

const (
	ModeClassic Mode = "classic"
	ModeDaily   Mode = "daily"
)

// ParseMode maps an API value to a Mode; anything unknown is classic.
func ParseMode(s string) Mode {
	if Mode(s) == ModeDaily {
		return ModeDaily
	}
	return ModeClassic
}

// Result summarizes one finished game.
type Result struct {
	SessionID  string
	PlayerID   string
	Mode       Mode
	Date       string // daily date key; empty for classic games
	Score      int
	Length     int
	Ticks      int
	Won        bool
	Elapsed    time.Duration
	FinishedAt time.Time
}

// Options configures a session. Zero values fall back to defaults.
type Options struct {
	Rules      game.Rules
	Mode       Mode
	PlayerID   string
	Date       string
	Seed       func() uint64 // food RNG seed per game; nil means random
	Clock      tick.Clock
	OnGameOver func(Result)
}

// Session is safe for concurrent use.
type Session struct {
	id    string
	opts  Options
	clock tick.Clock
	sched *tick.Scheduler

	mu         sync.Mutex
	state      game.State
	rng        *rand.Rand
	startedAt  time.Time
	lastActive time.Time
	reported   bool
	closed     bool
	subs       map[int]chan game.State
	nextSub    int
}

// New builds a session with a fresh game. It does not tick until Start.
func New(id string, opts Options) *Session {
	if opts.Rules.GridSize <= 0 {
		opts.Rules = game.DefaultRules()
	}
	if opts.Mode == "" {
		opts.Mode = ModeClassic
	}
	if opts.Clock == nil {
		opts.Clock = tick.SystemClock
	}
	s := &Session{
		id:    id,
		opts:  opts,
		clock: opts.Clock,
		subs:  make(map[int]chan game.State),
	}
	s.sched = tick.New(opts.Clock, s.step)
	s.resetLocked()
	return s
}

func (s *Session) ID() string       { return s.id }
func (s *Session) Mode() Mode       { return s.opts.Mode }
func (s *Session) PlayerID() string { return s.opts.PlayerID }
func (s *Session) Date() string     { return s.opts.Date }

// Start arms the scheduler at the current game speed.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.sched.SetInterval(interval(s.state.Speed))
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() game.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Interval is the scheduler's current tick interval; zero once the game is over.
func (s *Session) Interval() time.Duration { return s.sched.Interval() }

// LastActive is the time of the last input or restart.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Key applies a key press. Unknown keys and disallowed turns report false.
func (s *Session) Key(name string) bool {
	d, ok := game.KeyDirection(name)
	if !ok {
		return false
	}
	return s.Turn(d)
}

// Turn requests a direction for the next tick.
func (s *Session) Turn(d game.Direction) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.lastActive = s.clock.Now()
	next, ok := game.Turn(s.state, d)
	if ok {
		s.state = next
	}
	return ok
}

// Restart begins a new game. Only allowed once the current one is over.
func (s *Session) Restart() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if !s.state.GameOver {
		return ErrNotOver
	}
	s.resetLocked()
	s.publishLocked(s.state.Clone())
	s.sched.SetInterval(interval(s.state.Speed))
	log.Debug().Str("session", s.id).Msg("restart")
	return nil
}

// Subscribe returns a channel receiving a snapshot after every change, starting
// with the current one. Slow readers only see the latest snapshot. The channel is
// closed by cancel or Close.
func (s *Session) Subscribe() (<-chan game.State, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan game.State, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.state.Clone()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

// Close stops ticking and releases subscribers. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.sched.Stop()
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
}

// step is the scheduler callback: one engine tick.
func (s *Session) step() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.state = game.Advance(s.state, s.rng)
	snap := s.state.Clone()
	s.publishLocked(snap)
	s.sched.SetInterval(interval(snap.Speed))

	var res *Result
	if snap.GameOver && !s.reported {
		s.reported = true
		r := s.resultLocked()
		res = &r
	}
	s.mu.Unlock()

	if res != nil {
		log.Info().Str("session", s.id).Int("score", res.Score).Int("ticks", res.Ticks).Msg("game over")
		if s.opts.OnGameOver != nil {
			s.opts.OnGameOver(*res)
		}
	}
}

func (s *Session) resetLocked() {
	seed := rand.Uint64()
	if s.opts.Seed != nil {
		seed = s.opts.Seed()
	}
	s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	s.state = game.New(s.opts.Rules, s.rng)
	now := s.clock.Now()
	s.startedAt = now
	s.lastActive = now
	s.reported = false
}

func (s *Session) resultLocked() Result {
	now := s.clock.Now()
	return Result{
		SessionID:  s.id,
		PlayerID:   s.opts.PlayerID,
		Mode:       s.opts.Mode,
		Date:       s.opts.Date,
		Score:      s.state.Score,
		Length:     len(s.state.Snake),
		Ticks:      s.state.Tick,
		Won:        s.state.Won,
		Elapsed:    now.Sub(s.startedAt),
		FinishedAt: now,
	}
}

func (s *Session) publishLocked(snap game.State) {
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

// interval converts a speed in ms to a scheduler interval; SpeedNone pauses.
func interval(speedMs int) time.Duration {
	if speedMs <= game.SpeedNone {
		return 0
	}
	return time.Duration(speedMs) * time.Millisecond
}
