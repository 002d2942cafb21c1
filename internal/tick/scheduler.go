// internal/tick/scheduler.go
//
// Recurring callback at a variable interval.
// Responsibilities:
//   - Fire the latest registered callback every interval.
//   - Treat a zero interval as "paused": nothing is armed.
//   - Restart the timer when the interval changes, without dropping or
//     duplicating a tick.
//
// Notes:
//   - The callback lives in an atomic cell separate from the timer, so swapping
//     it never needs a timer restart and a firing never runs a stale one.
//   - Each timer carries the generation it was armed for; a firing from an old
//     generation is discarded and only the current generation re-arms.

package tick

import (
	"sync"
	"sync/atomic"
	"time"
)

// Scheduler drives a callback at the current interval.
type Scheduler struct {
	clock Clock
	fn    atomic.Pointer[func()]

	mu       sync.Mutex // guards everything below
	interval time.Duration
	gen      uint64
	timer    Timer
	stopped  bool
}

// New returns a paused scheduler for fn. A nil clock means SystemClock.
func New(clock Clock, fn func()) *Scheduler {
	if clock == nil {
		clock = SystemClock
	}
	s := &Scheduler{clock: clock}
	s.SetFunc(fn)
	return s
}

// SetFunc replaces the callback. The next firing runs fn.
func (s *Scheduler) SetFunc(fn func()) {
	if fn == nil {
		s.fn.Store(nil)
		return
	}
	s.fn.Store(&fn)
}

// Interval returns the current interval; zero means paused.
func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// SetInterval changes the cadence. d <= 0 pauses. Setting the current value
// again is a no-op, so an armed tick is not pushed back.
func (s *Scheduler) SetInterval(d time.Duration) {
	if d < 0 {
		d = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || d == s.interval {
		return
	}
	s.interval = d
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if d > 0 {
		s.arm(s.gen)
	}
}

// Stop tears the scheduler down for good. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	s.gen++
	s.interval = 0
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Stopped reports whether Stop has been called.
func (s *Scheduler) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// arm schedules the next firing for gen. Caller holds mu.
func (s *Scheduler) arm(gen uint64) {
	s.timer = s.clock.AfterFunc(s.interval, func() { s.fire(gen) })
}

func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	if s.stopped || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()

	// The callback may call SetInterval or Stop; mu must not be held here.
	if fn := s.fn.Load(); fn != nil {
		(*fn)()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped && gen == s.gen && s.interval > 0 {
		s.arm(gen)
	}
}
