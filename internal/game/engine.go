// internal/game/engine.go
//
// Core game engine for a single Text Snake session.
// Responsibilities:
//   - Create fresh games (single segment at the grid center, heading right).
//   - Advance one tick: move, detect wall/self collisions, eat, grow, speed up.
//   - Accept perpendicular turns only, so the snake can never reverse into itself.
//
// Notes:
//   - Every function is a pure state transition: the input State is never mutated
//     and the result owns its Snake slice.
//   - Collisions are game states (GameOver = true), never errors.
package game

// Source is the randomness used for food placement. *rand.Rand from math/rand/v2
// satisfies it; tests script it.
type Source interface {
	IntN(n int) int
}

// New constructs a fresh game for rules and places the first food.
func New(rules Rules, rng Source) State {
	s := State{
		Rules:     rules,
		Snake:     []Position{rules.Center()},
		Heading:   Right,
		Direction: Right,
		Speed:     rules.InitialSpeed,
	}
	s.Food, s.HasFood = PlaceFood(rules, s.Snake, rng)
	if !s.HasFood {
		// 1x1 board: nothing to eat, nothing to play.
		s.GameOver, s.Won, s.Speed = true, true, SpeedNone
	}
	return s
}

// Advance computes the next tick.
//
// Steps:
//   - New head = head + pending direction.
//   - Off the board, or onto any current segment (tail included, since the tail
//     only leaves on non-food ticks): game over, snake unchanged.
//   - Otherwise prepend the head. On food: score+1, speed up, keep the tail and
//     place new food. Else drop the tail.
//
// A game that is already over is returned unchanged.
func Advance(s State, rng Source) State {
	if s.GameOver {
		return s.Clone()
	}
	dir := s.Direction
	head := s.Head().Add(dir)

	if !s.Rules.Inside(head) || s.Occupies(head) {
		return over(s.Clone())
	}

	next := make([]Position, 0, len(s.Snake)+1)
	next = append(next, head)
	next = append(next, s.Snake...)

	out := s
	out.Heading = dir
	out.Tick++

	if s.HasFood && head == s.Food {
		out.Snake = next
		out.Score++
		out.Speed = max(s.Rules.MinSpeed, s.Speed-s.Rules.SpeedStep)
		out.Food, out.HasFood = PlaceFood(s.Rules, next, rng)
		if !out.HasFood {
			out.Won = true
			return over(out)
		}
		return out
	}

	out.Snake = next[:len(next)-1]
	return out
}

// Turn requests a new direction for the next tick. It is accepted only when
// perpendicular to the direction of the last move and the game is still running;
// anything else is ignored and reported as false. Between two ticks the last
// accepted request wins.
func Turn(s State, d Direction) (State, bool) {
	if s.GameOver || !d.Valid() || !d.Perpendicular(s.Heading) {
		return s, false
	}
	out := s.Clone()
	out.Direction = d
	return out, true
}

// over marks s as finished and stops its clock.
func over(s State) State {
	s.GameOver = true
	s.Speed = SpeedNone
	return s
}
