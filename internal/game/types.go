// internal/game/types.go
//
// Core type definitions for the Text Snake game engine.
// Defines:
//   - Position / Direction: integer grid cells and unit moves.
//   - Rules: grid size and speed progression.
//   - State: an immutable-by-convention snapshot of one game.

package game

import "fmt"

// Position is a grid cell. X grows to the right, Y grows downward.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns p moved one step along d.
func (p Position) Add(d Direction) Position {
	return Position{X: p.X + d.X, Y: p.Y + d.Y}
}

func (p Position) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Y) }

// Direction is a unit vector on one axis.
type Direction struct {
	X int `json:"x"`
	Y int `json:"y"`
}

var (
	Up    = Direction{X: 0, Y: -1}
	Down  = Direction{X: 0, Y: 1}
	Left  = Direction{X: -1, Y: 0}
	Right = Direction{X: 1, Y: 0}
)

// Perpendicular reports whether d turns across the axis of cur.
// A zero component on the requested axis means the turn is a 90 degree one.
func (d Direction) Perpendicular(cur Direction) bool {
	if d.X != 0 {
		return cur.X == 0
	}
	return cur.Y == 0
}

// Valid reports whether d is one of the four unit vectors.
func (d Direction) Valid() bool {
	switch d {
	case Up, Down, Left, Right:
		return true
	}
	return false
}

// Speed values are tick intervals in milliseconds. SpeedNone means the game no
// longer ticks.
const SpeedNone = 0

// Rules holds the board size and speed progression for a game.
type Rules struct {
	GridSize     int // cells per side
	InitialSpeed int // ms per tick at start
	SpeedStep    int // ms removed per food eaten
	MinSpeed     int // floor for the tick interval
}

// DefaultRules returns the classic 20x20 board at 200ms, -5ms per food, floor 50ms.
func DefaultRules() Rules {
	return Rules{
		GridSize:     20,
		InitialSpeed: 200,
		SpeedStep:    5,
		MinSpeed:     50,
	}
}

// Center is the spawn cell of a fresh snake.
func (r Rules) Center() Position {
	return Position{X: r.GridSize / 2, Y: r.GridSize / 2}
}

// Inside reports whether p lies on the board.
func (r Rules) Inside(p Position) bool {
	return p.X >= 0 && p.X < r.GridSize && p.Y >= 0 && p.Y < r.GridSize
}

// State is one game snapshot. Values returned by this package never share the
// Snake backing array with their input, so a State handed to a renderer stays
// valid while the next one is computed.
type State struct {
	Rules     Rules      `json:"-"`
	Snake     []Position `json:"snake"`     // head first
	Food      Position   `json:"food"`      // meaningless when HasFood is false
	HasFood   bool       `json:"-"`         // false only on a full board
	Heading   Direction  `json:"heading"`   // direction of the last move
	Direction Direction  `json:"direction"` // direction the next move will take
	Score     int        `json:"score"`
	Speed     int        `json:"speed"` // ms per tick, SpeedNone when over
	GameOver  bool       `json:"gameOver"`
	Won       bool       `json:"won"` // board filled, no cell left for food
	Tick      int        `json:"tick"`
}

// Head returns the first segment.
func (s State) Head() Position { return s.Snake[0] }

// Occupies reports whether any segment sits on p.
func (s State) Occupies(p Position) bool {
	for _, seg := range s.Snake {
		if seg == p {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := s
	out.Snake = append([]Position(nil), s.Snake...)
	return out
}
