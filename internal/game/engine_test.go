package game

import (
	"math/rand/v2"
	"reflect"
	"testing"
)

// seqRand returns scripted values modulo n.
type seqRand struct {
	vals []int
	i    int
}

func (r *seqRand) IntN(n int) int {
	v := r.vals[r.i%len(r.vals)]
	r.i++
	return v % n
}

func newRunning(t *testing.T, snake []Position, heading Direction, food Position) State {
	t.Helper()
	return State{
		Rules:     DefaultRules(),
		Snake:     snake,
		Food:      food,
		HasFood:   true,
		Heading:   heading,
		Direction: heading,
		Speed:     DefaultRules().InitialSpeed,
	}
}

func TestNewStartsAtCenterHeadingRight(t *testing.T) {
	s := New(DefaultRules(), rand.New(rand.NewPCG(1, 2)))

	if want := []Position{{10, 10}}; !reflect.DeepEqual(s.Snake, want) {
		t.Fatalf("snake = %v, want %v", s.Snake, want)
	}
	if s.Direction != Right || s.Heading != Right {
		t.Fatalf("direction = %v heading = %v, want right", s.Direction, s.Heading)
	}
	if s.Score != 0 || s.Speed != 200 || s.GameOver || s.Tick != 0 {
		t.Fatalf("unexpected fresh state: %+v", s)
	}
	if !s.HasFood || s.Occupies(s.Food) {
		t.Fatalf("food %v must be placed off the snake", s.Food)
	}
}

func TestAdvanceEatsFoodGrowsAndSpeedsUp(t *testing.T) {
	s := newRunning(t, []Position{{10, 10}}, Right, Position{11, 10})

	next := Advance(s, &seqRand{vals: []int{3, 4}})

	if next.Head() != (Position{11, 10}) {
		t.Fatalf("head = %v, want (11,10)", next.Head())
	}
	if next.Score != 1 {
		t.Fatalf("score = %d, want 1", next.Score)
	}
	if len(next.Snake) != 2 {
		t.Fatalf("snake length = %d, want 2", len(next.Snake))
	}
	if next.Speed != 195 {
		t.Fatalf("speed = %d, want 195", next.Speed)
	}
	if next.Food != (Position{3, 4}) {
		t.Fatalf("food = %v, want (3,4)", next.Food)
	}
}

func TestAdvanceMovesWithoutGrowing(t *testing.T) {
	s := newRunning(t, []Position{{5, 5}, {4, 5}, {3, 5}}, Right, Position{0, 0})

	next := Advance(s, &seqRand{vals: []int{0}})

	want := []Position{{6, 5}, {5, 5}, {4, 5}}
	if !reflect.DeepEqual(next.Snake, want) {
		t.Fatalf("snake = %v, want %v", next.Snake, want)
	}
	if next.Tick != 1 || next.Score != 0 || next.Speed != 200 {
		t.Fatalf("unexpected counters: %+v", next)
	}
}

func TestAdvanceWallCollisionEndsGame(t *testing.T) {
	s := newRunning(t, []Position{{19, 10}}, Right, Position{0, 0})

	next := Advance(s, &seqRand{vals: []int{0}})

	if !next.GameOver {
		t.Fatal("expected game over")
	}
	if next.Speed != SpeedNone {
		t.Fatalf("speed = %d, want none", next.Speed)
	}
	if !reflect.DeepEqual(next.Snake, s.Snake) {
		t.Fatalf("snake changed on collision: %v", next.Snake)
	}
}

func TestAdvanceWallCollisionOnEveryEdge(t *testing.T) {
	cases := []struct {
		name string
		head Position
		dir  Direction
	}{
		{"left", Position{0, 7}, Left},
		{"right", Position{19, 7}, Right},
		{"top", Position{7, 0}, Up},
		{"bottom", Position{7, 19}, Down},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newRunning(t, []Position{tc.head}, tc.dir, Position{10, 10})
			if next := Advance(s, &seqRand{vals: []int{0}}); !next.GameOver {
				t.Fatalf("expected game over leaving through %s edge", tc.name)
			}
		})
	}
}

func TestAdvanceSelfCollisionEndsGame(t *testing.T) {
	// Head moving left with the body curled below it; turning down runs
	// into the last segment.
	s := newRunning(t, []Position{{5, 5}, {6, 5}, {6, 6}, {5, 6}}, Left, Position{0, 0})

	s, ok := Turn(s, Down)
	if !ok {
		t.Fatal("turn down should be accepted while heading left")
	}
	next := Advance(s, &seqRand{vals: []int{0}})

	if !next.GameOver {
		t.Fatal("expected game over on self collision")
	}
	if !reflect.DeepEqual(next.Snake, s.Snake) {
		t.Fatalf("snake changed on collision: %v", next.Snake)
	}
}

func TestAdvanceOnFinishedGameIsNoop(t *testing.T) {
	s := newRunning(t, []Position{{19, 10}}, Right, Position{0, 0})
	over := Advance(s, &seqRand{vals: []int{0}})

	again := Advance(over, &seqRand{vals: []int{0}})
	if !again.GameOver || again.Speed != SpeedNone || again.Tick != over.Tick {
		t.Fatalf("finished game must stay finished: %+v", again)
	}
}

func TestAdvanceDoesNotMutateInput(t *testing.T) {
	s := newRunning(t, []Position{{5, 5}, {4, 5}}, Right, Position{6, 5})
	before := s.Clone()

	_ = Advance(s, &seqRand{vals: []int{9, 9}})

	if !reflect.DeepEqual(s, before) {
		t.Fatalf("input mutated: %+v, was %+v", s, before)
	}
}

func TestTurnRejectsReversal(t *testing.T) {
	s := newRunning(t, []Position{{5, 5}, {4, 5}}, Right, Position{0, 0})

	if _, ok := Turn(s, Left); ok {
		t.Fatal("reversal must be ignored")
	}
	if _, ok := Turn(s, Right); ok {
		t.Fatal("same-axis request must be ignored")
	}
	if got, ok := Turn(s, Up); !ok || got.Direction != Up {
		t.Fatalf("perpendicular turn rejected: %v %v", ok, got.Direction)
	}
}

func TestTurnTwiceBeforeTickCannotReverse(t *testing.T) {
	s := newRunning(t, []Position{{5, 5}, {4, 5}}, Right, Position{0, 0})

	s, _ = Turn(s, Up)
	s, ok := Turn(s, Left)
	if ok || s.Direction != Up {
		t.Fatalf("left after up within one tick must be ignored, direction = %v", s.Direction)
	}

	s, ok = Turn(s, Down)
	if !ok || s.Direction != Down {
		t.Fatalf("last perpendicular request should win, direction = %v", s.Direction)
	}
}

func TestTurnIgnoredWhenOver(t *testing.T) {
	s := newRunning(t, []Position{{5, 5}}, Right, Position{0, 0})
	s.GameOver = true

	if _, ok := Turn(s, Up); ok {
		t.Fatal("turns must be ignored after game over")
	}
}

func TestLengthGrowsOnlyOnFood(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	s := New(DefaultRules(), rng)
	dirs := []Direction{Up, Down, Left, Right}

	for i := 0; i < 2000 && !s.GameOver; i++ {
		if i%3 == 0 {
			s, _ = Turn(s, dirs[rng.IntN(len(dirs))])
		}
		next := Advance(s, rng)
		if next.GameOver {
			break
		}
		grew := len(next.Snake) - len(s.Snake)
		ate := next.Score - s.Score
		if grew != ate || (grew != 0 && grew != 1) {
			t.Fatalf("tick %d: grew %d, ate %d", i, grew, ate)
		}
		if next.Occupies(next.Food) {
			t.Fatalf("tick %d: food %v placed on snake", i, next.Food)
		}
		seen := map[Position]bool{}
		for _, p := range next.Snake {
			if seen[p] {
				t.Fatalf("tick %d: snake overlaps itself at %v", i, p)
			}
			seen[p] = true
		}
		s = next
	}
}

func TestSpeedFloorsAtMinimum(t *testing.T) {
	s := newRunning(t, []Position{{1, 1}}, Right, Position{2, 1})
	s.Speed = 52

	next := Advance(s, &seqRand{vals: []int{15, 15}})
	if next.Speed != 50 {
		t.Fatalf("speed = %d, want 50", next.Speed)
	}

	next.Food = next.Head().Add(Right)
	next = Advance(next, &seqRand{vals: []int{15, 16}})
	if next.Speed != 50 {
		t.Fatalf("speed = %d, want floor 50", next.Speed)
	}
}

func TestFullBoardEndsGameAsWon(t *testing.T) {
	rules := Rules{GridSize: 2, InitialSpeed: 200, SpeedStep: 5, MinSpeed: 50}
	s := State{
		Rules:     rules,
		Snake:     []Position{{0, 1}, {1, 1}, {1, 0}},
		Food:      Position{0, 0},
		HasFood:   true,
		Heading:   Left,
		Direction: Up,
		Speed:     200,
	}

	next := Advance(s, &seqRand{vals: []int{0}})

	if !next.GameOver || !next.Won {
		t.Fatalf("expected won game over, got %+v", next)
	}
	if len(next.Snake) != 4 || next.Score != 1 {
		t.Fatalf("snake %v score %d", next.Snake, next.Score)
	}
}

func TestPlaceFoodFallsBackToFreeCell(t *testing.T) {
	rules := Rules{GridSize: 3}
	snake := []Position{{0, 0}, {1, 0}, {2, 0}, {2, 1}, {1, 1}, {0, 1}, {0, 2}, {1, 2}}

	// Always proposing (0,0) exhausts the attempts; the only free cell remains.
	p, ok := PlaceFood(rules, snake, &seqRand{vals: []int{0}})
	if !ok || p != (Position{2, 2}) {
		t.Fatalf("PlaceFood = %v %v, want (2,2) true", p, ok)
	}

	full := append(snake, Position{2, 2})
	if _, ok := PlaceFood(rules, full, &seqRand{vals: []int{0}}); ok {
		t.Fatal("full board must report no food")
	}
}

func TestKeyDirection(t *testing.T) {
	cases := map[string]Direction{
		"ArrowUp":    Up,
		"ArrowDown":  Down,
		"ArrowLeft":  Left,
		"ArrowRight": Right,
		"w":          Up,
		" D ":        Right,
	}
	for key, want := range cases {
		if got, ok := KeyDirection(key); !ok || got != want {
			t.Errorf("KeyDirection(%q) = %v %v, want %v", key, got, ok, want)
		}
	}
	if _, ok := KeyDirection("Enter"); ok {
		t.Error("unknown keys must be ignored")
	}
}
