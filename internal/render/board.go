package render

import (
	"fmt"
	"strings"

	"github.com/robalobadob/textsnake/internal/game"
)

// Cell is one drawn grid cell.
type Cell struct {
	R    rune
	Kind CellKind
}

// CellKind tells clients how to style a cell.
type CellKind uint8

const (
	KindEmpty CellKind = iota
	KindFood
	KindSnake
	KindHead
)

// Cells lays out a snapshot as rows of cells. Food text starts at the food cell
// and runs right until the board edge; the snake is drawn on top of it.
func Cells(s game.State, g Glyphs) [][]Cell {
	n := s.Rules.GridSize
	empty := g.Empty
	if empty == 0 {
		empty = '.'
	}
	rows := make([][]Cell, n)
	for y := range rows {
		rows[y] = make([]Cell, n)
		for x := range rows[y] {
			rows[y][x] = Cell{R: empty, Kind: KindEmpty}
		}
	}

	if s.HasFood && s.Rules.Inside(s.Food) {
		x := s.Food.X
		for _, r := range g.Food {
			if x >= n {
				break
			}
			rows[s.Food.Y][x] = Cell{R: r, Kind: KindFood}
			x++
		}
	}

	snake := []rune(g.Snake)
	for i := len(s.Snake) - 1; i >= 0; i-- {
		p := s.Snake[i]
		if !s.Rules.Inside(p) {
			continue
		}
		r := empty
		if len(snake) > 0 {
			r = snake[i%len(snake)]
		}
		kind := KindSnake
		if i == 0 {
			kind = KindHead
		}
		rows[p.Y][p.X] = Cell{R: r, Kind: kind}
	}
	return rows
}

// Board renders a snapshot as text rows.
func Board(s game.State, g Glyphs) []string {
	cells := Cells(s, g)
	out := make([]string, len(cells))
	var b strings.Builder
	for y, row := range cells {
		b.Reset()
		for _, c := range row {
			b.WriteRune(c.R)
		}
		out[y] = b.String()
	}
	return out
}

// Frame renders the board with a status line underneath.
func Frame(s game.State, g Glyphs) string {
	var b strings.Builder
	for _, row := range Board(s, g) {
		b.WriteString(row)
		b.WriteByte('\n')
	}
	b.WriteString(Status(s))
	b.WriteByte('\n')
	return b.String()
}

// Status is the one-line score summary.
func Status(s game.State) string {
	if s.GameOver {
		if s.Won {
			return fmt.Sprintf("Board cleared! Final Score: %d", s.Score)
		}
		return fmt.Sprintf("Game Over! Final Score: %d", s.Score)
	}
	return fmt.Sprintf("Score: %d", s.Score)
}
