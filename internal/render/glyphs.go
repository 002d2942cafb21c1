// internal/render/glyphs.go
//
// Glyph set management for the text renderer.
//
// Responsibilities:
//   - Load snake/food text from a file, or fall back to the embedded defaults.
//   - Apply per-field overrides (SNAKE_TEXT / FOOD_TEXT from config).
//
// File format (one key per line, '#' comments):
//   snake="ts pmo"
//   food=gurt
// Quoted values keep leading/trailing spaces; unquoted values are trimmed.

package render

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/robalobadob/textsnake/assets"
)

// Glyphs is the text drawn for the snake and the food.
type Glyphs struct {
	Snake string `json:"snake"` // cycled per segment, head first
	Food  string `json:"food"`  // drawn from the food cell rightwards
	Empty rune   `json:"-"`
}

var (
	defaultOnce   sync.Once
	defaultGlyphs Glyphs
	defaultErr    error
)

// Default returns the embedded glyph set, parsed once.
func Default() (Glyphs, error) {
	defaultOnce.Do(func() {
		lines, err := assets.GlyphLines()
		if err != nil {
			defaultErr = err
			return
		}
		defaultGlyphs, defaultErr = parseLines(lines)
	})
	return defaultGlyphs, defaultErr
}

// Load reads glyphs from path, or returns Default when path is empty.
// Keys missing from the file keep their default text.
func Load(path string) (Glyphs, error) {
	def, err := Default()
	if err != nil {
		return Glyphs{}, err
	}
	if path == "" {
		return def, nil
	}
	lines, err := readGlyphFile(path)
	if err != nil {
		return Glyphs{}, fmt.Errorf("read glyphs %s: %w", path, err)
	}
	g, err := parseLines(lines)
	if err != nil {
		return Glyphs{}, fmt.Errorf("parse glyphs %s: %w", path, err)
	}
	return def.With(g.Snake, g.Food), nil
}

// With overrides non-empty fields.
func (g Glyphs) With(snake, food string) Glyphs {
	if snake != "" {
		g.Snake = snake
	}
	if food != "" {
		g.Food = food
	}
	return g
}

func readGlyphFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, s)
	}
	return out, sc.Err()
}

func parseLines(lines []string) (Glyphs, error) {
	g := Glyphs{Empty: '.'}
	for _, line := range lines {
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			return Glyphs{}, fmt.Errorf("line %q: missing '='", line)
		}
		val = strings.TrimSpace(val)
		if strings.HasPrefix(val, `"`) {
			uq, err := strconv.Unquote(val)
			if err != nil {
				return Glyphs{}, fmt.Errorf("line %q: %w", line, err)
			}
			val = uq
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "snake":
			g.Snake = val
		case "food":
			g.Food = val
		default:
			return Glyphs{}, fmt.Errorf("line %q: unknown key", line)
		}
	}
	if g.Snake == "" && g.Food == "" {
		return Glyphs{}, errors.New("no glyphs defined")
	}
	return g, nil
}
