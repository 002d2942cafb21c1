// assets/embed.go
//
// Files compiled into the binary:
//   - glyphs.txt: default snake/food text.
//   - index.html: the browser client served at /play.
//   - sql/*.sql:  schema migrations, applied in lexical order.

package assets

import (
	"bufio"
	"embed"
	"io/fs"
	"strings"
)

//go:embed glyphs.txt index.html sql/*.sql
var FS embed.FS

func readLines(name string) ([]string, error) {
	f, err := FS.Open(name)
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

// GlyphLines returns the non-comment lines of the default glyph file.
func GlyphLines() ([]string, error) {
	return readLines("glyphs.txt")
}

// IndexHTML returns the browser client page.
func IndexHTML() ([]byte, error) {
	return FS.ReadFile("index.html")
}

// Migrations returns the migration directory rooted at sql/.
func Migrations() (fs.FS, error) {
	return fs.Sub(FS, "sql")
}
