package note

import (
	"bytes"
	"os"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Heading returns the trimmed text of the first level-1 ATX heading in src.
// The second result is false when there is no such heading or when the
// first one is empty; a note that is still being drafted is expected to hit
// this case.
func Heading(src []byte) (string, bool) {
	body := stripFrontmatter(src)

	doc := goldmark.New().Parser().Parse(text.NewReader(body))
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Level != 1 {
			continue
		}

		lines := h.Lines()
		if lines.Len() == 0 {
			// "#" on its own line.
			return "", false
		}
		if !isATX(body, lines.At(0).Start) {
			continue
		}

		var b strings.Builder
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			b.Write(seg.Value(body))
		}

		title := strings.TrimSpace(b.String())
		if title == "" {
			return "", false
		}
		return title, true
	}

	return "", false
}

// ReadHeading reads path and returns its heading. The file is read on every
// call so a later save is always observed.
func ReadHeading(path string) (string, bool, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return "", false, err
	}
	title, ok := Heading(src)
	return title, ok, nil
}

// isATX reports whether the heading content starting at offset is preceded
// on its line by the "#" marker. Setext headings start at the line start.
func isATX(src []byte, offset int) bool {
	start := bytes.LastIndexByte(src[:offset], '\n') + 1
	prefix := strings.TrimSpace(string(src[start:offset]))
	return prefix == "#"
}

// stripFrontmatter removes a leading YAML/TOML/JSON front matter block.
// Malformed front matter, and a block without any key (such as a "---"
// rule followed by a heading), is left in place.
func stripFrontmatter(src []byte) []byte {
	var matter map[string]any
	rest, err := frontmatter.Parse(bytes.NewReader(src), &matter)
	if err != nil || len(matter) == 0 {
		return src
	}
	return rest
}
