package diff

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/glamour"
	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
)

// wordWrap is the column width used for rendered output
const wordWrap = 120

// Unified returns a unified diff of a daily note before and after an edit.
// A note that does not exist yet is shown as /dev/null.
func Unified(path, before, after string, exists bool) string {
	name := filepath.Base(path)
	from := name
	if !exists {
		from = "/dev/null"
	}

	edits := myers.ComputeEdits(span.URIFromPath(name), before, after)
	return fmt.Sprint(gotextdiff.ToUnified(from, name, before, edits))
}

// Generate renders the unified diff of an edit for the terminal
func Generate(path, before, after string, exists bool) string {
	unified := Unified(path, before, after, exists)
	if unified == "" {
		return ""
	}
	return Render(fmt.Sprintf("```diff\n%s```\n", unified))
}

// Render renders Markdown for the terminal. The source is returned
// unchanged when rendering fails.
func Render(markdown string) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wordWrap),
	)
	if err != nil {
		return markdown
	}

	rendered, err := renderer.Render(markdown)
	if err != nil {
		return markdown
	}

	return rendered
}
