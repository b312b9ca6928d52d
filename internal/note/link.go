package note

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// LinkStyle selects the directory link targets are relative to.
type LinkStyle string

const (
	// LinkRelative makes targets relative to the daily note's directory.
	LinkRelative LinkStyle = "relative"
	// LinkVault makes targets relative to the vault root.
	LinkVault LinkStyle = "vault"
)

// Valid reports whether s is a known link style.
func (s LinkStyle) Valid() bool {
	return s == LinkRelative || s == LinkVault
}

var labelEscaper = strings.NewReplacer(`\`, `\\`, `[`, `\[`, `]`, `\]`)

// linkLineRe matches a list item whose first content is a Markdown link.
var linkLineRe = regexp.MustCompile(`^\s*[-*+]\s+\[(?:\\.|[^\]\\])*\]\((<[^>]*>|[^)\s]+)\)`)

// FormatLink returns the inbox entry for the note at notePath, labelled with
// heading. The target is notePath relative to baseDir using forward slashes.
// The result is the canonical line used both for insertion and for
// duplicate detection.
func FormatLink(notePath, baseDir, heading string) (string, error) {
	rel, err := filepath.Rel(baseDir, notePath)
	if err != nil {
		return "", fmt.Errorf("relative path of %s: %w", notePath, err)
	}

	target := filepath.ToSlash(rel)
	if strings.ContainsAny(target, " ()") {
		target = "<" + target + ">"
	}

	return "- [" + labelEscaper.Replace(heading) + "](" + target + ")", nil
}

// LinkTarget returns the link target of an inbox entry line, without angle
// brackets. The second result is false when line is not a link entry.
func LinkTarget(line string) (string, bool) {
	m := linkLineRe.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	target := strings.TrimSuffix(strings.TrimPrefix(m[1], "<"), ">")
	return target, true
}
