// Package note recognizes timestamped notes and daily notes by file name,
// extracts a note's title heading and formats inbox links to it.
package note

import (
	"path/filepath"
	"regexp"
	"time"
)

// Kind classifies a file name.
type Kind int

const (
	// KindIrrelevant is any name that is neither a note nor a daily note.
	KindIrrelevant Kind = iota
	// KindNote is a timestamped note: YYYYMMDDHHMM.md
	KindNote
	// KindDaily is a daily note: YYYY-MM-DD.md
	KindDaily
)

func (k Kind) String() string {
	switch k {
	case KindNote:
		return "note"
	case KindDaily:
		return "daily"
	default:
		return "irrelevant"
	}
}

const (
	noteLayout = "200601021504"

	// DailyLayout is the time layout of a daily note's file stem.
	DailyLayout = "2006-01-02"

	// DailyExt is the extension used for daily notes created by this program.
	DailyExt = ".md"
)

// Extensions lists the accepted Markdown extensions in order of preference.
var Extensions = []string{".md", ".markdown"}

var (
	noteRe  = regexp.MustCompile(`^(\d{12})\.(md|markdown)$`)
	dailyRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\.(md|markdown)$`)
)

// Name is the result of classifying a file name.
type Name struct {
	Kind Kind
	// Time is the encoded timestamp for notes, or local midnight for
	// daily notes. Zero for irrelevant names.
	Time time.Time
}

// Classify parses a base file name. Names that do not match a pattern, or
// that encode an impossible date or time, are KindIrrelevant.
func Classify(name string) Name {
	if m := noteRe.FindStringSubmatch(name); m != nil {
		t, err := time.ParseInLocation(noteLayout, m[1], time.Local)
		if err != nil {
			return Name{}
		}
		return Name{Kind: KindNote, Time: t}
	}

	if m := dailyRe.FindStringSubmatch(name); m != nil {
		t, err := time.ParseInLocation(DailyLayout, m[1], time.Local)
		if err != nil {
			return Name{}
		}
		return Name{Kind: KindDaily, Time: t}
	}

	return Name{}
}

// IsMarkdown reports whether name carries one of the accepted extensions.
func IsMarkdown(name string) bool {
	ext := filepath.Ext(name)
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// SameDay reports whether a and b fall on the same calendar day in a's
// location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DailyStem returns the daily note file stem for t, e.g. "2024-03-15".
func DailyStem(t time.Time) string {
	return t.Format(DailyLayout)
}
