// Package daily maintains the "## Inbox" section of daily notes.
package daily

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/natefinch/atomic"

	"github.com/gerunddev/dailyinbox/internal/note"
)

// InboxHeader is the heading line links are collected under.
const InboxHeader = "## Inbox"

// Result describes what EnsureLinked did.
type Result struct {
	// Path is the daily note that was checked or edited.
	Path string
	// Line is the canonical link entry.
	Line string
	// Created is set when the daily note did not exist before the call.
	Created bool
	// Added is false when the note was already linked.
	Added bool
}

// Editor adds links to daily notes in one directory. It is safe for
// concurrent use; all edits to the same daily note are serialized.
type Editor struct {
	dir       string
	vaultDir  string
	linkStyle note.LinkStyle

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewEditor returns an editor for daily notes stored in dir. vaultDir is
// only used for the vault link style.
func NewEditor(dir, vaultDir string, style note.LinkStyle) *Editor {
	return &Editor{
		dir:       dir,
		vaultDir:  vaultDir,
		linkStyle: style,
		locks:     make(map[string]*sync.Mutex),
	}
}

// lock returns the mutex for one daily note. Entries are never removed;
// there is one per day the process has seen.
func (e *Editor) lock(stem string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	m, ok := e.locks[stem]
	if !ok {
		m = &sync.Mutex{}
		e.locks[stem] = m
	}
	return m
}

// Path returns the daily note path for date: an existing file with any
// accepted extension, or the .md path if none exists yet.
func (e *Editor) Path(date time.Time) (string, error) {
	stem := note.DailyStem(date)
	for _, ext := range note.Extensions {
		p := filepath.Join(e.dir, stem+ext)
		_, err := os.Stat(p)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("stat daily note: %w", err)
		}
	}
	return filepath.Join(e.dir, stem+note.DailyExt), nil
}

// EnsureLinked makes sure the daily note for date lists the note at
// notePath under its inbox heading, labelled with heading. Calling it again
// with the same arguments leaves the daily note byte-for-byte unchanged.
func (e *Editor) EnsureLinked(date time.Time, notePath, heading string) (Result, error) {
	m := e.lock(note.DailyStem(date))
	m.Lock()
	defer m.Unlock()

	path, err := e.Path(date)
	if err != nil {
		return Result{}, err
	}
	res := Result{Path: path}

	created, err := createEmpty(path)
	if err != nil {
		return res, err
	}
	res.Created = created

	res, err = e.link(res, notePath, heading)
	if err != nil && created {
		// Leave no empty daily note behind for a failed call.
		_ = os.Remove(path)
		res.Created = false
	}
	return res, err
}

// Plan describes the edit EnsureLinked would make to a daily note.
type Plan struct {
	Path   string
	Line   string
	Exists bool
	Before string
	After  string
	Added  bool
}

// Plan computes what EnsureLinked would do for the same arguments without
// creating or writing anything.
func (e *Editor) Plan(date time.Time, notePath, heading string) (Plan, error) {
	m := e.lock(note.DailyStem(date))
	m.Lock()
	defer m.Unlock()

	path, err := e.Path(date)
	if err != nil {
		return Plan{}, err
	}
	p := Plan{Path: path}

	p.Line, err = e.formatLine(path, notePath, heading)
	if err != nil {
		return p, err
	}

	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		p.Exists = true
	case errors.Is(err, fs.ErrNotExist):
	default:
		return p, fmt.Errorf("read daily note: %w", err)
	}

	p.Before = string(content)
	p.After, p.Added = insertLink(p.Before, p.Line)
	return p, nil
}

// formatLine formats the link entry for notePath as written into the daily
// note at dailyPath
func (e *Editor) formatLine(dailyPath, notePath, heading string) (string, error) {
	base := filepath.Dir(dailyPath)
	if e.linkStyle == note.LinkVault {
		base = e.vaultDir
	}
	return note.FormatLink(notePath, base, heading)
}

func (e *Editor) link(res Result, notePath, heading string) (Result, error) {
	path := res.Path
	line, err := e.formatLine(path, notePath, heading)
	if err != nil {
		return res, err
	}
	res.Line = line

	content, err := os.ReadFile(path)
	if err != nil {
		return res, fmt.Errorf("read daily note: %w", err)
	}

	updated, added := insertLink(string(content), line)
	if !added {
		return res, nil
	}

	if err := atomic.WriteFile(path, bytes.NewReader([]byte(updated))); err != nil {
		return res, fmt.Errorf("write daily note: %w", err)
	}
	res.Added = true

	return res, nil
}

// createEmpty creates path with no content if it does not exist yet.
func createEmpty(path string) (bool, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("create daily note: %w", err)
	}
	if err := f.Close(); err != nil {
		return true, fmt.Errorf("create daily note: %w", err)
	}
	return true, nil
}

// insertLink returns content with line added to the inbox section, creating
// the section at the end when missing. added is false when content already
// holds line, or an inbox entry with the same target.
func insertLink(content, line string) (string, bool) {
	lines := splitLines(content)

	for _, l := range lines {
		if strings.TrimRight(l, " \t\r") == line {
			return content, false
		}
	}

	header := findInbox(lines)
	if header < 0 {
		if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) != "" {
			lines = append(lines, "")
		}
		lines = append(lines, InboxHeader)
		header = len(lines) - 1
	}

	target, _ := note.LinkTarget(line)
	at := header + 1
	for i := header + 1; i < len(lines); i++ {
		if isHeading(lines[i]) {
			break
		}
		if !isListItem(lines[i]) {
			continue
		}
		if t, ok := note.LinkTarget(lines[i]); ok && t == target {
			return content, false
		}
		at = i + 1
	}

	lines = append(lines[:at], append([]string{line}, lines[at:]...)...)
	return strings.Join(lines, "\n") + "\n", true
}

// splitLines splits content into lines without their terminators. A
// missing final newline is tolerated.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(content, "\n"), "\n")
}

func findInbox(lines []string) int {
	for i, l := range lines {
		if strings.TrimRight(l, " \t\r") == InboxHeader {
			return i
		}
	}
	return -1
}

func isHeading(line string) bool {
	trimmed := strings.TrimLeft(line, " ")
	level := len(trimmed) - len(strings.TrimLeft(trimmed, "#"))
	if level == 0 || level > 6 {
		return false
	}
	rest := trimmed[level:]
	return rest == "" || rest[0] == ' ' || rest[0] == '\t' || rest[0] == '\r'
}

func isListItem(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	if len(trimmed) < 2 {
		return false
	}
	switch trimmed[0] {
	case '-', '*', '+':
		return trimmed[1] == ' ' || trimmed[1] == '\t'
	}
	return false
}
