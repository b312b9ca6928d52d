package watcher

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/gerunddev/dailyinbox/internal/note"
)

// outcome of processing one note
type outcome int

const (
	// outcomeIgnored means the note is not eligible and is forgotten
	outcomeIgnored outcome = iota
	// outcomeIncomplete means the note has no heading yet or is still
	// being written, and is checked again later
	outcomeIncomplete
	// outcomeDone means the daily note links the note
	outcomeDone
	// outcomeFailed means an error was logged and the note is forgotten
	// until its next save
	outcomeFailed
)

func (o outcome) String() string {
	switch o {
	case outcomeIgnored:
		return "ignored"
	case outcomeIncomplete:
		return "incomplete"
	case outcomeDone:
		return "done"
	case outcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// consider filters an event path and starts debouncing eligible notes
func (w *Watcher) consider(path string) {
	name := filepath.Base(path)

	switch {
	case w.hidden(path):
		w.log.Skipped(path, "hidden")
		return
	case !note.IsMarkdown(name):
		w.log.Skipped(path, "not markdown")
		return
	}

	switch note.Classify(name).Kind {
	case note.KindDaily:
		w.log.Skipped(path, "daily note")
		return
	case note.KindIrrelevant:
		w.log.Skipped(path, "name is not a note timestamp")
		return
	}

	if !w.opts.IncludeDailyDir && w.inDailyDir(path) {
		w.log.Skipped(path, "inside daily notes directory")
		return
	}

	w.schedule(path)
}

// safeProcess runs process, turning a panic into a failed outcome
func (w *Watcher) safeProcess(path string) (out outcome) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("panic while processing note", "file", path, "panic", r)
			out = outcomeFailed
		}
	}()
	return w.process(path)
}

// process links path into today's daily note once it has a heading
func (w *Watcher) process(path string) outcome {
	log := w.log.With("event", uuid.NewString())

	n := note.Classify(filepath.Base(path))
	if n.Kind != note.KindNote {
		return outcomeIgnored
	}

	now := w.opts.Now()
	if !note.SameDay(n.Time, now) {
		log.Skipped(path, "not created today")
		return outcomeIgnored
	}

	before, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Skipped(path, "file vanished")
			return outcomeIgnored
		}
		log.FileError(path, err)
		return outcomeFailed
	}
	if !before.Mode().IsRegular() {
		log.Skipped(path, "not a regular file")
		return outcomeIgnored
	}

	src, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Skipped(path, "file vanished")
			return outcomeIgnored
		}
		log.FileError(path, err)
		return outcomeFailed
	}

	heading, ok := note.Heading(src)
	if !ok {
		return outcomeIncomplete
	}

	after, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Skipped(path, "file vanished")
			return outcomeIgnored
		}
		log.FileError(path, err)
		return outcomeFailed
	}
	if after.Size() != before.Size() || !after.ModTime().Equal(before.ModTime()) {
		log.Debug("note changed while reading", "file", path)
		return outcomeIncomplete
	}

	res, err := w.linker.EnsureLinked(n.Time, path, heading)
	if err != nil {
		log.FileError(path, fmt.Errorf("link into daily note: %w", err))
		return outcomeFailed
	}

	if res.Created {
		log.DailyCreated(res.Path)
	}
	if !res.Added {
		log.AlreadyLinked(path, res.Path)
		return outcomeDone
	}

	log.LinkAdded(path, res.Path, heading)

	if w.opts.Journal != nil {
		if err := w.opts.Journal.RecordLink(path, res.Path, heading, now); err != nil {
			log.Warn("failed to record link", "file", path, "error", err)
		}
	}

	return outcomeDone
}
