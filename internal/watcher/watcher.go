// Package watcher links newly created timestamped notes into the daily
// note of the day they were created.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/gerunddev/dailyinbox/internal/daily"
	"github.com/gerunddev/dailyinbox/internal/logger"
)

// maxBackoff caps the delay between heading checks of one note
const maxBackoff = 5 * time.Second

// Linker adds a note link to the daily note for date
type Linker interface {
	EnsureLinked(date time.Time, notePath, heading string) (daily.Result, error)
}

// Journal records links added by the watcher
type Journal interface {
	RecordLink(notePath, dailyPath, label string, at time.Time) error
}

// Options configures a Watcher
type Options struct {
	VaultDir        string
	DailyDir        string
	IncludeDailyDir bool
	Debounce        time.Duration
	MaxAttempts     int
	Workers         int

	// Now returns the current time; defaults to time.Now
	Now func() time.Time
	// Logger defaults to a discarding logger
	Logger *logger.Logger
	// Journal is optional
	Journal Journal
}

// Watcher watches a vault and links new notes into today's daily note
type Watcher struct {
	opts   Options
	linker Linker
	log    *logger.Logger
	fsw    *fsnotify.Watcher

	queue chan task
	done  chan struct{}

	mu      sync.Mutex
	pending map[string]*pendingNote
	closed  bool

	closeOnce sync.Once
	closeErr  error
}

// pendingNote is the debounce state of one path. gen changes on every new
// event so that stale timers and worker results are ignored.
type pendingNote struct {
	timer    *time.Timer
	attempts int
	gen      uint64
}

type task struct {
	path string
	gen  uint64
}

// New creates a Watcher and subscribes to every non-hidden directory under
// the vault. Events are not processed until Run is called.
func New(opts Options, linker Linker) (*Watcher, error) {
	if opts.VaultDir == "" {
		return nil, errors.New("vault directory is required")
	}
	if linker == nil {
		return nil, errors.New("linker is required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		opts:    opts,
		linker:  linker,
		log:     opts.Logger,
		fsw:     fsw,
		queue:   make(chan task, opts.Workers*16),
		done:    make(chan struct{}),
		pending: make(map[string]*pendingNote),
	}

	if err := w.watchTree(opts.VaultDir, false); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("add directories to watcher: %w", err)
	}

	return w, nil
}

// Run processes events until ctx is cancelled or the fsnotify handle is
// closed, then stops pending timers and closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.Close()

	w.log.WatchStarted(w.opts.VaultDir, w.opts.DailyDir, w.opts.Workers)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.loop(gctx)
	})
	for i := 0; i < w.opts.Workers; i++ {
		g.Go(func() error {
			w.work(gctx)
			return nil
		})
	}

	err := g.Wait()
	close(w.done)
	return err
}

// Close stops all pending timers and releases the fsnotify handle
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		w.mu.Lock()
		w.closed = true
		for path, p := range w.pending {
			if p.timer != nil {
				p.timer.Stop()
			}
			delete(w.pending, path)
		}
		w.mu.Unlock()

		w.closeErr = w.fsw.Close()
	})
	return w.closeErr
}

// loop receives fsnotify events until ctx is done
func (w *Watcher) loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watcher closed")
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watcher closed")
			}
			w.log.Error("watcher error", "error", err)
		}
	}
}

// handleEvent processes a single fsnotify event. Renames arrive as a
// Create of the new name.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	switch {
	case event.Has(fsnotify.Create):
		info, err := os.Lstat(event.Name)
		if err != nil {
			// Gone already; any replacement produces its own event.
			return
		}
		if info.IsDir() {
			if w.hidden(event.Name) {
				return
			}
			if err := w.watchTree(event.Name, true); err != nil {
				w.log.FileError(event.Name, err)
			}
			return
		}
		w.consider(event.Name)

	case event.Has(fsnotify.Write):
		w.consider(event.Name)

	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.forget(event.Name)
	}
}

// watchTree adds root and its non-hidden subdirectories to the watch.
// With scan set, Markdown files already present are considered as new.
func (w *Watcher) watchTree(root string, scan bool) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			if scan && d.Type().IsRegular() {
				w.consider(path)
			}
			return nil
		}
		// Skip hidden directories (.obsidian, .git, .trash)
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

// hidden reports whether any path element below the vault root starts
// with a dot
func (w *Watcher) hidden(path string) bool {
	rel, err := filepath.Rel(w.opts.VaultDir, path)
	if err != nil {
		return strings.HasPrefix(filepath.Base(path), ".")
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}

// inDailyDir reports whether path lies inside the daily notes directory
func (w *Watcher) inDailyDir(path string) bool {
	if w.opts.DailyDir == "" {
		return false
	}
	rel, err := filepath.Rel(w.opts.DailyDir, filepath.Dir(path))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// forget cancels the pending work for a removed or renamed path
func (w *Watcher) forget(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if p, ok := w.pending[path]; ok {
		if p.timer != nil {
			p.timer.Stop()
		}
		delete(w.pending, path)
	}
}

// schedule (re)starts the debounce timer for path and resets its attempts
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	p, ok := w.pending[path]
	if !ok {
		p = &pendingNote{}
		w.pending[path] = p
	}
	if p.timer != nil {
		p.timer.Stop()
	}

	p.attempts = 0
	p.gen++
	gen := p.gen
	p.timer = time.AfterFunc(w.opts.Debounce, func() {
		w.fire(path, gen)
	})
}

// fire hands path to the workers unless a newer event superseded it
func (w *Watcher) fire(path string, gen uint64) {
	w.mu.Lock()
	p, ok := w.pending[path]
	if w.closed || !ok || p.gen != gen {
		w.mu.Unlock()
		return
	}
	p.timer = nil
	w.mu.Unlock()

	select {
	case w.queue <- task{path: path, gen: gen}:
	case <-w.done:
	}
}

// finish applies the outcome of processing gen of path: retry with backoff,
// give up, or forget the path
func (w *Watcher) finish(path string, gen uint64, out outcome) {
	w.mu.Lock()
	defer w.mu.Unlock()

	p, ok := w.pending[path]
	if !ok || p.gen != gen {
		// A newer event owns the path now
		return
	}

	if out != outcomeIncomplete || w.closed {
		delete(w.pending, path)
		return
	}

	p.attempts++
	if p.attempts >= w.opts.MaxAttempts {
		delete(w.pending, path)
		w.log.Dropped(path, p.attempts)
		return
	}

	delay := backoff(w.opts.Debounce, p.attempts)
	w.log.Retrying(path, p.attempts, delay)
	p.timer = time.AfterFunc(delay, func() {
		w.fire(path, gen)
	})
}

// backoff returns debounce·2^attempt, capped at maxBackoff
func backoff(debounce time.Duration, attempt int) time.Duration {
	d := debounce
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}

// work consumes queued notes until ctx is done
func (w *Watcher) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-w.queue:
			out := w.safeProcess(t.path)
			w.log.Debug("note processed", "file", t.path, "outcome", out)
			w.finish(t.path, t.gen, out)
		}
	}
}
