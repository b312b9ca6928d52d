package logger

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// Logger wraps charm/log for structured logging
type Logger struct {
	*log.Logger
}

// New creates a new logger with the given output
func New(w io.Writer) *Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
	})
	return &Logger{Logger: l}
}

// NewWithLevel creates a logger with a specific level
func NewWithLevel(w io.Writer, level log.Level) *Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           level,
	})
	return &Logger{Logger: l}
}

// NewFileLogger creates a logger that writes to a file and, when extra
// writers are given, to those as well
func NewFileLogger(path string, level log.Level, extra ...io.Writer) (*Logger, func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, err
	}

	writers := append([]io.Writer{f}, extra...)
	l := NewWithLevel(io.MultiWriter(writers...), level)

	cleanup := func() {
		f.Close()
	}

	return l, cleanup, nil
}

// Discard returns a logger that discards all output
func Discard() *Logger {
	return New(io.Discard)
}

// ParseLevel converts a level name such as "debug" or "warn"
func ParseLevel(name string) (log.Level, error) {
	return log.ParseLevel(name)
}

// With returns a logger that adds the given key/value pairs to every line
func (l *Logger) With(keyvals ...interface{}) *Logger {
	return &Logger{Logger: l.Logger.With(keyvals...)}
}

// WatchStarted logs the start of the watcher
func (l *Logger) WatchStarted(vaultDir, dailyDir string, workers int) {
	l.Info("watch started",
		"vault_dir", vaultDir,
		"daily_dir", dailyDir,
		"workers", workers)
}

// LinkAdded logs a link written to a daily note
func (l *Logger) LinkAdded(file, daily, label string) {
	l.Info("link added",
		"file", file,
		"daily", daily,
		"label", label)
}

// AlreadyLinked logs a note that the daily note already lists
func (l *Logger) AlreadyLinked(file, daily string) {
	l.Debug("already linked",
		"file", file,
		"daily", daily)
}

// DailyCreated logs creation of a new daily note
func (l *Logger) DailyCreated(daily string) {
	l.Info("daily note created",
		"daily", daily)
}

// FileError logs an error for a specific file
func (l *Logger) FileError(file string, err error) {
	l.Error("file error",
		"file", file,
		"error", err)
}

// ConfigLoaded logs successful config loading
func (l *Logger) ConfigLoaded(vaultDir, dailyDir string, debounce time.Duration) {
	l.Debug("config loaded",
		"vault_dir", vaultDir,
		"daily_dir", dailyDir,
		"debounce", debounce)
}

// Skipped logs when a file is skipped
func (l *Logger) Skipped(file, reason string) {
	l.Debug("file skipped",
		"file", file,
		"reason", reason)
}

// Retrying logs a note that is not ready to be linked yet
func (l *Logger) Retrying(file string, attempt int, delay time.Duration) {
	l.Debug("no heading yet",
		"file", file,
		"attempt", attempt,
		"retry_in", delay.Round(time.Millisecond))
}

// Dropped logs a note given up on until its next save
func (l *Logger) Dropped(file string, attempts int) {
	l.Debug("note dropped until next save",
		"file", file,
		"attempts", attempts)
}
