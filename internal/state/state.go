package state

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/natefinch/atomic"
)

// LinkState records one note linked into a daily note
type LinkState struct {
	Daily    string    `json:"daily"`
	Label    string    `json:"label"`
	LinkedAt time.Time `json:"linked_at"`
	Hash     string    `json:"hash"`
}

// Link is a LinkState together with the note it belongs to
type Link struct {
	Note string
	LinkState
}

// State is the journal of links added by the daemon, keyed by note path.
// It is safe for concurrent use.
type State struct {
	mu    sync.Mutex
	path  string
	Links map[string]*LinkState `json:"links"`
}

// NewState creates a new empty state that saves to path
func NewState(path string) *State {
	return &State{
		path:  path,
		Links: make(map[string]*LinkState),
	}
}

// Load reads state from the state file
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewState(path), nil
		}
		return nil, err
	}

	state := NewState(path)
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}

	if state.Links == nil {
		state.Links = make(map[string]*LinkState)
	}

	return state, nil
}

// save writes state to the state file. The caller holds s.mu.
func (s *State) save() error {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	return nil
}

// ComputeHash computes SHA256 hash of a file
func ComputeHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return fmt.Sprintf("sha256:%x", h.Sum(nil)), nil
}

// RecordLink stores a link added for notePath and saves the journal
func (s *State) RecordLink(notePath, dailyPath, label string, at time.Time) error {
	// A note removed right after linking still gets its journal entry.
	hash, err := ComputeHash(notePath)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.Links[notePath] = &LinkState{
		Daily:    dailyPath,
		Label:    label,
		LinkedAt: at,
		Hash:     hash,
	}

	return s.save()
}

// Recent returns up to n links, newest first. n <= 0 returns all of them.
func (s *State) Recent(n int) []Link {
	s.mu.Lock()
	links := make([]Link, 0, len(s.Links))
	for note, ls := range s.Links {
		links = append(links, Link{Note: note, LinkState: *ls})
	}
	s.mu.Unlock()

	sort.Slice(links, func(i, j int) bool {
		if links[i].LinkedAt.Equal(links[j].LinkedAt) {
			return links[i].Note < links[j].Note
		}
		return links[i].LinkedAt.After(links[j].LinkedAt)
	})

	if n > 0 && len(links) > n {
		links = links[:n]
	}
	return links
}

// Today returns the links added on the calendar day of now, newest first
func (s *State) Today(now time.Time) []Link {
	y, m, d := now.Date()
	var out []Link
	for _, l := range s.Recent(0) {
		ly, lm, ld := l.LinkedAt.In(now.Location()).Date()
		if ly == y && lm == m && ld == d {
			out = append(out, l)
		}
	}
	return out
}

// GetLinkedAt returns when notePath was linked, or the zero time
func (s *State) GetLinkedAt(notePath string) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ls, exists := s.Links[notePath]; exists {
		return ls.LinkedAt
	}
	return time.Time{}
}
