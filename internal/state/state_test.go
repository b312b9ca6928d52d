package state

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestStateSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	statePath := filepath.Join(tmpDir, "state.json")
	notePath := filepath.Join(tmpDir, "202403151030.md")
	if err := os.WriteFile(notePath, []byte("# Grocery List\n"), 0644); err != nil {
		t.Fatalf("Failed to create note: %v", err)
	}

	at := time.Date(2024, 3, 15, 10, 31, 0, 0, time.UTC)
	state := NewState(statePath)
	if err := state.RecordLink(notePath, "/vault/daily/2024-03-15.md", "Grocery List", at); err != nil {
		t.Fatalf("RecordLink failed: %v", err)
	}

	loaded, err := Load(statePath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	ls := loaded.Links[notePath]
	if ls == nil {
		t.Fatal("Link not found after load")
	}
	if ls.Daily != "/vault/daily/2024-03-15.md" {
		t.Errorf("Daily mismatch: got %s", ls.Daily)
	}
	if ls.Label != "Grocery List" {
		t.Errorf("Label mismatch: got %s", ls.Label)
	}
	if !ls.LinkedAt.Equal(at) {
		t.Errorf("LinkedAt mismatch: got %v, want %v", ls.LinkedAt, at)
	}
	if len(ls.Hash) < 7 || ls.Hash[:7] != "sha256:" {
		t.Errorf("Hash should start with 'sha256:', got: %s", ls.Hash)
	}
}

func TestLoadNonExistent(t *testing.T) {
	tmpDir := t.TempDir()
	statePath := filepath.Join(tmpDir, "nonexistent.json")

	// Should return empty state, not error
	state, err := Load(statePath)
	if err != nil {
		t.Fatalf("Load should not error on missing file: %v", err)
	}

	if state == nil {
		t.Fatal("State should not be nil")
	}
	if len(state.Links) != 0 {
		t.Error("State should be empty")
	}
}

func TestLoadCorrupt(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(statePath, []byte("{not json"), 0644); err != nil {
		t.Fatalf("Failed to write state: %v", err)
	}

	if _, err := Load(statePath); err == nil {
		t.Error("Load should fail on a corrupt state file")
	}
}

func TestComputeHash(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test.txt")

	// Write test content
	content := []byte("Hello, World!")
	if err := os.WriteFile(testFile, content, 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	// Compute hash
	hash, err := ComputeHash(testFile)
	if err != nil {
		t.Fatalf("ComputeHash failed: %v", err)
	}

	// Verify format
	if len(hash) == 0 {
		t.Error("Hash should not be empty")
	}
	if hash[:7] != "sha256:" {
		t.Errorf("Hash should start with 'sha256:', got: %s", hash)
	}

	// Compute again - should be same
	hash2, err := ComputeHash(testFile)
	if err != nil {
		t.Fatalf("Second ComputeHash failed: %v", err)
	}
	if hash != hash2 {
		t.Error("Hash should be deterministic")
	}

	// Change content - hash should change
	if err := os.WriteFile(testFile, []byte("Different content"), 0644); err != nil {
		t.Fatalf("Failed to update test file: %v", err)
	}
	hash3, err := ComputeHash(testFile)
	if err != nil {
		t.Fatalf("Third ComputeHash failed: %v", err)
	}
	if hash == hash3 {
		t.Error("Hash should change when content changes")
	}
}

func TestRecordLinkRemovedNote(t *testing.T) {
	tmpDir := t.TempDir()
	state := NewState(filepath.Join(tmpDir, "state.json"))

	gone := filepath.Join(tmpDir, "202403151030.md")
	if err := state.RecordLink(gone, "daily.md", "Gone", time.Now()); err != nil {
		t.Fatalf("RecordLink should tolerate a removed note: %v", err)
	}
	if state.Links[gone].Hash != "" {
		t.Errorf("Hash should be empty for a removed note, got %s", state.Links[gone].Hash)
	}
}

func TestRecentAndToday(t *testing.T) {
	state := NewState(filepath.Join(t.TempDir(), "state.json"))
	base := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	state.Links["a.md"] = &LinkState{Label: "A", LinkedAt: base.Add(-24 * time.Hour)}
	state.Links["b.md"] = &LinkState{Label: "B", LinkedAt: base}
	state.Links["c.md"] = &LinkState{Label: "C", LinkedAt: base.Add(2 * time.Hour)}

	recent := state.Recent(2)
	if len(recent) != 2 {
		t.Fatalf("Recent(2) returned %d links", len(recent))
	}
	if recent[0].Note != "c.md" || recent[1].Note != "b.md" {
		t.Errorf("Recent(2) order = %s, %s; want c.md, b.md", recent[0].Note, recent[1].Note)
	}

	if all := state.Recent(0); len(all) != 3 {
		t.Errorf("Recent(0) returned %d links, want 3", len(all))
	}

	today := state.Today(base)
	if len(today) != 2 {
		t.Fatalf("Today() returned %d links, want 2", len(today))
	}
	if today[0].Label != "C" || today[1].Label != "B" {
		t.Errorf("Today() labels = %s, %s; want C, B", today[0].Label, today[1].Label)
	}
}

func TestGetLinkedAt(t *testing.T) {
	state := NewState(filepath.Join(t.TempDir(), "state.json"))

	// Unknown note - should return zero time
	if at := state.GetLinkedAt("nonexistent.md"); !at.IsZero() {
		t.Error("LinkedAt for unknown note should be zero")
	}

	at := time.Unix(1234567890, 0)
	state.Links["test.md"] = &LinkState{LinkedAt: at}

	if got := state.GetLinkedAt("test.md"); !got.Equal(at) {
		t.Errorf("LinkedAt mismatch: got %v, want %v", got, at)
	}
}

func TestRecordLinkConcurrent(t *testing.T) {
	tmpDir := t.TempDir()
	statePath := filepath.Join(tmpDir, "state.json")
	state := NewState(statePath)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			note := filepath.Join(tmpDir, string(rune('a'+i))+".md")
			if err := state.RecordLink(note, "daily.md", "x", time.Now()); err != nil {
				t.Errorf("RecordLink failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	loaded, err := Load(statePath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.Links) != 10 {
		t.Errorf("Expected 10 links, got %d", len(loaded.Links))
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	// Use nested path to test directory creation
	statePath := filepath.Join(tmpDir, "nested", "dir", "state.json")

	state := NewState(statePath)

	// Should create all parent directories
	if err := state.RecordLink(filepath.Join(tmpDir, "test.md"), "daily.md", "Test", time.Now()); err != nil {
		t.Fatalf("RecordLink failed: %v", err)
	}

	// Verify file exists
	if _, err := os.Stat(statePath); os.IsNotExist(err) {
		t.Error("State file was not created")
	}
}
