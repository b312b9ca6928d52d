package daily

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gerunddev/dailyinbox/internal/note"
)

var day = time.Date(2024, 3, 15, 10, 30, 0, 0, time.Local)

// newVault creates <tmp>/vault and <tmp>/vault/daily.
func newVault(t *testing.T) (vault, dailyDir string) {
	t.Helper()
	vault = filepath.Join(t.TempDir(), "vault")
	dailyDir = filepath.Join(vault, "daily")
	require.NoError(t, os.MkdirAll(dailyDir, 0o755))
	return vault, dailyDir
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestEnsureLinkedCreatesDailyNote(t *testing.T) {
	vault, dailyDir := newVault(t)
	ed := NewEditor(dailyDir, vault, note.LinkRelative)

	res, err := ed.EnsureLinked(day, filepath.Join(vault, "202403151030.md"), "Grocery List")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dailyDir, "2024-03-15.md"), res.Path)
	assert.True(t, res.Created)
	assert.True(t, res.Added)
	assert.Equal(t, "- [Grocery List](../202403151030.md)", res.Line)

	want := "## Inbox\n- [Grocery List](../202403151030.md)\n"
	if diff := cmp.Diff(want, readFile(t, res.Path)); diff != "" {
		t.Errorf("daily note mismatch (-want +got):\n%s", diff)
	}
}

func TestEnsureLinkedIsIdempotent(t *testing.T) {
	vault, dailyDir := newVault(t)
	ed := NewEditor(dailyDir, vault, note.LinkRelative)
	notePath := filepath.Join(vault, "202403151030.md")

	first, err := ed.EnsureLinked(day, notePath, "Grocery List")
	require.NoError(t, err)
	after1 := readFile(t, first.Path)

	second, err := ed.EnsureLinked(day, notePath, "Grocery List")
	require.NoError(t, err)
	assert.False(t, second.Added)
	assert.False(t, second.Created)

	if diff := cmp.Diff(after1, readFile(t, second.Path)); diff != "" {
		t.Errorf("second call changed the daily note (-first +second):\n%s", diff)
	}
	assert.Equal(t, 1, strings.Count(after1, InboxHeader))
}

func TestEnsureLinkedBackslashHeadingKeepsOneEntry(t *testing.T) {
	vault, dailyDir := newVault(t)
	ed := NewEditor(dailyDir, vault, note.LinkRelative)
	notePath := filepath.Join(vault, "202403151030.md")

	first, err := ed.EnsureLinked(day, notePath, `C:\`)
	require.NoError(t, err)
	require.True(t, first.Added)

	relabel, err := ed.EnsureLinked(day, notePath, "Renamed")
	require.NoError(t, err)
	assert.False(t, relabel.Added)

	want := "## Inbox\n- [C:\\\\](../202403151030.md)\n"
	if diff := cmp.Diff(want, readFile(t, first.Path)); diff != "" {
		t.Errorf("daily note mismatch (-want +got):\n%s", diff)
	}
}

func TestEnsureLinkedExistingContent(t *testing.T) {
	tests := []struct {
		name     string
		existing string
		want     string
	}{
		{
			name:     "no inbox section",
			existing: "# 2024-03-15\n\nSome thoughts\n",
			want:     "# 2024-03-15\n\nSome thoughts\n\n## Inbox\n- [New](../202403151030.md)\n",
		},
		{
			name:     "ends with blank line",
			existing: "# Day\n\n",
			want:     "# Day\n\n## Inbox\n- [New](../202403151030.md)\n",
		},
		{
			name:     "no final newline",
			existing: "# Day",
			want:     "# Day\n\n## Inbox\n- [New](../202403151030.md)\n",
		},
		{
			name:     "empty inbox before another section",
			existing: "## Inbox\n\n## Log\n- ate lunch\n",
			want:     "## Inbox\n- [New](../202403151030.md)\n\n## Log\n- ate lunch\n",
		},
		{
			name:     "appends after existing entries",
			existing: "# Day\n\n## Inbox\n\n- [A](../202403150900.md)\n- [B](../202403150915.md)\n\n## Log\n- x\n",
			want:     "# Day\n\n## Inbox\n\n- [A](../202403150900.md)\n- [B](../202403150915.md)\n- [New](../202403151030.md)\n\n## Log\n- x\n",
		},
		{
			name:     "inbox at end of file",
			existing: "## Inbox\n- [A](../202403150900.md)\n",
			want:     "## Inbox\n- [A](../202403150900.md)\n- [New](../202403151030.md)\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vault, dailyDir := newVault(t)
			path := filepath.Join(dailyDir, "2024-03-15.md")
			require.NoError(t, os.WriteFile(path, []byte(tt.existing), 0o644))

			ed := NewEditor(dailyDir, vault, note.LinkRelative)
			res, err := ed.EnsureLinked(day, filepath.Join(vault, "202403151030.md"), "New")
			require.NoError(t, err)
			assert.True(t, res.Added)
			assert.False(t, res.Created)

			if diff := cmp.Diff(tt.want, readFile(t, path)); diff != "" {
				t.Errorf("daily note mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEnsureLinkedLeavesLinkedNoteUntouched(t *testing.T) {
	tests := []struct {
		name     string
		existing string
	}{
		{"line present verbatim", "# Day\n\n## Log\n- [Grocery List](../202403151030.md)\n"},
		{"same target older label", "## Inbox\n- [Old Title](../202403151030.md)\n"},
		{"line present without inbox", "- [Grocery List](../202403151030.md)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vault, dailyDir := newVault(t)
			path := filepath.Join(dailyDir, "2024-03-15.md")
			require.NoError(t, os.WriteFile(path, []byte(tt.existing), 0o644))

			ed := NewEditor(dailyDir, vault, note.LinkRelative)
			res, err := ed.EnsureLinked(day, filepath.Join(vault, "202403151030.md"), "Grocery List")
			require.NoError(t, err)
			assert.False(t, res.Added)
			assert.Equal(t, tt.existing, readFile(t, path))
		})
	}
}

func TestEnsureLinkedConcurrentNotesSameDay(t *testing.T) {
	vault, dailyDir := newVault(t)
	ed := NewEditor(dailyDir, vault, note.LinkRelative)

	const n = 25
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			notePath := filepath.Join(vault, fmt.Sprintf("2024031510%02d.md", i))
			if _, err := ed.EnsureLinked(day, notePath, fmt.Sprintf("Note %d", i)); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	content := readFile(t, filepath.Join(dailyDir, "2024-03-15.md"))
	assert.Equal(t, 1, strings.Count(content, InboxHeader))
	for i := 0; i < n; i++ {
		line := fmt.Sprintf("- [Note %d](../2024031510%02d.md)\n", i, i)
		assert.Equal(t, 1, strings.Count(content, line), "line %q", line)
	}
}

func TestEnsureLinkedUsesExistingMarkdownExtension(t *testing.T) {
	vault, dailyDir := newVault(t)
	path := filepath.Join(dailyDir, "2024-03-15.markdown")
	require.NoError(t, os.WriteFile(path, []byte("# Day\n"), 0o644))

	ed := NewEditor(dailyDir, vault, note.LinkRelative)
	res, err := ed.EnsureLinked(day, filepath.Join(vault, "202403151030.md"), "T")
	require.NoError(t, err)
	assert.Equal(t, path, res.Path)

	_, err = os.Stat(filepath.Join(dailyDir, "2024-03-15.md"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEnsureLinkedVaultStyle(t *testing.T) {
	vault, dailyDir := newVault(t)
	ed := NewEditor(dailyDir, vault, note.LinkVault)

	res, err := ed.EnsureLinked(day, filepath.Join(vault, "inbox", "202403151030.md"), "T")
	require.NoError(t, err)
	assert.Equal(t, "- [T](inbox/202403151030.md)", res.Line)
}

func TestEnsureLinkedMissingDirectory(t *testing.T) {
	vault, dailyDir := newVault(t)
	missing := filepath.Join(dailyDir, "missing")
	ed := NewEditor(missing, vault, note.LinkRelative)

	_, err := ed.EnsureLinked(day, filepath.Join(vault, "202403151030.md"), "T")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = os.Stat(missing)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEnsureLinkedRemovesCreatedNoteOnFailure(t *testing.T) {
	vault, dailyDir := newVault(t)
	// A relative vault dir makes formatting the link fail after creation.
	ed := NewEditor(dailyDir, "relative/vault", note.LinkVault)

	_, err := ed.EnsureLinked(day, filepath.Join(vault, "202403151030.md"), "T")
	require.Error(t, err)

	_, err = os.Stat(filepath.Join(dailyDir, "2024-03-15.md"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPlanDoesNotWrite(t *testing.T) {
	vault, dailyDir := newVault(t)
	ed := NewEditor(dailyDir, vault, note.LinkRelative)
	notePath := filepath.Join(vault, "202403151030.md")

	plan, err := ed.Plan(day, notePath, "Grocery List")
	require.NoError(t, err)
	assert.False(t, plan.Exists)
	assert.True(t, plan.Added)
	assert.Empty(t, plan.Before)
	assert.Equal(t, "## Inbox\n- [Grocery List](../202403151030.md)\n", plan.After)

	_, err = os.Stat(plan.Path)
	assert.ErrorIs(t, err, os.ErrNotExist)

	res, err := ed.EnsureLinked(day, notePath, "Grocery List")
	require.NoError(t, err)
	assert.Equal(t, plan.After, readFile(t, res.Path))

	plan, err = ed.Plan(day, notePath, "Grocery List")
	require.NoError(t, err)
	assert.True(t, plan.Exists)
	assert.False(t, plan.Added)
	assert.Equal(t, plan.Before, plan.After)
}

func TestIsHeading(t *testing.T) {
	assert.True(t, isHeading("# A"))
	assert.True(t, isHeading("## Log"))
	assert.True(t, isHeading("###"))
	assert.False(t, isHeading("#tag"))
	assert.False(t, isHeading("####### seven"))
	assert.False(t, isHeading("- item"))
}
