package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dailyinbox.log")
	content := strings.Join([]string{
		"2024-03-15 09:00:00 INFO watch started vault_dir=/vault daily_dir=/vault/daily workers=4",
		"2024-03-15 10:31:02 INFO link added file=/vault/202403151030.md daily=/vault/daily/2024-03-15.md label=\"Grocery List\"",
		"2024-03-15 10:45:10 INFO link added file=/vault/202403151044.md daily=/vault/daily/2024-03-15.md label=Ideas",
		"2024-03-15 10:46:00 DEBU already linked file=/vault/202403151044.md daily=/vault/daily/2024-03-15.md",
	}, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	lines, lastLink := ParseLogFile(path, 3)

	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "2024-03-15 10:31:02"))
	assert.Equal(t, time.Date(2024, 3, 15, 10, 45, 10, 0, time.Local), lastLink)
}

func TestParseLogFileNoLinks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dailyinbox.log")
	var b strings.Builder
	for i := 0; i < 5; i++ {
		fmt.Fprintf(&b, "2024-03-15 09:00:0%d DEBU file skipped file=/vault/x%d.md reason=hidden\n", i, i)
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))

	lines, lastLink := ParseLogFile(path, 20)
	assert.Len(t, lines, 5)
	assert.True(t, lastLink.IsZero())
}

func TestParseLogFileMissingOrEmpty(t *testing.T) {
	dir := t.TempDir()

	lines, lastLink := ParseLogFile(filepath.Join(dir, "missing.log"), 10)
	assert.Equal(t, []string{"Unable to read log file"}, lines)
	assert.True(t, lastLink.IsZero())

	empty := filepath.Join(dir, "empty.log")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	lines, _ = ParseLogFile(empty, 10)
	assert.Empty(t, lines)
}
