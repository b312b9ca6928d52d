package commands

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/gerunddev/dailyinbox/internal/config"
	"github.com/gerunddev/dailyinbox/internal/styles"
)

// logTimeLayout matches the timestamp the logger writes at the start of
// every line
const logTimeLayout = time.DateTime

// ParseLogFile reads the last maxLines lines of the log file and returns
// them with the time of the most recent "link added" line among them
func ParseLogFile(logPath string, maxLines int) ([]string, time.Time) {
	content, err := os.ReadFile(logPath)
	if err != nil {
		return []string{"Unable to read log file"}, time.Time{}
	}

	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil, time.Time{}
	}

	startIdx := 0
	if len(lines) > maxLines {
		startIdx = len(lines) - maxLines
	}
	recentLines := lines[startIdx:]

	// Format: 2024-03-15 10:31:02 INFO link added file=...
	var lastLink time.Time
	for i := len(recentLines) - 1; i >= 0; i-- {
		line := recentLines[i]
		if !strings.Contains(line, "link added") || len(line) < len(logTimeLayout) {
			continue
		}
		if t, err := time.ParseInLocation(logTimeLayout, line[:len(logTimeLayout)], time.Local); err == nil {
			lastLink = t
			break
		}
	}

	return recentLines, lastLink
}

// loadConfig parses the command's flags over the config file and the
// environment. With checkDirs, the vault and daily directories must also
// exist and be accessible. Any failure exits the process.
func loadConfig(name string, args []string, checkDirs bool, extra ...func(fs *pflag.FlagSet)) (*config.Config, []string) {
	cfg, rest, err := config.Parse(name, args, extra...)
	if err != nil {
		fail("Invalid arguments", err)
	}

	if err := cfg.Validate(); err != nil {
		fail("Invalid configuration", err)
	}

	if checkDirs {
		if err := cfg.CheckDirs(); err != nil {
			fail("Invalid configuration", err)
		}
	}

	return cfg, rest
}

// fail prints a styled error and exits with status 1
func fail(msg string, err error) {
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	fmt.Fprintln(os.Stderr, styles.ErrorStyle.Render("✗ "+msg))
	os.Exit(1)
}
