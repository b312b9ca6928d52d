package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"

	"github.com/gerunddev/dailyinbox/internal/config"
	"github.com/gerunddev/dailyinbox/internal/daily"
	"github.com/gerunddev/dailyinbox/internal/diff"
	"github.com/gerunddev/dailyinbox/internal/note"
	"github.com/gerunddev/dailyinbox/internal/state"
	"github.com/gerunddev/dailyinbox/internal/styles"
)

// Link links the given notes into today's daily note without running the
// watcher. Notes created on other days are reported and skipped. With
// --dry-run the daily note changes are shown as a diff instead.
func Link(args []string) {
	var dryRun bool
	cfg, files := loadConfig("link", args, true, func(fs *pflag.FlagSet) {
		fs.BoolVarP(&dryRun, "dry-run", "n", false, "show the daily note changes without writing them")
	})
	if len(files) == 0 {
		fail("Usage: dailyinbox link [--dry-run] [options] <note.md>...", nil)
	}

	editor := daily.NewEditor(cfg.DailyDir, cfg.VaultDir, note.LinkStyle(cfg.LinkStyle))
	now := time.Now()

	if dryRun {
		previewLinks(editor, files, now)
		return
	}

	st, err := state.Load(config.StateFilePath())
	if err != nil {
		fail("Failed to load state", err)
	}

	failed := 0
	for _, file := range files {
		res, label, err := linkOne(editor, st, file, now)
		switch {
		case err != nil:
			failed++
			fmt.Println(styles.ErrorStyle.Render(fmt.Sprintf("✗ %s: %v", file, err)))
		case res.Added:
			fmt.Println(styles.SuccessStyle.Render(fmt.Sprintf("✓ %s → %s", label, res.Path)))
		default:
			fmt.Println(styles.DimStyle.Render(fmt.Sprintf("= %s already linked in %s%s", label, res.Path, linkedAt(st, file))))
		}
	}

	if failed > 0 {
		fail(fmt.Sprintf("%d of %d notes not linked", failed, len(files)), nil)
	}
}

// previewLinks prints the diff each note would cause on its own
func previewLinks(editor *daily.Editor, files []string, now time.Time) {
	failed := 0
	for _, file := range files {
		plan, label, err := planOne(editor, file, now)
		switch {
		case err != nil:
			failed++
			fmt.Println(styles.ErrorStyle.Render(fmt.Sprintf("✗ %s: %v", file, err)))
		case plan.Added:
			fmt.Println(styles.HighlightStyle.Render(fmt.Sprintf("%s → %s", label, plan.Path)))
			fmt.Print(diff.Generate(plan.Path, plan.Before, plan.After, plan.Exists))
		default:
			fmt.Println(styles.DimStyle.Render(fmt.Sprintf("= %s already linked in %s", label, plan.Path)))
		}
	}

	if failed > 0 {
		fail(fmt.Sprintf("%d of %d notes cannot be linked", failed, len(files)), nil)
	}
}

// resolveNote checks that file is a note created on the day of now and
// returns its absolute path, name and heading
func resolveNote(file string, now time.Time) (string, note.Name, string, error) {
	path, err := filepath.Abs(file)
	if err != nil {
		return "", note.Name{}, "", err
	}

	n := note.Classify(filepath.Base(path))
	if n.Kind != note.KindNote {
		return "", n, "", fmt.Errorf("not a timestamped note (want YYYYMMDDHHMM.md)")
	}
	if !note.SameDay(n.Time, now) {
		return "", n, "", fmt.Errorf("note is from %s, not today", n.Time.Format(note.DailyLayout))
	}

	heading, ok, err := note.ReadHeading(path)
	if err != nil {
		return "", n, "", err
	}
	if !ok {
		return "", n, "", fmt.Errorf("note has no level-1 heading")
	}

	return path, n, heading, nil
}

func linkOne(editor *daily.Editor, st *state.State, file string, now time.Time) (daily.Result, string, error) {
	path, n, heading, err := resolveNote(file, now)
	if err != nil {
		return daily.Result{}, "", err
	}

	res, err := editor.EnsureLinked(n.Time, path, heading)
	if err != nil {
		return daily.Result{}, heading, err
	}

	if res.Added {
		if err := st.RecordLink(path, res.Path, heading, now); err != nil {
			return res, heading, fmt.Errorf("linked, but failed to record: %w", err)
		}
	}

	return res, heading, nil
}

// linkedAt describes when the journal recorded file as linked, or returns
// "" when it has no entry
func linkedAt(st *state.State, file string) string {
	path, err := filepath.Abs(file)
	if err != nil {
		return ""
	}
	at := st.GetLinkedAt(path)
	if at.IsZero() {
		return ""
	}
	return " at " + at.Format("15:04")
}

func planOne(editor *daily.Editor, file string, now time.Time) (daily.Plan, string, error) {
	path, n, heading, err := resolveNote(file, now)
	if err != nil {
		return daily.Plan{}, "", err
	}

	plan, err := editor.Plan(n.Time, path, heading)
	return plan, heading, err
}
