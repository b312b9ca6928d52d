package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/gerunddev/dailyinbox/internal/daily"
	"github.com/gerunddev/dailyinbox/internal/diff"
	"github.com/gerunddev/dailyinbox/internal/note"
	"github.com/gerunddev/dailyinbox/internal/styles"
)

// Show renders today's daily note in the terminal
func Show(args []string) {
	cfg, _ := loadConfig("show", args, false)

	editor := daily.NewEditor(cfg.DailyDir, cfg.VaultDir, note.LinkStyle(cfg.LinkStyle))
	path, err := editor.Path(time.Now())
	if err != nil {
		fail("Failed to find daily note", err)
	}

	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		fmt.Println(styles.DimStyle.Render("No daily note for today yet: " + path))
		return
	}
	if err != nil {
		fail("Failed to read daily note", err)
	}

	fmt.Println(styles.DimStyle.Render(path))
	fmt.Print(diff.Render(string(content)))
}
