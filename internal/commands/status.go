package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/gerunddev/dailyinbox/internal/config"
	"github.com/gerunddev/dailyinbox/internal/daemon"
	"github.com/gerunddev/dailyinbox/internal/state"
	"github.com/gerunddev/dailyinbox/internal/styles"
)

// Status prints the configuration, the daemon state and today's links
func Status(args []string) {
	cfg, _, err := config.Parse("status", args)
	if err != nil {
		fail("Invalid arguments", err)
	}

	fmt.Println(styles.TitleStyle.Render("dailyinbox status"))
	fmt.Println()

	fmt.Println(styles.HeaderStyle.Render("Configuration"))
	printField("Config file", cfg.File)
	printField("Vault", cfg.VaultDir)
	printField("Daily notes", cfg.DailyDir)
	printField("Link style", cfg.LinkStyle)
	printField("Debounce", cfg.Debounce.String())
	printField("Log file", cfg.LogFile)
	if err := cfg.Validate(); err != nil {
		fmt.Println("  " + styles.WarningStyle.Render("! "+err.Error()))
	} else if err := cfg.CheckDirs(); err != nil {
		fmt.Println("  " + styles.WarningStyle.Render("! "+err.Error()))
	}
	fmt.Println()

	fmt.Println(styles.HeaderStyle.Render("Daemon"))
	if running, pid, startTime := daemon.IsRunning(); running {
		fmt.Printf("  Status:  %s\n", styles.SuccessStyle.Render("● Running"))
		printField("PID", fmt.Sprintf("%d", pid))
		if !startTime.IsZero() {
			printField("Uptime", time.Since(startTime).Round(time.Second).String())
		}
	} else {
		fmt.Printf("  Status:  %s\n", styles.DimStyle.Render("○ Not running"))
	}
	printField("Service", serviceStatus())
	fmt.Println()

	st, err := state.Load(config.StateFilePath())
	if err != nil {
		fail("Failed to load state", err)
	}

	links := st.Today(time.Now())
	fmt.Println(styles.HeaderStyle.Render(fmt.Sprintf("Linked today (%d)", len(links))))
	if len(links) == 0 {
		fmt.Println(styles.DimStyle.Render("  No links yet"))
	}
	for _, l := range links {
		fmt.Printf("  %s %s %s\n",
			styles.DimStyle.Render(l.LinkedAt.Format("15:04")),
			styles.LinkStyle.Render(l.Label),
			styles.DimStyle.Render(filepath.Base(l.Note)))
	}
}

func printField(label, value string) {
	fmt.Printf("  %-12s %s\n", label+":", styles.ValueStyle.Render(value))
}
