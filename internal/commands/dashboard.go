package commands

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gerunddev/dailyinbox/internal/config"
	"github.com/gerunddev/dailyinbox/internal/daemon"
	"github.com/gerunddev/dailyinbox/internal/state"
	"github.com/gerunddev/dailyinbox/internal/tui"
)

const (
	dashboardLinks    = 10
	dashboardLogLines = 15
)

// Dashboard shows a live view of the daemon, today's links and the log
func Dashboard(args []string) {
	cfg, _, err := config.Parse("dashboard", args)
	if err != nil {
		fail("Invalid arguments", err)
	}

	load := func() (*tui.DaemonData, error) {
		running, pid, startTime := daemon.IsRunning()
		data := &tui.DaemonData{
			Running:   running,
			PID:       pid,
			StartTime: startTime,
			VaultDir:  cfg.VaultDir,
			DailyDir:  cfg.DailyDir,
		}

		st, err := state.Load(config.StateFilePath())
		if err != nil {
			return nil, err
		}
		today := st.Today(time.Now())
		data.LinksToday = len(today)
		if len(today) > dashboardLinks {
			today = today[:dashboardLinks]
		}
		data.Recent = today

		data.LogLines, data.LastLink = ParseLogFile(cfg.LogFile, dashboardLogLines)
		return data, nil
	}

	p := tea.NewProgram(tui.InitDaemonModel(load), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fail("Error", err)
	}
}
