package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gerunddev/dailyinbox/internal/state"
	"github.com/gerunddev/dailyinbox/internal/styles"
)

// RefreshInterval is how often the dashboard reloads its data
const RefreshInterval = 2 * time.Second

// DaemonData holds daemon status information
type DaemonData struct {
	Running    bool
	PID        int
	StartTime  time.Time
	VaultDir   string
	DailyDir   string
	LinksToday int
	LastLink   time.Time
	Recent     []state.Link
	LogLines   []string
}

// DaemonMsg is sent when daemon data is ready. Manual is set for a refresh
// requested with "r", which does not start another refresh timer.
type DaemonMsg struct {
	Data   *DaemonData
	Err    error
	Manual bool
}

// TickMsg triggers a periodic refresh
type TickMsg time.Time

// LoadFunc gathers the data shown by the dashboard
type LoadFunc func() (*DaemonData, error)

type daemonModel struct {
	load    LoadFunc
	now     func() time.Time
	spinner spinner.Model
	table   table.Model
	data    *DaemonData
	err     error
	ready   bool
}

// InitDaemonModel creates a dashboard model that refreshes through load
func InitDaemonModel(load LoadFunc) daemonModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(styles.Magenta))

	columns := []table.Column{
		{Title: "Time", Width: 5},
		{Title: "Title", Width: 40},
		{Title: "Note", Width: 24},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(8),
	)

	ts := table.DefaultStyles()
	ts.Header = ts.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(styles.Border)).
		BorderBottom(true).
		Bold(false)
	ts.Selected = ts.Selected.
		Foreground(lipgloss.Color(styles.Background)).
		Background(lipgloss.Color(styles.Yellow)).
		Bold(false)
	t.SetStyles(ts)

	return daemonModel{
		load:    load,
		now:     time.Now,
		spinner: s,
		table:   t,
	}
}

func (m daemonModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch(false))
}

func (m daemonModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m, m.fetch(true)
		case "up", "k", "down", "j":
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		}

	case spinner.TickMsg:
		// The spinner only runs until the first data arrives
		if m.ready {
			return m, nil
		}
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TickMsg:
		return m, m.fetch(false)

	case DaemonMsg:
		m.ready = true
		m.data = msg.Data
		m.err = msg.Err
		if m.data != nil {
			m.table.SetRows(linkRows(m.data.Recent))
		}
		if msg.Manual {
			return m, nil
		}
		return m, tea.Tick(RefreshInterval, func(t time.Time) tea.Msg {
			return TickMsg(t)
		})
	}

	return m, nil
}

func (m daemonModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("dailyinbox dashboard"))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(styles.ErrorStyle.Render("✗ Error: " + m.err.Error()))
		b.WriteString("\n\n")
		b.WriteString(styles.HelpStyle.Render("q quit • r refresh"))
		b.WriteString("\n")
		return b.String()
	}

	if !m.ready || m.data == nil {
		b.WriteString(m.spinner.View() + " Loading...")
		b.WriteString("\n")
		return b.String()
	}

	var p strings.Builder
	p.WriteString(styles.HeaderStyle.Render("Daemon"))
	p.WriteString("\n")
	if m.data.Running {
		uptime := m.now().Sub(m.data.StartTime).Round(time.Second)
		p.WriteString(fmt.Sprintf("  Status: %s\n", styles.SuccessStyle.Render("● Running")))
		p.WriteString(fmt.Sprintf("  PID:    %s\n", styles.ValueStyle.Render(fmt.Sprintf("%d", m.data.PID))))
		p.WriteString(fmt.Sprintf("  Uptime: %s\n", styles.ValueStyle.Render(uptime.String())))
	} else {
		p.WriteString(fmt.Sprintf("  Status: %s\n", styles.DimStyle.Render("○ Not running")))
	}
	if m.data.VaultDir != "" {
		p.WriteString(fmt.Sprintf("  Vault:  %s\n", styles.ValueStyle.Render(m.data.VaultDir)))
		p.WriteString(fmt.Sprintf("  Daily:  %s\n", styles.ValueStyle.Render(m.data.DailyDir)))
	}
	p.WriteString("\n")

	p.WriteString(styles.HeaderStyle.Render(fmt.Sprintf("Linked today (%d)", m.data.LinksToday)))
	p.WriteString("\n")
	if !m.data.LastLink.IsZero() {
		since := m.now().Sub(m.data.LastLink).Round(time.Second)
		p.WriteString(fmt.Sprintf("  Last link logged %s ago\n", styles.ValueStyle.Render(since.String())))
	}
	if len(m.data.Recent) > 0 {
		p.WriteString(m.table.View())
		p.WriteString("\n")
	} else {
		p.WriteString(styles.DimStyle.Render("  No links yet"))
		p.WriteString("\n")
	}
	p.WriteString("\n")

	p.WriteString(styles.HeaderStyle.Render("Recent Logs"))
	p.WriteString("\n")
	if len(m.data.LogLines) > 0 {
		for _, line := range m.data.LogLines {
			p.WriteString("  " + line + "\n")
		}
	} else {
		p.WriteString(styles.DimStyle.Render("  No logs available"))
		p.WriteString("\n")
	}

	b.WriteString(styles.PanelStyle.Render(strings.TrimRight(p.String(), "\n")))
	b.WriteString("\n\n")

	b.WriteString(styles.HelpStyle.Render(fmt.Sprintf("↑/↓ scroll • r refresh • q quit • auto-refresh: %s", RefreshInterval)))
	b.WriteString("\n")

	return b.String()
}

// fetch returns a command that loads fresh dashboard data
func (m daemonModel) fetch(manual bool) tea.Cmd {
	load := m.load
	return func() tea.Msg {
		data, err := load()
		return DaemonMsg{Data: data, Err: err, Manual: manual}
	}
}

// linkRows turns journal entries into table rows
func linkRows(links []state.Link) []table.Row {
	rows := make([]table.Row, 0, len(links))
	for _, l := range links {
		rows = append(rows, table.Row{
			l.LinkedAt.Format("15:04"),
			l.Label,
			filepath.Base(l.Note),
		})
	}
	return rows
}
