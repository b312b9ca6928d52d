package main

import (
	"fmt"
	"os"

	"github.com/gerunddev/dailyinbox/internal/commands"
	"github.com/gerunddev/dailyinbox/internal/config"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "run", "daemon":
		commands.Run(args)
	case "start":
		commands.Start(args)
	case "stop":
		commands.Stop()
	case "status":
		commands.Status(args)
	case "dashboard", "watch":
		commands.Dashboard(args)
	case "link":
		commands.Link(args)
	case "show", "today":
		commands.Show(args)
	case "install":
		commands.Install(args)
	case "uninstall":
		commands.Uninstall()
	case "version", "-v", "--version":
		fmt.Printf("dailyinbox v%s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	usage := fmt.Sprintf(`dailyinbox - Link new notes into today's daily note

Usage:
  dailyinbox <command> [options]

Commands:
  run         Run the watcher in the foreground
  start       Start the watcher in the background
  stop        Stop the background watcher
  status      Show configuration, daemon state and today's links
  dashboard   Live daemon dashboard
  link        Link note files into today's daily note once (--dry-run shows a diff)
  show        Render today's daily note
  install     Save the config and install a user service
  uninstall   Remove the user service
  version     Show version information
  help        Show this help message

Options:
  --vault DIR            Vault root to watch (env %s)
  --daily-dir DIR        Directory of YYYY-MM-DD.md daily notes (env %s)
  --link-style STYLE     relative (to the daily note) or vault (env %s)
  --include-daily-dir    Also link notes created inside the daily notes directory
  --debounce DURATION    Quiet period before a note is read (default 500ms)
  --max-attempts N       Heading checks before a note waits for its next save (default 5)
  --workers N            Notes processed in parallel (default 4)
  --log-file FILE        Log file (env %s)
  --log-level LEVEL      debug, info, warn or error (env %s)
  --config FILE          Config file

Examples:
  dailyinbox run --vault ~/notes --daily-dir ~/notes/daily
  dailyinbox start --vault ~/notes --daily-dir ~/notes/daily
  dailyinbox link ~/notes/202403151030.md
  dailyinbox link --dry-run ~/notes/202403151030.md
  dailyinbox show
  dailyinbox install --vault ~/notes --daily-dir ~/notes/daily

Configuration:
  Config file: %s
  State file:  %s
`, config.EnvVault, config.EnvDailyDir, config.EnvLinkStyle, config.EnvLogFile, config.EnvLogLevel,
		config.ConfigPath(), config.StateFilePath())
	fmt.Print(usage)
}
