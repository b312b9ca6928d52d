package commands

import (
	"fmt"
	"time"

	"github.com/gerunddev/dailyinbox/internal/daemon"
	"github.com/gerunddev/dailyinbox/internal/styles"
)

// pollInterval and pollAttempts bound how long start and stop wait for the
// daemon to change state
const (
	pollInterval = 250 * time.Millisecond
	pollAttempts = 20
)

// Start starts the watcher in the background. The configuration is
// validated here so that mistakes are reported on the terminal.
func Start(args []string) {
	loadConfig("start", args, true)

	if running, pid, _ := daemon.IsRunning(); running {
		fail(fmt.Sprintf("Daemon already running with PID %d", pid), nil)
	}

	if _, err := daemon.Daemonize(append([]string{"run"}, args...)); err != nil {
		fail("Failed to start daemon", err)
	}

	// The child writes its PID file once its configuration checks pass
	for i := 0; i < pollAttempts; i++ {
		time.Sleep(pollInterval)
		if running, pid, _ := daemon.IsRunning(); running {
			fmt.Println(styles.SuccessStyle.Render(fmt.Sprintf("✓ Daemon started with PID %d", pid)))
			fmt.Println(styles.DimStyle.Render("  Run 'dailyinbox dashboard' to monitor the daemon"))
			return
		}
	}

	fail("Daemon failed to start, see the log file", nil)
}

// Stop stops the running daemon
func Stop() {
	running, pid, _ := daemon.IsRunning()
	if !running {
		fmt.Println(styles.DimStyle.Render("Daemon is not running"))
		return
	}

	fmt.Printf("Stopping daemon (PID %d)...\n", pid)

	if _, err := daemon.Stop(); err != nil {
		fail("Failed to stop daemon", err)
	}

	for i := 0; i < pollAttempts; i++ {
		time.Sleep(pollInterval)
		if running, _, _ = daemon.IsRunning(); !running {
			break
		}
	}

	if running {
		fail("Daemon did not stop gracefully", nil)
	}

	fmt.Println(styles.SuccessStyle.Render("✓ Daemon stopped"))
}
