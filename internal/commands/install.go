package commands

import (
	"errors"
	"fmt"

	"github.com/kardianos/service"

	"github.com/gerunddev/dailyinbox/internal/config"
	"github.com/gerunddev/dailyinbox/internal/styles"
)

// program satisfies service.Interface. The service manager starts
// `dailyinbox run` itself, so install, uninstall and status never call
// Start or Stop.
type program struct{}

func (p *program) Start(s service.Service) error { return nil }

func (p *program) Stop(s service.Service) error { return nil }

// newService describes the per-user service running the watcher with the
// config file at configPath
func newService(configPath string) (service.Service, error) {
	svcConfig := &service.Config{
		Name:        "dailyinbox",
		DisplayName: "dailyinbox",
		Description: "Links new timestamped notes into today's daily note",
		Arguments:   []string{"run", "--config", configPath},
		Option: service.KeyValue{
			"UserService": true,
			"RunAtLoad":   true,
			"KeepAlive":   true,
			"Restart":     "on-failure",
		},
	}

	s, err := service.New(&program{}, svcConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}
	return s, nil
}

// Install writes the effective configuration to the config file and
// registers a user service (systemd user unit or launchd agent) that runs
// the watcher with it
func Install(args []string) {
	fmt.Println(styles.TitleStyle.Render("dailyinbox install"))
	fmt.Println()

	cfg, _ := loadConfig("install", args, true)
	configPath := cfg.File

	if err := cfg.Save(configPath); err != nil {
		fail("Failed to save config", err)
	}
	fmt.Println(styles.SuccessStyle.Render("✓ Config saved: " + configPath))

	s, err := newService(configPath)
	if err != nil {
		fail("Failed to install service", err)
	}

	if err := s.Install(); err != nil {
		fail("Failed to install service", err)
	}
	fmt.Println(styles.SuccessStyle.Render("✓ Service installed (" + s.Platform() + ")"))

	if err := s.Start(); err != nil {
		fmt.Println(styles.WarningStyle.Render("! Service installed but not started: " + err.Error()))
		return
	}
	fmt.Println(styles.SuccessStyle.Render("✓ Service started"))
	fmt.Println()
	fmt.Println(styles.DimStyle.Render("  Run 'dailyinbox dashboard' to monitor it"))
}

// Uninstall stops and removes the user service
func Uninstall() {
	s, err := newService(config.ConfigPath())
	if err != nil {
		fail("Failed to uninstall service", err)
	}

	// Stopping a service that is not running is not an error here
	_ = s.Stop()

	if err := s.Uninstall(); err != nil {
		fail("Failed to uninstall service", err)
	}

	fmt.Println(styles.SuccessStyle.Render("✓ Service uninstalled"))
}

// serviceStatus describes the installed service, if any
func serviceStatus() string {
	s, err := newService(config.ConfigPath())
	if err != nil {
		return "unavailable: " + err.Error()
	}

	status, err := s.Status()
	if err != nil {
		if errors.Is(err, service.ErrNotInstalled) {
			return "not installed"
		}
		return "unknown: " + err.Error()
	}

	switch status {
	case service.StatusRunning:
		return "running"
	case service.StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
