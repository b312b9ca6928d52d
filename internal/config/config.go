package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/pflag"
	"golang.org/x/sys/unix"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation error
var ErrInvalid = errors.New("invalid configuration")

// Environment variables read by ApplyEnv
const (
	EnvVault     = "DAILYINBOX_VAULT"
	EnvDailyDir  = "DAILYINBOX_DAILY_DIR"
	EnvLinkStyle = "DAILYINBOX_LINK_STYLE"
	EnvLogFile   = "DAILYINBOX_LOG_FILE"
	EnvLogLevel  = "DAILYINBOX_LOG_LEVEL"
)

// Config represents the dailyinbox configuration
type Config struct {
	VaultDir        string        `yaml:"vault_dir"`
	DailyDir        string        `yaml:"daily_dir"`
	LinkStyle       string        `yaml:"link_style"`
	IncludeDailyDir bool          `yaml:"include_daily_dir"`
	Debounce        time.Duration `yaml:"debounce"`
	MaxAttempts     int           `yaml:"max_attempts"`
	Workers         int           `yaml:"workers"`
	LogFile         string        `yaml:"log_file"`
	LogLevel        string        `yaml:"log_level"`

	// File is the config file Parse read, as an absolute path
	File string `yaml:"-"`
}

// DefaultConfig returns default configuration.
// The vault and daily notes directories have no default.
func DefaultConfig() *Config {
	return &Config{
		LinkStyle:   "relative",
		Debounce:    500 * time.Millisecond,
		MaxAttempts: 5,
		Workers:     4,
		LogFile:     DefaultLogFile(),
		LogLevel:    "info",
	}
}

// ConfigPath returns the path to the config file
// Can be overridden for testing
var ConfigPath = func() string {
	return filepath.Join(xdg.ConfigHome, "dailyinbox", "config.yaml")
}

// StateFilePath returns the path to the link journal
// Uses platform-specific XDG data directory
// Can be overridden for testing
var StateFilePath = func() string {
	return filepath.Join(xdg.DataHome, "dailyinbox", "state.json")
}

// DefaultLogFile returns the log file used when none is configured
func DefaultLogFile() string {
	return filepath.Join(xdg.StateHome, "dailyinbox", "dailyinbox.log")
}

// Load reads configuration from the default config path
func Load() (*Config, error) {
	return LoadFile(ConfigPath())
}

// LoadFile reads configuration from path. Keys missing from the file keep
// their defaults; a missing file yields the default config.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes configuration to the given path
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides fields from environment variables found by lookup
// (normally os.LookupEnv)
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvVault); ok && v != "" {
		c.VaultDir = v
	}
	if v, ok := lookup(EnvDailyDir); ok && v != "" {
		c.DailyDir = v
	}
	if v, ok := lookup(EnvLinkStyle); ok && v != "" {
		c.LinkStyle = v
	}
	if v, ok := lookup(EnvLogFile); ok && v != "" {
		c.LogFile = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
}

// BindFlags registers the configuration flags on fs, using the current
// field values as defaults
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.VaultDir, "vault", c.VaultDir, "vault root directory to watch (env "+EnvVault+")")
	fs.StringVar(&c.DailyDir, "daily-dir", c.DailyDir, "directory holding YYYY-MM-DD.md daily notes (env "+EnvDailyDir+")")
	fs.StringVar(&c.LinkStyle, "link-style", c.LinkStyle, "link targets relative to the daily note (relative) or the vault root (vault)")
	fs.BoolVar(&c.IncludeDailyDir, "include-daily-dir", c.IncludeDailyDir, "also link notes created inside the daily notes directory")
	fs.DurationVar(&c.Debounce, "debounce", c.Debounce, "quiet period before a new note is read")
	fs.IntVar(&c.MaxAttempts, "max-attempts", c.MaxAttempts, "heading checks before a note is dropped until its next save")
	fs.IntVar(&c.Workers, "workers", c.Workers, "notes processed in parallel")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "log file (env "+EnvLogFile+")")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug, info, warn or error (env "+EnvLogLevel+")")
}

// Parse builds the configuration for a command from, in increasing order
// of precedence: defaults, the config file, the environment and args.
// extra registers command-specific flags. It returns the positional
// arguments left after flag parsing.
func Parse(name string, args []string, extra ...func(fs *pflag.FlagSet)) (*Config, []string, error) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	configFile := fs.String("config", ConfigPath(), "config file")
	flags := DefaultConfig()
	flags.BindFlags(fs)
	for _, register := range extra {
		register(fs)
	}

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	cfg, err := LoadFile(*configFile)
	if err != nil {
		return nil, nil, err
	}
	cfg.ApplyEnv(os.LookupEnv)

	fs.Visit(func(f *pflag.Flag) {
		cfg.override(f.Name, flags)
	})

	if err := cfg.ExpandPaths(); err != nil {
		return nil, nil, fmt.Errorf("failed to expand paths: %w", err)
	}

	cfg.File, err = expandPath(*configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to expand config path: %w", err)
	}

	return cfg, fs.Args(), nil
}

// override copies the field behind flag name from src
func (c *Config) override(name string, src *Config) {
	switch name {
	case "vault":
		c.VaultDir = src.VaultDir
	case "daily-dir":
		c.DailyDir = src.DailyDir
	case "link-style":
		c.LinkStyle = src.LinkStyle
	case "include-daily-dir":
		c.IncludeDailyDir = src.IncludeDailyDir
	case "debounce":
		c.Debounce = src.Debounce
	case "max-attempts":
		c.MaxAttempts = src.MaxAttempts
	case "workers":
		c.Workers = src.Workers
	case "log-file":
		c.LogFile = src.LogFile
	case "log-level":
		c.LogLevel = src.LogLevel
	}
}

// Validate checks if the configuration is valid without touching the
// filesystem
func (c *Config) Validate() error {
	if c.VaultDir == "" {
		return fmt.Errorf("%w: vault_dir cannot be empty (use --vault or %s)", ErrInvalid, EnvVault)
	}
	if c.DailyDir == "" {
		return fmt.Errorf("%w: daily_dir cannot be empty (use --daily-dir or %s)", ErrInvalid, EnvDailyDir)
	}
	if c.LogFile == "" {
		return fmt.Errorf("%w: log_file cannot be empty", ErrInvalid)
	}
	if c.Debounce <= 0 {
		return fmt.Errorf("%w: debounce must be positive", ErrInvalid)
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("%w: max_attempts must be positive", ErrInvalid)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive", ErrInvalid)
	}

	validStyles := map[string]bool{
		"relative": true,
		"vault":    true,
	}
	if !validStyles[c.LinkStyle] {
		return fmt.Errorf("%w: invalid link_style '%s': must be one of: relative, vault", ErrInvalid, c.LinkStyle)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("%w: invalid log_level '%s': must be one of: debug, info, warn, error", ErrInvalid, c.LogLevel)
	}

	return nil
}

// CheckDirs verifies that the vault and daily notes directories are
// absolute, existing, readable and writable directories
func (c *Config) CheckDirs() error {
	if err := checkDir("vault_dir", c.VaultDir); err != nil {
		return err
	}
	return checkDir("daily_dir", c.DailyDir)
}

func checkDir(key, path string) error {
	if !filepath.IsAbs(path) {
		return fmt.Errorf("%w: %s must be absolute: %s", ErrInvalid, key, path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalid, key, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory: %s", ErrInvalid, key, path)
	}

	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return fmt.Errorf("%w: %s is not readable and writable: %s: %w", ErrInvalid, key, path, err)
	}

	return nil
}

// ExpandPaths expands ~ in every path and makes the log file absolute.
// The vault and daily notes directories stay relative when given that way,
// so CheckDirs rejects them.
func (c *Config) ExpandPaths() error {
	var err error

	c.VaultDir, err = expandHome(c.VaultDir)
	if err != nil {
		return fmt.Errorf("failed to expand vault_dir: %w", err)
	}

	c.DailyDir, err = expandHome(c.DailyDir)
	if err != nil {
		return fmt.Errorf("failed to expand daily_dir: %w", err)
	}

	c.LogFile, err = expandPath(c.LogFile)
	if err != nil {
		return fmt.Errorf("failed to expand log_file: %w", err)
	}

	return nil
}

// expandHome expands a leading ~ to the home directory
func expandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if len(path) == 1 {
		return homeDir, nil
	}
	return filepath.Join(homeDir, path[1:]), nil
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) (string, error) {
	if path == "" {
		return path, nil
	}

	path, err := expandHome(path)
	if err != nil {
		return "", err
	}

	// Convert to absolute path
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	return absPath, nil
}
