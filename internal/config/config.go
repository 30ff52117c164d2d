// Package config loads occtl's user configuration (config.toml) and
// resolves the paths of every file occtl keeps on disk.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	dark "github.com/thiagokokada/dark-mode-go"
)

// File names inside the config directory.
const (
	UserConfigFileName = "config.toml"
	MappingsFileName   = "mappings.toml"
	StateFileName      = "state.json"
	LogsDirName        = "logs"
)

// HomeEnv overrides the config directory (used by tests and multi-setup users).
const HomeEnv = "OCCTL_HOME"

// UserConfig represents user-facing configuration in TOML format
type UserConfig struct {
	// Session controls how new tmux sessions are laid out
	Session SessionSettings `toml:"session"`

	// Watch controls idle detection and alert dedup
	Watch WatchSettings `toml:"watch"`

	// Timeouts bounds every external call
	Timeouts TimeoutSettings `toml:"timeouts"`

	// Logs controls the structured debug log
	Logs LogSettings `toml:"logs"`

	// UI controls the interactive attach picker
	UI UISettings `toml:"ui"`
}

// SessionSettings defines the layout of sessions created by `oc new`.
type SessionSettings struct {
	// LaunchCommand is typed into the main window after creation (default: "opencode")
	LaunchCommand string `toml:"launch_command"`

	// MainWindow is the window that receives text and is captured (default: "main")
	MainWindow string `toml:"main_window"`

	// ExtraWindows are opened next to the main window (default: ["logs", "shell"])
	ExtraWindows []string `toml:"extra_windows"`
}

// WatchSettings defines idle detection thresholds.
type WatchSettings struct {
	// IdleSeconds is how long output must stay unchanged before alerting (default: 90)
	IdleSeconds int `toml:"idle_seconds"`

	// PromptIdleSeconds replaces IdleSeconds while the pane shows an input prompt (default: 0)
	PromptIdleSeconds *int `toml:"prompt_idle_seconds"`

	// RealertCooldownSeconds is the minimum gap between alerts within one idle episode (default: 1800)
	RealertCooldownSeconds int `toml:"realert_cooldown_seconds"`

	// CaptureLines is how much scrollback the watcher inspects (default: 120)
	CaptureLines int `toml:"capture_lines"`
}

// TimeoutSettings bounds calls to tmux, notification sinks and file locks.
type TimeoutSettings struct {
	HostSeconds   int `toml:"host_seconds"`
	NotifySeconds int `toml:"notify_seconds"`
	LockSeconds   int `toml:"lock_seconds"`
}

// LogSettings defines log file rotation and level.
type LogSettings struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   *bool  `toml:"compress"`
}

// UISettings defines picker appearance.
type UISettings struct {
	// Theme is "dark", "light" or "system" (default: "system")
	Theme string `toml:"theme"`
}

// Defaults
const (
	DefaultLaunchCommand          = "opencode"
	DefaultMainWindow             = "main"
	DefaultIdleSeconds            = 90
	DefaultPromptIdleSeconds      = 0
	DefaultRealertCooldownSeconds = 1800
	DefaultCaptureLines           = 120
	DefaultTimeoutSeconds         = 5
)

// DefaultExtraWindows are opened by `oc new` unless overridden.
var DefaultExtraWindows = []string{"logs", "shell"}

// Dir returns the occtl config directory: $OCCTL_HOME, else ~/.config/occtl.
func Dir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "occtl"), nil
}

// Paths holds the absolute locations of occtl's files.
type Paths struct {
	Dir        string
	UserConfig string
	Mappings   string
	State      string
	Logs       string
}

// PathsFor lays out the files under dir.
func PathsFor(dir string) Paths {
	return Paths{
		Dir:        dir,
		UserConfig: filepath.Join(dir, UserConfigFileName),
		Mappings:   filepath.Join(dir, MappingsFileName),
		State:      filepath.Join(dir, StateFileName),
		Logs:       filepath.Join(dir, LogsDirName),
	}
}

// Load reads config.toml from path. A missing file yields defaults. A parse
// error is returned together with the defaults so the caller can warn and
// carry on.
func Load(path string) (*UserConfig, error) {
	cfg := &UserConfig{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg.applyDefaults()
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		def := &UserConfig{}
		def.applyDefaults()
		return def, fmt.Errorf("%s parse error: %w", filepath.Base(path), err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Default returns a config with every default applied.
func Default() *UserConfig {
	cfg := &UserConfig{}
	cfg.applyDefaults()
	return cfg
}

func (c *UserConfig) applyDefaults() {
	if c.Session.LaunchCommand == "" {
		c.Session.LaunchCommand = DefaultLaunchCommand
	}
	if c.Session.MainWindow == "" {
		c.Session.MainWindow = DefaultMainWindow
	}
	if c.Session.ExtraWindows == nil {
		c.Session.ExtraWindows = append([]string(nil), DefaultExtraWindows...)
	}
	if c.Watch.IdleSeconds <= 0 {
		c.Watch.IdleSeconds = DefaultIdleSeconds
	}
	if c.Watch.PromptIdleSeconds == nil || *c.Watch.PromptIdleSeconds < 0 {
		v := DefaultPromptIdleSeconds
		c.Watch.PromptIdleSeconds = &v
	}
	if c.Watch.RealertCooldownSeconds <= 0 {
		c.Watch.RealertCooldownSeconds = DefaultRealertCooldownSeconds
	}
	if c.Watch.CaptureLines <= 0 {
		c.Watch.CaptureLines = DefaultCaptureLines
	}
	if c.Timeouts.HostSeconds <= 0 {
		c.Timeouts.HostSeconds = DefaultTimeoutSeconds
	}
	if c.Timeouts.NotifySeconds <= 0 {
		c.Timeouts.NotifySeconds = DefaultTimeoutSeconds
	}
	if c.Timeouts.LockSeconds <= 0 {
		c.Timeouts.LockSeconds = DefaultTimeoutSeconds
	}
	if c.Logs.Level == "" {
		c.Logs.Level = "info"
	}
	if c.Logs.Format == "" {
		c.Logs.Format = "json"
	}
	if c.Logs.MaxSizeMB <= 0 {
		c.Logs.MaxSizeMB = 10
	}
	if c.Logs.MaxBackups <= 0 {
		c.Logs.MaxBackups = 5
	}
	if c.Logs.MaxAgeDays <= 0 {
		c.Logs.MaxAgeDays = 10
	}
	if c.Logs.Compress == nil {
		v := true
		c.Logs.Compress = &v
	}
	if c.UI.Theme == "" {
		c.UI.Theme = "system"
	}
}

// IdleThreshold returns the plain idle threshold.
func (w WatchSettings) IdleThreshold() time.Duration {
	return time.Duration(w.IdleSeconds) * time.Second
}

// PromptThreshold returns the threshold used while an input prompt is visible.
func (w WatchSettings) PromptThreshold() time.Duration {
	if w.PromptIdleSeconds == nil {
		return DefaultPromptIdleSeconds * time.Second
	}
	return time.Duration(*w.PromptIdleSeconds) * time.Second
}

// RealertCooldown returns the minimum gap between alerts in one idle episode.
func (w WatchSettings) RealertCooldown() time.Duration {
	return time.Duration(w.RealertCooldownSeconds) * time.Second
}

// Host returns the tmux call timeout.
func (t TimeoutSettings) Host() time.Duration {
	return time.Duration(t.HostSeconds) * time.Second
}

// Notify returns the per-sink timeout.
func (t TimeoutSettings) Notify() time.Duration {
	return time.Duration(t.NotifySeconds) * time.Second
}

// Lock returns the maximum wait for a file lock.
func (t TimeoutSettings) Lock() time.Duration {
	return time.Duration(t.LockSeconds) * time.Second
}

// ResolveTheme resolves the configured theme to "dark" or "light".
// If theme is "system", detects the OS dark mode setting.
// Falls back to "dark" on detection failure.
func (c *UserConfig) ResolveTheme() string {
	switch c.UI.Theme {
	case "dark", "light":
		return c.UI.Theme
	}
	isDark, err := dark.IsDarkMode()
	if err != nil || isDark {
		return "dark"
	}
	return "light"
}
