package config

import (
	"fmt"
	"os"

	"github.com/tchow-twistedxcom/occtl/internal/fsutil"
)

const exampleConfig = `# occtl configuration
# Every setting is optional; the values shown are the defaults.

[session]
# Typed into the main window of sessions created by "oc new"
# launch_command = "opencode"
# Window that receives "oc say" text and is captured by "oc watch"
# main_window = "main"
# Additional windows opened next to the main one
# extra_windows = ["logs", "shell"]

[watch]
# Seconds of unchanged output before "oc watch" alerts
# idle_seconds = 90
# Threshold used instead while the pane shows an input prompt ("(y/n)", "press enter", ...)
# prompt_idle_seconds = 0
# Minimum seconds between repeated alerts while a session stays idle
# realert_cooldown_seconds = 1800
# Lines of scrollback inspected per pass
# capture_lines = 120

[timeouts]
# host_seconds = 5     # each tmux call
# notify_seconds = 5   # each notification sink
# lock_seconds = 5     # waiting for another oc process to release a file

[logs]
# level = "info"       # debug, info, warn, error
# format = "json"      # json or text
# max_size_mb = 10
# max_backups = 5
# max_age_days = 10
# compress = true

[ui]
# theme = "system"     # dark, light or system
`

// EnsureLayout creates the config directory and writes a commented example
// config.toml when none exists. Existing files are never touched.
func EnsureLayout(p Paths) error {
	if err := os.MkdirAll(p.Dir, 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if _, err := os.Stat(p.UserConfig); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat %s: %w", p.UserConfig, err)
	}
	return fsutil.WriteFileAtomic(p.UserConfig, []byte(exampleConfig), 0o600)
}
