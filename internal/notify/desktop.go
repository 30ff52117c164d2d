package notify

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/tchow-twistedxcom/occtl/internal/platform"
)

// runFunc executes a command without a shell.
type runFunc func(ctx context.Context, name string, args ...string) error

func runCommand(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// DesktopSink raises an OS notification: osascript on macOS, notify-send on
// Linux and WSL.
type DesktopSink struct {
	notifier platform.DesktopNotifier
	run      runFunc
}

// NewDesktopSink returns a sink for the current platform.
func NewDesktopSink() *DesktopSink {
	return &DesktopSink{notifier: platform.Detect().Notifier(), run: runCommand}
}

func (s *DesktopSink) Name() string { return "desktop" }

// Send implements Sink.
func (s *DesktopSink) Send(ctx context.Context, a Alert) error {
	switch s.notifier {
	case platform.NotifierOsascript:
		script := fmt.Sprintf("display notification %s with title %s",
			appleScriptString(a.Body), appleScriptString(a.Title))
		return s.run(ctx, "osascript", "-e", script)
	case platform.NotifierNotifySend:
		return s.run(ctx, "notify-send", "--app-name=occtl", "--", a.Title, a.Body)
	default:
		return errors.New("no desktop notifier on this platform")
	}
}

// appleScriptString quotes s as an AppleScript string literal.
func appleScriptString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\r", " ", "\n", " ")
	return `"` + r.Replace(s) + `"`
}
