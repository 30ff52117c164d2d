// Package tmux drives the tmux binary: session lifecycle, literal key
// injection and pane capture.
package tmux

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/tchow-twistedxcom/occtl/internal/apperr"
	"github.com/tchow-twistedxcom/occtl/internal/logging"
)

var hostLog = logging.ForComponent(logging.CompHost)

const (
	// DefaultTimeout bounds every non-interactive tmux invocation.
	DefaultTimeout = 5 * time.Second

	// DefaultMainWindow receives text and is the window captured by watch.
	DefaultMainWindow = "main"

	// chunkSize keeps a single send-keys argument under tmux/OS buffer limits.
	chunkSize = 4096

	// chunkInterval is the minimum gap between consecutive send-keys calls.
	chunkInterval = 50 * time.Millisecond
)

// runFunc executes tmux with args and returns stdout and stderr separately.
type runFunc func(ctx context.Context, args []string) (stdout, stderr []byte, err error)

// Options configures a Client. Zero values fall back to the defaults above.
type Options struct {
	Binary       string
	Timeout      time.Duration
	MainWindow   string
	ExtraWindows []string
}

// Client implements Host by shelling out to tmux.
type Client struct {
	binary       string
	timeout      time.Duration
	mainWindow   string
	extraWindows []string

	run     runFunc
	limiter *rate.Limiter
}

var _ Host = (*Client)(nil)

// NewClient returns a Client for the tmux binary on PATH.
func NewClient(opts Options) *Client {
	c := &Client{
		binary:       opts.Binary,
		timeout:      opts.Timeout,
		mainWindow:   opts.MainWindow,
		extraWindows: opts.ExtraWindows,
		limiter:      rate.NewLimiter(rate.Every(chunkInterval), 1),
	}
	if c.binary == "" {
		c.binary = "tmux"
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.mainWindow == "" {
		c.mainWindow = DefaultMainWindow
	}
	c.run = c.execTmux
	return c
}

func (c *Client) execTmux(ctx context.Context, args []string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// call runs one bounded tmux command and classifies its failure.
func (c *Client) call(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	stdout, stderr, err := c.run(ctx, args)
	if err == nil {
		hostLog.Debug("tmux_call", slog.String("cmd", args[0]), slog.Duration("took", time.Since(start)))
		return string(stdout), nil
	}
	return "", c.classify(ctx, args, strings.TrimSpace(string(stderr)), err)
}

func (c *Client) classify(ctx context.Context, args []string, stderr string, err error) error {
	sub := args[0]
	switch {
	case errors.Is(err, exec.ErrNotFound):
		return fmt.Errorf("tmux is not installed or not on PATH: %w", apperr.ErrHostUnavailable)
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		hostLog.Warn("tmux_timeout", slog.String("cmd", sub), slog.Duration("timeout", c.timeout))
		return fmt.Errorf("tmux %s timed out after %s: %w", sub, c.timeout, apperr.ErrHostUnavailable)
	case isMissingSession(stderr):
		return fmt.Errorf("%s: %w", stderr, apperr.ErrNotFound)
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		// Could not start the process at all (permissions, bad binary path).
		return fmt.Errorf("run tmux %s: %v: %w", sub, err, apperr.ErrHostUnavailable)
	}
	hostLog.Warn("tmux_failed", slog.String("cmd", sub), slog.String("stderr", stderr))
	if stderr == "" {
		return fmt.Errorf("tmux %s failed: %w", sub, err)
	}
	return fmt.Errorf("tmux %s failed: %s", sub, stderr)
}

func isMissingSession(stderr string) bool {
	s := strings.ToLower(stderr)
	return strings.Contains(s, "can't find session") ||
		strings.Contains(s, "session not found") ||
		strings.Contains(s, "can't find window")
}

func isNoServer(stderr string) bool {
	s := strings.ToLower(stderr)
	return strings.Contains(s, "no server running") ||
		strings.Contains(s, "error connecting to") ||
		(strings.Contains(s, "no such file or directory") && strings.Contains(s, "tmux"))
}

// exact makes tmux match the session name literally instead of by prefix.
func exact(name string) string {
	return "=" + name
}

func (c *Client) mainTarget(name string) string {
	return exact(name) + ":" + c.mainWindow
}

// Exists runs `tmux has-session`. A missing server means no sessions.
func (c *Client) Exists(ctx context.Context, name string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, stderr, err := c.run(ctx, []string{"has-session", "-t", exact(name)})
	if err == nil {
		return true, nil
	}
	msg := strings.TrimSpace(string(stderr))
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		// has-session exits 1 for both "no such session" and "no server".
		return false, nil
	}
	return false, c.classify(ctx, []string{"has-session"}, msg, err)
}

// Create opens a detached session with the main window plus the configured
// extra windows, and types launchCommand into the main window.
func (c *Client) Create(ctx context.Context, name, workDir, launchCommand string) error {
	exists, err := c.Exists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if _, err := c.call(ctx, "new-session", "-d", "-s", name, "-n", c.mainWindow, "-c", workDir); err != nil {
		return fmt.Errorf("create session %s: %w", name, err)
	}
	if launchCommand != "" {
		if err := c.SendText(ctx, name, launchCommand); err != nil {
			return err
		}
		if err := c.SendEnter(ctx, name); err != nil {
			return err
		}
	}
	for _, w := range c.extraWindows {
		if _, err := c.call(ctx, "new-window", "-d", "-t", exact(name)+":", "-n", w, "-c", workDir); err != nil {
			return fmt.Errorf("create window %s:%s: %w", name, w, err)
		}
	}
	hostLog.Info("session_created",
		slog.String("session", name),
		slog.String("dir", workDir),
		slog.Int("extra_windows", len(c.extraWindows)))
	return nil
}

// List returns every running session. No running server is an empty list.
func (c *Client) List(ctx context.Context) ([]SessionInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := []string{"list-sessions", "-F", "#{session_name}\t#{session_attached}\t#{session_windows}"}
	stdout, stderr, err := c.run(ctx, args)
	if err != nil {
		msg := strings.TrimSpace(string(stderr))
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil && isNoServer(msg) {
			return nil, nil
		}
		return nil, c.classify(ctx, args, msg, err)
	}
	return parseSessionList(string(stdout)), nil
}

func parseSessionList(out string) []SessionInfo {
	var rows []SessionInfo
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 3 {
			hostLog.Debug("list_sessions_skip", slog.String("line", line))
			continue
		}
		attached, _ := strconv.Atoi(fields[1])
		windows, _ := strconv.Atoi(fields[2])
		rows = append(rows, SessionInfo{Name: fields[0], Attached: attached > 0, Windows: windows})
	}
	return rows
}

// SendText types text into the main window literally (-l), so words like
// "Enter" or "C-c" are not interpreted as key names. Large text is split at
// newline boundaries into 4 KiB chunks.
func (c *Client) SendText(ctx context.Context, name, text string) error {
	if text == "" {
		return nil
	}
	chunks := splitIntoChunks(text, chunkSize)
	for i, chunk := range chunks {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("send to %s: %w", name, err)
		}
		if _, err := c.call(ctx, "send-keys", "-l", "-t", c.mainTarget(name), "--", chunk); err != nil {
			if len(chunks) > 1 {
				return fmt.Errorf("send chunk %d/%d to %s: %w", i+1, len(chunks), name, err)
			}
			return fmt.Errorf("send to %s: %w", name, err)
		}
	}
	hostLog.Debug("text_sent", slog.String("session", name), slog.Int("bytes", len(text)), slog.Int("chunks", len(chunks)))
	return nil
}

// SendEnter presses Enter in the main window. It waits on the same limiter
// as SendText so Enter never lands inside a bracketed paste that the
// program is still processing.
func (c *Client) SendEnter(ctx context.Context, name string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("send enter to %s: %w", name, err)
	}
	if _, err := c.call(ctx, "send-keys", "-t", c.mainTarget(name), "Enter"); err != nil {
		return fmt.Errorf("send enter to %s: %w", name, err)
	}
	return nil
}

// Capture returns the last `lines` lines of the main window.
func (c *Client) Capture(ctx context.Context, name string, lines int) (string, error) {
	args := []string{"capture-pane", "-p", "-J", "-t", c.mainTarget(name)}
	if lines > 0 {
		args = append(args, "-S", "-"+strconv.Itoa(lines))
	}
	out, err := c.call(ctx, args...)
	if err != nil {
		return "", fmt.Errorf("capture %s: %w", name, err)
	}
	return out, nil
}

// LastActivity returns the main window's last activity time.
func (c *Client) LastActivity(ctx context.Context, name string) (time.Time, error) {
	out, err := c.call(ctx, "display-message", "-p", "-t", c.mainTarget(name), "#{window_activity}")
	if err != nil {
		return time.Time{}, fmt.Errorf("activity of %s: %w", name, err)
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(out), 10, 64)
	if err != nil || ts <= 0 {
		return time.Time{}, fmt.Errorf("activity of %s: unexpected timestamp %q", name, strings.TrimSpace(out))
	}
	return time.Unix(ts, 0), nil
}

// Kill terminates the session.
func (c *Client) Kill(ctx context.Context, name string) error {
	if _, err := c.call(ctx, "kill-session", "-t", exact(name)); err != nil {
		return fmt.Errorf("kill %s: %w", name, err)
	}
	hostLog.Info("session_killed", slog.String("session", name))
	return nil
}

// Attach connects the current terminal to the session. Inside tmux it
// switches the client instead of nesting.
func (c *Client) Attach(name string) error {
	args := []string{"attach-session", "-t", exact(name)}
	if os.Getenv("TMUX") != "" {
		args = []string{"switch-client", "-t", exact(name)}
	}
	cmd := exec.Command(c.binary, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return fmt.Errorf("tmux is not installed or not on PATH: %w", apperr.ErrHostUnavailable)
		}
		return fmt.Errorf("attach %s: %w", name, err)
	}
	return nil
}

// splitIntoChunks splits content into pieces of at most maxSize bytes,
// cutting after the last newline that fits. A line longer than maxSize is
// cut at a rune boundary.
func splitIntoChunks(content string, maxSize int) []string {
	if content == "" {
		return nil
	}
	var chunks []string
	for len(content) > maxSize {
		cut := strings.LastIndexByte(content[:maxSize], '\n') + 1
		if cut <= 0 {
			cut = maxSize
			for cut > 0 && !utf8RuneStart(content[cut]) {
				cut--
			}
			if cut == 0 {
				cut = maxSize
			}
		}
		chunks = append(chunks, content[:cut])
		content = content[cut:]
	}
	return append(chunks, content)
}

func utf8RuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
