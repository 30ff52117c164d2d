package tmux

import (
	"context"
	"time"
)

// SessionInfo is one row of `tmux list-sessions`.
type SessionInfo struct {
	Name     string
	Attached bool
	Windows  int
}

// Host is the terminal-session host occtl drives. Client implements it on
// top of the tmux binary; tests substitute an in-memory fake.
type Host interface {
	// Exists reports whether a session with exactly this name is running.
	Exists(ctx context.Context, name string) (bool, error)
	// Create starts a detached session in workDir and types launchCommand
	// into its main window. It is a no-op when the session already exists.
	Create(ctx context.Context, name, workDir, launchCommand string) error
	List(ctx context.Context) ([]SessionInfo, error)
	SendText(ctx context.Context, name, text string) error
	SendEnter(ctx context.Context, name string) error
	// Capture returns the last lines of the main window, wrapped lines joined.
	Capture(ctx context.Context, name string, lines int) (string, error)
	LastActivity(ctx context.Context, name string) (time.Time, error)
	Kill(ctx context.Context, name string) error
	// Attach hands the terminal to tmux and blocks until the user detaches.
	Attach(name string) error
}
