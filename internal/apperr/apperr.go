// Package apperr defines the error kinds shared by every occtl component
// and the process exit code each kind maps to.
package apperr

import "errors"

// Error kinds. Components wrap these with fmt.Errorf("...: %w", ErrX) so the
// dispatcher can classify failures with errors.Is.
var (
	// ErrNotFound is an unknown mapping or session name.
	ErrNotFound = errors.New("not found")

	// ErrHostUnavailable means tmux could not be invoked or did not answer in time.
	ErrHostUnavailable = errors.New("session host unavailable")

	// ErrCorruptState means a state or mapping file could not be parsed.
	// It is never repaired automatically.
	ErrCorruptState = errors.New("corrupt state file")

	// ErrNoFocusedSession means a command omitted the session name and nothing is focused.
	ErrNoFocusedSession = errors.New("no focused session")

	// ErrUnparseable means a voice phrase matched no rule and there is no
	// focused session to fall back to.
	ErrUnparseable = errors.New("unparseable phrase")

	// ErrSinkFailure is a notification sink failure. It never leaves the notifier.
	ErrSinkFailure = errors.New("notification sink failed")

	// ErrInvalidArgument is a malformed CLI argument.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrBusy means another oc process held a shared file lock past the
	// lock timeout. Retrying later is expected to succeed.
	ErrBusy = errors.New("busy")
)

// Exit codes. Distinct per kind so shell callers (Shortcuts, timers) can branch.
const (
	ExitOK               = 0
	ExitInternal         = 1
	ExitUsage            = 2
	ExitNotFound         = 3
	ExitHostUnavailable  = 4
	ExitCorruptState     = 5
	ExitNoFocusedSession = 6
	ExitUnparseable      = 7
	ExitBusy             = 8
)

// ExitCode returns the process exit code for err.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrInvalidArgument):
		return ExitUsage
	case errors.Is(err, ErrNotFound):
		return ExitNotFound
	case errors.Is(err, ErrHostUnavailable):
		return ExitHostUnavailable
	case errors.Is(err, ErrCorruptState):
		return ExitCorruptState
	case errors.Is(err, ErrNoFocusedSession):
		return ExitNoFocusedSession
	case errors.Is(err, ErrUnparseable):
		return ExitUnparseable
	case errors.Is(err, ErrBusy):
		return ExitBusy
	default:
		return ExitInternal
	}
}

// Kind returns a short stable label for err, used in structured logs.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrHostUnavailable):
		return "host_unavailable"
	case errors.Is(err, ErrCorruptState):
		return "corrupt_state"
	case errors.Is(err, ErrNoFocusedSession):
		return "no_focused_session"
	case errors.Is(err, ErrUnparseable):
		return "unparseable"
	case errors.Is(err, ErrSinkFailure):
		return "sink_failure"
	case errors.Is(err, ErrBusy):
		return "busy"
	default:
		return "internal"
	}
}
