// Package idle decides, from successive captures of a pane, whether a
// session has gone quiet long enough to alert about it.
//
// Detection is a heuristic over captured text: a program that repaints
// byte-identical frames is indistinguishable from a frozen one.
package idle

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/tchow-twistedxcom/occtl/internal/state"
	"github.com/tchow-twistedxcom/occtl/internal/tmux"
)

// Decision is the outcome of one watch pass.
type Decision int

const (
	// Active means the output changed since the previous pass.
	Active Decision = iota
	// BelowThreshold means unchanged output, but not for long enough.
	BelowThreshold
	// ShouldAlert means the caller must notify and persist the new state.
	ShouldAlert
	// AlreadyAlerted means this idle episode was already reported.
	AlreadyAlerted
)

func (d Decision) String() string {
	switch d {
	case Active:
		return "active"
	case BelowThreshold:
		return "below_threshold"
	case ShouldAlert:
		return "should_alert"
	case AlreadyAlerted:
		return "already_alerted"
	default:
		return "unknown"
	}
}

// Result carries the decision, the watch state to persist, and what the
// pane looked like.
type Result struct {
	Decision Decision
	Next     state.SessionWatchState
	// IdleFor is how long the output has been unchanged (0 when Active).
	IdleFor time.Duration
	// Threshold is the idle threshold that applied to this pass.
	Threshold time.Duration
	Match     Match
}

// Strategy evaluates one capture against the previous watch state.
// Implementations must be pure: same inputs, same Result.
type Strategy interface {
	Evaluate(prior state.SessionWatchState, text string, now time.Time) Result
}

// FingerprintDetector treats a pane as idle while the hash of its
// normalized text stays the same.
type FingerprintDetector struct {
	// IdleThreshold applies to plain idle and stalled panes.
	IdleThreshold time.Duration
	// PromptThreshold applies while the pane shows an input prompt.
	PromptThreshold time.Duration
	// RealertCooldown is the minimum gap between two alerts of one episode.
	RealertCooldown time.Duration
}

var _ Strategy = FingerprintDetector{}

// Evaluate implements Strategy.
func (d FingerprintDetector) Evaluate(prior state.SessionWatchState, text string, now time.Time) Result {
	normalized := Normalize(text)
	fp := fingerprint(normalized)
	match := Classify(normalized)

	threshold := d.IdleThreshold
	if match.Kind == AwaitingInput {
		threshold = d.PromptThreshold
	}

	if fp != prior.LastOutputFingerprint {
		return Result{
			Decision:  Active,
			Next:      state.SessionWatchState{LastOutputFingerprint: fp, LastChangeAt: now},
			Threshold: threshold,
			Match:     match,
		}
	}

	next := prior
	idleFor := now.Sub(prior.LastChangeAt)
	if idleFor < 0 {
		// Clock went backwards; treat as freshly changed.
		idleFor = 0
	}
	res := Result{Next: next, IdleFor: idleFor, Threshold: threshold, Match: match}

	switch {
	case idleFor < threshold:
		res.Decision = BelowThreshold
	case prior.LastAlertAt == nil || now.Sub(*prior.LastAlertAt) >= d.RealertCooldown:
		alertAt := now
		res.Next.LastAlertAt = &alertAt
		res.Decision = ShouldAlert
	default:
		res.Decision = AlreadyAlerted
	}
	return res
}

// Normalize strips ANSI escapes and trailing whitespace on every line.
// Nothing else is touched, so any visible change starts a new episode.
func Normalize(text string) string {
	text = tmux.StripANSI(text)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}
	return strings.Join(lines, "\n")
}

// Fingerprint returns the hex SHA-256 of the normalized text.
func Fingerprint(text string) string {
	return fingerprint(Normalize(text))
}

func fingerprint(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
