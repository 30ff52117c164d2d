package idle

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Kind classifies what an idle pane appears to be doing.
type Kind int

const (
	// Quiet is plain unchanged output.
	Quiet Kind = iota
	// AwaitingInput is a visible prompt waiting for the user.
	AwaitingInput
	// Stalled is an agent stuck in a planning phase.
	Stalled
)

func (k Kind) String() string {
	switch k {
	case AwaitingInput:
		return "awaiting_input"
	case Stalled:
		return "stalled"
	default:
		return "idle"
	}
}

// Match describes the pattern that classified a pane.
type Match struct {
	Kind    Kind
	Pattern string
	// Snippet is the last pane line matching Pattern, compacted.
	Snippet string
}

// SnippetLimit caps Match.Snippet in runes.
const SnippetLimit = 160

// Matched against lowercased pane text, in order.
var (
	waitPatterns = compileAll(
		`press enter`,
		`awaiting input`,
		`continue\?`,
		`\bcontinue\b`,
		`\(y/n\)`,
		`user input required`,
		`confirm\?`,
	)
	stallPatterns = compileAll(
		`thinking:\s+planning`,
		`planning phase\s+\d+`,
		`spawning planner\.{0,3}`,
	)
)

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

// Classify looks for input prompts first, then stall markers.
func Classify(text string) Match {
	lower := strings.ToLower(text)
	for _, re := range waitPatterns {
		if re.MatchString(lower) {
			return Match{Kind: AwaitingInput, Pattern: re.String(), Snippet: snippet(text, re)}
		}
	}
	for _, re := range stallPatterns {
		if re.MatchString(lower) {
			return Match{Kind: Stalled, Pattern: re.String(), Snippet: snippet(text, re)}
		}
	}
	return Match{Kind: Quiet}
}

// snippet returns the last non-blank line matching re, or the last
// non-blank line when none does.
func snippet(text string, re *regexp.Regexp) string {
	lines := strings.Split(text, "\n")
	last := ""
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if last == "" {
			last = line
		}
		if re.MatchString(strings.ToLower(line)) {
			return truncate(line, SnippetLimit)
		}
	}
	return truncate(last, SnippetLimit)
}

func truncate(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit-3]) + "..."
}
