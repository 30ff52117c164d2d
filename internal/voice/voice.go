// Package voice turns a dictated phrase into a structured command using an
// ordered rule table. The first matching rule wins; there is no fuzzy
// matching, so the same phrase always yields the same intent.
package voice

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/tchow-twistedxcom/occtl/internal/apperr"
	"github.com/tchow-twistedxcom/occtl/internal/logging"
)

var voiceLog = logging.ForComponent(logging.CompVoice)

// Action is the command an Intent maps to.
type Action int

const (
	ActionStatus Action = iota + 1
	ActionList
	ActionEnsure
	ActionNew
	ActionFocus
	ActionEnter
	ActionSay
)

func (a Action) String() string {
	switch a {
	case ActionStatus:
		return "status"
	case ActionList:
		return "list"
	case ActionEnsure:
		return "ensure"
	case ActionNew:
		return "new"
	case ActionFocus:
		return "focus"
	case ActionEnter:
		return "enter"
	case ActionSay:
		return "say"
	default:
		return "unknown"
	}
}

// Intent is a parsed phrase. Session is empty when the command targets the
// focused session.
type Intent struct {
	Action  Action
	Session string
	Text    string
}

func (i Intent) String() string {
	switch {
	case i.Text != "" && i.Session != "":
		return fmt.Sprintf("%s(%s, %q)", i.Action, i.Session, i.Text)
	case i.Text != "":
		return fmt.Sprintf("%s(%q)", i.Action, i.Text)
	case i.Session != "":
		return fmt.Sprintf("%s(%s)", i.Action, i.Session)
	default:
		return i.Action.String()
	}
}

type rule struct {
	name string
	re   *regexp.Regexp
	// build receives the submatches of re against the cleaned phrase.
	build func(m []string) Intent
	// named rules are skipped when the extracted session name is empty.
	named bool
	// verbatim rules take their text from the phrase before punctuation
	// is stripped.
	verbatim bool
}

func named(name, expr string, a Action) rule {
	return rule{name: name, re: regexp.MustCompile(expr), named: true, build: func(m []string) Intent {
		return Intent{Action: a, Session: normalizeName(m[len(m)-1])}
	}}
}

func fixed(name, expr string, a Action) rule {
	return rule{name: name, re: regexp.MustCompile(expr), build: func([]string) Intent {
		return Intent{Action: a}
	}}
}

// Matched case-insensitively against the trimmed phrase, in order.
var rules = []rule{
	fixed("status", `(?i)^(?:status|what(?:['’]?s| is)\s+my\s+status)\b`, ActionStatus),
	fixed("list", `(?i)^(?:ls|list|(?:list|show)\s+(?:sessions|tmux|ai))$`, ActionList),
	named("ensure", `(?i)^ensure\s+(.+)$`, ActionEnsure),
	named("start", `(?i)^start\s+(.+)$`, ActionNew),
	named("switch", `(?i)^switch\s+to\s+(.+)$`, ActionFocus),
	named("new", `(?i)^(?:new|create)\s+(?:session\s+)?(.+)$`, ActionNew),
	// Voice never attaches interactively: open/attach/go to only focus.
	named("focus", `(?i)^(?:focus|open|attach|go\s+to)\s+(.+)$`, ActionFocus),
	fixed("enter", `(?i)^(?:continue|enter|confirm|submit)$`, ActionEnter),
	{
		name:     "tell",
		verbatim: true,
		re:       regexp.MustCompile(`(?i)^tell\s+([a-z0-9._:-]+)\s+(.+)$`),
		build: func(m []string) Intent {
			return Intent{Action: ActionSay, Session: normalizeName(m[1]), Text: strings.TrimSpace(m[2])}
		},
	},
	{
		name:     "say",
		verbatim: true,
		re:       regexp.MustCompile(`(?i)^say\s+(.+)$`),
		build: func(m []string) Intent {
			return Intent{Action: ActionSay, Text: strings.TrimSpace(m[1])}
		},
	},
}

// Parse resolves phrase to an Intent. Keywords are matched with trailing
// dictation punctuation ignored, but text to send keeps it. A phrase that
// matches no rule is sent verbatim to the focused session; with nothing
// focused it fails with apperr.ErrUnparseable.
func Parse(phrase, focused string) (Intent, error) {
	raw := strings.TrimSpace(phrase)
	p := clean(raw)
	if p == "" {
		return Intent{}, fmt.Errorf("empty phrase: %w", apperr.ErrUnparseable)
	}

	for _, r := range rules {
		m := r.re.FindStringSubmatch(p)
		if m == nil {
			continue
		}
		if r.verbatim {
			if full := r.re.FindStringSubmatch(raw); full != nil {
				m = full
			}
		}
		intent := r.build(m)
		if r.named && intent.Session == "" {
			continue
		}
		voiceLog.Debug("voice_parsed", slog.String("rule", r.name), slog.String("intent", intent.String()))
		return intent, nil
	}

	if focused == "" {
		voiceLog.Info("voice_unparseable", slog.String("phrase", p))
		return Intent{}, fmt.Errorf("%q matched no command and no session is focused: %w", p, apperr.ErrUnparseable)
	}
	voiceLog.Debug("voice_parsed", slog.String("rule", "fallback"), slog.String("focused", focused))
	return Intent{Action: ActionSay, Text: raw}, nil
}

// clean trims whitespace and trailing dictation punctuation.
func clean(phrase string) string {
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(phrase), ".!?"))
}

// normalizeName lowercases a spoken session name, strips surrounding quotes
// and collapses inner whitespace. Multi-word names are kept.
func normalizeName(raw string) string {
	s := strings.TrimSpace(raw)
	for _, q := range [][2]string{{`"`, `"`}, {`'`, `'`}, {"“", "”"}, {"‘", "’"}} {
		if len(s) >= len(q[0])+len(q[1]) && strings.HasPrefix(s, q[0]) && strings.HasSuffix(s, q[1]) {
			s = strings.TrimSpace(s[len(q[0]) : len(s)-len(q[1])])
			break
		}
	}
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Candidates lists the mapping keys a spoken name may refer to, most
// specific first: the name itself, then with spaces joined by "-".
func Candidates(name string) []string {
	out := []string{name}
	if dashed := strings.ReplaceAll(name, " ", "-"); dashed != name {
		out = append(out, dashed)
	}
	return out
}
