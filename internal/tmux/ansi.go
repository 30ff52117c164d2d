package tmux

import "strings"

// StripANSI removes CSI, OSC and two-byte escape sequences from terminal
// output in a single pass. capture-pane without -e emits none, but panes
// captured with colors or piped logs do. 8-bit CSI (0x9b) is left alone
// since that byte is also a UTF-8 continuation byte.
//
// Hand-scanned rather than regex-based: malformed sequences in long panes
// make backtracking patterns pathological.
func StripANSI(s string) string {
	if strings.IndexByte(s, 0x1b) < 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		switch {
		case s[i] == 0x1b && i+1 < len(s) && s[i+1] == '[':
			i = skipCSI(s, i+2)
		case s[i] == 0x1b && i+1 < len(s) && s[i+1] == ']':
			i = skipOSC(s, i+2)
		case s[i] == 0x1b && i+1 < len(s):
			i += 2
		case s[i] == 0x1b:
			i++
		default:
			b.WriteByte(s[i])
			i++
		}
	}
	return b.String()
}

// skipCSI returns the index after the final byte (0x40–0x7E) of a CSI sequence.
func skipCSI(s string, i int) int {
	for i < len(s) {
		c := s[i]
		i++
		if c >= 0x40 && c <= 0x7e {
			break
		}
	}
	return i
}

// skipOSC returns the index after the BEL or ST terminating an OSC sequence.
// An unterminated OSC swallows the rest of the input.
func skipOSC(s string, i int) int {
	for i < len(s) {
		if s[i] == 0x07 {
			return i + 1
		}
		if s[i] == 0x1b && i+1 < len(s) && s[i+1] == '\\' {
			return i + 2
		}
		i++
	}
	return i
}
