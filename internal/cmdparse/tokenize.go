// Package cmdparse implements the Command Parser: turning
// a raw message body into zero or more ParsedCommands via shell-like
// tokenization, scope dispatch, and typed argument binding.
package cmdparse

import "strings"

// Tokenize splits s the way a shell would:
// space-separated, "..." and '...' preserve internal spaces, and a
// backslash escapes the next character. Quotes nest only by the same
// quote kind — a ' inside a "..." run is a literal character, and vice
// versa.
func Tokenize(s string) []string {
	var tokens []string
	var cur strings.Builder
	inToken := false
	var quote byte

	flush := func() {
		if inToken {
			tokens = append(tokens, cur.String())
			cur.Reset()
			inToken = false
		}
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
				continue
			}
			if c == '\\' && i+1 < len(s) {
				i++
				cur.WriteByte(s[i])
				continue
			}
			cur.WriteByte(c)
		case c == '\\' && i+1 < len(s):
			i++
			inToken = true
			cur.WriteByte(s[i])
		case c == '"' || c == '\'':
			quote = c
			inToken = true
		case c == ' ' || c == '\t':
			flush()
		default:
			inToken = true
			cur.WriteByte(c)
		}
	}
	flush()
	return tokens
}

// SplitLines returns s split into trimmed, non-empty lines.
func SplitLines(s string) []string {
	raw := strings.Split(s, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(l)
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
