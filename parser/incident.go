// Package parser provides line-level parsing for correlator log files.
package parser

import (
	"regexp"
	"strings"
)

// longRunAfterColon matches a run of 80 or more characters following a
// colon. Such runs are almost always variable payload data (stack
// fragments, serialized values) rather than message structure.
var longRunAfterColon = regexp.MustCompile(`:[^:]{80,}`)

// NormalizeIncident reduces a WARN/ERROR message body to its grouping
// form. Two lines belong to the same logical incident iff their
// normalized bodies are identical.
//
// Normalization removes embedded stringified event payloads
// (bracket/brace-delimited blobs) and truncates any run of 80 or more
// characters that follows a colon.
func NormalizeIncident(message string) string {
	m := removeDelimited(message, '[', ']')
	m = removeDelimited(m, '{', '}')
	m = longRunAfterColon.ReplaceAllString(m, ":...")
	return strings.TrimSpace(collapseSpaces(m))
}

// removeDelimited strips every balanced open..close span, including
// nested ones. Unbalanced opens swallow the remainder of the string,
// which is the desired behavior for truncated event payloads.
func removeDelimited(s string, open, close byte) string {
	if strings.IndexByte(s, open) == -1 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case open:
			depth++
		case close:
			if depth > 0 {
				depth--
				continue
			}
			b.WriteByte(s[i])
		default:
			if depth == 0 {
				b.WriteByte(s[i])
			}
		}
	}
	return b.String()
}

// collapseSpaces squeezes runs of spaces left behind by blob removal.
func collapseSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ' ' || c == '\t' {
			if prevSpace {
				continue
			}
			prevSpace = true
			b.WriteByte(' ')
			continue
		}
		prevSpace = false
		b.WriteByte(c)
	}
	return b.String()
}
