// Package parser provides line-level parsing for correlator log files.
package parser

import (
	"strings"
)

// Well-known message prefixes, checked in priority order: the most
// specific patterns first so a proxy-status line is never misclassified
// as a generic user status line.
const (
	statusPrefix = "Correlator Status: "
	proxyPrefix  = "Proxy Status: "
	bannerPrefix = "Correlator, version"
)

// maxContainerPrefixLen bounds how far into a line a container-runtime
// wrapper prefix ("id | ") is searched for.
const maxContainerPrefixLen = 64

// Classifier maps raw lines to record kinds. Classification is pure:
// the classifier holds only the configured user status prefix and has no
// mutable state, so it is safe to share across files and workers.
type Classifier struct {
	// FieldPrefix is the user-configured status-line prefix. Empty
	// disables user-status classification.
	FieldPrefix string
}

// Classify determines the record kind of a message body and returns the
// unparsed remainder that fields should be extracted from.
func (c *Classifier) Classify(level, message string) (RecordKind, string) {
	switch {
	case strings.HasPrefix(message, bannerPrefix):
		return KindStartupBanner, message

	case strings.HasPrefix(message, statusPrefix):
		return KindStatus, message[len(statusPrefix):]

	case strings.HasPrefix(message, proxyPrefix):
		return KindProxyStatus, message[len(proxyPrefix):]

	default:
	}

	if rest, ok := c.matchUserPrefix(message); ok {
		return KindUserStatus, rest
	}

	if remote, connected, ok := matchConnectionEvent(message); ok {
		if connected {
			return KindConnectionEvent, "+" + remote
		}
		return KindConnectionEvent, "-" + remote
	}

	switch level {
	case "WARN", "ERROR", "FATAL":
		return KindWarnError, message
	}

	return KindIgnored, message
}

// matchUserPrefix tolerates the configured prefix with or without a
// trailing separator, and skips an optional bracketed monitor-identifier
// segment between the prefix and the separator:
//
//	MyApp Status: a=1 b=2
//	MyApp Status [mon42]: a=1 b=2
//	MyApp Status a=1 b=2
func (c *Classifier) matchUserPrefix(message string) (string, bool) {
	if c.FieldPrefix == "" || !strings.HasPrefix(message, c.FieldPrefix) {
		return "", false
	}
	rest := message[len(c.FieldPrefix):]

	// The prefix must end at a word boundary.
	if rest != "" && rest[0] != ' ' && rest[0] != ':' && rest[0] != '=' && rest[0] != '[' {
		return "", false
	}

	rest = strings.TrimLeft(rest, " ")
	if strings.HasPrefix(rest, "[") {
		end := strings.IndexByte(rest, ']')
		if end == -1 {
			return "", false
		}
		rest = strings.TrimLeft(rest[end+1:], " ")
	}
	if strings.HasPrefix(rest, ":") || strings.HasPrefix(rest, "=") {
		rest = rest[1:]
	}
	return strings.TrimLeft(rest, " "), true
}

// matchConnectionEvent recognizes receiver/sender connect and disconnect
// messages, e.g. "Receiver engine_receive (component 42) connected".
func matchConnectionEvent(message string) (remote string, connected, ok bool) {
	if !strings.HasPrefix(message, "Receiver ") && !strings.HasPrefix(message, "Sender ") {
		return "", false, false
	}
	switch {
	case strings.HasSuffix(message, " connected"):
		connected = true
	case strings.HasSuffix(message, " disconnected"):
		connected = false
	default:
		return "", false, false
	}

	// Remote identity is the token after the direction word.
	fields := strings.Fields(message)
	if len(fields) < 2 {
		return "", false, false
	}
	return fields[1], connected, true
}

// StripContainerPrefix removes a known container-runtime wrapper prefix
// ("id | ") from a line, returning the stripped line and the identifier.
// The original line is preserved by the caller for diagnostics.
//
// The identifier segment must be a single token without internal
// whitespace; a log line's own timestamp contains spaces before any "|",
// so real log lines are never mistaken for wrapped ones.
func StripContainerPrefix(line string) (string, string) {
	limit := len(line)
	if limit > maxContainerPrefixLen {
		limit = maxContainerPrefixLen
	}
	p := strings.IndexByte(line[:limit], '|')
	if p <= 0 {
		return line, ""
	}

	id := strings.TrimRight(line[:p], " \t")
	if id == "" || strings.ContainsAny(id, " \t") {
		return line, ""
	}

	rest := line[p+1:]
	if strings.HasPrefix(rest, " ") {
		rest = rest[1:]
	}
	return rest, id
}

// splitLinePrefix separates a raw line into its timestamp substring,
// level, thread and message body:
//
//	2019-09-12 13:00:52,123 INFO  [1402860.a] - <cat> Message text
//
// Returns ok=false when the line does not have the standard structure.
func splitLinePrefix(line string) (ts, level, thread, message string, ok bool) {
	if len(line) < timestampLen+1 || line[0] < '0' || line[0] > '9' {
		return "", "", "", "", false
	}
	ts = line[:timestampLen]

	i := timestampLen
	for i < len(line) && line[i] == ' ' {
		i++
	}
	levelStart := i
	for i < len(line) && line[i] >= 'A' && line[i] <= 'Z' {
		i++
	}
	level = line[levelStart:i]
	if level == "" {
		return "", "", "", "", false
	}

	for i < len(line) && line[i] == ' ' {
		i++
	}
	if i >= len(line) || line[i] != '[' {
		return "", "", "", "", false
	}
	end := strings.IndexByte(line[i:], ']')
	if end == -1 {
		return "", "", "", "", false
	}
	thread = line[i+1 : i+end]
	i += end + 1

	const sep = " - "
	if !strings.HasPrefix(line[i:], sep) {
		return "", "", "", "", false
	}
	message = line[i+len(sep):]

	// Optional log category segment: "<category> message".
	if strings.HasPrefix(message, "<") {
		if catEnd := strings.Index(message, "> "); catEnd != -1 {
			message = message[catEnd+2:]
		}
	}

	return ts, level, thread, message, true
}
