// Package analysis implements the log extraction and column-allocation
// engine.
package analysis

import (
	"math"
	"strconv"
	"strings"
)

// Field is one raw key=value token from a status line.
type Field struct {
	Key    string
	Raw    string
	Quoted bool
}

// ParseFields tokenizes the field portion of a status line:
//
//	sm=12 nctx=3 lcn="my context" rx=1,234,567
//
// Values are either space-delimited tokens or double-quoted strings.
// Thousands-grouping commas inside unquoted values are suppressed so
// large counters parse as plain numbers; commas inside quoted strings
// are preserved.
func ParseFields(s string) []Field {
	var fields []Field
	i := 0
	n := len(s)
	for i < n {
		for i < n && (s[i] == ' ' || s[i] == '"') {
			i++
		}
		if i >= n {
			break
		}

		keyStart := i
		for i < n && s[i] != '=' && s[i] != ' ' {
			i++
		}
		if i >= n || s[i] != '=' {
			// Stray token without '='; skip it.
			continue
		}
		key := s[keyStart:i]
		i++ // consume '='

		var val strings.Builder
		quoted := false
		if i < n && s[i] == '"' {
			quoted = true
			i++
			for i < n && s[i] != '"' {
				val.WriteByte(s[i])
				i++
			}
			if i < n {
				i++ // closing quote
			}
		} else {
			for i < n && s[i] != ' ' {
				if s[i] != ',' { // suppress thousands separator
					val.WriteByte(s[i])
				}
				i++
			}
		}

		if key != "" {
			fields = append(fields, Field{Key: key, Raw: val.String(), Quoted: quoted})
		}
	}
	return fields
}

// ParseValue converts a raw field token into a cell value. Non-numeric
// and NaN-valued data (swap counters on some kernels, the cgroups
// literal "unavailable") resolve to missing rather than zero or an
// error; a corrupt sample never aborts the row.
func ParseValue(f Field) Value {
	if f.Quoted {
		return TextValue(f.Raw)
	}
	raw := f.Raw
	if raw == "" || strings.EqualFold(raw, "unavailable") {
		return MissingValue()
	}
	if num, err := strconv.ParseFloat(raw, 64); err == nil {
		if math.IsNaN(num) || math.IsInf(num, 0) {
			return MissingValue()
		}
		return NumberValue(num)
	}
	// Unquoted but not numeric: a name-like value (e.g. lcn=startup).
	return TextValue(raw)
}
