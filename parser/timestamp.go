// Package parser provides line-level parsing for correlator log files.
package parser

import (
	"fmt"
	"time"
)

// timestampLen is the fixed width of a correlator timestamp:
// "2006-01-02 15:04:05.000". The fractional separator is either "." or
// "," depending on the locale/library variant the correlator was built
// with; both must parse to the same instant.
const timestampLen = 23

// Resolver parses leading timestamps and normalizes them to UTC.
//
// Correlator timestamps carry no timezone: they are local to the machine
// that wrote the file. Offset is the recording timezone's offset east of
// UTC; it is subtracted to obtain an absolute instant so that files
// recorded in different timezones concatenate into a consistent order.
// The offset is also carried alongside extracted tables so the chart
// layer can correct for daylight-saving discrepancies at render time.
type Resolver struct {
	Offset time.Duration
}

// NewResolver returns a resolver for logs recorded at the given offset
// east of UTC, in minutes.
func NewResolver(offsetMinutes int) *Resolver {
	return &Resolver{Offset: time.Duration(offsetMinutes) * time.Minute}
}

// Resolve parses the leading timestamp of a log line and returns the
// normalized UTC instant. Returns ErrUnparseableTimestamp if the line
// does not start with a valid timestamp.
//
// This uses positional checks rather than time.Parse so that the comma
// fractional-seconds variant ("15:04:05,123") is accepted without the
// comma being mistaken for a field separator elsewhere in the line.
func (r *Resolver) Resolve(line string) (time.Time, error) {
	if len(line) < timestampLen {
		return time.Time{}, fmt.Errorf("%w: line too short", ErrUnparseableTimestamp)
	}

	// "YYYY-MM-DD HH:MM:SS.mmm"
	//  0123456789012345678901 2
	if line[4] != '-' || line[7] != '-' ||
		line[10] != ' ' ||
		line[13] != ':' || line[16] != ':' {
		return time.Time{}, fmt.Errorf("%w: bad separators", ErrUnparseableTimestamp)
	}
	if line[19] != '.' && line[19] != ',' {
		return time.Time{}, fmt.Errorf("%w: bad fractional separator", ErrUnparseableTimestamp)
	}

	year, ok1 := atoi(line[0:4])
	month, ok2 := atoi(line[5:7])
	day, ok3 := atoi(line[8:10])
	hour, ok4 := atoi(line[11:13])
	min, ok5 := atoi(line[14:16])
	sec, ok6 := atoi(line[17:19])
	millis, ok7 := atoi(line[20:23])
	if !(ok1 && ok2 && ok3 && ok4 && ok5 && ok6 && ok7) {
		return time.Time{}, fmt.Errorf("%w: non-numeric component", ErrUnparseableTimestamp)
	}
	if month < 1 || month > 12 || day < 1 || day > 31 ||
		hour > 23 || min > 59 || sec > 60 {
		return time.Time{}, fmt.Errorf("%w: component out of range", ErrUnparseableTimestamp)
	}

	t := time.Date(year, time.Month(month), day, hour, min, sec, millis*int(time.Millisecond), time.UTC)
	return t.Add(-r.Offset), nil
}

// atoi converts an all-digit substring without allocation.
func atoi(s string) (int, bool) {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}
