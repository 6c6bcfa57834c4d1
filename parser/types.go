// Package parser provides line-level parsing for correlator log files:
// timestamp resolution, record classification, container prefix handling
// and re-readable line sources (plain, gzip, zstd, archives).
package parser

import (
	"errors"
	"fmt"
	"log"
	"time"
)

// RecordKind identifies the logical record type of a classified log line.
type RecordKind int

const (
	KindIgnored RecordKind = iota
	KindStatus                 // periodic "Correlator Status:" line
	KindUserStatus             // user-configured status line with dynamic keys
	KindProxyStatus            // "Proxy Status:" counter line with dynamic keys
	KindConnectionEvent        // receiver/sender connect or disconnect
	KindWarnError              // WARN, ERROR or FATAL level line
	KindStartupBanner          // process startup banner, may have no timestamp
)

// String returns the record kind name used in diagnostics and output files.
func (k RecordKind) String() string {
	switch k {
	case KindStatus:
		return "status"
	case KindUserStatus:
		return "userStatus"
	case KindProxyStatus:
		return "proxyStatus"
	case KindConnectionEvent:
		return "connection"
	case KindWarnError:
		return "warnError"
	case KindStartupBanner:
		return "startupBanner"
	default:
		return "ignored"
	}
}

// Record is a classified, timestamped log line. Records are ephemeral:
// they are produced by ScanRecords and consumed immediately by the
// extraction engine.
type Record struct {
	// Kind is the logical record type.
	Kind RecordKind

	// Instant is the line's timestamp normalized to UTC. Zero for
	// startup-banner lines that carry no timestamp; such records are
	// ordered first within their file.
	Instant time.Time

	// Level is the log level token (INFO, WARN, ERROR, ...). Empty when
	// the line had no standard prefix.
	Level string

	// Thread is the logging thread identifier from the line prefix.
	Thread string

	// Message is the message body after the " - " separator, with any
	// container-runtime wrapper prefix already stripped.
	Message string

	// Raw is the original line before prefix stripping, kept for
	// diagnostics only.
	Raw string

	// Num is the 1-based line number within the source file.
	Num int

	// Source identifies the input file the line came from.
	Source string
}

// Sentinel errors for line-level failures. Per-line failures are
// non-fatal: the offending line is dropped and counted in Diagnostics.
var (
	ErrUnparseableTimestamp = errors.New("unparseable timestamp")
	ErrMalformedLine        = errors.New("malformed log line")
)

// Diagnostics collects non-fatal issues encountered during a run so they
// can be surfaced in a summary instead of being thrown mid-stream.
// A Diagnostics value is owned by a single goroutine; per-file instances
// are combined with Merge after extraction completes.
type Diagnostics struct {
	counts  map[string]int
	samples map[string]string
}

// NewDiagnostics returns an empty diagnostics collector.
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{
		counts:  map[string]int{},
		samples: map[string]string{},
	}
}

// Record counts one occurrence of a diagnostic category, keeping the
// first sample for the summary.
func (d *Diagnostics) Record(category, sample string) {
	d.counts[category]++
	if _, ok := d.samples[category]; !ok {
		d.samples[category] = sample
	}
}

// Recordf is Record with a formatted sample.
func (d *Diagnostics) Recordf(category, format string, args ...interface{}) {
	d.Record(category, fmt.Sprintf(format, args...))
}

// Merge folds another collector into this one.
func (d *Diagnostics) Merge(other *Diagnostics) {
	for cat, n := range other.counts {
		d.counts[cat] += n
		if _, ok := d.samples[cat]; !ok {
			d.samples[cat] = other.samples[cat]
		}
	}
}

// Count returns the number of occurrences recorded for a category.
func (d *Diagnostics) Count(category string) int {
	return d.counts[category]
}

// Summarize logs one [WARN] line per diagnostic category.
func (d *Diagnostics) Summarize() {
	for cat, n := range d.counts {
		log.Printf("[WARN] %d %s line(s) skipped (first: %s)", n, cat, d.samples[cat])
	}
}
