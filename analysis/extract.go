// Package analysis implements the log extraction and column-allocation
// engine. This file drives a single file end-to-end: survey pass, column
// allocation for dynamic kinds, then the fill pass that produces the
// per-file tables.
package analysis

import (
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/nfairburn/chartlog/parser"
)

// instanceIDPattern extracts an embedded process identifier from a
// startup banner line, e.g. "Correlator, version 10.5.3, ID: corr-a1".
var instanceIDPattern = regexp.MustCompile(`\b(?:ID|PID)[:=] ?([\w.-]+)`)

// Extractor converts one log file into per-kind time-series tables.
// An Extractor is stateless across files and safe to share between
// workers; all per-file state lives in the extraction run.
type Extractor struct {
	Classifier *parser.Classifier
	Resolver   *parser.Resolver

	// Dynamic-key configuration for user status lines.
	KeyRegex    *regexp.Regexp
	MaxKeys     int
	OtherBucket bool
	Aliases     map[string]string

	// SkipFraction discards data rows within the first fraction of the
	// file's [min,max] time span. Startup banner lines are always kept.
	SkipFraction float64
}

// ExtractResult is everything extracted from one file. It is consumed
// once by the merger and then discarded.
type ExtractResult struct {
	Source        string
	Instance      string
	DisplayOffset time.Duration

	Status     *FileTable
	UserStatus *FileTable
	Proxy      *FileTable

	Connections []ConnectionEvent
	Incidents   *IncidentLog
	Banner      []string
	Restarts    int

	// Start and End bound all timestamped records in the file,
	// before the skip window is applied.
	Start time.Time
	End   time.Time

	Diags *parser.Diagnostics
}

// fileSurvey is the outcome of the first pass over a file.
type fileSurvey struct {
	start, end time.Time
	statusKeys []string
	kindCounts map[parser.RecordKind]int
	banner     []string
	instance   string
}

// ExtractFile runs the survey, allocation and fill passes over one
// re-readable source and returns its tables. Failure to allocate
// columns for one dynamic kind aborts only that kind's extraction; the
// other record kinds still succeed.
func (e *Extractor) ExtractFile(src parser.LineSource) (*ExtractResult, error) {
	diags := parser.NewDiagnostics()
	// Line-level diagnostics are recorded during the survey pass only.
	// The allocation and fill passes re-read the same content, so giving
	// them the run collector would count each bad line once per pass.
	scan := func(fn func(parser.Record) error) error {
		return parser.ScanRecords(src, e.Classifier, e.Resolver, diags, fn)
	}
	quiet := parser.NewDiagnostics()
	rescan := func(fn func(parser.Record) error) error {
		return parser.ScanRecords(src, e.Classifier, e.Resolver, quiet, fn)
	}

	survey, err := e.survey(scan)
	if err != nil {
		return nil, err
	}

	res := &ExtractResult{
		Source:        src.Name(),
		Instance:      survey.instance,
		DisplayOffset: e.Resolver.Offset,
		Connections:   nil,
		Incidents:     NewIncidentLog(),
		Banner:        survey.banner,
		Start:         survey.start,
		End:           survey.end,
		Diags:         diags,
	}

	var statusSchema, userSchema, proxySchema *ColumnSchema

	if len(survey.statusKeys) > 0 {
		statusSchema = BuildStatusSchema(survey.statusKeys, e.Aliases)
	}
	if survey.kindCounts[parser.KindProxyStatus] > 0 {
		proxySchema = e.allocateDynamic(parser.KindProxyStatus, rescan, diags, src.Name())
	}
	if survey.kindCounts[parser.KindUserStatus] > 0 {
		userSchema = e.allocateDynamic(parser.KindUserStatus, rescan, diags, src.Name())
	}

	if err := e.fill(rescan, survey, res, statusSchema, userSchema, proxySchema); err != nil {
		return nil, err
	}
	return res, nil
}

// survey performs the metadata pass: time range, observed status keys,
// per-kind record counts, banner text and instance identity.
func (e *Extractor) survey(scan RecordScanner) (*fileSurvey, error) {
	s := &fileSurvey{kindCounts: map[parser.RecordKind]int{}}
	statusSeen := map[string]bool{}

	err := scan(func(rec parser.Record) error {
		s.kindCounts[rec.Kind]++

		if !rec.Instant.IsZero() {
			if s.start.IsZero() || rec.Instant.Before(s.start) {
				s.start = rec.Instant
			}
			if rec.Instant.After(s.end) {
				s.end = rec.Instant
			}
		}

		switch rec.Kind {
		case parser.KindStatus:
			for _, f := range ParseFields(rec.Message) {
				if !statusSeen[f.Key] {
					statusSeen[f.Key] = true
					s.statusKeys = append(s.statusKeys, f.Key)
				}
			}
		case parser.KindStartupBanner:
			s.banner = append(s.banner, rec.Message)
			if s.instance == "" {
				if m := instanceIDPattern.FindStringSubmatch(rec.Message); m != nil {
					s.instance = m[1]
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// allocateDynamic runs the discover-then-allocate passes for one
// dynamic record kind. Allocation failure is downgraded to a diagnostic
// and a nil schema.
func (e *Extractor) allocateDynamic(kind parser.RecordKind, scan RecordScanner, diags *parser.Diagnostics, source string) *ColumnSchema {
	alloc := &Allocator{
		Kind:        kind,
		MaxKeys:     e.MaxKeys,
		OtherBucket: e.OtherBucket,
		Aliases:     e.Aliases,
	}
	if kind == parser.KindUserStatus {
		alloc.KeyRegex = e.KeyRegex
	}

	schema, err := alloc.Allocate(scan, diags)
	if err != nil {
		log.Printf("[WARN] %s: %v; skipping %s extraction", source, err, kind)
		diags.Recordf("columnAllocationFailed", "%s (%s)", source, kind)
		return nil
	}
	return schema
}

// fill performs the final pass, assigning each record's values into the
// finalized schemas and applying the skip window and restart handling.
func (e *Extractor) fill(scan RecordScanner, survey *fileSurvey, res *ExtractResult,
	statusSchema, userSchema, proxySchema *ColumnSchema) error {

	cutoff := skipCutoff(survey.start, survey.end, e.SkipFraction)

	var annotator *statusAnnotator
	if statusSchema != nil {
		annotator = newStatusAnnotator(statusSchema)
		res.Status = &FileTable{
			Source:        res.Source,
			Instance:      res.Instance,
			DisplayOffset: res.DisplayOffset,
			Schema:        statusSchema,
		}
	}
	if userSchema != nil {
		res.UserStatus = &FileTable{
			Source:        res.Source,
			Instance:      res.Instance,
			DisplayOffset: res.DisplayOffset,
			Schema:        userSchema,
		}
	}
	if proxySchema != nil {
		res.Proxy = &FileTable{
			Source:        res.Source,
			Instance:      res.Instance,
			DisplayOffset: res.DisplayOffset,
			Schema:        proxySchema,
		}
	}

	dataRows := 0
	restartPending := false

	err := scan(func(rec parser.Record) error {
		switch rec.Kind {
		case parser.KindStartupBanner:
			// A banner after data rows marks a mid-file restart: the
			// rate baseline resets so the next interval is not computed
			// against pre-restart cumulative counters.
			if dataRows > 0 {
				restartPending = true
				res.Restarts++
				if annotator != nil {
					annotator.Reset()
				}
			}

		case parser.KindStatus:
			if annotator == nil {
				return nil
			}
			values := annotator.Annotate(rec.Instant, ParseFields(rec.Message))
			if rec.Instant.Before(cutoff) {
				// Skipped rows still feed the annotator above so the
				// first retained row gets a correct rate baseline.
				return nil
			}
			row := SeriesRow{Instant: rec.Instant, LineNum: rec.Num, Values: values}
			if restartPending {
				row.Annotation = AnnotationStart
				restartPending = false
			}
			appendRow(res.Status, row)
			dataRows++

		case parser.KindUserStatus:
			if userSchema == nil || rec.Instant.Before(cutoff) {
				return nil
			}
			fields := e.dynamicFields(ParseFields(rec.Message))
			row := SeriesRow{Instant: rec.Instant, LineNum: rec.Num, Values: FillRow(userSchema, fields)}
			if restartPending {
				row.Annotation = AnnotationStart
				restartPending = false
			}
			appendRow(res.UserStatus, row)
			dataRows++

		case parser.KindProxyStatus:
			if proxySchema == nil || rec.Instant.Before(cutoff) {
				return nil
			}
			row := SeriesRow{Instant: rec.Instant, LineNum: rec.Num, Values: FillRow(proxySchema, ParseFields(rec.Message))}
			if restartPending {
				row.Annotation = AnnotationStart
				restartPending = false
			}
			appendRow(res.Proxy, row)
			dataRows++

		case parser.KindConnectionEvent:
			remote := rec.Message
			connected := strings.HasPrefix(remote, "+")
			res.Connections = append(res.Connections, ConnectionEvent{
				Instant:   rec.Instant,
				LineNum:   rec.Num,
				Source:    rec.Source,
				Remote:    strings.TrimLeft(remote, "+-"),
				Connected: connected,
			})

		case parser.KindWarnError:
			res.Incidents.Add(rec.Level, rec.Message, rec.Instant)
		}
		return nil
	})
	return err
}

// dynamicFields keeps only the fields whose keys match the configured
// dynamic-key pattern.
func (e *Extractor) dynamicFields(fields []Field) []Field {
	if e.KeyRegex == nil {
		return fields
	}
	kept := fields[:0]
	for _, f := range fields {
		if e.KeyRegex.MatchString(f.Key) {
			kept = append(kept, f)
		}
	}
	return kept
}

// skipCutoff computes the instant before which data rows are discarded:
// start + fraction of the file's [min,max] span. The window is applied
// by instant, not byte offset.
func skipCutoff(start, end time.Time, fraction float64) time.Time {
	if start.IsZero() || !end.After(start) || fraction <= 0 {
		return start
	}
	span := end.Sub(start)
	return start.Add(time.Duration(float64(span) * fraction))
}

// appendRow adds a row to a table, maintaining the table's data bounds.
func appendRow(t *FileTable, row SeriesRow) {
	if t.Start.IsZero() || row.Instant.Before(t.Start) {
		t.Start = row.Instant
	}
	if row.Instant.After(t.End) {
		t.End = row.Instant
	}
	t.Rows = append(t.Rows, row)
}
