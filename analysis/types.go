// Package analysis implements the log extraction and column-allocation
// engine: dynamic column schemas, per-file time-series extraction, and
// multi-file merging into a single ordered series.
package analysis

import (
	"errors"
	"time"

	"github.com/nfairburn/chartlog/parser"
)

// Error taxonomy. Schema overflow is an internal retry signal and is
// never surfaced to callers; only exhaustion of the retry budget
// surfaces ErrColumnAllocationFailed, which aborts that record kind's
// extraction for the file while other kinds still succeed.
var (
	ErrColumnAllocationFailed = errors.New("column allocation failed")
	errSchemaOverflow         = errors.New("schema overflow")
)

// ColumnKey is one output column: the raw status key and the display
// alias used as the column heading.
type ColumnKey struct {
	Key   string
	Alias string
}

// ColumnSchema is the resolved column layout for one record kind within
// one file. For dynamic kinds it is produced by the Allocator's
// discover-then-allocate passes; Capacity records the final assumed
// capacity (a power-of-two multiple of the initial capacity).
type ColumnSchema struct {
	Kind     parser.RecordKind
	Capacity int
	Keys     []ColumnKey

	index map[string]int
}

// NewColumnSchema returns an empty schema for the given kind.
func NewColumnSchema(kind parser.RecordKind, capacity int) *ColumnSchema {
	return &ColumnSchema{
		Kind:     kind,
		Capacity: capacity,
		index:    map[string]int{},
	}
}

// AddKey appends a column in first-seen order. Duplicate keys are
// ignored.
func (s *ColumnSchema) AddKey(key, alias string) {
	if _, ok := s.index[key]; ok {
		return
	}
	if alias == "" {
		alias = key
	}
	s.index[key] = len(s.Keys)
	s.Keys = append(s.Keys, ColumnKey{Key: key, Alias: alias})
}

// Index returns the column index for a raw key.
func (s *ColumnSchema) Index(key string) (int, bool) {
	i, ok := s.index[key]
	return i, ok
}

// Len returns the number of columns.
func (s *ColumnSchema) Len() int { return len(s.Keys) }

// Headings returns the display aliases in column order.
func (s *ColumnSchema) Headings() []string {
	h := make([]string, len(s.Keys))
	for i, k := range s.Keys {
		h[i] = k.Alias
	}
	return h
}

// Clone returns a deep copy of the schema.
func (s *ColumnSchema) Clone() *ColumnSchema {
	c := NewColumnSchema(s.Kind, s.Capacity)
	for _, k := range s.Keys {
		c.AddKey(k.Key, k.Alias)
	}
	return c
}

// Value is a single cell: a number, a text value, or missing. Missing is
// distinct from zero: it means "not reported in this row" rather than
// "reported as zero".
type Value struct {
	Num     float64
	Text    string
	IsText  bool
	Missing bool
}

// MissingValue returns the explicit missing marker.
func MissingValue() Value { return Value{Missing: true} }

// NumberValue returns a numeric cell.
func NumberValue(f float64) Value { return Value{Num: f} }

// TextValue returns a textual cell (e.g. a slowest-context name).
func TextValue(s string) Value { return Value{Text: s, IsText: true} }

// SeriesRow is one extracted time-series row. Rows are immutable once
// emitted; Values is indexed by the owning table's schema.
type SeriesRow struct {
	Instant    time.Time
	LineNum    int
	Values     []Value
	Annotation string
}

// AnnotationStart marks a row as the first of a process start/restart.
const AnnotationStart = "start"

// FileTable is the ordered per-file time series for one record kind.
// It is created by the extractor, consumed once by the merger, then
// discarded.
type FileTable struct {
	Source        string
	Instance      string
	DisplayOffset time.Duration
	Schema        *ColumnSchema
	Rows          []SeriesRow

	// Start and End bound the file's data rows (post skip-window).
	Start time.Time
	End   time.Time
}

// ConnectionEvent records a receiver/sender connect or disconnect.
type ConnectionEvent struct {
	Instant   time.Time
	LineNum   int
	Source    string
	Remote    string
	Connected bool
}

// Incident is a group of WARN/ERROR lines whose normalized message
// bodies are identical.
type Incident struct {
	Level      string
	Normalized string
	Sample     string
	Count      int
	First      time.Time
	Last       time.Time
}
