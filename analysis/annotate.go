// Package analysis implements the log extraction and column-allocation
// engine. This file annotates raw correlator status dictionaries with
// display names, unit conversions and derived rate/delta columns.
package analysis

import (
	"strings"
	"time"

	"github.com/nfairburn/chartlog/parser"
)

// statusColumnOrder defines the default column order for correlator
// status lines and the display alias for each key. Keys starting with
// "=" are generated columns derived from the raw values. Keys listed
// here but absent from the log are skipped; extra keys in the log but
// not listed here are appended in first-seen order.
var statusColumnOrder = []ColumnKey{
	// queues first
	{"iq", "iq=queued input"},
	{"icq", "icq=queued input public"},
	{"oq", "oq=queued output"},
	{"rq", "rq=queued route"},
	{"runq", "runq=queued ctxs"},

	{"nc", "nc=ext+int consumers"},

	// rx/tx
	{"=rx /sec", "rx /sec"},
	{"=tx /sec", "tx /sec"},
	{"=rt /sec", "rt /sec"},

	{"rx", "rx=received"},
	{"tx", "tx=sent"},
	{"rt", "rt=routed"},

	// things that take memory
	{"sm", "sm=monitor instances"},
	{"nctx", "nctx=contexts"},
	{"ls", "ls=listeners"},

	{"pm", "pm=resident MB"}, // converted from kb, easier to read
	{"vm", "vm=virtual MB"},
	{"jvm", "jvm=Java MB"},

	{"=pm delta MB", "pm delta MB"},
	{"=vm delta MB", "vm delta MB"},
	{"=jvm delta MB", "jvm delta MB"},

	// swapping
	{"si", "si=swap pages read/sec"},
	{"so", "so=swap pages written/sec"},

	// slow contexts and consumers (string values, so at the end)
	{"lcn", "lcn=slowest ctx"},
	{"lcq", "lcq=slowest ctx input queue"},
	{"lct", "lct=slowest ctx latency secs"},

	{"srn", "srn=slowest consumer/plugin"},
	{"srq", "srq=slowest consumer/plugin queue"},
}

// kbToMBKeys are raw keys logged in kilobytes but reported in MB.
var kbToMBKeys = map[string]bool{"pm": true, "vm": true, "jvm": true}

// BuildStatusSchema derives the status table's column schema from the
// keys observed in a file. Canonical keys keep the default order;
// derived columns are included only when their base key was observed;
// unknown observed keys are appended in first-seen order. User aliases
// override the built-in display names.
func BuildStatusSchema(observed []string, aliases map[string]string) *ColumnSchema {
	observedSet := make(map[string]bool, len(observed))
	for _, k := range observed {
		observedSet[k] = true
	}

	schema := NewColumnSchema(parser.KindStatus, len(observed)+len(statusColumnOrder))
	for _, col := range statusColumnOrder {
		if strings.HasPrefix(col.Key, "=") {
			if observedSet[derivedBaseKey(col.Key)] {
				schema.AddKey(col.Key, aliasOr(aliases, col.Key, col.Alias))
			}
			continue
		}
		if observedSet[col.Key] {
			schema.AddKey(col.Key, aliasOr(aliases, col.Key, col.Alias))
		}
	}
	for _, k := range observed {
		if _, ok := schema.Index(k); !ok {
			schema.AddKey(k, aliasOr(aliases, k, k))
		}
	}
	return schema
}

// derivedBaseKey maps a generated column to the raw key it derives from.
func derivedBaseKey(key string) string {
	switch key {
	case "=rx /sec":
		return "rx"
	case "=tx /sec":
		return "tx"
	case "=rt /sec":
		return "rt"
	case "=pm delta MB":
		return "pm"
	case "=vm delta MB":
		return "vm"
	case "=jvm delta MB":
		return "jvm"
	default:
		return key
	}
}

func aliasOr(aliases map[string]string, key, def string) string {
	if a, ok := aliases[key]; ok {
		return a
	}
	return def
}

// statusAnnotator fills status rows, computing per-interval rates and
// memory deltas against the previous status sample. Reset is called at
// restart boundaries so the first post-restart row is not computed
// against the pre-restart cumulative counters, which would otherwise
// produce a large negative rate artifact.
type statusAnnotator struct {
	schema      *ColumnSchema
	prev        map[string]float64
	prevInstant time.Time
	havePrev    bool
}

func newStatusAnnotator(schema *ColumnSchema) *statusAnnotator {
	return &statusAnnotator{schema: schema}
}

// Reset drops the previous sample. The next row's rates and deltas
// start from zero.
func (a *statusAnnotator) Reset() {
	a.prev = nil
	a.havePrev = false
}

// Annotate converts one status record's fields into a schema-shaped row.
func (a *statusAnnotator) Annotate(instant time.Time, fields []Field) []Value {
	raw := make(map[string]Value, len(fields))
	for _, f := range fields {
		raw[f.Key] = ParseValue(f)
	}

	values := make([]Value, a.schema.Len())
	for i, col := range a.schema.Keys {
		if strings.HasPrefix(col.Key, "=") {
			values[i] = a.derive(col.Key, instant, raw)
			continue
		}
		v, ok := raw[col.Key]
		if !ok {
			values[i] = MissingValue()
			continue
		}
		if kbToMBKeys[col.Key] && !v.Missing && !v.IsText {
			v = NumberValue(v.Num / 1024.0)
		}
		values[i] = v
	}

	// Remember raw numerics for the next interval's rates and deltas.
	next := make(map[string]float64, len(raw))
	for k, v := range raw {
		if !v.Missing && !v.IsText {
			next[k] = v.Num
		}
	}
	a.prev = next
	a.prevInstant = instant
	a.havePrev = true

	return values
}

// derive computes a generated column value from the current raw sample
// and the previous one. Without a previous sample (file start or restart
// boundary) rates and deltas are zero.
func (a *statusAnnotator) derive(key string, instant time.Time, raw map[string]Value) Value {
	base, ok := raw[derivedBaseKey(key)]
	if !ok || base.Missing || base.IsText {
		return MissingValue()
	}
	if !a.havePrev {
		return NumberValue(0)
	}
	prev, ok := a.prev[derivedBaseKey(key)]
	if !ok {
		return NumberValue(0)
	}

	switch key {
	case "=rx /sec", "=tx /sec", "=rt /sec":
		dt := instant.Sub(a.prevInstant).Seconds()
		if dt <= 0 {
			return NumberValue(0)
		}
		return NumberValue((base.Num - prev) / dt)
	case "=pm delta MB", "=vm delta MB", "=jvm delta MB":
		return NumberValue((base.Num - prev) / 1024.0)
	default:
		return MissingValue()
	}
}
