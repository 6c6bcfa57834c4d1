// Package analysis implements the log extraction and column-allocation
// engine.
package analysis

import (
	"fmt"
	"regexp"

	"github.com/nfairburn/chartlog/parser"
)

// Allocator defaults. The proxy-status default capacity of 4 reflects
// the typical small counter set; doubling on overflow bounds the number
// of full-file re-scans to O(log(finalKeyCount/initialCapacity)).
const (
	DefaultInitialCapacity = 4
	DefaultMaxRetries      = 16
)

// OtherBucketKey is the column that over-cap dynamic keys are folded
// into when the "other" bucket is enabled.
const OtherBucketKey = "other"

// RecordScanner runs one full pass over a file's records, invoking fn
// for each. The allocator calls it repeatedly, so the underlying source
// must be re-readable; fn may return parser.ErrStopScan to abandon a
// pass early.
type RecordScanner func(fn func(parser.Record) error) error

// Allocator resolves a stable ColumnSchema for a record kind whose
// field set is not statically known. The column count must be fixed
// before the first output row is emitted, but the key universe is only
// knowable by scanning the whole file, hence the explicit
// discover -> capacity-check -> finalize pipeline with retry-on-overflow
// rather than streaming allocation.
type Allocator struct {
	Kind parser.RecordKind

	// KeyRegex selects which field keys are dynamic. Nil matches all.
	KeyRegex *regexp.Regexp

	// MaxKeys caps the number of distinct keys that get columns; keys
	// beyond it are folded into the "other" bucket or dropped.
	MaxKeys     int
	OtherBucket bool

	// Aliases renames raw keys to display column headings.
	Aliases map[string]string

	InitialCapacity int
	MaxRetries      int
}

// Allocate runs discovery passes until one completes without overflow,
// then finalizes the schema. Schema overflow is never surfaced: it only
// triggers a retry with doubled capacity. Exhausting the retry budget
// returns ErrColumnAllocationFailed.
func (a *Allocator) Allocate(scan RecordScanner, diags *parser.Diagnostics) (*ColumnSchema, error) {
	capacity := a.InitialCapacity
	if capacity < 1 {
		capacity = DefaultInitialCapacity
	}
	retries := a.MaxRetries
	if retries < 1 {
		retries = DefaultMaxRetries
	}

	for attempt := 0; attempt <= retries; attempt++ {
		keys, err := a.discover(scan, capacity)
		if err == errSchemaOverflow {
			// Doubling (not linear growth) bounds the number of
			// re-scans for a key universe of any size.
			capacity *= 2
			continue
		}
		if err != nil {
			return nil, err
		}
		return a.finalize(keys, capacity, diags), nil
	}

	return nil, fmt.Errorf("%w: %s kind exceeded %d discovery retries",
		ErrColumnAllocationFailed, a.Kind, retries)
}

// discover scans all records of the allocator's kind and collects the
// distinct dynamic keys in first-seen order. The pass is abandoned with
// errSchemaOverflow as soon as the distinct-key count exceeds the
// assumed capacity.
func (a *Allocator) discover(scan RecordScanner, capacity int) ([]string, error) {
	seen := make(map[string]struct{}, capacity)
	var order []string
	overflow := false

	err := scan(func(rec parser.Record) error {
		if rec.Kind != a.Kind {
			return nil
		}
		for _, f := range ParseFields(rec.Message) {
			if a.KeyRegex != nil && !a.KeyRegex.MatchString(f.Key) {
				continue
			}
			if _, ok := seen[f.Key]; ok {
				continue
			}
			if len(order) >= capacity {
				overflow = true
				return parser.ErrStopScan
			}
			seen[f.Key] = struct{}{}
			order = append(order, f.Key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if overflow {
		return nil, errSchemaOverflow
	}
	return order, nil
}

// finalize turns the discovered key set into the file's schema. Keys
// beyond MaxKeys are dropped with a warning and, when the "other"
// bucket is configured, their values are folded into a trailing "other"
// column instead of being lost.
func (a *Allocator) finalize(keys []string, capacity int, diags *parser.Diagnostics) *ColumnSchema {
	schema := NewColumnSchema(a.Kind, capacity)

	dropped := 0
	for _, k := range keys {
		if a.MaxKeys > 0 && schema.Len() >= a.MaxKeys {
			dropped++
			continue
		}
		schema.AddKey(k, a.Aliases[k])
	}

	if dropped > 0 {
		diags.Recordf("dynamicKeysOverCap",
			"%d %s key(s) beyond the %d-column cap", dropped, a.Kind, a.MaxKeys)
		if a.OtherBucket {
			schema.AddKey(OtherBucketKey, OtherBucketKey)
		}
	}

	return schema
}

// FillRow assigns one record's fields into a row shaped by the schema.
// Keys absent from a given record are left as missing (not zero),
// distinguishing "not yet reported" from "reported as zero". Keys not
// in the schema are summed into the "other" column if present, else
// dropped.
func FillRow(schema *ColumnSchema, fields []Field) []Value {
	values := make([]Value, schema.Len())
	for i := range values {
		values[i] = MissingValue()
	}

	otherIdx, hasOther := schema.Index(OtherBucketKey)
	for _, f := range fields {
		v := ParseValue(f)
		if idx, ok := schema.Index(f.Key); ok {
			values[idx] = v
			continue
		}
		if hasOther && !v.Missing && !v.IsText {
			if values[otherIdx].Missing {
				values[otherIdx] = NumberValue(0)
			}
			values[otherIdx].Num += v.Num
		}
	}
	return values
}
