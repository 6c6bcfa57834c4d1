// Package analysis implements the log extraction and column-allocation
// engine. This file merges per-file tables into one time-sorted series,
// disambiguating correlator instances and unifying dynamic schemas.
package analysis

import (
	"sort"
	"time"

	"github.com/nfairburn/chartlog/parser"
)

// MergedRow is a SeriesRow qualified with the instance and source file
// it came from.
type MergedRow struct {
	SeriesRow
	Instance string
	Source   string
}

// MergedTable is the final ordered series for one record kind across
// all input files. Rows are strictly non-decreasing in instant.
type MergedTable struct {
	Kind   parser.RecordKind
	Schema *ColumnSchema
	Rows   []MergedRow

	// Instances lists the distinct instance labels contributing rows.
	Instances []string

	// Qualified is true when two or more genuinely distinct instances
	// interleave in time, in which case output series names must carry
	// the instance qualifier so charts can distinguish sources.
	Qualified bool
}

// MergeResult is the merged output of a whole run.
type MergeResult struct {
	Status     *MergedTable
	UserStatus *MergedTable
	Proxy      *MergedTable

	Connections []ConnectionEvent
	Incidents   *IncidentLog
	Banner      []string
	Diags       *parser.Diagnostics
}

// Merge orders the per-file extraction results into one coherent run.
// Files are sorted by their data start time; instance identity is
// resolved before tables are unified.
func Merge(results []*ExtractResult) *MergeResult {
	sorted := make([]*ExtractResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	diags := parser.NewDiagnostics()
	labels := resolveInstances(sorted, diags)

	out := &MergeResult{
		Incidents: NewIncidentLog(),
		Diags:     diags,
	}

	out.Status = mergeKind(parser.KindStatus, sorted, labels, func(r *ExtractResult) *FileTable { return r.Status })
	out.UserStatus = mergeKind(parser.KindUserStatus, sorted, labels, func(r *ExtractResult) *FileTable { return r.UserStatus })
	out.Proxy = mergeKind(parser.KindProxyStatus, sorted, labels, func(r *ExtractResult) *FileTable { return r.Proxy })

	for _, r := range sorted {
		out.Connections = append(out.Connections, r.Connections...)
		out.Incidents.Merge(r.Incidents)
		out.Banner = append(out.Banner, r.Banner...)
		diags.Merge(r.Diags)
	}
	sort.SliceStable(out.Connections, func(i, j int) bool {
		return out.Connections[i].Instant.Before(out.Connections[j].Instant)
	})

	return out
}

// resolveInstances assigns an instance label to each file, in start
// order. Files carrying an embedded process identifier keep it. Files
// without one are treated as sequential segments of a single instance
// when their time ranges are disjoint; when they overlap, the
// disambiguation is ambiguous and the run degrades to treating them as
// one instance with a warning rather than failing.
func resolveInstances(sorted []*ExtractResult, diags *parser.Diagnostics) []string {
	labels := make([]string, len(sorted))

	const anonymous = "correlator"
	var prevAnonEnd time.Time
	haveAnon := false

	for i, r := range sorted {
		if r.Instance != "" {
			labels[i] = r.Instance
			continue
		}
		labels[i] = anonymous
		if haveAnon && r.Start.Before(prevAnonEnd) {
			diags.Recordf("instanceDisambiguationAmbiguous",
				"%s overlaps an earlier unidentified file; treating as one instance", r.Source)
		}
		if r.End.After(prevAnonEnd) {
			prevAnonEnd = r.End
		}
		haveAnon = true
	}
	return labels
}

// mergeKind unifies one record kind's per-file tables: schema union,
// column re-mapping, start annotations at segment boundaries, and a
// stable time sort.
func mergeKind(kind parser.RecordKind, sorted []*ExtractResult, labels []string,
	table func(*ExtractResult) *FileTable) *MergedTable {

	var tables []*FileTable
	var tableLabels []string
	for i, r := range sorted {
		if t := table(r); t != nil && len(t.Rows) > 0 {
			tables = append(tables, t)
			tableLabels = append(tableLabels, labels[i])
		}
	}
	if len(tables) == 0 {
		return nil
	}

	// Column union: different files may have discovered different
	// dynamic key sets; each file's columns are re-mapped into the
	// union schema, with unseen keys left missing.
	union := unionSchema(kind, tables)

	merged := &MergedTable{Kind: kind, Schema: union}
	seen := map[string]bool{}

	for ti, t := range tables {
		remap := make([]int, t.Schema.Len())
		for i, k := range t.Schema.Keys {
			idx, _ := union.Index(k.Key)
			remap[i] = idx
		}

		for ri, row := range t.Rows {
			values := make([]Value, union.Len())
			for i := range values {
				values[i] = MissingValue()
			}
			for i, v := range row.Values {
				values[remap[i]] = v
			}

			out := MergedRow{
				SeriesRow: SeriesRow{
					Instant:    row.Instant,
					LineNum:    row.LineNum,
					Values:     values,
					Annotation: row.Annotation,
				},
				Instance: tableLabels[ti],
				Source:   t.Source,
			}
			// Each file segment begins a process start or restart;
			// mid-file restarts are already annotated by the extractor.
			if ri == 0 && out.Annotation == "" {
				out.Annotation = AnnotationStart
			}
			merged.Rows = append(merged.Rows, out)
		}

		if !seen[tableLabels[ti]] {
			seen[tableLabels[ti]] = true
			merged.Instances = append(merged.Instances, tableLabels[ti])
		}
	}

	sort.SliceStable(merged.Rows, func(i, j int) bool {
		return merged.Rows[i].Instant.Before(merged.Rows[j].Instant)
	})

	merged.Qualified = instancesInterleave(tables, tableLabels)
	return merged
}

// unionSchema computes the union of the per-file schemas, preserving
// the first file's column order and appending keys first seen in later
// files.
func unionSchema(kind parser.RecordKind, tables []*FileTable) *ColumnSchema {
	capacity := 0
	for _, t := range tables {
		if t.Schema.Capacity > capacity {
			capacity = t.Schema.Capacity
		}
	}
	union := NewColumnSchema(kind, capacity)
	for _, t := range tables {
		for _, k := range t.Schema.Keys {
			union.AddKey(k.Key, k.Alias)
		}
	}
	// Files with disjoint key sets can union to more keys than any one
	// file allocated; keep doubling so capacity covers the union.
	for union.Capacity < union.Len() {
		if union.Capacity == 0 {
			union.Capacity = union.Len()
			break
		}
		union.Capacity *= 2
	}
	return union
}

// instancesInterleave reports whether two tables from distinct
// instances overlap in time. Only confirmed interleaving from genuinely
// distinct instances forces instance-qualified output; otherwise the
// simplified time-only ordering is used.
func instancesInterleave(tables []*FileTable, labels []string) bool {
	for i := range tables {
		for j := i + 1; j < len(tables); j++ {
			if labels[i] == labels[j] {
				continue
			}
			if tables[i].Start.Before(tables[j].End) && tables[j].Start.Before(tables[i].End) {
				return true
			}
		}
	}
	return false
}
