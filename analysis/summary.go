// Package analysis implements the log extraction and column-allocation
// engine. This file condenses a merged status series into a handful of
// summary rows for quick orientation before looking at any chart.
package analysis

import (
	"time"
)

// summaryQuartiles are the snapshot positions, as fractions of the row
// range.
var summaryQuartiles = []struct {
	fraction float64
	label    string
}{
	{0.00, "0% (start)"},
	{0.25, "25%"},
	{0.50, "50%"},
	{0.75, "75%"},
	{1.00, "100% (end)"},
}

// SummaryRow is one line of the run summary: either a snapshot of the
// series at a quartile position, a delta between consecutive snapshots,
// or a whole-run aggregate.
type SummaryRow struct {
	Label   string
	Instant time.Time
	LineNum int
	Values  []Value

	// Delta rows and aggregates carry no single source row.
	Synthetic bool
}

// Summary is the condensed view of one merged table.
type Summary struct {
	Schema *ColumnSchema
	Rows   []SummaryRow
}

// Summarize condenses a merged status table into quartile snapshots,
// inter-quartile deltas for numeric columns, and min/mean/max
// aggregates. Returns nil when there is nothing to summarize.
func Summarize(table *MergedTable) *Summary {
	if table == nil || len(table.Rows) == 0 {
		return nil
	}

	s := &Summary{Schema: table.Schema}
	n := len(table.Rows)

	var prev *SeriesRow
	for _, q := range summaryQuartiles {
		idx := int(q.fraction * float64(n-1))
		row := &table.Rows[idx].SeriesRow

		if prev != nil {
			s.Rows = append(s.Rows, deltaRow(table.Schema, prev, row))
		}
		s.Rows = append(s.Rows, SummaryRow{
			Label:   q.label,
			Instant: row.Instant,
			LineNum: row.LineNum,
			Values:  row.Values,
		})
		prev = row
	}

	s.Rows = append(s.Rows, aggregateRows(table)...)
	return s
}

// deltaRow computes the numeric change between two snapshots. Text and
// missing cells produce missing deltas.
func deltaRow(schema *ColumnSchema, from, to *SeriesRow) SummaryRow {
	values := make([]Value, schema.Len())
	for i := range values {
		a, b := from.Values[i], to.Values[i]
		if a.Missing || b.Missing || a.IsText || b.IsText {
			values[i] = MissingValue()
			continue
		}
		values[i] = NumberValue(b.Num - a.Num)
	}
	return SummaryRow{Label: "delta", Values: values, Synthetic: true}
}

// aggregateRows computes min/mean/max per numeric column across the
// whole series. Columns with no numeric cells stay missing.
func aggregateRows(table *MergedTable) []SummaryRow {
	cols := table.Schema.Len()
	min := make([]Value, cols)
	max := make([]Value, cols)
	sum := make([]float64, cols)
	count := make([]int, cols)
	for i := range min {
		min[i] = MissingValue()
		max[i] = MissingValue()
	}

	for _, row := range table.Rows {
		for i, v := range row.Values {
			if v.Missing || v.IsText {
				continue
			}
			if min[i].Missing || v.Num < min[i].Num {
				min[i] = NumberValue(v.Num)
			}
			if max[i].Missing || v.Num > max[i].Num {
				max[i] = NumberValue(v.Num)
			}
			sum[i] += v.Num
			count[i]++
		}
	}

	mean := make([]Value, cols)
	for i := range mean {
		if count[i] == 0 {
			mean[i] = MissingValue()
			continue
		}
		mean[i] = NumberValue(sum[i] / float64(count[i]))
	}

	return []SummaryRow{
		{Label: "min", Values: min, Synthetic: true},
		{Label: "mean", Values: mean, Synthetic: true},
		{Label: "max", Values: max, Synthetic: true},
	}
}
