// Package output renders merged series and summaries to CSV, JSON, a
// standalone HTML report and the console.
package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nfairburn/chartlog/analysis"
)

// timeFormat is the display timestamp format for all output files.
const timeFormat = "2006-01-02 15:04:05.000"

// missingMarker is written for cells with no reported value, keeping
// "not reported" distinguishable from zero in spreadsheets.
const missingMarker = "?"

// CSVWriter renders merged tables as CSV. Offset shifts UTC instants
// back to the display timezone the log was written in.
type CSVWriter struct {
	Offset time.Duration
}

// WriteTable writes one merged table. The header row's first cell is
// prefixed "# " so the file stays self-describing when concatenated or
// grepped; a metadata trailer names the contributing source files.
func (c *CSVWriter) WriteTable(w io.Writer, table *analysis.MergedTable) error {
	if table == nil {
		return nil
	}

	header := []string{"# datetime", "line num"}
	if table.Qualified {
		header = append(header, "instance")
	}
	header = append(header, table.Schema.Headings()...)
	header = append(header, "annotation")
	if err := writeCSVRow(w, header); err != nil {
		return err
	}

	for _, row := range table.Rows {
		cells := make([]string, 0, len(header))
		cells = append(cells, c.displayTime(row.Instant), strconv.Itoa(row.LineNum))
		if table.Qualified {
			cells = append(cells, row.Instance)
		}
		for _, v := range row.Values {
			cells = append(cells, formatValue(v))
		}
		cells = append(cells, row.Annotation)
		if err := writeCSVRow(w, cells); err != nil {
			return err
		}
	}

	return writeSourceTrailer(w, table)
}

// WriteSummary writes the quartile summary for a merged table.
func (c *CSVWriter) WriteSummary(w io.Writer, s *analysis.Summary) error {
	if s == nil {
		return nil
	}

	header := append([]string{"# position", "datetime", "line num"}, s.Schema.Headings()...)
	if err := writeCSVRow(w, header); err != nil {
		return err
	}

	for _, row := range s.Rows {
		cells := make([]string, 0, len(header))
		cells = append(cells, row.Label)
		if row.Synthetic {
			cells = append(cells, "", "")
		} else {
			cells = append(cells, c.displayTime(row.Instant), strconv.Itoa(row.LineNum))
		}
		for _, v := range row.Values {
			cells = append(cells, formatValue(v))
		}
		if err := writeCSVRow(w, cells); err != nil {
			return err
		}
	}
	return nil
}

// WriteConnections writes the receiver/sender connect and disconnect
// events.
func (c *CSVWriter) WriteConnections(w io.Writer, events []analysis.ConnectionEvent) error {
	if err := writeCSVRow(w, []string{"# datetime", "line num", "source", "event", "remote"}); err != nil {
		return err
	}
	for _, ev := range events {
		event := "disconnected"
		if ev.Connected {
			event = "connected"
		}
		cells := []string{c.displayTime(ev.Instant), strconv.Itoa(ev.LineNum), ev.Source, event, ev.Remote}
		if err := writeCSVRow(w, cells); err != nil {
			return err
		}
	}
	return nil
}

// WriteIncidents writes grouped WARN/ERROR incidents, most frequent
// first.
func (c *CSVWriter) WriteIncidents(w io.Writer, incidents []*analysis.Incident) error {
	if err := writeCSVRow(w, []string{"# count", "level", "first", "last", "sample message"}); err != nil {
		return err
	}
	for _, inc := range incidents {
		cells := []string{
			strconv.Itoa(inc.Count),
			inc.Level,
			c.displayTime(inc.First),
			c.displayTime(inc.Last),
			inc.Sample,
		}
		if err := writeCSVRow(w, cells); err != nil {
			return err
		}
	}
	return nil
}

func (c *CSVWriter) displayTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Add(c.Offset).Format(timeFormat)
}

// formatValue renders one cell: "?" for missing, the raw text for
// textual values, and a compact decimal for numbers.
func formatValue(v analysis.Value) string {
	if v.Missing {
		return missingMarker
	}
	if v.IsText {
		return v.Text
	}
	return strconv.FormatFloat(v.Num, 'f', -1, 64)
}

// writeCSVRow writes one row with minimal quoting. Only cells
// containing a comma, quote or newline are quoted; numeric cells never
// are, which keeps the files friendly to quick awk/cut pipelines.
func writeCSVRow(w io.Writer, cells []string) error {
	for i, cell := range cells {
		if i > 0 {
			if _, err := io.WriteString(w, ","); err != nil {
				return err
			}
		}
		if strings.ContainsAny(cell, ",\"\n") {
			cell = `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
		}
		if _, err := io.WriteString(w, cell); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func writeSourceTrailer(w io.Writer, table *analysis.MergedTable) error {
	seen := map[string]bool{}
	var sources []string
	for _, row := range table.Rows {
		if !seen[row.Source] {
			seen[row.Source] = true
			sources = append(sources, row.Source)
		}
	}
	_, err := fmt.Fprintf(w, "# sources: %s\n", strings.Join(sources, "; "))
	return err
}
