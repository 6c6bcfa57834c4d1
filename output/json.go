package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/nfairburn/chartlog/analysis"
)

// JSON structures define the format of the output data.
// Each structure corresponds to a section of the report:
// - MetadataJSON: run-level facts such as time range, sources and restarts.
// - TableJSON: one record kind's column headings and rows.
// - ConnectionJSON: a single receiver/sender connect or disconnect.
// - IncidentJSON: one group of WARN/ERROR lines with identical bodies.

type MetadataJSON struct {
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
	Duration    string   `json:"duration"`
	UTCOffset   string   `json:"utc_offset"`
	Instances   []string `json:"instances,omitempty"`
	Banner      []string `json:"banner,omitempty"`
	GeneratedAt string   `json:"generated_at"`
}

type TableJSON struct {
	Columns   []string  `json:"columns"`
	Qualified bool      `json:"qualified"`
	Rows      []RowJSON `json:"rows"`
}

type RowJSON struct {
	Time       string        `json:"time"`
	LineNum    int           `json:"line_num"`
	Instance   string        `json:"instance,omitempty"`
	Values     []interface{} `json:"values"`
	Annotation string        `json:"annotation,omitempty"`
}

type ConnectionJSON struct {
	Time    string `json:"time"`
	LineNum int    `json:"line_num"`
	Source  string `json:"source"`
	Event   string `json:"event"`
	Remote  string `json:"remote"`
}

type IncidentJSON struct {
	Level  string `json:"level"`
	Count  int    `json:"count"`
	First  string `json:"first"`
	Last   string `json:"last"`
	Sample string `json:"sample"`
}

// ExportJSON writes the whole merged run as one JSON document. Only
// sections with data are included.
func ExportJSON(w io.Writer, res *analysis.MergeResult, offset time.Duration) error {
	data := buildJSONData(res, offset)

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to export JSON: %w", err)
	}
	if _, err := w.Write(jsonData); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}

// buildJSONData assembles the report sections. Shared by the JSON
// export and the HTML report's embedded payload.
func buildJSONData(res *analysis.MergeResult, offset time.Duration) map[string]interface{} {
	data := map[string]interface{}{
		"metadata": buildMetadata(res, offset),
	}

	if t := convertTable(res.Status, offset); t != nil {
		data["status"] = t
	}
	if t := convertTable(res.UserStatus, offset); t != nil {
		data["user_status"] = t
	}
	if t := convertTable(res.Proxy, offset); t != nil {
		data["proxy_status"] = t
	}

	if len(res.Connections) > 0 {
		conns := make([]ConnectionJSON, 0, len(res.Connections))
		for _, ev := range res.Connections {
			event := "disconnected"
			if ev.Connected {
				event = "connected"
			}
			conns = append(conns, ConnectionJSON{
				Time:    displayTime(ev.Instant, offset),
				LineNum: ev.LineNum,
				Source:  ev.Source,
				Event:   event,
				Remote:  ev.Remote,
			})
		}
		data["connections"] = conns
	}

	if incidents := res.Incidents.Incidents(); len(incidents) > 0 {
		incs := make([]IncidentJSON, 0, len(incidents))
		for _, inc := range incidents {
			incs = append(incs, IncidentJSON{
				Level:  inc.Level,
				Count:  inc.Count,
				First:  displayTime(inc.First, offset),
				Last:   displayTime(inc.Last, offset),
				Sample: inc.Sample,
			})
		}
		data["incidents"] = incs
	}

	return data
}

func buildMetadata(res *analysis.MergeResult, offset time.Duration) MetadataJSON {
	start, end := runBounds(res)
	meta := MetadataJSON{
		StartDate:   displayTime(start, offset),
		EndDate:     displayTime(end, offset),
		Duration:    end.Sub(start).String(),
		UTCOffset:   fmt.Sprintf("%+d min", int(offset.Minutes())),
		Banner:      res.Banner,
		GeneratedAt: time.Now().Format(timeFormat),
	}
	if res.Status != nil {
		meta.Instances = res.Status.Instances
	}
	return meta
}

// runBounds returns the earliest and latest instants across all merged
// tables.
func runBounds(res *analysis.MergeResult) (time.Time, time.Time) {
	var start, end time.Time
	for _, t := range []*analysis.MergedTable{res.Status, res.UserStatus, res.Proxy} {
		if t == nil || len(t.Rows) == 0 {
			continue
		}
		first, last := t.Rows[0].Instant, t.Rows[len(t.Rows)-1].Instant
		if start.IsZero() || first.Before(start) {
			start = first
		}
		if last.After(end) {
			end = last
		}
	}
	return start, end
}

func convertTable(table *analysis.MergedTable, offset time.Duration) *TableJSON {
	if table == nil {
		return nil
	}
	out := &TableJSON{
		Columns:   table.Schema.Headings(),
		Qualified: table.Qualified,
		Rows:      make([]RowJSON, 0, len(table.Rows)),
	}
	for _, row := range table.Rows {
		r := RowJSON{
			Time:       displayTime(row.Instant, offset),
			LineNum:    row.LineNum,
			Values:     make([]interface{}, len(row.Values)),
			Annotation: row.Annotation,
		}
		if table.Qualified {
			r.Instance = row.Instance
		}
		for i, v := range row.Values {
			r.Values[i] = jsonValue(v)
		}
		out.Rows = append(out.Rows, r)
	}
	return out
}

// jsonValue maps a cell to its JSON representation: null for missing,
// keeping the missing/zero distinction in the payload.
func jsonValue(v analysis.Value) interface{} {
	if v.Missing {
		return nil
	}
	if v.IsText {
		return v.Text
	}
	return v.Num
}

func displayTime(t time.Time, offset time.Duration) string {
	if t.IsZero() {
		return ""
	}
	return t.Add(offset).Format(timeFormat)
}
