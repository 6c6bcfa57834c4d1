package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/nfairburn/chartlog/analysis"
	"github.com/nfairburn/chartlog/parser"
)

func testTable(t *testing.T, qualified bool) *analysis.MergedTable {
	t.Helper()
	schema := analysis.NewColumnSchema(parser.KindStatus, 4)
	schema.AddKey("sm", "sm=monitor instances")
	schema.AddKey("lcn", "lcn=slowest ctx")

	instant := time.Date(2019, 9, 12, 13, 0, 0, 0, time.UTC)
	return &analysis.MergedTable{
		Kind:      parser.KindStatus,
		Schema:    schema,
		Qualified: qualified,
		Rows: []analysis.MergedRow{
			{
				SeriesRow: analysis.SeriesRow{
					Instant:    instant,
					LineNum:    10,
					Values:     []analysis.Value{analysis.NumberValue(12), analysis.TextValue("ctx, main")},
					Annotation: analysis.AnnotationStart,
				},
				Instance: "corr-a",
				Source:   "a.log",
			},
			{
				SeriesRow: analysis.SeriesRow{
					Instant: instant.Add(10 * time.Second),
					LineNum: 20,
					Values:  []analysis.Value{analysis.MissingValue(), analysis.TextValue("ctx2")},
				},
				Instance: "corr-a",
				Source:   "a.log",
			},
		},
	}
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	c := &CSVWriter{}
	if err := c.WriteTable(&buf, testTable(t, false)); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")

	if len(lines) != 4 {
		t.Fatalf("got %d lines, want header + 2 rows + trailer:\n%s", len(lines), buf.String())
	}
	if lines[0] != "# datetime,line num,sm=monitor instances,lcn=slowest ctx,annotation" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != `2019-09-12 13:00:00.000,10,12,"ctx, main",start` {
		t.Errorf("row 1 = %q", lines[1])
	}
	if lines[2] != "2019-09-12 13:00:10.000,20,?,ctx2," {
		t.Errorf("row 2 = %q", lines[2])
	}
	if !strings.HasPrefix(lines[3], "# sources: a.log") {
		t.Errorf("trailer = %q", lines[3])
	}
}

func TestWriteTableQualified(t *testing.T) {
	var buf bytes.Buffer
	c := &CSVWriter{}
	if err := c.WriteTable(&buf, testTable(t, true)); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(buf.String(), "\n")
	if !strings.Contains(lines[0], ",instance,") {
		t.Errorf("qualified header missing instance column: %q", lines[0])
	}
	if !strings.Contains(lines[1], ",corr-a,") {
		t.Errorf("qualified row missing instance: %q", lines[1])
	}
}

func TestWriteTableOffset(t *testing.T) {
	var buf bytes.Buffer
	c := &CSVWriter{Offset: 2 * time.Hour}
	if err := c.WriteTable(&buf, testTable(t, false)); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "2019-09-12 15:00:00.000") {
		t.Errorf("display offset not applied:\n%s", buf.String())
	}
}

func TestWriteIncidents(t *testing.T) {
	var buf bytes.Buffer
	c := &CSVWriter{}
	incidents := []*analysis.Incident{
		{
			Level:  "WARN",
			Sample: "Queue is filling up",
			Count:  7,
			First:  time.Date(2019, 9, 12, 13, 0, 0, 0, time.UTC),
			Last:   time.Date(2019, 9, 12, 13, 5, 0, 0, time.UTC),
		},
	}
	if err := c.WriteIncidents(&buf, incidents); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines", len(lines))
	}
	if lines[1] != "7,WARN,2019-09-12 13:00:00.000,2019-09-12 13:05:00.000,Queue is filling up" {
		t.Errorf("row = %q", lines[1])
	}
}

func TestFormatValue(t *testing.T) {
	cases := []struct {
		in   analysis.Value
		want string
	}{
		{analysis.MissingValue(), "?"},
		{analysis.NumberValue(42), "42"},
		{analysis.NumberValue(0), "0"},
		{analysis.NumberValue(3.5), "3.5"},
		{analysis.TextValue("startup"), "startup"},
	}
	for _, tc := range cases {
		if got := formatValue(tc.in); got != tc.want {
			t.Errorf("formatValue(%+v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestJSONValueMissingIsNull(t *testing.T) {
	if v := jsonValue(analysis.MissingValue()); v != nil {
		t.Errorf("missing = %v, want nil", v)
	}
	if v := jsonValue(analysis.NumberValue(0)); v != float64(0) {
		t.Errorf("zero = %v, want 0", v)
	}
}
