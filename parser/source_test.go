package parser

import (
	"errors"
	"testing"
)

func scanAll(t *testing.T, content string, c *Classifier) ([]Record, *Diagnostics) {
	t.Helper()
	src := &StringSource{SourceName: "test.log", Content: content}
	diags := NewDiagnostics()
	var records []Record
	err := ScanRecords(src, c, NewResolver(0), diags, func(rec Record) error {
		records = append(records, rec)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return records, diags
}

func TestScanRecordsBasic(t *testing.T) {
	content := "##### Correlator log header\n" +
		"Correlator, version 10.5.3, started\n" +
		"2019-09-12 13:00:52.123 INFO  [main] - Correlator Status: sm=10\n" +
		"not a log line at all\n" +
		"2019-09-12 13:00:62.123 INFO  [main] - bad timestamp\n" +
		"\n" +
		"2019-09-12 13:00:53.000 WARN  [main] - Queue is filling up\n"

	records, diags := scanAll(t, content, &Classifier{})

	if len(records) != 4 {
		t.Fatalf("got %d records, want 4", len(records))
	}

	if records[0].Kind != KindStartupBanner || !records[0].Instant.IsZero() {
		t.Errorf("bare header line: got %v, instant %v", records[0].Kind, records[0].Instant)
	}
	if records[1].Kind != KindStartupBanner {
		t.Errorf("banner line: got %v", records[1].Kind)
	}
	if records[2].Kind != KindStatus {
		t.Errorf("status line: got %v", records[2].Kind)
	}
	if records[3].Kind != KindWarnError {
		t.Errorf("warn line: got %v", records[3].Kind)
	}

	if diags.Count("malformedLine") != 1 {
		t.Errorf("malformedLine count = %d, want 1", diags.Count("malformedLine"))
	}
	if diags.Count("unparseableTimestamp") != 1 {
		t.Errorf("unparseableTimestamp count = %d, want 1", diags.Count("unparseableTimestamp"))
	}
}

func TestScanRecordsContainerPrefix(t *testing.T) {
	content := "abc123 | 2019-09-12 13:00:52.123 INFO  [main] - Correlator Status: sm=10\n"
	records, _ := scanAll(t, content, &Classifier{})
	if len(records) != 1 || records[0].Kind != KindStatus {
		t.Fatalf("wrapped line not classified as status: %+v", records)
	}
	if records[0].Message != "sm=10" {
		t.Errorf("message = %q", records[0].Message)
	}
}

func TestScanRecordsLineNumbers(t *testing.T) {
	content := "2019-09-12 13:00:52.123 INFO  [main] - first\n" +
		"2019-09-12 13:00:53.123 INFO  [main] - second\n"
	records, _ := scanAll(t, content, &Classifier{})
	if len(records) != 2 {
		t.Fatalf("got %d records", len(records))
	}
	if records[0].Num != 1 || records[1].Num != 2 {
		t.Errorf("line numbers = %d, %d", records[0].Num, records[1].Num)
	}
}

func TestScanRecordsStopScan(t *testing.T) {
	content := "2019-09-12 13:00:52.123 INFO  [main] - first\n" +
		"2019-09-12 13:00:53.123 INFO  [main] - second\n"
	src := &StringSource{SourceName: "test.log", Content: content}
	count := 0
	err := ScanRecords(src, &Classifier{}, NewResolver(0), NewDiagnostics(), func(Record) error {
		count++
		return ErrStopScan
	})
	if err != nil {
		t.Fatalf("ErrStopScan surfaced as error: %v", err)
	}
	if count != 1 {
		t.Errorf("callback ran %d times, want 1", count)
	}
}

func TestScanRecordsRereadable(t *testing.T) {
	src := &StringSource{
		SourceName: "test.log",
		Content:    "2019-09-12 13:00:52.123 INFO  [main] - Correlator Status: sm=10\n",
	}
	for pass := 0; pass < 3; pass++ {
		count := 0
		err := ScanRecords(src, &Classifier{}, NewResolver(0), NewDiagnostics(), func(Record) error {
			count++
			return nil
		})
		if err != nil {
			t.Fatalf("pass %d: %v", pass, err)
		}
		if count != 1 {
			t.Fatalf("pass %d saw %d records, want 1", pass, count)
		}
	}
}

func TestScanRecordsPropagatesError(t *testing.T) {
	src := &StringSource{
		SourceName: "test.log",
		Content:    "2019-09-12 13:00:52.123 INFO  [main] - hello\n",
	}
	boom := errors.New("boom")
	err := ScanRecords(src, &Classifier{}, NewResolver(0), NewDiagnostics(), func(Record) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("got %v, want boom", err)
	}
}
