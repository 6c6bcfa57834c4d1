package parser

import (
	"errors"
	"testing"
	"time"
)

func TestResolveFractionalSeparators(t *testing.T) {
	r := NewResolver(0)

	period, err := r.Resolve("2019-09-12 13:00:52.123 INFO  [main] - hello")
	if err != nil {
		t.Fatalf("period variant: %v", err)
	}
	comma, err := r.Resolve("2019-09-12 13:00:52,123 INFO  [main] - hello")
	if err != nil {
		t.Fatalf("comma variant: %v", err)
	}

	if !period.Equal(comma) {
		t.Errorf("period and comma variants differ: %v vs %v", period, comma)
	}

	want := time.Date(2019, 9, 12, 13, 0, 52, 123*int(time.Millisecond), time.UTC)
	if !period.Equal(want) {
		t.Errorf("got %v, want %v", period, want)
	}
}

func TestResolveOffsetNormalization(t *testing.T) {
	// Logs recorded at UTC+2 (120 minutes east): the wall-clock reading
	// 13:00 corresponds to the absolute instant 11:00 UTC.
	r := NewResolver(120)
	got, err := r.Resolve("2019-09-12 13:00:00.000")
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2019, 9, 12, 11, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestResolveRejectsMalformed(t *testing.T) {
	r := NewResolver(0)
	cases := []struct {
		name string
		line string
	}{
		{"too short", "2019-09-12"},
		{"bad date separator", "2019/09/12 13:00:52.123 INFO"},
		{"bad time separator", "2019-09-12 13-00-52.123 INFO"},
		{"bad fractional separator", "2019-09-12 13:00:52;123 INFO"},
		{"non-numeric", "2019-09-12 13:00:5x.123 INFO"},
		{"month out of range", "2019-13-12 13:00:52.123 INFO"},
		{"hour out of range", "2019-09-12 25:00:52.123 INFO"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := r.Resolve(tc.line); !errors.Is(err, ErrUnparseableTimestamp) {
				t.Errorf("got %v, want ErrUnparseableTimestamp", err)
			}
		})
	}
}

func TestResolveLeapSecond(t *testing.T) {
	r := NewResolver(0)
	if _, err := r.Resolve("2016-12-31 23:59:60.000 INFO"); err != nil {
		t.Errorf("leap second rejected: %v", err)
	}
}
