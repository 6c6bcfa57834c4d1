package parser

import "testing"

func TestClassifyPriority(t *testing.T) {
	c := &Classifier{FieldPrefix: "MyApp Status"}

	cases := []struct {
		name     string
		level    string
		message  string
		wantKind RecordKind
		wantRest string
	}{
		{"banner", "INFO", "Correlator, version 10.5.3, started", KindStartupBanner,
			"Correlator, version 10.5.3, started"},
		{"status", "INFO", "Correlator Status: sm=10 nctx=3", KindStatus, "sm=10 nctx=3"},
		{"proxy", "INFO", "Proxy Status: reqs=5 errs=0", KindProxyStatus, "reqs=5 errs=0"},
		{"user with colon", "INFO", "MyApp Status: a=1 b=2", KindUserStatus, "a=1 b=2"},
		{"user with equals", "INFO", "MyApp Status= a=1", KindUserStatus, "a=1"},
		{"user no separator", "INFO", "MyApp Status a=1", KindUserStatus, "a=1"},
		{"user with monitor id", "INFO", "MyApp Status [mon42]: a=1", KindUserStatus, "a=1"},
		{"user prefix mid-word", "INFO", "MyApp Statusline a=1", KindIgnored, "MyApp Statusline a=1"},
		{"receiver connect", "INFO", "Receiver engine_receive (component 42) connected",
			KindConnectionEvent, "+engine_receive"},
		{"sender disconnect", "INFO", "Sender engine_send disconnected",
			KindConnectionEvent, "-engine_send"},
		{"warn", "WARN", "Queue is filling up", KindWarnError, "Queue is filling up"},
		{"error", "ERROR", "Failed to deliver event", KindWarnError, "Failed to deliver event"},
		{"fatal", "FATAL", "Out of memory", KindWarnError, "Out of memory"},
		{"plain info", "INFO", "Loaded monitor Foo", KindIgnored, "Loaded monitor Foo"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			kind, rest := c.Classify(tc.level, tc.message)
			if kind != tc.wantKind || rest != tc.wantRest {
				t.Errorf("Classify(%q, %q) = (%v, %q), want (%v, %q)",
					tc.level, tc.message, kind, rest, tc.wantKind, tc.wantRest)
			}
		})
	}
}

func TestClassifyNoUserPrefix(t *testing.T) {
	c := &Classifier{}
	kind, _ := c.Classify("INFO", "MyApp Status: a=1")
	if kind != KindIgnored {
		t.Errorf("got %v, want KindIgnored when no prefix configured", kind)
	}
}

func TestStatusNotMistakenForWarn(t *testing.T) {
	// Classification order matters: a WARN-level status line is still a
	// status line.
	c := &Classifier{}
	kind, _ := c.Classify("WARN", "Correlator Status: sm=10")
	if kind != KindStatus {
		t.Errorf("got %v, want KindStatus", kind)
	}
}

func TestStripContainerPrefix(t *testing.T) {
	cases := []struct {
		name     string
		line     string
		wantLine string
		wantID   string
	}{
		{"wrapped", "abc123 | 2019-09-12 13:00:52.123 INFO  [main] - hi",
			"2019-09-12 13:00:52.123 INFO  [main] - hi", "abc123"},
		{"unwrapped", "2019-09-12 13:00:52.123 INFO  [main] - hi",
			"2019-09-12 13:00:52.123 INFO  [main] - hi", ""},
		{"id with spaces", "not an id | message", "not an id | message", ""},
		{"pipe first", "| message", "| message", ""},
		{"no pipe", "plain text line", "plain text line", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			line, id := StripContainerPrefix(tc.line)
			if line != tc.wantLine || id != tc.wantID {
				t.Errorf("got (%q, %q), want (%q, %q)", line, id, tc.wantLine, tc.wantID)
			}
		})
	}
}

func TestSplitLinePrefix(t *testing.T) {
	ts, level, thread, message, ok := splitLinePrefix(
		"2019-09-12 13:00:52,123 INFO  [1402860.a] - Correlator Status: sm=10")
	if !ok {
		t.Fatal("expected standard line to split")
	}
	if ts != "2019-09-12 13:00:52,123" {
		t.Errorf("ts = %q", ts)
	}
	if level != "INFO" || thread != "1402860.a" {
		t.Errorf("level = %q, thread = %q", level, thread)
	}
	if message != "Correlator Status: sm=10" {
		t.Errorf("message = %q", message)
	}
}

func TestSplitLinePrefixCategory(t *testing.T) {
	_, _, _, message, ok := splitLinePrefix(
		"2019-09-12 13:00:52.123 WARN  [main] - <connectivity.HTTPClient> request failed")
	if !ok {
		t.Fatal("expected line with category to split")
	}
	if message != "request failed" {
		t.Errorf("message = %q", message)
	}
}

func TestSplitLinePrefixRejects(t *testing.T) {
	for _, line := range []string{
		"",
		"#####",
		"Correlator, version 10.5.3",
		"2019-09-12 13:00:52.123 INFO no thread segment",
		"2019-09-12 13:00:52.123 [main] - no level",
	} {
		if _, _, _, _, ok := splitLinePrefix(line); ok {
			t.Errorf("splitLinePrefix(%q) unexpectedly ok", line)
		}
	}
}
