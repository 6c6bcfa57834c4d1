package analysis

import (
	"testing"
)

func TestBuildStatusSchema(t *testing.T) {
	observed := []string{"sm", "rx", "pm", "custom"}
	schema := BuildStatusSchema(observed, nil)

	// Canonical keys keep the default order; rate and delta columns only
	// appear for observed base keys; unknown keys are appended.
	var keys []string
	for _, k := range schema.Keys {
		keys = append(keys, k.Key)
	}
	want := []string{"=rx /sec", "rx", "sm", "pm", "=pm delta MB", "custom"}
	if len(keys) != len(want) {
		t.Fatalf("columns = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("columns = %v, want %v", keys, want)
		}
	}

	// Aliases from the canonical table become headings.
	if idx, _ := schema.Index("sm"); schema.Keys[idx].Alias != "sm=monitor instances" {
		t.Errorf("sm alias = %q", schema.Keys[idx].Alias)
	}
}

func TestBuildStatusSchemaUserAliases(t *testing.T) {
	schema := BuildStatusSchema([]string{"sm"}, map[string]string{"sm": "monitors"})
	if schema.Keys[0].Alias != "monitors" {
		t.Errorf("alias = %q, want user override", schema.Keys[0].Alias)
	}
}

func TestAnnotatorRates(t *testing.T) {
	schema := BuildStatusSchema([]string{"rx", "pm"}, nil)
	a := newStatusAnnotator(schema)

	rxRate, _ := schema.Index("=rx /sec")
	rxRaw, _ := schema.Index("rx")
	pmIdx, _ := schema.Index("pm")
	pmDelta, _ := schema.Index("=pm delta MB")

	// First sample: no baseline, rates and deltas are zero.
	v1 := a.Annotate(at(t, "2019-09-12 13:00:00"), ParseFields("rx=1000 pm=2048"))
	if v1[rxRate].Num != 0 || v1[rxRate].Missing {
		t.Errorf("first rx rate = %+v, want 0", v1[rxRate])
	}
	if v1[pmIdx].Num != 2 {
		t.Errorf("pm = %+v, want 2 MB (converted from kb)", v1[pmIdx])
	}

	// Ten seconds later: 500 more events is 50/sec, 1024 more kb is 1 MB.
	v2 := a.Annotate(at(t, "2019-09-12 13:00:10"), ParseFields("rx=1500 pm=3072"))
	if v2[rxRate].Num != 50 {
		t.Errorf("rx rate = %+v, want 50", v2[rxRate])
	}
	if v2[rxRaw].Num != 1500 {
		t.Errorf("rx = %+v, want 1500", v2[rxRaw])
	}
	if v2[pmDelta].Num != 1 {
		t.Errorf("pm delta = %+v, want 1", v2[pmDelta])
	}
}

func TestAnnotatorResetClearsBaseline(t *testing.T) {
	schema := BuildStatusSchema([]string{"rx"}, nil)
	a := newStatusAnnotator(schema)
	rxRate, _ := schema.Index("=rx /sec")

	a.Annotate(at(t, "2019-09-12 13:00:00"), ParseFields("rx=100000"))
	a.Reset()

	// Post-restart counters drop back near zero; without the reset this
	// would compute a large negative rate.
	v := a.Annotate(at(t, "2019-09-12 13:00:10"), ParseFields("rx=50"))
	if v[rxRate].Missing || v[rxRate].Num != 0 {
		t.Errorf("post-restart rx rate = %+v, want 0", v[rxRate])
	}
}

func TestAnnotatorMissingBase(t *testing.T) {
	schema := BuildStatusSchema([]string{"rx", "jvm"}, nil)
	a := newStatusAnnotator(schema)
	jvmIdx, _ := schema.Index("jvm")
	jvmDelta, _ := schema.Index("=jvm delta MB")

	v := a.Annotate(at(t, "2019-09-12 13:00:00"), ParseFields("rx=1 jvm=unavailable"))
	if !v[jvmIdx].Missing {
		t.Errorf("jvm = %+v, want missing", v[jvmIdx])
	}
	if !v[jvmDelta].Missing {
		t.Errorf("jvm delta = %+v, want missing", v[jvmDelta])
	}
}
