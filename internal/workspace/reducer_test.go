package workspace

import (
	"reflect"
	"testing"

	"github.com/nixlim/presetdeck/internal/contract"
	"github.com/nixlim/presetdeck/internal/preset"
	"github.com/nixlim/presetdeck/internal/transport"
)

func selected(t *testing.T, id string) State {
	t.Helper()
	p, ok := preset.Default().Get(id)
	if !ok {
		t.Fatalf("preset %q missing", id)
	}
	s, diags := Reduce(State{}, SelectPreset{Preset: p, Overrides: p.DefaultOverrides()})
	if len(diags) != 0 {
		t.Fatalf("select produced diagnostics: %v", diags)
	}
	return s
}

func sampleResult() contract.ChartResult {
	return contract.ChartResult{
		ChartType: contract.ChartLine,
		X:         contract.XDimension{ID: "ts", Type: contract.XTime},
		Series: []contract.Series{{ID: "visitors", Unit: contract.UnitPeople, Data: []contract.DataPoint{
			{X: "2024-01-31T00:00:00Z", Y: contract.F(3)},
			{X: "2024-01-31T01:00:00Z", Y: contract.F(5)},
		}}},
	}
}

func TestReduce_AllowedFieldsFollowPreset(t *testing.T) {
	tests := []struct {
		id   string
		want []OverrideField
	}{
		{"live_flow", []OverrideField{FieldTimeRange, FieldSplit, FieldMeasure}},
		{"dwell_time", []OverrideField{FieldTimeRange, FieldSplit}},
		{"event_mix", []OverrideField{FieldTimeRange, FieldMeasure}},
		{"engagement_heatmap", []OverrideField{FieldTimeRange}},
	}

	s := State{}
	for _, tt := range tests {
		p, _ := preset.Default().Get(tt.id)
		s, _ = Reduce(s, SelectPreset{Preset: p, Overrides: p.DefaultOverrides()})
		if !reflect.DeepEqual(s.AllowedFields, tt.want) {
			t.Errorf("%s: want allowed %v, got %v", tt.id, tt.want, s.AllowedFields)
		}
	}
}

func TestReduce_UpdateDisallowedFieldIsDropped(t *testing.T) {
	s := selected(t, "engagement_heatmap")
	before := s.Overrides

	next, diags := Reduce(s, UpdateOverrides{Patch: OverridePatch{FieldSplit: true}})

	if !reflect.DeepEqual(next.Overrides, before) {
		t.Errorf("overrides changed: want %+v, got %+v", before, next.Overrides)
	}
	if len(diags) != 1 {
		t.Fatalf("want exactly one diagnostic, got %v", diags)
	}
	if diags[0].Code != contract.DiagOverrideDropped || diags[0].Field != string(FieldSplit) {
		t.Errorf("unexpected diagnostic %+v", diags[0])
	}
}

func TestReduce_UpdateMixedPatch(t *testing.T) {
	s := selected(t, "event_mix")

	next, diags := Reduce(s, UpdateOverrides{Patch: OverridePatch{
		FieldTimeRange: "last_7d",
		FieldSplit:     true,
		"chartType":    "bar",
		FieldMeasure:   42,
	}})

	if next.Overrides.TimeRangeID != "last_7d" {
		t.Errorf("allowed field not applied, got %q", next.Overrides.TimeRangeID)
	}
	if next.Overrides.MeasureOptionID != s.Overrides.MeasureOptionID {
		t.Errorf("mistyped measure option should be dropped, got %q", next.Overrides.MeasureOptionID)
	}
	if len(diags) != 3 {
		t.Fatalf("want one diagnostic per dropped field (3), got %v", diags)
	}
	fields := map[string]bool{}
	for _, d := range diags {
		fields[d.Field] = true
	}
	for _, f := range []string{"chartType", string(FieldSplit), string(FieldMeasure)} {
		if !fields[f] {
			t.Errorf("missing diagnostic for %s in %v", f, diags)
		}
	}
	if next.Badges[0].Ref != "last_7d" {
		t.Errorf("badges should follow the new overrides, got %v", next.Badges)
	}
}

func TestReduce_UnknownOptionIsDropped(t *testing.T) {
	s := selected(t, "live_flow")
	next, diags := Reduce(s, UpdateOverrides{Patch: OverridePatch{FieldTimeRange: "last_century"}})
	if next.Overrides.TimeRangeID != s.Overrides.TimeRangeID || len(diags) != 1 {
		t.Errorf("unknown option should be dropped with one diagnostic, got %q / %v", next.Overrides.TimeRangeID, diags)
	}
}

func TestReduce_UpdateWithoutPreset(t *testing.T) {
	_, diags := Reduce(State{}, UpdateOverrides{Patch: OverridePatch{FieldTimeRange: "last_7d", FieldSplit: false}})
	if len(diags) != 2 {
		t.Errorf("want every field dropped without a preset, got %v", diags)
	}
}

func TestReduce_UpdateDoesNotAliasSplitFlag(t *testing.T) {
	s := selected(t, "live_flow")
	next, _ := Reduce(s, UpdateOverrides{Patch: OverridePatch{FieldSplit: true}})
	if *s.Overrides.SplitEnabled {
		t.Error("previous state's split flag was mutated")
	}
	if !*next.Overrides.SplitEnabled {
		t.Error("split flag not applied")
	}
}

func TestReduce_RunLifecycle(t *testing.T) {
	s := selected(t, "live_flow")
	spec := contract.ChartSpec{ID: "live_flow"}

	s, _ = Reduce(s, RunStart{RunID: "r1", Spec: spec, Hash: "h1"})
	if !s.Loading() || s.Spec == nil || s.Hash != "h1" {
		t.Fatalf("run start not applied: %+v", s)
	}

	partial := []contract.Diagnostic{{Code: contract.DiagPartialData, Message: "partial"}}
	s, _ = Reduce(s, RunSuccess{RunID: "r1", Result: sampleResult(), Spec: spec, Hash: "h1", Diagnostics: partial})
	if s.Status != StatusReady || s.Result == nil || len(s.Diagnostics) != 1 {
		t.Fatalf("success not applied: %+v", s)
	}
	good := s.Result

	s, _ = Reduce(s, RunStart{RunID: "r2", Spec: spec, Hash: "h2"})
	s, _ = Reduce(s, RunFailure{RunID: "r2", Message: "backend returned 503", Category: transport.CategoryNetwork})
	if s.Status != StatusError || s.Error == "" || s.Category != transport.CategoryNetwork {
		t.Errorf("failure not applied: %+v", s)
	}
	if s.Diagnostics != nil {
		t.Errorf("failure should discard stale diagnostics, got %v", s.Diagnostics)
	}

	s, _ = Reduce(s, RunStart{RunID: "r3", Spec: spec, Hash: "h3"})
	if s.Error != "" || s.Category != "" {
		t.Errorf("run start should clear the previous error, got %q/%q", s.Error, s.Category)
	}
	s, _ = Reduce(s, RunCancelled{RunID: "r3"})
	if s.Status != StatusCancelled || s.Error != "" {
		t.Errorf("cancel not applied: %+v", s)
	}
	if s.Result != good {
		t.Error("cancellation must keep the last good result")
	}
}

func TestReduce_StaleRunIsIgnored(t *testing.T) {
	s := selected(t, "live_flow")
	s, _ = Reduce(s, RunStart{RunID: "old"})
	s, _ = Reduce(s, RunStart{RunID: "new"})

	after, _ := Reduce(s, RunSuccess{RunID: "old", Result: sampleResult()})
	if after.Result != nil || after.Status != StatusLoading {
		t.Fatalf("stale success was applied: %+v", after)
	}
	after, _ = Reduce(s, RunFailure{RunID: "old", Message: "boom"})
	if after.Error != "" {
		t.Fatal("stale failure was applied")
	}
	after, _ = Reduce(s, RunCancelled{RunID: "old"})
	if after.Status != StatusLoading {
		t.Fatal("stale cancellation was applied")
	}
	after, _ = Reduce(s, RunSuccess{RunID: "new", Result: sampleResult()})
	if after.Status != StatusReady {
		t.Fatal("current run was not applied")
	}
}

func TestReduce_SelectClearsRunState(t *testing.T) {
	s := selected(t, "live_flow")
	s, _ = Reduce(s, SetMode{Mode: transport.ModeLive})
	s, _ = Reduce(s, RunStart{RunID: "r1"})
	s, _ = Reduce(s, RunSuccess{RunID: "r1", Result: sampleResult(),
		Diagnostics: []contract.Diagnostic{{Code: contract.DiagPartialData}}})

	p, _ := preset.Default().Get("dwell_time")
	s, _ = Reduce(s, SelectPreset{Preset: p, Overrides: p.DefaultOverrides()})
	if s.Result != nil || s.Spec != nil || s.Diagnostics != nil || s.Error != "" || s.RunID != "" {
		t.Errorf("select should clear run state, got %+v", s)
	}
	if s.Mode != transport.ModeLive {
		t.Errorf("select should keep the transport mode, got %q", s.Mode)
	}
	if s.Status != StatusIdle {
		t.Errorf("want idle, got %s", s.Status)
	}
}

func TestReduce_ResetRestoresDefaults(t *testing.T) {
	s := selected(t, "live_flow")
	s, _ = Reduce(s, UpdateOverrides{Patch: OverridePatch{FieldTimeRange: "last_7d", FieldMeasure: "flow"}})

	p := *s.Preset
	s, _ = Reduce(s, ResetOverrides{Preset: p, Overrides: p.DefaultOverrides()})
	if !reflect.DeepEqual(s.Overrides, p.DefaultOverrides()) {
		t.Errorf("want defaults %+v, got %+v", p.DefaultOverrides(), s.Overrides)
	}
}
