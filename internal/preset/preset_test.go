package preset

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/nixlim/presetdeck/internal/contract"
	"github.com/nixlim/presetdeck/internal/spechash"
)

var anchor = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

func mustGet(t *testing.T, id string) contract.PresetDefinition {
	t.Helper()
	p, ok := Default().Get(id)
	if !ok {
		t.Fatalf("preset %q missing from default catalogue", id)
	}
	return p
}

func boolPtr(v bool) *bool { return &v }

func TestDefaultCatalogue(t *testing.T) {
	c := Default()
	want := []string{"live_flow", "event_mix", "dwell_time", "engagement_heatmap", "conversion_rate"}
	if got := c.IDs(); !reflect.DeepEqual(got, want) {
		t.Fatalf("want ids %v, got %v", want, got)
	}
	if _, ok := c.Get("nope"); ok {
		t.Error("unknown id should not resolve")
	}
}

func TestResolve_LiveFlowDefaults(t *testing.T) {
	p := mustGet(t, "live_flow")
	res := Resolve(p, p.DefaultOverrides(), anchor)

	tw := res.Spec.TimeWindow
	if !tw.From.Equal(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("from: want 2024-01-31T00:00:00Z, got %s", tw.From)
	}
	if !tw.To.Equal(anchor) {
		t.Errorf("to: want %s, got %s", anchor, tw.To)
	}
	if tw.Bucket != contract.BucketHour {
		t.Errorf("bucket: want HOUR, got %s", tw.Bucket)
	}
	if got := res.Spec.MeasureIDs(); !reflect.DeepEqual(got, []string{"visitors"}) {
		t.Errorf("measures: want [visitors], got %v", got)
	}
	if res.Spec.HasSplit("zone") {
		t.Error("split toggle defaults off, zone split should be dropped")
	}
	if res.TimeRange == nil || res.TimeRange.Label != "Last 24 hours" {
		t.Errorf("want Last 24 hours time range, got %+v", res.TimeRange)
	}
	if drifts := CheckIntegrity(p, res.Spec, res.Badges); len(drifts) != 0 {
		t.Errorf("want no drift, got %v", drifts)
	}
}

func TestResolve_OverridesApply(t *testing.T) {
	p := mustGet(t, "live_flow")
	o := contract.Overrides{TimeRangeID: "last_7d", SplitEnabled: boolPtr(true), MeasureOptionID: "flow"}
	res := Resolve(p, o, anchor)

	if !res.Spec.TimeWindow.From.Equal(time.Date(2024, 1, 25, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("want 7 days back, got %s", res.Spec.TimeWindow.From)
	}
	if res.Spec.TimeWindow.Bucket != contract.BucketDay {
		t.Errorf("want DAY bucket, got %s", res.Spec.TimeWindow.Bucket)
	}
	if res.Spec.Dimensions[0].Bucket != contract.BucketDay {
		t.Errorf("time dimension should follow the option bucket, got %s", res.Spec.Dimensions[0].Bucket)
	}
	if got := res.Spec.MeasureIDs(); !reflect.DeepEqual(got, []string{"entries", "exits"}) {
		t.Errorf("measures: want [entries exits], got %v", got)
	}
	if !res.Spec.HasSplit("zone") {
		t.Error("split enabled, zone split should be kept")
	}

	want := []Badge{
		{Kind: BadgeTimeRange, Label: "Time range", Value: "Last 7 days", Ref: "last_7d"},
		{Kind: BadgeSplit, Label: "By zone", Value: "On", Ref: "on"},
		{Kind: BadgeMeasure, Label: "Measure", Value: "Entries and exits", Ref: "flow"},
	}
	if !reflect.DeepEqual(res.Badges, want) {
		t.Errorf("badges:\nwant %v\ngot  %v", want, res.Badges)
	}
}

func TestResolve_UnknownOverrideFallsBackToDefault(t *testing.T) {
	p := mustGet(t, "live_flow")
	res := Resolve(p, contract.Overrides{TimeRangeID: "last_decade", MeasureOptionID: "???"}, anchor)
	if res.TimeRange.ID != "last_24h" {
		t.Errorf("want default time range, got %s", res.TimeRange.ID)
	}
	if got := res.Spec.MeasureIDs(); !reflect.DeepEqual(got, []string{"visitors"}) {
		t.Errorf("want default measure option, got %v", got)
	}
}

func TestResolve_MonthsUseCalendarArithmetic(t *testing.T) {
	p := mustGet(t, "dwell_time")
	at := time.Date(2024, 5, 31, 12, 0, 0, 0, time.UTC)
	res := Resolve(p, contract.Overrides{TimeRangeID: "last_3m"}, at)
	want := time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC)
	if !res.Spec.TimeWindow.From.Equal(want) {
		t.Errorf("want %s, got %s", want, res.Spec.TimeWindow.From)
	}
}

func TestSubtract_MonthsClampToMonthEnd(t *testing.T) {
	tests := []struct {
		anchor time.Time
		months int
		want   time.Time
	}{
		{time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC), 3, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), 1, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{time.Date(2023, 3, 31, 0, 0, 0, 0, time.UTC), 1, time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC)},
		{time.Date(2024, 7, 31, 8, 30, 0, 0, time.UTC), 1, time.Date(2024, 6, 30, 8, 30, 0, 0, time.UTC)},
		{time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), 2, time.Date(2023, 11, 30, 0, 0, 0, 0, time.UTC)},
		{time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC), 3, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		if got := Subtract(tt.anchor, tt.months, contract.UnitMonth); !got.Equal(tt.want) {
			t.Errorf("%s minus %d months: want %s, got %s", tt.anchor.Format(time.DateOnly), tt.months, tt.want, got)
		}
	}
}

func TestResolve_DoesNotMutateTemplate(t *testing.T) {
	p := mustGet(t, "event_mix")
	before := spechash.MustHash(p.Template)

	res := Resolve(p, contract.Overrides{TimeRangeID: "last_1h", MeasureOptionID: "rate"}, anchor)
	res.Spec.Filters.Children = append(res.Spec.Filters.Children, contract.Where("x", contract.OpExists))
	res.Spec.Measures[0].ID = "mutated"

	if after := spechash.MustHash(p.Template); after != before {
		t.Fatal("template changed after resolve")
	}
	again, _ := Default().Get("event_mix")
	if spechash.MustHash(again.Template) != before {
		t.Fatal("catalogue template changed after resolve")
	}
}

func TestCatalogue_ReturnsIndependentOverrideConfig(t *testing.T) {
	c := Default()

	p, _ := c.Get("live_flow")
	p.Overrides.TimeRange.Options[0].ID = "mutated"
	p.Overrides.TimeRange.Default = "mutated"
	p.Overrides.Split.Default = true
	p.Overrides.Measure.Options[1].MeasureIDs[0] = "mutated"

	listed := c.List()
	listed[0].Overrides.TimeRange.Options[0].ID = "mutated"

	again, _ := c.Get("live_flow")
	if got := again.Overrides.TimeRange.Options[0].ID; got != "last_1h" {
		t.Errorf("time range option: want last_1h, got %s", got)
	}
	if got := again.Overrides.TimeRange.Default; got != "last_24h" {
		t.Errorf("time range default: want last_24h, got %s", got)
	}
	if again.Overrides.Split.Default {
		t.Error("split default changed through a returned copy")
	}
	if got := again.Overrides.Measure.Options[1].MeasureIDs[0]; got != "entries" {
		t.Errorf("measure ids: want entries, got %s", got)
	}
}

func TestNewCatalogue_CopiesDefinitions(t *testing.T) {
	defs := Builtin()
	c, err := NewCatalogue(defs...)
	if err != nil {
		t.Fatal(err)
	}
	defs[0].Overrides.TimeRange.Options[0].ID = "mutated"

	p, _ := c.Get(defs[0].ID)
	if p.Overrides.TimeRange.Options[0].ID == "mutated" {
		t.Error("catalogue shares override options with its input")
	}
}

func TestResolve_Deterministic(t *testing.T) {
	for _, p := range Default().List() {
		a := Resolve(p, p.DefaultOverrides(), anchor)
		b := Resolve(p, p.DefaultOverrides(), anchor)
		if spechash.MustHash(a.Spec) != spechash.MustHash(b.Spec) {
			t.Errorf("%s: same inputs produced different specs", p.ID)
		}
		if drifts := CheckIntegrity(p, a.Spec, a.Badges); len(drifts) != 0 {
			t.Errorf("%s: unexpected drift %v", p.ID, drifts)
		}
	}
}

func TestCheckIntegrity_DetectsDrift(t *testing.T) {
	p := mustGet(t, "live_flow")
	res := Resolve(p, p.DefaultOverrides(), anchor)

	stale := Badges(p, contract.Overrides{TimeRangeID: "last_7d", SplitEnabled: boolPtr(true), MeasureOptionID: "flow"})
	drifts := CheckIntegrity(p, res.Spec, stale)

	kinds := map[BadgeKind]bool{}
	for _, d := range drifts {
		kinds[d.Kind] = true
	}
	for _, k := range []BadgeKind{BadgeTimeRange, BadgeSplit, BadgeMeasure} {
		if !kinds[k] {
			t.Errorf("want drift for %s, got %v", k, drifts)
		}
	}

	if d := CheckIntegrity(p, res.Spec, nil); len(d) != 3 {
		t.Errorf("missing badges: want 3 drifts, got %v", d)
	}
}

func TestNewCatalogue_RejectsBadDefinitions(t *testing.T) {
	good := Builtin()[0]

	dup := good
	bad := good
	bad.ID = "broken"
	bad.Fixture = ""
	bad.Overrides = contract.OverrideConfig{
		TimeRange: &contract.TimeRangeConfig{
			Options: []contract.TimeRangeOption{{ID: "zero", Amount: 0, Unit: "fortnight"}},
			Default: "missing",
		},
		Split: &contract.SplitToggle{DimensionID: "region"},
		Measure: &contract.MeasureOptionConfig{
			Options: []contract.MeasureOption{{ID: "ghost", MeasureIDs: []string{"ghost"}}},
		},
	}

	_, err := NewCatalogue(good, dup, bad)
	if err == nil {
		t.Fatal("want validation error")
	}
	for _, frag := range []string{
		`duplicate preset id "live_flow"`,
		"fixture must not be empty",
		"positive amount",
		`unknown unit "fortnight"`,
		`default "missing"`,
		`"region" is not a template split`,
		`unknown measure "ghost"`,
	} {
		if !strings.Contains(err.Error(), frag) {
			t.Errorf("error %q should mention %q", err, frag)
		}
	}
}

const extraYAML = `
presets:
  - id: lobby_count
    title: Lobby count
    fixture: live_flow
    template:
      id: lobby_count
      datasetId: footfall
      chartType: column
      measures:
        - id: visitors
          aggregation: count_distinct
      dimensions:
        - id: ts
          column: occurred_at
          bucket: HOUR
      filters:
        kind: group
        logic: AND
        children:
          - kind: condition
            field: zone
            op: eq
            values: [lobby]
    overrides:
      timeRange:
        default: last_12h
        options:
          - id: last_12h
            label: Last 12 hours
            amount: 12
            unit: hour
            bucket: HOUR
`

func TestBuild_ExtendsBuiltins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	if err := os.WriteFile(path, []byte(extraYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Build(path)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if c.Len() != len(Builtin())+1 {
		t.Fatalf("want %d presets, got %d", len(Builtin())+1, c.Len())
	}

	p, ok := c.Get("lobby_count")
	if !ok {
		t.Fatal("lobby_count not loaded")
	}
	if p.Template.Filters == nil || len(p.Template.Filters.Children) != 1 {
		t.Fatalf("filter tree not decoded: %+v", p.Template.Filters)
	}
	cond, ok := p.Template.Filters.Children[0].(*contract.Condition)
	if !ok || cond.Field != "zone" || cond.Op != contract.OpEq {
		t.Errorf("unexpected condition %+v", p.Template.Filters.Children[0])
	}

	res := Resolve(p, p.DefaultOverrides(), anchor)
	if want := anchor.Add(-12 * time.Hour); !res.Spec.TimeWindow.From.Equal(want) {
		t.Errorf("want from %s, got %s", want, res.Spec.TimeWindow.From)
	}
	if res.Spec.TimeWindow.Timezone != "UTC" {
		t.Errorf("timezone should default to UTC, got %q", res.Spec.TimeWindow.Timezone)
	}
}

func TestBuild_CollisionWithBuiltin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	yml := strings.Replace(extraYAML, "id: lobby_count\n    title", "id: live_flow\n    title", 1)
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Build(path); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("want duplicate id error, got %v", err)
	}
}

func TestBuild_MissingFile(t *testing.T) {
	if _, err := Build(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("want error for missing file")
	}
}
