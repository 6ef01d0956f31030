package contract

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func sampleSpec() ChartSpec {
	return ChartSpec{
		ID:        "flow",
		DatasetID: "events",
		Measures: []MeasureSpec{
			{ID: "visitors", Aggregation: AggCountDistinct},
			{ID: "entries", Aggregation: AggCount, EventType: "entry"},
		},
		Dimensions: []DimensionSpec{{ID: "ts", Column: "occurred_at", Bucket: BucketHour}},
		Splits:     []SplitSpec{{DimensionID: "zone", Limit: 5, Sort: SortDesc}},
		Filters: And(
			Where("site", OpEq, "north"),
			Or(Where("zone", OpIn, "a", "b"), Where("vip", OpExists)),
		),
		TimeWindow: TimeWindow{
			From:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			To:     time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			Bucket: BucketHour,
		},
		ChartType: ChartLine,
	}
}

func TestChartSpec_CloneIsDeep(t *testing.T) {
	orig := sampleSpec()
	clone := orig.Clone()

	clone.Measures[0].ID = "mutated"
	clone.Splits = nil
	clone.Filters.Children[0].(*Condition).Values[0] = "south"
	clone.Filters.Children[1].(*FilterGroup).Logic = LogicAnd

	if orig.Measures[0].ID != "visitors" {
		t.Errorf("measure mutated through clone: got %q", orig.Measures[0].ID)
	}
	if len(orig.Splits) != 1 {
		t.Errorf("splits mutated through clone: got %d", len(orig.Splits))
	}
	if got := orig.Filters.Children[0].(*Condition).Values[0]; got != "north" {
		t.Errorf("filter value mutated through clone: got %q", got)
	}
	if got := orig.Filters.Children[1].(*FilterGroup).Logic; got != LogicOr {
		t.Errorf("nested group mutated through clone: got %q", got)
	}
}

func TestFilterGroup_TaggedJSON(t *testing.T) {
	data, err := json.Marshal(sampleSpec().Filters)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"kind":"group"`) || !strings.Contains(string(data), `"kind":"condition"`) {
		t.Fatalf("expected kind tags in %s", data)
	}

	var g FilterGroup
	if err := json.Unmarshal(data, &g); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(g.Children) != 2 {
		t.Fatalf("want 2 children, got %d", len(g.Children))
	}
	inner, ok := g.Children[1].(*FilterGroup)
	if !ok {
		t.Fatalf("want nested *FilterGroup, got %T", g.Children[1])
	}
	if inner.Logic != LogicOr || len(inner.Children) != 2 {
		t.Errorf("nested group decoded wrong: %+v", inner)
	}
}

func TestFilterGroup_RejectsUnknownShapes(t *testing.T) {
	cases := map[string]string{
		"unknown kind":     `{"kind":"group","logic":"AND","children":[{"kind":"blob"}]}`,
		"unknown operator": `{"kind":"group","logic":"AND","children":[{"kind":"condition","field":"a","op":"like"}]}`,
		"unknown logic":    `{"kind":"group","logic":"XOR","children":[]}`,
		"missing field":    `{"kind":"group","logic":"AND","children":[{"kind":"condition","op":"eq"}]}`,
	}
	for name, input := range cases {
		var g FilterGroup
		if err := json.Unmarshal([]byte(input), &g); err == nil {
			t.Errorf("%s: expected decode error", name)
		}
	}
}

func TestPresetDefinition_DefaultOverrides(t *testing.T) {
	p := PresetDefinition{
		Overrides: OverrideConfig{
			TimeRange: &TimeRangeConfig{Options: []TimeRangeOption{{ID: "24h"}, {ID: "7d"}}},
			Split:     &SplitToggle{DimensionID: "zone", Default: true},
			Measure:   &MeasureOptionConfig{Options: []MeasureOption{{ID: "all"}}, Default: "all"},
		},
	}
	o := p.DefaultOverrides()
	if o.TimeRangeID != "24h" {
		t.Errorf("time range: want first option 24h, got %q", o.TimeRangeID)
	}
	if o.SplitEnabled == nil || !*o.SplitEnabled {
		t.Errorf("split: want enabled, got %v", o.SplitEnabled)
	}
	if o.MeasureOptionID != "all" {
		t.Errorf("measure option: want all, got %q", o.MeasureOptionID)
	}

	c := o.Clone()
	*c.SplitEnabled = false
	if !*o.SplitEnabled {
		t.Error("Overrides.Clone shares the split pointer")
	}
}
