package validate

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/nixlim/presetdeck/internal/contract"
)

func points(keys ...string) []contract.DataPoint {
	out := make([]contract.DataPoint, 0, len(keys))
	for i, k := range keys {
		out = append(out, contract.DataPoint{X: k, Y: contract.F(float64(i))})
	}
	return out
}

func lineResult(series ...contract.Series) contract.ChartResult {
	return contract.ChartResult{
		ChartType: contract.ChartLine,
		X:         contract.XDimension{ID: "ts", Type: contract.XTime, Bucket: contract.BucketHour},
		Series:    series,
	}
}

func TestValidate_ConsistentBucketsAreValid(t *testing.T) {
	keys := []string{"2024-01-31T00:00:00Z", "2024-01-31T01:00:00Z", "2024-01-31T02:00:00Z"}
	r := lineResult(
		contract.Series{ID: "visitors", Unit: contract.UnitPeople, Data: points(keys...)},
		contract.Series{ID: "entries", Unit: contract.UnitEvents, Data: points(keys...)},
		contract.Series{ID: "dwell", Unit: contract.UnitMinutes, Data: points(keys...)},
	)

	if issues := Validate(r); len(issues) != 0 {
		t.Fatalf("want no issues, got %v", issues)
	}
}

func TestValidate_EmptySeries(t *testing.T) {
	issues := Validate(contract.ChartResult{ChartType: contract.ChartLine})
	if len(issues) != 1 || issues[0].Code != CodeEmptySeries {
		t.Fatalf("want single empty_series issue, got %v", issues)
	}
}

func TestValidate_UnsupportedUnit(t *testing.T) {
	r := lineResult(contract.Series{ID: "cost", Unit: "usd", Data: points("a")})
	issues := Validate(r)
	if Count(issues, CodeUnsupportedUnit) != 1 {
		t.Fatalf("want one unsupported_unit issue, got %v", issues)
	}
}

func TestValidate_UnitChecksPrecedePointChecks(t *testing.T) {
	blank := []contract.DataPoint{{X: "", Y: contract.F(1)}}
	r := lineResult(
		contract.Series{ID: "a", Unit: "usd", Data: blank},
		contract.Series{ID: "b", Unit: "eur", Data: blank},
	)

	issues := Validate(r)
	if len(issues) < 4 {
		t.Fatalf("want at least 4 issues, got %v", issues)
	}
	var got []string
	for _, is := range issues[:4] {
		got = append(got, string(is.Code)+":"+is.SeriesID)
	}
	want := []string{
		string(CodeUnsupportedUnit) + ":a",
		string(CodeUnsupportedUnit) + ":b",
		string(CodeMissingX) + ":a",
		string(CodeMissingX) + ":b",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("want %v, got %v", want, got)
	}
}

func TestValidate_CoverageRangeOnePerPoint(t *testing.T) {
	data := points("a", "b", "c", "d", "e")
	data[0].Coverage = contract.F(0.5)
	data[1].Coverage = contract.F(-0.1)
	data[2].Coverage = contract.F(1.5)
	data[3].Coverage = contract.F(math.NaN())
	data[4].Coverage = contract.F(1)

	issues := Validate(lineResult(contract.Series{ID: "s", Unit: contract.UnitCount, Data: data}))

	if got := Count(issues, CodeCoverageRange); got != 3 {
		t.Fatalf("want 3 coverage_range issues, got %d (%v)", got, issues)
	}
	wantIdx := []int{1, 2, 3}
	var gotIdx []int
	for _, is := range issues {
		if is.Code == CodeCoverageRange {
			gotIdx = append(gotIdx, is.Index)
		}
	}
	if !reflect.DeepEqual(gotIdx, wantIdx) {
		t.Errorf("coverage issue indexes: want %v, got %v", wantIdx, gotIdx)
	}
}

func TestValidate_NonFiniteAndMissingX(t *testing.T) {
	data := []contract.DataPoint{
		{X: "a", Y: contract.F(math.Inf(1))},
		{X: "", Value: contract.F(2)},
		{X: "c", Target: contract.F(math.NaN())},
	}
	issues := Validate(lineResult(contract.Series{ID: "s", Unit: contract.UnitCount, Data: data}))

	if Count(issues, CodeNonFinite) != 2 {
		t.Errorf("want 2 non_finite issues, got %v", issues)
	}
	if Count(issues, CodeMissingX) != 1 {
		t.Errorf("want 1 missing_x issue, got %v", issues)
	}
}

func TestValidate_MisalignedSeries(t *testing.T) {
	r := lineResult(
		contract.Series{ID: "a", Unit: contract.UnitCount, Data: points("1", "2", "3")},
		contract.Series{ID: "b", Unit: contract.UnitCount, Data: points("1", "3", "2")},
		contract.Series{ID: "c", Unit: contract.UnitCount, Data: points("1", "2")},
	)
	issues := Validate(r)
	if got := Count(issues, CodeXSequenceMismatch); got != 2 {
		t.Fatalf("want 2 x_sequence_mismatch issues, got %d (%v)", got, issues)
	}
	if issues[0].SeriesID != "b" || issues[1].SeriesID != "c" {
		t.Errorf("mismatch issues should follow series order, got %v", issues)
	}
}

func TestValidate_DuplicateX(t *testing.T) {
	r := lineResult(
		contract.Series{ID: "a", Unit: contract.UnitCount, Data: points("1", "1")},
		contract.Series{ID: "b", Unit: contract.UnitCount, Data: points("1", "1")},
	)
	issues := Validate(r)
	if got := Count(issues, CodeDuplicateX); got != 2 {
		t.Fatalf("want one duplicate_x per series, got %d (%v)", got, issues)
	}
}

func heatmap(data ...contract.DataPoint) contract.ChartResult {
	return contract.ChartResult{
		ChartType: contract.ChartHeatmap,
		X:         contract.XDimension{ID: "hour", Type: contract.XMatrix},
		Series:    []contract.Series{{ID: "density", Unit: contract.UnitPeople, Geometry: contract.GeomHeatmap, Data: data}},
	}
}

func cell(row, col string, v float64) contract.DataPoint {
	return contract.DataPoint{X: col, Group: row, Value: contract.F(v)}
}

func TestValidate_DenseHeatmap(t *testing.T) {
	r := heatmap(
		cell("mon", "09", 1), cell("mon", "10", 2),
		cell("tue", "09", 3), cell("tue", "10", 4),
	)
	if issues := Validate(r); len(issues) != 0 {
		t.Fatalf("dense grid: want no issues, got %v", issues)
	}
}

func TestValidate_HeatmapGapAndDuplicate(t *testing.T) {
	r := heatmap(
		cell("mon", "09", 1), cell("mon", "10", 2),
		cell("tue", "09", 3), cell("tue", "09", 4),
	)
	issues := Validate(r)
	if Count(issues, CodeDuplicateCell) != 1 {
		t.Errorf("want one duplicate_cell, got %v", issues)
	}
	if Count(issues, CodeHeatmapGridGap) != 1 {
		t.Errorf("want one heatmap_grid_gap, got %v", issues)
	}
	for _, is := range issues {
		if is.Code == CodeHeatmapGridGap && is.X != "10" {
			t.Errorf("gap should be reported at column 10, got %q", is.X)
		}
	}
}

func TestValidate_HeatmapRowsFromSeries(t *testing.T) {
	r := contract.ChartResult{
		ChartType: contract.ChartHeatmap,
		X:         contract.XDimension{ID: "hour", Type: contract.XMatrix},
		Series: []contract.Series{
			{ID: "mon", Unit: contract.UnitPeople, Data: points("09", "10")},
			{ID: "tue", Unit: contract.UnitPeople, Data: points("09")},
		},
	}
	issues := Validate(r)
	if len(issues) != 1 || issues[0].Code != CodeHeatmapGridGap || issues[0].SeriesID != "tue" {
		t.Fatalf("want a single gap on tue, got %v", issues)
	}
}

func TestValidate_Deterministic(t *testing.T) {
	r := heatmap(
		cell("a", "1", 1), cell("b", "2", 1), cell("c", "3", 1),
		cell("a", "1", math.NaN()),
	)
	first := Validate(r)
	for i := 0; i < 20; i++ {
		if got := Validate(r); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs: %v vs %v", i, got, first)
		}
	}
}

func TestSummarize(t *testing.T) {
	issues := []Issue{
		{Code: CodeMissingX, SeriesID: "a", Message: "one"},
		{Code: CodeMissingX, SeriesID: "a", Message: "two"},
		{Code: CodeMissingX, SeriesID: "a", Message: "three"},
	}
	got := Summarize(issues, 2)
	if !strings.Contains(got, "one") || !strings.Contains(got, "and 1 more") {
		t.Errorf("unexpected summary %q", got)
	}
	if Summarize(nil, 2) != "" {
		t.Error("empty issues should summarize to empty string")
	}
}
