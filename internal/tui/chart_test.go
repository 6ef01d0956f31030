package tui

import (
	"math"
	"strings"
	"testing"

	"github.com/nixlim/presetdeck/internal/contract"
	"github.com/nixlim/presetdeck/internal/visual"
)

func TestSparkline(t *testing.T) {
	tests := []struct {
		name  string
		vals  []float64
		width int
		want  string
	}{
		{"empty", nil, 10, ""},
		{"zero width", []float64{1, 2}, 0, ""},
		{"min to max", []float64{0, 7}, 10, "▁█"},
		{"flat", []float64{3, 3, 3}, 10, "▁▁▁"},
		{"gap", []float64{0, math.NaN(), 7}, 10, "▁ █"},
		{"keeps the tail", []float64{7, 0, 7}, 2, "▁█"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sparkline(tt.vals, tt.width); got != tt.want {
				t.Errorf("want %q, got %q", tt.want, got)
			}
		})
	}
}

func TestRenderHeatmap(t *testing.T) {
	r := contract.ChartResult{
		ChartType: contract.ChartHeatmap,
		X:         contract.XDimension{ID: "hour", Type: contract.XMatrix},
		Series: []contract.Series{{
			ID: "visitors", Label: "Visitors", Unit: contract.UnitPeople,
			Data: []contract.DataPoint{
				{Group: "Mon", X: "00", Value: contract.F(0)},
				{Group: "Mon", X: "01", Value: contract.F(4)},
				{Group: "Tue", X: "00", Value: contract.F(2)},
			},
		}},
	}

	lines := renderHeatmap(visual.BuildModel(r, nil, nil), 40)
	if len(lines) != 3 {
		t.Fatalf("want legend + 2 rows, got %d: %q", len(lines), lines)
	}
	if got := stripAnsi(lines[1]); got != "Mon  █" {
		t.Errorf("Mon row: want %q, got %q", "Mon  █", got)
	}
	if got := stripAnsi(lines[2]); got != "Tue ▒·" {
		t.Errorf("Tue row: want %q, got %q", "Tue ▒·", got)
	}
}

func TestRenderHeatmap_AllHidden(t *testing.T) {
	r := contract.ChartResult{
		ChartType: contract.ChartHeatmap,
		Series:    []contract.Series{{ID: "visitors", Label: "Visitors", Unit: contract.UnitPeople}},
	}
	sm := visual.NewSeriesManager(visual.SeriesIDs(r))
	sm.Toggle("visitors")

	lines := renderHeatmap(visual.BuildModel(r, sm, nil), 40)
	if len(lines) != 1 || !strings.Contains(lines[0], "All series hidden") {
		t.Errorf("unexpected %q", lines)
	}
}

func TestRenderSeriesRows_HiddenSeriesKeepLegend(t *testing.T) {
	r := lineResult()
	sm := visual.NewSeriesManager(visual.SeriesIDs(r))
	sm.Toggle("entries")

	lines := renderSeriesRows(visual.BuildModel(r, sm, nil), 20)
	// two visible series with a sparkline each, one hidden legend line
	if len(lines) != 5 {
		t.Fatalf("want 5 lines, got %d: %q", len(lines), lines)
	}
	if got := stripAnsi(lines[2]); !strings.HasPrefix(got, "□ 2 Entries") {
		t.Errorf("hidden legend: got %q", got)
	}
}

func TestRenderAxes(t *testing.T) {
	got := renderAxes(visual.BuildModel(lineResult(), nil, nil))
	if got != "Axes: L People · R Events" {
		t.Errorf("unexpected axes line %q", got)
	}
}
