package transport

import (
	"fmt"
	"math"

	"github.com/nixlim/presetdeck/internal/contract"
)

var geometryFor = map[contract.ChartType]contract.Geometry{
	contract.ChartLine:          contract.GeomLine,
	contract.ChartArea:          contract.GeomArea,
	contract.ChartStackedArea:   contract.GeomArea,
	contract.ChartColumn:        contract.GeomColumn,
	contract.ChartStackedColumn: contract.GeomColumn,
	contract.ChartBar:           contract.GeomBar,
	contract.ChartScatter:       contract.GeomScatter,
	contract.ChartHeatmap:       contract.GeomHeatmap,
	contract.ChartMetric:        contract.GeomMetric,
}

// Normalize fills in defaults a backend may omit. It never changes data.
func Normalize(r *contract.ChartResult) {
	if r.X.Timezone == "" {
		r.X.Timezone = r.Meta.Timezone
	}
	stacked := r.ChartType == contract.ChartStackedArea || r.ChartType == contract.ChartStackedColumn

	for i := range r.Series {
		s := &r.Series[i]
		if s.Label == "" {
			s.Label = s.ID
		}
		if s.Geometry == "" {
			s.Geometry = geometryFor[r.ChartType]
		}
		if stacked && s.StackID == "" {
			s.StackID = string(s.Unit)
		}
		if s.Summary == nil {
			s.Summary = summarize(s.Data)
		}
	}
}

func summarize(data []contract.DataPoint) *contract.SeriesSummary {
	var (
		total, peak float64
		latest      float64
		n           int
	)
	for _, p := range data {
		v, ok := p.Number()
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if n == 0 || v > peak {
			peak = v
		}
		total += v
		latest = v
		n++
	}
	if n == 0 {
		return nil
	}
	return &contract.SeriesSummary{
		Total:  contract.F(total),
		Latest: contract.F(latest),
		Peak:   contract.F(peak),
	}
}

// partialDiagnostics flags results the backend marked partial or whose
// coverage dips below one anywhere.
func partialDiagnostics(r contract.ChartResult) []contract.Diagnostic {
	if r.Meta.Partial {
		return []contract.Diagnostic{{
			Code:    contract.DiagPartialData,
			Message: "backend marked the result as partial",
		}}
	}
	low := 0
	first := ""
	for _, c := range r.Meta.Coverage {
		if c.Coverage < 1 {
			if low == 0 {
				first = c.X
			}
			low++
		}
	}
	if low == 0 {
		return nil
	}
	return []contract.Diagnostic{{
		Code:    contract.DiagPartialData,
		Message: fmt.Sprintf("%d bucket(s) have incomplete coverage, first at %s", low, first),
	}}
}
