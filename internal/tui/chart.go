package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nixlim/presetdeck/internal/contract"
	"github.com/nixlim/presetdeck/internal/events"
	"github.com/nixlim/presetdeck/internal/visual"
	"github.com/nixlim/presetdeck/internal/workspace"
)

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

var heatShades = []rune(" ░▒▓█")

func (m Model) renderChartPanel(w, h int) string {
	contentW := w - 4
	if contentW < 10 {
		contentW = 10
	}

	if m.snap.Result == nil {
		msg := "No result yet"
		switch m.snap.Status {
		case workspace.StatusLoading:
			msg = "Running..."
		case workspace.StatusError:
			msg = "No data: the last run failed"
		}
		return renderBorderedPanel(panelTitleStyle.Render("Chart")+"\n\n"+dimStyle.Render(msg), w, h)
	}

	model := m.chartModel()
	title := panelTitleStyle.Render("Chart") + dimStyle.Render(" "+string(model.ChartType))
	if m.snap.Loading() {
		title += loadingStyle.Render(" (refreshing)")
	}
	lines := []string{title}
	if sum := model.Meta.Summary; sum != nil && sum.Headline != "" {
		lines = append(lines, sum.Headline)
	}

	if model.ChartType == contract.ChartHeatmap || model.X.Type == contract.XMatrix {
		lines = append(lines, renderHeatmap(model, contentW)...)
	} else {
		lines = append(lines, renderSeriesRows(model, contentW)...)
	}

	if axes := renderAxes(model); axes != "" {
		lines = append(lines, dimStyle.Render(axes))
	}

	return renderBorderedPanel(strings.Join(lines, "\n"), w, h)
}

// renderSeriesRows draws a legend line and a sparkline per series. Hidden
// series keep their legend line so they can be toggled back on.
func renderSeriesRows(model visual.Model, width int) []string {
	var lines []string
	for i, s := range model.Series {
		color := lipgloss.NewStyle().Foreground(lipgloss.Color(s.Color))
		marker := "■"
		if !s.Visible {
			marker = "□"
		}
		legend := fmt.Sprintf("%s %d %s", color.Render(marker), i+1, s.Label)
		if s.Summary != nil && s.Summary.Latest != nil {
			legend += dimStyle.Render(fmt.Sprintf("  latest %s", events.FormatCount(*s.Summary.Latest)))
		}
		if s.Axis < 0 && s.Visible {
			legend += dimStyle.Render("  (no axis)")
		}
		if !s.Visible {
			lines = append(lines, dimStyle.Render(stripAnsi(legend)))
			continue
		}
		lines = append(lines, legend)

		spark := sparkline(values(s.Data), width-2)
		if spark != "" {
			lines = append(lines, "  "+color.Render(spark))
		}
	}
	return lines
}

func values(data []contract.DataPoint) []float64 {
	out := make([]float64, 0, len(data))
	for _, p := range data {
		v, ok := p.Number()
		if !ok {
			v = math.NaN()
		}
		out = append(out, v)
	}
	return out
}

// sparkline renders the last width values, scaled between their min and
// max. Missing values render as a space.
func sparkline(vals []float64, width int) string {
	if width <= 0 || len(vals) == 0 {
		return ""
	}
	if len(vals) > width {
		vals = vals[len(vals)-width:]
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	var sb strings.Builder
	for _, v := range vals {
		if math.IsNaN(v) {
			sb.WriteRune(' ')
			continue
		}
		idx := 0
		if hi > lo {
			idx = int((v - lo) / (hi - lo) * float64(len(sparkBlocks)-1))
		}
		sb.WriteRune(sparkBlocks[idx])
	}
	return sb.String()
}

// renderHeatmap draws the first visible series as a group x column grid
// shaded by value.
func renderHeatmap(model visual.Model, width int) []string {
	var s *visual.SeriesView
	for i := range model.Series {
		if model.Series[i].Visible {
			s = &model.Series[i]
			break
		}
	}
	if s == nil {
		return []string{dimStyle.Render("All series hidden (0 to show all)")}
	}

	var groups, cols []string
	seenGroup := make(map[string]bool)
	seenCol := make(map[string]bool)
	cells := make(map[[2]string]float64)
	peak := 0.0
	for _, p := range s.Data {
		if !seenGroup[p.Group] {
			seenGroup[p.Group] = true
			groups = append(groups, p.Group)
		}
		if !seenCol[p.X] {
			seenCol[p.X] = true
			cols = append(cols, p.X)
		}
		if v, ok := p.Number(); ok {
			cells[[2]string{p.Group, p.X}] = v
			peak = math.Max(peak, v)
		}
	}

	labelW := 0
	for _, g := range groups {
		labelW = max(labelW, len(g))
	}
	if n := width - labelW - 1; len(cols) > n && n > 0 {
		cols = cols[:n]
	}

	color := lipgloss.NewStyle().Foreground(lipgloss.Color(s.Color))
	lines := []string{color.Render("■") + " " + s.Label}
	for _, g := range groups {
		var sb strings.Builder
		for _, c := range cols {
			v, ok := cells[[2]string{g, c}]
			if !ok {
				sb.WriteRune('·')
				continue
			}
			idx := 0
			if peak > 0 && v > 0 {
				idx = int(v / peak * float64(len(heatShades)-1))
			}
			sb.WriteRune(heatShades[idx])
		}
		lines = append(lines, fmt.Sprintf("%-*s ", labelW, g)+color.Render(sb.String()))
	}
	return lines
}

func renderAxes(model visual.Model) string {
	var parts []string
	for _, a := range model.Axes {
		if !a.Visible {
			continue
		}
		side := "L"
		if a.Side == visual.SideRight {
			side = "R"
		}
		parts = append(parts, side+" "+a.Label)
	}
	if len(parts) == 0 {
		return ""
	}
	return "Axes: " + strings.Join(parts, " · ")
}
