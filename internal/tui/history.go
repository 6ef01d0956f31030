package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/nixlim/presetdeck/internal/events"
	"github.com/nixlim/presetdeck/internal/runlog"
)

type historyRow struct {
	label     string
	runs      int
	succeeded int
	failed    int
	cancelled int
	partial   int
	totalMS   float64
}

func (r historyRow) avgMS() float64 {
	if r.runs == 0 {
		return 0
	}
	return r.totalMS / float64(r.runs)
}

func (m Model) renderHistory() string {
	var sb strings.Builder

	viewLabel := " [History]"
	indicators := m.headerIndicators()
	help := "d:Daily w:Weekly m:Monthly  Tab:Workspace  q:Quit "
	padding := m.width - lipgloss.Width(" presetdeck") - lipgloss.Width(viewLabel) - lipgloss.Width(indicators) - lipgloss.Width(help)
	if padding < 0 {
		padding = 0
	}
	headerLine := headerStyle.Width(m.width).Render(
		" presetdeck" + viewLabel + indicators + strings.Repeat(" ", padding) + help)
	sb.WriteString(headerLine)
	sb.WriteByte('\n')

	if !m.isPersistent {
		sb.WriteByte('\n')
		sb.WriteString(dimStyle.Render("  persistence is disabled, showing this session only (set storage.db_path to keep history)"))
		sb.WriteByte('\n')
	}

	var summaries []runlog.DailySummary
	if m.history != nil {
		switch m.historyGranularity {
		case "weekly":
			summaries = m.history.DailySummaries(28)
		case "monthly":
			summaries = m.history.DailySummaries(90)
		default:
			summaries = m.history.DailySummaries(7)
		}
	}

	if len(summaries) == 0 {
		sb.WriteByte('\n')
		sb.WriteString(dimStyle.Render("  No run history available"))
		sb.WriteByte('\n')
		return sb.String()
	}

	var rows []historyRow
	switch m.historyGranularity {
	case "weekly":
		rows = aggregateWeekly(summaries)
	case "monthly":
		rows = aggregateMonthly(summaries)
	default:
		for _, ds := range summaries {
			rows = append(rows, rowFromSummary(ds.Date, ds))
		}
	}

	sb.WriteByte('\n')
	var dateHeader string
	switch m.historyGranularity {
	case "weekly":
		dateHeader = "Week"
	case "monthly":
		dateHeader = "Month"
	default:
		dateHeader = "Date"
	}
	sb.WriteString(fmt.Sprintf("  %-14s %6s %6s %6s %9s %7s %8s",
		dateHeader, "Runs", "OK", "Failed", "Cancelled", "Partial", "Avg"))
	sb.WriteByte('\n')
	sb.WriteString(dimStyle.Render("  " + strings.Repeat("─", 62)))
	sb.WriteByte('\n')

	visibleH := m.height - 5
	if visibleH < 1 {
		visibleH = 1
	}
	startIdx := m.historyScrollPos
	if startIdx > len(rows)-visibleH {
		startIdx = len(rows) - visibleH
	}
	if startIdx < 0 {
		startIdx = 0
	}
	endIdx := startIdx + visibleH
	if endIdx > len(rows) {
		endIdx = len(rows)
	}

	for i := startIdx; i < endIdx; i++ {
		r := rows[i]
		failed := fmt.Sprintf("%6d", r.failed)
		if r.failed > 0 {
			failed = errorStyle.Render(failed)
		}
		sb.WriteString(fmt.Sprintf("  %-14s %6d %6d %s %9d %7d %8s",
			r.label, r.runs, r.succeeded, failed, r.cancelled, r.partial, events.FormatDurationMS(r.avgMS())))
		sb.WriteByte('\n')
	}

	return sb.String()
}

func rowFromSummary(label string, ds runlog.DailySummary) historyRow {
	return historyRow{
		label:     label,
		runs:      ds.Runs,
		succeeded: ds.Succeeded,
		failed:    ds.Failed,
		cancelled: ds.Cancelled,
		partial:   ds.Partial,
		totalMS:   ds.AvgMillis * float64(ds.Runs),
	}
}

func (r *historyRow) add(ds runlog.DailySummary) {
	r.runs += ds.Runs
	r.succeeded += ds.Succeeded
	r.failed += ds.Failed
	r.cancelled += ds.Cancelled
	r.partial += ds.Partial
	r.totalMS += ds.AvgMillis * float64(ds.Runs)
}

func aggregateWeekly(summaries []runlog.DailySummary) []historyRow {
	return aggregate(summaries, func(date string) string {
		t, err := time.Parse("2006-01-02", date)
		if err != nil {
			return date
		}
		y, w := t.ISOWeek()
		return fmt.Sprintf("Week %d-%02d", y, w)
	})
}

func aggregateMonthly(summaries []runlog.DailySummary) []historyRow {
	return aggregate(summaries, func(date string) string {
		if len(date) < 7 {
			return date
		}
		return date[:7]
	})
}

// aggregate folds daily summaries into buckets, keeping the order in which
// buckets are first seen.
func aggregate(summaries []runlog.DailySummary, bucket func(date string) string) []historyRow {
	byLabel := make(map[string]*historyRow)
	var order []string

	for _, ds := range summaries {
		label := bucket(ds.Date)
		if _, exists := byLabel[label]; !exists {
			byLabel[label] = &historyRow{label: label}
			order = append(order, label)
		}
		byLabel[label].add(ds)
	}

	result := make([]historyRow, 0, len(order))
	for _, label := range order {
		result = append(result, *byLabel[label])
	}
	return result
}
