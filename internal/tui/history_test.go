package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/nixlim/presetdeck/internal/runlog"
)

func TestAggregateWeekly(t *testing.T) {
	summaries := []runlog.DailySummary{
		{Date: "2024-02-07", Runs: 2, Succeeded: 2, AvgMillis: 100},
		{Date: "2024-02-06", Runs: 2, Succeeded: 1, Failed: 1, AvgMillis: 300},
		{Date: "2024-02-04", Runs: 1, Cancelled: 1, AvgMillis: 50},
	}

	rows := aggregateWeekly(summaries)
	if len(rows) != 2 {
		t.Fatalf("want 2 weeks, got %d: %+v", len(rows), rows)
	}
	if rows[0].label != "Week 2024-06" || rows[1].label != "Week 2024-05" {
		t.Errorf("unexpected labels %q, %q", rows[0].label, rows[1].label)
	}
	if rows[0].runs != 4 || rows[0].succeeded != 3 || rows[0].failed != 1 {
		t.Errorf("week 6 counts: %+v", rows[0])
	}
	if got := rows[0].avgMS(); got != 200 {
		t.Errorf("week 6 avg: want 200, got %v", got)
	}
	if rows[1].cancelled != 1 {
		t.Errorf("week 5 cancelled: want 1, got %d", rows[1].cancelled)
	}
}

func TestAggregateMonthly(t *testing.T) {
	summaries := []runlog.DailySummary{
		{Date: "2024-03-01", Runs: 1, Partial: 1},
		{Date: "2024-02-29", Runs: 3},
		{Date: "2024-02-01", Runs: 2},
	}

	rows := aggregateMonthly(summaries)
	if len(rows) != 2 {
		t.Fatalf("want 2 months, got %d", len(rows))
	}
	if rows[0].label != "2024-03" || rows[0].partial != 1 {
		t.Errorf("march row: %+v", rows[0])
	}
	if rows[1].label != "2024-02" || rows[1].runs != 5 {
		t.Errorf("february row: %+v", rows[1])
	}
}

func TestHistoryRow_AvgWithoutRuns(t *testing.T) {
	if got := (historyRow{}).avgMS(); got != 0 {
		t.Errorf("want 0, got %v", got)
	}
}

func TestRenderHistory(t *testing.T) {
	rec := runlog.NewMemoryRecorder(10)
	now := time.Now()
	rec.RecordRun(runlog.RunRecord{RunID: "r1", PresetID: "live_flow", Status: runlog.StatusReady, StartedAt: now, Duration: 200 * time.Millisecond})
	rec.RecordRun(runlog.RunRecord{RunID: "r2", PresetID: "live_flow", Status: runlog.StatusError, StartedAt: now, Duration: 400 * time.Millisecond})

	m := newTestModel(newFakeWorkspace(), WithHistory(rec), WithPersistenceFlag(true), WithStartView(ViewHistory))
	view := stripAnsi(m.View())

	if !strings.Contains(view, now.UTC().Format("2006-01-02")) {
		t.Errorf("today's row missing:\n%s", view)
	}
	if !strings.Contains(view, "0.3s") {
		t.Errorf("average duration missing:\n%s", view)
	}
	if strings.Contains(view, "persistence is disabled") {
		t.Error("persistence notice shown for a persistent recorder")
	}
}

func TestRenderHistory_Empty(t *testing.T) {
	m := newTestModel(newFakeWorkspace(), WithStartView(ViewHistory))
	view := stripAnsi(m.View())
	if !strings.Contains(view, "persistence is disabled") {
		t.Error("want persistence notice")
	}
	if !strings.Contains(view, "No run history available") {
		t.Error("want empty history message")
	}
}

func TestHistory_GranularityKeys(t *testing.T) {
	m := newTestModel(newFakeWorkspace(), WithStartView(ViewHistory))
	m.historyScrollPos = 3

	m = press(t, m, "w")
	if m.historyGranularity != "weekly" || m.historyScrollPos != 0 {
		t.Errorf("want weekly at top, got %s/%d", m.historyGranularity, m.historyScrollPos)
	}
	m = press(t, m, "m")
	if m.historyGranularity != "monthly" {
		t.Errorf("want monthly, got %s", m.historyGranularity)
	}
	m = press(t, m, "d")
	if m.historyGranularity != "daily" {
		t.Errorf("want daily, got %s", m.historyGranularity)
	}
}
