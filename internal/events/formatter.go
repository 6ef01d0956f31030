// Package events formats run outcomes and workspace diagnostics for the
// event panel and keeps the most recent ones in a ring buffer.
package events

import (
	"fmt"
	"time"

	"github.com/nixlim/presetdeck/internal/contract"
	"github.com/nixlim/presetdeck/internal/runlog"
)

const (
	TypeRunReady     = "run_ready"
	TypeRunError     = "run_error"
	TypeRunCancelled = "run_cancelled"
)

// FormatRun converts a finished run into a display-ready event:
//   - ready:     "[preset] 3 series (0.4s) #1a2b3c4d"
//   - error:     "[preset] NETWORK backend returned 503 (attempt 3)"
//   - cancelled: "[preset] cancelled after 1.2s"
func FormatRun(r runlog.RunRecord) FormattedEvent {
	fe := FormattedEvent{
		RunID:     r.RunID,
		PresetID:  r.PresetID,
		Timestamp: r.StartedAt.Add(r.Duration),
	}
	if r.StartedAt.IsZero() {
		fe.Timestamp = time.Now()
	}

	switch r.Status {
	case runlog.StatusReady:
		fe.EventType = TypeRunReady
		ok := true
		fe.Success = &ok
		fe.Formatted = fmt.Sprintf("[%s] %d series (%s) #%s",
			r.PresetID, r.SeriesCount, FormatDurationMS(float64(r.Duration.Milliseconds())), shortHash(r.Hash))
		if r.Partial {
			fe.Formatted += " partial"
		}
	case runlog.StatusError:
		fe.EventType = TypeRunError
		failed := false
		fe.Success = &failed
		fe.Formatted = fmt.Sprintf("[%s] %s %s", r.PresetID, r.Category, truncate(r.Error, 80))
		if r.Attempts > 0 {
			fe.Formatted += fmt.Sprintf(" (attempt %d)", r.Attempts)
		}
	case runlog.StatusCancelled:
		fe.EventType = TypeRunCancelled
		fe.Formatted = fmt.Sprintf("[%s] cancelled after %s",
			r.PresetID, FormatDurationMS(float64(r.Duration.Milliseconds())))
	default:
		fe.EventType = string(r.Status)
		fe.Formatted = fmt.Sprintf("[%s] %s", r.PresetID, r.Status)
	}
	return fe
}

// FormatDiagnostic converts a workspace diagnostic into a display-ready event.
func FormatDiagnostic(presetID string, d contract.Diagnostic, at time.Time) FormattedEvent {
	if at.IsZero() {
		at = time.Now()
	}
	fe := FormattedEvent{
		PresetID:  presetID,
		EventType: string(d.Code),
		Timestamp: at,
	}
	if d.Field != "" {
		fe.Formatted = fmt.Sprintf("[%s] %s %s: %s", presetID, d.Code, d.Field, truncate(d.Message, 80))
	} else {
		fe.Formatted = fmt.Sprintf("[%s] %s: %s", presetID, d.Code, truncate(d.Message, 80))
	}
	if d.Code == contract.DiagIntegrityDrift {
		failed := false
		fe.Success = &failed
	}
	return fe
}

// FormatDurationMS converts milliseconds to seconds with one decimal.
func FormatDurationMS(ms float64) string {
	return fmt.Sprintf("%.1fs", ms/1000)
}

// FormatCount renders counts above 1000 as Xk.
func FormatCount(n float64) string {
	if n >= 1000 || n <= -1000 {
		return fmt.Sprintf("%.1fk", n/1000)
	}
	if n == float64(int64(n)) {
		return fmt.Sprintf("%d", int64(n))
	}
	return fmt.Sprintf("%.2f", n)
}

func shortHash(h string) string {
	if len(h) <= 8 {
		return h
	}
	return h[:8]
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
