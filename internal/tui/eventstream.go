package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nixlim/presetdeck/internal/contract"
	"github.com/nixlim/presetdeck/internal/events"
)

// eventTypeIcons maps event types to their display icons.
var eventTypeIcons = map[string]string{
	events.TypeRunReady:                  "OK",
	events.TypeRunError:                  "!!",
	events.TypeRunCancelled:              "--",
	string(contract.DiagPartialData):     "~~",
	string(contract.DiagOverrideDropped): "OD",
	string(contract.DiagIntegrityDrift):  "ID",
}

var eventTypeStyles = map[string]lipgloss.Style{
	events.TypeRunReady:                  lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
	events.TypeRunError:                  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	events.TypeRunCancelled:              lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	string(contract.DiagPartialData):     lipgloss.NewStyle().Foreground(lipgloss.Color("222")),
	string(contract.DiagOverrideDropped): lipgloss.NewStyle().Foreground(lipgloss.Color("183")),
	string(contract.DiagIntegrityDrift):  lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
}

func (m Model) renderEventStreamPanel(w, h int) string {
	contentW := w - 4
	if contentW < 10 {
		contentW = 10
	}
	contentH := h - 2
	if contentH < 1 {
		contentH = 1
	}

	style := panelBorderStyle
	if m.panelFocus == FocusEvents {
		style = focusedBorderStyle
	}

	title := "Events"
	if m.eventsByPreset && m.snap.PresetID != "" {
		title += " · " + m.snap.PresetID
	}
	lines := []string{panelTitleStyle.Render(title)}

	evts := m.getEvents()
	if len(evts) == 0 {
		lines = append(lines, dimStyle.Render("No runs yet"))
		return renderBorderedPanelStyled(strings.Join(lines, "\n"), w, h, style)
	}

	visibleLines := contentH - 1
	if len(evts) > visibleLines {
		visibleLines-- // scroll indicator
	}
	if visibleLines < 1 {
		visibleLines = 1
	}

	var startIdx int
	switch {
	case m.panelFocus == FocusEvents:
		startIdx = m.eventCursor - visibleLines + 1
	case m.autoScroll:
		startIdx = len(evts) - visibleLines
	default:
		startIdx = m.eventScrollPos
	}
	if startIdx > len(evts)-visibleLines {
		startIdx = len(evts) - visibleLines
	}
	if startIdx < 0 {
		startIdx = 0
	}
	endIdx := startIdx + visibleLines
	if endIdx > len(evts) {
		endIdx = len(evts)
	}

	for i := startIdx; i < endIdx; i++ {
		line := renderEventLine(evts[i], contentW)
		if m.panelFocus == FocusEvents && i == m.eventCursor {
			line = selectedStyle.Render(stripAnsi(line))
		}
		lines = append(lines, line)
	}

	if len(evts) > visibleLines {
		pos := formatScrollPos(startIdx+1, endIdx, len(evts))
		pad := contentW - len(pos)
		if pad < 0 {
			pad = 0
		}
		lines = append(lines, dimStyle.Render(strings.Repeat(" ", pad)+pos))
	}

	return renderBorderedPanelStyled(strings.Join(lines, "\n"), w, h, style)
}

func (m Model) getEvents() []events.FormattedEvent {
	if m.events == nil {
		return nil
	}
	q := events.Query{Limit: m.cfg.Display.EventBufferSize}
	if m.eventsByPreset {
		q.PresetID = m.snap.PresetID
	}
	return m.events.Select(q)
}

func renderEventLine(e events.FormattedEvent, maxW int) string {
	icon := eventTypeIcons[e.EventType]
	if icon == "" {
		icon = "??"
	}

	style, ok := eventTypeStyles[e.EventType]
	if !ok {
		style = dimStyle
	}

	ts := e.Timestamp.Format("15:04:05")
	formatted := e.Formatted
	maxFormatted := maxW - len(icon) - len(ts) - 2
	if len(formatted) > maxFormatted && maxFormatted > 3 {
		formatted = formatted[:maxFormatted-3] + "..."
	}

	return dimStyle.Render(ts) + " " + style.Render(icon+" "+formatted)
}

// formatScrollPos returns a string like "[10-20/100]".
func formatScrollPos(start, end, total int) string {
	return fmt.Sprintf("[%d-%d/%d]", start, end, total)
}
