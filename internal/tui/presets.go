package tui

import (
	"fmt"
	"strings"

	"github.com/nixlim/presetdeck/internal/contract"
	"github.com/nixlim/presetdeck/internal/transport"
	"github.com/nixlim/presetdeck/internal/workspace"
)

func (m Model) renderPresetPanel(w, h int) string {
	contentW := w - 4
	if contentW < 10 {
		contentW = 10
	}

	lines := []string{panelTitleStyle.Render("Presets"), ""}

	var defs []contract.PresetDefinition
	if m.ws != nil && m.ws.Catalogue() != nil {
		defs = m.ws.Catalogue().List()
	}
	if len(defs) == 0 {
		lines = append(lines, dimStyle.Render("No presets loaded"))
	}

	for i, p := range defs {
		marker := "  "
		if p.ID == m.snap.PresetID {
			marker = activeStyle.Render("● ")
		}
		title := p.Title
		if title == "" {
			title = p.ID
		}
		if len(title) > contentW-2 && contentW > 5 {
			title = title[:contentW-5] + "..."
		}
		line := marker + title
		if i == m.presetCursor && m.panelFocus == FocusPresets {
			line = marker + selectedStyle.Render(title)
		}
		lines = append(lines, line)
		if p.Category != "" {
			lines = append(lines, "  "+dimStyle.Render(p.Category))
		}
	}

	style := panelBorderStyle
	if m.panelFocus == FocusPresets {
		style = focusedBorderStyle
	}
	return renderBorderedPanelStyled(strings.Join(lines, "\n"), w, h, style)
}

// renderControlsPanel shows the run status, the badges for the resolved
// overrides and the latest error.
func (m Model) renderControlsPanel(w, h int) string {
	s := m.snap
	if s.Preset == nil {
		return renderBorderedPanel(dimStyle.Render("Select a preset with Enter"), w, h)
	}

	title := panelTitleStyle.Render(s.Preset.Title) + "  " + renderRunStatus(s)
	if s.Hash != "" {
		title += dimStyle.Render("  #" + truncateID(s.Hash, 8))
	}
	lines := []string{title}

	var badges []string
	for _, b := range s.Badges {
		badges = append(badges, badgeStyle.Render(b.String()))
	}
	for _, f := range lockedFields(s) {
		badges = append(badges, lockedBadgeStyle.Render(f+": fixed"))
	}
	if len(badges) > 0 {
		lines = append(lines, strings.Join(badges, " "))
	}

	style := panelBorderStyle
	switch {
	case s.Status == workspace.StatusError:
		style = errorBorderStyle
		lines = append(lines, errorStyle.Render(string(s.Category))+" "+s.Error)
	case s.Result != nil && s.Result.Meta.Partial:
		lines = append(lines, warningStyle.Render("Partial data: some buckets are incomplete"))
	}
	if n := countDrift(s.Diagnostics); n > 0 {
		lines = append(lines, warningStyle.Render(fmt.Sprintf("%d badge/spec mismatch(es)", n)))
	}

	return renderBorderedPanelStyled(strings.Join(lines, "\n"), w, h, style)
}

func renderRunStatus(s workspace.State) string {
	switch s.Status {
	case workspace.StatusLoading:
		return loadingStyle.Render("running")
	case workspace.StatusReady:
		return activeStyle.Render("ready")
	case workspace.StatusError:
		if s.Category == transport.CategoryNetwork {
			return errorStyle.Render("offline")
		}
		return errorStyle.Render("invalid")
	case workspace.StatusCancelled:
		return doneStyle.Render("cancelled")
	}
	return doneStyle.Render("idle")
}

// lockedFields names the override axes the active preset does not expose.
func lockedFields(s workspace.State) []string {
	var out []string
	for _, f := range []struct {
		field workspace.OverrideField
		label string
	}{
		{workspace.FieldTimeRange, "Time range"},
		{workspace.FieldSplit, "Split"},
		{workspace.FieldMeasure, "Measure"},
	} {
		if !s.Allows(f.field) {
			out = append(out, f.label)
		}
	}
	return out
}

func countDrift(diags []contract.Diagnostic) int {
	n := 0
	for _, d := range diags {
		if d.Code == contract.DiagIntegrityDrift {
			n++
		}
	}
	return n
}
