package tui

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type panelDimensions struct {
	presetsW, presetsH   int
	controlsW, controlsH int
	chartW, chartH       int
	eventsW, eventsH     int
	headerH, statusH     int
}

const (
	minWidth  = 40
	minHeight = 12

	headerHeight = 1
	statusHeight = 1

	controlsHeight = 6

	eventsMinHeight = 5
	eventsMaxHeight = 10
)

func computeDimensions(totalW, totalH int) panelDimensions {
	if totalW < minWidth {
		totalW = minWidth
	}
	if totalH < minHeight {
		totalH = minHeight
	}

	d := panelDimensions{
		headerH: headerHeight,
		statusH: statusHeight,
	}

	usableH := totalH - headerHeight - statusHeight
	if usableH < 6 {
		usableH = 6
	}

	d.presetsW = totalW * 28 / 100
	if d.presetsW < 20 {
		d.presetsW = 20
	}
	if d.presetsW > totalW-20 {
		d.presetsW = totalW - 20
	}
	d.presetsH = usableH

	rightW := totalW - d.presetsW
	if rightW < 20 {
		rightW = 20
	}

	d.controlsW = rightW
	d.controlsH = controlsHeight
	if d.controlsH > usableH/3 {
		d.controlsH = usableH / 3
	}
	if d.controlsH < 3 {
		d.controlsH = 3
	}

	d.eventsW = rightW
	d.eventsH = usableH * 25 / 100
	if d.eventsH < eventsMinHeight {
		d.eventsH = eventsMinHeight
	}
	if d.eventsH > eventsMaxHeight {
		d.eventsH = eventsMaxHeight
	}

	d.chartW = rightW
	d.chartH = usableH - d.controlsH - d.eventsH
	if d.chartH < 3 {
		d.chartH = 3
	}

	return d
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62"))

	panelBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240"))

	focusedBorderStyle = panelBorderStyle.
				BorderForeground(lipgloss.Color("63"))

	errorBorderStyle = panelBorderStyle.
				BorderForeground(lipgloss.Color("196"))

	panelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("69"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82"))

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226"))

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	badgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("238")).
			Padding(0, 1)

	lockedBadgeStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Background(lipgloss.Color("236")).
				Padding(0, 1)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226"))

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	detailOverlayStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("69")).
				Padding(1, 2)
)

func renderBorderedPanel(content string, w, h int) string {
	return renderBorderedPanelStyled(content, w, h, panelBorderStyle)
}

func renderBorderedPanelStyled(content string, w, h int, style lipgloss.Style) string {
	contentH := h - 2
	if contentH < 1 {
		contentH = 1
	}

	lines := strings.Split(content, "\n")
	if len(lines) > contentH {
		lines = lines[:contentH]
		content = strings.Join(lines, "\n")
	}

	return style.
		Width(w - 2).
		Height(contentH).
		Render(content)
}

var ansiRe = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripAnsi(s string) string {
	return ansiRe.ReplaceAllString(s, "")
}

func (m Model) renderWorkspace() string {
	dims := computeDimensions(m.width, m.height)

	header := m.renderHeader()

	presets := m.renderPresetPanel(dims.presetsW, dims.presetsH)
	controls := m.renderControlsPanel(dims.controlsW, dims.controlsH)
	chart := m.renderChartPanel(dims.chartW, dims.chartH)
	eventStream := m.renderEventStreamPanel(dims.eventsW, dims.eventsH)

	rightCol := lipgloss.JoinVertical(lipgloss.Left, controls, chart, eventStream)
	mainContent := lipgloss.JoinHorizontal(lipgloss.Top, presets, rightCol)

	usableH := m.height - dims.headerH - dims.statusH
	if usableH < 6 {
		usableH = 6
	}
	mcLines := strings.Split(mainContent, "\n")
	if len(mcLines) > usableH {
		mcLines = mcLines[:usableH]
		mainContent = strings.Join(mcLines, "\n")
	}

	layout := lipgloss.JoinVertical(lipgloss.Left, header, mainContent, m.renderStatusBar())

	if m.detailOverlay {
		layout = m.overlayDetail(layout)
	}

	return layout
}

func (m Model) renderHeader() string {
	title := " presetdeck"
	viewLabel := " [Workspace]"
	if m.snap.PresetID != "" {
		viewLabel += " " + m.snap.PresetID
	}
	viewLabel += " (" + string(m.snap.Mode) + ")"

	indicators := m.headerIndicators()
	help := m.headerHelp()

	padding := m.width - lipgloss.Width(title) - lipgloss.Width(viewLabel) - lipgloss.Width(indicators) - lipgloss.Width(help)
	if padding < 0 {
		padding = 0
	}

	return headerStyle.Width(m.width).Render(title + viewLabel + indicators + strings.Repeat(" ", padding) + help)
}

func (m Model) headerHelp() string {
	if m.panelFocus == FocusEvents {
		return "Enter:Detail  Esc:Back  Tab:History  q:Quit "
	}
	return "t:Range s:Split m:Measure  1-9:Series  r:Run c:Cancel  X:Export  e:Events f:Filter  q:Quit "
}

func (m Model) renderStatusBar() string {
	msg := m.statusMessage
	if msg == "" {
		msg = "Enter:Select  x:Reset  l:Fixture/Live  0:All series  Tab:History"
	}
	return statusBarStyle.Width(m.width).Render(" " + msg)
}

func truncateID(id string, maxLen int) string {
	if len(id) <= maxLen {
		return id
	}
	return id[:maxLen]
}

func (m Model) overlayDetail(base string) string {
	overlayW := m.width * 70 / 100
	if overlayW < 40 {
		overlayW = 40
	}
	if overlayW > m.width-4 {
		overlayW = m.width - 4
	}
	overlayH := m.height * 60 / 100
	if overlayH < 10 {
		overlayH = 10
	}
	if overlayH > m.height-4 {
		overlayH = m.height - 4
	}

	contentW := overlayW - 6
	if contentW < 10 {
		contentW = 10
	}
	contentH := overlayH - 4
	if contentH < 3 {
		contentH = 3
	}

	wrapped := wrapLines(strings.Split(m.detailContent, "\n"), contentW)

	startIdx := m.detailScrollPos
	if startIdx > len(wrapped)-contentH {
		startIdx = len(wrapped) - contentH
	}
	if startIdx < 0 {
		startIdx = 0
	}
	endIdx := startIdx + contentH
	if endIdx > len(wrapped) {
		endIdx = len(wrapped)
	}

	body := strings.Join(wrapped[startIdx:endIdx], "\n")

	title := panelTitleStyle.Render(m.detailTitle)
	footer := dimStyle.Render("Esc/Enter: Close")
	if len(wrapped) > contentH {
		footer += dimStyle.Render("  Up/Down: Scroll")
	}

	content := title + "\n\n" + body + "\n\n" + footer

	dialog := detailOverlayStyle.
		Width(overlayW - 2).
		Render(content)

	return placeOverlay(dialog, base)
}

// wrapLines breaks lines longer than width at the last space before it.
func wrapLines(lines []string, width int) []string {
	var wrapped []string
	for _, line := range lines {
		if len(line) <= width {
			wrapped = append(wrapped, line)
			continue
		}
		for len(line) > width {
			cutAt := width
			for i := width; i > 0; i-- {
				if line[i] == ' ' {
					cutAt = i
					break
				}
			}
			wrapped = append(wrapped, line[:cutAt])
			line = strings.TrimPrefix(line[cutAt:], " ")
		}
		if line != "" {
			wrapped = append(wrapped, line)
		}
	}
	return wrapped
}

func placeOverlay(fg, bg string) string {
	return lipgloss.Place(
		lipgloss.Width(bg),
		lipgloss.Height(bg),
		lipgloss.Center,
		lipgloss.Center,
		fg,
		lipgloss.WithWhitespaceChars(" "),
	)
}
