package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nixlim/presetdeck/internal/config"
	"github.com/nixlim/presetdeck/internal/contract"
	"github.com/nixlim/presetdeck/internal/events"
	"github.com/nixlim/presetdeck/internal/export"
	"github.com/nixlim/presetdeck/internal/preset"
	"github.com/nixlim/presetdeck/internal/runlog"
	"github.com/nixlim/presetdeck/internal/transport"
	"github.com/nixlim/presetdeck/internal/visual"
	"github.com/nixlim/presetdeck/internal/workspace"
)

type ViewState int

const (
	ViewWorkspace ViewState = iota
	ViewHistory
)

type PanelFocus int

const (
	FocusPresets PanelFocus = iota
	FocusEvents
)

const exportRunLimit = 100

type tickMsg time.Time

// Workspace is the part of *workspace.Workspace the terminal drives.
type Workspace interface {
	Snapshot() workspace.State
	Catalogue() *preset.Catalogue
	SelectPreset(ctx context.Context, id string) (string, error)
	UpdateOverrides(ctx context.Context, patch workspace.OverridePatch) ([]contract.Diagnostic, error)
	ResetOverrides(ctx context.Context) (string, error)
	SetMode(ctx context.Context, m transport.Mode) (string, error)
	Run(ctx context.Context) (string, error)
	Cancel()
}

type EventProvider interface {
	Select(q events.Query) []events.FormattedEvent
}

// DropCounter is implemented by recorders that can lose writes under load.
type DropCounter interface {
	DroppedWrites() int64
}

type Model struct {
	view     ViewState
	width    int
	height   int
	keys     KeyMap
	quitting bool

	cfg config.Config
	ctx context.Context

	ws      Workspace
	events  EventProvider
	history runlog.Recorder

	snap         workspace.State
	presetCursor int

	series      *visual.SeriesManager
	seriesRunID string
	palette     *visual.PaletteManager

	statusMessage string

	eventScrollPos int
	autoScroll     bool
	panelFocus     PanelFocus
	eventCursor    int
	eventsByPreset bool

	detailOverlay   bool
	detailContent   string
	detailTitle     string
	detailScrollPos int

	isPersistent bool

	historyGranularity string
	historyScrollPos   int

	exportDir   string
	refreshRate time.Duration

	onShutdown func()
}

func NewModel(cfg config.Config, ws Workspace, opts ...ModelOption) Model {
	m := Model{
		view:               ViewWorkspace,
		keys:               DefaultKeyMap(),
		cfg:                cfg,
		ctx:                context.Background(),
		ws:                 ws,
		palette:            visual.NewPaletteManager(),
		autoScroll:         true,
		historyGranularity: "daily",
		exportDir:          ".",
		refreshRate:        time.Duration(cfg.Display.RefreshRateMS) * time.Millisecond,
	}
	if m.refreshRate <= 0 {
		m.refreshRate = 500 * time.Millisecond
	}

	for _, opt := range opts {
		opt(&m)
	}

	m.refresh()
	if m.snap.PresetID != "" {
		for i, id := range m.presetIDs() {
			if id == m.snap.PresetID {
				m.presetCursor = i
			}
		}
	}
	return m
}

type ModelOption func(*Model)

func WithEventProvider(e EventProvider) ModelOption {
	return func(m *Model) { m.events = e }
}

func WithHistory(r runlog.Recorder) ModelOption {
	return func(m *Model) { m.history = r }
}

// WithContext sets the parent context for runs started from the terminal.
func WithContext(ctx context.Context) ModelOption {
	return func(m *Model) { m.ctx = ctx }
}

func WithExportDir(dir string) ModelOption {
	return func(m *Model) { m.exportDir = dir }
}

func WithStartView(v ViewState) ModelOption {
	return func(m *Model) { m.view = v }
}

func WithOnShutdown(fn func()) ModelOption {
	return func(m *Model) { m.onShutdown = fn }
}

func WithPersistenceFlag(isPersistent bool) ModelOption {
	return func(m *Model) { m.isPersistent = isPersistent }
}

func (m Model) Init() tea.Cmd {
	return m.tickCmd()
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		m.refresh()
		return m, m.tickCmd()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// refresh pulls a fresh workspace snapshot. A new successful run gets a new
// series manager with everything visible.
func (m *Model) refresh() {
	if m.ws == nil {
		return
	}
	m.snap = m.ws.Snapshot()
	if m.snap.Result == nil {
		m.series = nil
		m.seriesRunID = ""
		return
	}
	if m.snap.Status == workspace.StatusReady && m.snap.RunID != m.seriesRunID {
		m.series = visual.NewSeriesManager(visual.SeriesIDs(*m.snap.Result))
		m.seriesRunID = m.snap.RunID
	}
	if m.series == nil {
		m.series = visual.NewSeriesManager(visual.SeriesIDs(*m.snap.Result))
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.detailOverlay {
		return m.handleDetailOverlayKey(msg)
	}

	if key.Matches(msg, m.keys.Quit) {
		m.quitting = true
		if m.onShutdown != nil {
			m.onShutdown()
		}
		return m, tea.Quit
	}

	switch m.view {
	case ViewWorkspace:
		return m.handleWorkspaceKey(msg)
	case ViewHistory:
		return m.handleHistoryKey(msg)
	}

	return m, nil
}

func (m Model) handleWorkspaceKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Tab):
		m.panelFocus = FocusPresets
		m.view = ViewHistory
		return m, nil

	case key.Matches(msg, m.keys.FocusEvts):
		if m.panelFocus != FocusEvents {
			m.panelFocus = FocusEvents
			m.autoScroll = false
			if evts := m.getEvents(); len(evts) > 0 {
				m.eventCursor = len(evts) - 1
			}
		}
		return m, nil
	}

	if m.panelFocus == FocusEvents {
		return m.handleEventsPanelKey(msg)
	}
	return m.handlePresetsPanelKey(msg)
}

func (m Model) handlePresetsPanelKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.presetCursor > 0 {
			m.presetCursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.presetCursor < len(m.presetIDs())-1 {
			m.presetCursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Enter):
		ids := m.presetIDs()
		if m.presetCursor >= 0 && m.presetCursor < len(ids) {
			_, err := m.ws.SelectPreset(m.ctx, ids[m.presetCursor])
			m.report(err, "")
		}
		return m, nil

	case key.Matches(msg, m.keys.Rerun):
		_, err := m.ws.Run(m.ctx)
		m.report(err, "")
		return m, nil

	case key.Matches(msg, m.keys.Cancel):
		if m.snap.Loading() {
			m.ws.Cancel()
			m.statusMessage = "Cancelling run"
		}
		return m, nil

	case key.Matches(msg, m.keys.Reset):
		_, err := m.ws.ResetOverrides(m.ctx)
		m.report(err, "Overrides reset")
		return m, nil

	case key.Matches(msg, m.keys.TimeRange):
		return m.applyPatch(m.nextTimeRange())

	case key.Matches(msg, m.keys.Split):
		return m.applyPatch(m.toggleSplit())

	case key.Matches(msg, m.keys.Measure):
		return m.applyPatch(m.nextMeasure())

	case key.Matches(msg, m.keys.Mode):
		next := transport.ModeLive
		if m.snap.Mode == transport.ModeLive {
			next = transport.ModeFixture
		}
		_, err := m.ws.SetMode(m.ctx, next)
		m.report(err, "Mode: "+string(next))
		return m, nil

	case key.Matches(msg, m.keys.ShowAll):
		if m.series != nil {
			m.series.ShowAll()
		}
		return m, nil

	case key.Matches(msg, m.keys.Export):
		m.statusMessage = m.exportCurrent()
		return m, nil

	case key.Matches(msg, m.keys.Filter):
		m.eventsByPreset = !m.eventsByPreset
		m.eventScrollPos = 0
		m.autoScroll = true
		return m, nil

	case key.Matches(msg, m.keys.ScrollDown):
		m.autoScroll = false
		m.eventScrollPos++
		return m, nil

	case key.Matches(msg, m.keys.ScrollUp):
		m.autoScroll = false
		if m.eventScrollPos > 0 {
			m.eventScrollPos--
		}
		return m, nil
	}

	if msg.Type == tea.KeyRunes && len(msg.Runes) == 1 {
		r := msg.Runes[0]
		if r >= '1' && r <= '9' {
			m.toggleSeries(int(r - '1'))
		}
	}
	return m, nil
}

func (m Model) applyPatch(patch workspace.OverridePatch) (tea.Model, tea.Cmd) {
	if len(patch) == 0 {
		m.statusMessage = "Not adjustable for this preset"
		return m, nil
	}
	diags, err := m.ws.UpdateOverrides(m.ctx, patch)
	if err == nil && len(diags) > 0 {
		m.statusMessage = diags[0].Message
		return m, nil
	}
	m.report(err, "")
	return m, nil
}

func (m *Model) report(err error, ok string) {
	if err != nil {
		m.statusMessage = "Error: " + err.Error()
		return
	}
	m.statusMessage = ok
	m.refresh()
}

func (m *Model) toggleSeries(idx int) {
	if m.series == nil {
		return
	}
	ids := m.series.IDs()
	if idx < 0 || idx >= len(ids) {
		return
	}
	m.series.Toggle(ids[idx])
}

func (m Model) nextTimeRange() workspace.OverridePatch {
	p := m.snap.Preset
	if p == nil || !m.snap.Allows(workspace.FieldTimeRange) {
		return nil
	}
	opts := p.Overrides.TimeRange.Options
	ids := make([]string, len(opts))
	for i, o := range opts {
		ids[i] = o.ID
	}
	return workspace.OverridePatch{workspace.FieldTimeRange: cycle(ids, m.snap.Overrides.TimeRangeID)}
}

func (m Model) nextMeasure() workspace.OverridePatch {
	p := m.snap.Preset
	if p == nil || !m.snap.Allows(workspace.FieldMeasure) {
		return nil
	}
	opts := p.Overrides.Measure.Options
	ids := make([]string, len(opts))
	for i, o := range opts {
		ids[i] = o.ID
	}
	return workspace.OverridePatch{workspace.FieldMeasure: cycle(ids, m.snap.Overrides.MeasureOptionID)}
}

func (m Model) toggleSplit() workspace.OverridePatch {
	p := m.snap.Preset
	if p == nil || !m.snap.Allows(workspace.FieldSplit) {
		return nil
	}
	return workspace.OverridePatch{workspace.FieldSplit: !preset.SplitEnabled(*p, m.snap.Overrides)}
}

// cycle returns the id after current, wrapping. An unknown current yields
// the first id.
func cycle(ids []string, current string) string {
	for i, id := range ids {
		if id == current {
			return ids[(i+1)%len(ids)]
		}
	}
	return ids[0]
}

func (m Model) exportCurrent() string {
	if m.snap.Result == nil {
		return "Nothing to export yet"
	}
	report := export.Report{
		PresetID:   m.snap.PresetID,
		Hash:       m.snap.Hash,
		Badges:     m.snap.Badges,
		Model:      m.chartModel(),
		ExportedAt: time.Now(),
	}
	if m.snap.Preset != nil {
		report.Title = m.snap.Preset.Title
	}
	if m.history != nil {
		report.Runs = m.history.Recent(exportRunLimit)
	}

	name := fmt.Sprintf("%s-%s.xlsx", m.snap.PresetID, report.ExportedAt.Format("20060102-150405"))
	path := filepath.Join(m.exportDir, name)
	if err := export.SaveAs(path, report); err != nil {
		return "Export failed: " + err.Error()
	}
	return "Exported " + path
}

func (m Model) chartModel() visual.Model {
	if m.snap.Result == nil {
		return visual.Model{}
	}
	return visual.BuildModel(*m.snap.Result, m.series, m.palette)
}

func (m Model) handleEventsPanelKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	evts := m.getEvents()

	switch {
	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.ScrollUp):
		if m.eventCursor > 0 {
			m.eventCursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down), key.Matches(msg, m.keys.ScrollDown):
		if m.eventCursor < len(evts)-1 {
			m.eventCursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Enter):
		if m.eventCursor >= 0 && m.eventCursor < len(evts) {
			m.detailOverlay = true
			m.detailTitle = "Event Detail"
			m.detailContent = formatEventDetail(evts[m.eventCursor])
			m.detailScrollPos = 0
		}
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		m.panelFocus = FocusPresets
		m.autoScroll = true
		return m, nil
	}

	return m, nil
}

func (m Model) handleDetailOverlayKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Enter):
		m.detailOverlay = false
		m.detailContent = ""
		m.detailTitle = ""
		m.detailScrollPos = 0
		return m, nil

	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.ScrollUp):
		if m.detailScrollPos > 0 {
			m.detailScrollPos--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down), key.Matches(msg, m.keys.ScrollDown):
		m.detailScrollPos++
		return m, nil
	}

	return m, nil
}

func formatEventDetail(e events.FormattedEvent) string {
	var lines []string
	lines = append(lines, "Type:      "+e.EventType)
	lines = append(lines, "Preset:    "+e.PresetID)
	if e.RunID != "" {
		lines = append(lines, "Run:       "+e.RunID)
	}
	lines = append(lines, "Timestamp: "+e.Timestamp.Format("2006-01-02 15:04:05"))
	if e.Success != nil {
		if *e.Success {
			lines = append(lines, "Status:    success")
		} else {
			lines = append(lines, "Status:    failure")
		}
	}
	lines = append(lines, "")
	lines = append(lines, "Content:")
	lines = append(lines, e.Formatted)
	return strings.Join(lines, "\n")
}

func (m Model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Tab):
		m.view = ViewWorkspace
		return m, nil
	case key.Matches(msg, m.keys.Up):
		if m.historyScrollPos > 0 {
			m.historyScrollPos--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.historyScrollPos++
		return m, nil
	}

	if msg.Type == tea.KeyRunes && len(msg.Runes) == 1 {
		switch msg.Runes[0] {
		case 'd':
			m.historyGranularity = "daily"
			m.historyScrollPos = 0
		case 'w':
			m.historyGranularity = "weekly"
			m.historyScrollPos = 0
		case 'm':
			m.historyGranularity = "monthly"
			m.historyScrollPos = 0
		}
	}

	return m, nil
}

func (m Model) presetIDs() []string {
	if m.ws == nil || m.ws.Catalogue() == nil {
		return nil
	}
	return m.ws.Catalogue().IDs()
}

func (m Model) headerIndicators() string {
	var parts []string
	if !m.isPersistent {
		parts = append(parts, "[No persistence]")
	}
	if dc, ok := m.history.(DropCounter); ok && dc.DroppedWrites() > 0 {
		parts = append(parts, "[!] Writes dropped")
	}
	if len(parts) == 0 {
		return ""
	}
	return " " + dimStyle.Render(strings.Join(parts, " "))
}

func (m Model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var output string
	switch m.view {
	case ViewWorkspace:
		output = m.renderWorkspace()
	case ViewHistory:
		output = m.renderHistory()
	}

	if m.height > 0 {
		lines := strings.Split(output, "\n")
		if len(lines) > m.height {
			lines = lines[:m.height]
			output = strings.Join(lines, "\n")
		}
	}

	return output
}
