// Package export writes a rendered chart result and the run history to an
// XLSX workbook.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nixlim/presetdeck/internal/contract"
	"github.com/nixlim/presetdeck/internal/preset"
	"github.com/nixlim/presetdeck/internal/runlog"
	"github.com/nixlim/presetdeck/internal/visual"
)

const (
	SheetData    = "Data"
	SheetSummary = "Summary"
	SheetRuns    = "Runs"
)

// Report is everything one export contains. Hidden series are left out of
// the data sheet.
type Report struct {
	PresetID   string
	Title      string
	Hash       string
	Badges     []preset.Badge
	Model      visual.Model
	Runs       []runlog.RunRecord
	ExportedAt time.Time
}

// Write renders r as an XLSX workbook to w.
func Write(w io.Writer, r Report) error {
	f, err := build(r)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// SaveAs writes r to path, creating parent directories.
func SaveAs(path string, r Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating parent directories: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := Write(file, r); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func build(r Report) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetData); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("renaming data sheet: %w", err)
	}
	for _, name := range []string{SheetSummary, SheetRuns} {
		if _, err := f.NewSheet(name); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("adding %s sheet: %w", name, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("creating header style: %w", err)
	}

	steps := []func(*excelize.File, Report, int) error{writeData, writeSummary, writeRuns}
	for _, step := range steps {
		if err := step(f, r, header); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return f, nil
}

func visibleSeries(m visual.Model) []visual.SeriesView {
	var out []visual.SeriesView
	for _, s := range m.Series {
		if s.Visible {
			out = append(out, s)
		}
	}
	return out
}

// writeData lays out one row per x key with one column per visible series.
// Matrix results get a leading group column.
func writeData(f *excelize.File, r Report, header int) error {
	series := visibleSeries(r.Model)
	matrix := r.Model.ChartType == contract.ChartHeatmap || r.Model.X.Type == contract.XMatrix

	xTitle := r.Model.X.ID
	if xTitle == "" {
		xTitle = "x"
	}
	head := []any{xTitle}
	if matrix {
		head = []any{"group", xTitle}
	}
	for _, s := range series {
		head = append(head, s.Label)
	}
	if err := f.SetSheetRow(SheetData, "A1", &head); err != nil {
		return fmt.Errorf("writing data header: %w", err)
	}
	if err := styleRow(f, SheetData, 1, len(head), header); err != nil {
		return err
	}
	for i, s := range series {
		col := i + 2
		if matrix {
			col++
		}
		if err := colorCell(f, SheetData, col, 1, s.Color); err != nil {
			return err
		}
	}

	type rowKey struct{ group, x string }
	var keys []rowKey
	values := make(map[rowKey][]any)
	for i, s := range series {
		for _, p := range s.Data {
			k := rowKey{x: p.X}
			if matrix {
				k.group = p.Group
			}
			row, ok := values[k]
			if !ok {
				row = make([]any, len(series))
				for j := range row {
					row[j] = ""
				}
				keys = append(keys, k)
			}
			if v, ok := p.Number(); ok {
				row[i] = v
			}
			values[k] = row
		}
	}

	for n, k := range keys {
		line := []any{k.x}
		if matrix {
			line = []any{k.group, k.x}
		}
		line = append(line, values[k]...)
		cell, err := excelize.CoordinatesToCellName(1, n+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetData, cell, &line); err != nil {
			return fmt.Errorf("writing data row %d: %w", n+2, err)
		}
	}
	return nil
}

func writeSummary(f *excelize.File, r Report, header int) error {
	exported := r.ExportedAt
	if exported.IsZero() {
		exported = time.Now()
	}
	rows := [][]any{
		{"Preset", r.PresetID},
		{"Title", r.Title},
		{"Spec hash", r.Hash},
		{"Chart type", string(r.Model.ChartType)},
		{"Exported at", exported.UTC().Format(time.RFC3339)},
	}
	for _, b := range r.Badges {
		rows = append(rows, []any{b.Label, b.Value})
	}
	if r.Model.Meta.Partial {
		rows = append(rows, []any{"Data", "partial"})
	}

	rows = append(rows, []any{}, []any{"Series", "Unit", "Axis", "Total", "Latest", "Peak"})
	headerRow := len(rows)
	for _, s := range r.Model.Series {
		axis := ""
		if s.Axis >= 0 && s.Axis < len(r.Model.Axes) {
			axis = r.Model.Axes[s.Axis].Label
		}
		line := []any{s.Label, string(s.Unit), axis, "", "", ""}
		if s.Summary != nil {
			line[3], line[4], line[5] = num(s.Summary.Total), num(s.Summary.Latest), num(s.Summary.Peak)
		}
		rows = append(rows, line)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetSummary, cell, &row); err != nil {
			return fmt.Errorf("writing summary row %d: %w", i+1, err)
		}
	}
	if err := styleRow(f, SheetSummary, headerRow, 6, header); err != nil {
		return err
	}
	return f.SetColWidth(SheetSummary, "A", "A", 18)
}

func writeRuns(f *excelize.File, r Report, header int) error {
	head := []any{"Run", "Preset", "Status", "Category", "Attempts", "Series", "Partial", "Started", "Duration (ms)", "Error"}
	if err := f.SetSheetRow(SheetRuns, "A1", &head); err != nil {
		return fmt.Errorf("writing runs header: %w", err)
	}
	if err := styleRow(f, SheetRuns, 1, len(head), header); err != nil {
		return err
	}
	for i, run := range r.Runs {
		line := []any{
			run.RunID,
			run.PresetID,
			string(run.Status),
			run.Category,
			run.Attempts,
			run.SeriesCount,
			run.Partial,
			run.StartedAt.UTC().Format(time.RFC3339),
			run.Duration.Milliseconds(),
			run.Error,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetRuns, cell, &line); err != nil {
			return fmt.Errorf("writing run row %d: %w", i+2, err)
		}
	}
	return nil
}

func styleRow(f *excelize.File, sheet string, row, cols, style int) error {
	if cols < 1 {
		return nil
	}
	first, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(cols, row)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, first, last, style); err != nil {
		return fmt.Errorf("styling %s row %d: %w", sheet, row, err)
	}
	return nil
}

// colorCell gives a series header the series color as a bottom border.
func colorCell(f *excelize.File, sheet string, col, row int, color string) error {
	color = strings.TrimPrefix(color, "#")
	if color == "" {
		return nil
	}
	style, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Border: []excelize.Border{{Type: "bottom", Color: color, Style: 5}},
	})
	if err != nil {
		return fmt.Errorf("creating series style: %w", err)
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, cell, cell, style)
}

func num(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}
