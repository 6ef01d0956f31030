package validate

import (
	"fmt"
	"math"
	"strings"

	"github.com/nixlim/presetdeck/internal/contract"
)

type Code string

const (
	CodeEmptySeries       Code = "empty_series"
	CodeUnsupportedUnit   Code = "unsupported_unit"
	CodeMissingX          Code = "missing_x"
	CodeCoverageRange     Code = "coverage_range"
	CodeNonFinite         Code = "non_finite"
	CodeDuplicateX        Code = "duplicate_x"
	CodeXSequenceMismatch Code = "x_sequence_mismatch"
	CodeHeatmapGridGap    Code = "heatmap_grid_gap"
	CodeDuplicateCell     Code = "duplicate_cell"
)

// Issue is a single contract violation. Index is the point index within the
// series, or -1 when the issue concerns the series or the result as a whole.
type Issue struct {
	Code     Code   `json:"code"`
	SeriesID string `json:"seriesId,omitempty"`
	Index    int    `json:"index"`
	X        string `json:"x,omitempty"`
	Message  string `json:"message"`
}

func (i Issue) String() string {
	if i.SeriesID == "" {
		return fmt.Sprintf("%s: %s", i.Code, i.Message)
	}
	return fmt.Sprintf("%s [%s]: %s", i.Code, i.SeriesID, i.Message)
}

// Validate checks a result against the contract invariants and returns the
// issues found, in check order. An empty slice means the result is valid.
func Validate(r contract.ChartResult) []Issue {
	if len(r.Series) == 0 {
		return []Issue{{
			Code:    CodeEmptySeries,
			Index:   -1,
			Message: "result has no series",
		}}
	}

	var issues []Issue
	for _, s := range r.Series {
		if issue, bad := checkUnit(s); bad {
			issues = append(issues, issue)
		}
	}
	for _, s := range r.Series {
		issues = append(issues, checkPoints(s)...)
	}

	if r.IsMatrix() {
		issues = append(issues, checkGrid(r.Series)...)
	} else {
		issues = append(issues, checkAlignment(r.Series)...)
	}
	return issues
}

func checkUnit(s contract.Series) (Issue, bool) {
	if s.Unit.Supported() {
		return Issue{}, false
	}
	return Issue{
		Code:     CodeUnsupportedUnit,
		SeriesID: s.ID,
		Index:    -1,
		Message:  fmt.Sprintf("unit %q is not in the supported vocabulary", s.Unit),
	}, true
}

func checkPoints(s contract.Series) []Issue {
	var issues []Issue
	for i, p := range s.Data {
		if strings.TrimSpace(p.X) == "" {
			issues = append(issues, Issue{
				Code:     CodeMissingX,
				SeriesID: s.ID,
				Index:    i,
				Message:  fmt.Sprintf("point %d has an empty x key", i),
			})
		}
		if p.Coverage != nil {
			c := *p.Coverage
			if math.IsNaN(c) || c < 0 || c > 1 {
				issues = append(issues, Issue{
					Code:     CodeCoverageRange,
					SeriesID: s.ID,
					Index:    i,
					X:        p.X,
					Message:  fmt.Sprintf("coverage %v at %q is outside [0,1]", c, p.X),
				})
			}
		}
		for _, f := range []struct {
			name string
			v    *float64
		}{
			{"y", p.Y},
			{"value", p.Value},
			{"comparison", p.Comparison},
			{"target", p.Target},
		} {
			if f.v == nil {
				continue
			}
			if math.IsNaN(*f.v) || math.IsInf(*f.v, 0) {
				issues = append(issues, Issue{
					Code:     CodeNonFinite,
					SeriesID: s.ID,
					Index:    i,
					X:        p.X,
					Message:  fmt.Sprintf("%s at %q is not a finite number", f.name, p.X),
				})
			}
		}
	}
	return issues
}

// checkAlignment requires every series to carry the first series' x keys, in
// the same order, with no duplicates.
func checkAlignment(series []contract.Series) []Issue {
	var issues []Issue
	for _, s := range series {
		seen := make(map[string]bool, len(s.Data))
		for i, p := range s.Data {
			if p.X == "" {
				continue
			}
			if seen[p.X] {
				issues = append(issues, Issue{
					Code:     CodeDuplicateX,
					SeriesID: s.ID,
					Index:    i,
					X:        p.X,
					Message:  fmt.Sprintf("x key %q appears more than once", p.X),
				})
			}
			seen[p.X] = true
		}
	}

	ref := series[0]
	for _, s := range series[1:] {
		if len(s.Data) != len(ref.Data) {
			issues = append(issues, Issue{
				Code:     CodeXSequenceMismatch,
				SeriesID: s.ID,
				Index:    -1,
				Message: fmt.Sprintf("series has %d points, %q has %d",
					len(s.Data), ref.ID, len(ref.Data)),
			})
			continue
		}
		for i := range s.Data {
			if s.Data[i].X != ref.Data[i].X {
				issues = append(issues, Issue{
					Code:     CodeXSequenceMismatch,
					SeriesID: s.ID,
					Index:    i,
					X:        s.Data[i].X,
					Message: fmt.Sprintf("x key %q at position %d does not match %q in %q",
						s.Data[i].X, i, ref.Data[i].X, ref.ID),
				})
				break
			}
		}
	}
	return issues
}

// checkGrid requires a dense row x column grid across all series. The row key
// is the point's group, or the series id for series without groups.
func checkGrid(series []contract.Series) []Issue {
	var (
		issues  []Issue
		rows    []string
		cols    []string
		rowSeen = make(map[string]bool)
		colSeen = make(map[string]bool)
		cells   = make(map[[2]string]bool)
		rowOf   = make(map[string]string)
	)

	for _, s := range series {
		for i, p := range s.Data {
			if p.X == "" {
				continue
			}
			row := p.Group
			if row == "" {
				row = s.ID
			}
			if !rowSeen[row] {
				rowSeen[row] = true
				rows = append(rows, row)
				rowOf[row] = s.ID
			}
			if !colSeen[p.X] {
				colSeen[p.X] = true
				cols = append(cols, p.X)
			}
			key := [2]string{row, p.X}
			if cells[key] {
				issues = append(issues, Issue{
					Code:     CodeDuplicateCell,
					SeriesID: s.ID,
					Index:    i,
					X:        p.X,
					Message:  fmt.Sprintf("cell (%s, %s) appears more than once", row, p.X),
				})
				continue
			}
			cells[key] = true
		}
	}

	for _, row := range rows {
		for _, col := range cols {
			if cells[[2]string{row, col}] {
				continue
			}
			issues = append(issues, Issue{
				Code:     CodeHeatmapGridGap,
				SeriesID: rowOf[row],
				Index:    -1,
				X:        col,
				Message:  fmt.Sprintf("row %q has no cell for column %q", row, col),
			})
		}
	}
	return issues
}

// Summarize renders issues as a single message, capping the list at limit
// entries. A limit of zero or less lists everything.
func Summarize(issues []Issue, limit int) string {
	if len(issues) == 0 {
		return ""
	}
	n := len(issues)
	if limit > 0 && n > limit {
		n = limit
	}
	parts := make([]string, 0, n+1)
	for _, is := range issues[:n] {
		parts = append(parts, is.String())
	}
	if n < len(issues) {
		parts = append(parts, fmt.Sprintf("and %d more", len(issues)-n))
	}
	return strings.Join(parts, "; ")
}

// Count returns how many issues carry the given code.
func Count(issues []Issue, code Code) int {
	n := 0
	for _, is := range issues {
		if is.Code == code {
			n++
		}
	}
	return n
}
