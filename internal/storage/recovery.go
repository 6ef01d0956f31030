package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nixlim/presetdeck/internal/runlog"
)

// recoverRuns seeds the in-memory history with the most recent limit runs.
func (s *SQLiteRecorder) recoverRuns(limit int) error {
	rows, err := s.db.Query(`
		SELECT run_id, preset_id, spec_hash, mode, status, category, error,
		       attempts, series_count, partial, overrides, started_at, duration_ms
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return fmt.Errorf("querying recent runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var (
		records   []runlog.RunRecord
		failCount int
	)
	for rows.Next() {
		var runID, presetID, startedAt string
		var hash, mode, status, category, errText, overrides sql.NullString
		var attempts, seriesCount, partial, durationMS sql.NullInt64

		err := rows.Scan(
			&runID, &presetID, &hash, &mode, &status, &category, &errText,
			&attempts, &seriesCount, &partial, &overrides, &startedAt, &durationMS,
		)
		if err != nil {
			failCount++
			log.Printf("ERROR: failed to scan run row: %v", err)
			continue
		}

		r := runlog.RunRecord{
			RunID:       runID,
			PresetID:    presetID,
			Hash:        hash.String,
			Mode:        mode.String,
			Status:      runlog.Status(status.String),
			Category:    category.String,
			Error:       errText.String,
			Attempts:    int(attempts.Int64),
			SeriesCount: int(seriesCount.Int64),
			Partial:     partial.Int64 == 1,
			Duration:    time.Duration(durationMS.Int64) * time.Millisecond,
		}
		if t, err := time.Parse(timestampLayout, startedAt); err == nil {
			r.StartedAt = t
		}
		if overrides.Valid && overrides.String != "" {
			if err := json.Unmarshal([]byte(overrides.String), &r.Overrides); err != nil {
				log.Printf("WARNING: run %s has unreadable overrides: %v", runID, err)
			}
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating run rows: %w", err)
	}
	if failCount > 0 {
		log.Printf("WARNING: %d run rows could not be recovered", failCount)
	}

	s.Load(records)
	return nil
}
