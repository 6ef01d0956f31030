package storage

import (
	"context"
	"fmt"
	"log"
	"time"
)

const (
	maintenanceInterval = 1 * time.Hour
	vacuumInterval      = 7 * 24 * time.Hour
)

func (s *SQLiteRecorder) startMaintenance(ctx context.Context, retentionDays int) {
	go s.maintenanceLoop(ctx, retentionDays)
}

func (s *SQLiteRecorder) maintenanceLoop(ctx context.Context, retentionDays int) {
	defer close(s.maintenanceDone)

	lastVacuum := time.Now()
	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.runMaintenanceCycle(retentionDays); err != nil {
				log.Printf("ERROR: maintenance cycle failed: %v", err)
			}

			if time.Since(lastVacuum) >= vacuumInterval {
				if _, err := s.db.Exec("VACUUM"); err != nil {
					log.Printf("ERROR: VACUUM failed: %v", err)
				} else {
					lastVacuum = time.Now()
				}
			}
		}
	}
}

// runMaintenanceCycle rolls runs older than retentionDays up into daily_runs
// and deletes the raw rows.
func (s *SQLiteRecorder) runMaintenanceCycle(retentionDays int) error {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).Format("2006-01-02")

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`
		INSERT INTO daily_runs (date, runs, succeeded, failed, cancelled, partial, total_ms)
		SELECT
			day,
			COUNT(*),
			COUNT(CASE WHEN status = 'ready' THEN 1 END),
			COUNT(CASE WHEN status = 'error' THEN 1 END),
			COUNT(CASE WHEN status = 'cancelled' THEN 1 END),
			COUNT(CASE WHEN partial = 1 THEN 1 END),
			COALESCE(SUM(duration_ms), 0)
		FROM runs
		WHERE day < ?
		GROUP BY day
		ON CONFLICT(date) DO UPDATE SET
			runs = daily_runs.runs + excluded.runs,
			succeeded = daily_runs.succeeded + excluded.succeeded,
			failed = daily_runs.failed + excluded.failed,
			cancelled = daily_runs.cancelled + excluded.cancelled,
			partial = daily_runs.partial + excluded.partial,
			total_ms = daily_runs.total_ms + excluded.total_ms
	`, cutoff)
	if err != nil {
		return fmt.Errorf("aggregating old runs: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM runs WHERE day < ?", cutoff); err != nil {
		return fmt.Errorf("pruning old runs: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing maintenance: %w", err)
	}
	return nil
}
