package storage

import (
	"log"
	"time"

	"github.com/nixlim/presetdeck/internal/runlog"
)

// QueryDailyRuns combines rolled-up days with live rows for the last days
// calendar days, newest first.
func (s *SQLiteRecorder) QueryDailyRuns(days int) []runlog.DailySummary {
	if days <= 0 {
		days = 7
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -(days - 1)).Format("2006-01-02")

	rows, err := s.db.Query(`
		SELECT date, SUM(runs), SUM(succeeded), SUM(failed), SUM(cancelled), SUM(partial), SUM(total_ms)
		FROM (
			SELECT date, runs, succeeded, failed, cancelled, partial, total_ms
			FROM daily_runs
			WHERE date >= ?

			UNION ALL

			SELECT
				day AS date,
				COUNT(*) AS runs,
				COUNT(CASE WHEN status = 'ready' THEN 1 END) AS succeeded,
				COUNT(CASE WHEN status = 'error' THEN 1 END) AS failed,
				COUNT(CASE WHEN status = 'cancelled' THEN 1 END) AS cancelled,
				COUNT(CASE WHEN partial = 1 THEN 1 END) AS partial,
				COALESCE(SUM(duration_ms), 0) AS total_ms
			FROM runs
			WHERE day >= ?
			GROUP BY day
		)
		GROUP BY date
		ORDER BY date DESC
	`, cutoff, cutoff)
	if err != nil {
		log.Printf("ERROR: querying daily runs: %v", err)
		return nil
	}
	defer func() { _ = rows.Close() }()

	var summaries []runlog.DailySummary
	for rows.Next() {
		var ds runlog.DailySummary
		var totalMS int64
		if err := rows.Scan(&ds.Date, &ds.Runs, &ds.Succeeded, &ds.Failed,
			&ds.Cancelled, &ds.Partial, &totalMS); err != nil {
			log.Printf("ERROR: scanning daily run row: %v", err)
			continue
		}
		if ds.Runs > 0 {
			ds.AvgMillis = float64(totalMS) / float64(ds.Runs)
		}
		summaries = append(summaries, ds)
	}
	if err := rows.Err(); err != nil {
		log.Printf("ERROR: iterating daily run rows: %v", err)
	}
	return summaries
}
