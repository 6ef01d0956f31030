package storage

import (
	"database/sql"
	"encoding/json"
	"log"
	"time"

	"github.com/nixlim/presetdeck/internal/runlog"
)

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

func (s *SQLiteRecorder) writerLoop() {
	defer close(s.doneChan)

	batch := make([]runlog.RunRecord, 0, batchSize)
	flushTimer := time.NewTimer(flushInterval)
	defer flushTimer.Stop()

	for {
		select {
		case r, ok := <-s.writeChan:
			if !ok {
				if len(batch) > 0 {
					s.flushBatch(batch)
				}
				return
			}

			batch = append(batch, r)

			if len(batch) >= batchSize {
				s.flushBatch(batch)
				batch = batch[:0]
				flushTimer.Reset(flushInterval)
			}

		case <-flushTimer.C:
			if len(batch) > 0 {
				s.flushBatch(batch)
				batch = batch[:0]
			}
			flushTimer.Reset(flushInterval)
		}
	}
}

func (s *SQLiteRecorder) flushBatch(batch []runlog.RunRecord) {
	tx, err := s.db.Begin()
	if err != nil {
		log.Printf("ERROR: failed to begin transaction: %v", err)
		return
	}
	defer func() { _ = tx.Rollback() }()

	for _, r := range batch {
		if err := writeRun(tx, r); err != nil {
			log.Printf("ERROR: failed to write run %s: %v", r.RunID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		log.Printf("ERROR: failed to commit transaction: %v", err)
	}
}

// marshalJSONColumn marshals v to JSON, returning nil on failure and logging the error.
func marshalJSONColumn(name string, v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("WARNING: failed to marshal %s JSON: %v", name, err)
		return nil
	}
	return string(data)
}

func writeRun(tx *sql.Tx, r runlog.RunRecord) error {
	started := r.StartedAt.UTC()
	partial := 0
	if r.Partial {
		partial = 1
	}

	_, err := tx.Exec(`
		INSERT INTO runs (run_id, preset_id, spec_hash, mode, status, category, error,
			attempts, series_count, partial, overrides, started_at, day, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			status=excluded.status,
			category=excluded.category,
			error=excluded.error,
			attempts=excluded.attempts,
			series_count=excluded.series_count,
			partial=excluded.partial,
			duration_ms=excluded.duration_ms
	`, r.RunID, r.PresetID, r.Hash, r.Mode, string(r.Status), r.Category, r.Error,
		r.Attempts, r.SeriesCount, partial,
		marshalJSONColumn("overrides", r.Overrides),
		started.Format(timestampLayout), started.Format("2006-01-02"),
		r.Duration.Milliseconds())
	return err
}
