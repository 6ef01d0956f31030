package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/nixlim/presetdeck/internal/runlog"
)

const (
	writeChannelSize = 256
	batchSize        = 50
	flushInterval    = 100 * time.Millisecond
	recoverLimit     = 500
)

// SQLiteRecorder keeps the in-memory run history for reads and mirrors every
// recorded run into SQLite through a buffered writer goroutine.
type SQLiteRecorder struct {
	*runlog.MemoryRecorder
	db              *sql.DB
	writeChan       chan runlog.RunRecord
	droppedWrites   atomic.Int64
	doneChan        chan struct{}
	closed          atomic.Bool
	cancelMaint     context.CancelFunc
	maintenanceDone chan struct{}
}

func NewSQLiteRecorder(dbPath string, retentionDays int) (*SQLiteRecorder, error) {
	return newSQLiteRecorderWithChannelSize(dbPath, writeChannelSize, retentionDays)
}

func newSQLiteRecorderWithChannelSize(dbPath string, chanSize int, retentionDays int) (*SQLiteRecorder, error) {
	db, err := OpenDB(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	rec := &SQLiteRecorder{
		MemoryRecorder:  runlog.NewMemoryRecorder(recoverLimit),
		db:              db,
		writeChan:       make(chan runlog.RunRecord, chanSize),
		doneChan:        make(chan struct{}),
		cancelMaint:     cancel,
		maintenanceDone: make(chan struct{}),
	}

	if err := rec.recoverRuns(recoverLimit); err != nil {
		cancel()
		_ = db.Close()
		return nil, fmt.Errorf("recovering runs: %w", err)
	}

	go rec.writerLoop()
	rec.startMaintenance(ctx, retentionDays)

	return rec, nil
}

func (s *SQLiteRecorder) RecordRun(r runlog.RunRecord) {
	if r.RunID == "" {
		s.MemoryRecorder.RecordRun(r)
		return
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}
	s.MemoryRecorder.RecordRun(r)
	s.sendWrite(r)
}

// DailySummaries reads from the database so that rolled-up days older than
// the in-memory window are included.
func (s *SQLiteRecorder) DailySummaries(days int) []runlog.DailySummary {
	if s.closed.Load() {
		return s.MemoryRecorder.DailySummaries(days)
	}
	return s.QueryDailyRuns(days)
}

func (s *SQLiteRecorder) sendWrite(r runlog.RunRecord) {
	if s.closed.Load() {
		return
	}
	defer func() { _ = recover() }()
	select {
	case s.writeChan <- r:
	default:
		s.droppedWrites.Add(1)
		log.Printf("WARNING: SQLite write channel full, dropped run record (run=%s, preset=%s)", r.RunID, r.PresetID)
	}
}

func (s *SQLiteRecorder) DroppedWrites() int64 {
	return s.droppedWrites.Load()
}

func (s *SQLiteRecorder) Close() error {
	if s.closed.Swap(true) {
		return nil
	}

	s.cancelMaint()
	select {
	case <-s.maintenanceDone:
	case <-time.After(30 * time.Second):
		log.Printf("WARNING: maintenance goroutine did not stop within 30s")
	}

	close(s.writeChan)

	select {
	case <-s.doneChan:
	case <-time.After(10 * time.Second):
		log.Printf("ERROR: failed to drain run writes within 10s, data may be lost")
	}

	return s.db.Close()
}
