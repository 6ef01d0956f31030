package storage

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/nixlim/presetdeck/internal/config"
	"github.com/nixlim/presetdeck/internal/runlog"
)

// Closer is implemented by recorders that hold resources.
type Closer interface {
	Close() error
}

// NewRecorder returns a SQLite-backed recorder when cfg names a usable
// database, otherwise an in-memory one. The bool reports persistence.
func NewRecorder(cfg config.StorageConfig) (runlog.Recorder, bool, error) {
	if cfg.DBPath == "" {
		return runlog.NewMemoryRecorder(0), false, nil
	}

	dbPath := expandTilde(cfg.DBPath)

	rec, err := NewSQLiteRecorder(dbPath, cfg.RetentionDays)
	if err != nil {
		log.Printf("WARNING: SQLite storage unavailable (%v), falling back to in-memory run history", err)
		return runlog.NewMemoryRecorder(0), false, nil
	}

	return rec, true, nil
}

func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
