package runlog

import (
	"time"

	"github.com/nixlim/presetdeck/internal/contract"
)

type Status string

const (
	StatusReady     Status = "ready"
	StatusError     Status = "error"
	StatusCancelled Status = "cancelled"
)

// RunRecord is the durable summary of one finished run.
type RunRecord struct {
	RunID       string
	PresetID    string
	Hash        string
	Mode        string
	Status      Status
	Category    string
	Error       string
	Attempts    int
	SeriesCount int
	Partial     bool
	Overrides   contract.Overrides
	StartedAt   time.Time
	Duration    time.Duration
}

// DailySummary aggregates runs for one calendar day.
type DailySummary struct {
	Date      string
	Runs      int
	Succeeded int
	Failed    int
	Cancelled int
	Partial   int
	AvgMillis float64
}
