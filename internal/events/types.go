package events

import "time"

// FormattedEvent holds a display-ready event with metadata.
type FormattedEvent struct {
	RunID     string
	PresetID  string
	EventType string // run_ready, run_error, run_cancelled, or a diagnostic code
	Formatted string // display-ready string
	Timestamp time.Time
	Success   *bool // nil if not applicable
}
