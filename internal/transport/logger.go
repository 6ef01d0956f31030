package transport

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"
)

// Logger provides structured debug logging for chart runs.
// Implementations must be safe for concurrent use.
type Logger interface {
	// LogAttempt logs a single live request attempt.
	LogAttempt(a Attempt)

	// LogOutcome logs the final result of a run.
	LogOutcome(o Outcome)
}

// Attempt describes one HTTP round trip on the live path.
type Attempt struct {
	RunID    string
	Hash     string
	Number   int
	Status   int
	Err      error
	Duration time.Duration
}

// Outcome describes a finished Execute call.
type Outcome struct {
	RunID    string
	Hash     string
	Mode     Mode
	Attempts int
	Err      error
	Duration time.Duration
}

// NopLogger discards all log output. This is the default when debug logging
// is not enabled.
type NopLogger struct{}

func (NopLogger) LogAttempt(Attempt) {}

func (NopLogger) LogOutcome(Outcome) {}

// logEntry is the JSON structure written by FileLogger.
type logEntry struct {
	Timestamp  string `json:"ts"`
	Type       string `json:"type"`
	RunID      string `json:"run"`
	Hash       string `json:"hash"`
	Mode       string `json:"mode,omitempty"`
	Attempt    int    `json:"attempt,omitempty"`
	Status     int    `json:"status,omitempty"`
	Category   string `json:"category,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// FileLogger writes structured JSON debug output to an io.Writer.
// Each line is a complete JSON object (JSONL format).
type FileLogger struct {
	w   io.Writer
	mu  sync.Mutex
	now func() time.Time
}

// NewFileLogger creates a FileLogger that writes to the given writer.
func NewFileLogger(w io.Writer) *FileLogger {
	return &FileLogger{w: w, now: time.Now}
}

func (l *FileLogger) LogAttempt(a Attempt) {
	entry := logEntry{
		Timestamp:  l.now().UTC().Format(time.RFC3339Nano),
		Type:       "attempt",
		RunID:      a.RunID,
		Hash:       a.Hash,
		Attempt:    a.Number,
		Status:     a.Status,
		DurationMS: a.Duration.Milliseconds(),
	}
	if a.Err != nil {
		entry.Category = string(CategoryOf(a.Err))
		entry.Error = a.Err.Error()
	}
	l.write(entry)
}

func (l *FileLogger) LogOutcome(o Outcome) {
	entry := logEntry{
		Timestamp:  l.now().UTC().Format(time.RFC3339Nano),
		Type:       "outcome",
		RunID:      o.RunID,
		Hash:       o.Hash,
		Mode:       string(o.Mode),
		Attempt:    o.Attempts,
		DurationMS: o.Duration.Milliseconds(),
	}
	if o.Err != nil {
		entry.Category = string(CategoryOf(o.Err))
		entry.Error = o.Err.Error()
	}
	l.write(entry)
}

// write serialises a logEntry as JSON and writes it as a single line.
// Serialisation errors are silently dropped so logging never fails a run.
func (l *FileLogger) write(entry logEntry) {
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "%s\n", data)
}
