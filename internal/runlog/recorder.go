package runlog

import (
	"log"
	"sort"
	"sync"
	"time"
)

const defaultCapacity = 500

// Recorder is the interface for the run history.
// All methods must be thread-safe.
type Recorder interface {
	// RecordRun appends a finished run. Records without a run id are dropped
	// with a warning.
	RecordRun(r RunRecord)

	// Recent returns up to n records, newest first.
	Recent(n int) []RunRecord

	// DailySummaries aggregates history for the last days calendar days,
	// newest first.
	DailySummaries(days int) []DailySummary

	// OnRecord registers a listener called after every RecordRun.
	OnRecord(fn RunListener)
}

// RunListener is invoked after a run is recorded. Listeners are called
// outside the recorder lock.
type RunListener func(r RunRecord)

// MemoryRecorder keeps a bounded in-memory run history.
type MemoryRecorder struct {
	mu        sync.RWMutex
	runs      []RunRecord
	capacity  int
	listeners []RunListener
}

// NewMemoryRecorder creates a recorder holding at most capacity runs. A
// non-positive capacity uses the default.
func NewMemoryRecorder(capacity int) *MemoryRecorder {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &MemoryRecorder{capacity: capacity}
}

func (m *MemoryRecorder) OnRecord(fn RunListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

func (m *MemoryRecorder) RecordRun(r RunRecord) {
	if r.RunID == "" {
		log.Printf("WARNING: run record without run id for preset %q, dropping", r.PresetID)
		return
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}

	m.mu.Lock()
	m.runs = append(m.runs, r)
	if over := len(m.runs) - m.capacity; over > 0 {
		m.runs = append([]RunRecord(nil), m.runs[over:]...)
	}
	listeners := make([]RunListener, len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(r)
	}
}

// Load seeds the history without notifying listeners. Used when restoring
// from persistent storage.
func (m *MemoryRecorder) Load(records []RunRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, records...)
	sort.SliceStable(m.runs, func(i, j int) bool {
		return m.runs[i].StartedAt.Before(m.runs[j].StartedAt)
	})
	if over := len(m.runs) - m.capacity; over > 0 {
		m.runs = append([]RunRecord(nil), m.runs[over:]...)
	}
}

func (m *MemoryRecorder) Recent(n int) []RunRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n <= 0 || n > len(m.runs) {
		n = len(m.runs)
	}
	out := make([]RunRecord, 0, n)
	for i := len(m.runs) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.runs[i])
	}
	return out
}

func (m *MemoryRecorder) DailySummaries(days int) []DailySummary {
	m.mu.RLock()
	runs := make([]RunRecord, len(m.runs))
	copy(runs, m.runs)
	m.mu.RUnlock()

	return Summarize(runs, days, time.Now())
}

// Summarize groups runs by UTC calendar day, keeping the last days days
// relative to now. Results are newest first.
func Summarize(runs []RunRecord, days int, now time.Time) []DailySummary {
	if days <= 0 {
		days = 7
	}
	cutoff := now.UTC().Truncate(24*time.Hour).AddDate(0, 0, -(days - 1))

	byDay := make(map[string]*DailySummary)
	totals := make(map[string]time.Duration)
	for _, r := range runs {
		t := r.StartedAt.UTC()
		if t.Before(cutoff) {
			continue
		}
		key := t.Format("2006-01-02")
		s, ok := byDay[key]
		if !ok {
			s = &DailySummary{Date: key}
			byDay[key] = s
		}
		s.Runs++
		switch r.Status {
		case StatusReady:
			s.Succeeded++
		case StatusError:
			s.Failed++
		case StatusCancelled:
			s.Cancelled++
		}
		if r.Partial {
			s.Partial++
		}
		totals[key] += r.Duration
	}

	out := make([]DailySummary, 0, len(byDay))
	for key, s := range byDay {
		s.AvgMillis = float64(totals[key].Milliseconds()) / float64(s.Runs)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}
