package events

import "sync"

// Query selects events from a RingBuffer. Empty fields match everything.
// Limit keeps only the newest matches when positive.
type Query struct {
	PresetID  string
	EventType string
	Limit     int
}

func (q Query) match(e FormattedEvent) bool {
	if q.PresetID != "" && e.PresetID != q.PresetID {
		return false
	}
	return q.EventType == "" || e.EventType == q.EventType
}

// RingBuffer keeps the newest workspace events, overwriting the oldest once
// full. Safe for concurrent use.
type RingBuffer struct {
	mu          sync.RWMutex
	slots       []FormattedEvent
	next        int // slot the next Add writes
	size        int
	overwritten int64
}

// NewRingBuffer creates a buffer holding capacity events, at least 1.
func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{slots: make([]FormattedEvent, max(capacity, 1))}
}

func (rb *RingBuffer) Add(e FormattedEvent) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.slots[rb.next] = e
	rb.next = (rb.next + 1) % len(rb.slots)
	if rb.size < len(rb.slots) {
		rb.size++
	} else {
		rb.overwritten++
	}
}

// Select returns the events matching q, oldest first.
func (rb *RingBuffer) Select(q Query) []FormattedEvent {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	var out []FormattedEvent
	oldest := (rb.next - rb.size + len(rb.slots)) % len(rb.slots)
	for i := range rb.size {
		e := rb.slots[(oldest+i)%len(rb.slots)]
		if q.match(e) {
			out = append(out, e)
		}
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[len(out)-q.Limit:]
	}
	return out
}

// Latest returns up to n of the newest events, oldest first. n <= 0 returns
// everything.
func (rb *RingBuffer) Latest(n int) []FormattedEvent {
	return rb.Select(Query{Limit: n})
}

func (rb *RingBuffer) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.size
}

func (rb *RingBuffer) Cap() int {
	return len(rb.slots)
}

// Overwritten counts events lost to wrap-around.
func (rb *RingBuffer) Overwritten() int64 {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.overwritten
}
