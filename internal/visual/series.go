package visual

import "sync"

// SeriesManager tracks which series are shown. Every series starts visible.
type SeriesManager struct {
	mu      sync.RWMutex
	order   []string
	visible map[string]bool
}

func NewSeriesManager(ids []string) *SeriesManager {
	m := &SeriesManager{visible: make(map[string]bool, len(ids))}
	for _, id := range ids {
		if _, dup := m.visible[id]; dup {
			continue
		}
		m.order = append(m.order, id)
		m.visible[id] = true
	}
	return m
}

// Toggle flips visibility and returns the new value. Unknown ids are ignored.
func (m *SeriesManager) Toggle(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.visible[id]
	if !ok {
		return false
	}
	m.visible[id] = !v
	return !v
}

func (m *SeriesManager) IsVisible(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.visible[id]
}

func (m *SeriesManager) ShowAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.visible {
		m.visible[id] = true
	}
}

// Visible returns a copy of the visibility map.
func (m *SeriesManager) Visible() map[string]bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]bool, len(m.visible))
	for id, v := range m.visible {
		out[id] = v
	}
	return out
}

// VisibleIDs returns visible ids in the order the series were registered.
func (m *SeriesManager) VisibleIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for _, id := range m.order {
		if m.visible[id] {
			out = append(out, id)
		}
	}
	return out
}

func (m *SeriesManager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.order...)
}
