package visual

import (
	"strings"
	"sync"
	"unicode"
)

var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

type reservedColor struct {
	key   string
	color string
}

// Checked in order; the first key contained in the normalized id wins.
var reservedColors = []reservedColor{
	{"entries", "#16A34A"},
	{"exits", "#DC2626"},
	{"target", "#111827"},
	{"other", "#9CA3AF"},
	{"unknown", "#6B7280"},
}

// PaletteManager hands out stable colors per series id. Reserved ids get
// their fixed color; everything else cycles through the palette in
// first-seen order.
type PaletteManager struct {
	mu       sync.Mutex
	assigned map[string]string
	next     int
}

func NewPaletteManager() *PaletteManager {
	return &PaletteManager{assigned: make(map[string]string)}
}

func (p *PaletteManager) Color(id string) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.assigned[id]; ok {
		return c
	}
	norm := normalize(id)
	for _, r := range reservedColors {
		if strings.Contains(norm, r.key) {
			p.assigned[id] = r.color
			return r.color
		}
	}
	c := defaultColors[p.next%len(defaultColors)]
	p.next++
	p.assigned[id] = c
	return c
}

func normalize(id string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(id) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
