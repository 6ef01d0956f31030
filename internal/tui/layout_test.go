package tui

import (
	"reflect"
	"strings"
	"testing"
)

func TestComputeDimensions(t *testing.T) {
	sizes := []struct{ w, h int }{
		{120, 40},
		{80, 24},
		{200, 60},
		{60, 16},
	}
	for _, s := range sizes {
		d := computeDimensions(s.w, s.h)
		w := max(s.w, minWidth)
		h := max(s.h, minHeight)

		if d.presetsW+d.chartW != w {
			t.Errorf("%dx%d: columns should fill the width, got %d+%d", s.w, s.h, d.presetsW, d.chartW)
		}
		if d.controlsH+d.chartH+d.eventsH != h-headerHeight-statusHeight {
			t.Errorf("%dx%d: right column should fill the height, got %d+%d+%d",
				s.w, s.h, d.controlsH, d.chartH, d.eventsH)
		}
		if d.eventsH < eventsMinHeight || d.eventsH > eventsMaxHeight {
			t.Errorf("%dx%d: events height %d out of range", s.w, s.h, d.eventsH)
		}
	}
}

func TestWrapLines(t *testing.T) {
	got := wrapLines([]string{"short", "the quick brown fox", ""}, 10)
	want := []string{"short", "the quick", "brown fox", ""}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("want %q, got %q", want, got)
	}
}

func TestRenderBorderedPanel_ClipsContent(t *testing.T) {
	content := strings.Repeat("line\n", 20)
	out := renderBorderedPanel(content, 20, 6)
	if got := len(strings.Split(out, "\n")); got != 6 {
		t.Errorf("want 6 rendered lines, got %d", got)
	}
}

func TestStripAnsi(t *testing.T) {
	if got := stripAnsi("\x1b[1;31mred\x1b[0m"); got != "red" {
		t.Errorf("want red, got %q", got)
	}
}

func TestTruncateID(t *testing.T) {
	if got := truncateID("0123456789", 8); got != "01234567" {
		t.Errorf("want 01234567, got %q", got)
	}
	if got := truncateID("abc", 8); got != "abc" {
		t.Errorf("want abc, got %q", got)
	}
}
