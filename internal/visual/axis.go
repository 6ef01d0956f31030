package visual

import (
	"fmt"

	"github.com/nixlim/presetdeck/internal/contract"
)

// MaxAxes is the number of value axes a chart can carry.
const MaxAxes = 3

var unitLabels = map[contract.Unit]string{
	contract.UnitPeople:          "People",
	contract.UnitEvents:          "Events",
	contract.UnitEventsPerMinute: "Events / min",
	contract.UnitMinutes:         "Minutes",
	contract.UnitPercentage:      "%",
	contract.UnitCount:           "Count",
}

type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Axis is one value axis slot.
type Axis struct {
	ID        string
	Slot      int
	Unit      contract.Unit
	Label     string
	Side      Side
	Visible   bool
	SeriesIDs []string
}

// AxisLayout is the result of an axis assignment.
type AxisLayout struct {
	Axes     []Axis
	bindings map[string]int
}

// Binding returns the axis slot for a series. Series whose unit did not get
// a slot are unbound.
func (l AxisLayout) Binding(seriesID string) (int, bool) {
	slot, ok := l.bindings[seriesID]
	return slot, ok
}

// AxisManager assigns series to value axes by unit.
type AxisManager struct{}

// Build groups series by unit in first-seen order. The first MaxAxes units
// get a slot each; later units stay unbound. An axis is visible only while
// at least one visible series is bound to it.
func (AxisManager) Build(series []contract.Series, visible map[string]bool) AxisLayout {
	layout := AxisLayout{bindings: make(map[string]int)}
	slotOf := make(map[contract.Unit]int)

	for _, s := range series {
		slot, ok := slotOf[s.Unit]
		if !ok {
			if len(layout.Axes) == MaxAxes {
				continue
			}
			slot = len(layout.Axes)
			slotOf[s.Unit] = slot
			layout.Axes = append(layout.Axes, Axis{
				ID:    fmt.Sprintf("y%d", slot),
				Slot:  slot,
				Unit:  s.Unit,
				Label: unitLabel(s.Unit),
				Side:  sideFor(slot),
			})
		}
		layout.bindings[s.ID] = slot
		ax := &layout.Axes[slot]
		ax.SeriesIDs = append(ax.SeriesIDs, s.ID)
		if visible == nil || visible[s.ID] {
			ax.Visible = true
		}
	}
	return layout
}

func unitLabel(u contract.Unit) string {
	if l, ok := unitLabels[u]; ok {
		return l
	}
	return string(u)
}

func sideFor(slot int) Side {
	if slot%2 == 0 {
		return SideLeft
	}
	return SideRight
}
