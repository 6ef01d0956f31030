package preset

import (
	"time"

	"github.com/nixlim/presetdeck/internal/contract"
)

const defaultTimezone = "UTC"

// Resolution is a concrete spec produced from a preset, plus the badges
// describing the parameters that produced it.
type Resolution struct {
	Spec      contract.ChartSpec
	Badges    []Badge
	TimeRange *contract.TimeRangeOption
}

// Resolve merges the preset template with overrides relative to anchor. The
// template is never mutated: the spec is built on a deep copy. Badges are
// computed separately so CheckIntegrity can detect drift between the two.
func Resolve(p contract.PresetDefinition, o contract.Overrides, anchor time.Time) Resolution {
	spec := p.Template.Clone()
	res := Resolution{}

	if opt, ok := ActiveTimeRange(p, o); ok {
		spec.TimeWindow.From = Subtract(anchor, opt.Amount, opt.Unit)
		spec.TimeWindow.To = anchor
		if opt.Bucket != "" {
			spec.TimeWindow.Bucket = opt.Bucket
			for i := range spec.Dimensions {
				if spec.Dimensions[i].Bucket != "" {
					spec.Dimensions[i].Bucket = opt.Bucket
				}
			}
		}
		res.TimeRange = &opt
	}
	if spec.TimeWindow.Timezone == "" {
		spec.TimeWindow.Timezone = defaultTimezone
	}

	if opt, ok := ActiveMeasureOption(p, o); ok {
		allowed := make(map[string]bool, len(opt.MeasureIDs))
		for _, id := range opt.MeasureIDs {
			allowed[id] = true
		}
		kept := make([]contract.MeasureSpec, 0, len(opt.MeasureIDs))
		for _, m := range spec.Measures {
			if allowed[m.ID] {
				kept = append(kept, m)
			}
		}
		spec.Measures = kept
	}

	if toggle := p.Overrides.Split; toggle != nil && !SplitEnabled(p, o) {
		kept := make([]contract.SplitSpec, 0, len(spec.Splits))
		for _, sp := range spec.Splits {
			if sp.DimensionID != toggle.DimensionID {
				kept = append(kept, sp)
			}
		}
		if len(kept) == 0 {
			kept = nil
		}
		spec.Splits = kept
	}

	res.Spec = spec
	res.Badges = Badges(p, o)
	return res
}

// ActiveTimeRange resolves the time-range option: explicit override, then
// the preset default, then the first declared option.
func ActiveTimeRange(p contract.PresetDefinition, o contract.Overrides) (contract.TimeRangeOption, bool) {
	tr := p.Overrides.TimeRange
	if tr == nil || len(tr.Options) == 0 {
		return contract.TimeRangeOption{}, false
	}
	if opt, ok := tr.Option(o.TimeRangeID); ok {
		return opt, true
	}
	if opt, ok := tr.Option(tr.Default); ok {
		return opt, true
	}
	return tr.Options[0], true
}

// ActiveMeasureOption resolves the measure option with the same fallback
// chain as ActiveTimeRange.
func ActiveMeasureOption(p contract.PresetDefinition, o contract.Overrides) (contract.MeasureOption, bool) {
	mo := p.Overrides.Measure
	if mo == nil || len(mo.Options) == 0 {
		return contract.MeasureOption{}, false
	}
	if opt, ok := mo.Option(o.MeasureOptionID); ok {
		return opt, true
	}
	if opt, ok := mo.Option(mo.Default); ok {
		return opt, true
	}
	return mo.Options[0], true
}

// SplitEnabled resolves the split toggle: explicit override, else the
// toggle's declared default. Presets without a toggle report false.
func SplitEnabled(p contract.PresetDefinition, o contract.Overrides) bool {
	toggle := p.Overrides.Split
	if toggle == nil {
		return false
	}
	if o.SplitEnabled != nil {
		return *o.SplitEnabled
	}
	return toggle.Default
}

// Subtract moves anchor back by amount units. Months use calendar arithmetic
// and clamp to the last day of the target month.
func Subtract(anchor time.Time, amount int, unit contract.DurationUnit) time.Time {
	switch unit {
	case contract.UnitHour:
		return anchor.Add(-time.Duration(amount) * time.Hour)
	case contract.UnitDay:
		return anchor.AddDate(0, 0, -amount)
	case contract.UnitWeek:
		return anchor.AddDate(0, 0, -7*amount)
	case contract.UnitMonth:
		return subtractMonths(anchor, amount)
	}
	return anchor
}

func subtractMonths(anchor time.Time, months int) time.Time {
	y, m, d := anchor.Date()
	hh, mm, ss := anchor.Clock()
	first := time.Date(y, m-time.Month(months), 1, 0, 0, 0, 0, anchor.Location())
	lastDay := first.AddDate(0, 1, -1).Day()
	return time.Date(first.Year(), first.Month(), min(d, lastDay), hh, mm, ss, anchor.Nanosecond(), anchor.Location())
}
