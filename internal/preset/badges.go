package preset

import (
	"fmt"
	"strings"
	"time"

	"github.com/nixlim/presetdeck/internal/contract"
)

type BadgeKind string

const (
	BadgeTimeRange BadgeKind = "time_range"
	BadgeSplit     BadgeKind = "split"
	BadgeMeasure   BadgeKind = "measure"
)

// Badge is a human-readable description of one resolved parameter. Ref holds
// the option id (or "on"/"off" for the split toggle) the badge stands for.
type Badge struct {
	Kind  BadgeKind `json:"kind"`
	Label string    `json:"label"`
	Value string    `json:"value"`
	Ref   string    `json:"ref"`
}

func (b Badge) String() string {
	return b.Label + ": " + b.Value
}

// Badges derives the badge list from the preset and overrides alone, without
// looking at a resolved spec.
func Badges(p contract.PresetDefinition, o contract.Overrides) []Badge {
	var badges []Badge

	if opt, ok := ActiveTimeRange(p, o); ok {
		badges = append(badges, Badge{
			Kind:  BadgeTimeRange,
			Label: "Time range",
			Value: opt.Label,
			Ref:   opt.ID,
		})
	}

	if toggle := p.Overrides.Split; toggle != nil {
		b := Badge{Kind: BadgeSplit, Label: toggle.Label, Value: "Off", Ref: "off"}
		if b.Label == "" {
			b.Label = "Split by " + toggle.DimensionID
		}
		if SplitEnabled(p, o) {
			b.Value, b.Ref = "On", "on"
		}
		badges = append(badges, b)
	}

	if opt, ok := ActiveMeasureOption(p, o); ok {
		badges = append(badges, Badge{
			Kind:  BadgeMeasure,
			Label: "Measure",
			Value: opt.Label,
			Ref:   opt.ID,
		})
	}
	return badges
}

// Drift describes a disagreement between a displayed badge and the spec that
// was actually resolved.
type Drift struct {
	Kind    BadgeKind
	Message string
}

func (d Drift) String() string {
	return fmt.Sprintf("%s: %s", d.Kind, d.Message)
}

// CheckIntegrity verifies that badges and spec describe the same parameters.
// It returns nothing when they agree.
func CheckIntegrity(p contract.PresetDefinition, spec contract.ChartSpec, badges []Badge) []Drift {
	var drifts []Drift
	byKind := make(map[BadgeKind]Badge, len(badges))
	for _, b := range badges {
		if _, dup := byKind[b.Kind]; dup {
			drifts = append(drifts, Drift{Kind: b.Kind, Message: "badge appears more than once"})
		}
		byKind[b.Kind] = b
	}

	if tr := p.Overrides.TimeRange; tr != nil && len(tr.Options) > 0 {
		b, ok := byKind[BadgeTimeRange]
		opt, known := tr.Option(b.Ref)
		switch {
		case !ok:
			drifts = append(drifts, Drift{Kind: BadgeTimeRange, Message: "no badge for the declared time range"})
		case !known:
			drifts = append(drifts, Drift{Kind: BadgeTimeRange, Message: fmt.Sprintf("badge references unknown option %q", b.Ref)})
		default:
			want := Subtract(spec.TimeWindow.To, opt.Amount, opt.Unit)
			if !want.Equal(spec.TimeWindow.From) {
				drifts = append(drifts, Drift{Kind: BadgeTimeRange, Message: fmt.Sprintf(
					"badge %q implies window start %s, spec starts at %s",
					opt.Label, want.Format(time.RFC3339), spec.TimeWindow.From.Format(time.RFC3339))})
			}
			if opt.Bucket != "" && spec.TimeWindow.Bucket != opt.Bucket {
				drifts = append(drifts, Drift{Kind: BadgeTimeRange, Message: fmt.Sprintf(
					"badge %q implies bucket %s, spec uses %s", opt.Label, opt.Bucket, spec.TimeWindow.Bucket)})
			}
		}
	} else if _, ok := byKind[BadgeTimeRange]; ok {
		drifts = append(drifts, Drift{Kind: BadgeTimeRange, Message: "badge shown for an undeclared override"})
	}

	if toggle := p.Overrides.Split; toggle != nil {
		b, ok := byKind[BadgeSplit]
		if !ok {
			drifts = append(drifts, Drift{Kind: BadgeSplit, Message: "no badge for the declared split toggle"})
		} else if on := spec.HasSplit(toggle.DimensionID); on != (b.Ref == "on") {
			drifts = append(drifts, Drift{Kind: BadgeSplit, Message: fmt.Sprintf(
				"badge shows split %s, spec split present=%t", b.Value, on)})
		}
	} else if _, ok := byKind[BadgeSplit]; ok {
		drifts = append(drifts, Drift{Kind: BadgeSplit, Message: "badge shown for an undeclared override"})
	}

	if mo := p.Overrides.Measure; mo != nil && len(mo.Options) > 0 {
		b, ok := byKind[BadgeMeasure]
		opt, known := mo.Option(b.Ref)
		switch {
		case !ok:
			drifts = append(drifts, Drift{Kind: BadgeMeasure, Message: "no badge for the declared measure options"})
		case !known:
			drifts = append(drifts, Drift{Kind: BadgeMeasure, Message: fmt.Sprintf("badge references unknown option %q", b.Ref)})
		default:
			want := make([]string, 0, len(opt.MeasureIDs))
			allowed := make(map[string]bool, len(opt.MeasureIDs))
			for _, id := range opt.MeasureIDs {
				allowed[id] = true
			}
			for _, m := range p.Template.Measures {
				if allowed[m.ID] {
					want = append(want, m.ID)
				}
			}
			got := spec.MeasureIDs()
			if strings.Join(want, ",") != strings.Join(got, ",") {
				drifts = append(drifts, Drift{Kind: BadgeMeasure, Message: fmt.Sprintf(
					"badge %q implies measures [%s], spec has [%s]",
					opt.Label, strings.Join(want, ", "), strings.Join(got, ", "))})
			}
		}
	} else if _, ok := byKind[BadgeMeasure]; ok {
		drifts = append(drifts, Drift{Kind: BadgeMeasure, Message: "badge shown for an undeclared override"})
	}

	return drifts
}
