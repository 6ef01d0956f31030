package contract

type DurationUnit string

const (
	UnitHour  DurationUnit = "hour"
	UnitDay   DurationUnit = "day"
	UnitWeek  DurationUnit = "week"
	UnitMonth DurationUnit = "month"
)

// Valid reports whether u is one of the supported relative-duration units.
func (u DurationUnit) Valid() bool {
	switch u {
	case UnitHour, UnitDay, UnitWeek, UnitMonth:
		return true
	}
	return false
}

// PresetDefinition is an immutable template spec plus the override axes an
// operator is allowed to touch.
type PresetDefinition struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Icon        string         `json:"icon,omitempty"`
	Category    string         `json:"category,omitempty"`
	Template    ChartSpec      `json:"template"`
	Fixture     string         `json:"fixture"`
	Overrides   OverrideConfig `json:"overrides"`
}

type OverrideConfig struct {
	TimeRange *TimeRangeConfig     `json:"timeRange,omitempty"`
	Split     *SplitToggle         `json:"split,omitempty"`
	Measure   *MeasureOptionConfig `json:"measure,omitempty"`
}

// Clone returns a copy that shares no pointers or slices with p.
func (p PresetDefinition) Clone() PresetDefinition {
	out := p
	out.Template = p.Template.Clone()
	out.Overrides = p.Overrides.Clone()
	return out
}

func (c OverrideConfig) Clone() OverrideConfig {
	var out OverrideConfig
	if c.TimeRange != nil {
		tr := *c.TimeRange
		tr.Options = append([]TimeRangeOption(nil), c.TimeRange.Options...)
		out.TimeRange = &tr
	}
	if c.Split != nil {
		sp := *c.Split
		out.Split = &sp
	}
	if c.Measure != nil {
		mo := *c.Measure
		mo.Options = make([]MeasureOption, len(c.Measure.Options))
		for i, o := range c.Measure.Options {
			o.MeasureIDs = append([]string(nil), o.MeasureIDs...)
			mo.Options[i] = o
		}
		out.Measure = &mo
	}
	return out
}

type TimeRangeConfig struct {
	Options []TimeRangeOption `json:"options"`
	Default string            `json:"default,omitempty"`
}

// TimeRangeOption is a window relative to the run anchor, e.g. 24 hours.
type TimeRangeOption struct {
	ID     string       `json:"id"`
	Label  string       `json:"label"`
	Amount int          `json:"amount"`
	Unit   DurationUnit `json:"unit"`
	Bucket TimeBucket   `json:"bucket"`
}

type SplitToggle struct {
	DimensionID string `json:"dimensionId"`
	Label       string `json:"label"`
	Default     bool   `json:"default"`
}

type MeasureOptionConfig struct {
	Options []MeasureOption `json:"options"`
	Default string          `json:"default,omitempty"`
}

// MeasureOption names an allow-list of template measure ids.
type MeasureOption struct {
	ID         string   `json:"id"`
	Label      string   `json:"label"`
	MeasureIDs []string `json:"measureIds"`
}

// Overrides are the operator's current deviations from a preset's defaults.
// SplitEnabled is nil when the operator has not touched the toggle.
type Overrides struct {
	TimeRangeID     string `json:"timeRangeId,omitempty"`
	SplitEnabled    *bool  `json:"splitEnabled,omitempty"`
	MeasureOptionID string `json:"measureOptionId,omitempty"`
}

// Clone returns a copy that shares no pointers with o.
func (o Overrides) Clone() Overrides {
	out := o
	if o.SplitEnabled != nil {
		v := *o.SplitEnabled
		out.SplitEnabled = &v
	}
	return out
}

// DefaultOverrides returns the overrides a freshly selected preset starts with.
func (p PresetDefinition) DefaultOverrides() Overrides {
	var o Overrides
	if tr := p.Overrides.TimeRange; tr != nil {
		o.TimeRangeID = tr.Default
		if o.TimeRangeID == "" && len(tr.Options) > 0 {
			o.TimeRangeID = tr.Options[0].ID
		}
	}
	if sp := p.Overrides.Split; sp != nil {
		v := sp.Default
		o.SplitEnabled = &v
	}
	if mo := p.Overrides.Measure; mo != nil {
		o.MeasureOptionID = mo.Default
		if o.MeasureOptionID == "" && len(mo.Options) > 0 {
			o.MeasureOptionID = mo.Options[0].ID
		}
	}
	return o
}

// Option returns the declared time-range option with the given id.
func (c *TimeRangeConfig) Option(id string) (TimeRangeOption, bool) {
	if c == nil {
		return TimeRangeOption{}, false
	}
	for _, o := range c.Options {
		if o.ID == id {
			return o, true
		}
	}
	return TimeRangeOption{}, false
}

// Option returns the declared measure option with the given id.
func (c *MeasureOptionConfig) Option(id string) (MeasureOption, bool) {
	if c == nil {
		return MeasureOption{}, false
	}
	for _, o := range c.Options {
		if o.ID == id {
			return o, true
		}
	}
	return MeasureOption{}, false
}
