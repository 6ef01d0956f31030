package workspace

import (
	"github.com/nixlim/presetdeck/internal/contract"
	"github.com/nixlim/presetdeck/internal/preset"
	"github.com/nixlim/presetdeck/internal/transport"
)

type Status string

const (
	StatusIdle      Status = "idle"
	StatusLoading   Status = "loading"
	StatusReady     Status = "ready"
	StatusError     Status = "error"
	StatusCancelled Status = "cancelled"
)

// OverrideField names one adjustable override.
type OverrideField string

const (
	FieldTimeRange OverrideField = "timeRangeId"
	FieldSplit     OverrideField = "splitEnabled"
	FieldMeasure   OverrideField = "measureOptionId"
)

// OverridePatch is a partial override update. Values are string for the
// option ids and bool for the split toggle.
type OverridePatch map[OverrideField]any

// State is the workspace value. It is replaced, never mutated, by Reduce.
type State struct {
	PresetID      string
	Preset        *contract.PresetDefinition
	Overrides     contract.Overrides
	AllowedFields []OverrideField
	Badges        []preset.Badge
	Mode          transport.Mode

	Status Status
	RunID  string
	Spec   *contract.ChartSpec
	Hash   string
	Result *contract.ChartResult

	Diagnostics []contract.Diagnostic
	Error       string
	Category    transport.Category
}

func (s State) Loading() bool {
	return s.Status == StatusLoading
}

// Allows reports whether f is adjustable for the active preset.
func (s State) Allows(f OverrideField) bool {
	for _, a := range s.AllowedFields {
		if a == f {
			return true
		}
	}
	return false
}

// AllowedFields derives the adjustable fields from what the preset declares,
// and nothing else.
func AllowedFields(p contract.PresetDefinition) []OverrideField {
	var fields []OverrideField
	if tr := p.Overrides.TimeRange; tr != nil && len(tr.Options) > 0 {
		fields = append(fields, FieldTimeRange)
	}
	if p.Overrides.Split != nil {
		fields = append(fields, FieldSplit)
	}
	if mo := p.Overrides.Measure; mo != nil && len(mo.Options) > 0 {
		fields = append(fields, FieldMeasure)
	}
	return fields
}
