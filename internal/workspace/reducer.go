package workspace

import (
	"fmt"
	"sort"

	"github.com/nixlim/presetdeck/internal/contract"
	"github.com/nixlim/presetdeck/internal/preset"
)

// Reduce applies one action to s and returns the next state together with
// any non-fatal diagnostics the action produced. It never mutates s.
//
// Run actions are accepted only for the run currently in flight, so a late
// result from a superseded run can never overwrite a newer one.
func Reduce(s State, a Action) (State, []contract.Diagnostic) {
	switch a := a.(type) {
	case SelectPreset:
		return selectPreset(s, a.Preset, a.Overrides), nil

	case ResetOverrides:
		return selectPreset(s, a.Preset, a.Overrides), nil

	case UpdateOverrides:
		return updateOverrides(s, a.Patch)

	case SetMode:
		next := s
		next.Mode = a.Mode
		return next, nil

	case RunStart:
		next := s
		spec := a.Spec.Clone()
		next.Status = StatusLoading
		next.RunID = a.RunID
		next.Spec = &spec
		next.Hash = a.Hash
		next.Error = ""
		next.Category = ""
		return next, nil

	case RunSuccess:
		if !s.inFlight(a.RunID) {
			return s, nil
		}
		next := s
		result := a.Result
		spec := a.Spec.Clone()
		next.Status = StatusReady
		next.Result = &result
		next.Spec = &spec
		next.Hash = a.Hash
		next.Diagnostics = a.Diagnostics
		next.Error = ""
		next.Category = ""
		return next, nil

	case RunFailure:
		if !s.inFlight(a.RunID) {
			return s, nil
		}
		next := s
		next.Status = StatusError
		next.Error = a.Message
		next.Category = a.Category
		next.Diagnostics = nil
		return next, nil

	case RunCancelled:
		if !s.inFlight(a.RunID) {
			return s, nil
		}
		next := s
		next.Status = StatusCancelled
		next.Error = ""
		next.Category = ""
		return next, nil
	}
	return s, nil
}

func (s State) inFlight(runID string) bool {
	return s.Status == StatusLoading && runID != "" && runID == s.RunID
}

func selectPreset(s State, p contract.PresetDefinition, o contract.Overrides) State {
	p.Template = p.Template.Clone()
	o = o.Clone()
	return State{
		PresetID:      p.ID,
		Preset:        &p,
		Overrides:     o,
		AllowedFields: AllowedFields(p),
		Badges:        preset.Badges(p, o),
		Mode:          s.Mode,
		Status:        StatusIdle,
	}
}

func updateOverrides(s State, patch OverridePatch) (State, []contract.Diagnostic) {
	fields := make([]string, 0, len(patch))
	for f := range patch {
		fields = append(fields, string(f))
	}
	sort.Strings(fields)

	o := s.Overrides.Clone()
	var diags []contract.Diagnostic
	drop := func(f OverrideField, format string, args ...any) {
		diags = append(diags, contract.Diagnostic{
			Code:    contract.DiagOverrideDropped,
			Field:   string(f),
			Message: fmt.Sprintf(format, args...),
		})
	}

	for _, name := range fields {
		f := OverrideField(name)
		v := patch[f]
		if s.Preset == nil {
			drop(f, "override %q ignored: no preset is active", f)
			continue
		}
		if !s.Allows(f) {
			drop(f, "override %q is not adjustable for preset %q", f, s.PresetID)
			continue
		}

		switch f {
		case FieldTimeRange:
			id, ok := v.(string)
			if !ok {
				drop(f, "override %q expects an option id, got %T", f, v)
				continue
			}
			if _, ok := s.Preset.Overrides.TimeRange.Option(id); !ok {
				drop(f, "time range %q is not offered by preset %q", id, s.PresetID)
				continue
			}
			o.TimeRangeID = id

		case FieldSplit:
			on, ok := v.(bool)
			if !ok {
				drop(f, "override %q expects a boolean, got %T", f, v)
				continue
			}
			o.SplitEnabled = &on

		case FieldMeasure:
			id, ok := v.(string)
			if !ok {
				drop(f, "override %q expects an option id, got %T", f, v)
				continue
			}
			if _, ok := s.Preset.Overrides.Measure.Option(id); !ok {
				drop(f, "measure option %q is not offered by preset %q", id, s.PresetID)
				continue
			}
			o.MeasureOptionID = id
		}
	}

	next := s
	next.Overrides = o
	if s.Preset != nil {
		next.Badges = preset.Badges(*s.Preset, o)
	}
	return next, diags
}
