package preset

import (
	"fmt"
	"strings"

	"github.com/nixlim/presetdeck/internal/contract"
)

// Catalogue is a validated, read-only table of presets.
type Catalogue struct {
	presets []contract.PresetDefinition
	index   map[string]int
}

// NewCatalogue validates every definition and builds the catalogue. All
// violations are reported together.
func NewCatalogue(defs ...contract.PresetDefinition) (*Catalogue, error) {
	c := &Catalogue{index: make(map[string]int, len(defs))}

	var errs []string
	for _, def := range defs {
		if _, dup := c.index[def.ID]; dup && def.ID != "" {
			errs = append(errs, fmt.Sprintf("duplicate preset id %q", def.ID))
			continue
		}
		if err := ValidateDefinition(def); err != nil {
			errs = append(errs, err.Error())
			continue
		}
		def = def.Clone()
		c.index[def.ID] = len(c.presets)
		c.presets = append(c.presets, def)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("catalogue validation error: %s", strings.Join(errs, "; "))
	}
	return c, nil
}

// Get returns a deep copy of the preset with the given id.
func (c *Catalogue) Get(id string) (contract.PresetDefinition, bool) {
	i, ok := c.index[id]
	if !ok {
		return contract.PresetDefinition{}, false
	}
	return c.presets[i].Clone(), true
}

// List returns all presets in catalogue order.
func (c *Catalogue) List() []contract.PresetDefinition {
	out := make([]contract.PresetDefinition, 0, len(c.presets))
	for _, p := range c.presets {
		out = append(out, p.Clone())
	}
	return out
}

func (c *Catalogue) IDs() []string {
	ids := make([]string, 0, len(c.presets))
	for _, p := range c.presets {
		ids = append(ids, p.ID)
	}
	return ids
}

func (c *Catalogue) Len() int {
	return len(c.presets)
}

// ValidateDefinition checks that every override a preset declares refers to
// something its template actually contains.
func ValidateDefinition(p contract.PresetDefinition) error {
	var errs []string
	if p.ID == "" {
		errs = append(errs, "id must not be empty")
	}
	if p.Fixture == "" {
		errs = append(errs, "fixture must not be empty")
	}
	if len(p.Template.Measures) == 0 {
		errs = append(errs, "template must declare at least one measure")
	}

	measures := make(map[string]bool, len(p.Template.Measures))
	for _, m := range p.Template.Measures {
		measures[m.ID] = true
	}

	if tr := p.Overrides.TimeRange; tr != nil {
		if len(tr.Options) == 0 {
			errs = append(errs, "time range override declares no options")
		}
		seen := make(map[string]bool)
		for _, o := range tr.Options {
			if o.ID == "" || seen[o.ID] {
				errs = append(errs, fmt.Sprintf("time range option id %q is empty or duplicated", o.ID))
			}
			seen[o.ID] = true
			if o.Amount < 1 {
				errs = append(errs, fmt.Sprintf("time range option %q must have a positive amount, got %d", o.ID, o.Amount))
			}
			if !o.Unit.Valid() {
				errs = append(errs, fmt.Sprintf("time range option %q has unknown unit %q", o.ID, o.Unit))
			}
		}
		if tr.Default != "" && !seen[tr.Default] {
			errs = append(errs, fmt.Sprintf("time range default %q is not a declared option", tr.Default))
		}
	}

	if sp := p.Overrides.Split; sp != nil {
		if !p.Template.HasSplit(sp.DimensionID) {
			errs = append(errs, fmt.Sprintf("split toggle dimension %q is not a template split", sp.DimensionID))
		}
	}

	if mo := p.Overrides.Measure; mo != nil {
		if len(mo.Options) == 0 {
			errs = append(errs, "measure override declares no options")
		}
		seen := make(map[string]bool)
		for _, o := range mo.Options {
			if o.ID == "" || seen[o.ID] {
				errs = append(errs, fmt.Sprintf("measure option id %q is empty or duplicated", o.ID))
			}
			seen[o.ID] = true
			if len(o.MeasureIDs) == 0 {
				errs = append(errs, fmt.Sprintf("measure option %q selects no measures", o.ID))
			}
			for _, id := range o.MeasureIDs {
				if !measures[id] {
					errs = append(errs, fmt.Sprintf("measure option %q references unknown measure %q", o.ID, id))
				}
			}
		}
		if mo.Default != "" && !seen[mo.Default] {
			errs = append(errs, fmt.Sprintf("measure default %q is not a declared option", mo.Default))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("preset %q: %s", p.ID, strings.Join(errs, ", "))
	}
	return nil
}
