package visual

import "github.com/nixlim/presetdeck/internal/contract"

// SeriesView is a series ready for drawing. Axis is -1 when unbound.
type SeriesView struct {
	ID       string
	Label    string
	Unit     contract.Unit
	Geometry contract.Geometry
	StackID  string
	Color    string
	Visible  bool
	Axis     int
	Data     []contract.DataPoint
	Summary  *contract.SeriesSummary
}

// Model is the render-ready view of one result.
type Model struct {
	ChartType contract.ChartType
	X         contract.XDimension
	Series    []SeriesView
	Axes      []Axis
	Meta      contract.ResultMeta
}

// BuildModel combines a validated result with the current visibility and
// palette into a fresh model. A nil series manager shows everything.
func BuildModel(r contract.ChartResult, series *SeriesManager, palette *PaletteManager) Model {
	if palette == nil {
		palette = NewPaletteManager()
	}
	var visible map[string]bool
	if series != nil {
		visible = series.Visible()
	}

	layout := AxisManager{}.Build(r.Series, visible)
	m := Model{
		ChartType: r.ChartType,
		X:         r.X,
		Axes:      layout.Axes,
		Meta:      r.Meta,
	}
	for _, s := range r.Series {
		v := SeriesView{
			ID:       s.ID,
			Label:    s.Label,
			Unit:     s.Unit,
			Geometry: s.Geometry,
			StackID:  s.StackID,
			Color:    s.Color,
			Visible:  visible == nil || visible[s.ID],
			Axis:     -1,
			Data:     s.Data,
			Summary:  s.Summary,
		}
		if v.Color == "" {
			v.Color = palette.Color(s.ID)
		}
		if slot, ok := layout.Binding(s.ID); ok {
			v.Axis = slot
		}
		m.Series = append(m.Series, v)
	}
	return m
}

// SeriesIDs lists the ids of r's series in order.
func SeriesIDs(r contract.ChartResult) []string {
	ids := make([]string, 0, len(r.Series))
	for _, s := range r.Series {
		ids = append(ids, s.ID)
	}
	return ids
}
