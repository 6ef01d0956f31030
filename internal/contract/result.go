package contract

type XKind string

const (
	XTime     XKind = "time"
	XCategory XKind = "category"
	XMatrix   XKind = "matrix"
	XIndex    XKind = "index"
)

type Unit string

const (
	UnitPeople          Unit = "people"
	UnitEvents          Unit = "events"
	UnitEventsPerMinute Unit = "events_per_minute"
	UnitMinutes         Unit = "minutes"
	UnitPercentage      Unit = "percentage"
	UnitCount           Unit = "count"
)

var supportedUnits = map[Unit]bool{
	UnitPeople:          true,
	UnitEvents:          true,
	UnitEventsPerMinute: true,
	UnitMinutes:         true,
	UnitPercentage:      true,
	UnitCount:           true,
}

// Supported reports whether u belongs to the fixed unit vocabulary.
func (u Unit) Supported() bool {
	return supportedUnits[u]
}

type Geometry string

const (
	GeomLine    Geometry = "line"
	GeomArea    Geometry = "area"
	GeomColumn  Geometry = "column"
	GeomBar     Geometry = "bar"
	GeomHeatmap Geometry = "heatmap"
	GeomScatter Geometry = "scatter"
	GeomMetric  Geometry = "metric"
)

// ChartResult is the canonical response every rendering surface consumes.
type ChartResult struct {
	ChartType ChartType  `json:"chartType"`
	X         XDimension `json:"x"`
	Series    []Series   `json:"series"`
	Meta      ResultMeta `json:"meta"`
}

type XDimension struct {
	ID       string     `json:"id"`
	Type     XKind      `json:"type"`
	Bucket   TimeBucket `json:"bucket,omitempty"`
	Timezone string     `json:"timezone,omitempty"`
}

type Series struct {
	ID          string         `json:"id"`
	Label       string         `json:"label"`
	Axis        string         `json:"axis,omitempty"`
	Unit        Unit           `json:"unit"`
	Geometry    Geometry       `json:"geometry"`
	StackID     string         `json:"stackId,omitempty"`
	Color       string         `json:"color,omitempty"`
	Data        []DataPoint    `json:"data"`
	Summary     *SeriesSummary `json:"summary,omitempty"`
	Annotations []Annotation   `json:"annotations,omitempty"`
}

// DataPoint is one cell of a series. Group is the row key for matrix series.
type DataPoint struct {
	X          string   `json:"x"`
	Y          *float64 `json:"y,omitempty"`
	Value      *float64 `json:"value,omitempty"`
	Group      string   `json:"group,omitempty"`
	Coverage   *float64 `json:"coverage,omitempty"`
	Comparison *float64 `json:"comparison,omitempty"`
	Target     *float64 `json:"target,omitempty"`
}

// Number returns Y, falling back to Value.
func (p DataPoint) Number() (float64, bool) {
	if p.Y != nil {
		return *p.Y, true
	}
	if p.Value != nil {
		return *p.Value, true
	}
	return 0, false
}

type SeriesSummary struct {
	Total  *float64 `json:"total,omitempty"`
	Latest *float64 `json:"latest,omitempty"`
	Peak   *float64 `json:"peak,omitempty"`
	Label  string   `json:"label,omitempty"`
}

type Annotation struct {
	X     string `json:"x"`
	Label string `json:"label"`
	Kind  string `json:"kind,omitempty"`
}

type ResultMeta struct {
	Timezone string            `json:"timezone,omitempty"`
	Coverage []CoveragePoint   `json:"coverage,omitempty"`
	Surges   []SurgeAnnotation `json:"surges,omitempty"`
	Summary  *ResultSummary    `json:"summary,omitempty"`
	Partial  bool              `json:"partial,omitempty"`
}

type CoveragePoint struct {
	X        string  `json:"x"`
	Coverage float64 `json:"coverage"`
}

type SurgeAnnotation struct {
	X        string  `json:"x"`
	SeriesID string  `json:"seriesId,omitempty"`
	Ratio    float64 `json:"ratio"`
	Label    string  `json:"label,omitempty"`
}

type ResultSummary struct {
	Headline string `json:"headline,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// IsMatrix reports whether the result is laid out as a row x column grid.
func (r ChartResult) IsMatrix() bool {
	return r.ChartType == ChartHeatmap || r.X.Type == XMatrix
}

// F returns a pointer to v, for building optional numeric fields.
func F(v float64) *float64 {
	return &v
}
