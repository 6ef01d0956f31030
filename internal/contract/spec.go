package contract

import "time"

type Aggregation string

const (
	AggCount         Aggregation = "count"
	AggCountDistinct Aggregation = "count_distinct"
	AggSum           Aggregation = "sum"
	AggAvg           Aggregation = "avg"
	AggMin           Aggregation = "min"
	AggMax           Aggregation = "max"
	AggRatePerMinute Aggregation = "rate_per_minute"
	AggP50           Aggregation = "p50"
	AggP95           Aggregation = "p95"
)

type TimeBucket string

const (
	BucketMinute TimeBucket = "MINUTE"
	BucketHour   TimeBucket = "HOUR"
	BucketDay    TimeBucket = "DAY"
	BucketWeek   TimeBucket = "WEEK"
	BucketMonth  TimeBucket = "MONTH"
)

type ChartType string

const (
	ChartLine          ChartType = "line"
	ChartArea          ChartType = "area"
	ChartColumn        ChartType = "column"
	ChartBar           ChartType = "bar"
	ChartStackedColumn ChartType = "stacked_column"
	ChartStackedArea   ChartType = "stacked_area"
	ChartScatter       ChartType = "scatter"
	ChartHeatmap       ChartType = "heatmap"
	ChartMetric        ChartType = "metric"
)

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ChartSpec is the declarative request sent to the compute backend.
type ChartSpec struct {
	ID          string           `json:"id"`
	DatasetID   string           `json:"datasetId"`
	Measures    []MeasureSpec    `json:"measures"`
	Dimensions  []DimensionSpec  `json:"dimensions"`
	Splits      []SplitSpec      `json:"splits,omitempty"`
	Filters     *FilterGroup     `json:"filters,omitempty"`
	TimeWindow  TimeWindow       `json:"timeWindow"`
	ChartType   ChartType        `json:"chartType"`
	Display     DisplayHints     `json:"display"`
	Interaction InteractionHints `json:"interaction"`
}

type MeasureSpec struct {
	ID          string      `json:"id"`
	Aggregation Aggregation `json:"aggregation"`
	EventType   string      `json:"eventType,omitempty"`
}

type DimensionSpec struct {
	ID     string        `json:"id"`
	Column string        `json:"column"`
	Bucket TimeBucket    `json:"bucket,omitempty"`
	Sort   SortDirection `json:"sort,omitempty"`
}

// SplitSpec fans a measure out into one series per value of DimensionID.
type SplitSpec struct {
	DimensionID string        `json:"dimensionId"`
	Limit       int           `json:"limit,omitempty"`
	Sort        SortDirection `json:"sort,omitempty"`
}

type TimeWindow struct {
	From     time.Time  `json:"from"`
	To       time.Time  `json:"to"`
	Bucket   TimeBucket `json:"bucket,omitempty"`
	Timezone string     `json:"timezone,omitempty"`
}

type DisplayHints struct {
	Title     string `json:"title,omitempty"`
	Legend    bool   `json:"legend"`
	Stacked   bool   `json:"stacked,omitempty"`
	Normalize bool   `json:"normalize,omitempty"`
}

type InteractionHints struct {
	Zoom    bool `json:"zoom,omitempty"`
	Tooltip bool `json:"tooltip,omitempty"`
	Brush   bool `json:"brush,omitempty"`
}

// MeasureIDs returns the ids of the spec's measures in declaration order.
func (s ChartSpec) MeasureIDs() []string {
	ids := make([]string, 0, len(s.Measures))
	for _, m := range s.Measures {
		ids = append(ids, m.ID)
	}
	return ids
}

// HasSplit reports whether the spec fans out by the given dimension.
func (s ChartSpec) HasSplit(dimensionID string) bool {
	for _, sp := range s.Splits {
		if sp.DimensionID == dimensionID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy. Templates are never handed out directly; every
// caller that intends to mutate a spec works on a clone.
func (s ChartSpec) Clone() ChartSpec {
	out := s
	if s.Measures != nil {
		out.Measures = append([]MeasureSpec(nil), s.Measures...)
	}
	if s.Dimensions != nil {
		out.Dimensions = append([]DimensionSpec(nil), s.Dimensions...)
	}
	if s.Splits != nil {
		out.Splits = append([]SplitSpec(nil), s.Splits...)
	}
	if s.Filters != nil {
		g := s.Filters.clone()
		out.Filters = &g
	}
	return out
}
