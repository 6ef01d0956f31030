package preset

import "github.com/nixlim/presetdeck/internal/contract"

var (
	last1h  = contract.TimeRangeOption{ID: "last_1h", Label: "Last hour", Amount: 1, Unit: contract.UnitHour, Bucket: contract.BucketMinute}
	last24h = contract.TimeRangeOption{ID: "last_24h", Label: "Last 24 hours", Amount: 24, Unit: contract.UnitHour, Bucket: contract.BucketHour}
	last7d  = contract.TimeRangeOption{ID: "last_7d", Label: "Last 7 days", Amount: 7, Unit: contract.UnitDay, Bucket: contract.BucketDay}
	last30d = contract.TimeRangeOption{ID: "last_30d", Label: "Last 30 days", Amount: 30, Unit: contract.UnitDay, Bucket: contract.BucketDay}
	last4w  = contract.TimeRangeOption{ID: "last_4w", Label: "Last 4 weeks", Amount: 4, Unit: contract.UnitWeek, Bucket: contract.BucketWeek}
	last3m  = contract.TimeRangeOption{ID: "last_3m", Label: "Last 3 months", Amount: 3, Unit: contract.UnitMonth, Bucket: contract.BucketWeek}
)

func timeDimension(bucket contract.TimeBucket) contract.DimensionSpec {
	return contract.DimensionSpec{ID: "ts", Column: "occurred_at", Bucket: bucket, Sort: contract.SortAsc}
}

// Builtin returns the presets that ship with the binary.
func Builtin() []contract.PresetDefinition {
	return []contract.PresetDefinition{
		{
			ID:          "live_flow",
			Title:       "Live flow",
			Description: "Visitors moving through the venue over time.",
			Icon:        "~",
			Category:    "traffic",
			Fixture:     "live_flow",
			Template: contract.ChartSpec{
				ID:        "live_flow",
				DatasetID: "footfall",
				Measures: []contract.MeasureSpec{
					{ID: "visitors", Aggregation: contract.AggCountDistinct},
					{ID: "entries", Aggregation: contract.AggCount, EventType: "entry"},
					{ID: "exits", Aggregation: contract.AggCount, EventType: "exit"},
				},
				Dimensions:  []contract.DimensionSpec{timeDimension(contract.BucketHour)},
				Splits:      []contract.SplitSpec{{DimensionID: "zone", Limit: 6, Sort: contract.SortDesc}},
				TimeWindow:  contract.TimeWindow{Bucket: contract.BucketHour, Timezone: "UTC"},
				ChartType:   contract.ChartLine,
				Display:     contract.DisplayHints{Title: "Live flow", Legend: true},
				Interaction: contract.InteractionHints{Zoom: true, Tooltip: true},
			},
			Overrides: contract.OverrideConfig{
				TimeRange: &contract.TimeRangeConfig{
					Options: []contract.TimeRangeOption{last1h, last24h, last7d},
					Default: last24h.ID,
				},
				Split: &contract.SplitToggle{DimensionID: "zone", Label: "By zone"},
				Measure: &contract.MeasureOptionConfig{
					Options: []contract.MeasureOption{
						{ID: "visitors", Label: "Visitors", MeasureIDs: []string{"visitors"}},
						{ID: "flow", Label: "Entries and exits", MeasureIDs: []string{"entries", "exits"}},
					},
					Default: "visitors",
				},
			},
		},
		{
			ID:          "event_mix",
			Title:       "Event mix",
			Description: "Share of each event type in the window.",
			Icon:        "#",
			Category:    "events",
			Fixture:     "event_mix",
			Template: contract.ChartSpec{
				ID:        "event_mix",
				DatasetID: "events",
				Measures: []contract.MeasureSpec{
					{ID: "events", Aggregation: contract.AggCount},
					{ID: "event_rate", Aggregation: contract.AggRatePerMinute},
				},
				Dimensions:  []contract.DimensionSpec{timeDimension(contract.BucketHour)},
				Splits:      []contract.SplitSpec{{DimensionID: "event_type", Limit: 5, Sort: contract.SortDesc}},
				Filters:     contract.And(contract.Where("event_type", contract.OpNeq, "heartbeat")),
				TimeWindow:  contract.TimeWindow{Bucket: contract.BucketHour, Timezone: "UTC"},
				ChartType:   contract.ChartStackedColumn,
				Display:     contract.DisplayHints{Title: "Event mix", Legend: true, Stacked: true},
				Interaction: contract.InteractionHints{Tooltip: true},
			},
			Overrides: contract.OverrideConfig{
				TimeRange: &contract.TimeRangeConfig{
					Options: []contract.TimeRangeOption{last1h, last24h, last7d},
					Default: last24h.ID,
				},
				Measure: &contract.MeasureOptionConfig{
					Options: []contract.MeasureOption{
						{ID: "volume", Label: "Volume", MeasureIDs: []string{"events"}},
						{ID: "rate", Label: "Events per minute", MeasureIDs: []string{"event_rate"}},
					},
					Default: "volume",
				},
			},
		},
		{
			ID:          "dwell_time",
			Title:       "Dwell time",
			Description: "How long visitors stay, median and tail.",
			Icon:        "@",
			Category:    "engagement",
			Fixture:     "dwell_time",
			Template: contract.ChartSpec{
				ID:        "dwell_time",
				DatasetID: "sessions",
				Measures: []contract.MeasureSpec{
					{ID: "dwell_p50", Aggregation: contract.AggP50},
					{ID: "dwell_p95", Aggregation: contract.AggP95},
				},
				Dimensions:  []contract.DimensionSpec{timeDimension(contract.BucketDay)},
				Splits:      []contract.SplitSpec{{DimensionID: "site", Limit: 4}},
				TimeWindow:  contract.TimeWindow{Bucket: contract.BucketDay, Timezone: "UTC"},
				ChartType:   contract.ChartArea,
				Display:     contract.DisplayHints{Title: "Dwell time", Legend: true},
				Interaction: contract.InteractionHints{Zoom: true, Tooltip: true, Brush: true},
			},
			Overrides: contract.OverrideConfig{
				TimeRange: &contract.TimeRangeConfig{
					Options: []contract.TimeRangeOption{last7d, last30d, last3m},
					Default: last7d.ID,
				},
				Split: &contract.SplitToggle{DimensionID: "site", Label: "By site"},
			},
		},
		{
			ID:          "engagement_heatmap",
			Title:       "Engagement heatmap",
			Description: "Visitors by weekday and hour of day.",
			Icon:        "%",
			Category:    "engagement",
			Fixture:     "engagement_heatmap",
			Template: contract.ChartSpec{
				ID:        "engagement_heatmap",
				DatasetID: "footfall",
				Measures: []contract.MeasureSpec{
					{ID: "visitors", Aggregation: contract.AggCountDistinct},
				},
				Dimensions: []contract.DimensionSpec{
					{ID: "weekday", Column: "occurred_weekday"},
					{ID: "hour", Column: "occurred_hour", Sort: contract.SortAsc},
				},
				TimeWindow:  contract.TimeWindow{Bucket: contract.BucketDay, Timezone: "UTC"},
				ChartType:   contract.ChartHeatmap,
				Display:     contract.DisplayHints{Title: "Engagement heatmap"},
				Interaction: contract.InteractionHints{Tooltip: true},
			},
			Overrides: contract.OverrideConfig{
				TimeRange: &contract.TimeRangeConfig{
					Options: []contract.TimeRangeOption{last7d, last4w},
					Default: last4w.ID,
				},
			},
		},
		{
			ID:          "conversion_rate",
			Title:       "Conversion rate",
			Description: "Share of visitors that reached checkout, against visitor volume.",
			Icon:        "$",
			Category:    "conversion",
			Fixture:     "conversion_rate",
			Template: contract.ChartSpec{
				ID:        "conversion_rate",
				DatasetID: "footfall",
				Measures: []contract.MeasureSpec{
					{ID: "conversion", Aggregation: contract.AggAvg, EventType: "checkout"},
					{ID: "visitors", Aggregation: contract.AggCountDistinct},
				},
				Dimensions:  []contract.DimensionSpec{timeDimension(contract.BucketDay)},
				TimeWindow:  contract.TimeWindow{Bucket: contract.BucketDay, Timezone: "UTC"},
				ChartType:   contract.ChartLine,
				Display:     contract.DisplayHints{Title: "Conversion rate", Legend: true},
				Interaction: contract.InteractionHints{Tooltip: true},
			},
			Overrides: contract.OverrideConfig{
				TimeRange: &contract.TimeRangeConfig{
					Options: []contract.TimeRangeOption{last24h, last7d, last30d},
					Default: last7d.ID,
				},
				Measure: &contract.MeasureOptionConfig{
					Options: []contract.MeasureOption{
						{ID: "both", Label: "Rate and volume", MeasureIDs: []string{"conversion", "visitors"}},
						{ID: "rate", Label: "Rate only", MeasureIDs: []string{"conversion"}},
					},
					Default: "both",
				},
			},
		},
	}
}

// Default returns the catalogue of built-in presets. It panics if a built-in
// definition is malformed, which is a programming error.
func Default() *Catalogue {
	c, err := NewCatalogue(Builtin()...)
	if err != nil {
		panic(err)
	}
	return c
}
