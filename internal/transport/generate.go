package transport

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/minio/highwayhash"
	"github.com/nixlim/presetdeck/internal/contract"
)

// Generator builds a deterministic result for a spec. The same spec always
// yields the same payload.
type Generator func(spec contract.ChartSpec) contract.ChartResult

const maxFixturePoints = 400

var noiseKey = []byte("presetdeck/fixture-noise/v1.....")

var fallbackAnchor = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func builtinGenerators() map[string]Generator {
	return map[string]Generator{
		"live_flow":          timeSeries(true),
		"event_mix":          timeSeries(false),
		"dwell_time":         timeSeries(false),
		"conversion_rate":    timeSeries(false),
		"engagement_heatmap": heatmapGrid,
		"misaligned":         misaligned,
	}
}

var measureUnits = map[string]contract.Unit{
	"visitors":   contract.UnitPeople,
	"entries":    contract.UnitEvents,
	"exits":      contract.UnitEvents,
	"events":     contract.UnitEvents,
	"event_rate": contract.UnitEventsPerMinute,
	"dwell_p50":  contract.UnitMinutes,
	"dwell_p95":  contract.UnitMinutes,
	"conversion": contract.UnitPercentage,
}

var measureLabels = map[string]string{
	"visitors":   "Visitors",
	"entries":    "Entries",
	"exits":      "Exits",
	"events":     "Events",
	"event_rate": "Events / min",
	"dwell_p50":  "Median dwell",
	"dwell_p95":  "95th pct dwell",
	"conversion": "Conversion",
}

var splitValues = map[string][]string{
	"zone":       {"Lobby", "Atrium", "Food court", "Gallery", "Terrace", "Car park", "Rooftop"},
	"site":       {"North", "South", "East"},
	"event_type": {"entry", "exit", "dwell", "purchase", "checkout", "return"},
}

func unitFor(m contract.MeasureSpec) contract.Unit {
	if u, ok := measureUnits[m.ID]; ok {
		return u
	}
	switch m.Aggregation {
	case contract.AggCountDistinct:
		return contract.UnitPeople
	case contract.AggCount:
		return contract.UnitEvents
	case contract.AggRatePerMinute:
		return contract.UnitEventsPerMinute
	case contract.AggP50, contract.AggP95:
		return contract.UnitMinutes
	}
	return contract.UnitCount
}

func labelFor(m contract.MeasureSpec) string {
	if l, ok := measureLabels[m.ID]; ok {
		return l
	}
	return m.ID
}

// noise returns a stable pseudo-random value in [0,1).
func noise(seed string, i int) float64 {
	h := highwayhash.Sum64([]byte(seed+"/"+strconv.Itoa(i)), noiseKey)
	return float64(h%10000) / 10000
}

// daily is a smooth curve over the day peaking mid-afternoon, with a weekend lift.
func daily(t time.Time) float64 {
	v := 0.5 - 0.5*math.Cos(2*math.Pi*float64(t.Hour()-4)/24)
	if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
		v *= 1.3
	}
	return v
}

func valueFor(unit contract.Unit, agg contract.Aggregation, t time.Time, n float64) float64 {
	d := daily(t)
	var v float64
	switch unit {
	case contract.UnitPeople:
		v = 40 + 160*d + 30*n
	case contract.UnitEvents:
		v = 80 + 300*d + 60*n
	case contract.UnitEventsPerMinute:
		v = 1 + 5*d + n
	case contract.UnitMinutes:
		v = 12 + 6*d + 4*n
		if agg == contract.AggP95 {
			v *= 2.8
		}
	case contract.UnitPercentage:
		v = 2 + 5*d + n
	default:
		v = 10 + 20*d + 5*n
	}
	return math.Round(v*100) / 100
}

func step(t time.Time, b contract.TimeBucket) time.Time {
	switch b {
	case contract.BucketMinute:
		return t.Add(time.Minute)
	case contract.BucketDay:
		return t.AddDate(0, 0, 1)
	case contract.BucketWeek:
		return t.AddDate(0, 0, 7)
	case contract.BucketMonth:
		return t.AddDate(0, 1, 0)
	}
	return t.Add(time.Hour)
}

func bucketKeys(w contract.TimeWindow) []time.Time {
	from, to := w.From, w.To
	if from.IsZero() || to.IsZero() {
		to = fallbackAnchor
		from = to.Add(-24 * time.Hour)
	}
	if !from.Before(to) {
		return []time.Time{from.UTC()}
	}
	var keys []time.Time
	for t := from; t.Before(to) && len(keys) < maxFixturePoints; t = step(t, w.Bucket) {
		keys = append(keys, t.UTC())
	}
	return keys
}

func timeDimensionID(spec contract.ChartSpec) string {
	for _, d := range spec.Dimensions {
		if d.Bucket != "" {
			return d.ID
		}
	}
	return "ts"
}

func slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "_")
}

// timeSeries generates one series per measure, fanned out by the first split.
// Live fixtures also carry an in-progress trailing bucket and surge markers.
func timeSeries(live bool) Generator {
	return func(spec contract.ChartSpec) contract.ChartResult {
		keys := bucketKeys(spec.TimeWindow)
		bucket := spec.TimeWindow.Bucket
		if bucket == "" {
			bucket = contract.BucketHour
		}
		tz := spec.TimeWindow.Timezone
		if tz == "" {
			tz = "UTC"
		}

		var splits []string
		if len(spec.Splits) > 0 {
			sp := spec.Splits[0]
			splits = splitValues[sp.DimensionID]
			if len(splits) == 0 {
				splits = []string{"a", "b"}
			}
			if sp.Limit > 0 && len(splits) > sp.Limit {
				splits = splits[:sp.Limit]
			}
		}

		r := contract.ChartResult{
			ChartType: spec.ChartType,
			X:         contract.XDimension{ID: timeDimensionID(spec), Type: contract.XTime, Bucket: bucket},
			Meta:      contract.ResultMeta{Timezone: tz},
		}

		for _, m := range spec.Measures {
			unit := unitFor(m)
			groups := splits
			if groups == nil {
				groups = []string{""}
			}
			for gi, g := range groups {
				s := contract.Series{ID: m.ID, Label: labelFor(m), Unit: unit}
				scale := 1.0
				if g != "" {
					s.ID = m.ID + "." + slug(g)
					s.Label = fmt.Sprintf("%s (%s)", labelFor(m), g)
					scale = 1 / (float64(gi) + 1.5)
				}
				seed := spec.DatasetID + "/" + s.ID
				for i, k := range keys {
					v := valueFor(unit, m.Aggregation, k, noise(seed, i))
					if unit != contract.UnitPercentage && unit != contract.UnitMinutes {
						v = math.Round(v*scale*100) / 100
					}
					s.Data = append(s.Data, contract.DataPoint{X: k.Format(time.RFC3339), Y: contract.F(v)})
				}
				r.Series = append(r.Series, s)
			}
		}

		if live && len(keys) > 0 {
			for i, k := range keys {
				c := 1.0
				if i == len(keys)-1 {
					c = 0.8
				}
				r.Meta.Coverage = append(r.Meta.Coverage, contract.CoveragePoint{X: k.Format(time.RFC3339), Coverage: c})
			}
			if len(r.Series) > 0 {
				r.Meta.Surges = surges(r.Series[0], 1.4, 3)
			}
		}

		if len(r.Series) > 0 {
			if sum := summarize(r.Series[0].Data); sum != nil {
				r.Meta.Summary = &contract.ResultSummary{
					Headline: fmt.Sprintf("%s peaked at %.0f", r.Series[0].Label, *sum.Peak),
					Detail:   fmt.Sprintf("%d buckets from %s", len(keys), keys[0].Format(time.RFC3339)),
				}
			}
		}
		return r
	}
}

// surges marks up to limit points whose value exceeds ratio times the mean.
func surges(s contract.Series, ratio float64, limit int) []contract.SurgeAnnotation {
	var total float64
	n := 0
	for _, p := range s.Data {
		if v, ok := p.Number(); ok {
			total += v
			n++
		}
	}
	if n == 0 || total == 0 {
		return nil
	}
	mean := total / float64(n)

	var out []contract.SurgeAnnotation
	for _, p := range s.Data {
		v, ok := p.Number()
		if !ok || v <= mean*ratio {
			continue
		}
		out = append(out, contract.SurgeAnnotation{
			X:        p.X,
			SeriesID: s.ID,
			Ratio:    math.Round(v/mean*100) / 100,
			Label:    "Surge",
		})
		if len(out) == limit {
			break
		}
	}
	return out
}

var (
	weekdays = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	hours    = func() []string {
		out := make([]string, 24)
		for h := range out {
			out[h] = fmt.Sprintf("%02d", h)
		}
		return out
	}()
)

// heatmapGrid generates a dense weekday x hour grid for the first measure.
func heatmapGrid(spec contract.ChartSpec) contract.ChartResult {
	m := contract.MeasureSpec{ID: "visitors", Aggregation: contract.AggCountDistinct}
	if len(spec.Measures) > 0 {
		m = spec.Measures[0]
	}

	days := 7.0
	if !spec.TimeWindow.From.IsZero() && spec.TimeWindow.To.After(spec.TimeWindow.From) {
		days = spec.TimeWindow.To.Sub(spec.TimeWindow.From).Hours() / 24
	}
	weeks := math.Max(days/7, 1)

	s := contract.Series{ID: m.ID, Label: labelFor(m), Unit: unitFor(m), Geometry: contract.GeomHeatmap}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) // a Monday
	for wi, wd := range weekdays {
		for h, col := range hours {
			t := base.AddDate(0, 0, wi).Add(time.Duration(h) * time.Hour)
			v := valueFor(s.Unit, m.Aggregation, t, noise(spec.DatasetID+"/"+wd, h)) * weeks
			s.Data = append(s.Data, contract.DataPoint{X: col, Group: wd, Value: contract.F(math.Round(v))})
		}
	}

	tz := spec.TimeWindow.Timezone
	if tz == "" {
		tz = "UTC"
	}
	return contract.ChartResult{
		ChartType: contract.ChartHeatmap,
		X:         contract.XDimension{ID: "hour", Type: contract.XMatrix},
		Series:    []contract.Series{s},
		Meta:      contract.ResultMeta{Timezone: tz},
	}
}

// misaligned produces two series whose x keys disagree, for exercising the
// validation path end to end.
func misaligned(spec contract.ChartSpec) contract.ChartResult {
	return contract.ChartResult{
		ChartType: contract.ChartLine,
		X:         contract.XDimension{ID: "ts", Type: contract.XTime, Bucket: contract.BucketHour},
		Series: []contract.Series{
			{ID: "a", Unit: contract.UnitCount, Data: []contract.DataPoint{
				{X: "2024-01-01T00:00:00Z", Y: contract.F(1)},
				{X: "2024-01-01T01:00:00Z", Y: contract.F(2)},
			}},
			{ID: "b", Unit: contract.UnitCount, Data: []contract.DataPoint{
				{X: "2024-01-01T01:00:00Z", Y: contract.F(2)},
				{X: "2024-01-01T00:00:00Z", Y: contract.F(1)},
			}},
		},
	}
}
