package domain

import (
	"sort"
)

// Summary holds the KPI cards shown on the home page.
type Summary struct {
	RegionCount int    `json:"region_count"`
	RecordCount int    `json:"record_count"`
	FirstPeriod Period `json:"first_period"`
	LastPeriod  Period `json:"last_period"`
}

// Summarize computes the KPIs of a label table. An empty table yields zero
// periods.
func Summarize(labels []CanonicalRow) Summary {
	s := Summary{RecordCount: len(labels)}
	regions := make(map[string]bool)
	for i := range labels {
		row := labels[i]
		regions[row.Region] = true
		if s.FirstPeriod.IsZero() || row.Period.Before(s.FirstPeriod) {
			s.FirstPeriod = row.Period
		}
		if s.LastPeriod.IsZero() || s.LastPeriod.Before(row.Period) {
			s.LastPeriod = row.Period
		}
	}
	s.RegionCount = len(regions)
	return s
}

// Regions returns the sorted distinct regions of a label table.
func Regions(labels []CanonicalRow) []string {
	seen := make(map[string]bool)
	var out []string
	for i := range labels {
		if r := labels[i].Region; !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	sort.Strings(out)
	return out
}

// PairRegions returns the sorted distinct regions of a pairwise table.
func PairRegions(pairs []CanonicalPairRow) []string {
	seen := make(map[string]bool)
	var out []string
	for i := range pairs {
		if r := pairs[i].Region; !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	sort.Strings(out)
	return out
}

// Periods returns the sorted distinct periods of a label table.
func Periods(labels []CanonicalRow) []Period {
	seen := make(map[Period]bool)
	var out []Period
	for i := range labels {
		if p := labels[i].Period; !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Years returns the sorted distinct years of a label table.
func Years(labels []CanonicalRow) []int {
	var out []int
	for _, p := range Periods(labels) {
		if len(out) == 0 || out[len(out)-1] != p.Year {
			out = append(out, p.Year)
		}
	}
	return out
}

// MonthsInYear returns the sorted months present for year.
func MonthsInYear(labels []CanonicalRow, year int) []int {
	var out []int
	for _, p := range Periods(labels) {
		if p.Year == year {
			out = append(out, int(p.Month))
		}
	}
	return out
}

// LatestPeriod returns the most recent period, or false for an empty table.
func LatestPeriod(labels []CanonicalRow) (Period, bool) {
	s := Summarize(labels)
	return s.LastPeriod, !s.LastPeriod.IsZero()
}

// StressorMean is the mean pairwise value of one stressor in one region.
type StressorMean struct {
	Region   string  `json:"region"`
	Stressor string  `json:"stressor"`
	Mean     float64 `json:"mean"`
	Samples  int     `json:"samples"`
}

// StressorMeans averages valid pairwise values per region and stressor over
// all periods, restricted to regions. Output is ordered by region, then
// stressor.
func StressorMeans(pairs []CanonicalPairRow, regions map[string]bool) []StressorMean {
	type key struct{ region, stressor string }
	acc := make(map[key]*StressorMean)
	for i := range pairs {
		p := pairs[i]
		if !regions[p.Region] || p.Value == nil {
			continue
		}
		k := key{p.Region, p.Stressor}
		m, ok := acc[k]
		if !ok {
			m = &StressorMean{Region: p.Region, Stressor: p.Stressor}
			acc[k] = m
		}
		m.Mean += *p.Value
		m.Samples++
	}
	out := make([]StressorMean, 0, len(acc))
	for _, m := range acc {
		m.Mean = m.Mean / float64(m.Samples)
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Region != out[j].Region {
			return out[i].Region < out[j].Region
		}
		return out[i].Stressor < out[j].Stressor
	})
	return out
}

// SeriesPoint is one point of a per-region monthly line chart.
type SeriesPoint struct {
	Region  string  `json:"region"`
	Period  Period  `json:"period"`
	Mean    float64 `json:"mean"`
	Samples int     `json:"samples"`
}

// MonthlyMeans averages one integrated measure per region and period,
// restricted to regions. Rows without the measure are skipped. Output is
// ordered by region, then period.
func MonthlyMeans(rows []IntegratedRow, measure string, regions map[string]bool) []SeriesPoint {
	type key struct {
		region string
		period Period
	}
	acc := make(map[key]*SeriesPoint)
	for i := range rows {
		row := rows[i]
		if !regions[row.Region] {
			continue
		}
		v, ok := row.Measures[measure]
		if !ok {
			continue
		}
		k := key{row.Region, row.Period}
		pt, ok := acc[k]
		if !ok {
			pt = &SeriesPoint{Region: row.Region, Period: row.Period}
			acc[k] = pt
		}
		pt.Mean += v
		pt.Samples++
	}
	out := make([]SeriesPoint, 0, len(acc))
	for _, pt := range acc {
		pt.Mean = pt.Mean / float64(pt.Samples)
		out = append(out, *pt)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Region != out[j].Region {
			return out[i].Region < out[j].Region
		}
		return out[i].Period.Before(out[j].Period)
	})
	return out
}

// IntegratedRegions returns the sorted distinct regions of an integrated table.
func IntegratedRegions(rows []IntegratedRow) []string {
	seen := make(map[string]bool)
	var out []string
	for i := range rows {
		if r := rows[i].Region; !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	sort.Strings(out)
	return out
}

// MapPoint is one bubble on the risk map.
type MapPoint struct {
	Region    string    `json:"region"`
	Period    Period    `json:"period"`
	RiskLevel RiskLevel `json:"risk_level"`
	Color     string    `json:"color"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Bubble    float64   `json:"bubble"`
}

// MapOptions controls bubble sizing.
type MapOptions struct {
	// BubbleMeasure is the label measure scaled into bubble size.
	BubbleMeasure string
	// BubbleScale multiplies the measure.
	BubbleScale float64
}

// DefaultMapOptions sizes bubbles by R_sum times 15.
func DefaultMapOptions() MapOptions {
	return MapOptions{BubbleMeasure: "R_sum", BubbleScale: 15}
}

// MapPoints joins label rows of period with region coordinates. A nil or
// empty regions set selects every region. Unmapped regions are omitted, not
// reported; rows without the bubble measure get size 0.
func MapPoints(labels []CanonicalRow, period Period, regions map[string]bool, opts MapOptions) []MapPoint {
	var out []MapPoint
	for i := range labels {
		row := labels[i]
		if row.Period != period {
			continue
		}
		if len(regions) > 0 && !regions[row.Region] {
			continue
		}
		coord, ok := LookupRegion(row.Region)
		if !ok {
			continue
		}
		out = append(out, MapPoint{
			Region:    row.Region,
			Period:    row.Period,
			RiskLevel: row.RiskLevel,
			Color:     row.RiskLevel.Color(),
			Lat:       coord.Lat,
			Lon:       coord.Lon,
			Bubble:    row.Measures[opts.BubbleMeasure] * opts.BubbleScale,
		})
	}
	return out
}

// UnmappedRegions lists label regions missing from the coordinate table.
func UnmappedRegions(labels []CanonicalRow) []string {
	var out []string
	for _, r := range Regions(labels) {
		if _, ok := LookupRegion(r); !ok {
			out = append(out, r)
		}
	}
	return out
}
