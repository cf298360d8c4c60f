package domain

import (
	"math"
	"sort"
)

// RiskDistribution counts label rows per risk level. All three levels are
// always present, zero-filled.
type RiskDistribution struct {
	Low    int `json:"Low"`
	Medium int `json:"Medium"`
	High   int `json:"High"`
}

// Total returns the number of rows counted.
func (d RiskDistribution) Total() int { return d.Low + d.Medium + d.High }

// Count returns the count for one level.
func (d RiskDistribution) Count(l RiskLevel) int {
	switch l {
	case RiskLow:
		return d.Low
	case RiskMedium:
		return d.Medium
	case RiskHigh:
		return d.High
	}
	return 0
}

// RiskCount is one bar of the distribution chart.
type RiskCount struct {
	RiskLevel RiskLevel `json:"risk_level"`
	Count     int       `json:"count"`
	Color     string    `json:"color"`
}

// Bars returns the distribution in Low, Medium, High order.
func (d RiskDistribution) Bars() []RiskCount {
	out := make([]RiskCount, len(RiskLevels))
	for i, l := range RiskLevels {
		out[i] = RiskCount{RiskLevel: l, Count: d.Count(l), Color: l.Color()}
	}
	return out
}

func (d *RiskDistribution) add(l RiskLevel) {
	switch l {
	case RiskLow:
		d.Low++
	case RiskMedium:
		d.Medium++
	case RiskHigh:
		d.High++
	}
}

// RiskDistributionFor counts the label rows of exactly one period.
func RiskDistributionFor(labels []CanonicalRow, period Period) RiskDistribution {
	var d RiskDistribution
	for i := range labels {
		if labels[i].Period == period {
			d.add(labels[i].RiskLevel)
		}
	}
	return d
}

// RiskCounts counts label rows across all periods.
func RiskCounts(labels []CanonicalRow) RiskDistribution {
	var d RiskDistribution
	for i := range labels {
		d.add(labels[i].RiskLevel)
	}
	return d
}

// HighRiskRegions returns the sorted, de-duplicated regions labeled High in
// period.
func HighRiskRegions(labels []CanonicalRow, period Period) []string {
	seen := make(map[string]bool)
	var out []string
	for i := range labels {
		row := labels[i]
		if row.Period != period || row.RiskLevel != RiskHigh || seen[row.Region] {
			continue
		}
		seen[row.Region] = true
		out = append(out, row.Region)
	}
	sort.Strings(out)
	return out
}

// TopStressor is the stressor with the highest mean value in a region.
type TopStressor struct {
	Region    string  `json:"region"`
	Stressor  string  `json:"stressor"`
	MeanValue float64 `json:"mean_value"` // rounded to three decimals for display
	Mean      float64 `json:"-"`          // unrounded group mean
	Samples   int     `json:"samples"`
}

type stressorGroup struct {
	region   string
	stressor string
	sum      float64
	n        int
}

func (g stressorGroup) mean() float64 { return g.sum / float64(g.n) }

// TopStressorPerRegion ranks stressors for each target region in period and
// keeps the one with the highest mean value. Ties go to the stressor that
// sorts first by name. Target regions without any valid pair row for the period
// are left out; an empty result is not an error. targets is never derived
// here: callers pass HighRiskRegions or any other selection.
func TopStressorPerRegion(pairs []CanonicalPairRow, period Period, targets map[string]bool) []TopStressor {
	if len(targets) == 0 {
		return nil
	}

	type key struct{ region, stressor string }
	groups := make(map[key]*stressorGroup)
	var ordered []*stressorGroup
	for i := range pairs {
		p := pairs[i]
		if p.Period != period || !targets[p.Region] || p.Value == nil {
			continue
		}
		k := key{p.Region, p.Stressor}
		g, ok := groups[k]
		if !ok {
			g = &stressorGroup{region: p.Region, stressor: p.Stressor}
			groups[k] = g
			ordered = append(ordered, g)
		}
		g.sum += *p.Value
		g.n++
	}

	best := make(map[string]*stressorGroup)
	for _, g := range ordered {
		cur, ok := best[g.region]
		if !ok || g.mean() > cur.mean() || (g.mean() == cur.mean() && g.stressor < cur.stressor) {
			best[g.region] = g
		}
	}

	out := make([]TopStressor, 0, len(best))
	for _, g := range best {
		m := g.mean()
		out = append(out, TopStressor{
			Region:    g.region,
			Stressor:  g.stressor,
			MeanValue: Round3(m),
			Mean:      m,
			Samples:   g.n,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Region < out[j].Region })
	return out
}

// RegionSet builds a lookup set from a list of regions.
func RegionSet(regions []string) map[string]bool {
	set := make(map[string]bool, len(regions))
	for _, r := range regions {
		set[r] = true
	}
	return set
}

// Round3 rounds to three decimal places, halves to even.
func Round3(v float64) float64 {
	return math.RoundToEven(v*1000) / 1000
}
