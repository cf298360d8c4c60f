package domain

import "time"

// ReportStatus distinguishes the empty outcomes of a top-stressor query.
type ReportStatus string

const (
	StatusOK            ReportStatus = "ok"
	StatusNoHighRegions ReportStatus = "no_high_regions"
	StatusNoPairData    ReportStatus = "no_pair_data"
)

// PeriodReport is everything the home page shows for one month.
type PeriodReport struct {
	Period       Period           `json:"period"`
	Distribution RiskDistribution `json:"distribution"`
	HighRegions  []string         `json:"high_regions"`
	TopStressors []TopStressor    `json:"top_stressors"`
	Status       ReportStatus     `json:"status"`
	GeneratedAt  time.Time        `json:"generated_at"`
}

// BuildPeriodReport computes the distribution and, for the High regions of
// the same period, the top stressor of each.
func BuildPeriodReport(labels []CanonicalRow, pairs []CanonicalPairRow, period Period) PeriodReport {
	high := HighRiskRegions(labels, period)
	rep := PeriodReport{
		Period:       period,
		Distribution: RiskDistributionFor(labels, period),
		HighRegions:  high,
		GeneratedAt:  clock.Now().UTC(),
	}
	if rep.HighRegions == nil {
		rep.HighRegions = []string{}
	}

	switch {
	case len(high) == 0:
		rep.Status = StatusNoHighRegions
	default:
		rep.TopStressors = TopStressorPerRegion(pairs, period, RegionSet(high))
		if len(rep.TopStressors) == 0 {
			rep.Status = StatusNoPairData
		} else {
			rep.Status = StatusOK
		}
	}
	if rep.TopStressors == nil {
		rep.TopStressors = []TopStressor{}
	}
	return rep
}
