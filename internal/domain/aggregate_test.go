package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	jan = MustPeriod(2025, 1)
	feb = MustPeriod(2025, 2)
)

func label(region string, p Period, level RiskLevel) CanonicalRow {
	return CanonicalRow{Region: region, Period: p, RiskLevel: level}
}

func pair(region string, p Period, stressor string, v float64) CanonicalPairRow {
	return CanonicalPairRow{Region: region, Period: p, Stressor: stressor, Value: f64(v)}
}

func TestRiskDistributionFor(t *testing.T) {
	labels := []CanonicalRow{
		label(testIncheon, jan, RiskHigh),
		label(testGeoje, jan, RiskHigh),
		label("Ulleungdo", jan, RiskLow),
		label(testIncheon, feb, RiskMedium),
	}

	t.Run("counts only the exact period", func(t *testing.T) {
		d := RiskDistributionFor(labels, jan)
		assert.Equal(t, RiskDistribution{Low: 1, Medium: 0, High: 2}, d)
		assert.Equal(t, 3, d.Total())
	})

	t.Run("zero fills missing levels", func(t *testing.T) {
		d := RiskDistributionFor(labels, feb)
		assert.Equal(t, RiskDistribution{Medium: 1}, d)
		bars := d.Bars()
		require.Len(t, bars, 3)
		assert.Equal(t, []RiskLevel{RiskLow, RiskMedium, RiskHigh},
			[]RiskLevel{bars[0].RiskLevel, bars[1].RiskLevel, bars[2].RiskLevel})
		assert.Equal(t, 0, bars[0].Count)
		assert.Equal(t, 1, bars[1].Count)
		assert.Equal(t, "#FFC107", bars[1].Color)
	})

	t.Run("period without rows", func(t *testing.T) {
		d := RiskDistributionFor(labels, MustPeriod(2030, 1))
		assert.Equal(t, RiskDistribution{}, d)
		assert.Len(t, d.Bars(), 3)
	})

	t.Run("sums to row count for period", func(t *testing.T) {
		for _, p := range Periods(labels) {
			n := 0
			for _, l := range labels {
				if l.Period == p {
					n++
				}
			}
			d := RiskDistributionFor(labels, p)
			assert.Equal(t, n, d.Total(), "period %s", p)
			assert.GreaterOrEqual(t, d.Low, 0)
			assert.GreaterOrEqual(t, d.Medium, 0)
			assert.GreaterOrEqual(t, d.High, 0)
		}
	})
}

func TestRiskCounts_AllPeriods(t *testing.T) {
	labels := []CanonicalRow{
		label(testIncheon, jan, RiskHigh),
		label(testIncheon, feb, RiskHigh),
		label(testGeoje, feb, RiskLow),
	}
	assert.Equal(t, RiskDistribution{Low: 1, High: 2}, RiskCounts(labels))
}

func TestHighRiskRegions(t *testing.T) {
	labels := []CanonicalRow{
		label(testIncheon, jan, RiskHigh),
		label(testGeoje, jan, RiskHigh),
		label(testIncheon, jan, RiskHigh),
		label("Ulleungdo", jan, RiskMedium),
		label("Ulleungdo", feb, RiskHigh),
	}

	assert.Equal(t, []string{testGeoje, testIncheon}, HighRiskRegions(labels, jan))
	assert.Equal(t, []string{"Ulleungdo"}, HighRiskRegions(labels, feb))
	assert.Empty(t, HighRiskRegions(labels, MustPeriod(2025, 3)))
}

func TestTopStressorPerRegion(t *testing.T) {
	t.Run("mean per group picks the max", func(t *testing.T) {
		pairs := []CanonicalPairRow{
			pair("RegionA", jan, "heat", 2.0),
			pair("RegionA", jan, "heat", 4.0),
			pair("RegionA", jan, "acidity", 1.0),
		}
		got := TopStressorPerRegion(pairs, jan, RegionSet([]string{"RegionA"}))
		require.Len(t, got, 1)
		assert.Equal(t, "RegionA", got[0].Region)
		assert.Equal(t, "heat", got[0].Stressor)
		assert.InDelta(t, 3.0, got[0].MeanValue, 1e-9)
		assert.Equal(t, 2, got[0].Samples)
	})

	t.Run("filters period and targets", func(t *testing.T) {
		pairs := []CanonicalPairRow{
			pair(testIncheon, jan, "heat", 1),
			pair(testIncheon, feb, "noise", 9),
			pair(testGeoje, jan, "noise", 5),
			pair("Ulleungdo", jan, "heat", 7),
		}
		got := TopStressorPerRegion(pairs, jan, RegionSet([]string{testIncheon, testGeoje}))
		require.Len(t, got, 2)
		assert.Equal(t, testGeoje, got[0].Region)
		assert.Equal(t, "noise", got[0].Stressor)
		assert.Equal(t, testIncheon, got[1].Region)
		assert.Equal(t, "heat", got[1].Stressor)
		for _, r := range got {
			assert.NotEqual(t, "Ulleungdo", r.Region)
		}
	})

	t.Run("tie goes to the stressor first by name", func(t *testing.T) {
		pairs := []CanonicalPairRow{
			pair(testIncheon, jan, "salinity", 1),
			pair(testIncheon, jan, "heat", 2),
			pair(testIncheon, jan, "acidity", 2),
			pair(testIncheon, jan, "salinity", 3),
		}
		got := TopStressorPerRegion(pairs, jan, RegionSet([]string{testIncheon}))
		require.Len(t, got, 1)
		assert.Equal(t, "acidity", got[0].Stressor)

		swapped := []CanonicalPairRow{
			pair(testIncheon, jan, "salinity", 2),
			pair(testIncheon, jan, "acidity", 2),
		}
		got = TopStressorPerRegion(swapped, jan, RegionSet([]string{testIncheon}))
		require.Len(t, got, 1)
		assert.Equal(t, "acidity", got[0].Stressor)
	})

	t.Run("invalid values are ignored", func(t *testing.T) {
		pairs := []CanonicalPairRow{
			{Region: testIncheon, Period: jan, Stressor: "heat"},
			pair(testIncheon, jan, "acidity", 0.5),
		}
		got := TopStressorPerRegion(pairs, jan, RegionSet([]string{testIncheon}))
		require.Len(t, got, 1)
		assert.Equal(t, "acidity", got[0].Stressor)
	})

	t.Run("rounds for display but keeps exact mean", func(t *testing.T) {
		pairs := []CanonicalPairRow{
			pair(testIncheon, jan, "heat", 1),
			pair(testIncheon, jan, "heat", 1),
			pair(testIncheon, jan, "heat", 1.0005),
		}
		got := TopStressorPerRegion(pairs, jan, RegionSet([]string{testIncheon}))
		require.Len(t, got, 1)
		assert.InDelta(t, 1.0001666, got[0].Mean, 1e-6)
		assert.Equal(t, 1.0, got[0].MeanValue)
	})

	t.Run("regions without data are omitted", func(t *testing.T) {
		pairs := []CanonicalPairRow{pair(testIncheon, jan, "heat", 1)}
		got := TopStressorPerRegion(pairs, jan, RegionSet([]string{testIncheon, testGeoje}))
		require.Len(t, got, 1)
		assert.Equal(t, testIncheon, got[0].Region)
	})

	t.Run("empty targets give empty result", func(t *testing.T) {
		pairs := []CanonicalPairRow{pair(testIncheon, jan, "heat", 1)}
		labels := []CanonicalRow{label(testIncheon, jan, RiskLow)}
		targets := RegionSet(HighRiskRegions(labels, jan))
		assert.Empty(t, targets)
		assert.Empty(t, TopStressorPerRegion(pairs, jan, targets))
	})

	t.Run("at most one row per region", func(t *testing.T) {
		var pairs []CanonicalPairRow
		for i, s := range []string{"a", "b", "c", "d"} {
			pairs = append(pairs, pair(testIncheon, jan, s, float64(i)), pair(testGeoje, jan, s, float64(-i)))
		}
		got := TopStressorPerRegion(pairs, jan, RegionSet([]string{testIncheon, testGeoje}))
		seen := map[string]bool{}
		for _, r := range got {
			assert.False(t, seen[r.Region], "duplicate region %s", r.Region)
			seen[r.Region] = true
		}
		assert.Len(t, got, 2)
	})
}

func TestRound3(t *testing.T) {
	assert.Equal(t, 1.235, Round3(1.23456))
	assert.Equal(t, -0.5, Round3(-0.50001))
	assert.Equal(t, 3.0, Round3(3))

	// Exact halves round to even.
	assert.Equal(t, 0.0, Round3(0.0005))
	assert.Equal(t, 1.062, Round3(1.0625))
	assert.Equal(t, 1.188, Round3(1.1875))
}
