package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	labels := []CanonicalRow{
		label(testIncheon, feb, RiskHigh),
		label(testGeoje, jan, RiskLow),
		label(testIncheon, MustPeriod(2026, 3), RiskLow),
	}

	s := Summarize(labels)
	assert.Equal(t, 2, s.RegionCount)
	assert.Equal(t, 3, s.RecordCount)
	assert.Equal(t, jan, s.FirstPeriod)
	assert.Equal(t, MustPeriod(2026, 3), s.LastPeriod)

	empty := Summarize(nil)
	assert.Zero(t, empty.RecordCount)
	assert.True(t, empty.FirstPeriod.IsZero())
}

func TestPeriodSelections(t *testing.T) {
	labels := []CanonicalRow{
		label(testIncheon, MustPeriod(2026, 2), RiskHigh),
		label(testIncheon, MustPeriod(2025, 11), RiskHigh),
		label(testGeoje, MustPeriod(2025, 3), RiskHigh),
		label(testGeoje, MustPeriod(2025, 11), RiskHigh),
	}

	assert.Equal(t, []Period{MustPeriod(2025, 3), MustPeriod(2025, 11), MustPeriod(2026, 2)}, Periods(labels))
	assert.Equal(t, []int{2025, 2026}, Years(labels))
	assert.Equal(t, []int{3, 11}, MonthsInYear(labels, 2025))
	assert.Empty(t, MonthsInYear(labels, 2024))

	latest, ok := LatestPeriod(labels)
	require.True(t, ok)
	assert.Equal(t, MustPeriod(2026, 2), latest)

	_, ok = LatestPeriod(nil)
	assert.False(t, ok)

	assert.Equal(t, []string{testGeoje, testIncheon}, Regions(labels))
}

func TestStressorMeans(t *testing.T) {
	pairs := []CanonicalPairRow{
		pair(testIncheon, jan, "heat", 1),
		pair(testIncheon, feb, "heat", 3),
		pair(testIncheon, jan, "acidity", 4),
		pair(testGeoje, jan, "heat", 10),
		{Region: testIncheon, Period: jan, Stressor: "heat"},
	}

	got := StressorMeans(pairs, RegionSet([]string{testIncheon}))
	assert.Equal(t, []StressorMean{
		{Region: testIncheon, Stressor: "acidity", Mean: 4, Samples: 1},
		{Region: testIncheon, Stressor: "heat", Mean: 2, Samples: 2},
	}, got)

	assert.Empty(t, StressorMeans(pairs, nil))
	assert.Equal(t, []string{testGeoje, testIncheon}, PairRegions(pairs))
}

func TestMonthlyMeans(t *testing.T) {
	rows := []IntegratedRow{
		{Region: testIncheon, Period: feb, Measures: map[string]float64{"sst": 10}},
		{Region: testIncheon, Period: jan, Measures: map[string]float64{"sst": 8}},
		{Region: testIncheon, Period: jan, Measures: map[string]float64{"sst": 6}},
		{Region: testIncheon, Period: jan, Measures: map[string]float64{"chl": 1}},
		{Region: testGeoje, Period: jan, Measures: map[string]float64{"sst": 15}},
	}

	got := MonthlyMeans(rows, "sst", RegionSet([]string{testIncheon, testGeoje}))
	assert.Equal(t, []SeriesPoint{
		{Region: testGeoje, Period: jan, Mean: 15, Samples: 1},
		{Region: testIncheon, Period: jan, Mean: 7, Samples: 2},
		{Region: testIncheon, Period: feb, Mean: 10, Samples: 1},
	}, got)

	assert.Empty(t, MonthlyMeans(rows, "unknown", RegionSet([]string{testIncheon})))
	assert.Equal(t, []string{testGeoje, testIncheon}, IntegratedRegions(rows))
}

func TestMapPoints(t *testing.T) {
	labels := []CanonicalRow{
		{Region: testIncheon, Period: jan, RiskLevel: RiskHigh, Measures: map[string]float64{"R_sum": 2}},
		{Region: "울릉도", Period: jan, RiskLevel: RiskLow, Measures: map[string]float64{"R_sum": 1}},
		{Region: "Busan", Period: jan, RiskLevel: RiskHigh, Measures: map[string]float64{"R_sum": 5}},
		{Region: testGeoje, Period: jan, RiskLevel: RiskMedium},
		{Region: testGeoje, Period: feb, RiskLevel: RiskHigh},
	}

	t.Run("all regions", func(t *testing.T) {
		pts := MapPoints(labels, jan, nil, DefaultMapOptions())
		require.Len(t, pts, 3)

		assert.Equal(t, testIncheon, pts[0].Region)
		assert.InDelta(t, 37.456, pts[0].Lat, 1e-9)
		assert.InDelta(t, 126.705, pts[0].Lon, 1e-9)
		assert.InDelta(t, 30.0, pts[0].Bubble, 1e-9)
		assert.Equal(t, "#F44336", pts[0].Color)

		assert.Equal(t, "울릉도", pts[1].Region)
		assert.InDelta(t, 130.9, pts[1].Lon, 1e-9)

		assert.Equal(t, testGeoje, pts[2].Region)
		assert.Zero(t, pts[2].Bubble)
	})

	t.Run("region filter", func(t *testing.T) {
		pts := MapPoints(labels, jan, RegionSet([]string{testGeoje, "Busan"}), DefaultMapOptions())
		require.Len(t, pts, 1)
		assert.Equal(t, testGeoje, pts[0].Region)
	})

	t.Run("unmapped regions", func(t *testing.T) {
		assert.Equal(t, []string{"Busan"}, UnmappedRegions(labels))
	})
}

func TestLookupRegion(t *testing.T) {
	for _, alias := range []string{"Ulleungdo", "울릉도", "울릉"} {
		c, ok := LookupRegion(alias)
		require.True(t, ok, alias)
		assert.Equal(t, Coordinate{Lat: 37.5, Lon: 130.9}, c)
	}
	inc, ok := LookupRegion(" 인천 ")
	require.True(t, ok)
	assert.Equal(t, Coordinate{Lat: 37.456, Lon: 126.705}, inc)

	_, ok = LookupRegion("Busan")
	assert.False(t, ok)

	assert.Len(t, MappedRegions(), 7)
}

func TestBuildPeriodReport(t *testing.T) {
	SetClock(clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)))
	t.Cleanup(func() { SetClock(nil) })

	labels := []CanonicalRow{
		label(testIncheon, jan, RiskHigh),
		label(testGeoje, jan, RiskHigh),
		label("Ulleungdo", jan, RiskLow),
		label(testIncheon, feb, RiskLow),
		label(testGeoje, MustPeriod(2025, 3), RiskHigh),
	}
	pairs := []CanonicalPairRow{
		pair(testIncheon, jan, "heat", 2),
		pair(testIncheon, jan, "heat", 4),
		pair(testIncheon, jan, "acidity", 1),
		pair("Ulleungdo", jan, "noise", 99),
	}

	t.Run("ok", func(t *testing.T) {
		rep := BuildPeriodReport(labels, pairs, jan)
		assert.Equal(t, StatusOK, rep.Status)
		assert.Equal(t, RiskDistribution{Low: 1, High: 2}, rep.Distribution)
		assert.Equal(t, []string{testGeoje, testIncheon}, rep.HighRegions)
		require.Len(t, rep.TopStressors, 1)
		assert.Equal(t, TopStressor{Region: testIncheon, Stressor: "heat", MeanValue: 3, Mean: 3, Samples: 2}, rep.TopStressors[0])
		assert.Equal(t, time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC), rep.GeneratedAt)
	})

	t.Run("no high regions", func(t *testing.T) {
		rep := BuildPeriodReport(labels, pairs, feb)
		assert.Equal(t, StatusNoHighRegions, rep.Status)
		assert.NotNil(t, rep.HighRegions)
		assert.Empty(t, rep.HighRegions)
		assert.NotNil(t, rep.TopStressors)
		assert.Empty(t, rep.TopStressors)
	})

	t.Run("no pair data", func(t *testing.T) {
		rep := BuildPeriodReport(labels, pairs, MustPeriod(2025, 3))
		assert.Equal(t, StatusNoPairData, rep.Status)
		assert.Equal(t, []string{testGeoje}, rep.HighRegions)
		assert.Empty(t, rep.TopStressors)
	})
}
