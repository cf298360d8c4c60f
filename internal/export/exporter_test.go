package export

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/hra-dashboard/internal/dataset"
	"github.com/couchcryptid/hra-dashboard/internal/domain"
	"github.com/couchcryptid/hra-dashboard/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	failures int
	calls    int
	got      []domain.PeriodReport
}

func (m *mockPublisher) PublishReports(_ context.Context, reports []domain.PeriodReport) error {
	m.calls++
	if m.calls <= m.failures {
		return errors.New("broker unavailable")
	}
	m.got = append(m.got, reports...)
	return nil
}

func f64(v float64) *float64 { return &v }

func testSnapshot() *dataset.Snapshot {
	jan, feb := domain.MustPeriod(2025, 1), domain.MustPeriod(2025, 2)
	return &dataset.Snapshot{
		Labels: []domain.CanonicalRow{
			{Region: "Incheon", Period: feb, RiskLevel: domain.RiskLow},
			{Region: "Incheon", Period: jan, RiskLevel: domain.RiskHigh},
			{Region: "Geoje", Period: jan, RiskLevel: domain.RiskMedium},
		},
		Pairs: []domain.CanonicalPairRow{
			{Region: "Incheon", Period: jan, Stressor: "heat", Value: f64(2)},
			{Region: "Incheon", Period: jan, Stressor: "heat", Value: f64(4)},
		},
	}
}

func newTestExporter(p ReportPublisher, attempts int) (*Exporter, *observability.Metrics) {
	m := observability.NewMetricsForTesting()
	e := New(p, slog.New(slog.NewTextHandler(io.Discard, nil)), m, attempts)
	e.backoff = time.Millisecond
	e.maxBackoff = 2 * time.Millisecond
	return e, m
}

func TestReports_AllPeriodsInOrder(t *testing.T) {
	reports := Reports(testSnapshot(), nil)
	require.Len(t, reports, 2)
	assert.Equal(t, domain.MustPeriod(2025, 1), reports[0].Period)
	assert.Equal(t, domain.StatusOK, reports[0].Status)
	assert.Equal(t, "heat", reports[0].TopStressors[0].Stressor)
	assert.Equal(t, domain.StatusNoHighRegions, reports[1].Status)
}

func TestReports_SelectedPeriod(t *testing.T) {
	reports := Reports(testSnapshot(), []domain.Period{domain.MustPeriod(2030, 1)})
	require.Len(t, reports, 1)
	assert.Zero(t, reports[0].Distribution.Total())
}

func TestExport_Success(t *testing.T) {
	pub := &mockPublisher{}
	e, m := newTestExporter(pub, 3)

	n, err := e.Export(context.Background(), testSnapshot(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, pub.got, 2)
	assert.InDelta(t, 2.0, testutil.ToFloat64(m.ReportsPublished), 1e-9)
	assert.Zero(t, testutil.ToFloat64(m.PublishErrors))
}

func TestExport_RetriesThenSucceeds(t *testing.T) {
	pub := &mockPublisher{failures: 2}
	e, m := newTestExporter(pub, 3)

	n, err := e.Export(context.Background(), testSnapshot(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 3, pub.calls)
	assert.InDelta(t, 2.0, testutil.ToFloat64(m.PublishErrors), 1e-9)
}

func TestExport_GivesUp(t *testing.T) {
	pub := &mockPublisher{failures: 10}
	e, m := newTestExporter(pub, 2)

	_, err := e.Export(context.Background(), testSnapshot(), nil)
	require.Error(t, err)
	assert.Equal(t, 2, pub.calls)
	assert.Zero(t, testutil.ToFloat64(m.ReportsPublished))
}

func TestExport_NoSnapshot(t *testing.T) {
	e, _ := newTestExporter(&mockPublisher{}, 1)
	_, err := e.Export(context.Background(), nil, nil)
	require.Error(t, err)
}

func TestExport_CancelledWhileBackingOff(t *testing.T) {
	pub := &mockPublisher{failures: 10}
	e, _ := newTestExporter(pub, 5)
	e.backoff = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := e.Export(ctx, testSnapshot(), nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, pub.calls)
}
