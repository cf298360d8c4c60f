package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	httpadapter "github.com/couchcryptid/hra-dashboard/internal/adapter/http"
	"github.com/couchcryptid/hra-dashboard/internal/dashboard"
	"github.com/couchcryptid/hra-dashboard/internal/dataset"
	"github.com/couchcryptid/hra-dashboard/internal/domain"
	"github.com/couchcryptid/hra-dashboard/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type staticSource struct{ snap *dataset.Snapshot }

func (s staticSource) Snapshot() *dataset.Snapshot { return s.snap }

type staticBaseMap struct{}

func (staticBaseMap) BoundaryGeoJSON(_ context.Context) (domain.BaseMap, error) {
	return domain.BaseMap{GeoJSON: []byte(`{"type":"FeatureCollection","features":[]}`), Source: domain.BaseMapStatic}, nil
}

func f64(v float64) *float64 { return &v }

func testSnapshot() *dataset.Snapshot {
	jan, feb := domain.MustPeriod(2025, 1), domain.MustPeriod(2025, 2)
	return &dataset.Snapshot{
		Labels: []domain.CanonicalRow{
			{Region: "Incheon", Period: jan, RiskLevel: domain.RiskHigh, Measures: map[string]float64{"R_sum": 1}},
			{Region: "Geoje", Period: jan, RiskLevel: domain.RiskLow},
			{Region: "Geoje", Period: feb, RiskLevel: domain.RiskMedium},
		},
		Pairs: []domain.CanonicalPairRow{
			{Region: "Incheon", Period: jan, Stressor: "heat", Value: f64(2)},
			{Region: "Incheon", Period: jan, Stressor: "heat", Value: f64(4)},
		},
		Integrated: []domain.IntegratedRow{
			{Region: "Incheon", Period: jan, Measures: map[string]float64{"sst": 10}},
		},
		Measures: []string{"sst"},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newServer(snap *dataset.Snapshot, readyErr error) *httpadapter.Server {
	dash := dashboard.New(staticSource{snap}, staticBaseMap{}, domain.DefaultMapOptions(), discardLogger(), observability.NewMetricsForTesting())
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, dash, discardLogger())
}

func newTestServer(readyErr error) *httpadapter.Server {
	return newServer(testSnapshot(), readyErr)
}

func get(t *testing.T, srv http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthzReturns200(t *testing.T) {
	rec := get(t, newTestServer(nil), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode(t, rec)["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := get(t, newTestServer(nil), "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decode(t, rec)["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := get(t, newTestServer(fmt.Errorf("not ready yet")), "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "not ready yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(t, newTestServer(nil), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestSummary(t *testing.T) {
	rec := get(t, newTestServer(nil), "/api/summary")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.InDelta(t, 2, body["region_count"], 0)
	assert.Equal(t, "2025-01-01", body["first_period"])
	assert.Equal(t, "2025-02-01", body["last_period"])
	assert.Equal(t, "ok", body["status"])
}

func TestAPIReturns503BeforeLoad(t *testing.T) {
	srv := newServer(nil, nil)
	for _, target := range []string{"/api/summary", "/api/risk-distribution", "/api/top-stressors", "/api/tables/label"} {
		t.Run(target, func(t *testing.T) {
			rec := get(t, srv, target)
			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
			assert.Equal(t, "dataset not loaded", decode(t, rec)["error"])
		})
	}
}

func TestRiskDistribution(t *testing.T) {
	srv := newTestServer(nil)

	tests := []struct {
		name   string
		target string
		period any
		high   float64
		total  float64
		status string
	}{
		{"latest when omitted", "/api/risk-distribution", "2025-02-01", 0, 1, "ok"},
		{"explicit period", "/api/risk-distribution?period=2025-01", "2025-01-01", 1, 2, "ok"},
		{"underscore period", "/api/risk-distribution?period=2025_01", "2025-01-01", 1, 2, "ok"},
		{"all periods", "/api/risk-distribution?period=all", nil, 1, 3, "ok"},
		{"period without data", "/api/risk-distribution?period=2030-01", "2030-01-01", 0, 0, "no_data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, srv, tt.target)
			require.Equal(t, http.StatusOK, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, tt.period, body["period"])
			dist := body["distribution"].(map[string]any)
			assert.InDelta(t, tt.high, dist["High"], 0)
			assert.InDelta(t, tt.total, dist["Low"].(float64)+dist["Medium"].(float64)+dist["High"].(float64), 0)
			assert.Len(t, body["bars"], 3)
			assert.Equal(t, tt.status, body["status"])
		})
	}
}

func TestBadQueryInput(t *testing.T) {
	srv := newTestServer(nil)

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"malformed period", "/api/risk-distribution?period=spring", http.StatusBadRequest},
		{"all not allowed for report", "/api/top-stressors?period=all", http.StatusBadRequest},
		{"malformed map period", "/api/risk-map?period=2025-13", http.StatusBadRequest},
		{"bad year", "/api/periods?year=abc", http.StatusBadRequest},
		{"unknown role", "/api/tables/weather", http.StatusBadRequest},
		{"bad limit", "/api/tables/label?limit=-1", http.StatusBadRequest},
		{"unknown measure", "/api/measures/chl/monthly", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, srv, tt.target)
			assert.Equal(t, tt.status, rec.Code)
			assert.NotEmpty(t, decode(t, rec)["error"])
		})
	}
}

func TestTopStressors(t *testing.T) {
	rec := get(t, newTestServer(nil), "/api/top-stressors?period=2025-01")

	require.Equal(t, http.StatusOK, rec.Code)
	var report domain.PeriodReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, domain.StatusOK, report.Status)
	require.Len(t, report.TopStressors, 1)
	assert.Equal(t, "heat", report.TopStressors[0].Stressor)
	assert.InDelta(t, 3.0, report.TopStressors[0].MeanValue, 1e-9)
}

func TestTopStressorsNoHighRegions(t *testing.T) {
	rec := get(t, newTestServer(nil), "/api/top-stressors?period=2025-02")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "no_high_regions", body["status"])
	assert.Empty(t, body["top_stressors"])
}

func TestRiskMapFiltersRegions(t *testing.T) {
	rec := get(t, newTestServer(nil), "/api/risk-map?period=2025-01&region=Incheon")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	points := body["points"].([]any)
	require.Len(t, points, 1)
	point := points[0].(map[string]any)
	assert.Equal(t, "Incheon", point["region"])
	assert.InDelta(t, 15.0, point["bubble"], 1e-9)
}

func TestMeasuresAndMonthly(t *testing.T) {
	srv := newTestServer(nil)

	rec := get(t, srv, "/api/measures")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"sst"}, decode(t, rec)["measures"])

	rec = get(t, srv, "/api/measures/sst/monthly?region=Incheon")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "sst", body["measure"])
	assert.Len(t, body["points"], 1)
}

func TestStressorMeans(t *testing.T) {
	rec := get(t, newTestServer(nil), "/api/stressor-means")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, []any{"Incheon"}, body["regions"])
	assert.Len(t, body["means"], 1)
}

func TestTableHead(t *testing.T) {
	rec := get(t, newTestServer(nil), "/api/tables/label?limit=1")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.InDelta(t, 3, body["total"], 0)
	assert.Len(t, body["rows"], 1)
}

func TestBaseMap(t *testing.T) {
	rec := get(t, newTestServer(nil), "/api/basemap")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "static", rec.Header().Get("X-Basemap-Source"))
	assert.Equal(t, "FeatureCollection", decode(t, rec)["type"])
}
