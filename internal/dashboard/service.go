package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/hra-dashboard/internal/dataset"
	"github.com/couchcryptid/hra-dashboard/internal/domain"
	"github.com/couchcryptid/hra-dashboard/internal/observability"
)

var (
	// ErrNotLoaded means no snapshot has been published yet.
	ErrNotLoaded = errors.New("dataset not loaded")

	// ErrUnknownMeasure means the integrated table has no such numeric column.
	ErrUnknownMeasure = errors.New("unknown measure")
)

// Status marks whether a view carries data. Empty views are not errors.
type Status string

const (
	StatusOK     Status = "ok"
	StatusNoData Status = "no_data"
)

func statusOf(n int) Status {
	if n == 0 {
		return StatusNoData
	}
	return StatusOK
}

// SnapshotSource yields the live dataset snapshot.
type SnapshotSource interface {
	Snapshot() *dataset.Snapshot
}

// PeriodQuery selects a month. The zero value selects the latest period.
type PeriodQuery struct {
	Period domain.Period
	All    bool
}

// Service answers dashboard queries against the live snapshot.
type Service struct {
	source  SnapshotSource
	basemap domain.BaseMapProvider
	mapOpts domain.MapOptions
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Service. basemap may be nil when no map background is served.
func New(source SnapshotSource, basemap domain.BaseMapProvider, mapOpts domain.MapOptions, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		source:  source,
		basemap: basemap,
		mapOpts: mapOpts,
		logger:  logger,
		metrics: metrics,
	}
}

func (s *Service) snapshot() (*dataset.Snapshot, error) {
	snap := s.source.Snapshot()
	if snap == nil {
		return nil, ErrNotLoaded
	}
	return snap, nil
}

func (s *Service) observe(op string, start time.Time) {
	s.metrics.QueryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// resolve turns a query into a concrete period. ok is false when the query
// asks for the latest period of an empty table.
func resolve(snap *dataset.Snapshot, q PeriodQuery) (domain.Period, bool) {
	if !q.Period.IsZero() {
		return q.Period, true
	}
	return domain.LatestPeriod(snap.Labels)
}

// SummaryView holds the home page KPI cards.
type SummaryView struct {
	domain.Summary
	Years    []int     `json:"years"`
	LoadedAt time.Time `json:"loaded_at"`
	Status   Status    `json:"status"`
}

// Summary returns KPIs over the label table.
func (s *Service) Summary() (SummaryView, error) {
	defer s.observe("summary", time.Now())
	snap, err := s.snapshot()
	if err != nil {
		return SummaryView{}, err
	}
	return SummaryView{
		Summary:  domain.Summarize(snap.Labels),
		Years:    nonNil(domain.Years(snap.Labels)),
		LoadedAt: snap.LoadedAt,
		Status:   statusOf(len(snap.Labels)),
	}, nil
}

// PeriodsView lists the months available in a year.
type PeriodsView struct {
	Year    int             `json:"year"`
	Months  []int           `json:"months"`
	Periods []domain.Period `json:"periods"`
	Status  Status          `json:"status"`
}

// Periods lists the months of year. Year 0 selects the latest year.
func (s *Service) Periods(year int) (PeriodsView, error) {
	defer s.observe("periods", time.Now())
	snap, err := s.snapshot()
	if err != nil {
		return PeriodsView{}, err
	}
	if year == 0 {
		if latest, ok := domain.LatestPeriod(snap.Labels); ok {
			year = latest.Year
		}
	}
	months := nonNil(domain.MonthsInYear(snap.Labels, year))
	periods := make([]domain.Period, 0, len(months))
	for _, m := range months {
		periods = append(periods, domain.MustPeriod(year, m))
	}
	return PeriodsView{Year: year, Months: months, Periods: periods, Status: statusOf(len(months))}, nil
}

// DistributionView is the risk level bar chart.
type DistributionView struct {
	Period       *domain.Period          `json:"period,omitempty"`
	AllPeriods   bool                    `json:"all_periods,omitempty"`
	Distribution domain.RiskDistribution `json:"distribution"`
	Bars         []domain.RiskCount      `json:"bars"`
	Status       Status                  `json:"status"`
}

// RiskDistribution counts risk levels for one period or across all of them.
func (s *Service) RiskDistribution(q PeriodQuery) (DistributionView, error) {
	defer s.observe("risk_distribution", time.Now())
	snap, err := s.snapshot()
	if err != nil {
		return DistributionView{}, err
	}

	var view DistributionView
	switch {
	case q.All:
		view.AllPeriods = true
		view.Distribution = domain.RiskCounts(snap.Labels)
	default:
		p, ok := resolve(snap, q)
		if ok {
			view.Period = &p
			view.Distribution = domain.RiskDistributionFor(snap.Labels, p)
		}
	}
	view.Bars = view.Distribution.Bars()
	view.Status = statusOf(view.Distribution.Total())
	return view, nil
}

// PeriodReport returns the distribution and top stressors for one month.
func (s *Service) PeriodReport(q PeriodQuery) (domain.PeriodReport, error) {
	defer s.observe("period_report", time.Now())
	snap, err := s.snapshot()
	if err != nil {
		return domain.PeriodReport{}, err
	}
	p, ok := resolve(snap, q)
	if !ok {
		return domain.BuildPeriodReport(nil, nil, domain.Period{}), nil
	}
	return domain.BuildPeriodReport(snap.Labels, snap.Pairs, p), nil
}

// MapView holds the risk map bubbles for one month.
type MapView struct {
	Period   *domain.Period    `json:"period,omitempty"`
	Points   []domain.MapPoint `json:"points"`
	Unmapped []string          `json:"unmapped_regions"`
	Status   Status            `json:"status"`
}

// RiskMap joins one month of labels with region coordinates. An empty
// regions list selects every region.
func (s *Service) RiskMap(q PeriodQuery, regions []string) (MapView, error) {
	defer s.observe("risk_map", time.Now())
	snap, err := s.snapshot()
	if err != nil {
		return MapView{}, err
	}
	view := MapView{Points: []domain.MapPoint{}, Unmapped: nonNil(domain.UnmappedRegions(snap.Labels))}
	if p, ok := resolve(snap, q); ok {
		view.Period = &p
		view.Points = nonNil(domain.MapPoints(snap.Labels, p, domain.RegionSet(regions), s.mapOpts))
	}
	view.Status = statusOf(len(view.Points))
	return view, nil
}

// StressorMeansView is the Data page pairwise tab.
type StressorMeansView struct {
	Regions []string              `json:"regions"`
	Means   []domain.StressorMean `json:"means"`
	Status  Status                `json:"status"`
}

// StressorMeans averages pairwise values per region and stressor over all
// periods. An empty regions list selects every region in the pair table.
func (s *Service) StressorMeans(regions []string) (StressorMeansView, error) {
	defer s.observe("stressor_means", time.Now())
	snap, err := s.snapshot()
	if err != nil {
		return StressorMeansView{}, err
	}
	if len(regions) == 0 {
		regions = domain.PairRegions(snap.Pairs)
	}
	means := nonNil(domain.StressorMeans(snap.Pairs, domain.RegionSet(regions)))
	return StressorMeansView{Regions: nonNil(regions), Means: means, Status: statusOf(len(means))}, nil
}

// MeasuresView lists what the integrated table can chart.
type MeasuresView struct {
	Measures []string `json:"measures"`
	Regions  []string `json:"regions"`
}

// Measures lists the numeric columns and regions of the integrated table.
func (s *Service) Measures() (MeasuresView, error) {
	defer s.observe("measures", time.Now())
	snap, err := s.snapshot()
	if err != nil {
		return MeasuresView{}, err
	}
	return MeasuresView{
		Measures: nonNil(snap.Measures),
		Regions:  nonNil(domain.IntegratedRegions(snap.Integrated)),
	}, nil
}

// SeriesView is one measure's monthly line chart.
type SeriesView struct {
	Measure string               `json:"measure"`
	Regions []string             `json:"regions"`
	Points  []domain.SeriesPoint `json:"points"`
	Status  Status               `json:"status"`
}

// MonthlyMeans averages one integrated measure per region and month. An
// empty regions list selects every region.
func (s *Service) MonthlyMeans(measure string, regions []string) (SeriesView, error) {
	defer s.observe("monthly_means", time.Now())
	snap, err := s.snapshot()
	if err != nil {
		return SeriesView{}, err
	}
	if !snap.HasMeasure(measure) {
		return SeriesView{}, ErrUnknownMeasure
	}
	if len(regions) == 0 {
		regions = domain.IntegratedRegions(snap.Integrated)
	}
	points := nonNil(domain.MonthlyMeans(snap.Integrated, measure, domain.RegionSet(regions)))
	return SeriesView{Measure: measure, Regions: nonNil(regions), Points: points, Status: statusOf(len(points))}, nil
}

// TableView is the head of one canonical table with its load diagnostics.
type TableView struct {
	Role   domain.Role            `json:"role"`
	Total  int                    `json:"total"`
	Rows   any                    `json:"rows"`
	Report domain.NormalizeReport `json:"report"`
	Status Status                 `json:"status"`
}

// Table returns up to limit rows of a canonical table.
func (s *Service) Table(role domain.Role, limit int) (TableView, error) {
	defer s.observe("table", time.Now())
	snap, err := s.snapshot()
	if err != nil {
		return TableView{}, err
	}
	total := snap.Rows(role)
	return TableView{
		Role:   role,
		Total:  total,
		Rows:   snap.Head(role, limit),
		Report: snap.Reports[role],
		Status: statusOf(total),
	}, nil
}

// BaseMap returns the boundary GeoJSON drawn under the risk map.
func (s *Service) BaseMap(ctx context.Context) (domain.BaseMap, error) {
	defer s.observe("basemap", time.Now())
	if s.basemap == nil {
		return domain.BaseMap{}, errors.New("basemap not configured")
	}
	return s.basemap.BoundaryGeoJSON(ctx)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
