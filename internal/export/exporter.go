package export

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/hra-dashboard/internal/dataset"
	"github.com/couchcryptid/hra-dashboard/internal/domain"
	"github.com/couchcryptid/hra-dashboard/internal/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
)

// ReportPublisher writes period reports to a destination.
type ReportPublisher interface {
	PublishReports(ctx context.Context, reports []domain.PeriodReport) error
}

// Exporter builds one report per period and hands them to a publisher.
type Exporter struct {
	publisher   ReportPublisher
	logger      *slog.Logger
	metrics     *observability.Metrics
	maxAttempts int
	backoff     time.Duration
	maxBackoff  time.Duration
}

// New creates an Exporter that tries each publish up to maxAttempts times.
func New(p ReportPublisher, logger *slog.Logger, metrics *observability.Metrics, maxAttempts int) *Exporter {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Exporter{
		publisher:   p,
		logger:      logger,
		metrics:     metrics,
		maxAttempts: maxAttempts,
		backoff:     200 * time.Millisecond,
		maxBackoff:  5 * time.Second,
	}
}

// Reports builds the period report for each requested period, or for every
// labeled period when periods is empty.
func Reports(snap *dataset.Snapshot, periods []domain.Period) []domain.PeriodReport {
	if len(periods) == 0 {
		periods = domain.Periods(snap.Labels)
	}
	out := make([]domain.PeriodReport, 0, len(periods))
	for _, p := range periods {
		out = append(out, domain.BuildPeriodReport(snap.Labels, snap.Pairs, p))
	}
	return out
}

// Export publishes the reports for periods and returns how many were written.
func (e *Exporter) Export(ctx context.Context, snap *dataset.Snapshot, periods []domain.Period) (int, error) {
	if snap == nil {
		return 0, errors.New("no dataset loaded")
	}
	reports := Reports(snap, periods)
	if len(reports) == 0 {
		e.logger.Info("no periods to export")
		return 0, nil
	}

	backoff := e.backoff
	for attempt := 1; ; attempt++ {
		err := e.publisher.PublishReports(ctx, reports)
		if err == nil {
			break
		}
		e.metrics.PublishErrors.Inc()
		if attempt >= e.maxAttempts || ctx.Err() != nil {
			return 0, err
		}
		e.logger.Warn("publish reports failed, retrying", "error", err, "attempt", attempt, "backoff", backoff)
		if !retry.SleepWithContext(ctx, backoff) {
			return 0, ctx.Err()
		}
		backoff = retry.NextBackoff(backoff, e.maxBackoff)
	}

	e.metrics.ReportsPublished.Add(float64(len(reports)))
	for _, r := range reports {
		e.logger.Debug("report published", "period", r.Period.String(), "status", r.Status, "high_regions", len(r.HighRegions))
	}
	e.logger.Info("reports exported", "count", len(reports))
	return len(reports), nil
}
