package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/hra-dashboard/internal/domain"
	"github.com/couchcryptid/hra-dashboard/internal/observability"
	"github.com/jonboulle/clockwork"
)

// TableLoader reads one source file into a raw table.
type TableLoader interface {
	LoadTable(ctx context.Context, path string) (domain.RawTable, error)
}

// Sources names the files behind each table. Integrated may be empty.
type Sources struct {
	Label      string
	Pair       string
	Integrated string
}

// Path returns the configured file for role.
func (s Sources) Path(role domain.Role) string {
	switch role {
	case domain.RoleLabel:
		return s.Label
	case domain.RolePair:
		return s.Pair
	case domain.RoleIntegrated:
		return s.Integrated
	}
	return ""
}

// Store holds the current snapshot and rebuilds it from disk on demand.
type Store struct {
	loader  TableLoader
	sources Sources
	opts    domain.NormalizeOptions
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock
	stat    func(string) (os.FileInfo, error)

	current atomic.Pointer[Snapshot]
	loadMu  sync.Mutex
}

// Option customizes a Store.
type Option func(*Store)

// WithClock replaces the real clock, for tests.
func WithClock(c clockwork.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// New creates a Store. Nothing is read until Load is called.
func New(loader TableLoader, sources Sources, opts domain.NormalizeOptions, logger *slog.Logger, metrics *observability.Metrics, options ...Option) *Store {
	s := &Store{
		loader:  loader,
		sources: sources,
		opts:    opts,
		logger:  logger,
		metrics: metrics,
		clock:   clockwork.NewRealClock(),
		stat:    os.Stat,
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// Snapshot returns the live snapshot, or nil before the first successful load.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// CheckReadiness returns nil once a snapshot has been loaded.
func (s *Store) CheckReadiness(_ context.Context) error {
	if s.current.Load() == nil {
		return errors.New("dataset has not been loaded yet")
	}
	return nil
}

// Load reads every configured table and publishes the result as the new
// snapshot. If any table fails, the previous snapshot stays live and the
// error is returned.
func (s *Store) Load(ctx context.Context) (*Snapshot, error) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	return s.load(ctx)
}

func (s *Store) load(ctx context.Context) (*Snapshot, error) {
	start := s.clock.Now()

	snap, err := s.build(ctx)
	if err != nil {
		return nil, err
	}
	s.current.Store(snap)

	s.metrics.LoadDuration.Observe(s.clock.Since(start).Seconds())
	s.metrics.SnapshotTimestamp.Set(float64(snap.LoadedAt.Unix()))
	s.recordTableMetrics(snap)

	s.logger.Info("dataset loaded",
		"labels", len(snap.Labels),
		"pairs", len(snap.Pairs),
		"integrated", len(snap.Integrated),
		"duration", s.clock.Since(start),
	)
	return snap, nil
}

// ReloadIfChanged reloads when any source file's modification time differs
// from the live snapshot, or when nothing is loaded yet.
func (s *Store) ReloadIfChanged(ctx context.Context) (bool, error) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	cur := s.current.Load()
	if cur != nil && !s.changed(cur) {
		return false, nil
	}
	if _, err := s.load(ctx); err != nil {
		return true, err
	}
	return true, nil
}

// Watch polls the source files every interval and reloads on change until
// ctx is cancelled. A non-positive interval disables watching.
func (s *Store) Watch(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		s.logger.Info("dataset watch disabled")
		return nil
	}
	s.logger.Info("dataset watch started", "interval", interval)

	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("dataset watch stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			reloaded, err := s.ReloadIfChanged(ctx)
			switch {
			case err != nil:
				if ctx.Err() != nil {
					return nil
				}
				s.metrics.Reloads.WithLabelValues("error").Inc()
				s.logger.Error("dataset reload failed, keeping previous snapshot", "error", err)
			case reloaded:
				s.metrics.Reloads.WithLabelValues("success").Inc()
			default:
				s.metrics.Reloads.WithLabelValues("unchanged").Inc()
			}
		}
	}
}

func (s *Store) build(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{
		Reports:  make(map[domain.Role]domain.NormalizeReport, len(domain.Roles)),
		modTimes: make(map[string]time.Time, len(domain.Roles)),
	}

	for _, role := range domain.Roles {
		path := s.sources.Path(role)
		if path == "" {
			if role != domain.RoleIntegrated {
				return nil, &domain.LoadError{Path: path, Err: fmt.Errorf("no %s table configured", role)}
			}
			continue
		}

		table, err := s.loadTable(ctx, role, path, snap)
		if err != nil {
			s.metrics.TableLoads.WithLabelValues(string(role), "error").Inc()
			return nil, err
		}
		s.metrics.TableLoads.WithLabelValues(string(role), "success").Inc()

		snap.Reports[role] = table.Report
		switch role {
		case domain.RoleLabel:
			snap.Labels = table.Labels
		case domain.RolePair:
			snap.Pairs = table.Pairs
		case domain.RoleIntegrated:
			snap.Integrated = table.Integrated
			snap.Measures = table.Report.Measures
		}
	}

	snap.LoadedAt = s.clock.Now().UTC()
	return snap, nil
}

func (s *Store) loadTable(ctx context.Context, role domain.Role, path string, snap *Snapshot) (domain.Table, error) {
	info, err := s.stat(path)
	if err != nil {
		return domain.Table{}, &domain.LoadError{Path: path, Err: err}
	}
	snap.modTimes[path] = info.ModTime()

	raw, err := s.loader.LoadTable(ctx, path)
	if err != nil {
		return domain.Table{}, err
	}

	table, err := domain.Normalize(raw, role, s.opts)
	if err != nil {
		return domain.Table{}, &domain.LoadError{Path: path, Encoding: raw.Encoding, Err: err}
	}

	rep := table.Report
	if rep.SkippedTotal() > 0 {
		s.logger.Debug("rows skipped during normalization",
			"table", role,
			"path", path,
			"skipped", rep.Skipped,
		)
	}
	if rep.InvalidValues > 0 {
		s.logger.Debug("rows with unparseable values", "table", role, "path", path, "count", rep.InvalidValues)
	}
	return table, nil
}

func (s *Store) changed(cur *Snapshot) bool {
	for _, role := range domain.Roles {
		path := s.sources.Path(role)
		if path == "" {
			continue
		}
		info, err := s.stat(path)
		if err != nil {
			return true
		}
		if prev, ok := cur.modTimes[path]; !ok || !prev.Equal(info.ModTime()) {
			return true
		}
	}
	return false
}

func (s *Store) recordTableMetrics(snap *Snapshot) {
	s.metrics.RowsSkipped.Reset()
	s.metrics.TableEncoding.Reset()
	for role, rep := range snap.Reports {
		table := string(role)
		s.metrics.RowsKept.WithLabelValues(table).Set(float64(rep.Kept))
		for reason, n := range rep.Skipped {
			s.metrics.RowsSkipped.WithLabelValues(table, string(reason)).Set(float64(n))
		}
		s.metrics.TableEncoding.WithLabelValues(table, rep.Encoding).Set(1)
	}
}
