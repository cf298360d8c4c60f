// Command export loads the configured CSV tables once and publishes one
// period report per month to the Kafka report topic.
//
// Usage:
//
//	go run ./cmd/export -period 2025-01,2025-02
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/couchcryptid/hra-dashboard/internal/adapter/csvfile"
	kafkaadapter "github.com/couchcryptid/hra-dashboard/internal/adapter/kafka"
	"github.com/couchcryptid/hra-dashboard/internal/config"
	"github.com/couchcryptid/hra-dashboard/internal/dataset"
	"github.com/couchcryptid/hra-dashboard/internal/domain"
	"github.com/couchcryptid/hra-dashboard/internal/export"
	"github.com/couchcryptid/hra-dashboard/internal/observability"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

func main() {
	periodList := flag.String("period", "", "comma-separated months to export (default: every labeled month)")
	attempts := flag.Int("attempts", 5, "publish attempts before giving up")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)

	periods, err := parsePeriods(*periodList)
	if err != nil {
		logger.Error("invalid -period", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, periods, *attempts); err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, periods []domain.Period, attempts int) error {
	metrics := observability.NewMetrics()

	sources := dataset.Sources{Label: cfg.LabelPath, Pair: cfg.PairPath, Integrated: cfg.IntegratedPath}
	store := dataset.New(csvfile.NewLoader(logger), sources, cfg.NormalizeOptions(), logger, metrics)
	snap, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	writer := kafkaadapter.NewWriter(cfg, logger)
	defer func() {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}()

	n, err := export.New(writer, logger, metrics, attempts).Export(ctx, snap, periods)
	if err != nil {
		return err
	}
	logger.Info("export complete", "reports", n, "topic", cfg.KafkaReportTopic)
	return nil
}

func parsePeriods(list string) ([]domain.Period, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}
	var out []domain.Period
	for _, raw := range strings.Split(list, ",") {
		p, ok := domain.ParsePeriod(raw)
		if !ok {
			return nil, fmt.Errorf("invalid period %q", strings.TrimSpace(raw))
		}
		out = append(out, p)
	}
	return out, nil
}
