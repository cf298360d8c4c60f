// Command normalize loads the configured source tables and writes their
// canonical form as CSV files. Loading the output again yields the same
// tables.
//
// Usage:
//
//	go run ./cmd/normalize -out data/canonical -encoding utf-8-sig
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/couchcryptid/hra-dashboard/internal/adapter/csvfile"
	"github.com/couchcryptid/hra-dashboard/internal/config"
	"github.com/couchcryptid/hra-dashboard/internal/dataset"
	"github.com/couchcryptid/hra-dashboard/internal/domain"
	"github.com/couchcryptid/hra-dashboard/internal/observability"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out", "", "output directory for canonical CSV files")
	encoding := flag.String("encoding", csvfile.EncodingUTF8, "output encoding: utf-8, utf-8-sig or cp949")
	flag.Parse()

	if *outDir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)

	sources := dataset.Sources{Label: cfg.LabelPath, Pair: cfg.PairPath, Integrated: cfg.IntegratedPath}
	store := dataset.New(csvfile.NewLoader(logger), sources, cfg.NormalizeOptions(), logger, observability.NewMetricsForTesting())
	snap, err := store.Load(context.Background())
	if err != nil {
		return err
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}

	outputs := map[domain.Role]domain.RawTable{
		domain.RoleLabel: domain.LabelsRawTable(snap.Labels),
		domain.RolePair:  domain.PairsRawTable(snap.Pairs),
	}
	if sources.Integrated != "" {
		outputs[domain.RoleIntegrated] = domain.IntegratedRawTable(snap.Integrated, snap.Measures)
	}

	for _, role := range domain.Roles {
		t, ok := outputs[role]
		if !ok {
			continue
		}
		path := filepath.Join(*outDir, fmt.Sprintf("%s.csv", role))
		if err := csvfile.WriteFile(path, t, *encoding); err != nil {
			return fmt.Errorf("write %s table: %w", role, err)
		}
		rep := snap.Reports[role]
		log.Printf("%s: %d of %d rows -> %s (skipped %d)", role, rep.Kept, rep.Total, path, rep.SkippedTotal())
	}
	return nil
}
