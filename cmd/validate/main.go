// Command validate runs data integrity checks over the configured source
// tables: they load and normalize, skipped rows stay under a threshold, every
// High-risk region has pairwise data in its month, and every region can be
// placed on the map. It exits non-zero when any phase fails.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -label data/hra_label_total_2025_2028.csv \
//	  -pair data/hra_pairwise_2025_2028.csv \
//	  -max-skip-ratio 0.01
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/couchcryptid/hra-dashboard/internal/adapter/csvfile"
	"github.com/couchcryptid/hra-dashboard/internal/config"
	"github.com/couchcryptid/hra-dashboard/internal/dataset"
	"github.com/couchcryptid/hra-dashboard/internal/domain"
	"github.com/couchcryptid/hra-dashboard/internal/observability"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
		os.Exit(1)
	}

	label := flag.String("label", cfg.LabelPath, "label table CSV")
	pair := flag.String("pair", cfg.PairPath, "pairwise table CSV")
	integrated := flag.String("integrated", cfg.IntegratedPath, "integrated table CSV (empty to skip)")
	maxSkip := flag.Float64("max-skip-ratio", 0, "largest tolerated share of skipped rows per table")
	allowUnmapped := flag.Bool("allow-unmapped", false, "do not fail on regions missing from the coordinate table")
	flag.Parse()

	sources := dataset.Sources{Label: *label, Pair: *pair, Integrated: *integrated}
	if code := run(sources, cfg.NormalizeOptions(), *maxSkip, *allowUnmapped); code != 0 {
		os.Exit(code)
	}
}

func run(sources dataset.Sources, opts domain.NormalizeOptions, maxSkip float64, allowUnmapped bool) int {
	fmt.Println("=== HRA Data Integrity Validation ===")
	fmt.Println()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := dataset.New(csvfile.NewLoader(logger), sources, opts, logger, observability.NewMetricsForTesting())
	snap, err := store.Load(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load tables: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateSkips(snap, maxSkip),
		validateHighCoverage(snap),
		validateMapCoverage(snap, allowUnmapped),
		validateIntegrated(snap, sources.Integrated != ""),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	for _, role := range domain.Roles {
		rep, ok := snap.Reports[role]
		if !ok {
			continue
		}
		fmt.Printf("%-10s %6d rows, %6d kept, %4d skipped, encoding %s\n", role, rep.Total, rep.Kept, rep.SkippedTotal(), rep.Encoding)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Skipped rows ──

func validateSkips(snap *dataset.Snapshot, maxRatio float64) *phase {
	p := &phase{name: "Phase 1: Skipped rows"}
	for _, role := range domain.Roles {
		rep, ok := snap.Reports[role]
		if !ok || rep.Total == 0 {
			continue
		}
		ratio := float64(rep.SkippedTotal()) / float64(rep.Total)
		if ratio > maxRatio {
			p.errorf("%s: %d of %d rows skipped (%.2f%% > %.2f%%): %v",
				role, rep.SkippedTotal(), rep.Total, ratio*100, maxRatio*100, rep.Skipped)
		}
	}
	return p
}

// ── Phase 2: High-risk coverage ──
// Every High region needs at least one valid pairwise value in its month,
// otherwise the top stressor view silently omits it.

func validateHighCoverage(snap *dataset.Snapshot) *phase {
	p := &phase{name: "Phase 2: High-risk pairwise coverage"}

	type key struct {
		region string
		period domain.Period
	}
	covered := make(map[key]bool)
	for i := range snap.Pairs {
		if snap.Pairs[i].Value != nil {
			covered[key{snap.Pairs[i].Region, snap.Pairs[i].Period}] = true
		}
	}

	for _, period := range domain.Periods(snap.Labels) {
		for _, region := range domain.HighRiskRegions(snap.Labels, period) {
			if !covered[key{region, period}] {
				p.errorf("%s %s: High risk but no valid pairwise values", period, region)
			}
		}
	}
	return p
}

// ── Phase 3: Map coverage ──

func validateMapCoverage(snap *dataset.Snapshot, allowUnmapped bool) *phase {
	p := &phase{name: "Phase 3: Region coordinates"}
	unmapped := domain.UnmappedRegions(snap.Labels)
	if len(unmapped) == 0 {
		return p
	}
	if allowUnmapped {
		fmt.Printf("  Note: %d region(s) have no coordinates and are left off the map: %v\n", len(unmapped), unmapped)
		return p
	}
	for _, r := range unmapped {
		p.errorf("region %q has no map coordinates", r)
	}
	return p
}

// ── Phase 4: Integrated measures ──

func validateIntegrated(snap *dataset.Snapshot, enabled bool) *phase {
	p := &phase{name: "Phase 4: Integrated measures"}
	if !enabled {
		return p
	}
	if len(snap.Measures) == 0 {
		p.errorf("integrated table has no numeric measure columns")
	}
	if len(snap.Integrated) == 0 {
		p.errorf("integrated table has no usable rows")
	}
	return p
}
