// Command genmock writes deterministic label, pairwise and integrated CSV
// fixtures shaped like the modelling exports, then normalizes them with the
// domain package and prints the numbers tests assert on.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock -encoding cp949 -seed 7
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/hra-dashboard/internal/adapter/csvfile"
	"github.com/couchcryptid/hra-dashboard/internal/domain"
	"github.com/jonboulle/clockwork"
)

var (
	regions   = []string{"인천", "거제", "울릉도", "Tongyeong"}
	stressors = []string{"heat", "acidity", "hypoxia", "salinity"}
	measures  = []string{"sst", "chl", "do"}
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out", "", "output directory for the fixtures")
	encoding := flag.String("encoding", csvfile.EncodingUTF8, "fixture encoding: utf-8, utf-8-sig or cp949")
	seed := flag.Uint64("seed", 1, "random seed")
	from := flag.Int("from", 2025, "first year")
	to := flag.Int("to", 2028, "last year")
	flag.Parse()

	if *outDir == "" || *to < *from {
		flag.Usage()
		return fmt.Errorf("missing -out or invalid year range")
	}

	// Reports carry a generation time; pin it so printed stats are stable.
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	rng := rand.New(rand.NewPCG(*seed, *seed))
	var periods []domain.Period
	for y := *from; y <= *to; y++ {
		for m := 1; m <= 12; m++ {
			periods = append(periods, domain.MustPeriod(y, m))
		}
	}

	tables := map[string]domain.RawTable{
		"hra_label.csv":      labelTable(rng, periods),
		"hra_pairwise.csv":   pairTable(rng, periods),
		"hra_integrated.csv": integratedTable(rng, periods),
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}
	for name, t := range tables {
		path := filepath.Join(*outDir, name)
		if err := csvfile.WriteFile(path, t, *encoding); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		log.Printf("wrote %s: %d rows (%s)", path, len(t.Rows), *encoding)
	}

	return printStats(tables["hra_label.csv"], tables["hra_pairwise.csv"], tables["hra_integrated.csv"])
}

// yearMonth formats a period the way the modelling exports do.
func yearMonth(p domain.Period) string {
	return fmt.Sprintf("%04d_%02d", p.Year, int(p.Month))
}

func labelTable(rng *rand.Rand, periods []domain.Period) domain.RawTable {
	t := domain.RawTable{Header: []string{"지역", "year_month", "risk_level", "R_sum"}}
	levels := domain.RiskLevels
	for _, p := range periods {
		for _, r := range regions {
			level := levels[rng.IntN(len(levels))]
			rsum := 0.5 + rng.Float64()*2.5
			t.Rows = append(t.Rows, []string{r, yearMonth(p), string(level), strconv.FormatFloat(rsum, 'f', 3, 64)})
		}
	}
	return t
}

func pairTable(rng *rand.Rand, periods []domain.Period) domain.RawTable {
	t := domain.RawTable{Header: []string{"region", "year_month", "stressor", "R"}}
	for _, p := range periods {
		for _, r := range regions {
			for _, s := range stressors {
				value := strconv.FormatFloat(rng.Float64()*5, 'f', 4, 64)
				// An occasional unparseable value exercises the nil-value path.
				if rng.IntN(50) == 0 {
					value = "NA"
				}
				t.Rows = append(t.Rows, []string{r, yearMonth(p), s, value})
			}
		}
	}
	return t
}

func integratedTable(rng *rand.Rand, periods []domain.Period) domain.RawTable {
	t := domain.RawTable{Header: append([]string{"region", "ym"}, measures...)}
	for _, p := range periods {
		for _, r := range regions {
			row := []string{r, p.Start().Format("2006-01-02")}
			for range measures {
				row = append(row, strconv.FormatFloat(rng.Float64()*30, 'f', 2, 64))
			}
			t.Rows = append(t.Rows, row)
		}
	}
	return t
}

func printStats(label, pair, integrated domain.RawTable) error {
	opts := domain.DefaultNormalizeOptions()
	labels, err := domain.Normalize(label, domain.RoleLabel, opts)
	if err != nil {
		return err
	}
	pairs, err := domain.Normalize(pair, domain.RolePair, opts)
	if err != nil {
		return err
	}
	integ, err := domain.Normalize(integrated, domain.RoleIntegrated, opts)
	if err != nil {
		return err
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	sum := domain.Summarize(labels.Labels)
	fmt.Printf("Labels: %d rows, %d regions, %s to %s\n", sum.RecordCount, sum.RegionCount, sum.FirstPeriod, sum.LastPeriod)
	fmt.Printf("Pairs: %d rows, %d invalid values\n", len(pairs.Pairs), pairs.Report.InvalidValues)
	fmt.Printf("Integrated: %d rows, measures %v\n", len(integ.Integrated), integ.Report.Measures)

	all := domain.RiskCounts(labels.Labels)
	fmt.Printf("All periods: Low=%d Medium=%d High=%d\n", all.Low, all.Medium, all.High)
	fmt.Printf("Unmapped regions: %v\n", domain.UnmappedRegions(labels.Labels))

	latest, ok := domain.LatestPeriod(labels.Labels)
	if !ok {
		return nil
	}
	rep := domain.BuildPeriodReport(labels.Labels, pairs.Pairs, latest)
	fmt.Printf("\nLatest period %s (%s):\n", latest, rep.Status)
	fmt.Printf("  Distribution: Low=%d Medium=%d High=%d\n", rep.Distribution.Low, rep.Distribution.Medium, rep.Distribution.High)
	for _, ts := range rep.TopStressors {
		fmt.Printf("  %s: %s mean=%g (%d samples)\n", ts.Region, ts.Stressor, ts.MeanValue, ts.Samples)
	}
	return nil
}
