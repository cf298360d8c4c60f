package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SkipReason explains why a source row was left out of a canonical table.
type SkipReason string

const (
	SkipMissingRegion    SkipReason = "missing_region"
	SkipMissingPeriod    SkipReason = "missing_period"
	SkipMissingStressor  SkipReason = "missing_stressor"
	SkipUnknownRiskLevel SkipReason = "unknown_risk_level"
)

// NormalizeReport carries per-table diagnostics. Nothing in it is an error.
type NormalizeReport struct {
	Role     Role               `json:"role"`
	Encoding string             `json:"encoding,omitempty"`
	Total    int                `json:"total"`
	Kept     int                `json:"kept"`
	Skipped  map[SkipReason]int `json:"skipped,omitempty"`
	Columns  map[Field]string   `json:"columns"`
	Measures []string           `json:"measures,omitempty"`

	// InvalidValues counts pair rows kept with a nil value.
	InvalidValues int `json:"invalid_values,omitempty"`
}

// SkippedTotal sums skips over all reasons.
func (r NormalizeReport) SkippedTotal() int {
	n := 0
	for _, c := range r.Skipped {
		n += c
	}
	return n
}

func (r *NormalizeReport) skip(reason SkipReason) {
	if r.Skipped == nil {
		r.Skipped = make(map[SkipReason]int)
	}
	r.Skipped[reason]++
}

func newReport(raw RawTable, role Role, cols ColumnMap) NormalizeReport {
	return NormalizeReport{
		Role:     role,
		Encoding: raw.Encoding,
		Total:    len(raw.Rows),
		Columns:  cols.Names(raw.Header),
	}
}

// Table is the canonical form of one source table.
type Table struct {
	Role       Role
	Labels     []CanonicalRow
	Pairs      []CanonicalPairRow
	Integrated []IntegratedRow
	Report     NormalizeReport
}

// Len returns the number of canonical rows for the table's role.
func (t Table) Len() int {
	switch t.Role {
	case RoleLabel:
		return len(t.Labels)
	case RolePair:
		return len(t.Pairs)
	default:
		return len(t.Integrated)
	}
}

// Normalize converts a raw table into the canonical table for role.
func Normalize(raw RawTable, role Role, opts NormalizeOptions) (Table, error) {
	switch role {
	case RoleLabel:
		rows, rep := NormalizeLabels(raw, opts)
		return Table{Role: role, Labels: rows, Report: rep}, nil
	case RolePair:
		rows, rep := NormalizePairs(raw)
		return Table{Role: role, Pairs: rows, Report: rep}, nil
	case RoleIntegrated:
		rows, rep := NormalizeIntegrated(raw)
		return Table{Role: role, Integrated: rows, Report: rep}, nil
	default:
		return Table{}, fmt.Errorf("normalize: unknown role %q", role)
	}
}

// resolveKey reads the region and period of row r. It returns the skip reason
// when either is missing.
func resolveKey(raw RawTable, cols ColumnMap, r int) (string, Period, SkipReason) {
	regionIdx, ok := cols.Index(FieldRegion)
	if !ok {
		return "", Period{}, SkipMissingRegion
	}
	region := strings.TrimSpace(raw.Column(r, regionIdx))
	if region == "" {
		return "", Period{}, SkipMissingRegion
	}
	periodIdx, ok := cols.Index(FieldPeriod)
	if !ok {
		return "", Period{}, SkipMissingPeriod
	}
	period, ok := ParsePeriod(raw.Column(r, periodIdx))
	if !ok {
		return "", Period{}, SkipMissingPeriod
	}
	return region, period, ""
}

// NormalizeLabels builds the canonical label table.
func NormalizeLabels(raw RawTable, opts NormalizeOptions) ([]CanonicalRow, NormalizeReport) {
	if opts.DefaultRiskLevel == "" {
		opts.DefaultRiskLevel = RiskMedium
	}
	cols := ResolveColumns(raw.Header, LabelRules)
	rep := newReport(raw, RoleLabel, cols)
	measures := measureColumns(raw, cols)
	rep.Measures = measureNames(raw.Header, measures)
	riskIdx, hasRisk := cols.Index(FieldRisk)

	rows := make([]CanonicalRow, 0, len(raw.Rows))
	for r := range raw.Rows {
		region, period, reason := resolveKey(raw, cols, r)
		if reason != "" {
			rep.skip(reason)
			continue
		}
		level := opts.DefaultRiskLevel
		if hasRisk {
			parsed, ok := ParseRiskLevel(raw.Column(r, riskIdx))
			if !ok {
				rep.skip(SkipUnknownRiskLevel)
				continue
			}
			level = parsed
		}
		rows = append(rows, CanonicalRow{
			Region:    region,
			Period:    period,
			RiskLevel: level,
			Measures:  readMeasures(raw, r, measures),
		})
	}
	rep.Kept = len(rows)
	return rows, rep
}

// NormalizePairs builds the canonical pairwise table.
func NormalizePairs(raw RawTable) ([]CanonicalPairRow, NormalizeReport) {
	cols := ResolveColumns(raw.Header, PairRules)
	rep := newReport(raw, RolePair, cols)
	stressorIdx, hasStressor := cols.Index(FieldStressor)
	valueIdx, hasValue := cols.Index(FieldValue)

	rows := make([]CanonicalPairRow, 0, len(raw.Rows))
	for r := range raw.Rows {
		region, period, reason := resolveKey(raw, cols, r)
		if reason != "" {
			rep.skip(reason)
			continue
		}
		stressor := ""
		if hasStressor {
			stressor = strings.TrimSpace(raw.Column(r, stressorIdx))
		}
		if stressor == "" {
			rep.skip(SkipMissingStressor)
			continue
		}
		row := CanonicalPairRow{Region: region, Period: period, Stressor: stressor}
		if hasValue {
			if v, ok := parseNumber(raw.Column(r, valueIdx)); ok {
				row.Value = &v
			}
		}
		if row.Value == nil {
			rep.InvalidValues++
		}
		rows = append(rows, row)
	}
	rep.Kept = len(rows)
	return rows, rep
}

// NormalizeIntegrated builds the canonical integrated table. Numeric columns
// other than region and period become measures.
func NormalizeIntegrated(raw RawTable) ([]IntegratedRow, NormalizeReport) {
	cols := ResolveColumns(raw.Header, IntegratedRules)
	rep := newReport(raw, RoleIntegrated, cols)
	measures := measureColumns(raw, cols)
	rep.Measures = measureNames(raw.Header, measures)

	rows := make([]IntegratedRow, 0, len(raw.Rows))
	for r := range raw.Rows {
		region, period, reason := resolveKey(raw, cols, r)
		if reason != "" {
			rep.skip(reason)
			continue
		}
		rows = append(rows, IntegratedRow{
			Region:   region,
			Period:   period,
			Measures: readMeasures(raw, r, measures),
		})
	}
	rep.Kept = len(rows)
	return rows, rep
}

// measureColumns returns the indexes of unresolved columns whose non-empty
// values all parse as numbers. A column with no values is not a measure.
func measureColumns(raw RawTable, cols ColumnMap) []int {
	used := make(map[int]bool, len(cols))
	for _, i := range cols {
		used[i] = true
	}
	var out []int
	for i := range raw.Header {
		if used[i] || strings.TrimSpace(raw.Header[i]) == "" {
			continue
		}
		seen := false
		numeric := true
		for r := range raw.Rows {
			v := strings.TrimSpace(raw.Column(r, i))
			if isMissing(v) {
				continue
			}
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				numeric = false
				break
			}
			seen = true
		}
		if numeric && seen {
			out = append(out, i)
		}
	}
	return out
}

func measureNames(header []string, idx []int) []string {
	if len(idx) == 0 {
		return nil
	}
	names := make([]string, len(idx))
	for j, i := range idx {
		names[j] = strings.TrimSpace(header[i])
	}
	return names
}

func readMeasures(raw RawTable, r int, idx []int) map[string]float64 {
	if len(idx) == 0 {
		return nil
	}
	m := make(map[string]float64, len(idx))
	for _, i := range idx {
		if v, ok := parseNumber(raw.Column(r, i)); ok {
			m[strings.TrimSpace(raw.Header[i])] = v
		}
	}
	return m
}

// parseNumber parses a numeric cell. Empty cells and NaN are missing.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if isMissing(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func isMissing(s string) bool {
	switch strings.ToLower(s) {
	case "", "nan", "na", "null", "none":
		return true
	}
	return false
}
