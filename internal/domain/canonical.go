package domain

import (
	"sort"
	"strconv"
)

// canonicalPeriodLayout is how canonical tables write the month column.
const canonicalPeriodLayout = "2006-01-02"

// LabelsRawTable renders canonical label rows back into a raw table whose
// columns resolve to the same fields. Measure columns follow in sorted order.
func LabelsRawTable(rows []CanonicalRow) RawTable {
	measures := labelMeasureNames(rows)
	header := append([]string{string(FieldRegion), string(FieldPeriod), string(FieldRisk)}, measures...)
	out := RawTable{Header: header, Rows: make([][]string, 0, len(rows))}
	for i := range rows {
		row := rows[i]
		rec := []string{row.Region, row.Period.Start().Format(canonicalPeriodLayout), string(row.RiskLevel)}
		rec = append(rec, formatMeasures(row.Measures, measures)...)
		out.Rows = append(out.Rows, rec)
	}
	return out
}

// PairsRawTable renders canonical pair rows back into a raw table. Nil values
// are written as empty cells.
func PairsRawTable(rows []CanonicalPairRow) RawTable {
	out := RawTable{
		Header: []string{string(FieldRegion), string(FieldPeriod), string(FieldStressor), string(FieldValue)},
		Rows:   make([][]string, 0, len(rows)),
	}
	for i := range rows {
		row := rows[i]
		value := ""
		if row.Value != nil {
			value = formatFloat(*row.Value)
		}
		out.Rows = append(out.Rows, []string{row.Region, row.Period.Start().Format(canonicalPeriodLayout), row.Stressor, value})
	}
	return out
}

// IntegratedRawTable renders canonical integrated rows back into a raw table.
func IntegratedRawTable(rows []IntegratedRow, measures []string) RawTable {
	header := append([]string{string(FieldRegion), string(FieldPeriod)}, measures...)
	out := RawTable{Header: header, Rows: make([][]string, 0, len(rows))}
	for i := range rows {
		row := rows[i]
		rec := []string{row.Region, row.Period.Start().Format(canonicalPeriodLayout)}
		rec = append(rec, formatMeasures(row.Measures, measures)...)
		out.Rows = append(out.Rows, rec)
	}
	return out
}

func labelMeasureNames(rows []CanonicalRow) []string {
	seen := make(map[string]bool)
	var names []string
	for i := range rows {
		for name := range rows[i].Measures {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

func formatMeasures(m map[string]float64, names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		if v, ok := m[n]; ok {
			out[i] = formatFloat(v)
		}
	}
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
