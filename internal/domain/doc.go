// Package domain models the HRA (habitat risk assessment) marine biodiversity
// datasets and the queries the dashboard pages run over them.
//
// # Data Sources
//
// Three CSV files are exported by the modelling team, usually from
// Korean-locale spreadsheet tools:
//
//	hra_label_total_*.csv        one risk label per region per month
//	hra_pairwise_*.csv           one value per region, month and stressor
//	rrreal_final_ALL_predicted   integrated predictor table (numeric measures)
//
// Column names are not stable between exports. Region may appear as "region",
// "Region", "지역" or "region_name"; the month may appear as "year_month", "ym",
// "YEAR" or "월". Column resolution is therefore rule based: see [LabelRules],
// [PairRules] and [IntegratedRules]. Each rule set is an ordered list and the
// first matching rule wins.
//
// # Period Format
//
// The month column is usually written as "2025_01". Older exports carry full
// dates ("2025-01-15", "2025/01/15 00:00"). Values are parsed strictly as
// YYYY_MM first, then with a list of permissive layouts, and truncated to the
// first day of the month. Day and time of day carry no meaning.
//
// # Risk Levels
//
// The label table carries "risk_level" as free text ("high", "HIGH", "High").
// Values are title-cased and matched against Low, Medium and High. When the
// column is absent every row gets [NormalizeOptions.DefaultRiskLevel].
//
// # Pairwise Values
//
// The pairwise value column is named "R" (sometimes "risk"). A row whose value
// does not parse stays in the canonical table with a nil Value and is skipped
// by every aggregation.
//
// # Row Skips
//
// Rows without region or period are dropped during normalization and counted
// in a [NormalizeReport]. A skipped row is never an error. Empty query results
// (no High regions this month, no pairwise rows) are normal outcomes too; only
// a file that cannot be loaded at all is an error, see [LoadError].
package domain
