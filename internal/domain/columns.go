package domain

import (
	"strings"
)

// Field is a canonical column a source column can resolve to.
type Field string

const (
	FieldRegion   Field = "region"
	FieldPeriod   Field = "year_month"
	FieldStressor Field = "stressor"
	FieldRisk     Field = "risk_level"
	FieldValue    Field = "R"
)

// ColumnRule maps a source header onto a canonical field. Name describes the
// predicate for diagnostics.
type ColumnRule struct {
	Field Field
	Name  string
	Match func(header string) bool
}

// ColumnMap records which source column index each field resolved to.
type ColumnMap map[Field]int

// Index returns the source column for f and whether it resolved.
func (m ColumnMap) Index(f Field) (int, bool) {
	i, ok := m[f]
	return i, ok
}

// Names returns the resolved source header name per field.
func (m ColumnMap) Names(header []string) map[Field]string {
	out := make(map[Field]string, len(m))
	for f, i := range m {
		if i < len(header) {
			out[f] = header[i]
		}
	}
	return out
}

func equalsAny(names ...string) func(string) bool {
	return func(h string) bool {
		for _, n := range names {
			if h == n {
				return true
			}
		}
		return false
	}
}

func containsAny(parts ...string) func(string) bool {
	return func(h string) bool {
		for _, p := range parts {
			if strings.Contains(h, p) {
				return true
			}
		}
		return false
	}
}

var (
	regionExact = ColumnRule{Field: FieldRegion, Name: `equals "region" or "지역"`, Match: equalsAny("region", "지역")}
	regionLike  = ColumnRule{Field: FieldRegion, Name: `contains "region"`, Match: containsAny("region")}
	periodLike  = ColumnRule{
		Field: FieldPeriod,
		Name:  `contains "year" or "ym", or equals "월"`,
		Match: func(h string) bool { return containsAny("year", "ym")(h) || h == "월" },
	}
	stressorLike = ColumnRule{Field: FieldStressor, Name: `contains "stress"`, Match: containsAny("stress")}
	riskExact    = ColumnRule{Field: FieldRisk, Name: `equals "risk_level"`, Match: equalsAny("risk_level")}
	valueExact   = ColumnRule{Field: FieldValue, Name: `equals "r" or "risk"`, Match: equalsAny("r", "risk")}
)

// LabelRules resolves the label table columns.
var LabelRules = []ColumnRule{regionExact, regionLike, periodLike, riskExact}

// PairRules resolves the pairwise table columns.
var PairRules = []ColumnRule{regionExact, regionLike, periodLike, stressorLike, valueExact}

// IntegratedRules resolves the integrated table columns. Every other numeric
// column becomes a measure.
var IntegratedRules = []ColumnRule{regionExact, regionLike, periodLike}

// RulesFor returns the rule set for a role.
func RulesFor(role Role) []ColumnRule {
	switch role {
	case RoleLabel:
		return LabelRules
	case RolePair:
		return PairRules
	default:
		return IntegratedRules
	}
}

// normalizeHeader trims whitespace and a stray byte order mark and lowercases
// the header for matching.
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.ToLower(strings.TrimSpace(h))
}

// ResolveColumns evaluates rules in priority order. A field already resolved
// by an earlier rule is not re-resolved, and a column claimed by one field is
// not offered to another.
func ResolveColumns(header []string, rules []ColumnRule) ColumnMap {
	resolved := make(ColumnMap, len(rules))
	claimed := make(map[int]bool, len(header))
	for _, rule := range rules {
		if _, done := resolved[rule.Field]; done {
			continue
		}
		for i, h := range header {
			if claimed[i] {
				continue
			}
			if rule.Match(normalizeHeader(h)) {
				resolved[rule.Field] = i
				claimed[i] = true
				break
			}
		}
	}
	return resolved
}
