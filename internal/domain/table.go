package domain

import (
	"fmt"
	"strings"
)

// Role identifies which of the three source tables a file holds.
type Role string

const (
	RoleLabel      Role = "label"
	RolePair       Role = "pair"
	RoleIntegrated Role = "integrated"
)

// Roles lists every role in load order.
var Roles = []Role{RoleLabel, RolePair, RoleIntegrated}

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleLabel, RolePair, RoleIntegrated:
		return r, nil
	default:
		return "", fmt.Errorf("unknown table role %q", s)
	}
}

// RawTable is a decoded CSV file before any column resolution.
type RawTable struct {
	Path     string
	Encoding string
	Header   []string
	Rows     [][]string
}

// Column returns the value at column i of row r, or "" if the row is short.
func (t RawTable) Column(r, i int) string {
	if i < 0 || r < 0 || r >= len(t.Rows) || i >= len(t.Rows[r]) {
		return ""
	}
	return t.Rows[r][i]
}

// RiskLevel is one of the three canonical risk labels.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// RiskLevels is the charting order.
var RiskLevels = []RiskLevel{RiskLow, RiskMedium, RiskHigh}

// riskColors are the dashboard colors for each level.
var riskColors = map[RiskLevel]string{
	RiskLow:    "#4CAF50",
	RiskMedium: "#FFC107",
	RiskHigh:   "#F44336",
}

// Color returns the chart color for the level, or "" for unknown levels.
func (l RiskLevel) Color() string { return riskColors[l] }

// ParseRiskLevel title-cases s ("high" -> "High") and matches it against the
// canonical vocabulary.
func ParseRiskLevel(s string) (RiskLevel, bool) {
	switch l := RiskLevel(titleCase(strings.TrimSpace(s))); l {
	case RiskLow, RiskMedium, RiskHigh:
		return l, true
	default:
		return "", false
	}
}

// titleCase upper-cases the first letter of each word and lower-cases the rest.
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	upperNext := true
	for _, r := range s {
		lower := strings.ToLower(string(r))
		switch {
		case !isLetter(r):
			b.WriteRune(r)
			upperNext = true
		case upperNext:
			b.WriteString(strings.ToUpper(lower))
			upperNext = false
		default:
			b.WriteString(lower)
		}
	}
	return b.String()
}

func isLetter(r rune) bool {
	return strings.ToLower(string(r)) != strings.ToUpper(string(r))
}

// CanonicalRow is one normalized row of the label table.
type CanonicalRow struct {
	Region    string             `json:"region"`
	Period    Period             `json:"period"`
	RiskLevel RiskLevel          `json:"risk_level"`
	Measures  map[string]float64 `json:"measures,omitempty"`
}

// CanonicalPairRow is one normalized row of the pairwise table. Value is nil
// when the source value did not parse.
type CanonicalPairRow struct {
	Region   string   `json:"region"`
	Period   Period   `json:"period"`
	Stressor string   `json:"stressor"`
	Value    *float64 `json:"value"`
}

// IntegratedRow is one normalized row of the integrated predictor table.
type IntegratedRow struct {
	Region   string             `json:"region"`
	Period   Period             `json:"period"`
	Measures map[string]float64 `json:"measures"`
}

// NormalizeOptions holds the default policies applied during normalization.
type NormalizeOptions struct {
	// DefaultRiskLevel is assigned to every label row when the source has no
	// risk_level column.
	DefaultRiskLevel RiskLevel
}

// DefaultNormalizeOptions returns the documented policy defaults.
func DefaultNormalizeOptions() NormalizeOptions {
	return NormalizeOptions{DefaultRiskLevel: RiskMedium}
}
