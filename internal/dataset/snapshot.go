package dataset

import (
	"time"

	"github.com/couchcryptid/hra-dashboard/internal/domain"
)

// Snapshot is one consistent load of all source tables. It is never mutated
// after the store publishes it.
type Snapshot struct {
	Labels     []domain.CanonicalRow
	Pairs      []domain.CanonicalPairRow
	Integrated []domain.IntegratedRow
	Measures   []string // numeric columns of the integrated table
	Reports    map[domain.Role]domain.NormalizeReport
	LoadedAt   time.Time

	modTimes map[string]time.Time
}

// HasMeasure reports whether the integrated table carries measure.
func (s *Snapshot) HasMeasure(measure string) bool {
	for _, m := range s.Measures {
		if m == measure {
			return true
		}
	}
	return false
}

// Rows returns the number of canonical rows for role.
func (s *Snapshot) Rows(role domain.Role) int {
	switch role {
	case domain.RoleLabel:
		return len(s.Labels)
	case domain.RolePair:
		return len(s.Pairs)
	case domain.RoleIntegrated:
		return len(s.Integrated)
	}
	return 0
}

// Head returns up to limit canonical rows of role in source order, for
// tabular display. A non-positive limit returns every row.
func (s *Snapshot) Head(role domain.Role, limit int) any {
	switch role {
	case domain.RoleLabel:
		return head(s.Labels, limit)
	case domain.RolePair:
		return head(s.Pairs, limit)
	default:
		return head(s.Integrated, limit)
	}
}

func head[T any](rows []T, limit int) []T {
	if rows == nil {
		return []T{}
	}
	if limit <= 0 || limit >= len(rows) {
		return rows
	}
	return rows[:limit]
}
