package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// strictPeriodRe matches the YYYY_MM form written by the modelling exports.
var strictPeriodRe = regexp.MustCompile(`^(\d{4})_(\d{1,2})$`)

// permissiveLayouts are tried in order after the strict form fails.
var permissiveLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006/01/02",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006.01.02",
	"2006-01",
	"2006/01",
	"2006.01",
	"200601",
	"20060102",
	"01/02/2006",
	"1/2/2006",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
}

// Period is a calendar month. It is the only temporal grouping key.
type Period struct {
	Year  int
	Month time.Month
}

// NewPeriod truncates t to its calendar month.
func NewPeriod(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// MustPeriod builds a period from a year and month number.
func MustPeriod(year, month int) Period {
	if month < 1 || month > 12 {
		panic(fmt.Sprintf("domain: invalid month %d", month))
	}
	return Period{Year: year, Month: time.Month(month)}
}

// Start returns the first day of the month at midnight UTC.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// IsZero reports whether p is the zero Period.
func (p Period) IsZero() bool { return p.Year == 0 && p.Month == 0 }

// Before reports whether p is an earlier month than o.
func (p Period) Before(o Period) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	return p.Month < o.Month
}

// String formats the period as YYYY-MM.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// MarshalText writes the period as its first day, YYYY-MM-01. The zero
// period is written as an empty string.
func (p Period) MarshalText() ([]byte, error) {
	if p.IsZero() {
		return []byte{}, nil
	}
	return []byte(p.Start().Format("2006-01-02")), nil
}

// UnmarshalText accepts any form ParsePeriod accepts, and an empty string
// for the zero period.
func (p *Period) UnmarshalText(b []byte) error {
	if strings.TrimSpace(string(b)) == "" {
		*p = Period{}
		return nil
	}
	parsed, ok := ParsePeriod(string(b))
	if !ok {
		return fmt.Errorf("invalid period %q", string(b))
	}
	*p = parsed
	return nil
}

// ParsePeriod parses a month value, strict YYYY_MM first and then the
// permissive layouts. Day and time of day are discarded.
func ParsePeriod(value string) (Period, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Period{}, false
	}
	if p, ok := parseStrictPeriod(value); ok {
		return p, true
	}
	for _, layout := range permissiveLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return NewPeriod(t), true
		}
	}
	return Period{}, false
}

func parseStrictPeriod(value string) (Period, bool) {
	m := strictPeriodRe.FindStringSubmatch(value)
	if m == nil {
		return Period{}, false
	}
	year, errY := strconv.Atoi(m[1])
	month, errM := strconv.Atoi(m[2])
	if errY != nil || errM != nil || month < 1 || month > 12 {
		return Period{}, false
	}
	return Period{Year: year, Month: time.Month(month)}, true
}
