// Package observe holds the immutable observation table derived from raw
// climate feeds, keyed by district and time period.
package observe

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
)

// Granularity selects the period key shape of a study window.
type Granularity string

const (
	Daily   Granularity = "daily"
	Monthly Granularity = "monthly"
)

// Period is a comparable time-period key. Day == 0 denotes a monthly key.
type Period struct {
	Year  int
	Month int
	Day   int
}

// DailyPeriod returns the daily period key for t (UTC date).
func DailyPeriod(t time.Time) Period {
	u := t.UTC()
	return Period{Year: u.Year(), Month: int(u.Month()), Day: u.Day()}
}

// MonthlyPeriod returns the monthly period key for t.
func MonthlyPeriod(t time.Time) Period {
	u := t.UTC()
	return Period{Year: u.Year(), Month: int(u.Month())}
}

// PeriodFor maps a timestamp to a period key at the given granularity.
func PeriodFor(t time.Time, g Granularity) Period {
	if g == Daily {
		return DailyPeriod(t)
	}
	return MonthlyPeriod(t)
}

// IsMonthly reports whether p is a monthly key.
func (p Period) IsMonthly() bool { return p.Day == 0 }

// MonthKey collapses a daily key to its containing month. Monthly keys are
// returned unchanged.
func (p Period) MonthKey() Period { return Period{Year: p.Year, Month: p.Month} }

// Before orders periods chronologically.
func (p Period) Before(q Period) bool {
	if p.Year != q.Year {
		return p.Year < q.Year
	}
	if p.Month != q.Month {
		return p.Month < q.Month
	}
	return p.Day < q.Day
}

// String renders "2013-06" for monthly keys and "2013-06-15" for daily keys.
func (p Period) String() string {
	if p.IsMonthly() {
		return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
	}
	return fmt.Sprintf("%04d-%02d-%02d", p.Year, p.Month, p.Day)
}

// ParsePeriod parses the String form back into a Period.
func ParsePeriod(s string) (Period, error) {
	var p Period
	switch len(s) {
	case 7:
		if _, err := fmt.Sscanf(s, "%04d-%02d", &p.Year, &p.Month); err != nil {
			return Period{}, eris.Wrapf(err, "observe: parse period %q", s)
		}
	case 10:
		if _, err := fmt.Sscanf(s, "%04d-%02d-%02d", &p.Year, &p.Month, &p.Day); err != nil {
			return Period{}, eris.Wrapf(err, "observe: parse period %q", s)
		}
	default:
		return Period{}, eris.Errorf("observe: parse period %q: want YYYY-MM or YYYY-MM-DD", s)
	}
	if p.Month < 1 || p.Month > 12 {
		return Period{}, eris.Errorf("observe: parse period %q: month out of range", s)
	}
	return p, nil
}

// PeriodRange enumerates the full expected period set for a study window,
// inclusive of both years. The explicit enumeration is what the coverage
// resolver checks the observation table against; periods absent from the
// input must still appear here.
func PeriodRange(startYear, endYear int, g Granularity) []Period {
	var out []Period
	for y := startYear; y <= endYear; y++ {
		for m := 1; m <= 12; m++ {
			if g == Monthly {
				out = append(out, Period{Year: y, Month: m})
				continue
			}
			days := time.Date(y, time.Month(m)+1, 0, 0, 0, 0, 0, time.UTC).Day()
			for d := 1; d <= days; d++ {
				out = append(out, Period{Year: y, Month: m, Day: d})
			}
		}
	}
	return out
}
