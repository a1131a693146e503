package shared

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"
)

// BookingDay is the company wide journal booking day within a month. Months
// shorter than 27 days clamp to their last day.
const BookingDay = 27

// ErrInvalidPeriod indicates a period string that is not YYYY-MM or YYYY-MM-DD.
var ErrInvalidPeriod = errors.New("shared: invalid period format")

// Period identifies a calendar month. It is the unit of amortization: every
// schedule entry, accrual booking and payment allocation is keyed by one.
type Period struct {
	year  int
	month time.Month
}

// NewPeriod builds a Period from a year and month.
func NewPeriod(year int, month time.Month) Period {
	return Period{year: year, month: month}
}

// PeriodOf returns the Period containing t.
func PeriodOf(t time.Time) Period {
	return Period{year: t.Year(), month: t.Month()}
}

// ParsePeriod accepts YYYY-MM or YYYY-MM-DD.
func ParsePeriod(s string) (Period, error) {
	for _, layout := range []string{"2006-01", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return PeriodOf(t), nil
		}
	}
	return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.year, int(p.month))
}

// IsZero reports whether p is the zero value.
func (p Period) IsZero() bool {
	return p.year == 0 && p.month == 0
}

// FirstDay returns the first calendar day of the period in UTC.
func (p Period) FirstDay() time.Time {
	return time.Date(p.year, p.month, 1, 0, 0, 0, 0, time.UTC)
}

// LastDay returns the last calendar day of the period in UTC.
func (p Period) LastDay() time.Time {
	return p.FirstDay().AddDate(0, 1, -1)
}

// BookingDate returns the period's journal booking date: the 27th, clamped to
// the month length.
func (p Period) BookingDate() time.Time {
	day := BookingDay
	if last := p.LastDay().Day(); last < day {
		day = last
	}
	return time.Date(p.year, p.month, day, 0, 0, 0, 0, time.UTC)
}

// Next returns the following calendar month.
func (p Period) Next() Period {
	return p.AddMonths(1)
}

// AddMonths returns the period n months after p.
func (p Period) AddMonths(n int) Period {
	return PeriodOf(p.FirstDay().AddDate(0, n, 0))
}

// Before reports whether p precedes o.
func (p Period) Before(o Period) bool {
	if p.year != o.year {
		return p.year < o.year
	}
	return p.month < o.month
}

// After reports whether p follows o.
func (p Period) After(o Period) bool {
	return o.Before(p)
}

// MonthsBetween counts the calendar months from start to end inclusively,
// regardless of day-of-month. A negative or zero count means end precedes
// start.
func MonthsBetween(start, end Period) int {
	return (end.year-start.year)*12 + int(end.month) - int(start.month) + 1
}

// MarshalText renders the period as YYYY-MM for JSON payloads.
func (p Period) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses YYYY-MM or YYYY-MM-DD.
func (p *Period) UnmarshalText(data []byte) error {
	parsed, err := ParsePeriod(string(data))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Value stores the period as its YYYY-MM text form.
func (p Period) Value() (driver.Value, error) {
	return p.String(), nil
}

// Scan reads the period from its YYYY-MM text form.
func (p *Period) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return p.UnmarshalText([]byte(v))
	case []byte:
		return p.UnmarshalText(v)
	case time.Time:
		*p = PeriodOf(v)
		return nil
	default:
		return fmt.Errorf("shared: cannot scan %T into Period", src)
	}
}
