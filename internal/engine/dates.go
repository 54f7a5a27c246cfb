// Package engine implements the cash-flow engine: billing date resolution,
// installment projection, period aggregation, calendar indexing and balance
// forecasting. Every function is pure: it reads immutable snapshots and
// produces new values, never mutating inputs or holding state across calls.
// Concurrent calls over the same snapshot are safe.
package engine

import (
	"fmt"
	"math"
	"time"
)

// Month identifies a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the calendar month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses a YYYY-MM string.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q: %w", s, err)
	}
	return MonthOf(t), nil
}

// String formats the month as YYYY-MM.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Add returns the month n calendar months after m (n may be negative).
func (m Month) Add(n int) Month {
	t := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	return MonthOf(t)
}

// Contains reports whether t falls inside the month.
func (m Month) Contains(t time.Time) bool {
	return t.Year() == m.Year && t.Month() == m.Month
}

// Before reports whether m precedes other.
func (m Month) Before(other Month) bool {
	return m.Year < other.Year || (m.Year == other.Year && m.Month < other.Month)
}

// DaysInMonth returns the number of days in the given month. Day zero of the
// following month is the last day of this one.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDay limits day to the length of the given month, so a day-of-month of
// 31 resolves to Feb 28/29, Apr 30, and so on. It never overflows into the
// next month.
func ClampDay(year int, month time.Month, day int) int {
	if max := DaysInMonth(year, month); day > max {
		return max
	}
	return day
}

// DateOn builds a UTC date in the given month with the day clamped.
func DateOn(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, ClampDay(year, month, day), 0, 0, 0, 0, time.UTC)
}

// AddMonths adds n calendar months to d, clamping the day-of-month: Jan 31
// plus one month is Feb 28 (29 in leap years). This is the single month
// arithmetic primitive shared by every engine component.
func AddMonths(d time.Time, n int) time.Time {
	anchor := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	return DateOn(anchor.Year(), anchor.Month(), d.Day())
}

// MonthDiff returns the number of whole calendar months from a to b,
// negative when b precedes a. Days-of-month are ignored.
func MonthDiff(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}

// SameDay reports whether two dates fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// roundCents rounds a currency value to two decimal places.
func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
