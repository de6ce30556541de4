package engine

import (
	"fmt"
	"time"

	"github.com/dkrylov/finplan/internal/models"
)

// DateLayout is the ISO date format used across the engine boundary.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string into a UTC midnight time.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date %q: %w", s, err)
	}
	return t.UTC(), nil
}

// FormatDate renders a time as a YYYY-MM-DD date key.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func daysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// clampedDate builds a date in year/month with the day clamped to the
// month's last day (Jan 30 + 1 month -> Feb 28/29, not Mar 1/2).
func clampedDate(year int, month time.Month, day int) time.Time {
	if max := daysInMonth(year, month); day > max {
		day = max
	}
	if day < 1 {
		day = 1
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// addMonthsClamped steps a date forward by whole months, keeping the
// target day-of-month and clamping it per month.
func addMonthsClamped(t time.Time, months int, day int) time.Time {
	y, m, _ := t.Date()
	total := int(m) - 1 + months
	year := y + total/12
	month := time.Month(total%12 + 1)
	if total < 0 {
		year = y + (total-11)/12
		month = time.Month((total%12+12)%12 + 1)
	}
	return clampedDate(year, month, day)
}

// adjustWeekend moves a weekend date to the adjacent business day
// according to the rule's policy. Weekday dates pass through.
func adjustWeekend(t time.Time, policy models.WeekendAdjustment) time.Time {
	switch policy {
	case models.WeekendBefore:
		switch t.Weekday() {
		case time.Sunday:
			return t.AddDate(0, 0, -2)
		case time.Saturday:
			return t.AddDate(0, 0, -1)
		}
	case models.WeekendAfter:
		switch t.Weekday() {
		case time.Sunday:
			return t.AddDate(0, 0, 1)
		case time.Saturday:
			return t.AddDate(0, 0, 2)
		}
	}
	return t
}

func maxDate(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minDate(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
