package domain

import (
	"errors"
	"sort"
	"time"
)

// DateLayout is the calendar-day format used for completion dates.
const DateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date (must be YYYY-MM-DD)")

// CalendarDay strips the clock from t, keeping the year, month and day as seen in t's location.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func FormatDate(t time.Time) string {
	return CalendarDay(t).Format(DateLayout)
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

func ValidateDates(dates []string) error {
	for _, d := range dates {
		if _, err := ParseDate(d); err != nil {
			return err
		}
	}
	return nil
}

// NormalizeDates returns the valid dates of the input, deduplicated and sorted ascending.
func NormalizeDates(dates []string) []string {
	if len(dates) == 0 {
		return []string{}
	}

	seen := make(map[string]bool, len(dates))
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		if seen[d] {
			continue
		}
		if _, err := ParseDate(d); err != nil {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}

	sort.Strings(out)
	return out
}
