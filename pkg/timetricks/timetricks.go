package timetricks

import (
	"fmt"
	"time"
)

const (
	// DayFormat is the YYYYMMDD form used in request paths and NOAA queries.
	DayFormat = "20060102"

	Day   = 24 * time.Hour
	Week  = 7 * Day
	Month = 30 * Day
	Year  = 365 * Day
)

// MinDay is the earliest date water level data is served for.
var MinDay = time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC)

// ParseDay parses exactly eight digits in YYYYMMDD form as midnight UTC.
func ParseDay(s string) (time.Time, error) {
	if len(s) != len(DayFormat) {
		return time.Time{}, fmt.Errorf("date %q must be exactly 8 digits (YYYYMMDD)", s)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return time.Time{}, fmt.Errorf("date %q cannot contain non-digits", s)
		}
	}
	t, err := time.ParseInLocation(DayFormat, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q is not a valid date: %w", s, err)
	}
	return t, nil
}

// FormatDay returns a string representation of t that is unique by the day.
// For instance, two seperate times on the same calendar day return identical
// strings.
func FormatDay(t time.Time) string {
	return t.Format(DayFormat)
}

// StartOfDay trims the clock from t, keeping its location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func SameDay(t time.Time, t2 time.Time) bool {
	return FormatDay(t) == FormatDay(t2)
}

// MeasurementMaxAge returns how long a measurement for day may be cached as
// of now. Same-day measurements get zero, the same week one day, the same
// year thirty days. Older data never changes again and expires is false.
func MeasurementMaxAge(day, now time.Time) (maxAge time.Duration, expires bool) {
	age := now.Sub(day)
	switch {
	case age < Day:
		return 0, true
	case age < Week:
		return Day, true
	case age < Year:
		return Month, true
	default:
		return 0, false
	}
}

// PredictionMaxAge is like MeasurementMaxAge for predictions, which are
// cached forever once day has passed and are otherwise refreshed more often
// the closer day is.
func PredictionMaxAge(day, now time.Time) (maxAge time.Duration, expires bool) {
	lead := day.Sub(now)
	switch {
	case lead < 0:
		return 0, false
	case lead < Day:
		return 0, true
	case lead < Week:
		return Day, true
	default:
		return Month, true
	}
}
