package noaa

import (
	"fmt"
	"strings"
	"time"
)

// timestampLayouts are the forms seen from the CO-OPS services: the
// documented yyyyMMdd HH:mm, yyyy-MM-dd HH:mm:ss.S from the water level feeds
// and MM/dd/yyyy HH:mm from predictions. Fractional seconds are accepted by
// time.Parse after any seconds field.
var timestampLayouts = []string{
	"20060102 15:04",
	"20060102 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006 15:04:05",
}

// ParseTimestamp reads a NOAA timestamp as a UTC wall clock time.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid NOAA timestamp %q", s)
}
