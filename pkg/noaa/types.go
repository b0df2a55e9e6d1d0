package noaa

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrUpstreamData reports data from NOAA that cannot be converted, such as an
// empty series or timestamps out of sequence.
var ErrUpstreamData = errors.New("invalid data from NOAA")

const (
	// SlotInterval is the spacing of six-minute series.
	SlotInterval = 6 * time.Minute
	// SlotsPerDay is the number of six-minute slots in a day.
	SlotsPerDay = int(24 * time.Hour / SlotInterval)

	dateFormat       = "2006-01-02"
	localMinutesFmt  = "2006-01-02T15:04"
	localSecondsFmt  = "2006-01-02T15:04:05"
	localFractionFmt = "2006-01-02T15:04:05.999999999"
)

// Verify the custom types can be marshaled
var _ json.Unmarshaler = new(Tide)
var _ json.Marshaler = new(Tide)

type Tide uint

const (
	HighTide Tide = iota
	LowTide
)

func (t Tide) Valid() bool {
	return t == HighTide || t == LowTide
}

// ParseTide reads an extremum type. NOAA sends H and L, and HH and LL for
// the higher high and lower low of a mixed tide.
func ParseTide(s string) (Tide, error) {
	switch s {
	case "H", "HH":
		return HighTide, nil
	case "L", "LL":
		return LowTide, nil
	default:
		return 0, fmt.Errorf("invalid tide type %q", s)
	}
}

func (t *Tide) UnmarshalJSON(buf []byte) error {
	var s string
	if err := json.Unmarshal(buf, &s); err != nil {
		return fmt.Errorf("tide %q not a string: %w", buf, err)
	}
	parsed, err := ParseTide(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t Tide) MarshalJSON() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid tide %d", uint(t))
	}
	return json.Marshal(t.String())
}

func (t Tide) String() string {
	switch t {
	case HighTide:
		return "H"
	case LowTide:
		return "L"
	default:
		return "invalid"
	}
}

// formatLocal writes t the way ISO local date-times are usually written,
// omitting zero seconds.
func formatLocal(t time.Time) string {
	switch {
	case t.Nanosecond() != 0:
		return t.Format(localFractionFmt)
	case t.Second() != 0:
		return t.Format(localSecondsFmt)
	default:
		return t.Format(localMinutesFmt)
	}
}
