package noaa

import (
	"fmt"
	"time"

	"github.com/spencer-p/tideserver/pkg/coops"
)

var (
	verifiedFormat  = []string{"waterLevelMeters", "sigma", "flags"}
	rawFormat       = []string{"waterLevelMeters", "sigma", "samplesOutsideThreeSigma", "flags"}
	predictedFormat = []string{"waterLevelMeters"}
)

// Series is a packed six-minute time series for one UTC day. Data holds one
// entry per slot from midnight, each laid out as PackedDataFormat, or nil for
// a slot NOAA did not report. DataPoints counts the samples received.
type Series struct {
	StationID        string   `json:"stationId"`
	DateUTC          string   `json:"dateUTC"`
	DataPoints       int      `json:"dataPoints"`
	PackedDataFormat []string `json:"packedDataFormat"`
	Data             []any    `json:"data"`
}

// Missing returns the number of slots in Data that are null.
func (s *Series) Missing() int {
	n := 0
	for _, d := range s.Data {
		if d == nil {
			n++
		}
	}
	return n
}

func NewVerifiedSeries(stationID string, day time.Time, m *coops.WaterLevelVerifiedSixMinMeasurements) (*Series, error) {
	return pack(stationID, day, verifiedFormat, m.Data.Item,
		func(d coops.VerifiedSixMin) string { return d.TimeStamp },
		func(d coops.VerifiedSixMin) []any {
			flags := []string{}
			if d.I != 0 {
				flags = append(flags, "inferred")
			}
			if d.F != 0 {
				flags = append(flags, "flatToleranceLimitExceeded")
			}
			if d.R != 0 {
				flags = append(flags, "rateOfChangeToleranceLimitExceeded")
			}
			if d.T != 0 {
				flags = append(flags, "temperatureToleranceLimitExceeded")
			}
			return []any{d.WL, d.Sigma, flags}
		})
}

func NewRawSeries(stationID string, day time.Time, m *coops.WaterLevelRawSixMinMeasurements) (*Series, error) {
	return pack(stationID, day, rawFormat, m.Data.Item,
		func(d coops.RawSixMin) string { return d.TimeStamp },
		func(d coops.RawSixMin) []any {
			flags := []string{}
			if d.F != 0 {
				flags = append(flags, "flatToleranceLimitExceeded")
			}
			if d.R != 0 {
				flags = append(flags, "rateOfChangeToleranceLimitExceeded")
			}
			if d.L != 0 {
				flags = append(flags, "waterLevelLimitExceeded")
			}
			return []any{d.WL, d.Sigma, d.O, flags}
		})
}

func NewPredictedSeries(stationID string, day time.Time, p *coops.PredictionsValues) (*Series, error) {
	return pack(stationID, day, predictedFormat, p.Data.Item,
		func(d coops.Prediction) string { return d.TimeStamp },
		func(d coops.Prediction) []any { return []any{d.Pred} })
}

// pack lays items out in six-minute slots starting at day. Items must be in
// time order on slot boundaries, the first at midnight; skipped slots are
// filled with nil.
func pack[T any](stationID string, day time.Time, format []string, items []T, stamp func(T) string, row func(T) []any) (*Series, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no data provided for station %s", ErrUpstreamData, stationID)
	}

	start := day.UTC()
	first, err := ParseTimestamp(stamp(items[0]))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamData, err)
	}
	if !first.Equal(start) {
		return nil, fmt.Errorf("%w: first timestamp %s for station %s is not at start of %s",
			ErrUpstreamData, formatLocal(first), stationID, start.Format(dateFormat))
	}

	data := make([]any, 0, len(items))
	next := start
	for _, it := range items {
		ts, err := ParseTimestamp(stamp(it))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUpstreamData, err)
		}
		for ts.After(next) {
			data = append(data, nil)
			next = next.Add(SlotInterval)
		}
		if !ts.Equal(next) {
			return nil, fmt.Errorf("%w: timestamp %s for station %s is before expected %s",
				ErrUpstreamData, formatLocal(ts), stationID, formatLocal(next))
		}
		data = append(data, row(it))
		next = next.Add(SlotInterval)
	}

	return &Series{
		StationID:        stationID,
		DateUTC:          start.Format(dateFormat),
		DataPoints:       len(items),
		PackedDataFormat: format,
		Data:             data,
	}, nil
}
