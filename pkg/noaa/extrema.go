package noaa

import (
	"fmt"
	"time"

	"github.com/spencer-p/tideserver/pkg/coops"
)

var extremaFormat = []string{"timestampUTC", "waterLevelMeters", "extremaType"}

// Extrema lists predicted high and low tides. Each entry of Data is
// [timestampUTC, waterLevelMeters, extremaType].
type Extrema struct {
	StationID         string   `json:"stationId"`
	DataPoints        int      `json:"dataPoints"`
	DateLocalTimeZone string   `json:"dateLocalTimeZone"`
	PackedDataFormat  []string `json:"packedDataFormat"`
	Data              [][]any  `json:"data"`
}

// NewExtrema converts a high/low prediction response. DataPoints counts the
// days NOAA returned, as the service reports it.
func NewExtrema(stationID string, day time.Time, v *coops.HighLowValues) (*Extrema, error) {
	data := [][]any{}
	for _, d := range v.Values.Item {
		for _, hl := range d.Data {
			ts, err := ParseTimestamp(d.Date + " " + hl.Time)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrUpstreamData, err)
			}
			if _, err := ParseTide(hl.Type); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrUpstreamData, err)
			}
			data = append(data, []any{formatLocal(ts), hl.Pred, hl.Type})
		}
	}
	return &Extrema{
		StationID:         stationID,
		DataPoints:        v.Values.Len(),
		DateLocalTimeZone: day.Format(dateFormat),
		PackedDataFormat:  extremaFormat,
		Data:              data,
	}, nil
}
