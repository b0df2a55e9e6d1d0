package coops

import (
	"encoding/xml"
	"strconv"
	"time"
)

const (
	// DateFormat is the format of beginDate and endDate.
	DateFormat = "20060102"

	defaultDatum        = "MLLW"
	defaultDataInterval = 6
)

// Unit selects the unit of water levels. Per NOAA's documentation 0 is
// meters and 1 is feet; the high/low service is known to swap them.
type Unit int

const (
	Meters Unit = 0
	Feet   Unit = 1
)

// TimeZone selects the time zone of timestamps. Per NOAA's documentation 0
// is GMT and 1 is local standard/daylight time; the high/low service is
// known to swap them.
type TimeZone int

const (
	GMT       TimeZone = 0
	LocalTime TimeZone = 1
)

// Query holds the parameters of a data request. Station list kinds ignore
// it.
type Query struct {
	StationID string
	BeginDate time.Time
	EndDate   time.Time
	// Datum defaults to MLLW.
	Datum    string
	Unit     Unit
	TimeZone TimeZone
	// DataInterval in minutes, only sent for Predictions. Defaults to 6.
	DataInterval int
}

type param struct {
	name, value string
}

func (q Query) params(kind Kind) []param {
	switch kind {
	case ActiveStations, ActiveStationsV2:
		return nil
	}
	datum := q.Datum
	if datum == "" {
		datum = defaultDatum
	}
	ps := []param{
		{"stationId", q.StationID},
		{"beginDate", q.BeginDate.Format(DateFormat)},
		{"endDate", q.EndDate.Format(DateFormat)},
		{"datum", datum},
		{"unit", strconv.Itoa(int(q.Unit))},
		{"timeZone", strconv.Itoa(int(q.TimeZone))},
	}
	if kind == Predictions {
		interval := q.DataInterval
		if interval <= 0 {
			interval = defaultDataInterval
		}
		ps = append(ps, param{"dataInterval", strconv.Itoa(interval)})
	}
	return ps
}

// requestEnvelope builds the SOAP request for kind at ep.
func requestEnvelope(enc *xml.Encoder, ep Endpoint, kind Kind, q Query) error {
	return writeEnvelope(enc, true, func() error {
		op := xml.StartElement{
			Name: xml.Name{Local: "ns:" + ep.Operation},
			Attr: []xml.Attr{{Name: xml.Name{Local: "xmlns:ns"}, Value: ep.Namespace}},
		}
		if err := enc.EncodeToken(op); err != nil {
			return err
		}
		if ps := q.params(kind); len(ps) > 0 {
			wrapper := xml.StartElement{Name: xml.Name{Local: "Parameters"}}
			if err := enc.EncodeToken(wrapper); err != nil {
				return err
			}
			for _, p := range ps {
				if err := encodeText(enc, p.name, p.value); err != nil {
					return err
				}
			}
			if err := enc.EncodeToken(wrapper.End()); err != nil {
				return err
			}
		}
		return enc.EncodeToken(op.End())
	})
}
