package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spencer-p/tideserver/pkg/coops"
	"github.com/spencer-p/tideserver/pkg/noaa"
	"github.com/spencer-p/tideserver/pkg/timetricks"
)

// request is a validated API request.
type request struct {
	stationID string
	day       time.Time
	query     coops.Query
}

// api maps one route to one NOAA data kind.
type api struct {
	// name is reported in the X-TideServer-Api header.
	name string
	path string
	kind coops.Kind

	prepare func(vars map[string]string, now time.Time) (*request, error)
	convert func(req *request, rec any) (any, error)
	maxAge  func(day, now time.Time) (time.Duration, bool)
}

var apis = []api{{
	name:    "GetActiveStations",
	path:    "/stations",
	kind:    coops.ActiveStations,
	prepare: func(map[string]string, time.Time) (*request, error) { return &request{}, nil },
	convert: func(_ *request, rec any) (any, error) {
		s, ok := rec.(*coops.Stations)
		if !ok {
			return nil, unexpectedRecord(rec)
		}
		return noaa.NewStationList(s), nil
	},
	maxAge: func(time.Time, time.Time) (time.Duration, bool) { return timetricks.Month, true },
}, {
	name:    "GetStationWaterLevelVerified",
	path:    "/station/{id}/water-level/{date:[0-9]{8}}/verified",
	kind:    coops.WaterLevelVerifiedSixMin,
	prepare: prepareMeasured,
	convert: func(req *request, rec any) (any, error) {
		m, ok := rec.(*coops.WaterLevelVerifiedSixMinMeasurements)
		if !ok {
			return nil, unexpectedRecord(rec)
		}
		return noaa.NewVerifiedSeries(req.stationID, req.day, m)
	},
	maxAge: timetricks.MeasurementMaxAge,
}, {
	name:    "GetStationWaterLevelPreliminary",
	path:    "/station/{id}/water-level/{date:[0-9]{8}}/preliminary",
	kind:    coops.WaterLevelRawSixMin,
	prepare: prepareMeasured,
	convert: func(req *request, rec any) (any, error) {
		m, ok := rec.(*coops.WaterLevelRawSixMinMeasurements)
		if !ok {
			return nil, unexpectedRecord(rec)
		}
		return noaa.NewRawSeries(req.stationID, req.day, m)
	},
	maxAge: timetricks.MeasurementMaxAge,
}, {
	name:    "GetStationWaterLevelPredicted",
	path:    "/station/{id}/water-level/{date:[0-9]{8}}/predicted",
	kind:    coops.Predictions,
	prepare: preparePredicted,
	convert: func(req *request, rec any) (any, error) {
		p, ok := rec.(*coops.PredictionsValues)
		if !ok {
			return nil, unexpectedRecord(rec)
		}
		return noaa.NewPredictedSeries(req.stationID, req.day, p)
	},
	maxAge: timetricks.PredictionMaxAge,
}, {
	name: "GetStationExtremaPredicted",
	path: "/station/{id}/extrema/{date:[0-9]{8}}/predicted",
	kind: coops.HighLowTidePredictions,
	prepare: func(vars map[string]string, now time.Time) (*request, error) {
		req, err := preparePredicted(vars, now)
		if err != nil {
			return nil, err
		}
		// The high/low service swaps the documented values of both
		// parameters: this asks for UTC and meters.
		req.query.TimeZone = coops.LocalTime
		req.query.Unit = coops.Feet
		return req, nil
	},
	convert: func(req *request, rec any) (any, error) {
		v, ok := rec.(*coops.HighLowValues)
		if !ok {
			return nil, unexpectedRecord(rec)
		}
		return noaa.NewExtrema(req.stationID, req.day, v)
	},
	maxAge: timetricks.PredictionMaxAge,
}}

func unexpectedRecord(rec any) error {
	return fmt.Errorf("%w: unexpected record type %T", noaa.ErrUpstreamData, rec)
}

func preparePredicted(vars map[string]string, now time.Time) (*request, error) {
	day, err := timetricks.ParseDay(vars["date"])
	if err != nil {
		return nil, &httpError{status: http.StatusBadRequest, msg: "Invalid date", err: err}
	}
	if day.Before(timetricks.MinDay) {
		return nil, &httpError{
			status: http.StatusForbidden,
			msg:    "Data is not available before " + timetricks.MinDay.Format("2006-01-02"),
		}
	}
	return &request{
		stationID: vars["id"],
		day:       day,
		query: coops.Query{
			StationID: vars["id"],
			BeginDate: day,
			EndDate:   day,
			Datum:     "MLLW",
			Unit:      coops.Meters,
			TimeZone:  coops.GMT,
		},
	}, nil
}

// prepareMeasured also refuses days that have not started yet, telling the
// client when to come back.
func prepareMeasured(vars map[string]string, now time.Time) (*request, error) {
	req, err := preparePredicted(vars, now)
	if err != nil {
		return nil, err
	}
	if now.Before(req.day) {
		return nil, &httpError{
			status: http.StatusForbidden,
			msg:    "Data is not yet available",
			header: http.Header{"Retry-After": {req.day.Format(http.TimeFormat)}},
		}
	}
	return req, nil
}
