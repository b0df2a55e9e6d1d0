package coops

import (
	"fmt"
	"strconv"
	"strings"
)

// ArrayOfData is the ordered item sequence NOAA wraps every series in.
type ArrayOfData[T any] struct {
	Item []T
}

// Len returns the number of items.
func (a ArrayOfData[T]) Len() int {
	return len(a.Item)
}

// Stations is the decoded ActiveStations response.
type Stations struct {
	Station []Station
}

// StationsV2 is the decoded ActiveStationsV2 response.
type StationsV2 struct {
	Station []StationV2
}

// Station is a single active station. NOAA fills ID with the station name
// and name with the numeric station ID; the fields hold what was sent.
type Station struct {
	ID        *string
	Name      *string
	Metadata  Metadata
	Parameter []Parameter
}

type StationV2 struct {
	ID         *string
	Name       *string
	MetadataV2 MetadataV2
	Parameter  []Parameter
}

type Metadata struct {
	Location        Location
	DateEstablished string
}

type MetadataV2 struct {
	Location              Location
	DateEstablished       string
	ShefID                string
	DeploymentDesignation string
}

// Location holds coordinates as sent, in decimal degrees.
type Location struct {
	Lat   string
	Long  string
	State *string
}

// Coordinates parses Lat and Long.
func (l Location) Coordinates() (lat, long float64, err error) {
	lat, err = strconv.ParseFloat(strings.TrimSpace(l.Lat), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("latitude %q not a float: %w", l.Lat, err)
	}
	long, err = strconv.ParseFloat(strings.TrimSpace(l.Long), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("longitude %q not a float: %w", l.Long, err)
	}
	return lat, long, nil
}

// Parameter is a quantity observed at a station.
type Parameter struct {
	Name     *string
	SensorID *string
	DCP      *int32
	Status   *int32
}

// RawSixMin is one preliminary six-minute water level sample. O is the
// number of one-second samples outside three sigma; F, R and L are the flat,
// rate-of-change and water-level limit flags.
type RawSixMin struct {
	TimeStamp string
	WL        float64
	Sigma     float64
	O         int32
	F         int32
	R         int32
	L         int32
}

// VerifiedSixMin is one verified six-minute water level sample. I, F, R and
// T are the inferred, flat, rate-of-change and temperature flags.
type VerifiedSixMin struct {
	TimeStamp string
	WL        float64
	Sigma     float64
	I         int32
	F         int32
	R         int32
	T         int32
}

type WaterLevelRawSixMinMeasurements struct {
	Data ArrayOfData[RawSixMin]
}

type WaterLevelVerifiedSixMinMeasurements struct {
	Data ArrayOfData[VerifiedSixMin]
}

// Prediction is one six-minute predicted water level.
type Prediction struct {
	TimeStamp string
	Pred      float64
}

type PredictionsValues struct {
	Data ArrayOfData[Prediction]
}

// HighLowData is a single predicted extremum. Type is "H" or "L".
type HighLowData struct {
	Time string
	Pred float64
	Type string
}

// HighLowDay groups the extrema predicted for one date.
type HighLowDay struct {
	Date string
	Data []HighLowData
}

// HighLowValues is the decoded high/low tide prediction response. A nil
// array on the wire decodes to an empty Values.
type HighLowValues struct {
	Values ArrayOfData[HighLowDay]
}

func locationFromObject(o *object) Location {
	return Location{
		Lat:   o.str("lat"),
		Long:  o.str("long"),
		State: o.optStr("state"),
	}
}

func (l Location) object() *object {
	o := newObject().set("lat", l.Lat).set("long", l.Long)
	setOpt(o, "state", l.State)
	return o
}

func parameterFromObject(o *object) Parameter {
	return Parameter{
		Name:     o.optStr("name"),
		SensorID: o.optStr("sensorID"),
		DCP:      o.optI32("DCP"),
		Status:   o.optI32("status"),
	}
}

func (p Parameter) object() *object {
	o := newObject()
	setOpt(o, "name", p.Name)
	setOpt(o, "sensorID", p.SensorID)
	setOpt(o, "DCP", p.DCP)
	setOpt(o, "status", p.Status)
	return o
}

func metadataFromObject(o *object) Metadata {
	return Metadata{
		Location:        locationFromObject(o.obj("location")),
		DateEstablished: o.str("date_established"),
	}
}

func (m Metadata) object() *object {
	return newObject().
		set("location", m.Location.object()).
		set("date_established", m.DateEstablished)
}

func metadataV2FromObject(o *object) MetadataV2 {
	return MetadataV2{
		Location:              locationFromObject(o.obj("location")),
		DateEstablished:       o.str("date_established"),
		ShefID:                o.str("shef_id"),
		DeploymentDesignation: o.str("deployment_designation"),
	}
}

func (m MetadataV2) object() *object {
	return newObject().
		set("location", m.Location.object()).
		set("date_established", m.DateEstablished).
		set("shef_id", m.ShefID).
		set("deployment_designation", m.DeploymentDesignation)
}

func stationFromObject(o *object) Station {
	return Station{
		ID:        o.optStr("ID"),
		Name:      o.optStr("name"),
		Metadata:  metadataFromObject(o.obj("metadata")),
		Parameter: buildList(o.list("parameter"), parameterFromObject),
	}
}

func (s Station) object() *object {
	o := newObject().
		set("metadata", s.Metadata.object()).
		set("parameter", flattenList(s.Parameter, Parameter.object))
	setOpt(o, "ID", s.ID)
	setOpt(o, "name", s.Name)
	return o
}

func stationV2FromObject(o *object) StationV2 {
	return StationV2{
		ID:         o.optStr("ID"),
		Name:       o.optStr("name"),
		MetadataV2: metadataV2FromObject(o.obj("metadataV2")),
		Parameter:  buildList(o.list("parameter"), parameterFromObject),
	}
}

func (s StationV2) object() *object {
	o := newObject().
		set("metadataV2", s.MetadataV2.object()).
		set("parameter", flattenList(s.Parameter, Parameter.object))
	setOpt(o, "ID", s.ID)
	setOpt(o, "name", s.Name)
	return o
}

func rawSixMinFromObject(o *object) RawSixMin {
	return RawSixMin{
		TimeStamp: o.str("timeStamp"),
		WL:        o.f64("WL"),
		Sigma:     o.f64("sigma"),
		O:         o.i32("O"),
		F:         o.i32("F"),
		R:         o.i32("R"),
		L:         o.i32("L"),
	}
}

func (d RawSixMin) object() *object {
	return newObject().
		set("timeStamp", d.TimeStamp).
		set("WL", d.WL).
		set("sigma", d.Sigma).
		set("O", d.O).
		set("F", d.F).
		set("R", d.R).
		set("L", d.L)
}

func verifiedSixMinFromObject(o *object) VerifiedSixMin {
	return VerifiedSixMin{
		TimeStamp: o.str("timeStamp"),
		WL:        o.f64("WL"),
		Sigma:     o.f64("sigma"),
		I:         o.i32("I"),
		F:         o.i32("F"),
		R:         o.i32("R"),
		T:         o.i32("T"),
	}
}

func (d VerifiedSixMin) object() *object {
	return newObject().
		set("timeStamp", d.TimeStamp).
		set("WL", d.WL).
		set("sigma", d.Sigma).
		set("I", d.I).
		set("F", d.F).
		set("R", d.R).
		set("T", d.T)
}

func predictionFromObject(o *object) Prediction {
	return Prediction{
		TimeStamp: o.str("timeStamp"),
		Pred:      o.f64("pred"),
	}
}

func (p Prediction) object() *object {
	return newObject().set("timeStamp", p.TimeStamp).set("pred", p.Pred)
}

func highLowDataFromObject(o *object) HighLowData {
	return HighLowData{
		Time: o.str("time"),
		Pred: o.f64("pred"),
		Type: o.str("type"),
	}
}

func (d HighLowData) object() *object {
	return newObject().set("time", d.Time).set("pred", d.Pred).set("type", d.Type)
}

func highLowDayFromObject(o *object) HighLowDay {
	return HighLowDay{
		Date: o.str("date"),
		Data: buildList(o.list("data"), highLowDataFromObject),
	}
}

func (d HighLowDay) object() *object {
	return newObject().
		set("date", d.Date).
		set("data", flattenList(d.Data, HighLowData.object))
}

func arrayFromObject[T any](o *object, build func(*object) T) ArrayOfData[T] {
	return ArrayOfData[T]{Item: buildList(o.list("item"), build)}
}

func arrayObject[T any](a ArrayOfData[T], flatten func(T) *object) *object {
	return newObject().set("item", flattenList(a.Item, flatten))
}
