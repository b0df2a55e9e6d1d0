package coops

import "fmt"

// Entry is the registered shape of one data kind.
type Entry struct {
	Kind Kind
	// Root is the expected local name of the document root element.
	Root   string
	Schema *Schema

	build   func(*object) any
	flatten func(any) (*object, error)
}

// Registry maps data kinds to their schemas. It is never modified after
// construction and is safe for concurrent use.
type Registry struct {
	entries map[Kind]*Entry
}

// Lookup returns the entry registered for kind.
func (r *Registry) Lookup(kind Kind) (*Entry, error) {
	e, ok := r.entries[kind]
	if !ok {
		return nil, &SchemaNotFoundError{Kind: kind}
	}
	return e, nil
}

var (
	locationSchema = &Schema{
		Name: "location",
		Fields: []Field{
			{Name: "lat", Type: String, Required: true},
			{Name: "long", Type: String, Required: true},
			{Name: "state", Type: String},
		},
	}

	parameterSchema = &Schema{
		Name: "parameter",
		Fields: []Field{
			{Name: "name", Type: String, Attr: true},
			{Name: "sensorID", Type: String, Attr: true},
			{Name: "DCP", Type: Int32, Attr: true},
			{Name: "status", Type: Int32, Attr: true},
		},
	}

	metadataSchema = &Schema{
		Name: "metadata",
		Fields: []Field{
			{Name: "location", Type: Complex, Required: true, Schema: locationSchema},
			{Name: "date_established", Type: String, Required: true},
		},
	}

	metadataV2Schema = &Schema{
		Name: "metadataV2",
		Fields: []Field{
			{Name: "location", Type: Complex, Required: true, Schema: locationSchema},
			{Name: "date_established", Type: String, Required: true},
			{Name: "shef_id", Type: String, Required: true},
			{Name: "deployment_designation", Type: String, Required: true},
		},
	}

	stationSchema = &Schema{
		Name: "station",
		Fields: []Field{
			{Name: "metadata", Type: Complex, Required: true, Schema: metadataSchema},
			{Name: "parameter", Type: Complex, Repeated: true, Schema: parameterSchema},
			{Name: "ID", Type: String, Attr: true},
			{Name: "name", Type: String, Attr: true},
		},
	}

	stationV2Schema = &Schema{
		Name: "stationV2",
		Fields: []Field{
			{Name: "metadataV2", Type: Complex, Required: true, Schema: metadataV2Schema},
			{Name: "parameter", Type: Complex, Repeated: true, Schema: parameterSchema},
			{Name: "ID", Type: String, Attr: true},
			{Name: "name", Type: String, Attr: true},
		},
	}

	activeStationsSchema = &Schema{
		Name: "ActiveStations",
		Fields: []Field{{
			Name: "stations", Type: Complex, Required: true,
			Schema: &Schema{
				Name: "stations",
				Fields: []Field{
					{Name: "station", Type: Complex, Required: true, Repeated: true, Schema: stationSchema},
				},
			},
		}},
	}

	activeStationsV2Schema = &Schema{
		Name: "ActiveStationsV2",
		Fields: []Field{{
			Name: "stationsV2", Type: Complex, Required: true,
			Schema: &Schema{
				Name: "stationsV2",
				Fields: []Field{
					{Name: "stationV2", Aliases: []string{"station"}, Type: Complex, Required: true, Repeated: true, Schema: stationV2Schema},
				},
			},
		}},
	}

	rawSixMinSchema = &Schema{
		Name: "Data",
		Fields: []Field{
			{Name: "timeStamp", Type: String, Required: true},
			{Name: "WL", Type: Float64, Required: true},
			{Name: "sigma", Type: Float64, Required: true},
			{Name: "O", Type: Int32, Required: true},
			{Name: "F", Type: Int32, Required: true},
			{Name: "R", Type: Int32, Required: true},
			{Name: "L", Type: Int32, Required: true},
		},
	}

	verifiedSixMinSchema = &Schema{
		Name: "Data",
		Fields: []Field{
			{Name: "timeStamp", Type: String, Required: true},
			{Name: "WL", Type: Float64, Required: true},
			{Name: "sigma", Type: Float64, Required: true},
			{Name: "I", Type: Int32, Required: true},
			{Name: "F", Type: Int32, Required: true},
			{Name: "R", Type: Int32, Required: true},
			{Name: "T", Type: Int32, Required: true},
		},
	}

	predictionSchema = &Schema{
		Name: "Data",
		Fields: []Field{
			{Name: "timeStamp", Type: String, Required: true},
			{Name: "pred", Type: Float64, Required: true},
		},
	}

	highLowDaySchema = &Schema{
		Name: "Data",
		Fields: []Field{
			{Name: "date", Type: String, Required: true},
			{Name: "data", Type: Complex, Repeated: true, Schema: &Schema{
				Name: "HighLowData",
				Fields: []Field{
					{Name: "time", Type: String, Required: true},
					{Name: "pred", Type: Float64, Required: true},
					{Name: "type", Type: String, Required: true},
				},
			}},
		},
	}
)

// arrayOfData is the Axis array wrapper: zero or more item elements.
func arrayOfData(item *Schema) *Schema {
	return &Schema{
		Name: "ArrayOfData",
		Fields: []Field{
			{Name: "item", Type: Complex, Repeated: true, Schema: item},
		},
	}
}

// DefaultRegistry holds the shapes of every supported CO-OPS response.
var DefaultRegistry = newRegistry(
	&Entry{
		Kind:   ActiveStations,
		Root:   "ActiveStations",
		Schema: activeStationsSchema,
		build: func(o *object) any {
			return &Stations{Station: buildList(o.obj("stations").list("station"), stationFromObject)}
		},
		flatten: flattenAs(func(s *Stations) *object {
			stations := newObject().set("station", flattenList(s.Station, Station.object))
			return newObject().set("stations", stations)
		}),
	},
	&Entry{
		Kind:   ActiveStationsV2,
		Root:   "ActiveStationsV2",
		Schema: activeStationsV2Schema,
		build: func(o *object) any {
			return &StationsV2{Station: buildList(o.obj("stationsV2").list("stationV2"), stationV2FromObject)}
		},
		flatten: flattenAs(func(s *StationsV2) *object {
			stations := newObject().set("stationV2", flattenList(s.Station, StationV2.object))
			return newObject().set("stationsV2", stations)
		}),
	},
	&Entry{
		Kind: HighLowTidePredictions,
		Root: "HighLowValues",
		Schema: &Schema{
			Name: "HighLowValues",
			Fields: []Field{
				{Name: "HighLowValues", Type: Complex, Required: true, Nillable: true, Schema: arrayOfData(highLowDaySchema)},
			},
		},
		build: func(o *object) any {
			return &HighLowValues{Values: arrayFromObject(o.obj("HighLowValues"), highLowDayFromObject)}
		},
		flatten: flattenAs(func(v *HighLowValues) *object {
			return newObject().set("HighLowValues", arrayObject(v.Values, HighLowDay.object))
		}),
	},
	&Entry{
		Kind: Predictions,
		Root: "PredictionsValues",
		Schema: &Schema{
			Name: "PredictionsValues",
			Fields: []Field{
				{Name: "data", Type: Complex, Required: true, Schema: arrayOfData(predictionSchema)},
			},
		},
		build: func(o *object) any {
			return &PredictionsValues{Data: arrayFromObject(o.obj("data"), predictionFromObject)}
		},
		flatten: flattenAs(func(v *PredictionsValues) *object {
			return newObject().set("data", arrayObject(v.Data, Prediction.object))
		}),
	},
	&Entry{
		Kind: WaterLevelRawSixMin,
		Root: "WaterLevelRawSixMinMeasurements",
		Schema: &Schema{
			Name: "WaterLevelRawSixMinMeasurements",
			Fields: []Field{
				{Name: "data", Type: Complex, Required: true, Schema: arrayOfData(rawSixMinSchema)},
			},
		},
		build: func(o *object) any {
			return &WaterLevelRawSixMinMeasurements{Data: arrayFromObject(o.obj("data"), rawSixMinFromObject)}
		},
		flatten: flattenAs(func(m *WaterLevelRawSixMinMeasurements) *object {
			return newObject().set("data", arrayObject(m.Data, RawSixMin.object))
		}),
	},
	&Entry{
		Kind: WaterLevelVerifiedSixMin,
		Root: "WaterLevelVerifiedSixMinMeasurements",
		Schema: &Schema{
			Name: "WaterLevelVerifiedSixMinMeasurements",
			Fields: []Field{
				{Name: "data", Type: Complex, Required: true, Schema: arrayOfData(verifiedSixMinSchema)},
			},
		},
		build: func(o *object) any {
			return &WaterLevelVerifiedSixMinMeasurements{Data: arrayFromObject(o.obj("data"), verifiedSixMinFromObject)}
		},
		flatten: flattenAs(func(m *WaterLevelVerifiedSixMinMeasurements) *object {
			return newObject().set("data", arrayObject(m.Data, VerifiedSixMin.object))
		}),
	},
)

// newRegistry builds a registry from entries. It panics on a duplicate kind,
// since registries are built once from static tables.
func newRegistry(entries ...*Entry) *Registry {
	r := &Registry{entries: make(map[Kind]*Entry, len(entries))}
	for _, e := range entries {
		if _, dup := r.entries[e.Kind]; dup {
			panic(fmt.Sprintf("coops: duplicate registry entry for %s", e.Kind))
		}
		r.entries[e.Kind] = e
	}
	return r
}

// flattenAs adapts a typed flatten function to the registry's untyped one.
// Both the record and a pointer to it are accepted.
func flattenAs[T any](f func(*T) *object) func(any) (*object, error) {
	return func(v any) (*object, error) {
		switch rec := v.(type) {
		case *T:
			if rec == nil {
				return nil, fmt.Errorf("cannot encode nil %T", v)
			}
			return f(rec), nil
		case T:
			return f(&rec), nil
		default:
			var want *T
			return nil, fmt.Errorf("cannot encode %T, want %T", v, want)
		}
	}
}
