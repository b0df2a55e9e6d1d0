package noaa

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/spencer-p/tideserver/pkg/coops"
)

func ptr[T any](v T) *T { return &v }

func TestParseTimestamp(t *testing.T) {
	table := []struct {
		input string
		want  time.Time
	}{{
		input: "20200105 13:42",
		want:  time.Date(2020, time.January, 5, 13, 42, 0, 0, time.UTC),
	}, {
		input: "2010-01-01 00:06:00.0",
		want:  time.Date(2010, time.January, 1, 0, 6, 0, 0, time.UTC),
	}, {
		input: "2010-01-01 00:06",
		want:  time.Date(2010, time.January, 1, 0, 6, 0, 0, time.UTC),
	}, {
		input: "2010-01-01 00:06:30.25",
		want:  time.Date(2010, time.January, 1, 0, 6, 30, 250000000, time.UTC),
	}, {
		input: "06/01/2012 23:54",
		want:  time.Date(2012, time.June, 1, 23, 54, 0, 0, time.UTC),
	}}

	for _, test := range table {
		t.Run(test.input, func(t *testing.T) {
			got, err := ParseTimestamp(test.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(test.want) {
				t.Errorf("got %v, want %v", got, test.want)
			}
		})
	}

	for _, bad := range []string{"", "2010-13-01 00:00", "2010/01/01 00:00", "20100101", "01/01/2010 25:00"} {
		if _, err := ParseTimestamp(bad); err == nil {
			t.Errorf("ParseTimestamp(%q) succeeded", bad)
		}
	}
}

func TestParseTide(t *testing.T) {
	table := []struct {
		input string
		want  Tide
	}{
		{`"H"`, HighTide},
		{`"HH"`, HighTide},
		{`"L"`, LowTide},
		{`"LL"`, LowTide},
	}
	for _, test := range table {
		t.Run(test.input, func(t *testing.T) {
			var got Tide
			dec := json.NewDecoder(bytes.NewBufferString(test.input))
			if err := dec.Decode(&got); err != nil {
				t.Errorf("unexpected error: %+v", err)
			}
			if diff := cmp.Diff(got.String(), test.want.String()); diff != "" {
				t.Errorf("incorrect parse (-got,+want): %s", diff)
			}
		})
	}

	var tide Tide
	if err := json.Unmarshal([]byte(`"X"`), &tide); err == nil {
		t.Errorf("expected error for invalid tide")
	}
	if _, err := json.Marshal(Tide(7)); err == nil {
		t.Errorf("expected error marshaling invalid tide")
	}
}

func TestStationList(t *testing.T) {
	in := &coops.Stations{Station: []coops.Station{{
		ID:   ptr("Santa Cruz"),
		Name: ptr("9413745"),
		Metadata: coops.Metadata{
			Location:        coops.Location{Lat: "36.9583", Long: "-122.0173", State: ptr("CA")},
			DateEstablished: "1975-05-13",
		},
		Parameter: []coops.Parameter{{Name: ptr("Water Level"), SensorID: ptr("A1"), DCP: ptr[int32](1), Status: ptr[int32](1)}},
	}}}

	buf, err := json.Marshal(NewStationList(in))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"Stations":[{"ID":"9413745","name":"Santa Cruz","metadata":{"dateEstablished":"1975-05-13",` +
		`"location":{"lat":"36.9583","long":"-122.0173","state":"CA"}},` +
		`"parameters":[{"name":"Water Level","dcp":1,"sensorID":"A1","status":1}]}]}`
	if diff := cmp.Diff(string(buf), want); diff != "" {
		t.Errorf("incorrect document (-got,+want): %s", diff)
	}
}

func verified(ts ...string) *coops.WaterLevelVerifiedSixMinMeasurements {
	m := &coops.WaterLevelVerifiedSixMinMeasurements{}
	m.Data.Item = []coops.VerifiedSixMin{}
	for i, s := range ts {
		m.Data.Item = append(m.Data.Item, coops.VerifiedSixMin{TimeStamp: s, WL: float64(i), Sigma: 0.01})
	}
	return m
}

func TestVerifiedSeriesGaps(t *testing.T) {
	day := time.Date(2010, time.January, 1, 0, 0, 0, 0, time.UTC)
	in := verified("2010-01-01 00:00:00.0", "2010-01-01 00:06:00.0", "2010-01-01 00:24:00.0")
	in.Data.Item[1].I = 1
	in.Data.Item[1].T = 1

	got, err := NewVerifiedSeries("8454000", day, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	buf, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"stationId":"8454000","dateUTC":"2010-01-01","dataPoints":3,` +
		`"packedDataFormat":["waterLevelMeters","sigma","flags"],` +
		`"data":[[0,0.01,[]],[1,0.01,["inferred","temperatureToleranceLimitExceeded"]],null,null,[2,0.01,[]]]}`
	if diff := cmp.Diff(string(buf), want); diff != "" {
		t.Errorf("incorrect document (-got,+want): %s", diff)
	}
	if got.Missing() != 2 {
		t.Errorf("got %d missing slots, want 2", got.Missing())
	}
}

func TestSeriesErrors(t *testing.T) {
	day := time.Date(2010, time.January, 1, 0, 0, 0, 0, time.UTC)
	table := []struct {
		name string
		in   *coops.WaterLevelVerifiedSixMinMeasurements
	}{
		{"empty", verified()},
		{"late start", verified("2010-01-01 00:06:00.0")},
		{"undershoot", verified("2010-01-01 00:00:00.0", "2010-01-01 00:03:00.0")},
		{"repeated", verified("2010-01-01 00:00:00.0", "2010-01-01 00:00:00.0")},
		{"bad timestamp", verified("2010-01-01 00:00:00.0", "yesterday")},
	}

	for _, test := range table {
		t.Run(test.name, func(t *testing.T) {
			_, err := NewVerifiedSeries("1", day, test.in)
			if !errors.Is(err, ErrUpstreamData) {
				t.Errorf("got %v, want ErrUpstreamData", err)
			}
		})
	}
}

func TestRawAndPredictedSeries(t *testing.T) {
	day := time.Date(2013, time.March, 1, 0, 0, 0, 0, time.UTC)
	raw := &coops.WaterLevelRawSixMinMeasurements{Data: coops.ArrayOfData[coops.RawSixMin]{Item: []coops.RawSixMin{
		{TimeStamp: "2013-03-01 00:00:00.0", WL: 1.5, Sigma: 0.02, O: 3, F: 1, L: 1},
	}}}
	gotRaw, err := NewRawSeries("9413745", day, raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantRaw := []any{[]any{1.5, 0.02, int32(3), []string{"flatToleranceLimitExceeded", "waterLevelLimitExceeded"}}}
	if diff := cmp.Diff(gotRaw.Data, wantRaw); diff != "" {
		t.Errorf("incorrect raw data (-got,+want): %s", diff)
	}

	pred := &coops.PredictionsValues{Data: coops.ArrayOfData[coops.Prediction]{Item: []coops.Prediction{
		{TimeStamp: "03/01/2013 00:00", Pred: 0.5},
		{TimeStamp: "03/01/2013 00:12", Pred: 0.7},
	}}}
	gotPred, err := NewPredictedSeries("9413745", day, pred)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantPred := []any{[]any{0.5}, nil, []any{0.7}}
	if diff := cmp.Diff(gotPred.Data, wantPred); diff != "" {
		t.Errorf("incorrect predicted data (-got,+want): %s", diff)
	}
	if diff := cmp.Diff(gotPred.PackedDataFormat, []string{"waterLevelMeters"}); diff != "" {
		t.Errorf("incorrect format (-got,+want): %s", diff)
	}
}

func TestFullDay(t *testing.T) {
	day := time.Date(2012, time.June, 1, 0, 0, 0, 0, time.UTC)
	pred := &coops.PredictionsValues{}
	for ts := day; ts.Before(day.Add(24 * time.Hour)); ts = ts.Add(SlotInterval) {
		pred.Data.Item = append(pred.Data.Item, coops.Prediction{TimeStamp: ts.Format("2006-01-02 15:04"), Pred: 1})
	}
	got, err := NewPredictedSeries("1", day, pred)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Data) != SlotsPerDay || got.Missing() != 0 {
		t.Errorf("got %d slots with %d missing, want %d full slots", len(got.Data), got.Missing(), SlotsPerDay)
	}
}

func TestExtrema(t *testing.T) {
	day := time.Date(2012, time.June, 1, 0, 0, 0, 0, time.UTC)
	in := &coops.HighLowValues{Values: coops.ArrayOfData[coops.HighLowDay]{Item: []coops.HighLowDay{{
		Date: "06/01/2012",
		Data: []coops.HighLowData{
			{Time: "03:12", Pred: 1.61, Type: "H"},
			{Time: "09:40", Pred: -0.2, Type: "LL"},
		},
	}}}}

	got, err := NewExtrema("9413745", day, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	buf, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"stationId":"9413745","dataPoints":1,"dateLocalTimeZone":"2012-06-01",` +
		`"packedDataFormat":["timestampUTC","waterLevelMeters","extremaType"],` +
		`"data":[["2012-06-01T03:12",1.61,"H"],["2012-06-01T09:40",-0.2,"LL"]]}`
	if diff := cmp.Diff(string(buf), want); diff != "" {
		t.Errorf("incorrect document (-got,+want): %s", diff)
	}

	in.Values.Item[0].Data[0].Type = "X"
	if _, err := NewExtrema("9413745", day, in); !errors.Is(err, ErrUpstreamData) {
		t.Errorf("got %v, want ErrUpstreamData", err)
	}
}

func TestExtremaEmpty(t *testing.T) {
	got, err := NewExtrema("1", time.Now(), &coops.HighLowValues{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	buf, _ := json.Marshal(got.Data)
	if string(buf) != "[]" {
		t.Errorf("got data %s, want []", buf)
	}
}
