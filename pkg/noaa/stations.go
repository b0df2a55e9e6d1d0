package noaa

import (
	"github.com/spencer-p/tideserver/pkg/coops"
)

// StationList is the document served for the active station list.
type StationList struct {
	Stations []Station `json:"Stations"`
}

type Station struct {
	ID         *string     `json:"ID"`
	Name       *string     `json:"name"`
	Metadata   Metadata    `json:"metadata"`
	Parameters []Parameter `json:"parameters"`
}

type Metadata struct {
	DateEstablished string   `json:"dateEstablished"`
	Location        Location `json:"location"`
}

type Location struct {
	Lat   string  `json:"lat"`
	Long  string  `json:"long"`
	State *string `json:"state"`
}

type Parameter struct {
	Name     *string `json:"name"`
	DCP      *int32  `json:"dcp"`
	SensorID *string `json:"sensorID"`
	Status   *int32  `json:"status"`
}

// NewStationList converts an ActiveStations response. NOAA sends the station
// name in the ID attribute and the ID in name; they are swapped back here.
func NewStationList(s *coops.Stations) *StationList {
	out := &StationList{Stations: make([]Station, 0, len(s.Station))}
	for _, st := range s.Station {
		params := make([]Parameter, 0, len(st.Parameter))
		for _, p := range st.Parameter {
			params = append(params, Parameter{
				Name:     p.Name,
				DCP:      p.DCP,
				SensorID: p.SensorID,
				Status:   p.Status,
			})
		}
		out.Stations = append(out.Stations, Station{
			ID:   st.Name,
			Name: st.ID,
			Metadata: Metadata{
				DateEstablished: st.Metadata.DateEstablished,
				Location: Location{
					Lat:   st.Metadata.Location.Lat,
					Long:  st.Metadata.Location.Long,
					State: st.Metadata.Location.State,
				},
			},
			Parameters: params,
		})
	}
	return out
}
