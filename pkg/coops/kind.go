package coops

import (
	"fmt"
	"strings"
)

// Kind identifies one of the fixed response shapes served by the CO-OPS
// OPeNDAP services.
type Kind int

const (
	ActiveStations Kind = iota + 1
	ActiveStationsV2
	HighLowTidePredictions
	Predictions
	WaterLevelRawSixMin
	WaterLevelVerifiedSixMin
)

// Kinds lists every kind known to the default registry.
var Kinds = []Kind{
	ActiveStations,
	ActiveStationsV2,
	HighLowTidePredictions,
	Predictions,
	WaterLevelRawSixMin,
	WaterLevelVerifiedSixMin,
}

var kindNames = map[Kind]string{
	ActiveStations:           "ActiveStations",
	ActiveStationsV2:         "ActiveStationsV2",
	HighLowTidePredictions:   "HighLowTidePredictions",
	Predictions:              "Predictions",
	WaterLevelRawSixMin:      "WaterLevelRawSixMin",
	WaterLevelVerifiedSixMin: "WaterLevelVerifiedSixMin",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind returns the kind with the given name. Matching ignores case.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(name, s) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown data kind %q", s)
}

// MarshalText lets kinds be used as YAML and JSON map keys.
func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("unknown data kind %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
