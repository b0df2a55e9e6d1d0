package coops

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	opendapHost = "https://opendap.co-ops.nos.noaa.gov"
	wsdlNS      = opendapHost + "/axis/webservices/"
	servicesURL = opendapHost + "/axis/services/"
)

// Endpoint is where and how a kind is requested.
type Endpoint struct {
	URL       string `yaml:"url"`
	Namespace string `yaml:"namespace"`
	Operation string `yaml:"operation"`
}

// Endpoints maps each kind to its endpoint.
type Endpoints map[Kind]Endpoint

// DefaultEndpoints returns the endpoints bound by NOAA's published WSDL
// documents.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		ActiveStations: {
			URL:       servicesURL + "ActiveStations",
			Namespace: wsdlNS + "activestations/wsdl",
			Operation: "getActiveStations",
		},
		ActiveStationsV2: {
			URL:       servicesURL + "ActiveStationsV2",
			Namespace: wsdlNS + "activestations/wsdl",
			Operation: "getActiveStationsV2",
		},
		HighLowTidePredictions: {
			URL:       servicesURL + "HighLowTidePred",
			Namespace: wsdlNS + "highlowtidepred/wsdl",
			Operation: "getHighLowTidePredictions",
		},
		Predictions: {
			URL:       servicesURL + "Predictions",
			Namespace: wsdlNS + "predictions/wsdl",
			Operation: "getPredictions",
		},
		WaterLevelRawSixMin: {
			URL:       servicesURL + "WaterLevelRawSixMin",
			Namespace: wsdlNS + "waterlevelrawsixmin/wsdl",
			Operation: "getWaterLevelRawSixMin",
		},
		WaterLevelVerifiedSixMin: {
			URL:       servicesURL + "WaterLevelVerifiedSixMin",
			Namespace: wsdlNS + "waterlevelverifiedsixmin/wsdl",
			Operation: "getWaterLevelVerifiedSixMin",
		},
	}
}

// endpointsFile is the YAML layout of an endpoint override file:
//
//	endpoints:
//	  ActiveStations:
//	    url: https://example.org/axis/services/ActiveStationsFixed
type endpointsFile struct {
	Endpoints map[string]Endpoint `yaml:"endpoints"`
}

// LoadEndpoints reads YAML overrides from r and applies them on top of base.
// Only the fields set in the file are replaced.
func LoadEndpoints(r io.Reader, base Endpoints) (Endpoints, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read endpoints: %w", err)
	}
	var file endpointsFile
	if err := yaml.Unmarshal(buf, &file); err != nil {
		return nil, fmt.Errorf("failed to parse endpoints: %w", err)
	}

	merged := make(Endpoints, len(base))
	for k, ep := range base {
		merged[k] = ep
	}
	for name, override := range file.Endpoints {
		kind, err := ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("endpoints: %w", err)
		}
		ep := merged[kind]
		if override.URL != "" {
			ep.URL = override.URL
		}
		if override.Namespace != "" {
			ep.Namespace = override.Namespace
		}
		if override.Operation != "" {
			ep.Operation = override.Operation
		}
		merged[kind] = ep
	}
	return merged, nil
}

// LoadEndpointsFile applies the overrides in the YAML file at path to the
// default endpoints.
func LoadEndpointsFile(path string) (Endpoints, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadEndpoints(f, DefaultEndpoints())
}
