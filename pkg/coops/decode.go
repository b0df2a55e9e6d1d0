package coops

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

var errNotDecimal = errors.New("not a finite decimal number")

// Decode decodes a response body for kind with the default registry. The
// body may be a bare response element or a SOAP 1.1 envelope around one.
func Decode(kind Kind, body []byte) (any, error) {
	return DefaultRegistry.Decode(kind, bytes.NewReader(body))
}

// Decode reads a whole response document and returns the typed record
// registered for kind, e.g. *Stations for ActiveStations.
func (r *Registry) Decode(kind Kind, body io.Reader) (any, error) {
	entry, err := r.Lookup(kind)
	if err != nil {
		return nil, err
	}

	doc, err := parseTree(body)
	if err != nil {
		return nil, err
	}
	root, err := unwrapEnvelope(doc)
	if err != nil {
		return nil, err
	}
	if root.Name != entry.Root {
		return nil, &UnexpectedRootElementError{Kind: kind, Want: entry.Root, Got: root.Name}
	}

	obj, err := decodeElement(root, entry.Schema, entry.Root)
	if err != nil {
		return nil, err
	}
	return entry.build(obj), nil
}

func decodeElement(el *element, s *Schema, path string) (*object, error) {
	o := newObject()
	for _, f := range s.Fields {
		fpath := path + "/" + f.Name

		if f.Attr {
			text, ok := el.Attrs[f.Name]
			if !ok {
				if f.Required {
					return nil, &MissingRequiredFieldError{Path: fpath}
				}
				continue
			}
			v, err := parseScalar(f, text, fpath)
			if err != nil {
				return nil, err
			}
			o.set(f.Name, v)
			continue
		}

		found := el.children(f.names()...)

		if f.Repeated {
			if len(found) == 0 && f.Required {
				return nil, &MissingRequiredFieldError{Path: fpath}
			}
			list := make([]*object, 0, len(found))
			for _, c := range found {
				child, err := decodeElement(c, f.Schema, path+"/"+c.Name)
				if err != nil {
					return nil, err
				}
				list = append(list, child)
			}
			o.set(f.Name, list)
			continue
		}

		if len(found) == 0 {
			if f.Required {
				return nil, &MissingRequiredFieldError{Path: fpath}
			}
			continue
		}
		c := found[0]

		if c.Nil {
			switch {
			case f.Nillable && f.Type == Complex:
				o.set(f.Name, newObject())
			case f.Required && !f.Nillable:
				return nil, &MissingRequiredFieldError{Path: fpath}
			}
			continue
		}

		if f.Type == Complex {
			child, err := decodeElement(c, f.Schema, path+"/"+c.Name)
			if err != nil {
				return nil, err
			}
			o.set(f.Name, child)
			continue
		}

		v, err := parseScalar(f, c.Text, fpath)
		if err != nil {
			return nil, err
		}
		o.set(f.Name, v)
	}
	return o, nil
}

// parseScalar converts text to the field's type using locale independent
// parsing. Nothing is coerced: bad text is always an error, and so are the
// NaN, infinite, hex and underscore forms strconv would otherwise accept.
func parseScalar(f Field, text, path string) (any, error) {
	switch f.Type {
	case String:
		return text, nil
	case Int32:
		i, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			return nil, &FieldTypeMismatchError{Path: path, Text: text, Type: f.Type, Err: err}
		}
		return int32(i), nil
	case Float64:
		if strings.ContainsAny(text, "xX_") {
			return nil, &FieldTypeMismatchError{Path: path, Text: text, Type: f.Type, Err: errNotDecimal}
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, &FieldTypeMismatchError{Path: path, Text: text, Type: f.Type, Err: err}
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &FieldTypeMismatchError{Path: path, Text: text, Type: f.Type, Err: errNotDecimal}
		}
		return v, nil
	default:
		return nil, fmt.Errorf("field %s: %s is not a scalar type", path, f.Type)
	}
}

func decodeAs[T any](r *Registry, kind Kind, body io.Reader) (*T, error) {
	v, err := r.Decode(kind, body)
	if err != nil {
		return nil, err
	}
	rec, ok := v.(*T)
	if !ok {
		return nil, fmt.Errorf("registry built %T for %s, want %T", v, kind, rec)
	}
	return rec, nil
}

func DecodeActiveStations(body []byte) (*Stations, error) {
	return decodeAs[Stations](DefaultRegistry, ActiveStations, bytes.NewReader(body))
}

func DecodeActiveStationsV2(body []byte) (*StationsV2, error) {
	return decodeAs[StationsV2](DefaultRegistry, ActiveStationsV2, bytes.NewReader(body))
}

func DecodeHighLowTidePredictions(body []byte) (*HighLowValues, error) {
	return decodeAs[HighLowValues](DefaultRegistry, HighLowTidePredictions, bytes.NewReader(body))
}

func DecodePredictions(body []byte) (*PredictionsValues, error) {
	return decodeAs[PredictionsValues](DefaultRegistry, Predictions, bytes.NewReader(body))
}

func DecodeWaterLevelRawSixMin(body []byte) (*WaterLevelRawSixMinMeasurements, error) {
	return decodeAs[WaterLevelRawSixMinMeasurements](DefaultRegistry, WaterLevelRawSixMin, bytes.NewReader(body))
}

func DecodeWaterLevelVerifiedSixMin(body []byte) (*WaterLevelVerifiedSixMinMeasurements, error) {
	return decodeAs[WaterLevelVerifiedSixMinMeasurements](DefaultRegistry, WaterLevelVerifiedSixMin, bytes.NewReader(body))
}
