package coops

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
)

// Encode writes record as the bare response element for kind, using the
// default registry.
func Encode(kind Kind, record any) ([]byte, error) {
	return DefaultRegistry.Encode(kind, record, false)
}

// EncodeEnvelope is like Encode but wraps the response in a SOAP 1.1
// envelope, the way the service sends it.
func EncodeEnvelope(kind Kind, record any) ([]byte, error) {
	return DefaultRegistry.Encode(kind, record, true)
}

// Encode writes record in the shape registered for kind. Decoding the output
// yields a record equal to the input.
func (r *Registry) Encode(kind Kind, record any, envelope bool) ([]byte, error) {
	entry, err := r.Lookup(kind)
	if err != nil {
		return nil, err
	}
	obj, err := entry.flatten(record)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}

	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	err = writeEnvelope(enc, envelope, func() error {
		return encodeObject(enc, entry.Root, entry.Schema, obj)
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeEnvelope runs body, optionally inside soapenv:Envelope/soapenv:Body,
// and flushes the encoder.
func writeEnvelope(enc *xml.Encoder, envelope bool, body func() error) error {
	envStart := xml.StartElement{
		Name: xml.Name{Local: "soapenv:Envelope"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "xmlns:soapenv"}, Value: soapEnvelopeNS}},
	}
	bodyStart := xml.StartElement{Name: xml.Name{Local: "soapenv:Body"}}

	if envelope {
		if err := enc.EncodeToken(envStart); err != nil {
			return err
		}
		if err := enc.EncodeToken(bodyStart); err != nil {
			return err
		}
	}
	if err := body(); err != nil {
		return err
	}
	if envelope {
		if err := enc.EncodeToken(bodyStart.End()); err != nil {
			return err
		}
		if err := enc.EncodeToken(envStart.End()); err != nil {
			return err
		}
	}
	return enc.Flush()
}

func encodeObject(enc *xml.Encoder, name string, s *Schema, o *object) error {
	start := xml.StartElement{Name: xml.Name{Local: name}}
	for _, f := range s.Fields {
		if !f.Attr {
			continue
		}
		if v, ok := o.fields[f.Name]; ok {
			start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: f.Name}, Value: formatScalar(v)})
		}
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}

	for _, f := range s.Fields {
		if f.Attr {
			continue
		}
		v, ok := o.fields[f.Name]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case []*object:
			for _, c := range val {
				if err := encodeObject(enc, f.Name, f.Schema, c); err != nil {
					return err
				}
			}
		case *object:
			if err := encodeObject(enc, f.Name, f.Schema, val); err != nil {
				return err
			}
		default:
			if err := encodeText(enc, f.Name, formatScalar(val)); err != nil {
				return err
			}
		}
	}
	return enc.EncodeToken(start.End())
}

func encodeText(enc *xml.Encoder, name, text string) error {
	start := xml.StartElement{Name: xml.Name{Local: name}}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if err := enc.EncodeToken(xml.CharData(text)); err != nil {
		return err
	}
	return enc.EncodeToken(start.End())
}

func formatScalar(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}
