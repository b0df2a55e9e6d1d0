package coops

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

const (
	soapEnvelopeNS = "http://schemas.xmlsoap.org/soap/envelope/"
	xsiNS          = "http://www.w3.org/2001/XMLSchema-instance"
)

// element is a namespace-agnostic XML element tree. Names and attribute keys
// are local names; namespaces only matter for SOAP unwrapping and xsi:nil.
type element struct {
	Space    string
	Name     string
	Attrs    map[string]string
	Nil      bool
	Text     string
	Children []*element
}

// parseTree reads a whole XML document into an element tree.
func parseTree(r io.Reader) (*element, error) {
	dec := xml.NewDecoder(r)
	var (
		root  *element
		stack []*element
		text  []*bytes.Buffer
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &MalformedDocumentError{Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &element{Space: t.Name.Space, Name: t.Name.Local}
			for _, a := range t.Attr {
				if (a.Name.Space == xsiNS || a.Name.Space == "xsi") && a.Name.Local == "nil" {
					el.Nil = a.Value == "true" || a.Value == "1"
					continue
				}
				if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
					continue
				}
				if el.Attrs == nil {
					el.Attrs = make(map[string]string)
				}
				el.Attrs[a.Name.Local] = a.Value
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, &MalformedDocumentError{Err: errors.New("more than one root element")}
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)
			text = append(text, new(bytes.Buffer))
		case xml.CharData:
			if len(text) > 0 {
				text[len(text)-1].Write(t)
			}
		case xml.EndElement:
			el := stack[len(stack)-1]
			el.Text = strings.TrimSpace(text[len(text)-1].String())
			stack = stack[:len(stack)-1]
			text = text[:len(text)-1]
		}
	}
	if root == nil {
		return nil, &MalformedDocumentError{Err: errors.New("document has no root element")}
	}
	return root, nil
}

// children returns the direct children whose local name is one of names, in
// document order.
func (el *element) children(names ...string) []*element {
	var found []*element
	for _, c := range el.Children {
		for _, n := range names {
			if c.Name == n {
				found = append(found, c)
				break
			}
		}
	}
	return found
}

func (el *element) child(name string) *element {
	for _, c := range el.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// unwrapEnvelope returns the payload of a SOAP 1.1 envelope, or el itself if
// it is not an envelope. A fault payload is returned as a *FaultError.
func unwrapEnvelope(el *element) (*element, error) {
	if el.Name != "Envelope" {
		return el, nil
	}
	body := el.child("Body")
	if body == nil {
		return nil, &MissingRequiredFieldError{Path: "Envelope/Body"}
	}
	if len(body.Children) == 0 {
		return nil, &MissingRequiredFieldError{Path: "Envelope/Body/*"}
	}
	payload := body.Children[0]
	if payload.Name == "Fault" {
		return nil, faultFromElement(payload)
	}
	// Axis rpc/literal responses wrap the result in an operation element,
	// e.g. getActiveStationsResponse.
	if strings.HasSuffix(payload.Name, "Response") && len(payload.Children) == 1 {
		payload = payload.Children[0]
	}
	return payload, nil
}

func faultFromElement(el *element) *FaultError {
	f := &FaultError{}
	if c := el.child("faultcode"); c != nil {
		f.Code = c.Text
	}
	if c := el.child("faultstring"); c != nil {
		f.String = c.Text
	}
	if c := el.child("detail"); c != nil {
		f.Detail = c.Text
		if f.Detail == "" && len(c.Children) > 0 {
			f.Detail = c.Children[0].Text
		}
	}
	return f
}

// parseFault tries to read a SOAP fault out of an error response body.
func parseFault(body []byte) (*FaultError, bool) {
	root, err := parseTree(bytes.NewReader(body))
	if err != nil {
		return nil, false
	}
	_, err = unwrapEnvelope(root)
	var fault *FaultError
	if errors.As(err, &fault) {
		return fault, true
	}
	return nil, false
}
