package coops

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
)

// ErrResponseTooLarge is wrapped by the TransportError for a response body
// that exceeds the client's limit.
var ErrResponseTooLarge = errors.New("response body too large")

// TransportError reports that the service could not be reached or answered
// with a non-2xx status. It never describes a body that failed to decode.
type TransportError struct {
	Kind       Kind
	URL        string
	StatusCode int    // zero when no response was received
	Body       string // truncated response body, if any
	Fault      *FaultError
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Fault != nil:
		return fmt.Sprintf("%s request to %s failed with status %d: %s", e.Kind, e.URL, e.StatusCode, e.Fault)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s request to %s failed with status %d: %s", e.Kind, e.URL, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("%s request to %s failed: %v", e.Kind, e.URL, e.Err)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Transient reports whether repeating the same request might succeed.
func (e *TransportError) Transient() bool {
	if e.StatusCode != 0 {
		return e.StatusCode >= http.StatusInternalServerError ||
			e.StatusCode == http.StatusTooManyRequests ||
			e.StatusCode == http.StatusRequestTimeout
	}
	if e.Err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(e.Err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(e.Err, syscall.ECONNRESET) ||
		errors.Is(e.Err, syscall.ECONNREFUSED) ||
		errors.Is(e.Err, syscall.EPIPE)
}

// SchemaNotFoundError is returned for a kind the registry does not know.
type SchemaNotFoundError struct {
	Kind Kind
}

func (e *SchemaNotFoundError) Error() string {
	return fmt.Sprintf("no schema registered for data kind %s", e.Kind)
}

// UnexpectedRootElementError is returned when the document root does not
// match the root element registered for the requested kind.
type UnexpectedRootElementError struct {
	Kind Kind
	Want string
	Got  string
}

func (e *UnexpectedRootElementError) Error() string {
	return fmt.Sprintf("%s: expected root element %q, got %q", e.Kind, e.Want, e.Got)
}

// MissingRequiredFieldError names the slash separated path of a required
// element or attribute that was absent.
type MissingRequiredFieldError struct {
	Path string
}

func (e *MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("missing required field %s", e.Path)
}

// FieldTypeMismatchError is returned when text content cannot be parsed as
// the declared field type.
type FieldTypeMismatchError struct {
	Path string
	Text string
	Type FieldType
	Err  error
}

func (e *FieldTypeMismatchError) Error() string {
	return fmt.Sprintf("field %s: %q is not a valid %s", e.Path, e.Text, e.Type)
}

func (e *FieldTypeMismatchError) Unwrap() error {
	return e.Err
}

// MalformedDocumentError is returned when the body is not well-formed XML.
type MalformedDocumentError struct {
	Err error
}

func (e *MalformedDocumentError) Error() string {
	return fmt.Sprintf("malformed XML document: %v", e.Err)
}

func (e *MalformedDocumentError) Unwrap() error {
	return e.Err
}

// FaultError carries a SOAP fault returned in place of a response.
type FaultError struct {
	Code   string
	String string
	Detail string
}

func (e *FaultError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("SOAP fault [%s]: %s (%s)", e.Code, e.String, e.Detail)
	}
	return fmt.Sprintf("SOAP fault [%s]: %s", e.Code, e.String)
}

// IsDecodeError reports whether err came from decoding a response body, as
// opposed to reaching the service.
func IsDecodeError(err error) bool {
	var (
		root     *UnexpectedRootElementError
		missing  *MissingRequiredFieldError
		mismatch *FieldTypeMismatchError
		bad      *MalformedDocumentError
		fault    *FaultError
	)
	return errors.As(err, &root) ||
		errors.As(err, &missing) ||
		errors.As(err, &mismatch) ||
		errors.As(err, &bad) ||
		errors.As(err, &fault)
}
