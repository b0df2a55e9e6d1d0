package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/spencer-p/tideserver/pkg/coops"
	"github.com/spencer-p/tideserver/pkg/noaa"
)

// httpError is an error with the status and message shown to the client.
type httpError struct {
	status int
	msg    string
	header http.Header
	err    error
}

func (e *httpError) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *httpError) Unwrap() error {
	return e.err
}

// upstreamError classifies a failed NOAA call. Anything NOAA sent that we
// could not use is a bad gateway, as is NOAA being unreachable.
func upstreamError(err error) error {
	var herr *httpError
	var terr *coops.TransportError
	switch {
	case errors.As(err, &herr):
		return herr
	case errors.As(err, &terr):
		return &httpError{status: http.StatusBadGateway, msg: "Failed to reach NOAA", err: err}
	case coops.IsDecodeError(err), errors.Is(err, noaa.ErrUpstreamData):
		return &httpError{status: http.StatusBadGateway, msg: "Received unexpected data from NOAA", err: err}
	default:
		return err
	}
}

type errorBody struct {
	Error errorDetail `json:"Error"`
}

type errorDetail struct {
	Code      string `json:"Code"`
	Message   string `json:"Message"`
	Resource  string `json:"Resource"`
	RequestID string `json:"RequestId"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	herr := &httpError{
		status: http.StatusInternalServerError,
		msg:    "An internal error occurred while serving your request",
		err:    err,
	}
	errors.As(err, &herr)

	for k, vs := range herr.header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	if herr.status < http.StatusInternalServerError {
		w.Header().Set("Cache-Control", "public, max-age=3600")
	} else {
		w.Header().Set("Cache-Control", cacheNever)
	}
	w.Header().Set("Content-Type", contentTypeJSON)

	body, merr := json.Marshal(errorBody{Error: errorDetail{
		Code:      http.StatusText(herr.status),
		Message:   herr.msg,
		Resource:  r.URL.Path,
		RequestID: requestID(w, r),
	}})
	if merr != nil {
		s.log.WithError(merr).Error("failed to encode error body")
	}
	w.WriteHeader(herr.status)
	if r.Method != http.MethodHead {
		w.Write(body)
	}
}
