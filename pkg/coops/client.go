package coops

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultTimeout = 30 * time.Second
	// maxBodySize bounds how much of a response is read. Six-minute series
	// for a day are well under a megabyte; the station list is a few.
	maxBodySize = 32 << 20
	// maxErrorBody is how much of an error response is kept in errors.
	maxErrorBody = 512
)

// HTTPClient is the transport used by Client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher retrieves and decodes one response. Client and Retrying implement
// it.
type Fetcher interface {
	Fetch(ctx context.Context, kind Kind, q Query) (any, error)
}

// Client requests CO-OPS data over SOAP and decodes the responses. It keeps
// no state between calls and is safe for concurrent use.
type Client struct {
	httpClient HTTPClient
	endpoints  Endpoints
	registry   *Registry
	log        *logrus.Entry
	maxBody    int64
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(h HTTPClient) Option {
	return func(c *Client) { c.httpClient = h }
}

func WithEndpoints(e Endpoints) Option {
	return func(c *Client) { c.endpoints = e }
}

func WithLogger(l *logrus.Entry) Option {
	return func(c *Client) { c.log = l }
}

// NewClient creates a client for the default NOAA endpoints.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		endpoints:  DefaultEndpoints(),
		registry:   DefaultRegistry,
		log:        logrus.NewEntry(logrus.StandardLogger()),
		maxBody:    maxBodySize,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithField("component", "coops")
	return c
}

// Fetch requests kind with q and returns the decoded record. Failures to
// reach the service are *TransportError; everything else is a decode error.
func (c *Client) Fetch(ctx context.Context, kind Kind, q Query) (any, error) {
	if _, err := c.registry.Lookup(kind); err != nil {
		return nil, err
	}
	ep, ok := c.endpoints[kind]
	if !ok || ep.URL == "" {
		return nil, fmt.Errorf("no endpoint configured for %s", kind)
	}

	var reqBody bytes.Buffer
	if err := requestEnvelope(xml.NewEncoder(&reqBody), ep, kind, q); err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", kind, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, &reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", `""`)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Kind: kind, URL: ep.URL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, &TransportError{Kind: kind, URL: ep.URL, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	if int64(len(body)) > c.maxBody {
		return nil, &TransportError{
			Kind: kind,
			URL:  ep.URL,
			Err:  fmt.Errorf("%w: more than %d bytes", ErrResponseTooLarge, c.maxBody),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		terr := &TransportError{
			Kind:       kind,
			URL:        ep.URL,
			StatusCode: resp.StatusCode,
			Body:       truncate(string(body), maxErrorBody),
		}
		if fault, ok := parseFault(body); ok {
			terr.Fault = fault
		}
		return nil, terr
	}

	c.log.WithFields(logrus.Fields{
		"kind":     kind.String(),
		"station":  q.StationID,
		"status":   resp.StatusCode,
		"bytes":    len(body),
		"duration": time.Since(start).String(),
	}).Debug("CO-OPS request successful")

	rec, err := c.registry.Decode(kind, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s response from %s: %w", kind, ep.URL, err)
	}
	return rec, nil
}

// FetchAs fetches kind and asserts the record type, e.g.
// FetchAs[Stations](ctx, f, ActiveStations, Query{}).
func FetchAs[T any](ctx context.Context, f Fetcher, kind Kind, q Query) (*T, error) {
	v, err := f.Fetch(ctx, kind, q)
	if err != nil {
		return nil, err
	}
	rec, ok := v.(*T)
	if !ok {
		return nil, fmt.Errorf("%s returned %T, want %T", kind, v, rec)
	}
	return rec, nil
}

func (c *Client) ActiveStations(ctx context.Context) (*Stations, error) {
	return FetchAs[Stations](ctx, c, ActiveStations, Query{})
}

func (c *Client) ActiveStationsV2(ctx context.Context) (*StationsV2, error) {
	return FetchAs[StationsV2](ctx, c, ActiveStationsV2, Query{})
}

func (c *Client) HighLowTidePredictions(ctx context.Context, q Query) (*HighLowValues, error) {
	return FetchAs[HighLowValues](ctx, c, HighLowTidePredictions, q)
}

func (c *Client) Predictions(ctx context.Context, q Query) (*PredictionsValues, error) {
	return FetchAs[PredictionsValues](ctx, c, Predictions, q)
}

func (c *Client) WaterLevelRawSixMin(ctx context.Context, q Query) (*WaterLevelRawSixMinMeasurements, error) {
	return FetchAs[WaterLevelRawSixMinMeasurements](ctx, c, WaterLevelRawSixMin, q)
}

func (c *Client) WaterLevelVerifiedSixMin(ctx context.Context, q Query) (*WaterLevelVerifiedSixMinMeasurements, error) {
	return FetchAs[WaterLevelVerifiedSixMinMeasurements](ctx, c, WaterLevelVerifiedSixMin, q)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
