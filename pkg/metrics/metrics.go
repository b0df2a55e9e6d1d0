package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	latencyBuckets = []float64{0.001, 0.01, 0.1, 0.2, 0.4, 0.8, 1.0, 2.0, 4.0, 8.0, 16.0, 32.0}

	requestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:      "request_latency",
			Subsystem: "tideserver",
			Help:      "HTTP request latencies in seconds.",
			Buckets:   latencyBuckets,
		},
		[]string{"verb", "path", "code"},
	)

	upstreamLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:      "upstream_latency",
			Subsystem: "tideserver",
			Help:      "NOAA CO-OPS request latencies in seconds.",
			Buckets:   latencyBuckets,
		},
		[]string{"kind", "outcome"},
	)

	storeLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "store_lookups_total",
			Subsystem: "tideserver",
			Help:      "Response store lookups by result.",
		},
		[]string{"result"},
	)
)

// Store lookup results.
const (
	StoreHit   = "hit"
	StoreStale = "stale"
	StoreMiss  = "miss"
	StoreError = "error"
)

// Upstream outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeTransport = "transport_error"
	OutcomeDecode    = "decode_error"
)

func init() {
	prometheus.MustRegister(
		requestLatency,
		upstreamLatency,
		storeLookups,
	)
}

func ObserveRequestLatency(verb, path, code string, latency float64) {
	requestLatency.With(prometheus.Labels{
		"code": code,
		"verb": verb,
		"path": path,
	}).Observe(latency)
}

func ObserveUpstream(kind, outcome string, latency time.Duration) {
	upstreamLatency.With(prometheus.Labels{
		"kind":    kind,
		"outcome": outcome,
	}).Observe(latency.Seconds())
}

func CountStoreLookup(result string) {
	storeLookups.With(prometheus.Labels{"result": result}).Inc()
}

// LatencyHandler observes request latency labelled by the route template
// returned by route, so that paths with IDs and dates share a series.
func LatencyHandler(route func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t := time.Now()
			verb := r.Method
			rec := &statusRecorder{ResponseWriter: w}

			// Defer metric observing. Any panics in next are reported as 500 errors
			// and then re-thrown.
			defer func() {
				path := route(r)
				if err := recover(); err != nil {
					ObserveRequestLatency(verb, path, "500", time.Since(t).Seconds())
					panic(err)
				}
				ObserveRequestLatency(verb, path, strconv.Itoa(rec.code()), time.Since(t).Seconds())
			}()

			next.ServeHTTP(rec, r)
		})
	}
}

// statusRecorder remembers the status code written through it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		// Unset, will be set to 200 by stdlib.
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

func (s *statusRecorder) code() int {
	if s.status == 0 {
		return http.StatusOK
	}
	return s.status
}
