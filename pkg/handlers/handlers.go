package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/spencer-p/tideserver/pkg/coops"
	"github.com/spencer-p/tideserver/pkg/data"
	"github.com/spencer-p/tideserver/pkg/metrics"
	"github.com/spencer-p/tideserver/pkg/noaa"
	"github.com/spencer-p/tideserver/pkg/timetricks"
)

const (
	contentTypeJSON = "application/json"

	cacheForever     = "public, max-age=" // + seconds in a month
	cacheNever       = "no-cache, no-store, must-revalidate"
	cachePrivate     = "private, " + cacheNever
	defaultRetention = 400 * timetricks.Day

	headerRequestID = "X-Request-Id"
	headerAPI       = "X-TideServer-Api"
)

// Server serves NOAA CO-OPS data as JSON documents, keeping every response
// in a store. Fresh stored documents are served without asking NOAA; stale
// ones are served only when NOAA cannot be reached.
type Server struct {
	fetcher coops.Fetcher
	store   data.Store
	limiter *rate.Limiter
	log     *logrus.Entry
	now     func() time.Time
	prefix  string
}

type Option func(*Server)

func WithStore(s data.Store) Option {
	return func(srv *Server) { srv.store = s }
}

// WithLimiter throttles requests to NOAA.
func WithLimiter(l *rate.Limiter) Option {
	return func(srv *Server) { srv.limiter = l }
}

// WithPrefix names the path the routes are mounted under. It is left out of
// store keys, so documents are shared with servers and syncs mounted
// elsewhere.
func WithPrefix(prefix string) Option {
	return func(srv *Server) { srv.prefix = strings.TrimSuffix(prefix, "/") }
}

func WithLogger(l *logrus.Entry) Option {
	return func(srv *Server) { srv.log = l }
}

func withClock(now func() time.Time) Option {
	return func(srv *Server) { srv.now = now }
}

func New(fetcher coops.Fetcher, opts ...Option) *Server {
	s := &Server{
		fetcher: fetcher,
		store:   data.NewMemory(defaultRetention),
		limiter: rate.NewLimiter(rate.Inf, 1),
		log:     logrus.NewEntry(logrus.StandardLogger()),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("component", "handlers")
	return s
}

// Register adds the API routes to r. Only GET and HEAD are allowed.
func (s *Server) Register(r *mux.Router) {
	r.Use(requestIDMiddleware)
	r.Use(metrics.LatencyHandler(routeTemplate))

	for _, a := range apis {
		r.Handle(a.path, s.handle(a)).Methods(http.MethodGet, http.MethodHead)
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, &httpError{status: http.StatusNotFound, msg: "Path not found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.WithField("method", r.Method).Warn("client used illegal method")
		s.writeError(w, r, &httpError{status: http.StatusMethodNotAllowed, msg: "Method not allowed"})
	})
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unknown"
}

type requestIDKey struct{}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// requestID returns the ID assigned to r, making one for requests that never
// reached the middleware.
func requestID(w http.ResponseWriter, r *http.Request) string {
	if id, ok := r.Context().Value(requestIDKey{}).(string); ok {
		return id
	}
	id := uuid.NewString()
	w.Header().Set(headerRequestID, id)
	return id
}

// flagEnabled reads the no-<name> and <name> query flags, such as no-store
// or cache=false. A value starting with f, n or 0 turns the feature off.
func flagEnabled(r *http.Request, name string) bool {
	q := r.URL.Query()
	if _, ok := q["no-"+name]; ok {
		return false
	}
	if v := q.Get(name); v != "" && strings.ContainsAny(v[:1], "fFnN0") {
		return false
	}
	return true
}

// storeKey is the request path without the mount prefix or leading slash,
// e.g. "stations".
func (s *Server) storeKey(r *http.Request) string {
	return strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, s.prefix), "/")
}

func (s *Server) handle(a api) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := s.now().UTC()
		path := s.storeKey(r)
		log := s.log.WithFields(logrus.Fields{
			"path":       r.URL.Path,
			"request_id": requestID(w, r),
		})

		req, err := a.prepare(mux.Vars(r), now)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		var stale *data.Document
		if flagEnabled(r, "cache") {
			doc, err := s.store.Get(ctx, path)
			switch {
			case errors.Is(err, data.ErrNotFound):
				metrics.CountStoreLookup(metrics.StoreMiss)
			case err != nil:
				metrics.CountStoreLookup(metrics.StoreError)
				log.WithError(err).Error("store returned error")
				s.writeError(w, r, &httpError{
					status: http.StatusBadGateway,
					msg:    "An internal error occurred while serving your request",
					err:    err,
				})
				return
			case doc.Fresh(now):
				metrics.CountStoreLookup(metrics.StoreHit)
				log.WithField("expires", doc.Expires).Info("serving stored document")
				s.writeDocument(w, r, doc)
				return
			default:
				metrics.CountStoreLookup(metrics.StoreStale)
				log.WithField("expires", doc.Expires).Info("stored document expired")
				stale = doc
			}
		}

		doc, err := s.fetch(ctx, a, req, path, now)
		if err != nil {
			if stale == nil {
				log.WithError(err).Warn("NOAA request failed")
				s.writeError(w, r, err)
				return
			}
			log.WithError(err).Warn("NOAA request failed; returning stale stored document")
			w.Header().Set(headerAPI, a.name)
			w.Header().Set("Cache-Control", cacheNever)
			s.writeBody(w, r, stale)
			return
		}

		w.Header().Set(headerAPI, a.name)
		if !flagEnabled(r, "store") {
			w.Header().Set("Cache-Control", cachePrivate)
			s.writeBody(w, r, doc)
			return
		}
		if err := s.store.Put(ctx, doc); err != nil {
			log.WithError(err).Error("failed to store document (will still return data to client)")
		}
		s.writeDocument(w, r, doc)
	})
}

// fetch asks NOAA for a's data and builds the document to store.
func (s *Server) fetch(ctx context.Context, a api, req *request, path string, now time.Time) (*data.Document, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, &httpError{status: http.StatusServiceUnavailable, msg: "Too many requests to NOAA", err: err}
	}

	start := time.Now()
	rec, err := s.fetcher.Fetch(ctx, a.kind, req.query)
	metrics.ObserveUpstream(a.kind.String(), outcome(err), time.Since(start))
	if err != nil {
		return nil, upstreamError(err)
	}

	out, err := a.convert(req, rec)
	if err != nil {
		return nil, upstreamError(err)
	}
	body, err := json.Marshal(out)
	if err != nil {
		return nil, upstreamError(fmt.Errorf("%w: failed to encode document: %v", noaa.ErrUpstreamData, err))
	}

	var expires *time.Time
	if maxAge, ok := a.maxAge(req.day, now); ok {
		t := now.Add(maxAge)
		expires = &t
	}
	return data.NewDocument(path, contentTypeJSON, body, expires), nil
}

func outcome(err error) string {
	var terr *coops.TransportError
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.As(err, &terr):
		return metrics.OutcomeTransport
	default:
		return metrics.OutcomeDecode
	}
}

// writeDocument serves doc with caching headers derived from its expiry.
func (s *Server) writeDocument(w http.ResponseWriter, r *http.Request, doc *data.Document) {
	if doc.Expires == nil {
		w.Header().Set("Cache-Control", cacheForever+strconv.Itoa(int(timetricks.Month.Seconds())))
	} else {
		w.Header().Set("Cache-Control", "public")
		w.Header().Set("Expires", doc.Expires.UTC().Format(http.TimeFormat))
	}
	if match := r.Header.Get("If-None-Match"); match != "" && match == doc.ETag {
		w.Header().Set("ETag", doc.ETag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	s.writeBody(w, r, doc)
}

func (s *Server) writeBody(w http.ResponseWriter, r *http.Request, doc *data.Document) {
	contentType := doc.ContentType
	if contentType == "" {
		contentType = contentTypeJSON
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("ETag", doc.ETag)
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Body)))
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		w.Write(doc.Body)
	}
}
