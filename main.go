package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/spencer-p/tideserver/pkg/coops"
	"github.com/spencer-p/tideserver/pkg/data"
	"github.com/spencer-p/tideserver/pkg/handlers"
	"github.com/spencer-p/tideserver/pkg/logging"
)

type Config struct {
	Port   string `default:"8080"`
	Prefix string `default:"/"`

	// EndpointsFile optionally overrides NOAA endpoints, see
	// coops.LoadEndpoints.
	EndpointsFile string        `envconfig:"ENDPOINTS_FILE"`
	Timeout       time.Duration `default:"30s"`
	MaxAttempts   int           `envconfig:"MAX_ATTEMPTS" default:"3"`

	// RateLimit is the number of NOAA requests allowed per second. Zero or
	// less turns throttling off.
	RateLimit float64 `envconfig:"RATE_LIMIT" default:"5"`
	RateBurst int     `envconfig:"RATE_BURST" default:"10"`
}

func newFetcher(env Config, logger *logrus.Logger) (coops.Fetcher, error) {
	endpoints := coops.DefaultEndpoints()
	if env.EndpointsFile != "" {
		var err error
		endpoints, err = coops.LoadEndpointsFile(env.EndpointsFile)
		if err != nil {
			return nil, err
		}
	}

	client := coops.NewClient(
		coops.WithHTTPClient(&http.Client{Timeout: env.Timeout}),
		coops.WithEndpoints(endpoints),
		coops.WithLogger(logrus.NewEntry(logger)),
	)

	policy := coops.DefaultRetryPolicy()
	policy.MaxAttempts = env.MaxAttempts
	return coops.NewRetrying(client, policy, logrus.NewEntry(logger)), nil
}

func newLimiter(env Config) (*rate.Limiter, error) {
	if env.RateLimit <= 0 {
		return rate.NewLimiter(rate.Inf, 1), nil
	}
	if env.RateBurst < 1 {
		return nil, fmt.Errorf("RATE_BURST must be at least 1 when RATE_LIMIT is set, got %d", env.RateBurst)
	}
	return rate.NewLimiter(rate.Limit(env.RateLimit), env.RateBurst), nil
}

// sweepMemory drops expired documents from an in-process store until ctx is
// done.
func sweepMemory(ctx context.Context, m *data.Memory, every time.Duration, log *logrus.Entry) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			log.WithField("documents", m.Sweep()).Debug("swept memory store")
		}
	}
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("Error loading .env file")
	}

	var (
		env      Config
		logCfg   logging.Config
		storeCfg data.Config
	)
	for _, cfg := range []interface{}{&env, &logCfg, &storeCfg} {
		if err := envconfig.Process("", cfg); err != nil {
			logrus.Fatal(err.Error())
		}
	}

	logger, err := logging.New(logCfg)
	if err != nil {
		logrus.Fatal(err.Error())
	}
	log := logging.Component(logger, "main")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := data.Open(ctx, storeCfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to open store")
	}
	if m, ok := store.(*data.Memory); ok {
		go sweepMemory(ctx, m, time.Hour, log)
	}

	fetcher, err := newFetcher(env, logger)
	if err != nil {
		log.WithError(err).Fatal("Failed to configure NOAA client")
	}

	limiter, err := newLimiter(env)
	if err != nil {
		log.WithError(err).Fatal("Bad rate limit")
	}

	server := handlers.New(fetcher,
		handlers.WithStore(store),
		handlers.WithLimiter(limiter),
		handlers.WithLogger(logrus.NewEntry(logger)),
		handlers.WithPrefix(env.Prefix),
	)

	r := mux.NewRouter().StrictSlash(true)
	r.Handle("/metrics", promhttp.Handler())
	s := r.PathPrefix(env.Prefix).Subrouter()
	server.Register(s)

	srv := &http.Server{
		Handler:      r,
		Addr:         "0.0.0.0:" + env.Port,
		WriteTimeout: env.Timeout * time.Duration(env.MaxAttempts+1),
		ReadTimeout:  15 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("Failed to shut down cleanly")
		}
	}()

	log.WithFields(logrus.Fields{
		"addr":   srv.Addr,
		"prefix": env.Prefix,
		"store":  storeCfg.Type,
	}).Info("Listening and serving")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("Server failed")
	}
}
