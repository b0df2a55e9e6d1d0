package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

func TestNewFetcher(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	dir := t.TempDir()
	good := filepath.Join(dir, "endpoints.yaml")
	if err := os.WriteFile(good, []byte("endpoints:\n  ActiveStations:\n    url: http://localhost/stations\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("endpoints:\n  NotAKind:\n    url: http://localhost\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	table := []struct {
		file       string
		shouldFail bool
	}{
		{file: ""},
		{file: good},
		{file: bad, shouldFail: true},
		{file: filepath.Join(dir, "missing.yaml"), shouldFail: true},
	}

	for _, test := range table {
		t.Run(filepath.Base(test.file), func(t *testing.T) {
			f, err := newFetcher(Config{EndpointsFile: test.file, MaxAttempts: 1}, logger)
			if test.shouldFail {
				if err == nil {
					t.Errorf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if f == nil {
				t.Errorf("got nil fetcher")
			}
		})
	}
}

func TestNewLimiter(t *testing.T) {
	table := []struct {
		name       string
		env        Config
		want       rate.Limit
		shouldFail bool
	}{
		{name: "default", env: Config{RateLimit: 5, RateBurst: 10}, want: 5},
		{name: "unlimited", env: Config{RateLimit: 0, RateBurst: 0}, want: rate.Inf},
		{name: "negative", env: Config{RateLimit: -1, RateBurst: 0}, want: rate.Inf},
		{name: "zero burst", env: Config{RateLimit: 5, RateBurst: 0}, shouldFail: true},
		{name: "negative burst", env: Config{RateLimit: 5, RateBurst: -3}, shouldFail: true},
	}

	for _, test := range table {
		t.Run(test.name, func(t *testing.T) {
			l, err := newLimiter(test.env)
			if test.shouldFail {
				if err == nil {
					t.Errorf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if l.Limit() != test.want {
				t.Errorf("got limit %v, want %v", l.Limit(), test.want)
			}
			if !l.Allow() {
				t.Errorf("limiter refused the first request")
			}
		})
	}
}
