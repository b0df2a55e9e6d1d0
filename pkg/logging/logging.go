// Package logging configures the process logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Config selects the level, format and destination of logs. Output is
// stdout, stderr or a file path; files are rotated.
type Config struct {
	Level      string `envconfig:"LOG_LEVEL" default:"info"`
	Format     string `envconfig:"LOG_FORMAT" default:"text"`
	Output     string `envconfig:"LOG_OUTPUT" default:"stderr"`
	MaxSizeMB  int    `envconfig:"LOG_MAX_SIZE_MB" default:"100"`
	MaxAgeDays int    `envconfig:"LOG_MAX_AGE_DAYS" default:"7"`
}

// New builds a logger from cfg.
func New(cfg Config) (*logrus.Logger, error) {
	l := logrus.New()

	lvl, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	l.SetLevel(lvl)

	switch strings.ToLower(cfg.Format) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "timestamp",
				logrus.FieldKeyMsg:  "message",
			},
		})
	case "text", "":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.Format)
	}

	l.SetOutput(output(cfg))
	return l, nil
}

func output(cfg Config) io.Writer {
	switch strings.ToLower(cfg.Output) {
	case "stdout":
		return os.Stdout
	case "stderr", "":
		return os.Stderr
	default:
		return &lumberjack.Logger{
			Filename: cfg.Output,
			MaxSize:  cfg.MaxSizeMB,
			MaxAge:   cfg.MaxAgeDays,
			Compress: true,
		}
	}
}

// Component returns an entry tagged with the component name.
func Component(l *logrus.Logger, name string) *logrus.Entry {
	return l.WithField("component", name)
}
