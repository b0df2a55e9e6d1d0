package data

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Config selects a store. Type is memory, postgres or s3.
type Config struct {
	Type            string        `envconfig:"STORE" default:"memory"`
	MemoryRetention time.Duration `envconfig:"MEMORY_RETENTION" default:"9600h"`
	PostgresConfig
	S3Config
}

// Open returns the store selected by cfg.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(cfg.Type) {
	case "memory", "":
		return NewMemory(cfg.MemoryRetention), nil
	case "postgres":
		pg, err := OpenPostgres(cfg.PostgresConfig)
		if err != nil {
			return nil, err
		}
		return pg, nil
	case "s3":
		s, err := OpenS3(ctx, cfg.S3Config)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Type)
	}
}
