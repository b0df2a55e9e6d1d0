package data

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgresConfig holds connection settings. The envconfig tags match the
// libpq environment variables.
type PostgresConfig struct {
	Host     string `envconfig:"PGHOST" default:"localhost"`
	Port     string `envconfig:"PGPORT" default:"5432"`
	User     string `envconfig:"PGUSER" default:"postgres"`
	Password string `envconfig:"PGPASSWORD"`
	DBName   string `envconfig:"PGDATABASE" default:"tideserver"`
	SSLMode  string `envconfig:"PGSSLMODE" default:"disable"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.Host,
		c.User,
		c.Password,
		c.DBName,
		c.Port,
		c.SSLMode)
}

// Postgres stores documents in a single table keyed by path.
type Postgres struct {
	db *gorm.DB
}

// OpenPostgres connects and migrates the documents table.
func OpenPostgres(cfg PostgresConfig) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return NewPostgres(db)
}

func NewPostgres(db *gorm.DB) (*Postgres, error) {
	if err := db.AutoMigrate(&Document{}); err != nil {
		return nil, fmt.Errorf("failed to migrate documents: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Get(ctx context.Context, path string) (*Document, error) {
	var doc Document
	err := p.db.WithContext(ctx).First(&doc, "path = ?", path).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (p *Postgres) Put(ctx context.Context, doc *Document) error {
	return p.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "path"}},
			DoUpdates: clause.AssignmentColumns([]string{"body", "content_type", "etag", "expires", "updated_at"}),
		}).
		Create(doc).Error
}
