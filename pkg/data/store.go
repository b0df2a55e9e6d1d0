package data

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by Store.Get for a path with no document.
var ErrNotFound = errors.New("document not found")

// Document is a stored response body.
type Document struct {
	Path        string `gorm:"primaryKey"`
	Body        []byte
	ContentType string
	// ETag is the quoted hex MD5 of Body.
	ETag string `gorm:"column:etag"`
	// Expires is nil for documents that never expire.
	Expires   *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewDocument creates a document and computes its ETag.
func NewDocument(path, contentType string, body []byte, expires *time.Time) *Document {
	return &Document{
		Path:        path,
		Body:        body,
		ContentType: contentType,
		ETag:        ETag(body),
		Expires:     expires,
	}
}

// Fresh reports whether the document may still be served as of now.
func (d *Document) Fresh(now time.Time) bool {
	return d.Expires == nil || d.Expires.After(now)
}

// ETag returns the entity tag of body, its MD5 in hex enclosed in double
// quotes. S3 computes the same value for single part uploads.
func ETag(body []byte) string {
	sum := md5.Sum(body)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

// Store persists documents by path.
type Store interface {
	Get(ctx context.Context, path string) (*Document, error)
	Put(ctx context.Context, doc *Document) error
}

// PutIfChanged writes doc unless the stored document has the same ETag. It
// reports whether a write happened.
func PutIfChanged(ctx context.Context, s Store, doc *Document) (bool, error) {
	old, err := s.Get(ctx, doc.Path)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return false, fmt.Errorf("failed to read %s: %w", doc.Path, err)
	case old.ETag == doc.ETag:
		return false, nil
	}
	if err := s.Put(ctx, doc); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", doc.Path, err)
	}
	return true, nil
}
