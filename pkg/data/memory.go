package data

import (
	"context"
	"time"

	"github.com/spencer-p/tideserver/pkg/cache"
)

// Memory keeps documents in process for a bounded retention period. Stale
// documents are kept until retention runs out so they can still be served
// when NOAA is down.
type Memory struct {
	docs *cache.Timed[Document]
}

func NewMemory(retention time.Duration) *Memory {
	return &Memory{docs: cache.NewTimed[Document](retention)}
}

func (m *Memory) Get(ctx context.Context, path string) (*Document, error) {
	doc, ok := m.docs.Get(path)
	if !ok {
		return nil, ErrNotFound
	}
	doc.Body = append([]byte(nil), doc.Body...)
	return &doc, nil
}

func (m *Memory) Put(ctx context.Context, doc *Document) error {
	now := time.Now()
	stored := *doc
	stored.Body = append([]byte(nil), doc.Body...)
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	m.docs.Set(doc.Path, stored)
	return nil
}

// Sweep drops documents past retention and returns how many remain.
func (m *Memory) Sweep() int {
	return m.docs.Sweep()
}
