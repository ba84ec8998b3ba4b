package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"docvault/internal/model"
	"docvault/internal/repository"
)

// DocumentMemory is an in-process repository.DocumentRepository.
// Records are kept in insertion order; timestamps are assigned under the
// write lock and never go backwards, so reverse insertion order is also
// newest-first order.
type DocumentMemory struct {
	mu     sync.RWMutex
	rows   []model.Document
	byUUID map[string]int
	nextID int64
	now    func() time.Time
}

// NewDocumentMemory returns an empty store.
func NewDocumentMemory() *DocumentMemory {
	return &DocumentMemory{
		byUUID: make(map[string]int),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

var _ repository.DocumentRepository = (*DocumentMemory)(nil)

func (r *DocumentMemory) Insert(ctx context.Context, doc *model.Document) (*model.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byUUID[doc.UUID]; ok {
		return nil, fmt.Errorf("insert %s: %w", doc.UUID, repository.ErrDuplicateIdentifier)
	}

	ts := r.now()
	if n := len(r.rows); n > 0 && ts.Before(r.rows[n-1].UploadedAt) {
		ts = r.rows[n-1].UploadedAt
	}

	r.nextID++
	stored := *doc
	stored.ID = r.nextID
	stored.UploadedAt = ts

	r.byUUID[stored.UUID] = len(r.rows)
	r.rows = append(r.rows, stored)

	out := stored
	return &out, nil
}

func (r *DocumentMemory) FindByUUID(ctx context.Context, uuid string) (*model.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.byUUID[uuid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := r.rows[idx]
	return &out, nil
}

func (r *DocumentMemory) ListAll(ctx context.Context) ([]model.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]model.Document, 0, len(r.rows))
	for i := len(r.rows) - 1; i >= 0; i-- {
		items = append(items, r.rows[i])
	}
	return items, nil
}
