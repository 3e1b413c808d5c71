package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	domain "github.com/patria-foods/storefront/internal/domain/cart"
)

type cartEntry struct {
	line *domain.Line
	seq  uint64
}

type CartRepository struct {
	mu    sync.RWMutex
	lines map[string]cartEntry
	seq   uint64
}

func NewCartRepository() *CartRepository {
	return &CartRepository{lines: make(map[string]cartEntry)}
}

func (r *CartRepository) ListByOwner(ctx context.Context, owner domain.Owner) ([]*domain.Line, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]cartEntry, 0)
	for _, e := range r.lines {
		if e.line.Owner == owner {
			entries = append(entries, e)
		}
	}
	// Newest first; the insertion sequence breaks creation-time ties.
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].line.CreatedAt.Equal(entries[j].line.CreatedAt) {
			return entries[i].line.CreatedAt.After(entries[j].line.CreatedAt)
		}
		return entries[i].seq > entries[j].seq
	})

	out := make([]*domain.Line, len(entries))
	for i, e := range entries {
		out[i] = e.line.Clone()
	}
	return out, nil
}

func (r *CartRepository) FindByID(ctx context.Context, id string) (*domain.Line, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.lines[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return e.line.Clone(), nil
}

func (r *CartRepository) FindByOwnerAndProduct(ctx context.Context, owner domain.Owner, productID string) (*domain.Line, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.lines {
		if e.line.Owner == owner && e.line.ProductID == productID {
			return e.line.Clone(), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *CartRepository) Insert(ctx context.Context, line *domain.Line) error {
	_ = ctx
	if line == nil || line.ID == "" {
		return fmt.Errorf("cart repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	r.lines[line.ID] = cartEntry{line: line.Clone(), seq: r.seq}
	return nil
}

func (r *CartRepository) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.lines[id]
	if !ok {
		return domain.ErrNotFound
	}
	e.line.Quantity = quantity
	e.line.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *CartRepository) Reassign(ctx context.Context, id string, owner domain.Owner) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.lines[id]
	if !ok {
		return domain.ErrNotFound
	}
	e.line.Owner = owner
	e.line.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *CartRepository) Delete(ctx context.Context, id string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.lines, id)
	return nil
}

func (r *CartRepository) DeleteByOwner(ctx context.Context, owner domain.Owner) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	for id, e := range r.lines {
		if e.line.Owner == owner {
			delete(r.lines, id)
		}
	}
	return nil
}
