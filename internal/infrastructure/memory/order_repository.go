package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	domain "github.com/patria-foods/storefront/internal/domain/order"
)

type orderEntry struct {
	order *domain.Order
	seq   uint64
}

type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]orderEntry
	seq    uint64
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[string]orderEntry)}
}

func (r *OrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	_ = ctx
	if order == nil || order.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	r.orders[order.ID] = orderEntry{order: order.Clone(), seq: r.seq}
	return nil
}

func (r *OrderRepository) InsertItems(ctx context.Context, orderID string, items []*domain.Item) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.orders[orderID]
	if !ok {
		return domain.ErrNotFound
	}
	for _, it := range items {
		cp := *it
		cp.OrderID = orderID
		e.order.Items = append(e.order.Items, &cp)
	}
	return nil
}

func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.orders, id)
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return e.order.Clone(), nil
}

func (r *OrderRepository) ListAll(ctx context.Context) ([]*domain.Order, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(*domain.Order) bool { return true }), nil
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(o *domain.Order) bool { return o.UserID == userID }), nil
}

func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.orders[order.ID]
	if !ok {
		return domain.ErrNotFound
	}
	r.orders[order.ID] = orderEntry{order: order.Clone(), seq: e.seq}
	return nil
}

// collect assumes r.mu is held.
func (r *OrderRepository) collect(keep func(*domain.Order) bool) []*domain.Order {
	entries := make([]orderEntry, 0)
	for _, e := range r.orders {
		if keep(e.order) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].order.CreatedAt.Equal(entries[j].order.CreatedAt) {
			return entries[i].order.CreatedAt.After(entries[j].order.CreatedAt)
		}
		return entries[i].seq > entries[j].seq
	})

	out := make([]*domain.Order, len(entries))
	for i, e := range entries {
		out[i] = e.order.Clone()
	}
	return out
}
