package catalog

import "context"

type Repository interface {
	Get(ctx context.Context, id string) (*Product, error)
	GetMany(ctx context.Context, ids []string) (map[string]*Product, error)

	// AdjustStock applies delta to the product's stock atomically, clamped at
	// zero, and returns the new stock level.
	AdjustStock(ctx context.Context, id string, delta int) (int, error)
}
