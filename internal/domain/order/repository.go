package order

import "context"

type Repository interface {
	Insert(ctx context.Context, order *Order) error
	// InsertItems persists the item snapshots for an already-inserted order.
	InsertItems(ctx context.Context, orderID string, items []*Item) error
	// Delete is the compensating action for a failed item insert.
	Delete(ctx context.Context, id string) error

	Get(ctx context.Context, id string) (*Order, error)
	// ListAll returns every order newest-first, items included.
	ListAll(ctx context.Context) ([]*Order, error)
	ListByUser(ctx context.Context, userID string) ([]*Order, error)

	Update(ctx context.Context, order *Order) error
}
