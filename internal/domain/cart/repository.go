package cart

import "context"

type Repository interface {
	// ListByOwner returns the owner's lines ordered newest-first by creation.
	ListByOwner(ctx context.Context, owner Owner) ([]*Line, error)
	FindByID(ctx context.Context, id string) (*Line, error)
	FindByOwnerAndProduct(ctx context.Context, owner Owner, productID string) (*Line, error)

	Insert(ctx context.Context, line *Line) error
	UpdateQuantity(ctx context.Context, id string, quantity int) error
	// Reassign moves a line to a new owner in place, keeping its id.
	Reassign(ctx context.Context, id string, owner Owner) error

	Delete(ctx context.Context, id string) error
	DeleteByOwner(ctx context.Context, owner Owner) error
}
