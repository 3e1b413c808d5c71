package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	domain "github.com/patria-foods/storefront/internal/domain/cart"
)

type CartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) *CartRepository {
	return &CartRepository{db: db}
}

// ownerScope narrows queries to one owner. Guest lines have an empty user_id,
// so both columns are always matched to keep guest and user rows disjoint.
func ownerScope(owner domain.Owner) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where("user_id = ? AND session_id = ?", owner.UserID, owner.SessionID)
	}
}

func (r *CartRepository) ListByOwner(ctx context.Context, owner domain.Owner) ([]*domain.Line, error) {
	var rows []cartLineRow
	err := r.db.WithContext(ctx).
		Scopes(ownerScope(owner)).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("cart repository: list: %w", err)
	}

	out := make([]*domain.Line, len(rows))
	for i := range rows {
		out[i] = toCartLine(&rows[i])
	}
	return out, nil
}

func (r *CartRepository) FindByID(ctx context.Context, id string) (*domain.Line, error) {
	var row cartLineRow
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cart repository: find: %w", err)
	}
	return toCartLine(&row), nil
}

func (r *CartRepository) FindByOwnerAndProduct(ctx context.Context, owner domain.Owner, productID string) (*domain.Line, error) {
	var row cartLineRow
	err := r.db.WithContext(ctx).
		Scopes(ownerScope(owner)).
		First(&row, "product_id = ?", productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cart repository: find by product: %w", err)
	}
	return toCartLine(&row), nil
}

func (r *CartRepository) Insert(ctx context.Context, line *domain.Line) error {
	if err := r.db.WithContext(ctx).Create(fromCartLine(line)).Error; err != nil {
		return fmt.Errorf("cart repository: insert: %w", err)
	}
	return nil
}

func (r *CartRepository) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	res := r.db.WithContext(ctx).
		Model(&cartLineRow{}).
		Where("id = ?", id).
		Updates(map[string]any{"quantity": quantity, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return fmt.Errorf("cart repository: update quantity: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *CartRepository) Reassign(ctx context.Context, id string, owner domain.Owner) error {
	res := r.db.WithContext(ctx).
		Model(&cartLineRow{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"user_id":    owner.UserID,
			"session_id": owner.SessionID,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("cart repository: reassign: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *CartRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Delete(&cartLineRow{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("cart repository: delete: %w", err)
	}
	return nil
}

func (r *CartRepository) DeleteByOwner(ctx context.Context, owner domain.Owner) error {
	err := r.db.WithContext(ctx).
		Scopes(ownerScope(owner)).
		Delete(&cartLineRow{}).Error
	if err != nil {
		return fmt.Errorf("cart repository: delete by owner: %w", err)
	}
	return nil
}
