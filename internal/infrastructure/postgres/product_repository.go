package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	domain "github.com/patria-foods/storefront/internal/domain/catalog"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	var row productRow
	err := r.db.WithContext(ctx).
		Preload("Category").
		First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("product repository: get: %w", err)
	}
	return toProduct(&row), nil
}

func (r *ProductRepository) GetMany(ctx context.Context, ids []string) (map[string]*domain.Product, error) {
	if len(ids) == 0 {
		return map[string]*domain.Product{}, nil
	}

	var rows []productRow
	err := r.db.WithContext(ctx).
		Preload("Category").
		Find(&rows, "id IN ?", ids).Error
	if err != nil {
		return nil, fmt.Errorf("product repository: get many: %w", err)
	}

	out := make(map[string]*domain.Product, len(rows))
	for i := range rows {
		out[rows[i].ID] = toProduct(&rows[i])
	}
	return out, nil
}

// AdjustStock applies the delta and clamps at zero in one statement, so
// concurrent checkouts cannot interleave a read-modify-write below zero.
func (r *ProductRepository) AdjustStock(ctx context.Context, id string, delta int) (int, error) {
	var remaining int
	res := r.db.WithContext(ctx).Raw(
		`UPDATE products
		 SET stock_quantity = GREATEST(stock_quantity + ?, 0), updated_at = NOW()
		 WHERE id = ?
		 RETURNING stock_quantity`,
		delta, id,
	).Scan(&remaining)
	if res.Error != nil {
		return 0, fmt.Errorf("product repository: adjust stock: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, domain.ErrNotFound
	}
	return remaining, nil
}
