package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	domain "github.com/patria-foods/storefront/internal/domain/order"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	row := fromOrder(order)
	if err := r.db.WithContext(ctx).Omit("Items").Create(row).Error; err != nil {
		return fmt.Errorf("order repository: insert: %w", err)
	}
	return nil
}

func (r *OrderRepository) InsertItems(ctx context.Context, orderID string, items []*domain.Item) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]orderItemRow, len(items))
	for i, it := range items {
		rows[i] = fromOrderItem(it)
		rows[i].OrderID = orderID
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("order repository: insert items: %w", err)
	}
	return nil
}

// Delete removes an order and any item rows that made it in before a failure.
// It backs the compensating path of order creation.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&orderItemRow{}, "order_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&orderRow{}, "id = ?", id).Error
	})
	if err != nil {
		return fmt.Errorf("order repository: delete: %w", err)
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	var row orderRow
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("order repository: get: %w", err)
	}
	return toOrder(&row), nil
}

func (r *OrderRepository) ListAll(ctx context.Context) ([]*domain.Order, error) {
	return r.list(ctx, nil)
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	return r.list(ctx, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("user_id = ?", userID)
	})
}

func (r *OrderRepository) list(ctx context.Context, scope func(*gorm.DB) *gorm.DB) ([]*domain.Order, error) {
	tx := r.db.WithContext(ctx).Preload("Items").Order("created_at DESC")
	if scope != nil {
		tx = scope(tx)
	}

	var rows []orderRow
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("order repository: list: %w", err)
	}

	out := make([]*domain.Order, len(rows))
	for i := range rows {
		out[i] = toOrder(&rows[i])
	}
	return out, nil
}

func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) error {
	res := r.db.WithContext(ctx).
		Model(&orderRow{}).
		Where("id = ?", order.ID).
		Updates(map[string]any{
			"status":          string(order.Status),
			"tracking_number": order.TrackingNumber,
			"shipped_at":      order.ShippedAt,
			"delivered_at":    order.DeliveredAt,
			"notes":           order.Notes,
			"updated_at":      order.UpdatedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("order repository: update: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
