package postgres

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/patria-foods/storefront/internal/domain/cart"
	"github.com/patria-foods/storefront/internal/domain/catalog"
	"github.com/patria-foods/storefront/internal/domain/order"
)

type categoryRow struct {
	ID       string `gorm:"primaryKey;type:uuid"`
	Name     string `gorm:"not null"`
	Slug     string `gorm:"uniqueIndex;not null"`
	IsActive bool   `gorm:"not null;default:true"`
}

func (categoryRow) TableName() string { return "categories" }

type productRow struct {
	ID            string          `gorm:"primaryKey;type:uuid"`
	Name          string          `gorm:"not null"`
	Slug          string          `gorm:"uniqueIndex;not null"`
	Description   string          `gorm:"type:text"`
	Price         decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	DiscountPrice decimal.Decimal `gorm:"type:numeric(12,2)"`
	CategoryID    string          `gorm:"type:uuid;index"`
	ImageURL      string
	StockQuantity int  `gorm:"not null;default:0"`
	IsActive      bool `gorm:"not null;default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Category *categoryRow `gorm:"foreignKey:CategoryID"`
}

func (productRow) TableName() string { return "products" }

type cartLineRow struct {
	ID        string `gorm:"primaryKey;type:uuid"`
	UserID    string `gorm:"index"`
	SessionID string `gorm:"index"`
	ProductID string `gorm:"type:uuid;not null;index"`
	Quantity  int    `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (cartLineRow) TableName() string { return "cart_items" }

type orderRow struct {
	ID              string       `gorm:"primaryKey;type:uuid"`
	UserID          string       `gorm:"index"`
	OrderNumber     string       `gorm:"uniqueIndex;not null"`
	Status          string       `gorm:"not null"`
	PaymentStatus   string       `gorm:"not null"`
	PaymentMethod   string
	PaymentIntentID string

	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	ShippingAddress string `gorm:"type:jsonb"`

	Subtotal       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	TaxAmount      decimal.Decimal `gorm:"type:numeric(12,2)"`
	ShippingCost   decimal.Decimal `gorm:"type:numeric(12,2)"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(12,2)"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(12,2);not null"`

	TrackingNumber string
	ShippedAt      *time.Time
	DeliveredAt    *time.Time
	Notes          string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"index:idx_orders_created_at,sort:desc"`
	UpdatedAt time.Time

	Items []orderItemRow `gorm:"foreignKey:OrderID"`
}

func (orderRow) TableName() string { return "orders" }

type orderItemRow struct {
	ID           string          `gorm:"primaryKey;type:uuid"`
	OrderID      string          `gorm:"type:uuid;not null;index"`
	ProductID    string          `gorm:"type:uuid;not null"`
	ProductName  string          `gorm:"not null"`
	ProductImage string
	Quantity     int             `gorm:"not null"`
	UnitPrice    decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	TotalPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	CreatedAt    time.Time
}

func (orderItemRow) TableName() string { return "order_items" }

func toCategory(r *categoryRow) *catalog.Category {
	if r == nil {
		return nil
	}
	return &catalog.Category{ID: r.ID, Name: r.Name, Slug: r.Slug, IsActive: r.IsActive}
}

func toProduct(r *productRow) *catalog.Product {
	return &catalog.Product{
		ID:            r.ID,
		Name:          r.Name,
		Slug:          r.Slug,
		Description:   r.Description,
		Price:         r.Price,
		DiscountPrice: r.DiscountPrice,
		CategoryID:    r.CategoryID,
		ImageURL:      r.ImageURL,
		StockQuantity: r.StockQuantity,
		IsActive:      r.IsActive,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		Category:      toCategory(r.Category),
	}
}

func toCartLine(r *cartLineRow) *cart.Line {
	return &cart.Line{
		ID:        r.ID,
		Owner:     cart.Owner{UserID: r.UserID, SessionID: r.SessionID},
		ProductID: r.ProductID,
		Quantity:  r.Quantity,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func fromCartLine(l *cart.Line) *cartLineRow {
	return &cartLineRow{
		ID:        l.ID,
		UserID:    l.Owner.UserID,
		SessionID: l.Owner.SessionID,
		ProductID: l.ProductID,
		Quantity:  l.Quantity,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

func toOrder(r *orderRow) *order.Order {
	var addr order.Address
	if r.ShippingAddress != "" {
		// A malformed address blob degrades to the zero address rather than
		// failing the whole read.
		_ = json.Unmarshal([]byte(r.ShippingAddress), &addr)
	}

	o := &order.Order{
		ID:              r.ID,
		UserID:          r.UserID,
		OrderNumber:     r.OrderNumber,
		Status:          order.Status(r.Status),
		PaymentStatus:   r.PaymentStatus,
		PaymentMethod:   r.PaymentMethod,
		PaymentIntentID: r.PaymentIntentID,
		CustomerName:    r.CustomerName,
		CustomerEmail:   r.CustomerEmail,
		CustomerPhone:   r.CustomerPhone,
		ShippingAddress: addr,
		Subtotal:        r.Subtotal,
		TaxAmount:       r.TaxAmount,
		ShippingCost:    r.ShippingCost,
		DiscountAmount:  r.DiscountAmount,
		TotalAmount:     r.TotalAmount,
		TrackingNumber:  r.TrackingNumber,
		ShippedAt:       r.ShippedAt,
		DeliveredAt:     r.DeliveredAt,
		Notes:           r.Notes,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	o.Items = make([]*order.Item, len(r.Items))
	for i := range r.Items {
		o.Items[i] = toOrderItem(&r.Items[i])
	}
	return o
}

func fromOrder(o *order.Order) *orderRow {
	addr, _ := json.Marshal(o.ShippingAddress)
	return &orderRow{
		ID:              o.ID,
		UserID:          o.UserID,
		OrderNumber:     o.OrderNumber,
		Status:          string(o.Status),
		PaymentStatus:   o.PaymentStatus,
		PaymentMethod:   o.PaymentMethod,
		PaymentIntentID: o.PaymentIntentID,
		CustomerName:    o.CustomerName,
		CustomerEmail:   o.CustomerEmail,
		CustomerPhone:   o.CustomerPhone,
		ShippingAddress: string(addr),
		Subtotal:        o.Subtotal,
		TaxAmount:       o.TaxAmount,
		ShippingCost:    o.ShippingCost,
		DiscountAmount:  o.DiscountAmount,
		TotalAmount:     o.TotalAmount,
		TrackingNumber:  o.TrackingNumber,
		ShippedAt:       o.ShippedAt,
		DeliveredAt:     o.DeliveredAt,
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func toOrderItem(r *orderItemRow) *order.Item {
	return &order.Item{
		ID:           r.ID,
		OrderID:      r.OrderID,
		ProductID:    r.ProductID,
		ProductName:  r.ProductName,
		ProductImage: r.ProductImage,
		Quantity:     r.Quantity,
		UnitPrice:    r.UnitPrice,
		TotalPrice:   r.TotalPrice,
		CreatedAt:    r.CreatedAt,
	}
}

func fromOrderItem(it *order.Item) orderItemRow {
	return orderItemRow{
		ID:           it.ID,
		OrderID:      it.OrderID,
		ProductID:    it.ProductID,
		ProductName:  it.ProductName,
		ProductImage: it.ProductImage,
		Quantity:     it.Quantity,
		UnitPrice:    it.UnitPrice,
		TotalPrice:   it.TotalPrice,
		CreatedAt:    it.CreatedAt,
	}
}
