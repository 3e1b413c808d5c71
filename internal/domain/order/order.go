package order

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = errors.New("order: not found")
	ErrNoItems         = errors.New("order: at least one item is required")
	ErrInvalidQuantity = errors.New("order: item quantity must be greater than zero")
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// PaymentCompleted is the only payment status this core writes: orders are
// created after the provider has already confirmed payment.
const PaymentCompleted = "completed"

type Address struct {
	FullName   string
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
	Phone      string
}

// Item is a denormalized snapshot of a product at purchase time, deliberately
// decoupled from the live catalog row so history survives product edits.
type Item struct {
	ID           string
	OrderID      string
	ProductID    string
	ProductName  string
	ProductImage string
	Quantity     int
	UnitPrice    decimal.Decimal
	TotalPrice   decimal.Decimal
	CreatedAt    time.Time
}

func NewItem(id, orderID, productID, name, image string, quantity int, unitPrice decimal.Decimal) (*Item, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	return &Item{
		ID:           id,
		OrderID:      orderID,
		ProductID:    productID,
		ProductName:  name,
		ProductImage: image,
		Quantity:     quantity,
		UnitPrice:    unitPrice,
		TotalPrice:   unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// Order is immutable after creation except for status, tracking number, and
// the timestamps those changes stamp. The financial snapshot is fixed at
// creation time from caller-supplied totals.
type Order struct {
	ID              string
	UserID          string
	OrderNumber     string
	Status          Status
	PaymentStatus   string
	PaymentMethod   string
	PaymentIntentID string

	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	ShippingAddress Address

	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	ShippingCost   decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalAmount    decimal.Decimal

	TrackingNumber string
	ShippedAt      *time.Time
	DeliveredAt    *time.Time
	Notes          string

	CreatedAt time.Time
	UpdatedAt time.Time

	Items []*Item
}

// SetStatus applies an admin status change. Entering shipped or delivered
// stamps the corresponding timestamp; any other status, recognized or not,
// leaves both timestamps untouched.
func (o *Order) SetStatus(status Status) {
	now := time.Now().UTC()
	o.Status = status
	switch status {
	case StatusShipped:
		o.ShippedAt = &now
	case StatusDelivered:
		o.DeliveredAt = &now
	}
	o.UpdatedAt = now
}

// SetTracking records a tracking number and moves the order to shipped.
func (o *Order) SetTracking(trackingNumber string) {
	o.TrackingNumber = trackingNumber
	o.SetStatus(StatusShipped)
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	if o.ShippedAt != nil {
		t := *o.ShippedAt
		clone.ShippedAt = &t
	}
	if o.DeliveredAt != nil {
		t := *o.DeliveredAt
		clone.DeliveredAt = &t
	}
	clone.Items = make([]*Item, len(o.Items))
	for i, item := range o.Items {
		dup := *item
		clone.Items[i] = &dup
	}
	return &clone
}
