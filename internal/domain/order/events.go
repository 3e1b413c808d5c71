package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreatedEvent is emitted once an order and its item snapshots exist.
type CreatedEvent struct {
	OrderID     string
	OrderNumber string
	UserID      string
	TotalAmount decimal.Decimal
	OccurredAt  time.Time
}

func (CreatedEvent) EventName() string { return "order.created" }

func (e CreatedEvent) OwnerKey() string { return e.UserID }

func NewCreatedEvent(o *Order) CreatedEvent {
	return CreatedEvent{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		TotalAmount: o.TotalAmount,
		OccurredAt:  time.Now().UTC(),
	}
}

// UpdatedEvent is emitted on admin-triggered status or tracking changes.
type UpdatedEvent struct {
	OrderID    string
	UserID     string
	Status     Status
	OccurredAt time.Time
}

func (UpdatedEvent) EventName() string { return "order.updated" }

func (e UpdatedEvent) OwnerKey() string { return e.UserID }

func NewUpdatedEvent(o *Order) UpdatedEvent {
	return UpdatedEvent{
		OrderID:    o.ID,
		UserID:     o.UserID,
		Status:     o.Status,
		OccurredAt: time.Now().UTC(),
	}
}
