package order

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/patria-foods/storefront/internal/domain/catalog"
	domain "github.com/patria-foods/storefront/internal/domain/order"
	"github.com/patria-foods/storefront/internal/domain/realtime"
	"github.com/patria-foods/storefront/internal/observability"
	"github.com/patria-foods/storefront/internal/observability/logctx"
)

const componentOrder = "order_service"

type ItemInput struct {
	ProductID    string
	ProductName  string
	ProductImage string
	Quantity     int
	UnitPrice    decimal.Decimal
}

// CreateInput carries everything needed to persist an order. The monetary
// totals are taken as supplied and are not re-derived from the items; the
// caller owns that arithmetic.
type CreateInput struct {
	UserID string

	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	ShippingAddress domain.Address

	Items []ItemInput

	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	ShippingCost   decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalAmount    decimal.Decimal

	PaymentMethod   string
	PaymentIntentID string
	Notes           string
}

// Stats is the admin dashboard summary. Delivered orders count as completed.
type Stats struct {
	TotalOrders     int
	PendingOrders   int
	CompletedOrders int
	TodayOrders     int
	TotalRevenue    decimal.Decimal
	TodayRevenue    decimal.Decimal
}

type Service struct {
	orders    domain.Repository
	products  catalog.Repository
	ids       IDGenerator
	numbers   NumberGenerator
	publisher realtime.Publisher
	log       observability.Logger
	tel       observability.Telemetry
}

func NewService(
	orders domain.Repository,
	products catalog.Repository,
	ids IDGenerator,
	numbers NumberGenerator,
	publisher realtime.Publisher,
	log observability.Logger,
	tel observability.Telemetry,
) *Service {
	return &Service{
		orders:    orders,
		products:  products,
		ids:       ids,
		numbers:   numbers,
		publisher: publisher,
		log:       log.With(observability.F("component", componentOrder)),
		tel:       tel,
	}
}

// Create persists an order and its item snapshots, then decrements stock.
// The order row and item rows are written in two steps; if the items fail the
// order row is deleted again so no empty order is left behind. Stock
// adjustment failures are logged and swallowed: the order already exists and
// stock counts are advisory.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Order, error) {
	logger := logctx.FromOr(ctx, s.log)

	if len(input.Items) == 0 {
		return nil, domain.ErrNoItems
	}

	now := time.Now().UTC()
	o := &domain.Order{
		ID:              s.ids.NewID(),
		UserID:          input.UserID,
		OrderNumber:     s.numbers.NewOrderNumber(),
		Status:          domain.StatusPending,
		PaymentStatus:   domain.PaymentCompleted,
		PaymentMethod:   input.PaymentMethod,
		PaymentIntentID: input.PaymentIntentID,
		CustomerName:    input.CustomerName,
		CustomerEmail:   input.CustomerEmail,
		CustomerPhone:   input.CustomerPhone,
		ShippingAddress: input.ShippingAddress,
		Subtotal:        input.Subtotal,
		TaxAmount:       input.TaxAmount,
		ShippingCost:    input.ShippingCost,
		DiscountAmount:  input.DiscountAmount,
		TotalAmount:     input.TotalAmount,
		Notes:           input.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	items := make([]*domain.Item, len(input.Items))
	for i, in := range input.Items {
		item, err := domain.NewItem(s.ids.NewID(), o.ID, in.ProductID, in.ProductName, in.ProductImage, in.Quantity, in.UnitPrice)
		if err != nil {
			return nil, err
		}
		items[i] = item
	}

	if err := s.orders.Insert(ctx, o); err != nil {
		return nil, fmt.Errorf("order: insert: %w", err)
	}

	if err := s.orders.InsertItems(ctx, o.ID, items); err != nil {
		logger.Error("order_items_insert_failed",
			observability.F("order_id", o.ID),
			observability.F("error", err),
		)
		if delErr := s.orders.Delete(ctx, o.ID); delErr != nil {
			logger.Error("order_compensation_failed",
				observability.F("order_id", o.ID),
				observability.F("error", delErr),
			)
		}
		return nil, fmt.Errorf("order: insert items: %w", err)
	}
	o.Items = items

	for _, item := range items {
		remaining, err := s.products.AdjustStock(ctx, item.ProductID, -item.Quantity)
		if err != nil {
			logger.Warn("stock_adjust_failed",
				observability.F("order_id", o.ID),
				observability.F("product_id", item.ProductID),
				observability.F("error", err),
			)
			continue
		}
		logger.Debug("stock_adjusted",
			observability.F("product_id", item.ProductID),
			observability.F("remaining", remaining),
		)
	}

	logger.Info("order_created",
		observability.F("order_id", o.ID),
		observability.F("order_number", o.OrderNumber),
		observability.F("total", o.TotalAmount.String()),
	)
	s.tel.Counter(observability.MOrdersCreated).Add(1, observability.L("payment_method", o.PaymentMethod))
	s.publish(ctx, domain.NewCreatedEvent(o))
	return o, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	if id == "" {
		return nil, domain.ErrNotFound
	}
	return s.orders.Get(ctx, id)
}

func (s *Service) ListAll(ctx context.Context) ([]*domain.Order, error) {
	return s.orders.ListAll(ctx)
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	if userID == "" {
		return nil, domain.ErrNotFound
	}
	return s.orders.ListByUser(ctx, userID)
}

// UpdateStatus applies an admin status change. Transitions are not gated;
// support staff move orders freely, including backwards.
func (s *Service) UpdateStatus(ctx context.Context, id string, status domain.Status) (*domain.Order, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	o.SetStatus(status)
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, fmt.Errorf("order: update status: %w", err)
	}

	logctx.FromOr(ctx, s.log).Info("order_status_updated",
		observability.F("order_id", o.ID),
		observability.F("status", string(o.Status)),
	)
	s.publish(ctx, domain.NewUpdatedEvent(o))
	return o, nil
}

// AddTracking records a tracking number, which also moves the order to shipped.
func (s *Service) AddTracking(ctx context.Context, id, trackingNumber string) (*domain.Order, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	o.SetTracking(trackingNumber)
	if err := s.orders.Update(ctx, o); err != nil {
		return nil, fmt.Errorf("order: add tracking: %w", err)
	}

	logctx.FromOr(ctx, s.log).Info("order_tracking_added",
		observability.F("order_id", o.ID),
		observability.F("tracking_number", trackingNumber),
	)
	s.publish(ctx, domain.NewUpdatedEvent(o))
	return o, nil
}

// Stats summarizes all orders for the admin dashboard. A failed read degrades
// to all-zero stats; the dashboard renders zeros rather than an error page.
func (s *Service) Stats(ctx context.Context) Stats {
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		logctx.FromOr(ctx, s.log).Warn("order_stats_failed", observability.F("error", err))
		return Stats{}
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	var stats Stats
	for _, o := range orders {
		stats.TotalOrders++
		stats.TotalRevenue = stats.TotalRevenue.Add(o.TotalAmount)
		switch o.Status {
		case domain.StatusPending:
			stats.PendingOrders++
		case domain.StatusDelivered:
			stats.CompletedOrders++
		}
		if !o.CreatedAt.UTC().Before(today) {
			stats.TodayOrders++
			stats.TodayRevenue = stats.TodayRevenue.Add(o.TotalAmount)
		}
	}
	return stats
}

func (s *Service) publish(ctx context.Context, e realtime.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		logctx.FromOr(ctx, s.log).Warn("event_publish_failed",
			observability.F("event", e.EventName()),
			observability.F("error", err),
		)
		s.tel.Counter(observability.MEventPublishFailed).Add(1, observability.L("event", e.EventName()))
	}
}
