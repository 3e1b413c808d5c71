package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/patria-foods/storefront/internal/domain/catalog"
	domain "github.com/patria-foods/storefront/internal/domain/order"
	domrealtime "github.com/patria-foods/storefront/internal/domain/realtime"
	"github.com/patria-foods/storefront/internal/infrastructure/id"
	"github.com/patria-foods/storefront/internal/infrastructure/memory"
	"github.com/patria-foods/storefront/internal/observability"
)

type dropPublisher struct{ events []domrealtime.Event }

func (p *dropPublisher) Publish(_ context.Context, e domrealtime.Event) error {
	p.events = append(p.events, e)
	return nil
}

type brokenItemsRepo struct {
	domain.Repository
}

func (r *brokenItemsRepo) InsertItems(context.Context, string, []*domain.Item) error {
	return errors.New("disk full")
}

type brokenStockProducts struct {
	catalog.Repository
}

func (brokenStockProducts) AdjustStock(context.Context, string, int) (int, error) {
	return 0, errors.New("stock service down")
}

func money(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func validInput() CreateInput {
	return CreateInput{
		UserID:        "u-1",
		CustomerName:  "Ada Mercer",
		CustomerEmail: "ada@example.com",
		ShippingAddress: domain.Address{
			FullName: "Ada Mercer", Line1: "1 Harbor Way", City: "Lisbon", PostalCode: "1100", Country: "PT",
		},
		Items: []ItemInput{
			{ProductID: "p-tea", ProductName: "Oolong Tea", Quantity: 2, UnitPrice: money("10.00")},
			{ProductID: "p-jam", ProductName: "Fig Jam", Quantity: 1, UnitPrice: money("5.00")},
		},
		Subtotal:      money("25.00"),
		ShippingCost:  money("4.50"),
		TotalAmount:   money("29.50"),
		PaymentMethod: "stripe",
	}
}

func newFixture(t *testing.T) (*Service, *memory.OrderRepository, *memory.ProductRepository, *dropPublisher) {
	t.Helper()

	orders := memory.NewOrderRepository()
	products := memory.NewProductRepository()
	products.Seed(
		&catalog.Product{ID: "p-tea", Name: "Oolong Tea", Price: money("10.00"), StockQuantity: 5, IsActive: true},
		&catalog.Product{ID: "p-jam", Name: "Fig Jam", Price: money("5.00"), StockQuantity: 1, IsActive: true},
	)
	pub := &dropPublisher{}
	gen := id.NewGenerator()
	svc := NewService(orders, products, gen, gen, pub, observability.NopLogger(), observability.NopTelemetry())
	return svc, orders, products, pub
}

func TestCreatePersistsOrderWithSnapshots(t *testing.T) {
	svc, orders, _, pub := newFixture(t)
	ctx := context.Background()

	o, err := svc.Create(ctx, validInput())
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, o.Status)
	require.Equal(t, domain.PaymentCompleted, o.PaymentStatus)
	require.Contains(t, o.OrderNumber, "ORD-")
	require.True(t, o.TotalAmount.Equal(money("29.50")))

	stored, err := orders.Get(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 2)
	require.True(t, stored.Items[0].TotalPrice.Equal(money("20.00")))
	require.True(t, stored.Items[1].TotalPrice.Equal(money("5.00")))

	require.Len(t, pub.events, 1)
	created := pub.events[0].(domain.CreatedEvent)
	require.Equal(t, o.ID, created.OrderID)
}

func TestCreateDecrementsStockClampedAtZero(t *testing.T) {
	svc, _, products, _ := newFixture(t)
	ctx := context.Background()

	input := validInput()
	input.Items[1].Quantity = 3 // more jam than is in stock

	_, err := svc.Create(ctx, input)
	require.NoError(t, err)

	tea, err := products.Get(ctx, "p-tea")
	require.NoError(t, err)
	require.Equal(t, 3, tea.StockQuantity)

	jam, err := products.Get(ctx, "p-jam")
	require.NoError(t, err)
	require.Equal(t, 0, jam.StockQuantity)
}

func TestCreateCompensatesWhenItemsFail(t *testing.T) {
	orders := memory.NewOrderRepository()
	products := memory.NewProductRepository()
	gen := id.NewGenerator()
	svc := NewService(&brokenItemsRepo{Repository: orders}, products, gen, gen, &dropPublisher{}, observability.NopLogger(), observability.NopTelemetry())

	_, err := svc.Create(context.Background(), validInput())
	require.Error(t, err)

	all, err := orders.ListAll(context.Background())
	require.NoError(t, err)
	require.Empty(t, all, "failed order creation must not leave an order row behind")
}

func TestCreateSurvivesStockFailure(t *testing.T) {
	orders := memory.NewOrderRepository()
	gen := id.NewGenerator()
	svc := NewService(orders, brokenStockProducts{}, gen, gen, &dropPublisher{}, observability.NopLogger(), observability.NopTelemetry())

	o, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	stored, err := orders.Get(context.Background(), o.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 2)
}

func TestCreateRejectsEmptyItems(t *testing.T) {
	svc, _, _, _ := newFixture(t)

	input := validInput()
	input.Items = nil

	_, err := svc.Create(context.Background(), input)
	require.ErrorIs(t, err, domain.ErrNoItems)
}

func TestUpdateStatusStampsShippedAt(t *testing.T) {
	svc, _, _, pub := newFixture(t)
	ctx := context.Background()

	o, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(ctx, o.ID, domain.StatusShipped)
	require.NoError(t, err)
	require.NotNil(t, updated.ShippedAt)
	require.Nil(t, updated.DeliveredAt)

	updated, err = svc.UpdateStatus(ctx, o.ID, domain.StatusDelivered)
	require.NoError(t, err)
	require.NotNil(t, updated.DeliveredAt)

	last := pub.events[len(pub.events)-1].(domain.UpdatedEvent)
	require.Equal(t, domain.StatusDelivered, last.Status)
}

func TestAddTrackingMovesToShipped(t *testing.T) {
	svc, _, _, _ := newFixture(t)
	ctx := context.Background()

	o, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	updated, err := svc.AddTracking(ctx, o.ID, "TRK-123")
	require.NoError(t, err)
	require.Equal(t, "TRK-123", updated.TrackingNumber)
	require.Equal(t, domain.StatusShipped, updated.Status)
	require.NotNil(t, updated.ShippedAt)
}

func TestStatsSummarizesOrders(t *testing.T) {
	svc, _, _, _ := newFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	second := validInput()
	second.TotalAmount = money("10.00")
	o2, err := svc.Create(ctx, second)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, o2.ID, domain.StatusDelivered)
	require.NoError(t, err)

	stats := svc.Stats(ctx)
	require.Equal(t, 2, stats.TotalOrders)
	require.Equal(t, 1, stats.PendingOrders)
	require.Equal(t, 1, stats.CompletedOrders)
	require.Equal(t, 2, stats.TodayOrders)
	require.True(t, stats.TotalRevenue.Equal(money("39.50")))
	require.True(t, stats.TodayRevenue.Equal(money("39.50")))
}

func TestStatsDegradesToZeroOnReadFailure(t *testing.T) {
	gen := id.NewGenerator()
	svc := NewService(failingOrders{}, memory.NewProductRepository(), gen, gen, &dropPublisher{}, observability.NopLogger(), observability.NopTelemetry())

	stats := svc.Stats(context.Background())
	require.Zero(t, stats.TotalOrders)
	require.True(t, stats.TotalRevenue.IsZero())
}

type failingOrders struct{}

func (failingOrders) Insert(context.Context, *domain.Order) error { return errors.New("db down") }
func (failingOrders) InsertItems(context.Context, string, []*domain.Item) error {
	return errors.New("db down")
}
func (failingOrders) Delete(context.Context, string) error { return errors.New("db down") }
func (failingOrders) Get(context.Context, string) (*domain.Order, error) {
	return nil, errors.New("db down")
}
func (failingOrders) ListAll(context.Context) ([]*domain.Order, error) {
	return nil, errors.New("db down")
}
func (failingOrders) ListByUser(context.Context, string) ([]*domain.Order, error) {
	return nil, errors.New("db down")
}
func (failingOrders) Update(context.Context, *domain.Order) error { return errors.New("db down") }

func TestOrderTimestampsAreUTC(t *testing.T) {
	svc, _, _, _ := newFixture(t)

	o, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)
	require.Equal(t, time.UTC, o.CreatedAt.Location())
}
