package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	domain "github.com/patria-foods/storefront/internal/domain/cart"
	"github.com/patria-foods/storefront/internal/domain/catalog"
	domrealtime "github.com/patria-foods/storefront/internal/domain/realtime"
	"github.com/patria-foods/storefront/internal/infrastructure/memory"
	"github.com/patria-foods/storefront/internal/observability"
)

type seqIDs struct{ n int }

func (g *seqIDs) NewID() string {
	g.n++
	return string(rune('a'-1+g.n)) + "-line"
}

type capturePublisher struct {
	mu     sync.Mutex
	events []domrealtime.Event
}

func (p *capturePublisher) Publish(_ context.Context, e domrealtime.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

type failingProducts struct{}

func (failingProducts) Get(context.Context, string) (*catalog.Product, error) {
	return nil, errors.New("catalog down")
}

func (failingProducts) GetMany(context.Context, []string) (map[string]*catalog.Product, error) {
	return nil, errors.New("catalog down")
}

func (failingProducts) AdjustStock(context.Context, string, int) (int, error) {
	return 0, errors.New("catalog down")
}

func price(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func newFixture(t *testing.T) (*Service, *memory.CartRepository, *memory.ProductRepository, *capturePublisher) {
	t.Helper()

	lines := memory.NewCartRepository()
	products := memory.NewProductRepository()
	products.Seed(
		&catalog.Product{ID: "p-tea", Name: "Oolong Tea", Price: price("10.00"), StockQuantity: 50, IsActive: true},
		&catalog.Product{ID: "p-jam", Name: "Fig Jam", Price: price("9.99"), DiscountPrice: price("5.00"), StockQuantity: 20, IsActive: true},
	)
	pub := &capturePublisher{}
	svc := NewService(lines, products, &seqIDs{}, pub, observability.NopLogger(), observability.NopTelemetry())
	return svc, lines, products, pub
}

func TestAddAccumulatesOntoExistingLine(t *testing.T) {
	svc, _, _, _ := newFixture(t)
	ctx := context.Background()
	owner := domain.UserOwner("u-1")

	first, err := svc.Add(ctx, owner, "p-tea", 2)
	require.NoError(t, err)

	second, err := svc.Add(ctx, owner, "p-tea", 3)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, 5, second.Quantity)

	views, err := svc.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Equal(t, 5, views[0].Line.Quantity)
	require.Equal(t, "Oolong Tea", views[0].Product.Name)
}

func TestAddRejectsUnknownProduct(t *testing.T) {
	svc, _, _, _ := newFixture(t)

	_, err := svc.Add(context.Background(), domain.UserOwner("u-1"), "p-ghost", 1)
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestSetQuantityZeroRemovesLine(t *testing.T) {
	svc, _, _, pub := newFixture(t)
	ctx := context.Background()
	owner := domain.UserOwner("u-1")

	line, err := svc.Add(ctx, owner, "p-tea", 2)
	require.NoError(t, err)

	_, err = svc.SetQuantity(ctx, owner, line.ID, 0)
	require.ErrorIs(t, err, domain.ErrLineRemoved)

	views, err := svc.List(ctx, owner)
	require.NoError(t, err)
	require.Empty(t, views)

	totals := svc.Total(ctx, owner)
	require.True(t, totals.Subtotal.IsZero())
	require.Zero(t, totals.ItemCount)

	last := pub.events[len(pub.events)-1].(domain.ChangedEvent)
	require.Equal(t, domain.ChangeDelete, last.Kind)
}

func TestSetQuantityForeignLineLooksMissing(t *testing.T) {
	svc, _, _, _ := newFixture(t)
	ctx := context.Background()

	line, err := svc.Add(ctx, domain.UserOwner("u-1"), "p-tea", 1)
	require.NoError(t, err)

	_, err = svc.SetQuantity(ctx, domain.UserOwner("u-2"), line.ID, 4)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRemoveMissingLineSucceeds(t *testing.T) {
	svc, _, _, _ := newFixture(t)

	err := svc.Remove(context.Background(), domain.UserOwner("u-1"), "no-such-line")
	require.NoError(t, err)
}

func TestTotalResolvesDiscountPrices(t *testing.T) {
	svc, _, _, _ := newFixture(t)
	ctx := context.Background()
	owner := domain.GuestOwner("guest_1_abc")

	_, err := svc.Add(ctx, owner, "p-tea", 2)
	require.NoError(t, err)
	_, err = svc.Add(ctx, owner, "p-jam", 1)
	require.NoError(t, err)

	totals := svc.Total(ctx, owner)
	require.True(t, totals.Subtotal.Equal(price("25.00")), "got %s", totals.Subtotal)
	require.Equal(t, 3, totals.ItemCount)
}

func TestTotalSwallowsCatalogFailures(t *testing.T) {
	lines := memory.NewCartRepository()
	svc := NewService(lines, failingProducts{}, &seqIDs{}, &capturePublisher{}, observability.NopLogger(), observability.NopTelemetry())

	owner := domain.UserOwner("u-1")
	line, err := domain.NewLine("l-1", owner, "p-tea", 2)
	require.NoError(t, err)
	require.NoError(t, lines.Insert(context.Background(), line))

	totals := svc.Total(context.Background(), owner)
	require.True(t, totals.Subtotal.IsZero())
	require.Equal(t, 2, totals.ItemCount)
}

func TestMergeGuestIntoUser(t *testing.T) {
	svc, _, _, _ := newFixture(t)
	ctx := context.Background()
	guest := domain.GuestOwner("guest_1_abc")
	user := domain.UserOwner("u-1")

	_, err := svc.Add(ctx, guest, "p-tea", 1)
	require.NoError(t, err)
	_, err = svc.Add(ctx, guest, "p-jam", 2)
	require.NoError(t, err)
	_, err = svc.Add(ctx, user, "p-tea", 2)
	require.NoError(t, err)

	require.NoError(t, svc.MergeGuestIntoUser(ctx, "guest_1_abc", "u-1"))

	guestViews, err := svc.List(ctx, guest)
	require.NoError(t, err)
	require.Empty(t, guestViews)

	userViews, err := svc.List(ctx, user)
	require.NoError(t, err)
	require.Len(t, userViews, 2)

	byProduct := map[string]int{}
	for _, v := range userViews {
		byProduct[v.Line.ProductID] = v.Line.Quantity
	}
	require.Equal(t, 3, byProduct["p-tea"])
	require.Equal(t, 2, byProduct["p-jam"])
}

func TestMergeEmptyGuestCartIsNoop(t *testing.T) {
	svc, _, _, pub := newFixture(t)

	require.NoError(t, svc.MergeGuestIntoUser(context.Background(), "guest_1_abc", "u-1"))
	require.Empty(t, pub.events)
}

func TestListNewestFirst(t *testing.T) {
	svc, _, _, _ := newFixture(t)
	ctx := context.Background()
	owner := domain.UserOwner("u-1")

	_, err := svc.Add(ctx, owner, "p-tea", 1)
	require.NoError(t, err)
	_, err = svc.Add(ctx, owner, "p-jam", 1)
	require.NoError(t, err)

	views, err := svc.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, views, 2)
	require.Equal(t, "p-jam", views[0].Line.ProductID)
	require.Equal(t, "p-tea", views[1].Line.ProductID)
}
