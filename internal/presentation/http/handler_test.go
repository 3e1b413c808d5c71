package httppresentation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	appCart "github.com/patria-foods/storefront/internal/application/cart"
	appCheckout "github.com/patria-foods/storefront/internal/application/checkout"
	appOrder "github.com/patria-foods/storefront/internal/application/order"
	domainCatalog "github.com/patria-foods/storefront/internal/domain/catalog"
	domainRealtime "github.com/patria-foods/storefront/internal/domain/realtime"
	"github.com/patria-foods/storefront/internal/infrastructure/id"
	"github.com/patria-foods/storefront/internal/infrastructure/memory"
	"github.com/patria-foods/storefront/internal/observability"
)

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, domainRealtime.Event) error { return nil }

type nopSubscriber struct{}

type nopSubscription struct{}

func (nopSubscription) Unsubscribe() {}

func (nopSubscriber) Subscribe(string, domainRealtime.Handler) domainRealtime.Subscription {
	return nopSubscription{}
}

type approvingCharger struct{}

func (approvingCharger) ConfirmCardPayment(context.Context, appCheckout.CardPayment) (appCheckout.Confirmation, error) {
	return appCheckout.Confirmation{TransactionID: "pi_test"}, nil
}

type approvingConfirmer struct{}

func (approvingConfirmer) ConfirmRedirectPayment(context.Context, appCheckout.RedirectPayment) (appCheckout.Confirmation, error) {
	return appCheckout.Confirmation{TransactionID: "cap_test"}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	lines := memory.NewCartRepository()
	products := memory.NewProductRepository()
	products.Seed(&domainCatalog.Product{
		ID:            "p-tea",
		Name:          "Oolong Tea",
		Price:         decimal.RequireFromString("10.00"),
		StockQuantity: 10,
		IsActive:      true,
	})
	orders := memory.NewOrderRepository()
	gen := id.NewGenerator()
	log := observability.NopLogger()
	tel := observability.NopTelemetry()

	cartSvc := appCart.NewService(lines, products, gen, nopPublisher{}, log, tel)
	orderSvc := appOrder.NewService(orders, products, gen, gen, nopPublisher{}, log, tel)
	checkoutSvc := appCheckout.NewService(orderSvc, cartSvc, approvingCharger{}, approvingConfirmer{}, log, tel)

	h := NewHandler(cartSvc, orderSvc, checkoutSvc, nopSubscriber{}, gen, log, tel)
	return h.Router()
}

func doJSON(t *testing.T, router http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCartRoundTrip(t *testing.T) {
	router := newTestRouter(t)
	asUser := map[string]string{"X-User-ID": "u-1"}

	rec := doJSON(t, router, http.MethodPost, "/cart/items", `{"product_id":"p-tea","quantity":2}`, asUser)
	require.Equal(t, http.StatusCreated, rec.Code)

	var line struct {
		ID       string `json:"id"`
		Quantity int    `json:"quantity"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &line))
	require.Equal(t, 2, line.Quantity)

	rec = doJSON(t, router, http.MethodGet, "/cart", "", asUser)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Oolong Tea")

	rec = doJSON(t, router, http.MethodGet, "/cart/total", "", asUser)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"item_count":2`)

	// Setting quantity to zero removes the line and reports that as success.
	rec = doJSON(t, router, http.MethodPatch, "/cart/items/"+line.ID, `{"quantity":0}`, asUser)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"removed":true`)

	rec = doJSON(t, router, http.MethodGet, "/cart", "", asUser)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"items":[]`)
}

func TestAddUnknownProductReturnsNotFound(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/cart/items", `{"product_id":"p-ghost","quantity":1}`,
		map[string]string{"X-User-ID": "u-1"})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGuestGetsSessionCookie(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/cart", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var sessionCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "guest_session_id" {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie)
	require.True(t, strings.HasPrefix(sessionCookie.Value, "guest_"))
}

func TestForeignLinePatchReturnsNotFound(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/cart/items", `{"product_id":"p-tea","quantity":1}`,
		map[string]string{"X-User-ID": "u-1"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var line struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &line))

	rec = doJSON(t, router, http.MethodPatch, "/cart/items/"+line.ID, `{"quantity":5}`,
		map[string]string{"X-User-ID": "u-2"})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCardCheckoutEndToEnd(t *testing.T) {
	router := newTestRouter(t)
	asUser := map[string]string{"X-User-ID": "u-1"}

	rec := doJSON(t, router, http.MethodPost, "/cart/items", `{"product_id":"p-tea","quantity":2}`, asUser)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := `{
		"customer_name": "Ada Mercer",
		"customer_email": "ada@example.com",
		"shipping_address": {"full_name":"Ada Mercer","line1":"1 Harbor Way","city":"Lisbon","postal_code":"1100","country":"PT"},
		"items": [{"product_id":"p-tea","product_name":"Oolong Tea","quantity":2,"unit_price":"10.00"}],
		"subtotal": "20.00",
		"total_amount": "20.00",
		"currency": "eur",
		"payment_method_id": "pm_card_visa"
	}`
	rec = doJSON(t, router, http.MethodPost, "/checkout/card", body, asUser)
	require.Equal(t, http.StatusOK, rec.Code)

	var result struct {
		Success     bool   `json:"success"`
		OrderID     string `json:"order_id"`
		OrderNumber string `json:"order_number"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.True(t, result.Success)
	require.Contains(t, result.OrderNumber, "ORD-")

	rec = doJSON(t, router, http.MethodGet, "/cart", "", asUser)
	require.Contains(t, rec.Body.String(), `"items":[]`)

	rec = doJSON(t, router, http.MethodGet, "/orders/"+result.OrderID, "", asUser)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"payment_method":"stripe"`)

	rec = doJSON(t, router, http.MethodGet, "/orders/mine", "", asUser)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), result.OrderID)
}

func TestOrderStatusAndTracking(t *testing.T) {
	router := newTestRouter(t)
	asUser := map[string]string{"X-User-ID": "u-1"}

	doJSON(t, router, http.MethodPost, "/cart/items", `{"product_id":"p-tea","quantity":1}`, asUser)
	body := `{
		"customer_name": "Ada Mercer",
		"customer_email": "ada@example.com",
		"shipping_address": {"full_name":"Ada Mercer","line1":"1 Harbor Way","city":"Lisbon","postal_code":"1100","country":"PT"},
		"items": [{"product_id":"p-tea","product_name":"Oolong Tea","quantity":1,"unit_price":"10.00"}],
		"subtotal": "10.00",
		"total_amount": "10.00",
		"currency": "eur",
		"payment_method_id": "pm_card_visa"
	}`
	rec := doJSON(t, router, http.MethodPost, "/checkout/card", body, asUser)
	var result struct {
		OrderID string `json:"order_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))

	rec = doJSON(t, router, http.MethodPatch, "/orders/"+result.OrderID+"/status", `{"status":"processing"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"processing"`)

	rec = doJSON(t, router, http.MethodPost, "/orders/"+result.OrderID+"/tracking", `{"tracking_number":"TRK-1"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"shipped"`)
	require.Contains(t, rec.Body.String(), `"tracking_number":"TRK-1"`)

	rec = doJSON(t, router, http.MethodGet, "/orders/stats", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"total_orders":1`)
}

func TestUnknownOrderReturnsNotFound(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/orders/no-such-order", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMergeCart(t *testing.T) {
	router := newTestRouter(t)
	asGuest := map[string]string{"X-Session-ID": "guest_1_abc"}
	asUser := map[string]string{"X-User-ID": "u-1"}

	rec := doJSON(t, router, http.MethodPost, "/cart/items", `{"product_id":"p-tea","quantity":2}`, asGuest)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/cart/merge", `{"user_id":"u-1"}`, asGuest)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/cart", "", asGuest)
	require.Contains(t, rec.Body.String(), `"items":[]`)

	rec = doJSON(t, router, http.MethodGet, "/cart", "", asUser)
	require.Contains(t, rec.Body.String(), `"quantity":2`)
}
