package httppresentation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	appCart "github.com/patria-foods/storefront/internal/application/cart"
	appCheckout "github.com/patria-foods/storefront/internal/application/checkout"
	appOrder "github.com/patria-foods/storefront/internal/application/order"
	appSession "github.com/patria-foods/storefront/internal/application/session"
	domainCart "github.com/patria-foods/storefront/internal/domain/cart"
	domainCatalog "github.com/patria-foods/storefront/internal/domain/catalog"
	domainOrder "github.com/patria-foods/storefront/internal/domain/order"
	domainRealtime "github.com/patria-foods/storefront/internal/domain/realtime"
	infraSession "github.com/patria-foods/storefront/internal/infrastructure/session"
	"github.com/patria-foods/storefront/internal/observability"
	"github.com/patria-foods/storefront/internal/observability/logctx"
)

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"
	headerUserID         = "X-User-ID"
	headerSessionID      = "X-Session-ID"
)

type Handler struct {
	cartService     *appCart.Service
	orderService    *appOrder.Service
	checkoutService *appCheckout.Service
	feed            domainRealtime.Subscriber
	guestIDs        appSession.Generator
	log             observability.Logger
	tel             observability.Telemetry
}

func NewHandler(
	cartSvc *appCart.Service,
	orderSvc *appOrder.Service,
	checkoutSvc *appCheckout.Service,
	feed domainRealtime.Subscriber,
	guestIDs appSession.Generator,
	logger observability.Logger,
	tel observability.Telemetry,
) *Handler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = observability.NopLogger()
	}
	return &Handler{
		cartService:     cartSvc,
		orderService:    orderSvc,
		checkoutService: checkoutSvc,
		feed:            feed,
		guestIDs:        guestIDs,
		log:             baseLogger.With(observability.F("component", componentHTTPHandler)),
		tel:             tel,
	}
}

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	h.muxHandle(mux, "GET /cart", h.handleListCart)
	h.muxHandle(mux, "GET /cart/total", h.handleCartTotal)
	h.muxHandle(mux, "POST /cart/items", h.handleAddCartItem)
	h.muxHandle(mux, "PATCH /cart/items/{id}", h.handleSetCartItemQuantity)
	h.muxHandle(mux, "DELETE /cart/items/{id}", h.handleRemoveCartItem)
	h.muxHandle(mux, "DELETE /cart", h.handleClearCart)
	h.muxHandle(mux, "POST /cart/merge", h.handleMergeCart)

	h.muxHandle(mux, "POST /checkout/card", h.handleCardCheckout)
	h.muxHandle(mux, "POST /checkout/paypal", h.handlePayPalCheckout)

	h.muxHandle(mux, "GET /orders", h.handleListOrders)
	h.muxHandle(mux, "GET /orders/stats", h.handleOrderStats)
	h.muxHandle(mux, "GET /orders/mine", h.handleMyOrders)
	h.muxHandle(mux, "GET /orders/{id}", h.handleGetOrder)
	h.muxHandle(mux, "PATCH /orders/{id}/status", h.handleUpdateOrderStatus)
	h.muxHandle(mux, "POST /orders/{id}/tracking", h.handleAddTracking)

	h.muxHandle(mux, "GET /events", h.handleEvents)
	h.muxHandle(mux, "GET /health", h.handleHealth)

	return mux
}

// muxHandle wires one route with the middleware chain:
// Trace → ObservabilityMiddleware (request logger + metrics) → Access log → Handler.
func (h *Handler) muxHandle(mux *http.ServeMux, pattern string, handler http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		// Store the stable route template for low-cardinality labels.
		ctx := contextWithRoute(r.Context(), pattern)
		r = r.WithContext(ctx)

		wrapped := h.withTrace(
			ObservabilityMiddleware(
				logctx.FromOr(ctx, h.log),
				func(r *http.Request) string {
					return r.Header.Get(headerRequestID)
				},
				h.tel,
			)(
				h.withAccessLog(handler),
			),
		)
		wrapped.ServeHTTP(w, r)
	})
}

// owner resolves the caller identity. An authenticated user id wins; otherwise
// the guest session id comes from the header or from the session cookie,
// minting a new one on first contact.
func (h *Handler) owner(w http.ResponseWriter, r *http.Request) domainCart.Owner {
	if userID := r.Header.Get(headerUserID); userID != "" {
		return domainCart.UserOwner(userID)
	}
	if sessionID := r.Header.Get(headerSessionID); sessionID != "" {
		return domainCart.GuestOwner(sessionID)
	}

	resolver := appSession.NewResolver(infraSession.NewCookieStore(w, r), h.guestIDs, h.log)
	return domainCart.GuestOwner(resolver.GetOrCreate(r.Context()))
}

// --- Cart ---

type productResponse struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Slug          string          `json:"slug"`
	Price         decimal.Decimal `json:"price"`
	DiscountPrice decimal.Decimal `json:"discount_price"`
	ImageURL      string          `json:"image_url"`
	StockQuantity int             `json:"stock_quantity"`
	IsActive      bool            `json:"is_active"`
}

type cartLineResponse struct {
	ID        string           `json:"id"`
	ProductID string           `json:"product_id"`
	Quantity  int              `json:"quantity"`
	Product   *productResponse `json:"product,omitempty"`
}

func toCartLineResponse(v *appCart.LineView) cartLineResponse {
	resp := cartLineResponse{
		ID:        v.Line.ID,
		ProductID: v.Line.ProductID,
		Quantity:  v.Line.Quantity,
	}
	if v.Product != nil {
		resp.Product = &productResponse{
			ID:            v.Product.ID,
			Name:          v.Product.Name,
			Slug:          v.Product.Slug,
			Price:         v.Product.Price,
			DiscountPrice: v.Product.DiscountPrice,
			ImageURL:      v.Product.ImageURL,
			StockQuantity: v.Product.StockQuantity,
			IsActive:      v.Product.IsActive,
		}
	}
	return resp
}

func (h *Handler) handleListCart(w http.ResponseWriter, r *http.Request) {
	views, err := h.cartService.List(r.Context(), h.owner(w, r))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	items := make([]cartLineResponse, len(views))
	for i, v := range views {
		items[i] = toCartLineResponse(v)
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) handleCartTotal(w http.ResponseWriter, r *http.Request) {
	totals := h.cartService.Total(r.Context(), h.owner(w, r))
	writeJSON(w, http.StatusOK, map[string]any{
		"subtotal":   totals.Subtotal,
		"item_count": totals.ItemCount,
	})
}

type addCartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	var req addCartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	line, err := h.cartService.Add(r.Context(), h.owner(w, r), req.ProductID, req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cartLineResponse{
		ID:        line.ID,
		ProductID: line.ProductID,
		Quantity:  line.Quantity,
	})
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) handleSetCartItemQuantity(w http.ResponseWriter, r *http.Request) {
	var req setQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	line, err := h.cartService.SetQuantity(r.Context(), h.owner(w, r), r.PathValue("id"), req.Quantity)
	if errors.Is(err, domainCart.ErrLineRemoved) {
		// The non-positive quantity removed the line; that is a success here.
		writeJSON(w, http.StatusOK, map[string]any{"removed": true})
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cartLineResponse{
		ID:        line.ID,
		ProductID: line.ProductID,
		Quantity:  line.Quantity,
	})
}

func (h *Handler) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	if err := h.cartService.Remove(r.Context(), h.owner(w, r), r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.cartService.Clear(r.Context(), h.owner(w, r)); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type mergeCartRequest struct {
	UserID string `json:"user_id"`
}

func (h *Handler) handleMergeCart(w http.ResponseWriter, r *http.Request) {
	var req mergeCartRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	sessionID := r.Header.Get(headerSessionID)
	if sessionID == "" {
		if c, err := r.Cookie("guest_session_id"); err == nil {
			sessionID = c.Value
		}
	}

	if err := h.cartService.MergeGuestIntoUser(r.Context(), sessionID, req.UserID); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Checkout ---

type addressPayload struct {
	FullName   string `json:"full_name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

func (a addressPayload) toDomain() domainOrder.Address {
	return domainOrder.Address{
		FullName:   a.FullName,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Phone:      a.Phone,
	}
}

type checkoutItemPayload struct {
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductImage string          `json:"product_image"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
}

type checkoutRequest struct {
	CustomerName    string                `json:"customer_name"`
	CustomerEmail   string                `json:"customer_email"`
	CustomerPhone   string                `json:"customer_phone"`
	ShippingAddress addressPayload        `json:"shipping_address"`
	Items           []checkoutItemPayload `json:"items"`
	Subtotal        decimal.Decimal       `json:"subtotal"`
	TaxAmount       decimal.Decimal       `json:"tax_amount"`
	ShippingCost    decimal.Decimal       `json:"shipping_cost"`
	DiscountAmount  decimal.Decimal       `json:"discount_amount"`
	TotalAmount     decimal.Decimal       `json:"total_amount"`
	Currency        string                `json:"currency"`
	PaymentMethodID string                `json:"payment_method_id"`
	ProviderOrderID string                `json:"provider_order_id"`
	Notes           string                `json:"notes"`
}

func (req *checkoutRequest) toService(owner domainCart.Owner) appCheckout.Request {
	items := make([]appOrder.ItemInput, len(req.Items))
	for i, it := range req.Items {
		items[i] = appOrder.ItemInput{
			ProductID:    it.ProductID,
			ProductName:  it.ProductName,
			ProductImage: it.ProductImage,
			Quantity:     it.Quantity,
			UnitPrice:    it.UnitPrice,
		}
	}
	return appCheckout.Request{
		Owner:           owner,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		ShippingAddress: req.ShippingAddress.toDomain(),
		Items:           items,
		Subtotal:        req.Subtotal,
		TaxAmount:       req.TaxAmount,
		ShippingCost:    req.ShippingCost,
		DiscountAmount:  req.DiscountAmount,
		TotalAmount:     req.TotalAmount,
		Currency:        req.Currency,
		PaymentMethodID: req.PaymentMethodID,
		ProviderOrderID: req.ProviderOrderID,
		Notes:           req.Notes,
	}
}

type checkoutResponse struct {
	Success     bool   `json:"success"`
	OrderID     string `json:"order_id,omitempty"`
	OrderNumber string `json:"order_number,omitempty"`
	Error       string `json:"error,omitempty"`
}

func (h *Handler) handleCardCheckout(w http.ResponseWriter, r *http.Request) {
	h.handleCheckout(w, r, h.checkoutService.ProcessCardPayment)
}

func (h *Handler) handlePayPalCheckout(w http.ResponseWriter, r *http.Request) {
	h.handleCheckout(w, r, h.checkoutService.ProcessRedirectPayment)
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request, process func(context.Context, appCheckout.Request) appCheckout.Result) {
	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result := process(r.Context(), req.toService(h.owner(w, r)))

	status := http.StatusOK
	if !result.Success {
		status = http.StatusPaymentRequired
	}
	writeJSON(w, status, checkoutResponse{
		Success:     result.Success,
		OrderID:     result.OrderID,
		OrderNumber: result.OrderNumber,
		Error:       result.Error,
	})
}

// --- Orders ---

type orderItemResponse struct {
	ID           string          `json:"id"`
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductImage string          `json:"product_image"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	TotalPrice   decimal.Decimal `json:"total_price"`
}

type orderResponse struct {
	ID              string              `json:"id"`
	OrderNumber     string              `json:"order_number"`
	UserID          string              `json:"user_id,omitempty"`
	Status          string              `json:"status"`
	PaymentStatus   string              `json:"payment_status"`
	PaymentMethod   string              `json:"payment_method"`
	CustomerName    string              `json:"customer_name"`
	CustomerEmail   string              `json:"customer_email"`
	ShippingAddress addressPayload      `json:"shipping_address"`
	Subtotal        decimal.Decimal     `json:"subtotal"`
	TaxAmount       decimal.Decimal     `json:"tax_amount"`
	ShippingCost    decimal.Decimal     `json:"shipping_cost"`
	DiscountAmount  decimal.Decimal     `json:"discount_amount"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	TrackingNumber  string              `json:"tracking_number,omitempty"`
	ShippedAt       *time.Time          `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time          `json:"delivered_at,omitempty"`
	Notes           string              `json:"notes,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	Items           []orderItemResponse `json:"items"`
}

func toOrderResponse(o *domainOrder.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemResponse{
			ID:           it.ID,
			ProductID:    it.ProductID,
			ProductName:  it.ProductName,
			ProductImage: it.ProductImage,
			Quantity:     it.Quantity,
			UnitPrice:    it.UnitPrice,
			TotalPrice:   it.TotalPrice,
		}
	}
	return orderResponse{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		UserID:        o.UserID,
		Status:        string(o.Status),
		PaymentStatus: o.PaymentStatus,
		PaymentMethod: o.PaymentMethod,
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		ShippingAddress: addressPayload{
			FullName:   o.ShippingAddress.FullName,
			Line1:      o.ShippingAddress.Line1,
			Line2:      o.ShippingAddress.Line2,
			City:       o.ShippingAddress.City,
			State:      o.ShippingAddress.State,
			PostalCode: o.ShippingAddress.PostalCode,
			Country:    o.ShippingAddress.Country,
			Phone:      o.ShippingAddress.Phone,
		},
		Subtotal:       o.Subtotal,
		TaxAmount:      o.TaxAmount,
		ShippingCost:   o.ShippingCost,
		DiscountAmount: o.DiscountAmount,
		TotalAmount:    o.TotalAmount,
		TrackingNumber: o.TrackingNumber,
		ShippedAt:      o.ShippedAt,
		DeliveredAt:    o.DeliveredAt,
		Notes:          o.Notes,
		CreatedAt:      o.CreatedAt,
		Items:          items,
	}
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderService.ListAll(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": toOrderResponses(orders)})
}

func (h *Handler) handleMyOrders(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(headerUserID)
	if userID == "" {
		writeError(w, http.StatusUnauthorized, fmt.Errorf("a user id is required"))
		return
	}

	orders, err := h.orderService.ListByUser(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": toOrderResponses(orders)})
}

func toOrderResponses(orders []*domainOrder.Order) []orderResponse {
	out := make([]orderResponse, len(orders))
	for i, o := range orders {
		out[i] = toOrderResponse(o)
	}
	return out
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orderService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) handleOrderStats(w http.ResponseWriter, r *http.Request) {
	stats := h.orderService.Stats(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"total_orders":     stats.TotalOrders,
		"pending_orders":   stats.PendingOrders,
		"completed_orders": stats.CompletedOrders,
		"today_orders":     stats.TodayOrders,
		"total_revenue":    stats.TotalRevenue,
		"today_revenue":    stats.TodayRevenue,
	})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Status == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("status is required"))
		return
	}

	o, err := h.orderService.UpdateStatus(r.Context(), r.PathValue("id"), domainOrder.Status(req.Status))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

type addTrackingRequest struct {
	TrackingNumber string `json:"tracking_number"`
}

func (h *Handler) handleAddTracking(w http.ResponseWriter, r *http.Request) {
	var req addTrackingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.TrackingNumber == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("tracking_number is required"))
		return
	}

	o, err := h.orderService.AddTracking(r.Context(), r.PathValue("id"), req.TrackingNumber)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// --- Realtime feed ---

var feedEvents = []string{"cart.changed", "order.created", "order.updated"}

type feedEnvelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// handleEvents streams change notifications as server-sent events. Clients
// treat every message as a refetch trigger; the payload carries identifiers,
// not row data. With ?scope=mine only the caller's own events come through.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("streaming is not supported"))
		return
	}

	messages := make(chan []byte, 16)
	deliver := func(_ context.Context, e domainRealtime.Event) error {
		payload, err := json.Marshal(feedEnvelope{Event: e.EventName(), Data: e})
		if err != nil {
			return err
		}
		select {
		case messages <- payload:
		default:
			// A slow client drops messages; the next one still triggers a refetch.
		}
		return nil
	}

	handler := deliver
	if r.URL.Query().Get("scope") == "mine" {
		handler = domainRealtime.FilterOwner(h.owner(w, r).Key(), deliver)
	}

	subs := make([]domainRealtime.Subscription, 0, len(feedEvents))
	for _, name := range feedEvents {
		subs = append(subs, h.feed.Subscribe(name, handler))
	}
	defer func() {
		for _, sub := range subs {
			sub.Unsubscribe()
		}
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			_, _ = fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case payload := <-messages:
			_, _ = fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// withAccessLog writes a single access log after the handler completes.
// It relies on the request-scoped logger already injected by ObservabilityMiddleware.
func (h *Handler) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		logctx.FromOr(r.Context(), h.log).Info("http_access",
			observability.F("method", r.Method),
			observability.F("route", routeFromContext(r.Context())),
			observability.F("path", r.URL.Path),
			observability.F("status", lrw.status),
			observability.F("latency_ms", time.Since(start).Milliseconds()),
		)
	})
}

// withTrace creates a server span for the request using OTel and W3C propagation.
func (h *Handler) withTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracer := otel.Tracer("storefront.http")
		parentCtx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		route := routeFromContext(r.Context())
		spanName := route
		if spanName == "unknown" {
			spanName = r.Method + " " + r.URL.Path
		}
		template := route
		if idx := strings.Index(template, " "); idx >= 0 {
			template = template[idx+1:]
		}
		if template == "unknown" || template == "" {
			template = r.URL.Path
		}

		ctxWithSpan, span := tracer.Start(parentCtx,
			spanName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", template),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.user_agent", r.UserAgent()),
			),
		)
		defer span.End()

		next.ServeHTTP(w, r.WithContext(ctxWithSpan))
	})
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domainCart.ErrNotFound),
		errors.Is(err, domainCatalog.ErrNotFound),
		errors.Is(err, domainOrder.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domainCart.ErrInvalidQuantity),
		errors.Is(err, domainCart.ErrInvalidOwner),
		errors.Is(err, domainOrder.ErrNoItems),
		errors.Is(err, domainOrder.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, domainCart.ErrMergeIncomplete):
		writeError(w, http.StatusConflict, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

type routeKey struct{}

// contextWithRoute stores the stable route template in the context so downstream
// metrics/logging can rely on low-cardinality values.
func contextWithRoute(ctx context.Context, route string) context.Context {
	if route == "" {
		return ctx
	}
	return context.WithValue(ctx, routeKey{}, route)
}

func routeFromContext(ctx context.Context) string {
	if ctx == nil {
		return "unknown"
	}
	if route, ok := ctx.Value(routeKey{}).(string); ok && route != "" {
		return route
	}
	return "unknown"
}
