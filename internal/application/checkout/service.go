package checkout

import (
	"context"

	"github.com/shopspring/decimal"

	cartapp "github.com/patria-foods/storefront/internal/application/cart"
	orderapp "github.com/patria-foods/storefront/internal/application/order"
	"github.com/patria-foods/storefront/internal/domain/cart"
	"github.com/patria-foods/storefront/internal/domain/order"
	"github.com/patria-foods/storefront/internal/observability"
	"github.com/patria-foods/storefront/internal/observability/logctx"
)

const componentCheckout = "checkout_service"

const (
	methodStripe = "stripe"
	methodPayPal = "paypal"
)

// Request is one checkout attempt. Items and totals come from the client's
// priced cart view; PaymentMethodID is set for card payments, ProviderOrderID
// for redirect payments.
type Request struct {
	Owner cart.Owner

	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	ShippingAddress order.Address

	Items []orderapp.ItemInput

	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	ShippingCost   decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalAmount    decimal.Decimal
	Currency       string

	PaymentMethodID string
	ProviderOrderID string
	Notes           string
}

// Result is always returned, never an error: checkout reports failure as data
// so the HTTP layer can render it without guessing which step broke.
type Result struct {
	Success     bool
	OrderID     string
	OrderNumber string
	Error       string
}

type Service struct {
	orders   *orderapp.Service
	carts    *cartapp.Service
	card     CardCharger
	redirect RedirectConfirmer
	log      observability.Logger
	tel      observability.Telemetry
}

func NewService(
	orders *orderapp.Service,
	carts *cartapp.Service,
	card CardCharger,
	redirect RedirectConfirmer,
	log observability.Logger,
	tel observability.Telemetry,
) *Service {
	return &Service{
		orders:   orders,
		carts:    carts,
		card:     card,
		redirect: redirect,
		log:      log.With(observability.F("component", componentCheckout)),
		tel:      tel,
	}
}

// ProcessCardPayment charges the card and creates the order. Nothing escapes
// as a panic or error; every outcome is a Result.
func (s *Service) ProcessCardPayment(ctx context.Context, req Request) (res Result) {
	defer s.recoverInto(ctx, methodStripe, &res)

	confirmation, err := s.card.ConfirmCardPayment(ctx, CardPayment{
		Amount:          req.TotalAmount,
		Currency:        req.Currency,
		PaymentMethodID: req.PaymentMethodID,
		Description:     "Storefront order for " + req.CustomerEmail,
		ReceiptEmail:    req.CustomerEmail,
	})
	if err != nil {
		return s.fail(ctx, methodStripe, "payment_failed", err)
	}

	return s.placeOrder(ctx, methodStripe, req, confirmation)
}

// ProcessRedirectPayment captures an already-approved provider payment and
// creates the order.
func (s *Service) ProcessRedirectPayment(ctx context.Context, req Request) (res Result) {
	defer s.recoverInto(ctx, methodPayPal, &res)

	confirmation, err := s.redirect.ConfirmRedirectPayment(ctx, RedirectPayment{
		ProviderOrderID: req.ProviderOrderID,
	})
	if err != nil {
		return s.fail(ctx, methodPayPal, "payment_failed", err)
	}

	return s.placeOrder(ctx, methodPayPal, req, confirmation)
}

func (s *Service) placeOrder(ctx context.Context, method string, req Request, confirmation Confirmation) Result {
	logger := logctx.FromOr(ctx, s.log)

	o, err := s.orders.Create(ctx, orderapp.CreateInput{
		UserID:          req.Owner.UserID,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		ShippingAddress: req.ShippingAddress,
		Items:           req.Items,
		Subtotal:        req.Subtotal,
		TaxAmount:       req.TaxAmount,
		ShippingCost:    req.ShippingCost,
		DiscountAmount:  req.DiscountAmount,
		TotalAmount:     req.TotalAmount,
		PaymentMethod:   method,
		PaymentIntentID: confirmation.TransactionID,
		Notes:           req.Notes,
	})
	if err != nil {
		// Money has moved but the order write failed; this needs a human.
		logger.Error("order_create_after_payment_failed",
			observability.F("payment_method", method),
			observability.F("transaction_id", confirmation.TransactionID),
			observability.F("error", err),
		)
		return s.fail(ctx, method, "order_create_failed", err)
	}

	// The cart is a convenience at this point; a failed clear must not turn a
	// placed order into a reported failure.
	if req.Owner.Valid() {
		if err := s.carts.Clear(ctx, req.Owner); err != nil {
			logger.Warn("cart_clear_after_checkout_failed",
				observability.F("owner", req.Owner.Key()),
				observability.F("order_id", o.ID),
				observability.F("error", err),
			)
		}
	}

	s.tel.Counter(observability.MCheckoutRequests).Add(1,
		observability.L("method", method),
		observability.L("outcome", "success"),
	)
	logger.Info("checkout_completed",
		observability.F("order_id", o.ID),
		observability.F("order_number", o.OrderNumber),
		observability.F("payment_method", method),
	)
	return Result{Success: true, OrderID: o.ID, OrderNumber: o.OrderNumber}
}

func (s *Service) fail(ctx context.Context, method, reason string, err error) Result {
	s.tel.Counter(observability.MCheckoutRequests).Add(1,
		observability.L("method", method),
		observability.L("outcome", reason),
	)
	logctx.FromOr(ctx, s.log).Warn("checkout_failed",
		observability.F("payment_method", method),
		observability.F("reason", reason),
		observability.F("error", err),
	)
	return Result{Success: false, Error: err.Error()}
}

func (s *Service) recoverInto(ctx context.Context, method string, res *Result) {
	if r := recover(); r != nil {
		logctx.FromOr(ctx, s.log).Error("checkout_panic",
			observability.F("payment_method", method),
			observability.F("panic", r),
		)
		s.tel.Counter(observability.MCheckoutRequests).Add(1,
			observability.L("method", method),
			observability.L("outcome", "panic"),
		)
		*res = Result{Success: false, Error: "internal error during checkout"}
	}
}
