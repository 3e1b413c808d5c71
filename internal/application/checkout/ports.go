package checkout

import (
	"context"

	"github.com/shopspring/decimal"
)

// CardPayment is a confirm-immediately card charge request.
type CardPayment struct {
	Amount          decimal.Decimal
	Currency        string
	PaymentMethodID string
	Description     string
	ReceiptEmail    string
}

// RedirectPayment captures a payment the shopper already approved on the
// provider's site.
type RedirectPayment struct {
	ProviderOrderID string
}

// Confirmation is the provider's proof that money moved.
type Confirmation struct {
	TransactionID string
}

// CardCharger confirms card payments synchronously.
type CardCharger interface {
	ConfirmCardPayment(ctx context.Context, p CardPayment) (Confirmation, error)
}

// RedirectConfirmer captures provider-approved redirect payments.
type RedirectConfirmer interface {
	ConfirmRedirectPayment(ctx context.Context, p RedirectPayment) (Confirmation, error)
}
