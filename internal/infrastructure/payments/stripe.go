package payments

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"

	"github.com/patria-foods/storefront/internal/application/checkout"
	"github.com/patria-foods/storefront/internal/observability"
)

const defaultCurrency = "eur"

// StripeCharger confirms card payments in one call via PaymentIntents.
// Redirect-based methods are disabled; anything that cannot settle
// synchronously fails the charge.
type StripeCharger struct {
	log observability.Logger
}

func NewStripeCharger(secretKey string, log observability.Logger) *StripeCharger {
	stripe.Key = secretKey
	return &StripeCharger{log: log.With(observability.F("component", "stripe_charger"))}
}

func (c *StripeCharger) ConfirmCardPayment(ctx context.Context, p checkout.CardPayment) (checkout.Confirmation, error) {
	currency := p.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	params := &stripe.PaymentIntentParams{
		Params:        stripe.Params{Context: ctx},
		Amount:        stripe.Int64(minorUnits(p.Amount)),
		Currency:      stripe.String(currency),
		PaymentMethod: stripe.String(p.PaymentMethodID),
		Confirm:       stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	if p.Description != "" {
		params.Description = stripe.String(p.Description)
	}
	if p.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(p.ReceiptEmail)
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		return checkout.Confirmation{}, fmt.Errorf("stripe: confirm payment intent: %w", err)
	}
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return checkout.Confirmation{}, fmt.Errorf("stripe: payment intent %s not settled, status %s", intent.ID, intent.Status)
	}

	c.log.Info("stripe_payment_confirmed",
		observability.F("payment_intent_id", intent.ID),
		observability.F("amount", intent.Amount),
	)
	return checkout.Confirmation{TransactionID: intent.ID}, nil
}

// minorUnits converts a decimal major-unit amount to the integer minor units
// the provider expects, e.g. 12.34 EUR to 1234 cents.
func minorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
