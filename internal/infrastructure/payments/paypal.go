package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patria-foods/storefront/internal/application/checkout"
	"github.com/patria-foods/storefront/internal/observability"
)

// PayPalConfirmer captures orders the shopper already approved on PayPal's
// checkout pages. There is no official Go SDK, so this speaks the REST API
// directly: a client-credentials token, then the capture call.
type PayPalConfirmer struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	log          observability.Logger
}

func NewPayPalConfirmer(baseURL, clientID, clientSecret string, log observability.Logger) *PayPalConfirmer {
	return &PayPalConfirmer{
		baseURL:      strings.TrimRight(baseURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		log:          log.With(observability.F("component", "paypal_confirmer")),
	}
}

func (c *PayPalConfirmer) ConfirmRedirectPayment(ctx context.Context, p checkout.RedirectPayment) (checkout.Confirmation, error) {
	if p.ProviderOrderID == "" {
		return checkout.Confirmation{}, fmt.Errorf("paypal: provider order id is required")
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return checkout.Confirmation{}, err
	}

	capture, err := c.captureOrder(ctx, token, p.ProviderOrderID)
	if err != nil {
		return checkout.Confirmation{}, err
	}
	if capture.Status != "COMPLETED" {
		return checkout.Confirmation{}, fmt.Errorf("paypal: order %s capture not completed, status %s", p.ProviderOrderID, capture.Status)
	}

	captureID := capture.firstCaptureID()
	if captureID == "" {
		captureID = capture.ID
	}

	c.log.Info("paypal_payment_captured",
		observability.F("provider_order_id", p.ProviderOrderID),
		observability.F("capture_id", captureID),
	)
	return checkout.Confirmation{TransactionID: captureID}, nil
}

func (c *PayPalConfirmer) accessToken(ctx context.Context) (string, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("paypal: build token request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("paypal: fetch token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("paypal: token endpoint returned %d", resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("paypal: decode token response: %w", err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("paypal: token response carried no access token")
	}
	return body.AccessToken, nil
}

type captureResponse struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	PurchaseUnits []struct {
		Payments struct {
			Captures []struct {
				ID string `json:"id"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

func (r *captureResponse) firstCaptureID() string {
	for _, unit := range r.PurchaseUnits {
		for _, entry := range unit.Payments.Captures {
			if entry.ID != "" {
				return entry.ID
			}
		}
	}
	return ""
}

func (c *PayPalConfirmer) captureOrder(ctx context.Context, token, orderID string) (*captureResponse, error) {
	captureURL := fmt.Sprintf("%s/v2/checkout/orders/%s/capture", c.baseURL, url.PathEscape(orderID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, captureURL, strings.NewReader("{}"))
	if err != nil {
		return nil, fmt.Errorf("paypal: build capture request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("paypal: capture order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("paypal: capture endpoint returned %d", resp.StatusCode)
	}

	var body captureResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("paypal: decode capture response: %w", err)
	}
	return &body, nil
}
