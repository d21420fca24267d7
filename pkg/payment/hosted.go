package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HostedGateway drives the provider's hosted checkout over HTTP: it opens a
// provider order for the amount, then asks the provider to collect payment for it.
type HostedGateway struct {
	BaseURL    string
	KeyID      string
	KeySecret  string
	HTTPClient *http.Client
}

func NewHostedGateway(baseURL, keyID, keySecret string) *HostedGateway {
	return &HostedGateway{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		KeyID:     keyID,
		KeySecret: keySecret,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type providerError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

type createOrderBody struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt,omitempty"`
}

type orderResponse struct {
	ID string `json:"id"`
}

type collectBody struct {
	Name    string `json:"name,omitempty"`
	Contact string `json:"contact,omitempty"`
}

type collectResponse struct {
	PaymentID string `json:"paymentId"`
	Signature string `json:"signature"`
}

func (g *HostedGateway) Pay(ctx context.Context, req Request) (*Result, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrUpstream)
	}
	if req.Currency == "" {
		req.Currency = CurrencyINR
	}

	var order orderResponse
	if err := g.post(ctx, "/v1/orders", createOrderBody{
		Amount: req.Amount, Currency: req.Currency, Receipt: req.Receipt,
	}, &order); err != nil {
		return nil, err
	}
	if order.ID == "" {
		return nil, fmt.Errorf("%w: provider returned no order id", ErrUpstream)
	}

	var paid collectResponse
	if err := g.post(ctx, "/v1/orders/"+url.PathEscape(order.ID)+"/payments", collectBody{
		Name: req.Name, Contact: req.Contact,
	}, &paid); err != nil {
		return nil, err
	}
	if paid.PaymentID == "" {
		return nil, fmt.Errorf("%w: provider returned no payment id", ErrUpstream)
	}

	return &Result{GatewayOrderID: order.ID, PaymentID: paid.PaymentID, Signature: paid.Signature}, nil
}

func (g *HostedGateway) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrUpstream, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: create request: %v", ErrUpstream, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.KeyID, g.KeySecret)

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var pe providerError
		if json.NewDecoder(resp.Body).Decode(&pe) == nil && pe.Error.Description != "" {
			return fmt.Errorf("%w: %s", ErrUpstream, pe.Error.Description)
		}
		return fmt.Errorf("%w: provider responded %d", ErrUpstream, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrUpstream, err)
	}
	return nil
}
