// Package lightning is a thin client for an Alby-compatible Lightning
// payment API. Invoice settlement is entirely the provider's business; this
// client only creates invoices, reads their state, and pushes payouts.
package lightning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 15 * time.Second

// Invoice is a Lightning invoice as reported by the provider.
type Invoice struct {
	PaymentHash    string `json:"payment_hash"`
	PaymentRequest string `json:"payment_request"`
	AmountSats     int64  `json:"amount"`
	Memo           string `json:"memo,omitempty"`
	Settled        bool   `json:"settled"`
}

// PaymentReceipt is the provider's acknowledgement of an outbound payment.
type PaymentReceipt struct {
	PaymentHash string `json:"payment_hash"`
	AmountSats  int64  `json:"amount"`
	Fee         int64  `json:"fee"`
}

// Client talks to the payment provider's REST API with a bearer token.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient creates a Client. A nil httpClient gets a bounded-timeout default.
func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: baseURL, token: token, client: httpClient}
}

// CreateInvoice asks the provider for a new invoice.
func (c *Client) CreateInvoice(ctx context.Context, amountSats int64, memo string) (*Invoice, error) {
	body := map[string]any{"amount": amountSats, "memo": memo}

	var inv Invoice
	if err := c.do(ctx, http.MethodPost, "/invoices", body, &inv); err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	return &inv, nil
}

// GetInvoice reads the current state of an invoice by payment hash.
func (c *Client) GetInvoice(ctx context.Context, paymentHash string) (*Invoice, error) {
	var inv Invoice
	if err := c.do(ctx, http.MethodGet, "/invoices/"+paymentHash, nil, &inv); err != nil {
		return nil, fmt.Errorf("get invoice %s: %w", paymentHash, err)
	}
	return &inv, nil
}

// PayAddress sends sats to a Lightning address.
func (c *Client) PayAddress(ctx context.Context, address string, amountSats int64, memo string) (*PaymentReceipt, error) {
	body := map[string]any{"address": address, "amount": amountSats, "comment": memo}

	var receipt PaymentReceipt
	if err := c.do(ctx, http.MethodPost, "/payments/lnaddress", body, &receipt); err != nil {
		return nil, fmt.Errorf("pay %s: %w", address, err)
	}
	return &receipt, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { io.Copy(io.Discard, resp.Body); resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: provider returned %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
