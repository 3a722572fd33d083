// Package payment holds the payment gateway clients used for online
// bookings.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/table-reservation/internal/reservation"
)

// HTTPGateway creates orders on a JSON payment API:
//
//	POST {base}/orders  {"booking_id":1,"customer_id":2,"amount":"250.00","currency":"INR"}
//	201/200             {"order_id":"..."}
type HTTPGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPGateway returns a gateway for baseURL.  A nil client gets one
// with the given timeout (10s when zero).
func NewHTTPGateway(baseURL, apiKey string, timeout time.Duration, client *http.Client) *HTTPGateway {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPGateway{baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"), apiKey: apiKey, client: client}
}

var _ reservation.PaymentGateway = (*HTTPGateway)(nil)

type orderRequest struct {
	BookingID  uint64 `json:"booking_id"`
	CustomerID uint64 `json:"customer_id"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
}

type orderResponse struct {
	OrderID string `json:"order_id"`
	Error   string `json:"error"`
}

// CreateOrder posts the order and returns the gateway's order id.
func (g *HTTPGateway) CreateOrder(ctx context.Context, order reservation.PaymentOrder) (string, error) {
	payload, err := json.Marshal(orderRequest{
		BookingID:  order.BookingID,
		CustomerID: order.CustomerID,
		Amount:     FormatAmount(order.AmountCents),
		Currency:   order.Currency,
	})
	if err != nil {
		return "", fmt.Errorf("encode order: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/orders", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", fmt.Sprintf("booking-%d", order.BookingID))
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", fmt.Errorf("read gateway response: %w", err)
	}
	var out orderResponse
	if len(body) > 0 {
		if err := json.Unmarshal(body, &out); err != nil {
			return "", fmt.Errorf("decode gateway response (status %d): %w", resp.StatusCode, err)
		}
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		if out.Error != "" {
			return "", fmt.Errorf("gateway status %d: %s", resp.StatusCode, out.Error)
		}
		return "", fmt.Errorf("gateway status %d", resp.StatusCode)
	}
	if out.OrderID == "" {
		return "", fmt.Errorf("gateway returned no order id")
	}
	return out.OrderID, nil
}

// FormatAmount renders cents as a decimal string with two places.
func FormatAmount(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}
