// Package broker is an HTTP client for the order-execution collaborator.
// It handles session login (TOTP two-factor), market order placement, and
// account balance retrieval. Wire-level failures are returned as errors and
// downgraded to result values at the strategy boundary.
package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// API routes, relative to the configured root URL.
const (
	routeLogin    = "/v1/session/login"
	routeOrders   = "/v1/orders"
	routeAccounts = "/v1/accounts"
)

// ErrInsufficientFunds is returned when the venue rejects an order for lack
// of available balance.
var ErrInsufficientFunds = errors.New("broker: insufficient funds")

// Config holds broker connection settings.
type Config struct {
	RootURL    string
	APIKey     string
	ClientCode string
	Password   string
	TOTPSecret string        // base32 secret for two-factor login
	Timeout    time.Duration // per-request timeout, default 7s
}

// Client is the broker API client. Safe for use from a single goroutine;
// the engine only calls it from the tick-dispatch path.
type Client struct {
	cfg        Config
	httpClient *http.Client

	accessToken string
}

// New creates a broker client. Call Login before placing orders.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 7 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Order is a fill result returned by the venue.
type Order struct {
	OrderID string  `json:"order_id"`
	Product string  `json:"product_id"`
	Side    string  `json:"side"`
	Size    float64 `json:"size"`
	Price   float64 `json:"price"` // average fill price
	Fees    float64 `json:"fees"`
	Status  string  `json:"status"`
}

// PlaceMarketOrder submits a market order and returns the fill.
func (c *Client) PlaceMarketOrder(ctx context.Context, product, side string, size float64) (Order, error) {
	if c.accessToken == "" {
		if err := c.Login(ctx); err != nil {
			return Order{}, err
		}
	}

	payload := map[string]any{
		"product_id": product,
		"side":       strings.ToLower(side),
		"type":       "market",
		"size":       size,
	}

	var order Order
	if err := c.do(ctx, http.MethodPost, routeOrders, payload, &order); err != nil {
		return Order{}, err
	}
	return order, nil
}

// Balances returns available funds per currency.
func (c *Client) Balances(ctx context.Context) (map[string]float64, error) {
	if c.accessToken == "" {
		if err := c.Login(ctx); err != nil {
			return nil, err
		}
	}

	var accounts []struct {
		Currency  string  `json:"currency"`
		Available float64 `json:"available"`
	}
	if err := c.do(ctx, http.MethodGet, routeAccounts, nil, &accounts); err != nil {
		return nil, err
	}

	funds := make(map[string]float64, len(accounts))
	for _, a := range accounts {
		funds[a.Currency] = a.Available
	}
	return funds, nil
}

// apiError is the venue's error envelope.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, route string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("broker: marshal %s: %w", route, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.RootURL+route, body)
	if err != nil {
		return fmt.Errorf("broker: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.cfg.APIKey)
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("broker: %s %s: %w", method, route, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("broker: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Code != "" {
			if apiErr.Code == "insufficient_funds" {
				return fmt.Errorf("%w: %s", ErrInsufficientFunds, apiErr.Message)
			}
			return fmt.Errorf("broker: %s: %s (%s)", route, apiErr.Message, apiErr.Code)
		}
		return fmt.Errorf("broker: %s: unexpected status %d", route, resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("broker: decode %s: %w", route, err)
		}
	}
	return nil
}
