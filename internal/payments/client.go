// Package payments is a thin HTTP client for the hosted payment provider.
// The provider owns the subscription lifecycle; this package only creates
// checkout sessions, reads subscription state, and verifies webhook
// signatures.
package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrProviderUnavailable = errors.New("payment provider unavailable")
	ErrBadSignature        = errors.New("invalid webhook signature")
)

type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewClient(baseURL, secretKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

var (
	defaultClient *Client
	defaultOnce   sync.Once
)

// InitDefault initializes the process-wide client exactly once; later calls
// return the client created by the first one.
func InitDefault(baseURL, secretKey string) *Client {
	defaultOnce.Do(func() {
		defaultClient = NewClient(baseURL, secretKey)
	})
	return defaultClient
}

type CheckoutInput struct {
	CustomerEmail     string
	ClientReferenceID string
	PriceID           string
	SuccessURL        string
	CancelURL         string
}

type CheckoutSession struct {
	ID         string `json:"id"`
	URL        string `json:"url"`
	CustomerID string `json:"customer"`
}

type Subscription struct {
	ID               string `json:"id"`
	CustomerID       string `json:"customer"`
	Status           string `json:"status"`
	CurrentPeriodEnd int64  `json:"current_period_end"`
}

func (c *Client) CreateCheckoutSession(ctx context.Context, input CheckoutInput) (*CheckoutSession, error) {
	payload := map[string]any{
		"mode":                "subscription",
		"customer_email":      input.CustomerEmail,
		"client_reference_id": input.ClientReferenceID,
		"price":               input.PriceID,
		"success_url":         input.SuccessURL,
		"cancel_url":          input.CancelURL,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal checkout payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build checkout request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", uuid.NewString())

	var session CheckoutSession
	if err := c.do(req, &session); err != nil {
		return nil, err
	}
	if session.URL == "" {
		return nil, fmt.Errorf("checkout session missing url")
	}
	return &session, nil
}

func (c *Client) GetSubscription(ctx context.Context, customerID string) (*Subscription, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/customers/"+customerID+"/subscription", nil)
	if err != nil {
		return nil, fmt.Errorf("build subscription request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	var sub Subscription
	if err := c.do(req, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d", ErrProviderUnavailable, resp.StatusCode)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("payment provider: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode provider response: %w", err)
	}
	return nil
}
