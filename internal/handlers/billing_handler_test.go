package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/orgatreeker/orgatreeker-backend/internal/models"
	"github.com/orgatreeker/orgatreeker-backend/internal/payments"
	"github.com/orgatreeker/orgatreeker-backend/internal/repository"
	"github.com/orgatreeker/orgatreeker-backend/internal/services"
)

const testWebhookSecret = "whsec_test"

type stubSubscriptionRepo struct {
	byUserID     map[int64]*models.Subscription
	byCustomerID map[string]*models.Subscription
	lastUpsert   repository.UpsertSubscriptionInput
}

func newStubSubscriptionRepo() *stubSubscriptionRepo {
	return &stubSubscriptionRepo{
		byUserID:     map[int64]*models.Subscription{},
		byCustomerID: map[string]*models.Subscription{},
	}
}

func (s *stubSubscriptionRepo) GetByUserID(_ context.Context, userID int64) (*models.Subscription, error) {
	if sub, ok := s.byUserID[userID]; ok {
		return sub, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubSubscriptionRepo) GetByCustomerID(_ context.Context, customerID string) (*models.Subscription, error) {
	if sub, ok := s.byCustomerID[customerID]; ok {
		return sub, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubSubscriptionRepo) Upsert(_ context.Context, input repository.UpsertSubscriptionInput) (*models.Subscription, error) {
	s.lastUpsert = input
	sub := &models.Subscription{
		UserID:                 input.UserID,
		ProviderCustomerID:     input.ProviderCustomerID,
		ProviderSubscriptionID: input.ProviderSubscriptionID,
		Status:                 input.Status,
		CurrentPeriodEnd:       input.CurrentPeriodEnd,
	}
	s.byUserID[input.UserID] = sub
	s.byCustomerID[input.ProviderCustomerID] = sub
	return sub, nil
}

func (s *stubSubscriptionRepo) UpdateByProviderSubscription(_ context.Context, providerSubscriptionID string, status string, currentPeriodEnd *time.Time) (*models.Subscription, error) {
	for _, sub := range s.byUserID {
		if sub.ProviderSubscriptionID != nil && *sub.ProviderSubscriptionID == providerSubscriptionID {
			sub.Status = status
			if currentPeriodEnd != nil {
				sub.CurrentPeriodEnd = currentPeriodEnd
			}
			return sub, nil
		}
	}
	return nil, repository.ErrNotFound
}

type stubCheckoutClient struct {
	lastInput payments.CheckoutInput
	url       string
}

func (s *stubCheckoutClient) CreateCheckoutSession(_ context.Context, input payments.CheckoutInput) (*payments.CheckoutSession, error) {
	s.lastInput = input
	return &payments.CheckoutSession{ID: "cs_1", URL: s.url}, nil
}

func (s *stubCheckoutClient) GetSubscription(_ context.Context, _ string) (*payments.Subscription, error) {
	return nil, payments.ErrProviderUnavailable
}

type stubUserReader struct {
	user *models.User
}

func (s *stubUserReader) GetByID(_ context.Context, _ int64) (*models.User, error) {
	if s.user == nil {
		return nil, repository.ErrNotFound
	}
	return s.user, nil
}

func newBillingApp(repo *stubSubscriptionRepo, client *stubCheckoutClient, users *stubUserReader) *fiber.App {
	var billing *services.BillingService
	if client != nil {
		billing = services.NewBillingService(repo, client, "price_premium", "https://app.example/done", "https://app.example/pricing")
	} else {
		billing = services.NewBillingService(repo, nil, "", "", "")
	}
	handler := NewBillingHandler(billing, users, testWebhookSecret)

	app := fiber.New()
	app.Post("/api/billing/webhook", handler.Webhook)

	authed := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Locals("user_id", "42")
		return c.Next()
	})
	authed.Post("/billing/checkout", handler.CreateCheckout)
	authed.Get("/billing/subscription", handler.GetSubscription)
	return app
}

func TestCheckoutEndpointReturnsURL(t *testing.T) {
	client := &stubCheckoutClient{url: "https://checkout.example/cs_1"}
	users := &stubUserReader{user: &models.User{ID: 42, Email: "u@example.com"}}
	app := newBillingApp(newStubSubscriptionRepo(), client, users)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/billing/checkout", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var payload struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.URL != "https://checkout.example/cs_1" {
		t.Fatalf("unexpected url %q", payload.URL)
	}
	if client.lastInput.CustomerEmail != "u@example.com" {
		t.Fatalf("expected user email forwarded, got %q", client.lastInput.CustomerEmail)
	}
}

func TestCheckoutEndpointWhenBillingDisabled(t *testing.T) {
	users := &stubUserReader{user: &models.User{ID: 42, Email: "u@example.com"}}
	app := newBillingApp(newStubSubscriptionRepo(), nil, users)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/billing/checkout", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

func TestSubscriptionEndpointReportsEntitlement(t *testing.T) {
	repo := newStubSubscriptionRepo()
	future := time.Now().Add(24 * time.Hour)
	repo.byUserID[42] = &models.Subscription{
		UserID: 42, ProviderCustomerID: "cus_1", Status: "active", CurrentPeriodEnd: &future,
	}
	app := newBillingApp(repo, nil, &stubUserReader{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/billing/subscription", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var payload services.Entitlement
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !payload.Active || payload.Status != "active" {
		t.Fatalf("unexpected entitlement %+v", payload)
	}
}

func TestWebhookAppliesSignedEvent(t *testing.T) {
	repo := newStubSubscriptionRepo()
	app := newBillingApp(repo, nil, &stubUserReader{})

	subID := "sub_9"
	data, _ := json.Marshal(payments.CheckoutCompletedData{
		SessionID:         "cs_1",
		ClientReferenceID: "42",
		CustomerID:        "cus_9",
		SubscriptionID:    &subID,
	})
	body, _ := json.Marshal(payments.Event{ID: "evt_1", Type: "checkout.session.completed", Data: data})

	req := httptest.NewRequest(http.MethodPost, "/api/billing/webhook", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Payment-Signature", payments.SignPayload(body, testWebhookSecret, time.Now()))

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if repo.lastUpsert.UserID != 42 || repo.lastUpsert.Status != "active" {
		t.Fatalf("expected subscription stored for user 42, got %+v", repo.lastUpsert)
	}
}

func TestWebhookWithoutSecretConfigured(t *testing.T) {
	repo := newStubSubscriptionRepo()
	billing := services.NewBillingService(repo, nil, "", "", "")
	handler := NewBillingHandler(billing, &stubUserReader{}, "")

	app := fiber.New()
	app.Post("/api/billing/webhook", handler.Webhook)

	subID := "sub_9"
	data, _ := json.Marshal(payments.CheckoutCompletedData{
		SessionID:         "cs_1",
		ClientReferenceID: "42",
		CustomerID:        "cus_9",
		SubscriptionID:    &subID,
	})
	body, _ := json.Marshal(payments.Event{ID: "evt_1", Type: "checkout.session.completed", Data: data})

	req := httptest.NewRequest(http.MethodPost, "/api/billing/webhook", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	// An empty-key signature is trivially forgeable; it must not be accepted.
	req.Header.Set("Payment-Signature", payments.SignPayload(body, "", time.Now()))

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
	if repo.lastUpsert.UserID != 0 {
		t.Fatal("expected no subscription write without a configured secret")
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	repo := newStubSubscriptionRepo()
	app := newBillingApp(repo, nil, &stubUserReader{})

	body := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/billing/webhook", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Payment-Signature", "t=123,v1=deadbeef")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if repo.lastUpsert.UserID != 0 {
		t.Fatal("expected no subscription write for unsigned event")
	}
}
