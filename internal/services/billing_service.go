package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/orgatreeker/orgatreeker-backend/internal/models"
	"github.com/orgatreeker/orgatreeker-backend/internal/payments"
	"github.com/orgatreeker/orgatreeker-backend/internal/repository"
)

var (
	ErrBillingDisabled = errors.New("billing disabled")
	ErrUnknownEvent    = errors.New("unknown billing event")
)

type subscriptionStore interface {
	GetByUserID(ctx context.Context, userID int64) (*models.Subscription, error)
	GetByCustomerID(ctx context.Context, customerID string) (*models.Subscription, error)
	Upsert(ctx context.Context, input repository.UpsertSubscriptionInput) (*models.Subscription, error)
	UpdateByProviderSubscription(ctx context.Context, providerSubscriptionID string, status string, currentPeriodEnd *time.Time) (*models.Subscription, error)
}

type paymentClient interface {
	CreateCheckoutSession(ctx context.Context, input payments.CheckoutInput) (*payments.CheckoutSession, error)
	GetSubscription(ctx context.Context, customerID string) (*payments.Subscription, error)
}

type BillingService struct {
	subscriptionRepo subscriptionStore
	client           paymentClient
	priceID          string
	successURL       string
	cancelURL        string
}

func NewBillingService(subscriptionRepo subscriptionStore, client paymentClient, priceID, successURL, cancelURL string) *BillingService {
	return &BillingService{
		subscriptionRepo: subscriptionRepo,
		client:           client,
		priceID:          priceID,
		successURL:       successURL,
		cancelURL:        cancelURL,
	}
}

type Entitlement struct {
	Active           bool       `json:"active"`
	Status           string     `json:"status"`
	CurrentPeriodEnd *time.Time `json:"current_period_end"`
}

// CreateCheckout starts a hosted checkout for the premium subscription and
// returns the URL the client should redirect to.
func (s *BillingService) CreateCheckout(ctx context.Context, userID int64, email string) (string, error) {
	if s.client == nil || s.priceID == "" {
		return "", ErrBillingDisabled
	}
	session, err := s.client.CreateCheckoutSession(ctx, payments.CheckoutInput{
		CustomerEmail:     email,
		ClientReferenceID: strconv.FormatInt(userID, 10),
		PriceID:           s.priceID,
		SuccessURL:        s.successURL,
		CancelURL:         s.cancelURL,
	})
	if err != nil {
		return "", err
	}
	return session.URL, nil
}

// GetEntitlement resolves whether the user currently holds an active
// subscription. A user with no subscription row is simply not entitled.
func (s *BillingService) GetEntitlement(ctx context.Context, userID int64) (*Entitlement, error) {
	sub, err := s.subscriptionRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &Entitlement{Active: false, Status: "none"}, nil
		}
		return nil, err
	}

	now := time.Now()
	if s.shouldRefresh(sub, now) {
		if refreshed := s.refreshFromProvider(ctx, sub); refreshed != nil {
			sub = refreshed
		}
	}

	return &Entitlement{
		Active:           sub.Active(now),
		Status:           sub.Status,
		CurrentPeriodEnd: sub.CurrentPeriodEnd,
	}, nil
}

// A lapsed period on an otherwise healthy status usually means a renewal
// webhook was missed; ask the provider before denying access.
func (s *BillingService) shouldRefresh(sub *models.Subscription, now time.Time) bool {
	if s.client == nil || sub.Active(now) {
		return false
	}
	if sub.Status != "active" && sub.Status != "trialing" {
		return false
	}
	return sub.CurrentPeriodEnd != nil && sub.CurrentPeriodEnd.Before(now)
}

// refreshFromProvider is best effort; on any failure the caller keeps the
// local state and the next webhook or entitlement check tries again.
func (s *BillingService) refreshFromProvider(ctx context.Context, sub *models.Subscription) *models.Subscription {
	remote, err := s.client.GetSubscription(ctx, sub.ProviderCustomerID)
	if err != nil {
		return nil
	}

	var periodEnd *time.Time
	if remote.CurrentPeriodEnd > 0 {
		t := time.Unix(remote.CurrentPeriodEnd, 0).UTC()
		periodEnd = &t
	}
	subscriptionID := sub.ProviderSubscriptionID
	if remote.ID != "" {
		subscriptionID = &remote.ID
	}

	updated, err := s.subscriptionRepo.Upsert(ctx, repository.UpsertSubscriptionInput{
		UserID:                 sub.UserID,
		ProviderCustomerID:     sub.ProviderCustomerID,
		ProviderSubscriptionID: subscriptionID,
		Status:                 remote.Status,
		CurrentPeriodEnd:       periodEnd,
	})
	if err != nil {
		return nil
	}
	return updated
}

// HandleEvent applies a verified webhook event to the local subscription
// state. Event types outside the handled set are ignored so the provider can
// add types without breaking deliveries.
func (s *BillingService) HandleEvent(ctx context.Context, event *payments.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		return s.applyCheckoutCompleted(ctx, event.Data)
	case "customer.subscription.updated":
		return s.applySubscriptionState(ctx, event.Data, "")
	case "customer.subscription.deleted":
		return s.applySubscriptionState(ctx, event.Data, "canceled")
	default:
		return nil
	}
}

func (s *BillingService) applyCheckoutCompleted(ctx context.Context, data json.RawMessage) error {
	var payload payments.CheckoutCompletedData
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("decode checkout event: %w", err)
	}
	userID, err := strconv.ParseInt(payload.ClientReferenceID, 10, 64)
	if err != nil || userID <= 0 {
		return fmt.Errorf("%w: bad client reference %q", ErrUnknownEvent, payload.ClientReferenceID)
	}

	_, err = s.subscriptionRepo.Upsert(ctx, repository.UpsertSubscriptionInput{
		UserID:                 userID,
		ProviderCustomerID:     payload.CustomerID,
		ProviderSubscriptionID: payload.SubscriptionID,
		Status:                 "active",
	})
	return err
}

func (s *BillingService) applySubscriptionState(ctx context.Context, data json.RawMessage, statusOverride string) error {
	var payload payments.SubscriptionData
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("decode subscription event: %w", err)
	}

	status := payload.Status
	if statusOverride != "" {
		status = statusOverride
	}
	var periodEnd *time.Time
	if payload.CurrentPeriodEnd > 0 {
		t := time.Unix(payload.CurrentPeriodEnd, 0).UTC()
		periodEnd = &t
	}

	_, err := s.subscriptionRepo.UpdateByProviderSubscription(ctx, payload.SubscriptionID, status, periodEnd)
	if errors.Is(err, repository.ErrNotFound) {
		// Checkout webhook may not have landed yet; fall back to the customer
		// row written at checkout time.
		existing, lookupErr := s.subscriptionRepo.GetByCustomerID(ctx, payload.CustomerID)
		if lookupErr != nil {
			if errors.Is(lookupErr, repository.ErrNotFound) {
				return fmt.Errorf("%w: subscription %s", ErrUnknownEvent, payload.SubscriptionID)
			}
			return lookupErr
		}
		_, err = s.subscriptionRepo.Upsert(ctx, repository.UpsertSubscriptionInput{
			UserID:                 existing.UserID,
			ProviderCustomerID:     payload.CustomerID,
			ProviderSubscriptionID: &payload.SubscriptionID,
			Status:                 status,
			CurrentPeriodEnd:       periodEnd,
		})
	}
	return err
}
