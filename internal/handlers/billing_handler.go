package handlers

import (
	"context"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/orgatreeker/orgatreeker-backend/internal/models"
	"github.com/orgatreeker/orgatreeker-backend/internal/payments"
	"github.com/orgatreeker/orgatreeker-backend/internal/repository"
	"github.com/orgatreeker/orgatreeker-backend/internal/services"
)

type billingService interface {
	CreateCheckout(ctx context.Context, userID int64, email string) (string, error)
	GetEntitlement(ctx context.Context, userID int64) (*services.Entitlement, error)
	HandleEvent(ctx context.Context, event *payments.Event) error
}

type billingUserReader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type BillingHandler struct {
	billing       billingService
	userRepo      billingUserReader
	webhookSecret string
}

func NewBillingHandler(billing billingService, userRepo billingUserReader, webhookSecret string) *BillingHandler {
	return &BillingHandler{
		billing:       billing,
		userRepo:      userRepo,
		webhookSecret: webhookSecret,
	}
}

func (h *BillingHandler) CreateCheckout(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	user, err := h.userRepo.GetByID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		return storeErrorResponse(c, err, "Failed to fetch user")
	}

	url, err := h.billing.CreateCheckout(c.Context(), userID, user.Email)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBillingDisabled):
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Billing not configured"})
		case errors.Is(err, payments.ErrProviderUnavailable):
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Payment provider unavailable"})
		default:
			log.Printf("create checkout failed for user %d: %v", userID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to start checkout"})
		}
	}

	return c.JSON(fiber.Map{"url": url})
}

func (h *BillingHandler) GetSubscription(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	entitlement, err := h.billing.GetEntitlement(c.Context(), userID)
	if err != nil {
		return storeErrorResponse(c, err, "Failed to fetch subscription")
	}

	return c.JSON(entitlement)
}

// Webhook receives asynchronous subscription-state changes from the payment
// provider. Unknown event targets are acknowledged so the provider stops
// retrying; transient store failures are not, so it retries later.
func (h *BillingHandler) Webhook(c *fiber.Ctx) error {
	// An empty secret would verify against an HMAC anyone can compute.
	if h.webhookSecret == "" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Webhooks not configured"})
	}

	event, err := payments.ParseEvent(c.Body(), c.Get("Payment-Signature"), h.webhookSecret)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid webhook payload"})
	}

	if err := h.billing.HandleEvent(c.Context(), event); err != nil {
		if errors.Is(err, services.ErrUnknownEvent) {
			log.Printf("webhook event %s ignored: %v", event.ID, err)
			return c.JSON(fiber.Map{"received": true})
		}
		if errors.Is(err, repository.ErrUnavailable) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Service temporarily unavailable"})
		}
		log.Printf("webhook event %s failed: %v", event.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process event"})
	}

	return c.JSON(fiber.Map{"received": true})
}
