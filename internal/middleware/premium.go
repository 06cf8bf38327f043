package middleware

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/orgatreeker/orgatreeker-backend/internal/repository"
	"github.com/orgatreeker/orgatreeker-backend/internal/services"
)

type entitlementChecker interface {
	GetEntitlement(ctx context.Context, userID int64) (*services.Entitlement, error)
}

// PremiumRequired gates routes behind an active subscription. Must run after
// AuthRequired.
func PremiumRequired(billing entitlementChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userIDStr, ok := c.Locals("user_id").(string)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
		}
		userID, err := strconv.ParseInt(userIDStr, 10, 64)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
		}

		entitlement, err := billing.GetEntitlement(c.Context(), userID)
		if err != nil {
			if errors.Is(err, repository.ErrUnavailable) {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Service temporarily unavailable"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to check subscription"})
		}
		if !entitlement.Active {
			return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"error": "Premium subscription required"})
		}

		return c.Next()
	}
}
