package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/orgatreeker/orgatreeker-backend/internal/repository"
)

// storeErrorStatus maps the repository error taxonomy onto HTTP statuses.
// Transient failures get 503 so clients know a retry is reasonable.
func storeErrorStatus(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, repository.ErrConstraint):
		return fiber.StatusConflict
	case errors.Is(err, repository.ErrUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func storeErrorResponse(c *fiber.Ctx, err error, message string) error {
	status := storeErrorStatus(err)
	if status == fiber.StatusServiceUnavailable {
		message = "Service temporarily unavailable"
	}
	return c.Status(status).JSON(fiber.Map{"error": message})
}

func parseUserID(c *fiber.Ctx) (int64, error) {
	userIDValue := c.Locals("user_id")
	userIDStr, ok := userIDValue.(string)
	if !ok {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseInt(userIDStr, 10, 64)
}
