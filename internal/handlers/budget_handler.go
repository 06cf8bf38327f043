package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/orgatreeker/orgatreeker-backend/internal/models"
	"github.com/orgatreeker/orgatreeker-backend/internal/services"
)

type budgetApplier interface {
	ApplyBudget(ctx context.Context, userID int64, needs, wants, savings float64) (*models.Profile, error)
}

type onboardingProfileReader interface {
	GetByUserID(ctx context.Context, userID int64) (*models.Profile, error)
}

type BudgetHandler struct {
	budgetService budgetApplier
	profileRepo   onboardingProfileReader
}

func NewBudgetHandler(budgetService budgetApplier, profileRepo onboardingProfileReader) *BudgetHandler {
	return &BudgetHandler{
		budgetService: budgetService,
		profileRepo:   profileRepo,
	}
}

type applyBudgetRequest struct {
	Needs   float64 `json:"needs"`
	Wants   float64 `json:"wants"`
	Savings float64 `json:"savings"`
}

func (h *BudgetHandler) ApplyBudget(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req applyBudgetRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	profile, err := h.budgetService.ApplyBudget(c.Context(), userID, req.Needs, req.Wants, req.Savings)
	if err != nil {
		var allocErr *services.AllocationError
		switch {
		case errors.Is(err, services.ErrUnauthorized):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		case errors.As(err, &allocErr):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": allocErr.Error(),
				"field": allocErr.Field,
			})
		default:
			return storeErrorResponse(c, err, "Failed to save budget")
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"profile": profile,
	})
}

func (h *BudgetHandler) OnboardingStatus(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	profile, err := h.profileRepo.GetByUserID(c.Context(), userID)
	if err != nil {
		return storeErrorResponse(c, err, "Failed to fetch profile")
	}

	return c.JSON(fiber.Map{
		"onboarding_completed": profile.OnboardingCompleted,
		"has_allocation":       profile.HasAllocation(),
	})
}
