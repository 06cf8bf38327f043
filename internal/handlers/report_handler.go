package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/orgatreeker/orgatreeker-backend/internal/services"
)

type breakdownReporter interface {
	Breakdown(ctx context.Context, userID int64, income *float64) (*services.BudgetBreakdown, error)
}

type ReportHandler struct {
	reportService breakdownReporter
}

func NewReportHandler(reportService breakdownReporter) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func (h *ReportHandler) GetBreakdown(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var income *float64
	if raw := c.Query("income"); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "income must be a number"})
		}
		income = &value
	}

	breakdown, err := h.reportService.Breakdown(c.Context(), userID, income)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOnboardingIncomplete):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Complete onboarding before requesting a breakdown"})
		case errors.Is(err, services.ErrInvalidIncome):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "income must be greater than 0"})
		default:
			return storeErrorResponse(c, err, "Failed to build breakdown")
		}
	}

	return c.JSON(fiber.Map{"breakdown": breakdown})
}
