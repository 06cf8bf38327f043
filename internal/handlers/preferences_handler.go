package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/orgatreeker/orgatreeker-backend/internal/repository"
)

// PreferencesHandler persists the display preferences the client applies on
// load: theme, currency and date format.
type PreferencesHandler struct {
	profileRepo profileStore
}

func NewPreferencesHandler(profileRepo profileStore) *PreferencesHandler {
	return &PreferencesHandler{profileRepo: profileRepo}
}

type updatePreferencesRequest struct {
	Theme      *string `json:"theme"`
	Currency   *string `json:"currency"`
	DateFormat *string `json:"date_format"`
}

func (h *PreferencesHandler) GetPreferences(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	profile, err := h.profileRepo.GetByUserID(c.Context(), userID)
	if err != nil {
		return storeErrorResponse(c, err, "Failed to fetch preferences")
	}

	return c.JSON(fiber.Map{
		"theme":       profile.Theme,
		"currency":    profile.Currency,
		"date_format": profile.DateFormat,
	})
}

func (h *PreferencesHandler) UpdatePreferences(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req updatePreferencesRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if validationErr := validatePreferencesRequest(req); validationErr != "" {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": validationErr})
	}

	profile, err := h.profileRepo.UpdatePartial(c.Context(), userID, repository.UpdateProfileInput{
		Theme:      req.Theme,
		Currency:   req.Currency,
		DateFormat: req.DateFormat,
	})
	if err != nil {
		return storeErrorResponse(c, err, "Failed to update preferences")
	}

	return c.JSON(fiber.Map{
		"theme":       profile.Theme,
		"currency":    profile.Currency,
		"date_format": profile.DateFormat,
	})
}
