package handlers

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/orgatreeker/orgatreeker-backend/internal/models"
	"github.com/orgatreeker/orgatreeker-backend/internal/repository"
	"github.com/orgatreeker/orgatreeker-backend/internal/services"
)

type profileStore interface {
	GetByUserID(ctx context.Context, userID int64) (*models.Profile, error)
	UpdatePartial(ctx context.Context, userID int64, input repository.UpdateProfileInput) (*models.Profile, error)
}

type ProfileHandler struct {
	profileRepo    profileStore
	storageService services.StorageService
}

func NewProfileHandler(profileRepo profileStore, storageService services.StorageService) *ProfileHandler {
	return &ProfileHandler{
		profileRepo:    profileRepo,
		storageService: storageService,
	}
}

type updateProfileRequest struct {
	FullName      *string  `json:"full_name"`
	MonthlyIncome *float64 `json:"monthly_income"`
}

func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	profile, err := h.profileRepo.GetByUserID(c.Context(), userID)
	if err != nil {
		return storeErrorResponse(c, err, "Failed to fetch profile")
	}

	return c.JSON(fiber.Map{"profile": profile})
}

func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if validationErr := validateProfileUpdateRequest(req); validationErr != "" {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": validationErr})
	}

	profile, err := h.profileRepo.UpdatePartial(c.Context(), userID, repository.UpdateProfileInput{
		FullName:      req.FullName,
		MonthlyIncome: req.MonthlyIncome,
	})
	if err != nil {
		return storeErrorResponse(c, err, "Failed to update profile")
	}

	return c.JSON(fiber.Map{"profile": profile})
}

func (h *ProfileHandler) UploadAvatar(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	if h.storageService == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Storage not configured"})
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "avatar file is required"})
	}
	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Failed to read avatar file"})
	}
	defer file.Close()

	current, err := h.profileRepo.GetByUserID(c.Context(), userID)
	if err != nil {
		return storeErrorResponse(c, err, "Failed to fetch profile")
	}

	filename := fmt.Sprintf("%d-%d%s", userID, time.Now().UnixNano(), filepath.Ext(fileHeader.Filename))
	avatarURL, err := h.storageService.UploadFile(c.Context(), file, filename, "avatars")
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Failed to upload avatar"})
	}

	profile, err := h.profileRepo.UpdatePartial(c.Context(), userID, repository.UpdateProfileInput{
		AvatarURL: &avatarURL,
	})
	if err != nil {
		return storeErrorResponse(c, err, "Failed to update profile")
	}

	if current.AvatarURL != nil && *current.AvatarURL != avatarURL {
		// Best effort; a failed delete only orphans the old object.
		_ = h.storageService.DeleteFile(c.Context(), *current.AvatarURL)
	}

	return c.JSON(fiber.Map{
		"avatar_url": avatarURL,
		"profile":    profile,
	})
}
