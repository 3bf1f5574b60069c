package handlers

import (
	"errors"

	"github.com/arnold/wellness-api/internal/middleware"
	"github.com/arnold/wellness-api/internal/models"
	"github.com/arnold/wellness-api/internal/repository"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func (h *Handler) GetMe(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	user, err := h.store.Users().Get(c.UserContext(), userID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}
	if err != nil {
		return h.fail(c, err)
	}

	resp := fiber.Map{
		"id":          user.ID,
		"email":       user.Email,
		"displayName": user.DisplayName,
		"role":        user.Role,
		"createdAt":   user.CreatedAt,
		"updatedAt":   user.UpdatedAt,
	}

	// Eligibility is informational here; a failure should not hide the profile
	if e, err := h.p.Groups.CheckEligibility(c.UserContext(), userID); err == nil {
		resp["eligibility"] = e
	} else {
		h.log.Warn("eligibility for profile", zap.String("userId", userID.String()), zap.Error(err))
	}

	return c.JSON(resp)
}

// UpdateProfile changes the display name of the current user
func (h *Handler) UpdateProfile(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req struct {
		DisplayName string `json:"displayName"`
	}
	if err := c.BodyParser(&req); err != nil || req.DisplayName == "" {
		return badRequest(c, "displayName is required")
	}

	user, err := h.store.Users().Get(c.UserContext(), userID)
	if errors.Is(err, repository.ErrNotFound) {
		user = &models.UserProfile{ID: userID}
	} else if err != nil {
		return h.fail(c, err)
	}

	user.DisplayName = req.DisplayName
	if err := h.store.Users().Upsert(c.UserContext(), user); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(user)
}

// isAdmin reports whether the current user's stored profile carries an admin role
func (h *Handler) isAdmin(c *fiber.Ctx) bool {
	user, err := h.store.Users().Get(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return false
	}
	return user.Role == models.UserRoleAdmin || user.Role == models.UserRoleSuperAdmin
}
