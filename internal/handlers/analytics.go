package handlers

import (
	"github.com/arnold/wellness-api/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// GetGroupAnalytics returns the analytics report for the last ?days days
func (h *Handler) GetGroupAnalytics(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	groupID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid group ID")
	}

	report, err := h.p.Analytics.GetGroupAnalytics(c.UserContext(), groupID, userID, queryInt(c, "days", 30))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(report)
}

func (h *Handler) GetMemberAnalytics(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	groupID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid group ID")
	}
	targetID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return badRequest(c, "Invalid user ID")
	}

	report, err := h.p.Analytics.GetMemberAnalytics(c.UserContext(), groupID, targetID, userID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(report)
}

// GetSystemOverview is limited to admins
func (h *Handler) GetSystemOverview(c *fiber.Ctx) error {
	if !h.isAdmin(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Admin access required",
		})
	}

	overview, err := h.p.Analytics.GetSystemOverview(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(overview)
}
