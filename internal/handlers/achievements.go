package handlers

import (
	"github.com/arnold/wellness-api/internal/middleware"
	"github.com/arnold/wellness-api/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// GetAchievementCatalog lists every achievement that can be earned
func (h *Handler) GetAchievementCatalog(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"achievements": services.Catalog(),
	})
}

// CheckAchievements evaluates the current user's achievements in a group
func (h *Handler) CheckAchievements(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	groupID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid group ID")
	}

	result, err := h.p.Achievements.CheckUserAchievements(c.UserContext(), userID, groupID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(withSideEffects(fiber.Map{
		"awarded":       result.Awarded,
		"alreadyEarned": result.AlreadyEarned,
	}, result.SideEffects))
}

// GetMyAchievements returns the current user's achievements, optionally
// narrowed to ?groupId
func (h *Handler) GetMyAchievements(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var groupID *uuid.UUID
	if raw := c.Query("groupId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return badRequest(c, "Invalid group ID")
		}
		groupID = &id
	}

	achievements, err := h.p.Achievements.GetUserAchievements(c.UserContext(), userID, groupID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"achievements": achievements,
	})
}

func (h *Handler) GetLeaderboard(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	groupID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid group ID")
	}

	if _, err := h.p.Groups.GetGroup(c.UserContext(), groupID, userID); err != nil {
		return h.fail(c, err)
	}

	leaderboard, err := h.p.Achievements.GetGroupLeaderboard(c.UserContext(), groupID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"leaderboard": leaderboard,
	})
}
