package handlers

import (
	"github.com/arnold/wellness-api/internal/middleware"
	"github.com/arnold/wellness-api/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// TrackActivity appends an entry to the current user's activity log
func (h *Handler) TrackActivity(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req models.TrackActivityRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	meta, err := models.ParseMetadata(req.Type, req.Metadata)
	if err != nil {
		return badRequest(c, err.Error())
	}

	activity, err := h.p.Tracker.TrackActivity(c.UserContext(), userID, req.Type, meta, req.GroupID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(activity)
}

// GetActivity returns the current user's activity for the last ?days days
func (h *Handler) GetActivity(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	days := queryInt(c, "days", 30)

	activities, err := h.p.Tracker.GetUserActivity(c.UserContext(), userID, days)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"activities": activities,
		"days":       days,
	})
}

func (h *Handler) GetActivitySummary(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	summary, err := h.p.Tracker.GetActivitySummary(c.UserContext(), userID, queryInt(c, "days", 30))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(summary)
}

func (h *Handler) GetActivityEligibility(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	window, err := h.p.Tracker.CheckActivityEligibility(c.UserContext(), userID, queryInt(c, "requiredDays", 7))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(window)
}

// LogMemberActivity records a group-scoped activity for the current user
func (h *Handler) LogMemberActivity(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	groupID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid group ID")
	}

	var req models.LogMemberActivityRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	meta, err := models.ParseMetadata(req.Type, req.Metadata)
	if err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.p.Aggregator.LogMemberActivity(c.UserContext(), groupID, userID, req.Type, req.Value, req.Source, meta)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// GetGroupEngagement returns engagement for every member of a group
func (h *Handler) GetGroupEngagement(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	groupID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid group ID")
	}

	if _, err := h.p.Groups.GetGroup(c.UserContext(), groupID, userID); err != nil {
		return h.fail(c, err)
	}

	engagement, err := h.p.Aggregator.GetGroupEngagement(c.UserContext(), groupID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"members": engagement,
	})
}

func (h *Handler) GetMemberEngagement(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	groupID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid group ID")
	}
	targetID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return badRequest(c, "Invalid user ID")
	}

	if _, err := h.p.Groups.GetGroup(c.UserContext(), groupID, userID); err != nil {
		return h.fail(c, err)
	}

	engagement, err := h.p.Aggregator.GetMemberEngagement(c.UserContext(), groupID, targetID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(engagement)
}

// GetGroupFeed returns the newest feed entries of a group
func (h *Handler) GetGroupFeed(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	groupID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid group ID")
	}

	feed, err := h.p.Feed.GetGroupFeed(c.UserContext(), groupID, userID, queryInt(c, "limit", 0), c.QueryBool("highlights"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"feed": feed,
	})
}
