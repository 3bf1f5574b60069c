package handlers

import (
	"time"

	"github.com/arnold/wellness-api/internal/middleware"
	"github.com/arnold/wellness-api/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// PostMessage posts to the group chat and pushes it to open sockets
func (h *Handler) PostMessage(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	groupID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid group ID")
	}

	var req models.PostMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	msg, report, err := h.p.Messages.PostMessage(c.UserContext(), groupID, userID, req.Body)
	if err != nil {
		return h.fail(c, err)
	}

	if h.hub != nil {
		h.hub.Broadcast(groupID, userID, WSEvent{
			Type:    EventMessagePosted,
			GroupID: groupID.String(),
			UserID:  userID.String(),
			Data:    msg,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(withSideEffects(fiber.Map{
		"message": msg,
	}, report))
}

// GetMessages returns the group chat, optionally only messages after ?since (RFC3339)
func (h *Handler) GetMessages(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	groupID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid group ID")
	}

	var since time.Time
	if raw := c.Query("since"); raw != "" {
		since, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return badRequest(c, "since must be an RFC3339 timestamp")
		}
	}

	msgs, err := h.p.Messages.ListMessages(c.UserContext(), groupID, userID, since)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"messages": msgs,
	})
}
