package handlers

import (
	"github.com/arnold/wellness-api/internal/middleware"
	"github.com/arnold/wellness-api/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// CreateInvitation records an invitation to a group (sponsor only)
func (h *Handler) CreateInvitation(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	groupID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid group ID")
	}

	var req models.CreateInvitationRequest
	c.BodyParser(&req) // optional body

	if req.ExpiresIn < 0 {
		return badRequest(c, "expiresIn must not be negative")
	}

	invitation, err := h.p.Groups.CreateInvitation(c.UserContext(), groupID, userID, req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(invitation)
}

func (h *Handler) GetInvitations(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	groupID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid group ID")
	}

	invitations, err := h.p.Groups.ListInvitations(c.UserContext(), groupID, userID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"invitations": invitations,
	})
}

// RevokeInvitation withdraws a pending invitation (sponsor only)
func (h *Handler) RevokeInvitation(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	groupID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid group ID")
	}
	invitationID, err := uuid.Parse(c.Params("invitationId"))
	if err != nil {
		return badRequest(c, "Invalid invitation ID")
	}

	invitation, err := h.p.Groups.RevokeInvitation(c.UserContext(), groupID, userID, invitationID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(invitation)
}
