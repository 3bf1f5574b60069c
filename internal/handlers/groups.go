package handlers

import (
	"github.com/arnold/wellness-api/internal/middleware"
	"github.com/arnold/wellness-api/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// CheckEligibility reports whether the current user may create a group
func (h *Handler) CheckEligibility(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	e, err := h.p.Groups.CheckEligibility(c.UserContext(), userID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(e)
}

func (h *Handler) CreateGroup(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req models.CreateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	group, err := h.p.Groups.CreateGroup(c.UserContext(), req, userID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(group)
}

// GetGroups returns the groups the current user belongs to
func (h *Handler) GetGroups(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	groups, err := h.p.Groups.ListUserGroups(c.UserContext(), userID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"groups": groups,
	})
}

func (h *Handler) GetGroup(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	groupID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid group ID")
	}

	group, err := h.p.Groups.GetGroup(c.UserContext(), groupID, userID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(group)
}

// UpdateGroupSettings updates name, description or settings (sponsor only)
func (h *Handler) UpdateGroupSettings(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	groupID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid group ID")
	}

	var req models.UpdateGroupSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	group, err := h.p.Groups.UpdateSettings(c.UserContext(), groupID, userID, req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(group)
}

func (h *Handler) UpdateGroupStatus(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	groupID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid group ID")
	}

	var req models.UpdateGroupStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Status != models.GroupActive && req.Status != models.GroupInactive {
		return badRequest(c, "Invalid status. Must be: active or inactive")
	}

	group, err := h.p.Groups.SetStatus(c.UserContext(), groupID, userID, req.Status)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(group)
}

// DeleteGroup deletes a group and everything scoped to it (sponsor only)
func (h *Handler) DeleteGroup(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	groupID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid group ID")
	}

	report, err := h.p.Groups.DeleteGroup(c.UserContext(), groupID, userID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(withSideEffects(fiber.Map{"success": true}, report))
}

// JoinGroup joins a group via invite code
func (h *Handler) JoinGroup(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req models.JoinGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.InviteCode == "" {
		return badRequest(c, "Invite code is required")
	}

	result, err := h.p.Groups.JoinGroup(c.UserContext(), req, userID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(withSideEffects(fiber.Map{
		"group":  result.Group,
		"member": result.Member,
	}, result.SideEffects))
}

// GetMembers returns all members of a group
func (h *Handler) GetMembers(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	groupID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid group ID")
	}

	members, err := h.p.Groups.ListMembers(c.UserContext(), groupID, userID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"members": members,
	})
}

// RemoveMember removes a member from a group (sponsor only)
func (h *Handler) RemoveMember(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	groupID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid group ID")
	}
	targetID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return badRequest(c, "Invalid user ID")
	}

	report, err := h.p.Groups.RemoveMember(c.UserContext(), groupID, userID, targetID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(withSideEffects(fiber.Map{"success": true}, report))
}

// LeaveGroup removes the current user from a group
func (h *Handler) LeaveGroup(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	groupID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid group ID")
	}

	report, err := h.p.Groups.LeaveGroup(c.UserContext(), groupID, userID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(withSideEffects(fiber.Map{"success": true}, report))
}

func (h *Handler) TransferOwnership(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	groupID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid group ID")
	}

	var req models.TransferOwnershipRequest
	if err := c.BodyParser(&req); err != nil || req.NewSponsorID == uuid.Nil {
		return badRequest(c, "newSponsorId is required")
	}

	report, err := h.p.Groups.TransferOwnership(c.UserContext(), groupID, userID, req.NewSponsorID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(withSideEffects(fiber.Map{"success": true}, report))
}
