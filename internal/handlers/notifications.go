package handlers

import (
	"strconv"

	"github.com/arnold/wellness-api/internal/middleware"
	"github.com/arnold/wellness-api/internal/models"
	"github.com/arnold/wellness-api/internal/repository"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// GetNotifications returns paginated notifications for the current user
func (h *Handler) GetNotifications(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}

	filter := repository.NotificationFilter{
		UnreadOnly: c.QueryBool("unread"),
		Limit:      limit,
		Offset:     (page - 1) * limit,
	}
	if raw := c.Query("groupId"); raw != "" {
		groupID, err := uuid.Parse(raw)
		if err != nil {
			return badRequest(c, "Invalid group ID")
		}
		filter.GroupID = &groupID
	}

	notifications, err := h.p.Notifications.GetUserNotifications(c.UserContext(), userID, filter)
	if err != nil {
		return h.fail(c, err)
	}

	unread, err := h.p.Notifications.UnreadCount(c.UserContext(), userID)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(fiber.Map{
		"notifications": notifications,
		"unread":        unread,
		"page":          page,
		"limit":         limit,
	})
}

// MarkNotificationRead marks a single notification as read
func (h *Handler) MarkNotificationRead(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	notifID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid notification ID")
	}

	if err := h.p.Notifications.MarkRead(c.UserContext(), userID, notifID); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// MarkAllRead marks all notifications as read for the current user
func (h *Handler) MarkAllRead(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	n, err := h.p.Notifications.MarkAllRead(c.UserContext(), userID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "updated": n})
}

func (h *Handler) GetUnreadCount(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	n, err := h.p.Notifications.UnreadCount(c.UserContext(), userID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"unread": n})
}

// GetPreferences returns the current user's notification preferences for a group
func (h *Handler) GetPreferences(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	groupID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid group ID")
	}

	if _, err := h.p.Groups.GetGroup(c.UserContext(), groupID, userID); err != nil {
		return h.fail(c, err)
	}

	prefs, err := h.p.Notifications.GetPreferences(c.UserContext(), userID, groupID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(prefs.View())
}

func (h *Handler) UpdatePreferences(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	groupID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid group ID")
	}

	var req models.UpdatePreferencesRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	prefs, err := h.p.Notifications.UpdatePreferences(c.UserContext(), userID, groupID, req)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(prefs.View())
}

// RegisterDeviceToken saves the FCM token for push notifications
func (h *Handler) RegisterDeviceToken(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req struct {
		Token string `json:"token"`
	}
	if err := c.BodyParser(&req); err != nil || req.Token == "" {
		return badRequest(c, "Token is required")
	}

	if err := h.store.Users().SetFCMToken(c.UserContext(), userID, req.Token); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}
