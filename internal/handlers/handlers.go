package handlers

import (
	"errors"
	"strconv"

	"github.com/arnold/wellness-api/internal/repository"
	"github.com/arnold/wellness-api/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler serves the HTTP API on top of the service pipeline.
type Handler struct {
	p     *services.Pipeline
	store repository.Store
	hub   *Hub
	log   *zap.Logger
}

func New(p *services.Pipeline, store repository.Store, hub *Hub, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{p: p, store: store, hub: hub, log: log}
}

// statusFor maps domain errors to an HTTP status and a client message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrGroupNotFound),
		errors.Is(err, services.ErrInvalidInviteCode),
		errors.Is(err, services.ErrNotificationMissing),
		errors.Is(err, services.ErrInvitationMissing):
		return fiber.StatusNotFound, err.Error()
	case errors.Is(err, services.ErrNotMember),
		errors.Is(err, services.ErrNotSponsor),
		errors.Is(err, services.ErrNotEligible):
		return fiber.StatusForbidden, err.Error()
	case errors.Is(err, services.ErrGroupFull),
		errors.Is(err, services.ErrGroupInactive),
		errors.Is(err, services.ErrAlreadyMember),
		errors.Is(err, services.ErrSponsorCannotLeave),
		errors.Is(err, services.ErrCannotRemoveSponsor),
		errors.Is(err, services.ErrInvitationClosed):
		return fiber.StatusConflict, err.Error()
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrSameSponsor),
		errors.Is(err, services.ErrUnknownNotification):
		return fiber.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrInviteCodeExhausted):
		return fiber.StatusServiceUnavailable, err.Error()
	default:
		return fiber.StatusInternalServerError, "Internal server error"
	}
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	status, msg := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		h.log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{
		"error": msg,
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": msg,
	})
}

func queryInt(c *fiber.Ctx, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}

// withSideEffects adds the side effect failures to body when there are any.
func withSideEffects(body fiber.Map, report services.SideEffectReport) fiber.Map {
	if !report.OK() {
		body["sideEffects"] = report
	}
	return body
}
