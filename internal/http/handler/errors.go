package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/PortalLink/internal/app/model"
	"github.com/sifan077/PortalLink/internal/app/repository"
	"github.com/sifan077/PortalLink/internal/app/service"
	"go.uber.org/zap"
)

var errNothingToUpdate = errors.New("nothing to update: send status or highlight_position")

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrUnknownKind),
		errors.Is(err, service.ErrInvalidPosition),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrHighlightUnsupported),
		errors.Is(err, service.ErrMissingEntityID),
		errors.Is(err, errNothingToUpdate):
		return fiber.StatusBadRequest
	case errors.Is(err, repository.ErrEntityNotFound),
		errors.Is(err, repository.ErrPortalNotFound),
		errors.Is(err, repository.ErrLinkNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, repository.ErrSlugConflict),
		errors.Is(err, repository.ErrHighlightTaken):
		return fiber.StatusConflict
	case errors.Is(err, repository.ErrNotConfigured):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// fail writes err as {"error": ...}. The full message goes out because
// operators need to know why a link change was refused.
func (h *APIHandler) fail(c *fiber.Ctx, op string, err error) error {
	status := statusFor(err)
	fields := []zap.Field{
		zap.String("op", op),
		zap.String("path", c.Path()),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= fiber.StatusInternalServerError {
		h.logger.Error("request failed", fields...)
	} else {
		h.logger.Info("request rejected", fields...)
	}

	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": msg,
	})
}
