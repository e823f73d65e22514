package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/taskmint-app/taskmint/internal/domain"
	"github.com/taskmint-app/taskmint/internal/middleware"
)

func (h *Handler) Me(c *fiber.Ctx) error {
	userID := c.Locals(middleware.UserIDKey).(int64)

	user, err := h.users.GetByID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return notFound(c, "User not found")
		}
		slog.Error("get user failed", "error", err, "user_id", userID)
		return internalError(c)
	}

	return c.JSON(fiber.Map{
		"message": "User found",
		"success": true,
		"status":  fiber.StatusOK,
		"data":    toUserResponse(user),
	})
}

func (h *Handler) MySubmissions(c *fiber.Ctx) error {
	userID := c.Locals(middleware.UserIDKey).(int64)

	subs, err := h.users.ListSubmissions(c.Context(), userID)
	if err != nil {
		slog.Error("list submissions failed", "error", err, "user_id", userID)
		return internalError(c)
	}

	resp := make([]SubmissionResponse, 0, len(subs))
	for _, s := range subs {
		resp = append(resp, toSubmissionResponse(s))
	}

	return c.JSON(fiber.Map{
		"message": "Submissions fetched successfully",
		"success": true,
		"status":  fiber.StatusOK,
		"data":    resp,
	})
}
