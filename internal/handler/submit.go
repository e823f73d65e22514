package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/taskmint-app/taskmint/internal/domain"
	"github.com/taskmint-app/taskmint/internal/middleware"
)

// SubmitAnswer is the settlement entry point.
func (h *Handler) SubmitAnswer(c *fiber.Ctx) error {
	userID := c.Locals(middleware.UserIDKey).(int64)

	taskID, err := c.ParamsInt("id")
	if err != nil {
		return badRequest(c, "Invalid task ID")
	}

	var req SubmitAnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Bad request")
	}
	if err := validate.Struct(req); err != nil {
		return badRequest(c, "Answer is required")
	}

	result, err := h.settlement.Submit(c.Context(), int64(taskID), userID, req.Answer)
	if err != nil {
		return h.settlementError(c, int64(taskID), userID, err)
	}

	// The settlement may have debited or closed the task; drop the stale view.
	h.invalidateTaskCache(c, int64(taskID))

	return c.JSON(fiber.Map{
		"message": "Submission settled",
		"success": true,
		"status":  fiber.StatusOK,
		"data": SettlementResponse{
			SubmissionID:  result.SubmissionID,
			IsCorrect:     result.IsCorrect,
			AwardedPoints: result.AwardedPoints,
		},
	})
}

func (h *Handler) settlementError(c *fiber.Ctx, taskID, userID int64, err error) error {
	switch {
	case errors.Is(err, domain.ErrTaskNotFound):
		return notFound(c, "Task not found")

	case errors.Is(err, domain.ErrTaskClosed),
		errors.Is(err, domain.ErrTaskNotStarted),
		errors.Is(err, domain.ErrTaskExpired),
		errors.Is(err, domain.ErrSelfSubmission),
		errors.Is(err, domain.ErrAlreadySubmitted):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "Task is not open for this submission",
			"success": false,
			"status":  fiber.StatusConflict,
		})

	case errors.Is(err, domain.ErrInsufficientEscrow):
		// The engine already closed the task.
		h.invalidateTaskCache(c, taskID)
		h.notifier.TaskClosed(taskID, "escrow exhausted")
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "Task escrow exhausted",
			"success": false,
			"status":  fiber.StatusConflict,
		})

	default:
		slog.Error("settlement failed", "error", err, "task_id", taskID, "user_id", userID)
		h.notifier.SettlementError(taskID, userID, err)
		return internalError(c)
	}
}

func (h *Handler) invalidateTaskCache(c *fiber.Ctx, taskID int64) {
	if h.rdb != nil {
		h.rdb.Del(c.Context(), taskCacheKey(taskID))
	}
}
