package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/taskmint-app/taskmint/internal/config"
	"github.com/taskmint-app/taskmint/internal/domain"
	"github.com/taskmint-app/taskmint/internal/middleware"
	"github.com/taskmint-app/taskmint/internal/service"
)

func taskCacheKey(id int64) string {
	return fmt.Sprintf("task:%d", id)
}

func (h *Handler) CreateTask(c *fiber.Ctx) error {
	userID := c.Locals(middleware.UserIDKey).(int64)
	isAdmin := c.Locals(middleware.IsAdminKey).(bool)

	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Bad request")
	}
	if err := validate.Struct(req); err != nil {
		return badRequest(c, "Validation error: "+err.Error())
	}

	// Only platform admins may author official (creatorless) tasks.
	creatorID := &userID
	if req.Official {
		if !isAdmin {
			return forbidden(c, "Only admins can create official tasks")
		}
		creatorID = nil
	}

	task, err := h.tasks.CreateTask(c.Context(), service.CreateTaskInput{
		CreatorID:           creatorID,
		Question:            req.Question,
		QuestionType:        domain.QuestionType(req.QuestionType),
		Choices:             req.Choices,
		CorrectAnswer:       req.CorrectAnswer,
		RewardPerCompletion: req.RewardPerCompletion,
		MaxAcceptances:      req.MaxAcceptances,
		StartsAt:            req.StartsAt,
		EndsAt:              req.EndsAt,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidQuestion) {
			return badRequest(c, "Invalid task content")
		}
		slog.Error("create task failed", "error", err, "user_id", userID)
		return internalError(c)
	}

	h.notifier.TaskCreated(task)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Task created successfully",
		"success": true,
		"status":  fiber.StatusCreated,
		"data":    toTaskResponse(task),
	})
}

func (h *Handler) ListTasks(c *fiber.Ctx) error {
	tasks, err := h.tasks.ListOpen(c.Context())
	if err != nil {
		slog.Error("list tasks failed", "error", err)
		return internalError(c)
	}

	resp := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		resp = append(resp, toTaskResponse(t))
	}

	return c.JSON(fiber.Map{
		"message": "Tasks fetched successfully",
		"success": true,
		"status":  fiber.StatusOK,
		"data":    resp,
	})
}

func (h *Handler) GetTask(c *fiber.Ctx) error {
	taskID, err := c.ParamsInt("id")
	if err != nil {
		return badRequest(c, "Invalid task ID")
	}

	cacheKey := taskCacheKey(int64(taskID))
	if h.rdb != nil {
		if cached, err := h.rdb.Get(c.Context(), cacheKey).Result(); err == nil {
			var resp TaskResponse
			if err := json.Unmarshal([]byte(cached), &resp); err == nil {
				return c.JSON(fiber.Map{
					"message": "Task found",
					"success": true,
					"status":  fiber.StatusOK,
					"data":    resp,
				})
			}
		}
	}

	task, err := h.tasks.GetByID(c.Context(), int64(taskID))
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return notFound(c, "Task not found")
		}
		slog.Error("get task failed", "error", err, "task_id", taskID)
		return internalError(c)
	}

	resp := toTaskResponse(task)
	if h.rdb != nil {
		if data, err := json.Marshal(resp); err == nil {
			h.rdb.SetEX(c.Context(), cacheKey, data, config.TaskCacheTTL)
		}
	}

	return c.JSON(fiber.Map{
		"message": "Task found",
		"success": true,
		"status":  fiber.StatusOK,
		"data":    resp,
	})
}
