package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/taskmint-app/taskmint/internal/middleware"
)

// RegisterRoutes mounts all API routes. Everything under /api/v1 requires
// a resolved identity; /healthz does not.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Get("/healthz", h.Health)

	api := app.Group("/api/v1", middleware.Auth([]byte(h.cfg.JWTSecret)))

	api.Post("/tasks", h.CreateTask)
	api.Get("/tasks", h.ListTasks)
	api.Get("/tasks/:id", h.GetTask)
	api.Post("/tasks/:id/submissions", h.SubmitAnswer)

	api.Get("/me", h.Me)
	api.Get("/me/submissions", h.MySubmissions)
}

func (h *Handler) Health(c *fiber.Ctx) error {
	if err := h.db.Ping(c.Context()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"message": "Database unreachable",
			"success": false,
			"status":  fiber.StatusServiceUnavailable,
		})
	}
	return c.JSON(fiber.Map{
		"message": "OK",
		"success": true,
		"status":  fiber.StatusOK,
	})
}
