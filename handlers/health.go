package handlers

import (
	"github.com/campusconnect/api/database"
	"github.com/campusconnect/api/utils/response"
	"github.com/gofiber/fiber/v2"
)

// HandleCheckHealth reports whether the database answers
func HandleCheckHealth(c *fiber.Ctx, store database.Storage) error {
	if err := store.HealthCheck(); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":   "unhealthy",
			"database": "unreachable",
		})
	}
	return response.Success(c, fiber.Map{"status": "ok", "database": "ok"})
}
