package handlers

import (
	"github.com/campusconnect/api/database"
	"github.com/gofiber/fiber/v2"
)

// MakeHTTPHandleFunc binds a storage-aware handler to a fiber route
func MakeHTTPHandleFunc(handler func(c *fiber.Ctx, store database.Storage) error, store database.Storage) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := handler(c, store); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   fiber.Map{"code": "INTERNAL_ERROR", "message": err.Error()},
			})
		}
		return nil
	}
}
