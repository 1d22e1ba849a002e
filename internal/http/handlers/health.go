package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// HandleHealth reports liveness with a timestamp.
func (s *Service) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "OK",
		"message":   "PDF batch service is running",
		"timestamp": s.now().UTC().Format(time.RFC3339Nano),
	})
}
