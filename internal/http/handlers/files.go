package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"pdfbatch/internal/domain"
	"pdfbatch/internal/infra/logging"
	"pdfbatch/internal/infra/storage"
)

func (s *Service) filename(c *fiber.Ctx) (string, error) {
	name := c.Params("filename")
	if err := storage.ValidName(name); err != nil {
		return "", err
	}
	if s.store == nil {
		return "", fmt.Errorf("%s: %w", name, domain.ErrNotFound)
	}
	return name, nil
}

// HandleDownload serves a stored output document.
func (s *Service) HandleDownload(c *fiber.Ctx) error {
	name, err := s.filename(c)
	if err != nil {
		return toHTTPError("", err)
	}
	data, err := s.store.Open(c.UserContext(), name)
	if err != nil {
		return toHTTPError("", err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", name))
	return c.Send(data)
}

// HandleDelete removes a stored output document.
func (s *Service) HandleDelete(c *fiber.Ctx) error {
	name, err := s.filename(c)
	if err != nil {
		return toHTTPError("", err)
	}
	if err := s.store.Delete(c.UserContext(), name); err != nil {
		return toHTTPError("", err)
	}
	logging.Info("Output deleted", "file", name)
	return c.JSON(fiber.Map{"success": true, "message": "File deleted."})
}
