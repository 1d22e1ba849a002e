package handlers

import (
	"github.com/gofiber/fiber/v2"

	"pdfbatch/internal/batch"
	"pdfbatch/internal/domain"
	"pdfbatch/internal/infra/logging"
	"pdfbatch/internal/infra/metrics"
	"pdfbatch/internal/intake"
)

// BatchResponse is the success body of both batch operations.
type BatchResponse struct {
	Success     bool          `json:"success"`
	Message     string        `json:"message"`
	Filename    string        `json:"filename"`
	DownloadURL string        `json:"downloadUrl"`
	Pages       int           `json:"pages"`
	Skipped     []domain.Skip `json:"skipped"`
}

var successMessages = map[batch.Operation]string{
	batch.OpConvert: "PDF conversion completed.",
	batch.OpMerge:   "PDF merge completed.",
}

// HandleConvert turns the "images" parts into one PDF.
func (s *Service) HandleConvert(c *fiber.Ctx) error {
	return s.runBatch(c, batch.OpConvert, s.images, s.converter.Convert)
}

// HandleMerge concatenates the "pdfs" parts into one PDF.
func (s *Service) HandleMerge(c *fiber.Ctx) error {
	return s.runBatch(c, batch.OpMerge, s.pdfs, s.merger.Merge)
}

func (s *Service) runBatch(c *fiber.Ctx, op batch.Operation, policy intake.Policy, process processFunc) error {
	form, err := c.MultipartForm()
	if err != nil {
		logging.Debug("Request has no multipart form", "op", op, "error", err)
	}

	files, err := s.intake.Collect(form, policy)
	if err != nil {
		metrics.ObserveRequest(string(op), "rejected")
		return toHTTPError(op, err)
	}
	defer files.Release()

	ctx := c.UserContext()
	res, err := process(ctx, files.Files)
	if err != nil {
		metrics.ObserveRequest(string(op), "failed")
		logging.Error("Batch failed", "op", op, "files", files.Len(), "error", err)
		return toHTTPError(op, err)
	}

	d, err := s.encoder.Deliver(ctx, op, res.PDF)
	if err != nil {
		metrics.ObserveRequest(string(op), "failed")
		return toHTTPError(op, err)
	}
	metrics.ObserveRequest(string(op), "ok")

	skipped := res.Skipped
	if skipped == nil {
		skipped = []domain.Skip{}
	}
	return c.JSON(BatchResponse{
		Success:     true,
		Message:     successMessages[op],
		Filename:    d.Filename,
		DownloadURL: d.DownloadURL,
		Pages:       res.Pages,
		Skipped:     skipped,
	})
}
