package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"pdfbatch/internal/batch"
	"pdfbatch/internal/domain"
	"pdfbatch/internal/infra/logging"
	"pdfbatch/internal/infra/storage"
)

// APIError is an error rendered as {error, details?} with its status code.
type APIError struct {
	Status  int
	Message string
	Details string
}

func (e *APIError) Error() string {
	if e.Details == "" {
		return e.Message
	}
	return e.Message + ": " + e.Details
}

var emptyBatchMessages = map[batch.Operation]string{
	batch.OpConvert: "Please select images to convert.",
	batch.OpMerge:   "Please select PDF files to merge.",
}

var failureMessages = map[batch.Operation]string{
	batch.OpConvert: "PDF conversion failed.",
	batch.OpMerge:   "PDF merge failed.",
}

// toHTTPError maps domain errors of op to their HTTP form.
func toHTTPError(op batch.Operation, err error) *APIError {
	switch {
	case errors.Is(err, domain.ErrEmptyBatch):
		return &APIError{Status: fiber.StatusBadRequest, Message: emptyBatchMessages[op]}
	case errors.Is(err, domain.ErrNotFound):
		return &APIError{Status: fiber.StatusNotFound, Message: "File not found."}
	case errors.Is(err, storage.ErrInvalidName):
		return &APIError{Status: fiber.StatusBadRequest, Message: "Invalid file name."}
	}
	msg, ok := failureMessages[op]
	if !ok {
		msg = "Internal Server Error"
	}
	return &APIError{Status: fiber.StatusInternalServerError, Message: msg, Details: err.Error()}
}

// ErrorHandler renders every error returned by a handler as JSON.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var (
		apiErr *APIError
		fe     *fiber.Error
	)
	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &fe):
		apiErr = &APIError{Status: fe.Code, Message: fe.Message}
	default:
		apiErr = &APIError{Status: fiber.StatusInternalServerError, Message: "Internal Server Error", Details: err.Error()}
	}

	logging.Warn("Request failed", "path", c.Path(), "status", apiErr.Status, "message", apiErr.Message, "details", apiErr.Details)

	body := fiber.Map{"error": apiErr.Message}
	if apiErr.Details != "" {
		body["details"] = apiErr.Details
	}
	return c.Status(apiErr.Status).JSON(body)
}
