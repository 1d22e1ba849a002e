package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedMediaType signals a part whose media type is outside the operation allow-list.
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	// ErrFileTooLarge signals a part above the per-file size ceiling.
	ErrFileTooLarge = errors.New("file too large")
	// ErrEmptyBatch signals that no valid file was submitted.
	ErrEmptyBatch = errors.New("empty batch")
	// ErrItemProcessing marks a single file that could not be decoded, parsed or drawn.
	// The batch continues without it.
	ErrItemProcessing = errors.New("item processing failed")
	// ErrNoPagesProduced signals that every item of a non-empty batch failed.
	ErrNoPagesProduced = errors.New("no pages produced")
	// ErrInvalidImageDimensions signals a zero, negative or non-finite dimension.
	ErrInvalidImageDimensions = errors.New("invalid image dimensions")
	// ErrNotFound signals a stored output that does not exist.
	ErrNotFound = errors.New("not found")
)

// ItemError describes why one file of a batch was skipped.
type ItemError struct {
	Index int
	Name  string
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d (%s): %v", e.Index, e.Name, e.Err)
}

func (e *ItemError) Unwrap() []error {
	return []error{ErrItemProcessing, e.Err}
}

// Skip is the outcome recorded for an item left out of the output document.
type Skip struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// SkipFrom converts an item error into its reportable form.
func SkipFrom(err *ItemError) Skip {
	return Skip{Index: err.Index, Name: err.Name, Reason: err.Err.Error()}
}
