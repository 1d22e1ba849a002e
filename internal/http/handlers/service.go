package handlers

import (
	"context"
	"time"

	"pdfbatch/internal/batch"
	"pdfbatch/internal/domain"
	"pdfbatch/internal/infra/storage"
	"pdfbatch/internal/intake"
)

// Deps bundles what the handlers need. Store is nil in inline delivery mode.
type Deps struct {
	Intake      *intake.Intake
	Converter   *batch.Converter
	Merger      *batch.Merger
	Encoder     *batch.Encoder
	Store       storage.Store
	ImagePolicy intake.Policy
	PDFPolicy   intake.Policy
}

// Service serves the batch, file and health endpoints.
type Service struct {
	intake    *intake.Intake
	converter *batch.Converter
	merger    *batch.Merger
	encoder   *batch.Encoder
	store     storage.Store
	images    intake.Policy
	pdfs      intake.Policy
	now       func() time.Time
}

type processFunc func(ctx context.Context, files []*domain.UploadedFile) (*batch.Result, error)

func New(d Deps) *Service {
	return &Service{
		intake:    d.Intake,
		converter: d.Converter,
		merger:    d.Merger,
		encoder:   d.Encoder,
		store:     d.Store,
		images:    d.ImagePolicy,
		pdfs:      d.PDFPolicy,
		now:       time.Now,
	}
}
