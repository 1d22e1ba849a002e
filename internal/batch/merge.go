package batch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"pdfbatch/internal/domain"
	"pdfbatch/internal/infra/logging"
	"pdfbatch/internal/infra/metrics"
)

func init() {
	// Keep pdfcpu from creating a config directory under the user's home.
	api.DisableConfigDir()
}

// MergerOptions tunes PDF merging.
type MergerOptions struct {
	// Workers bounds how many documents are parsed at once.
	Workers int
	// Strict switches pdfcpu from relaxed to strict validation.
	Strict bool
}

// Merger concatenates the pages of several PDF documents.
type Merger struct {
	opts MergerOptions
}

// NewMerger returns a merger.
func NewMerger(opts MergerOptions) *Merger {
	return &Merger{opts: opts}
}

type parsedPDF struct {
	raw   []byte
	ctx   *model.Context
	pages int
}

func (m *Merger) configuration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	if !m.opts.Strict {
		conf.ValidationMode = model.ValidationRelaxed
	}
	return conf
}

// Merge appends every page of every readable document to one output, documents in
// input order and pages in their original order. Malformed or encrypted documents
// are skipped; documents without pages contribute nothing.
func (m *Merger) Merge(ctx context.Context, files []*domain.UploadedFile) (*Result, error) {
	if len(files) == 0 {
		return nil, domain.ErrEmptyBatch
	}
	start := time.Now()

	report := Fold(ctx, string(OpMerge), files, m.opts.Workers, func(ctx context.Context, f *domain.UploadedFile) (parsedPDF, error) {
		return m.parse(f)
	})
	metrics.ObserveItems(string(OpMerge), report.Succeeded(), len(report.Skipped))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{Skipped: report.Skips()}
	var parts []parsedPDF
	for _, item := range report.Items {
		if item.Value.pages == 0 {
			logging.Info("Document has no pages", "op", OpMerge, "index", item.Index, "file", item.Name)
			continue
		}
		parts = append(parts, item.Value)
		res.Sources = append(res.Sources, item.Name)
		res.Pages += item.Value.pages
	}
	if res.Pages == 0 {
		return nil, fmt.Errorf("%d of %d documents failed, %d empty: %w",
			len(report.Skipped), len(files), report.Succeeded(), domain.ErrNoPagesProduced)
	}

	var out bytes.Buffer
	if len(parts) == 1 {
		if err := api.WriteContext(parts[0].ctx, &out); err != nil {
			return nil, fmt.Errorf("serialize pdf: %w", err)
		}
	} else {
		readers := make([]io.ReadSeeker, len(parts))
		for i, p := range parts {
			readers[i] = bytes.NewReader(p.raw)
		}
		if err := api.MergeRaw(readers, &out, false, m.configuration()); err != nil {
			return nil, fmt.Errorf("merge pdfs: %w", err)
		}
	}
	res.PDF = out.Bytes()

	metrics.ObserveDocument(string(OpMerge), len(res.PDF), time.Since(start))
	logging.Info("PDFs merged", "documents", len(parts), "pages", res.Pages, "skipped", len(res.Skipped), "bytes", len(res.PDF))
	return res, nil
}

func (m *Merger) parse(f *domain.UploadedFile) (parsedPDF, error) {
	data, err := f.Content()
	if err != nil {
		return parsedPDF{}, err
	}
	pctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), m.configuration())
	if err != nil {
		return parsedPDF{}, fmt.Errorf("parse pdf: %w", err)
	}
	if err := pctx.EnsurePageCount(); err != nil {
		return parsedPDF{}, fmt.Errorf("count pages: %w", err)
	}
	return parsedPDF{raw: data, ctx: pctx, pages: pctx.PageCount}, nil
}
