package batch

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"time"

	"codeberg.org/go-pdf/fpdf"

	"pdfbatch/internal/domain"
	"pdfbatch/internal/infra/logging"
	"pdfbatch/internal/infra/metrics"
	"pdfbatch/internal/layout"
)

const (
	// DefaultJPEGQuality is the quality used when re-encoding images for embedding.
	DefaultJPEGQuality = 80
	// DefaultPageSize is the page format of every converted page.
	DefaultPageSize = "Letter"
)

// documentEpoch is written as creation and modification date of generated
// documents so identical batches produce identical bytes.
var documentEpoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// ConverterOptions tunes image conversion. Zero values select the defaults.
type ConverterOptions struct {
	PageSize     string
	JPEGQuality  int
	MarginFactor float64
	Workers      int
}

// Converter builds one PDF page per image.
type Converter struct {
	opts ConverterOptions
}

// NewConverter returns a converter with defaults applied to opts.
func NewConverter(opts ConverterOptions) *Converter {
	if opts.PageSize == "" {
		opts.PageSize = DefaultPageSize
	}
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = DefaultJPEGQuality
	}
	if opts.MarginFactor <= 0 || opts.MarginFactor > 1 {
		opts.MarginFactor = layout.DefaultMarginFactor
	}
	return &Converter{opts: opts}
}

// Result is a finished output document and what went into it.
type Result struct {
	PDF        []byte
	Pages      int
	Sources    []string
	Skipped    []domain.Skip
	Placements []layout.Placement
}

type preparedImage struct {
	jpeg      []byte
	placement layout.Placement
}

// Convert re-encodes every image to JPEG and places it centered on its own page, in
// input order. Images that cannot be decoded, encoded or fitted are skipped.
func (c *Converter) Convert(ctx context.Context, files []*domain.UploadedFile) (*Result, error) {
	if len(files) == 0 {
		return nil, domain.ErrEmptyBatch
	}
	start := time.Now()

	page, err := c.pageSize()
	if err != nil {
		return nil, err
	}

	report := Fold(ctx, string(OpConvert), files, c.opts.Workers, func(ctx context.Context, f *domain.UploadedFile) (preparedImage, error) {
		return c.prepare(f, page)
	})
	metrics.ObserveItems(string(OpConvert), report.Succeeded(), len(report.Skipped))
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if report.Succeeded() == 0 {
		return nil, fmt.Errorf("%d of %d images failed: %w", len(report.Skipped), len(files), domain.ErrNoPagesProduced)
	}

	doc := c.newDocument()
	res := &Result{Skipped: report.Skips()}
	for _, item := range report.Items {
		name := fmt.Sprintf("image-%d", item.Index)
		opts := fpdf.ImageOptions{ImageType: "JPG"}
		doc.RegisterImageOptionsReader(name, opts, bytes.NewReader(item.Value.jpeg))
		doc.AddPage()
		p := item.Value.placement
		doc.ImageOptions(name, p.X, p.Y, p.Width, p.Height, false, opts, 0, "")

		res.Sources = append(res.Sources, item.Name)
		res.Placements = append(res.Placements, p)
	}
	if doc.Err() {
		return nil, fmt.Errorf("render pdf: %w", doc.Error())
	}

	var out bytes.Buffer
	if err := doc.Output(&out); err != nil {
		return nil, fmt.Errorf("serialize pdf: %w", err)
	}
	res.PDF = out.Bytes()
	res.Pages = len(report.Items)

	metrics.ObserveDocument(string(OpConvert), len(res.PDF), time.Since(start))
	logging.Info("Images converted", "pages", res.Pages, "skipped", len(res.Skipped), "bytes", len(res.PDF))
	return res, nil
}

func (c *Converter) prepare(f *domain.UploadedFile, page layout.Dimensions) (preparedImage, error) {
	data, err := f.Content()
	if err != nil {
		return preparedImage{}, err
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return preparedImage{}, fmt.Errorf("decode image: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: c.opts.JPEGQuality}); err != nil {
		return preparedImage{}, fmt.Errorf("re-encode %s as jpeg: %w", format, err)
	}

	b := img.Bounds()
	size := layout.Dimensions{Width: float64(b.Dx()), Height: float64(b.Dy())}
	placement, err := layout.FitWithMargin(size, page, c.opts.MarginFactor)
	if err != nil {
		return preparedImage{}, err
	}
	return preparedImage{jpeg: buf.Bytes(), placement: placement}, nil
}

// newDocument creates an empty document in points so page geometry and placements
// share one unit.
func (c *Converter) newDocument() *fpdf.Fpdf {
	doc := fpdf.New("P", "pt", c.opts.PageSize, "")
	doc.SetCatalogSort(true)
	doc.SetCreationDate(documentEpoch)
	doc.SetModificationDate(documentEpoch)
	return doc
}

// pageSize reports the default page geometry of a new document.
func (c *Converter) pageSize() (layout.Dimensions, error) {
	doc := c.newDocument()
	if doc.Err() {
		return layout.Dimensions{}, fmt.Errorf("page size %q: %w", c.opts.PageSize, doc.Error())
	}
	w, h := doc.GetPageSize()
	return layout.Dimensions{Width: w, Height: h}, nil
}
