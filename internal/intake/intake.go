// Package intake validates multipart uploads and turns the accepted parts into a batch.
package intake

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"pdfbatch/internal/domain"
	"pdfbatch/internal/infra/logging"
	"pdfbatch/internal/infra/metrics"
)

// DefaultMaxFileBytes is the per-file ceiling applied when a policy sets none.
const DefaultMaxFileBytes int64 = 10 << 20

// Policy describes which parts an operation accepts.
type Policy struct {
	Field        string
	Allowed      []string
	MaxFileBytes int64
	// MaxFiles caps the batch length; 0 means unlimited.
	MaxFiles int
}

var (
	ImagePolicy = Policy{
		Field:        "images",
		Allowed:      []string{"image/jpeg", "image/jpg", "image/png"},
		MaxFileBytes: DefaultMaxFileBytes,
	}
	PDFPolicy = Policy{
		Field:        "pdfs",
		Allowed:      []string{"application/pdf"},
		MaxFileBytes: DefaultMaxFileBytes,
	}
)

// WithLimits returns a copy of p with the given ceilings; non-positive values keep p's.
func (p Policy) WithLimits(maxFileBytes int64, maxFiles int) Policy {
	if maxFileBytes > 0 {
		p.MaxFileBytes = maxFileBytes
	}
	if maxFiles > 0 {
		p.MaxFiles = maxFiles
	}
	return p
}

func (p Policy) allows(mediaType string) bool {
	for _, a := range p.Allowed {
		if a == mediaType {
			return true
		}
	}
	return false
}

// sniffed reports whether the detected content type belongs to the allow-list.
func (p Policy) sniffed(m *mimetype.MIME) bool {
	for _, a := range p.Allowed {
		if m.Is(a) {
			return true
		}
	}
	return false
}

// Batch is the ordered list of accepted uploads of one request.
type Batch struct {
	Files []*domain.UploadedFile
}

// Len returns the number of accepted files.
func (b *Batch) Len() int { return len(b.Files) }

// Release frees every file of the batch. Safe to call more than once and on nil.
func (b *Batch) Release() {
	if b == nil {
		return
	}
	for _, f := range b.Files {
		if err := f.Release(); err != nil {
			logging.Warn("Failed to release upload", "file", f.OriginalName, "error", err)
		}
	}
}

// Intake collects uploads. With a spool directory accepted parts are written there,
// otherwise they are kept in memory.
type Intake struct {
	spoolDir string
}

// New returns an intake spooling to spoolDir, creating it if needed. An empty
// spoolDir keeps uploads in memory.
func New(spoolDir string) (*Intake, error) {
	if spoolDir != "" {
		if err := os.MkdirAll(spoolDir, 0o755); err != nil {
			return nil, fmt.Errorf("create spool dir: %w", err)
		}
	}
	return &Intake{spoolDir: spoolDir}, nil
}

// SpoolDir returns the configured spool directory.
func (in *Intake) SpoolDir() string { return in.spoolDir }

// Collect validates the parts of policy.Field in submission order. Parts with a
// disallowed media type, above the size ceiling, whose content does not match the
// declared type, or beyond MaxFiles are dropped. An empty result is ErrEmptyBatch.
func (in *Intake) Collect(form *multipart.Form, policy Policy) (*Batch, error) {
	if form == nil {
		return nil, domain.ErrEmptyBatch
	}
	limit := policy.MaxFileBytes
	if limit <= 0 {
		limit = DefaultMaxFileBytes
	}

	batch := &Batch{}
	for i, h := range form.File[policy.Field] {
		if policy.MaxFiles > 0 && batch.Len() >= policy.MaxFiles {
			reject(policy.Field, i, h.Filename, "count", fmt.Errorf("batch holds at most %d files", policy.MaxFiles))
			continue
		}

		declared := mediaType(h)
		if !policy.allows(declared) {
			reject(policy.Field, i, h.Filename, "media_type", fmt.Errorf("%q: %w", declared, domain.ErrUnsupportedMediaType))
			continue
		}
		if h.Size > limit {
			reject(policy.Field, i, h.Filename, "size", fmt.Errorf("%d bytes: %w", h.Size, domain.ErrFileTooLarge))
			continue
		}

		data, err := readPart(h, limit)
		if err != nil {
			reject(policy.Field, i, h.Filename, "size", err)
			continue
		}
		detected := mimetype.Detect(data)
		if !policy.sniffed(detected) {
			reject(policy.Field, i, h.Filename, "content",
				fmt.Errorf("declared %q, content is %q: %w", declared, detected.String(), domain.ErrUnsupportedMediaType))
			continue
		}

		f, err := in.accept(policy.Field, h.Filename, declared, detected.Extension(), data)
		if err != nil {
			batch.Release()
			return nil, err
		}
		batch.Files = append(batch.Files, f)
	}

	if batch.Len() == 0 {
		return nil, domain.ErrEmptyBatch
	}
	logging.Debug("Upload batch collected", "field", policy.Field, "files", batch.Len())
	return batch, nil
}

func (in *Intake) accept(field, name, mediaType, ext string, data []byte) (*domain.UploadedFile, error) {
	if in.spoolDir == "" {
		return domain.NewMemoryFile(name, mediaType, data), nil
	}
	p := filepath.Join(in.spoolDir, fmt.Sprintf("%s-%s%s", field, uuid.NewString(), ext))
	if err := os.WriteFile(p, data, 0o600); err != nil {
		return nil, fmt.Errorf("spool upload %s: %w", name, err)
	}
	return domain.NewSpooledFile(name, mediaType, int64(len(data)), p), nil
}

func mediaType(h *multipart.FileHeader) string {
	ct := h.Header.Get("Content-Type")
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(ct))
	}
	return mt
}

func readPart(h *multipart.FileHeader, limit int64) ([]byte, error) {
	f, err := h.Open()
	if err != nil {
		return nil, fmt.Errorf("open part: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read part: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("more than %d bytes: %w", limit, domain.ErrFileTooLarge)
	}
	return data, nil
}

func reject(field string, index int, name, reason string, err error) {
	metrics.RejectPart(field, reason)
	logging.Warn("Upload part rejected", "field", field, "index", index, "file", name, "reason", reason, "error", err)
}
