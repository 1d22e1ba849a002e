package batch

import (
	"context"
	"encoding/base64"
	"fmt"
	"path"
	"time"
)

// Operation names a batch operation.
type Operation string

const (
	OpConvert Operation = "convert"
	OpMerge   Operation = "merge"
)

// FilePrefix is the leading part of generated output names.
func (o Operation) FilePrefix() string {
	switch o {
	case OpConvert:
		return "converted"
	case OpMerge:
		return "merged"
	default:
		return string(o)
	}
}

// Saver persists a finished document under name.
type Saver interface {
	Save(ctx context.Context, name string, data []byte) error
}

// Delivery tells the client where to get its document.
type Delivery struct {
	Filename    string
	DownloadURL string
	Size        int
}

// Encoder delivers finished documents either inline as a data URI or through a Saver.
type Encoder struct {
	saver     Saver
	urlPrefix string
	now       func() time.Time
}

// NewInlineEncoder returns an encoder that embeds documents as base64 data URIs.
func NewInlineEncoder() *Encoder {
	return &Encoder{now: time.Now}
}

// NewStoredEncoder returns an encoder that saves documents and links to urlPrefix/<name>.
func NewStoredEncoder(saver Saver, urlPrefix string) *Encoder {
	return &Encoder{saver: saver, urlPrefix: urlPrefix, now: time.Now}
}

// Filename returns the output name for op at the current time.
func (e *Encoder) Filename(op Operation) string {
	return fmt.Sprintf("%s-%d.pdf", op.FilePrefix(), e.now().UnixMilli())
}

// Deliver hands out pdf. The bytes are never altered.
func (e *Encoder) Deliver(ctx context.Context, op Operation, pdf []byte) (Delivery, error) {
	d := Delivery{Filename: e.Filename(op), Size: len(pdf)}
	if e.saver == nil {
		d.DownloadURL = DataURI(pdf)
		return d, nil
	}
	if err := e.saver.Save(ctx, d.Filename, pdf); err != nil {
		return Delivery{}, fmt.Errorf("store %s: %w", d.Filename, err)
	}
	d.DownloadURL = path.Join("/", e.urlPrefix, d.Filename)
	return d, nil
}

// DataURI encodes pdf as an application/pdf data URI.
func DataURI(pdf []byte) string {
	return "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(pdf)
}
