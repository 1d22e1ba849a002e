package intake

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfbatch/internal/domain"
)

type part struct {
	name  string
	ctype string
	data  []byte
}

func buildForm(t *testing.T, field string, parts ...part) *multipart.Form {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, p.name))
		h.Set("Content-Type", p.ctype)
		pw, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = pw.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8)), nil))
	return buf.Bytes()
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	return buf.Bytes()
}

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< >>\nendobj\ntrailer\n<< >>\n%%EOF\n")

func names(b *Batch) []string {
	out := make([]string, 0, b.Len())
	for _, f := range b.Files {
		out = append(out, f.OriginalName)
	}
	return out
}

func TestCollect_FiltersByPolicyAndKeepsOrder(t *testing.T) {
	in, err := New("")
	require.NoError(t, err)

	form := buildForm(t, "images",
		part{"a.png", "image/png", pngBytes(t)},
		part{"notes.txt", "text/plain", []byte("hello")},
		part{"b.jpg", "image/jpeg", jpegBytes(t)},
		part{"c.jpg", "image/jpg", jpegBytes(t)},
		part{"doc.pdf", "application/pdf", pdfBytes},
	)

	batch, err := in.Collect(form, ImagePolicy)
	require.NoError(t, err)
	defer batch.Release()
	assert.Equal(t, []string{"a.png", "b.jpg", "c.jpg"}, names(batch))
	assert.Equal(t, "image/jpg", batch.Files[2].MediaType)
}

func TestCollect_RejectsMismatchedContent(t *testing.T) {
	in, _ := New("")
	form := buildForm(t, "pdfs",
		part{"fake.pdf", "application/pdf", pngBytes(t)},
		part{"real.pdf", "application/pdf", pdfBytes},
	)
	batch, err := in.Collect(form, PDFPolicy)
	require.NoError(t, err)
	assert.Equal(t, []string{"real.pdf"}, names(batch))
}

func TestCollect_SizeAndCountCeilings(t *testing.T) {
	in, _ := New("")
	big := append(append([]byte{}, pdfBytes...), bytes.Repeat([]byte(" "), 200)...)
	form := buildForm(t, "pdfs",
		part{"big.pdf", "application/pdf", big},
		part{"one.pdf", "application/pdf", pdfBytes},
		part{"two.pdf", "application/pdf", pdfBytes},
		part{"three.pdf", "application/pdf", pdfBytes},
	)
	policy := PDFPolicy.WithLimits(int64(len(pdfBytes)+10), 2)

	batch, err := in.Collect(form, policy)
	require.NoError(t, err)
	assert.Equal(t, []string{"one.pdf", "two.pdf"}, names(batch))
}

func TestCollect_EmptyBatch(t *testing.T) {
	in, _ := New("")

	_, err := in.Collect(nil, ImagePolicy)
	assert.ErrorIs(t, err, domain.ErrEmptyBatch)

	form := buildForm(t, "images", part{"x.gif", "image/gif", []byte("GIF89a")})
	_, err = in.Collect(form, ImagePolicy)
	assert.True(t, errors.Is(err, domain.ErrEmptyBatch))

	// wrong field name
	form = buildForm(t, "files", part{"a.png", "image/png", pngBytes(t)})
	_, err = in.Collect(form, ImagePolicy)
	assert.ErrorIs(t, err, domain.ErrEmptyBatch)
}

func TestCollect_SpoolsAndReleases(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "spool")
	in, err := New(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, in.SpoolDir())

	png := pngBytes(t)
	form := buildForm(t, "images",
		part{"a.png", "image/png", png},
		part{"b.jpg", "image/jpeg", jpegBytes(t)},
	)
	batch, err := in.Collect(form, ImagePolicy)
	require.NoError(t, err)
	require.Equal(t, 2, batch.Len())

	p := batch.Files[0].Path()
	assert.True(t, strings.HasPrefix(filepath.Base(p), "images-"))
	assert.Equal(t, ".png", filepath.Ext(p))
	got, err := batch.Files[0].Content()
	require.NoError(t, err)
	assert.Equal(t, png, got)

	batch.Release()
	batch.Release()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPolicy_WithLimitsKeepsDefaults(t *testing.T) {
	p := ImagePolicy.WithLimits(0, 0)
	assert.Equal(t, DefaultMaxFileBytes, p.MaxFileBytes)
	assert.Equal(t, 0, p.MaxFiles)
	assert.Equal(t, DefaultMaxFileBytes, ImagePolicy.MaxFileBytes, "presets must not be mutated")
}
