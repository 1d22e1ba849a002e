package batch

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"codeberg.org/go-pdf/fpdf"

	"pdfbatch/internal/domain"
)

func gradient(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	return img
}

func jpegFile(t *testing.T, name string, w, h int) *domain.UploadedFile {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, gradient(w, h), &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return domain.NewMemoryFile(name, "image/jpeg", buf.Bytes())
}

func pngFile(t *testing.T, name string, w, h int) *domain.UploadedFile {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, gradient(w, h)); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return domain.NewMemoryFile(name, "image/png", buf.Bytes())
}

// pdfBytes builds a document with one page per width, all 1000pt tall, so page
// order can be read back from the page dimensions.
func pdfBytes(t *testing.T, widths ...float64) []byte {
	t.Helper()
	doc := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "pt",
		Size:    fpdf.SizeType{Wd: widths[0], Ht: 1000},
	})
	for _, w := range widths {
		doc.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: 1000})
	}
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		t.Fatalf("build pdf: %v", err)
	}
	return buf.Bytes()
}

func pdfFile(t *testing.T, name string, widths ...float64) *domain.UploadedFile {
	t.Helper()
	return domain.NewMemoryFile(name, "application/pdf", pdfBytes(t, widths...))
}

// emptyPDF is a structurally valid document whose page tree has no kids.
func emptyPDF() []byte {
	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [] /Count 0 >>",
	}
	offsets := make([]int, 0, len(objs))
	for i, o := range objs {
		offsets = append(offsets, b.Len())
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return b.Bytes()
}
