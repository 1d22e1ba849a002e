// Package layout places a raster image on a fixed-size PDF page.
package layout

import (
	"fmt"
	"math"

	"pdfbatch/internal/domain"
)

// DefaultMarginFactor keeps a 10% margin so an image never touches the page edges.
const DefaultMarginFactor = 0.9

// Dimensions is a width/height pair in any consistent unit (pixels for images,
// points for pages).
type Dimensions struct {
	Width  float64
	Height float64
}

// Placement is where and how large an image is drawn on its page.
type Placement struct {
	Scale  float64 `json:"scale"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Fit scales img uniformly to fit page with the default margin and centers it.
func Fit(img, page Dimensions) (Placement, error) {
	return FitWithMargin(img, page, DefaultMarginFactor)
}

// FitWithMargin is Fit with an explicit factor applied to the fit-to-page scale.
func FitWithMargin(img, page Dimensions, factor float64) (Placement, error) {
	if !positive(img.Width) || !positive(img.Height) {
		return Placement{}, fmt.Errorf("image %gx%g: %w", img.Width, img.Height, domain.ErrInvalidImageDimensions)
	}
	if !positive(page.Width) || !positive(page.Height) {
		return Placement{}, fmt.Errorf("page %gx%g: %w", page.Width, page.Height, domain.ErrInvalidImageDimensions)
	}
	if !positive(factor) || factor > 1 {
		return Placement{}, fmt.Errorf("margin factor %g out of range (0,1]", factor)
	}

	scale := math.Min(page.Width/img.Width, page.Height/img.Height) * factor
	w := img.Width * scale
	h := img.Height * scale

	return Placement{
		Scale:  scale,
		X:      (page.Width - w) / 2,
		Y:      (page.Height - h) / 2,
		Width:  w,
		Height: h,
	}, nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
