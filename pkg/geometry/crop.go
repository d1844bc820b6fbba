package geometry

import (
	"fmt"
	"image"
	"math"

	"github.com/Fepozopo/tmagick/pkg/errs"
)

// Length is a crop measurement in pixels, or a percentage of the image
// dimension along the same axis when Relative is set.
type Length struct {
	Value    float64
	Relative bool
}

// Px returns an absolute length.
func Px(v int) Length { return Length{Value: float64(v)} }

// Pct returns a length relative to the image dimension.
func Pct(v float64) Length { return Length{Value: v, Relative: true} }

// Resolve converts l to pixels against dim.
func (l Length) Resolve(dim int) int {
	if l.Relative {
		return round(float64(dim) * l.Value / 100)
	}
	return int(math.Trunc(l.Value))
}

func (l Length) String() string {
	if l.Relative {
		return fmt.Sprintf("%g%%", l.Value)
	}
	return fmt.Sprintf("%g", l.Value)
}

// CropGeometry is a crop rectangle resolved against the image dimensions at
// the point of the pipeline where it runs. A zero width or height extends the
// rectangle to the image edge.
type CropGeometry struct {
	Width, Height Length
	X, Y          Length
}

// LoadCropGeometry is a crop applied to the freshly decoded image, before any
// other operation.
type LoadCropGeometry CropGeometry

// Rect resolves g against a w x h image and clips the result to the image.
// An empty intersection is an InvalidGeometry error.
func (g CropGeometry) Rect(w, h int) (image.Rectangle, error) {
	if w <= 0 || h <= 0 {
		return image.Rectangle{}, errs.New(errs.InvalidGeometry, "cannot crop an image with no area")
	}
	cw, ch := g.Width.Resolve(w), g.Height.Resolve(h)
	x, y := g.X.Resolve(w), g.Y.Resolve(h)
	if cw < 0 || ch < 0 {
		return image.Rectangle{}, errs.New(errs.InvalidGeometry, "negative crop size %dx%d", cw, ch)
	}
	if cw == 0 {
		cw = w - x
	}
	if ch == 0 {
		ch = h - y
	}
	r := image.Rect(x, y, x+cw, y+ch).Intersect(image.Rect(0, 0, w, h))
	if r.Empty() {
		return image.Rectangle{}, errs.New(errs.InvalidGeometry, "crop %s lies outside the %dx%d image", g, w, h)
	}
	return r, nil
}

// Rect resolves g against a w x h image.
func (g LoadCropGeometry) Rect(w, h int) (image.Rectangle, error) {
	return CropGeometry(g).Rect(w, h)
}

func (g CropGeometry) String() string {
	return fmt.Sprintf("%sx%s%s%s", g.Width, g.Height, signed(g.X), signed(g.Y))
}

func (g LoadCropGeometry) String() string { return CropGeometry(g).String() }

func signed(l Length) string {
	if l.Value < 0 {
		return l.String()
	}
	return "+" + l.String()
}
