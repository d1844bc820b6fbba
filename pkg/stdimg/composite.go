package stdimg

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/Fepozopo/tmagick/pkg/errs"
	"github.com/Fepozopo/tmagick/pkg/geometry"
)

// Composite places fg on bg at the position gravity selects, after scaling
// every fg alpha value by alpha when fg carries an alpha channel. A fg without
// alpha is drawn opaque whatever alpha says.
//
// fg is consumed: its pixels are modified and then released, and a second
// Composite with the same fg is an error. Parts of fg outside bg are clipped.
func Composite(bg, fg *Image, gravity geometry.Gravity, alpha geometry.Alpha) error {
	if fg == nil || fg.Consumed() {
		return errs.New(errs.InvalidArgument, "overlay image was already composited")
	}
	px := fg.Pixels
	fg.Pixels = nil
	if bg == nil || bg.Width() == 0 || bg.Height() == 0 {
		return nil
	}

	if fg.Props.ColorType.HasAlpha() {
		ScaleAlpha(px, alpha)
	}
	x, y := geometry.Anchor(gravity, bg.Width(), bg.Height(), px.Rect.Dx(), px.Rect.Dy())
	bg.Pixels = imaging.Overlay(bg.Pixels, px, image.Pt(x, y), 1)
	return nil
}

// ScaleAlpha multiplies every alpha value in img by a, truncating.
func ScaleAlpha(img *image.NRGBA, a geometry.Alpha) {
	if a.Clamped() == geometry.Opaque {
		return
	}
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = a.Scale(img.Pix[i])
	}
}
