package stdimg

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	xdraw "golang.org/x/image/draw"

	"github.com/Fepozopo/tmagick/pkg/errs"
	"github.com/Fepozopo/tmagick/pkg/geometry"
)

// Filter selects the resampling kernel.
type Filter int

const (
	// Lanczos is a three-lobe Lanczos window, used by resize.
	Lanczos Filter = iota
	// Mitchell is the Mitchell-Netravali cubic, used by thumbnail.
	Mitchell
	// Box averages the source pixels covered by each target pixel, used by
	// scale.
	Box
	// Nearest picks one source pixel per target pixel, used by sample.
	Nearest
)

func (f Filter) String() string {
	switch f {
	case Lanczos:
		return "lanczos"
	case Mitchell:
		return "mitchell"
	case Box:
		return "box"
	case Nearest:
		return "nearest"
	}
	return "unknown"
}

// Resample scales src to w x h with filter f.
func Resample(src *image.NRGBA, w, h int, f Filter) (*image.NRGBA, error) {
	if src == nil {
		return nil, errs.New(errs.InvalidArgument, "nil source image")
	}
	if err := geometry.CheckSize(w, h); err != nil {
		return nil, err
	}
	switch f {
	case Lanczos:
		return ToNRGBA(resize.Resize(uint(w), uint(h), src, resize.Lanczos3)), nil
	case Mitchell:
		return ToNRGBA(resize.Resize(uint(w), uint(h), src, resize.MitchellNetravali)), nil
	case Box:
		return imaging.Resize(src, w, h, imaging.Box), nil
	case Nearest:
		dst := image.NewNRGBA(image.Rect(0, 0, w, h))
		xdraw.NearestNeighbor.Scale(dst, dst.Rect, src, src.Bounds(), xdraw.Src, nil)
		return dst, nil
	}
	return nil, errs.New(errs.InvalidArgument, "unknown filter %d", f)
}

// Resize resamples img in place.
func (img *Image) Resize(w, h int, f Filter) error {
	if w == img.Width() && h == img.Height() {
		return nil
	}
	px, err := Resample(img.Pixels, w, h, f)
	if err != nil {
		return err
	}
	return img.replace(px, f.String()+" resample")
}

// Crop cuts r out of img. r must lie within the image.
func (img *Image) Crop(r image.Rectangle) error {
	if !r.In(img.Pixels.Rect) || r.Empty() {
		return errs.New(errs.InvalidGeometry, "crop %v outside %dx%d image", r, img.Width(), img.Height())
	}
	return img.replace(imaging.Crop(img.Pixels, r), "crop")
}
