package stdimg

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/Fepozopo/tmagick/pkg/metadata"
)

// AutoOrient rotates and mirrors img so that it displays upright according to
// its EXIF orientation, then resets the orientation tag to 1. Images without
// EXIF or already upright are left alone.
func AutoOrient(img *Image) error {
	o := metadata.Orientation(img.Exif)
	if o == 1 {
		return nil
	}
	if err := img.replace(Orient(img.Pixels, o), "auto-orient"); err != nil {
		return err
	}
	img.Exif = metadata.SetOrientation(img.Exif, 1)
	return nil
}

// Orient applies an EXIF orientation (1..8) to src and returns a new buffer.
// Orientation 1 and unknown values return src unchanged.
func Orient(src *image.NRGBA, orientation int) *image.NRGBA {
	switch orientation {
	case 2:
		return imaging.FlipH(src)
	case 3:
		return imaging.Rotate180(src)
	case 4:
		return imaging.FlipV(src)
	case 5:
		return imaging.Transpose(src)
	case 6:
		// imaging rotates counter-clockwise
		return imaging.Rotate270(src)
	case 7:
		return imaging.Transverse(src)
	case 8:
		return imaging.Rotate90(src)
	default:
		return src
	}
}
