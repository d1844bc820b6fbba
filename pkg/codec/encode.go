package codec

import (
	"bytes"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"log/slog"
	"math"
	"os"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/Fepozopo/tmagick/pkg/errs"
	"github.com/Fepozopo/tmagick/pkg/metadata"
	"github.com/Fepozopo/tmagick/pkg/stdimg"
)

// DefaultQuality is the JPEG quality used when none is requested.
const DefaultQuality = 92

// EncodeOptions controls how an image is written.
type EncodeOptions struct {
	// Quality is the JPEG quality in 1..100. Zero selects DefaultQuality.
	Quality   float64
	StripExif bool
	StripICC  bool
}

func (o EncodeOptions) quality() int {
	if o.Quality <= 0 {
		return DefaultQuality
	}
	return int(math.Round(math.Min(o.Quality, 100)))
}

// Encode writes img to path in format f. Every failure is an EncodeFailure.
func Encode(img *stdimg.Image, path string, f Format, opts EncodeOptions) error {
	data, err := EncodeBytes(img, f, opts)
	if err != nil {
		return errs.Wrapf(errs.EncodeFailure, err, "encode %s", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errs.Wrapf(errs.EncodeFailure, err, "write %s", path)
	}
	slog.Debug("encoded image", "path", path, "format", f, "width", img.Width(), "height", img.Height(), "bytes", len(data))
	return nil
}

// EncodeBytes encodes img in memory.
func EncodeBytes(img *stdimg.Image, f Format, opts EncodeOptions) ([]byte, error) {
	if img == nil || img.Consumed() {
		return nil, errs.New(errs.EncodeFailure, "no pixels to encode")
	}
	exif, icc := img.Exif, img.ICC
	if opts.StripExif {
		exif = nil
	}
	if opts.StripICC {
		icc = nil
	}

	var buf bytes.Buffer
	switch f {
	case JPEG:
		if err := jpeg.Encode(&buf, opaque(img.Pixels), &jpeg.Options{Quality: opts.quality()}); err != nil {
			return nil, errs.Wrap(errs.EncodeFailure, err, "jpeg")
		}
		if len(exif) == 0 && len(icc) == 0 {
			return buf.Bytes(), nil
		}
		segs, err := metadata.JPEGSegments(exif, icc)
		if err != nil {
			return nil, errs.Wrap(errs.EncodeFailure, err, "jpeg metadata")
		}
		out, err := metadata.InsertAppSegmentsIntoJPEG(buf.Bytes(), segs)
		if err != nil {
			return nil, errs.Wrap(errs.EncodeFailure, err, "jpeg metadata")
		}
		return out, nil
	case PNG:
		if err := png.Encode(&buf, img.Pixels); err != nil {
			return nil, errs.Wrap(errs.EncodeFailure, err, "png")
		}
		if len(exif) == 0 && len(icc) == 0 {
			return buf.Bytes(), nil
		}
		out, err := metadata.InsertPNGMetadata(buf.Bytes(), exif, icc)
		if err != nil {
			return nil, errs.Wrap(errs.EncodeFailure, err, "png metadata")
		}
		return out, nil
	case GIF:
		if err := gif.Encode(&buf, img.Pixels, nil); err != nil {
			return nil, errs.Wrap(errs.EncodeFailure, err, "gif")
		}
	case BMP:
		if err := bmp.Encode(&buf, img.Pixels); err != nil {
			return nil, errs.Wrap(errs.EncodeFailure, err, "bmp")
		}
	case TIFF:
		if err := tiff.Encode(&buf, img.Pixels, &tiff.Options{Compression: tiff.Deflate}); err != nil {
			return nil, errs.Wrap(errs.EncodeFailure, err, "tiff")
		}
	default:
		return nil, errs.New(errs.EncodeFailure, "writing %s is not supported", f)
	}
	if len(exif) > 0 || len(icc) > 0 {
		slog.Debug("metadata dropped by container", "format", f)
	}
	return buf.Bytes(), nil
}

// opaque drops the alpha channel, keeping the stored color values.
func opaque(src *image.NRGBA) *image.NRGBA {
	dst := stdimg.CloneNRGBA(src)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

// Encode implements the engine's encoder.
func (Filesystem) Encode(img *stdimg.Image, path string, f Format, opts EncodeOptions) error {
	return Encode(img, path, f, opts)
}
