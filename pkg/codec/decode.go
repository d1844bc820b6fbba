package codec

import (
	"bytes"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"

	"github.com/Fepozopo/tmagick/pkg/errs"
	"github.com/Fepozopo/tmagick/pkg/metadata"
	"github.com/Fepozopo/tmagick/pkg/stdimg"
)

// Decode reads the image at path. A non-nil declared format is used instead
// of sniffing the file's leading bytes. Every failure is a DecodeFailure.
func Decode(path string, declared *Format) (*stdimg.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrapf(errs.DecodeFailure, err, "read %s", path)
	}
	img, err := DecodeBytes(data, declared)
	if err != nil {
		return nil, errs.Wrapf(errs.DecodeFailure, err, "decode %s", path)
	}
	img.Props.Filename = path
	slog.Debug("decoded image", "path", path, "format", img.Props.Format,
		"width", img.Width(), "height", img.Height(), "colortype", img.Props.ColorType, "bytes", len(data))
	return img, nil
}

// DecodeBytes decodes an in-memory image.
func DecodeBytes(data []byte, declared *Format) (*stdimg.Image, error) {
	f := Sniff(data)
	if declared != nil {
		f = *declared
	}

	var (
		px  image.Image
		err error
	)
	r := bytes.NewReader(data)
	switch f {
	case JPEG:
		px, err = jpeg.Decode(r)
	case PNG:
		px, err = png.Decode(r)
	case GIF:
		px, err = gif.Decode(r)
	case WebP:
		px, err = webp.Decode(r)
	case BMP:
		px, err = bmp.Decode(r)
	case TIFF:
		px, err = tiff.Decode(r)
	default:
		return nil, errs.New(errs.DecodeFailure, "unrecognized image format")
	}
	if err != nil {
		return nil, errs.Wrapf(errs.DecodeFailure, err, "%s", f)
	}
	if px.Bounds().Empty() {
		return nil, errs.New(errs.DecodeFailure, "%s image has no pixels", f)
	}

	ct, depth := colorType(px)
	img := stdimg.New(px, stdimg.InputProperties{Format: f.String(), ColorType: ct, BitDepth: depth})

	switch f {
	case JPEG:
		img.Exif, img.ICC, err = metadata.FromJPEG(data)
	case PNG:
		var h metadata.PNGHeader
		if h, err = metadata.ReadPNGHeader(data); err == nil {
			img.Props.ColorType, img.Props.BitDepth = pngColorType(h), h.BitDepth
		}
		if err == nil {
			img.Exif, img.ICC, err = metadata.FromPNG(data)
		}
	}
	if err != nil {
		// pixels decoded fine; damaged metadata is dropped
		slog.Warn("ignoring unreadable metadata", "format", f, "error", err)
		img.Exif, img.ICC = nil, nil
	}
	return img, nil
}

func pngColorType(h metadata.PNGHeader) stdimg.ColorType {
	switch h.ColorType {
	case metadata.PNGGray:
		if h.Transparency {
			return stdimg.GrayAlpha
		}
		return stdimg.Gray
	case metadata.PNGGrayAlpha:
		return stdimg.GrayAlpha
	case metadata.PNGRGB:
		if h.Transparency {
			return stdimg.RGBA
		}
		return stdimg.RGB
	case metadata.PNGRGBA:
		return stdimg.RGBA
	case metadata.PNGPalette:
		if h.Transparency {
			return stdimg.PaletteAlpha
		}
		return stdimg.Palette
	}
	return stdimg.ColorUnknown
}

// colorType infers the declared layout from the decoder's pixel type.
func colorType(px image.Image) (stdimg.ColorType, int) {
	switch p := px.(type) {
	case *image.Gray:
		return stdimg.Gray, 8
	case *image.Gray16:
		return stdimg.Gray, 16
	case *image.YCbCr:
		return stdimg.RGB, 8
	case *image.CMYK:
		return stdimg.CMYK, 8
	case *image.Paletted:
		for _, c := range p.Palette {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return stdimg.PaletteAlpha, 8
			}
		}
		return stdimg.Palette, 8
	case *image.NRGBA, *image.RGBA:
		return stdimg.RGBA, 8
	case *image.NRGBA64, *image.RGBA64:
		return stdimg.RGBA, 16
	}
	return stdimg.ColorUnknown, 8
}

// Filesystem decodes images from local paths.
type Filesystem struct{}

// Decode implements the engine's decoder.
func (Filesystem) Decode(path string, declared *Format) (*stdimg.Image, error) {
	return Decode(path, declared)
}
