package stdimg

import (
	"image"

	"github.com/Fepozopo/tmagick/pkg/errs"
)

// ColorType is the channel layout an image was declared with in its source
// file. It decides whether the image carries alpha, independent of the
// in-memory pixel format.
type ColorType int

const (
	ColorUnknown ColorType = iota
	Gray
	GrayAlpha
	RGB
	RGBA
	Palette
	PaletteAlpha
	CMYK
)

var colorTypeNames = [...]string{
	ColorUnknown: "unknown",
	Gray:         "gray",
	GrayAlpha:    "graya",
	RGB:          "rgb",
	RGBA:         "rgba",
	Palette:      "palette",
	PaletteAlpha: "palettea",
	CMYK:         "cmyk",
}

func (c ColorType) String() string {
	if c < 0 || int(c) >= len(colorTypeNames) {
		return colorTypeNames[ColorUnknown]
	}
	return colorTypeNames[c]
}

// HasAlpha reports whether the color type carries an alpha channel.
func (c ColorType) HasAlpha() bool {
	switch c {
	case GrayAlpha, RGBA, PaletteAlpha:
		return true
	}
	return false
}

// InputProperties describe where an image came from.
type InputProperties struct {
	Filename  string
	Format    string
	ColorType ColorType
	BitDepth  int
}

// Image is a decoded raster with the metadata carried alongside it. Pixels
// always start at the origin.
type Image struct {
	Pixels *image.NRGBA
	// Exif holds the raw TIFF structure of the EXIF block, without the
	// "Exif\0\0" marker.
	Exif  []byte
	ICC   []byte
	Props InputProperties
}

// New wraps pixels, converting them to a zero-origin NRGBA buffer.
func New(pixels image.Image, props InputProperties) *Image {
	return &Image{Pixels: ToNRGBA(pixels), Props: props}
}

func (img *Image) Width() int {
	if img == nil || img.Pixels == nil {
		return 0
	}
	return img.Pixels.Rect.Dx()
}

func (img *Image) Height() int {
	if img == nil || img.Pixels == nil {
		return 0
	}
	return img.Pixels.Rect.Dy()
}

// Consumed reports whether the pixels were handed to the compositor.
func (img *Image) Consumed() bool {
	return img.Pixels == nil
}

// replace swaps in a new pixel buffer, rejecting empty results.
func (img *Image) replace(px *image.NRGBA, op string) error {
	if px == nil || px.Rect.Dx() <= 0 || px.Rect.Dy() <= 0 {
		return errs.New(errs.InvalidGeometry, "%s produced an empty image", op)
	}
	img.Pixels = px
	return nil
}
