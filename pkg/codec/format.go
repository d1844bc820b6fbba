// Package codec reads images from and writes images to the filesystem,
// carrying EXIF and ICC metadata across where the container allows it.
package codec

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/Fepozopo/tmagick/pkg/errs"
)

// Format is an image container format.
type Format int

const (
	Unknown Format = iota
	JPEG
	PNG
	GIF
	WebP
	BMP
	TIFF
)

var formatNames = map[Format]string{
	Unknown: "unknown",
	JPEG:    "jpeg",
	PNG:     "png",
	GIF:     "gif",
	WebP:    "webp",
	BMP:     "bmp",
	TIFF:    "tiff",
}

var formatAliases = map[string]Format{
	"jpeg": JPEG,
	"jpg":  JPEG,
	"jpe":  JPEG,
	"png":  PNG,
	"gif":  GIF,
	"webp": WebP,
	"bmp":  BMP,
	"dib":  BMP,
	"tiff": TIFF,
	"tif":  TIFF,
}

func (f Format) String() string {
	if s, ok := formatNames[f]; ok {
		return s
	}
	return formatNames[Unknown]
}

// CanEncode reports whether Encode supports f.
func (f Format) CanEncode() bool {
	switch f {
	case JPEG, PNG, GIF, BMP, TIFF:
		return true
	}
	return false
}

// ParseFormat resolves a format name or file extension such as "jpg".
func ParseFormat(name string) (Format, error) {
	if f, ok := formatAliases[strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "."))]; ok {
		return f, nil
	}
	return Unknown, errs.New(errs.InvalidArgument, "unknown image format %q", name)
}

// FromExtension returns the format named by path's extension.
func FromExtension(path string) (Format, bool) {
	f, err := ParseFormat(filepath.Ext(path))
	return f, err == nil
}

// OutputFormat picks the format to write path in: the explicit override
// when given, else the extension, else JPEG.
func OutputFormat(path, override string) (Format, error) {
	if override != "" {
		return ParseFormat(override)
	}
	if f, ok := FromExtension(path); ok {
		return f, nil
	}
	return JPEG, nil
}

// Sniff identifies the format from the leading bytes of data.
func Sniff(data []byte) Format {
	switch {
	case len(data) >= 3 && bytes.Equal(data[:3], []byte{0xFF, 0xD8, 0xFF}):
		return JPEG
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return PNG
	case bytes.HasPrefix(data, []byte("GIF87a")) || bytes.HasPrefix(data, []byte("GIF89a")):
		return GIF
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return WebP
	case bytes.HasPrefix(data, []byte("BM")):
		return BMP
	case bytes.HasPrefix(data, []byte("II*\x00")) || bytes.HasPrefix(data, []byte("MM\x00*")):
		return TIFF
	}
	return Unknown
}
