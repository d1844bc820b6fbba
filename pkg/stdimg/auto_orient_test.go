package stdimg

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"testing"

	"github.com/Fepozopo/tmagick/pkg/metadata"
)

// orientationTIFF builds a little-endian TIFF block holding only an
// orientation tag.
func orientationTIFF(o uint16) []byte {
	buf := &bytes.Buffer{}
	buf.WriteString("II")
	_ = binary.Write(buf, binary.LittleEndian, uint16(0x2A))
	_ = binary.Write(buf, binary.LittleEndian, uint32(8))
	_ = binary.Write(buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(buf, binary.LittleEndian, uint16(0x0112))
	_ = binary.Write(buf, binary.LittleEndian, uint16(3))
	_ = binary.Write(buf, binary.LittleEndian, uint32(1))
	_ = binary.Write(buf, binary.LittleEndian, o)
	_ = binary.Write(buf, binary.LittleEndian, uint16(0))
	_ = binary.Write(buf, binary.LittleEndian, uint32(0))
	return buf.Bytes()
}

// numbered returns a w x h image whose pixel x,y has R=x and G=y.
func numbered(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}
	return img
}

func TestOrientCorners(t *testing.T) {
	// a 3x2 source; each case names which source pixel lands at the output's
	// top-left and bottom-right corners
	cases := []struct {
		o      int
		w, h   int
		tl, br [2]uint8
	}{
		{1, 3, 2, [2]uint8{0, 0}, [2]uint8{2, 1}},
		{2, 3, 2, [2]uint8{2, 0}, [2]uint8{0, 1}},
		{3, 3, 2, [2]uint8{2, 1}, [2]uint8{0, 0}},
		{4, 3, 2, [2]uint8{0, 1}, [2]uint8{2, 0}},
		{5, 2, 3, [2]uint8{0, 0}, [2]uint8{2, 1}},
		{6, 2, 3, [2]uint8{0, 1}, [2]uint8{2, 0}},
		{7, 2, 3, [2]uint8{2, 1}, [2]uint8{0, 0}},
		{8, 2, 3, [2]uint8{2, 0}, [2]uint8{0, 1}},
	}
	for _, c := range cases {
		out := Orient(numbered(3, 2), c.o)
		if out.Rect.Dx() != c.w || out.Rect.Dy() != c.h {
			t.Fatalf("orientation %d: expected %dx%d, got %v", c.o, c.w, c.h, out.Rect)
		}
		tl := at(out, 0, 0)
		br := at(out, c.w-1, c.h-1)
		if tl.R != c.tl[0] || tl.G != c.tl[1] {
			t.Fatalf("orientation %d: top-left is source %d,%d, want %v", c.o, tl.R, tl.G, c.tl)
		}
		if br.R != c.br[0] || br.G != c.br[1] {
			t.Fatalf("orientation %d: bottom-right is source %d,%d, want %v", c.o, br.R, br.G, c.br)
		}
	}
}

func TestAutoOrientResetsTag(t *testing.T) {
	img := &Image{Pixels: numbered(4, 2), Exif: orientationTIFF(6)}
	if err := AutoOrient(img); err != nil {
		t.Fatalf("auto-orient failed: %v", err)
	}
	if img.Width() != 2 || img.Height() != 4 {
		t.Fatalf("expected 2x4 after rotation, got %dx%d", img.Width(), img.Height())
	}
	if o := metadata.Orientation(img.Exif); o != 1 {
		t.Fatalf("expected orientation reset to 1, got %d", o)
	}

	// a second pass is a no-op
	before := CloneNRGBA(img.Pixels)
	if err := AutoOrient(img); err != nil {
		t.Fatalf("auto-orient failed: %v", err)
	}
	if !bytes.Equal(before.Pix, img.Pixels.Pix) {
		t.Fatalf("second auto-orient changed pixels")
	}
}

func TestAutoOrientWithoutExif(t *testing.T) {
	img := &Image{Pixels: numbered(3, 3)}
	if err := AutoOrient(img); err != nil {
		t.Fatalf("auto-orient failed: %v", err)
	}
	if img.Exif != nil {
		t.Fatalf("expected exif to stay empty")
	}
}
