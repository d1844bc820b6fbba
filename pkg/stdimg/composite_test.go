package stdimg

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"testing"

	"github.com/Fepozopo/tmagick/pkg/errs"
	"github.com/Fepozopo/tmagick/pkg/geometry"
)

// makeSolidNRGBA returns a w x h buffer filled with c.
func makeSolidNRGBA(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

// near reports whether got is want or one step below it in every channel.
// Blending truncates rather than rounds.
func near(got, want color.NRGBA) bool {
	g := []uint8{got.R, got.G, got.B, got.A}
	w := []uint8{want.R, want.G, want.B, want.A}
	for i := range g {
		if g[i] != w[i] && int(g[i]) != int(w[i])-1 {
			return false
		}
	}
	return true
}

func solidImage(w, h int, c color.NRGBA, ct ColorType) *Image {
	return &Image{Pixels: makeSolidNRGBA(w, h, c), Props: InputProperties{ColorType: ct, BitDepth: 8}}
}

func saveTestOutput(t *testing.T, name string, img *image.NRGBA) {
	if os.Getenv("TMAGICK_SAVE_TEST_OUTPUT") != "1" {
		return
	}
	f, err := os.Create(name)
	if err != nil {
		t.Logf("save %s: %v", name, err)
		return
	}
	defer f.Close()
	png.Encode(f, img)
}

func TestCompositeNorthwestOpaqueRoundTrip(t *testing.T) {
	bg := solidImage(10, 8, color.NRGBA{R: 255, A: 255}, RGB)
	fg := &Image{Pixels: image.NewNRGBA(image.Rect(0, 0, 4, 3)), Props: InputProperties{ColorType: RGBA}}
	for i := 0; i < len(fg.Pixels.Pix); i += 4 {
		fg.Pixels.Pix[i+0] = uint8(i * 3)
		fg.Pixels.Pix[i+1] = uint8(255 - i)
		fg.Pixels.Pix[i+2] = uint8(i * 7)
		fg.Pixels.Pix[i+3] = 255
	}
	want := CloneNRGBA(fg.Pixels)

	if err := Composite(bg, fg, geometry.Northwest, geometry.Opaque); err != nil {
		t.Fatalf("composite failed: %v", err)
	}
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			if got, exp := at(bg.Pixels, x, y), at(want, x, y); got != exp {
				t.Fatalf("pixel %d,%d: want %v got %v", x, y, exp, got)
			}
		}
	}
	if got := at(bg.Pixels, 4, 0); got != (color.NRGBA{R: 255, A: 255}) {
		t.Fatalf("pixel outside overlay changed: %v", got)
	}
	if !fg.Consumed() {
		t.Fatalf("expected overlay to be consumed")
	}
	saveTestOutput(t, "composite_test_out.png", bg.Pixels)
}

func TestCompositeAlphaZeroLeavesBackground(t *testing.T) {
	bg := solidImage(6, 6, color.NRGBA{R: 10, G: 20, B: 30, A: 255}, RGB)
	want := CloneNRGBA(bg.Pixels)
	fg := solidImage(6, 6, color.NRGBA{R: 200, G: 200, B: 200, A: 255}, RGBA)
	if err := Composite(bg, fg, geometry.Center, 0); err != nil {
		t.Fatalf("composite failed: %v", err)
	}
	for i := range want.Pix {
		if bg.Pixels.Pix[i] != want.Pix[i] {
			t.Fatalf("background changed at byte %d", i)
		}
	}
}

func TestCompositeHalfAlpha(t *testing.T) {
	bg := solidImage(4, 4, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, RGB)
	fg := solidImage(2, 2, color.NRGBA{A: 255}, RGBA)
	if err := Composite(bg, fg, geometry.Southeast, 0.5); err != nil {
		t.Fatalf("composite failed: %v", err)
	}
	// 255*0.5 truncates to 127, leaving 128/255 of the white background
	if got := at(bg.Pixels, 3, 3); !near(got, color.NRGBA{R: 128, G: 128, B: 128, A: 255}) {
		t.Fatalf("unexpected blended pixel %v", got)
	}
	if got := at(bg.Pixels, 1, 1); got != (color.NRGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Fatalf("pixel outside overlay changed: %v", got)
	}
}

func TestCompositeOverlayWithoutAlphaIsOpaque(t *testing.T) {
	bg := solidImage(4, 4, color.NRGBA{R: 255, A: 255}, RGB)
	fg := solidImage(2, 2, color.NRGBA{B: 255, A: 255}, RGB)
	if err := Composite(bg, fg, geometry.Center, 0.25); err != nil {
		t.Fatalf("composite failed: %v", err)
	}
	if got := at(bg.Pixels, 1, 1); got != (color.NRGBA{B: 255, A: 255}) {
		t.Fatalf("expected opaque overlay, got %v", got)
	}
}

func TestCompositeClipsLargeOverlay(t *testing.T) {
	bg := solidImage(10, 10, color.NRGBA{A: 255}, RGB)
	fg := &Image{Pixels: image.NewNRGBA(image.Rect(0, 0, 20, 20)), Props: InputProperties{ColorType: RGBA}}
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			fg.Pixels.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}
	if err := Composite(bg, fg, geometry.Center, geometry.Opaque); err != nil {
		t.Fatalf("composite failed: %v", err)
	}
	// centered: offset -5,-5
	if got := at(bg.Pixels, 0, 0); got.R != 5 || got.G != 5 {
		t.Fatalf("expected overlay pixel 5,5 at origin, got %v", got)
	}
	if got := at(bg.Pixels, 9, 9); got.R != 14 || got.G != 14 {
		t.Fatalf("expected overlay pixel 14,14 at corner, got %v", got)
	}
}

func TestCompositeConsumesOverlay(t *testing.T) {
	bg := solidImage(4, 4, color.NRGBA{A: 255}, RGB)
	fg := solidImage(2, 2, color.NRGBA{R: 9, A: 255}, RGBA)
	if err := Composite(bg, fg, geometry.Center, 1); err != nil {
		t.Fatalf("composite failed: %v", err)
	}
	err := Composite(bg, fg, geometry.Center, 1)
	if !errs.Is(err, errs.InvalidArgument) {
		t.Fatalf("expected InvalidArgument on reuse, got %v", err)
	}
}

func TestCompositeEmptyBackgroundIsNoop(t *testing.T) {
	bg := &Image{Pixels: image.NewNRGBA(image.Rect(0, 0, 0, 0))}
	fg := solidImage(2, 2, color.NRGBA{A: 255}, RGBA)
	if err := Composite(bg, fg, geometry.North, 1); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestCompositeTranslucentOnTransparent(t *testing.T) {
	bg := &Image{Pixels: image.NewNRGBA(image.Rect(0, 0, 3, 3)), Props: InputProperties{ColorType: RGBA}}
	fg := solidImage(1, 1, color.NRGBA{R: 40, G: 80, B: 120, A: 100}, RGBA)
	if err := Composite(bg, fg, geometry.Center, geometry.Opaque); err != nil {
		t.Fatalf("composite failed: %v", err)
	}
	if got := at(bg.Pixels, 1, 1); got != (color.NRGBA{R: 40, G: 80, B: 120, A: 100}) {
		t.Fatalf("expected source copied onto transparent pixel, got %v", got)
	}
	if got := at(bg.Pixels, 0, 0); got.A != 0 {
		t.Fatalf("pixel outside overlay became visible: %v", got)
	}
}

func TestCompositeNegativeOffsetClipsTopLeft(t *testing.T) {
	bg := solidImage(4, 4, color.NRGBA{A: 255}, RGB)
	fg := &Image{Pixels: numbered(6, 6), Props: InputProperties{ColorType: RGB}}
	if err := Composite(bg, fg, geometry.Southeast, geometry.Opaque); err != nil {
		t.Fatalf("composite failed: %v", err)
	}
	// southeast places the 6x6 overlay at -2,-2
	if got := at(bg.Pixels, 0, 0); got.R != 2 || got.G != 2 {
		t.Fatalf("expected overlay pixel 2,2 at origin, got %v", got)
	}
	if got := at(bg.Pixels, 3, 3); got.R != 5 || got.G != 5 {
		t.Fatalf("expected overlay pixel 5,5 at corner, got %v", got)
	}
}
