package codec

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fepozopo/tmagick/pkg/errs"
	"github.com/Fepozopo/tmagick/pkg/metadata"
	"github.com/Fepozopo/tmagick/pkg/stdimg"
)

func gradient(w, h int, alpha uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 8), G: uint8(y * 8), B: 100, A: alpha})
		}
	}
	return img
}

func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, buf.Bytes(), 0o644))
	return p
}

func orientationTIFF(o uint16) []byte {
	buf := &bytes.Buffer{}
	buf.WriteString("MM")
	_ = binary.Write(buf, binary.BigEndian, uint16(0x2A))
	_ = binary.Write(buf, binary.BigEndian, uint32(8))
	_ = binary.Write(buf, binary.BigEndian, uint16(1))
	_ = binary.Write(buf, binary.BigEndian, uint16(0x0112))
	_ = binary.Write(buf, binary.BigEndian, uint16(3))
	_ = binary.Write(buf, binary.BigEndian, uint32(1))
	_ = binary.Write(buf, binary.BigEndian, o)
	_ = binary.Write(buf, binary.BigEndian, uint16(0))
	_ = binary.Write(buf, binary.BigEndian, uint32(0))
	return buf.Bytes()
}

func TestSniff(t *testing.T) {
	cases := map[string]Format{
		"\xff\xd8\xff\xe0":                JPEG,
		"\x89PNG\r\n\x1a\nxxxx":           PNG,
		"GIF89a....":                      GIF,
		"RIFF\x00\x00\x00\x00WEBPVP8 ":    WebP,
		"BM\x00\x00":                      BMP,
		"II*\x00\x08\x00\x00\x00":         TIFF,
		"MM\x00*\x00\x00\x00\x08":         TIFF,
		"plain text is not an image file": Unknown,
		"":                                Unknown,
	}
	for in, want := range cases {
		assert.Equal(t, want, Sniff([]byte(in)), "%q", in)
	}
}

func TestParseAndOutputFormat(t *testing.T) {
	f, err := ParseFormat("JPG")
	require.NoError(t, err)
	assert.Equal(t, JPEG, f)

	f, err = ParseFormat(".tif")
	require.NoError(t, err)
	assert.Equal(t, TIFF, f)

	_, err = ParseFormat("psd")
	assert.True(t, errs.Is(err, errs.InvalidArgument))

	f, err = OutputFormat("out.png", "")
	require.NoError(t, err)
	assert.Equal(t, PNG, f)

	f, err = OutputFormat("out.png", "gif")
	require.NoError(t, err)
	assert.Equal(t, GIF, f)

	f, err = OutputFormat("out", "")
	require.NoError(t, err)
	assert.Equal(t, JPEG, f)

	assert.False(t, WebP.CanEncode())
	assert.True(t, BMP.CanEncode())
}

func TestDecodePNGColorTypes(t *testing.T) {
	dir := t.TempDir()

	rgb, err := Decode(writePNG(t, dir, "opaque.png", gradient(4, 3, 255)), nil)
	require.NoError(t, err)
	assert.Equal(t, stdimg.RGB, rgb.Props.ColorType)
	assert.Equal(t, "png", rgb.Props.Format)
	assert.Equal(t, 4, rgb.Width())
	assert.Equal(t, 3, rgb.Height())

	rgba, err := Decode(writePNG(t, dir, "alpha.png", gradient(4, 3, 128)), nil)
	require.NoError(t, err)
	assert.Equal(t, stdimg.RGBA, rgba.Props.ColorType)
	assert.Equal(t, uint8(128), rgba.Pixels.Pix[3])

	gray := image.NewGray(image.Rect(0, 0, 2, 2))
	g, err := Decode(writePNG(t, dir, "gray.png", gray), nil)
	require.NoError(t, err)
	assert.Equal(t, stdimg.Gray, g.Props.ColorType)
}

func TestDecodeFailures(t *testing.T) {
	dir := t.TempDir()

	_, err := Decode(filepath.Join(dir, "missing.png"), nil)
	assert.True(t, errs.Is(err, errs.DecodeFailure), "%v", err)

	junk := filepath.Join(dir, "junk.png")
	require.NoError(t, os.WriteFile(junk, []byte("not an image"), 0o644))
	_, err = Decode(junk, nil)
	assert.True(t, errs.Is(err, errs.DecodeFailure), "%v", err)

	// a declared format overrides sniffing
	p := writePNG(t, dir, "real.png", gradient(2, 2, 255))
	declared := JPEG
	_, err = Decode(p, &declared)
	assert.True(t, errs.Is(err, errs.DecodeFailure), "%v", err)
}

func TestJPEGRoundTripKeepsMetadata(t *testing.T) {
	dir := t.TempDir()
	img := stdimg.New(gradient(16, 8, 255), stdimg.InputProperties{})
	img.Exif = orientationTIFF(6)
	img.ICC = bytes.Repeat([]byte{0xAB}, 70000)

	out := filepath.Join(dir, "out.jpg")
	require.NoError(t, Encode(img, out, JPEG, EncodeOptions{Quality: 80}))

	got, err := Decode(out, nil)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", got.Props.Format)
	assert.Equal(t, stdimg.RGB, got.Props.ColorType)
	assert.Equal(t, 6, metadata.Orientation(got.Exif))
	assert.Equal(t, img.ICC, got.ICC)
}

func TestEncodeStripsIndependently(t *testing.T) {
	img := stdimg.New(gradient(4, 4, 255), stdimg.InputProperties{})
	img.Exif = orientationTIFF(3)
	img.ICC = []byte("fake icc profile")

	data, err := EncodeBytes(img, PNG, EncodeOptions{StripExif: true})
	require.NoError(t, err)
	exif, icc, err := metadata.FromPNG(data)
	require.NoError(t, err)
	assert.Nil(t, exif)
	assert.Equal(t, img.ICC, icc)

	data, err = EncodeBytes(img, JPEG, EncodeOptions{StripICC: true})
	require.NoError(t, err)
	exif, icc, err = metadata.FromJPEG(data)
	require.NoError(t, err)
	assert.Equal(t, 3, metadata.Orientation(exif))
	assert.Nil(t, icc)

	// the image itself is untouched
	assert.NotNil(t, img.Exif)
	assert.NotNil(t, img.ICC)
}

func TestJPEGDropsAlpha(t *testing.T) {
	img := stdimg.New(gradient(8, 8, 0), stdimg.InputProperties{})
	data, err := EncodeBytes(img, JPEG, EncodeOptions{})
	require.NoError(t, err)
	px, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	// stored colors survive instead of collapsing to black
	_, _, b, _ := px.At(4, 4).RGBA()
	assert.InDelta(t, 100, b>>8, 12)
}

func TestEncodeFormats(t *testing.T) {
	img := stdimg.New(gradient(6, 5, 255), stdimg.InputProperties{})
	for _, f := range []Format{PNG, JPEG, GIF, BMP, TIFF} {
		data, err := EncodeBytes(img, f, EncodeOptions{})
		require.NoError(t, err, f.String())
		assert.Equal(t, f, Sniff(data), f.String())
		back, err := DecodeBytes(data, nil)
		require.NoError(t, err, f.String())
		assert.Equal(t, 6, back.Width(), f.String())
		assert.Equal(t, 5, back.Height(), f.String())
	}

	_, err := EncodeBytes(img, WebP, EncodeOptions{})
	assert.True(t, errs.Is(err, errs.EncodeFailure))

	err = Encode(img, filepath.Join(t.TempDir(), "missing", "out.png"), PNG, EncodeOptions{})
	assert.True(t, errs.Is(err, errs.EncodeFailure))

	_, err = EncodeBytes(&stdimg.Image{}, PNG, EncodeOptions{})
	assert.True(t, errs.Is(err, errs.EncodeFailure))
}

func TestQuality(t *testing.T) {
	assert.Equal(t, DefaultQuality, EncodeOptions{}.quality())
	assert.Equal(t, 50, EncodeOptions{Quality: 49.6}.quality())
	assert.Equal(t, 100, EncodeOptions{Quality: 250}.quality())
}
