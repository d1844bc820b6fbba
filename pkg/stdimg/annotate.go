package stdimg

import (
	"image"
	"image/color"
	"strconv"
	"strings"

	"github.com/Fepozopo/tmagick/pkg/errs"
	"github.com/Fepozopo/tmagick/pkg/geometry"
	"github.com/Fepozopo/tmagick/pkg/text"
)

// TextDrawer rasterizes a text block into a buffer. *text.FontSet
// implements it.
type TextDrawer interface {
	DrawText(dst *image.NRGBA, b text.Block) error
}

// LabelOptions describe one text watermark.
type LabelOptions struct {
	Text     string
	Color    color.NRGBA
	Gravity  geometry.Gravity
	FontSize float64
	Weight   text.Weight
}

// Label draws opts.Text onto img. The text is rendered opaque into an
// off-screen layer the size of img, aligned by gravity, and the layer is then
// composited centered with opacity Color.A/255. Text and image watermarks
// therefore share one blending path.
func Label(img *Image, d TextDrawer, opts LabelOptions) error {
	if img == nil || img.Pixels == nil {
		return errs.New(errs.InvalidArgument, "no image to label")
	}
	w, h := img.Width(), img.Height()
	if w == 0 || h == 0 {
		return nil
	}
	layer := image.NewNRGBA(image.Rect(0, 0, w, h))
	c := opts.Color
	c.A = 255
	hx, vy := opts.Gravity.Alignment()
	err := d.DrawText(layer, text.Block{
		Alignment: text.Alignment{X: axisAlign(hx), Y: axisAlign(vy)},
		MaxWidth:  w,
		MaxHeight: h,
		Spans:     []text.Span{{Text: opts.Text, FontSize: opts.FontSize, Weight: opts.Weight, Color: c}},
	})
	if err != nil {
		return errs.Wrap(errs.InvalidArgument, err, "draw label")
	}
	overlay := &Image{Pixels: layer, Props: InputProperties{ColorType: RGBA, BitDepth: 8}}
	return Composite(img, overlay, geometry.Center, geometry.Alpha(float64(opts.Color.A)/255))
}

func axisAlign(v int) text.Align {
	switch {
	case v < 0:
		return text.AlignStart
	case v > 0:
		return text.AlignEnd
	default:
		return text.AlignCenter
	}
}

// ParseColor accepts "R,G,B" or "R,G,B,A" with components in 0..255, and the
// hex forms #rgb, #rgba, #rrggbb and #rrggbbaa.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return color.NRGBA{}, errs.New(errs.InvalidArgument, "empty color")
	}
	if s[0] == '#' {
		return parseHexColor(s)
	}
	parts := strings.Split(s, ",")
	if len(parts) != 3 && len(parts) != 4 {
		return color.NRGBA{}, errs.New(errs.InvalidArgument, "color %q must be R,G,B or R,G,B,A", s)
	}
	v := [4]uint8{3: 255}
	for i, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return color.NRGBA{}, errs.Wrapf(errs.InvalidArgument, err, "color %q component %d", s, i+1)
		}
		v[i] = uint8(n)
	}
	return color.NRGBA{v[0], v[1], v[2], v[3]}, nil
}

func parseHexColor(s string) (color.NRGBA, error) {
	hex := s[1:]
	switch len(hex) {
	case 3, 4:
		var b strings.Builder
		for _, r := range hex {
			b.WriteRune(r)
			b.WriteRune(r)
		}
		hex = b.String()
	case 6, 8:
	default:
		return color.NRGBA{}, errs.New(errs.InvalidArgument, "unsupported hex color length: %d", len(hex))
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, errs.Wrapf(errs.InvalidArgument, err, "invalid hex color %q", s)
	}
	return color.NRGBA{uint8(n >> 24), uint8(n >> 16), uint8(n >> 8), uint8(n)}, nil
}
