// Package text rasterizes short labels into NRGBA buffers.
//
// Fonts are parsed once per FontSet. The built-in Go fonts are used unless a
// TrueType/OpenType file is supplied.
package text

import (
	"image"
	"image/color"
	"math"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/pkg/errors"
)

// Align places text along one axis of the block.
type Align int

const (
	AlignStart Align = iota
	AlignCenter
	AlignEnd
)

func (a Align) String() string {
	switch a {
	case AlignCenter:
		return "center"
	case AlignEnd:
		return "end"
	default:
		return "start"
	}
}

// Alignment is the horizontal and vertical placement of text in a block.
type Alignment struct {
	X, Y Align
}

// Weight selects the regular or bold face.
type Weight int

const (
	Regular Weight = iota
	Bold
)

// Span is a run of text drawn with one face and color. Newlines start a new
// line; each span begins on its own line.
type Span struct {
	Text     string
	FontSize float64
	Weight   Weight
	Color    color.NRGBA
	// LineHeight multiplies the face's natural line height. Zero means 1.
	LineHeight float64
}

// Block is the text to draw and the box it has to fit in. When the text does
// not fit, every span is scaled down by the same factor.
type Block struct {
	Alignment Alignment
	MaxWidth  int
	MaxHeight int
	Spans     []Span
}

// DefaultFontSize is used for spans with no size, in points at 72 DPI.
const DefaultFontSize = 24

const minFontSize = 4

// FontSet holds parsed regular and bold fonts and caches the faces built
// from them.
type FontSet struct {
	regular *opentype.Font
	bold    *opentype.Font

	mu    sync.Mutex
	faces map[faceKey]font.Face
}

type faceKey struct {
	weight Weight
	size   float64
}

// Default parses the embedded Go regular and bold fonts into a new FontSet.
func Default() (*FontSet, error) {
	return NewFontSet(goregular.TTF, gobold.TTF)
}

// NewFontSet parses regular and bold font data. bold may be nil, in which
// case the regular font is used for bold spans as well.
func NewFontSet(regular, bold []byte) (*FontSet, error) {
	r, err := opentype.Parse(regular)
	if err != nil {
		return nil, errors.Wrap(err, "parse regular font")
	}
	b := r
	if bold != nil {
		if b, err = opentype.Parse(bold); err != nil {
			return nil, errors.Wrap(err, "parse bold font")
		}
	}
	return &FontSet{regular: r, bold: b, faces: map[faceKey]font.Face{}}, nil
}

func (fs *FontSet) face(w Weight, size float64) (font.Face, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	k := faceKey{w, size}
	if f, ok := fs.faces[k]; ok {
		return f, nil
	}
	src := fs.regular
	if w == Bold {
		src = fs.bold
	}
	f, err := opentype.NewFace(src, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, errors.Wrapf(err, "create %gpt face", size)
	}
	fs.faces[k] = f
	return f, nil
}

type line struct {
	text    string
	face    font.Face
	color   color.NRGBA
	width   fixed.Int26_6
	ascent  fixed.Int26_6
	advance fixed.Int26_6
}

func (fs *FontSet) layout(b Block, scale float64) ([]line, fixed.Int26_6, fixed.Int26_6, error) {
	var lines []line
	var maxW, totalH fixed.Int26_6
	for _, sp := range b.Spans {
		size := sp.FontSize
		if size <= 0 {
			size = DefaultFontSize
		}
		size = math.Max(math.Floor(size*scale*4)/4, minFontSize)
		f, err := fs.face(sp.Weight, size)
		if err != nil {
			return nil, 0, 0, err
		}
		m := f.Metrics()
		lh := m.Height
		if sp.LineHeight > 0 {
			lh = fixed.Int26_6(float64(lh) * sp.LineHeight)
		}
		for _, s := range strings.Split(sp.Text, "\n") {
			w := font.MeasureString(f, s)
			lines = append(lines, line{text: s, face: f, color: sp.Color, width: w, ascent: m.Ascent, advance: lh})
			maxW = max(maxW, w)
			totalH += lh
		}
	}
	return lines, maxW, totalH, nil
}

// DrawText draws b onto dst, aligned inside dst's bounds limited to
// MaxWidth x MaxHeight. Text is shrunk to fit the box; it is never enlarged.
func (fs *FontSet) DrawText(dst *image.NRGBA, b Block) error {
	if dst == nil {
		return errors.New("nil destination")
	}
	bounds := dst.Bounds()
	boxW, boxH := bounds.Dx(), bounds.Dy()
	if b.MaxWidth > 0 {
		boxW = min(boxW, b.MaxWidth)
	}
	if b.MaxHeight > 0 {
		boxH = min(boxH, b.MaxHeight)
	}
	if boxW <= 0 || boxH <= 0 || len(b.Spans) == 0 {
		return nil
	}

	scale := 1.0
	lines, w, h, err := fs.layout(b, scale)
	if err != nil {
		return err
	}
	// hinting and the quarter-point rounding keep the first estimate from
	// being exact
	for i := 0; i < 4 && (w.Ceil() > boxW || h.Ceil() > boxH); i++ {
		scale *= math.Min(float64(boxW)/float64(w.Ceil()+1), float64(boxH)/float64(h.Ceil()+1))
		if lines, w, h, err = fs.layout(b, scale); err != nil {
			return err
		}
	}

	// the box sits inside dst according to the alignment too
	box := image.Rect(0, 0, boxW, boxH).Add(bounds.Min).Add(image.Pt(
		offset(b.Alignment.X, bounds.Dx(), boxW),
		offset(b.Alignment.Y, bounds.Dy(), boxH),
	))
	y := fixed.I(box.Min.Y + offset(b.Alignment.Y, boxH, h.Ceil()))
	for _, ln := range lines {
		x := fixed.I(box.Min.X) + alignFixed(b.Alignment.X, fixed.I(boxW), ln.width)
		d := &font.Drawer{
			Dst:  dst,
			Src:  image.NewUniform(ln.color),
			Face: ln.face,
			Dot:  fixed.Point26_6{X: x, Y: y + ln.ascent},
		}
		d.DrawString(ln.text)
		y += ln.advance
	}
	return nil
}

func offset(a Align, outer, inner int) int {
	switch a {
	case AlignCenter:
		return (outer - inner) / 2
	case AlignEnd:
		return outer - inner
	default:
		return 0
	}
}

func alignFixed(a Align, outer, inner fixed.Int26_6) fixed.Int26_6 {
	switch a {
	case AlignCenter:
		return (outer - inner) / 2
	case AlignEnd:
		return outer - inner
	default:
		return 0
	}
}
