package plan

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/Fepozopo/tmagick/pkg/codec"
	"github.com/Fepozopo/tmagick/pkg/errs"
	"github.com/Fepozopo/tmagick/pkg/stdimg"
)

// Decoder loads an image. codec.Filesystem implements it.
type Decoder interface {
	Decode(location string, format *codec.Format) (*stdimg.Image, error)
}

// Encoder writes an image. codec.Filesystem implements it.
type Encoder interface {
	Encode(img *stdimg.Image, location string, format codec.Format, opts codec.EncodeOptions) error
}

// Engine executes plans. Zero fields select the filesystem codec, io.Discard
// and the default logger. Text has no default; plans with a Label need it.
type Engine struct {
	Decoder Decoder
	Encoder Encoder
	Text    stdimg.TextDrawer
	Out     io.Writer
	Logger  *slog.Logger
}

// NewEngine returns an engine that reads and writes the filesystem and
// prints identify output to out.
func NewEngine(out io.Writer) *Engine {
	return &Engine{Decoder: codec.Filesystem{}, Encoder: codec.Filesystem{}, Out: out}
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

func (e *Engine) decoder() Decoder {
	if e.Decoder != nil {
		return e.Decoder
	}
	return codec.Filesystem{}
}

func (e *Engine) encoder() Encoder {
	if e.Encoder != nil {
		return e.Encoder
	}
	return codec.Filesystem{}
}

func (e *Engine) out() io.Writer {
	if e.Out != nil {
		return e.Out
	}
	return io.Discard
}

func (e *Engine) drawer() (stdimg.TextDrawer, error) {
	if e.Text != nil {
		return e.Text, nil
	}
	return nil, errs.New(errs.InvalidArgument, "no fonts loaded for text labels")
}

// Run decodes input, executes p and, when output is not empty, encodes the
// result to output in format f.
func (e *Engine) Run(p *Plan, input FilePlan, output string, f codec.Format) error {
	img, err := e.decoder().Decode(input.Location, input.Format)
	if err != nil {
		return err
	}
	if err := e.Execute(p, img); err != nil {
		return err
	}
	if output == "" {
		return nil
	}
	return e.encoder().Encode(img, output, f, p.modifiers.EncodeOptions())
}

// Execute runs every operation of p against img in order. The first failure
// stops the plan; img keeps the changes made so far.
func (e *Engine) Execute(p *Plan, img *stdimg.Image) error {
	if p == nil {
		return errs.New(errs.InvalidArgument, "nil plan")
	}
	if p.state != Built {
		return errs.New(errs.InvalidArgument, "plan is %s and cannot run again", p.state)
	}
	if img == nil || img.Consumed() {
		p.state = Failed
		return errs.New(errs.InvalidArgument, "no image to operate on")
	}

	p.state = Executing
	log := e.logger()
	for i, op := range p.ops {
		w, h := img.Width(), img.Height()
		if err := e.apply(p, op, img); err != nil {
			p.state = Failed
			log.Debug("operation failed", "step", i, "op", op.Name(), "error", err)
			return errs.Wrapf(errs.KindOf(err), err, "%s", op.Name())
		}
		log.Debug("operation applied", "step", i, "op", op.Name(),
			"from", fmt.Sprintf("%dx%d", w, h), "to", fmt.Sprintf("%dx%d", img.Width(), img.Height()))
	}
	p.state = Completed
	return nil
}

func (e *Engine) apply(p *Plan, op Operation, img *stdimg.Image) error {
	switch op := op.(type) {
	case Resize:
		return resample(img, op.Geometry.Resolve, stdimg.Lanczos)
	case Thumbnail:
		if err := resample(img, op.Geometry.Resolve, stdimg.Mitchell); err != nil {
			return err
		}
		img.Exif = nil
		return nil
	case Scale:
		return resample(img, op.Geometry.Resolve, stdimg.Box)
	case Sample:
		return resample(img, op.Geometry.Resolve, stdimg.Nearest)
	case Crop:
		r, err := op.Geometry.Rect(img.Width(), img.Height())
		if err != nil {
			return err
		}
		return img.Crop(r)
	case CropOnLoad:
		r, err := op.Geometry.Rect(img.Width(), img.Height())
		if err != nil {
			return err
		}
		return img.Crop(r)
	case Composite:
		fg, err := e.decoder().Decode(op.File.Location, op.File.Format)
		if err != nil {
			return err
		}
		return stdimg.Composite(img, fg, op.Gravity, op.Alpha)
	case Label:
		d, err := e.drawer()
		if err != nil {
			return err
		}
		return stdimg.Label(img, d, stdimg.LabelOptions{
			Text:     op.Text,
			Color:    op.Color,
			Gravity:  op.Gravity,
			FontSize: op.FontSize,
			Weight:   op.Weight,
		})
	case Identify:
		tmpl := op.Format
		if tmpl == "" {
			tmpl = p.modifiers.IdentifyFormat
		}
		_, err := io.WriteString(e.out(), Describe(img, tmpl))
		return err
	case AutoOrient:
		return stdimg.AutoOrient(img)
	default:
		return errs.New(errs.InvalidArgument, "unsupported operation %T", op)
	}
}

func resample(img *stdimg.Image, resolve func(w, h int) (int, int, error), f stdimg.Filter) error {
	w, h, err := resolve(img.Width(), img.Height())
	if err != nil {
		return err
	}
	return img.Resize(w, h, f)
}
