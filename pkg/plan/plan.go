// Package plan compiles image operations into an ordered Plan and executes
// it against one decoded image.
package plan

import (
	"strings"

	"github.com/Fepozopo/tmagick/pkg/codec"
	"github.com/Fepozopo/tmagick/pkg/errs"
)

// Strip selects metadata to leave out of the encoded output.
type Strip struct {
	Exif bool
	ICC  bool
}

// Modifiers apply to the whole plan rather than to one operation.
type Modifiers struct {
	// Quality is the encoder quality in 1..100; nil selects the default.
	Quality        *float64
	Strip          Strip
	IdentifyFormat string
}

// EncodeOptions converts m into codec options.
func (m Modifiers) EncodeOptions() codec.EncodeOptions {
	o := codec.EncodeOptions{StripExif: m.Strip.Exif, StripICC: m.Strip.ICC}
	if m.Quality != nil {
		o.Quality = *m.Quality
	}
	return o
}

// FilePlan locates a secondary image. It is decoded only when the operation
// using it runs.
type FilePlan struct {
	Location string
	// Format overrides sniffing when set.
	Format *codec.Format
}

// State is the lifecycle of a Plan.
type State int

const (
	Built State = iota
	Executing
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Built:
		return "built"
	case Executing:
		return "executing"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Plan is an ordered, immutable list of operations plus modifiers. It is
// executed at most once.
type Plan struct {
	ops       []Operation
	modifiers Modifiers
	state     State
}

// Operations returns a copy of the plan's operations in execution order.
func (p *Plan) Operations() []Operation {
	return append([]Operation(nil), p.ops...)
}

func (p *Plan) Modifiers() Modifiers { return p.modifiers }

func (p *Plan) State() State { return p.state }

// String lists the operation names, e.g. "load-crop,resize,composite".
func (p *Plan) String() string {
	names := make([]string, len(p.ops))
	for i, op := range p.ops {
		names[i] = op.Name()
	}
	return strings.Join(names, ",")
}

// Builder collects operations and produces a Plan. The first invalid
// operation is reported by Build.
type Builder struct {
	ops       []Operation
	modifiers Modifiers
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Add appends operations in the order given.
func (b *Builder) Add(ops ...Operation) *Builder {
	b.ops = append(b.ops, ops...)
	return b
}

func (b *Builder) WithModifiers(m Modifiers) *Builder {
	b.modifiers = m
	return b
}

// Build validates the operations and returns the plan. Load-time crops are
// moved ahead of every other operation; relative order is otherwise kept.
func (b *Builder) Build() (*Plan, error) {
	if q := b.modifiers.Quality; q != nil && (*q < 1 || *q > 100) {
		return nil, errs.New(errs.InvalidArgument, "quality %v is outside 1..100", *q)
	}

	ops := make([]Operation, 0, len(b.ops))
	for _, op := range b.ops {
		if op == nil {
			return nil, errs.New(errs.InvalidArgument, "nil operation")
		}
		if err := validate(op); err != nil {
			return nil, errs.Wrapf(errs.KindOf(err), err, "%s", op.Name())
		}
		if _, ok := op.(CropOnLoad); ok {
			ops = append(ops, op)
		}
	}
	for _, op := range b.ops {
		if _, ok := op.(CropOnLoad); !ok {
			ops = append(ops, op)
		}
	}
	return &Plan{ops: ops, modifiers: b.modifiers, state: Built}, nil
}

func validate(op Operation) error {
	switch op := op.(type) {
	case Resize:
		return op.Geometry.Validate()
	case Thumbnail:
		return op.Geometry.Validate()
	case Scale:
		return op.Geometry.Validate()
	case Sample:
		return op.Geometry.Validate()
	case Composite:
		if op.File.Location == "" {
			return errs.New(errs.InvalidArgument, "no image to composite")
		}
	case Label:
		if op.Text == "" {
			return errs.New(errs.InvalidArgument, "empty label text")
		}
		if op.FontSize < 0 {
			return errs.New(errs.InvalidArgument, "negative font size %v", op.FontSize)
		}
	}
	return nil
}
