package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Fepozopo/tmagick/pkg/codec"
	"github.com/Fepozopo/tmagick/pkg/config"
	"github.com/Fepozopo/tmagick/pkg/errs"
	"github.com/Fepozopo/tmagick/pkg/geometry"
	"github.com/Fepozopo/tmagick/pkg/plan"
	"github.com/Fepozopo/tmagick/pkg/stdimg"
	"github.com/Fepozopo/tmagick/pkg/text"
)

type manipulateOptions struct {
	resize    string
	thumbnail string
	scale     string
	sample    string
	crop      string
	loadCrop  string

	autoOrient    bool
	stripMetadata bool
	stripExif     bool
	stripICC      bool
	quality       float64
	format        string

	watermarkImage        string
	watermarkImageOpacity string
	watermarkImageGravity string

	watermarkText        string
	watermarkTextColor   string
	watermarkTextGravity string
	watermarkTextSize    float64
	watermarkTextBold    bool

	identify       bool
	identifyFormat string
}

func (a *App) newManipulateCmd() *cobra.Command {
	opts := &manipulateOptions{}
	cmd := &cobra.Command{
		Use:   "manipulate <input> <output>",
		Short: "Apply operations to an image and write the result",
		Long: `Decode <input>, apply the requested operations and encode the result to
<output>. The input may carry a load-time crop as a suffix, e.g.
"photo.jpg[50%x50%+0+0]". The output format comes from --format, the output
extension, the config file, or defaults to JPEG.

Operations, in the order they run:

` + operationsHelp(),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runManipulate(cmd, opts, args[0], args[1])
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.resize, "resize", "", flagUsage(plan.Resize{}))
	f.StringVar(&opts.thumbnail, "thumbnail", "", flagUsage(plan.Thumbnail{}))
	f.StringVar(&opts.scale, "scale", "", flagUsage(plan.Scale{}))
	f.StringVar(&opts.sample, "sample", "", flagUsage(plan.Sample{}))
	f.StringVar(&opts.crop, "crop", "", flagUsage(plan.Crop{}))
	f.StringVar(&opts.loadCrop, "load-crop", "", flagUsage(plan.CropOnLoad{}))

	f.BoolVar(&opts.autoOrient, "auto-orient", true, flagUsage(plan.AutoOrient{}))
	f.BoolVar(&opts.stripMetadata, "strip-metadata", false, "drop EXIF and ICC data from the output")
	f.BoolVar(&opts.stripExif, "strip-exif", false, "drop EXIF data from the output")
	f.BoolVar(&opts.stripICC, "strip-icc", false, "drop the ICC profile from the output")
	f.Float64Var(&opts.quality, "quality", 0, "encoder quality (1-100)")
	f.StringVar(&opts.format, "format", "", "output format: jpeg, png, gif, bmp, tiff")

	f.StringVar(&opts.watermarkImage, "watermark-image", "", flagUsage(plan.Composite{}))
	f.StringVar(&opts.watermarkImageOpacity, "watermark-image-opacity", "", "watermark image opacity as 0.0-1.0 or 0-100% (default 1)")
	f.StringVar(&opts.watermarkImageGravity, "watermark-image-gravity", "", "watermark image position (default center)")

	f.StringVar(&opts.watermarkText, "watermark-text", "", flagUsage(plan.Label{}))
	f.StringVar(&opts.watermarkTextColor, "watermark-text-color-rgba", "", "text color as R,G,B,A; alpha is the opacity")
	f.StringVar(&opts.watermarkTextGravity, "watermark-text-gravity", "", "text position (default center)")
	f.Float64Var(&opts.watermarkTextSize, "watermark-text-size", 0, "text size in pixels (default 24)")
	f.BoolVar(&opts.watermarkTextBold, "watermark-text-bold", false, "use the bold face")
	f.StringVar(&a.fontPath, "font", "", "TrueType or OpenType font for text watermarks")

	f.BoolVar(&opts.identify, "identify", false, flagUsage(plan.Identify{}))
	f.StringVar(&opts.identifyFormat, "identify-format", "", "identify template, e.g. '%wx%h %m'")

	return cmd
}

// operationsHelp lists the operation catalog, one flag per line.
func operationsHelp() string {
	var b strings.Builder
	for _, s := range plan.Catalog {
		fmt.Fprintf(&b, "  %-14s %s\n", s.Name, s.Description)
		fmt.Fprintf(&b, "  %-14s %s\n", "", s.Usage)
	}
	return strings.TrimRight(b.String(), "\n")
}

// flagUsage returns the catalog description of op for use as flag help.
func flagUsage(op plan.Operation) string {
	s, ok := plan.Lookup(op.Name())
	if !ok {
		return op.Name()
	}
	return s.Description
}

func (a *App) settings() *config.Config {
	if a.cfg == nil {
		return config.Default()
	}
	return a.cfg
}

func (a *App) runManipulate(cmd *cobra.Command, opts *manipulateOptions, input, output string) error {
	p, in, err := a.buildManipulatePlan(cmd, opts, input)
	if err != nil {
		return err
	}
	f, err := a.outputFormat(opts, output)
	if err != nil {
		return err
	}
	e := a.engine()
	slog.Debug("running plan", "input", in.Location, "output", output, "format", f, "plan", p.String())
	return e.Run(p, in, output, f)
}

func (a *App) buildManipulatePlan(cmd *cobra.Command, opts *manipulateOptions, input string) (*plan.Plan, plan.FilePlan, error) {
	cfg := a.settings()
	flags := cmd.Flags()

	if opts.watermarkImage != "" && opts.watermarkText != "" {
		return nil, plan.FilePlan{}, errs.New(errs.InvalidArgument, "cannot specify both watermark image and watermark text")
	}

	in, b, err := inputPlan(input)
	if err != nil {
		return nil, plan.FilePlan{}, err
	}

	if opts.loadCrop != "" {
		g, err := geometry.ParseLoadCrop(opts.loadCrop)
		if err != nil {
			return nil, plan.FilePlan{}, err
		}
		b.Add(plan.CropOnLoad{Geometry: g})
	}
	if opts.autoOrient {
		b.Add(plan.AutoOrient{})
	}
	if opts.crop != "" {
		g, err := geometry.ParseCrop(opts.crop)
		if err != nil {
			return nil, plan.FilePlan{}, err
		}
		b.Add(plan.Crop{Geometry: g})
	}

	resizes := []struct {
		value string
		op    func(geometry.ResizeGeometry) plan.Operation
	}{
		{opts.resize, func(g geometry.ResizeGeometry) plan.Operation {
			if !strings.ContainsAny(opts.resize, "!<>^") {
				g.Constraint = geometry.OnlyShrink
			}
			return plan.Resize{Geometry: g}
		}},
		{opts.thumbnail, func(g geometry.ResizeGeometry) plan.Operation { return plan.Thumbnail{Geometry: g} }},
		{opts.scale, func(g geometry.ResizeGeometry) plan.Operation { return plan.Scale{Geometry: g} }},
		{opts.sample, func(g geometry.ResizeGeometry) plan.Operation { return plan.Sample{Geometry: g} }},
	}
	for _, r := range resizes {
		if r.value == "" {
			continue
		}
		g, err := geometry.ParseResize(r.value)
		if err != nil {
			return nil, plan.FilePlan{}, err
		}
		b.Add(r.op(g))
	}

	if opts.watermarkImage != "" {
		g, err := geometry.ParseGravity(orDefault(opts.watermarkImageGravity, cfg.ImageGravity))
		if err != nil {
			return nil, plan.FilePlan{}, err
		}
		opacity := geometry.Alpha(cfg.ImageOpacity)
		if flags.Changed("watermark-image-opacity") {
			if opacity, err = geometry.ParseAlpha(opts.watermarkImageOpacity); err != nil {
				return nil, plan.FilePlan{}, err
			}
		}
		b.Add(plan.Composite{
			File:    plan.FilePlan{Location: opts.watermarkImage},
			Gravity: g,
			Alpha:   opacity,
		})
	}

	if opts.watermarkText != "" {
		g, err := geometry.ParseGravity(orDefault(opts.watermarkTextGravity, cfg.TextGravity))
		if err != nil {
			return nil, plan.FilePlan{}, err
		}
		c, err := stdimg.ParseColor(orDefault(opts.watermarkTextColor, cfg.TextColor))
		if err != nil {
			return nil, plan.FilePlan{}, err
		}
		size := cfg.FontSize
		if flags.Changed("watermark-text-size") {
			size = opts.watermarkTextSize
		}
		weight := text.Regular
		if opts.watermarkTextBold {
			weight = text.Bold
		}
		b.Add(plan.Label{Text: opts.watermarkText, Color: c, Gravity: g, FontSize: size, Weight: weight})
	}

	if opts.identify || opts.identifyFormat != "" {
		b.Add(plan.Identify{})
	}

	m := plan.Modifiers{
		Strip: plan.Strip{
			Exif: opts.stripMetadata || opts.stripExif,
			ICC:  opts.stripMetadata || opts.stripICC,
		},
		IdentifyFormat: opts.identifyFormat,
	}
	switch {
	case flags.Changed("quality"):
		q := opts.quality
		m.Quality = &q
	case cfg.Quality > 0:
		q := cfg.Quality
		m.Quality = &q
	}

	p, err := b.WithModifiers(m).Build()
	if err != nil {
		return nil, plan.FilePlan{}, err
	}
	return p, in, nil
}

// inputPlan splits an optional "[geometry]" load-crop suffix off input and
// returns a builder seeded with it.
func inputPlan(input string) (plan.FilePlan, *plan.Builder, error) {
	b := plan.NewBuilder()
	if _, err := os.Stat(input); err == nil {
		return plan.FilePlan{Location: input}, b, nil
	}
	path, g, ok, err := geometry.SplitLoadCrop(input)
	if err != nil {
		return plan.FilePlan{}, nil, err
	}
	if ok {
		b.Add(plan.CropOnLoad{Geometry: g})
	}
	return plan.FilePlan{Location: path}, b, nil
}

func (a *App) outputFormat(opts *manipulateOptions, output string) (codec.Format, error) {
	if opts.format != "" {
		return codec.ParseFormat(opts.format)
	}
	if f, ok := codec.FromExtension(output); ok {
		return f, nil
	}
	return codec.OutputFormat(output, a.settings().Format)
}

// engine returns a filesystem engine printing to stdout and drawing labels
// with the fonts loaded by setup.
func (a *App) engine() *plan.Engine {
	e := plan.NewEngine(a.stdout)
	e.Logger = slog.Default()
	if a.fonts != nil {
		e.Text = a.fonts
	}
	return e
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
