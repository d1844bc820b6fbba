package cli

import (
	"github.com/spf13/cobra"

	"github.com/Fepozopo/tmagick/pkg/geometry"
	"github.com/Fepozopo/tmagick/pkg/plan"
)

func (a *App) newIdentifyCmd() *cobra.Command {
	var (
		format   string
		loadCrop string
		preview  bool
	)
	cmd := &cobra.Command{
		Use:   "identify <input>",
		Short: "Print the format and geometry of an image",
		Long: `Print "<file> <FORMAT> <width>x<height> <colortype> <depth>-bit", or the
--format template with these escapes:

  %w %h        width, height
  %m           format
  %f %d %e %t  file name, directory, extension, name without extension
  %r %z        color type, bit depth
  %[exif:tag]  EXIF value such as make, model, orientation or datetime
  %[icc]       ICC profile size in bytes
  %% \n        percent sign, newline`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, b, err := inputPlan(args[0])
			if err != nil {
				return err
			}
			if loadCrop != "" {
				g, err := geometry.ParseLoadCrop(loadCrop)
				if err != nil {
					return err
				}
				b.Add(plan.CropOnLoad{Geometry: g})
			}
			p, err := b.Add(plan.Identify{Format: format}).Build()
			if err != nil {
				return err
			}

			e := a.engine()
			img, err := e.Decoder.Decode(in.Location, in.Format)
			if err != nil {
				return err
			}
			if err := e.Execute(p, img); err != nil {
				return err
			}
			if preview {
				return Preview(a.stdout, img, nil)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "output template, e.g. '%wx%h %m\\n'")
	cmd.Flags().StringVar(&loadCrop, "load-crop", "", "crop geometry WxH+X+Y applied right after decoding")
	cmd.Flags().BoolVar(&preview, "preview", false, "show the image inline in kitty or iTerm2 compatible terminals")
	return cmd
}
