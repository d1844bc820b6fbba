package plan

import (
	"image/color"

	"github.com/Fepozopo/tmagick/pkg/geometry"
	"github.com/Fepozopo/tmagick/pkg/text"
)

// Operation is one step of a Plan. The set of variants is closed: only the
// types in this file implement it, and the engine handles each of them.
type Operation interface {
	// Name is the short operation name used in logs and error messages.
	Name() string
	operation()
}

// Resize resamples with a Lanczos kernel.
type Resize struct {
	Geometry geometry.ResizeGeometry
}

// Thumbnail resamples with a Mitchell kernel and drops the EXIF block. The
// ICC profile is kept.
type Thumbnail struct {
	Geometry geometry.ResizeGeometry
}

// Scale resamples with a box filter.
type Scale struct {
	Geometry geometry.ResizeGeometry
}

// Sample resamples by picking the nearest source pixel.
type Sample struct {
	Geometry geometry.ResizeGeometry
}

// Crop cuts the image to a rectangle resolved against its current size.
type Crop struct {
	Geometry geometry.CropGeometry
}

// CropOnLoad cuts the freshly decoded image. It always runs before every
// other operation.
type CropOnLoad struct {
	Geometry geometry.LoadCropGeometry
}

// Composite decodes File when it runs and blends it over the image.
type Composite struct {
	File    FilePlan
	Gravity geometry.Gravity
	Alpha   geometry.Alpha
}

// Label draws a line of text. The color's alpha is the label opacity.
type Label struct {
	Text     string
	Color    color.NRGBA
	Gravity  geometry.Gravity
	FontSize float64
	Weight   text.Weight
}

// Identify prints image properties. An empty Format falls back to the plan's
// identify format, then to the default one-line summary.
type Identify struct {
	Format string
}

// AutoOrient applies the EXIF orientation and resets it to 1.
type AutoOrient struct{}

func (Resize) Name() string     { return "resize" }
func (Thumbnail) Name() string  { return "thumbnail" }
func (Scale) Name() string      { return "scale" }
func (Sample) Name() string     { return "sample" }
func (Crop) Name() string       { return "crop" }
func (CropOnLoad) Name() string { return "load-crop" }
func (Composite) Name() string  { return "composite" }
func (Label) Name() string      { return "label" }
func (Identify) Name() string   { return "identify" }
func (AutoOrient) Name() string { return "auto-orient" }

func (Resize) operation()     {}
func (Thumbnail) operation()  {}
func (Scale) operation()      {}
func (Sample) operation()     {}
func (Crop) operation()       {}
func (CropOnLoad) operation() {}
func (Composite) operation()  {}
func (Label) operation()      {}
func (Identify) operation()   {}
func (AutoOrient) operation() {}
