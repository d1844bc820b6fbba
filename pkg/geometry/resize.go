package geometry

import (
	"fmt"
	"math"

	"github.com/Fepozopo/tmagick/pkg/errs"
)

// TargetKind selects how a ResizeTarget is interpreted.
type TargetKind int

const (
	// TargetSize is an absolute width and/or height in pixels.
	TargetSize TargetKind = iota
	// TargetPercent scales each axis by a percentage of the source.
	TargetPercent
	// TargetArea limits the total pixel count while keeping the aspect ratio.
	TargetArea
)

// ResizeTarget describes the requested output size.
type ResizeTarget struct {
	Kind TargetKind

	// Width and Height are pixel sizes for TargetSize; zero means unset.
	Width, Height int

	// WidthPercent and HeightPercent are used by TargetPercent. A zero
	// HeightPercent repeats WidthPercent.
	WidthPercent, HeightPercent float64

	// Area is the maximum pixel count for TargetArea.
	Area int

	// IgnoreAspectRatio uses Width and Height verbatim when both are set.
	IgnoreAspectRatio bool

	// Fill makes the result cover the Width x Height box instead of fitting
	// inside it.
	Fill bool
}

// Size returns a TargetSize target. Pass 0 for an unset axis.
func Size(width, height int) ResizeTarget {
	return ResizeTarget{Kind: TargetSize, Width: width, Height: height}
}

// Percent returns a TargetPercent target.
func Percent(width, height float64) ResizeTarget {
	return ResizeTarget{Kind: TargetPercent, WidthPercent: width, HeightPercent: height}
}

// ResizeConstraint decides whether a computed size is applied at all.
type ResizeConstraint int

const (
	// NoConstraint always applies the computed size.
	NoConstraint ResizeConstraint = iota
	// OnlyShrink applies the computed size only when it is strictly smaller
	// than the source along both axes.
	OnlyShrink
	// OnlyEnlarge applies the computed size only when it is strictly larger
	// than the source along both axes.
	OnlyEnlarge
)

func (c ResizeConstraint) String() string {
	switch c {
	case OnlyShrink:
		return "only-shrink"
	case OnlyEnlarge:
		return "only-enlarge"
	default:
		return "none"
	}
}

// ResizeGeometry is a target plus the constraint applied after resolution.
type ResizeGeometry struct {
	Target     ResizeTarget
	Constraint ResizeConstraint
}

// Validate rejects targets that can never resolve to a size.
func (g ResizeGeometry) Validate() error {
	t := g.Target
	switch t.Kind {
	case TargetSize:
		if t.Width < 0 || t.Height < 0 {
			return errs.New(errs.InvalidGeometry, "negative size %dx%d", t.Width, t.Height)
		}
		if t.Width == 0 && t.Height == 0 {
			return errs.New(errs.InvalidGeometry, "neither width nor height given")
		}
	case TargetPercent:
		if t.WidthPercent <= 0 || t.HeightPercent < 0 {
			return errs.New(errs.InvalidGeometry, "percentage must be positive")
		}
	case TargetArea:
		if t.Area <= 0 {
			return errs.New(errs.InvalidGeometry, "area must be positive")
		}
	default:
		return errs.New(errs.InvalidGeometry, "unknown resize target kind %d", t.Kind)
	}
	return nil
}

// Resolve computes the output size of g for a srcW x srcH source.
func (g ResizeGeometry) Resolve(srcW, srcH int) (int, int, error) {
	return Resolve(g.Target, g.Constraint, srcW, srcH)
}

// MaxPixels bounds the area of any resolved size. Larger outputs fail with
// InvalidGeometry before a buffer is allocated.
const MaxPixels = 1 << 28

// CheckSize reports whether a w x h buffer can be allocated.
func CheckSize(w, h int) error {
	if w <= 0 || h <= 0 {
		return errs.New(errs.InvalidGeometry, "size %dx%d has no area", w, h)
	}
	return checkArea(float64(w), float64(h))
}

func checkArea(w, h float64) error {
	if w*h > MaxPixels || math.IsInf(w, 0) || math.IsInf(h, 0) {
		return errs.New(errs.InvalidGeometry, "size %.0fx%.0f exceeds %d pixels", w, h, MaxPixels)
	}
	return nil
}

// Resolve computes the output size for target t applied to a srcW x srcH
// source. Dimensions are rounded half away from zero and never below 1.
// When the constraint rejects the computed size the source size is returned.
// A computed size above MaxPixels is InvalidGeometry.
func Resolve(t ResizeTarget, c ResizeConstraint, srcW, srcH int) (int, int, error) {
	if srcW <= 0 || srcH <= 0 {
		return 0, 0, errs.New(errs.InvalidGeometry, "source has no area (%dx%d)", srcW, srcH)
	}
	if err := (ResizeGeometry{Target: t}).Validate(); err != nil {
		return 0, 0, err
	}

	var w, h float64
	sw, sh := float64(srcW), float64(srcH)
	switch t.Kind {
	case TargetSize:
		tw, th := float64(t.Width), float64(t.Height)
		switch {
		case t.Width > 0 && t.Height > 0 && t.IgnoreAspectRatio:
			w, h = tw, th
		case t.Width > 0 && t.Height > 0:
			widthBound := tw/sw <= th/sh
			if t.Fill {
				widthBound = !widthBound
			}
			if widthBound {
				w, h = tw, math.Round(sh*tw/sw)
			} else {
				w, h = math.Round(sw*th/sh), th
			}
		case t.Width > 0:
			w, h = tw, math.Round(sh*tw/sw)
		default:
			w, h = math.Round(sw*th/sh), th
		}
	case TargetPercent:
		py := t.HeightPercent
		if py == 0 {
			py = t.WidthPercent
		}
		w, h = math.Round(sw*t.WidthPercent/100), math.Round(sh*py/100)
	case TargetArea:
		// floor keeps w*h within the requested area
		r := math.Sqrt(float64(t.Area) / (sw * sh))
		w, h = math.Floor(sw*r), math.Floor(sh*r)
	}
	w, h = math.Max(w, 1), math.Max(h, 1)

	switch c {
	case OnlyShrink:
		if !(w < sw && h < sh) {
			return srcW, srcH, nil
		}
	case OnlyEnlarge:
		if !(w > sw && h > sh) {
			return srcW, srcH, nil
		}
	}
	if err := checkArea(w, h); err != nil {
		return 0, 0, err
	}
	return int(w), int(h), nil
}

func round(v float64) int {
	return int(math.Round(v))
}

func (t ResizeTarget) String() string {
	switch t.Kind {
	case TargetPercent:
		if t.HeightPercent == 0 {
			return fmt.Sprintf("%g%%", t.WidthPercent)
		}
		return fmt.Sprintf("%gx%g%%", t.WidthPercent, t.HeightPercent)
	case TargetArea:
		return fmt.Sprintf("%d@", t.Area)
	}
	s := ""
	if t.Width > 0 {
		s = fmt.Sprint(t.Width)
	}
	if t.Height > 0 {
		s += fmt.Sprintf("x%d", t.Height)
	}
	if t.IgnoreAspectRatio {
		s += "!"
	}
	if t.Fill {
		s += "^"
	}
	return s
}

func (g ResizeGeometry) String() string {
	s := g.Target.String()
	switch g.Constraint {
	case OnlyShrink:
		s += ">"
	case OnlyEnlarge:
		s += "<"
	}
	return s
}
