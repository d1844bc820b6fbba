package geometry

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Fepozopo/tmagick/pkg/errs"
)

var (
	sizeRe   = regexp.MustCompile(`^([0-9]*\.?[0-9]*%?)(?:[xX]([0-9]*\.?[0-9]*%?))?$`)
	offsetRe = regexp.MustCompile(`^([+-][0-9]*\.?[0-9]+%?)([+-][0-9]*\.?[0-9]+%?)$`)
)

// ParseResize parses a resize geometry such as "400x300", "50%", "x200",
// "800x600>", "100x100!", "200x200^" or "10000@".
//
// Flags: '!' ignores the aspect ratio, '>' only shrinks, '<' only enlarges,
// '^' fills the box, '%' makes sizes percentages and '@' sets a pixel area.
func ParseResize(s string) (ResizeGeometry, error) {
	var g ResizeGeometry
	raw := strings.TrimSpace(s)
	if raw == "" {
		return g, errs.New(errs.InvalidArgument, "empty resize geometry")
	}

	var percent, area, shrink, enlarge bool
	body := strings.Map(func(r rune) rune {
		switch r {
		case '!':
			g.Target.IgnoreAspectRatio = true
		case '^':
			g.Target.Fill = true
		case '%':
			percent = true
		case '@':
			area = true
		case '>':
			shrink = true
		case '<':
			enlarge = true
		default:
			return r
		}
		return -1
	}, raw)
	if shrink && enlarge {
		return g, errs.New(errs.InvalidArgument, "resize geometry %q cannot both shrink and enlarge only", s)
	}
	if shrink {
		g.Constraint = OnlyShrink
	}
	if enlarge {
		g.Constraint = OnlyEnlarge
	}

	m := sizeRe.FindStringSubmatch(body)
	if m == nil || (m[1] == "" && m[2] == "") {
		return g, errs.New(errs.InvalidArgument, "invalid resize geometry %q", s)
	}
	w, err := parseNumber(m[1])
	if err != nil {
		return g, errs.Wrapf(errs.InvalidArgument, err, "invalid width in resize geometry %q", s)
	}
	h, err := parseNumber(m[2])
	if err != nil {
		return g, errs.Wrapf(errs.InvalidArgument, err, "invalid height in resize geometry %q", s)
	}

	switch {
	case area:
		g.Target.Kind = TargetArea
		g.Target.Area = int(w)
	case percent:
		g.Target.Kind = TargetPercent
		if w == 0 {
			w = h
		}
		g.Target.WidthPercent, g.Target.HeightPercent = w, h
	default:
		if w != float64(int(w)) || h != float64(int(h)) {
			return g, errs.New(errs.InvalidArgument, "resize geometry %q needs whole pixels", s)
		}
		g.Target.Kind = TargetSize
		g.Target.Width, g.Target.Height = int(w), int(h)
	}
	if err := g.Validate(); err != nil {
		return g, errs.Wrapf(errs.InvalidArgument, err, "resize geometry %q", s)
	}
	return g, nil
}

// ParseCrop parses a crop geometry "WxH+X+Y". Sizes and offsets may carry a
// '%' to be relative to the image; a '%' on either size makes both relative.
// Offsets default to +0+0.
func ParseCrop(s string) (CropGeometry, error) {
	var g CropGeometry
	raw := strings.TrimSpace(s)
	if raw == "" {
		return g, errs.New(errs.InvalidArgument, "empty crop geometry")
	}
	size, offset := raw, ""
	if i := strings.IndexAny(raw, "+-"); i >= 0 {
		size, offset = raw[:i], raw[i:]
	}

	m := sizeRe.FindStringSubmatch(size)
	if m == nil || (m[1] == "" && m[2] == "") {
		return g, errs.New(errs.InvalidArgument, "invalid crop geometry %q", s)
	}
	relative := strings.HasSuffix(m[1], "%") || strings.HasSuffix(m[2], "%")
	for i, dst := range []*Length{&g.Width, &g.Height} {
		v, err := parseNumber(strings.TrimSuffix(m[i+1], "%"))
		if err != nil {
			return g, errs.Wrapf(errs.InvalidArgument, err, "invalid crop geometry %q", s)
		}
		*dst = Length{Value: v, Relative: relative}
	}

	if offset != "" {
		om := offsetRe.FindStringSubmatch(offset)
		if om == nil {
			return g, errs.New(errs.InvalidArgument, "invalid crop offset %q", offset)
		}
		for i, dst := range []*Length{&g.X, &g.Y} {
			tok := om[i+1]
			v, err := strconv.ParseFloat(strings.TrimSuffix(tok, "%"), 64)
			if err != nil {
				return g, errs.Wrapf(errs.InvalidArgument, err, "invalid crop offset %q", offset)
			}
			*dst = Length{Value: v, Relative: strings.HasSuffix(tok, "%")}
		}
	}
	if g.Width.Value == 0 && g.Height.Value == 0 {
		return g, errs.New(errs.InvalidArgument, "crop geometry %q has no size", s)
	}
	return g, nil
}

// ParseLoadCrop parses a crop applied at decode time.
func ParseLoadCrop(s string) (LoadCropGeometry, error) {
	g, err := ParseCrop(s)
	return LoadCropGeometry(g), err
}

// SplitLoadCrop splits the "path[geometry]" input syntax into the path and
// the load-time crop. ok is false when path carries no bracket suffix.
func SplitLoadCrop(path string) (string, LoadCropGeometry, bool, error) {
	if !strings.HasSuffix(path, "]") {
		return path, LoadCropGeometry{}, false, nil
	}
	i := strings.LastIndex(path, "[")
	if i <= 0 {
		return path, LoadCropGeometry{}, false, nil
	}
	g, err := ParseLoadCrop(path[i+1 : len(path)-1])
	if err != nil {
		return path, LoadCropGeometry{}, false, err
	}
	return path[:i], g, true, nil
}

func parseNumber(s string) (float64, error) {
	s = strings.TrimSuffix(s, "%")
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
