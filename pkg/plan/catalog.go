package plan

// ArgSpec describes a single argument of an operation flag. Fields are
// textual and meant for help output.
type ArgSpec struct {
	Name        string // human name
	Type        string // "geometry", "gravity", "float", "path", "color", ...
	Required    bool
	Default     string // textual default (for help only)
	Description string
}

// Spec documents one operation and the manipulate flag that adds it.
type Spec struct {
	Name        string
	Flag        string
	Args        []ArgSpec
	Usage       string
	Description string
}

// Catalog lists every operation the engine executes, in the order the
// manipulate command adds them to a plan. Keep it in sync with the variants
// in operation.go.
var Catalog = []Spec{
	{
		Name:        CropOnLoad{}.Name(),
		Flag:        "load-crop",
		Args:        []ArgSpec{{"geometry", "geometry", true, "", "WxH+X+Y, pixels or percentages"}},
		Usage:       "--load-crop WxH+X+Y | input.png[WxH+X+Y]",
		Description: "Crop the decoded input before any other operation.",
	},
	{
		Name:        AutoOrient{}.Name(),
		Flag:        "auto-orient",
		Usage:       "--auto-orient=true|false",
		Description: "Rotate or flip according to the EXIF orientation, then reset it.",
	},
	{
		Name:        Crop{}.Name(),
		Flag:        "crop",
		Args:        []ArgSpec{{"geometry", "geometry", true, "", "WxH+X+Y, pixels or percentages"}},
		Usage:       "--crop WxH+X+Y",
		Description: "Crop against the current image size.",
	},
	{
		Name:        Resize{}.Name(),
		Flag:        "resize",
		Args:        []ArgSpec{{"geometry", "geometry", true, "", "W, xH, WxH, W%, N@ with ! > < ^ flags"}},
		Usage:       "--resize WxH[!><^]",
		Description: "Resize with a Lanczos filter. Without a suffix only shrinks.",
	},
	{
		Name:        Thumbnail{}.Name(),
		Flag:        "thumbnail",
		Args:        []ArgSpec{{"geometry", "geometry", true, "", "resize geometry"}},
		Usage:       "--thumbnail WxH",
		Description: "Resize with a Mitchell filter and drop EXIF data.",
	},
	{
		Name:        Scale{}.Name(),
		Flag:        "scale",
		Args:        []ArgSpec{{"geometry", "geometry", true, "", "resize geometry"}},
		Usage:       "--scale WxH",
		Description: "Resize by averaging pixel blocks.",
	},
	{
		Name:        Sample{}.Name(),
		Flag:        "sample",
		Args:        []ArgSpec{{"geometry", "geometry", true, "", "resize geometry"}},
		Usage:       "--sample WxH",
		Description: "Resize by pixel sampling, without interpolation.",
	},
	{
		Name: Composite{}.Name(),
		Flag: "watermark-image",
		Args: []ArgSpec{
			{"path", "path", true, "", "image to overlay"},
			{"opacity", "float", false, "1.0", "0.0-1.0 or 0-100%, clamped"},
			{"gravity", "gravity", false, "center", "placement"},
		},
		Usage:       "--watermark-image PATH [--watermark-image-opacity F] [--watermark-image-gravity G]",
		Description: "Blend an image over the output.",
	},
	{
		Name: Label{}.Name(),
		Flag: "watermark-text",
		Args: []ArgSpec{
			{"text", "string", true, "", "label text"},
			{"color", "color", false, "0,0,0,255", "R,G,B,A; alpha is the opacity"},
			{"gravity", "gravity", false, "center", "placement"},
			{"size", "float", false, "24", "font size in pixels"},
		},
		Usage:       "--watermark-text TEXT [--watermark-text-color-rgba R,G,B,A] [--watermark-text-gravity G]",
		Description: "Draw a text label over the output.",
	},
	{
		Name:        Identify{}.Name(),
		Flag:        "identify",
		Args:        []ArgSpec{{"format", "string", false, "", "template such as %wx%h"}},
		Usage:       "--identify [--identify-format T]",
		Description: "Print the properties of the result.",
	},
}

// Lookup returns the catalog entry for an operation name.
func Lookup(name string) (Spec, bool) {
	for _, s := range Catalog {
		if s.Name == name {
			return s, true
		}
	}
	return Spec{}, false
}
