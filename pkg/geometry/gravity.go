package geometry

import (
	"strings"

	"github.com/Fepozopo/tmagick/pkg/errs"
)

// Gravity is a nine-way anchor describing where a region is placed within a
// larger canvas.
type Gravity int

const (
	Center Gravity = iota
	North
	South
	East
	West
	Northeast
	Northwest
	Southeast
	Southwest
)

var gravityNames = map[Gravity]string{
	Center:    "center",
	North:     "north",
	South:     "south",
	East:      "east",
	West:      "west",
	Northeast: "northeast",
	Northwest: "northwest",
	Southeast: "southeast",
	Southwest: "southwest",
}

func (g Gravity) String() string {
	if s, ok := gravityNames[g]; ok {
		return s
	}
	return "unknown"
}

// ParseGravity accepts the gravity names case-insensitively.
func ParseGravity(s string) (Gravity, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for g, name := range gravityNames {
		if name == want {
			return g, nil
		}
	}
	return Center, errs.New(errs.InvalidArgument, "invalid gravity argument %q", s)
}

// Anchor returns the offset of a fgW x fgH region placed on a bgW x bgH
// canvas according to g. Offsets are negative when the region is larger than
// the canvas along that axis; centered axes truncate toward zero.
func Anchor(g Gravity, bgW, bgH, fgW, fgH int) (x, y int) {
	dw := bgW - fgW
	dh := bgH - fgH
	switch g {
	case North:
		return dw / 2, 0
	case South:
		return dw / 2, dh
	case East:
		return dw, dh / 2
	case West:
		return 0, dh / 2
	case Northeast:
		return dw, 0
	case Northwest:
		return 0, 0
	case Southeast:
		return dw, dh
	case Southwest:
		return 0, dh
	default:
		return dw / 2, dh / 2
	}
}

// Alignment splits g into per-axis positions: -1 for the leading edge, 0 for
// centered and 1 for the trailing edge.
func (g Gravity) Alignment() (h, v int) {
	switch g {
	case North:
		return 0, -1
	case South:
		return 0, 1
	case East:
		return 1, 0
	case West:
		return -1, 0
	case Northeast:
		return 1, -1
	case Northwest:
		return -1, -1
	case Southeast:
		return 1, 1
	case Southwest:
		return -1, 1
	default:
		return 0, 0
	}
}
