package geometry

import (
	"math"
	"strconv"
	"strings"

	"github.com/Fepozopo/tmagick/pkg/errs"
)

// Alpha is a global opacity multiplier in [0, 1].
type Alpha float64

// Opaque leaves alpha values untouched.
const Opaque Alpha = 1

// Clamped returns a limited to [0, 1]. NaN clamps to 0.
func (a Alpha) Clamped() Alpha {
	switch {
	case math.IsNaN(float64(a)) || a < 0:
		return 0
	case a > 1:
		return 1
	default:
		return a
	}
}

// Scale multiplies an 8-bit alpha value by a, truncating the result. The
// small bias keeps products such as 255*(128/255) from truncating to 127.
func (a Alpha) Scale(v uint8) uint8 {
	return uint8(math.Min(float64(v)*float64(a.Clamped())+1e-9, 255))
}

// ParseAlpha parses an opacity given as a fraction ("0.5") or a percentage
// ("50%"). Out-of-range values are clamped rather than rejected.
func ParseAlpha(s string) (Alpha, error) {
	s = strings.TrimSpace(s)
	percent := strings.HasSuffix(s, "%")
	f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil || math.IsNaN(f) {
		return 0, errs.New(errs.InvalidArgument, "invalid opacity %q", s)
	}
	if percent {
		f /= 100
	}
	return Alpha(f).Clamped(), nil
}
