package geometry

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fepozopo/tmagick/pkg/errs"
)

func TestResolveFitBox(t *testing.T) {
	cases := []struct {
		name       string
		srcW, srcH int
		target     ResizeTarget
		constraint ResizeConstraint
		wantW      int
		wantH      int
	}{
		{"4:3 into matching box", 800, 600, Size(400, 300), NoConstraint, 400, 300},
		{"16:9 into 4:3 box", 800, 450, Size(400, 300), OnlyShrink, 400, 225},
		{"portrait height bound", 600, 800, Size(400, 300), NoConstraint, 225, 300},
		{"width only", 800, 600, Size(200, 0), NoConstraint, 200, 150},
		{"height only", 800, 600, Size(0, 150), NoConstraint, 200, 150},
		{"round half away from zero", 3, 2, Size(0, 3), NoConstraint, 5, 3},
		{"clamped to one pixel", 1000, 1, Size(10, 0), NoConstraint, 10, 1},
		{"ignore aspect", 800, 600, ResizeTarget{Width: 100, Height: 400, IgnoreAspectRatio: true}, NoConstraint, 100, 400},
		{"fill covers box", 800, 600, ResizeTarget{Width: 300, Height: 300, Fill: true}, NoConstraint, 400, 300},
		{"percent", 800, 600, Percent(50, 0), NoConstraint, 400, 300},
		{"percent per axis", 800, 600, Percent(50, 25), NoConstraint, 400, 150},
		{"area", 800, 600, ResizeTarget{Kind: TargetArea, Area: 120000}, NoConstraint, 400, 300},
		{"only shrink skips growth", 800, 600, Size(2000, 2000), OnlyShrink, 800, 600},
		{"only shrink applies", 800, 600, Size(400, 300), OnlyShrink, 400, 300},
		{"only shrink needs both axes smaller", 800, 600, ResizeTarget{Width: 400, Height: 600, IgnoreAspectRatio: true}, OnlyShrink, 800, 600},
		{"only enlarge skips shrink", 800, 600, Size(400, 300), OnlyEnlarge, 800, 600},
		{"only enlarge applies", 400, 300, Size(800, 800), OnlyEnlarge, 800, 600},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w, h, err := Resolve(c.target, c.constraint, c.srcW, c.srcH)
			require.NoError(t, err)
			assert.Equal(t, c.wantW, w, "width")
			assert.Equal(t, c.wantH, h, "height")
		})
	}
}

func TestResolveRejectsUnusableTargets(t *testing.T) {
	_, _, err := Resolve(Size(0, 0), NoConstraint, 10, 10)
	assert.True(t, errs.Is(err, errs.InvalidGeometry))

	_, _, err = Resolve(Size(-5, 10), NoConstraint, 10, 10)
	assert.True(t, errs.Is(err, errs.InvalidGeometry))

	_, _, err = Resolve(Size(5, 5), NoConstraint, 0, 10)
	assert.True(t, errs.Is(err, errs.InvalidGeometry))

	_, _, err = Resolve(Percent(0, 0), NoConstraint, 10, 10)
	assert.True(t, errs.Is(err, errs.InvalidGeometry))
}

func TestResolveRejectsOversizedOutput(t *testing.T) {
	g, err := ParseResize("3000000000x3000000000!")
	require.NoError(t, err)
	_, _, err = g.Resolve(2, 2)
	assert.True(t, errs.Is(err, errs.InvalidGeometry), "%v", err)

	_, _, err = Resolve(Percent(1e12, 0), NoConstraint, 2, 2)
	assert.True(t, errs.Is(err, errs.InvalidGeometry), "%v", err)

	// a constraint that keeps the source size never allocates the target
	w, h, err := Resolve(ResizeTarget{Width: 3000000000, Height: 3000000000, IgnoreAspectRatio: true}, OnlyShrink, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2}, []int{w, h})

	assert.NoError(t, CheckSize(1<<14, 1<<14))
	assert.True(t, errs.Is(CheckSize(1<<15, 1<<14), errs.InvalidGeometry))
	assert.True(t, errs.Is(CheckSize(0, 1), errs.InvalidGeometry))
}

func TestResolveAspectPreservingProperty(t *testing.T) {
	for srcW := 1; srcW <= 1200; srcW += 97 {
		for srcH := 1; srcH <= 900; srcH += 89 {
			for _, box := range [][2]int{{400, 300}, {50, 500}, {1000, 10}, {1, 1}} {
				w, h, err := Resolve(Size(box[0], box[1]), NoConstraint, srcW, srcH)
				require.NoError(t, err)
				assert.LessOrEqual(t, w, box[0])
				assert.LessOrEqual(t, h, box[1])
				assert.True(t, w == box[0] || h == box[1], "%dx%d into %v gave %dx%d", srcW, srcH, box, w, h)
				if w > 1 && h > 1 {
					// one pixel of rounding on the derived axis
					want := float64(srcW) / float64(srcH)
					lo := (float64(w) - 1) / (float64(h) + 1)
					hi := (float64(w) + 1) / math.Max(float64(h)-1, 1)
					assert.True(t, want >= lo && want <= hi, "aspect %v outside [%v,%v]", want, lo, hi)
				}
			}
		}
	}
}

func TestOnlyShrinkIsIdempotentForLargerTargets(t *testing.T) {
	for _, src := range [][2]int{{1, 1}, {800, 600}, {33, 1000}} {
		w, h, err := Resolve(Size(src[0]*3, src[1]*3), OnlyShrink, src[0], src[1])
		require.NoError(t, err)
		assert.Equal(t, src[0], w)
		assert.Equal(t, src[1], h)
	}
}

func TestAnchorTable(t *testing.T) {
	cases := []struct {
		g     Gravity
		wantX int
		wantY int
	}{
		{Northwest, 0, 0},
		{North, 350, 0},
		{Northeast, 700, 0},
		{West, 0, 275},
		{Center, 350, 275},
		{East, 700, 275},
		{Southwest, 0, 550},
		{South, 350, 550},
		{Southeast, 700, 550},
	}
	for _, c := range cases {
		x, y := Anchor(c.g, 800, 600, 100, 50)
		assert.Equal(t, c.wantX, x, c.g.String())
		assert.Equal(t, c.wantY, y, c.g.String())
	}
}

func TestAnchorOversizedForegroundTruncatesTowardZero(t *testing.T) {
	x, y := Anchor(Center, 10, 10, 15, 13)
	assert.Equal(t, -2, x)
	assert.Equal(t, -1, y)

	x, y = Anchor(Southeast, 10, 10, 15, 13)
	assert.Equal(t, -5, x)
	assert.Equal(t, -3, y)
}

func TestAnchorCornersSymmetry(t *testing.T) {
	for W := 1; W < 50; W += 7 {
		for w := 1; w <= W; w += 5 {
			x, y := Anchor(Southeast, W, W+3, w, w)
			assert.Equal(t, W-w, x)
			assert.Equal(t, W+3-w, y)
			x, y = Anchor(Northwest, W, W+3, w, w)
			assert.Zero(t, x)
			assert.Zero(t, y)
		}
	}
}

func TestParseGravity(t *testing.T) {
	g, err := ParseGravity("SouthEast")
	require.NoError(t, err)
	assert.Equal(t, Southeast, g)

	_, err = ParseGravity("middle")
	assert.True(t, errs.Is(err, errs.InvalidArgument))
}

func TestParseAlpha(t *testing.T) {
	a, err := ParseAlpha("0.5")
	require.NoError(t, err)
	assert.Equal(t, Alpha(0.5), a)

	a, err = ParseAlpha("25%")
	require.NoError(t, err)
	assert.Equal(t, Alpha(0.25), a)

	a, err = ParseAlpha("3")
	require.NoError(t, err)
	assert.Equal(t, Opaque, a)

	a, err = ParseAlpha("-1")
	require.NoError(t, err)
	assert.Equal(t, Alpha(0), a)

	_, err = ParseAlpha("half")
	assert.True(t, errs.Is(err, errs.InvalidArgument))

	assert.Equal(t, uint8(127), Alpha(0.5).Scale(255))
	assert.Equal(t, uint8(255), Alpha(1).Scale(255))
}

func TestParseResize(t *testing.T) {
	cases := []struct {
		in   string
		want ResizeGeometry
	}{
		{"400x300", ResizeGeometry{Target: Size(400, 300)}},
		{"400", ResizeGeometry{Target: Size(400, 0)}},
		{"x300", ResizeGeometry{Target: Size(0, 300)}},
		{"400x300>", ResizeGeometry{Target: Size(400, 300), Constraint: OnlyShrink}},
		{"400x300<", ResizeGeometry{Target: Size(400, 300), Constraint: OnlyEnlarge}},
		{"400x300!", ResizeGeometry{Target: ResizeTarget{Width: 400, Height: 300, IgnoreAspectRatio: true}}},
		{"400x300^", ResizeGeometry{Target: ResizeTarget{Width: 400, Height: 300, Fill: true}}},
		{"50%", ResizeGeometry{Target: Percent(50, 0)}},
		{"50x25%", ResizeGeometry{Target: Percent(50, 25)}},
		{"10000@", ResizeGeometry{Target: ResizeTarget{Kind: TargetArea, Area: 10000}}},
	}
	for _, c := range cases {
		got, err := ParseResize(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}

	for _, bad := range []string{"", "x", "0x0", "abc", "10x10<>", "10.5x3", "10x10+5+5"} {
		_, err := ParseResize(bad)
		assert.True(t, errs.Is(err, errs.InvalidArgument), "expected InvalidArgument for %q, got %v", bad, err)
	}
}

func TestParseCropAndRect(t *testing.T) {
	g, err := ParseCrop("100x50+10+20")
	require.NoError(t, err)
	r, err := g.Rect(800, 600)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(10, 20, 110, 70), r)

	g, err = ParseCrop("50%x50%+25%+0")
	require.NoError(t, err)
	r, err = g.Rect(800, 600)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(200, 0, 600, 300), r)

	// clipped against the right edge
	g, err = ParseCrop("500x500+700+500")
	require.NoError(t, err)
	r, err = g.Rect(800, 600)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(700, 500, 800, 600), r)

	// zero height extends to the bottom edge
	g, err = ParseCrop("100x0+0+100")
	require.NoError(t, err)
	r, err = g.Rect(800, 600)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 100, 100, 600), r)

	g, err = ParseCrop("10x10+900+900")
	require.NoError(t, err)
	_, err = g.Rect(800, 600)
	assert.True(t, errs.Is(err, errs.InvalidGeometry))

	g, err = ParseCrop("20x20-5-5")
	require.NoError(t, err)
	r, err = g.Rect(800, 600)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 15, 15), r)

	for _, bad := range []string{"", "+1+1", "10x10+1", "axb"} {
		_, err := ParseCrop(bad)
		assert.Error(t, err, bad)
	}
}

func TestSplitLoadCrop(t *testing.T) {
	path, g, ok, err := SplitLoadCrop("photos/in.jpg[100x100+5+5]")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "photos/in.jpg", path)
	assert.Equal(t, LoadCropGeometry{Width: Px(100), Height: Px(100), X: Px(5), Y: Px(5)}, g)

	path, _, ok, err = SplitLoadCrop("plain.png")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "plain.png", path)
}
