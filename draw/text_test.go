package draw

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/gomono"
)

func testFontStack(t *testing.T) *FontStack {
	t.Helper()
	mono, err := ParseFont(gomono.TTF, Range{Lo: 0x2600, Hi: 0x26ff})
	require.NoError(t, err)
	stack, err := NewFontStack(mono, DefaultFont())
	require.NoError(t, err)
	return stack
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		in      string
		want    Range
		wantErr bool
	}{
		{in: "2600-26ff", want: Range{Lo: 0x2600, Hi: 0x26ff}},
		{in: "0x2700-0x27BF", want: Range{Lo: 0x2700, Hi: 0x27bf}},
		{in: "U+1F37E", want: Range{Lo: 0x1f37e, Hi: 0x1f37e}},
		{in: " 1f382 - 1f384 ", want: Range{Lo: 0x1f382, Hi: 0x1f384}},
		{in: "26ff-2600", wantErr: true},
		{in: "sun", wantErr: true},
	}
	for _, test := range tests {
		t.Run(test.in, func(t *testing.T) {
			r, err := ParseRange(test.in)
			if test.wantErr {
				assert.ErrorIs(t, err, ErrRange)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.want, r)
		})
	}
}

func TestFontStackIndex(t *testing.T) {
	stack := testFontStack(t)
	assert.Equal(t, 2, stack.Len())
	assert.Equal(t, 0, stack.Index('☀'), "sun is in the first font's range")
	assert.Equal(t, 1, stack.Index('A'))
	assert.Equal(t, 1, stack.Index('🎂'), "unmatched code points use the last font")
}

func TestNewFontStackEmpty(t *testing.T) {
	_, err := NewFontStack()
	assert.ErrorIs(t, err, ErrNoFonts)
}

func TestFaceHeight(t *testing.T) {
	stack := testFontStack(t)
	for _, height := range []int{12, 90, 360} {
		m := stack.Face('A', height).Metrics()
		got := (m.Ascent + m.Descent).Round()
		assert.InDelta(t, height, got, 2, "ascent+descent at height %d", height)
	}
	assert.Same(t, stack.Face('A', 90), stack.Face('B', 90), "faces are cached per font and height")
}

func TestFixedNumbers(t *testing.T) {
	stack := testFontStack(t)
	a := Measure("11:11:11", stack, 100, FixedNumbers)
	b := Measure("00:00:00", stack, 100, FixedNumbers)
	assert.Equal(t, a, b)
	assert.Greater(t, Measure("0 m 0 s", stack, 100, FixedExtra), 0)
	assert.GreaterOrEqual(t, Measure("11", stack, 100, FixedExtra), Measure("11", stack, 100, FixedNumbers))
}

func TestTextAlign(t *testing.T) {
	stack := testFontStack(t)
	const height = 40
	width := Measure("Hello", stack, height, Proportional)
	require.Greater(t, width, 0)

	tests := []struct {
		name  string
		align Align
		min   int
		max   int
	}{
		{"left", Left(10), 10, 10 + width},
		{"right", Right(300), 300 - width, 300},
		{"centre", Centre(0, 400), (400 - width) / 2, (400+width)/2 + 1},
		{"too wide", Centre(5, width/2), 5, 5 + width},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			dst := image.NewRGBA(image.Rect(0, 0, 400, 100))
			got := Text(dst, "Hello", test.align, 20, stack, height, color.White, Proportional)
			assert.Equal(t, width, got)

			ink := inkBounds(dst)
			require.False(t, ink.Empty(), "expected some pixels to be drawn")
			assert.GreaterOrEqual(t, ink.Min.X, test.min-1)
			assert.LessOrEqual(t, ink.Max.X, test.max+1)
			assert.GreaterOrEqual(t, ink.Min.Y, 20)
			assert.LessOrEqual(t, ink.Max.Y, 20+height+1)
		})
	}
}

func TestTextClipped(t *testing.T) {
	stack := testFontStack(t)
	dst := image.NewRGBA(image.Rect(0, 0, 20, 20))
	assert.NotPanics(t, func() {
		Text(dst, "12:34:56", Right(10), -10, stack, 80, color.White, FixedNumbers)
	})
	assert.Equal(t, 0, Text(dst, "", Left(0), 0, stack, 80, color.White, Proportional))
	assert.Equal(t, 0, Text(dst, "x", Left(0), 0, stack, 0, color.White, Proportional))
}

func TestHorizontalLine(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 10, 10))
	grey := color.RGBA{R: 0xc8, G: 0xc8, B: 0xc8, A: 0xff}

	HorizontalLine(dst, 0, 10, 5, 4, grey)
	assert.Equal(t, image.Rect(0, 3, 10, 8), inkBounds(dst))

	dst = image.NewRGBA(image.Rect(0, 0, 10, 10))
	HorizontalLine(dst, 2, 20, 0, 1, grey)
	assert.Equal(t, image.Rect(2, 0, 10, 1), inkBounds(dst))
}

func inkBounds(img *image.RGBA) image.Rectangle {
	var r image.Rectangle
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if c := img.RGBAAt(x, y); c.R|c.G|c.B != 0 {
				r = r.Union(image.Rect(x, y, x+1, y+1))
			}
		}
	}
	return r
}
