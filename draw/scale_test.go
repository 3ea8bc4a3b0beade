package draw

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFitSize(t *testing.T) {
	tests := []struct {
		name string
		src  image.Point
		want image.Point
	}{
		{"wide", image.Pt(1000, 100), image.Pt(640, 64)},
		{"tall", image.Pt(100, 1000), image.Pt(36, 360)},
		{"same aspect", image.Pt(320, 180), image.Pt(640, 360)},
		{"upscale", image.Pt(16, 16), image.Pt(360, 360)},
		{"sliver", image.Pt(100000, 1), image.Pt(640, 1)},
		{"empty", image.Pt(0, 10), image.Point{}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, FitSize(test.src, 640, 360))
		})
	}
}

func TestFit(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 10, 110, 60))
	Box(src, src.Bounds(), color.RGBA{R: 0xff, A: 0xff})

	dst := Fit(src, 640, 360)
	assert.Equal(t, image.Rect(0, 0, 640, 320), dst.Bounds())
	assert.Equal(t, color.RGBA{R: 0xff, A: 0xff}, dst.RGBAAt(320, 160))
	assert.Equal(t, color.RGBA{R: 0xff, A: 0xff}, dst.RGBAAt(0, 0))

	assert.True(t, Fit(image.NewRGBA(image.Rectangle{}), 640, 360).Bounds().Empty())
}
