package draw

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// FitSize returns the largest size with the aspect ratio of src that fits in
// width x height. Both dimensions are at least one pixel.
func FitSize(src image.Point, width, height int) image.Point {
	if src.X <= 0 || src.Y <= 0 || width <= 0 || height <= 0 {
		return image.Point{}
	}
	// Compare src.X/src.Y against width/height without floating point.
	if src.X*height > width*src.Y {
		return image.Pt(width, max(src.Y*width/src.X, 1))
	}
	return image.Pt(max(src.X*height/src.Y, 1), height)
}

// Fit scales src up or down to fit in width x height, keeping its aspect
// ratio, with Catmull-Rom resampling. The result is anchored at the origin.
func Fit(src image.Image, width, height int) *image.RGBA {
	size := FitSize(src.Bounds().Size(), width, height)
	dst := image.NewRGBA(image.Rectangle{Max: size})
	if size.X == 0 {
		return dst
	}
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}
