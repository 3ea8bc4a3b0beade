package draw

import (
	"image"
	"image/color"
)

// HorizontalLine draws a line from (x0,y) up to but not including (x1,y).
//
// A width below 2 draws a single row, wider lines extend width/2 rows above and
// below y. Pixels outside dst are dropped.
func HorizontalLine(dst Image, x0, x1, y, width int, c color.Color) {
	y0, y1 := y, y
	if width >= 2 {
		y0, y1 = y-width/2, y+width/2
	}
	Box(dst, image.Rect(x0, y0, x1, y1+1), c)
}

// Box draws a filled rectangle, clipped to dst.
func Box(dst Image, rect image.Rectangle, c color.Color) {
	rect = rect.Intersect(dst.Bounds())
	if rect.Empty() {
		return
	}
	Draw(dst, rect, image.NewUniform(c), image.Point{}, Src)
}
