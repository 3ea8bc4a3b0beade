package pixel

import (
	"encoding/binary"
	"image"
	"image/color"

	"github.com/BeatGlow/wallclock/draw"
)

// Wrap returns an image of the given model on top of an existing buffer, such as a
// memory mapped framebuffer. It returns nil for models this package doesn't pack.
func Wrap(model color.Model, buf Buffer, order binary.ByteOrder) Image {
	if order == nil {
		order = binary.LittleEndian
	}
	switch model {
	case CRGB15Model:
		return &CRGB15Image{packed16{Buffer: buf, Order: order}}
	case CBGR15Model:
		return &CBGR15Image{packed16{Buffer: buf, Order: order}}
	case CRGB16Model:
		return &CRGB16Image{packed16{Buffer: buf, Order: order}}
	case CBGR16Model:
		return &CBGR16Image{packed16{Buffer: buf, Order: order}}
	case XRGBModel:
		return &BGRX32Image{Buffer: buf}
	default:
		return nil
	}
}

// Copy converts the overlapping area of src into dst.
//
// The native formats of this package and *image.RGBA take a fast path that avoids
// the per pixel color.Color conversion of draw.Draw.
func Copy(dst draw.Image, src *image.RGBA) {
	r := dst.Bounds().Intersect(src.Bounds())
	if r.Empty() {
		return
	}

	switch dst := dst.(type) {
	case *BGRX32Image:
		for y := r.Min.Y; y < r.Max.Y; y++ {
			s := src.Pix[src.PixOffset(r.Min.X, y):]
			d := dst.Pix[dst.PixOffset(r.Min.X, y):]
			for x, i := 0, 0; x < r.Dx(); x, i = x+1, i+4 {
				d[i+0] = s[i+2]
				d[i+1] = s[i+1]
				d[i+2] = s[i+0]
			}
		}
	case *CRGB16Image:
		copy16(&dst.packed16, src, r, func(r, g, b uint8) uint16 {
			return uint16(r&0xf8)<<8 | uint16(g&0xfc)<<3 | uint16(b)>>3
		})
	case *CBGR16Image:
		copy16(&dst.packed16, src, r, func(r, g, b uint8) uint16 {
			return uint16(b&0xf8)<<8 | uint16(g&0xfc)<<3 | uint16(r)>>3
		})
	case *CRGB15Image:
		copy16(&dst.packed16, src, r, func(r, g, b uint8) uint16 {
			return uint16(r&0xf8)<<7 | uint16(g&0xf8)<<2 | uint16(b)>>3
		})
	case *CBGR15Image:
		copy16(&dst.packed16, src, r, func(r, g, b uint8) uint16 {
			return uint16(b&0xf8)<<7 | uint16(g&0xf8)<<2 | uint16(r)>>3
		})
	case *image.RGBA:
		for y := r.Min.Y; y < r.Max.Y; y++ {
			i := src.PixOffset(r.Min.X, y)
			j := dst.PixOffset(r.Min.X, y)
			copy(dst.Pix[j:j+r.Dx()*4], src.Pix[i:i+r.Dx()*4])
		}
	default:
		draw.Draw(dst, r, src, r.Min, draw.Src)
	}
}

func copy16(dst *packed16, src *image.RGBA, r image.Rectangle, pack func(r, g, b uint8) uint16) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		s := src.Pix[src.PixOffset(r.Min.X, y):]
		d := dst.Pix[dst.offset(r.Min.X, y):]
		for x := 0; x < r.Dx(); x++ {
			dst.Order.PutUint16(d[x*2:], pack(s[x*4], s[x*4+1], s[x*4+2]))
		}
	}
}
