package pixel

import "image/color"

// Models for the packed color types.
var (
	CRGB15Model color.Model = color.ModelFunc(crgb15Model)
	CBGR15Model color.Model = color.ModelFunc(cbgr15Model)
	CRGB16Model color.Model = color.ModelFunc(crgb16Model)
	CBGR16Model color.Model = color.ModelFunc(cbgr16Model)
	XRGBModel   color.Model = color.ModelFunc(xrgbModel)
)

// expand5 widens a 5-bit channel to 16 bits.
func expand5(v uint16) uint32 {
	v &= 0x1f
	v = v<<3 | v>>2
	return uint32(v) | uint32(v)<<8
}

// expand6 widens a 6-bit channel to 16 bits.
func expand6(v uint16) uint32 {
	v &= 0x3f
	v = v<<2 | v>>4
	return uint32(v) | uint32(v)<<8
}

// CRGB15 represents a 15-bit 5-5-5 RGB color.
type CRGB15 struct {
	// CIgnore, 1, CRed, 5, CGreen, 5, CBlue, 5
	V uint16
}

func (c CRGB15) RGBA() (r, g, b, a uint32) {
	return expand5(c.V >> 10), expand5(c.V >> 5), expand5(c.V), 0xffff
}

func crgb15Model(c color.Color) color.Color {
	if _, ok := c.(CRGB15); ok {
		return c
	}
	r, g, b, _ := c.RGBA()
	return CRGB15{uint16((r&0xf800)>>1 | (g&0xf800)>>6 | (b&0xf800)>>11)}
}

// CBGR15 represents a 15-bit 5-5-5 BGR color.
type CBGR15 struct {
	// CIgnore, 1, CBlue, 5, CGreen, 5, CRed, 5
	V uint16
}

func (c CBGR15) RGBA() (r, g, b, a uint32) {
	return expand5(c.V), expand5(c.V >> 5), expand5(c.V >> 10), 0xffff
}

func cbgr15Model(c color.Color) color.Color {
	if _, ok := c.(CBGR15); ok {
		return c
	}
	r, g, b, _ := c.RGBA()
	return CBGR15{uint16((b&0xf800)>>1 | (g&0xf800)>>6 | (r&0xf800)>>11)}
}

// CRGB16 represents a 16-bit 5-6-5 RGB color.
type CRGB16 struct {
	// CRed, 5, CGreen, 6, CBlue, 5
	V uint16
}

func (c CRGB16) RGBA() (r, g, b, a uint32) {
	return expand5(c.V >> 11), expand6(c.V >> 5), expand5(c.V), 0xffff
}

func crgb16Model(c color.Color) color.Color {
	if _, ok := c.(CRGB16); ok {
		return c
	}
	r, g, b, _ := c.RGBA()
	return CRGB16{uint16(r&0xf800 | (g&0xfc00)>>5 | (b&0xf800)>>11)}
}

// CBGR16 represents a 16-bit 5-6-5 BGR color.
type CBGR16 struct {
	// CBlue, 5, CGreen, 6, CRed, 5
	V uint16
}

func (c CBGR16) RGBA() (r, g, b, a uint32) {
	return expand5(c.V), expand6(c.V >> 5), expand5(c.V >> 11), 0xffff
}

func cbgr16Model(c color.Color) color.Color {
	if _, ok := c.(CBGR16); ok {
		return c
	}
	r, g, b, _ := c.RGBA()
	return CBGR16{uint16(b&0xf800 | (g&0xfc00)>>5 | (r&0xf800)>>11)}
}

// XRGB is an opaque 24-bit color stored in a 32-bit word; the pad byte is ignored.
type XRGB struct {
	R, G, B uint8
}

func (c XRGB) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R)
	r |= r << 8
	g = uint32(c.G)
	g |= g << 8
	b = uint32(c.B)
	b |= b << 8
	return r, g, b, 0xffff
}

func xrgbModel(c color.Color) color.Color {
	if _, ok := c.(XRGB); ok {
		return c
	}
	r, g, b, _ := c.RGBA()
	return XRGB{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)}
}
