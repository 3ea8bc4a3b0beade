package pixel

import (
	"encoding/binary"
	"image"
	"image/color"

	"github.com/BeatGlow/wallclock/draw"
)

type Image interface {
	draw.Image

	// Clear the image.
	Clear()

	// Fill the image with a single color.
	Fill(color.Color)
}

// Buffer holds the pixel values and is a container that is used by all image formats in this package.
type Buffer struct {
	// Rect is the image bounding box.
	Rect image.Rectangle

	// Pix are the image pixels.
	Pix []byte

	// Stride is the Pix stride (in bytes) between vertically adjacent pixels.
	Stride int
}

func (p *Buffer) Bounds() image.Rectangle {
	return p.Rect
}

func (p *Buffer) Clear() {
	clear(p.Pix)
}

func makeBuffer(w, h, stride int) Buffer {
	return Buffer{
		Rect:   image.Rect(0, 0, w, h),
		Pix:    make([]byte, stride*h),
		Stride: stride,
	}
}

// packed16 is the storage shared by the 2 bytes per pixel formats.
type packed16 struct {
	Buffer
	Order binary.ByteOrder
}

func (p *packed16) offset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*2
}

func (p *packed16) get(x, y int) (uint16, bool) {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return 0, false
	}
	return p.Order.Uint16(p.Pix[p.offset(x, y):]), true
}

func (p *packed16) put(x, y int, v uint16) {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return
	}
	p.Order.PutUint16(p.Pix[p.offset(x, y):], v)
}

func (p *packed16) fill(v uint16) {
	var pair [2]byte
	p.Order.PutUint16(pair[:], v)
	w := p.Rect.Dx() * 2
	for y := 0; y < p.Rect.Dy(); y++ {
		row := p.Pix[y*p.Stride : y*p.Stride+w]
		for i := 0; i < w; i += 2 {
			row[i], row[i+1] = pair[0], pair[1]
		}
	}
}

func newPacked16(w, h int) packed16 {
	return packed16{
		Buffer: makeBuffer(w, h, w*2),
		Order:  binary.BigEndian,
	}
}

// CRGB15Image is a 15-bits per pixel 5-5-5-bit RGB image.
type CRGB15Image struct {
	packed16
}

func NewCRGB15Image(w, h int) *CRGB15Image {
	return &CRGB15Image{packed16: newPacked16(w, h)}
}

func (p *CRGB15Image) ColorModel() color.Model { return CRGB15Model }

func (p *CRGB15Image) At(x, y int) color.Color {
	v, ok := p.get(x, y)
	if !ok {
		return color.Transparent
	}
	return CRGB15{v & 0x7fff}
}

func (p *CRGB15Image) Set(x, y int, c color.Color) {
	p.put(x, y, crgb15Model(c).(CRGB15).V)
}

func (p *CRGB15Image) Fill(c color.Color) {
	p.fill(crgb15Model(c).(CRGB15).V)
}

// CBGR15Image is a 15-bits per pixel 5-5-5-bit BGR image.
type CBGR15Image struct {
	packed16
}

func NewCBGR15Image(w, h int) *CBGR15Image {
	return &CBGR15Image{packed16: newPacked16(w, h)}
}

func (p *CBGR15Image) ColorModel() color.Model { return CBGR15Model }

func (p *CBGR15Image) At(x, y int) color.Color {
	v, ok := p.get(x, y)
	if !ok {
		return color.Transparent
	}
	return CBGR15{v & 0x7fff}
}

func (p *CBGR15Image) Set(x, y int, c color.Color) {
	p.put(x, y, cbgr15Model(c).(CBGR15).V)
}

func (p *CBGR15Image) Fill(c color.Color) {
	p.fill(cbgr15Model(c).(CBGR15).V)
}

// CRGB16Image is a 16-bits per pixel 5-6-5-bit RGB image.
type CRGB16Image struct {
	packed16
}

func NewCRGB16Image(w, h int) *CRGB16Image {
	return &CRGB16Image{packed16: newPacked16(w, h)}
}

func (p *CRGB16Image) ColorModel() color.Model { return CRGB16Model }

func (p *CRGB16Image) At(x, y int) color.Color {
	v, ok := p.get(x, y)
	if !ok {
		return color.Transparent
	}
	return CRGB16{v}
}

func (p *CRGB16Image) Set(x, y int, c color.Color) {
	p.put(x, y, crgb16Model(c).(CRGB16).V)
}

func (p *CRGB16Image) Fill(c color.Color) {
	p.fill(crgb16Model(c).(CRGB16).V)
}

// CBGR16Image is a 16-bits per pixel 5-6-5-bit BGR image.
type CBGR16Image struct {
	packed16
}

func NewCBGR16Image(w, h int) *CBGR16Image {
	return &CBGR16Image{packed16: newPacked16(w, h)}
}

func (p *CBGR16Image) ColorModel() color.Model { return CBGR16Model }

func (p *CBGR16Image) At(x, y int) color.Color {
	v, ok := p.get(x, y)
	if !ok {
		return color.Transparent
	}
	return CBGR16{v}
}

func (p *CBGR16Image) Set(x, y int, c color.Color) {
	p.put(x, y, cbgr16Model(c).(CBGR16).V)
}

func (p *CBGR16Image) Fill(c color.Color) {
	p.fill(cbgr16Model(c).(CBGR16).V)
}

// BGRX32Image is a 32-bits per pixel image laid out as blue, green, red and a pad byte.
//
// This is the layout of 32bpp VESA framebuffers and of XRGB8888 on little endian hosts.
type BGRX32Image struct {
	Buffer
}

func NewBGRX32Image(w, h int) *BGRX32Image {
	return &BGRX32Image{Buffer: makeBuffer(w, h, w*4)}
}

func (p *BGRX32Image) ColorModel() color.Model { return XRGBModel }

func (p *BGRX32Image) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*4
}

func (p *BGRX32Image) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return color.Transparent
	}
	i := p.PixOffset(x, y)
	return XRGB{R: p.Pix[i+2], G: p.Pix[i+1], B: p.Pix[i]}
}

func (p *BGRX32Image) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return
	}
	v := xrgbModel(c).(XRGB)
	i := p.PixOffset(x, y)
	p.Pix[i+0] = v.B
	p.Pix[i+1] = v.G
	p.Pix[i+2] = v.R
}

func (p *BGRX32Image) Fill(c color.Color) {
	v := xrgbModel(c).(XRGB)
	w := p.Rect.Dx() * 4
	for y := 0; y < p.Rect.Dy(); y++ {
		row := p.Pix[y*p.Stride : y*p.Stride+w]
		for i := 0; i < w; i += 4 {
			row[i+0], row[i+1], row[i+2] = v.B, v.G, v.R
		}
	}
}

// Interface checks.
var (
	_ Image = (*CRGB15Image)(nil)
	_ Image = (*CBGR15Image)(nil)
	_ Image = (*CRGB16Image)(nil)
	_ Image = (*CBGR16Image)(nil)
	_ Image = (*BGRX32Image)(nil)
)
