package framebuffer

import (
	"fmt"
	"image/color"

	"github.com/BeatGlow/wallclock/pixel"
)

// From <linux/fb.h>
const (
	fbioGetVScreenInfo = 0x4600
	fbioGetFScreenInfo = 0x4602
)

// fixScreenInfo is struct fb_fix_screeninfo.
type fixScreenInfo struct {
	ID         [16]byte  // Identification string eg "TT Builtin"
	SmemStart  uintptr   // Start of frame buffer mem
	SmemLen    uint32    // Length of frame buffer mem
	Type       uint32    // FB_TYPE_
	TypeAux    uint32    // Interleave for interleaved Planes
	Visual     uint32    // FB_VISUAL_
	Xpanstep   uint16    // Zero if no hardware panning
	Ypanstep   uint16    // Zero if no hardware panning
	Ywrapstep  uint16    // Zero if no hardware ywrap
	LineLength uint32    // Length of a line in bytes
	MmioStart  uintptr   // Start of Memory Mapped I/O (physical address)
	MmioLen    uint32    // Length of Memory Mapped I/O
	Accel      uint32    // Type of acceleration available
	Reserved   [3]uint16 // Reserved for future compatibility
}

// bitField describes where a color channel lives in a pixel.
type bitField struct {
	Offset   uint32 // Beginning of bitfield
	Length   uint32 // Length of bitfield
	MsbRight uint32 // != 0 : Most significant bit is right
}

func (f bitField) is(offset, length uint32) bool {
	return f.Offset == offset && f.Length == length && f.MsbRight == 0
}

// varScreenInfo is struct fb_var_screeninfo, the changeable information about
// a frame buffer device and its video mode.
type varScreenInfo struct {
	Xres                    uint32
	Yres                    uint32
	XresVirtual             uint32
	YresVirtual             uint32
	Xoffset                 uint32
	Yoffset                 uint32
	BitsPerPixel            uint32
	Grayscale               uint32
	Red, Green, Blue, Alpha bitField
	Nonstd                  uint32
	Activate                uint32
	Height                  uint32
	Width                   uint32
	AccelFlags              uint32
	Pixclock                uint32
	LeftMargin              uint32
	RightMargin             uint32
	UpperMargin             uint32
	LowerMargin             uint32
	HsyncLen                uint32
	VsyncLen                uint32
	Sync                    uint32
	Vmode                   uint32
	Rotate                  uint32
	Colorspace              uint32
	Reserved                [4]uint32
}

// colorModel maps the channel layout of a mode to a pixel model. Pixels are
// stored in host byte order.
func (info *varScreenInfo) colorModel() (color.Model, error) {
	switch {
	case info.BitsPerPixel == 16 && info.Red.is(11, 5) && info.Green.is(5, 6) && info.Blue.is(0, 5):
		return pixel.CRGB16Model, nil
	case info.BitsPerPixel == 16 && info.Blue.is(11, 5) && info.Green.is(5, 6) && info.Red.is(0, 5):
		return pixel.CBGR16Model, nil
	case (info.BitsPerPixel == 15 || info.BitsPerPixel == 16) && info.Red.is(10, 5) && info.Green.is(5, 5) && info.Blue.is(0, 5):
		return pixel.CRGB15Model, nil
	case (info.BitsPerPixel == 15 || info.BitsPerPixel == 16) && info.Blue.is(10, 5) && info.Green.is(5, 5) && info.Red.is(0, 5):
		return pixel.CBGR15Model, nil
	case info.BitsPerPixel == 32 && info.Red.is(16, 8) && info.Green.is(8, 8) && info.Blue.is(0, 8):
		return pixel.XRGBModel, nil
	}
	return nil, fmt.Errorf("%w: %d bpp red %d/%d green %d/%d blue %d/%d", ErrUnsupportedModel,
		info.BitsPerPixel,
		info.Red.Offset, info.Red.Length,
		info.Green.Offset, info.Green.Length,
		info.Blue.Offset, info.Blue.Length)
}
