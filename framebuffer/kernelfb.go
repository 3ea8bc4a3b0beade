package framebuffer

import "fmt"

// Where the illumos console framebuffer is described.
const (
	kernelTypesPath = "/system/object/gfx_private/object"
	kernelSymbol    = "fb_info"
	kernelMemory    = "/dev/allkmem"
)

type kernelTypes interface {
	OffsetOf(typeName, member string) (uintptr, error)
}

type kernelReader interface {
	Locate(symbol string) (uintptr, error)
	ReadUint16(addr uintptr) (uint16, error)
	ReadUintptr(addr uintptr) (uintptr, error)
}

// kernelFrameBuffer is the part of the kernel's struct fb_info we need.
type kernelFrameBuffer struct {
	Base   uintptr
	Size   int
	Width  int
	Height int
}

// locateKernelFrameBuffer finds the console framebuffer mapping by reading
// fb_info.fb, fb_info.fb_size and fb_info.screen.{x,y} from the live kernel.
func locateKernelFrameBuffer(types kernelTypes, mem kernelReader) (kernelFrameBuffer, error) {
	offsets := make(map[string]uintptr, 5)
	for _, m := range []struct{ typ, member string }{
		{"struct fb_info", "fb"},
		{"struct fb_info", "fb_size"},
		{"struct fb_info", "screen"},
		{"struct fb_info_pixel_coord", "x"},
		{"struct fb_info_pixel_coord", "y"},
	} {
		off, err := types.OffsetOf(m.typ, m.member)
		if err != nil {
			return kernelFrameBuffer{}, err
		}
		offsets[m.member] = off
	}

	addr, err := mem.Locate(kernelSymbol)
	if err != nil {
		return kernelFrameBuffer{}, err
	}

	var fb kernelFrameBuffer
	if fb.Base, err = mem.ReadUintptr(addr + offsets["fb"]); err != nil {
		return fb, fmt.Errorf("framebuffer: could not read fb: %w", err)
	}
	size, err := mem.ReadUintptr(addr + offsets["fb_size"])
	if err != nil {
		return fb, fmt.Errorf("framebuffer: could not read fb_size: %w", err)
	}
	fb.Size = int(size)

	screen := addr + offsets["screen"]
	width, err := mem.ReadUint16(screen + offsets["x"])
	if err != nil {
		return fb, fmt.Errorf("framebuffer: could not read screen width: %w", err)
	}
	height, err := mem.ReadUint16(screen + offsets["y"])
	if err != nil {
		return fb, fmt.Errorf("framebuffer: could not read screen height: %w", err)
	}
	fb.Width, fb.Height = int(width), int(height)

	if fb.Width == 0 || fb.Height == 0 {
		return fb, fmt.Errorf("framebuffer: kernel reports a %dx%d screen", fb.Width, fb.Height)
	}
	if need := fb.Width * fb.Height * 4; need > fb.Size {
		return fb, fmt.Errorf("framebuffer: %dx%d at 32bpp needs %d bytes, kernel maps %d", fb.Width, fb.Height, need, fb.Size)
	}
	return fb, nil
}
