package framebuffer

import (
	"encoding/binary"
	"fmt"
	"image"
	"os"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/BeatGlow/wallclock/display"
	"github.com/BeatGlow/wallclock/internal/ioctl"
	"github.com/BeatGlow/wallclock/pixel"
)

// DefaultDevice is the first fbdev device.
const DefaultDevice = "/dev/fb0"

type linuxFrameBuffer struct {
	pixel.Image
	frame   []byte
	f       *os.File
	mem     []byte
	flusher *Flusher
	fix     fixScreenInfo
	info    varScreenInfo
}

// Open a Linux FrameBuffer device (fbdev) by name, typically /dev/fb[0..x].
func Open(name string, config Config) (display.Display, error) {
	if name == "" {
		name = DefaultDevice
	}
	f, err := os.OpenFile(name, os.O_RDWR, os.ModeDevice)
	if err != nil {
		return nil, err
	}

	fb := &linuxFrameBuffer{f: f}
	if err = fb.open(config); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("framebuffer: %s: %w", name, err)
	}
	return fb, nil
}

func (fb *linuxFrameBuffer) open(config Config) (err error) {
	fd := fb.f.Fd()
	if err = ioctl.Do(fd, fbioGetFScreenInfo, unsafe.Pointer(&fb.fix)); err != nil {
		return
	}
	if err = ioctl.Do(fd, fbioGetVScreenInfo, unsafe.Pointer(&fb.info)); err != nil {
		return
	}

	model, err := fb.info.colorModel()
	if err != nil {
		return
	}

	var (
		stride = int(fb.fix.LineLength)
		height = int(fb.info.Yres)
		base   = int64(fb.info.Yoffset)*int64(stride) + int64(fb.info.Xoffset*fb.info.BitsPerPixel/8)
		size   = stride * height
	)
	if base+int64(size) > int64(fb.fix.SmemLen) {
		return fmt.Errorf("visible area of %d bytes at %d exceeds device memory of %d bytes", size, base, fb.fix.SmemLen)
	}

	if fb.mem, err = unix.Mmap(int(fd), 0, int(fb.fix.SmemLen), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED); err != nil {
		return
	}

	fb.frame = make([]byte, size)
	fb.Image = pixel.Wrap(model, pixel.Buffer{
		Rect:   image.Rect(0, 0, int(fb.info.Xres), height),
		Pix:    fb.frame,
		Stride: stride,
	}, binary.NativeEndian)
	fb.flusher = NewFlusher(memory(fb.mem), base, size, config)
	return nil
}

func (fb *linuxFrameBuffer) String() string {
	id := strings.TrimRight(string(fb.fix.ID[:]), "\x00")
	return fmt.Sprintf("fbdev %s %dx%d %dbpp", id, fb.info.Xres, fb.info.Yres, fb.info.BitsPerPixel)
}

func (fb *linuxFrameBuffer) Buffer() pixel.Image {
	return fb.Image
}

// Close the framebuffer device
func (fb *linuxFrameBuffer) Close() error {
	if err := unix.Munmap(fb.mem); err != nil {
		_ = fb.f.Close()
		return err
	}
	return fb.f.Close()
}

// Show toggles the display on or off.
func (fb *linuxFrameBuffer) Show(_ bool) error {
	return nil
}

// SetRotation adjusts the pixel rotation.
func (fb *linuxFrameBuffer) SetRotation(_ display.Rotation) error {
	return nil
}

// Refresh writes the changed stripes to the device.
func (fb *linuxFrameBuffer) Refresh() error {
	_, err := fb.flusher.Flush(fb.frame)
	return err
}
