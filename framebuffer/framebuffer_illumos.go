package framebuffer

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/BeatGlow/wallclock/display"
	"github.com/BeatGlow/wallclock/internal/kernel"
	"github.com/BeatGlow/wallclock/pixel"
)

// DefaultDevice is the kernel memory device the console framebuffer is written through.
const DefaultDevice = kernelMemory

type illumosFrameBuffer struct {
	*pixel.BGRX32Image
	f       *os.File
	fb      kernelFrameBuffer
	flusher *Flusher
}

// kmem writes kernel virtual addresses. Kernel addresses don't fit an int64,
// so offsets wrap and are passed to pwrite unchecked.
type kmem struct {
	fd int
}

func (k kmem) WriteAt(p []byte, off int64) (int, error) {
	n, err := unix.Pwrite(k.fd, p, off)
	if err == nil && n != len(p) {
		err = fmt.Errorf("short write of %d bytes at %#x", n, uint64(off))
	}
	return n, err
}

// Open takes over the console framebuffer of the running kernel. The name is
// the kernel memory device, normally /dev/allkmem.
func Open(name string, config Config) (display.Display, error) {
	if name == "" {
		name = DefaultDevice
	}

	types, err := kernel.OpenCTF(kernelTypesPath)
	if err != nil {
		return nil, err
	}
	defer types.Close()

	kvm, err := kernel.OpenKVM()
	if err != nil {
		return nil, err
	}
	defer kvm.Close()

	fb, err := locateKernelFrameBuffer(types, kvm)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(name, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	img := pixel.NewBGRX32Image(fb.Width, fb.Height)
	return &illumosFrameBuffer{
		BGRX32Image: img,
		f:           f,
		fb:          fb,
		flusher:     NewFlusher(kmem{fd: int(f.Fd())}, int64(fb.Base), len(img.Pix), config),
	}, nil
}

func (fb *illumosFrameBuffer) String() string {
	return fmt.Sprintf("kernel framebuffer %dx%d at %#x", fb.fb.Width, fb.fb.Height, fb.fb.Base)
}

func (fb *illumosFrameBuffer) Buffer() pixel.Image {
	return fb.BGRX32Image
}

func (fb *illumosFrameBuffer) Close() error {
	return fb.f.Close()
}

func (fb *illumosFrameBuffer) Show(_ bool) error {
	return nil
}

func (fb *illumosFrameBuffer) SetRotation(_ display.Rotation) error {
	return nil
}

// Refresh writes the changed stripes to the device.
func (fb *illumosFrameBuffer) Refresh() error {
	_, err := fb.flusher.Flush(fb.Pix)
	return err
}
