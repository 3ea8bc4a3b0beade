package framebuffer

import (
	"bytes"
	"fmt"
	"io"
	"math/rand/v2"
	"time"
)

type stripe struct {
	off, len int
}

// Flusher writes the changed parts of a frame to a device.
//
// The frame is split into stripes. A stripe is written when it differs from the
// copy that was last written, in a shuffled order so that a changing picture
// dissolves in rather than sweeping down the screen. Every FullRedraw all
// stripes are written, which repairs anything else that drew on the device.
type Flusher struct {
	dst        io.WriterAt
	base       int64
	shadow     []byte
	stripes    []stripe
	order      []int
	rand       *rand.Rand
	fullRedraw time.Duration
	lastFull   time.Time
	onFlush    func(written, total int)

	now func() time.Time
}

// NewFlusher tracks a frame of size bytes that lives at offset base of dst.
func NewFlusher(dst io.WriterAt, base int64, size int, config Config) *Flusher {
	config = config.withDefaults()

	n := min(config.Stripes, max(size, 1))
	f := &Flusher{
		dst:        dst,
		base:       base,
		shadow:     make([]byte, size),
		stripes:    make([]stripe, n),
		order:      make([]int, n),
		rand:       rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), uint64(size))),
		fullRedraw: config.FullRedraw,
		onFlush:    config.OnFlush,
		now:        time.Now,
	}

	per := size / n
	for i := range f.stripes {
		f.stripes[i] = stripe{off: i * per, len: per}
		f.order[i] = i
	}
	// The last stripe takes the bytes that don't divide evenly.
	f.stripes[n-1].len = size - (n-1)*per
	return f
}

// Stripes is the number of stripes the frame is split into.
func (f *Flusher) Stripes() int {
	return len(f.stripes)
}

// Flush writes the stripes of frame that changed and returns how many were written.
func (f *Flusher) Flush(frame []byte) (int, error) {
	if len(frame) != len(f.shadow) {
		return 0, fmt.Errorf("framebuffer: frame is %d bytes, expected %d", len(frame), len(f.shadow))
	}

	now := f.now()
	full := f.lastFull.IsZero() || now.Sub(f.lastFull) >= f.fullRedraw

	f.rand.Shuffle(len(f.order), func(i, j int) {
		f.order[i], f.order[j] = f.order[j], f.order[i]
	})

	var written int
	for _, i := range f.order {
		s := f.stripes[i]
		src := frame[s.off : s.off+s.len]
		shadow := f.shadow[s.off : s.off+s.len]
		if !full && bytes.Equal(src, shadow) {
			continue
		}
		copy(shadow, src)
		if _, err := f.dst.WriteAt(shadow, f.base+int64(s.off)); err != nil {
			return written, fmt.Errorf("framebuffer: write stripe %d: %w", i, err)
		}
		written++
	}

	if full {
		f.lastFull = now
	}
	if f.onFlush != nil {
		f.onFlush(written, len(f.stripes))
	}
	return written, nil
}

// memory is an io.WriterAt over a byte slice, such as a memory mapped device.
type memory []byte

func (m memory) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > int64(len(m)) {
		return 0, io.ErrShortWrite
	}
	return copy(m[off:], p), nil
}
