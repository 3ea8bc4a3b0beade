// Package framebuffer draws on the operating system's native framebuffer.
//
// On Linux the fbdev device (/dev/fb0) is memory mapped. On illumos the console
// framebuffer is located in the running kernel and written through /dev/allkmem;
// the program takes it over from the console driver. Both keep the frame in a
// shadow buffer and only write the stripes that changed since the last Refresh.
//
// Show and SetRotation are no-ops on framebuffers.
package framebuffer

import (
	"errors"
	"time"
)

// Errors
var (
	ErrNotSupported     = errors.New("framebuffer: not supported on this platform")
	ErrUnsupportedModel = errors.New("framebuffer: unsupported color model")
)

// Defaults
const (
	DefaultStripes    = 256
	DefaultFullRedraw = 15 * time.Second
)

// Config tunes how frames reach the device.
type Config struct {
	// Stripes is the number of slices the frame is split into for dirty tracking.
	Stripes int

	// FullRedraw is the interval at which every stripe is written, changed or not.
	FullRedraw time.Duration

	// OnFlush is called after every Refresh with the number of stripes written.
	OnFlush func(written, total int)
}

func (c Config) withDefaults() Config {
	if c.Stripes <= 0 {
		c.Stripes = DefaultStripes
	}
	if c.FullRedraw <= 0 {
		c.FullRedraw = DefaultFullRedraw
	}
	return c
}
