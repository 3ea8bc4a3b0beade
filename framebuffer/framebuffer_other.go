//go:build !linux && !illumos

package framebuffer

import "github.com/BeatGlow/wallclock/display"

// DefaultDevice is empty on platforms without framebuffer support.
const DefaultDevice = ""

func Open(_ string, _ Config) (display.Display, error) {
	return nil, ErrNotSupported
}
