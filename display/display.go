// Package display defines the output surfaces a clock is drawn on, and contains
// the drivers for small SPI panels.
//
// Framebuffers and development windows live in their own packages and implement
// the same [Display] interface.
package display

import (
	"errors"
	"image"

	"periph.io/x/conn/v3/gpio"

	"github.com/BeatGlow/wallclock/draw"
	"github.com/BeatGlow/wallclock/pixel"
)

// Errors
var (
	ErrClosed = errors.New("display: closed")
)

// Rotation defines pixel rotation.
type Rotation uint8

// Supported rotations.
const (
	NoRotation Rotation = iota
	Rotate90            // Rotate 90° clock wise
	Rotate180           // Rotate 180°
	Rotate270           // Rotate 270° clock wise
)

func (r Rotation) String() string {
	switch r % 4 {
	case Rotate90:
		return "90°"
	case Rotate180:
		return "180°"
	case Rotate270:
		return "270°"
	default:
		return "0°"
	}
}

// ParseRotation accepts the rotation names used on the command line and in config files.
func ParseRotation(s string) (Rotation, error) {
	switch s {
	case "", "no", "0":
		return NoRotation, nil
	case "90", "right", "cw":
		return Rotate90, nil
	case "180", "flip":
		return Rotate180, nil
	case "270", "left", "ccw":
		return Rotate270, nil
	default:
		return NoRotation, errors.New("display: invalid rotation " + s)
	}
}

// Display is a pixel surface. Pixels set on it become visible after Refresh.
type Display interface {
	draw.Image

	// Close the display driver.
	Close() error

	// Clear the display buffer.
	Clear()

	// Show toggles the display on or off.
	Show(bool) error

	// SetRotation adjusts the pixel rotation.
	SetRotation(Rotation) error

	// Refresh redraws the display.
	Refresh() error
}

// Buffered is implemented by displays that keep their native frame in memory.
// Present converts into that buffer directly.
type Buffered interface {
	Buffer() pixel.Image
}

// Present copies a rendered frame onto d and refreshes it.
func Present(d Display, frame *image.RGBA) error {
	var dst draw.Image = d
	if b, ok := d.(Buffered); ok {
		dst = b.Buffer()
	}
	pixel.Copy(dst, frame)
	return d.Refresh()
}

// Config is the panel configuration.
type Config struct {
	// Width of the display in pixels.
	Width int

	// Height of the display in pixels.
	Height int

	// Rotation of the display.
	Rotation Rotation

	// Backlight pin
	Backlight gpio.PinOut
}

type baseDisplay struct {
	pixel.Image
	c         Conn
	width     int
	height    int
	colOffset int
	rowOffset int
	rotation  Rotation
}

func (d *baseDisplay) Buffer() pixel.Image {
	return d.Image
}

func (d *baseDisplay) data(data ...byte) error {
	return d.c.Data(data...)
}
