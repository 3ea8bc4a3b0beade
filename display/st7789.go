package display

import (
	"fmt"
	"image"
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/BeatGlow/wallclock/display/conn"
	"github.com/BeatGlow/wallclock/pixel"
)

const (
	st7789DefaultWidth  = 320
	st7789DefaultHeight = 240
)

// Registers (from st7789.pdf).
const (
	st7789SLPOUT    = 0x11 // Sleep Out
	st7789INVON     = 0x21 // Display Inversion On
	st7789DISPOFF   = 0x28 // Display Off
	st7789DISPON    = 0x29 // Display On
	st7789CASET     = 0x2A // Column Address Set
	st7789RASET     = 0x2B // Row Address Set
	st7789RAMWR     = 0x2C // Memory Write
	st7789MADCTL    = 0x36 // Memory Data Access Control
	st7789COLMOD    = 0x3A // Interface Pixel Format
	st7789PORCTRL   = 0xB2 // Porch Setting
	st7789GCTRL     = 0xB7 // Gate Control
	st7789VCOMS     = 0xBB // VCOM Setting
	st7789LCMCTRL   = 0xC0 // LCM Control
	st7789VDVVRHEN  = 0xC2 // VDV and VRH Command Enable
	st7789VRHS      = 0xC3 // VRH Set
	st7789VDVSET    = 0xC4 // VDV Set
	st7789VCMOFSET  = 0xC5 // VCOM Offset Set
	st7789FRCTR2    = 0xC6 // Frame Rate Control in Normal Mode
	st7789PWCTRL1   = 0xD0 // Power Control 1
	st7789PVGAMCTRL = 0xE0 // Positive Voltage Gamma Control
	st7789NVGAMCTRL = 0xE1 // Negative Voltage Gamma Control
)

// Memory Data Access Control (MADCTL) bit fields.
const (
	_                           byte = 1 << iota // D0: reserved
	_                                            // D1: reserved
	st7789DisplayDataLatchOrder                  // D2: MH
	st7789RGBOrder                               // D3: RGB
	st7789LineAddressOrder                       // D4: ML
	st7789PageColumnOrder                        // D5: MV
	st7789ColumnAddressOrder                     // D6: MX
	st7789PageAddressOrder                       // D7: MY
)

// st7789 drives a Sitronix ST7789 RGB565 panel. The frame is kept in a
// big endian CRGB16 buffer and sent in full on every Refresh.
type st7789 struct {
	baseDisplay
	frame *pixel.CRGB16Image
}

// ST7789 initialises the panel behind c. A clock frame fits the panel at
// 90° or 270° rotation. The bus speed is left as OpenSPI configured it.
func ST7789(c Conn, config *Config) (Display, error) {
	if spi, ok := c.(SPI); ok {
		spi.SetDataLow(false)
		if err := spi.SetMode(conn.SPIMode3); err != nil {
			return nil, err
		}
	}

	d := &st7789{
		baseDisplay: baseDisplay{c: c},
	}
	if err := d.init(config); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *st7789) Close() error {
	if err := d.Show(false); err != nil {
		_ = d.c.Close()
		return err
	}
	return d.c.Close()
}

func (d *st7789) String() string {
	bounds := d.Bounds()
	return fmt.Sprintf("ST7789 %dx%d", bounds.Dx(), bounds.Dy())
}

func (d *st7789) command(command byte, data ...byte) (err error) {
	if err = d.c.Command(command); err != nil {
		return
	}
	if len(data) > 0 {
		return d.data(data...)
	}
	return
}

func (d *st7789) commands(commands [][]byte) (err error) {
	for _, command := range commands {
		if err = d.command(command[0], command[1:]...); err != nil {
			return
		}
	}
	return
}

func (d *st7789) init(config *Config) (err error) {
	if config.Width == 0 {
		config.Width = st7789DefaultWidth
	}
	if config.Height == 0 {
		config.Height = st7789DefaultHeight
	}
	d.width, d.height = config.Width, config.Height

	switch config.Rotation & 3 {
	case NoRotation, Rotate180:
		if config.Width > 240 || config.Height > 320 {
			return fmt.Errorf("st7789: invalid size %dx%d, maximum size is 240x320 at %s rotation", config.Width, config.Height, config.Rotation)
		}
	default:
		if config.Width > 320 || config.Height > 240 {
			return fmt.Errorf("st7789: invalid size %dx%d, maximum size is 320x240 at %s rotation", config.Width, config.Height, config.Rotation)
		}
	}

	d.frame = pixel.NewCRGB16Image(config.Width, config.Height)
	d.Image = d.frame

	if config.Backlight != nil {
		if err = config.Backlight.Out(gpio.High); err != nil {
			return
		}
	}

	// reset the device.
	if err = d.c.Reset(gpio.High); err != nil {
		return
	}
	time.Sleep(100 * time.Millisecond)
	if err = d.c.Reset(gpio.Low); err != nil {
		return
	}
	time.Sleep(100 * time.Millisecond)
	if err = d.c.Reset(gpio.High); err != nil {
		return
	}

	time.Sleep(10 * time.Millisecond)
	if err = d.command(st7789SLPOUT); err != nil {
		return
	}
	time.Sleep(150 * time.Millisecond)

	if err = d.commands([][]byte{
		{st7789COLMOD, 0x05},        // Interface Pixel Format: 16-bit/pixel (RGB 5-6-5-bit input)
		{st7789PORCTRL, 0x0C, 0x0C}, // Porch Setting: default
		{st7789GCTRL, 0x35},         // Gate Control: 13.26V / -10.43V (default)
		{st7789VCOMS, 0x1A},         // VCOM Setting: 0.75V
		{st7789LCMCTRL, 0x2C},       // LCM Control: default
		{st7789VDVVRHEN, 0x01},      // VDV and VRH Command Enable: default
		{st7789VRHS, 0x0B},          // VRH Set
		{st7789VDVSET, 0x20},        // VDV Set: default (0V)
		{st7789VCMOFSET, 0x20},      // VCOM Offset Set: default (0V)
		{st7789FRCTR2, 0x0F},        // Frame Rate Control in Normal Mode: 60Hz (default)
		{st7789PWCTRL1, 0xA4, 0xA1}, // Power Control 1: default
		{st7789INVON},
		{st7789PVGAMCTRL, 0x00, 0x19, 0x1E, 0x0A, 0x09, 0x15, 0x3D, 0x44, 0x51, 0x12, 0x03, 0x00, 0x3F, 0x3F},
		{st7789NVGAMCTRL, 0x00, 0x18, 0x1E, 0x0A, 0x09, 0x25, 0x3F, 0x43, 0x52, 0x33, 0x03, 0x00, 0x3F, 0x3F},
		{st7789DISPON},
	}); err != nil {
		return
	}
	time.Sleep(100 * time.Millisecond)

	return d.SetRotation(config.Rotation)
}

func (d *st7789) Clear() {
	d.frame.Clear()
}

func (d *st7789) Show(show bool) error {
	var command = byte(st7789DISPOFF)
	if show {
		command = byte(st7789DISPON)
	}
	return d.command(command)
}

func (d *st7789) SetRotation(rotation Rotation) error {
	rotation &= 3

	var madctl byte
	switch rotation {
	case NoRotation:
		madctl = 0
	case Rotate90:
		madctl = st7789ColumnAddressOrder | st7789PageColumnOrder
	case Rotate180:
		madctl = st7789ColumnAddressOrder | st7789PageAddressOrder
	case Rotate270:
		madctl = st7789PageAddressOrder | st7789PageColumnOrder
	}

	d.rotation = rotation
	return d.command(st7789MADCTL, madctl)
}

// setWindow selects the panel RAM area written by the next RAMWR.
func (d *st7789) setWindow(r image.Rectangle) error {
	x0, y0, x1, y1 := r.Min.X, r.Min.Y, r.Max.X-1, r.Max.Y-1
	if d.rotation == Rotate90 || d.rotation == Rotate270 {
		x0, x1 = x0+d.rowOffset, x1+d.rowOffset
		y0, y1 = y0+d.colOffset, y1+d.colOffset
	} else {
		x0, x1 = x0+d.colOffset, x1+d.colOffset
		y0, y1 = y0+d.rowOffset, y1+d.rowOffset
	}
	return d.commands([][]byte{
		{st7789CASET, byte(x0 >> 8), byte(x0), byte(x1 >> 8), byte(x1)},
		{st7789RASET, byte(y0 >> 8), byte(y0), byte(y1 >> 8), byte(y1)},
		{st7789RAMWR},
	})
}

// Refresh sets the window to full screen and redraws using the internal frame buffer.
func (d *st7789) Refresh() error {
	if err := d.setWindow(d.frame.Bounds()); err != nil {
		return err
	}
	return d.data(d.frame.Pix...)
}
