//go:build linux

// Package conn talks to Linux spidev character devices.
package conn

import (
	"fmt"
	"os"

	"github.com/BeatGlow/wallclock/internal/ioctl"
)

const spiDevPath = "/dev/spidev"

// Requests from <linux/spi/spidev.h>
const (
	spiIOCMode        = 0x6b01
	spiIOCBitsPerWord = 0x6b03
	spiIOCMaxSpeedHz  = 0x6b04
)

// SPI implements the spidev interface.
type SPI struct {
	f           *os.File
	fd          uintptr
	mode        SPIMode
	bitsPerWord uint8
	maxSpeedHz  uint32
}

// OpenSPI opens the numbered spi bus with the numbered device. The device often corresponds to the CS pin for that bus.
func OpenSPI(bus, device int) (*SPI, error) {
	f, err := os.OpenFile(fmt.Sprintf("%s%d.%d", spiDevPath, bus, device), os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	c := &SPI{
		f:  f,
		fd: f.Fd(),
	}
	if c.mode, err = ioctl.Get[SPIMode](c.fd, spiIOCMode); err != nil {
		_ = f.Close()
		return nil, err
	}
	if c.bitsPerWord, err = ioctl.Get[uint8](c.fd, spiIOCBitsPerWord); err != nil {
		_ = f.Close()
		return nil, err
	}
	if c.maxSpeedHz, err = ioctl.Get[uint32](c.fd, spiIOCMaxSpeedHz); err != nil {
		_ = f.Close()
		return nil, err
	}
	return c, nil
}

func (c *SPI) Close() error {
	return c.f.Close()
}

func (c *SPI) String() string {
	return fmt.Sprintf("%s mode=%d bits per word=%d max speed=%dHz", c.f.Name(), c.mode, c.bitsPerWord, c.maxSpeedHz)
}

func (c *SPI) Mode() SPIMode {
	return c.mode
}

func (c *SPI) SetMode(mode SPIMode) error {
	mode &= 0x0f
	if err := ioctl.Set(c.fd, spiIOCMode, mode); err != nil {
		return err
	}

	test, err := ioctl.Get[SPIMode](c.fd, spiIOCMode)
	if err != nil {
		return err
	}
	if test != mode {
		return fmt.Errorf("conn: SPI attempted to set mode %#02x, but mode %#02x is in use", mode, test)
	}

	c.mode = mode
	return nil
}

func (c *SPI) BitsPerWord() uint8 {
	return c.bitsPerWord
}

func (c *SPI) SetBitsPerWord(bits uint8) error {
	if bits < 8 || bits > 32 {
		return fmt.Errorf("conn: SPI bits per word need to be 8 or more and 32 or less, got %d", bits)
	}
	if c.bitsPerWord != bits {
		if err := ioctl.Set(c.fd, spiIOCBitsPerWord, bits); err != nil {
			return err
		}
		c.bitsPerWord = bits
	}
	return nil
}

func (c *SPI) MaxSpeed() int {
	return int(c.maxSpeedHz)
}

func (c *SPI) SetMaxSpeed(v int) error {
	if v < 0 {
		return nil
	}
	u := uint32(v)
	if c.maxSpeedHz != u {
		if err := ioctl.Set(c.fd, spiIOCMaxSpeedHz, u); err != nil {
			return err
		}
		c.maxSpeedHz = u
	}
	return nil
}

func (c *SPI) Read(b []byte) (n int, err error) {
	return c.f.Read(b)
}

func (c *SPI) Write(b []byte) (n int, err error) {
	return c.f.Write(b)
}
