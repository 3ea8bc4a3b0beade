//go:build !linux

package conn

import "errors"

var ErrNotSupported = errors.New("conn: spidev is only available on Linux")

// SPI is unavailable on this platform.
type SPI struct{}

func OpenSPI(_, _ int) (*SPI, error) {
	return nil, ErrNotSupported
}

func (c *SPI) Close() error                { return ErrNotSupported }
func (c *SPI) String() string              { return "SPI (unsupported)" }
func (c *SPI) Mode() SPIMode               { return SPIMode0 }
func (c *SPI) SetMode(SPIMode) error       { return ErrNotSupported }
func (c *SPI) BitsPerWord() uint8          { return 0 }
func (c *SPI) SetBitsPerWord(uint8) error  { return ErrNotSupported }
func (c *SPI) MaxSpeed() int               { return 0 }
func (c *SPI) SetMaxSpeed(int) error       { return ErrNotSupported }
func (c *SPI) Read(b []byte) (int, error)  { return 0, ErrNotSupported }
func (c *SPI) Write(b []byte) (int, error) { return 0, ErrNotSupported }
