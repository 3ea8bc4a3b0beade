package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"os"
	"time"

	"github.com/BeatGlow/wallclock/display"
	"github.com/BeatGlow/wallclock/draw"
	"github.com/BeatGlow/wallclock/internal/clock"
	"github.com/BeatGlow/wallclock/internal/config"
	"github.com/BeatGlow/wallclock/internal/output"
)

func main() {
	backendFlag := flag.String("backend", config.BackendAuto, "Output: auto, framebuffer, window or st7789")
	deviceFlag := flag.String("device", "", "Framebuffer device")
	widthFlag := flag.Int("width", 0, "Window or panel width")
	heightFlag := flag.Int("height", 0, "Window or panel height")
	spiBusFlag := flag.Int("spi-bus", 0, "SPI bus")
	spiDeviceFlag := flag.Int("spi-dev", 0, "SPI device")
	resetPinFlag := flag.String("reset", "GPIO25", "Reset GPIO pin")
	dcPinFlag := flag.String("dc", "GPIO24", "Data/Command GPIO pin (DC)")
	blPinFlag := flag.String("bl", "", "Backlight GPIO pin")
	rotateFlag := flag.String("rotate", "90", "Panel rotation")
	framesFlag := flag.Int("frames", 0, "Stop after this many frames (default: run until interrupted)")
	flag.Parse()

	cfg := config.DefaultConfig()
	cfg.Backend = *backendFlag
	cfg.Device = *deviceFlag
	cfg.Window.Width, cfg.Window.Height = *widthFlag, *heightFlag
	cfg.ST7789 = config.ST7789{
		Bus:       *spiBusFlag,
		Device:    *spiDeviceFlag,
		Width:     *widthFlag,
		Height:    *heightFlag,
		Rotation:  *rotateFlag,
		Reset:     *resetPinFlag,
		DC:        *dcPinFlag,
		Backlight: *blPinFlag,
	}
	cfg.Normalize()

	out, err := output.Open(cfg)
	if err != nil {
		fatal(err)
	}
	defer out.Close()
	fmt.Printf("using display: %s\n", out)

	fonts, err := draw.NewFontStack(draw.DefaultFont())
	if err != nil {
		fatal(err)
	}

	var (
		offset int
		ticker = time.NewTicker(50 * time.Millisecond)
		r      = out.Bounds()
		frame  = image.NewRGBA(r)
		label  = fmt.Sprintf("%dx%d", r.Dx(), r.Dy())
	)
	defer ticker.Stop()

	fmt.Println("hit control-c to stop...")
	for *framesFlag == 0 || offset < *framesFlag {
		// Draw gradient inside box
		for y := 1; y < r.Max.Y-1; y++ {
			for x := 1; x < r.Max.X-1; x++ {
				frame.SetRGBA(x, y, color.RGBA{
					R: uint8(x + y + offset),
					G: uint8(x - y + offset),
					B: uint8(x + y - offset),
					A: 0xff,
				})
			}
		}

		// Draw box around edge
		draw.HorizontalLine(frame, 0, r.Max.X, 0, 1, color.White)
		draw.HorizontalLine(frame, 0, r.Max.X, r.Max.Y-1, 1, color.White)
		draw.Box(frame, image.Rect(0, 0, 1, r.Max.Y), color.White)
		draw.Box(frame, image.Rect(r.Max.X-1, 0, r.Max.X, r.Max.Y), color.White)

		height := r.Dy() / 3
		draw.Text(frame, time.Now().Format("15:04:05"), draw.Centre(0, r.Dx()), (r.Dy()-height)/2, fonts, height, clock.Green, draw.FixedNumbers)
		draw.Text(frame, label, draw.Right(r.Dx()-4), r.Dy()-r.Dy()/8-4, fonts, r.Dy()/8, clock.Grey, draw.Proportional)

		if err = display.Present(out, frame); err != nil {
			fatal(err)
		}

		offset++
		<-ticker.C
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "fatal: "+err.Error())
	os.Exit(1)
}
