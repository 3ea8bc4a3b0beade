// Package output opens the display a configuration asks for.
package output

import (
	"errors"
	"fmt"
	"log/slog"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/BeatGlow/wallclock/display"
	"github.com/BeatGlow/wallclock/framebuffer"
	"github.com/BeatGlow/wallclock/internal/config"
	"github.com/BeatGlow/wallclock/internal/metrics"
	"github.com/BeatGlow/wallclock/window"
)

// ErrUnknownBackend is returned for a backend name Open doesn't know.
var ErrUnknownBackend = errors.New("output: unknown backend")

// Open opens the backend of cfg. The auto backend tries the framebuffer and
// falls back to an X11 window.
func Open(cfg *config.Config) (display.Display, error) {
	switch cfg.Backend {
	case config.BackendFramebuffer:
		return openFramebuffer(cfg)
	case config.BackendWindow:
		return openWindow(cfg)
	case config.BackendST7789:
		return openST7789(cfg.ST7789)
	case config.BackendAuto, "":
		d, err := openFramebuffer(cfg)
		if err == nil {
			return d, nil
		}
		slog.Info("output: no framebuffer, trying a window", "error", err)
		d, werr := openWindow(cfg)
		if werr != nil {
			return nil, fmt.Errorf("output: no usable display: %w", errors.Join(err, werr))
		}
		return d, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownBackend, cfg.Backend)
	}
}

func openFramebuffer(cfg *config.Config) (display.Display, error) {
	d, err := framebuffer.Open(cfg.Device, framebuffer.Config{
		Stripes:    cfg.Framebuffer.Stripes,
		FullRedraw: cfg.Framebuffer.FullRedraw,
		OnFlush:    metrics.ObserveFlush,
	})
	if err != nil {
		return nil, err
	}
	slog.Info("output: using framebuffer", "display", fmt.Sprint(d), "size", d.Bounds().Size())
	return d, nil
}

func openWindow(cfg *config.Config) (display.Display, error) {
	w, err := window.Open(cfg.Window.Width, cfg.Window.Height)
	if err != nil {
		return nil, err
	}
	slog.Info("output: using window", "display", w.String(), "size", w.Bounds().Size())
	return w, nil
}

func openST7789(cfg config.ST7789) (display.Display, error) {
	rotation, err := display.ParseRotation(cfg.Rotation)
	if err != nil {
		return nil, err
	}
	if _, err = host.Init(); err != nil {
		return nil, fmt.Errorf("output: periph: %w", err)
	}

	spi := display.DefaultSPIConfig()
	spi.Bus, spi.Device = cfg.Bus, cfg.Device
	if cfg.SpeedHz != 0 {
		spi.SpeedHz = cfg.SpeedHz
	}
	if cfg.Reset != "" {
		spi.Reset = gpioreg.ByName(cfg.Reset)
	}
	if cfg.DC != "" {
		spi.DC = gpioreg.ByName(cfg.DC)
	}

	c, err := display.OpenSPI(spi)
	if err != nil {
		return nil, err
	}
	panel := &display.Config{
		Width:    cfg.Width,
		Height:   cfg.Height,
		Rotation: rotation,
	}
	if cfg.Backlight != "" {
		if p := gpioreg.ByName(cfg.Backlight); p != nil {
			panel.Backlight = p
		} else {
			slog.Warn("output: unknown backlight pin", "pin", cfg.Backlight)
		}
	}

	d, err := display.ST7789(c, panel)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	slog.Info("output: using panel", "display", fmt.Sprint(d), "conn", c.String(), "rotation", rotation.String())
	return d, nil
}
