package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Zones must resolve on systems without a zoneinfo database.
	_ "time/tzdata"

	pkgerrors "github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/BeatGlow/wallclock/display"
	"github.com/BeatGlow/wallclock/draw"
	"github.com/BeatGlow/wallclock/internal/clock"
	"github.com/BeatGlow/wallclock/internal/config"
	applog "github.com/BeatGlow/wallclock/internal/log"
	"github.com/BeatGlow/wallclock/internal/metrics"
	"github.com/BeatGlow/wallclock/internal/output"
	"github.com/BeatGlow/wallclock/internal/schedule"
	"github.com/BeatGlow/wallclock/internal/temperature"
	"github.com/BeatGlow/wallclock/internal/web"
)

var errWindowClosed = errors.New("window closed")

type flagConfig struct {
	configPath string
	listen     string
	backend    string
	device     string
	debug      bool
}

func main() {
	flags := parseFlags()
	if err := run(flags); err != nil {
		slog.Error("wallclock failed", slog.Any("error", pkgerrors.WithStack(err)))
		os.Exit(1)
	}
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", config.DefaultPath, "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.backend, "backend", "", "Output: auto, framebuffer, window or st7789 (overrides config if set)")
	flag.StringVar(&cfg.device, "device", "", "Framebuffer device (overrides config if set)")
	flag.BoolVar(&cfg.debug, "debug", false, "Log at debug level")

	flag.Parse()

	return cfg
}

func run(flags flagConfig) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	if flags.listen != "" {
		cfg.HTTP.Listen = flags.listen
	}
	if flags.backend != "" {
		cfg.Backend = flags.backend
	}
	if flags.device != "" {
		cfg.Device = flags.device
	}
	if flags.debug {
		cfg.LogLevel = "debug"
	}

	level, err := applog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	applog.Setup(applog.Format(cfg.LogFormat), level)

	slog.Info("wallclock starting",
		"config_path", flags.configPath,
		"backend", cfg.Backend,
		"listen", cfg.HTTP.Listen,
		"zones", len(cfg.Zones),
		"fonts", len(cfg.Fonts),
		"schedule", len(cfg.Schedule),
		"temperature", cfg.Temperature.Enabled(),
	)

	zones, err := loadZones(cfg.Zones)
	if err != nil {
		return err
	}
	fonts, err := loadFonts(cfg.Fonts)
	if err != nil {
		return err
	}

	out, err := output.Open(cfg)
	if err != nil {
		return err
	}
	defer out.Close()

	size := out.Bounds().Size()
	state := clock.NewState(size.X, size.Y)
	renderer := &clock.Renderer{
		Zones: zones,
		Fonts: fonts,
		Unit:  cfg.Temperature.Unit,
	}

	var poller *temperature.Poller
	if cfg.Temperature.Enabled() {
		if poller, err = temperature.New(cfg.Temperature.URL, cfg.Temperature.Query, cfg.Temperature.Interval); err != nil {
			return err
		}
		renderer.Thermometer = poller
	}

	loop := &clock.Loop{
		State:    state,
		Renderer: renderer,
		Display:  out,
		OnFrame: func(mode clock.Mode, took time.Duration) {
			metrics.Frames.WithLabelValues(mode.String()).Inc()
			metrics.FrameSeconds.Observe(took.Seconds())
		},
	}

	scheduler, err := schedule.New(state, cfg.Schedule, zones[0].Location)
	if err != nil {
		return err
	}
	server := web.NewServer(cfg.HTTP, state, loop)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return loop.Run(component(ctx, "clock")) })
	g.Go(func() error { return server.Run(component(ctx, "web")) })
	g.Go(func() error { return scheduler.Run(component(ctx, "schedule")) })
	if poller != nil {
		g.Go(func() error { return poller.Run(component(ctx, "temperature")) })
	}
	if w, ok := out.(interface{ Done() <-chan struct{} }); ok {
		g.Go(func() error {
			select {
			case <-w.Done():
				return errWindowClosed
			case <-ctx.Done():
				return nil
			}
		})
	}

	err = g.Wait()
	switch {
	case errors.Is(err, errWindowClosed), errors.Is(err, display.ErrClosed):
		slog.Info("window closed, shutting down")
		return nil
	case err != nil:
		return err
	}
	slog.Info("wallclock exiting")
	return nil
}

func component(ctx context.Context, name string) context.Context {
	return applog.With(ctx, slog.String("component", name))
}

func loadZones(zones []config.Zone) ([]clock.Zone, error) {
	out := make([]clock.Zone, 0, len(zones))
	for _, z := range zones {
		loc, err := z.Load()
		if err != nil {
			return nil, fmt.Errorf("zone %q: %w", z.Name, err)
		}
		out = append(out, clock.Zone{Name: z.Name, Location: loc})
	}
	return out, nil
}

// loadFonts reads the configured fonts and appends the built in font, which
// covers every code point the others don't.
func loadFonts(fonts []config.Font) (*draw.FontStack, error) {
	stack := make([]draw.Font, 0, len(fonts)+1)
	for _, f := range fonts {
		data, err := os.ReadFile(f.Path)
		if err != nil {
			return nil, fmt.Errorf("font: %w", err)
		}
		ranges := make([]draw.Range, 0, len(f.Ranges))
		for _, s := range f.Ranges {
			r, err := draw.ParseRange(s)
			if err != nil {
				return nil, fmt.Errorf("font %s: %w", f.Path, err)
			}
			ranges = append(ranges, r)
		}
		font, err := draw.ParseFont(data, ranges...)
		if err != nil {
			return nil, fmt.Errorf("font %s: %w", f.Path, err)
		}
		slog.Debug("font loaded", "path", f.Path, "ranges", len(ranges))
		stack = append(stack, font)
	}
	return draw.NewFontStack(append(stack, draw.DefaultFont())...)
}
