// Package config loads the wallclock configuration from a YAML file and
// overlays WALLCLOCK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	pkgerrors "github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the configuration lives unless -config says otherwise.
const DefaultPath = "/etc/wallclock/config.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "WALLCLOCK_"

// Backends
const (
	BackendAuto        = "auto"
	BackendFramebuffer = "framebuffer"
	BackendWindow      = "window"
	BackendST7789      = "st7789"
)

// Zone is one clock face.
type Zone struct {
	// Name is shown nowhere yet, it labels the zone in logs and the temperature line.
	Name string `yaml:"name" json:"name"`
	// Location is an IANA time zone name, or "Local".
	Location string `yaml:"location" json:"location"`
}

// UnmarshalText parses "Name=Area/City" or a bare location, for environment overrides.
func (z *Zone) UnmarshalText(text []byte) error {
	name, loc, found := strings.Cut(string(text), "=")
	if !found {
		name, loc = "", name
	}
	z.Name, z.Location = strings.TrimSpace(name), strings.TrimSpace(loc)
	if z.Location == "" {
		return fmt.Errorf("config: zone %q has no location", text)
	}
	return nil
}

// Load resolves the time zone.
func (z Zone) Load() (*time.Location, error) {
	return time.LoadLocation(z.Location)
}

// Font is a TrueType file and the code points it should be used for.
type Font struct {
	Path   string   `yaml:"path" json:"path"`
	Ranges []string `yaml:"ranges" json:"ranges"`
}

// Window configures the X11 development window.
type Window struct {
	Width  int `yaml:"width" json:"width" env:"WIDTH"`
	Height int `yaml:"height" json:"height" env:"HEIGHT"`
}

// Framebuffer tunes dirty stripe flushing.
type Framebuffer struct {
	Stripes    int           `yaml:"stripes" json:"stripes" env:"STRIPES"`
	FullRedraw time.Duration `yaml:"full_redraw" json:"full_redraw" env:"FULL_REDRAW"`
}

// ST7789 configures a small SPI panel.
type ST7789 struct {
	Bus       int    `yaml:"bus" json:"bus" env:"BUS"`
	Device    int    `yaml:"device" json:"device" env:"DEVICE"`
	SpeedHz   uint32 `yaml:"speed_hz" json:"speed_hz" env:"SPEED_HZ"`
	Width     int    `yaml:"width" json:"width" env:"WIDTH"`
	Height    int    `yaml:"height" json:"height" env:"HEIGHT"`
	Rotation  string `yaml:"rotation" json:"rotation" env:"ROTATION"`
	Reset     string `yaml:"reset_pin" json:"reset_pin" env:"RESET_PIN"`
	DC        string `yaml:"dc_pin" json:"dc_pin" env:"DC_PIN"`
	Backlight string `yaml:"backlight_pin,omitempty" json:"backlight_pin,omitempty" env:"BACKLIGHT_PIN"`
}

// BasicAuth enables HTTP Basic Authentication on every endpoint but /health
// when Username is set.
type BasicAuth struct {
	Username string `yaml:"username" json:"username" env:"USERNAME"`
	Password string `yaml:"password" json:"password" env:"PASSWORD"`
}

// Enabled reports whether credentials are configured.
func (a BasicAuth) Enabled() bool {
	return a.Username != ""
}

// HTTP configures the API server.
type HTTP struct {
	Listen       string    `yaml:"listen" json:"listen" env:"LISTEN"`
	MaxBodyBytes int64     `yaml:"max_body_bytes" json:"max_body_bytes" env:"MAX_BODY_BYTES"`
	CORSOrigins  []string  `yaml:"cors_origins,omitempty" json:"cors_origins,omitempty" env:"CORS_ORIGINS" envSeparator:","`
	BasicAuth    BasicAuth `yaml:"basic_auth" json:"basic_auth" envPrefix:"AUTH_"`
}

// Temperature configures the optional Prometheus poller.
type Temperature struct {
	URL      string        `yaml:"url" json:"url" env:"URL"`
	Query    string        `yaml:"query" json:"query" env:"QUERY"`
	Interval time.Duration `yaml:"interval" json:"interval" env:"INTERVAL"`
	Unit     string        `yaml:"unit" json:"unit" env:"UNIT"`
}

// Enabled reports whether a Prometheus server is configured.
func (t Temperature) Enabled() bool {
	return t.URL != ""
}

// Schedule is a cron driven change of what the clock shows.
type Schedule struct {
	Cron    string `yaml:"cron" json:"cron"`
	Action  string `yaml:"action" json:"action"`
	Text    string `yaml:"text,omitempty" json:"text,omitempty"`
	RGB     [3]int `yaml:"rgb,omitempty" json:"rgb,omitempty"`
	Height  int    `yaml:"height,omitempty" json:"height,omitempty"`
	Flash   int    `yaml:"flash,omitempty" json:"flash,omitempty"`
	Seconds int    `yaml:"seconds,omitempty" json:"seconds,omitempty"`
}

// Config is the top-level application configuration.
type Config struct {
	// Backend selects the output: auto, framebuffer, window or st7789.
	Backend string `yaml:"backend" json:"backend" env:"BACKEND"`

	// Device overrides the framebuffer device path.
	Device string `yaml:"device,omitempty" json:"device,omitempty" env:"DEVICE"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level" json:"log_level" env:"LOG_LEVEL"`

	// LogFormat is auto, text or json.
	LogFormat string `yaml:"log_format" json:"log_format" env:"LOG_FORMAT"`

	// Zones are the stacked clock faces, top to bottom.
	Zones []Zone `yaml:"zones" json:"zones" env:"ZONES" envSeparator:","`

	// Fonts are tried in order before the built in font.
	Fonts []Font `yaml:"fonts,omitempty" json:"fonts,omitempty"`

	HTTP        HTTP        `yaml:"http" json:"http" envPrefix:"HTTP_"`
	Window      Window      `yaml:"window" json:"window" envPrefix:"WINDOW_"`
	Framebuffer Framebuffer `yaml:"framebuffer" json:"framebuffer" envPrefix:"FB_"`
	ST7789      ST7789      `yaml:"st7789" json:"st7789" envPrefix:"ST7789_"`
	Temperature Temperature `yaml:"temperature" json:"temperature" envPrefix:"TEMPERATURE_"`
	Schedule    []Schedule  `yaml:"schedule,omitempty" json:"schedule,omitempty"`
}

// Defaults
const (
	DefaultListen       = ":8888"
	DefaultMaxBodyBytes = 32 << 20
	DefaultQuery        = "(temperature_degrees_celsius * (9/5)) + 32"
	DefaultInterval     = 5 * time.Second
	DefaultSPISpeedHz   = 40_000_000
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	c := &Config{
		Backend:   BackendAuto,
		LogLevel:  "info",
		LogFormat: "auto",
		Zones:     []Zone{{Name: "local", Location: "Local"}},
	}
	c.Normalize()
	return c
}

// Normalize fills in missing/zero values with defaults.
func (c *Config) Normalize() {
	switch c.Backend {
	case BackendAuto, BackendFramebuffer, BackendWindow, BackendST7789:
	default:
		c.Backend = BackendAuto
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "auto"
	}
	if len(c.Zones) == 0 {
		c.Zones = []Zone{{Name: "local", Location: "Local"}}
	}
	if c.HTTP.Listen == "" {
		c.HTTP.Listen = DefaultListen
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		c.HTTP.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.Window.Width <= 0 {
		c.Window.Width = 1280
	}
	if c.Window.Height <= 0 {
		c.Window.Height = 360
	}
	if c.Framebuffer.Stripes <= 0 {
		c.Framebuffer.Stripes = 256
	}
	if c.Framebuffer.FullRedraw <= 0 {
		c.Framebuffer.FullRedraw = 15 * time.Second
	}
	if c.ST7789.SpeedHz == 0 {
		c.ST7789.SpeedHz = DefaultSPISpeedHz
	}
	if c.ST7789.Rotation == "" {
		c.ST7789.Rotation = "90"
	}
	if c.ST7789.Reset == "" {
		c.ST7789.Reset = "GPIO25"
	}
	if c.ST7789.DC == "" {
		c.ST7789.DC = "GPIO24"
	}
	if c.Temperature.Query == "" {
		c.Temperature.Query = DefaultQuery
	}
	if c.Temperature.Interval <= 0 {
		c.Temperature.Interval = DefaultInterval
	}
	if c.Temperature.Unit == "" {
		c.Temperature.Unit = "°F"
	}
}

// Validate reports settings that can't be fixed up by Normalize.
func (c *Config) Validate() error {
	var errs []error
	for _, z := range c.Zones {
		if _, err := z.Load(); err != nil {
			errs = append(errs, fmt.Errorf("zone %q: %w", z.Name, err))
		}
	}
	for _, f := range c.Fonts {
		if f.Path == "" {
			errs = append(errs, errors.New("font without a path"))
		}
	}
	if c.HTTP.BasicAuth.Enabled() && c.HTTP.BasicAuth.Password == "" {
		errs = append(errs, errors.New("basic auth user without a password"))
	}
	for i, s := range c.Schedule {
		switch s.Action {
		case "message", "clear", "countdown":
		default:
			errs = append(errs, fmt.Errorf("schedule %d: unknown action %q", i, s.Action))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Load loads configuration from the given YAML path.
//
// A missing file is created with the default configuration and 0600
// permissions. Environment overrides are applied on top of the file and never
// written back.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err = Save(path, cfg); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, pkgerrors.WithStack(err)
	default:
		cfg = new(Config)
		if err = yaml.Unmarshal(data, cfg); err != nil {
			return nil, pkgerrors.Wrapf(err, "config: %s", path)
		}
	}

	if err = ApplyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return cfg, cfg.Validate()
}

// ApplyEnv overrides cfg with WALLCLOCK_* environment variables.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return pkgerrors.WithStack(err)
	}
	return nil
}

// Save writes the given configuration to the specified path, atomically and
// with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return pkgerrors.WithStack(err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return pkgerrors.Wrap(err, "config: encode")
	}

	tmp, err := os.CreateTemp(dir, ".wallclock-config-*.tmp")
	if err != nil {
		return pkgerrors.WithStack(err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return pkgerrors.WithStack(err)
	}
	return pkgerrors.WithStack(os.Rename(tmpName, path))
}
