package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etc", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again, "defaults survive a round trip through the file")
}

func TestLoadNormalizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend: teletype
zones:
  - name: office
    location: Australia/Sydney
  - name: home
    location: America/Los_Angeles
framebuffer:
  full_redraw: 30s
http:
  listen: 127.0.0.1:9000
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendAuto, cfg.Backend)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.Listen)
	assert.Equal(t, int64(DefaultMaxBodyBytes), cfg.HTTP.MaxBodyBytes)
	assert.Equal(t, 30*time.Second, cfg.Framebuffer.FullRedraw)
	assert.Equal(t, 256, cfg.Framebuffer.Stripes)
	require.Len(t, cfg.Zones, 2)
	assert.Equal(t, "Australia/Sydney", cfg.Zones[0].Location)

	// No st7789 block, the panel still gets its wiring defaults.
	assert.Equal(t, ST7789{
		SpeedHz:  DefaultSPISpeedHz,
		Rotation: "90",
		Reset:    "GPIO25",
		DC:       "GPIO24",
	}, cfg.ST7789)
}

func TestLoadST7789(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend: st7789
st7789:
  rotation: "270"
  dc_pin: GPIO9
`), 0o600))
	t.Setenv("WALLCLOCK_ST7789_SPEED_HZ", "8000000")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "270", cfg.ST7789.Rotation)
	assert.Equal(t, "GPIO9", cfg.ST7789.DC)
	assert.Equal(t, "GPIO25", cfg.ST7789.Reset)
	assert.Equal(t, uint32(8_000_000), cfg.ST7789.SpeedHz)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("zones: [\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
	assert.Contains(t, fmt.Sprintf("%+v", err), "config.Load", "error carries a stack trace")
}

func TestLoadEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("WALLCLOCK_BACKEND", "window")
	t.Setenv("WALLCLOCK_HTTP_LISTEN", ":9999")
	t.Setenv("WALLCLOCK_HTTP_AUTH_USERNAME", "clock")
	t.Setenv("WALLCLOCK_HTTP_AUTH_PASSWORD", "tick")
	t.Setenv("WALLCLOCK_ZONES", "utc=UTC,Europe/Amsterdam")
	t.Setenv("WALLCLOCK_TEMPERATURE_INTERVAL", "10s")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendWindow, cfg.Backend)
	assert.Equal(t, ":9999", cfg.HTTP.Listen)
	assert.True(t, cfg.HTTP.BasicAuth.Enabled())
	assert.Equal(t, []Zone{{Name: "utc", Location: "UTC"}, {Location: "Europe/Amsterdam"}}, cfg.Zones)
	assert.Equal(t, 10*time.Second, cfg.Temperature.Interval)

	// Overrides are not persisted.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "9999")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"unknown zone", func(c *Config) { c.Zones = []Zone{{Name: "x", Location: "Mars/Olympus_Mons"}} }},
		{"font without path", func(c *Config) { c.Fonts = []Font{{Ranges: []string{"2600-26ff"}}} }},
		{"auth without password", func(c *Config) { c.HTTP.BasicAuth.Username = "clock" }},
		{"unknown action", func(c *Config) { c.Schedule = []Schedule{{Cron: "0 9 * * *", Action: "dance"}} }},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := DefaultConfig()
			test.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, DefaultConfig().Validate())
}

func TestZoneUnmarshalText(t *testing.T) {
	var z Zone
	require.NoError(t, z.UnmarshalText([]byte(" office = Australia/Sydney ")))
	assert.Equal(t, Zone{Name: "office", Location: "Australia/Sydney"}, z)
	assert.Error(t, z.UnmarshalText([]byte("office=")))
}

func TestSaveRejectsEmpty(t *testing.T) {
	assert.Error(t, Save("", DefaultConfig()))
	assert.Error(t, Save(filepath.Join(t.TempDir(), "c.yaml"), nil))
	_, err := Load("")
	assert.Error(t, err)
}
