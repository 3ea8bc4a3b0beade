package output

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/BeatGlow/wallclock/internal/config"
)

func TestOpenUnknownBackend(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Backend = "plotter"
	_, err := Open(cfg)
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestOpenWithoutDisplays(t *testing.T) {
	t.Setenv("DISPLAY", "")

	cfg := config.DefaultConfig()
	cfg.Device = filepath.Join(t.TempDir(), "fb9")

	for _, backend := range []string{config.BackendFramebuffer, config.BackendWindow, config.BackendAuto} {
		t.Run(backend, func(t *testing.T) {
			cfg.Backend = backend
			d, err := Open(cfg)
			assert.Error(t, err)
			assert.Nil(t, d)
		})
	}
}

func TestOpenST7789InvalidRotation(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Backend = config.BackendST7789
	cfg.ST7789.Rotation = "sideways"
	_, err := Open(cfg)
	assert.Error(t, err)
}
