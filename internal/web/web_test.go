package web

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BeatGlow/wallclock/internal/clock"
	"github.com/BeatGlow/wallclock/internal/config"
)

type testPreview struct {
	frame *image.RGBA
}

func (p testPreview) Preview() *image.RGBA { return p.frame }

func newTestServer(t *testing.T, cfg config.HTTP, preview Previewer) (*httptest.Server, *clock.State) {
	t.Helper()
	state := clock.NewState(640, 360)
	srv := httptest.NewServer(NewServer(cfg, state, preview).Handler())
	t.Cleanup(srv.Close)
	return srv, state
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func errorMessage(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Error
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, config.HTTP{}, nil)
	resp := do(t, http.MethodGet, srv.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "OK", string(body))
}

func TestMessage(t *testing.T) {
	srv, state := newTestServer(t, config.HTTP{}, nil)

	resp := do(t, http.MethodPost, srv.URL+"/message", `{"rgb":[255,0,0],"text":"dinner","height":120,"flash":250}`)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	m := state.Snapshot().Message
	require.NotNil(t, m)
	assert.Equal(t, clock.Message{Colour: clock.Red, Text: "dinner", Height: 120, Flash: 250 * time.Millisecond}, *m)

	resp = do(t, http.MethodPost, srv.URL+"/message", `{"rgb":[0,0,255],"text":"default"}`)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 90, state.Snapshot().Message.Height, "height defaults to a quarter of the canvas")
}

func TestMessageInvalid(t *testing.T) {
	srv, state := newTestServer(t, config.HTTP{}, nil)

	tests := []struct {
		name string
		body string
	}{
		{"empty text", `{"rgb":[255,255,255],"text":"","height":10}`},
		{"not json", `text=hello`},
		{"negative height", `{"text":"x","height":-1}`},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			resp := do(t, http.MethodPost, srv.URL+"/message", test.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.NotEmpty(t, errorMessage(t, resp))
		})
	}
	assert.Nil(t, state.Snapshot().Message)
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, config.HTTP{}, nil)
	resp := do(t, http.MethodGet, srv.URL+"/message", "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func encodePNG(t *testing.T, w, h int, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.String()
}

func TestImage(t *testing.T) {
	srv, state := newTestServer(t, config.HTTP{}, nil)

	resp := do(t, http.MethodPost, srv.URL+"/image", encodePNG(t, 100, 100, color.White))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	img := state.Snapshot().Image
	require.NotNil(t, img)
	assert.Equal(t, image.Rect(0, 0, 360, 360), img.Bounds(), "scaled to fit keeping the aspect ratio")

	resp = do(t, http.MethodPost, srv.URL+"/clear", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Nil(t, state.Snapshot().Image)
}

func TestImageInvalid(t *testing.T) {
	srv, state := newTestServer(t, config.HTTP{}, nil)
	resp := do(t, http.MethodPost, srv.URL+"/image", "definitely not an image")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.True(t, strings.HasPrefix(errorMessage(t, resp), "image problem: "))
	assert.Nil(t, state.Snapshot().Image)
}

func TestImageTooLarge(t *testing.T) {
	srv, state := newTestServer(t, config.HTTP{MaxBodyBytes: 64}, nil)
	resp := do(t, http.MethodPost, srv.URL+"/image", encodePNG(t, 64, 64, color.White)+strings.Repeat("x", 128))
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Nil(t, state.Snapshot().Image)
}

// pngHeader returns the signature and IHDR chunk of an 8 bit grey PNG, enough
// for image.DecodeConfig to report its size.
func pngHeader(width, height uint32) string {
	ihdr := make([]byte, 4, 17)
	copy(ihdr, "IHDR")
	ihdr = binary.BigEndian.AppendUint32(ihdr, width)
	ihdr = binary.BigEndian.AppendUint32(ihdr, height)
	ihdr = append(ihdr, 8, 0, 0, 0, 0)

	b := []byte("\x89PNG\r\n\x1a\n")
	b = binary.BigEndian.AppendUint32(b, 13)
	b = append(b, ihdr...)
	b = binary.BigEndian.AppendUint32(b, crc32.ChecksumIEEE(ihdr))
	return string(b)
}

func TestImageTooManyPixels(t *testing.T) {
	srv, state := newTestServer(t, config.HTTP{}, nil)
	resp := do(t, http.MethodPost, srv.URL+"/image", pngHeader(20000, 20000))
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	msg := errorMessage(t, resp)
	assert.True(t, strings.HasPrefix(msg, "image problem: "), msg)
	assert.Contains(t, msg, "20000x20000")
	assert.Nil(t, state.Snapshot().Image)
}

func TestCountdown(t *testing.T) {
	srv, state := newTestServer(t, config.HTTP{}, nil)

	start := time.Now()
	resp := do(t, http.MethodPost, srv.URL+"/countdown", `{"seconds":90}`)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	c := state.Snapshot().Countdown
	require.NotNil(t, c)
	assert.WithinDuration(t, start.Add(90*time.Second), c.Until, 5*time.Second)

	resp = do(t, http.MethodPost, srv.URL+"/countdown", `{"seconds":0}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodDelete, srv.URL+"/countdown", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Nil(t, state.Snapshot().Countdown)
}

func TestPreview(t *testing.T) {
	srv, _ := newTestServer(t, config.HTTP{}, testPreview{})
	resp := do(t, http.MethodGet, srv.URL+"/preview.png", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	frame := image.NewRGBA(image.Rect(0, 0, 64, 18))
	frame.Set(3, 4, clock.Green)
	srv, _ = newTestServer(t, config.HTTP{}, testPreview{frame: frame})
	resp = do(t, http.MethodGet, srv.URL+"/preview.png", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	img, err := png.Decode(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, frame.Bounds(), img.Bounds())
	r, g, b, _ := img.At(3, 4).RGBA()
	assert.Equal(t, [3]uint32{0x48, 0xd5, 0x97}, [3]uint32{r >> 8, g >> 8, b >> 8})
}

func TestMetrics(t *testing.T) {
	srv, _ := newTestServer(t, config.HTTP{}, nil)
	do(t, http.MethodPost, srv.URL+"/clear", "")

	resp := do(t, http.MethodGet, srv.URL+"/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `wallclock_updates_total{endpoint="clear"}`)
}

func TestBasicAuth(t *testing.T) {
	srv, state := newTestServer(t, config.HTTP{
		BasicAuth: config.BasicAuth{Username: "clock", Password: "s3cret"},
	}, nil)

	resp := do(t, http.MethodGet, srv.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode, "health needs no credentials")

	resp = do(t, http.MethodPost, srv.URL+"/message", `{"text":"hi"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("WWW-Authenticate"), "Basic")

	for _, password := range []string{"wrong!", "s3cret"} {
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/message", strings.NewReader(`{"text":"hi"}`))
		require.NoError(t, err)
		req.SetBasicAuth("clock", password)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		if password == "s3cret" {
			assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		} else {
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		}
	}
	assert.NotNil(t, state.Snapshot().Message)
}

func TestCORS(t *testing.T) {
	srv, _ := newTestServer(t, config.HTTP{CORSOrigins: []string{"https://dashboard.example"}}, nil)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/message", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://dashboard.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "https://dashboard.example", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestSecureCompare(t *testing.T) {
	assert.True(t, secureCompare("abc", "abc"))
	assert.False(t, secureCompare("abc", "abd"))
	assert.False(t, secureCompare("abc", "abcd"))
}
