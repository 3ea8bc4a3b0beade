// Package web serves the HTTP API that changes what the clock shows.
package web

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"time"

	// Upload formats.
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	pkgerrors "github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	sloghttp "github.com/samber/slog-http"

	"github.com/BeatGlow/wallclock/draw"
	"github.com/BeatGlow/wallclock/internal/clock"
	"github.com/BeatGlow/wallclock/internal/config"
	"github.com/BeatGlow/wallclock/internal/metrics"
)

const shutdownTimeout = 5 * time.Second

// MaxImagePixels caps the decoded size of an uploaded image.
const MaxImagePixels = 64 << 20

// Previewer returns the frame currently on the display, or nil.
type Previewer interface {
	Preview() *image.RGBA
}

// Server is the clock's HTTP API.
type Server struct {
	cfg     config.HTTP
	state   *clock.State
	preview Previewer
	mux     *http.ServeMux
}

// NewServer constructs a new Server. preview may be nil.
func NewServer(cfg config.HTTP, state *clock.State, preview Previewer) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = config.DefaultMaxBodyBytes
	}
	s := &Server{
		cfg:     cfg,
		state:   state,
		preview: preview,
		mux:     http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /message", s.handleMessage)
	s.mux.HandleFunc("POST /image", s.handleImage)
	s.mux.HandleFunc("POST /clear", s.handleClear)
	s.mux.HandleFunc("POST /countdown", s.handleCountdown)
	s.mux.HandleFunc("DELETE /countdown", s.handleCountdownStop)
	s.mux.HandleFunc("GET /preview.png", s.handlePreview)
	s.mux.Handle("GET /metrics", promhttp.Handler())
}

// Handler returns the API with authentication, CORS and request logging applied.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.cfg.BasicAuth.Enabled() {
		h = s.basicAuthMiddleware(h)
	}
	if len(s.cfg.CORSOrigins) > 0 {
		h = cors.New(cors.Options{
			AllowedOrigins: s.cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
		}).Handler(h)
	}
	h = sloghttp.Recovery(h)
	return sloghttp.New(slog.Default().With("component", "web"))(h)
}

// Run serves on the configured address until ctx is done, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "web: listening", "listen", s.cfg.Listen, "auth", s.cfg.BasicAuth.Enabled())
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return pkgerrors.Wrap(err, "web")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return pkgerrors.Wrap(err, "web: shutdown")
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web: %w", err)
	}
	return nil
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="wallclock", charset="UTF-8"`)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type messageRequest struct {
	RGB    [3]int `json:"rgb"`
	Text   string `json:"text"`
	Height int    `json:"height"`
	// Flash is the on and off period in milliseconds.
	Flash int `json:"flash,omitempty"`
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is empty")
		return
	}
	if req.Height < 0 || req.Flash < 0 {
		writeError(w, http.StatusBadRequest, "height and flash must not be negative")
		return
	}

	s.state.SetMessage(clock.Message{
		Colour: clock.RGB(req.RGB),
		Text:   req.Text,
		Height: req.Height,
		Flash:  time.Duration(req.Flash) * time.Millisecond,
	})
	s.updated(r, "message", "text", req.Text, "flash", req.Flash)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("image larger than %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, "reading body: "+err.Error())
		return
	}

	imgCfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		writeError(w, http.StatusBadRequest, "image problem: "+err.Error())
		return
	}
	if int64(imgCfg.Width)*int64(imgCfg.Height) > MaxImagePixels {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("image problem: %dx%d exceeds %d pixels", imgCfg.Width, imgCfg.Height, MaxImagePixels))
		return
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		writeError(w, http.StatusBadRequest, "image problem: "+err.Error())
		return
	}

	width, height := s.state.Size()
	img := draw.Fit(src, width, height)
	if img.Bounds().Empty() {
		writeError(w, http.StatusBadRequest, "image problem: image is empty")
		return
	}
	s.state.SetImage(img)
	s.updated(r, "image", "format", format, "size", src.Bounds().Size(), "scaled", img.Bounds().Size())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.state.Clear()
	s.updated(r, "clear")
	w.WriteHeader(http.StatusNoContent)
}

type countdownRequest struct {
	Seconds int `json:"seconds"`
}

func (s *Server) handleCountdown(w http.ResponseWriter, r *http.Request) {
	var req countdownRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.Seconds <= 0 {
		writeError(w, http.StatusBadRequest, "seconds must be positive")
		return
	}
	s.state.SetCountdown(time.Now().Add(time.Duration(req.Seconds) * time.Second))
	s.updated(r, "countdown", "seconds", req.Seconds)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCountdownStop(w http.ResponseWriter, r *http.Request) {
	s.state.ClearCountdown()
	s.updated(r, "countdown")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var frame *image.RGBA
	if s.preview != nil {
		frame = s.preview.Preview()
	}
	if frame == nil {
		writeError(w, http.StatusServiceUnavailable, "no frame rendered yet")
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, frame); err != nil {
		slog.ErrorContext(r.Context(), "web: encoding preview", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to encode preview")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) updated(r *http.Request, endpoint string, attrs ...any) {
	metrics.Updates.WithLabelValues(endpoint).Inc()
	slog.InfoContext(r.Context(), "web: "+endpoint, attrs...)
}

// decodeJSON reads a size limited JSON body into v, answering the request
// itself when that fails.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)).Decode(v)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
	} else {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("web: failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
