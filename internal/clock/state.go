// Package clock renders the wall clock and the things that can be shown
// instead of it: a countdown, an uploaded image or a message.
package clock

import (
	"image"
	"image/color"
	"sync"
	"time"
)

// Message is text shown instead of the clock.
type Message struct {
	Colour color.RGBA
	Text   string
	// Height of the text in pixels.
	Height int
	// Flash, when set, alternates the message with a blank screen, each shown for Flash.
	Flash time.Duration
}

// RGB returns an opaque colour, clamping each channel to 0-255.
func RGB(rgb [3]int) color.RGBA {
	return color.RGBA{
		R: uint8(min(max(rgb[0], 0), 0xff)),
		G: uint8(min(max(rgb[1], 0), 0xff)),
		B: uint8(min(max(rgb[2], 0), 0xff)),
		A: 0xff,
	}
}

// Countdown counts down to Until and then up again, in red.
type Countdown struct {
	Until time.Time
}

// Snapshot is a consistent copy of what the clock should show.
type Snapshot struct {
	Message   *Message
	Image     *image.RGBA
	Countdown *Countdown
}

// State is shared between the render loop and whatever changes what is shown.
type State struct {
	mu        sync.Mutex
	width     int
	height    int
	message   *Message
	image     *image.RGBA
	countdown *Countdown
	wake      chan struct{}
}

// NewState returns an empty state for a canvas of width x height pixels.
func NewState(width, height int) *State {
	return &State{
		width:  width,
		height: height,
		wake:   make(chan struct{}, 1),
	}
}

// Size of the canvas.
func (s *State) Size() (width, height int) {
	return s.width, s.height
}

func (s *State) update(fn func()) {
	s.mu.Lock()
	fn()
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// SetMessage shows m until it is cleared. A zero height becomes a quarter of
// the canvas height.
func (s *State) SetMessage(m Message) {
	if m.Height <= 0 {
		m.Height = s.height / 4
	}
	s.update(func() { s.message = &m })
}

// SetImage shows img until it is cleared. The image is not copied.
func (s *State) SetImage(img *image.RGBA) {
	s.update(func() { s.image = img })
}

// SetCountdown starts a countdown to until, replacing any running countdown.
func (s *State) SetCountdown(until time.Time) {
	s.update(func() { s.countdown = &Countdown{Until: until} })
}

// ClearCountdown stops the countdown.
func (s *State) ClearCountdown() {
	s.update(func() { s.countdown = nil })
}

// Clear removes the message and the image. A running countdown is kept.
func (s *State) Clear() {
	s.update(func() {
		s.message = nil
		s.image = nil
	})
}

// Snapshot returns what is to be shown right now.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{Image: s.image}
	if s.message != nil {
		m := *s.message
		snap.Message = &m
	}
	if s.countdown != nil {
		c := *s.countdown
		snap.Countdown = &c
	}
	return snap
}

// Changed receives a value after every change.
func (s *State) Changed() <-chan struct{} {
	return s.wake
}
