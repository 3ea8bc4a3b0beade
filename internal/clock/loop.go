package clock

import (
	"context"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/BeatGlow/wallclock/display"
)

// Loop renders frames onto a display until its context is cancelled.
type Loop struct {
	State    *State
	Renderer *Renderer
	Display  display.Display

	// OnFrame, when set, is called after every presented frame.
	OnFrame func(mode Mode, took time.Duration)

	now func() time.Time

	mu      sync.RWMutex
	frames  [2]*image.RGBA
	current int
	last    *image.RGBA
}

func (l *Loop) clock() time.Time {
	if l.now != nil {
		return l.now()
	}
	return time.Now()
}

// Run owns the display until ctx is done. Display errors end the loop.
func (l *Loop) Run(ctx context.Context) error {
	b := l.Display.Bounds()
	for i := range l.frames {
		l.frames[i] = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	}

	var (
		flashOff bool
		timer    = time.NewTimer(time.Hour)
		previous = ModeClock
	)
	defer timer.Stop()

	for {
		var (
			snap  = l.State.Snapshot()
			now   = l.clock()
			frame = l.frames[l.current]
		)
		mode, next := l.Renderer.Render(frame, snap, now, flashOff)
		if err := display.Present(l.Display, frame); err != nil {
			return err
		}
		l.publish(frame)

		took := l.clock().Sub(now)
		if l.OnFrame != nil {
			l.OnFrame(mode, took)
		}
		if mode != previous {
			slog.DebugContext(ctx, "clock: showing", "mode", mode)
			previous = mode
		}

		// Flashing messages alternate between the text and a blank frame.
		flashOff = (mode == ModeMessage || mode == ModeBlank) && snap.Message.Flash > 0 && !flashOff

		timer.Reset(max(next-took, 0))
		select {
		case <-ctx.Done():
			return nil
		case <-l.State.Changed():
			flashOff = false
			timer.Stop()
		case <-timer.C:
		}
	}
}

func (l *Loop) publish(frame *image.RGBA) {
	l.mu.Lock()
	l.last = frame
	l.current = 1 - l.current
	l.mu.Unlock()
}

// Preview returns a copy of the last presented frame, or nil before the first one.
func (l *Loop) Preview() *image.RGBA {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.last == nil {
		return nil
	}
	img := image.NewRGBA(l.last.Rect)
	copy(img.Pix, l.last.Pix)
	return img
}
