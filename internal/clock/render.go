package clock

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/BeatGlow/wallclock/draw"
)

// Colours
var (
	Black     = color.RGBA{A: 0xff}
	Green     = color.RGBA{R: 0x48, G: 0xd5, B: 0x97, A: 0xff}
	Red       = color.RGBA{R: 0xff, A: 0xff}
	Grey      = color.RGBA{R: 0x7d, G: 0x83, B: 0x85, A: 0xff}
	Separator = color.RGBA{R: 0xc8, G: 0xc8, B: 0xc8, A: 0xff}
)

// Frame delays
const (
	CountdownInterval = 25 * time.Millisecond
	StillInterval     = time.Second
	secondFudge       = 10 * time.Millisecond
)

const (
	separatorWidth = 4
	bottomMargin   = 10
)

// Mode is what a rendered frame shows.
type Mode uint8

const (
	ModeClock Mode = iota
	ModeCountdown
	ModeImage
	ModeMessage
	ModeBlank
)

func (m Mode) String() string {
	switch m {
	case ModeCountdown:
		return "countdown"
	case ModeImage:
		return "image"
	case ModeMessage:
		return "message"
	case ModeBlank:
		return "blank"
	default:
		return "clock"
	}
}

// Zone is one clock face.
type Zone struct {
	Name     string
	Location *time.Location
}

// Thermometer looks up the latest temperature reading for a location.
type Thermometer interface {
	Temperature(location string) (float64, bool)
}

// Renderer draws frames. It is not safe for concurrent use.
type Renderer struct {
	Zones []Zone
	Fonts *draw.FontStack

	// Thermometer, when set, adds the temperature of each zone's name to its face.
	Thermometer Thermometer
	Unit        string
}

// Render draws the frame for snap at now into dst and returns what it drew and
// how long it should stay up. Flashing messages alternate with a blank frame;
// flashOff selects the blank half.
func (r *Renderer) Render(dst *image.RGBA, snap Snapshot, now time.Time, flashOff bool) (Mode, time.Duration) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(Black), image.Point{}, draw.Src)

	switch {
	case snap.Countdown != nil:
		r.countdown(dst, snap.Countdown, now)
		return ModeCountdown, CountdownInterval

	case snap.Image != nil:
		r.image(dst, snap.Image)
		return ModeImage, StillInterval

	case snap.Message != nil:
		m := snap.Message
		if m.Flash > 0 {
			if flashOff {
				return ModeBlank, m.Flash
			}
			r.message(dst, m)
			return ModeMessage, m.Flash
		}
		r.message(dst, m)
		return ModeMessage, StillInterval

	default:
		r.clock(dst, now)
		return ModeClock, untilNextSecond(now)
	}
}

// untilNextSecond is the time from now to just after the start of the next second.
func untilNextSecond(now time.Time) time.Duration {
	return time.Second - time.Duration(now.Nanosecond()) + secondFudge
}

func (r *Renderer) clock(dst *image.RGBA, now time.Time) {
	zones := r.Zones
	if len(zones) == 0 {
		zones = []Zone{{Name: "local", Location: time.Local}}
	}

	var (
		width = dst.Bounds().Dx()
		ch    = dst.Bounds().Dy() / len(zones)
	)
	for i, zone := range zones {
		t := now.In(zone.Location)
		yc := ch * i

		if i > 0 {
			draw.HorizontalLine(dst, 0, width, yc, separatorWidth, Separator)
		}

		ht := ch / 4
		draw.Text(dst, t.Format("02 January 2006"), draw.Right(width-1), yc+ch-ht-bottomMargin, r.Fonts, ht, Grey, draw.Proportional)
		draw.Text(dst, t.Format("Monday"), draw.Left(0), yc+ch-ht-bottomMargin, r.Fonts, ht, Grey, draw.Proportional)

		if r.Thermometer != nil {
			if v, ok := r.Thermometer.Temperature(zone.Name); ok {
				draw.Text(dst, fmt.Sprintf("%.1f%s", v, r.Unit), draw.Left(0), yc+bottomMargin, r.Fonts, ch/8, Grey, draw.Proportional)
			}
		}

		ht = ch * 10 / 18
		draw.Text(dst, t.Format("15:04:05"), draw.Centre(0, width), yc+(ch-ht-ht/3)/2, r.Fonts, ht, Green, draw.FixedNumbers)
	}
}

func (r *Renderer) countdown(dst *image.RGBA, c *Countdown, now time.Time) {
	colour, text := Green, countdownText(c.Until.Sub(now))
	if now.After(c.Until) {
		colour, text = Red, countdownText(now.Sub(c.Until))
	}

	var (
		b  = dst.Bounds()
		ht = b.Dy() * 11 / 18
	)
	draw.Text(dst, text, draw.Centre(0, b.Dx()), (b.Dy()-ht-ht/3)/2, r.Fonts, ht, colour, draw.FixedExtra)
}

// countdownText formats whole seconds as " 5 s" or " 2 m  7 s".
func countdownText(d time.Duration) string {
	secs := int(d / time.Second)
	mins := secs / 60
	secs -= mins * 60
	if mins == 0 {
		return fmt.Sprintf("%2d s", secs)
	}
	return fmt.Sprintf("%2d m %2d s", mins, secs)
}

func (r *Renderer) image(dst *image.RGBA, img *image.RGBA) {
	var (
		b  = dst.Bounds()
		ib = img.Bounds()
		x  = (b.Dx() - ib.Dx()) / 2
		y  = (b.Dy() - ib.Dy()) / 2
	)
	draw.Draw(dst, image.Rect(x, y, x+ib.Dx(), y+ib.Dy()), img, ib.Min, draw.Src)
}

func (r *Renderer) message(dst *image.RGBA, m *Message) {
	b := dst.Bounds()
	draw.Text(dst, m.Text, draw.Centre(0, b.Dx()), (b.Dy()-m.Height)/2, r.Fonts, m.Height, m.Colour, draw.Proportional)
}
