// Package window shows frames in an X11 window, a stand-in for the framebuffer
// while developing on a workstation.
package window

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"

	"github.com/BeatGlow/wallclock/display"
	"github.com/BeatGlow/wallclock/pixel"
)

// Errors
var (
	ErrClosed = display.ErrClosed
	ErrDepth  = errors.New("window: only 24-bit true colour displays are supported")
)

// Default window size, a quarter of the 5120x1440 target.
const (
	DefaultWidth  = 1280
	DefaultHeight = 360
)

const title = "wallclock"

// putImageHeader is the size of a PutImage request without its pixel data.
const putImageHeader = 24

// Window is an X11 window of fixed size backed by a pixmap.
type Window struct {
	*pixel.BGRX32Image

	conn   *xgb.Conn
	win    xproto.Window
	pix    xproto.Pixmap
	gc     xproto.Gcontext
	depth  byte
	maxReq int

	deleteWindow xproto.Atom

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// Open connects to $DISPLAY and maps a width x height window.
func Open(width, height int) (*Window, error) {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("window: %w", err)
	}

	w := &Window{
		BGRX32Image: pixel.NewBGRX32Image(width, height),
		conn:        conn,
		done:        make(chan struct{}),
	}
	if err = w.create(); err != nil {
		conn.Close()
		return nil, err
	}

	go w.events()
	return w, nil
}

func (w *Window) create() (err error) {
	setup := xproto.Setup(w.conn)
	screen := setup.DefaultScreen(w.conn)
	if screen.RootDepth != 24 {
		return ErrDepth
	}
	w.depth = screen.RootDepth
	w.maxReq = int(setup.MaximumRequestLength) * 4

	atoms, err := w.internAtoms("WM_PROTOCOLS", "WM_DELETE_WINDOW", "_NET_WM_NAME", "UTF8_STRING")
	if err != nil {
		return
	}

	if w.win, err = xproto.NewWindowId(w.conn); err != nil {
		return
	}
	if w.pix, err = xproto.NewPixmapId(w.conn); err != nil {
		return
	}
	if w.gc, err = xproto.NewGcontextId(w.conn); err != nil {
		return
	}

	width, height := uint16(w.Rect.Dx()), uint16(w.Rect.Dy())
	if err = xproto.CreateWindowChecked(w.conn, w.depth, w.win, screen.Root,
		0, 0, width, height, 0,
		xproto.WindowClassInputOutput, screen.RootVisual,
		xproto.CwBackPixel|xproto.CwEventMask,
		[]uint32{
			screen.BlackPixel,
			xproto.EventMaskExposure | xproto.EventMaskStructureNotify,
		}).Check(); err != nil {
		return fmt.Errorf("window: create window: %w", err)
	}
	if err = xproto.CreateGCChecked(w.conn, w.gc, xproto.Drawable(w.win),
		xproto.GcForeground|xproto.GcGraphicsExposures,
		[]uint32{screen.BlackPixel, 0}).Check(); err != nil {
		return fmt.Errorf("window: create graphics context: %w", err)
	}
	if err = xproto.CreatePixmapChecked(w.conn, w.depth, w.pix, xproto.Drawable(w.win), width, height).Check(); err != nil {
		return fmt.Errorf("window: create pixmap: %w", err)
	}

	xproto.ChangeProperty(w.conn, xproto.PropModeReplace, w.win,
		xproto.AtomWmName, xproto.AtomString, 8, uint32(len(title)), []byte(title))
	xproto.ChangeProperty(w.conn, xproto.PropModeReplace, w.win,
		atoms["_NET_WM_NAME"], atoms["UTF8_STRING"], 8, uint32(len(title)), []byte(title))
	xproto.ChangeProperty(w.conn, xproto.PropModeReplace, w.win,
		atoms["WM_PROTOCOLS"], xproto.AtomAtom, 32, 1, atomData(atoms["WM_DELETE_WINDOW"]))
	hints := fixedSizeHints(int(width), int(height))
	xproto.ChangeProperty(w.conn, xproto.PropModeReplace, w.win,
		xproto.AtomWmNormalHints, xproto.AtomWmSizeHints, 32, uint32(len(hints)/4), hints)
	w.deleteWindow = atoms["WM_DELETE_WINDOW"]

	if err = w.upload(); err != nil {
		return
	}
	xproto.MapWindow(w.conn, w.win)
	return nil
}

func (w *Window) internAtoms(names ...string) (map[string]xproto.Atom, error) {
	cookies := make([]xproto.InternAtomCookie, len(names))
	for i, name := range names {
		cookies[i] = xproto.InternAtom(w.conn, false, uint16(len(name)), name)
	}
	atoms := make(map[string]xproto.Atom, len(names))
	for i, cookie := range cookies {
		reply, err := cookie.Reply()
		if err != nil {
			return nil, fmt.Errorf("window: intern atom %s: %w", names[i], err)
		}
		atoms[names[i]] = reply.Atom
	}
	return atoms, nil
}

func (w *Window) String() string {
	return fmt.Sprintf("X11 window %dx%d", w.Rect.Dx(), w.Rect.Dy())
}

// Buffer is the frame that is uploaded on Refresh.
func (w *Window) Buffer() pixel.Image {
	return w.BGRX32Image
}

// Done is closed when the window was closed by the user or the connection dropped.
func (w *Window) Done() <-chan struct{} {
	return w.done
}

func (w *Window) events() {
	defer w.markClosed()
	for {
		ev, xerr := w.conn.WaitForEvent()
		switch {
		case ev == nil && xerr == nil:
			return
		case xerr != nil:
			slog.Warn("window: X11 error", "error", xerr)
			continue
		}

		switch ev := ev.(type) {
		case xproto.ExposeEvent:
			if ev.Count == 0 {
				w.mu.Lock()
				w.flip()
				w.mu.Unlock()
			}
		case xproto.ClientMessageEvent:
			if ev.Format == 32 && len(ev.Data.Data32) > 0 && xproto.Atom(ev.Data.Data32[0]) == w.deleteWindow {
				slog.Info("window: closed")
				return
			}
		}
	}
}

func (w *Window) markClosed() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		w.closed = true
		close(w.done)
	}
}

// upload copies the frame into the backing pixmap, in as many PutImage
// requests as the server's maximum request length requires.
func (w *Window) upload() error {
	width, height := w.Rect.Dx(), w.Rect.Dy()
	rows := chunkRows(w.maxReq, width)
	if rows == 0 {
		return fmt.Errorf("window: a %d pixel row exceeds the maximum request length of %d bytes", width, w.maxReq)
	}
	for y := 0; y < height; y += rows {
		n := min(rows, height-y)
		xproto.PutImage(w.conn, xproto.ImageFormatZPixmap, xproto.Drawable(w.pix), w.gc,
			uint16(width), uint16(n), 0, int16(y), 0, w.depth,
			w.Pix[y*w.Stride:(y+n)*w.Stride])
	}
	return nil
}

// flip copies the backing pixmap to the window.
func (w *Window) flip() {
	xproto.CopyArea(w.conn, xproto.Drawable(w.pix), xproto.Drawable(w.win), w.gc,
		0, 0, 0, 0, uint16(w.Rect.Dx()), uint16(w.Rect.Dy()))
}

// Refresh shows the current frame.
func (w *Window) Refresh() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if err := w.upload(); err != nil {
		return err
	}
	w.flip()
	return nil
}

func (w *Window) Show(_ bool) error {
	return nil
}

func (w *Window) SetRotation(_ display.Rotation) error {
	return nil
}

// Close destroys the window and drops the connection.
func (w *Window) Close() error {
	xproto.FreePixmap(w.conn, w.pix)
	xproto.FreeGC(w.conn, w.gc)
	xproto.DestroyWindow(w.conn, w.win)
	w.conn.Close()
	w.markClosed()
	return nil
}

// chunkRows is the number of rows of a 32bpp image of the given width that fit
// in one request of maxReq bytes.
func chunkRows(maxReq, width int) int {
	if width <= 0 {
		return 0
	}
	return (maxReq - putImageHeader) / (width * 4)
}

func atomData(atoms ...xproto.Atom) []byte {
	buf := make([]byte, 4*len(atoms))
	for i, a := range atoms {
		xgb.Put32(buf[i*4:], uint32(a))
	}
	return buf
}

// ICCCM WM_SIZE_HINTS flags.
const (
	sizeHintPMinSize  = 1 << 4
	sizeHintPMaxSize  = 1 << 5
	sizeHintPBaseSize = 1 << 8
)

// fixedSizeHints encodes WM_NORMAL_HINTS that pin the window to one size.
func fixedSizeHints(width, height int) []byte {
	var fields [18]uint32
	fields[0] = sizeHintPMinSize | sizeHintPMaxSize | sizeHintPBaseSize
	fields[5], fields[6] = uint32(width), uint32(height)   // min
	fields[7], fields[8] = uint32(width), uint32(height)   // max
	fields[15], fields[16] = uint32(width), uint32(height) // base

	buf := make([]byte, 4*len(fields))
	for i, v := range fields {
		xgb.Put32(buf[i*4:], v)
	}
	return buf
}

var _ display.Display = (*Window)(nil)
