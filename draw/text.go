package draw

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	"github.com/golang/freetype/truetype"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/math/fixed"
)

// Errors
var (
	ErrNoFonts = errors.New("draw: font stack is empty")
	ErrRange   = errors.New("draw: invalid glyph range")
)

// faceCacheSize bounds the number of scaled faces kept around. Clock faces use a
// handful of heights, messages may ask for arbitrary ones.
const faceCacheSize = 64

// Range is an inclusive range of code points.
type Range struct {
	Lo, Hi rune
}

func (r Range) Contains(c rune) bool {
	return c >= r.Lo && c <= r.Hi
}

func (r Range) String() string {
	return fmt.Sprintf("%04x-%04x", r.Lo, r.Hi)
}

// ParseRange parses "2600-26ff", "0x2600-0x26ff" or a single code point "1f37e".
func ParseRange(s string) (Range, error) {
	lo, hi, found := strings.Cut(strings.TrimSpace(s), "-")
	if !found {
		hi = lo
	}
	l, err := parseCodePoint(lo)
	if err != nil {
		return Range{}, fmt.Errorf("%w %q: %v", ErrRange, s, err)
	}
	h, err := parseCodePoint(hi)
	if err != nil {
		return Range{}, fmt.Errorf("%w %q: %v", ErrRange, s, err)
	}
	if h < l {
		return Range{}, fmt.Errorf("%w %q: end before start", ErrRange, s)
	}
	return Range{Lo: l, Hi: h}, nil
}

func parseCodePoint(s string) (rune, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "U+")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, err
	}
	return rune(v), nil
}

// Font is a parsed TrueType font together with the code points it is preferred for.
type Font struct {
	Font   *truetype.Font
	Ranges []Range

	// ratio is the pixel height (ascent+descent) of the font at size 1.
	ratio float64
}

// ParseFont parses TrueType data.
func ParseFont(data []byte, ranges ...Range) (Font, error) {
	f, err := truetype.Parse(data)
	if err != nil {
		return Font{}, fmt.Errorf("draw: could not load font: %w", err)
	}

	const refSize = 1000
	m := truetype.NewFace(f, &truetype.Options{Size: refSize, DPI: 72}).Metrics()
	ratio := float64(m.Ascent+m.Descent) / 64 / refSize
	if ratio <= 0 {
		return Font{}, errors.New("draw: could not load font: font has no vertical extent")
	}

	return Font{
		Font:   f,
		Ranges: ranges,
		ratio:  ratio,
	}, nil
}

// DefaultFont is the embedded Go Medium font, used for every code point it is asked for.
func DefaultFont() Font {
	f, err := ParseFont(gomedium.TTF, Range{Lo: 1, Hi: 0x25ff})
	if err != nil {
		panic(err)
	}
	return f
}

type faceKey struct {
	font   int
	height int
}

// FontStack picks a font per code point: the first font with a range containing
// the code point, or the last font if none matches.
//
// A FontStack is not safe for concurrent use; the faces it hands out are stateful.
type FontStack struct {
	fonts []Font
	faces *lru.Cache[faceKey, font.Face]
}

// NewFontStack builds a stack, highest priority first.
func NewFontStack(fonts ...Font) (*FontStack, error) {
	if len(fonts) == 0 {
		return nil, ErrNoFonts
	}
	faces, err := lru.New[faceKey, font.Face](faceCacheSize)
	if err != nil {
		return nil, err
	}
	return &FontStack{
		fonts: fonts,
		faces: faces,
	}, nil
}

// Len is the number of fonts in the stack.
func (s *FontStack) Len() int {
	return len(s.fonts)
}

// Index returns the index of the font used for c.
func (s *FontStack) Index(c rune) int {
	for i, f := range s.fonts {
		for _, r := range f.Ranges {
			if r.Contains(c) {
				return i
			}
		}
	}
	return len(s.fonts) - 1
}

// Face returns the face used for c, scaled so that its ascent plus descent is height pixels.
func (s *FontStack) Face(c rune, height int) font.Face {
	key := faceKey{font: s.Index(c), height: height}
	if face, ok := s.faces.Get(key); ok {
		return face
	}
	f := s.fonts[key.font]
	face := truetype.NewFace(f.Font, &truetype.Options{
		Size: float64(height) / f.ratio,
		DPI:  72,
	})
	s.faces.Add(key, face)
	return face
}

func (s *FontStack) advance(c rune, height int) fixed.Int26_6 {
	a, _ := s.Face(c, height).GlyphAdvance(c)
	return a
}

type alignKind uint8

const (
	alignLeft alignKind = iota
	alignRight
	alignCentre
)

// Align positions a run of text horizontally.
type Align struct {
	kind alignKind
	x, w int
}

// Left starts the text at x.
func Left(x int) Align { return Align{kind: alignLeft, x: x} }

// Right ends the text at x.
func Right(x int) Align { return Align{kind: alignRight, x: x} }

// Centre centres the text in the w pixels starting at x. Text that doesn't fit
// starts at x.
func Centre(x, w int) Align { return Align{kind: alignCentre, x: x, w: w} }

func (a Align) base(width fixed.Int26_6) fixed.Int26_6 {
	switch a.kind {
	case alignRight:
		return fixed.I(a.x) - width
	case alignCentre:
		if width >= fixed.I(a.w) {
			return fixed.I(a.x)
		}
		return fixed.I(a.x) + (fixed.I(a.w)-width)/2
	default:
		return fixed.I(a.x)
	}
}

// Fixed selects fixed width rendering of numbers.
type Fixed uint8

const (
	// Proportional uses the natural advance of every glyph.
	Proportional Fixed = iota

	// FixedNumbers renders digits, space and colon in cells as wide as the widest of them.
	FixedNumbers

	// FixedExtra is FixedNumbers with the cell also wide enough for "m" and "s".
	FixedExtra
)

func (f Fixed) cellRunes() string {
	switch f {
	case FixedNumbers:
		return "0123456789 :"
	case FixedExtra:
		return "0123456789 :ms"
	default:
		return ""
	}
}

func inCell(c rune) bool {
	return (c >= '0' && c <= '9') || c == ' ' || c == ':'
}

type placedGlyph struct {
	face     font.Face
	c        rune
	x        fixed.Int26_6
	baseline fixed.Int26_6
}

// Measure returns the width in pixels of s.
func Measure(s string, fonts *FontStack, height int, mode Fixed) int {
	_, width := layout(s, 0, fonts, height, mode)
	return width.Floor()
}

func layout(s string, y int, fonts *FontStack, height int, mode Fixed) ([]placedGlyph, fixed.Int26_6) {
	var cell fixed.Int26_6
	for _, c := range mode.cellRunes() {
		if a := fonts.advance(c, height); a > cell {
			cell = a
		}
	}

	var (
		glyphs = make([]placedGlyph, 0, len(s))
		x      fixed.Int26_6
	)
	for _, c := range s {
		face := fonts.Face(c, height)
		advance, _ := face.GlyphAdvance(c)

		offset, width := fixed.Int26_6(0), advance
		if mode != Proportional && inCell(c) {
			offset, width = (cell-advance)/2, cell
		}

		glyphs = append(glyphs, placedGlyph{
			face:     face,
			c:        c,
			x:        x + offset,
			baseline: fixed.I(y) + face.Metrics().Ascent,
		})
		x += width
	}
	return glyphs, x
}

// Text draws s with its top edge at y and height pixels tall, and returns the width
// of the text in pixels. Glyph coverage is composited over dst; pixels outside dst
// are dropped.
func Text(dst Image, s string, align Align, y int, fonts *FontStack, height int, c color.Color, mode Fixed) int {
	if height <= 0 || s == "" {
		return 0
	}

	glyphs, width := layout(s, y, fonts, height, mode)
	var (
		base = align.base(width)
		src  = image.NewUniform(c)
	)
	for _, g := range glyphs {
		dot := g.dot(base)
		dr, mask, mp, _, ok := g.face.Glyph(dot, g.c)
		if !ok {
			continue
		}
		DrawMask(dst, dr, src, image.Point{}, mask, mp, Over)
	}
	return width.Floor()
}

func (g placedGlyph) dot(base fixed.Int26_6) fixed.Point26_6 {
	return fixed.Point26_6{X: base + g.x, Y: g.baseline}
}
