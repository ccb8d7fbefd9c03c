// Package signature implements the freehand signature surface: input
// normalization, stroke rasterization, PNG data URI serialization and the
// stylized rendition of a typed name.
package signature

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"golang.org/x/image/vector"
)

const (
	DefaultWidth       = 400
	DefaultHeight      = 128
	DefaultStrokeWidth = 2.0

	// MaxWidth and MaxHeight bound pad surfaces and decoded client images.
	MaxWidth  = 4 * DefaultWidth
	MaxHeight = 4 * DefaultHeight
)

var ErrInvalidSize = errors.New("invalid signature surface size")

// CheckSize accepts a pad size of at most MaxWidth x MaxHeight. Zero selects
// the default for that dimension.
func CheckSize(width, height int) error {
	if width < 0 || height < 0 || width > MaxWidth || height > MaxHeight {
		return fmt.Errorf("%w: %dx%d exceeds %dx%d", ErrInvalidSize, width, height, MaxWidth, MaxHeight)
	}
	return nil
}

// DefaultColor is the ink colour of drawn and typed signatures.
var DefaultColor = color.RGBA{R: 0x00, G: 0x4A, B: 0x99, A: 0xFF}

// State is what the signer slot currently shows.
type State string

const (
	StateEmpty        State = "empty"
	StateTypedPreview State = "typed-preview"
	StateDrawn        State = "drawn"
)

type Option func(*Pad)

func WithStrokeWidth(width float64) Option {
	return func(p *Pad) {
		if width > 0 {
			p.strokeWidth = width
		}
	}
}

func WithColor(c color.RGBA) Option {
	return func(p *Pad) { p.ink = c }
}

// Pad accumulates strokes into a transparent RGBA raster. It is not safe for
// concurrent use.
type Pad struct {
	width, height int
	strokeWidth   float64
	ink           color.RGBA
	onCommit      func(string)

	raster       *image.RGBA
	z            *vector.Rasterizer
	drawing      bool
	hasSignature bool
	last         Point
}

// NewPad builds an empty pad, clamped to MaxWidth x MaxHeight. onCommit receives the PNG data URI after every
// completed stroke and "" after every clear; it may be nil.
func NewPad(width, height int, onCommit func(string), opts ...Option) *Pad {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	width, height = min(width, MaxWidth), min(height, MaxHeight)
	p := &Pad{
		width:       width,
		height:      height,
		strokeWidth: DefaultStrokeWidth,
		ink:         DefaultColor,
		onCommit:    onCommit,
		raster:      image.NewRGBA(image.Rect(0, 0, width, height)),
		z:           vector.NewRasterizer(width, height),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pad) Size() (int, int) { return p.width, p.height }

func (p *Pad) HasSignature() bool { return p.hasSignature }

func (p *Pad) Drawing() bool { return p.drawing }

// State derives the slot state from the drawn flag and the signer's typed name.
func (p *Pad) State(typedName string) State {
	return StateOf(p.hasSignature, typedName)
}

func StateOf(drawn bool, typedName string) State {
	switch {
	case drawn:
		return StateDrawn
	case typedName != "":
		return StateTypedPreview
	default:
		return StateEmpty
	}
}

// BeginStroke starts a new path at pt.
func (p *Pad) BeginStroke(pt Point) {
	p.drawing = true
	p.last = pt
}

// ExtendStroke draws a round-capped segment from the last point to pt. It is
// ignored when no stroke is active.
func (p *Pad) ExtendStroke(pt Point) {
	if !p.drawing {
		return
	}
	p.segment(p.last, pt)
	p.last = pt
	p.hasSignature = true
}

// EndStroke commits the active stroke and emits the whole raster. Without an
// active stroke it does nothing.
func (p *Pad) EndStroke() error {
	if !p.drawing {
		return nil
	}
	p.drawing = false
	uri, err := p.DataURI()
	if err != nil {
		return err
	}
	p.emit(uri)
	return nil
}

// Clear wipes the raster, resets the drawn flag and emits "".
func (p *Pad) Clear() {
	p.raster = image.NewRGBA(image.Rect(0, 0, p.width, p.height))
	p.drawing = false
	p.hasSignature = false
	p.emit("")
}

// Image returns the live raster.
func (p *Pad) Image() *image.RGBA { return p.raster }

// DataURI serializes the current raster as a base64 PNG data URI.
func (p *Pad) DataURI() (string, error) {
	return EncodeDataURI(p.raster)
}

func (p *Pad) emit(value string) {
	if p.onCommit != nil {
		p.onCommit(value)
	}
}

const kappa = 0.5522847498

func (p *Pad) segment(a, b Point) {
	r := p.strokeWidth / 2
	src := image.NewUniform(p.ink)

	dx, dy := b.X-a.X, b.Y-a.Y
	if length := math.Hypot(dx, dy); length > 0 {
		nx, ny := -dy/length*r, dx/length*r
		p.z.Reset(p.width, p.height)
		p.z.MoveTo(float32(a.X+nx), float32(a.Y+ny))
		p.z.LineTo(float32(b.X+nx), float32(b.Y+ny))
		p.z.LineTo(float32(b.X-nx), float32(b.Y-ny))
		p.z.LineTo(float32(a.X-nx), float32(a.Y-ny))
		p.z.ClosePath()
		p.z.Draw(p.raster, p.raster.Bounds(), src, image.Point{})
	}
	p.dot(a, r, src)
	p.dot(b, r, src)
}

// dot fills a disc, giving the segment its round cap and join.
func (p *Pad) dot(c Point, r float64, src image.Image) {
	k := kappa * r
	x, y := c.X, c.Y
	z := p.z
	z.Reset(p.width, p.height)
	z.MoveTo(float32(x+r), float32(y))
	z.CubeTo(float32(x+r), float32(y+k), float32(x+k), float32(y+r), float32(x), float32(y+r))
	z.CubeTo(float32(x-k), float32(y+r), float32(x-r), float32(y+k), float32(x-r), float32(y))
	z.CubeTo(float32(x-r), float32(y-k), float32(x-k), float32(y-r), float32(x), float32(y-r))
	z.CubeTo(float32(x+k), float32(y-r), float32(x+r), float32(y-k), float32(x+r), float32(y))
	z.ClosePath()
	z.Draw(p.raster, p.raster.Bounds(), src, image.Point{})
}

const pngPrefix = "data:image/png;base64,"

// EncodeDataURI encodes img as a PNG data URI.
func EncodeDataURI(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return pngPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
