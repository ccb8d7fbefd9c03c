package signature

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"sync"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/webp"
)

var (
	ErrEmptyName    = errors.New("typed name is empty")
	ErrInvalidImage = errors.New("invalid signature image")
)

// MaxImageBytes bounds a decoded client-supplied signature image.
const MaxImageBytes = 2 << 20

var (
	italicOnce sync.Once
	italicFont *opentype.Font
	italicErr  error
)

func italic() (*opentype.Font, error) {
	italicOnce.Do(func() {
		italicFont, italicErr = opentype.Parse(goitalic.TTF)
	})
	return italicFont, italicErr
}

// RenderTypedName draws the name in an italic face, centred on a transparent
// w x h surface in the pad ink colour. The result is a preview only; it is
// never stored as the signature image.
func RenderTypedName(name string, width, height int, ink color.RGBA) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	if ink == (color.RGBA{}) {
		ink = DefaultColor
	}
	f, err := italic()
	if err != nil {
		return "", fmt.Errorf("load italic face: %w", err)
	}

	size := float64(height) * 0.4
	face, err := fitFace(f, name, size, float64(width)*0.9)
	if err != nil {
		return "", err
	}
	defer face.Close()

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	d := font.Drawer{Dst: dst, Src: image.NewUniform(ink), Face: face}
	advance := d.MeasureString(name)
	metrics := face.Metrics()
	textHeight := metrics.Ascent + metrics.Descent
	x := (fixed.I(width) - advance) / 2
	y := (fixed.I(height)-textHeight)/2 + metrics.Ascent
	d.Dot = fixed.Point26_6{X: x, Y: y}
	d.DrawString(name)

	return EncodeDataURI(dst)
}

// fitFace shrinks the face until the name fits the available width.
func fitFace(f *opentype.Font, name string, size, maxWidth float64) (font.Face, error) {
	for {
		face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
		if err != nil {
			return nil, fmt.Errorf("build italic face: %w", err)
		}
		width := float64(font.MeasureString(face, name)) / 64
		if width <= maxWidth || size <= 8 {
			return face, nil
		}
		face.Close()
		size *= maxWidth / width
		if size < 8 {
			size = 8
		}
	}
}

// DecodeDataURI validates a client-supplied image data URI. PNG, JPEG and WebP
// payloads are accepted; dimensions are checked before the pixels are decoded.
func DecodeDataURI(uri string) (image.Image, error) {
	header, payload, ok := strings.Cut(uri, ",")
	if !ok || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("%w: not a base64 image data URI", ErrInvalidImage)
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if len(raw) > MaxImageBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit", ErrInvalidImage, len(raw))
	}

	webpData := strings.HasPrefix(header, "data:image/webp")
	var cfg image.Config
	if webpData {
		cfg, err = webp.DecodeConfig(bytes.NewReader(raw))
	} else {
		cfg, _, err = image.DecodeConfig(bytes.NewReader(raw))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if cfg.Width > MaxWidth || cfg.Height > MaxHeight {
		return nil, fmt.Errorf("%w: %dx%d exceeds %dx%d", ErrInvalidImage, cfg.Width, cfg.Height, MaxWidth, MaxHeight)
	}

	var img image.Image
	if webpData {
		img, err = webp.Decode(bytes.NewReader(raw))
	} else {
		img, _, err = image.Decode(bytes.NewReader(raw))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: empty dimensions", ErrInvalidImage)
	}
	return img, nil
}

// Normalize decodes a client-supplied image and returns it as a PNG data URI
// scaled to fit a w x h surface, preserving aspect ratio.
func Normalize(uri string, width, height int) (string, error) {
	img, err := DecodeDataURI(uri)
	if err != nil {
		return "", err
	}
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height && strings.HasPrefix(uri, pngPrefix) {
		return uri, nil
	}

	scale := min(float64(width)/float64(b.Dx()), float64(height)/float64(b.Dy()))
	w := max(1, int(float64(b.Dx())*scale))
	h := max(1, int(float64(b.Dy())*scale))
	offset := image.Pt((width-w)/2, (height-h)/2)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, image.Rectangle{Min: offset, Max: offset.Add(image.Pt(w, h))}, img, b, xdraw.Over, nil)

	return EncodeDataURI(dst)
}
