// Package layout decides what goes on each printed page of a JSA and renders
// every page as a self-contained, fixed-size HTML document.
package layout

import (
	"errors"
	"fmt"
)

var ErrInvalidLimits = errors.New("invalid layout limits")

// Geometry is the fixed page box. Pixel sizes are CSS pixels at 96 dpi; Scale
// is the device pixel ratio used when rasterizing.
type Geometry struct {
	WidthPx  int     `json:"widthPx"`
	HeightPx int     `json:"heightPx"`
	WidthMM  float64 `json:"widthMm"`
	HeightMM float64 `json:"heightMm"`
	Scale    float64 `json:"scale"`
}

// A4 is portrait A4 at scale 2.
var A4 = Geometry{WidthPx: 794, HeightPx: 1123, WidthMM: 210, HeightMM: 297, Scale: 2}

// WidthInches and HeightInches size the paper for PDF assembly.
func (g Geometry) WidthInches() float64  { return g.WidthMM / 25.4 }
func (g Geometry) HeightInches() float64 { return g.HeightMM / 25.4 }

func (g Geometry) Validate() error {
	if g.WidthPx <= 0 || g.HeightPx <= 0 || g.WidthMM <= 0 || g.HeightMM <= 0 || g.Scale <= 0 {
		return fmt.Errorf("%w: geometry %+v", ErrInvalidLimits, g)
	}
	return nil
}

// Overflow says what happens to step rows past MaxSteps.
type Overflow string

const (
	// OverflowTruncate drops the extra rows from the print and records the hidden count.
	OverflowTruncate Overflow = "truncate"
	// OverflowPaginate continues the steps table on extra pages after page 2.
	OverflowPaginate Overflow = "paginate"
)

func ParseOverflow(value string) (Overflow, error) {
	switch o := Overflow(value); o {
	case OverflowTruncate, OverflowPaginate:
		return o, nil
	case "":
		return OverflowTruncate, nil
	default:
		return "", fmt.Errorf("%w: overflow %q", ErrInvalidLimits, value)
	}
}

type Limits struct {
	MaxTools int      `json:"maxTools"`
	MaxSteps int      `json:"maxSteps"`
	Overflow Overflow `json:"overflow"`
}

var DefaultLimits = Limits{MaxTools: 8, MaxSteps: 12, Overflow: OverflowTruncate}

func (l Limits) Validate() error {
	if l.MaxTools <= 0 || l.MaxSteps <= 0 {
		return fmt.Errorf("%w: maxTools=%d maxSteps=%d", ErrInvalidLimits, l.MaxTools, l.MaxSteps)
	}
	if _, err := ParseOverflow(string(l.Overflow)); err != nil {
		return err
	}
	return nil
}
