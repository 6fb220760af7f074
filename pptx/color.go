package pptx

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Color is an opaque sRGB colour.
type Color struct {
	R, G, B uint8
}

var (
	Black = Color{}
	White = Color{R: 0xFF, G: 0xFF, B: 0xFF}
)

// ParseColor reads "RRGGBB" with an optional leading '#'.
func ParseColor(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("colour %q: want 6 hex digits", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("colour %q: %w", s, err)
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// HexColor is ParseColor with black for malformed input.
func HexColor(s string) Color {
	c, err := ParseColor(s)
	if err != nil {
		return Black
	}
	return c
}

// Hex returns the upper-case "RRGGBB" form used in srgbClr values.
func (c Color) Hex() string {
	return fmt.Sprintf("%02X%02X%02X", c.R, c.G, c.B)
}

// NRGBA converts for raster drawing. opacity is in percent; values outside
// (0,100) mean opaque.
func (c Color) NRGBA(opacity int) color.NRGBA {
	a := uint8(0xFF)
	if opacity > 0 && opacity < 100 {
		a = uint8(opacity * 0xFF / 100)
	}
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: a}
}

// Fill is a solid fill with optional transparency.
type Fill struct {
	Color Color
	// Opacity in percent; 0 means fully opaque.
	Opacity int
}

func (f Fill) opaque() bool { return f.Opacity <= 0 || f.Opacity >= 100 }
