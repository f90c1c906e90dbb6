package raster

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Theme colors.
const (
	DefaultFaceColor = "#39D0D8"
	DefaultEdgeColor = "#1a6b6e"
)

// ParseHexColor parses "#RRGGBB", "#RRGGBBAA" or "#RGB" (the '#' is optional).
func ParseHexColor(s string) (color.NRGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return color.NRGBA{}, fmt.Errorf("raster: invalid color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("raster: invalid color %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// MustParseHexColor is ParseHexColor for constants.
func MustParseHexColor(s string) color.NRGBA {
	c, err := ParseHexColor(s)
	if err != nil {
		panic(err)
	}
	return c
}
