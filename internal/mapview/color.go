package mapview

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// ErrUnknownColor is returned by ColorToHex for unrecognised colors.
var ErrUnknownColor = errors.New("unknown color")

// Theme holds the palette shades the UI uses, in the browser's naming.
var Theme = map[string]color.RGBA{
	"slate-50":  {0xf8, 0xfa, 0xfc, 0xff},
	"stone-50":  {0xfa, 0xfa, 0xf9, 0xff},
	"stone-200": {0xe7, 0xe5, 0xe4, 0xff},
	"stone-500": {0x78, 0x71, 0x6c, 0xff},
	"stone-600": {0x57, 0x53, 0x4e, 0xff},
	"stone-700": {0x44, 0x40, 0x3c, 0xff},
	"stone-900": {0x1c, 0x19, 0x17, 0xff},
	"green-300": {0x86, 0xef, 0xac, 0xff},
	"cyan-300":  {0x67, 0xe8, 0xf9, 0xff},
	"cyan-400":  {0x22, 0xd3, 0xee, 0xff},
}

// Colors of the division fill layers.
var (
	ColorSuccess = MustColorToHex("green-300")
	ColorFail    = MustColorToHex("stone-700")
	ColorBorder  = MustColorToHex("stone-700")
)

// ColorToHex converts a theme shade, a CSS color name or a #rgb/#rrggbb
// literal to #rrggbb. The color is painted onto a one pixel offscreen image
// and read back, so the result is whatever the rasterizer produced; alpha is
// discarded.
func ColorToHex(name string) (string, error) {
	c, err := parseColor(name)
	if err != nil {
		return "", err
	}
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	px := img.Pix[0:3]
	return fmt.Sprintf("#%02x%02x%02x", px[0], px[1], px[2]), nil
}

// MustColorToHex is ColorToHex for colors known at compile time.
func MustColorToHex(name string) string {
	hex, err := ColorToHex(name)
	if err != nil {
		panic(err)
	}
	return hex
}

func parseColor(name string) (color.Color, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if c, ok := Theme[key]; ok {
		return c, nil
	}
	if c, ok := colornames.Map[key]; ok {
		return c, nil
	}
	if strings.HasPrefix(key, "#") {
		return parseHex(key[1:])
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownColor, name)
}

func parseHex(s string) (color.Color, error) {
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return nil, fmt.Errorf("%w: #%s", ErrUnknownColor, s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: #%s", ErrUnknownColor, s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
