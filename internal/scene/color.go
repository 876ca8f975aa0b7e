package scene

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// ParseHexColor decodes #RGB, #RRGGBB and #RRGGBBAA.
func ParseHexColor(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	// color.RGBA is premultiplied
	a := uint32(v & 0xff)
	pre := func(c uint32) uint8 { return uint8(c * a / 0xff) }
	return color.RGBA{
		R: pre(uint32(v>>24) & 0xff),
		G: pre(uint32(v>>16) & 0xff),
		B: pre(uint32(v>>8) & 0xff),
		A: uint8(a),
	}, nil
}
