package text

import (
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

type Align int

const (
	AlignCenter Align = iota
	AlignLeft
)

// Wrap shapes text with face and breaks it so no line is wider than width.
// Existing line breaks are kept; a single word wider than width stays on its own line.
func Wrap(face font.Face, s string, width int) []string {
	var out []string
	for _, para := range TrimLines(s) {
		words := strings.Fields(para)
		line := ""
		for _, w := range words {
			candidate := w
			if line != "" {
				candidate = line + " " + w
			}
			if line != "" && font.MeasureString(face, candidate).Ceil() > width {
				out = append(out, line)
				line = w
				continue
			}
			line = candidate
		}
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// Measure returns the widest line in pixels.
func Measure(face font.Face, lines []string) int {
	w := 0
	for _, l := range lines {
		w = max(w, font.MeasureString(face, l).Ceil())
	}
	return w
}

// Style controls rasterization.
type Style struct {
	Color      color.Color
	LineHeight int
	Align      Align
}

// Render draws lines into a transparent box of the given width, one LineHeight per line.
func Render(face font.Face, lines []string, width int, st Style) *image.RGBA {
	lh := st.LineHeight
	if lh <= 0 {
		lh = face.Metrics().Height.Ceil()
	}
	col := st.Color
	if col == nil {
		col = color.White
	}

	img := image.NewRGBA(image.Rect(0, 0, max(width, 1), max(lh*len(lines), 1)))
	m := face.Metrics()
	// baseline centered in each line box
	pad := (lh - (m.Ascent + m.Descent).Ceil()) / 2

	d := &font.Drawer{Dst: img, Src: image.NewUniform(col), Face: face}
	for i, l := range lines {
		x := 0
		if st.Align == AlignCenter {
			x = (width - font.MeasureString(face, l).Ceil()) / 2
		}
		y := i*lh + pad + m.Ascent.Ceil()
		d.Dot = fixed.P(x, y)
		d.DrawString(l)
	}
	return img
}
