package video

import (
	"image"
	"image/color"
	"image/draw"
	"io"
	"math"
	"sort"

	"github.com/Kondomino/kondo-movie-sub001/internal/layer"
)

// Compositor сводит стек слоев в кадры фиксированного размера.
type Compositor struct {
	layers []layer.Layer
	size   image.Point
	fps    int
}

func NewCompositor(layers []layer.Layer, size image.Point, fps int) *Compositor {
	sorted := make([]layer.Layer, len(layers))
	copy(sorted, layers)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Z < sorted[j].Z })
	return &Compositor{layers: sorted, size: size, fps: fps}
}

// TotalFrames количество кадров до конца самого позднего слоя.
func (c *Compositor) TotalFrames() int {
	n := 0
	for _, l := range c.layers {
		_, last := l.FrameSpan(c.fps)
		n = max(n, last)
	}
	return n
}

// Compose рисует кадр n в dst. Фон кадра черный, слои накладываются в порядке Z.
func (c *Compositor) Compose(dst *image.RGBA, n int) {
	draw.Draw(dst, dst.Bounds(), image.Black, image.Point{}, draw.Src)

	t := float64(n) / float64(c.fps)
	for _, l := range c.layers {
		first, last := l.FrameSpan(c.fps)
		if n < first || n >= last || l.Source == nil {
			continue
		}
		// кадр может начаться на полкадра раньше Start из-за округления
		local := math.Max(0, math.Min(t-l.Start, l.Duration))
		a := l.AlphaAt(l.Start + local)
		if a <= 0 {
			continue
		}

		src := l.Source.Frame(local)
		r := image.Rectangle{Min: l.Position, Max: l.Position.Add(l.Source.Size())}
		sp := src.Bounds().Min
		if a >= 1 {
			draw.Draw(dst, r, src, sp, draw.Over)
			continue
		}
		mask := image.NewUniform(color.Alpha{A: uint8(math.Round(a * 255))})
		draw.DrawMask(dst, r, src, sp, mask, image.Point{}, draw.Over)
	}
}

func writeRawRGBA(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	// Проверяем, является ли изображение уже RGBA и имеет ли стандартный шаг (stride)
	if !ok || rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		rgba = image.NewRGBA(bounds)
		draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	}
	_, err := w.Write(rgba.Pix)
	return err
}
