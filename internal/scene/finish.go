package scene

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/Kondomino/kondo-movie-sub001/internal/captions"
	"github.com/Kondomino/kondo-movie-sub001/internal/effects"
	"github.com/Kondomino/kondo-movie-sub001/internal/layer"
)

// Watermark returns the watermark layer spanning the whole video, or nothing
// when the asset cannot be loaded.
func Watermark(ctx context.Context, rc *Context, total float64) []layer.Layer {
	w := rc.Config.Watermark
	if w.Asset == "" || total <= 0 {
		return nil
	}
	img, err := rc.loadImage(ctx, w.Asset)
	if err != nil {
		rc.Logger.Warn().Err(err).Str("asset", w.Asset).Msg("watermark unavailable")
		return nil
	}
	h := w.PortraitHeight
	if rc.Landscape() {
		h = w.LandscapeHeight
	}
	mark := effects.ScaleToHeight(img, h)
	sz := mark.Bounds().Size()
	if sz.X == 0 {
		return nil
	}
	l := still("watermark", layer.Foreground, mark,
		image.Pt(rc.Size.X-sz.X-w.OffsetX, rc.Size.Y-sz.Y-w.OffsetY),
		span{Start: 0, Duration: total})
	l.Opacity = w.Opacity
	return []layer.Layer{l}
}

// captionBackdrop sits behind caption text for legibility.
var captionBackdrop = color.RGBA{A: 0x99}

// CaptionLayers renders one layer per cue. Cue times are absolute.
func CaptionLayers(ctx context.Context, rc *Context, cues []captions.Cue) []layer.Layer {
	c := rc.Config.Captions
	width := rc.Size.X - 2*c.Margin
	if width <= 0 || len(cues) == 0 {
		return nil
	}
	fg, err := ParseHexColor(c.Color)
	if err != nil {
		fg = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}
	y := int(math.Round(rc.captionTop()))

	out := make([]layer.Layer, 0, len(cues))
	for i, cue := range cues {
		if cue.End <= cue.Start {
			continue
		}
		b := block{
			Text:     cue.Text,
			Keys:     []string{rc.Config.Fonts.Captions},
			Size:     c.FontSize,
			LineSize: c.LineHeight,
			Color:    fg,
		}
		face, lines := rc.shape(ctx, b, width)
		txt := rc.render(face, lines, width, b)

		img := image.NewRGBA(txt.Bounds())
		draw.Draw(img, img.Bounds(), image.NewUniform(captionBackdrop), image.Point{}, draw.Src)
		draw.Draw(img, img.Bounds(), txt, image.Point{}, draw.Over)

		out = append(out, still(fmt.Sprintf("caption-%d", i+1), layer.Foreground, img,
			image.Pt(c.Margin, y), span{Start: cue.Start, Duration: cue.End - cue.Start}))
	}
	return out
}
