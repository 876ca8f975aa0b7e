package effects

import (
	"image"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// CropRect returns the centered region of src with the aspect ratio of target.
// A source proportionally wider than the target loses width, otherwise height.
func CropRect(src image.Rectangle, target image.Point) image.Rectangle {
	sw, sh := src.Dx(), src.Dy()
	if sw == 0 || sh == 0 || target.X == 0 || target.Y == 0 {
		return src
	}
	srcRatio := float64(sw) / float64(sh)
	tgtRatio := float64(target.X) / float64(target.Y)

	if srcRatio > tgtRatio {
		w := int(math.Round(float64(sh) * tgtRatio))
		x0 := src.Min.X + (sw-w)/2
		return image.Rect(x0, src.Min.Y, x0+w, src.Max.Y)
	}
	h := int(math.Round(float64(sw) / tgtRatio))
	y0 := src.Min.Y + (sh-h)/2
	return image.Rect(src.Min.X, y0, src.Max.X, y0+h)
}

// CropToFill crops img to the target aspect ratio and resizes it to exactly target.
func CropToFill(img image.Image, target image.Point) *image.RGBA {
	crop := CropRect(img.Bounds(), target)
	dst := image.NewRGBA(image.Rect(0, 0, target.X, target.Y))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, crop, draw.Src, nil)
	return dst
}

// FitWithin scales img to fit inside box keeping its aspect ratio.
func FitWithin(img image.Image, box image.Point) *image.RGBA {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}
	scale := math.Min(float64(box.X)/float64(b.Dx()), float64(box.Y)/float64(b.Dy()))
	w := int(math.Max(1, math.Round(float64(b.Dx())*scale)))
	h := int(math.Max(1, math.Round(float64(b.Dy())*scale)))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// ScaleToHeight resizes img to height h keeping its aspect ratio.
func ScaleToHeight(img image.Image, h int) *image.RGBA {
	b := img.Bounds()
	if b.Dy() == 0 || h <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}
	w := int(math.Max(1, math.Round(float64(b.Dx())*float64(h)/float64(b.Dy()))))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// evenCeil rounds v up to the next even integer.
func evenCeil(v float64) int {
	n := int(math.Ceil(v))
	return n + n%2
}

// ZoomGeometry returns the scaled frame size for a zoom factor of (1+s) and
// the centered crop that brings it back to base. Scaled sizes are always even.
func ZoomGeometry(base image.Point, s float64) (image.Point, image.Rectangle) {
	scaled := image.Pt(evenCeil(float64(base.X)*(1+s)), evenCeil(float64(base.Y)*(1+s)))
	x := (scaled.X - base.X) / 2
	y := (scaled.Y - base.Y) / 2
	return scaled, image.Rect(x, y, x+base.X, y+base.Y)
}

type zoomSource struct {
	src   image.Image
	base  image.Point
	scale func(t float64) float64
	buf   *image.RGBA
}

func newZoomSource(img image.Image, scale func(float64) float64) *zoomSource {
	b := img.Bounds().Size()
	return &zoomSource{
		src:   img,
		base:  b,
		scale: scale,
		buf:   image.NewRGBA(image.Rect(0, 0, b.X, b.Y)),
	}
}

func (z *zoomSource) Size() image.Point { return z.base }

func (z *zoomSource) Frame(t float64) image.Image {
	scaled, crop := ZoomGeometry(z.base, z.scale(t))
	sx := float64(scaled.X) / float64(z.base.X)
	sy := float64(scaled.Y) / float64(z.base.Y)

	sb := z.src.Bounds()
	// src -> scaled frame -> shifted so the crop origin lands at (0,0)
	m := f64.Aff3{
		sx, 0, -float64(crop.Min.X) - sx*float64(sb.Min.X),
		0, sy, -float64(crop.Min.Y) - sy*float64(sb.Min.Y),
	}
	xdraw.ApproxBiLinear.Transform(z.buf, m, z.src, sb, draw.Src, nil)
	return z.buf
}

type panSource struct {
	src   image.Image
	size  image.Point
	ext   int
	speed float64
	dir   PanDirection
	buf   *image.RGBA
}

func (p *panSource) Size() image.Point { return p.size }

// Offset returns the left edge of the visible window at time t.
func (p *panSource) Offset(t float64) int {
	moved := int(math.Ceil(t * p.speed))
	if moved > p.ext {
		moved = p.ext
	}
	if moved < 0 {
		moved = 0
	}
	if p.dir == PanLeft {
		return p.ext - moved
	}
	return moved
}

func (p *panSource) Frame(t float64) image.Image {
	if p.buf == nil {
		p.buf = image.NewRGBA(image.Rect(0, 0, p.size.X, p.size.Y))
	}
	x := p.Offset(t)
	sb := p.src.Bounds()
	draw.Draw(p.buf, p.buf.Bounds(), p.src, image.Pt(sb.Min.X+x, sb.Min.Y), draw.Src)
	return p.buf
}
