// Package effects turns still images into time-parameterized layer sources
// (crop-to-fill, zoom, pan) and applies clip transitions to layers.
package effects

import (
	"fmt"
	"image"
	"math"

	"github.com/Kondomino/kondo-movie-sub001/internal/edl"
	"github.com/Kondomino/kondo-movie-sub001/internal/layer"
)

// Params carries everything an effect needs for one clip.
type Params struct {
	Width, Height int
	FPS           int
	Duration      float64
	ZoomRate      float64
	InitialZoom   float64
	PanSpeed      float64
}

func (p Params) Target() image.Point {
	return image.Pt(p.Width, p.Height)
}

// Effect animates a crop-filled still.
type Effect interface {
	// CanvasSize is the size the still must be crop-filled to before Source is called.
	CanvasSize(p Params) image.Point
	Source(img image.Image, p Params) layer.Source
}

// New returns the effect registered for a clip effect name.
func New(name edl.ClipEffect) (Effect, error) {
	switch name {
	case edl.EffectNone:
		return Static{}, nil
	case edl.EffectZoomIn:
		return ZoomIn{}, nil
	case edl.EffectZoomOut:
		return ZoomOut{}, nil
	case edl.EffectPanLeft:
		return Pan{Direction: PanLeft}, nil
	case edl.EffectPanRight:
		return Pan{Direction: PanRight}, nil
	}
	return nil, fmt.Errorf("unsupported clip effect %q", name)
}

// Static shows the still unchanged.
type Static struct{}

func (Static) CanvasSize(p Params) image.Point { return p.Target() }

func (Static) Source(img image.Image, p Params) layer.Source {
	return &layer.Still{Image: img}
}

type ZoomIn struct{}

func (ZoomIn) CanvasSize(p Params) image.Point { return p.Target() }

func (ZoomIn) Source(img image.Image, p Params) layer.Source {
	return newZoomSource(img, func(t float64) float64 {
		return p.ZoomRate * t
	})
}

// ZoomOut starts at InitialZoom and relaxes toward the unscaled frame.
type ZoomOut struct{}

func (ZoomOut) CanvasSize(p Params) image.Point { return p.Target() }

func (ZoomOut) Source(img image.Image, p Params) layer.Source {
	return newZoomSource(img, func(t float64) float64 {
		return math.Max(0, p.InitialZoom-p.ZoomRate*t)
	})
}

type PanDirection int

const (
	PanRight PanDirection = iota
	PanLeft
)

// Pan slides a target-width window across a still pre-extended to the right size.
type Pan struct {
	Direction PanDirection
}

// PanExtension is the number of extra pixels a pan clip travels.
func PanExtension(p Params) int {
	return int(math.Ceil(p.Duration * float64(p.FPS) * p.PanSpeed))
}

func (Pan) CanvasSize(p Params) image.Point {
	return image.Pt(p.Width+PanExtension(p), p.Height)
}

func (e Pan) Source(img image.Image, p Params) layer.Source {
	return &panSource{
		src:   img,
		size:  p.Target(),
		ext:   PanExtension(p),
		speed: p.PanSpeed * float64(p.FPS),
		dir:   e.Direction,
	}
}
