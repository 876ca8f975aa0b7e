// Package layer defines the visual layer descriptors emitted by scene builders
// and consumed by the render backend.
package layer

import (
	"image"
	"image/color"
	"math"
)

// Source produces the pixels of a layer at a time relative to the layer start.
// The returned image is only valid until the next call to Frame.
type Source interface {
	Size() image.Point
	Frame(t float64) image.Image
}

type Kind int

const (
	Background Kind = iota
	Foreground
	Blank
)

func (k Kind) String() string {
	switch k {
	case Background:
		return "background"
	case Foreground:
		return "foreground"
	case Blank:
		return "blank"
	}
	return "unknown"
}

// Layer is a positioned source over a time span. Z order is emission order.
type Layer struct {
	Name     string
	Kind     Kind
	Source   Source
	Start    float64
	Duration float64
	Position image.Point
	Opacity  float64
	FadeIn   float64
	FadeOut  float64
	Z        int
}

// End returns the absolute end time in seconds.
func (l Layer) End() float64 {
	return l.Start + l.Duration
}

// FrameSpan returns the first frame index and the index one past the last.
func (l Layer) FrameSpan(fps int) (int, int) {
	first := int(math.Round(l.Start * float64(fps)))
	last := int(math.Round(l.End() * float64(fps)))
	return first, last
}

// AlphaAt returns the effective opacity at absolute time t.
func (l Layer) AlphaAt(t float64) float64 {
	local := t - l.Start
	if local < 0 || local > l.Duration {
		return 0
	}
	a := l.Opacity
	if l.FadeIn > 0 && local < l.FadeIn {
		a *= lerp(0, 1, local/l.FadeIn)
	}
	if l.FadeOut > 0 && local > l.Duration-l.FadeOut {
		a *= lerp(0, 1, (l.Duration-local)/l.FadeOut)
	}
	return clamp01(a)
}

// lerp performs linear interpolation between a and b
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// Stack is the append-only ordered layer list of one render pass.
type Stack struct {
	layers []Layer
}

// Append adds layers above everything already in the stack.
func (s *Stack) Append(ls ...Layer) {
	for _, l := range ls {
		l.Z = len(s.layers)
		s.layers = append(s.layers, l)
	}
}

func (s *Stack) Layers() []Layer {
	return s.layers
}

func (s *Stack) Len() int {
	return len(s.layers)
}

// Color is a solid full-frame source.
type Color struct {
	img *image.Uniform
	sz  image.Point
}

func NewColor(c color.Color, size image.Point) *Color {
	return &Color{img: image.NewUniform(c), sz: size}
}

func (c *Color) Size() image.Point { return c.sz }

func (c *Color) Frame(float64) image.Image {
	return c.img
}

// Still is a static image source.
type Still struct {
	Image image.Image
}

func (s *Still) Size() image.Point { return s.Image.Bounds().Size() }

func (s *Still) Frame(float64) image.Image {
	return s.Image
}
