package effects

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/Kondomino/kondo-movie-sub001/internal/edl"
	"github.com/Kondomino/kondo-movie-sub001/internal/layer"
	"github.com/Kondomino/kondo-movie-sub001/internal/timeline"
)

func TestCropRect(t *testing.T) {
	tests := []struct {
		name   string
		src    image.Rectangle
		target image.Point
		want   image.Rectangle
	}{
		{"4:3 into 16:9 crops height", image.Rect(0, 0, 1600, 1200), image.Pt(1920, 1080), image.Rect(0, 150, 1600, 1050)},
		{"ultrawide into 16:9 crops width", image.Rect(0, 0, 2560, 1080), image.Pt(1920, 1080), image.Rect(320, 0, 2240, 1080)},
		{"landscape into portrait crops width", image.Rect(0, 0, 1920, 1080), image.Pt(1080, 1920), image.Rect(656, 0, 1264, 1080)},
		{"same ratio untouched", image.Rect(0, 0, 3840, 2160), image.Pt(1920, 1080), image.Rect(0, 0, 3840, 2160)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CropRect(tt.src, tt.target)
			if got != tt.want {
				t.Errorf("CropRect = %v, want %v", got, tt.want)
			}
			ratio := float64(got.Dx()) / float64(got.Dy())
			want := float64(tt.target.X) / float64(tt.target.Y)
			if math.Abs(ratio-want) > 0.01 {
				t.Errorf("crop ratio %f, target %f", ratio, want)
			}
		})
	}
}

func TestCropToFillExactSize(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 160, 120))
	out := CropToFill(src, image.Pt(64, 36))
	if out.Bounds().Size() != image.Pt(64, 36) {
		t.Errorf("CropToFill size = %v", out.Bounds().Size())
	}
}

func TestZoomGeometryEven(t *testing.T) {
	base := image.Pt(1921, 1081)
	for i := 0; i <= 100; i++ {
		s := float64(i) * 0.0037
		scaled, crop := ZoomGeometry(base, s)
		if scaled.X%2 != 0 || scaled.Y%2 != 0 {
			t.Fatalf("s=%f: odd scaled size %v", s, scaled)
		}
		if scaled.X < base.X || scaled.Y < base.Y {
			t.Fatalf("s=%f: scaled %v smaller than base", s, scaled)
		}
		if crop.Size() != base {
			t.Fatalf("s=%f: crop %v does not match base", s, crop)
		}
	}
}

func TestZoomSources(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 36))
	p := Params{Width: 64, Height: 36, FPS: 30, Duration: 2, ZoomRate: 0.05, InitialZoom: 0.2}

	for _, name := range []edl.ClipEffect{edl.EffectZoomIn, edl.EffectZoomOut} {
		eff, err := New(name)
		if err != nil {
			t.Fatal(err)
		}
		src := eff.Source(img, p)
		for _, ts := range []float64{0, 1, 2} {
			if got := src.Frame(ts).Bounds().Size(); got != image.Pt(64, 36) {
				t.Errorf("%s frame at %.0fs has size %v", name, ts, got)
			}
		}
	}

	out := ZoomOut{}.Source(img, Params{ZoomRate: 1, InitialZoom: 0.2}).(*zoomSource)
	if s := out.scale(10); s != 0 {
		t.Errorf("zoom out scale must clamp at 0, got %f", s)
	}
}

func TestPanOffsets(t *testing.T) {
	p := Params{Width: 40, Height: 20, FPS: 10, Duration: 3, PanSpeed: 2}
	if ext := PanExtension(p); ext != 60 {
		t.Fatalf("PanExtension = %d, want 60", ext)
	}
	if got := (Pan{}).CanvasSize(p); got != image.Pt(100, 20) {
		t.Fatalf("CanvasSize = %v", got)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, 100, 20))
	right := Pan{Direction: PanRight}.Source(canvas, p).(*panSource)
	left := Pan{Direction: PanLeft}.Source(canvas, p).(*panSource)

	if right.Offset(0) != 0 || right.Offset(3) != 60 || right.Offset(1.5) != 30 {
		t.Errorf("pan right offsets: %d %d %d", right.Offset(0), right.Offset(1.5), right.Offset(3))
	}
	if left.Offset(0) != 60 || left.Offset(3) != 0 {
		t.Errorf("pan left offsets: %d %d", left.Offset(0), left.Offset(3))
	}
	if right.Frame(1).Bounds().Size() != image.Pt(40, 20) {
		t.Error("pan frame must have the target size")
	}
}

func TestPanFrameContent(t *testing.T) {
	canvas := image.NewRGBA(image.Rect(0, 0, 20, 2))
	for x := 0; x < 20; x++ {
		canvas.Set(x, 0, color.RGBA{uint8(x), 0, 0, 255})
	}
	p := Params{Width: 10, Height: 2, FPS: 10, Duration: 1, PanSpeed: 1}
	src := Pan{Direction: PanRight}.Source(canvas, p)

	frame := src.Frame(0.5).(*image.RGBA)
	if r := frame.RGBAAt(0, 0).R; r != 5 {
		t.Errorf("window left edge shows column %d, want 5", r)
	}
}

func TestApplyTransition(t *testing.T) {
	clip := edl.Clip{
		ClipNumber:    3,
		TransitionIn:  &edl.Transition{Effect: edl.TransitionFade, Duration: timeline.Duration{Frames: 15}},
		TransitionOut: &edl.Transition{Effect: edl.TransitionCut, Duration: timeline.Duration{Seconds: 1}},
	}
	l, err := ApplyTransition(layer.Layer{Duration: 4, Opacity: 1}, clip, 30)
	if err != nil {
		t.Fatal(err)
	}
	if l.FadeIn != 0.5 || l.FadeOut != 0 {
		t.Errorf("FadeIn=%f FadeOut=%f", l.FadeIn, l.FadeOut)
	}

	clip.TransitionOut.Effect = "Dissolve"
	var trErr *edl.TransitionError
	if _, err := ApplyTransition(layer.Layer{Duration: 4}, clip, 30); !errors.As(err, &trErr) {
		t.Errorf("expected TransitionError, got %v", err)
	}
}

func TestTransitionFrame(t *testing.T) {
	cursor := timeline.Duration{Seconds: 2, Frames: 29}
	l, next := TransitionFrame(cursor, 30, image.Pt(8, 8))
	if next != (timeline.Duration{Seconds: 3}) {
		t.Errorf("cursor after transition frame = %v", next)
	}
	if l.Kind != layer.Blank || math.Abs(l.Duration-1.0/30) > 1e-12 {
		t.Errorf("unexpected transition layer %+v", l)
	}
	first, last := l.FrameSpan(30)
	if last-first != 1 {
		t.Errorf("transition frame spans %d frames", last-first)
	}
}
