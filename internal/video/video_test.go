package video

import (
	"context"
	"image"
	"image/color"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Kondomino/kondo-movie-sub001/internal/ffmpeg"
	"github.com/Kondomino/kondo-movie-sub001/internal/layer"
)

var red = color.RGBA{255, 0, 0, 255}
var blue = color.RGBA{0, 0, 255, 255}

func solid(name string, c color.Color, size image.Point, start, dur float64) layer.Layer {
	return layer.Layer{Name: name, Source: layer.NewColor(c, size), Start: start, Duration: dur, Opacity: 1}
}

func TestComposeOrderAndOpacity(t *testing.T) {
	size := image.Pt(8, 4)
	var s layer.Stack
	s.Append(solid("bg", red, size, 0, 1))
	fg := solid("fg", blue, image.Pt(2, 2), 0, 1)
	fg.Position = image.Pt(1, 1)
	s.Append(fg)
	half := solid("half", blue, image.Pt(2, 2), 0, 1)
	half.Position = image.Pt(5, 1)
	half.Opacity = 0.5
	s.Append(half)

	c := NewCompositor(s.Layers(), size, 10)
	dst := image.NewRGBA(image.Rectangle{Max: size})
	c.Compose(dst, 0)

	if got := dst.RGBAAt(0, 0); got != red {
		t.Errorf("background pixel = %v", got)
	}
	if got := dst.RGBAAt(1, 1); got != blue {
		t.Errorf("foreground pixel = %v", got)
	}
	got := dst.RGBAAt(5, 1)
	if got.R < 100 || got.B < 100 {
		t.Errorf("half-opacity pixel not blended: %v", got)
	}
}

func TestComposeZOrderWins(t *testing.T) {
	size := image.Pt(2, 2)
	// emitted out of order, Z decides
	top := solid("top", blue, size, 0, 1)
	top.Z = 1
	bottom := solid("bottom", red, size, 0, 1)
	bottom.Z = 0

	c := NewCompositor([]layer.Layer{top, bottom}, size, 10)
	dst := image.NewRGBA(image.Rectangle{Max: size})
	c.Compose(dst, 3)
	if got := dst.RGBAAt(0, 0); got != blue {
		t.Errorf("pixel = %v, want top layer", got)
	}
}

func TestComposeTimeSpan(t *testing.T) {
	size := image.Pt(2, 2)
	c := NewCompositor([]layer.Layer{
		solid("a", red, size, 0, 1),
		solid("b", blue, size, 1, 1),
	}, size, 10)

	if c.TotalFrames() != 20 {
		t.Fatalf("TotalFrames = %d", c.TotalFrames())
	}
	dst := image.NewRGBA(image.Rectangle{Max: size})

	c.Compose(dst, 9)
	if dst.RGBAAt(0, 0) != red {
		t.Errorf("frame 9 should show first clip")
	}
	c.Compose(dst, 10)
	if dst.RGBAAt(0, 0) != blue {
		t.Errorf("frame 10 should show second clip")
	}
	c.Compose(dst, 25)
	if got := dst.RGBAAt(0, 0); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("past the end should be black, got %v", got)
	}
}

func TestComposeFadeIn(t *testing.T) {
	size := image.Pt(2, 2)
	l := solid("fade", color.White, size, 0, 2)
	l.FadeIn = 1
	c := NewCompositor([]layer.Layer{l}, size, 10)
	dst := image.NewRGBA(image.Rectangle{Max: size})

	c.Compose(dst, 0)
	if got := dst.RGBAAt(0, 0); got.R != 0 {
		t.Errorf("frame 0 of fade-in should be black, got %v", got)
	}
	c.Compose(dst, 5)
	if got := dst.RGBAAt(0, 0); got.R < 100 || got.R > 155 {
		t.Errorf("mid fade = %v", got)
	}
	c.Compose(dst, 15)
	if got := dst.RGBAAt(0, 0); got.R != 255 {
		t.Errorf("after fade = %v", got)
	}
}

type feedRunner struct {
	args  []string
	bytes int
}

func (r *feedRunner) Run(_ context.Context, opts ffmpeg.RunOptions) error {
	r.args = opts.Args
	if opts.Feed == nil {
		return nil
	}
	pr, pw := io.Pipe()
	done := make(chan int64)
	go func() {
		n, _ := io.Copy(io.Discard, pr)
		done <- n
	}()
	err := opts.Feed(pw)
	pw.Close()
	r.bytes = int(<-done)
	return err
}

func TestRenderFeedsEveryFrame(t *testing.T) {
	size := image.Pt(4, 2)
	r := &feedRunner{}
	b := NewFFmpegBackend(r, EncoderSettings{Encoder: "libx264", AudioCodec: "aac", AudioBitrate: "192k"}, zerolog.Nop())

	var calls, lastTotal int
	err := b.Render(context.Background(), Job{
		Layers:   []layer.Layer{solid("bg", red, size, 0, 1)},
		Audio:    "mix.wav",
		FPS:      10,
		Size:     size,
		Duration: 1,
		Output:   "out.mp4",
		Progress: func(done, total int) { calls, lastTotal = done, total },
	})
	if err != nil {
		t.Fatal(err)
	}
	if r.bytes != 10*4*2*4 {
		t.Errorf("fed %d bytes", r.bytes)
	}
	if calls != 10 || lastTotal != 10 {
		t.Errorf("progress = %d/%d", calls, lastTotal)
	}

	all := strings.Join(r.args, " ")
	for _, want := range []string{"-f rawvideo", "-pixel_format rgba", "-video_size 4x2", "-i mix.wav", "-map 1:a", "-c:a aac", "-b:a 192k", "-frames:v 10", "-crf 20", "-preset medium"} {
		if !strings.Contains(all, want) {
			t.Errorf("args missing %q: %s", want, all)
		}
	}
	if r.args[len(r.args)-1] != "out.mp4" {
		t.Error("output must be last")
	}
}

func TestRenderSilent(t *testing.T) {
	r := &feedRunner{}
	b := NewFFmpegBackend(r, EncoderSettings{}, zerolog.Nop())
	size := image.Pt(2, 2)
	if err := b.Render(context.Background(), Job{
		Layers: []layer.Layer{solid("bg", red, size, 0, 0.5)},
		FPS:    10, Size: size, Output: "out.mp4",
	}); err != nil {
		t.Fatal(err)
	}
	all := strings.Join(r.args, " ")
	if !strings.Contains(all, "-an") || strings.Contains(all, "1:a") {
		t.Errorf("silent render args: %s", all)
	}
}

func TestRenderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	size := image.Pt(2, 2)
	b := NewFFmpegBackend(&feedRunner{}, EncoderSettings{}, zerolog.Nop())
	err := b.Render(ctx, Job{
		Layers:   []layer.Layer{solid("bg", red, size, 0, 10)},
		FPS:      10,
		Size:     size,
		Output:   "out.mp4",
		Progress: func(done, _ int) {
			if done == 3 {
				cancel()
			}
		},
	})
	if err != context.Canceled {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestQualityArgs(t *testing.T) {
	tests := []struct {
		encoder string
		quality int
		want    string
	}{
		{"h264_videotoolbox", 75, "-b:v 7500k"},
		{"h264_nvenc", 23, "-cq 23"},
		{"libx264", 18, "-crf 18 -preset medium"},
	}
	for _, tt := range tests {
		if got := strings.Join(qualityArgs(tt.encoder, tt.quality), " "); got != tt.want {
			t.Errorf("qualityArgs(%s) = %s, want %s", tt.encoder, got, tt.want)
		}
	}
}

func TestRenderEmptyTimeline(t *testing.T) {
	b := NewFFmpegBackend(&feedRunner{}, EncoderSettings{}, zerolog.Nop())
	if err := b.Render(context.Background(), Job{FPS: 30, Size: image.Pt(2, 2)}); err == nil {
		t.Fatal("expected error for empty timeline")
	}
}
