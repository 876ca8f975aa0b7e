package engine

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Kondomino/kondo-movie-sub001/internal/assets"
	"github.com/Kondomino/kondo-movie-sub001/internal/config"
	"github.com/Kondomino/kondo-movie-sub001/internal/edl"
	"github.com/Kondomino/kondo-movie-sub001/internal/ffmpeg"
	"github.com/Kondomino/kondo-movie-sub001/internal/scene"
	"github.com/Kondomino/kondo-movie-sub001/internal/timeline"
	"github.com/Kondomino/kondo-movie-sub001/internal/tts"
	"github.com/Kondomino/kondo-movie-sub001/internal/video"
)

type fakeStill struct {
	name string
	w, h int
}

func (s fakeStill) Name() string { return s.name }

func (s fakeStill) Render(int) (image.Image, error) {
	img := image.NewRGBA(image.Rect(0, 0, s.w, s.h))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	return img, nil
}

type fakeRunner struct {
	mu        sync.Mutex
	calls     []string
	durations map[string]float64
	onRun     func()
}

func (f *fakeRunner) Run(ctx context.Context, opts ffmpeg.RunOptions) error {
	f.mu.Lock()
	f.calls = append(f.calls, strings.Join(opts.Args, " "))
	f.mu.Unlock()
	if f.onRun != nil {
		f.onRun()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.WriteFile(opts.Args[len(opts.Args)-1], []byte("RIFF"), 0644)
}

func (f *fakeRunner) Duration(_ context.Context, path string) (float64, error) {
	if d, ok := f.durations[filepath.Base(path)]; ok {
		return d, nil
	}
	return 0, errors.New("no duration")
}

type fakeBackend struct {
	job   video.Job
	calls int
	// cancel, when set, is called mid-render and the render waits for it.
	cancel context.CancelFunc
}

func (b *fakeBackend) Render(ctx context.Context, job video.Job) error {
	b.calls++
	b.job = job
	if b.cancel != nil {
		if err := os.WriteFile(job.Output, []byte("partial"), 0644); err != nil {
			return err
		}
		b.cancel()
		<-ctx.Done()
		return ctx.Err()
	}
	return os.WriteFile(job.Output, []byte("mp4"), 0644)
}

type fixture struct {
	cfg     *config.Config
	tmp     string
	out     string
	runner  *fakeRunner
	backend *fakeBackend
	speech  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.TempDir = filepath.Join(root, "tmp")
	cfg.OutputDir = filepath.Join(root, "out")
	cfg.Storage.LocalDir = filepath.Join(root, "assets")
	cfg.Video.Landscape = config.Resolution{Width: 320, Height: 180}
	cfg.Titles.Landscape = config.Margins{H: 20, V: 20}
	cfg.Workers = 2

	speech := filepath.Join(root, "speech.pcm")
	if err := os.WriteFile(speech, []byte{1, 2, 3, 4}, 0644); err != nil {
		t.Fatal(err)
	}
	return &fixture{
		cfg: cfg,
		tmp: cfg.TempDir,
		out: cfg.OutputDir,
		runner: &fakeRunner{durations: map[string]float64{
			"speech_decoded.wav": 16,
			"voiceover.wav":      16,
		}},
		backend: &fakeBackend{},
		speech:  speech,
	}
}

func (f *fixture) assembler() *Assembler {
	a := New(f.cfg, Deps{
		Fetcher: &assets.LocalStore{Root: f.cfg.Storage.LocalDir},
		Runner:  f.runner,
		Backend: f.backend,
		Speech:  tts.File{Path: f.speech},
		Logger:  zerolog.Nop(),
	})
	a.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return a
}

func sampleEDL() *edl.EDL {
	return &edl.EDL{
		Name: "listing",
		FPS:  30,
		Clips: []edl.Clip{
			{ClipNumber: 1, ClipType: edl.ClipImage, Duration: timeline.Duration{Seconds: 10}},
			{ClipNumber: 2, ClipType: edl.ClipPresents, Duration: timeline.Duration{Seconds: 2}},
			{ClipNumber: 3, ClipType: edl.ClipImage, Duration: timeline.Duration{Seconds: 10}, ClipEffect: edl.EffectZoomIn},
		},
	}
}

func sampleMedia() []Still {
	return []Still{
		fakeStill{name: "front.jpg", w: 64, h: 48},
		fakeStill{name: "kitchen.jpg", w: 48, h: 64},
		fakeStill{name: "unused.jpg", w: 64, h: 48},
	}
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestAssembleSilent(t *testing.T) {
	f := newFixture(t)
	a := f.assembler()
	var states []State
	a.OnState = func(s State) { states = append(states, s) }

	res, err := a.Assemble(context.Background(), sampleEDL(), sampleMedia(), nil)
	if err != nil {
		t.Fatal(err)
	}

	if f.backend.job.Audio != "" {
		t.Errorf("expected no audio track, got %q", f.backend.job.Audio)
	}
	if res.VoiceoverFile != "" || res.CaptionsFile != "" {
		t.Errorf("unexpected narration outputs %+v", res)
	}
	// presents is skipped without the agent flag
	if res.Duration != 20 {
		t.Errorf("duration = %f, want 20", res.Duration)
	}
	if want := []string{"front.jpg", "kitchen.jpg"}; !reflect.DeepEqual(res.UsedMedia, want) {
		t.Errorf("used media = %v, want %v", res.UsedMedia, want)
	}
	if res.OutputFile != filepath.Join(f.out, "listing_20260301_120000.mp4") {
		t.Errorf("output = %s", res.OutputFile)
	}
	if _, err := os.Stat(res.OutputFile); err != nil {
		t.Errorf("output missing: %v", err)
	}
	want := []State{StateBuilding, StateFittingAudio, StateMixing, StateHandoff, StateDone}
	if !reflect.DeepEqual(states, want) {
		t.Errorf("states = %v, want %v", states, want)
	}
	if left := dirEntries(t, f.tmp); len(left) != 0 {
		t.Errorf("temporary files left behind: %v", left)
	}
}

func TestAssembleWithNarration(t *testing.T) {
	f := newFixture(t)
	movie := &config.Movie{
		AgentPresents: true,
		Captions:      true,
		Narration:     config.Narration{Enabled: true, Script: "Welcome home. Bright rooms and a quiet garden."},
	}

	res, err := f.assembler().Assemble(context.Background(), sampleEDL(), sampleMedia(), movie)
	if err != nil {
		t.Fatal(err)
	}
	if res.Duration != 22 {
		t.Errorf("duration = %f, want 22", res.Duration)
	}
	if f.backend.job.Audio == "" {
		t.Error("expected a mixed audio track")
	}
	for _, p := range []string{res.VoiceoverFile, res.CaptionsFile} {
		if p == "" || filepath.Dir(p) != f.out {
			t.Errorf("narration output %q not in output dir", p)
			continue
		}
		if _, err := os.Stat(p); err != nil {
			t.Errorf("missing %s: %v", p, err)
		}
	}

	var captions int
	for _, l := range f.backend.job.Layers {
		if strings.HasPrefix(l.Name, "caption-") {
			captions++
			if l.Start < f.cfg.Narration.StartOffset {
				t.Errorf("caption %s starts at %f before the voiceover", l.Name, l.Start)
			}
		}
	}
	if captions == 0 {
		t.Error("no caption layers reached the backend")
	}
	if left := dirEntries(t, f.tmp); len(left) != 0 {
		t.Errorf("temporary files left behind: %v", left)
	}
}

func TestAssembleCancelledLeavesNoFiles(t *testing.T) {
	movie := &config.Movie{Narration: config.Narration{Enabled: true, Script: "Welcome home."}}

	t.Run("during render", func(t *testing.T) {
		f := newFixture(t)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		f.backend.cancel = cancel

		_, err := f.assembler().Assemble(ctx, sampleEDL(), sampleMedia(), movie)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
		if left := dirEntries(t, f.tmp); len(left) != 0 {
			t.Errorf("temporary files left behind: %v", left)
		}
		if left := dirEntries(t, f.out); len(left) != 0 {
			t.Errorf("partial outputs left behind: %v", left)
		}
	})

	t.Run("during audio", func(t *testing.T) {
		f := newFixture(t)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		f.runner.onRun = cancel

		_, err := f.assembler().Assemble(ctx, sampleEDL(), sampleMedia(), movie)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
		if f.backend.calls != 0 {
			t.Error("render must not start after cancellation")
		}
		if left := dirEntries(t, f.tmp); len(left) != 0 {
			t.Errorf("temporary files left behind: %v", left)
		}
	})
}

func TestAssembleFailsFast(t *testing.T) {
	t.Run("invalid edl", func(t *testing.T) {
		f := newFixture(t)
		e := sampleEDL()
		e.Clips[2].ClipNumber = 4
		_, err := f.assembler().Assemble(context.Background(), e, sampleMedia(), nil)
		var seq *edl.SequenceError
		if !errors.As(err, &seq) {
			t.Fatalf("err = %v, want SequenceError", err)
		}
		if left := dirEntries(t, f.tmp); len(left) != 0 {
			t.Errorf("workspace created for an invalid edl: %v", left)
		}
	})

	t.Run("not enough media", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.assembler().Assemble(context.Background(), sampleEDL(), sampleMedia()[:1], nil)
		if !errors.Is(err, scene.ErrNotEnoughMedia) {
			t.Fatalf("err = %v, want ErrNotEnoughMedia", err)
		}
		if left := dirEntries(t, f.tmp); len(left) != 0 {
			t.Errorf("temporary files left behind: %v", left)
		}
	})
}

func TestPrepareMediaCropsToCanvas(t *testing.T) {
	cfg := config.Default()
	size := image.Pt(320, 180)
	e := &edl.EDL{FPS: 30, Clips: []edl.Clip{
		{ClipNumber: 1, ClipType: edl.ClipImage, Duration: timeline.Duration{Seconds: 1}},
		{ClipNumber: 2, ClipType: edl.ClipImage, Duration: timeline.Duration{Seconds: 1}, ClipEffect: edl.EffectPanRight},
	}}
	slots, err := scene.PlanMedia(e, nil, cfg, size, 2)
	if err != nil {
		t.Fatal(err)
	}
	out, err := prepareMedia(context.Background(), slots, sampleMedia(), 72, 4)
	if err != nil {
		t.Fatal(err)
	}
	if got := out[1].Bounds().Size(); got != size {
		t.Errorf("static clip canvas %v, want %v", got, size)
	}
	if got := out[2].Bounds().Size(); got != slots[1].Canvas() {
		t.Errorf("pan clip canvas %v, want %v", got, slots[1].Canvas())
	}
	if c := out[1].At(0, 0).(color.RGBA); c.A == 0 {
		t.Error("prepared still is empty")
	}
}

func TestStorageKey(t *testing.T) {
	tests := map[string]string{
		"s3://bucket/music/calm.mp3": "music/calm.mp3",
		"music/calm.mp3":             "music/calm.mp3",
		"s3://bucket":                "bucket",
	}
	for in, want := range tests {
		if got := storageKey(in); got != want {
			t.Errorf("storageKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOutputName(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if got := outputName("12 Oak/St", at); got != "12_Oak_St_20260102_030405" {
		t.Errorf("outputName = %q", got)
	}
	if got := outputName("", at); got != "movie_20260102_030405" {
		t.Errorf("outputName = %q", got)
	}
}
