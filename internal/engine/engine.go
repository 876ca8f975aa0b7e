// Package engine собирает готовый ролик из EDL: сцены, озвучка, микширование, рендер.
package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Kondomino/kondo-movie-sub001/internal/assets"
	"github.com/Kondomino/kondo-movie-sub001/internal/audio"
	"github.com/Kondomino/kondo-movie-sub001/internal/captions"
	"github.com/Kondomino/kondo-movie-sub001/internal/config"
	"github.com/Kondomino/kondo-movie-sub001/internal/edl"
	"github.com/Kondomino/kondo-movie-sub001/internal/layer"
	"github.com/Kondomino/kondo-movie-sub001/internal/scene"
	"github.com/Kondomino/kondo-movie-sub001/internal/text"
	"github.com/Kondomino/kondo-movie-sub001/internal/tts"
	"github.com/Kondomino/kondo-movie-sub001/internal/video"
)

// State этап конвейера. Переходы только вперед.
type State int

const (
	StateBuilding State = iota
	StateFittingAudio
	StateMixing
	StateHandoff
	StateDone
)

func (s State) String() string {
	switch s {
	case StateBuilding:
		return "building"
	case StateFittingAudio:
		return "fitting-audio"
	case StateMixing:
		return "mixing"
	case StateHandoff:
		return "handoff"
	case StateDone:
		return "done"
	}
	return "unknown"
}

// Still один элемент упорядоченного списка медиа (фото или страница PDF).
type Still interface {
	Name() string
	Render(dpi int) (image.Image, error)
}

// Deps внешние исполнители одной сборки.
type Deps struct {
	Fetcher  assets.Fetcher
	Runner   audio.Runner
	Backend  video.Backend
	Speech   tts.Synthesizer
	Splitter text.Splitter
	// SpeechFormat формат, который отдает Speech. По умолчанию сырой PCM.
	SpeechFormat tts.Format
	Logger       zerolog.Logger
}

// Result итог сборки. Пустые пути означают, что файл не создавался.
type Result struct {
	OutputFile    string
	VoiceoverFile string
	CaptionsFile  string
	UsedMedia     []string
	Duration      float64
	Stats         Stats
}

// Assembler собирает ролики. Одновременные вызовы Assemble не делят изменяемого состояния.
type Assembler struct {
	cfg  *config.Config
	deps Deps
	proc *audio.Processor
	// Progress получает номер отданного кадра и их общее число.
	Progress func(done, total int)
	// OnState вызывается при входе в каждый этап.
	OnState func(State)

	logger zerolog.Logger
	now    func() time.Time
}

func New(cfg *config.Config, deps Deps) *Assembler {
	if deps.SpeechFormat == "" {
		deps.SpeechFormat = tts.FormatPCM
	}
	if deps.Speech == nil {
		deps.Speech = tts.Disabled{}
	}
	logger := deps.Logger.With().Str("component", "assembler").Logger()
	return &Assembler{
		cfg:    cfg,
		deps:   deps,
		proc:   audio.NewProcessor(deps.Runner, cfg.Narration, deps.Logger),
		logger: logger,
		now:    time.Now,
	}
}

// job состояние одной сборки. Живет только внутри Assemble.
type job struct {
	a      *Assembler
	edl    *edl.EDL
	movie  *config.Movie
	logger zerolog.Logger

	work  string
	cache *assets.Cache
	rc    *scene.Context
	stack *layer.Stack
	total float64
	state State

	voOffset  float64
	voiceover *audio.Voiceover
	cues      []captions.Cue
	mixed     string
	used      []string
	stats     Stats
}

func (j *job) enter(s State) error {
	if s < j.state {
		return fmt.Errorf("illegal state transition %s -> %s", j.state, s)
	}
	j.state = s
	j.logger.Info().Str("state", s.String()).Msg("state")
	if j.a.OnState != nil {
		j.a.OnState(s)
	}
	return nil
}

// Assemble собирает ролик по EDL из упорядоченных медиа. Все временные файлы
// удаляются при любом исходе, в том числе при отмене ctx.
func (a *Assembler) Assemble(ctx context.Context, e *edl.EDL, media []Still, movie *config.Movie) (*Result, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if movie == nil {
		movie = &config.Movie{}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := a.now()
	j := &job{
		a:      a,
		edl:    e,
		movie:  movie,
		logger: a.logger.With().Str("edl", e.Name).Logger(),
	}

	var err error
	if a.cfg.TempDir != "" {
		if err := os.MkdirAll(a.cfg.TempDir, 0755); err != nil {
			return nil, err
		}
	}
	j.work, err = os.MkdirTemp(a.cfg.TempDir, "moviemaker_")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(j.work); rmErr != nil {
			j.logger.Warn().Err(rmErr).Str("dir", j.work).Msg("workspace cleanup failed")
		}
	}()

	if err := os.MkdirAll(a.cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	base := filepath.Join(a.cfg.OutputDir, outputName(e.Name, start))
	res := &Result{OutputFile: base + ".mp4"}

	if err := j.build(ctx, media); err != nil {
		return nil, err
	}
	if err := j.fitAudio(ctx); err != nil {
		return nil, err
	}
	if err := j.mix(ctx); err != nil {
		return nil, err
	}
	if err := j.handoff(ctx, res.OutputFile); err != nil {
		os.Remove(res.OutputFile)
		return nil, err
	}

	if err := j.publish(base, res); err != nil {
		return nil, err
	}
	if err := j.enter(StateDone); err != nil {
		return nil, err
	}

	j.stats.Total = a.now().Sub(start)
	j.stats.Frames = int(j.total*float64(e.FPS) + 0.5)
	res.UsedMedia = j.used
	res.Duration = j.total
	res.Stats = j.stats

	j.logger.Info().
		Str("output", res.OutputFile).
		Float64("duration", res.Duration).
		Dur("took", j.stats.Total).
		Msg("movie assembled")
	return res, nil
}

// build раскладывает клипы по таймлайну и добавляет водяной знак.
func (j *job) build(ctx context.Context, media []Still) error {
	if err := j.enter(StateBuilding); err != nil {
		return err
	}
	t0 := j.a.now()
	cfg := j.a.cfg
	fps := j.edl.FPS

	o := j.edl.Orientation
	if j.movie.Orientation != "" {
		o = j.movie.Orientation
	}
	size := cfg.Resolution(o)

	j.cache = assets.NewCache(j.a.deps.Fetcher, filepath.Join(j.work, "assets"), cfg.Storage.Timeout, j.a.deps.Logger)
	if err := j.cache.Prefetch(ctx, j.assetKeys()...); err != nil {
		return err
	}

	slots, err := scene.PlanMedia(j.edl, j.movie, cfg, size, len(media))
	if err != nil {
		return err
	}
	prepared, err := prepareMedia(ctx, slots, media, cfg.Image.DPI, cfg.Workers)
	if err != nil {
		return err
	}
	for _, s := range slots {
		j.used = append(j.used, media[s.Index].Name())
	}
	j.stats.Prepare = j.a.now().Sub(t0)

	j.rc = &scene.Context{
		Config:   cfg,
		Movie:    j.movie,
		FPS:      fps,
		Size:     size,
		Fonts:    assets.NewFonts(j.cache, j.a.deps.Logger),
		Assets:   j.cache,
		Splitter: j.a.deps.Splitter,
		Media:    prepared,
		Logger:   j.a.deps.Logger.With().Str("component", "scene").Logger(),
	}
	stack, cursor, err := scene.Timeline(ctx, j.edl, j.rc)
	if err != nil {
		return err
	}
	j.stack = stack
	j.total = cursor.ToSeconds(fps)

	if j.movie.Watermark {
		stack.Append(scene.Watermark(ctx, j.rc, j.total)...)
	}
	j.stats.Build = j.a.now().Sub(t0)
	j.logger.Info().
		Int("layers", stack.Len()).
		Str("duration", cursor.String()).
		Int("media", len(slots)).
		Msg("timeline built")
	return nil
}

// assetKeys все ключи хранилища, которые могут понадобиться сценам.
func (j *job) assetKeys() []string {
	cfg := j.a.cfg
	keys := []string{
		cfg.Fonts.Title, cfg.Fonts.Subtitle, cfg.Fonts.Presents,
		cfg.Fonts.AgentName, cfg.Fonts.Overlay, cfg.Fonts.Captions,
	}
	if j.movie.Watermark {
		keys = append(keys, cfg.Watermark.Asset)
	}
	if user := j.movie.UserID; user != "" {
		for _, f := range []string{"AgentName", "Address", "PropertyLocation", "OccasionTitle", "OccasionSubtitle", "Title", "Presents"} {
			keys = append(keys, user+"/fonts/"+f+".ttf")
		}
		keys = append(keys, user+"/logos/agent_white.png", user+"/logos/brokerage_white.png")
	}
	return keys
}

// fitAudio синтезирует озвучку и вписывает ее в окно длительности.
func (j *job) fitAudio(ctx context.Context) error {
	if err := j.enter(StateFittingAudio); err != nil {
		return err
	}
	t0 := j.a.now()
	defer func() { j.stats.Audio += j.a.now().Sub(t0) }()

	cfg := j.a.cfg
	j.voOffset = cfg.Narration.StartOffset
	if j.edl.VoiceoverOffset != nil {
		j.voOffset = float64(*j.edl.VoiceoverOffset)
	}

	n := j.movie.Narration
	script := strings.TrimSpace(n.Script)
	if !n.Enabled || script == "" {
		j.logger.Debug().Msg("narration disabled")
		return nil
	}
	voice := n.Voice
	if voice == "" {
		voice = cfg.Narration.Voice
	}

	raw, err := tts.Speak(ctx, j.a.deps.Speech, script, voice, j.a.deps.SpeechFormat, cfg.Narration.Timeout, j.logger)
	if err != nil {
		return err
	}
	w := audio.VoiceoverWindow(j.total, j.voOffset, cfg.Narration.EndOffset, cfg.Narration.DurationVariance)
	vo, err := j.a.proc.FitVoiceover(ctx, raw, j.a.deps.SpeechFormat, w, j.work)
	switch {
	case errors.Is(err, audio.ErrWindowTooShort):
		j.logger.Warn().Float64("video", j.total).Msg("video too short for narration, skipping voiceover")
		return nil
	case err != nil:
		return err
	case vo == nil:
		return nil
	}
	j.voiceover = vo

	if j.movie.Captions {
		j.cues = captions.Shift(captions.Build(script, vo.Duration, cfg.Captions.MaxChars), j.voOffset)
		j.stack.Append(scene.CaptionLayers(ctx, j.rc, j.cues)...)
	}
	return nil
}

// mix сводит музыку и озвучку. Без источников звука дорожки нет.
func (j *job) mix(ctx context.Context) error {
	if err := j.enter(StateMixing); err != nil {
		return err
	}
	t0 := j.a.now()
	defer func() { j.stats.Audio += j.a.now().Sub(t0) }()

	cfg := j.a.cfg
	m := audio.Mix{Video: j.total, FadeOut: cfg.Music.FadeOut}
	if path := j.musicPath(ctx); path != "" {
		m.Music = &audio.Track{
			Path:   path,
			Volume: audio.MusicVolume(cfg.Music, j.voiceover != nil),
			Offset: cfg.Music.Offset,
			Loop:   cfg.Music.Loop,
		}
	}
	if j.voiceover != nil {
		m.Voiceover = &audio.Track{
			Path:     j.voiceover.Path,
			Volume:   cfg.Narration.Volume,
			Offset:   j.voOffset,
			Duration: j.voiceover.Duration,
		}
	}

	out, err := j.a.proc.Mix(ctx, m, filepath.Join(j.work, "mix.wav"))
	if err != nil {
		return err
	}
	j.mixed = out
	return nil
}

// musicPath находит саундтрек: локальный файл или ключ хранилища. Ошибка не фатальна.
func (j *job) musicPath(ctx context.Context) string {
	if !j.movie.Music.Enabled {
		return ""
	}
	track := j.movie.Music.Track
	if track == "" {
		track = j.edl.Soundtrack
	}
	if track == "" {
		return ""
	}
	if _, err := os.Stat(track); err == nil {
		return track
	}
	path, err := j.cache.Get(ctx, storageKey(track))
	if err != nil {
		j.logger.Warn().Err(err).Str("track", track).Msg("soundtrack unavailable, continuing without music")
		return ""
	}
	return path
}

// storageKey убирает схему и бакет из URI вида s3://bucket/key.
func storageKey(uri string) string {
	if i := strings.Index(uri, "://"); i >= 0 {
		rest := uri[i+3:]
		if k := strings.IndexByte(rest, '/'); k >= 0 {
			return rest[k+1:]
		}
		return rest
	}
	return uri
}

func (j *job) handoff(ctx context.Context, out string) error {
	if err := j.enter(StateHandoff); err != nil {
		return err
	}
	t0 := j.a.now()
	err := j.a.deps.Backend.Render(ctx, video.Job{
		Layers:   j.stack.Layers(),
		Audio:    j.mixed,
		FPS:      j.edl.FPS,
		Size:     j.rc.Size,
		Duration: j.total,
		Output:   out,
		Progress: j.a.Progress,
	})
	j.stats.Render = j.a.now().Sub(t0)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

// publish переносит озвучку и субтитры из рабочего каталога рядом с роликом.
func (j *job) publish(base string, res *Result) error {
	if j.voiceover != nil {
		dst := base + "_voiceover.wav"
		if err := copyFile(j.voiceover.Path, dst); err != nil {
			return fmt.Errorf("save voiceover: %w", err)
		}
		res.VoiceoverFile = dst
	}
	if len(j.cues) > 0 {
		dst := base + "_captions.srt"
		if err := captions.WriteFile(dst, j.cues); err != nil {
			return fmt.Errorf("save captions: %w", err)
		}
		res.CaptionsFile = dst
	}
	return nil
}

func outputName(name string, at time.Time) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "movie"
	}
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, name)
	return fmt.Sprintf("%s_%s", name, at.Format("20060102_150405"))
}
