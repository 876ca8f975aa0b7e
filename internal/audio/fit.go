// Package audio fits synthesized speech into a duration window and mixes it
// with background music.
package audio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/Kondomino/kondo-movie-sub001/internal/config"
	"github.com/Kondomino/kondo-movie-sub001/internal/ffmpeg"
	"github.com/Kondomino/kondo-movie-sub001/internal/tts"
)

// atempo accepts factors in [0.5, 2.0] per filter instance.
const (
	minTempo = 0.5
	maxTempo = 2.0
)

// Runner executes ffmpeg and measures media durations.
type Runner interface {
	Run(ctx context.Context, opts ffmpeg.RunOptions) error
	Duration(ctx context.Context, path string) (float64, error)
}

// Window is the allowed voiceover length in seconds.
type Window struct {
	Min, Max float64
}

func (w Window) Contains(d float64) bool {
	return d >= w.Min && d <= w.Max
}

// VoiceoverWindow derives the window from the video length and narration offsets.
func VoiceoverWindow(video, startOffset, endOffset, variance float64) Window {
	upper := video - startOffset - endOffset
	return Window{Min: math.Max(0, upper-variance), Max: upper}
}

// Plan is the outcome of the fitting decision.
type Plan struct {
	Original float64
	Target   float64
	Factor   float64
	Expected float64
	Stretch  bool
	Clamped  bool
}

// PlanFit decides how to bring original into w with a speed factor bounded by [minFactor, maxFactor].
// When the bound binds, Expected may stay outside the window.
func PlanFit(original float64, w Window, minFactor, maxFactor float64) Plan {
	p := Plan{Original: original, Target: original, Factor: 1, Expected: original}
	if w.Contains(original) || original <= 0 {
		return p
	}

	p.Target = w.Min
	if original > w.Max {
		p.Target = w.Max
	}
	if p.Target <= 0 {
		return p
	}

	exact := original / p.Target
	lo := math.Max(minFactor, minTempo)
	hi := math.Min(maxFactor, maxTempo)
	p.Factor = math.Max(lo, math.Min(hi, exact))
	p.Clamped = p.Factor != exact
	p.Stretch = p.Factor != 1
	p.Expected = original / p.Factor
	return p
}

// Voiceover is a fitted, normalized narration file.
type Voiceover struct {
	Path     string
	Duration float64
	Plan     Plan
}

// Processor runs the audio state machine on a job workspace.
type Processor struct {
	runner Runner
	cfg    config.NarrationConfig
	logger zerolog.Logger
}

func NewProcessor(r Runner, cfg config.NarrationConfig, logger zerolog.Logger) *Processor {
	return &Processor{
		runner: r,
		cfg:    cfg,
		logger: logger.With().Str("component", "audio").Logger(),
	}
}

// ErrWindowTooShort means the video leaves no room for narration.
var ErrWindowTooShort = errors.New("video too short for voiceover")

// FitVoiceover decodes raw speech, stretches it into w when needed and normalizes it.
// Empty input means no voiceover and returns nil without error.
func (p *Processor) FitVoiceover(ctx context.Context, raw []byte, format tts.Format, w Window, dir string) (*Voiceover, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	if w.Max <= 0 {
		return nil, ErrWindowTooShort
	}

	rawPath := filepath.Join(dir, "speech."+rawExt(format))
	if err := os.WriteFile(rawPath, raw, 0644); err != nil {
		return nil, err
	}

	decoded := filepath.Join(dir, "speech_decoded.wav")
	if err := p.runner.Run(ctx, ffmpeg.RunOptions{Args: DecodeArgs(rawPath, decoded, format, p.cfg.SampleRate)}); err != nil {
		return nil, fmt.Errorf("decode speech: %w", err)
	}

	original, err := p.runner.Duration(ctx, decoded)
	if err != nil {
		return nil, fmt.Errorf("measure speech: %w", err)
	}

	plan := PlanFit(original, w, p.cfg.MinFactor, p.cfg.MaxFactor)
	log := p.logger.Info().
		Float64("original", original).
		Float64("min", w.Min).
		Float64("max", w.Max).
		Float64("factor", plan.Factor)
	if plan.Clamped {
		log.Float64("expected", plan.Expected).Msg("speed factor clamped, voiceover stays outside its window")
	} else {
		log.Msg("voiceover fit planned")
	}

	current := decoded
	if plan.Stretch {
		stretched := filepath.Join(dir, "speech_stretched.wav")
		if err := p.runner.Run(ctx, ffmpeg.RunOptions{Args: StretchArgs(current, stretched, plan.Factor)}); err != nil {
			return nil, fmt.Errorf("time-stretch speech: %w", err)
		}
		current = stretched
	}

	normalized := filepath.Join(dir, "voiceover.wav")
	if err := p.runner.Run(ctx, ffmpeg.RunOptions{Args: NormalizeArgs(current, normalized, p.cfg)}); err != nil {
		return nil, fmt.Errorf("normalize speech: %w", err)
	}

	final, err := p.runner.Duration(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("measure voiceover: %w", err)
	}
	return &Voiceover{Path: normalized, Duration: final, Plan: plan}, nil
}

func rawExt(f tts.Format) string {
	switch f {
	case tts.FormatPCM:
		return "pcm"
	case tts.FormatMP3:
		return "mp3"
	}
	return "wav"
}
