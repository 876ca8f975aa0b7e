// Package tts holds the speech synthesis strategies. A disabled or failing
// provider yields an empty result, which callers treat as "no voiceover".
package tts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Format string

const (
	FormatPCM Format = "pcm"
	FormatWAV Format = "wav"
	FormatMP3 Format = "mp3"
)

// Synthesizer turns a script into encoded speech.
type Synthesizer interface {
	// Available reports whether the provider will produce audio at all.
	Available() bool
	Synthesize(ctx context.Context, script, voice string, format Format) (io.ReadCloser, error)
}

// Disabled never produces speech.
type Disabled struct{}

func (Disabled) Available() bool { return false }

func (Disabled) Synthesize(context.Context, string, string, Format) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(nil)), nil
}

// File replays a pre-recorded narration regardless of the script.
type File struct {
	Path string
}

func (f File) Available() bool { return f.Path != "" }

func (f File) Synthesize(ctx context.Context, _, _ string, _ Format) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.Open(f.Path)
}

// Command runs a local synthesizer that writes audio to stdout, e.g.
// espeak-ng --stdout. "{voice}" and "{script}" in Args are substituted.
type Command struct {
	Name string
	Args []string
}

func (c Command) Available() bool {
	if c.Name == "" {
		return false
	}
	_, err := exec.LookPath(c.Name)
	return err == nil
}

func (c Command) Synthesize(ctx context.Context, script, voice string, _ Format) (io.ReadCloser, error) {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		a = strings.ReplaceAll(a, "{voice}", voice)
		args[i] = strings.ReplaceAll(a, "{script}", script)
	}
	var out, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Name, args...)
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", c.Name, err, strings.TrimSpace(stderr.String()))
	}
	return io.NopCloser(&out), nil
}

// Speak synthesizes script with a timeout. Provider errors degrade to an
// empty result; only cancellation of ctx is returned.
func Speak(ctx context.Context, s Synthesizer, script, voice string, format Format, timeout time.Duration, logger zerolog.Logger) ([]byte, error) {
	if s == nil || !s.Available() || strings.TrimSpace(script) == "" {
		return nil, nil
	}

	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	rc, err := s.Synthesize(callCtx, script, voice, format)
	if err == nil {
		defer rc.Close()
		var data []byte
		data, err = io.ReadAll(rc)
		if err == nil {
			return data, nil
		}
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	logger.Warn().Err(err).Msg("speech synthesis failed, continuing without voiceover")
	return nil, nil
}
