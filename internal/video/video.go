// Package video renders an ordered layer stack and a mixed soundtrack into an H.264 file.
package video

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/Kondomino/kondo-movie-sub001/internal/ffmpeg"
	"github.com/Kondomino/kondo-movie-sub001/internal/layer"
	"github.com/Kondomino/kondo-movie-sub001/internal/system"
)

// Job все, что нужно бэкенду для одного файла.
type Job struct {
	Layers   []layer.Layer
	Audio    string // пусто: видео без звуковой дорожки
	FPS      int
	Size     image.Point
	Duration float64
	Output   string
	// Progress вызывается после каждого отданного кадра.
	Progress func(done, total int)
}

// Backend рендерит Job в файл. Ошибка бэкенда фатальна для задачи.
type Backend interface {
	Render(ctx context.Context, job Job) error
}

// Runner запускает ffmpeg.
type Runner interface {
	Run(ctx context.Context, opts ffmpeg.RunOptions) error
}

type EncoderSettings struct {
	Encoder      string
	Quality      int
	AudioCodec   string
	AudioBitrate string
}

// FFmpegBackend сводит кадры в Go и передает их в ffmpeg через stdin (rawvideo),
// исключая промежуточные файлы на диске.
type FFmpegBackend struct {
	runner   Runner
	settings EncoderSettings
	pool     *system.FramePool
	logger   zerolog.Logger
}

func NewFFmpegBackend(r Runner, settings EncoderSettings, logger zerolog.Logger) *FFmpegBackend {
	if settings.Encoder == "" {
		settings.Encoder = "libx264"
	}
	if settings.Quality <= 0 {
		settings.Quality = system.DefaultQuality(settings.Encoder)
	}
	if settings.AudioCodec == "" {
		settings.AudioCodec = "aac"
	}
	return &FFmpegBackend{
		runner:   r,
		settings: settings,
		pool:     system.NewFramePool(),
		logger:   logger.With().Str("component", "render").Logger(),
	}
}

func (b *FFmpegBackend) Render(ctx context.Context, job Job) error {
	if job.FPS <= 0 || job.Size.X <= 0 || job.Size.Y <= 0 {
		return fmt.Errorf("invalid render job: %dx%d @ %d fps", job.Size.X, job.Size.Y, job.FPS)
	}
	comp := NewCompositor(job.Layers, job.Size, job.FPS)
	total := comp.TotalFrames()
	if job.Duration > 0 {
		total = int(math.Round(job.Duration * float64(job.FPS)))
	}
	if total == 0 {
		return errors.New("nothing to render: empty timeline")
	}

	b.logger.Info().
		Int("frames", total).
		Int("layers", len(job.Layers)).
		Str("encoder", b.settings.Encoder).
		Bool("audio", job.Audio != "").
		Msg("rendering")

	return b.runner.Run(ctx, ffmpeg.RunOptions{
		Args: b.buildArgs(job, total),
		Feed: func(w io.Writer) error {
			return b.feed(ctx, w, comp, job, total)
		},
	})
}

func (b *FFmpegBackend) feed(ctx context.Context, w io.Writer, comp *Compositor, job Job, total int) error {
	bw := bufio.NewWriterSize(w, job.Size.X*job.Size.Y*4)
	for n := 0; n < total; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		frame := b.pool.Get(job.Size)
		comp.Compose(frame, n)
		err := writeRawRGBA(bw, frame)
		b.pool.Put(frame)
		if err != nil {
			return fmt.Errorf("write frame %d: %w", n, err)
		}
		if job.Progress != nil {
			job.Progress(n+1, total)
		}
	}
	return bw.Flush()
}

func (b *FFmpegBackend) buildArgs(job Job, total int) []string {
	args := []string{
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", job.Size.X, job.Size.Y),
		"-framerate", strconv.Itoa(job.FPS),
		"-i", "-",
	}
	if job.Audio != "" {
		args = append(args, "-i", job.Audio, "-map", "0:v", "-map", "1:a",
			"-c:a", b.settings.AudioCodec)
		if b.settings.AudioBitrate != "" {
			args = append(args, "-b:a", b.settings.AudioBitrate)
		}
	} else {
		args = append(args, "-an")
	}

	args = append(args,
		"-frames:v", strconv.Itoa(total),
		"-r", strconv.Itoa(job.FPS),
		"-pix_fmt", "yuv420p",
		"-c:v", b.settings.Encoder,
	)
	args = append(args, qualityArgs(b.settings.Encoder, b.settings.Quality)...)
	args = append(args, "-movflags", "+faststart", job.Output)
	return args
}

func qualityArgs(encoder string, quality int) []string {
	switch encoder {
	case "h264_videotoolbox":
		// VideoToolbox часто не поддерживает -q:v напрямую на всех версиях. Используем битрейт.
		bitrate := quality * 100 // кбит/с. 75 -> 7.5Мбит/с
		return []string{"-b:v", fmt.Sprintf("%dk", bitrate)}
	case "h264_nvenc":
		return []string{"-cq", strconv.Itoa(quality)}
	default: // libx264
		return []string{"-crf", strconv.Itoa(quality), "-preset", "medium"}
	}
}
