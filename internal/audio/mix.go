package audio

import (
	"context"
	"fmt"
	"math"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/Kondomino/kondo-movie-sub001/internal/config"
	ffrun "github.com/Kondomino/kondo-movie-sub001/internal/ffmpeg"
)

// Track is one audio source placed on the video timeline.
type Track struct {
	Path   string
	Volume float64
	Offset float64
	Loop   bool
	// Duration of the source in seconds, 0 when unknown.
	Duration float64
}

// Mix describes the final soundtrack of a video.
type Mix struct {
	Video     float64
	FadeOut   float64
	Music     *Track
	Voiceover *Track
}

func (m Mix) Empty() bool {
	return m.Music == nil && m.Voiceover == nil
}

// MusicVolume picks the music ratio depending on whether narration is present.
func MusicVolume(cfg config.MusicConfig, withVoiceover bool) float64 {
	if withVoiceover {
		return cfg.VolumeWithVoiceover
	}
	return cfg.VolumeWithoutVoiceover
}

// playLength is how long a track sounds inside the video.
func playLength(t *Track, video float64) float64 {
	room := math.Max(0, video-t.Offset)
	if t.Loop || t.Duration <= 0 {
		return room
	}
	return math.Min(t.Duration, room)
}

// MixArgs builds the ffmpeg invocation for m. It returns nil when m has no tracks.
func MixArgs(m Mix, out string) []string {
	if m.Empty() || m.Video <= 0 {
		return nil
	}

	var streams []*ffmpeg.Stream
	if m.Music != nil {
		if s := musicStream(m.Music, m.Video, m.FadeOut); s != nil {
			streams = append(streams, s)
		}
	}
	if m.Voiceover != nil {
		if s := voiceStream(m.Voiceover, m.Video); s != nil {
			streams = append(streams, s)
		}
	}
	if len(streams) == 0 {
		return nil
	}

	mixed := streams[0]
	if len(streams) > 1 {
		mixed = ffmpeg.Filter(streams, "amix", ffmpeg.Args{}, ffmpeg.KwArgs{
			"inputs":    len(streams),
			"duration":  "longest",
			"normalize": 0,
		})
	}
	// pad then cut so the soundtrack is exactly as long as the video
	mixed = mixed.
		Filter("apad", ffmpeg.Args{}, ffmpeg.KwArgs{"whole_dur": fmt.Sprintf("%.3f", m.Video)}).
		Filter("atrim", ffmpeg.Args{}, ffmpeg.KwArgs{"duration": fmt.Sprintf("%.3f", m.Video)})

	return mixed.Output(out, ffmpeg.KwArgs{"c:a": "pcm_s16le", "ar": 48000, "ac": 2}).GetArgs()
}

func musicStream(t *Track, video, fade float64) *ffmpeg.Stream {
	play := playLength(t, video)
	if play <= 0 {
		return nil
	}
	inKw := ffmpeg.KwArgs{}
	if t.Loop {
		inKw["stream_loop"] = -1
	}
	s := ffmpeg.Input(t.Path, inKw).Audio().
		Filter("atrim", ffmpeg.Args{}, ffmpeg.KwArgs{"duration": fmt.Sprintf("%.3f", play)}).
		Filter("volume", ffmpeg.Args{fmt.Sprintf("%.3f", t.Volume)})
	if fade > 0 {
		fade = math.Min(fade, play)
		s = s.Filter("afade", ffmpeg.Args{}, ffmpeg.KwArgs{
			"t":  "out",
			"st": fmt.Sprintf("%.3f", play-fade),
			"d":  fmt.Sprintf("%.3f", fade),
		})
	}
	return delay(s, t.Offset)
}

func voiceStream(t *Track, video float64) *ffmpeg.Stream {
	play := playLength(t, video)
	if play <= 0 {
		return nil
	}
	s := ffmpeg.Input(t.Path).Audio().
		Filter("atrim", ffmpeg.Args{}, ffmpeg.KwArgs{"duration": fmt.Sprintf("%.3f", play)}).
		Filter("volume", ffmpeg.Args{fmt.Sprintf("%.3f", t.Volume)})
	return delay(s, t.Offset)
}

func delay(s *ffmpeg.Stream, offset float64) *ffmpeg.Stream {
	if offset <= 0 {
		return s
	}
	return s.Filter("adelay", ffmpeg.Args{}, ffmpeg.KwArgs{"delays": ms(offset), "all": 1})
}

// Mix renders the soundtrack to out. It returns "" when there is nothing to mix.
func (p *Processor) Mix(ctx context.Context, m Mix, out string) (string, error) {
	if m.Music != nil && !m.Music.Loop && m.Music.Duration == 0 {
		if d, err := p.runner.Duration(ctx, m.Music.Path); err == nil {
			m.Music.Duration = d
		} else {
			p.logger.Warn().Err(err).Str("music", m.Music.Path).Msg("could not measure music")
		}
	}

	args := MixArgs(m, out)
	if args == nil {
		p.logger.Info().Msg("no music and no voiceover, video will be silent")
		return "", nil
	}
	if err := p.runner.Run(ctx, ffrun.RunOptions{Args: args}); err != nil {
		return "", fmt.Errorf("mix audio: %w", err)
	}
	return out, nil
}
