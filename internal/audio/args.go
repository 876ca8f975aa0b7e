package audio

import (
	"fmt"
	"math"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/Kondomino/kondo-movie-sub001/internal/config"
	"github.com/Kondomino/kondo-movie-sub001/internal/tts"
)

func pcmOut() ffmpeg.KwArgs { return ffmpeg.KwArgs{"c:a": "pcm_s16le"} }

// DecodeArgs converts synthesized speech into 16-bit WAV. Raw PCM is read as mono s16le.
func DecodeArgs(in, out string, format tts.Format, sampleRate int) []string {
	inKw := ffmpeg.KwArgs{}
	if format == tts.FormatPCM {
		if sampleRate <= 0 {
			sampleRate = 24000
		}
		inKw = ffmpeg.KwArgs{"f": "s16le", "ar": sampleRate, "ac": 1}
	}
	return ffmpeg.Input(in, inKw).Output(out, pcmOut()).GetArgs()
}

// StretchArgs changes tempo by factor without changing pitch.
func StretchArgs(in, out string, factor float64) []string {
	return ffmpeg.Input(in).Audio().
		Filter("atempo", ffmpeg.Args{fmt.Sprintf("%.6f", factor)}).
		Output(out, pcmOut()).
		GetArgs()
}

// NormalizeArgs applies EBU R128 loudness normalization and a short fade-in.
func NormalizeArgs(in, out string, cfg config.NarrationConfig) []string {
	return ffmpeg.Input(in).Audio().
		Filter("loudnorm", ffmpeg.Args{}, ffmpeg.KwArgs{"i": cfg.TargetLUFS, "lra": cfg.LRA, "tp": cfg.TruePeak}).
		Filter("afade", ffmpeg.Args{}, ffmpeg.KwArgs{"t": "in", "st": 0, "d": cfg.FadeIn.Seconds()}).
		Output(out, ffmpeg.KwArgs{"c:a": "pcm_s16le", "ar": 48000}).
		GetArgs()
}

func ms(seconds float64) int {
	return int(math.Round(seconds * 1000))
}
