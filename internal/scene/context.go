// Package scene turns EDL clips into ordered visual layers.
//
// Every builder follows the same contract: given the timeline cursor and a clip it
// returns the clip's layers, background first, and the advanced cursor.
package scene

import (
	"context"
	"image"

	"github.com/rs/zerolog"
	"golang.org/x/image/font"

	"github.com/Kondomino/kondo-movie-sub001/internal/config"
	"github.com/Kondomino/kondo-movie-sub001/internal/edl"
	"github.com/Kondomino/kondo-movie-sub001/internal/effects"
	"github.com/Kondomino/kondo-movie-sub001/internal/text"
)

// FontSource resolves the first loadable font among keys.
type FontSource interface {
	First(ctx context.Context, size float64, keys ...string) font.Face
}

// AssetSource resolves an asset key to a local file.
type AssetSource interface {
	Get(ctx context.Context, key string) (string, error)
}

// Context is the read-only render context shared by all builders of one job.
type Context struct {
	Config   *config.Config
	Movie    *config.Movie
	FPS      int
	Size     image.Point
	Fonts    FontSource
	Assets   AssetSource
	Splitter text.Splitter
	// Media holds the prepared still of every image clip, keyed by clip number.
	Media  map[int]image.Image
	Logger zerolog.Logger
}

// Landscape reports whether the frame is wider than tall.
func (rc *Context) Landscape() bool {
	return rc.Size.X > rc.Size.Y
}

// Margins returns the title margins for the frame orientation.
func (rc *Context) Margins() config.Margins {
	if rc.Landscape() {
		return rc.Config.Titles.Landscape
	}
	return rc.Config.Titles.Portrait
}

func (rc *Context) splitter() text.Splitter {
	if rc.Splitter != nil {
		return rc.Splitter
	}
	return text.WordCount{WordsPerLine: rc.Config.Titles.WordsPerLine}
}

// EffectParams collects the animation parameters of an image clip.
func EffectParams(cfg *config.Config, size image.Point, fps int, clip edl.Clip) effects.Params {
	return effects.Params{
		Width:       size.X,
		Height:      size.Y,
		FPS:         fps,
		Duration:    clip.Duration.ToSeconds(fps),
		ZoomRate:    cfg.Image.ZoomRate,
		InitialZoom: cfg.Image.InitialZoom,
		PanSpeed:    cfg.Image.PanSpeed,
	}
}

// userKey builds a per-user asset key, empty when the job has no user.
func (rc *Context) userKey(parts ...string) string {
	if rc.Movie == nil || rc.Movie.UserID == "" {
		return ""
	}
	key := rc.Movie.UserID
	for _, p := range parts {
		key += "/" + p
	}
	return key
}
